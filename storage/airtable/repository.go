package airtable

import (
	"context"

	"github.com/kairosacademy/enrollment/core"
	"github.com/kairosacademy/enrollment/core/enrollment"
)

// ApplicationRepository exposes the applications table as the domain's
// remote record store.
type ApplicationRepository struct {
	client   *Client
	baseID   string
	table    string
	view     string
	pageSize int
}

var _ enrollment.ApplicationRepository = (*ApplicationRepository)(nil)

func NewApplicationRepository(client *Client, conf *core.Config) *ApplicationRepository {
	return &ApplicationRepository{
		client:   client,
		baseID:   conf.Airtable.BaseID,
		table:    conf.Airtable.Table,
		view:     conf.Airtable.View,
		pageSize: conf.Airtable.PageSize,
	}
}

func (r *ApplicationRepository) CreateRecord(ctx context.Context, fields map[string]interface{}) (enrollment.Record, error) {
	rec, err := r.client.CreateRecord(ctx, r.baseID, r.table, fields)
	if err != nil {
		return enrollment.Record{}, err
	}
	return enrollment.Record{ID: rec.ID, Fields: rec.Fields}, nil
}

func (r *ApplicationRepository) ListRecords(ctx context.Context) ([]enrollment.Record, error) {
	recs, err := r.client.ListRecords(ctx, r.baseID, r.table, r.pageSize, r.view)
	if err != nil {
		return nil, err
	}
	out := make([]enrollment.Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, enrollment.Record{ID: rec.ID, Fields: rec.Fields})
	}
	return out, nil
}
