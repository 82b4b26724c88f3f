package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Client is a minimal Airtable REST client covering record creation and
// paginated listing against one pre-provisioned base.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type Record struct {
	ID          string                 `json:"id,omitempty"`
	CreatedTime string                 `json:"createdTime,omitempty"`
	Fields      map[string]interface{} `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewClientWithBaseURL is used by tests to point the client at a local server.
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	c := NewClient(apiKey)
	c.baseURL = baseURL
	return c
}

// CreateRecord creates one record in the table. Field names must match the
// table schema; that contract is provisioned at deploy time, not validated
// here.
func (c *Client) CreateRecord(ctx context.Context, baseID, table string, fields map[string]interface{}) (Record, error) {
	endpoint := fmt.Sprintf("%s/%s/%s", c.baseURL, baseID, url.PathEscape(table))

	payload, err := json.Marshal(Record{Fields: fields})
	if err != nil {
		return Record{}, fmt.Errorf("failed to marshal record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return Record{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Record{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Record{}, fmt.Errorf("failed to create record (status %d): %s", resp.StatusCode, string(body))
	}

	var rec Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return Record{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if rec.ID == "" {
		return Record{}, fmt.Errorf("no record id in response")
	}
	return rec, nil
}

// ListRecords retrieves every record of the table view, following Airtable's
// offset pagination until exhausted. Any page failure aborts the whole
// listing; no partial result is returned.
func (c *Client) ListRecords(ctx context.Context, baseID, table string, pageSize int, view string) ([]Record, error) {
	var all []Record
	offset := ""
	for {
		page, next, err := c.listPage(ctx, baseID, table, pageSize, view, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		offset = next
	}
}

func (c *Client) listPage(ctx context.Context, baseID, table string, pageSize int, view, offset string) ([]Record, string, error) {
	q := make(url.Values)
	if pageSize > 0 {
		q.Set("pageSize", strconv.Itoa(pageSize))
	}
	if view != "" {
		q.Set("view", view)
	}
	if offset != "" {
		q.Set("offset", offset)
	}
	endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, baseID, url.PathEscape(table), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to list records (status %d): %s", resp.StatusCode, string(body))
	}

	var listResp listResponse
	if err := json.Unmarshal(body, &listResp); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return listResp.Records, listResp.Offset, nil
}
