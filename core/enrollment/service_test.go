package enrollment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kairosacademy/enrollment/core"
)

// Test fakes

type fakeRepo struct {
	createCalls int
	failCreates int // fail this many creates before succeeding
	records     []Record
}

func (r *fakeRepo) CreateRecord(_ context.Context, fields map[string]interface{}) (Record, error) {
	r.createCalls++
	if r.failCreates > 0 {
		r.failCreates--
		return Record{}, errors.New("datastore unavailable")
	}
	rec := Record{ID: fmt.Sprintf("rec%d", r.createCalls), Fields: fields}
	r.records = append(r.records, rec)
	return rec, nil
}

func (r *fakeRepo) ListRecords(context.Context) ([]Record, error) {
	return r.records, nil
}

type fakeProvider struct {
	beginCalls   int
	confirmCalls int
	completes    bool // whether Begin completes immediately
	paid         bool // Confirm answer
}

func (p *fakeProvider) Begin(_ context.Context, draftID string, method PaymentMethod, amount int) (Payment, error) {
	p.beginCalls++
	payment := Payment{Ref: fmt.Sprintf("%s-%s-%d", method, draftID, amount), Completed: p.completes}
	if !p.completes {
		payment.RedirectURL = "https://checkout.example.com/" + payment.Ref
	}
	return payment, nil
}

func (p *fakeProvider) Confirm(context.Context, string) (bool, error) {
	p.confirmCalls++
	return p.paid, nil
}

type fakeMailer struct {
	sent []*core.EmailMessage
}

func (m *fakeMailer) SendMessages(messages ...*core.EmailMessage) {
	m.sent = append(m.sent, messages...)
}

type serviceFixture struct {
	svc     *Service
	repo    *fakeRepo
	card    *fakeProvider
	offline *fakeProvider
	mailer  *fakeMailer
	form    *Form
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		repo:    &fakeRepo{},
		card:    &fakeProvider{},
		offline: &fakeProvider{completes: true},
		mailer:  &fakeMailer{},
	}
	conf := &core.Config{AppName: "Kairos Enrollment", SchoolContactEmail: "office@example.org", SchoolContactPhone: "(979) 265-3590"}
	f.svc = NewService(f.repo, f.card, f.offline, f.mailer, nopLogger{}, conf)
	f.svc.now = func() time.Time { return mapNow }

	f.form = NewForm("d1", newMemStore(), nopLogger{})
	f.form.app = sampleApplication()
	return f
}

// Tests

func TestService_StartPayment_offline(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	payment, err := f.svc.StartPayment(ctx, f.form, PayCheck)
	require.NoError(t, err)
	assert.True(t, payment.Completed)
	assert.Empty(t, payment.RedirectURL)

	sub := f.form.App().Submission
	assert.Equal(t, StateCompleted, sub.State)
	assert.Equal(t, PayCheck, sub.PaymentMethod)
	assert.Equal(t, "rec1", sub.RecordID)
	require.NotNil(t, sub.SubmittedAt)

	assert.Equal(t, 1, f.offline.beginCalls)
	assert.Equal(t, 1, f.repo.createCalls)
	assert.Equal(t, 120, f.repo.records[0].Fields["Total Paid"])

	// confirmation goes to the primary guardian
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "annabella@example.com", f.mailer.sent[0].To[0].Address)
	assert.Contains(t, f.mailer.sent[0].TextContent, "office@example.org")
}

func TestService_StartPayment_card(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	payment, err := f.svc.StartPayment(ctx, f.form, PayCard)
	require.NoError(t, err)
	assert.False(t, payment.Completed)
	assert.NotEmpty(t, payment.RedirectURL)

	// nothing is submitted until the provider confirms
	sub := f.form.App().Submission
	assert.Equal(t, StateAwaitingPayment, sub.State)
	assert.Zero(t, f.repo.createCalls)

	f.card.paid = true
	require.NoError(t, f.svc.ConfirmPayment(ctx, f.form))

	sub = f.form.App().Submission
	assert.Equal(t, StateCompleted, sub.State)
	assert.Equal(t, 1, f.repo.createCalls)
	assert.Equal(t, 123, f.repo.records[0].Fields["Total Paid"])
}

func TestService_StartPayment_invalidMethod(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.StartPayment(context.Background(), f.form, "venmo")
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "paymentMethod", vErr.Fields[0].Field)
	assert.Zero(t, f.offline.beginCalls)
}

func TestService_StartPayment_regatesBlockingSteps(t *testing.T) {
	f := newServiceFixture(t)
	f.form.app.ParentInfo.EmergencyContact = EmergencyContact{}

	_, err := f.svc.StartPayment(context.Background(), f.form, PayCheck)
	var vErr *core.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Zero(t, f.offline.beginCalls, "a gated application must never reach the provider")
	assert.Zero(t, f.repo.createCalls)
}

func TestService_ConfirmPayment_pending(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.StartPayment(ctx, f.form, PayCard)
	require.NoError(t, err)

	err = f.svc.ConfirmPayment(ctx, f.form)
	assert.Equal(t, ErrPaymentPending, errors.Cause(err))
	assert.Zero(t, f.repo.createCalls)
	assert.False(t, f.form.App().Submission.PaymentCompleted)
}

func TestService_ConfirmPayment_withoutPayment(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.ConfirmPayment(context.Background(), f.form)
	assert.Equal(t, ErrPaymentRequired, errors.Cause(err))
}

func TestService_submitFailureKeepsPayment(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.repo.failCreates = 1

	_, err := f.svc.StartPayment(ctx, f.form, PayCheck)
	assert.Equal(t, ErrSubmitFailed, errors.Cause(err))

	// the charge stays captured; only the create call failed
	sub := f.form.App().Submission
	assert.Equal(t, StateAwaitingPayment, sub.State)
	assert.True(t, sub.PaymentCompleted)
	assert.Empty(t, sub.RecordID)
	assert.Empty(t, f.mailer.sent)

	// retry re-runs only the create call, never the charge
	require.NoError(t, f.svc.Retry(ctx, f.form))
	assert.Equal(t, 1, f.offline.beginCalls)
	assert.Equal(t, 2, f.repo.createCalls)
	assert.Equal(t, StateCompleted, f.form.App().Submission.State)
	assert.Len(t, f.mailer.sent, 1)
}

func TestService_StartPayment_neverRechargesCapturedPayment(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.repo.failCreates = 1

	_, err := f.svc.StartPayment(ctx, f.form, PayCheck)
	assert.Equal(t, ErrSubmitFailed, errors.Cause(err))
	originalRef := f.form.App().Submission.PaymentRef
	require.True(t, f.form.App().Submission.PaymentCompleted)

	// a second attempt, even with another method, must not reach a provider
	// or clear the captured payment; it only re-runs the remote submission
	payment, err := f.svc.StartPayment(ctx, f.form, PayCard)
	require.NoError(t, err)
	assert.True(t, payment.Completed)
	assert.Equal(t, originalRef, payment.Ref)

	assert.Zero(t, f.card.beginCalls)
	assert.Equal(t, 1, f.offline.beginCalls)

	sub := f.form.App().Submission
	assert.True(t, sub.PaymentCompleted)
	assert.Equal(t, PayCheck, sub.PaymentMethod)
	assert.Equal(t, originalRef, sub.PaymentRef)
	assert.Equal(t, StateCompleted, sub.State)
	assert.Equal(t, 2, f.repo.createCalls)
}

func TestService_Retry_requiresPayment(t *testing.T) {
	f := newServiceFixture(t)

	err := f.svc.Retry(context.Background(), f.form)
	assert.Equal(t, ErrPaymentRequired, errors.Cause(err))
	assert.Zero(t, f.repo.createCalls)
}

func TestService_submitAtMostOnce(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.StartPayment(ctx, f.form, PayCash)
	require.NoError(t, err)
	require.Equal(t, 1, f.repo.createCalls)

	// every further attempt is rejected without touching the datastore
	_, err = f.svc.StartPayment(ctx, f.form, PayCash)
	assert.Equal(t, ErrAlreadySubmitted, errors.Cause(err))
	assert.Equal(t, ErrAlreadySubmitted, errors.Cause(f.svc.ConfirmPayment(ctx, f.form)))
	assert.Equal(t, ErrAlreadySubmitted, errors.Cause(f.svc.Retry(ctx, f.form)))
	assert.Equal(t, 1, f.repo.createCalls)
	assert.Len(t, f.mailer.sent, 1)
}

func TestService_ExportCSV(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, _, err := f.svc.ExportCSV(ctx)
	assert.Equal(t, ErrNoRecords, errors.Cause(err))

	_, err = f.svc.StartPayment(ctx, f.form, PayCheck)
	require.NoError(t, err)

	filename, content, err := f.svc.ExportCSV(ctx)
	require.NoError(t, err)
	assert.Equal(t, "kairos-applications-2026-08-24.csv", filename)
	assert.Contains(t, content, "Ada Byron Lovelace")
}

func TestService_sendConfirmation_skipsWithoutEmail(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	f.form.app.ParentInfo.PrimaryGuardian.Email = ""

	_, err := f.svc.StartPayment(ctx, f.form, PayCheck)
	require.NoError(t, err)
	assert.Empty(t, f.mailer.sent)
}
