package enrollment

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/kairosacademy/enrollment/core"
)

var (
	ErrAlreadySubmitted = errors.New("this application has already been submitted")
	ErrPaymentRequired  = errors.New("payment has not been completed")
	ErrPaymentPending   = errors.New("payment has not been confirmed by the provider")
	// ErrSubmitFailed wraps a remote create failure after a captured payment.
	// Its message is deliberately distinct from payment errors so the user is
	// never left thinking the charge failed.
	ErrSubmitFailed = errors.New(
		"your payment was received but the application could not be saved; please retry submission — you will not be charged again")
)

type (
	// Payment is the provider's answer to a collection attempt. Offline rails
	// (cash/check/bank draft) complete immediately pending in-person
	// collection; the card rail hands back a hosted checkout URL and
	// completes later via Confirm.
	Payment struct {
		Ref         string
		RedirectURL string
		Completed   bool
	}

	// PaymentProvider brokers collection of a fixed dollar amount.
	PaymentProvider interface {
		Begin(ctx context.Context, draftID string, method PaymentMethod, amount int) (Payment, error)
		Confirm(ctx context.Context, ref string) (bool, error)
	}

	// ApplicationRepository is the remote datastore holding submitted records.
	ApplicationRepository interface {
		CreateRecord(ctx context.Context, fields map[string]interface{}) (Record, error)
		ListRecords(ctx context.Context) ([]Record, error)
	}

	// Service sequences payment collection and remote submission so that at
	// most one record is created per completed application.
	Service struct {
		repo    ApplicationRepository
		card    PaymentProvider
		offline PaymentProvider
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config
		now     func() time.Time
	}
)

func NewService(
	repo ApplicationRepository,
	card, offline PaymentProvider,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:    repo,
		card:    card,
		offline: offline,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
		now:     time.Now,
	}
}

func (s *Service) provider(method PaymentMethod) PaymentProvider {
	if method == PayCard {
		return s.card
	}
	return s.offline
}

// StartPayment validates the blocking sections one last time, then opens a
// payment with the provider for the chosen method. Offline rails complete
// immediately and submission proceeds in the same call; the card rail
// returns a hosted checkout URL and submission waits for ConfirmPayment.
// A payment captured by an earlier attempt is never re-charged: such calls
// skip the provider and go straight to the remote submission.
func (s *Service) StartPayment(ctx context.Context, form *Form, method PaymentMethod) (Payment, error) {
	if !ValidPaymentMethods[method] {
		return Payment{}, core.NewValidationError(errors.New("invalid payment method"),
			core.FieldError{Field: "paymentMethod", Error: "choose cash, check, bankDraft or card"})
	}
	sub := form.App().Submission
	if sub.State == StateCompleted {
		return Payment{}, ErrAlreadySubmitted
	}
	if sub.PaymentCompleted {
		// the fees are already captured; never open a second payment, just
		// re-run the remote submission
		return Payment{Ref: sub.PaymentRef, Completed: true}, s.submit(ctx, form)
	}
	for _, step := range []Step{StepParentInfo, StepFinancialConsent, StepAgreements} {
		if err := Gate(form.App(), step); err != nil {
			return Payment{}, err
		}
	}

	payment, err := s.provider(method).Begin(ctx, form.ID(), method, TotalDue(method))
	if err != nil {
		return Payment{}, errors.Wrap(err, "beginning payment")
	}

	sub = form.App().Submission
	sub.State = StateAwaitingPayment
	sub.PaymentMethod = method
	sub.PaymentRef = payment.Ref
	sub.PaymentCompleted = payment.Completed
	form.setSubmission(ctx, sub)

	if payment.Completed {
		if err := s.submit(ctx, form); err != nil {
			return payment, err
		}
	}
	return payment, nil
}

// ConfirmPayment checks the provider for the outcome of a pending (card)
// payment and, on success, performs the remote submission.
func (s *Service) ConfirmPayment(ctx context.Context, form *Form) error {
	sub := form.App().Submission
	if sub.State == StateCompleted {
		return ErrAlreadySubmitted
	}
	if sub.PaymentRef == "" {
		return ErrPaymentRequired
	}

	if !sub.PaymentCompleted {
		paid, err := s.provider(sub.PaymentMethod).Confirm(ctx, sub.PaymentRef)
		if err != nil {
			return errors.Wrap(err, "confirming payment")
		}
		if !paid {
			return ErrPaymentPending
		}
		sub.PaymentCompleted = true
		form.setSubmission(ctx, sub)
	}
	return s.submit(ctx, form)
}

// Retry re-runs the remote create-record call after a submission failure.
// The captured payment is never re-charged: only the create call repeats.
func (s *Service) Retry(ctx context.Context, form *Form) error {
	if !form.App().Submission.PaymentCompleted {
		return ErrPaymentRequired
	}
	return s.submit(ctx, form)
}

// submit maps the document and creates the remote record exactly once.
func (s *Service) submit(ctx context.Context, form *Form) error {
	sub := form.App().Submission
	if sub.RecordID != "" || sub.State == StateCompleted {
		return ErrAlreadySubmitted
	}
	if !sub.PaymentCompleted {
		return ErrPaymentRequired
	}

	sub.State = StateSubmitting
	form.setSubmission(ctx, sub)

	fields := MapRecord(form.App(), sub.PaymentMethod, s.now())
	rec, err := s.repo.CreateRecord(ctx, fields)
	if err != nil {
		// payment stays captured; only the create call is retried
		sub.State = StateAwaitingPayment
		form.setSubmission(ctx, sub)
		s.logger.Error(fmt.Sprintf("creating record for draft %s: %v", form.ID(), err), err)
		return errors.Wrap(ErrSubmitFailed, err.Error())
	}

	now := s.now()
	sub.State = StateCompleted
	sub.RecordID = rec.ID
	sub.SubmittedAt = &now
	form.setSubmission(ctx, sub)

	s.sendConfirmation(form.App())
	return nil
}

// FetchAll retrieves every submitted record. A page failure inside the
// repository aborts the whole listing; partial results are never returned.
func (s *Service) FetchAll(ctx context.Context) ([]Record, error) {
	records, err := s.repo.ListRecords(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing records")
	}
	return records, nil
}

// ExportCSV fetches all records and renders them for download.
func (s *Service) ExportCSV(ctx context.Context) (filename, content string, err error) {
	records, err := s.FetchAll(ctx)
	if err != nil {
		return "", "", err
	}
	content, err = ToCSV(records)
	if err != nil {
		return "", "", err
	}
	return ExportFilename(s.now()), content, nil
}

func (s *Service) sendConfirmation(app Application) {
	to := core.CleanString(app.ParentInfo.PrimaryGuardian.Email, true)
	if to == "" {
		return
	}
	student := joinName(app.StudentInfo.FirstName, app.StudentInfo.LastName)
	s.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Address: to}},
		Subject: "Application Received",
		TextContent: fmt.Sprintf(
			"Thank you for submitting an enrollment application for %s.\n\n"+
				"You will receive an email within a week with next steps. "+
				"There is no interview required.\n\n"+
				"Questions? Contact the school office at %s or %s.\n",
			student, s.conf.SchoolContactEmail, s.conf.SchoolContactPhone),
	})
}
