package enrollment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/kairosacademy/enrollment/core"
)

var (
	ErrDraftNotFound  = errors.New("application draft not found")
	ErrUnknownSection = errors.New("unknown section")
)

// DraftStore persists one in-progress Application document per draft ID
// between steps. Implementations live in storage/draft.
type DraftStore interface {
	Save(ctx context.Context, id string, app Application) error
	// Load returns ErrDraftNotFound when no draft exists under id.
	Load(ctx context.Context, id string) (Application, error)
	Clear(ctx context.Context, id string) error
}

// Form is the sole owner of one Application document and its step cursor.
// All mutation goes through its methods; every mutation persists the whole
// document through the DraftStore. A persist failure never fails the
// mutation: the in-memory document stays authoritative and the error is
// logged.
type Form struct {
	id     string
	app    Application
	store  DraftStore
	logger core.Logger
	now    func() time.Time
}

// NewForm starts a fresh form with the all-empty default document.
func NewForm(id string, store DraftStore, logger core.Logger) *Form {
	return &Form{
		id:     id,
		app:    NewApplication(),
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// LoadForm resumes a previously persisted draft, falling back to the default
// document when none exists or the stored blob cannot be read.
func LoadForm(ctx context.Context, id string, store DraftStore, logger core.Logger) *Form {
	f := NewForm(id, store, logger)
	app, err := store.Load(ctx, id)
	switch {
	case err == nil:
		f.app = app
	case errors.Cause(err) != ErrDraftNotFound:
		logger.Error(fmt.Sprintf("loading draft %s: %v", id, err), err)
	}
	return f
}

func (f *Form) ID() string { return f.id }

// App returns a copy of the current document.
func (f *Form) App() Application { return f.app }

// UpdateSection shallow-merges the partial JSON object into the named
// top-level section. No validation happens here; unknown keys are ignored
// and any provided key overwrites the current value.
func (f *Form) UpdateSection(ctx context.Context, section string, partial []byte) error {
	var dst interface{}
	switch section {
	case "studentInfo":
		dst = &f.app.StudentInfo
	case "parentInfo":
		dst = &f.app.ParentInfo
	case "religiousInfo":
		dst = &f.app.ReligiousInfo
	case "medicalInfo":
		dst = &f.app.MedicalInfo
	case "schoolingOptions":
		dst = &f.app.SchoolingOptions
	case "additionalInfo":
		dst = &f.app.AdditionalInfo
	case "financialConsent":
		dst = &f.app.FinancialConsent
	case "agreements":
		dst = &f.app.Agreements
	default:
		return errors.Wrap(ErrUnknownSection, section)
	}

	if err := json.Unmarshal(partial, dst); err != nil {
		return core.NewValidationError(errors.Wrapf(err, "updating %s", section))
	}
	if section == "studentInfo" {
		f.recomputeAge()
	}
	f.persist(ctx)
	return nil
}

// AddMedication appends to the medications list.
func (f *Form) AddMedication(ctx context.Context, m Medication) {
	f.app.MedicalInfo.Medications = append(f.app.MedicalInfo.Medications, m)
	f.persist(ctx)
}

// RemoveMedication removes by position; an out-of-range index is a no-op.
func (f *Form) RemoveMedication(ctx context.Context, index int) {
	meds := f.app.MedicalInfo.Medications
	if index < 0 || index >= len(meds) {
		return
	}
	f.app.MedicalInfo.Medications = append(meds[:index], meds[index+1:]...)
	f.persist(ctx)
}

// Advance moves the cursor one step forward, clamping at the final step.
// Step gating is the caller's concern: check Gate first.
func (f *Form) Advance(ctx context.Context) {
	if f.app.CurrentStep < LastStep() {
		f.app.CurrentStep++
		f.persist(ctx)
	}
}

// Retreat moves the cursor one step back, clamping at zero. Backward
// navigation is never gated.
func (f *Form) Retreat(ctx context.Context) {
	if f.app.CurrentStep > 0 {
		f.app.CurrentStep--
		f.persist(ctx)
	}
}

// GoTo sets the cursor directly. Out-of-range input is clamped to the
// nearest valid step.
func (f *Form) GoTo(ctx context.Context, step Step) {
	if step < 0 {
		step = 0
	}
	if step > LastStep() {
		step = LastStep()
	}
	f.app.CurrentStep = step
	f.persist(ctx)
}

// Gate returns the blocking validation for leaving the current step, or nil.
func (f *Form) Gate() error {
	return Gate(f.app, f.app.CurrentStep)
}

// Reset replaces the document with the all-empty default and clears the
// persisted draft. This is the only way to clear a completed payment.
func (f *Form) Reset(ctx context.Context) {
	f.app = NewApplication()
	if err := f.store.Clear(ctx, f.id); err != nil {
		f.logger.Error(fmt.Sprintf("clearing draft %s: %v", f.id, err), err)
	}
}

// setSubmission is used by the submission service; it persists like any
// other mutation.
func (f *Form) setSubmission(ctx context.Context, sub Submission) {
	f.app.Submission = sub
	f.persist(ctx)
}

// recomputeAge derives Age from DateOfBirth as whole years elapsed as of the
// most recent birthday. It is idempotent; an empty or unparsable date clears
// the field.
func (f *Form) recomputeAge() {
	dob := core.CleanString(f.app.StudentInfo.DateOfBirth)
	if dob == "" {
		f.app.StudentInfo.Age = ""
		return
	}
	birth, err := time.Parse("2006-01-02", dob)
	if err != nil {
		f.app.StudentInfo.Age = ""
		return
	}
	f.app.StudentInfo.Age = fmt.Sprintf("%d", AgeYears(birth, f.now()))
}

// AgeYears counts whole years between birth and now, decrementing by one
// when now's month/day precedes the birth month/day.
func AgeYears(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

func (f *Form) persist(ctx context.Context) {
	if err := f.store.Save(ctx, f.id, f.app); err != nil {
		f.logger.Error(fmt.Sprintf("saving draft %s: %v", f.id, err), err)
	}
}
