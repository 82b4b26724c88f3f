package enrollment

import (
	"github.com/pkg/errors"

	"github.com/kairosacademy/enrollment/core"
)

var errStepBlocked = errors.New("step requirements not met")

// Gate evaluates the blocking condition for leaving the given step against
// the current document. It returns nil when the step may be left, or a
// *core.ValidationError whose Fields name the offending inputs (the Field
// value is the client-side scroll/highlight target). Because gates are
// recomputed from current state on every attempt, a field's error disappears
// as soon as that field passes.
//
// Only four steps block; every other step is informational.
func Gate(app Application, step Step) error {
	switch step {
	case StepParentInfo:
		return gateEmergencyContact(app.ParentInfo.EmergencyContact)
	case StepFinancialConsent:
		return gateFinancialConsent(app.FinancialConsent)
	case StepAgreements:
		if !app.Agreements.TermsAndConditions {
			return core.NewValidationError(errStepBlocked, core.FieldError{
				Field: "agreements.termsAndConditions",
				Error: "you must accept the terms and conditions to continue",
			})
		}
	case StepReview:
		if !app.Submission.PaymentCompleted {
			return core.NewValidationError(errStepBlocked, core.FieldError{
				Field: "payment-section",
				Error: "please complete the payment before submitting the application",
			})
		}
	}
	return nil
}

// gateEmergencyContact requires all nine fields non-empty after trimming.
func gateEmergencyContact(ec EmergencyContact) error {
	required := []struct {
		field string
		value string
	}{
		{"emergencyContact.firstName", ec.FirstName},
		{"emergencyContact.lastName", ec.LastName},
		{"emergencyContact.relationship", ec.Relationship},
		{"emergencyContact.phone", ec.Phone},
		{"emergencyContact.cellPhone", ec.CellPhone},
		{"emergencyContact.address.street", ec.Address.Street},
		{"emergencyContact.address.city", ec.Address.City},
		{"emergencyContact.address.state", ec.Address.State},
		{"emergencyContact.address.zipCode", ec.Address.ZipCode},
	}

	var flds []core.FieldError
	for _, r := range required {
		if core.CleanString(r.value) == "" {
			flds = append(flds, core.FieldError{Field: r.field, Error: "this field is required"})
		}
	}
	if len(flds) > 0 {
		return core.NewValidationError(errStepBlocked, flds...)
	}
	return nil
}

// gateFinancialConsent requires the terms checkbox and at least one of the
// four curriculum-payment toggles. The two gates are independent: both must
// pass. The curriculum toggles are deliberately not mutually exclusive; any
// truthy subset satisfies the gate.
func gateFinancialConsent(fc FinancialConsent) error {
	var flds []core.FieldError
	if !fc.AgreeToTerms {
		flds = append(flds, core.FieldError{
			Field: "financialConsent.agreeToTerms",
			Error: "you must agree to the financial terms and policies to continue",
		})
	}
	if !(fc.CurriculumPaymentPrek8Annual || fc.CurriculumPaymentPrek8Split ||
		fc.CurriculumPayment912Annual || fc.CurriculumPayment912Split) {
		flds = append(flds, core.FieldError{
			Field: "financialConsent.curriculumPayment",
			Error: "select at least one curriculum payment option",
		})
	}
	if len(flds) > 0 {
		return core.NewValidationError(errStepBlocked, flds...)
	}
	return nil
}
