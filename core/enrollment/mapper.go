package enrollment

import (
	"strconv"
	"strings"
	"time"

	"github.com/kairosacademy/enrollment/core"
)

// StatusSubmitted is the initial status of every created record; the office
// moves records to "In Review" / "Approved" / "Rejected" from the datastore
// side.
const StatusSubmitted = "Submitted"

// MapRecord flattens the application document plus the chosen payment method
// into the field set of the remote datastore. It is pure: no I/O, and
// identical inputs always yield the same output.
//
// Coercion rules:
//   - empty strings and unset tri-states in string mode map to omitted
//     fields, never null (the datastore schema rejects nulls);
//   - tri-states render "Yes"/"No"/"N/A" in string mode, and true/false/
//     omitted in boolean mode;
//   - numeric-looking text (phones, grade, age) parses to numbers, with
//     unparsable input omitted rather than zeroed;
//   - grade "K" maps to 0.
func MapRecord(app Application, method PaymentMethod, now time.Time) map[string]interface{} {
	fields := make(map[string]interface{})

	si := app.StudentInfo
	setString(fields, "Student Name", joinName(si.FirstName, si.MiddleName, si.LastName))
	setString(fields, "Student DOB", si.DateOfBirth)
	setNumber(fields, "Student Age", si.Age)
	setString(fields, "Student Gender", si.Gender)
	setString(fields, "Student Address", flattenAddress(si.Address))
	setPhone(fields, "Student Phone", si.Phone)
	setString(fields, "Student Email", si.Email)
	setGrade(fields, "Student Grade", si.GradeApplying)
	setString(fields, "Student SSN", si.SSN)

	pg := app.ParentInfo.PrimaryGuardian
	setString(fields, "Parent Name", joinName(pg.FirstName, pg.LastName))
	setString(fields, "Parent Relationship", pg.Relationship)
	setPhone(fields, "Parent Phone", pg.Phone)
	setPhone(fields, "Parent Cell Phone", pg.CellPhone)
	setString(fields, "Parent Email", pg.Email)
	setString(fields, "Parent Address", flattenGuardianAddress(pg.Address))
	setString(fields, "Parent Occupation", pg.Occupation)
	setString(fields, "Parent Employer", pg.Employer)

	sg := app.ParentInfo.SecondaryGuardian
	setString(fields, "Secondary Parent Name", joinName(sg.FirstName, sg.LastName))
	setPhone(fields, "Secondary Parent Phone", sg.Phone)
	setString(fields, "Secondary Parent Email", sg.Email)
	setString(fields, "Secondary Parent Address", flattenGuardianAddress(sg.Address))

	ec := app.ParentInfo.EmergencyContact
	setString(fields, "Emergency Contact Name", joinName(ec.FirstName, ec.LastName))
	setString(fields, "Emergency Contact Relationship", ec.Relationship)
	setPhone(fields, "Emergency Contact Phone", ec.Phone)
	setPhone(fields, "Emergency Contact Cell Phone", ec.CellPhone)
	setString(fields, "Emergency Contact Address", flattenAddress(ec.Address))
	setString(fields, "Marital Status", app.ParentInfo.MaritalStatus)

	ri := app.ReligiousInfo
	setString(fields, "Church", ri.ChurchAttending)
	setPhone(fields, "Church Phone", ri.ChurchPhone)
	setString(fields, "Pastor Name", ri.PastorName)
	setPhone(fields, "Pastor Phone", ri.PastorPhone)
	fields["Father Christian"] = triToken(ri.FatherChristian)
	fields["Mother Christian"] = triToken(ri.MotherChristian)
	fields["Profession of Faith"] = triToken(ri.StudentProfessionOfFaith)

	mi := app.MedicalInfo
	setString(fields, "Physician Name", mi.PhysicianName)
	setPhone(fields, "Physician Phone", mi.PhysicianPhone)
	fields["Physical Impairments"] = triToken(mi.HasPhysicalImpairments)
	setString(fields, "Physical Impairments Details", mi.PhysicalImpairmentsDetails)
	fields["Physical Disabilities"] = triToken(mi.HasPhysicalDisabilities)
	setString(fields, "Physical Disabilities Details", mi.PhysicalDisabilitiesDetails)
	fields["Immunizations Up To Date"] = triToken(mi.ImmunizationUpToDate)
	setString(fields, "Immunization Details", mi.ImmunizationDetails)
	fields["Learning Disabilities"] = triToken(mi.HasLearningDisabilities)
	setString(fields, "Learning Disabilities Details", mi.LearningDisabilitiesDetails)
	fields["Alternative School"] = triToken(mi.AttendedAlternativeSchool)
	setString(fields, "Alternative School Details", mi.AlternativeSchoolDetails)
	setString(fields, "Medications", joinMedications(mi.Medications))

	so := app.SchoolingOptions
	setString(fields, "Program Type", string(so.ProgramType))
	setString(fields, "Previous School", so.PreviousSchool)
	setString(fields, "Reason For Transfer", so.ReasonForTransfer)
	setString(fields, "Special Needs", so.SpecialNeeds)
	fields["Has IEP"] = triToken(so.HasIEP)
	setString(fields, "IEP Details", so.IEPDetails)

	ai := app.AdditionalInfo
	setString(fields, "Reason For Enrolling", ai.ReasonForEnrolling)
	setString(fields, "Special Skills", ai.SpecialSkills)
	setString(fields, "Parent Contribution", ai.ParentContribution)
	fields["Has Been Expelled"] = triToken(ai.HasBeenExpelled)
	setString(fields, "Expelled Details", ai.ExpelledDetails)
	fields["Functions Independently"] = triToken(ai.FunctionIndependently)
	setString(fields, "Attention Span", string(ai.AttentionSpan))

	fc := app.FinancialConsent
	setString(fields, "Tuition Program", string(fc.TuitionProgram))
	if amount := MonthlyTuition(fc.TuitionProgram); amount > 0 {
		fields["Monthly Tuition"] = amount
	}
	setString(fields, "Special Notes", fc.SpecialNotes)
	fields["Curriculum PreK-8 Annual"] = fc.CurriculumPaymentPrek8Annual
	fields["Curriculum PreK-8 Split"] = fc.CurriculumPaymentPrek8Split
	fields["Curriculum 9-12 Annual"] = fc.CurriculumPayment912Annual
	fields["Curriculum 9-12 Split"] = fc.CurriculumPayment912Split
	if fc.CurriculumPaymentPrek8Annual || fc.CurriculumPaymentPrek8Split {
		fields["Curriculum PreK-8 Fee"] = CurriculumPrek8Annual
	}
	if fc.CurriculumPayment912Annual || fc.CurriculumPayment912Split {
		fields["Curriculum 9-12 Fee"] = Curriculum912Annual
	}
	fields["Supply Fee"] = fc.SupplyFee
	if fc.SupplyFee {
		fields["Supply Fee Amount"] = SupplyFeeAmount
	}
	fields["Sports Fee"] = fc.SportsFee
	if fc.SportsFee {
		fields["Sports Fee Amount"] = SportsFeeAmount
	}
	setString(fields, "Draft Date", fc.DraftDate)
	fields["Agreed To Financial Terms"] = fc.AgreeToTerms

	ag := app.Agreements
	fields["Photo Release"] = triToken(ag.PhotoRelease)
	fields["Parent Commitment"] = ag.ParentCommitment
	fields["Terms And Conditions"] = ag.TermsAndConditions
	cp := ag.CellPhoneRegistration
	fields["Has Cell Phone"] = cp.HasPhone
	if cp.HasPhone {
		setPhone(fields, "Cell Phone Number", cp.PhoneNumber)
		setString(fields, "Cell Phone Description",
			joinName(cp.Make, cp.Model, cp.Color, cp.IdentifyingFactors))
	}

	fields["Payment Method"] = string(method)
	fields["Application Fee"] = ApplicationFee
	fields["Registration Fee"] = RegistrationFee
	if method == PayCard {
		fields["Convenience Fee"] = ConvenienceFee
	}
	fields["Total Paid"] = TotalDue(method)
	fields["Submission Date"] = now.Format("2006-01-02")
	fields["Status"] = StatusSubmitted

	return fields
}

// joinName concatenates the non-empty parts with single spaces.
func joinName(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = core.CleanString(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// flattenAddress renders the non-empty address components comma-separated.
func flattenAddress(a Address) string {
	kept := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.ZipCode} {
		if p = core.CleanString(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

func flattenGuardianAddress(a GuardianAddress) string {
	if a.SameAsStudent {
		return "Same as student"
	}
	return flattenAddress(Address{Street: a.Street, City: a.City, State: a.State, ZipCode: a.ZipCode})
}

// triToken renders a tri-state in string mode: unanswered questions are
// reported as "N/A", never dropped, so the office can tell "No" from
// "not asked".
func triToken(t TriState) string {
	switch t {
	case TriYes:
		return "Yes"
	case TriNo:
		return "No"
	}
	return "N/A"
}

// joinMedications renders "Name (dosage frequency); ..." entries. A
// medication without a name carries nothing useful and is skipped.
func joinMedications(meds []Medication) string {
	entries := make([]string, 0, len(meds))
	for _, m := range meds {
		entry := core.CleanString(m.Name)
		if entry == "" {
			continue
		}
		if extra := joinName(m.Dosage, m.Frequency); extra != "" {
			entry += " (" + extra + ")"
		}
		entries = append(entries, entry)
	}
	return strings.Join(entries, "; ")
}

// setString sets key only when value is non-empty after trimming.
func setString(fields map[string]interface{}, key, value string) {
	if value = core.CleanString(value); value != "" {
		fields[key] = value
	}
}

// setNumber parses value as a number; empty or unparsable input omits the
// field entirely — downstream must not assume zero.
func setNumber(fields map[string]interface{}, key, value string) {
	n, err := strconv.ParseFloat(core.CleanString(value), 64)
	if err != nil {
		return
	}
	fields[key] = n
}

// setPhone keeps only digits before parsing, so "(979) 265-3590" still maps
// to a number.
func setPhone(fields map[string]interface{}, key, value string) {
	var digits strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	setNumber(fields, key, digits.String())
}

// setGrade maps "K" to 0 and other grade tokens to their integer value.
func setGrade(fields map[string]interface{}, key, value string) {
	value = core.CleanString(value)
	if strings.EqualFold(value, "K") {
		fields[key] = 0
		return
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return
	}
	fields[key] = n
}
