package enrollment

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// TriState is a yes/no answer that may also be left unanswered.
// Unset marshals as JSON null so the client can render "Select" distinctly
// from "No".
type TriState string

const (
	TriUnset TriState = ""
	TriYes   TriState = "yes"
	TriNo    TriState = "no"
)

// Known reports whether the question has been answered.
func (t TriState) Known() bool { return t == TriYes || t == TriNo }

// True reports whether the answer is an explicit yes.
func (t TriState) True() bool { return t == TriYes }

func (t TriState) MarshalJSON() ([]byte, error) {
	if !t.Known() {
		return []byte("null"), nil
	}
	return json.Marshal(string(t))
}

func (t *TriState) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null", `""`:
		*t = TriUnset
		return nil
	case "true", `"true"`, `"yes"`, `"Yes"`:
		*t = TriYes
		return nil
	case "false", `"false"`, `"no"`, `"No"`:
		*t = TriNo
		return nil
	}
	return errors.Errorf("invalid tri-state value: %s", data)
}

// Step is the wizard cursor into the fixed step sequence.
type Step int

const (
	StepStudentInfo Step = iota
	StepParentInfo
	StepReligiousInfo
	StepMedicalInfo
	StepSchoolingOptions
	StepFinancialConsent
	StepAgreements
	StepReview

	stepCount
)

var stepNames = [...]string{
	"Student Information",
	"Parent/Guardian Information",
	"Religious Information",
	"Medical Information",
	"Schooling Options",
	"Financial Consent",
	"Agreements",
	"Review & Payment",
}

func (s Step) Name() string {
	if s < 0 || s >= stepCount {
		return ""
	}
	return stepNames[s]
}

// LastStep is the final (review & payment) step index.
func LastStep() Step { return stepCount - 1 }

func StepCount() int { return int(stepCount) }

// SchoolingProgram is the program the student attends.
type SchoolingProgram string

const (
	ProgramFullTime SchoolingProgram = "full-time"
	ProgramHP1      SchoolingProgram = "hp1"
	ProgramHP2      SchoolingProgram = "hp2"
	ProgramLD1      SchoolingProgram = "ld1"
	ProgramLD2      SchoolingProgram = "ld2"
	ProgramLDFT     SchoolingProgram = "ldft"
)

// TuitionProgram selects one of the six mutually-exclusive tuition plans,
// each billed as ten monthly payments.
type TuitionProgram string

const (
	TuitionFT   TuitionProgram = "ft"
	TuitionHP2  TuitionProgram = "hp2"
	TuitionHP1  TuitionProgram = "hp1"
	TuitionLDFT TuitionProgram = "ldft"
	TuitionLD2  TuitionProgram = "ld2"
	TuitionLD1  TuitionProgram = "ld1"
)

// PaymentMethod is how the application + registration fees are collected.
type PaymentMethod string

const (
	PayCash      PaymentMethod = "cash"
	PayCheck     PaymentMethod = "check"
	PayBankDraft PaymentMethod = "bankDraft"
	PayCard      PaymentMethod = "card"
)

// ValidPaymentMethods is the canonical set of accepted payment method strings.
var ValidPaymentMethods = map[PaymentMethod]bool{
	PayCash: true, PayCheck: true, PayBankDraft: true, PayCard: true,
}

type AttentionSpan string

const (
	AttentionExcellent AttentionSpan = "Excellent"
	AttentionGood      AttentionSpan = "Good"
	AttentionAverage   AttentionSpan = "Average"
)

// SubmissionState tracks the final-step protocol.
type SubmissionState string

const (
	StateAwaitingPayment SubmissionState = "awaiting_payment"
	StateSubmitting      SubmissionState = "submitting"
	StateCompleted       SubmissionState = "completed"
)

type (
	Address struct {
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zipCode"`
	}

	// GuardianAddress adds the "same as student" shortcut flag.
	GuardianAddress struct {
		Street        string `json:"street"`
		City          string `json:"city"`
		State         string `json:"state"`
		ZipCode       string `json:"zipCode"`
		SameAsStudent bool   `json:"sameAsStudent"`
	}

	StudentInfo struct {
		FirstName     string  `json:"firstName"`
		MiddleName    string  `json:"middleName"`
		LastName      string  `json:"lastName"`
		DateOfBirth   string  `json:"dateOfBirth"` // YYYY-MM-DD
		Age           string  `json:"age"`         // derived, whole years
		Gender        string  `json:"gender"`
		Address       Address `json:"address"`
		Phone         string  `json:"phone"`
		Email         string  `json:"email"`
		GradeApplying string  `json:"gradeApplying"` // "K" or "1".."12"
		SSN           string  `json:"ssn"`
	}

	Guardian struct {
		FirstName     string          `json:"firstName"`
		LastName      string          `json:"lastName"`
		Relationship  string          `json:"relationship"`
		Phone         string          `json:"phone"`
		CellPhone     string          `json:"cellPhone"`
		BusinessPhone string          `json:"businessPhone"`
		Email         string          `json:"email"`
		Address       GuardianAddress `json:"address"`
		Occupation    string          `json:"occupation"`
		Employer      string          `json:"employer"`
	}

	EmergencyContact struct {
		FirstName    string  `json:"firstName"`
		LastName     string  `json:"lastName"`
		Relationship string  `json:"relationship"`
		Phone        string  `json:"phone"`
		CellPhone    string  `json:"cellPhone"`
		Address      Address `json:"address"`
	}

	ParentInfo struct {
		PrimaryGuardian   Guardian         `json:"primaryGuardian"`
		SecondaryGuardian Guardian         `json:"secondaryGuardian"`
		EmergencyContact  EmergencyContact `json:"emergencyContact"`
		MaritalStatus     string           `json:"maritalStatus"`
	}

	ReligiousInfo struct {
		ChurchAttending          string   `json:"churchAttending"`
		ChurchPhone              string   `json:"churchPhone"`
		PastorName               string   `json:"pastorName"`
		PastorPhone              string   `json:"pastorPhone"`
		FatherChristian          TriState `json:"fatherChristian"`
		MotherChristian          TriState `json:"motherChristian"`
		StudentProfessionOfFaith TriState `json:"studentProfessionOfFaith"`
	}

	Medication struct {
		Name      string `json:"name"`
		Dosage    string `json:"dosage"`
		Frequency string `json:"frequency"`
	}

	MedicalInfo struct {
		PhysicianName               string       `json:"physicianName"`
		PhysicianPhone              string       `json:"physicianPhone"`
		HasPhysicalImpairments      TriState     `json:"hasPhysicalImpairments"`
		PhysicalImpairmentsDetails  string       `json:"physicalImpairmentsDetails"`
		HasPhysicalDisabilities     TriState     `json:"hasPhysicalDisabilities"`
		PhysicalDisabilitiesDetails string       `json:"physicalDisabilitiesDetails"`
		ImmunizationUpToDate        TriState     `json:"immunizationUpToDate"`
		ImmunizationDetails         string       `json:"immunizationDetails"`
		HasLearningDisabilities     TriState     `json:"hasLearningDisabilities"`
		LearningDisabilitiesDetails string       `json:"learningDisabilitiesDetails"`
		AttendedAlternativeSchool   TriState     `json:"attendedAlternativeSchool"`
		AlternativeSchoolDetails    string       `json:"alternativeSchoolDetails"`
		Medications                 []Medication `json:"medications"`
	}

	SchoolingOptions struct {
		ProgramType       SchoolingProgram `json:"programType"`
		PreviousSchool    string           `json:"previousSchool"`
		ReasonForTransfer string           `json:"reasonForTransfer"`
		SpecialNeeds      string           `json:"specialNeeds"`
		HasIEP            TriState         `json:"hasIEP"`
		IEPDetails        string           `json:"iepDetails"`
	}

	AdditionalInfo struct {
		ReasonForEnrolling    string        `json:"reasonForEnrolling"`
		SpecialSkills         string        `json:"specialSkills"`
		ParentContribution    string        `json:"parentContribution"`
		HasBeenExpelled       TriState      `json:"hasBeenExpelled"`
		ExpelledDetails       string        `json:"expelledDetails"`
		FunctionIndependently TriState      `json:"functionIndependently"`
		AttentionSpan         AttentionSpan `json:"attentionSpan"`
	}

	FinancialConsent struct {
		TuitionProgram               TuitionProgram `json:"tuitionProgram"`
		SpecialNotes                 string         `json:"specialNotes"`
		CurriculumPaymentPrek8Annual bool           `json:"curriculumPaymentPrek8Annual"`
		CurriculumPaymentPrek8Split  bool           `json:"curriculumPaymentPrek8Split"`
		CurriculumPayment912Annual   bool           `json:"curriculumPayment912Annual"`
		CurriculumPayment912Split    bool           `json:"curriculumPayment912Split"`
		SupplyFee                    bool           `json:"supplyFee"`
		SportsFee                    bool           `json:"sportsFee"`
		DraftDate                    string         `json:"draftDate"`
		PreferredPaymentMethod       PaymentMethod  `json:"preferredPaymentMethod"`
		AgreeToTerms                 bool           `json:"agreeToTerms"`
	}

	CellPhoneRegistration struct {
		HasPhone           bool   `json:"hasPhone"`
		PhoneNumber        string `json:"phoneNumber"`
		Make               string `json:"make"`
		Model              string `json:"model"`
		Color              string `json:"color"`
		IdentifyingFactors string `json:"identifyingFactors"`
	}

	Agreements struct {
		PhotoRelease          TriState              `json:"photoRelease"`
		ParentCommitment      bool                  `json:"parentCommitment"`
		TermsAndConditions    bool                  `json:"termsAndConditions"`
		CellPhoneRegistration CellPhoneRegistration `json:"cellPhoneRegistration"`
	}

	// Submission tracks the final-step payment/submit protocol. Once
	// PaymentCompleted is set it is only ever cleared by Reset.
	Submission struct {
		State            SubmissionState `json:"state"`
		PaymentMethod    PaymentMethod   `json:"paymentMethod"`
		PaymentRef       string          `json:"paymentRef"`
		PaymentCompleted bool            `json:"paymentCompleted"`
		RecordID         string          `json:"recordId"`
		SubmittedAt      *time.Time      `json:"submittedAt"`
	}

	// Application is the whole enrollment-application document. It lives in
	// the draft store between steps and is mapped to one datastore record on
	// submission.
	Application struct {
		StudentInfo      StudentInfo      `json:"studentInfo"`
		ParentInfo       ParentInfo       `json:"parentInfo"`
		ReligiousInfo    ReligiousInfo    `json:"religiousInfo"`
		MedicalInfo      MedicalInfo      `json:"medicalInfo"`
		SchoolingOptions SchoolingOptions `json:"schoolingOptions"`
		AdditionalInfo   AdditionalInfo   `json:"additionalInfo"`
		FinancialConsent FinancialConsent `json:"financialConsent"`
		Agreements       Agreements       `json:"agreements"`
		Submission       Submission       `json:"submission"`
		CurrentStep      Step             `json:"currentStep"`
	}
)

// NewApplication returns the all-empty default document.
// The supply fee is pre-checked; everything else starts blank.
func NewApplication() Application {
	var app Application
	app.MedicalInfo.Medications = []Medication{}
	app.FinancialConsent.SupplyFee = true
	app.Submission.State = StateAwaitingPayment
	return app
}
