package enrollment

// Fee schedule for the 2025-2026 school year, in whole dollars.
const (
	ApplicationFee  = 20
	RegistrationFee = 100
	// ConvenienceFee is the card-payment surcharge.
	ConvenienceFee = 3

	SupplyFeeAmount = 50
	SportsFeeAmount = 60

	CurriculumPrek8Annual = 300
	Curriculum912Annual   = 325
)

// monthlyTuition is the per-payment amount of each tuition program
// (ten payments, due the first of the month).
var monthlyTuition = map[TuitionProgram]int{
	TuitionFT:   400,
	TuitionHP2:  260,
	TuitionHP1:  200,
	TuitionLDFT: 575,
	TuitionLD2:  365,
	TuitionLD1:  275,
}

// MonthlyTuition returns the per-payment tuition amount for the program,
// or 0 when the program is unknown or unselected.
func MonthlyTuition(p TuitionProgram) int {
	return monthlyTuition[p]
}

// TotalDue is the amount collected at submission time: application fee plus
// registration fee, plus the convenience fee on card payments.
func TotalDue(method PaymentMethod) int {
	total := ApplicationFee + RegistrationFee
	if method == PayCard {
		total += ConvenienceFee
	}
	return total
}
