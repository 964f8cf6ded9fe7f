package analysis

import (
	"math"

	"dealfolio/server/internal/models"
)

// RentFunc resolves the monthly rent for one unit with the given bedroom
// count. The binding of rent table, postal code, override mix and
// valuation mode happens at the caller, keeping the engine pure.
type RentFunc func(bedrooms int) float64

// Analyze derives the full metrics record for one effective configuration.
// Every division is guarded; the worst case for bad input is a zero-filled
// record, never a panic, NaN or Inf.
func Analyze(a Assumptions, resolve RentFunc) models.AnalysisResult {
	var r models.AnalysisResult

	if a.MonthlyRent != nil {
		r.MonthlyGrossIncome = clampNonNegative(*a.MonthlyRent)
	} else {
		for _, e := range a.UnitMix {
			if e.Units <= 0 {
				continue
			}
			r.MonthlyGrossIncome += clampNonNegative(resolve(e.Bedrooms)) * float64(e.Units)
		}
	}
	r.AnnualGrossIncome = r.MonthlyGrossIncome * 12

	r.OperatingExpenses = clampNonNegative(a.OperatingExpenses.Total())
	r.NOI = r.AnnualGrossIncome - r.OperatingExpenses

	offer := clampNonNegative(a.OfferPrice)
	down := clampFraction(a.DownPayment)
	r.LoanAmount = offer * (1 - down)

	r.MonthlyDebtService = monthlyPayment(r.LoanAmount, clampNonNegative(a.InterestRate), a.LoanTermYears)
	r.AnnualDebtService = r.MonthlyDebtService * 12

	r.DSCR = safeRatio(r.NOI, r.AnnualDebtService)
	r.CapRateAtAsk = safeRatio(r.NOI, offer) * 100

	r.EquityRequired = offer * (down + clampFraction(a.ClosingCosts) + clampFraction(a.DueDiligence))
	r.MonthlyCashFlow = r.NOI/12 - r.MonthlyDebtService
	r.ReturnOnCapital = safeRatio(r.MonthlyCashFlow*12, r.EquityRequired)

	return r
}

// monthlyPayment applies the standard fixed-rate amortization formula
// P*r(1+r)^n / ((1+r)^n - 1). A zero interest rate degenerates to
// straight-line repayment.
func monthlyPayment(loan, annualRate float64, termYears int) float64 {
	n := float64(termYears) * 12
	if loan <= 0 || n <= 0 {
		return 0
	}
	if annualRate == 0 {
		return loan / n
	}
	r := annualRate / 12
	factor := math.Pow(1+r, n)
	return loan * r * factor / (factor - 1)
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

func clampNonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func clampFraction(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	}
	return v
}
