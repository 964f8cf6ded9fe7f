// Package analysis merges listing facts with user overrides and computes
// investment metrics. Everything here is pure: no I/O, no shared state.
package analysis

import (
	"dealfolio/server/internal/models"
	"dealfolio/server/internal/unitmix"
)

// Financing and transaction defaults applied when an override is absent.
// All fractions are 0..1 internally; formatting as percentages is the
// presentation layer's job.
const (
	DefaultDownPayment  = 0.20
	DefaultInterestRate = 0.07
	DefaultLoanTerm     = 30
	DefaultClosingCosts = 0.03
	DefaultDueDiligence = 0.01
	DefaultVacancy      = 0.03
)

// Assumptions is the effective configuration for one analysis pass: the
// base property with every override or default resolved.
type Assumptions struct {
	Property models.Property `json:"property"`

	OfferPrice float64 `json:"offer_price"`
	// MonthlyRent, when set, replaces the per-unit gross income
	// computation entirely.
	MonthlyRent *float64 `json:"monthly_rent,omitempty"`

	UnitMix models.UnitMix `json:"unit_mix"`

	DownPayment   float64 `json:"down_payment"`
	InterestRate  float64 `json:"interest_rate"`
	LoanTermYears int     `json:"loan_term_years"`
	ClosingCosts  float64 `json:"closing_costs"`
	DueDiligence  float64 `json:"due_diligence"`
	Vacancy       float64 `json:"vacancy"`

	OperatingExpenses models.OperatingExpenses `json:"operating_expenses"`
}

// Merge resolves a base property and a partial override record into an
// effective configuration. Each override field, when present, replaces the
// default wholesale; a pointer to zero is an explicit zero and sticks. The
// operating-expense breakdown and the unit mix are replaced as whole
// sub-records, never field-by-field. Merging the same overrides twice
// yields the same result as merging once.
func Merge(p models.Property, o models.PropertyOverrides) Assumptions {
	a := Assumptions{
		Property:      p,
		OfferPrice:    p.ListPrice,
		DownPayment:   DefaultDownPayment,
		InterestRate:  DefaultInterestRate,
		LoanTermYears: DefaultLoanTerm,
		ClosingCosts:  DefaultClosingCosts,
		DueDiligence:  DefaultDueDiligence,
		Vacancy:       DefaultVacancy,
		// Default expenses carry only the listed taxes; an override
		// breakdown replaces this object entirely.
		OperatingExpenses: models.OperatingExpenses{Taxes: p.AnnualTaxes},
	}

	if o.OfferPrice != nil {
		a.OfferPrice = *o.OfferPrice
	}
	if o.MonthlyRent != nil {
		v := *o.MonthlyRent
		a.MonthlyRent = &v
	}
	if o.DownPayment != nil {
		a.DownPayment = *o.DownPayment
	}
	if o.InterestRate != nil {
		a.InterestRate = *o.InterestRate
	}
	if o.LoanTermYears != nil {
		a.LoanTermYears = *o.LoanTermYears
	}
	if o.ClosingCosts != nil {
		a.ClosingCosts = *o.ClosingCosts
	}
	if o.DueDiligence != nil {
		a.DueDiligence = *o.DueDiligence
	}
	if o.Vacancy != nil {
		a.Vacancy = *o.Vacancy
	}
	if o.OperatingExpenses != nil {
		a.OperatingExpenses = *o.OperatingExpenses
	}

	switch {
	case len(o.UnitMix) > 0:
		a.UnitMix = o.UnitMix.Clone()
	case len(p.UnitMix) > 0:
		a.UnitMix = p.UnitMix.Clone()
	default:
		a.UnitMix = unitmix.Allocate(p.Units, p.Bedrooms)
	}

	return a
}
