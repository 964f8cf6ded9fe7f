package models

// OperatingExpenses is the annual operating-expense breakdown for a
// property. When supplied as an override it replaces the whole default
// breakdown; individual lines are never merged with computed values.
type OperatingExpenses struct {
	WaterSewer     float64 `json:"water_sewer"`
	CommonElectric float64 `json:"common_electric"`
	Rubbish        float64 `json:"rubbish"`
	Management     float64 `json:"management"`
	Repairs        float64 `json:"repairs"`
	Legal          float64 `json:"legal"`
	CapitalReserve float64 `json:"capital_reserve"`
	Taxes          float64 `json:"taxes"`
	Licensing      float64 `json:"licensing"`
}

// Total sums the nine expense lines. Absent lines are zero-valued.
func (o OperatingExpenses) Total() float64 {
	return o.WaterSewer + o.CommonElectric + o.Rubbish + o.Management +
		o.Repairs + o.Legal + o.CapitalReserve + o.Taxes + o.Licensing
}

// PropertyOverrides is the partial record of user-supplied assumptions for
// one analysis session. Every field is optional; a nil pointer means "use
// the default or table value", while a pointer to zero is an explicit zero
// and survives the merge.
type PropertyOverrides struct {
	OfferPrice        *float64           `json:"offer_price,omitempty"`
	MonthlyRent       *float64           `json:"monthly_rent,omitempty"`
	UnitMix           UnitMix            `json:"unit_mix,omitempty"`
	DownPayment       *float64           `json:"down_payment,omitempty"`
	InterestRate      *float64           `json:"interest_rate,omitempty"`
	LoanTermYears     *int               `json:"loan_term_years,omitempty"`
	ClosingCosts      *float64           `json:"closing_costs,omitempty"`
	DueDiligence      *float64           `json:"due_diligence,omitempty"`
	Vacancy           *float64           `json:"vacancy,omitempty"`
	OperatingExpenses *OperatingExpenses `json:"operating_expenses,omitempty"`
}

// Clone returns a deep copy so history snapshots never share pointers with
// the overrides a caller keeps mutating.
func (p PropertyOverrides) Clone() PropertyOverrides {
	out := p
	out.UnitMix = p.UnitMix.Clone()
	out.OfferPrice = cloneFloat(p.OfferPrice)
	out.MonthlyRent = cloneFloat(p.MonthlyRent)
	out.DownPayment = cloneFloat(p.DownPayment)
	out.InterestRate = cloneFloat(p.InterestRate)
	out.ClosingCosts = cloneFloat(p.ClosingCosts)
	out.DueDiligence = cloneFloat(p.DueDiligence)
	out.Vacancy = cloneFloat(p.Vacancy)
	if p.LoanTermYears != nil {
		v := *p.LoanTermYears
		out.LoanTermYears = &v
	}
	if p.OperatingExpenses != nil {
		v := *p.OperatingExpenses
		out.OperatingExpenses = &v
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// AnalysisResult is the full set of derived investment metrics for one
// property under one set of assumptions. It is recomputed from scratch on
// every relevant input change and never partially updated.
type AnalysisResult struct {
	MonthlyGrossIncome float64 `json:"monthly_gross_income"`
	AnnualGrossIncome  float64 `json:"annual_gross_income"`
	OperatingExpenses  float64 `json:"operating_expenses"`
	NOI                float64 `json:"noi"`
	LoanAmount         float64 `json:"loan_amount"`
	MonthlyDebtService float64 `json:"monthly_debt_service"`
	AnnualDebtService  float64 `json:"annual_debt_service"`
	DSCR               float64 `json:"dscr"`
	CapRateAtAsk       float64 `json:"cap_rate_at_ask"`
	EquityRequired     float64 `json:"equity_required"`
	MonthlyCashFlow    float64 `json:"monthly_cash_flow"`
	ReturnOnCapital    float64 `json:"return_on_capital"`
}
