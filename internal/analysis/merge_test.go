package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"dealfolio/server/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func baseProperty() models.Property {
	return models.Property{
		ID:          1,
		PostalCode:  "02108",
		ListPrice:   500000,
		AnnualTaxes: 6000,
		Units:       4,
		Bedrooms:    8,
	}
}

func TestMerge_Defaults(t *testing.T) {
	a := Merge(baseProperty(), models.PropertyOverrides{})

	assert.Equal(t, 500000.0, a.OfferPrice)
	assert.Equal(t, DefaultDownPayment, a.DownPayment)
	assert.Equal(t, DefaultInterestRate, a.InterestRate)
	assert.Equal(t, DefaultLoanTerm, a.LoanTermYears)
	assert.Equal(t, DefaultClosingCosts, a.ClosingCosts)
	assert.Equal(t, DefaultDueDiligence, a.DueDiligence)
	assert.Equal(t, DefaultVacancy, a.Vacancy)
	assert.Nil(t, a.MonthlyRent)

	// Default expenses carry the listed taxes only
	assert.Equal(t, 6000.0, a.OperatingExpenses.Taxes)
	assert.Equal(t, 6000.0, a.OperatingExpenses.Total())

	// No explicit mix anywhere falls back to the allocator
	assert.Equal(t, 4, a.UnitMix.TotalUnits())
	assert.Equal(t, models.UnitMix{{Bedrooms: 2, Units: 4}}, a.UnitMix)
}

func TestMerge_OverridesReplaceDefaults(t *testing.T) {
	o := models.PropertyOverrides{
		OfferPrice:    floatPtr(450000),
		DownPayment:   floatPtr(0.25),
		InterestRate:  floatPtr(0.065),
		LoanTermYears: intPtr(15),
		Vacancy:       floatPtr(0.05),
	}
	a := Merge(baseProperty(), o)

	assert.Equal(t, 450000.0, a.OfferPrice)
	assert.Equal(t, 0.25, a.DownPayment)
	assert.Equal(t, 0.065, a.InterestRate)
	assert.Equal(t, 15, a.LoanTermYears)
	assert.Equal(t, 0.05, a.Vacancy)
	// Untouched fields keep their defaults
	assert.Equal(t, DefaultClosingCosts, a.ClosingCosts)
}

func TestMerge_ExplicitZeroSticks(t *testing.T) {
	o := models.PropertyOverrides{
		DownPayment:  floatPtr(0),
		InterestRate: floatPtr(0),
	}
	a := Merge(baseProperty(), o)

	assert.Equal(t, 0.0, a.DownPayment)
	assert.Equal(t, 0.0, a.InterestRate)
}

func TestMerge_OpexIsWholeObjectReplacement(t *testing.T) {
	o := models.PropertyOverrides{
		OperatingExpenses: &models.OperatingExpenses{Repairs: 2000},
	}
	a := Merge(baseProperty(), o)

	// Setting one line replaces the whole breakdown; the default taxes
	// line is gone, not merged in.
	assert.Equal(t, 2000.0, a.OperatingExpenses.Repairs)
	assert.Equal(t, 0.0, a.OperatingExpenses.Taxes)
	assert.Equal(t, 2000.0, a.OperatingExpenses.Total())
}

func TestMerge_UnitMixPrecedence(t *testing.T) {
	p := baseProperty()
	p.UnitMix = models.UnitMix{{Bedrooms: 3, Units: 4}}

	// Property mix wins over the allocator
	a := Merge(p, models.PropertyOverrides{})
	assert.Equal(t, models.UnitMix{{Bedrooms: 3, Units: 4}}, a.UnitMix)

	// Override mix wins over the property mix
	o := models.PropertyOverrides{
		UnitMix: models.UnitMix{{Bedrooms: 1, Units: 2}, {Bedrooms: 2, Units: 2}},
	}
	a = Merge(p, o)
	assert.Equal(t, o.UnitMix, a.UnitMix)
}

func TestMerge_Idempotent(t *testing.T) {
	o := models.PropertyOverrides{
		OfferPrice:        floatPtr(425000),
		DownPayment:       floatPtr(0.3),
		LoanTermYears:     intPtr(20),
		OperatingExpenses: &models.OperatingExpenses{Repairs: 1500, Taxes: 7000},
		UnitMix:           models.UnitMix{{Bedrooms: 2, Units: 4, Rent: 2100}},
	}
	p := baseProperty()

	once := Merge(p, o)
	twice := Merge(p, o)
	assert.Equal(t, once, twice)
}

func TestMerge_DoesNotAliasOverrideMix(t *testing.T) {
	o := models.PropertyOverrides{
		UnitMix: models.UnitMix{{Bedrooms: 2, Units: 4}},
	}
	a := Merge(baseProperty(), o)

	o.UnitMix[0].Units = 99
	assert.Equal(t, 4, a.UnitMix[0].Units)
}
