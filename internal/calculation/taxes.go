package calculation

import (
	"github.com/shopspring/decimal"

	"lpgo/internal/domain"
)

var (
	one    = decimal.NewFromInt(1)
	two    = decimal.NewFromInt(2)
	twelve = decimal.NewFromInt(12)
)

// TakeHomeCalculator converts gross annual compensation into net take-home
// pay under the configured social-insurance and income-tax models.
type TakeHomeCalculator struct {
	Rates domain.TaxRates
}

// NewTakeHomeCalculator creates a take-home calculator for the given rates.
func NewTakeHomeCalculator(rates domain.TaxRates) *TakeHomeCalculator {
	return &TakeHomeCalculator{Rates: rates}
}

// TakeHome returns the annual net pay for a gross annual salary plus a
// taxable housing allowance. The tax band is selected on pre-insurance
// taxable income, while the band rate applies to the post-insurance base.
func (tc *TakeHomeCalculator) TakeHome(grossAnnual, housingAllowanceAnnual decimal.Decimal) decimal.Decimal {
	taxable := grossAnnual.Add(housingAllowanceAnnual)

	insurance := tc.SocialInsurance(taxable)
	taxBase := taxable.Sub(insurance)
	tax := taxBase.Mul(tc.bandRate(taxable))

	return taxable.Sub(insurance).Sub(tax)
}

// SocialInsurance returns the annual employee social-insurance contribution
// for the given annual taxable income.
func (tc *TakeHomeCalculator) SocialInsurance(annualTaxable decimal.Decimal) decimal.Decimal {
	si := tc.Rates.SocialInsurance
	if si.Mode != "detailed" {
		return annualTaxable.Mul(si.FlatRate)
	}
	total := decimal.Zero
	for _, cat := range si.Categories {
		base := annualTaxable
		if cat.AnnualBaseCap.IsPositive() && base.GreaterThan(cat.AnnualBaseCap) {
			base = cat.AnnualBaseCap
		}
		total = total.Add(base.Mul(cat.Rate).Mul(cat.EmployeeShare))
	}
	return total
}

// bandRate returns the tax rate of the band containing the given taxable
// income. The loader guarantees the bands are sorted with an open-ended last
// band, so the lookup always resolves.
func (tc *TakeHomeCalculator) bandRate(taxable decimal.Decimal) decimal.Decimal {
	for _, b := range tc.Rates.Bands {
		if b.UpTo.IsZero() || taxable.LessThanOrEqual(b.UpTo) {
			return b.Rate
		}
	}
	return decimal.Zero
}

// MonthlyNet returns the monthly net salary for a base monthly salary: the
// base-only annual take-home divided by twelve. Bonus income is excluded
// here and settled separately through BonusNet.
func (tc *TakeHomeCalculator) MonthlyNet(baseSalary, housingAllowanceMonthly decimal.Decimal) decimal.Decimal {
	return tc.TakeHome(baseSalary.Mul(twelve), housingAllowanceMonthly.Mul(twelve)).Div(twelve)
}

// BonusNet returns the per-payment net bonus: the difference between the
// with-bonus annual take-home and the base-only annual take-home, split
// across the two bonus-paying months. Computing the bonus as a differential
// keeps the progressive-tax effect from being counted twice.
func (tc *TakeHomeCalculator) BonusNet(baseSalary, bonusMonths, housingAllowanceMonthly decimal.Decimal) decimal.Decimal {
	if !bonusMonths.IsPositive() {
		return decimal.Zero
	}
	allowanceAnnual := housingAllowanceMonthly.Mul(twelve)
	netBase := tc.TakeHome(baseSalary.Mul(twelve), allowanceAnnual)
	netTotal := tc.TakeHome(baseSalary.Mul(twelve.Add(bonusMonths)), allowanceAnnual)
	return netTotal.Sub(netBase).Div(two)
}
