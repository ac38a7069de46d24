package calculation

import (
	"github.com/shopspring/decimal"

	"lpgo/internal/domain"
)

// ExpenseCalculator evaluates recurring monthly expenses and the per-child
// annual education cost schedule, applying compound inflation where enabled.
type ExpenseCalculator struct {
	params *domain.SimulationParameters
	rules  *RuleResolver
}

// NewExpenseCalculator creates an expense calculator over the parameters.
func NewExpenseCalculator(params *domain.SimulationParameters, rules *RuleResolver) *ExpenseCalculator {
	return &ExpenseCalculator{params: params, rules: rules}
}

// ApplyInflation compounds a base amount over the given number of years at
// the given rate and rounds to whole currency units. When inflation is
// disabled the base passes through unchanged.
func (ec *ExpenseCalculator) ApplyInflation(base decimal.Decimal, years int, rate decimal.Decimal) decimal.Decimal {
	if !ec.params.Inflation.Enabled {
		return base
	}
	factor := one.Add(rate).Pow(decimal.NewFromInt(int64(years)))
	return base.Mul(factor).Round(0)
}

// MonthlyExpenses returns one month's expense breakdown at the given age:
// the phase's categories inflation-adjusted, plus housing carried un-inflated
// on top. Housing un-inflated is a policy choice, not an omission.
func (ec *ExpenseCalculator) MonthlyExpenses(age, yearsFromStart int) domain.ExpenseBreakdown {
	housing := ec.rules.HousingCostsForAge(age)
	out := domain.ExpenseBreakdown{
		Rent:      housing.Rent,
		Mortgage:  housing.Mortgage,
		Utilities: housing.Utilities,
	}
	total := housing.Rent.Add(housing.Mortgage).Add(housing.Utilities)

	if phase := ec.rules.PhaseForAge(age); phase != nil {
		rate := ec.params.Inflation.LivingExpensesRate
		out.Items = make([]domain.ExpenseItem, len(phase.MonthlyExpenses))
		for i, item := range phase.MonthlyExpenses {
			adjusted := ec.ApplyInflation(item.Amount, yearsFromStart, rate)
			out.Items[i] = domain.ExpenseItem{Category: item.Category, Amount: adjusted}
			total = total.Add(adjusted)
		}
	}
	out.Total = total
	return out
}

// AnnualEducationCost returns one child's inflation-adjusted annual education
// cost at the given child age. Ages outside 0-22 cost nothing. The
// high-school band deducts the subsidy before inflation.
func (ec *ExpenseCalculator) AnnualEducationCost(childAge, yearsFromStart int) decimal.Decimal {
	if childAge < 0 || childAge > 22 {
		return decimal.Zero
	}
	costs := ec.params.EducationCosts
	var cost decimal.Decimal
	switch {
	case childAge <= 5:
		cost = costs.Childcare0to5
	case childAge <= 11:
		cost = costs.SchoolFees6to11.Add(costs.Lessons6to11)
	case childAge <= 14:
		cost = costs.SchoolFees12to14.Add(costs.CramSchool12to14)
	case childAge <= 17:
		cost = costs.SchoolFees15to17.Add(costs.CramSchool15to17).Sub(ec.params.HighSchoolSubsidy)
	case childAge == 18:
		cost = costs.ExamFees18
	case childAge == 19:
		cost = costs.UniversityEntranceFee.Add(costs.UniversityAnnualTuition).Add(costs.UniversityLivingAnnual)
	default: // 20-22
		cost = costs.UniversityAnnualTuition.Add(costs.UniversityLivingAnnual)
	}
	return ec.ApplyInflation(cost, yearsFromStart, ec.params.Inflation.EducationRate)
}
