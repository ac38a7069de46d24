package calculation

import (
	"github.com/shopspring/decimal"

	"lpgo/internal/domain"
)

// RuleResolver answers the per-age lookups against the immutable parameter
// tables: which salary tier, which expense phase, which band amounts apply
// at a given simulated age. A lookup that matches no band resolves to zero;
// missing bands are expected, not errors.
type RuleResolver struct {
	params *domain.SimulationParameters
}

// NewRuleResolver creates a resolver over the given parameters.
func NewRuleResolver(params *domain.SimulationParameters) *RuleResolver {
	return &RuleResolver{params: params}
}

// SalaryForAge returns the base salary and bonus-month multiplier of the
// greatest income anchor at or below age. Ages below the first anchor fall
// back to the first anchor's tier.
func (rr *RuleResolver) SalaryForAge(age int) (base, bonusMonths decimal.Decimal) {
	anchors := rr.params.IncomeAnchors
	applicable := anchors[0]
	for _, a := range anchors {
		if age >= a.Age {
			applicable = a
		} else {
			break
		}
	}
	return applicable.BaseSalary, applicable.BonusMonths
}

// SpouseIncomeForAge returns the spouse's monthly income at age, zero before
// the marriage age regardless of band coverage.
func (rr *RuleResolver) SpouseIncomeForAge(age int) decimal.Decimal {
	if age < rr.params.BasicInfo.MarriageAge {
		return decimal.Zero
	}
	return domain.AmountForAge(rr.params.SpouseIncome, age)
}

// PensionForAge returns the monthly pension benefit, zero before its start.
func (rr *RuleResolver) PensionForAge(age int) decimal.Decimal {
	p := rr.params.Pension
	if p.StartAge > 0 && age >= p.StartAge {
		return p.MonthlyAmount
	}
	return decimal.Zero
}

// HousingAllowanceForAge returns the monthly taxable housing allowance.
func (rr *RuleResolver) HousingAllowanceForAge(age int) decimal.Decimal {
	return domain.AmountForAge(rr.params.HousingAllowance, age)
}

// HousingCostsForAge returns the housing cost band covering age, zero costs
// when no band matches.
func (rr *RuleResolver) HousingCostsForAge(age int) domain.AgeBandHousing {
	return domain.HousingForAge(rr.params.HousingCosts, age)
}

// PhaseForAge returns the expense phase covering age, nil when none does.
func (rr *RuleResolver) PhaseForAge(age int) *domain.Phase {
	for i := range rr.params.Phases {
		p := &rr.params.Phases[i]
		if age >= p.StartAge && age <= p.EndAge {
			return p
		}
	}
	return nil
}

// ChildAge returns a child's age at the given householder age, negative
// before birth. Child identity is by birth-age field, first or second.
func (rr *RuleResolver) ChildAge(householderAge int, second bool) int {
	if second {
		return householderAge - rr.params.BasicInfo.SecondChildBirthAge
	}
	return householderAge - rr.params.BasicInfo.FirstChildBirthAge
}

// ChildAllowanceForAge returns the combined monthly child allowance at the
// given householder age. The second child draws the raised multi-child rate
// in the 3-14 band.
func (rr *RuleResolver) ChildAllowanceForAge(age int) decimal.Decimal {
	ca := rr.params.ChildAllowance
	total := decimal.Zero

	if c1 := rr.ChildAge(age, false); c1 >= 0 {
		switch {
		case c1 <= 2:
			total = total.Add(ca.Age0to2)
		case c1 <= 14:
			total = total.Add(ca.Age3to14)
		}
	}
	if c2 := rr.ChildAge(age, true); c2 >= 0 {
		switch {
		case c2 <= 2:
			total = total.Add(ca.Age0to2)
		case c2 <= 14:
			total = total.Add(ca.Age3to14SecondChild)
		}
	}
	return total
}
