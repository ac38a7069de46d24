package calculation

import (
	"github.com/shopspring/decimal"

	"lpgo/internal/domain"
)

// bonus payments land in June and December.
func isBonusMonth(month int) bool {
	return month == 6 || month == 12
}

// InvestmentAllocator resolves each month's planned contributions from the
// active allocation regimes, scales capped families into their remaining
// headroom, and rations the combined request against available cash.
type InvestmentAllocator struct {
	params *domain.SimulationParameters
	rules  *RuleResolver
}

// NewInvestmentAllocator creates an allocator over the parameters.
func NewInvestmentAllocator(params *domain.SimulationParameters, rules *RuleResolver) *InvestmentAllocator {
	return &InvestmentAllocator{params: params, rules: rules}
}

// FamilyCap returns the lifetime contribution cap of a cap family, zero for
// unknown or uncapped families.
func (ia *InvestmentAllocator) FamilyCap(family string) decimal.Decimal {
	switch family {
	case domain.FamilyPrimary:
		return ia.params.InvestmentPlan.LifetimeCap
	case domain.FamilySpouse:
		return ia.params.SpousePlan.LifetimeCap
	case domain.FamilyChild1, domain.FamilyChild2:
		return ia.params.ChildInvestment.CapPerChild
	}
	return decimal.Zero
}

// PlannedContributions resolves the full set of planned contributions for
// one month: the primary plan, the spouse plan from marriage onward, and the
// per-child contributions from birth through age 17. Capped families whose
// plan would exceed remaining headroom are scaled by remaining/planned so
// the family lands exactly on its cap.
func (ia *InvestmentAllocator) PlannedContributions(age, month int, ledger *domain.Ledger) []domain.Allocation {
	planned := make([]domain.Allocation, 0, 8)

	regime := ia.activeRegime(ia.params.InvestmentPlan.PreCap, ia.params.InvestmentPlan.PostCap,
		domain.FamilyPrimary, ledger)
	planned = append(planned, regime.Monthly...)
	if isBonusMonth(month) {
		planned = append(planned, regime.BonusPerPayment...)
	}

	sp := ia.params.SpousePlan
	if sp.Enabled && age >= ia.params.BasicInfo.MarriageAge {
		sRegime := ia.activeRegime(sp.PreCap, sp.PostCap, domain.FamilySpouse, ledger)
		planned = append(planned, sRegime.Monthly...)
		if isBonusMonth(month) {
			planned = append(planned, sRegime.BonusPerPayment...)
		}
	}

	ci := ia.params.ChildInvestment
	if ci.Enabled {
		if c1 := ia.rules.ChildAge(age, false); c1 >= 0 && c1 <= 17 {
			planned = append(planned, domain.Allocation{Bucket: domain.BucketChild1, Amount: ci.MonthlyPerChild})
		}
		if c2 := ia.rules.ChildAge(age, true); c2 >= 0 && c2 <= 17 {
			planned = append(planned, domain.Allocation{Bucket: domain.BucketChild2, Amount: ci.MonthlyPerChild})
		}
	}

	merged := mergeAllocations(planned)
	ia.scaleToHeadroom(merged, ledger)
	return merged
}

// activeRegime picks the pre-cap regime while the family still has headroom
// under its lifetime cap, the post-cap regime afterwards.
func (ia *InvestmentAllocator) activeRegime(pre, post domain.AllocationRegime, family string, ledger *domain.Ledger) domain.AllocationRegime {
	cap := ia.FamilyCap(family)
	if cap.IsPositive() && ledger.FamilyContributed(family).GreaterThanOrEqual(cap) {
		return post
	}
	return pre
}

// scaleToHeadroom scales each capped family's planned contributions by
// remaining/planned when the plan would overrun the family cap. Sibling
// buckets in a family share the ratio uniformly; uncapped buckets pass
// through untouched.
func (ia *InvestmentAllocator) scaleToHeadroom(planned []domain.Allocation, ledger *domain.Ledger) {
	totals := make(map[string]decimal.Decimal)
	for _, a := range planned {
		if family := ia.bucketFamily(a.Bucket, ledger); family != "" {
			totals[family] = totals[family].Add(a.Amount)
		}
	}
	for family, plannedTotal := range totals {
		cap := ia.FamilyCap(family)
		if !cap.IsPositive() || !plannedTotal.IsPositive() {
			continue
		}
		remaining := cap.Sub(ledger.FamilyContributed(family))
		if remaining.IsNegative() {
			remaining = decimal.Zero
		}
		if plannedTotal.LessThanOrEqual(remaining) {
			continue
		}
		ratio := remaining.Div(plannedTotal)
		for i := range planned {
			if ia.bucketFamily(planned[i].Bucket, ledger) == family {
				planned[i].Amount = planned[i].Amount.Mul(ratio).Round(0)
			}
		}
	}
}

func (ia *InvestmentAllocator) bucketFamily(name string, ledger *domain.Ledger) string {
	if b := ledger.Bucket(name); b != nil {
		return b.Family
	}
	return ""
}

// Ration applies the cash-availability constraint: with no surplus every
// contribution drops to zero; with insufficient surplus every bucket is
// scaled by available/requested, rationing all categories equally with no
// priority ordering.
func (ia *InvestmentAllocator) Ration(requested []domain.Allocation, available decimal.Decimal) domain.InvestmentBreakdown {
	out := domain.InvestmentBreakdown{Requested: requested}

	requestedTotal := decimal.Zero
	for _, a := range requested {
		requestedTotal = requestedTotal.Add(a.Amount)
	}

	switch {
	case !requestedTotal.IsPositive() || !available.IsPositive():
		out.Actual = zeroedAllocations(requested)
		out.Total = decimal.Zero
	case requestedTotal.GreaterThan(available):
		ratio := available.Div(requestedTotal)
		actual := make([]domain.Allocation, len(requested))
		total := decimal.Zero
		for i, a := range requested {
			amt := a.Amount.Mul(ratio).Round(0)
			actual[i] = domain.Allocation{Bucket: a.Bucket, Amount: amt}
			total = total.Add(amt)
		}
		out.Actual = actual
		out.Total = total
	default:
		out.Actual = append([]domain.Allocation(nil), requested...)
		out.Total = requestedTotal
	}
	return out
}

// mergeAllocations folds duplicate bucket entries (monthly plus bonus for
// the same bucket) into one, preserving first-seen order.
func mergeAllocations(allocs []domain.Allocation) []domain.Allocation {
	index := make(map[string]int, len(allocs))
	merged := make([]domain.Allocation, 0, len(allocs))
	for _, a := range allocs {
		if i, ok := index[a.Bucket]; ok {
			merged[i].Amount = merged[i].Amount.Add(a.Amount)
			continue
		}
		index[a.Bucket] = len(merged)
		merged = append(merged, a)
	}
	return merged
}

func zeroedAllocations(allocs []domain.Allocation) []domain.Allocation {
	out := make([]domain.Allocation, len(allocs))
	for i, a := range allocs {
		out[i] = domain.Allocation{Bucket: a.Bucket, Amount: decimal.Zero}
	}
	return out
}
