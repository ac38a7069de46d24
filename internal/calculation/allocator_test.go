package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpgo/internal/domain"
)

func allocatorParams() *domain.SimulationParameters {
	p := rulesParams()
	p.InvestmentPlan = domain.InvestmentPlan{
		LifetimeCap: decimal.NewFromInt(1000000),
		PreCap: domain.AllocationRegime{
			Monthly: []domain.Allocation{
				{Bucket: "growth_a", Amount: decimal.NewFromInt(50000)},
				{Bucket: "growth_b", Amount: decimal.NewFromInt(30000)},
				{Bucket: domain.BucketEducationFund, Amount: decimal.NewFromInt(20000)},
			},
			BonusPerPayment: []domain.Allocation{
				{Bucket: "growth_a", Amount: decimal.NewFromInt(100000)},
			},
		},
		PostCap: domain.AllocationRegime{
			Monthly: []domain.Allocation{
				{Bucket: domain.BucketTaxable, Amount: decimal.NewFromInt(80000)},
			},
		},
	}
	p.Investment.Buckets = []domain.BucketDef{
		{Name: "growth_a", Family: domain.FamilyPrimary},
		{Name: "growth_b", Family: domain.FamilyPrimary},
		{Name: domain.BucketEducationFund},
		{Name: domain.BucketMarriageFund},
		{Name: domain.BucketTaxable},
	}
	return p
}

func allocatorLedger(p *domain.SimulationParameters) *domain.Ledger {
	return buildLedger(p)
}

func newAllocator(p *domain.SimulationParameters) *InvestmentAllocator {
	return NewInvestmentAllocator(p, NewRuleResolver(p))
}

func TestPlannedContributionsPreCap(t *testing.T) {
	p := allocatorParams()
	ia := newAllocator(p)
	ledger := allocatorLedger(p)

	planned := ia.PlannedContributions(30, 1, ledger)
	require.Len(t, planned, 3)
	assert.True(t, planned[0].Amount.Equal(decimal.NewFromInt(50000)))
	assert.True(t, planned[2].Amount.Equal(decimal.NewFromInt(20000)), "Uncapped bucket passes through")
}

func TestPlannedContributionsBonusMonthMerged(t *testing.T) {
	p := allocatorParams()
	ia := newAllocator(p)
	ledger := allocatorLedger(p)

	planned := ia.PlannedContributions(30, 6, ledger)
	require.Len(t, planned, 3, "Bonus amount merges into the same bucket")
	assert.True(t, planned[0].Amount.Equal(decimal.NewFromInt(150000)), "Monthly plus bonus for growth_a")
}

func TestPlannedContributionsPostCapRegime(t *testing.T) {
	p := allocatorParams()
	ia := newAllocator(p)
	ledger := allocatorLedger(p)
	ledger.Bucket("growth_a").Contributed = decimal.NewFromInt(1000000)

	planned := ia.PlannedContributions(30, 1, ledger)
	require.Len(t, planned, 1, "Cap reached switches to the post-cap regime")
	assert.Equal(t, domain.BucketTaxable, planned[0].Bucket)
}

func TestPlannedContributionsScaledToHeadroom(t *testing.T) {
	p := allocatorParams()
	ia := newAllocator(p)
	ledger := allocatorLedger(p)
	ledger.Bucket("growth_a").Contributed = decimal.NewFromInt(950000)

	// Remaining headroom 50000 against an 80000 family plan: ratio 0.625.
	planned := ia.PlannedContributions(30, 1, ledger)
	require.Len(t, planned, 3)
	assert.True(t, planned[0].Amount.Equal(decimal.NewFromInt(31250)), "got %s", planned[0].Amount)
	assert.True(t, planned[1].Amount.Equal(decimal.NewFromInt(18750)), "got %s", planned[1].Amount)
	assert.True(t, planned[2].Amount.Equal(decimal.NewFromInt(20000)), "Uncapped bucket is never scaled")
}

func TestPlannedContributionsChildBuckets(t *testing.T) {
	p := allocatorParams()
	p.ChildInvestment = domain.ChildInvestment{
		Enabled:         true,
		MonthlyPerChild: decimal.NewFromInt(10000),
		CapPerChild:     decimal.NewFromInt(18000000),
	}
	ia := newAllocator(p)
	ledger := allocatorLedger(p)

	// Age 40: first child is 6, second child is 4, both accumulating.
	planned := ia.PlannedContributions(40, 1, ledger)
	byBucket := make(map[string]decimal.Decimal)
	for _, a := range planned {
		byBucket[a.Bucket] = a.Amount
	}
	assert.True(t, byBucket[domain.BucketChild1].Equal(decimal.NewFromInt(10000)))
	assert.True(t, byBucket[domain.BucketChild2].Equal(decimal.NewFromInt(10000)))

	// Age 52: first child is 18, past the contribution window.
	planned = ia.PlannedContributions(52, 1, ledger)
	byBucket = make(map[string]decimal.Decimal)
	for _, a := range planned {
		byBucket[a.Bucket] = a.Amount
	}
	_, ok := byBucket[domain.BucketChild1]
	assert.False(t, ok, "Contributions stop after age 17")
	assert.True(t, byBucket[domain.BucketChild2].Equal(decimal.NewFromInt(10000)), "Second child is 16, still accumulating")
}

func TestRationNoSurplus(t *testing.T) {
	ia := newAllocator(allocatorParams())
	requested := []domain.Allocation{
		{Bucket: "growth_a", Amount: decimal.NewFromInt(50000)},
	}

	inv := ia.Ration(requested, decimal.NewFromInt(-10000))
	assert.True(t, inv.Total.IsZero(), "No surplus zeroes all investment")
	require.Len(t, inv.Actual, 1)
	assert.True(t, inv.Actual[0].Amount.IsZero())
}

func TestRationProportional(t *testing.T) {
	ia := newAllocator(allocatorParams())
	requested := []domain.Allocation{
		{Bucket: "growth_a", Amount: decimal.NewFromInt(60000)},
		{Bucket: "growth_b", Amount: decimal.NewFromInt(20000)},
	}

	// 40000 available against 80000 requested: everything halves.
	inv := ia.Ration(requested, decimal.NewFromInt(40000))
	assert.True(t, inv.Actual[0].Amount.Equal(decimal.NewFromInt(30000)))
	assert.True(t, inv.Actual[1].Amount.Equal(decimal.NewFromInt(10000)))
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(40000)))
}

func TestRationSufficientSurplus(t *testing.T) {
	ia := newAllocator(allocatorParams())
	requested := []domain.Allocation{
		{Bucket: "growth_a", Amount: decimal.NewFromInt(50000)},
	}

	inv := ia.Ration(requested, decimal.NewFromInt(200000))
	assert.True(t, inv.Total.Equal(decimal.NewFromInt(50000)), "Full request honored when affordable")
}
