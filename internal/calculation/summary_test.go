package calculation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpgo/internal/domain"
)

func yearlyOnlyResult(records ...domain.YearlyRecord) *domain.ProjectionResult {
	return &domain.ProjectionResult{Yearly: records}
}

func TestBuildEducationSummary(t *testing.T) {
	p := expenseParams(false)
	result := yearlyOnlyResult(
		domain.YearlyRecord{Age: 34},
		domain.YearlyRecord{Age: 35},
		domain.YearlyRecord{Age: 36},
	)

	sum := BuildEducationSummary(p, result)

	// First child covers ages 0-2 at 300000 each, the second is born in the
	// last year.
	assert.True(t, sum.Child1Total.Equal(decimal.NewFromInt(900000)), "got %s", sum.Child1Total)
	assert.True(t, sum.Child2Total.Equal(decimal.NewFromInt(300000)), "got %s", sum.Child2Total)
	require.Len(t, sum.Child1ByAge, 3)
	assert.Equal(t, 2, sum.Child1ByAge[2].ChildAge)
	assert.True(t, sum.Child1ByAge[2].CumulativeCost.Equal(decimal.NewFromInt(900000)))

	// Allowance: 15000 + 15000 + 30000 monthly across the three years.
	assert.True(t, sum.ChildAllowanceTotal.Equal(decimal.NewFromInt(720000)), "got %s", sum.ChildAllowanceTotal)
	assert.True(t, sum.NetEducationCost.Equal(decimal.NewFromInt(480000)), "got %s", sum.NetEducationCost)
}

func TestBuildDividendSummary(t *testing.T) {
	p := expenseParams(false)
	p.Investment = domain.InvestmentSettings{
		Buckets: []domain.BucketDef{
			{Name: domain.BucketCompanyStock, Equity: true},
			{Name: domain.BucketTaxable, DividendYield: decimal.NewFromFloat(0.02)},
		},
		CompanyStock: domain.CompanyStock{DividendYield: decimal.NewFromFloat(0.04)},
	}
	result := yearlyOnlyResult(
		domain.YearlyRecord{
			Age: 58, Year: 2053,
			DividendTotal: decimal.NewFromInt(38000), DividendReceived: decimal.NewFromInt(19000),
		},
		domain.YearlyRecord{
			Age: 59, Year: 2054,
			Balances: []domain.BucketBalance{
				{Name: domain.BucketCompanyStock, Amount: decimal.NewFromInt(1000000)},
				{Name: domain.BucketTaxable, Amount: decimal.NewFromInt(500000)},
			},
			DividendTotal: decimal.NewFromInt(40000), DividendReceived: decimal.NewFromInt(20000),
		},
	)

	sum := BuildDividendSummary(p, result)

	assert.True(t, sum.DividendAssets.Equal(decimal.NewFromInt(1500000)))

	// Gross 40000 + 10000, net of the 20.315% withholding.
	expected := decimal.NewFromInt(50000).Mul(decimal.NewFromInt(1).Sub(dividendTaxRate))
	assert.True(t, sum.AnnualAfterTax.Equal(expected), "got %s", sum.AnnualAfterTax)
	assert.True(t, sum.MonthlyAfterTax.Equal(expected.Div(decimal.NewFromInt(12))))
	assert.True(t, sum.YieldPercent.IsPositive())

	require.Len(t, sum.History, 2)
	assert.Equal(t, 2053, sum.History[0].Year)
	assert.True(t, sum.History[1].Total.Equal(decimal.NewFromInt(40000)))
}

func TestBuildDividendSummaryEmpty(t *testing.T) {
	sum := BuildDividendSummary(expenseParams(false), yearlyOnlyResult())
	assert.True(t, sum.DividendAssets.IsZero())
	assert.Empty(t, sum.History)
}

func riskyResult() *domain.ProjectionResult {
	return yearlyOnlyResult(
		domain.YearlyRecord{Age: 40, Cash: decimal.NewFromInt(100000), AssetsEnd: decimal.NewFromInt(500000)},
		domain.YearlyRecord{Age: 41, Cash: decimal.NewFromInt(-50000), AssetsEnd: decimal.NewFromInt(450000)},
		domain.YearlyRecord{Age: 42, Cash: decimal.NewFromInt(20000), CashflowAnnual: decimal.NewFromInt(-120000), AssetsEnd: decimal.NewFromInt(400000)},
		domain.YearlyRecord{
			Age: 43, Cash: decimal.NewFromInt(10000), AssetsEnd: decimal.NewFromInt(350000),
			IrregularExpenses: []domain.IrregularExpense{
				{Type: ExpenseHome, Shortfall: decimal.NewFromInt(2000000)},
			},
		},
	)
}

func TestGenerateAlerts(t *testing.T) {
	alerts := GenerateAlerts(nil, riskyResult())

	require.Len(t, alerts, 3)
	assert.Equal(t, SeverityWarning, alerts[0].Severity)
	assert.Equal(t, 41, alerts[0].Age)
	assert.Contains(t, alerts[0].Message, "cash balance negative")

	assert.Equal(t, SeverityWarning, alerts[1].Severity)
	assert.Contains(t, alerts[1].Message, "negative annual cashflow")

	assert.Equal(t, SeverityError, alerts[2].Severity)
	assert.Contains(t, alerts[2].Message, "under-funded")
}

func TestGenerateAlertsNegativeFinalNetWorth(t *testing.T) {
	result := yearlyOnlyResult(
		domain.YearlyRecord{Age: 59, Cash: decimal.NewFromInt(10000), AssetsEnd: decimal.NewFromInt(-300000)},
	)

	alerts := GenerateAlerts(nil, result)
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityError, alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "final net worth")
}

func TestGenerateAlertsClean(t *testing.T) {
	result := yearlyOnlyResult(
		domain.YearlyRecord{Age: 40, Cash: decimal.NewFromInt(100000), CashflowAnnual: decimal.NewFromInt(50000), AssetsEnd: decimal.NewFromInt(500000)},
	)
	assert.Empty(t, GenerateAlerts(nil, result))
}

func TestCapExhaustionAge(t *testing.T) {
	result := yearlyOnlyResult(
		domain.YearlyRecord{Age: 40, FamilyContributions: []domain.FamilyContribution{
			{Family: domain.FamilyPrimary, Contributed: decimal.NewFromInt(400000)},
		}},
		domain.YearlyRecord{Age: 41, FamilyContributions: []domain.FamilyContribution{
			{Family: domain.FamilyPrimary, Contributed: decimal.NewFromInt(1000000)},
		}},
		domain.YearlyRecord{Age: 42, FamilyContributions: []domain.FamilyContribution{
			{Family: domain.FamilyPrimary, Contributed: decimal.NewFromInt(1000000)},
		}},
	)

	assert.Equal(t, 41, CapExhaustionAge(result, domain.FamilyPrimary, decimal.NewFromInt(1000000)),
		"Should report the first year the cumulative contribution meets the cap")
	assert.Equal(t, 0, CapExhaustionAge(result, domain.FamilyPrimary, decimal.NewFromInt(2000000)),
		"An unreached cap reports zero")
	assert.Equal(t, 0, CapExhaustionAge(result, domain.FamilyPrimary, decimal.Zero),
		"A zero cap is no cap at all")
	assert.Equal(t, 0, CapExhaustionAge(result, domain.FamilySpouse, decimal.NewFromInt(1000000)))
}

func TestGenerateAlertsCapNeverReached(t *testing.T) {
	p := expenseParams(false)
	p.InvestmentPlan.LifetimeCap = decimal.NewFromInt(1000000)

	result := yearlyOnlyResult(
		domain.YearlyRecord{
			Age: 59, Cash: decimal.NewFromInt(100000), AssetsEnd: decimal.NewFromInt(500000),
			FamilyContributions: []domain.FamilyContribution{
				{Family: domain.FamilyPrimary, Contributed: decimal.NewFromInt(400000)},
			},
		},
	)

	alerts := GenerateAlerts(p, result)
	require.Len(t, alerts, 1)
	assert.Equal(t, SeverityWarning, alerts[0].Severity)
	assert.Equal(t, 59, alerts[0].Age)
	assert.Contains(t, alerts[0].Message, "cap never reached")
	assert.Contains(t, alerts[0].Message, "400000 of 1000000")

	// Once the contributions meet the cap, the warning goes away.
	result.Yearly[0].FamilyContributions[0].Contributed = decimal.NewFromInt(1000000)
	assert.Empty(t, GenerateAlerts(p, result))
}

func TestRiskScore(t *testing.T) {
	// One negative-cash year (-10), one negative-cashflow year (-1), one
	// under-funded expense (-5).
	assert.Equal(t, 84, RiskScore(nil, riskyResult()))

	clean := yearlyOnlyResult(
		domain.YearlyRecord{Age: 40, Cash: decimal.NewFromInt(1), AssetsEnd: decimal.NewFromInt(1)},
	)
	assert.Equal(t, 100, RiskScore(nil, clean))
}

func TestRiskScoreCapNeverReached(t *testing.T) {
	p := expenseParams(false)
	p.InvestmentPlan.LifetimeCap = decimal.NewFromInt(1000000)

	clean := yearlyOnlyResult(
		domain.YearlyRecord{
			Age: 59, Cash: decimal.NewFromInt(1), AssetsEnd: decimal.NewFromInt(1),
			FamilyContributions: []domain.FamilyContribution{
				{Family: domain.FamilyPrimary, Contributed: decimal.NewFromInt(400000)},
			},
		},
	)
	assert.Equal(t, 95, RiskScore(p, clean), "An unfilled lifetime cap costs five points")

	clean.Yearly[0].FamilyContributions[0].Contributed = decimal.NewFromInt(1000000)
	assert.Equal(t, 100, RiskScore(p, clean))
}

func TestRiskScoreClampedAtZero(t *testing.T) {
	var records []domain.YearlyRecord
	for age := 30; age < 45; age++ {
		records = append(records, domain.YearlyRecord{
			Age:  age,
			Cash: decimal.NewFromInt(-1000),
			IrregularExpenses: []domain.IrregularExpense{
				{Type: ExpenseUniversity, Shortfall: decimal.NewFromInt(100000)},
			},
		})
	}
	assert.Equal(t, 0, RiskScore(nil, yearlyOnlyResult(records...)))
}
