package calculation

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpgo/internal/domain"
)

func TestNewEngine(t *testing.T) {
	engine := NewEngine()

	assert.NotNil(t, engine, "Should create engine")
	assert.NotNil(t, engine.Logger, "Should initialize logger")
	assert.False(t, engine.Debug)
}

func TestEngineSetLogger(t *testing.T) {
	engine := NewEngine()

	customLogger := &TestLogger{}
	engine.SetLogger(customLogger)
	assert.Equal(t, customLogger, engine.Logger, "Should set custom logger")

	engine.SetLogger(nil)
	assert.NotNil(t, engine.Logger, "Should not be nil")
	assert.IsType(t, NopLogger{}, engine.Logger, "Should be no-op logger")
}

// engineParams is a three-year scenario with zero bucket returns so every
// yearly total is exact arithmetic: monthly net 243000 (flat 10% insurance,
// flat 10% tax on a 3.6M base), bonus 243000 per payment, expenses 245000,
// and 50000 invested in each bonus month.
func engineParams() *domain.SimulationParameters {
	return &domain.SimulationParameters{
		BasicInfo: domain.BasicInfo{
			StartAge:            30,
			EndAge:              32,
			StartYear:           2025,
			MarriageAge:         31,
			FirstChildBirthAge:  90,
			SecondChildBirthAge: 91,
		},
		IncomeAnchors: []domain.IncomeAnchor{
			{Age: 30, BaseSalary: decimal.NewFromInt(300000), BonusMonths: decimal.NewFromInt(2)},
		},
		SpouseIncome: []domain.AgeBandAmount{
			{StartAge: 30, EndAge: 59, Amount: decimal.NewFromInt(100000)},
		},
		Phases: []domain.Phase{
			{Name: "base", StartAge: 30, EndAge: 59, MonthlyExpenses: []domain.ExpenseItem{
				{Category: "living", Amount: decimal.NewFromInt(150000)},
			}},
		},
		HousingCosts: []domain.AgeBandHousing{
			{StartAge: 30, EndAge: 59, Rent: decimal.NewFromInt(80000), Utilities: decimal.NewFromInt(15000)},
		},
		InvestmentPlan: domain.InvestmentPlan{
			LifetimeCap: decimal.NewFromInt(100000000),
			PreCap: domain.AllocationRegime{
				BonusPerPayment: []domain.Allocation{
					{Bucket: "growth_a", Amount: decimal.NewFromInt(50000)},
				},
			},
		},
		Investment: domain.InvestmentSettings{
			Buckets: []domain.BucketDef{
				{Name: "growth_a", Family: domain.FamilyPrimary},
				{Name: domain.BucketEducationFund},
				{Name: domain.BucketMarriageFund},
				{Name: domain.BucketTaxable},
			},
		},
		TaxRates: domain.TaxRates{
			SocialInsurance: domain.SocialInsurance{Mode: "flat", FlatRate: decimal.NewFromFloat(0.1)},
			Bands:           []domain.TaxBand{{Rate: decimal.NewFromFloat(0.1)}},
		},
		LifeEvents: domain.LifeEvents{
			Marriage: domain.EventCost{Age: 31, Cost: decimal.NewFromInt(1000000)},
		},
	}
}

func TestRunProjectionRecordCounts(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RunProjection(context.Background(), engineParams())
	require.NoError(t, err)

	assert.Len(t, result.Monthly, 36, "Twelve months per simulated age")
	assert.Len(t, result.Yearly, 3)
	assert.Equal(t, 30, result.Yearly[0].Age)
	assert.Equal(t, 2027, result.Yearly[2].Year)
}

func TestRunProjectionFirstYearTotals(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RunProjection(context.Background(), engineParams())
	require.NoError(t, err)

	y0 := result.Yearly[0]
	// 243000 x 12 salary plus two 243000 bonus payments, no spouse income
	// before the marriage age.
	assert.True(t, y0.IncomeTotal.Equal(decimal.NewFromInt(3402000)), "got %s", y0.IncomeTotal)
	assert.True(t, y0.ExpensesTotal.Equal(decimal.NewFromInt(2940000)), "got %s", y0.ExpensesTotal)
	assert.True(t, y0.InvestmentTotal.Equal(decimal.NewFromInt(100000)), "Two bonus-month contributions, got %s", y0.InvestmentTotal)
	assert.True(t, y0.CashflowAnnual.Equal(decimal.NewFromInt(362000)), "got %s", y0.CashflowAnnual)
	assert.True(t, y0.AssetsEnd.Equal(decimal.NewFromInt(462000)), "Cash plus invested with zero returns, got %s", y0.AssetsEnd)
	assert.Empty(t, y0.IrregularExpenses)
}

func TestRunProjectionSpouseIncomeFromMarriage(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RunProjection(context.Background(), engineParams())
	require.NoError(t, err)

	y1 := result.Yearly[1]
	assert.True(t, y1.IncomeTotal.Equal(decimal.NewFromInt(4602000)), "Spouse income joins at 31, got %s", y1.IncomeTotal)
}

func TestRunProjectionMarriageEvent(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RunProjection(context.Background(), engineParams())
	require.NoError(t, err)

	y1 := result.Yearly[1]
	require.Len(t, y1.IrregularExpenses, 1)
	exp := y1.IrregularExpenses[0]
	assert.Equal(t, ExpenseMarriage, exp.Type)
	assert.True(t, exp.Paid.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, exp.Shortfall.IsZero(), "Cash covers the remainder unconditionally")
}

func TestRunProjectionAssetConservation(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RunProjection(context.Background(), engineParams())
	require.NoError(t, err)

	for _, y := range result.Yearly {
		sum := y.Cash
		for _, b := range y.Balances {
			sum = sum.Add(b.Amount)
		}
		assert.True(t, y.AssetsEnd.Equal(sum), "age %d: assets %s != balances+cash %s", y.Age, y.AssetsEnd, sum)
	}

	// With zero returns and no dividends the books must close exactly.
	final := result.Yearly[2]
	income := decimal.Zero
	outgo := decimal.Zero
	for _, y := range result.Yearly {
		income = income.Add(y.IncomeTotal)
		outgo = outgo.Add(y.ExpensesTotal)
		for _, exp := range y.IrregularExpenses {
			outgo = outgo.Add(exp.Paid)
		}
	}
	assert.True(t, final.AssetsEnd.Equal(income.Sub(outgo)), "got %s, want %s", final.AssetsEnd, income.Sub(outgo))
}

func TestRunProjectionMonthlySnapshotPrecedesUpdates(t *testing.T) {
	engine := NewEngine()

	result, err := engine.RunProjection(context.Background(), engineParams())
	require.NoError(t, err)

	assert.True(t, result.Monthly[0].Assets.Total.IsZero(), "First month starts from an empty ledger")
	assert.Equal(t, 1, result.Monthly[0].Month)
	assert.Equal(t, 12, result.Monthly[11].Month)
	assert.True(t, result.Monthly[5].Income.BonusNet.IsPositive(), "June is a bonus month")
	assert.True(t, result.Monthly[6].Income.BonusNet.IsZero())
}

func TestRunProjectionValidation(t *testing.T) {
	engine := NewEngine()
	ctx := context.Background()

	_, err := engine.RunProjection(ctx, nil)
	assert.Error(t, err, "Should error for nil parameters")

	p := engineParams()
	p.BasicInfo.EndAge = 29
	_, err = engine.RunProjection(ctx, p)
	assert.Error(t, err, "Should error when end age precedes start age")

	p = engineParams()
	p.IncomeAnchors = nil
	_, err = engine.RunProjection(ctx, p)
	assert.Error(t, err, "Should error without income anchors")
}

func TestRunProjectionCancelledContext(t *testing.T) {
	engine := NewEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := engine.RunProjection(ctx, engineParams())
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, result)
}

func TestRunProjectionDebugLogging(t *testing.T) {
	engine := NewEngine()
	logger := &TestLogger{}
	engine.SetLogger(logger)
	engine.Debug = true

	_, err := engine.RunProjection(context.Background(), engineParams())
	require.NoError(t, err)

	assert.NotEmpty(t, logger.messages)
	debugCount := 0
	for _, m := range logger.messages {
		if len(m) >= 5 && m[:5] == "DEBUG" {
			debugCount++
		}
	}
	assert.Equal(t, 3, debugCount, "One debug line per simulated age")
}

// TestLogger captures log calls for assertions.
type TestLogger struct {
	messages []string
}

func (tl *TestLogger) Debugf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "DEBUG: "+format)
}

func (tl *TestLogger) Infof(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "INFO: "+format)
}

func (tl *TestLogger) Warnf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "WARN: "+format)
}

func (tl *TestLogger) Errorf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "ERROR: "+format)
}
