// Package calculation implements the forward simulation engine: the monthly
// income/expense/investment loop, the asset ledger updates, the year-end
// irregular-expense waterfalls, and the stochastic projector that wraps the
// whole engine while varying only the return inputs.
package calculation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"lpgo/internal/domain"
)

// Engine drives the life-plan projection. It owns no mutable simulation
// state itself; every run builds its ledger and calculators fresh, so one
// engine is safe to reuse across runs and across stochastic trials.
type Engine struct {
	Logger Logger
	Debug  bool
}

// NewEngine creates an engine with a no-op logger attached.
func NewEngine() *Engine {
	return &Engine{Logger: NopLogger{}}
}

// SetLogger attaches a logger; nil restores the no-op logger.
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	e.Logger = l
}

// RunProjection simulates every age from start through end inclusive, twelve
// months each, and returns the full monthly and yearly record set. The
// context is checked between simulated years.
func (e *Engine) RunProjection(ctx context.Context, params *domain.SimulationParameters) (*domain.ProjectionResult, error) {
	if params == nil {
		return nil, fmt.Errorf("simulation parameters are required")
	}
	bi := params.BasicInfo
	if bi.EndAge < bi.StartAge {
		return nil, fmt.Errorf("end age %d is before start age %d", bi.EndAge, bi.StartAge)
	}
	if len(params.IncomeAnchors) == 0 {
		return nil, fmt.Errorf("at least one income anchor is required")
	}

	rules := NewRuleResolver(params)
	takeHome := NewTakeHomeCalculator(params.TaxRates)
	expenses := NewExpenseCalculator(params, rules)
	allocator := NewInvestmentAllocator(params, rules)
	events := NewEventProcessor(params, rules, expenses)

	caps := map[string]decimal.Decimal{
		domain.FamilyPrimary: allocator.FamilyCap(domain.FamilyPrimary),
		domain.FamilySpouse:  allocator.FamilyCap(domain.FamilySpouse),
		domain.FamilyChild1:  allocator.FamilyCap(domain.FamilyChild1),
		domain.FamilyChild2:  allocator.FamilyCap(domain.FamilyChild2),
	}
	updater := NewLedgerUpdater(params, caps)
	ledger := buildLedger(params)

	years := params.Years()
	result := &domain.ProjectionResult{
		Monthly: make([]domain.MonthlyRecord, 0, years*12),
		Yearly:  make([]domain.YearlyRecord, 0, years),
	}

	e.Logger.Infof("starting projection: ages %d-%d, %d buckets", bi.StartAge, bi.EndAge, len(ledger.Buckets))

	for age := bi.StartAge; age <= bi.EndAge; age++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("projection cancelled at age %d: %w", age, err)
		}
		yearOffset := age - bi.StartAge
		year := bi.StartYear + yearOffset
		assetsStart := ledger.Total()

		var incomeTotal, expensesTotal, investmentTotal, cashflowAnnual decimal.Decimal

		for month := 1; month <= 12; month++ {
			rec := e.simulateMonth(params, rules, takeHome, expenses, allocator, updater, ledger, age, month, year, yearOffset)
			result.Monthly = append(result.Monthly, rec)

			incomeTotal = incomeTotal.Add(rec.Income.Total)
			expensesTotal = expensesTotal.Add(rec.Expenses.Total)
			investmentTotal = investmentTotal.Add(rec.Investment.Total)
			cashflowAnnual = cashflowAnnual.Add(rec.Cashflow)
		}

		// Year-end order matters: dividends must be recognized before the
		// life events that may draw on the balances they replenish.
		irregular, eduAnnual := events.SettleEducation(ledger, age, yearOffset)
		dividendTotal, dividendReceived := updater.ApplyYearEndEquity(ledger, age, yearOffset)
		if exp, ok := events.SettleMarriage(ledger, age); ok {
			irregular = append(irregular, exp)
		}
		if exp, ok := events.SettleHomePurchase(ledger, age); ok {
			irregular = append(irregular, exp)
		}
		irregular = append(irregular, events.SettleCustomEvents(ledger, age)...)
		retirement := events.ApplyRetirementBenefit(ledger, age)

		snap := ledger.Snapshot()
		result.Yearly = append(result.Yearly, domain.YearlyRecord{
			Age:                 age,
			Year:                year,
			IncomeTotal:         incomeTotal,
			ExpensesTotal:       expensesTotal,
			InvestmentTotal:     investmentTotal,
			CashflowAnnual:      cashflowAnnual,
			AssetsStart:         assetsStart,
			AssetsEnd:           snap.Total,
			Balances:            snap.Balances,
			Cash:                snap.Cash,
			FamilyContributions: familyContributions(ledger),
			EducationCostAnnual: eduAnnual,
			DividendTotal:       dividendTotal,
			DividendReceived:    dividendReceived,
			RetirementBenefit:   retirement,
			IrregularExpenses:   irregular,
		})

		if e.Debug {
			e.Logger.Debugf("age %d: assets %s, cashflow %s, %d irregular expenses",
				age, snap.Total.StringFixed(0), cashflowAnnual.StringFixed(0), len(irregular))
		}
	}

	return result, nil
}

// simulateMonth runs one month: resolve income and expenses, ration the
// planned contributions against the surplus, book them into the ledger, and
// fold the remainder into cash. The asset snapshot in the record is taken
// before the month's updates, mirroring an end-of-previous-month statement.
func (e *Engine) simulateMonth(
	params *domain.SimulationParameters,
	rules *RuleResolver,
	takeHome *TakeHomeCalculator,
	expenses *ExpenseCalculator,
	allocator *InvestmentAllocator,
	updater *LedgerUpdater,
	ledger *domain.Ledger,
	age, month, year, yearOffset int,
) domain.MonthlyRecord {
	baseSalary, bonusMonths := rules.SalaryForAge(age)
	housingAllowance := rules.HousingAllowanceForAge(age)

	income := domain.IncomeBreakdown{
		SalaryNet:        takeHome.MonthlyNet(baseSalary, housingAllowance),
		SpouseIncome:     rules.SpouseIncomeForAge(age),
		Pension:          rules.PensionForAge(age),
		ChildAllowance:   rules.ChildAllowanceForAge(age),
		HousingAllowance: housingAllowance,
	}
	if isBonusMonth(month) {
		income.BonusNet = takeHome.BonusNet(baseSalary, bonusMonths, housingAllowance)
	}
	// The housing allowance is taxable and already folded into SalaryNet;
	// it is carried in the breakdown for reporting, not summed again.
	income.Total = income.SalaryNet.Add(income.BonusNet).
		Add(income.SpouseIncome).Add(income.Pension).Add(income.ChildAllowance)

	expense := expenses.MonthlyExpenses(age, yearOffset)
	available := income.Total.Sub(expense.Total)

	planned := allocator.PlannedContributions(age, month, ledger)
	investment := allocator.Ration(planned, available)

	snapshot := ledger.Snapshot()

	updater.ApplyMonth(ledger, investment.Actual, yearOffset)
	cashflow := available.Sub(investment.Total)
	ledger.Cash = ledger.Cash.Add(cashflow)

	return domain.MonthlyRecord{
		Age:        age,
		Month:      month,
		Year:       year,
		Income:     income,
		Expenses:   expense,
		Investment: investment,
		Cashflow:   cashflow,
		Assets:     snapshot,
	}
}

// buildLedger constructs the run's asset ledger from the bucket definitions,
// appending the per-child buckets when child investment is enabled and the
// configuration does not define them explicitly. Spouse-family buckets with
// no return of their own inherit the spouse plan's expected return; the
// company-stock bucket starts at the configured initial share price.
func buildLedger(params *domain.SimulationParameters) *domain.Ledger {
	defs := params.Investment.Buckets
	buckets := make([]*domain.Bucket, 0, len(defs)+2)
	seen := make(map[string]bool, len(defs)+2)

	for _, def := range defs {
		b := &domain.Bucket{
			Name:          def.Name,
			Family:        def.Family,
			AnnualReturn:  def.ExpectedReturn,
			DividendYield: def.DividendYield,
			Equity:        def.Equity,
		}
		if b.AnnualReturn.IsZero() && b.Family == domain.FamilySpouse {
			b.AnnualReturn = params.SpousePlan.ExpectedReturn
		}
		if b.Equity && b.Name == domain.BucketCompanyStock {
			b.Price = params.Investment.CompanyStock.InitialPrice
		}
		buckets = append(buckets, b)
		seen[def.Name] = true
	}

	if params.ChildInvestment.Enabled {
		for _, child := range []struct{ name, family string }{
			{domain.BucketChild1, domain.FamilyChild1},
			{domain.BucketChild2, domain.FamilyChild2},
		} {
			name, family := child.name, child.family
			if !seen[name] {
				buckets = append(buckets, &domain.Bucket{
					Name:         name,
					Family:       family,
					AnnualReturn: params.ChildInvestment.ExpectedReturn,
				})
			}
		}
	}

	return domain.NewLedger(buckets)
}

// familyContributions reports the cumulative capped contributions for every
// cap family present in the ledger, in the fixed family order.
func familyContributions(ledger *domain.Ledger) []domain.FamilyContribution {
	var out []domain.FamilyContribution
	for _, family := range []string{domain.FamilyPrimary, domain.FamilySpouse, domain.FamilyChild1, domain.FamilyChild2} {
		present := false
		for _, b := range ledger.Buckets {
			if b.Family == family {
				present = true
				break
			}
		}
		if present {
			out = append(out, domain.FamilyContribution{
				Family:      family,
				Contributed: ledger.FamilyContributed(family),
			})
		}
	}
	return out
}
