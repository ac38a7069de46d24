package calculation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"lpgo/internal/domain"
)

// dividendTaxRate is the flat withholding applied to distributed dividends.
var dividendTaxRate = decimal.NewFromFloat(0.20315)

// ChildYearCost is one year of a child's education cost trajectory.
type ChildYearCost struct {
	ChildAge       int             `json:"child_age"`
	ParentAge      int             `json:"parent_age"`
	AnnualCost     decimal.Decimal `json:"annual_cost"`
	CumulativeCost decimal.Decimal `json:"cumulative_cost"`
}

// EducationSummary aggregates both children's education costs over the run
// against the child allowance received.
type EducationSummary struct {
	Child1Total         decimal.Decimal `json:"child1_total"`
	Child2Total         decimal.Decimal `json:"child2_total"`
	ChildAllowanceTotal decimal.Decimal `json:"child_allowance_total"`
	NetEducationCost    decimal.Decimal `json:"net_education_cost"`
	Child1ByAge         []ChildYearCost `json:"child1_by_age"`
	Child2ByAge         []ChildYearCost `json:"child2_by_age"`
}

// BuildEducationSummary recomputes each child's cost schedule directly from
// the parameters so the per-child split never depends on how the combined
// annual figure was folded into the yearly records.
func BuildEducationSummary(params *domain.SimulationParameters, result *domain.ProjectionResult) EducationSummary {
	rules := NewRuleResolver(params)
	expenses := NewExpenseCalculator(params, rules)

	var sum EducationSummary
	for _, y := range result.Yearly {
		yearOffset := y.Age - params.BasicInfo.StartAge

		if c1 := rules.ChildAge(y.Age, false); c1 >= 0 && c1 <= 22 {
			cost := expenses.AnnualEducationCost(c1, yearOffset)
			sum.Child1Total = sum.Child1Total.Add(cost)
			sum.Child1ByAge = append(sum.Child1ByAge, ChildYearCost{
				ChildAge: c1, ParentAge: y.Age, AnnualCost: cost, CumulativeCost: sum.Child1Total,
			})
		}
		if c2 := rules.ChildAge(y.Age, true); c2 >= 0 && c2 <= 22 {
			cost := expenses.AnnualEducationCost(c2, yearOffset)
			sum.Child2Total = sum.Child2Total.Add(cost)
			sum.Child2ByAge = append(sum.Child2ByAge, ChildYearCost{
				ChildAge: c2, ParentAge: y.Age, AnnualCost: cost, CumulativeCost: sum.Child2Total,
			})
		}
		sum.ChildAllowanceTotal = sum.ChildAllowanceTotal.Add(rules.ChildAllowanceForAge(y.Age).Mul(twelve))
	}
	sum.NetEducationCost = sum.Child1Total.Add(sum.Child2Total).Sub(sum.ChildAllowanceTotal)
	return sum
}

// DividendYearEntry is one year of dividend history.
type DividendYearEntry struct {
	Age      int             `json:"age"`
	Year     int             `json:"year"`
	Total    decimal.Decimal `json:"dividend_total"`
	Received decimal.Decimal `json:"dividend_received"`
}

// DividendSummary projects the final year's dividend-bearing balances into
// an after-tax annual dividend figure plus the full per-year history.
type DividendSummary struct {
	DividendAssets  decimal.Decimal     `json:"dividend_assets"`
	AnnualAfterTax  decimal.Decimal     `json:"annual_dividend"`
	MonthlyAfterTax decimal.Decimal     `json:"monthly_dividend"`
	YieldPercent    decimal.Decimal     `json:"dividend_yield"`
	History         []DividendYearEntry `json:"dividend_history"`
}

// BuildDividendSummary computes the after-tax dividend outlook from the last
// simulated year: the company-stock dividend plus the taxable account's
// yield-bearing balance, net of the dividend withholding tax.
func BuildDividendSummary(params *domain.SimulationParameters, result *domain.ProjectionResult) DividendSummary {
	var sum DividendSummary
	if len(result.Yearly) == 0 {
		return sum
	}
	last := result.Yearly[len(result.Yearly)-1]

	stockBalance := last.Balance(domain.BucketCompanyStock)
	taxableBalance := last.Balance(domain.BucketTaxable)
	sum.DividendAssets = stockBalance.Add(taxableBalance)

	taxableYield := decimal.Zero
	for _, def := range params.Investment.Buckets {
		if def.Name == domain.BucketTaxable {
			taxableYield = def.DividendYield
			break
		}
	}
	gross := stockBalance.Mul(params.Investment.CompanyStock.DividendYield).
		Add(taxableBalance.Mul(taxableYield))
	sum.AnnualAfterTax = gross.Mul(one.Sub(dividendTaxRate))
	sum.MonthlyAfterTax = sum.AnnualAfterTax.Div(twelve)

	if sum.DividendAssets.IsPositive() {
		sum.YieldPercent = sum.AnnualAfterTax.Div(sum.DividendAssets).Mul(decimal.NewFromInt(100))
	}

	sum.History = make([]DividendYearEntry, len(result.Yearly))
	for i, y := range result.Yearly {
		sum.History[i] = DividendYearEntry{Age: y.Age, Year: y.Year, Total: y.DividendTotal, Received: y.DividendReceived}
	}
	return sum
}

// Alert severities.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Alert flags one risk condition found in the projection.
type Alert struct {
	Severity string `json:"severity"`
	Age      int    `json:"age"`
	Message  string `json:"message"`
}

// CapExhaustionAge returns the first age at which a cap family's cumulative
// contributions reached the given lifetime cap, zero when they never do.
func CapExhaustionAge(result *domain.ProjectionResult, family string, cap decimal.Decimal) int {
	if !cap.IsPositive() {
		return 0
	}
	for _, y := range result.Yearly {
		if y.FamilyContributed(family).GreaterThanOrEqual(cap) {
			return y.Age
		}
	}
	return 0
}

// GenerateAlerts scans the yearly records for risk conditions: under-funded
// irregular expenses, years ending with negative cash, years running a
// negative annual cashflow, and a primary lifetime cap the plan never fills.
// The parameters carry the cap table; nil skips the cap diagnostics.
func GenerateAlerts(params *domain.SimulationParameters, result *domain.ProjectionResult) []Alert {
	var alerts []Alert
	for _, y := range result.Yearly {
		for _, exp := range y.IrregularExpenses {
			if exp.Shortfall.IsPositive() {
				alerts = append(alerts, Alert{
					Severity: SeverityError,
					Age:      y.Age,
					Message:  fmt.Sprintf("%s under-funded by %s at age %d", exp.Type, exp.Shortfall.StringFixed(0), y.Age),
				})
			}
		}
		if y.Cash.IsNegative() {
			alerts = append(alerts, Alert{
				Severity: SeverityWarning,
				Age:      y.Age,
				Message:  fmt.Sprintf("cash balance negative (%s) at age %d", y.Cash.StringFixed(0), y.Age),
			})
		}
		if y.CashflowAnnual.IsNegative() {
			alerts = append(alerts, Alert{
				Severity: SeverityWarning,
				Age:      y.Age,
				Message:  fmt.Sprintf("negative annual cashflow (%s) at age %d", y.CashflowAnnual.StringFixed(0), y.Age),
			})
		}
	}
	if fn := result.FinalNetWorth(); fn.IsNegative() {
		alerts = append(alerts, Alert{
			Severity: SeverityError,
			Age:      result.Yearly[len(result.Yearly)-1].Age,
			Message:  fmt.Sprintf("final net worth is negative (%s)", fn.StringFixed(0)),
		})
	}
	if params != nil && len(result.Yearly) > 0 {
		cap := params.InvestmentPlan.LifetimeCap
		if cap.IsPositive() && CapExhaustionAge(result, domain.FamilyPrimary, cap) == 0 {
			last := result.Yearly[len(result.Yearly)-1]
			alerts = append(alerts, Alert{
				Severity: SeverityWarning,
				Age:      last.Age,
				Message: fmt.Sprintf("primary investment cap never reached (%s of %s contributed)",
					last.FamilyContributed(domain.FamilyPrimary).StringFixed(0), cap.StringFixed(0)),
			})
		}
	}
	return alerts
}

// RiskScore condenses the projection into a 0-100 score. Each negative-cash
// year costs 10 points, each under-funded irregular expense 5, each
// negative-cashflow year 1, and a primary lifetime cap the plan never
// exhausts 5. The parameters carry the cap table; nil skips the cap term.
func RiskScore(params *domain.SimulationParameters, result *domain.ProjectionResult) int {
	score := 100
	for _, y := range result.Yearly {
		if y.Cash.IsNegative() {
			score -= 10
		}
		if y.CashflowAnnual.IsNegative() {
			score--
		}
		for _, exp := range y.IrregularExpenses {
			if exp.Shortfall.IsPositive() {
				score -= 5
			}
		}
	}
	if params != nil {
		cap := params.InvestmentPlan.LifetimeCap
		if cap.IsPositive() && CapExhaustionAge(result, domain.FamilyPrimary, cap) == 0 {
			score -= 5
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}
