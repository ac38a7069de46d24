// Package output renders projection and Monte Carlo results as console
// tables, JSON, or CSV.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"lpgo/internal/calculation"
	"lpgo/internal/domain"
)

// ReportGenerator handles report generation in the supported formats.
// Params is optional; when set, the console report includes the cap
// diagnostics that need the plan's lifetime caps.
type ReportGenerator struct {
	w      io.Writer
	Params *domain.SimulationParameters
}

// NewReportGenerator creates a report generator writing to w.
func NewReportGenerator(w io.Writer) *ReportGenerator {
	return &ReportGenerator{w: w}
}

// GenerateReport renders a projection in the given format.
func (rg *ReportGenerator) GenerateReport(result *domain.ProjectionResult, format string) error {
	switch format {
	case "console":
		return rg.GenerateConsoleReport(result)
	case "json":
		return rg.GenerateJSONReport(result)
	case "csv":
		return rg.GenerateCSVReport(result)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// GenerateConsoleReport renders the yearly projection as an aligned table
// followed by the irregular-expense log and the risk assessment.
func (rg *ReportGenerator) GenerateConsoleReport(result *domain.ProjectionResult) error {
	fmt.Fprintln(rg.w, "LIFE PLAN PROJECTION")
	fmt.Fprintln(rg.w, "====================")
	fmt.Fprintln(rg.w)

	tw := tabwriter.NewWriter(rg.w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Age\tYear\tIncome\tExpenses\tInvested\tCashflow\tCash\tNet Worth\t")
	for _, y := range result.Yearly {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			y.Age, y.Year,
			FormatCurrency(y.IncomeTotal),
			FormatCurrency(y.ExpensesTotal),
			FormatCurrency(y.InvestmentTotal),
			FormatCurrency(y.CashflowAnnual),
			FormatCurrency(y.Cash),
			FormatCurrency(y.AssetsEnd),
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	printedHeader := false
	for _, y := range result.Yearly {
		for _, exp := range y.IrregularExpenses {
			if !printedHeader {
				fmt.Fprintln(rg.w)
				fmt.Fprintln(rg.w, "IRREGULAR EXPENSES")
				fmt.Fprintln(rg.w, "------------------")
				printedHeader = true
			}
			fmt.Fprintf(rg.w, "age %d: %s %s", y.Age, exp.Type, FormatCurrency(exp.Amount))
			for _, src := range exp.Sources {
				fmt.Fprintf(rg.w, "  [%s %s]", src.Source, FormatCurrency(src.Amount))
			}
			if exp.Shortfall.IsPositive() {
				fmt.Fprintf(rg.w, "  SHORTFALL %s", FormatCurrency(exp.Shortfall))
			}
			fmt.Fprintln(rg.w)
		}
	}

	fmt.Fprintln(rg.w)
	fmt.Fprintf(rg.w, "Final net worth: %s\n", FormatCurrency(result.FinalNetWorth()))
	fmt.Fprintf(rg.w, "Risk score: %d/100\n", calculation.RiskScore(rg.Params, result))
	for _, alert := range calculation.GenerateAlerts(rg.Params, result) {
		fmt.Fprintf(rg.w, "  %s: %s\n", alert.Severity, alert.Message)
	}
	return nil
}

// GenerateJSONReport writes the full projection as indented JSON.
func (rg *ReportGenerator) GenerateJSONReport(result *domain.ProjectionResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	_, err = rg.w.Write(append(data, '\n'))
	return err
}

// GenerateCSVReport writes the yearly records as CSV.
func (rg *ReportGenerator) GenerateCSVReport(result *domain.ProjectionResult) error {
	writer := csv.NewWriter(rg.w)
	defer writer.Flush()

	header := []string{
		"age", "year", "income_total", "expenses_total", "investment_total",
		"cashflow_annual", "education_cost_annual", "dividend_total", "cash", "assets_end",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, y := range result.Yearly {
		row := []string{
			fmt.Sprintf("%d", y.Age),
			fmt.Sprintf("%d", y.Year),
			y.IncomeTotal.StringFixed(0),
			y.ExpensesTotal.StringFixed(0),
			y.InvestmentTotal.StringFixed(0),
			y.CashflowAnnual.StringFixed(0),
			y.EducationCostAnnual.StringFixed(0),
			y.DividendTotal.StringFixed(0),
			y.Cash.StringFixed(0),
			y.AssetsEnd.StringFixed(0),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// GenerateMonteCarloReport renders the percentile bands of a stochastic run.
func (rg *ReportGenerator) GenerateMonteCarloReport(result *calculation.MonteCarloResult) error {
	fmt.Fprintln(rg.w, "MONTE CARLO PROJECTION")
	fmt.Fprintln(rg.w, "======================")
	fmt.Fprintf(rg.w, "trials: %d, return std: %s, mode: %s\n\n", result.Trials, result.ReturnStd.String(), result.Mode)

	tw := tabwriter.NewWriter(rg.w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(tw, "Age\t")
	for _, band := range result.Bands {
		fmt.Fprintf(tw, "p%d\t", band.Percentile)
	}
	fmt.Fprintln(tw, "Mean\t")

	for i, age := range result.Ages {
		fmt.Fprintf(tw, "%d\t", age)
		for _, band := range result.Bands {
			fmt.Fprintf(tw, "%s\t", FormatCurrency(band.Values[i]))
		}
		fmt.Fprintf(tw, "%s\t\n", FormatCurrency(result.Mean[i]))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(rg.w)
	fmt.Fprintln(rg.w, "FINAL NET WORTH")
	for _, band := range result.Bands {
		fmt.Fprintf(rg.w, "  p%d: %s\n", band.Percentile, FormatCurrency(result.FinalPercentiles[band.Percentile]))
	}
	fmt.Fprintf(rg.w, "  mean: %s\n", FormatCurrency(result.FinalMean))
	return nil
}

// GenerateEducationReport renders the per-child education cost summary.
func (rg *ReportGenerator) GenerateEducationReport(sum calculation.EducationSummary) error {
	fmt.Fprintln(rg.w, "EDUCATION COST SUMMARY")
	fmt.Fprintln(rg.w, "======================")
	fmt.Fprintf(rg.w, "first child total:  %s\n", FormatCurrency(sum.Child1Total))
	fmt.Fprintf(rg.w, "second child total: %s\n", FormatCurrency(sum.Child2Total))
	fmt.Fprintf(rg.w, "child allowance:    %s\n", FormatCurrency(sum.ChildAllowanceTotal))
	fmt.Fprintf(rg.w, "net cost:           %s\n", FormatCurrency(sum.NetEducationCost))
	return nil
}

// GenerateDividendReport renders the after-tax dividend outlook plus the
// per-year dividend history.
func (rg *ReportGenerator) GenerateDividendReport(sum calculation.DividendSummary) error {
	fmt.Fprintln(rg.w, "DIVIDEND SUMMARY")
	fmt.Fprintln(rg.w, "================")
	fmt.Fprintf(rg.w, "dividend assets:   %s\n", FormatCurrency(sum.DividendAssets))
	fmt.Fprintf(rg.w, "annual after tax:  %s\n", FormatCurrency(sum.AnnualAfterTax))
	fmt.Fprintf(rg.w, "monthly after tax: %s\n", FormatCurrency(sum.MonthlyAfterTax))
	fmt.Fprintf(rg.w, "after-tax yield:   %s%%\n", sum.YieldPercent.StringFixed(2))

	printedHeader := false
	for _, h := range sum.History {
		if !h.Total.IsPositive() {
			continue
		}
		if !printedHeader {
			fmt.Fprintln(rg.w)
			fmt.Fprintln(rg.w, "age  dividends  to cash")
			printedHeader = true
		}
		fmt.Fprintf(rg.w, "%d  %s  %s\n", h.Age, FormatCurrency(h.Total), FormatCurrency(h.Received))
	}
	return nil
}

// FormatCurrency renders an amount in whole currency units.
func FormatCurrency(amount decimal.Decimal) string {
	return amount.StringFixed(0)
}
