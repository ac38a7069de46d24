package domain

import (
	"github.com/shopspring/decimal"
)

// IncomeBreakdown is one month's net income by source. Total is the sum of
// the fields; the housing allowance is already folded into SalaryNet through
// the take-home calculation and is recorded separately for reporting only.
type IncomeBreakdown struct {
	SalaryNet        decimal.Decimal `json:"salary_net"`
	BonusNet         decimal.Decimal `json:"bonus_net"`
	SpouseIncome     decimal.Decimal `json:"spouse_income"`
	Pension          decimal.Decimal `json:"pension"`
	ChildAllowance   decimal.Decimal `json:"child_allowance"`
	HousingAllowance decimal.Decimal `json:"housing_allowance"`
	Total            decimal.Decimal `json:"total"`
}

// ExpenseBreakdown is one month's expenses. Housing is carried un-inflated
// on top of the phase items.
type ExpenseBreakdown struct {
	Rent      decimal.Decimal `json:"rent"`
	Mortgage  decimal.Decimal `json:"mortgage"`
	Utilities decimal.Decimal `json:"utilities"`
	Items     []ExpenseItem   `json:"items"`
	Total     decimal.Decimal `json:"total"`
}

// InvestmentBreakdown records requested versus actual contributions per
// bucket after cap clamping and cash rationing.
type InvestmentBreakdown struct {
	Requested []Allocation    `json:"requested"`
	Actual    []Allocation    `json:"actual"`
	Total     decimal.Decimal `json:"total"` // sum of Actual
}

// MonthlyRecord is one simulated month. Immutable once produced. The asset
// snapshot is taken before the month's contributions and growth are applied.
type MonthlyRecord struct {
	Age        int                 `json:"age"`
	Month      int                 `json:"month"`
	Year       int                 `json:"year"`
	Income     IncomeBreakdown     `json:"income"`
	Expenses   ExpenseBreakdown    `json:"expenses"`
	Investment InvestmentBreakdown `json:"investment"`
	Cashflow   decimal.Decimal     `json:"cashflow"`
	Assets     LedgerSnapshot      `json:"assets"`
}

// PaymentSource is one consumption step of an irregular-expense waterfall.
type PaymentSource struct {
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
}

// IrregularExpense is a lumpy year-boundary cost settled against an ordered
// list of fund sources. Sources always sums to Paid; Shortfall is the
// portion no source could cover and is surfaced rather than silently
// absorbed.
type IrregularExpense struct {
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	Paid      decimal.Decimal `json:"paid"`
	Shortfall decimal.Decimal `json:"shortfall"`
	Sources   []PaymentSource `json:"payment_sources"`
}

// FamilyContribution reports a cap family's cumulative contributions.
type FamilyContribution struct {
	Family      string          `json:"family"`
	Contributed decimal.Decimal `json:"contributed"`
}

// YearlyRecord is the fold of one age's twelve MonthlyRecords plus the
// year-end adjustments that have no monthly counterpart.
type YearlyRecord struct {
	Age                 int                  `json:"age"`
	Year                int                  `json:"year"`
	IncomeTotal         decimal.Decimal      `json:"income_total"`
	ExpensesTotal       decimal.Decimal      `json:"expenses_total"`
	InvestmentTotal     decimal.Decimal      `json:"investment_total"`
	CashflowAnnual      decimal.Decimal      `json:"cashflow_annual"`
	AssetsStart         decimal.Decimal      `json:"assets_start"`
	AssetsEnd           decimal.Decimal      `json:"assets_end"`
	Balances            []BucketBalance      `json:"balances"`
	Cash                decimal.Decimal      `json:"cash"`
	FamilyContributions []FamilyContribution `json:"family_contributions"`
	EducationCostAnnual decimal.Decimal      `json:"education_cost_annual"`
	DividendTotal       decimal.Decimal      `json:"dividend_total"`
	DividendReceived    decimal.Decimal      `json:"dividend_received"`
	RetirementBenefit   decimal.Decimal      `json:"retirement_benefit"`
	IrregularExpenses   []IrregularExpense   `json:"irregular_expenses"`
}

// Balance returns the year-end balance of a named bucket, zero if absent.
func (y *YearlyRecord) Balance(name string) decimal.Decimal {
	for _, b := range y.Balances {
		if b.Name == name {
			return b.Amount
		}
	}
	return decimal.Zero
}

// FamilyContributed returns the cumulative contribution for a cap family.
func (y *YearlyRecord) FamilyContributed(family string) decimal.Decimal {
	for _, f := range y.FamilyContributions {
		if f.Family == family {
			return f.Contributed
		}
	}
	return decimal.Zero
}

// ProjectionResult is the full output of one deterministic simulation run.
type ProjectionResult struct {
	Monthly []MonthlyRecord `json:"monthly"`
	Yearly  []YearlyRecord  `json:"yearly"`
}

// FinalNetWorth returns the last year's total, zero for empty projections.
func (r *ProjectionResult) FinalNetWorth() decimal.Decimal {
	if len(r.Yearly) == 0 {
		return decimal.Zero
	}
	return r.Yearly[len(r.Yearly)-1].AssetsEnd
}

// MonthsForAge returns the twelve monthly records of one simulated age.
func (r *ProjectionResult) MonthsForAge(age int) []MonthlyRecord {
	out := make([]MonthlyRecord, 0, 12)
	for _, m := range r.Monthly {
		if m.Age == age {
			out = append(out, m)
		}
	}
	return out
}
