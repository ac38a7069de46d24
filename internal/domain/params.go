// Package domain defines the data model for the life-plan simulation:
// immutable simulation parameters, the asset ledger, and the monthly and
// yearly projection records the engine emits.
package domain

import (
	"github.com/shopspring/decimal"
)

// Well-known bucket names the engine depends on. Every other bucket name is
// free-form and comes from the configuration document.
const (
	BucketEducationFund = "education_fund"
	BucketMarriageFund  = "marriage_fund"
	BucketTaxable       = "taxable_account"
	BucketCompanyStock  = "company_stock"
	BucketChild1        = "child1_fund"
	BucketChild2        = "child2_fund"
)

// Cap family names for the built-in capped bucket groups.
const (
	FamilyPrimary = "primary"
	FamilySpouse  = "spouse"
	FamilyChild1  = "child1"
	FamilyChild2  = "child2"
)

// BasicInfo holds the demographic anchors of the simulation.
type BasicInfo struct {
	StartAge            int `yaml:"start_age"`
	EndAge              int `yaml:"end_age"`
	StartYear           int `yaml:"start_year"`
	MarriageAge         int `yaml:"marriage_age"`
	FirstChildBirthAge  int `yaml:"first_child_birth_age"`
	SecondChildBirthAge int `yaml:"second_child_birth_age"`
}

// IncomeAnchor is a sparse salary anchor: the salary tier in effect from
// Age until the next anchor.
type IncomeAnchor struct {
	Age         int
	BaseSalary  decimal.Decimal
	BonusMonths decimal.Decimal
}

// Pension is a flat monthly benefit from StartAge onward.
type Pension struct {
	StartAge      int             `yaml:"start_age"`
	MonthlyAmount decimal.Decimal `yaml:"monthly_amount"`
}

// Phase is an age-range-scoped template of recurring monthly expenses.
type Phase struct {
	Name            string
	StartAge        int
	EndAge          int
	MonthlyExpenses []ExpenseItem
}

// ExpenseItem is one named monthly expense category within a phase.
type ExpenseItem struct {
	Category string
	Amount   decimal.Decimal
}

// ChildAllowance holds the monthly allowance amounts per child age band.
type ChildAllowance struct {
	Age0to2             decimal.Decimal `yaml:"age_0_2"`
	Age3to14            decimal.Decimal `yaml:"age_3_14"`
	Age3to14SecondChild decimal.Decimal `yaml:"age_3_14_second_child"`
}

// EducationCosts holds the per-child annual cost schedule by school stage.
type EducationCosts struct {
	Childcare0to5           decimal.Decimal `yaml:"childcare_0_5"`
	SchoolFees6to11         decimal.Decimal `yaml:"school_fees_6_11"`
	Lessons6to11            decimal.Decimal `yaml:"lessons_6_11"`
	SchoolFees12to14        decimal.Decimal `yaml:"school_fees_12_14"`
	CramSchool12to14        decimal.Decimal `yaml:"cram_school_12_14"`
	SchoolFees15to17        decimal.Decimal `yaml:"school_fees_15_17"`
	CramSchool15to17        decimal.Decimal `yaml:"cram_school_15_17"`
	ExamFees18              decimal.Decimal `yaml:"exam_fees_18"`
	UniversityEntranceFee   decimal.Decimal `yaml:"university_entrance_fee"`
	UniversityAnnualTuition decimal.Decimal `yaml:"university_annual_tuition"`
	UniversityLivingAnnual  decimal.Decimal `yaml:"university_living_annual"`
}

// Allocation is a planned contribution amount for a named bucket.
type Allocation struct {
	Bucket string
	Amount decimal.Decimal
}

// AllocationRegime is one allocation template: regular monthly amounts plus
// the extra amounts contributed in each bonus-paying month.
type AllocationRegime struct {
	Monthly         []Allocation
	BonusPerPayment []Allocation
}

// InvestmentPlan is the primary household allocation policy. PreCap applies
// while the primary cap family has headroom, PostCap afterwards.
type InvestmentPlan struct {
	LifetimeCap decimal.Decimal
	PreCap      AllocationRegime
	PostCap     AllocationRegime
}

// SpousePlan is the spouse's allocation policy, active from marriage age.
type SpousePlan struct {
	Enabled        bool
	LifetimeCap    decimal.Decimal
	ExpectedReturn decimal.Decimal
	PreCap         AllocationRegime
	PostCap        AllocationRegime
}

// ChildInvestment contributes a fixed monthly amount into each child's
// dedicated bucket from birth through age 17, under a per-child cap.
type ChildInvestment struct {
	Enabled         bool            `yaml:"enabled"`
	MonthlyPerChild decimal.Decimal `yaml:"monthly_per_child"`
	CapPerChild     decimal.Decimal `yaml:"lifetime_cap_per_child"`
	ExpectedReturn  decimal.Decimal `yaml:"expected_return"`
}

// BucketDef defines one ledger bucket: its growth model and, when it belongs
// to a cap family, the family that carries the shared lifetime cap.
type BucketDef struct {
	Name           string
	Family         string
	ExpectedReturn decimal.Decimal
	DividendYield  decimal.Decimal
	Equity         bool
}

// CompanyStock parameterizes the share-tracked employer stock bucket.
type CompanyStock struct {
	InitialPrice    decimal.Decimal `yaml:"initial_price"`
	PriceGrowthRate decimal.Decimal `yaml:"price_growth_rate"`
	DividendYield   decimal.Decimal `yaml:"dividend_yield"`
	IncentiveRate   decimal.Decimal `yaml:"incentive_rate"`
}

// DividendReinvestment holds the age-banded fraction of each year's
// dividend that is reinvested; the rest is distributed to cash.
type DividendReinvestment struct {
	Age0to45  decimal.Decimal `yaml:"age_0_45"`
	Age46to55 decimal.Decimal `yaml:"age_46_55"`
	Age56to64 decimal.Decimal `yaml:"age_56_64"`
	Age65Plus decimal.Decimal `yaml:"age_65_99"`
}

// InvestmentSettings bundles bucket definitions and return assumptions.
type InvestmentSettings struct {
	Buckets              []BucketDef
	CompanyStock         CompanyStock
	DividendReinvestment DividendReinvestment
}

// InsuranceCategory is one social-insurance category in the detailed model:
// the premium rate applied to the contribution base, the annual cap on that
// base, and the employee's share of the premium.
type InsuranceCategory struct {
	Name          string          `yaml:"name"`
	Rate          decimal.Decimal `yaml:"rate"`
	AnnualBaseCap decimal.Decimal `yaml:"annual_base_cap"`
	EmployeeShare decimal.Decimal `yaml:"employee_share"`
}

// SocialInsurance selects between the flat-rate and the detailed
// per-category contribution model.
type SocialInsurance struct {
	Mode       string              `yaml:"mode"` // "flat" or "detailed"
	FlatRate   decimal.Decimal     `yaml:"flat_rate"`
	Categories []InsuranceCategory `yaml:"categories"`
}

// TaxBand is one income-tax band: the flat rate applied when taxable income
// falls at or below UpTo. The last band's UpTo is an open upper bound.
type TaxBand struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// TaxRates holds the progressive bands and social-insurance parameters.
type TaxRates struct {
	SocialInsurance SocialInsurance
	Bands           []TaxBand
}

// InflationSettings toggles and parameterizes compound inflation.
type InflationSettings struct {
	Enabled            bool            `yaml:"enabled"`
	LivingExpensesRate decimal.Decimal `yaml:"living_expenses_rate"`
	EducationRate      decimal.Decimal `yaml:"education_rate"`
}

// EventCost is a one-off life event with a fixed cost at a fixed age.
type EventCost struct {
	Age  int             `yaml:"age"`
	Cost decimal.Decimal `yaml:"cost"`
}

// HomePurchase is the home-purchase event: down payment plus closing costs
// settled through the home-purchase waterfall.
type HomePurchase struct {
	Age          int             `yaml:"age"`
	DownPayment  decimal.Decimal `yaml:"down_payment"`
	ClosingCosts decimal.Decimal `yaml:"closing_costs"`
}

// RetirementBenefit is a lump sum credited to cash at the given age.
type RetirementBenefit struct {
	Age    int             `yaml:"age"`
	Amount decimal.Decimal `yaml:"amount"`
}

// CustomEvent is a user-defined one-off cost paid from cash.
type CustomEvent struct {
	Name    string          `yaml:"name"`
	Age     int             `yaml:"age"`
	Cost    decimal.Decimal `yaml:"cost"`
	Enabled bool            `yaml:"enabled"`
}

// LifeEvents collects all one-off events evaluated at year boundaries.
type LifeEvents struct {
	Marriage          EventCost         `yaml:"marriage"`
	HomePurchase      HomePurchase      `yaml:"home_purchase"`
	RetirementBenefit RetirementBenefit `yaml:"retirement_benefit"`
	Custom            []CustomEvent     `yaml:"custom_events"`
}

// SimulationParameters is the full, immutable rule set for one simulation
// run. The engine never mutates it; stochastic trials operate on clones.
type SimulationParameters struct {
	BasicInfo         BasicInfo
	IncomeAnchors     []IncomeAnchor // sorted ascending by Age
	SpouseIncome      []AgeBandAmount
	Pension           Pension
	HousingAllowance  []AgeBandAmount
	HousingCosts      []AgeBandHousing
	Phases            []Phase
	ChildAllowance    ChildAllowance
	HighSchoolSubsidy decimal.Decimal
	EducationCosts    EducationCosts
	InvestmentPlan    InvestmentPlan
	SpousePlan        SpousePlan
	ChildInvestment   ChildInvestment
	Investment        InvestmentSettings
	TaxRates          TaxRates
	Inflation         InflationSettings
	LifeEvents        LifeEvents

	// ReturnSchedule optionally overrides a bucket's annual return per year
	// offset, used by the per-year Monte Carlo sampling mode. Nil for
	// deterministic runs.
	ReturnSchedule map[string][]decimal.Decimal
}

// Years returns the number of simulated ages, start through end inclusive.
func (p *SimulationParameters) Years() int {
	return p.BasicInfo.EndAge - p.BasicInfo.StartAge + 1
}

// Clone returns a deep copy. Trials of the stochastic projector each own a
// clone so no trial observes another's return-rate substitutions.
func (p *SimulationParameters) Clone() *SimulationParameters {
	cp := *p
	cp.IncomeAnchors = append([]IncomeAnchor(nil), p.IncomeAnchors...)
	cp.SpouseIncome = append([]AgeBandAmount(nil), p.SpouseIncome...)
	cp.HousingAllowance = append([]AgeBandAmount(nil), p.HousingAllowance...)
	cp.HousingCosts = append([]AgeBandHousing(nil), p.HousingCosts...)
	cp.Phases = make([]Phase, len(p.Phases))
	for i, ph := range p.Phases {
		cp.Phases[i] = ph
		cp.Phases[i].MonthlyExpenses = append([]ExpenseItem(nil), ph.MonthlyExpenses...)
	}
	cp.InvestmentPlan.PreCap = p.InvestmentPlan.PreCap.clone()
	cp.InvestmentPlan.PostCap = p.InvestmentPlan.PostCap.clone()
	cp.SpousePlan.PreCap = p.SpousePlan.PreCap.clone()
	cp.SpousePlan.PostCap = p.SpousePlan.PostCap.clone()
	cp.Investment.Buckets = append([]BucketDef(nil), p.Investment.Buckets...)
	cp.TaxRates.Bands = append([]TaxBand(nil), p.TaxRates.Bands...)
	cp.TaxRates.SocialInsurance.Categories = append([]InsuranceCategory(nil), p.TaxRates.SocialInsurance.Categories...)
	cp.LifeEvents.Custom = append([]CustomEvent(nil), p.LifeEvents.Custom...)
	if p.ReturnSchedule != nil {
		cp.ReturnSchedule = make(map[string][]decimal.Decimal, len(p.ReturnSchedule))
		for k, v := range p.ReturnSchedule {
			cp.ReturnSchedule[k] = append([]decimal.Decimal(nil), v...)
		}
	}
	return &cp
}

func (r AllocationRegime) clone() AllocationRegime {
	return AllocationRegime{
		Monthly:         append([]Allocation(nil), r.Monthly...),
		BonusPerPayment: append([]Allocation(nil), r.BonusPerPayment...),
	}
}

// AnnualReturnFor resolves a bucket's annual return for a given year offset,
// honoring the per-year schedule when present.
func (p *SimulationParameters) AnnualReturnFor(bucket string, fallback decimal.Decimal, yearOffset int) decimal.Decimal {
	if p.ReturnSchedule != nil {
		if sched, ok := p.ReturnSchedule[bucket]; ok && yearOffset >= 0 && yearOffset < len(sched) {
			return sched[yearOffset]
		}
	}
	return fallback
}
