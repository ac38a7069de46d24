// Package config loads and validates the plan document that parameterizes a
// simulation run. The document is YAML; age-band map keys of the form
// "28-47" are parsed once here into typed, sorted band tables so the engine
// never parses strings on the hot path.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"lpgo/internal/domain"
)

// InputParser handles parsing of plan documents.
type InputParser struct{}

// NewInputParser creates a new input parser.
func NewInputParser() *InputParser {
	return &InputParser{}
}

// planDocument mirrors the on-disk YAML layout before band keys and
// allocation maps are converted into their typed forms.
type planDocument struct {
	BasicInfo         domain.BasicInfo                      `yaml:"basic_info"`
	IncomeProgression map[string]incomeAnchorDoc            `yaml:"income_progression"`
	SpouseIncome      map[string]decimal.Decimal            `yaml:"spouse_income"`
	Pension           domain.Pension                        `yaml:"pension"`
	HousingAllowance  map[string]decimal.Decimal            `yaml:"housing_allowance"`
	HousingCosts      map[string]housingCostDoc             `yaml:"housing_costs"`
	PhaseDefinitions  map[string]phaseDoc                   `yaml:"phase_definitions"`
	ChildAllowance    domain.ChildAllowance                 `yaml:"child_allowance"`
	HighSchoolSubsidy decimal.Decimal                       `yaml:"high_school_subsidy"`
	EducationCosts    domain.EducationCosts                 `yaml:"education_costs_per_child"`
	InvestmentPlan    investmentPlanDoc                     `yaml:"investment_plan"`
	SpousePlan        spousePlanDoc                         `yaml:"spouse_investment_plan"`
	ChildInvestment   domain.ChildInvestment                `yaml:"child_investment"`
	Investment        investmentSettingsDoc                 `yaml:"investment_settings"`
	TaxRates          taxRatesDoc                           `yaml:"tax_rates"`
	Inflation         domain.InflationSettings              `yaml:"inflation_settings"`
	LifeEvents        domain.LifeEvents                     `yaml:"life_events"`
}

type incomeAnchorDoc struct {
	BaseSalary  decimal.Decimal `yaml:"base_salary"`
	BonusMonths decimal.Decimal `yaml:"bonus_months"`
}

type housingCostDoc struct {
	Rent      decimal.Decimal `yaml:"rent"`
	Mortgage  decimal.Decimal `yaml:"mortgage"`
	Utilities decimal.Decimal `yaml:"utilities"`
}

type phaseDoc struct {
	Ages            string                     `yaml:"ages"`
	MonthlyExpenses map[string]decimal.Decimal `yaml:"monthly_expenses"`
}

type regimeDoc struct {
	Monthly         map[string]decimal.Decimal `yaml:"monthly"`
	BonusPerPayment map[string]decimal.Decimal `yaml:"bonus_per_payment"`
}

type investmentPlanDoc struct {
	LifetimeCap decimal.Decimal `yaml:"lifetime_cap"`
	PreCap      regimeDoc       `yaml:"pre_cap"`
	PostCap     regimeDoc       `yaml:"post_cap"`
}

type spousePlanDoc struct {
	Enabled        bool            `yaml:"enabled"`
	LifetimeCap    decimal.Decimal `yaml:"lifetime_cap"`
	ExpectedReturn decimal.Decimal `yaml:"expected_return"`
	PreCap         regimeDoc       `yaml:"pre_cap"`
	PostCap        regimeDoc       `yaml:"post_cap"`
}

type bucketDoc struct {
	Name           string          `yaml:"name"`
	Family         string          `yaml:"family"`
	ExpectedReturn decimal.Decimal `yaml:"expected_return"`
	DividendYield  decimal.Decimal `yaml:"dividend_yield"`
	Equity         bool            `yaml:"equity"`
}

type investmentSettingsDoc struct {
	Buckets              []bucketDoc                 `yaml:"buckets"`
	CompanyStock         domain.CompanyStock         `yaml:"company_stock"`
	DividendReinvestment domain.DividendReinvestment `yaml:"dividend_reinvestment"`
}

type taxBandDoc struct {
	UpTo decimal.Decimal `yaml:"up_to"`
	Rate decimal.Decimal `yaml:"rate"`
}

type taxRatesDoc struct {
	SocialInsurance domain.SocialInsurance `yaml:"social_insurance"`
	Bands           []taxBandDoc           `yaml:"income_tax_bands"`
}

// LoadFromFile loads simulation parameters from a YAML plan document.
func (ip *InputParser) LoadFromFile(filename string) (*domain.SimulationParameters, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Load(data)
}

// Load parses and validates a YAML plan document.
func (ip *InputParser) Load(data []byte) (*domain.SimulationParameters, error) {
	var doc planDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	params, err := ip.build(&doc)
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return params, nil
}

// build converts the raw document into typed parameters, validating the
// structural requirements as it goes. Optional sections default to
// zero/disabled; malformed age ranges and overlaps are fatal.
func (ip *InputParser) build(doc *planDocument) (*domain.SimulationParameters, error) {
	if err := validateBasicInfo(&doc.BasicInfo); err != nil {
		return nil, err
	}

	anchors, err := buildIncomeAnchors(doc.IncomeProgression)
	if err != nil {
		return nil, err
	}

	spouseIncome, err := buildAmountBands("spouse_income", doc.SpouseIncome)
	if err != nil {
		return nil, err
	}
	housingAllowance, err := buildAmountBands("housing_allowance", doc.HousingAllowance)
	if err != nil {
		return nil, err
	}
	housingCosts, err := buildHousingBands(doc.HousingCosts)
	if err != nil {
		return nil, err
	}
	phases, err := buildPhases(doc.PhaseDefinitions)
	if err != nil {
		return nil, err
	}

	buckets, err := buildBuckets(doc.Investment.Buckets)
	if err != nil {
		return nil, err
	}

	plan := domain.InvestmentPlan{
		LifetimeCap: doc.InvestmentPlan.LifetimeCap,
		PreCap:      buildRegime(doc.InvestmentPlan.PreCap),
		PostCap:     buildRegime(doc.InvestmentPlan.PostCap),
	}
	spouse := domain.SpousePlan{
		Enabled:        doc.SpousePlan.Enabled,
		LifetimeCap:    doc.SpousePlan.LifetimeCap,
		ExpectedReturn: doc.SpousePlan.ExpectedReturn,
		PreCap:         buildRegime(doc.SpousePlan.PreCap),
		PostCap:        buildRegime(doc.SpousePlan.PostCap),
	}

	bands, err := buildTaxBands(doc.TaxRates.Bands)
	if err != nil {
		return nil, err
	}
	if err := validateSocialInsurance(&doc.TaxRates.SocialInsurance); err != nil {
		return nil, err
	}

	params := &domain.SimulationParameters{
		BasicInfo:         doc.BasicInfo,
		IncomeAnchors:     anchors,
		SpouseIncome:      spouseIncome,
		Pension:           doc.Pension,
		HousingAllowance:  housingAllowance,
		HousingCosts:      housingCosts,
		Phases:            phases,
		ChildAllowance:    doc.ChildAllowance,
		HighSchoolSubsidy: doc.HighSchoolSubsidy,
		EducationCosts:    doc.EducationCosts,
		InvestmentPlan:    plan,
		SpousePlan:        spouse,
		ChildInvestment:   doc.ChildInvestment,
		Investment: domain.InvestmentSettings{
			Buckets:              buckets,
			CompanyStock:         doc.Investment.CompanyStock,
			DividendReinvestment: doc.Investment.DividendReinvestment,
		},
		TaxRates: domain.TaxRates{
			SocialInsurance: doc.TaxRates.SocialInsurance,
			Bands:           bands,
		},
		Inflation:  doc.Inflation,
		LifeEvents: doc.LifeEvents,
	}

	if err := validateAllocations(params); err != nil {
		return nil, err
	}
	return params, nil
}

func validateBasicInfo(bi *domain.BasicInfo) error {
	if bi.StartAge <= 0 || bi.EndAge <= 0 {
		return fmt.Errorf("basic_info: start_age and end_age are required")
	}
	if bi.EndAge < bi.StartAge {
		return fmt.Errorf("basic_info: end_age %d is before start_age %d", bi.EndAge, bi.StartAge)
	}
	if bi.StartYear <= 0 {
		return fmt.Errorf("basic_info: start_year is required")
	}
	return nil
}

func buildIncomeAnchors(raw map[string]incomeAnchorDoc) ([]domain.IncomeAnchor, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("income_progression: at least one anchor is required")
	}
	anchors := make([]domain.IncomeAnchor, 0, len(raw))
	for key, v := range raw {
		age, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("income_progression: anchor key %q is not an age", key)
		}
		anchors = append(anchors, domain.IncomeAnchor{
			Age:         age,
			BaseSalary:  v.BaseSalary,
			BonusMonths: v.BonusMonths,
		})
	}
	sort.Slice(anchors, func(i, j int) bool { return anchors[i].Age < anchors[j].Age })
	return anchors, nil
}

// parseAgeRange parses an inclusive "start-end" range key.
func parseAgeRange(key string) (int, int, error) {
	parts := strings.SplitN(key, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("age range %q is malformed, want \"start-end\"", key)
	}
	start, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("age range %q: %w", key, err)
	}
	end, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("age range %q: %w", key, err)
	}
	return start, end, nil
}

func buildAmountBands(table string, raw map[string]decimal.Decimal) ([]domain.AgeBandAmount, error) {
	bands := make([]domain.AgeBandAmount, 0, len(raw))
	for key, amount := range raw {
		start, end, err := parseAgeRange(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", table, err)
		}
		bands = append(bands, domain.AgeBandAmount{StartAge: start, EndAge: end, Amount: amount})
	}
	domain.SortAmountBands(bands)
	if err := validateAmountBands(table, bands); err != nil {
		return nil, err
	}
	return bands, nil
}

func validateAmountBands(table string, bands []domain.AgeBandAmount) error {
	starts := make([]int, len(bands))
	ends := make([]int, len(bands))
	for i, b := range bands {
		starts[i], ends[i] = b.StartAge, b.EndAge
	}
	return domain.ValidateBands(table, starts, ends)
}

func buildHousingBands(raw map[string]housingCostDoc) ([]domain.AgeBandHousing, error) {
	bands := make([]domain.AgeBandHousing, 0, len(raw))
	for key, v := range raw {
		start, end, err := parseAgeRange(key)
		if err != nil {
			return nil, fmt.Errorf("housing_costs: %w", err)
		}
		bands = append(bands, domain.AgeBandHousing{
			StartAge:  start,
			EndAge:    end,
			Rent:      v.Rent,
			Mortgage:  v.Mortgage,
			Utilities: v.Utilities,
		})
	}
	domain.SortHousingBands(bands)
	starts := make([]int, len(bands))
	ends := make([]int, len(bands))
	for i, b := range bands {
		starts[i], ends[i] = b.StartAge, b.EndAge
	}
	if err := domain.ValidateBands("housing_costs", starts, ends); err != nil {
		return nil, err
	}
	return bands, nil
}

func buildPhases(raw map[string]phaseDoc) ([]domain.Phase, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("phase_definitions: at least one phase is required")
	}
	phases := make([]domain.Phase, 0, len(raw))
	for name, v := range raw {
		if v.Ages == "" {
			return nil, fmt.Errorf("phase_definitions: phase %q is missing its ages range", name)
		}
		start, end, err := parseAgeRange(v.Ages)
		if err != nil {
			return nil, fmt.Errorf("phase_definitions: phase %q: %w", name, err)
		}
		phases = append(phases, domain.Phase{
			Name:            name,
			StartAge:        start,
			EndAge:          end,
			MonthlyExpenses: sortedItems(v.MonthlyExpenses),
		})
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i].StartAge < phases[j].StartAge })
	starts := make([]int, len(phases))
	ends := make([]int, len(phases))
	for i, p := range phases {
		starts[i], ends[i] = p.StartAge, p.EndAge
	}
	if err := domain.ValidateBands("phase_definitions", starts, ends); err != nil {
		return nil, err
	}
	return phases, nil
}

// sortedItems converts a category map to a name-sorted slice so expense
// iteration is deterministic across runs.
func sortedItems(raw map[string]decimal.Decimal) []domain.ExpenseItem {
	items := make([]domain.ExpenseItem, 0, len(raw))
	for k, v := range raw {
		items = append(items, domain.ExpenseItem{Category: k, Amount: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Category < items[j].Category })
	return items
}

// buildRegime converts allocation maps to name-sorted slices for
// deterministic contribution ordering.
func buildRegime(doc regimeDoc) domain.AllocationRegime {
	return domain.AllocationRegime{
		Monthly:         sortedAllocations(doc.Monthly),
		BonusPerPayment: sortedAllocations(doc.BonusPerPayment),
	}
}

func sortedAllocations(raw map[string]decimal.Decimal) []domain.Allocation {
	allocs := make([]domain.Allocation, 0, len(raw))
	for k, v := range raw {
		allocs = append(allocs, domain.Allocation{Bucket: k, Amount: v})
	}
	sort.Slice(allocs, func(i, j int) bool { return allocs[i].Bucket < allocs[j].Bucket })
	return allocs
}

func buildBuckets(raw []bucketDoc) ([]domain.BucketDef, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("investment_settings: at least one bucket definition is required")
	}
	seen := make(map[string]bool, len(raw))
	defs := make([]domain.BucketDef, 0, len(raw))
	for _, b := range raw {
		if b.Name == "" {
			return nil, fmt.Errorf("investment_settings: bucket with empty name")
		}
		if seen[b.Name] {
			return nil, fmt.Errorf("investment_settings: duplicate bucket %q", b.Name)
		}
		seen[b.Name] = true
		defs = append(defs, domain.BucketDef{
			Name:           b.Name,
			Family:         b.Family,
			ExpectedReturn: b.ExpectedReturn,
			DividendYield:  b.DividendYield,
			Equity:         b.Equity,
		})
	}
	// The waterfalls and overflow redirect depend on these existing.
	for _, required := range []string{domain.BucketEducationFund, domain.BucketMarriageFund, domain.BucketTaxable} {
		if !seen[required] {
			return nil, fmt.Errorf("investment_settings: required bucket %q is missing", required)
		}
	}
	return defs, nil
}

func buildTaxBands(raw []taxBandDoc) ([]domain.TaxBand, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("tax_rates: income_tax_bands is required")
	}
	bands := make([]domain.TaxBand, len(raw))
	openEnded := 0
	for i, b := range raw {
		if b.UpTo.IsZero() {
			openEnded++
		}
		bands[i] = domain.TaxBand{UpTo: b.UpTo, Rate: b.Rate}
	}
	if openEnded > 1 {
		return nil, fmt.Errorf("tax_rates: only one income tax band may be open-ended, got %d", openEnded)
	}
	// The open-ended band sorts last; bounded bands ascend by threshold.
	sort.Slice(bands, func(i, j int) bool {
		if bands[i].UpTo.IsZero() {
			return false
		}
		if bands[j].UpTo.IsZero() {
			return true
		}
		return bands[i].UpTo.LessThan(bands[j].UpTo)
	})
	if !bands[len(bands)-1].UpTo.IsZero() {
		return nil, fmt.Errorf("tax_rates: the last income tax band must be open-ended (no up_to)")
	}
	return bands, nil
}

func validateSocialInsurance(si *domain.SocialInsurance) error {
	switch si.Mode {
	case "", "flat":
		si.Mode = "flat"
		return nil
	case "detailed":
		if len(si.Categories) == 0 {
			return fmt.Errorf("tax_rates: social_insurance mode is detailed but no categories given")
		}
		return nil
	default:
		return fmt.Errorf("tax_rates: unknown social_insurance mode %q", si.Mode)
	}
}

// validateAllocations checks that every allocation in every regime refers to
// a defined bucket (or a child bucket when child investment is enabled).
func validateAllocations(p *domain.SimulationParameters) error {
	known := make(map[string]bool, len(p.Investment.Buckets)+2)
	for _, b := range p.Investment.Buckets {
		known[b.Name] = true
	}
	if p.ChildInvestment.Enabled {
		known[domain.BucketChild1] = true
		known[domain.BucketChild2] = true
	}
	check := func(section string, regime domain.AllocationRegime) error {
		for _, a := range append(append([]domain.Allocation(nil), regime.Monthly...), regime.BonusPerPayment...) {
			if !known[a.Bucket] {
				return fmt.Errorf("%s: allocation references undefined bucket %q", section, a.Bucket)
			}
		}
		return nil
	}
	if err := check("investment_plan.pre_cap", p.InvestmentPlan.PreCap); err != nil {
		return err
	}
	if err := check("investment_plan.post_cap", p.InvestmentPlan.PostCap); err != nil {
		return err
	}
	if p.SpousePlan.Enabled {
		if err := check("spouse_investment_plan.pre_cap", p.SpousePlan.PreCap); err != nil {
			return err
		}
		if err := check("spouse_investment_plan.post_cap", p.SpousePlan.PostCap); err != nil {
			return err
		}
	}
	return nil
}
