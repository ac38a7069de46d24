package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSimulationParametersClone(t *testing.T) {
	p := &SimulationParameters{
		BasicInfo: BasicInfo{StartAge: 30, EndAge: 59},
		IncomeAnchors: []IncomeAnchor{
			{Age: 30, BaseSalary: decimal.NewFromInt(300000)},
		},
		Phases: []Phase{
			{Name: "single", StartAge: 30, EndAge: 40, MonthlyExpenses: []ExpenseItem{
				{Category: "living", Amount: decimal.NewFromInt(100000)},
			}},
		},
		Investment: InvestmentSettings{
			Buckets: []BucketDef{{Name: BucketTaxable, ExpectedReturn: decimal.NewFromFloat(0.04)}},
		},
		ReturnSchedule: map[string][]decimal.Decimal{
			BucketTaxable: {decimal.NewFromFloat(0.05)},
		},
	}

	cp := p.Clone()

	cp.IncomeAnchors[0].BaseSalary = decimal.NewFromInt(999)
	cp.Phases[0].MonthlyExpenses[0].Amount = decimal.NewFromInt(1)
	cp.Investment.Buckets[0].ExpectedReturn = decimal.NewFromFloat(0.99)
	cp.ReturnSchedule[BucketTaxable][0] = decimal.NewFromFloat(0.99)

	assert.True(t, p.IncomeAnchors[0].BaseSalary.Equal(decimal.NewFromInt(300000)),
		"Clone mutation must not affect the original anchors")
	assert.True(t, p.Phases[0].MonthlyExpenses[0].Amount.Equal(decimal.NewFromInt(100000)),
		"Clone mutation must not affect the original phases")
	assert.True(t, p.Investment.Buckets[0].ExpectedReturn.Equal(decimal.NewFromFloat(0.04)),
		"Clone mutation must not affect the original bucket defs")
	assert.True(t, p.ReturnSchedule[BucketTaxable][0].Equal(decimal.NewFromFloat(0.05)),
		"Clone mutation must not affect the original return schedule")
}

func TestYears(t *testing.T) {
	p := &SimulationParameters{BasicInfo: BasicInfo{StartAge: 30, EndAge: 59}}
	assert.Equal(t, 30, p.Years(), "Years is inclusive of both endpoints")
}

func TestAnnualReturnFor(t *testing.T) {
	fallback := decimal.NewFromFloat(0.05)
	p := &SimulationParameters{
		ReturnSchedule: map[string][]decimal.Decimal{
			"growth": {decimal.NewFromFloat(0.10), decimal.NewFromFloat(-0.02)},
		},
	}

	assert.True(t, p.AnnualReturnFor("growth", fallback, 0).Equal(decimal.NewFromFloat(0.10)),
		"Scheduled year should override")
	assert.True(t, p.AnnualReturnFor("growth", fallback, 1).Equal(decimal.NewFromFloat(-0.02)))
	assert.True(t, p.AnnualReturnFor("growth", fallback, 5).Equal(fallback),
		"Offsets beyond the schedule fall back")
	assert.True(t, p.AnnualReturnFor("other", fallback, 0).Equal(fallback),
		"Unscheduled buckets fall back")

	p.ReturnSchedule = nil
	assert.True(t, p.AnnualReturnFor("growth", fallback, 0).Equal(fallback),
		"Nil schedule always falls back")
}
