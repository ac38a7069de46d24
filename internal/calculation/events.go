package calculation

import (
	"github.com/shopspring/decimal"

	"lpgo/internal/domain"
)

// CashSource is the source label recorded when a waterfall step draws on the
// cash balance rather than a named bucket.
const CashSource = "cash"

// Irregular expense type labels.
const (
	ExpenseK12        = "k12_education"
	ExpenseUniversity = "university_education"
	ExpenseMarriage   = "marriage"
	ExpenseHome       = "home_purchase"
)

type sourceKind int

const (
	bucketSource  sourceKind = iota // drain a named bucket, never below zero
	cashCapped                      // drain cash down to zero at most
	cashOverdraft                   // drain cash unconditionally, may go negative
)

// fundSource is one candidate source in a waterfall's fixed ordering.
type fundSource struct {
	kind   sourceKind
	bucket string
}

// EventProcessor settles the year-boundary irregular expenses: education
// milestones, marriage, home purchase, and custom one-off events. Each cost
// type drains a fixed, type-specific ordered list of fund sources; every
// consumption step is recorded so the source amounts always sum to the
// amount actually deducted.
type EventProcessor struct {
	params   *domain.SimulationParameters
	rules    *RuleResolver
	expenses *ExpenseCalculator
}

// NewEventProcessor creates an event processor over the parameters.
func NewEventProcessor(params *domain.SimulationParameters, rules *RuleResolver, expenses *ExpenseCalculator) *EventProcessor {
	return &EventProcessor{params: params, rules: rules, expenses: expenses}
}

// settle drains the ordered sources until the amount is covered or the
// sources are exhausted. Whatever no source could cover is surfaced as the
// expense's Shortfall instead of being silently treated as paid.
func (ep *EventProcessor) settle(ledger *domain.Ledger, typ string, amount decimal.Decimal, sources []fundSource) domain.IrregularExpense {
	exp := domain.IrregularExpense{Type: typ, Amount: amount}
	remaining := amount

	for _, src := range sources {
		if !remaining.IsPositive() {
			break
		}
		var used decimal.Decimal
		label := CashSource
		switch src.kind {
		case bucketSource:
			b := ledger.Bucket(src.bucket)
			if b == nil || !b.Balance.IsPositive() {
				continue
			}
			used = decimal.Min(b.Balance, remaining)
			b.Balance = b.Balance.Sub(used)
			label = src.bucket
		case cashCapped:
			if !ledger.Cash.IsPositive() {
				continue
			}
			used = decimal.Min(ledger.Cash, remaining)
			ledger.Cash = ledger.Cash.Sub(used)
		case cashOverdraft:
			used = remaining
			ledger.Cash = ledger.Cash.Sub(used)
		}
		if used.IsPositive() {
			exp.Sources = append(exp.Sources, domain.PaymentSource{Source: label, Amount: used})
			exp.Paid = exp.Paid.Add(used)
			remaining = remaining.Sub(used)
		}
	}

	exp.Shortfall = remaining
	return exp
}

// SettleEducation computes both children's annual education costs and
// settles them: K-12 costs come straight out of cash (cash is allowed to go
// negative for them), university-year costs drain the matching child fund
// first, then the general education fund, then cash. Returns the settled
// expense records and the combined annual education cost.
func (ep *EventProcessor) SettleEducation(ledger *domain.Ledger, age, yearOffset int) ([]domain.IrregularExpense, decimal.Decimal) {
	c1 := ep.rules.ChildAge(age, false)
	c2 := ep.rules.ChildAge(age, true)

	k12 := decimal.Zero
	university := decimal.Zero
	for _, childAge := range []int{c1, c2} {
		cost := ep.expenses.AnnualEducationCost(childAge, yearOffset)
		if !cost.IsPositive() {
			continue
		}
		if childAge <= 18 {
			k12 = k12.Add(cost)
		} else {
			university = university.Add(cost)
		}
	}

	var settled []domain.IrregularExpense
	if k12.IsPositive() {
		settled = append(settled, ep.settle(ledger, ExpenseK12, k12,
			[]fundSource{{kind: cashOverdraft}}))
	}
	if university.IsPositive() {
		sources := make([]fundSource, 0, 4)
		if c1 >= 19 && c1 <= 22 {
			sources = append(sources, fundSource{kind: bucketSource, bucket: domain.BucketChild1})
		}
		if c2 >= 19 && c2 <= 22 {
			sources = append(sources, fundSource{kind: bucketSource, bucket: domain.BucketChild2})
		}
		sources = append(sources,
			fundSource{kind: bucketSource, bucket: domain.BucketEducationFund},
			fundSource{kind: cashOverdraft},
		)
		settled = append(settled, ep.settle(ledger, ExpenseUniversity, university, sources))
	}
	return settled, k12.Add(university)
}

// SettleMarriage settles the marriage event when it falls on this age:
// the marriage fund first, cash unconditionally after.
func (ep *EventProcessor) SettleMarriage(ledger *domain.Ledger, age int) (domain.IrregularExpense, bool) {
	ev := ep.params.LifeEvents.Marriage
	if age != ev.Age || !ev.Cost.IsPositive() {
		return domain.IrregularExpense{}, false
	}
	exp := ep.settle(ledger, ExpenseMarriage, ev.Cost, []fundSource{
		{kind: bucketSource, bucket: domain.BucketMarriageFund},
		{kind: cashOverdraft},
	})
	return exp, true
}

// SettleHomePurchase settles the home purchase (down payment plus closing
// costs) when it falls on this age: cash down to zero, then the education
// fund, then each non-equity primary-family bucket in ledger order. No
// source overdrafts here, so an under-funded purchase carries a Shortfall.
func (ep *EventProcessor) SettleHomePurchase(ledger *domain.Ledger, age int) (domain.IrregularExpense, bool) {
	ev := ep.params.LifeEvents.HomePurchase
	total := ev.DownPayment.Add(ev.ClosingCosts)
	if age != ev.Age || !total.IsPositive() {
		return domain.IrregularExpense{}, false
	}
	sources := []fundSource{
		{kind: cashCapped},
		{kind: bucketSource, bucket: domain.BucketEducationFund},
	}
	for _, b := range ledger.Buckets {
		if b.Family == domain.FamilyPrimary && !b.Equity {
			sources = append(sources, fundSource{kind: bucketSource, bucket: b.Name})
		}
	}
	return ep.settle(ledger, ExpenseHome, total, sources), true
}

// SettleCustomEvents settles every enabled custom event that falls on this
// age. Custom events are paid straight from cash.
func (ep *EventProcessor) SettleCustomEvents(ledger *domain.Ledger, age int) []domain.IrregularExpense {
	var settled []domain.IrregularExpense
	for _, ev := range ep.params.LifeEvents.Custom {
		if !ev.Enabled || ev.Age != age || !ev.Cost.IsPositive() {
			continue
		}
		settled = append(settled, ep.settle(ledger, ev.Name, ev.Cost,
			[]fundSource{{kind: cashOverdraft}}))
	}
	return settled
}

// ApplyRetirementBenefit credits the lump-sum retirement benefit to cash
// when it falls on this age and returns the credited amount.
func (ep *EventProcessor) ApplyRetirementBenefit(ledger *domain.Ledger, age int) decimal.Decimal {
	ev := ep.params.LifeEvents.RetirementBenefit
	if age != ev.Age || !ev.Amount.IsPositive() {
		return decimal.Zero
	}
	ledger.Cash = ledger.Cash.Add(ev.Amount)
	return ev.Amount
}
