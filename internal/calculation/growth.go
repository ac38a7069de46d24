package calculation

import (
	"github.com/shopspring/decimal"

	"lpgo/internal/domain"
)

// LedgerUpdater mutates the asset ledger: it books each month's actual
// contributions under the lifetime caps, compounds balances monthly, and
// runs the year-end equity price, dividend, and reinvestment update.
type LedgerUpdater struct {
	params *domain.SimulationParameters
	caps   map[string]decimal.Decimal // family -> lifetime cap
}

// NewLedgerUpdater creates an updater with the given family cap table.
func NewLedgerUpdater(params *domain.SimulationParameters, caps map[string]decimal.Decimal) *LedgerUpdater {
	return &LedgerUpdater{params: params, caps: caps}
}

// ApplyMonth books one month's contributions and compounds every non-equity
// bucket at its monthly rate. Contributions into a capped family are
// absorbed only up to the family's remaining headroom; the overflow is
// redirected into the uncapped taxable bucket the same month rather than
// dropped. Equity buckets convert their contribution into shares at the
// current price, grossed up by the purchase incentive; their currency
// balance is refreshed at year-end when the price moves.
func (lu *LedgerUpdater) ApplyMonth(ledger *domain.Ledger, actual []domain.Allocation, yearOffset int) {
	pending := make(map[string]decimal.Decimal, len(actual))

	for _, a := range actual {
		if !a.Amount.IsPositive() {
			continue
		}
		b := ledger.Bucket(a.Bucket)
		if b == nil {
			continue
		}
		if b.Equity {
			lu.buyShares(b, a.Amount)
			continue
		}
		absorbed := a.Amount
		if b.Family != "" {
			if cap, ok := lu.caps[b.Family]; ok && cap.IsPositive() {
				headroom := cap.Sub(ledger.FamilyContributed(b.Family))
				if headroom.IsNegative() {
					headroom = decimal.Zero
				}
				if absorbed.GreaterThan(headroom) {
					overflow := absorbed.Sub(headroom)
					absorbed = headroom
					pending[domain.BucketTaxable] = pending[domain.BucketTaxable].Add(overflow)
				}
			}
		}
		if absorbed.IsPositive() {
			b.Contributed = b.Contributed.Add(absorbed)
			pending[a.Bucket] = pending[a.Bucket].Add(absorbed)
		}
	}

	for _, b := range ledger.Buckets {
		if b.Equity {
			continue
		}
		rate := lu.params.AnnualReturnFor(b.Name, b.AnnualReturn, yearOffset)
		monthlyRate := rate.Div(twelve)
		b.Balance = b.Balance.Add(pending[b.Name]).Mul(one.Add(monthlyRate))
	}
}

// buyShares converts a currency contribution into shares at the bucket's
// current price, grossed up by the company-stock purchase incentive.
func (lu *LedgerUpdater) buyShares(b *domain.Bucket, amount decimal.Decimal) {
	if !b.Price.IsPositive() {
		return
	}
	purchase := amount
	if b.Name == domain.BucketCompanyStock {
		purchase = purchase.Mul(one.Add(lu.params.Investment.CompanyStock.IncentiveRate))
	}
	b.Shares = b.Shares.Add(purchase.Div(b.Price))
}

// ApplyYearEndEquity advances every equity bucket's price by one year of
// growth, refreshes its currency balance from shares, and settles the annual
// dividend: the age-banded reinvested fraction buys shares at the post-growth
// price, the rest lands in cash. Returns the gross dividend and the cash
// portion for the yearly record.
func (lu *LedgerUpdater) ApplyYearEndEquity(ledger *domain.Ledger, age, yearOffset int) (total, received decimal.Decimal) {
	reinvestRate := lu.reinvestRateForAge(age)

	for _, b := range ledger.Buckets {
		if !b.Equity {
			continue
		}
		growth := lu.params.AnnualReturnFor(b.Name, lu.equityGrowthRate(b), yearOffset)
		b.Price = b.Price.Mul(one.Add(growth))
		b.Balance = b.Shares.Mul(b.Price)

		if !b.Balance.IsPositive() {
			continue
		}
		dividend := b.Balance.Mul(b.DividendYield)
		total = total.Add(dividend)

		reinvested := dividend.Mul(reinvestRate)
		cashPortion := dividend.Sub(reinvested)
		received = received.Add(cashPortion)

		if reinvested.IsPositive() && b.Price.IsPositive() {
			b.Shares = b.Shares.Add(reinvested.Div(b.Price))
			b.Balance = b.Shares.Mul(b.Price)
		}
		ledger.Cash = ledger.Cash.Add(cashPortion)
	}
	return total, received
}

// equityGrowthRate resolves an equity bucket's annual price growth: the
// company-stock bucket follows the dedicated price growth setting, any other
// equity bucket its configured expected return.
func (lu *LedgerUpdater) equityGrowthRate(b *domain.Bucket) decimal.Decimal {
	if b.Name == domain.BucketCompanyStock {
		return lu.params.Investment.CompanyStock.PriceGrowthRate
	}
	return b.AnnualReturn
}

func (lu *LedgerUpdater) reinvestRateForAge(age int) decimal.Decimal {
	dr := lu.params.Investment.DividendReinvestment
	switch {
	case age <= 45:
		return dr.Age0to45
	case age <= 55:
		return dr.Age46to55
	case age <= 64:
		return dr.Age56to64
	default:
		return dr.Age65Plus
	}
}
