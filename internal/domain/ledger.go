package domain

import (
	"github.com/shopspring/decimal"
)

// Bucket is one named balance in the asset ledger. Compounding buckets grow
// monthly at AnnualReturn/12; equity buckets are tracked in shares with an
// annually appreciating price. Contributed counts only the amounts absorbed
// under the bucket's cap family and never exceeds the family cap in sum.
type Bucket struct {
	Name          string
	Family        string // cap family, "" when uncapped
	AnnualReturn  decimal.Decimal
	DividendYield decimal.Decimal

	Balance     decimal.Decimal
	Contributed decimal.Decimal

	// Equity-tracked buckets only.
	Equity bool
	Shares decimal.Decimal
	Price  decimal.Decimal
}

// CapFamily is a group of buckets sharing one lifetime contribution cap.
type CapFamily struct {
	Name string
	Cap  decimal.Decimal
}

// Ledger owns every named balance plus cash. The total is always computed
// over the buckets, never stored, so it cannot drift from its parts.
type Ledger struct {
	Buckets []*Bucket
	Cash    decimal.Decimal

	index map[string]*Bucket
}

// NewLedger builds a ledger over the given buckets, all balances zero.
// Bucket order is preserved and determines snapshot and waterfall order.
func NewLedger(buckets []*Bucket) *Ledger {
	l := &Ledger{
		Buckets: buckets,
		index:   make(map[string]*Bucket, len(buckets)),
	}
	for _, b := range buckets {
		l.index[b.Name] = b
	}
	return l
}

// Bucket returns the named bucket, or nil when it does not exist.
func (l *Ledger) Bucket(name string) *Bucket {
	return l.index[name]
}

// Total sums every bucket balance plus cash.
func (l *Ledger) Total() decimal.Decimal {
	total := l.Cash
	for _, b := range l.Buckets {
		total = total.Add(b.Balance)
	}
	return total
}

// FamilyContributed sums cumulative capped contributions across a family.
func (l *Ledger) FamilyContributed(family string) decimal.Decimal {
	sum := decimal.Zero
	for _, b := range l.Buckets {
		if b.Family == family {
			sum = sum.Add(b.Contributed)
		}
	}
	return sum
}

// BucketBalance is one named balance inside a snapshot.
type BucketBalance struct {
	Name   string          `json:"name" yaml:"name"`
	Amount decimal.Decimal `json:"amount" yaml:"amount"`
}

// LedgerSnapshot is an immutable copy of the ledger at a point in time.
// Total is recorded redundantly for callers but always equals the sum of
// Balances plus Cash at the moment of capture.
type LedgerSnapshot struct {
	Balances []BucketBalance `json:"balances" yaml:"balances"`
	Cash     decimal.Decimal `json:"cash" yaml:"cash"`
	Total    decimal.Decimal `json:"total" yaml:"total"`
}

// Snapshot captures the current balances in bucket order.
func (l *Ledger) Snapshot() LedgerSnapshot {
	snap := LedgerSnapshot{
		Balances: make([]BucketBalance, len(l.Buckets)),
		Cash:     l.Cash,
	}
	for i, b := range l.Buckets {
		snap.Balances[i] = BucketBalance{Name: b.Name, Amount: b.Balance}
	}
	snap.Total = l.Total()
	return snap
}

// Balance returns a snapshot's amount for a named bucket, zero if absent.
func (s LedgerSnapshot) Balance(name string) decimal.Decimal {
	for _, b := range s.Balances {
		if b.Name == name {
			return b.Amount
		}
	}
	return decimal.Zero
}
