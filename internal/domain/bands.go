package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// AgeBandAmount is one inclusive age range mapped to a monthly amount.
// Tables of these are built once at configuration load time from the
// document's "start-end" keys, sorted by StartAge, and verified
// non-overlapping, so every lookup is deterministic.
type AgeBandAmount struct {
	StartAge int
	EndAge   int
	Amount   decimal.Decimal
}

// AgeBandHousing is one inclusive age range mapped to housing costs.
type AgeBandHousing struct {
	StartAge  int
	EndAge    int
	Rent      decimal.Decimal
	Mortgage  decimal.Decimal
	Utilities decimal.Decimal
}

// AmountForAge returns the amount of the band containing age, or zero when
// no band matches. Missing bands are an expected condition, not an error.
func AmountForAge(bands []AgeBandAmount, age int) decimal.Decimal {
	for _, b := range bands {
		if age >= b.StartAge && age <= b.EndAge {
			return b.Amount
		}
	}
	return decimal.Zero
}

// HousingForAge returns the housing band containing age, or a zero band.
func HousingForAge(bands []AgeBandHousing, age int) AgeBandHousing {
	for _, b := range bands {
		if age >= b.StartAge && age <= b.EndAge {
			return b
		}
	}
	return AgeBandHousing{}
}

// SortAmountBands orders bands by start age.
func SortAmountBands(bands []AgeBandAmount) {
	sort.Slice(bands, func(i, j int) bool { return bands[i].StartAge < bands[j].StartAge })
}

// SortHousingBands orders bands by start age.
func SortHousingBands(bands []AgeBandHousing) {
	sort.Slice(bands, func(i, j int) bool { return bands[i].StartAge < bands[j].StartAge })
}

// ValidateBands checks that a sorted band list is well-formed: every range
// runs forward and no two ranges overlap. Overlap is a configuration defect,
// never resolved by iteration order.
func ValidateBands(table string, starts, ends []int) error {
	for i := range starts {
		if ends[i] < starts[i] {
			return fmt.Errorf("%s: age range %d-%d is malformed", table, starts[i], ends[i])
		}
		if i > 0 && starts[i] <= ends[i-1] {
			return fmt.Errorf("%s: age ranges %d-%d and %d-%d overlap", table, starts[i-1], ends[i-1], starts[i], ends[i])
		}
	}
	return nil
}
