// Package apportion rounds proportional volumes to a fixed precision without
// letting accumulated rounding error change the declared total.
//
// It implements the largest remainder method: every nominal volume is
// truncated to the precision, and the deficit against the total is handed out
// one increment at a time to the volumes that lost the most to truncation.
// When several volumes tie (e.g. three thirds) the earlier one wins, so equal
// nominal volumes may end up one increment apart; the total always holds.
package apportion

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/panelmix/panelmix/panel"
)

// Apportion returns len(nominal) volumes at the given precision whose sum is
// exactly total. No result is below its truncated nominal value.
//
// total must have at most precision decimal places, and the nominal volumes
// must be non-negative and sum to within len(nominal) increments below total;
// otherwise the deficit cannot be closed and a DataConsistencyError is returned.
func Apportion(total decimal.Decimal, nominal []decimal.Decimal, precision int32) ([]decimal.Decimal, error) {
	if !total.Equal(total.Truncate(precision)) {
		return nil, &panel.DataConsistencyError{
			Source: "apportion",
			Reason: fmt.Sprintf("total %s has more than %d decimal places", total, precision),
		}
	}
	increment := decimal.New(1, -precision)

	rounded := make([]decimal.Decimal, len(nominal))
	remainders := make([]decimal.Decimal, len(nominal))
	sum := decimal.Zero
	for i, v := range nominal {
		if v.IsNegative() {
			return nil, &panel.DataConsistencyError{
				Source: "apportion",
				Reason: fmt.Sprintf("nominal volume %d is negative (%s)", i, v),
			}
		}
		// Truncate rounds toward zero, which is down for non-negative volumes.
		rounded[i] = v.Truncate(precision)
		remainders[i] = v.Sub(rounded[i])
		sum = sum.Add(rounded[i])
	}

	deficit := total.Sub(sum)
	steps := deficit.Div(increment)
	if !steps.IsInteger() {
		return nil, &panel.DataConsistencyError{
			Source: "apportion",
			Reason: fmt.Sprintf("deficit %s is not a whole number of %s increments", deficit, increment),
		}
	}
	count := steps.IntPart()
	if count < 0 || count > int64(len(nominal)) {
		return nil, &panel.DataConsistencyError{
			Source: "apportion",
			Reason: fmt.Sprintf("deficit %s needs %d increments across %d volumes (nominal sum %s, total %s)",
				deficit, count, len(nominal), sumOf(nominal), total),
		}
	}

	order := make([]int, len(nominal))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]].GreaterThan(remainders[order[b]])
	})
	for _, i := range order[:count] {
		rounded[i] = rounded[i].Add(increment)
	}
	return rounded, nil
}

func sumOf(values []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum
}
