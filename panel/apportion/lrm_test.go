package apportion

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panelmix/panelmix/panel"
)

func decs(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, decimal.RequireFromString(v))
	}
	return out
}

func strs(values []decimal.Decimal, precision int32) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.StringFixed(precision))
	}
	return out
}

func TestApportion_IncrementGoesToLargestRemainder(t *testing.T) {
	// GIVEN nominal volumes summing to exactly 1.000000
	nominal := decs("0.400003", "0.300004", "0.299993")

	// WHEN apportioned to 5 decimal places
	got, err := Apportion(decimal.RequireFromString("1.00000"), nominal, 5)
	require.NoError(t, err)

	// THEN the single increment goes to the largest remainder (the second volume)
	assert.Equal(t, []string{"0.40000", "0.30001", "0.29999"}, strs(got, 5))
	assert.True(t, sumOf(got).Equal(decimal.NewFromInt(1)))
}

func TestApportion_EqualThirds_TotalHolds(t *testing.T) {
	third := decimal.NewFromInt(1).DivRound(decimal.NewFromInt(3), 28)
	last := decimal.NewFromInt(1).Sub(third).Sub(third)

	got, err := Apportion(decimal.RequireFromString("1.00000"), []decimal.Decimal{third, third, last}, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"0.33333", "0.33333", "0.33334"}, strs(got, 5))
}

func TestApportion_ExactInputs_Unchanged(t *testing.T) {
	got, err := Apportion(decimal.RequireFromString("1.00000"), decs("0.25", "0.75"), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"0.25000", "0.75000"}, strs(got, 5))
}

func TestApportion_EmptyInputWithZeroTotal(t *testing.T) {
	got, err := Apportion(decimal.Zero, nil, 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApportion_RandomProportions_SumExactAndNeverBelowTruncation(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	total := decimal.RequireFromString("1.00000")
	for trial := 0; trial < 200; trial++ {
		// GIVEN n proportional volumes whose nominal sum is exactly the total
		n := 1 + rng.Intn(40)
		weights := make([]int64, n)
		var weightSum int64
		for i := range weights {
			weights[i] = 1 + rng.Int63n(1000)
			weightSum += weights[i]
		}
		nominal := make([]decimal.Decimal, n)
		acc := decimal.Zero
		for i := 0; i < n-1; i++ {
			nominal[i] = decimal.NewFromInt(weights[i]).DivRound(decimal.NewFromInt(weightSum), 28)
			acc = acc.Add(nominal[i])
		}
		nominal[n-1] = total.Sub(acc)

		// WHEN apportioned
		got, err := Apportion(total, nominal, 5)
		require.NoError(t, err, "trial %d", trial)

		// THEN the sum is exact and no value fell below its truncation
		if !sumOf(got).Equal(total) {
			t.Fatalf("trial %d: sum %s != %s", trial, sumOf(got), total)
		}
		for i := range got {
			truncated := nominal[i].Truncate(5)
			if got[i].LessThan(truncated) {
				t.Errorf("trial %d: volume %d = %s below truncated %s", trial, i, got[i], truncated)
			}
			if got[i].Sub(truncated).GreaterThan(decimal.New(1, -5)) {
				t.Errorf("trial %d: volume %d moved by more than one increment", trial, i)
			}
		}
	}
}

func TestApportion_TotalWithExcessPrecision_ReturnsError(t *testing.T) {
	_, err := Apportion(decimal.RequireFromString("1.000001"), decs("1.000001"), 5)
	var dce *panel.DataConsistencyError
	assert.True(t, errors.As(err, &dce), "expected DataConsistencyError, got %v", err)
}

func TestApportion_DeficitLargerThanMaterialCount_ReturnsError(t *testing.T) {
	// nominal sum 0.5 cannot be stretched to 1.0 with two increments
	_, err := Apportion(decimal.RequireFromString("1.00000"), decs("0.25", "0.25"), 5)
	var dce *panel.DataConsistencyError
	assert.True(t, errors.As(err, &dce), "expected DataConsistencyError, got %v", err)
}

func TestApportion_NegativeNominal_ReturnsError(t *testing.T) {
	_, err := Apportion(decimal.RequireFromString("1.00000"), decs("1.1", "-0.1"), 5)
	var dce *panel.DataConsistencyError
	assert.True(t, errors.As(err, &dce), "expected DataConsistencyError, got %v", err)
}
