package pricing

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func requireEqual(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s=%s want %s", name, got.StringFixed(2), want.StringFixed(2))
	}
}

func TestComputeTotals_Example(t *testing.T) {
	lines := []Line{
		{UnitPrice: d("100.00"), Quantity: 2},
		{UnitPrice: d("50.00"), Quantity: 1},
	}
	got := ComputeTotals(lines, d("0.18"))
	requireEqual(t, "subtotal", got.Subtotal, d("250.00"))
	requireEqual(t, "tax", got.Tax, d("45.00"))
	requireEqual(t, "total", got.Total, d("295.00"))
}

func TestComputeTotals_Empty(t *testing.T) {
	got := ComputeTotals(nil, d("0.5"))
	requireEqual(t, "total", got.Total, decimal.Zero)
}

func TestComputeTotals_RoundsHalfUp(t *testing.T) {
	// 0.125 per unit * 1 -> 0.13; tax 0.13 * 0.5 = 0.065 -> 0.07
	got := ComputeTotals([]Line{{UnitPrice: d("0.125"), Quantity: 1}}, d("0.5"))
	requireEqual(t, "subtotal", got.Subtotal, d("0.13"))
	requireEqual(t, "tax", got.Tax, d("0.07"))
	requireEqual(t, "total", got.Total, d("0.20"))
}

func TestComputeTotals_NoFloatDrift(t *testing.T) {
	lines := make([]Line, 0, 1000)
	for i := 0; i < 1000; i++ {
		lines = append(lines, Line{UnitPrice: d("0.10"), Quantity: 1})
	}
	got := ComputeTotals(lines, decimal.Zero)
	requireEqual(t, "subtotal", got.Subtotal, d("100.00"))
	requireEqual(t, "tax", got.Tax, decimal.Zero)
}

func TestComputeTotals_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	lines := make([]Line, 0, 25)
	for i := 0; i < 25; i++ {
		cents := rng.Int63n(100000)
		lines = append(lines, Line{UnitPrice: decimal.New(cents, -2), Quantity: 1 + rng.Intn(500)})
	}
	rate := d("0.0725")
	want := ComputeTotals(lines, rate)
	for i := 0; i < 20; i++ {
		shuffled := append([]Line(nil), lines...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		got := ComputeTotals(shuffled, rate)
		requireEqual(t, "subtotal", got.Subtotal, want.Subtotal)
		requireEqual(t, "tax", got.Tax, want.Tax)
		requireEqual(t, "total", got.Total, want.Total)
	}
}

func TestComputeTotals_IsDeterministic(t *testing.T) {
	lines := []Line{{UnitPrice: d("19.99"), Quantity: 3}, {UnitPrice: d("0.01"), Quantity: 7}}
	a := ComputeTotals(lines, d("0.2"))
	b := ComputeTotals(lines, d("0.2"))
	requireEqual(t, "total", a.Total, b.Total)
	requireEqual(t, "total", a.Total, d("72.05"))
}

type snapshot struct {
	price decimal.Decimal
	qty   int
}

func TestLinesOf(t *testing.T) {
	items := []snapshot{{d("2.50"), 4}, {d("1.00"), 1}}
	lines := LinesOf(items, func(s snapshot) decimal.Decimal { return s.price }, func(s snapshot) int { return s.qty })
	if len(lines) != 2 || lines[0].Quantity != 4 {
		t.Fatalf("unexpected lines %+v", lines)
	}
	requireEqual(t, "line total", LineTotal(lines[0]), d("10.00"))
}
