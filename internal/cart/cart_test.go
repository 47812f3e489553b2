package cart

import (
	"math"
	"testing"

	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCatalog() catalog.Index {
	return catalog.NewIndex([]catalog.Vegetable{
		{ID: "tomato", Fields: catalog.Fields{Name: "Tomato", Category: "Vegetables", Icon: "🍅", PricePerKg: d("40"), StockKg: d("5")}},
		{ID: "spinach", Fields: catalog.Fields{Name: "spinach", Category: catalog.GreensCategory, Icon: "🥬", PricePerKg: d("30"), StockKg: d("1.5")}},
		{ID: "carrot", Fields: catalog.Fields{Name: "Carrot", Category: "Roots", Icon: "🥕", PricePerKg: d("33.33"), StockKg: d("10")}},
		{ID: "okra", Fields: catalog.Fields{Name: "Okra", Category: "Vegetables", PricePerKg: d("60"), StockKg: d("2.499")}},
	})
}

func TestSetQuantity_ClampAndRound(t *testing.T) {
	cat := testCatalog()
	tests := []struct {
		name    string
		id      string
		qty     string
		want    string
		present bool
	}{
		{"within stock", "tomato", "2", "2", true},
		{"rounds to 2 places", "tomato", "1.236", "1.24", true},
		{"clamps above stock", "tomato", "10", "5", true},
		{"exactly stock", "tomato", "5", "5", true},
		{"zero removes", "tomato", "0", "", false},
		{"negative removes", "tomato", "-3", "", false},
		{"rounds to zero removes", "tomato", "0.004", "", false},
		{"stock with extra precision floors", "okra", "9", "2.49", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			c.SetQuantity(cat, tt.id, d("1"))
			c.SetQuantity(cat, tt.id, d(tt.qty))

			q, ok := c.Entries()[tt.id]
			require.Equal(t, tt.present, ok)
			if ok {
				assert.True(t, q.Equal(d(tt.want)), "got %s want %s", q, tt.want)
				assert.True(t, q.IsPositive())
			}
		})
	}
}

func TestSetQuantity_UnknownIDIsNoop(t *testing.T) {
	c := New()
	c.SetQuantity(testCatalog(), "tomato", d("2"))
	before := c.Entries()

	c.SetQuantity(testCatalog(), "dragonfruit", d("3"))

	assert.Equal(t, before, c.Entries())
}

func TestSetQuantity_Idempotent(t *testing.T) {
	cat := testCatalog()
	for _, q := range []string{"0", "0.333", "2", "7", "-1"} {
		once := New()
		once.SetQuantity(cat, "tomato", d(q))
		twice := New()
		twice.SetQuantity(cat, "tomato", d(q))
		twice.SetQuantity(cat, "tomato", d(q))
		assert.Equal(t, once.Entries(), twice.Entries(), q)
	}
}

func TestAddIncrementDecrement(t *testing.T) {
	cat := testCatalog()
	c := New()

	c.Add(cat, "spinach")
	assert.Equal(t, "0.25", c.Quantity("spinach").String())
	c.Add(cat, "tomato")
	assert.Equal(t, "1", c.Quantity("tomato").String())

	c.Increment(cat, "spinach")
	assert.Equal(t, "0.5", c.Quantity("spinach").String())

	for i := 0; i < 10; i++ {
		c.Increment(cat, "spinach")
	}
	assert.Equal(t, "1.5", c.Quantity("spinach").String(), "increments clamp at stock")

	c.SetQuantity(cat, "spinach", d("0.25"))
	c.Decrement(cat, "spinach")
	c.Decrement(cat, "spinach")
	assert.True(t, c.Quantity("spinach").IsZero())
	assert.Equal(t, 1, c.Len())

	c.Add(cat, "nope")
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestParseQuantity(t *testing.T) {
	tests := map[string]string{
		"2":     "2",
		" 1.5 ": "1.5",
		"abc":   "0",
		"":      "0",
		"NaN":   "0",
		"Inf":   "0",
		"-2":    "-2",
		"1e3":   "1e3",

		"2e2000000000":  "0",
		"1e-2000000000": "0",
		"1e20000000":    "0",
	}
	for in, want := range tests {
		assert.True(t, ParseQuantity(in).Equal(d(want)), "%q", in)
	}

	assert.True(t, QuantityFromFloat(math.NaN()).IsZero())
	assert.True(t, QuantityFromFloat(math.Inf(1)).IsZero())
	assert.True(t, QuantityFromFloat(0.75).Equal(d("0.75")))
}

func TestNaNInputRemovesEntry(t *testing.T) {
	cat := testCatalog()
	c := New()
	c.SetQuantity(cat, "tomato", d("2"))

	c.SetQuantity(cat, "tomato", ParseQuantity("not a number"))

	assert.Equal(t, 0, c.Len())
}

func TestHugeExponentRemovesEntry(t *testing.T) {
	cat := testCatalog()
	c := New()

	for _, in := range []string{"2e2000000000", "-2e2000000000", "1e-2000000000"} {
		c.SetQuantity(cat, "tomato", d("2"))
		c.SetQuantity(cat, "tomato", decimal.RequireFromString(in))
		assert.Equal(t, 0, c.Len(), in)
	}

	c.SetQuantity(cat, "tomato", ParseQuantity("1e3"))
	assert.True(t, c.Quantity("tomato").Equal(d("5")), "large but sane input still clamps to stock")
}
