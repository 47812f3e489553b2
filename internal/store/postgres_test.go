package store

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against a real database: POSTGRES_TEST_DSN=postgres://... go test ./internal/store
func newPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	p := &Postgres{DB: pool}
	require.NoError(t, p.EnsureSchema(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE bill_items, bills, stock_deductions, vegetables`)
	require.NoError(t, err)
	require.NoError(t, p.Seed(ctx, DefaultSeed()))
	return p
}

func TestPostgres_Vegetables(t *testing.T) {
	ctx := context.Background()
	p := newPostgres(t)

	vegs, err := p.ListVegetables(ctx)
	require.NoError(t, err)
	assert.Len(t, vegs, len(DefaultSeed()))

	v, err := p.CreateVegetable(ctx, catalog.Fields{Name: "Okra", Category: "Vegetables", PricePerKg: d("60.5"), StockKg: d("4.25")})
	require.NoError(t, err)
	got, err := p.GetVegetable(ctx, v.ID)
	require.NoError(t, err)
	assert.True(t, got.PricePerKg.Equal(d("60.5")))

	require.NoError(t, p.DeleteVegetable(ctx, v.ID))
	_, err = p.GetVegetable(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgres_BillsAndStock(t *testing.T) {
	ctx := context.Background()
	p := newPostgres(t)

	b, err := p.CreateBill(ctx, billing.NewBill{
		CustomerName: "Priya",
		Items: []billing.BillItem{
			{VegetableID: "tomato", QuantityKg: d("1.25"), Subtotal: d("50")},
			{VegetableID: "onion", QuantityKg: d("2.56"), Subtotal: d("89.6")},
		},
		Total:             d("139.6"),
		PaymentScreenshot: "data:image/png;base64,AAAA",
	})
	require.NoError(t, err)

	got, err := p.GetBill(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.True(t, got.Items[1].QuantityKg.Equal(d("2.56")))
	assert.True(t, got.Total.Equal(d("139.6")))

	applied, err := p.DeductStock(ctx, b.ID, b.Items)
	require.NoError(t, err)
	assert.True(t, applied)
	applied, err = p.DeductStock(ctx, b.ID, b.Items)
	require.NoError(t, err)
	assert.False(t, applied)

	tomato, err := p.GetVegetable(ctx, "tomato")
	require.NoError(t, err)
	assert.True(t, tomato.StockKg.Equal(d("48.75")))
}

func TestPostgres_EmptyCatalogIsEmptySlice(t *testing.T) {
	ctx := context.Background()
	p := newPostgres(t)
	_, err := p.DB.Exec(ctx, `DELETE FROM vegetables`)
	require.NoError(t, err)

	vegs, err := p.ListVegetables(ctx)
	require.NoError(t, err)
	require.NotNil(t, vegs)
	raw, err := json.Marshal(vegs)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(raw))
}
