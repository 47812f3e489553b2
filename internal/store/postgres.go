package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/catalog"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Numeric columns travel as text so no precision is lost on the way in or out.
const schema = `
CREATE TABLE IF NOT EXISTS vegetables (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	category     TEXT NOT NULL DEFAULT '',
	icon         TEXT NOT NULL DEFAULT '',
	price_per_kg NUMERIC NOT NULL CHECK (price_per_kg >= 0),
	stock_kg     NUMERIC NOT NULL CHECK (stock_kg >= 0),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS bills (
	id                 TEXT PRIMARY KEY,
	created_at         TIMESTAMPTZ NOT NULL,
	customer_name      TEXT NOT NULL,
	total              NUMERIC NOT NULL,
	payment_screenshot TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS bill_items (
	bill_id      TEXT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
	line         INT NOT NULL,
	vegetable_id TEXT NOT NULL,
	quantity_kg  NUMERIC NOT NULL,
	subtotal     NUMERIC NOT NULL,
	PRIMARY KEY (bill_id, line)
);
CREATE TABLE IF NOT EXISTS stock_deductions (
	bill_id    TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

type Postgres struct{ DB *pgxpool.Pool }

func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.DB.Exec(ctx, schema)
	return err
}

// Seed inserts vegetables that are not already present.
func (p *Postgres) Seed(ctx context.Context, vegs []catalog.Vegetable) error {
	for _, v := range vegs {
		if _, err := p.DB.Exec(ctx, `
			INSERT INTO vegetables(id, name, category, icon, price_per_kg, stock_kg)
			VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric)
			ON CONFLICT (id) DO NOTHING`,
			v.ID, v.Name, v.Category, v.Icon, v.PricePerKg.String(), v.StockKg.String()); err != nil {
			return err
		}
	}
	return nil
}

const vegetableCols = `id, name, category, icon, price_per_kg::text, stock_kg::text`

func scanVegetable(row pgx.Row) (catalog.Vegetable, error) {
	var v catalog.Vegetable
	var price, stock string
	if err := row.Scan(&v.ID, &v.Name, &v.Category, &v.Icon, &price, &stock); err != nil {
		return v, err
	}
	var err error
	if v.PricePerKg, err = decimal.NewFromString(price); err != nil {
		return v, fmt.Errorf("price_per_kg of %s: %w", v.ID, err)
	}
	if v.StockKg, err = decimal.NewFromString(stock); err != nil {
		return v, fmt.Errorf("stock_kg of %s: %w", v.ID, err)
	}
	return v, nil
}

func (p *Postgres) ListVegetables(ctx context.Context) ([]catalog.Vegetable, error) {
	rows, err := p.DB.Query(ctx, `SELECT `+vegetableCols+` FROM vegetables ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []catalog.Vegetable{}
	for rows.Next() {
		v, err := scanVegetable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	catalog.SortByName(out)
	return out, nil
}

func (p *Postgres) GetVegetable(ctx context.Context, id string) (catalog.Vegetable, error) {
	v, err := scanVegetable(p.DB.QueryRow(ctx, `SELECT `+vegetableCols+` FROM vegetables WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Vegetable{}, fmt.Errorf("vegetable %s: %w", id, ErrNotFound)
	}
	return v, err
}

func (p *Postgres) CreateVegetable(ctx context.Context, f catalog.Fields) (catalog.Vegetable, error) {
	if err := f.Validate(); err != nil {
		return catalog.Vegetable{}, err
	}
	v := catalog.Vegetable{ID: uuid.NewString(), Fields: f}
	_, err := p.DB.Exec(ctx, `
		INSERT INTO vegetables(id, name, category, icon, price_per_kg, stock_kg)
		VALUES ($1,$2,$3,$4,$5::numeric,$6::numeric)`,
		v.ID, v.Name, v.Category, v.Icon, v.PricePerKg.String(), v.StockKg.String())
	if err != nil {
		return catalog.Vegetable{}, err
	}
	return v, nil
}

func (p *Postgres) UpdateVegetable(ctx context.Context, v catalog.Vegetable) error {
	if err := v.Validate(); err != nil {
		return err
	}
	ct, err := p.DB.Exec(ctx, `
		UPDATE vegetables
		SET name=$2, category=$3, icon=$4, price_per_kg=$5::numeric, stock_kg=$6::numeric, updated_at=now()
		WHERE id=$1`,
		v.ID, v.Name, v.Category, v.Icon, v.PricePerKg.String(), v.StockKg.String())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("vegetable %s: %w", v.ID, ErrNotFound)
	}
	return nil
}

// DeleteVegetable leaves bill_items alone; they carry their own snapshot.
func (p *Postgres) DeleteVegetable(ctx context.Context, id string) error {
	ct, err := p.DB.Exec(ctx, `DELETE FROM vegetables WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("vegetable %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateBill writes the bill and its items in one transaction.
func (p *Postgres) CreateBill(ctx context.Context, req billing.NewBill) (billing.Bill, error) {
	if err := req.Validate(); err != nil {
		return billing.Bill{}, err
	}
	b := req.Finalize(uuid.NewString(), time.Now().UTC().Truncate(time.Microsecond))

	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return billing.Bill{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO bills(id, created_at, customer_name, total, payment_screenshot)
		VALUES ($1,$2,$3,$4::numeric,$5)`,
		b.ID, b.Date, b.CustomerName, b.Total.String(), b.PaymentScreenshot); err != nil {
		return billing.Bill{}, err
	}
	for i, it := range b.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO bill_items(bill_id, line, vegetable_id, quantity_kg, subtotal)
			VALUES ($1,$2,$3,$4::numeric,$5::numeric)`,
			b.ID, i, it.VegetableID, it.QuantityKg.String(), it.Subtotal.String()); err != nil {
			return billing.Bill{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return billing.Bill{}, err
	}
	return b, nil
}

// ListBills returns newest first.
func (p *Postgres) ListBills(ctx context.Context) ([]billing.Bill, error) {
	rows, err := p.DB.Query(ctx, `
		SELECT id, created_at, customer_name, total::text, payment_screenshot
		FROM bills ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := []billing.Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return bills, nil
	}

	ids := make([]string, 0, len(bills))
	for _, b := range bills {
		ids = append(ids, b.ID)
	}
	items, err := p.billItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].Items = items[bills[i].ID]
	}
	return bills, nil
}

func (p *Postgres) GetBill(ctx context.Context, id string) (billing.Bill, error) {
	b, err := scanBill(p.DB.QueryRow(ctx, `
		SELECT id, created_at, customer_name, total::text, payment_screenshot
		FROM bills WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return billing.Bill{}, fmt.Errorf("bill %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return billing.Bill{}, err
	}
	items, err := p.billItems(ctx, []string{id})
	if err != nil {
		return billing.Bill{}, err
	}
	b.Items = items[id]
	return b, nil
}

func scanBill(row pgx.Row) (billing.Bill, error) {
	var b billing.Bill
	var total string
	if err := row.Scan(&b.ID, &b.Date, &b.CustomerName, &total, &b.PaymentScreenshot); err != nil {
		return b, err
	}
	t, err := decimal.NewFromString(total)
	if err != nil {
		return b, fmt.Errorf("total of bill %s: %w", b.ID, err)
	}
	b.Total = t
	b.Date = b.Date.UTC()
	return b, nil
}

func (p *Postgres) billItems(ctx context.Context, billIDs []string) (map[string][]billing.BillItem, error) {
	rows, err := p.DB.Query(ctx, `
		SELECT bill_id, vegetable_id, quantity_kg::text, subtotal::text
		FROM bill_items WHERE bill_id = ANY($1) ORDER BY bill_id, line`, billIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]billing.BillItem, len(billIDs))
	for rows.Next() {
		var billID, qty, sub string
		var it billing.BillItem
		if err := rows.Scan(&billID, &it.VegetableID, &qty, &sub); err != nil {
			return nil, err
		}
		if it.QuantityKg, err = decimal.NewFromString(qty); err != nil {
			return nil, err
		}
		if it.Subtotal, err = decimal.NewFromString(sub); err != nil {
			return nil, err
		}
		out[billID] = append(out[billID], it)
	}
	return out, rows.Err()
}

// DeductStock records the bill in stock_deductions first; a conflict means the
// bill was applied before and nothing is changed.
func (p *Postgres) DeductStock(ctx context.Context, billID string, items []billing.BillItem) (bool, error) {
	tx, err := p.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `INSERT INTO stock_deductions(bill_id) VALUES ($1) ON CONFLICT (bill_id) DO NOTHING`, billID)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			UPDATE vegetables
			SET stock_kg = GREATEST(stock_kg - $2::numeric, 0), updated_at = now()
			WHERE id=$1`, it.VegetableID, it.QuantityKg.String()); err != nil {
			return false, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}
