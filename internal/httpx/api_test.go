package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariefcatur/go-veggie-billing/internal/admin"
	"github.com/ariefcatur/go-veggie-billing/internal/auth"
	"github.com/ariefcatur/go-veggie-billing/internal/billing"
	"github.com/ariefcatur/go-veggie-billing/internal/cart"
	"github.com/ariefcatur/go-veggie-billing/internal/checkout"
	"github.com/ariefcatur/go-veggie-billing/internal/screenshot"
	"github.com/ariefcatur/go-veggie-billing/internal/session"
	"github.com/ariefcatur/go-veggie-billing/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const png = "\x89PNG\r\n\x1a\nfake-image-bytes"

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory(store.WithSeed(store.DefaultSeed()))
	dir, err := auth.NewStaticDirectory(auth.DefaultUsers)
	require.NoError(t, err)
	mgr := session.NewManager(dir, session.NewMemoryTokens(), mem, func() *checkout.Flow {
		return checkout.New(screenshot.NewEncoder(1024), mem)
	})

	r := NewRouter(zap.NewNop())
	Mount(r,
		&AuthHandler{Sessions: mgr},
		&ShopHandler{MaxUploadBytes: 1024},
		&AdminHandler{Admin: &admin.Service{Data: mem, LowStockKg: decimal.NewFromInt(5)}},
	)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mem
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body io.Reader, contentType string) (*http.Response, []byte) {
	c.t.Helper()
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, raw
}

func (c *client) json(method, path string, in any, out any) int {
	c.t.Helper()
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		require.NoError(c.t, err)
		body = bytes.NewReader(b)
	}
	resp, raw := c.do(method, path, body, "application/json")
	if out != nil && len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func login(t *testing.T, base, id, password string) *client {
	t.Helper()
	c := &client{t: t, base: base}
	var resp LoginResp
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/login", LoginReq{EmployeeID: id, Password: password}, &resp))
	c.token = resp.Token
	return c
}

func (c *client) upload(path, field string, content string) (int, []byte) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "receipt.png")
	require.NoError(c.t, err)
	_, _ = fw.Write([]byte(content))
	require.NoError(c.t, mw.Close())
	resp, raw := c.do(http.MethodPost, path, &buf, mw.FormDataContentType())
	return resp.StatusCode, raw
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginFailures(t *testing.T) {
	srv, _ := newTestServer(t)
	c := &client{t: t, base: srv.URL}

	var body map[string]string
	assert.Equal(t, http.StatusUnauthorized, c.json(http.MethodPost, "/login", LoginReq{EmployeeID: "admin", Password: "customer"}, &body))
	assert.Equal(t, "invalid employee id or password", body["error"])

	assert.Equal(t, http.StatusUnauthorized, c.json(http.MethodGet, "/cart", nil, nil))
	c.token = "bogus"
	assert.Equal(t, http.StatusUnauthorized, c.json(http.MethodGet, "/cart", nil, nil))
}

func TestCustomerCheckout(t *testing.T) {
	srv, mem := newTestServer(t)
	c := login(t, srv.URL, "customer", "customer")

	var listings []session.Listing
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/catalog?q=tom", nil, &listings))
	require.Len(t, listings, 1)

	var cats []string
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/categories", nil, &cats))
	assert.Equal(t, "All", cats[0])

	var view cart.View
	assert.Equal(t, http.StatusConflict, c.json(http.MethodPost, "/checkout/place", nil, nil), "empty cart")

	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/cart/tomato/add", nil, &view))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/cart/tomato/increment", nil, &view))
	require.Equal(t, http.StatusOK, c.json(http.MethodPut, "/cart/onion", map[string]any{"quantity": "2.555"}, &view))
	require.Len(t, view.Lines, 2)
	assert.True(t, view.Total.Equal(d("139.6")), view.Total.String())

	require.Equal(t, http.StatusOK, c.json(http.MethodPut, "/cart/onion", map[string]any{"quantity": "abc"}, &view))
	require.Len(t, view.Lines, 1, "unparseable quantity removes the line")
	assert.True(t, view.Total.Equal(d("50")))

	var state CheckoutResp
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/checkout/place", nil, &state))
	assert.Equal(t, checkout.StagePayment, state.Stage)

	code, _ := c.upload("/checkout/confirm", "screenshot", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code, "empty screenshot")

	code, raw := c.upload("/checkout/confirm", "screenshot", png)
	require.Equal(t, http.StatusCreated, code, string(raw))
	var bill billing.Bill
	require.NoError(t, json.Unmarshal(raw, &bill))
	assert.True(t, bill.Total.Equal(d("50")))
	assert.Equal(t, "Walk-in Customer", bill.CustomerName)
	assert.True(t, strings.HasPrefix(bill.PaymentScreenshot, "data:image/png;base64,"))

	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/checkout", nil, &state))
	assert.Equal(t, checkout.StageSuccess, state.Stage)
	require.NotNil(t, state.Bill)
	assert.Equal(t, bill.ID, state.Bill.ID)
	assert.Empty(t, state.Cart.Lines)

	stored, err := mem.GetBill(context.Background(), bill.ID)
	require.NoError(t, err)
	assert.True(t, stored.Items[0].QuantityKg.Equal(d("1.25")))

	assert.Equal(t, http.StatusNoContent, c.json(http.MethodPost, "/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, c.json(http.MethodGet, "/checkout", nil, nil))
}

func TestCheckoutStageMoves(t *testing.T) {
	srv, _ := newTestServer(t)
	c := login(t, srv.URL, "cust01", "customer")

	var state CheckoutResp
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/checkout/settings", nil, &state))
	assert.Equal(t, checkout.StageSettings, state.Stage)
	assert.Equal(t, http.StatusConflict, c.json(http.MethodPost, "/checkout/back", nil, nil))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/checkout/settings/close", nil, &state))
	assert.Equal(t, checkout.StageOrdering, state.Stage)

	code, _ := c.upload("/checkout/confirm", "screenshot", png)
	assert.Equal(t, http.StatusConflict, code, "confirm only from payment")
}

func TestConfirmNeedsScreenshotField(t *testing.T) {
	srv, _ := newTestServer(t)
	c := login(t, srv.URL, "customer", "customer")
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/cart/carrot/add", nil, nil))
	require.Equal(t, http.StatusOK, c.json(http.MethodPost, "/checkout/place", nil, nil))

	code, _ := c.upload("/checkout/confirm", "photo", png)
	assert.Equal(t, http.StatusBadRequest, code)

	var state CheckoutResp
	require.Equal(t, http.StatusOK, c.json(http.MethodGet, "/checkout", nil, &state))
	assert.Equal(t, checkout.StagePayment, state.Stage)
	assert.Len(t, state.Cart.Lines, 1)
}

func TestAdminRoutes(t *testing.T) {
	srv, mem := newTestServer(t)
	shopper := login(t, srv.URL, "customer", "customer")
	owner := login(t, srv.URL, "admin", "admin")

	assert.Equal(t, http.StatusForbidden, shopper.json(http.MethodGet, "/admin/bills", nil, nil))
	assert.Equal(t, http.StatusForbidden, owner.json(http.MethodGet, "/cart", nil, nil))

	var veg struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.Equal(t, http.StatusCreated, owner.json(http.MethodPost, "/admin/vegetables",
		map[string]any{"name": "Okra", "category": "Vegetables", "price_per_kg": "60", "stock_kg": "3"}, &veg))
	assert.Equal(t, "Okra", veg.Name)

	assert.Equal(t, http.StatusBadRequest, owner.json(http.MethodPost, "/admin/vegetables",
		map[string]any{"name": " ", "price_per_kg": "1"}, nil))
	assert.Equal(t, http.StatusOK, owner.json(http.MethodPut, "/admin/vegetables/"+veg.ID,
		map[string]any{"name": "Okra", "category": "Vegetables", "price_per_kg": "65", "stock_kg": "3"}, nil))
	assert.Equal(t, http.StatusNotFound, owner.json(http.MethodPut, "/admin/vegetables/missing",
		map[string]any{"name": "Okra", "price_per_kg": "65"}, nil))

	require.Equal(t, http.StatusOK, shopper.json(http.MethodPost, "/cart/"+veg.ID+"/add", nil, nil))
	require.Equal(t, http.StatusOK, shopper.json(http.MethodPost, "/checkout/place", nil, nil))
	code, raw := shopper.upload("/checkout/confirm", "screenshot", png)
	require.Equal(t, http.StatusCreated, code, string(raw))

	var bills []billing.Bill
	require.Equal(t, http.StatusOK, owner.json(http.MethodGet, "/admin/bills", nil, &bills))
	require.Len(t, bills, 1)
	assert.True(t, bills[0].Total.Equal(d("65")))

	var one billing.Bill
	require.Equal(t, http.StatusOK, owner.json(http.MethodGet, "/admin/bills/"+bills[0].ID, nil, &one))
	assert.Equal(t, bills[0].ID, one.ID)
	assert.Equal(t, http.StatusNotFound, owner.json(http.MethodGet, "/admin/bills/nope", nil, nil))

	var sum admin.Summary
	require.Equal(t, http.StatusOK, owner.json(http.MethodGet, "/admin/summary", nil, &sum))
	assert.Equal(t, 1, sum.BillCount)
	assert.True(t, sum.Revenue.Equal(d("65")))

	assert.Equal(t, http.StatusNoContent, owner.json(http.MethodDelete, "/admin/vegetables/"+veg.ID, nil, nil))
	_, err := mem.GetBill(context.Background(), bills[0].ID)
	assert.NoError(t, err, "bills outlive deleted vegetables")
}

func TestOversizedDecimalsAreRejectedCheaply(t *testing.T) {
	srv, _ := newTestServer(t)
	shopper := login(t, srv.URL, "customer", "customer")
	owner := login(t, srv.URL, "admin", "admin")

	var view cart.View
	require.Equal(t, http.StatusOK, shopper.json(http.MethodPost, "/cart/tomato/add", nil, &view))
	require.Equal(t, http.StatusOK, shopper.json(http.MethodPut, "/cart/tomato", map[string]any{"quantity": "2e2000000000"}, &view))
	assert.Empty(t, view.Lines)

	assert.Equal(t, http.StatusBadRequest, owner.json(http.MethodPost, "/admin/vegetables",
		map[string]any{"name": "Okra", "price_per_kg": "1e2000000000", "stock_kg": "3"}, nil))
}
