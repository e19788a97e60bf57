package app

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellertools/labelassist/internal/autofill"
	"github.com/sellertools/labelassist/internal/cache"
	"github.com/sellertools/labelassist/internal/config"
	"github.com/sellertools/labelassist/internal/orders"
	"github.com/sellertools/labelassist/internal/reconcile"
	"github.com/sellertools/labelassist/internal/vendor"
)

// stubAPI lets tests script the hub API without a relay or network
type stubAPI struct {
	orders    []vendor.Order
	listErr   error
	testErr   error
	noteErr   error
	notedID   string
	notedText string
}

func (s *stubAPI) ListOrders(ctx context.Context, page, pageSize int, status string) ([]vendor.Order, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.orders, nil
}

func (s *stubAPI) TestConnection(ctx context.Context) error { return s.testErr }

func (s *stubAPI) UpdateOrderNote(ctx context.Context, id, note string) error {
	s.notedID = id
	s.notedText = note
	return s.noteErr
}

// stubSession accepts every write so Fill tests exercise the app
// wiring rather than the form mechanics.
type stubSession struct {
	fields     map[string]string
	selections map[string]string
	clicked    []string
}

func newStubSession() *stubSession {
	return &stubSession{
		fields:     make(map[string]string),
		selections: make(map[string]string),
	}
}

func (s *stubSession) Refresh(ctx context.Context) error { return nil }

func (s *stubSession) FieldVisible(id string) bool { return true }

func (s *stubSession) SetField(id, value string) error {
	s.fields[id] = value
	return nil
}

func (s *stubSession) SelectOption(id, value string) error {
	s.selections[id] = value
	return nil
}

func (s *stubSession) Click(ctx context.Context, id string) error {
	s.clicked = append(s.clicked, id)
	return nil
}

func (s *stubSession) Suggestions() []autofill.Suggestion { return nil }

func (s *stubSession) ChooseSuggestion(index int) error { return nil }

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Vendor: config.VendorConfig{
			BaseURL:      "https://hub.example.com/api",
			APIKey:       "test-key",
			PageSize:     100,
			StatusFilter: "awaiting_shipment",
		},
		Relay: config.RelayConfig{
			URL:            "ws://127.0.0.1:8377/ws",
			TimeoutSeconds: 1,
		},
		Carrier: config.CarrierConfig{
			FormURL:      "https://ship.example.com/create-label",
			PollAttempts: 1,
			PollDelayMs:  1,
		},
		Columns: config.ColumnsConfig{
			OrderNumber:  0,
			ShippingRate: 1,
			Quantity:     2,
		},
		Cache: config.CacheConfig{
			DatabasePath: filepath.Join(t.TempDir(), "cache.db"),
		},
	}
}

func testApp(t *testing.T, api hubAPI) *App {
	t.Helper()

	cfg := testConfig(t)
	logger := slog.Default()

	store, err := cache.Open(cfg.Cache.DatabasePath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		api:    api,
		recon:  reconcile.New(api, cfg.Vendor.PageSize, cfg.Vendor.StatusFilter, logger),
	}
	a.newSession = func() autofill.FormSession { return newStubSession() }
	return a
}

const orderPage = `
<html><body>
<table id="order-grid">
  <tr><th>Order</th><th>Rate</th><th>Qty</th></tr>
  <tr><td><a class="order-number">ABC123</a></td><td>$5.99</td><td>2</td></tr>
  <tr><td><a class="order-number">DEF456</a></td><td>$12.40</td><td>1</td></tr>
</table>
</body></html>`

func TestRefresh_ScansReconcilesAndCaches(t *testing.T) {
	// Arrange
	api := &stubAPI{orders: []vendor.Order{
		{
			ID:     "o-1",
			Number: "ABC123",
			Customer: vendor.Customer{FullName: "Ada King Lovelace"},
			DeliverTo: vendor.Address{
				Street: "123 Main St", City: "Columbus", State: "OH", Zip: "43210",
			},
			LineItems: []vendor.LineItem{{SKU: "X1", Quantity: 2}},
		},
	}}
	a := testApp(t, api)

	// Act
	summary, err := a.Refresh(context.Background(), strings.NewReader(orderPage))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2, summary.RowsScanned)
	assert.Equal(t, 2, summary.OrdersCached)

	rec, ok := a.store.Get("ABC123")
	require.True(t, ok)
	assert.Equal(t, "Ada King Lovelace", rec.CustomerName)
	assert.Equal(t, "$5.99", rec.ShippingRate)

	// DEF456 had no API match but carried scraped data, so it stays as a partial
	partial, ok := a.store.Get("DEF456")
	require.True(t, ok)
	assert.Equal(t, "$12.40", partial.ShippingRate)
}

func TestRefresh_FailureLeavesCacheUntouched(t *testing.T) {
	// Arrange
	api := &stubAPI{listErr: errors.New("hub is down")}
	a := testApp(t, api)

	prior := orders.Set{"OLD1": {OrderNumber: "OLD1", CustomerName: "Kept Around"}}
	require.NoError(t, a.store.SetAll(prior))

	// Act
	_, err := a.Refresh(context.Background(), strings.NewReader(orderPage))

	// Assert
	require.Error(t, err)
	rec, ok := a.store.Get("OLD1")
	require.True(t, ok, "a failed refresh must not disturb the existing cache")
	assert.Equal(t, "Kept Around", rec.CustomerName)
}

func TestRefresh_RejectsNonOrderPage(t *testing.T) {
	a := testApp(t, &stubAPI{})

	carrierPage := `<html><body><form id="create-label"><input id="ship-to-first-name"></form></body></html>`
	_, err := a.Refresh(context.Background(), strings.NewReader(carrierPage))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "order manager")
}

func TestFill_CacheMissGivesGuidance(t *testing.T) {
	a := testApp(t, &stubAPI{})

	err := a.Fill(context.Background(), "MISSING")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run refresh")
}

func TestFill_PopulatesFormFromCache(t *testing.T) {
	// Arrange
	a := testApp(t, &stubAPI{})
	session := newStubSession()
	a.newSession = func() autofill.FormSession { return session }

	require.NoError(t, a.store.SetAll(orders.Set{
		"ABC123": {
			OrderNumber:        "ABC123",
			CustomerName:       "Ada Lovelace",
			Street:             "123 Main St Apt 4",
			City:               "Columbus",
			State:              "OH",
			Zip:                "43210-1234",
			WeightOz:           48,
			FormattedReference: "2 x X1",
		},
	}))

	// Act
	err := a.Fill(context.Background(), "ABC123")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "Ada", session.fields[autofill.FieldFirstName])
	assert.Equal(t, "Lovelace", session.fields[autofill.FieldLastName])
	assert.Equal(t, "43210", session.fields[autofill.FieldZip])
	assert.Equal(t, "3", session.fields[autofill.FieldWeightLbs])
	assert.Equal(t, "2 x X1", session.fields[autofill.FieldReference1])
	assert.Contains(t, session.clicked, autofill.ButtonGetRates)
}

func TestAttachNote_DelegatesToAPI(t *testing.T) {
	api := &stubAPI{}
	a := testApp(t, api)

	err := a.AttachNote(context.Background(), "o-1", "leave at back door")

	require.NoError(t, err)
	assert.Equal(t, "o-1", api.notedID)
	assert.Equal(t, "leave at back door", api.notedText)
}

func TestNew_RequiresAPIKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Vendor.APIKey = ""
	t.Setenv("VENDOR_API_KEY", "")

	_, err := New(cfg, slog.Default())

	assert.ErrorIs(t, err, ErrAuthMissing)
}
