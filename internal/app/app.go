// Package app wires the pipeline together: scan the order page,
// reconcile against the hub API via the relay, cache the result, and
// fill the carrier form from the cache.
package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/sellertools/labelassist/internal/autofill"
	"github.com/sellertools/labelassist/internal/bus"
	"github.com/sellertools/labelassist/internal/cache"
	"github.com/sellertools/labelassist/internal/config"
	"github.com/sellertools/labelassist/internal/extract"
	"github.com/sellertools/labelassist/internal/reconcile"
	"github.com/sellertools/labelassist/internal/vendor"
)

// ErrAuthMissing means no API key is configured. Operations that need
// the hub API abort before any network traffic.
var ErrAuthMissing = errors.New("no API key configured: set vendor.api_key in config.yaml or VENDOR_API_KEY")

// App owns the orchestration of all user-facing operations
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *cache.Store
	api    hubAPI
	recon  *reconcile.Reconciler

	// newSession is swappable for tests
	newSession func() autofill.FormSession
}

// RefreshSummary reports what one refresh accomplished
type RefreshSummary struct {
	RowsScanned  int
	OrdersCached int
}

// New builds the app from config. The cache store is owned by the app
// and closed by Close.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	apiKey := cfg.GetAPIKey(cfg.Vendor.APIKey, "VENDOR_API_KEY")
	if apiKey == "" {
		return nil, ErrAuthMissing
	}

	store, err := cache.Open(cfg.Cache.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	busClient := bus.NewClient(cfg.Relay.URL, cfg.Relay.Timeout(), logger)
	direct := vendor.NewClient(cfg.Vendor.BaseURL, apiKey, cfg.Vendor.HTTPTimeout(), logger)

	api := &failoverAPI{
		primary:  &relayAPI{bus: busClient, apiKey: apiKey},
		fallback: direct,
		logger:   logger,
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
		api:    api,
		recon:  reconcile.New(api, cfg.Vendor.PageSize, cfg.Vendor.StatusFilter, logger),
	}
	a.newSession = func() autofill.FormSession {
		return autofill.NewHTTPSession(cfg.Carrier.FormURL, cfg.Vendor.HTTPTimeout(), logger)
	}

	return a, nil
}

// Close releases the app's resources
func (a *App) Close() error {
	return a.store.Close()
}

// Refresh scans the order page, reconciles against the API, and
// replaces the cache wholesale. On any reconciliation error the
// previous cache is left untouched.
func (a *App) Refresh(ctx context.Context, page io.Reader) (*RefreshSummary, error) {
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return nil, fmt.Errorf("failed to parse order page: %w", err)
	}

	if kind := extract.ClassifyPage(doc, a.cfg.Vendor.OrdersPageURL); kind != extract.PageOrderManager {
		return nil, fmt.Errorf("this does not look like the order manager page (classified as %s)", kind)
	}

	cols := extract.Columns{
		OrderNumber:  a.cfg.Columns.OrderNumber,
		ShippingRate: a.cfg.Columns.ShippingRate,
		Quantity:     a.cfg.Columns.Quantity,
	}

	rows := extract.ScanTable(doc, cols)
	a.logger.Info("Scanned order table", "rows", len(rows))

	set, err := a.recon.Refresh(ctx, rows)
	if err != nil {
		return nil, err
	}

	if err := a.store.SetAll(set); err != nil {
		return nil, fmt.Errorf("failed to write cache: %w", err)
	}

	return &RefreshSummary{RowsScanned: len(rows), OrdersCached: len(set)}, nil
}

// FetchOrderPage downloads the configured order page for Refresh
func (a *App) FetchOrderPage(ctx context.Context) (io.Reader, error) {
	if a.cfg.Vendor.OrdersPageURL == "" {
		return nil, errors.New("no orders_page_url configured; pass a saved page file instead")
	}

	resp, err := resty.New().
		SetTimeout(a.cfg.Vendor.HTTPTimeout()).
		SetRetryCount(0).
		R().
		SetContext(ctx).
		Get(a.cfg.Vendor.OrdersPageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch order page: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("order page returned %d", resp.StatusCode())
	}

	return bytes.NewReader(resp.Body()), nil
}

// Fill populates the carrier form for one cached order
func (a *App) Fill(ctx context.Context, orderNumber string) error {
	rec, ok := a.store.Get(orderNumber)
	if !ok {
		return fmt.Errorf("no cached data for order %s; run refresh on the order manager page first", orderNumber)
	}

	engine := autofill.NewEngine(
		a.newSession(),
		a.cfg.Carrier.PollAttempts,
		a.cfg.Carrier.PollDelay(),
		a.logger,
	)

	return engine.Fill(ctx, *rec)
}

// TestConnection verifies the relay and API are reachable
func (a *App) TestConnection(ctx context.Context) error {
	return a.api.TestConnection(ctx)
}

// AttachNote writes a free-text customer note onto an order
func (a *App) AttachNote(ctx context.Context, orderID, note string) error {
	return a.api.UpdateOrderNote(ctx, orderID, note)
}
