// Package reconcile merges scraped order-table rows with API order
// records into the reconciled set the cache persists.
//
// The join key is the display-facing order number exactly as the table
// renders it. Any drift between that string and the API's number field
// (whitespace, casing, renamed fields) silently produces an unmatched
// order; the envelope probing in the vendor package is the only defense
// carried here.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sellertools/labelassist/internal/extract"
	"github.com/sellertools/labelassist/internal/orders"
	"github.com/sellertools/labelassist/internal/vendor"
)

// API is the slice of the order API the reconciler needs. Satisfied by
// the direct vendor client and by the relay-backed adapter.
type API interface {
	ListOrders(ctx context.Context, page, pageSize int, status string) ([]vendor.Order, error)
}

// Reconciler builds reconciled sets from table scans
type Reconciler struct {
	api      API
	pageSize int
	status   string
	logger   *slog.Logger
}

// New creates a reconciler fetching one page of pageSize orders
// filtered by status.
func New(api API, pageSize int, status string, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	return &Reconciler{
		api:      api,
		pageSize: pageSize,
		status:   status,
		logger:   logger,
	}
}

// Refresh resolves the scanned rows against the API and returns the
// merged set. A fetch error aborts the whole refresh; no partial set
// is returned, so the caller leaves any previous cache untouched.
// Rows that carry any scraped data are never dropped, even unmatched.
func (r *Reconciler) Refresh(ctx context.Context, rows []extract.Row) (orders.Set, error) {
	fetched, err := r.api.ListOrders(ctx, 1, r.pageSize, r.status)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}

	byNumber := make(map[string]vendor.Order, len(fetched))
	for _, o := range fetched {
		byNumber[o.Number] = o
	}

	r.logger.Debug("Reconciling",
		"scanned_rows", len(rows),
		"api_orders", len(fetched),
	)

	set := orders.Set{}
	matched := 0

	for _, row := range rows {
		if row.OrderNumber == "" {
			continue
		}

		rec := orders.Reconciled{
			OrderNumber:    row.OrderNumber,
			ShippingRate:   row.ShippingRate,
			QuantityToShip: row.QuantityToShip,
		}

		o, ok := byNumber[row.OrderNumber]
		if ok {
			mergeOrder(&rec, o, row)
			matched++
		} else if row.ShippingRate == "" && row.QuantityToShip == "" {
			// Nothing scraped and nothing fetched: no data to keep
			r.logger.Debug("No data for order", "order_number", row.OrderNumber)
			continue
		} else {
			r.logger.Debug("No API match, keeping partial record", "order_number", row.OrderNumber)
		}

		set[row.OrderNumber] = rec
	}

	r.logger.Info("Reconciliation complete",
		"orders", len(set),
		"matched", matched,
		"partial", len(set)-matched,
	)

	return set, nil
}

// mergeOrder copies API fields into the reconciled record
func mergeOrder(rec *orders.Reconciled, o vendor.Order, row extract.Row) {
	rec.OrderID = o.ID
	rec.SalesRecordNumber = o.SalesRecordNumber
	rec.CustomerName = o.Customer.FullName
	rec.CustomerEmail = o.Customer.Email
	rec.Company = o.Customer.Company
	rec.Street = o.DeliverTo.Street
	rec.City = o.DeliverTo.City
	rec.State = o.DeliverTo.State
	rec.Zip = o.DeliverTo.Zip
	rec.Country = o.DeliverTo.Country
	rec.DeliveryMethod = o.DeliveryMethod
	rec.Status = o.Status
	rec.Currency = o.Currency
	rec.Total = o.Total
	rec.CustomerNote = o.CustomerNote

	rec.SKUs = skuList(o.LineItems)
	rec.FormattedReference = FormatReference(referenceQuantity(row.QuantityToShip, o.LineItems), rec.SKUs)

	// Package measurements come from the first allocation, when present
	if len(o.Allocations) > 0 {
		a := o.Allocations[0]
		rec.WeightOz = a.WeightOz
		rec.LengthIn = a.LengthIn
		rec.WidthIn = a.WidthIn
		rec.HeightIn = a.HeightIn
	}
}

// skuList collects the non-empty SKU codes from line items
func skuList(items []vendor.LineItem) []string {
	var skus []string
	for _, item := range items {
		if item.SKU != "" {
			skus = append(skus, item.SKU)
		}
	}
	return skus
}

// referenceQuantity prefers the scraped ship quantity; when the table
// did not render one, the line-item quantities are summed instead.
func referenceQuantity(scraped string, items []vendor.LineItem) string {
	if scraped != "" {
		return scraped
	}

	total := 0
	for _, item := range items {
		total += item.Quantity
	}
	if total <= 0 {
		total = 1
	}
	return strconv.Itoa(total)
}

// FormatReference renders the "<quantity> x <sku1>, <sku2>" reference
// written into the carrier form. Empty when there are no SKUs.
func FormatReference(quantity string, skus []string) string {
	if len(skus) == 0 {
		return ""
	}
	return fmt.Sprintf("%s x %s", quantity, strings.Join(skus, ", "))
}
