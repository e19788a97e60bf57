// Package orders defines the reconciled order record shared by the
// reconciler, the local cache, and the form auto-fill engine.
package orders

// Reconciled is the merged view of one order: fields scraped from the
// order table combined with fields fetched from the order API. Every
// field except OrderNumber is optional; reconciliation degrades to a
// partial record when the API lookup fails.
type Reconciled struct {
	OrderNumber        string   `json:"order_number"`
	OrderID            string   `json:"order_id,omitempty"`
	SalesRecordNumber  string   `json:"sales_record_number,omitempty"`
	CustomerName       string   `json:"customer_name,omitempty"`
	CustomerEmail      string   `json:"customer_email,omitempty"`
	Company            string   `json:"company,omitempty"`
	Street             string   `json:"street,omitempty"`
	City               string   `json:"city,omitempty"`
	State              string   `json:"state,omitempty"`
	Zip                string   `json:"zip,omitempty"`
	Country            string   `json:"country,omitempty"`
	ShippingRate       string   `json:"shipping_rate,omitempty"`
	QuantityToShip     string   `json:"quantity_to_ship,omitempty"`
	SKUs               []string `json:"skus,omitempty"`
	FormattedReference string   `json:"formatted_reference_number,omitempty"`
	DeliveryMethod     string   `json:"delivery_method,omitempty"`
	WeightOz           float64  `json:"weight_oz,omitempty"`
	LengthIn           float64  `json:"length_in,omitempty"`
	WidthIn            float64  `json:"width_in,omitempty"`
	HeightIn           float64  `json:"height_in,omitempty"`
	CustomerNote       string   `json:"customer_note,omitempty"`
	Status             string   `json:"status,omitempty"`
	Currency           string   `json:"currency,omitempty"`
	Total              float64  `json:"total,omitempty"`
}

// Set is the unit the cache persists: one flat dictionary keyed by
// order number, replaced wholesale on every refresh.
type Set map[string]Reconciled
