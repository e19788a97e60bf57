// Package extract scrapes order data out of the seller hub's rendered
// order table.
//
// The table layout is not under our control: extraction works by fixed
// column indexes (configurable) and a prioritized selector chain inside
// each cell, and every miss is a silent skip rather than an error.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// orderTableSelector chain: the hub's grid id first, then any table
const orderTableSelector = "#order-grid, table.order-grid, table"

// orderNumberSelector chain inside the order-number cell
const orderNumberSelector = "a.order-number, [data-order-number], span.order-number"

// Columns holds the zero-based table column indexes
type Columns struct {
	OrderNumber  int
	ShippingRate int
	Quantity     int
}

// Row is one order table row's scraped data. ShippingRate and
// QuantityToShip are empty when the cell was missing or blank; they are
// discarded once merged into a reconciled record.
type Row struct {
	OrderNumber    string
	ShippingRate   string
	QuantityToShip string
}

// minCells returns the column count a row needs before any cell lookup
func (c Columns) minCells() int {
	min := c.OrderNumber
	if c.ShippingRate > min {
		min = c.ShippingRate
	}
	if c.Quantity > min {
		min = c.Quantity
	}
	return min + 1
}

// OrderNumberFromRow returns the order number scraped from one table
// row, or "" when the row cannot be processed (header row, too few
// columns, empty cell). Callers must skip "" rows, never fail on them.
func OrderNumberFromRow(row *goquery.Selection, cols Columns) string {
	if isHeaderRow(row) {
		return ""
	}

	cells := row.Find("td")
	if cells.Length() < cols.minCells() {
		return ""
	}

	return cellText(cells.Eq(cols.OrderNumber), orderNumberSelector)
}

// ScanTable extracts every processable row from the first order table
// in the document. Rows without an order number are excluded entirely.
// Duplicate order numbers are not validated; later rows win downstream.
func ScanTable(doc *goquery.Document, cols Columns) []Row {
	table := doc.Find(orderTableSelector).First()
	if table.Length() == 0 {
		return nil
	}

	var rows []Row
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		number := OrderNumberFromRow(tr, cols)
		if number == "" {
			return
		}

		cells := tr.Find("td")
		rows = append(rows, Row{
			OrderNumber:    number,
			ShippingRate:   cellText(cells.Eq(cols.ShippingRate), ""),
			QuantityToShip: cellText(cells.Eq(cols.Quantity), ""),
		})
	})

	return rows
}

// isHeaderRow detects header rows by the presence of header-role cells
func isHeaderRow(row *goquery.Selection) bool {
	if row.Find("th").Length() > 0 {
		return true
	}
	return row.Find(`[role="columnheader"]`).Length() > 0
}

// cellText applies the selector chain, falling back to the cell's own
// trimmed text when no selector matches.
func cellText(cell *goquery.Selection, selector string) string {
	if cell.Length() == 0 {
		return ""
	}

	if selector != "" {
		if target := cell.Find(selector).First(); target.Length() > 0 {
			if text := strings.TrimSpace(target.Text()); text != "" {
				return text
			}
		}
	}

	return strings.TrimSpace(cell.Text())
}
