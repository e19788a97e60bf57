package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageKind classifies which vendor page a document is
type PageKind int

const (
	PageUnknown PageKind = iota
	PageOrderManager
	PageCarrierForm
)

func (k PageKind) String() string {
	switch k {
	case PageOrderManager:
		return "order-manager"
	case PageCarrierForm:
		return "carrier-form"
	default:
		return "unknown"
	}
}

// ClassifyPage decides which page a document represents. Structural
// signals take precedence over the URL: a page that renders the order
// grid is the order manager no matter what path served it.
func ClassifyPage(doc *goquery.Document, pageURL string) PageKind {
	if doc != nil {
		if doc.Find("#order-grid, table.order-grid").Length() > 0 {
			return PageOrderManager
		}
		if doc.Find("#ship-to-first-name, form#create-label").Length() > 0 {
			return PageCarrierForm
		}
	}

	lower := strings.ToLower(pageURL)
	switch {
	case strings.Contains(lower, "/orders"):
		return PageOrderManager
	case strings.Contains(lower, "/ship"):
		return PageCarrierForm
	default:
		return PageUnknown
	}
}
