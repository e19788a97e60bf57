package autofill

import "context"

// Carrier form field identifiers. The carrier page is not ours; these
// are the ids its form has shipped with and they break when it redesigns.
const (
	FieldFirstName   = "ship-to-first-name"
	FieldLastName    = "ship-to-last-name"
	FieldCompany     = "ship-to-company"
	FieldStreet1     = "ship-to-address1"
	FieldStreet2     = "ship-to-address2"
	FieldCity        = "ship-to-city"
	FieldState       = "ship-to-state"
	FieldZip         = "ship-to-zip"
	FieldReference1  = "label-reference1"
	FieldReference2  = "label-reference2"
	FieldPackageType = "package-type"
	FieldWeightLbs   = "package-weight-lbs"
	FieldLength      = "package-length"
	FieldWidth       = "package-width"
	FieldHeight      = "package-height"
	ButtonGetRates   = "get-rates"
)

// Suggestion is one entry in the carrier's address-suggestion dropdown
type Suggestion struct {
	Text       string
	City       string
	State      string
	PostalCode string
}

// FormSession is the engine's view of the carrier form. Implementations
// own how a "field write" actually lands: the HTTP session accumulates
// values for a form post, a browser-driving session would set the DOM
// property and dispatch input/change/blur so the page's own scripts
// observe the write.
type FormSession interface {
	// Refresh re-reads the page state; the form renders dynamically,
	// so field availability changes between calls.
	Refresh(ctx context.Context) error

	// FieldVisible reports whether a field exists and is interactable
	FieldVisible(id string) bool

	// SetField writes a value into a text field
	SetField(id, value string) error

	// SelectOption picks an option in a dropdown by value or label
	SelectOption(id, value string) error

	// Click activates a button
	Click(ctx context.Context, id string) error

	// Suggestions returns the currently offered address suggestions
	Suggestions() []Suggestion

	// ChooseSuggestion accepts a suggestion, which populates
	// city/state/zip the way the carrier page itself would.
	ChooseSuggestion(index int) error
}
