// Package autofill drives the shipping carrier's label form from a
// reconciled order record.
//
// The engine is an explicit state machine rather than scattered "did we
// fill yet" flags: multiple triggers can request a fill, and only the
// first one past the Completed latch does any work. Individual field
// misses are logged and skipped; the fill succeeds if it runs to the
// end, regardless of how many fields were actually found.
package autofill

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/sellertools/labelassist/internal/orders"
	"github.com/sellertools/labelassist/internal/poll"
)

// ErrAbandoned means the required fields never became visible within
// the attempt budget. The engine does not retry past this.
var ErrAbandoned = errors.New("autofill: form fields never became ready")

// State is the engine's lifecycle position
type State int

const (
	StateIdle State = iota
	StateWaitingForFields
	StateFilling
	StateCompleted
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateWaitingForFields:
		return "waiting-for-fields"
	case StateFilling:
		return "filling"
	case StateCompleted:
		return "completed"
	case StateAbandoned:
		return "abandoned"
	default:
		return "idle"
	}
}

// requiredFields must all be visible before filling starts
var requiredFields = []string{FieldFirstName, FieldLastName, FieldCity}

// suggestionAttempts bounds the brief wait for the carrier's own
// address suggestions before falling back to manual city/state/zip.
const suggestionAttempts = 4

// Engine fills the carrier form once per page lifetime
type Engine struct {
	session  FormSession
	logger   *slog.Logger
	attempts int
	delay    time.Duration
	state    State
}

// NewEngine creates a fill engine polling for readiness up to attempts
// times with the given delay between checks.
func NewEngine(session FormSession, attempts int, delay time.Duration, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if attempts <= 0 {
		attempts = 20
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}

	return &Engine{
		session:  session,
		logger:   logger,
		attempts: attempts,
		delay:    delay,
		state:    StateIdle,
	}
}

// State returns the engine's current lifecycle state
func (e *Engine) State() State {
	return e.state
}

// Fill populates the carrier form from the record. A completed engine
// never fills again; re-triggering is a silent no-op.
func (e *Engine) Fill(ctx context.Context, rec orders.Reconciled) error {
	if e.state == StateCompleted {
		e.logger.Debug("Fill already completed, ignoring trigger", "order_number", rec.OrderNumber)
		return nil
	}

	e.state = StateWaitingForFields
	if err := e.waitForFields(ctx); err != nil {
		return err
	}

	e.state = StateFilling
	e.logger.Info("Filling carrier form", "order_number", rec.OrderNumber)

	e.fillRecipient(rec)
	e.fillAddress(ctx, rec)
	e.fillReferences(rec)
	e.fillPackage(rec)
	e.requestRates(ctx)

	e.state = StateCompleted
	e.logger.Info("Fill complete", "order_number", rec.OrderNumber)
	return nil
}

// waitForFields polls until the minimal required field set is visible.
// On exhaustion it logs which fields were and weren't available.
func (e *Engine) waitForFields(ctx context.Context) error {
	err := poll.Wait(ctx, e.attempts, e.delay, func() (bool, error) {
		if err := e.session.Refresh(ctx); err != nil {
			return false, err
		}
		for _, id := range requiredFields {
			if !e.session.FieldVisible(id) {
				return false, nil
			}
		}
		return true, nil
	})
	if err == nil {
		return nil
	}

	e.state = StateAbandoned
	for _, id := range requiredFields {
		e.logger.Warn("Field availability at abandon",
			"field", id,
			"visible", e.session.FieldVisible(id),
		)
	}

	if errors.Is(err, poll.ErrExhausted) {
		return ErrAbandoned
	}
	return err
}

func (e *Engine) fillRecipient(rec orders.Reconciled) {
	name := ParseName(rec.CustomerName)

	first := name.First
	if name.MiddleInitial != "" {
		first = strings.TrimSpace(first + " " + name.MiddleInitial)
	}

	// The carrier rejects an empty last name; "." is the accepted
	// placeholder and is applied here, not in the parser.
	last := name.Last
	if last == "" {
		last = "."
	}

	e.setField(FieldFirstName, first)
	e.setField(FieldLastName, last)
	if rec.Company != "" {
		e.setField(FieldCompany, rec.Company)
	}
}

// fillAddress writes the street, then prefers the carrier's own
// address suggestion when one matches the target zip; accepting it
// makes the page populate city/state/zip itself. Otherwise those
// fields are written manually.
func (e *Engine) fillAddress(ctx context.Context, rec orders.Reconciled) {
	parts := ParseAddress(rec.Street)
	if parts.Confidence == ConfidenceLow {
		e.logger.Warn("Ambiguous unit designator in street, leaving unsplit",
			"street", rec.Street,
		)
	}

	e.setField(FieldStreet1, parts.Primary)
	if parts.Secondary != "" {
		e.setField(FieldStreet2, parts.Secondary)
	}

	zip := Zip5(rec.Zip)

	if i := e.waitForSuggestion(ctx, zip); i >= 0 {
		if err := e.session.ChooseSuggestion(i); err == nil {
			e.logger.Debug("Accepted address suggestion", "zip", zip)
			return
		}
		e.logger.Warn("Failed to accept address suggestion, filling manually")
	}

	e.setField(FieldCity, rec.City)

	if code, ok := StateCode(rec.State); ok {
		if err := e.session.SelectOption(FieldState, code); err != nil {
			e.logger.Warn("Failed to select state", "state", code, "error", err)
		}
	} else if rec.State != "" {
		e.logger.Warn("Unrecognized state name", "state", rec.State)
	}

	if zip != "" {
		e.setField(FieldZip, zip)
	}
}

// waitForSuggestion returns the index of a suggestion matching the
// target zip, or -1 when none shows up within the brief wait.
func (e *Engine) waitForSuggestion(ctx context.Context, zip string) int {
	if zip == "" {
		return -1
	}

	match := -1
	err := poll.Wait(ctx, suggestionAttempts, e.delay, func() (bool, error) {
		if err := e.session.Refresh(ctx); err != nil {
			return false, err
		}
		for i, s := range e.session.Suggestions() {
			if strings.HasPrefix(s.PostalCode, zip) {
				match = i
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return -1
	}
	return match
}

func (e *Engine) fillReferences(rec orders.Reconciled) {
	if rec.FormattedReference != "" {
		e.setField(FieldReference1, rec.FormattedReference)
	}
	e.setField(FieldReference2, rec.OrderNumber)
}

func (e *Engine) fillPackage(rec orders.Reconciled) {
	if err := e.session.SelectOption(FieldPackageType, "box"); err != nil {
		e.logger.Warn("Failed to select package type", "error", err)
	}

	if rec.WeightOz > 0 {
		e.setField(FieldWeightLbs, strconv.Itoa(PoundsFromOunces(rec.WeightOz)))
	}
	if rec.LengthIn > 0 {
		e.setField(FieldLength, formatDim(rec.LengthIn))
	}
	if rec.WidthIn > 0 {
		e.setField(FieldWidth, formatDim(rec.WidthIn))
	}
	if rec.HeightIn > 0 {
		e.setField(FieldHeight, formatDim(rec.HeightIn))
	}
}

func (e *Engine) requestRates(ctx context.Context) {
	if err := e.session.Click(ctx, ButtonGetRates); err != nil {
		e.logger.Warn("Failed to trigger rate calculation", "error", err)
	}
}

// setField writes one field, logging and skipping on any miss. A
// missing field is never fatal to the fill.
func (e *Engine) setField(id, value string) {
	if !e.session.FieldVisible(id) {
		e.logger.Warn("Form field missing, skipping", "field", id)
		return
	}
	if err := e.session.SetField(id, value); err != nil {
		e.logger.Warn("Failed to set form field", "field", id, "error", err)
	}
}

func formatDim(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
