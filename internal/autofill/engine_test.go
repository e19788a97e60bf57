package autofill

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellertools/labelassist/internal/orders"
)

// fakeSession records every interaction and can delay field readiness
type fakeSession struct {
	readyAfter    int // refreshes before required fields appear
	refreshes     int
	fields        map[string]string
	selections    map[string]string
	clicks        []string
	suggestions   []Suggestion
	chosen        int
	missingFields map[string]bool
	suggestChosen bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		fields:        map[string]string{},
		selections:    map[string]string{},
		missingFields: map[string]bool{},
		chosen:        -1,
	}
}

func (f *fakeSession) Refresh(ctx context.Context) error {
	f.refreshes++
	return nil
}

func (f *fakeSession) FieldVisible(id string) bool {
	if f.missingFields[id] {
		return false
	}
	return f.refreshes > f.readyAfter
}

func (f *fakeSession) SetField(id, value string) error {
	f.fields[id] = value
	return nil
}

func (f *fakeSession) SelectOption(id, value string) error {
	f.selections[id] = value
	return nil
}

func (f *fakeSession) Click(ctx context.Context, id string) error {
	f.clicks = append(f.clicks, id)
	return nil
}

func (f *fakeSession) Suggestions() []Suggestion {
	return f.suggestions
}

func (f *fakeSession) ChooseSuggestion(index int) error {
	f.chosen = index
	f.suggestChosen = true
	return nil
}

var fullRecord = orders.Reconciled{
	OrderNumber:        "ABC123",
	CustomerName:       "Ada King Lovelace",
	Company:            "Analytical Engines Ltd",
	Street:             "123 Main St Apt 4",
	City:               "Springfield",
	State:              "Illinois",
	Zip:                "62704-1234",
	QuantityToShip:     "2",
	FormattedReference: "2 x X1, X2",
	WeightOz:           48,
	LengthIn:           10,
	WidthIn:            8,
	HeightIn:           4,
}

func TestFill_ManualAddressPath(t *testing.T) {
	session := newFakeSession()
	engine := NewEngine(session, 3, time.Millisecond, nil)

	err := engine.Fill(context.Background(), fullRecord)

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, engine.State())

	assert.Equal(t, "Ada K", session.fields[FieldFirstName])
	assert.Equal(t, "Lovelace", session.fields[FieldLastName])
	assert.Equal(t, "Analytical Engines Ltd", session.fields[FieldCompany])
	assert.Equal(t, "123 Main St", session.fields[FieldStreet1])
	assert.Equal(t, "Apt 4", session.fields[FieldStreet2])
	assert.Equal(t, "Springfield", session.fields[FieldCity])
	assert.Equal(t, "IL", session.selections[FieldState])
	assert.Equal(t, "62704", session.fields[FieldZip])
	assert.Equal(t, "2 x X1, X2", session.fields[FieldReference1])
	assert.Equal(t, "ABC123", session.fields[FieldReference2])
	assert.Equal(t, "3", session.fields[FieldWeightLbs], "48oz floors to 3 lbs")
	assert.Equal(t, "10", session.fields[FieldLength])
	assert.Equal(t, []string{ButtonGetRates}, session.clicks)
}

func TestFill_SuggestionPathSkipsManualCityStateZip(t *testing.T) {
	session := newFakeSession()
	session.suggestions = []Suggestion{
		{Text: "123 Main St, Elsewhere", PostalCode: "99999"},
		{Text: "123 Main St, Springfield", PostalCode: "62704"},
	}
	engine := NewEngine(session, 3, time.Millisecond, nil)

	err := engine.Fill(context.Background(), fullRecord)

	require.NoError(t, err)
	assert.True(t, session.suggestChosen)
	assert.Equal(t, 1, session.chosen, "the zip-matching suggestion is chosen")
	assert.NotContains(t, session.fields, FieldCity)
	assert.NotContains(t, session.fields, FieldZip)
}

func TestFill_EmptyNameGetsDotLastName(t *testing.T) {
	session := newFakeSession()
	engine := NewEngine(session, 3, time.Millisecond, nil)

	rec := fullRecord
	rec.CustomerName = ""

	err := engine.Fill(context.Background(), rec)

	require.NoError(t, err)
	assert.Equal(t, "", session.fields[FieldFirstName])
	assert.Equal(t, ".", session.fields[FieldLastName])
}

func TestFill_AbandonedAfterExhaustedAttempts(t *testing.T) {
	session := newFakeSession()
	session.readyAfter = 100 // never ready within budget
	engine := NewEngine(session, 3, time.Millisecond, nil)

	err := engine.Fill(context.Background(), fullRecord)

	assert.ErrorIs(t, err, ErrAbandoned)
	assert.Equal(t, StateAbandoned, engine.State())
	assert.Empty(t, session.fields, "no fields written after abandoning")
}

func TestFill_CompletedLatch(t *testing.T) {
	session := newFakeSession()
	engine := NewEngine(session, 3, time.Millisecond, nil)

	require.NoError(t, engine.Fill(context.Background(), fullRecord))
	clicksAfterFirst := len(session.clicks)

	// A DOM-mutation re-trigger must be a no-op
	require.NoError(t, engine.Fill(context.Background(), fullRecord))

	assert.Equal(t, clicksAfterFirst, len(session.clicks))
	assert.Equal(t, StateCompleted, engine.State())
}

func TestFill_MissingFieldIsSkippedNotFatal(t *testing.T) {
	session := newFakeSession()
	session.missingFields[FieldCompany] = true
	session.missingFields[FieldWeightLbs] = true
	engine := NewEngine(session, 3, time.Millisecond, nil)

	err := engine.Fill(context.Background(), fullRecord)

	require.NoError(t, err)
	assert.Equal(t, StateCompleted, engine.State())
	assert.NotContains(t, session.fields, FieldCompany)
	assert.NotContains(t, session.fields, FieldWeightLbs)
	assert.Equal(t, "Lovelace", session.fields[FieldLastName], "other fields still written")
}

func TestFill_ReadyAfterSomePolling(t *testing.T) {
	session := newFakeSession()
	session.readyAfter = 2
	engine := NewEngine(session, 5, time.Millisecond, nil)

	err := engine.Fill(context.Background(), fullRecord)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, session.refreshes, 3)
}
