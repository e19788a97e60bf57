package autofill

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// HTTPSession implements FormSession over plain HTTP: it fetches the
// carrier form page, reads field availability out of the parsed HTML,
// accumulates field values, and submits them as a form post when the
// rate button is clicked.
//
// The carrier page's own scripts react to input/change/blur events; a
// session that executes scripts must dispatch those synthetically on
// every write. This session has no script engine, so it records the
// event sequence it would have dispatched; Events() exposes it for
// diagnostics and tests.
type HTTPSession struct {
	http   *resty.Client
	url    string
	logger *slog.Logger

	doc    *goquery.Document
	values map[string]string
	events []string
}

// NewHTTPSession creates a session for the given carrier form URL
func NewHTTPSession(formURL string, timeout time.Duration, logger *slog.Logger) *HTTPSession {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTPSession{
		http:   resty.New().SetTimeout(timeout).SetRetryCount(0),
		url:    formURL,
		logger: logger,
		values: make(map[string]string),
	}
}

// Refresh refetches and reparses the form page
func (s *HTTPSession) Refresh(ctx context.Context) error {
	resp, err := s.http.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return fmt.Errorf("failed to fetch carrier form: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("carrier form returned %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return fmt.Errorf("failed to parse carrier form: %w", err)
	}

	s.doc = doc
	return nil
}

// FieldVisible reports whether the field exists and is interactable
func (s *HTTPSession) FieldVisible(id string) bool {
	field := s.find(id)
	if field == nil {
		return false
	}

	if t, _ := field.Attr("type"); t == "hidden" {
		return false
	}
	if _, hidden := field.Attr("hidden"); hidden {
		return false
	}
	if style, _ := field.Attr("style"); strings.Contains(strings.ReplaceAll(style, " ", ""), "display:none") {
		return false
	}

	return true
}

// SetField stores the value and records the synthetic event sequence
func (s *HTTPSession) SetField(id, value string) error {
	if s.find(id) == nil {
		return fmt.Errorf("field %q not present", id)
	}

	s.values[id] = value
	s.events = append(s.events, "input:"+id, "change:"+id, "blur:"+id)
	return nil
}

// SelectOption picks a dropdown option by value, falling back to label
// match, then to the first non-empty option.
func (s *HTTPSession) SelectOption(id, value string) error {
	sel := s.find(id)
	if sel == nil || !sel.Is("select") {
		return fmt.Errorf("select %q not present", id)
	}

	chosen := ""
	sel.Find("option").EachWithBreak(func(i int, opt *goquery.Selection) bool {
		val := opt.AttrOr("value", "")
		label := strings.TrimSpace(opt.Text())
		if strings.EqualFold(val, value) || strings.EqualFold(label, value) {
			chosen = val
			return false
		}
		if chosen == "" && val != "" {
			chosen = val
		}
		return true
	})

	if chosen == "" {
		return fmt.Errorf("select %q has no options", id)
	}

	s.values[id] = chosen
	s.events = append(s.events, "change:"+id)
	return nil
}

// Click activates a button. The rate trigger submits the accumulated
// values to the form's action.
func (s *HTTPSession) Click(ctx context.Context, id string) error {
	if s.find(id) == nil {
		return fmt.Errorf("button %q not present", id)
	}

	s.events = append(s.events, "click:"+id)

	if id != ButtonGetRates {
		return nil
	}

	action := s.formAction()
	resp, err := s.http.R().
		SetContext(ctx).
		SetFormDataFromValues(s.formValues()).
		Post(action)
	if err != nil {
		return fmt.Errorf("failed to submit carrier form: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("carrier form submit returned %d", resp.StatusCode())
	}

	s.logger.Debug("Submitted carrier form", "action", action, "fields", len(s.values))
	return nil
}

// Suggestions reads the carrier's address-suggestion dropdown
func (s *HTTPSession) Suggestions() []Suggestion {
	if s.doc == nil {
		return nil
	}

	var out []Suggestion
	s.doc.Find(".address-suggestion, #address-suggestions li").Each(func(i int, el *goquery.Selection) {
		out = append(out, Suggestion{
			Text:       strings.TrimSpace(el.Text()),
			City:       el.AttrOr("data-city", ""),
			State:      el.AttrOr("data-state", ""),
			PostalCode: el.AttrOr("data-zip", ""),
		})
	})
	return out
}

// ChooseSuggestion applies a suggestion the way the carrier page would:
// city, state, and zip self-populate from the chosen entry.
func (s *HTTPSession) ChooseSuggestion(index int) error {
	suggestions := s.Suggestions()
	if index < 0 || index >= len(suggestions) {
		return fmt.Errorf("no suggestion at index %d", index)
	}

	chosen := suggestions[index]
	s.values[FieldCity] = chosen.City
	s.values[FieldState] = chosen.State
	s.values[FieldZip] = chosen.PostalCode
	s.events = append(s.events, "click:suggestion")
	return nil
}

// Events returns the synthetic event sequence recorded so far
func (s *HTTPSession) Events() []string {
	return s.events
}

// Values returns the accumulated field values
func (s *HTTPSession) Values() map[string]string {
	return s.values
}

// find locates an element by id or name attribute
func (s *HTTPSession) find(id string) *goquery.Selection {
	if s.doc == nil {
		return nil
	}

	el := s.doc.Find("#" + id).First()
	if el.Length() == 0 {
		el = s.doc.Find(fmt.Sprintf(`[name=%q]`, id)).First()
	}
	if el.Length() == 0 {
		return nil
	}
	return el
}

// formAction resolves the form's submit target, defaulting to the page URL
func (s *HTTPSession) formAction() string {
	if s.doc == nil {
		return s.url
	}

	form := s.doc.Find("form#create-label").First()
	if form.Length() == 0 {
		form = s.doc.Find("form").First()
	}

	action := form.AttrOr("action", "")
	if action == "" {
		return s.url
	}
	if strings.HasPrefix(action, "http://") || strings.HasPrefix(action, "https://") {
		return action
	}

	base := strings.TrimRight(s.url, "/")
	if idx := strings.Index(base, "://"); idx >= 0 {
		if slash := strings.Index(base[idx+3:], "/"); slash >= 0 {
			base = base[:idx+3+slash]
		}
	}
	return base + "/" + strings.TrimLeft(action, "/")
}

func (s *HTTPSession) formValues() map[string][]string {
	out := make(map[string][]string, len(s.values))
	for k, v := range s.values {
		out[k] = []string{v}
	}
	return out
}
