package bus

import "encoding/json"

// Actions form the closed set of operations the relay executes.
const (
	ActionTestConnection  = "test_connection"
	ActionListOrders      = "list_orders"
	ActionGetOrder        = "get_order"
	ActionUpdateOrderNote = "update_order_note"
)

// Request is the wire shape of one relay call. RequestID correlates it
// to exactly one response.
type Request struct {
	Action    string         `json:"action"`
	APIKey    string         `json:"apiKey"`
	Params    map[string]any `json:"params,omitempty"`
	RequestID string         `json:"requestId"`
}

// Result is the outcome of one relay call
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// response accepts both shapes a reply can arrive in: wrapped
// ({type, requestId, result:{success, data}}) or already unwrapped
// ({success, data} with the requestId at the top level).
type response struct {
	Type      string          `json:"type,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
	Result    *Result         `json:"result,omitempty"`
	Success   *bool           `json:"success,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// normalize maps either reply shape to one canonical Result
func (r *response) normalize() *Result {
	if r.Result != nil {
		return r.Result
	}
	if r.Success != nil {
		return &Result{Success: *r.Success, Data: r.Data, Error: r.Error}
	}
	return nil
}

// ResponseType tags relay replies so listeners can ignore unrelated traffic
const ResponseType = "relay_response"

// Envelope is the wrapped reply shape relayd emits
type Envelope struct {
	Type      string  `json:"type"`
	RequestID string  `json:"requestId"`
	Result    *Result `json:"result"`
}
