package relay

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sellertools/labelassist/internal/bus"
	"github.com/sellertools/labelassist/internal/vendor"
)

// dispatch executes one relayed API call. The key travels with the
// message, so each call gets a client bound to that key.
func (s *Server) dispatch(ctx context.Context, req bus.Request) *bus.Result {
	s.logger.Debug("Dispatching relay request", "action", req.Action, "request_id", req.RequestID)

	client := vendor.NewClient(s.config.VendorBaseURL, req.APIKey, s.config.VendorTimeout, s.logger)

	switch req.Action {
	case bus.ActionTestConnection:
		if err := client.TestConnection(ctx); err != nil {
			return failure(err)
		}
		return success(map[string]any{"connected": true})

	case bus.ActionListOrders:
		page := intParam(req.Params, "page", 1)
		pageSize := intParam(req.Params, "page_size", 100)
		status := stringParam(req.Params, "status")

		list, err := client.ListOrders(ctx, page, pageSize, status)
		if err != nil {
			return failure(err)
		}
		return success(map[string]any{"orders": list})

	case bus.ActionGetOrder:
		id := stringParam(req.Params, "id")
		if id == "" {
			return &bus.Result{Success: false, Error: "missing order id"}
		}

		order, err := client.GetOrder(ctx, id)
		if err != nil {
			return failure(err)
		}
		return success(order)

	case bus.ActionUpdateOrderNote:
		id := stringParam(req.Params, "id")
		note := stringParam(req.Params, "note")
		if id == "" {
			return &bus.Result{Success: false, Error: "missing order id"}
		}

		if err := client.UpdateOrderNote(ctx, id, note); err != nil {
			return failure(err)
		}
		return success(map[string]any{"updated": true})

	default:
		return &bus.Result{Success: false, Error: fmt.Sprintf("unknown action %q", req.Action)}
	}
}

func success(data any) *bus.Result {
	raw, err := json.Marshal(data)
	if err != nil {
		return &bus.Result{Success: false, Error: fmt.Sprintf("failed to encode response: %v", err)}
	}
	return &bus.Result{Success: true, Data: raw}
}

func failure(err error) *bus.Result {
	return &bus.Result{Success: false, Error: err.Error()}
}

func stringParam(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

// intParam tolerates JSON numbers arriving as float64
func intParam(params map[string]any, key string, fallback int) int {
	if params == nil {
		return fallback
	}
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}
