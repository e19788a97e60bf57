package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sellertools/labelassist/internal/bus"
	"github.com/sellertools/labelassist/internal/vendor"
)

// relayAPI satisfies the reconciler's API port by routing calls
// through the relay daemon.
type relayAPI struct {
	bus    *bus.Client
	apiKey string
}

func (r *relayAPI) ListOrders(ctx context.Context, page, pageSize int, status string) ([]vendor.Order, error) {
	res, err := r.bus.Send(ctx, bus.ActionListOrders, r.apiKey, map[string]any{
		"page":      page,
		"page_size": pageSize,
		"status":    status,
	})
	if err != nil {
		return nil, err
	}
	if !res.Success {
		return nil, fmt.Errorf("relay reported failure: %s", res.Error)
	}

	return vendor.NormalizeOrders(res.Data)
}

func (r *relayAPI) TestConnection(ctx context.Context) error {
	res, err := r.bus.Send(ctx, bus.ActionTestConnection, r.apiKey, nil)
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("relay reported failure: %s", res.Error)
	}
	return nil
}

func (r *relayAPI) UpdateOrderNote(ctx context.Context, id, note string) error {
	res, err := r.bus.Send(ctx, bus.ActionUpdateOrderNote, r.apiKey, map[string]any{
		"id":   id,
		"note": note,
	})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("relay reported failure: %s", res.Error)
	}
	return nil
}

// hubAPI is the full operation surface the app needs, relay-backed or direct
type hubAPI interface {
	ListOrders(ctx context.Context, page, pageSize int, status string) ([]vendor.Order, error)
	TestConnection(ctx context.Context) error
	UpdateOrderNote(ctx context.Context, id, note string) error
}

// failoverAPI tries the relay first and falls back to a direct call
// when the relay is unreachable. The direct call only works when this
// process happens to run same-origin with the hub; otherwise it fails
// too, and the relay guidance is what the user sees.
type failoverAPI struct {
	primary  hubAPI
	fallback hubAPI
	logger   *slog.Logger
}

func (f *failoverAPI) ListOrders(ctx context.Context, page, pageSize int, status string) ([]vendor.Order, error) {
	list, err := f.primary.ListOrders(ctx, page, pageSize, status)
	if err == nil || !relayDown(err) {
		return list, err
	}

	f.logger.Warn("Relay unavailable, attempting direct API call", "error", err)

	list, directErr := f.fallback.ListOrders(ctx, page, pageSize, status)
	if directErr != nil {
		return nil, crossOriginGuidance(directErr)
	}
	return list, nil
}

func (f *failoverAPI) TestConnection(ctx context.Context) error {
	err := f.primary.TestConnection(ctx)
	if err == nil || !relayDown(err) {
		return err
	}

	f.logger.Warn("Relay unavailable, attempting direct API call", "error", err)

	if directErr := f.fallback.TestConnection(ctx); directErr != nil {
		return crossOriginGuidance(directErr)
	}
	return nil
}

func (f *failoverAPI) UpdateOrderNote(ctx context.Context, id, note string) error {
	err := f.primary.UpdateOrderNote(ctx, id, note)
	if err == nil || !relayDown(err) {
		return err
	}

	f.logger.Warn("Relay unavailable, attempting direct API call", "error", err)

	if directErr := f.fallback.UpdateOrderNote(ctx, id, note); directErr != nil {
		return crossOriginGuidance(directErr)
	}
	return nil
}

func relayDown(err error) bool {
	return errors.Is(err, bus.ErrRelayUnavailable) || errors.Is(err, bus.ErrRelayTimeout)
}

// crossOriginGuidance turns a raw network failure into the actionable
// instruction the user needs: the hub only accepts same-origin calls,
// so the fix is running relayd next to the hub session.
func crossOriginGuidance(err error) error {
	var apiErr *vendor.APIError
	if errors.As(err, &apiErr) {
		// The hub answered; this is a real API failure, not an origin problem
		return err
	}
	return fmt.Errorf("the hub API is not reachable from here; start relayd on the machine with your hub session and point relay.url at it (%w)", err)
}
