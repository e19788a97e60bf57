package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sellertools/labelassist/internal/bus"
)

// startRelay spins the relay against a stub vendor API and returns a
// connected bus client.
func startRelay(t *testing.T, vendorHandler http.HandlerFunc) *bus.Client {
	t.Helper()

	vendorSrv := httptest.NewServer(vendorHandler)
	t.Cleanup(vendorSrv.Close)

	server := NewServer(Config{
		VendorBaseURL: vendorSrv.URL,
		VendorTimeout: 5 * time.Second,
	}, nil)

	relaySrv := httptest.NewServer(server.Router())
	t.Cleanup(relaySrv.Close)

	client := bus.NewClient("ws"+strings.TrimPrefix(relaySrv.URL, "http")+"/ws", 5*time.Second, nil)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestHealthz(t *testing.T) {
	server := NewServer(Config{VendorBaseURL: "http://unused"}, nil)
	srv := httptest.NewServer(server.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")

	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRelay_ListOrders(t *testing.T) {
	var gotKey string

	client := startRelay(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"orders":[{"number":"ABC123"}]}`))
	})

	res, err := client.Send(context.Background(), bus.ActionListOrders, "relay-key", map[string]any{
		"page":      1,
		"page_size": 100,
		"status":    "awaiting_fulfillment",
	})

	require.NoError(t, err)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "relay-key", gotKey)

	var payload struct {
		Orders []struct {
			Number string `json:"number"`
		} `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &payload))
	require.Len(t, payload.Orders, 1)
	assert.Equal(t, "ABC123", payload.Orders[0].Number)
}

func TestRelay_APIFailureIsAnswered(t *testing.T) {
	client := startRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	res, err := client.Send(context.Background(), bus.ActionTestConnection, "key", nil)

	// The relay answers with a negative result; the call itself succeeds
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "502 - upstream down")
}

func TestRelay_UnknownAction(t *testing.T) {
	client := startRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	res, err := client.Send(context.Background(), "make_coffee", "key", nil)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown action")
}

func TestRelay_GetOrderMissingID(t *testing.T) {
	client := startRelay(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	res, err := client.Send(context.Background(), bus.ActionGetOrder, "key", nil)

	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "missing order id", res.Error)
}
