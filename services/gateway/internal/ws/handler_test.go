package ws

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderpay/orderpay/internal/pkg/logger"
)

func init() {
	logger.InitWithWriter(io.Discard)
}

func newWSServer(hub *Hub) *httptest.Server {
	r := chi.NewRouter()
	r.Get("/ws/orders/{orderID}", SubscribeHandler(hub))
	return httptest.NewServer(r)
}

func TestSubscribeHandler_DeliversBroadcast(t *testing.T) {
	hub := NewHub()
	srv := newWSServer(hub)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders/7"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// The subscription is registered by the handler goroutine after the
	// upgrade; wait for it before broadcasting.
	require.Eventually(t, func() bool {
		return hub.Subscribers(7) == 1
	}, time.Second, 10*time.Millisecond)

	sent := hub.Broadcast(7, map[string]any{"order_id": 7, "status": "PAID"})
	require.Equal(t, 1, sent)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "PAID", frame["status"])
	assert.Equal(t, float64(7), frame["order_id"])
}

func TestSubscribeHandler_DisconnectRemovesSubscriber(t *testing.T) {
	hub := NewHub()
	srv := newWSServer(hub)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders/7"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}

	require.Eventually(t, func() bool {
		return hub.Subscribers(7) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		return hub.Subscribers(7) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestSubscribeHandler_RejectsInvalidOrderID(t *testing.T) {
	hub := NewHub()
	srv := newWSServer(hub)
	defer srv.Close()

	for _, path := range []string{"/ws/orders/abc", "/ws/orders/0", "/ws/orders/-1"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}
