package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderpay/orderpay/internal/pkg/logger"
	"github.com/orderpay/orderpay/services/gateway/internal/ws"
)

func init() {
	logger.InitWithWriter(io.Discard)
}

func newGateway(t *testing.T, ordersURL, paymentsURL string) (*httptest.Server, *ws.Hub) {
	t.Helper()

	hub := ws.NewHub()
	handler, err := NewRouter(RouterDeps{
		OrdersURL:   ordersURL,
		PaymentsURL: paymentsURL,
		Hub:         hub,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, hub
}

func TestRouter_WebsocketSubscribeThroughFullStack(t *testing.T) {
	srv, hub := newGateway(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/orders/7"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "upgrade must succeed through the gateway middleware chain")
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool {
		return hub.Subscribers(7) == 1
	}, time.Second, 10*time.Millisecond)

	sent := hub.Broadcast(7, map[string]any{"order_id": 7, "status": "PAID"})
	require.Equal(t, 1, sent)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "PAID", frame["status"])
}

func TestRouter_ProxiesOrdersPathThrough(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	srv, _ := newGateway(t, upstream.URL, "http://127.0.0.1:1")

	resp, err := http.Get(srv.URL + "/orders/42")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/orders/42", gotPath)
}

func TestRouter_StripsPaymentsPrefix(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	srv, _ := newGateway(t, "http://127.0.0.1:1", upstream.URL)

	resp, err := http.Get(srv.URL + "/payments/accounts/3/balance")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "/accounts/3/balance", gotPath)
}

func TestRouter_Health(t *testing.T) {
	srv, _ := newGateway(t, "http://127.0.0.1:1", "http://127.0.0.1:1")

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"status":"ok","service":"gateway"}`, string(body))
}
