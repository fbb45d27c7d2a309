package ws

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/orderpay/orderpay/internal/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The gateway fronts a browser frontend on another origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SubscribeHandler upgrades /ws/orders/{orderID} and keeps the connection in
// the hub until the client goes away. Client frames are ignored; the read
// loop exists only to observe the disconnect.
func SubscribeHandler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
		if err != nil || orderID <= 0 {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error.
			logger.Logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		log := logger.Logger.With().
			Str("component", "ws").
			Int64("order_id", orderID).
			Logger()

		cl := NewClient(conn)
		hub.Subscribe(orderID, cl)
		log.Info().Msg("subscriber connected")

		defer func() {
			hub.Unsubscribe(orderID, cl)
			_ = cl.Close()
			log.Info().Msg("subscriber disconnected")
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
