// Package event defines the wire contracts shared by the orders, payments
// and gateway services: payload schemas, event type names, and the broker
// topology (exchange, queues, routing keys).
package event

// Exchange is the single durable direct exchange all services publish to.
const Exchange = "events"

// Event types as stored in the outbox table.
const (
	TypePaymentRequested   = "PaymentRequested"
	TypePaymentResult      = "PaymentResult"
	TypeOrderStatusChanged = "OrderStatusChanged"
)

// Routing keys.
const (
	RKPaymentRequested   = "payment.requested"
	RKPaymentResult      = "payment.result"
	RKOrderStatusChanged = "order.status_changed"
)

// Queue names, one durable queue per consumer.
const (
	QueuePaymentRequested   = "payments.payment_requested"
	QueuePaymentResult      = "orders.payment_result"
	QueueOrderStatusChanged = "gateway.order_status_changed"
)

// Payment outcomes.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Failure reasons carried on PaymentResult.
const (
	ReasonAccountNotFound   = "ACCOUNT_NOT_FOUND"
	ReasonInsufficientFunds = "INSUFFICIENT_FUNDS"
)

// PaymentRequested asks the payments service to debit an account for an order.
// MessageID is minted by the orders service when the order row is written and
// is reused verbatim on the PaymentResult reply, so one originating action maps
// to exactly one inbox key at every station.
type PaymentRequested struct {
	MessageID string `json:"message_id"`
	OrderID   int64  `json:"order_id"`
	UserID    int64  `json:"user_id"`
	Amount    int64  `json:"amount"`
}

// PaymentResult reports the payment decision back to the orders service.
type PaymentResult struct {
	MessageID string  `json:"message_id"`
	OrderID   int64   `json:"order_id"`
	Status    string  `json:"status"`
	Reason    *string `json:"reason"`
}

// OrderStatusChanged notifies the gateway of a terminal order transition.
// It carries no message_id: the fan-out is read-only and not
// idempotency-tracked.
type OrderStatusChanged struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// RoutingKeyFor maps an outbox event_type to its routing key. Unknown types
// return "" and must be treated as malformed by the relay.
func RoutingKeyFor(eventType string) string {
	switch eventType {
	case TypePaymentRequested:
		return RKPaymentRequested
	case TypePaymentResult:
		return RKPaymentResult
	case TypeOrderStatusChanged:
		return RKOrderStatusChanged
	default:
		return ""
	}
}
