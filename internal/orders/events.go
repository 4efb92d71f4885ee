package orders

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced   = "OrderPlaced"
	EventStatusChanged = "OrderStatusChanged"
)

// Envelope wraps every event on the wire. Payload stays raw so consumers
// can dispatch on EventType before decoding.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type OrderPlacedPayload struct {
	OrderID     string          `json:"order_id"`
	OwnerID     string          `json:"owner_id"`
	Items       []LineItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      Status          `json:"status"`
}

type StatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
}

func newEnvelope(eventType, producer, orderID string, payload []byte) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: orderID,
		Payload:       payload,
	}
}

func NewOrderPlaced(o *Order, producer string) Envelope {
	payload, _ := json.Marshal(OrderPlacedPayload{
		OrderID:     o.ID,
		OwnerID:     o.OwnerID,
		Items:       o.Items,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
	})
	return newEnvelope(EventOrderPlaced, producer, o.ID, payload)
}

func NewStatusChanged(orderID string, from, to Status, producer string) Envelope {
	payload, _ := json.Marshal(StatusChangedPayload{OrderID: orderID, From: from, To: to})
	return newEnvelope(EventStatusChanged, producer, orderID, payload)
}
