package websocket

import (
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypeCartUpdated       MessageType = "cart_updated"
	TypeCartCleared       MessageType = "cart_cleared"
	TypeCheckoutCompleted MessageType = "checkout_completed"
	TypePing              MessageType = "ping"
	TypePong              MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// CartUpdatedPayload carries the numbers badge displays need, so other
// tabs and devices of the same shopper can refresh without a full fetch.
type CartUpdatedPayload struct {
	HeaderID   string `json:"headerId"`
	Lines      int    `json:"lines"`
	Units      int    `json:"units"`
	TotalCents int64  `json:"totalCents"`
}

type CartClearedPayload struct {
	HeaderID string `json:"headerId"`
}

type CheckoutCompletedPayload struct {
	OrderID    string `json:"orderId"`
	TotalCents int64  `json:"totalCents"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   raw,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
