package realtime

import "time"

// Frame type discriminators. Inbound frames carrying anything else are logged
// and dropped.
const (
	TypePing            = "ping"
	TypePong            = "pong"
	TypeNewMessage      = "new_message"
	TypeDeliveryReceipt = "delivery_receipt"
)

// Message is the payload of a new_message frame.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId,omitempty"`
	SenderID       string    `json:"senderId"`
	Text           string    `json:"text"`
	SentAt         time.Time `json:"sentAt,omitempty"`
}

// frame is the JSON envelope exchanged on the socket in both directions.
// Which fields are populated depends on Type.
type frame struct {
	Type      string   `json:"type"`
	Message   *Message `json:"message,omitempty"`
	MessageID string   `json:"messageId,omitempty"`
	Text      string   `json:"text,omitempty"`
}
