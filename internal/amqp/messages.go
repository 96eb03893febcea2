package amqp

import (
	"encoding/json"
	"time"
)

// EstimateCompletedMessage notifies downstream consumers that an estimation
// run finished. It carries only the history id and headline numbers; a
// consumer fetches the full record from storage.
type EstimateCompletedMessage struct {
	ID             int64     `json:"id"`
	Location       string    `json:"location"`
	NetIncomeCents int64     `json:"net_income_cents"`
	RemainingCents int64     `json:"remaining_cents"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewEstimateCompletedMessage creates a completion message for a stored
// estimate.
func NewEstimateCompletedMessage(id int64, location string, netIncomeCents, remainingCents int64) *EstimateCompletedMessage {
	return &EstimateCompletedMessage{
		ID:             id,
		Location:       location,
		NetIncomeCents: netIncomeCents,
		RemainingCents: remainingCents,
		Timestamp:      time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EstimateCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EstimateCompletedMessageFromJSON creates a message from JSON bytes
func EstimateCompletedMessageFromJSON(data []byte) (*EstimateCompletedMessage, error) {
	var msg EstimateCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
