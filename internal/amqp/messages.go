package amqp

import (
	"encoding/json"
	"time"

	"fanatitra/internal/core"
)

// ChangeMessage is the body published for every committed directory or
// ledger write. It carries only the kind of change and the record id;
// consumers read the record itself from the API.
type ChangeMessage struct {
	Type      core.EventType `json:"type"`
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"at"`
}

// NewChangeMessage builds a message from a change event.
func NewChangeMessage(ev core.ChangeEvent) *ChangeMessage {
	at := ev.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return &ChangeMessage{Type: ev.Type, ID: ev.ID, Timestamp: at}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message body.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
