package amqp

import (
	"encoding/json"
	"time"

	"gagyebu/internal/store"
)

// ChangeMessage announces one persisted ledger mutation. It carries ids only;
// consumers read the ledger for the full state.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	ID         string    `json:"id"`
	Count      int       `json:"count"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(c store.Change) *ChangeMessage {
	return &ChangeMessage{
		Collection: string(c.Collection),
		Op:         string(c.Op),
		ID:         c.ID,
		Count:      c.Count,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
