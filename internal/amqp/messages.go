package amqp

import (
	"encoding/json"
	"time"
)

// ReminderMessage carries one computed reminder from the worker's scan to
// whoever persists or forwards it. The payload is complete; consumers do
// not need to re-read the database.
type ReminderMessage struct {
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewReminderMessage creates a reminder message stamped with the current time
func NewReminderMessage(userID, kind, title, body string) *ReminderMessage {
	return &ReminderMessage{
		UserID:    userID,
		Kind:      kind,
		Title:     title,
		Body:      body,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ReminderMessageFromJSON creates a message from JSON bytes
func ReminderMessageFromJSON(data []byte) (*ReminderMessage, error) {
	var msg ReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
