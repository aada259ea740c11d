package amqp

import (
	"encoding/json"
	"time"

	"etiket/internal/core"

	"github.com/google/uuid"
)

// RoutingLabelPrinted is the routing key of label-printed events.
const RoutingLabelPrinted = "label.printed"

// LabelPrintedMessage announces one committed label print. It carries the
// full entry because history entries are immutable.
type LabelPrintedMessage struct {
	EventID   string            `json:"event_id"`
	Entry     core.HistoryEntry `json:"entry"`
	Timestamp time.Time         `json:"timestamp"`
}

// EventIDFor derives a stable event ID from the entry, so a label that is
// published twice or reconciled later maps onto the same spreadsheet row.
func EventIDFor(e core.HistoryEntry) string {
	name := e.LabelIdentifier + "|" + e.PrintedAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// NewLabelPrintedMessage wraps a history entry into an event.
func NewLabelPrintedMessage(e core.HistoryEntry) *LabelPrintedMessage {
	return &LabelPrintedMessage{
		EventID:   EventIDFor(e),
		Entry:     e,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LabelPrintedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LabelPrintedMessageFromJSON decodes a message body.
func LabelPrintedMessageFromJSON(data []byte) (*LabelPrintedMessage, error) {
	var msg LabelPrintedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
