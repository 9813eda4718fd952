package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"finanzas/internal/core"
)

// MessageVersion is bumped whenever the message layout changes incompatibly.
const MessageVersion = 1

// LedgerEventMessage is the wire form of a committed ledger event. It carries
// the full transaction snapshot so consumers never read the ledger database.
type LedgerEventMessage struct {
	EventID     string           `json:"eventId"`
	Type        core.EventType   `json:"type"`
	Owner       string           `json:"owner"`
	Transaction core.Transaction `json:"transaction"`
	OccurredAt  time.Time        `json:"occurredAt"`
	Version     int              `json:"version"`
}

func NewLedgerEventMessage(ev core.LedgerEvent) *LedgerEventMessage {
	return &LedgerEventMessage{
		EventID:     ev.ID,
		Type:        ev.Type,
		Owner:       ev.Owner,
		Transaction: ev.Transaction,
		OccurredAt:  ev.CreatedAt,
		Version:     MessageVersion,
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes and checks a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EventID == "" {
		return nil, fmt.Errorf("message without event id")
	}
	switch msg.Type {
	case core.EventTransactionCreated, core.EventTransactionUpdated,
		core.EventTransactionDeleted, core.EventSubscriptionCharge:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	if msg.Version > MessageVersion {
		return nil, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	return &msg, nil
}
