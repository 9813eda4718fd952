package core

import "time"

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventSubscriptionCharge EventType = "subscription.charged"
)

type EventStatus string

const (
	EventPending   EventStatus = "pending"
	EventPublished EventStatus = "published"
)

// LedgerEvent is an outbox row written in the same unit of work as the
// balance change it describes.
type LedgerEvent struct {
	ID          string      `json:"id"`
	Owner       string      `json:"owner"`
	Type        EventType   `json:"type"`
	Transaction Transaction `json:"transaction"`
	Status      EventStatus `json:"status"`
	Attempts    int         `json:"attempts"`
	CreatedAt   time.Time   `json:"createdAt"`
	PublishedAt *time.Time  `json:"publishedAt,omitempty"`
}
