package core

import "time"

// EventType names a committed change.
type EventType string

const (
	EventContributorCreated  EventType = "contributor.created"
	EventContributorUpdated  EventType = "contributor.updated"
	EventContributorDeleted  EventType = "contributor.deleted"
	EventContributionCreated EventType = "contribution.created"
	EventContributionUpdated EventType = "contribution.updated"
	EventContributionDeleted EventType = "contribution.deleted"
)

// ChangeEvent is published after a directory or ledger write succeeds.
type ChangeEvent struct {
	Type EventType `json:"type"`
	ID   string    `json:"id"`
	At   time.Time `json:"at"`
}
