package model

import "time"

// EventType names a domain event emitted by the core.
type EventType string

const (
	EventCircleCreated        EventType = "circle.created"
	EventCircleDeleted        EventType = "circle.deleted"
	EventMemberAdded          EventType = "member.added"
	EventMemberRemoved        EventType = "member.removed"
	EventOwnershipTransferred EventType = "member.ownership_transferred"
	EventInviteCreated        EventType = "invite.created"
	EventInviteConsumed       EventType = "invite.consumed"
)

// Event is a fire-and-forget domain event for downstream notification and
// audit. Delivery is best-effort; the core never depends on it succeeding.
type Event struct {
	Type       EventType `json:"type"`
	CircleID   string    `json:"circle_id"`
	ActorID    string    `json:"actor_id"`
	TargetID   string    `json:"target_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
