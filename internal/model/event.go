package model

import (
	"encoding/json"
	"time"
)

// EventType names a committed state change
type EventType string

const (
	EventTeamCreated EventType = "team.created"
	EventTeamJoined  EventType = "team.joined"
	EventTeamLeft    EventType = "team.left"
	EventTeamDeleted EventType = "team.deleted"

	EventPlayerRegistered EventType = "player.registered"
	EventGMCreated        EventType = "gm.created"

	EventSessionStarted EventType = "session.started"
	EventFeePaid        EventType = "session.fee_paid"
	EventDiceRolled     EventType = "session.dice_rolled"
	EventMonsterAdded   EventType = "session.monster_added"
	EventMonsterKilled  EventType = "session.monster_killed"
	EventMonsterRemoved EventType = "session.monster_removed"
	EventMessageSent    EventType = "session.message_sent"
	EventSessionEnded   EventType = "session.ended"

	EventDiplomaMinted EventType = "diploma.minted"

	// Stream housekeeping, never journaled
	EventHeartbeat EventType = "heartbeat"
)

// Event is the record emitted for external observers once an operation commits
type Event struct {
	ID         string          `json:"id"`
	Sequence   uint64          `json:"sequence"`
	Type       EventType       `json:"type"`
	Actor      Address         `json:"actor,omitempty"`
	Topic      string          `json:"topic,omitempty"` // e.g. "team:3", "session:1"
	Data       json.RawMessage `json:"data,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// Format returns the SSE formatted string
func (e *Event) Format() string {
	data, _ := json.Marshal(e)
	return "event: " + string(e.Type) + "\ndata: " + string(data) + "\n\n"
}
