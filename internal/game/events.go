// Package game contains the authoritative state for one game instance: the
// boards, the turn order, and the command methods invoked by controllers.
package game

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventType identifies the kind of event. The values appear verbatim in the
// `event` field of broadcast messages.
type EventType string

const (
	EventTypeAttack   EventType = "AttackEvent"
	EventTypeShipSunk EventType = "ShipSunkEvent"
	EventTypeGameOver EventType = "GameOverEvent"
	EventTypeTurn     EventType = "TurnEvent"
	EventTypeChat     EventType = "ChatEvent"
)

// AttackResult is the outcome of a single attack.
type AttackResult string

const (
	ResultHit  AttackResult = "hit"
	ResultMiss AttackResult = "miss"
)

// Event is an immutable fact describing a state change, delivered to every
// subscriber of the instance. Fields holds the event-specific wire fields
// merged into the broadcast payload alongside `event` and `message`.
type Event struct {
	ID        ulid.ULID
	Type      EventType
	Timestamp time.Time
	Message   string
	Fields    map[string]any
}

// Sink receives events emitted by a Model. A model holds exactly one sink;
// fan-out to multiple connections is layered above, in the publisher.
type Sink interface {
	Notify(Event)
}

func newEvent(t EventType, message string, fields map[string]any) Event {
	return Event{
		ID:        NewULID(),
		Type:      t,
		Timestamp: time.Now(),
		Message:   message,
		Fields:    fields,
	}
}

// NewAttackEvent describes the outcome of an attack on (row, col).
func NewAttackEvent(attackerID string, row, col int, result AttackResult) Event {
	return newEvent(EventTypeAttack,
		fmt.Sprintf("%s attacked (%d, %d) - %s", attackerID, row, col, result),
		map[string]any{
			"attacker_id": attackerID,
			"row":         row,
			"col":         col,
			"result":      string(result),
		})
}

// NewShipSunkEvent describes a ship being fully sunk by an attack.
func NewShipSunkEvent(attackerID, shipName string) Event {
	return newEvent(EventTypeShipSunk,
		fmt.Sprintf("%s sank %s", attackerID, shipName),
		map[string]any{
			"attacker_id": attackerID,
			"ship_name":   shipName,
		})
}

// NewGameOverEvent describes the end of the game.
func NewGameOverEvent(winnerID string) Event {
	return newEvent(EventTypeGameOver,
		fmt.Sprintf("%s wins the game!", winnerID),
		map[string]any{
			"winner_id": winnerID,
		})
}

// NewTurnEvent announces whose turn it is.
func NewTurnEvent(playerID string) Event {
	return newEvent(EventTypeTurn,
		fmt.Sprintf("It is now %s's turn.", playerID),
		map[string]any{
			"player_id": playerID,
		})
}

// NewChatEvent carries a chat line from one player to the whole instance.
func NewChatEvent(playerID, text string) Event {
	return newEvent(EventTypeChat,
		fmt.Sprintf("%s says, %q", playerID, text),
		map[string]any{
			"player_id": playerID,
			"text":      text,
		})
}
