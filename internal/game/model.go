// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package game

import (
	"sync"
)

// Phase is the lifecycle state of a game instance.
type Phase int

const (
	PhaseAwaitingPlayers Phase = iota
	PhasePlacement
	PhasePlaying
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingPlayers:
		return "awaiting_players"
	case PhasePlacement:
		return "placement"
	case PhasePlaying:
		return "playing"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// ShipSpec is the wire-level description of one ship placement.
type ShipSpec struct {
	Name       string `json:"name"`
	Size       int    `json:"size"`
	Row        int    `json:"row"`
	Col        int    `json:"col"`
	Horizontal *bool  `json:"horizontal"` // nil means horizontal
}

// Model is the shared mutable state for one game instance. Every command
// method holds the model lock for its full duration, including all event
// emissions, so no two commands run concurrently against the same instance
// and no command's events interleave with another's.
//
// The model never talks to a connection. It knows only its single event sink;
// multi-connection fan-out happens in the publisher layered above.
type Model struct {
	mu      sync.Mutex
	sink    Sink
	players []string
	boards  map[string]*Board
	ready   []string // players who have placed, in placement order
	phase   Phase
	turn    string
	winner  string
}

// NewModel creates a model for the given participant roster. The roster is
// fixed for the model's lifetime and only roster members may issue commands.
func NewModel(players []string, sink Sink) *Model {
	return &Model{
		sink:    sink,
		players: players,
		boards:  make(map[string]*Board),
		phase:   PhaseAwaitingPlayers,
	}
}

func (m *Model) isPlayer(id string) bool {
	for _, p := range m.players {
		if p == id {
			return true
		}
	}
	return false
}

func (m *Model) notify(e Event) {
	if m.sink != nil {
		m.sink.Notify(e)
	}
}

// PlaceShips places a player's full fleet. The whole layout is validated
// before any of it takes effect: an overlap rejects the layout and leaves the
// model unchanged. When the last roster member places, the game transitions
// to playing and a turn event announces the first placer's turn.
func (m *Model) PlaceShips(playerID string, ships []ShipSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isPlayer(playerID) {
		return ErrGame("Player %q is not in this game", playerID)
	}
	if m.phase == PhaseGameOver {
		return ErrGame("Game is over")
	}
	if _, ok := m.boards[playerID]; ok {
		return ErrGame("Ships already placed")
	}
	if len(ships) == 0 {
		return ErrGame("No ships to place")
	}

	board := NewBoard()
	for _, spec := range ships {
		if spec.Size < 1 {
			return ErrGame("Ship %q has invalid size %d", spec.Name, spec.Size)
		}
		horizontal := spec.Horizontal == nil || *spec.Horizontal
		if err := board.PlaceShip(NewShip(spec.Name, spec.Size), spec.Row, spec.Col, horizontal); err != nil {
			return err
		}
	}

	m.boards[playerID] = board
	m.ready = append(m.ready, playerID)
	m.phase = PhasePlacement

	// Play needs an opponent: a roster of fewer than two players stays in
	// placement forever, so the turn is never assigned and attacks keep
	// being rejected.
	if len(m.ready) == len(m.players) && len(m.players) >= 2 {
		m.phase = PhasePlaying
		m.turn = m.ready[0]
		m.notify(NewTurnEvent(m.turn))
	}
	return nil
}

// Attack resolves an attack on the opponent's board at (row, col). The events
// of a single attack are emitted in causal order: the attack result first,
// then a sinking if the hit ship went down, then either game over or the turn
// passing to the opponent.
func (m *Model) Attack(attackerID string, row, col int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isPlayer(attackerID) {
		return ErrGame("Player %q is not in this game", attackerID)
	}
	if m.phase == PhaseGameOver {
		return ErrGame("Game is over")
	}
	if attackerID != m.turn {
		return ErrGame("Not your turn")
	}

	opponentID := ""
	for _, p := range m.players {
		if p != attackerID {
			opponentID = p
			break
		}
	}
	opponentBoard := m.boards[opponentID]

	result, ship, err := opponentBoard.ReceiveAttack(row, col)
	if err != nil {
		return err
	}

	m.notify(NewAttackEvent(attackerID, row, col, result))

	if result == ResultHit && ship.IsSunk() {
		m.notify(NewShipSunkEvent(attackerID, ship.Name))
	}

	if opponentBoard.AllShipsSunk() {
		m.phase = PhaseGameOver
		m.winner = attackerID
		m.notify(NewGameOverEvent(attackerID))
		return nil
	}

	m.turn = opponentID
	m.notify(NewTurnEvent(m.turn))
	return nil
}

// Chat broadcasts a chat line to the instance. Chat is allowed in every
// phase, including after the game is over.
func (m *Model) Chat(playerID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isPlayer(playerID) {
		return ErrGame("Player %q is not in this game", playerID)
	}
	if text == "" {
		return ErrGame("Chat message cannot be empty")
	}

	m.notify(NewChatEvent(playerID, text))
	return nil
}

// Phase returns the current lifecycle phase.
func (m *Model) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// Turn returns the player whose turn it is, or "" outside the playing phase.
func (m *Model) Turn() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.turn
}

// Winner returns the winning player, or "" before the game is over.
func (m *Model) Winner() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.winner
}

// Players returns the fixed participant roster.
func (m *Model) Players() []string {
	result := make([]string, len(m.players))
	copy(result, m.players)
	return result
}
