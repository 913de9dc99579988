// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package game

// position is a single cell on the grid.
type position struct {
	row int
	col int
}

// Ship is one placed ship: its cells and the cells that have been hit.
type Ship struct {
	Name      string
	Size      int
	positions []position
	hits      map[position]struct{}
}

// NewShip creates a ship of the given size. It occupies no cells until placed.
func NewShip(name string, size int) *Ship {
	return &Ship{
		Name: name,
		Size: size,
		hits: make(map[position]struct{}),
	}
}

// place assigns the ship's cells starting at (row, col), extending right when
// horizontal or down otherwise.
func (s *Ship) place(row, col int, horizontal bool) {
	s.positions = s.positions[:0]
	for i := range s.Size {
		if horizontal {
			s.positions = append(s.positions, position{row: row, col: col + i})
		} else {
			s.positions = append(s.positions, position{row: row + i, col: col})
		}
	}
}

// registerHit records a hit if the position is part of the ship.
func (s *Ship) registerHit(p position) bool {
	for _, q := range s.positions {
		if q == p {
			s.hits[p] = struct{}{}
			return true
		}
	}
	return false
}

// IsSunk reports whether every cell of the ship has been hit.
func (s *Ship) IsSunk() bool {
	if len(s.positions) == 0 {
		return false
	}
	for _, p := range s.positions {
		if _, ok := s.hits[p]; !ok {
			return false
		}
	}
	return true
}

// Board holds one player's fleet and the attacks received so far.
type Board struct {
	ships   []*Ship
	attacks map[position]struct{}
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		attacks: make(map[position]struct{}),
	}
}

// PlaceShip places a ship on the board. Placement fails if the ship would
// overlap a previously placed ship; the board is unchanged on failure.
func (b *Board) PlaceShip(ship *Ship, row, col int, horizontal bool) error {
	ship.place(row, col, horizontal)
	occupied := make(map[position]struct{})
	for _, existing := range b.ships {
		for _, p := range existing.positions {
			occupied[p] = struct{}{}
		}
	}
	for _, p := range ship.positions {
		if _, ok := occupied[p]; ok {
			return ErrGame("Ships overlap")
		}
	}
	b.ships = append(b.ships, ship)
	return nil
}

// ReceiveAttack records an attack on (row, col) and returns the result along
// with the ship that was hit, if any. Attacking the same cell twice is an
// error and does not change the board.
func (b *Board) ReceiveAttack(row, col int) (AttackResult, *Ship, error) {
	p := position{row: row, col: col}
	if _, ok := b.attacks[p]; ok {
		return "", nil, ErrGame("Position already attacked")
	}
	b.attacks[p] = struct{}{}
	for _, ship := range b.ships {
		if ship.registerHit(p) {
			return ResultHit, ship, nil
		}
	}
	return ResultMiss, nil, nil
}

// AllShipsSunk reports whether every ship on the board is sunk.
func (b *Board) AllShipsSunk() bool {
	if len(b.ships) == 0 {
		return false
	}
	for _, ship := range b.ships {
		if !ship.IsSunk() {
			return false
		}
	}
	return true
}
