// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_PlaceShip(t *testing.T) {
	b := NewBoard()

	err := b.PlaceShip(NewShip("destroyer", 2), 0, 0, true)
	require.NoError(t, err)

	// Overlaps (0,1) of the destroyer.
	err = b.PlaceShip(NewShip("submarine", 3), 0, 1, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Ships overlap")
	assert.True(t, IsGameError(err))

	// Vertical placement next to the destroyer is fine.
	err = b.PlaceShip(NewShip("submarine", 3), 1, 0, false)
	require.NoError(t, err)
}

func TestBoard_ReceiveAttack(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.PlaceShip(NewShip("patrol", 1), 3, 3, true))

	result, ship, err := b.ReceiveAttack(0, 0)
	require.NoError(t, err)
	assert.Equal(t, ResultMiss, result)
	assert.Nil(t, ship)

	result, ship, err = b.ReceiveAttack(3, 3)
	require.NoError(t, err)
	assert.Equal(t, ResultHit, result)
	require.NotNil(t, ship)
	assert.Equal(t, "patrol", ship.Name)
	assert.True(t, ship.IsSunk())

	_, _, err = b.ReceiveAttack(3, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Position already attacked")
}

func TestBoard_AllShipsSunk(t *testing.T) {
	b := NewBoard()
	assert.False(t, b.AllShipsSunk(), "empty board is not sunk")

	require.NoError(t, b.PlaceShip(NewShip("patrol", 1), 0, 0, true))
	require.NoError(t, b.PlaceShip(NewShip("destroyer", 2), 5, 5, false))
	assert.False(t, b.AllShipsSunk())

	_, _, err := b.ReceiveAttack(0, 0)
	require.NoError(t, err)
	assert.False(t, b.AllShipsSunk())

	_, _, err = b.ReceiveAttack(5, 5)
	require.NoError(t, err)
	_, _, err = b.ReceiveAttack(6, 5)
	require.NoError(t, err)
	assert.True(t, b.AllShipsSunk())
}

func TestShip_IsSunk(t *testing.T) {
	s := NewShip("destroyer", 2)
	assert.False(t, s.IsSunk(), "unplaced ship is not sunk")

	s.place(0, 0, true)
	assert.False(t, s.IsSunk())

	assert.True(t, s.registerHit(position{0, 0}))
	assert.False(t, s.registerHit(position{9, 9}))
	assert.False(t, s.IsSunk())

	assert.True(t, s.registerHit(position{0, 1}))
	assert.True(t, s.IsSunk())
}
