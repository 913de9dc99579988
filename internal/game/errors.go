// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package game

import (
	"github.com/samber/oops"
)

// CodeGameError marks a command rejected by a game-rule precondition. These
// errors are user-attributable and recoverable: the controller reports them
// to the offending connection and nothing else happens.
const CodeGameError = "GAME_ERROR"

// ErrGame creates a game-rule rejection with a player-facing reason.
func ErrGame(format string, args ...any) error {
	return oops.Code(CodeGameError).Errorf(format, args...)
}

// IsGameError reports whether err is a game-rule rejection.
func IsGameError(err error) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == CodeGameError
}
