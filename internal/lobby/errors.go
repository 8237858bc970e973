// internal/lobby/errors.go
package lobby

import "errors"

// Sentinel errors surfaced by the Store. None are fatal; the handler layer
// translates each into a user-facing response.
var (
	// ErrNotFound means the lobby does not exist or has expired. The two
	// cases are deliberately indistinguishable to callers.
	ErrNotFound = errors.New("lobby not found or expired")

	// ErrAlreadyMember is returned by the strict join path when the player
	// is already in the lobby. The realtime path uses EnsureMember instead,
	// which tolerates duplicates.
	ErrAlreadyMember = errors.New("already in this lobby")

	// ErrNotHost is returned when a non-host session attempts to update
	// lobby state.
	ErrNotHost = errors.New("only the host can update lobby state")
)
