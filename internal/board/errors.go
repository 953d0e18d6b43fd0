package board

import (
	"errors"
	"fmt"

	"github.com/gravitas-games/hexfleet/internal/sector"
)

var (
	// ErrDuplicateCreation matches every *DuplicateCreationError.
	ErrDuplicateCreation = errors.New("duplicate cell creation")
	// ErrTopologyNotReady matches every *UnreadyTopologyError.
	ErrTopologyNotReady = errors.New("topology not ready")
	// ErrAlreadyBuilt is returned by a second Build on the same board.
	ErrAlreadyBuilt = errors.New("board already built")
	// ErrForeignCell is returned when a query receives a cell of another board.
	ErrForeignCell = errors.New("cell does not belong to this board")
)

// AddressError is the sector package's address error, surfaced unchanged by
// board lookups.
type AddressError = sector.AddressError

// DuplicateCreationError reports a second creation at an occupied address.
// It signals a build-order bug rather than bad input.
type DuplicateCreationError struct {
	Addr     sector.Address
	Existing int
	Center   bool
}

func (e *DuplicateCreationError) Error() string {
	if e.Center {
		return "center cell already created"
	}
	return fmt.Sprintf("cell %s already created with index %d", e.Addr, e.Existing)
}

// Is lets errors.Is match ErrDuplicateCreation.
func (e *DuplicateCreationError) Is(target error) bool { return target == ErrDuplicateCreation }

// UnreadyTopologyError reports a query issued before the topology-ready
// signal fired.
type UnreadyTopologyError struct {
	Op    string
	Board int
}

func (e *UnreadyTopologyError) Error() string {
	return fmt.Sprintf("board %d: %s: topology not ready", e.Board, e.Op)
}

// Is lets errors.Is match ErrTopologyNotReady.
func (e *UnreadyTopologyError) Is(target error) bool { return target == ErrTopologyNotReady }
