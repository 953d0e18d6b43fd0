// Package sector defines the (sector, ring, offset) address space of a
// hexagonal board laid out as six triangular wedges around a virtual center.
package sector

import (
	"errors"
	"fmt"
)

// Count is the number of sectors (and of neighbor directions) on a board.
const Count = 6

// ErrInvalidAddress matches every *AddressError.
var ErrInvalidAddress = errors.New("invalid address")

// Address locates a cell by sector, ring distance from center and offset
// within the sector's slice of that ring. Ring 0 is the virtual center.
type Address struct {
	Sector int `json:"sector"`
	Ring   int `json:"ring"`
	Offset int `json:"offset"`
}

// Center is the conventional address of the virtual center.
var Center = Address{}

// IsCenter reports whether a addresses the virtual center.
func (a Address) IsCenter() bool { return a.Ring == 0 }

// String returns "sector/ring/offset".
func (a Address) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Sector, a.Ring, a.Offset)
}

// AddressError reports an address outside the legal domain or one that
// was never created on a board.
type AddressError struct {
	Addr   Address
	Reason string
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("address %s: %s", e.Addr, e.Reason)
}

// Is lets errors.Is match ErrInvalidAddress.
func (e *AddressError) Is(target error) bool { return target == ErrInvalidAddress }

// Validate checks a against a board of the given dimensions.
func Validate(a Address, dimensions int) error {
	switch {
	case a.Sector < 0 || a.Sector >= Count:
		return &AddressError{Addr: a, Reason: fmt.Sprintf("sector out of range [0,%d)", Count)}
	case a.Ring < 0 || a.Ring > dimensions:
		return &AddressError{Addr: a, Reason: fmt.Sprintf("ring out of range [0,%d]", dimensions)}
	case a.Ring >= 1 && (a.Offset < 0 || a.Offset >= a.Ring):
		return &AddressError{Addr: a, Reason: fmt.Sprintf("offset out of range [0,%d)", a.Ring)}
	}
	return nil
}

// Filter is the address normalization predicate consulted before a cell is
// created. A rejected address gets no cell.
type Filter func(Address) bool

// AcceptAll is the default Filter.
func AcceptAll(Address) bool { return true }

// RingSize returns the number of cells a single sector holds at ring.
// Ring 0 is the shared center.
func RingSize(ring int) int {
	if ring <= 0 {
		return 1
	}
	return ring
}

// RingCells returns the number of cells at ring across the whole board.
func RingCells(ring int) int {
	if ring <= 0 {
		return 1
	}
	return Count * ring
}

// TotalCells returns the number of non-center cells on a board of the
// given dimensions.
func TotalCells(dimensions int) int {
	if dimensions <= 0 {
		return 0
	}
	return 3 * dimensions * (dimensions + 1)
}

// Wrap maps any integer onto [0, Count).
func Wrap(s int) int {
	s %= Count
	if s < 0 {
		s += Count
	}
	return s
}

// Next returns the sector after s.
func Next(s int) int { return Wrap(s + 1) }

// Prev returns the sector before s.
func Prev(s int) int { return Wrap(s + Count - 1) }

// Each calls fn for every non-center address of a board in generation
// order: sector, then ring, then offset.
func Each(dimensions int, fn func(Address)) {
	for s := 0; s < Count; s++ {
		for r := 1; r <= dimensions; r++ {
			for o := 0; o < r; o++ {
				fn(Address{Sector: s, Ring: r, Offset: o})
			}
		}
	}
}
