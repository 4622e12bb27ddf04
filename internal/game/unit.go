package game

import (
	"fmt"

	"hexfront/pkg/hexgrid"
)

// Side identifies which of the two players a unit belongs to.
type Side int

const (
	PlayerOne Side = iota + 1
	PlayerTwo
)

// Enemy returns the opposing side.
func (s Side) Enemy() Side {
	if s == PlayerOne {
		return PlayerTwo
	}
	return PlayerOne
}

// String returns the side name.
func (s Side) String() string {
	switch s {
	case PlayerOne:
		return "player_one"
	case PlayerTwo:
		return "player_two"
	default:
		return "none"
	}
}

// MarshalText encodes the side as its name.
func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a side from its name.
func (s *Side) UnmarshalText(text []byte) error {
	switch string(text) {
	case "player_one":
		*s = PlayerOne
	case "player_two":
		*s = PlayerTwo
	default:
		return fmt.Errorf("unknown side %q", string(text))
	}
	return nil
}

// Branch is a unit's arm of service. It affects river-crossing cost
// and the default movement allowance.
type Branch int

const (
	BranchInfantry Branch = iota
	BranchCavalry
	BranchArtillery
)

// String returns the branch name.
func (b Branch) String() string {
	switch b {
	case BranchCavalry:
		return "cavalry"
	case BranchArtillery:
		return "artillery"
	default:
		return "infantry"
	}
}

// MarshalText encodes the branch as its name.
func (b Branch) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText decodes a branch from its name.
func (b *Branch) UnmarshalText(text []byte) error {
	switch string(text) {
	case "infantry":
		*b = BranchInfantry
	case "cavalry":
		*b = BranchCavalry
	case "artillery":
		*b = BranchArtillery
	default:
		return fmt.Errorf("unknown branch %q", string(text))
	}
	return nil
}

// RiverCrossCost returns the surcharge for crossing a river edge.
// Artillery needs to be ferried or bridged and pays double.
func (b Branch) RiverCrossCost() int {
	if b == BranchArtillery {
		return 2
	}
	return 1
}

// DefaultAllowance returns the standard movement allowance for the
// branch, used when a scenario does not override it.
func (b Branch) DefaultAllowance() int {
	if b == BranchCavalry {
		return 4
	}
	return 2
}

// UnitStatus tracks whether a unit has acted this turn.
type UnitStatus int

const (
	UnitReady UnitStatus = iota
	UnitMoved
)

// String returns the status name.
func (s UnitStatus) String() string {
	if s == UnitMoved {
		return "moved"
	}
	return "ready"
}

// MarshalText encodes the status as its name.
func (s UnitStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status from its name.
func (s *UnitStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "ready":
		*s = UnitReady
	case "moved":
		*s = UnitMoved
	default:
		return fmt.Errorf("unknown unit status %q", string(text))
	}
	return nil
}

// Unit is a single playing piece on the board.
type Unit struct {
	ID string `json:"id"`
	hexgrid.Coord
	Side              Side       `json:"side"`
	Branch            Branch     `json:"branch"`
	MovementAllowance int        `json:"movementAllowance"`
	Status            UnitStatus `json:"status"`
}

// NewUnit creates a unit with the branch's default movement allowance.
func NewUnit(id string, side Side, branch Branch, at hexgrid.Coord) *Unit {
	return &Unit{
		ID:                id,
		Coord:             at,
		Side:              side,
		Branch:            branch,
		MovementAllowance: branch.DefaultAllowance(),
		Status:            UnitReady,
	}
}
