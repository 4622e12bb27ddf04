// Package game contains the core rules for Hexfront: the board model,
// the movement-range engine, and two-player turn sequencing. The
// package holds no global state; a GameState is a plain value the
// server persists between actions.
package game

import (
	"fmt"
	"sort"

	"hexfront/pkg/hexgrid"
)

// GameState represents the complete state of a game.
type GameState struct {
	ID         string           `json:"id"`
	ScenarioID string           `json:"scenarioId"`
	Board      *Board           `json:"board"`
	Units      map[string]*Unit `json:"units"`
	Players    map[Side]string  `json:"players"` // side -> player ID
	Turn       Side             `json:"turn"`
	Round      int              `json:"round"`
	Winner     Side             `json:"winner,omitempty"`
	WinReason  string           `json:"winReason,omitempty"`
}

// NewGame creates a game on the given board. PlayerOne moves first.
func NewGame(id, scenarioID string, board *Board, units []*Unit) *GameState {
	g := &GameState{
		ID:         id,
		ScenarioID: scenarioID,
		Board:      board,
		Units:      make(map[string]*Unit, len(units)),
		Players:    make(map[Side]string, 2),
		Turn:       PlayerOne,
		Round:      1,
	}
	for _, u := range units {
		g.Units[u.ID] = u
	}
	return g
}

// AssignPlayer binds a player ID to a side.
func (g *GameState) AssignPlayer(side Side, playerID string) {
	g.Players[side] = playerID
}

// SideOf returns the side a player controls.
func (g *GameState) SideOf(playerID string) (Side, bool) {
	for side, id := range g.Players {
		if id == playerID {
			return side, true
		}
	}
	return 0, false
}

// PlayerFor returns the player ID controlling a side.
func (g *GameState) PlayerFor(side Side) string {
	return g.Players[side]
}

// UnitsAt returns all units standing on a coordinate.
func (g *GameState) UnitsAt(c hexgrid.Coord) []*Unit {
	var out []*Unit
	for _, u := range g.Units {
		if u.Coord == c {
			out = append(out, u)
		}
	}
	return out
}

// unitList returns the units as a slice for the movement engine.
func (g *GameState) unitList() []*Unit {
	out := make([]*Unit, 0, len(g.Units))
	for _, u := range g.Units {
		out = append(out, u)
	}
	return out
}

// MovementRangeFor computes where a unit could move this turn. It
// answers reachability only; whether the unit is allowed to move right
// now (turn, status) is checked by MoveUnit.
func (g *GameState) MovementRangeFor(unitID string) (MovementRange, error) {
	u, ok := g.Units[unitID]
	if !ok {
		return nil, ErrUnitNotFound
	}
	return ComputeMovementRange(g.Board, g.unitList(), u.Coord, u.MovementAllowance, u.Branch, u.Side), nil
}

// MoveUnit moves a unit to dest on behalf of a side. The destination
// must be inside the unit's current movement range.
func (g *GameState) MoveUnit(side Side, unitID string, dest hexgrid.Coord) error {
	if g.IsGameOver() {
		return ErrGameOver
	}
	if side != g.Turn {
		return ErrNotYourTurn
	}
	u, ok := g.Units[unitID]
	if !ok {
		return ErrUnitNotFound
	}
	if u.Side != side {
		return ErrNotYourUnit
	}
	if u.Status != UnitReady {
		return ErrUnitExhausted
	}

	rng := ComputeMovementRange(g.Board, g.unitList(), u.Coord, u.MovementAllowance, u.Branch, u.Side)
	if _, reachable := rng[dest]; !reachable {
		return fmt.Errorf("%w: (%d,%d)", ErrCannotReach, dest.Col, dest.Row)
	}

	u.Coord = dest
	u.Status = UnitMoved
	return nil
}

// EndTurn passes the turn to the other side and readies its units.
// The round counter advances when the turn returns to PlayerOne.
func (g *GameState) EndTurn(side Side) error {
	if g.IsGameOver() {
		return ErrGameOver
	}
	if side != g.Turn {
		return ErrNotYourTurn
	}

	g.Turn = side.Enemy()
	if g.Turn == PlayerOne {
		g.Round++
	}
	for _, u := range g.Units {
		if u.Side == g.Turn {
			u.Status = UnitReady
		}
	}

	g.checkElimination()
	return nil
}

// Forfeit ends the game with the given side conceding.
func (g *GameState) Forfeit(side Side) {
	if g.IsGameOver() {
		return
	}
	g.Winner = side.Enemy()
	g.WinReason = "forfeit"
}

// checkElimination awards the win when one side has no units left.
func (g *GameState) checkElimination() {
	counts := map[Side]int{}
	for _, u := range g.Units {
		counts[u.Side]++
	}
	switch {
	case counts[PlayerOne] == 0 && counts[PlayerTwo] > 0:
		g.Winner = PlayerTwo
		g.WinReason = "elimination"
	case counts[PlayerTwo] == 0 && counts[PlayerOne] > 0:
		g.Winner = PlayerOne
		g.WinReason = "elimination"
	}
}

// IsGameOver checks if the game has ended.
func (g *GameState) IsGameOver() bool {
	return g.Winner != 0
}

// ReadyUnits returns the IDs of the current side's units that can
// still move this turn, sorted for stable output.
func (g *GameState) ReadyUnits() []string {
	var ids []string
	for id, u := range g.Units {
		if u.Side == g.Turn && u.Status == UnitReady {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
