// Package scenario defines the map document format shared by the
// server, the generator, and the editor, plus the set of built-in
// scenarios embedded in the binary.
package scenario

import (
	"hexfront/internal/game"
)

// Document is a complete scenario: a bounded hex board plus the
// starting forces for both sides. It is the on-disk and on-wire
// format; Build converts it into live game objects.
type Document struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Author string       `json:"author,omitempty"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Hexes  []*game.Hex  `json:"hexes"`
	Units  []*game.Unit `json:"units"`
}

// Build instantiates the document into a playable board and starting
// units. Everything is deep-copied so several games can run from the
// same document. Units without an explicit movement allowance receive
// their branch default, and all units start ready.
func (d *Document) Build() (*game.Board, []*game.Unit) {
	board := game.NewBoard(d.Width, d.Height)
	for _, h := range d.Hexes {
		hex := *h
		board.SetHex(&hex)
	}

	units := make([]*game.Unit, 0, len(d.Units))
	for _, u := range d.Units {
		unit := *u
		if unit.MovementAllowance <= 0 {
			unit.MovementAllowance = unit.Branch.DefaultAllowance()
		}
		unit.Status = game.UnitReady
		units = append(units, &unit)
	}
	return board, units
}
