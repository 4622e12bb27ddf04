package scenario

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"

	"hexfront/internal/game"
	"hexfront/pkg/hexgrid"
)

//go:embed data/*.json
var scenarioFiles embed.FS

// Registry holds all built-in scenarios.
var Registry = make(map[string]*Document)

// Boards larger than this are rejected outright.
const maxDimension = 128

// LoadAll loads all embedded scenarios.
func LoadAll() error {
	entries, err := scenarioFiles.ReadDir("data")
	if err != nil {
		return fmt.Errorf("failed to read scenario directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		doc, err := Load(entry.Name())
		if err != nil {
			return fmt.Errorf("failed to load scenario %s: %w", entry.Name(), err)
		}

		Registry[doc.ID] = doc
	}

	return nil
}

// Load loads a single embedded scenario by filename.
func Load(filename string) (*Document, error) {
	data, err := scenarioFiles.ReadFile(path.Join("data", filename))
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return LoadFromJSON(data)
}

// Get retrieves a built-in scenario from the registry by ID.
func Get(id string) *Document {
	return Registry[id]
}

// List returns basic information for all built-in scenarios.
func List() []Info {
	infos := make([]Info, 0, len(Registry))
	for _, d := range Registry {
		infos = append(infos, Info{
			ID:        d.ID,
			Name:      d.Name,
			Width:     d.Width,
			Height:    d.Height,
			UnitCount: len(d.Units),
		})
	}
	return infos
}

// Info contains basic scenario information for listing.
type Info struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	UnitCount int    `json:"unit_count"`
}

// LoadFromJSON parses and validates a scenario document from JSON bytes
// (for editor-authored and stored scenarios).
func LoadFromJSON(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario JSON: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &doc, nil
}

// Register adds a scenario to the registry.
func Register(d *Document) {
	if d != nil && d.ID != "" {
		Registry[d.ID] = d
	}
}

// Validate checks the document for structural errors. A valid document
// always builds into a playable game.
func (d *Document) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("scenario ID is required")
	}
	if d.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if d.Width <= 0 || d.Height <= 0 || d.Width > maxDimension || d.Height > maxDimension {
		return fmt.Errorf("invalid dimensions: %dx%d", d.Width, d.Height)
	}

	hexAt := make(map[hexgrid.Coord]*game.Hex, len(d.Hexes))
	for _, h := range d.Hexes {
		if h.Col < 0 || h.Col >= d.Width || h.Row < 0 || h.Row >= d.Height {
			return fmt.Errorf("hex (%d,%d) out of bounds", h.Col, h.Row)
		}
		if _, dup := hexAt[h.Coord]; dup {
			return fmt.Errorf("duplicate hex at (%d,%d)", h.Col, h.Row)
		}
		hexAt[h.Coord] = h
	}

	unitIDs := make(map[string]bool, len(d.Units))
	sideAt := make(map[hexgrid.Coord]game.Side)
	counts := make(map[game.Side]int)
	for _, u := range d.Units {
		if u.ID == "" {
			return fmt.Errorf("unit at (%d,%d) has no ID", u.Col, u.Row)
		}
		if unitIDs[u.ID] {
			return fmt.Errorf("duplicate unit ID %q", u.ID)
		}
		unitIDs[u.ID] = true

		if u.Side != game.PlayerOne && u.Side != game.PlayerTwo {
			return fmt.Errorf("unit %s has no side", u.ID)
		}
		if u.MovementAllowance < 0 {
			return fmt.Errorf("unit %s has negative movement allowance", u.ID)
		}

		h, ok := hexAt[u.Coord]
		if !ok {
			return fmt.Errorf("unit %s placed on missing hex (%d,%d)", u.ID, u.Col, u.Row)
		}
		if !h.Terrain.Passable() {
			return fmt.Errorf("unit %s placed on water at (%d,%d)", u.ID, u.Col, u.Row)
		}
		if other, occupied := sideAt[u.Coord]; occupied && other != u.Side {
			return fmt.Errorf("units of both sides stacked at (%d,%d)", u.Col, u.Row)
		}
		sideAt[u.Coord] = u.Side
		counts[u.Side]++
	}

	if counts[game.PlayerOne] == 0 || counts[game.PlayerTwo] == 0 {
		return fmt.Errorf("each side needs at least one unit")
	}
	return nil
}
