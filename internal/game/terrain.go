package game

import "fmt"

// Terrain represents the ground type of a hex.
type Terrain int

const (
	TerrainClear Terrain = iota
	TerrainMountain
	TerrainForest
	TerrainWater
	TerrainDesert
	TerrainSwamp
	TerrainTown
)

// String returns the terrain name as used in scenario files.
func (t Terrain) String() string {
	switch t {
	case TerrainClear:
		return "clear"
	case TerrainMountain:
		return "mountain"
	case TerrainForest:
		return "forest"
	case TerrainWater:
		return "water"
	case TerrainDesert:
		return "desert"
	case TerrainSwamp:
		return "swamp"
	case TerrainTown:
		return "town"
	default:
		return "unknown"
	}
}

// ParseTerrain converts a terrain name back to its Terrain value.
func ParseTerrain(s string) (Terrain, error) {
	switch s {
	case "clear":
		return TerrainClear, nil
	case "mountain":
		return TerrainMountain, nil
	case "forest":
		return TerrainForest, nil
	case "water":
		return TerrainWater, nil
	case "desert":
		return TerrainDesert, nil
	case "swamp":
		return TerrainSwamp, nil
	case "town":
		return TerrainTown, nil
	default:
		return TerrainClear, fmt.Errorf("unknown terrain %q", s)
	}
}

// MarshalText encodes the terrain as its scenario-file name.
func (t Terrain) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a terrain from its scenario-file name.
func (t *Terrain) UnmarshalText(text []byte) error {
	parsed, err := ParseTerrain(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Passable reports whether units can ever enter this terrain.
func (t Terrain) Passable() bool {
	return t != TerrainWater
}

// MoveCost returns the base cost to enter a hex of this terrain,
// before road and river adjustments. Unrecognized values cost 1 so
// a map edited with a newer terrain set stays playable.
func (t Terrain) MoveCost() int {
	switch t {
	case TerrainMountain, TerrainForest:
		return 2
	case TerrainSwamp, TerrainDesert:
		return 3
	default:
		return 1
	}
}
