// Command scenariogen generates a random scenario and writes it as
// JSON, for seeding servers or authoring starting points.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"hexfront/pkg/scenario"
)

func main() {
	defaults := scenario.DefaultOptions()

	width := flag.Int("width", defaults.Width, "Board width in columns")
	height := flag.Int("height", defaults.Height, "Board height in rows")
	seed := flag.Int64("seed", 0, "Generator seed (0 = random)")
	water := flag.Int("water", defaults.WaterPercent, "Water percentage of the board")
	rivers := flag.Int("rivers", defaults.Rivers, "Number of rivers")
	towns := flag.Int("towns", defaults.Towns, "Number of towns")
	units := flag.Int("units", defaults.UnitsPerSide, "Units per side")
	name := flag.String("name", "", "Scenario name (default generated)")
	out := flag.String("out", "", "Output file (default stdout)")
	preview := flag.Bool("preview", false, "Print an ASCII preview to stderr")
	flag.Parse()

	opts := scenario.Options{
		Width:        *width,
		Height:       *height,
		Seed:         *seed,
		WaterPercent: *water,
		Rivers:       *rivers,
		Towns:        *towns,
		UnitsPerSide: *units,
		Name:         *name,
	}

	doc := scenario.NewGenerator(opts).Generate()
	if err := doc.Validate(); err != nil {
		log.Fatalf("Generated scenario failed validation: %v", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode scenario: %v", err)
	}
	data = append(data, '\n')

	if *preview {
		fmt.Fprint(os.Stderr, doc.Debug())
	}

	if *out == "" {
		os.Stdout.Write(data)
		return
	}

	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	log.Printf("Wrote %s (%dx%d, %d units)", *out, doc.Width, doc.Height, len(doc.Units))
}
