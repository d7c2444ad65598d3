// Command genmock writes a deterministic synthetic strip chart and its ground
// truth. The pair feeds cmd/validate and manual runs of cmd/digitize.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/chart.png -truth data/mock/truth.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/stripchart-etl/internal/chartgen"
	"github.com/couchcryptid/stripchart-etl/internal/digitize"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the chart PNG")
	truthOut := flag.String("truth", "", "output path for the ground-truth JSON")
	shift := flag.Int("shift", 0, "move every band boundary down by this many rows")
	flag.Parse()

	if *out == "" || *truthOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -out, -truth")
	}

	spec := chartgen.Default()
	if *shift != 0 {
		spec = spec.ShiftBands(*shift)
	}

	data, err := spec.PNG()
	if err != nil {
		return err
	}
	if err := writeFile(*out, data); err != nil {
		return err
	}

	truth, err := json.MarshalIndent(spec.Truth(digitize.DefaultParams().CropPadding), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal truth: %w", err)
	}
	if err := writeFile(*truthOut, append(truth, '\n')); err != nil {
		return err
	}

	log.Printf("chart: %s (%d bytes)", *out, len(data))
	log.Printf("truth: %s", *truthOut)
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
