// Package worldio implements the CLI tools' `--load <path>` world
// persistence, an opaque save-file format (spec.md §6: "no persistence
// scheme design beyond the save-file contract being opaque"). It
// round-trips a World's tiles and seed through encoding/gob, the same
// way the teacher's dungeon package round-trips an Artifact through
// encoding/json — just swapped for gob since nothing outside this
// toolkit needs to read the file.
package worldio

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/masterblaster1999/isocity/pkg/isoworld"
)

// snapshot is the gob-encoded wire shape. World itself keeps its
// fields unexported, so save/load goes through this plain mirror
// plus isoworld's exported accessors/mutators.
type snapshot struct {
	W, H  int
	Seed  uint64
	Tiles []isoworld.Tile
}

// SaveWorld writes world to path as a gob-encoded snapshot.
func SaveWorld(path string, world *isoworld.World) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("worldio: create %s: %w", path, err)
	}
	defer f.Close()

	w, h := world.Width(), world.Height()
	snap := snapshot{W: w, H: h, Seed: world.Seed(), Tiles: make([]isoworld.Tile, w*h)}
	for i := range snap.Tiles {
		snap.Tiles[i] = world.AtIndex(i)
	}

	if err := gob.NewEncoder(f).Encode(&snap); err != nil {
		return fmt.Errorf("worldio: encode %s: %w", path, err)
	}
	return nil
}

// LoadWorld reads a World previously written by SaveWorld.
func LoadWorld(path string) (*isoworld.World, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("worldio: open %s: %w", path, err)
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("worldio: decode %s: %w", path, err)
	}
	if snap.W < 0 || snap.H < 0 || len(snap.Tiles) != snap.W*snap.H {
		return nil, fmt.Errorf("worldio: %s has inconsistent dimensions %dx%d for %d tiles", path, snap.W, snap.H, len(snap.Tiles))
	}

	world := isoworld.NewWorld(snap.W, snap.H, snap.Seed)
	for i, t := range snap.Tiles {
		x, y := isoworld.XY(i, snap.W)
		if err := world.Set(x, y, t); err != nil {
			return nil, fmt.Errorf("worldio: restore tile %d: %w", i, err)
		}
	}
	return world, nil
}
