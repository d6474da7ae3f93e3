// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package tileid defines tile identity, its canonical on-disk filename
// encoding, and the invalidation-rectangle intersection rule shared by
// the tile cache and the wire protocol parser.
package tileid

import (
	"fmt"
	"strconv"
	"strings"
)

// ID identifies a single rendered tile within one document part.
type ID struct {
	Part         int
	Width        int
	Height       int
	TilePosX     int
	TilePosY     int
	TileWidth    int
	TileHeight   int
}

// FileName returns the canonical on-disk filename for id. The encoding
// is implementation-defined but round-trips through Parse.
func (id ID) FileName() string {
	return fmt.Sprintf(
		"tile_part=%d_width=%d_height=%d_tileposx=%d_tileposy=%d_tilewidth=%d_tileheight=%d.png",
		id.Part, id.Width, id.Height, id.TilePosX, id.TilePosY, id.TileWidth, id.TileHeight,
	)
}

// Parse recovers an ID from a filename produced by FileName. It returns
// false if fileName is not a validly-encoded tile filename.
func Parse(fileName string) (ID, bool) {
	name := strings.TrimSuffix(fileName, ".png")
	name = strings.TrimPrefix(name, "tile_")

	fields := map[string]int{}
	for _, part := range strings.Split(name, "_") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return ID{}, false
		}
		n, err := strconv.Atoi(kv[1])
		if err != nil {
			return ID{}, false
		}
		fields[kv[0]] = n
	}

	keys := []string{"part", "width", "height", "tileposx", "tileposy", "tilewidth", "tileheight"}
	for _, k := range keys {
		if _, ok := fields[k]; !ok {
			return ID{}, false
		}
	}

	return ID{
		Part:       fields["part"],
		Width:      fields["width"],
		Height:     fields["height"],
		TilePosX:   fields["tileposx"],
		TilePosY:   fields["tileposy"],
		TileWidth:  fields["tilewidth"],
		TileHeight: fields["tileheight"],
	}, true
}

// Rect is an invalidation rectangle on a document part. Part == -1
// means "all parts".
type Rect struct {
	Part   int
	X      int
	Y      int
	Width  int
	Height int
}

// Intersects reports whether the tile at id intersects the rectangle r,
// per the component-wise rule in spec.md §4.2: same part (or r covers
// all parts) and the two axis-aligned rectangles overlap.
func (r Rect) Intersects(id ID) bool {
	if r.Part != -1 && id.Part != r.Part {
		return false
	}
	x0, y0, w0, h0 := id.TilePosX, id.TilePosY, id.TileWidth, id.TileHeight
	if x0+w0 <= r.X || r.X+r.Width <= x0 {
		return false
	}
	if y0+h0 <= r.Y || r.Y+r.Height <= y0 {
		return false
	}
	return true
}

// ParseInvalidateTiles parses the wire form
// "invalidatetiles: part x y w h" emitted by a worker.
func ParseInvalidateTiles(message string) (Rect, error) {
	msg := strings.TrimPrefix(message, "invalidatetiles:")
	fields := strings.Fields(msg)
	if len(fields) != 5 {
		return Rect{}, fmt.Errorf("invalidatetiles: expected 5 fields, got %d", len(fields))
	}

	nums := make([]int, 5)
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return Rect{}, fmt.Errorf("invalidatetiles: invalid field %q: %w", f, err)
		}
		nums[i] = n
	}

	return Rect{Part: nums[0], X: nums[1], Y: nums[2], Width: nums[3], Height: nums[4]}, nil
}
