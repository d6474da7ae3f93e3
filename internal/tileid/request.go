// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package tileid

import (
	"fmt"
	"strconv"
	"strings"
)

// Request is a parsed "tile ..." wire message: the tile identity plus
// the optional explicit id= tag that marks it non-cancelable.
type Request struct {
	ID ID
	Tag string // empty if no id= was present
}

// ParseRequest parses a "tile part=P width=W height=H tileposx=X
// tileposy=Y tilewidth=TW tileheight=TH[ id=<id>]" message.
func ParseRequest(message string) (Request, error) {
	fields := strings.Fields(message)
	if len(fields) == 0 || fields[0] != "tile" {
		return Request{}, fmt.Errorf("not a tile request: %q", message)
	}

	kv := map[string]string{}
	for _, f := range fields[1:] {
		parts := strings.SplitN(f, "=", 2)
		if len(parts) != 2 {
			continue
		}
		kv[parts[0]] = parts[1]
	}

	required := []string{"part", "width", "height", "tileposx", "tileposy", "tilewidth", "tileheight"}
	vals := make(map[string]int, len(required))
	for _, k := range required {
		raw, ok := kv[k]
		if !ok {
			return Request{}, fmt.Errorf("tile request missing %s", k)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Request{}, fmt.Errorf("tile request field %s: %w", k, err)
		}
		vals[k] = n
	}

	return Request{
		ID: ID{
			Part:       vals["part"],
			Width:      vals["width"],
			Height:     vals["height"],
			TilePosX:   vals["tileposx"],
			TilePosY:   vals["tileposy"],
			TileWidth:  vals["tilewidth"],
			TileHeight: vals["tileheight"],
		},
		Tag: kv["id"],
	}, nil
}
