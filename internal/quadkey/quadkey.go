// Package quadkey maps between geometries and the quadkey spatial index used
// by the partitioned building archives.
package quadkey

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxZoom matches the deepest level used by the upstream dataset partitions.
const MaxZoom = 12

// FromBound returns the quadkey of the smallest single tile (at MaxZoom or
// above) that contains the bound. An empty string means no single tile up to
// zoom 0 contains the bound.
func FromBound(bound orb.Bound) string {
	for zoom := MaxZoom; zoom >= 0; zoom-- {
		z := maptile.Zoom(zoom)
		min := maptile.At(bound.Min, z)
		max := maptile.At(bound.Max, z)
		if min == max {
			return Format(min)
		}
	}
	return ""
}

// FromGeometry returns the covering quadkey for any geometry.
func FromGeometry(g orb.Geometry) string {
	if g == nil {
		return ""
	}
	return FromBound(g.Bound())
}

// Format renders a tile as a base-4 quadkey string of length equal to the
// tile zoom.
func Format(tile maptile.Tile) string {
	if tile.Z == 0 {
		return ""
	}
	key := strconv.FormatUint(tile.Quadkey(), 4)
	if pad := int(tile.Z) - len(key); pad > 0 {
		key = strings.Repeat("0", pad) + key
	}
	return key
}

// Parse converts a quadkey string back to a tile.
func Parse(key string) (maptile.Tile, error) {
	if key == "" {
		return maptile.Tile{}, nil
	}
	value, err := strconv.ParseUint(key, 4, 64)
	if err != nil {
		return maptile.Tile{}, fmt.Errorf("invalid quadkey %q: %w", key, err)
	}
	return maptile.FromQuadkey(value, maptile.Zoom(len(key))), nil
}

// Bound returns the geographic bound of a quadkey tile.
func Bound(key string) (orb.Bound, error) {
	tile, err := Parse(key)
	if err != nil {
		return orb.Bound{}, err
	}
	return tile.Bound(), nil
}

// Overlaps reports whether two quadkeys address overlapping tiles. One tile
// overlaps another exactly when one key is a prefix of the other.
func Overlaps(a string, b string) bool {
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}
