package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/paulmach/orb/encoding/wkt"
	orbjson "github.com/paulmach/orb/geojson"
)

type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

var (
	_ json.Marshaler = (*FeatureCollection)(nil)
)

func (c *FeatureCollection) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":     "FeatureCollection",
		"features": c.Features,
	}
	return json.Marshal(m)
}

type Feature struct {
	Id         any            `json:"id,omitempty"`
	Type       string         `json:"type"`
	Geometry   orb.Geometry   `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

var (
	_ json.Marshaler   = (*Feature)(nil)
	_ json.Unmarshaler = (*Feature)(nil)
)

func (f *Feature) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"type":       "Feature",
		"geometry":   orbjson.NewGeometry(f.Geometry),
		"properties": f.Properties,
	}
	if f.Id != nil {
		m["id"] = f.Id
	}
	return json.Marshal(m)
}

type jsonFeature struct {
	Id         any             `json:"id,omitempty"`
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

var rawNull = json.RawMessage([]byte("null"))

func isRawNull(raw json.RawMessage) bool {
	if len(raw) != len(rawNull) {
		return false
	}
	for i, c := range raw {
		if c != rawNull[i] {
			return false
		}
	}
	return true
}

func (f *Feature) UnmarshalJSON(data []byte) error {
	jf := &jsonFeature{}
	if err := json.Unmarshal(data, jf); err != nil {
		return err
	}

	f.Type = jf.Type
	f.Id = jf.Id
	f.Properties = jf.Properties

	if isRawNull(jf.Geometry) {
		return nil
	}
	geometry := &orbjson.Geometry{}
	if err := json.Unmarshal(jf.Geometry, geometry); err != nil {
		return err
	}

	f.Geometry = geometry.Geometry()
	return nil
}

const (
	EncodingWKB = "WKB"
	EncodingWKT = "WKT"
)

func DecodeGeometry(value any, encoding string) (orb.Geometry, error) {
	if value == nil {
		return nil, nil
	}
	if encoding == "" {
		if _, ok := value.([]byte); ok {
			encoding = EncodingWKB
		} else if _, ok := value.(string); ok {
			encoding = EncodingWKT
		}
	}
	if encoding == EncodingWKB {
		data, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("expected bytes for wkb geometry, got %T", value)
		}
		if len(data) == 0 {
			return nil, nil
		}
		return wkb.Unmarshal(data)
	}
	if encoding == EncodingWKT {
		str, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string for wkt geometry, got %T", value)
		}
		return wkt.Unmarshal(str)
	}
	return nil, fmt.Errorf("unsupported encoding: %s", encoding)
}

type Bbox struct {
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// lonRanges returns the longitude intervals covered by the box. A box with
// Xmin > Xmax crosses the antimeridian and covers two intervals.
func (box *Bbox) lonRanges() [][2]float64 {
	if box.Xmin > box.Xmax {
		return [][2]float64{{box.Xmin, 180}, {-180, box.Xmax}}
	}
	return [][2]float64{{box.Xmin, box.Xmax}}
}

// Intersects checks whether the bbox overlaps with another axis-aligned bbox.
// Boxes that cross the antimeridian carry Xmin > Xmax.
func (box1 *Bbox) Intersects(box2 *Bbox) bool {
	if box1.Ymax < box2.Ymin || box2.Ymax < box1.Ymin {
		return false
	}
	for _, r1 := range box1.lonRanges() {
		for _, r2 := range box2.lonRanges() {
			if r1[1] >= r2[0] && r2[1] >= r1[0] {
				return true
			}
		}
	}
	return false
}

func NewBboxFromBound(bound orb.Bound) *Bbox {
	return &Bbox{
		Xmin: bound.Min.X(),
		Ymin: bound.Min.Y(),
		Xmax: bound.Max.X(),
		Ymax: bound.Max.Y(),
	}
}
