package convert

import (
	"fmt"
	"strconv"

	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/paulmach/orb/encoding/wkt"
)

// The Google Open Buildings CSV layout.
const (
	colLatitude     = "latitude"
	colLongitude    = "longitude"
	colAreaInMeters = "area_in_meters"
	colConfidence   = "confidence"
	colGeometry     = "geometry"
	colFullPlusCode = "full_plus_code"
)

type csvColumns struct {
	areaInMeters int
	confidence   int
	geometry     int
	fullPlusCode int
}

func mapColumns(header []string) (*csvColumns, error) {
	columns := &csvColumns{areaInMeters: -1, confidence: -1, geometry: -1, fullPlusCode: -1}
	for i, name := range header {
		switch name {
		case colAreaInMeters:
			columns.areaInMeters = i
		case colConfidence:
			columns.confidence = i
		case colGeometry:
			columns.geometry = i
		case colFullPlusCode:
			columns.fullPlusCode = i
		}
	}
	if columns.geometry == -1 {
		return nil, fmt.Errorf("missing required %q column", colGeometry)
	}
	return columns, nil
}

// rowToFeature builds a feature from one CSV row. The latitude and longitude
// columns are redundant with the geometry and are dropped.
func (c *csvColumns) rowToFeature(row []string) (*geo.Feature, error) {
	geometry, err := wkt.Unmarshal(row[c.geometry])
	if err != nil {
		return nil, fmt.Errorf("invalid geometry %q: %w", row[c.geometry], err)
	}

	properties := map[string]any{}
	if c.areaInMeters >= 0 {
		area, err := strconv.ParseFloat(row[c.areaInMeters], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", colAreaInMeters, row[c.areaInMeters], err)
		}
		properties[colAreaInMeters] = area
	}
	if c.confidence >= 0 {
		confidence, err := strconv.ParseFloat(row[c.confidence], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s value %q: %w", colConfidence, row[c.confidence], err)
		}
		properties[colConfidence] = confidence
	}
	if c.fullPlusCode >= 0 {
		properties[colFullPlusCode] = row[c.fullPlusCode]
	}

	return &geo.Feature{Geometry: geometry, Properties: properties}, nil
}
