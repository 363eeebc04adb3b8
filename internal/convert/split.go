package convert

import (
	olc "github.com/google/open-location-code/go"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

const plusCodeLength = 12

// splitMultiPolygons breaks a multipolygon feature into one feature per
// polygon part, recomputing the area and plus code for each part. A single
// part multipolygon is unwrapped with the same recomputation. Other
// geometries pass through unchanged.
func splitMultiPolygons(feature *geo.Feature) []*geo.Feature {
	multi, ok := feature.Geometry.(orb.MultiPolygon)
	if !ok || len(multi) == 0 {
		return []*geo.Feature{feature}
	}

	parts := make([]*geo.Feature, len(multi))
	for i, polygon := range multi {
		properties := make(map[string]any, len(feature.Properties))
		for k, v := range feature.Properties {
			properties[k] = v
		}
		properties[colAreaInMeters] = orbgeo.Area(polygon)
		centroid, _ := planar.CentroidArea(polygon)
		properties[colFullPlusCode] = olc.Encode(centroid.Y(), centroid.X(), plusCodeLength)
		parts[i] = &geo.Feature{Geometry: polygon, Properties: properties}
	}
	return parts
}

func expand(feature *geo.Feature, skipSplit bool) []*geo.Feature {
	if skipSplit {
		return []*geo.Feature{feature}
	}
	return splitMultiPolygons(feature)
}
