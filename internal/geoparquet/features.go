package geoparquet

import (
	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
	"github.com/opengeos/open-buildings-go/internal/geo"
)

// FeaturesFromRecord converts the rows of an arrow record to features,
// decoding every geometry column named by the geo metadata.
func FeaturesFromRecord(record arrow.Record, geoMetadata *Metadata) ([]*geo.Feature, error) {
	arr := array.RecordToStructArray(record)
	defer arr.Release()

	schema := record.Schema()
	features := make([]*geo.Feature, arr.Len())
	for rowNum := 0; rowNum < arr.Len(); rowNum += 1 {
		feature := &geo.Feature{Properties: map[string]any{}}
		for fieldNum := 0; fieldNum < arr.NumField(); fieldNum += 1 {
			value := arr.Field(fieldNum).GetOneForMarshal(rowNum)
			name := schema.Field(fieldNum).Name
			if geomColumn, ok := geoMetadata.Columns[name]; ok {
				g, decodeErr := geo.DecodeGeometry(value, geomColumn.Encoding)
				if decodeErr != nil {
					return nil, decodeErr
				}
				if name == geoMetadata.PrimaryColumn {
					feature.Geometry = g
					continue
				}
				feature.Properties[name] = g
				continue
			}
			feature.Properties[name] = value
		}
		features[rowNum] = feature
	}
	return features, nil
}
