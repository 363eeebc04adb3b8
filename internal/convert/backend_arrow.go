package convert

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/arrow/array"
	acsv "github.com/apache/arrow/go/v16/arrow/csv"
	"github.com/opengeos/open-buildings-go/internal/format"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/paulmach/orb/encoding/wkt"
)

const arrowCsvChunkSize = 4096

func convertArrow(ctx context.Context, input string, writer format.FeatureWriter, options *Options) error {
	schema, err := csvSchema(input)
	if err != nil {
		return err
	}

	file, err := os.Open(input)
	if err != nil {
		return err
	}
	defer file.Close()

	reader := acsv.NewReader(file, schema,
		acsv.WithHeader(true),
		acsv.WithChunk(arrowCsvChunkSize),
	)
	defer reader.Release()

	fields := map[string]int{}
	for i := 0; i < schema.NumFields(); i += 1 {
		fields[schema.Field(i).Name] = i
	}
	geometryIdx, ok := fields[colGeometry]
	if !ok {
		return fmt.Errorf("missing required %q column", colGeometry)
	}

	for reader.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		record := reader.Record()
		geometries := record.Column(geometryIdx).(*array.String)
		for row := 0; row < int(record.NumRows()); row += 1 {
			geometry, wktErr := wkt.Unmarshal(geometries.Value(row))
			if wktErr != nil {
				return fmt.Errorf("invalid geometry %q: %w", geometries.Value(row), wktErr)
			}
			properties := map[string]any{}
			if idx, ok := fields[colAreaInMeters]; ok {
				properties[colAreaInMeters] = record.Column(idx).(*array.Float64).Value(row)
			}
			if idx, ok := fields[colConfidence]; ok {
				properties[colConfidence] = record.Column(idx).(*array.Float64).Value(row)
			}
			if idx, ok := fields[colFullPlusCode]; ok {
				properties[colFullPlusCode] = record.Column(idx).(*array.String).Value(row)
			}
			feature := &geo.Feature{Geometry: geometry, Properties: properties}
			for _, f := range expand(feature, options.SkipSplitMultis) {
				if err := writer.Write(f); err != nil {
					return err
				}
			}
		}
	}
	return reader.Err()
}

// csvSchema peeks at the CSV header and derives an arrow schema in file
// column order.
func csvSchema(input string) (*arrow.Schema, error) {
	file, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header, err := csv.NewReader(file).Read()
	if err != nil {
		return nil, err
	}

	arrowFields := make([]arrow.Field, len(header))
	for i, name := range header {
		var dataType arrow.DataType = arrow.BinaryTypes.String
		switch name {
		case colLatitude, colLongitude, colAreaInMeters, colConfidence:
			dataType = arrow.PrimitiveTypes.Float64
		}
		arrowFields[i] = arrow.Field{Name: name, Type: dataType}
	}
	return arrow.NewSchema(arrowFields, nil), nil
}
