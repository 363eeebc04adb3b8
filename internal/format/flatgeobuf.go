package format

import (
	"fmt"
	"os"

	"github.com/opengeos/open-buildings-go/internal/geo"
	orbjson "github.com/paulmach/orb/geojson"
	flatgeobuf "github.com/tingold/orb-flatgeobuf"
)

// flatGeobufWriter buffers features and writes the file on Close. The
// FlatGeobuf encoder needs the full collection to build its spatial index.
type flatGeobufWriter struct {
	path     string
	features []*orbjson.Feature
}

func newFlatGeobufWriter(path string) *flatGeobufWriter {
	return &flatGeobufWriter{path: path}
}

func (w *flatGeobufWriter) Write(feature *geo.Feature) error {
	converted := orbjson.NewFeature(feature.Geometry)
	converted.Properties = orbjson.Properties(feature.Properties)
	w.features = append(w.features, converted)
	return nil
}

func (w *flatGeobufWriter) Close() error {
	output, err := os.Create(w.path)
	if err != nil {
		return err
	}

	collection := orbjson.NewFeatureCollection()
	collection.Features = w.features

	options := &flatgeobuf.Options{
		Name:         "buildings",
		IncludeIndex: true,
		CRS:          flatgeobuf.WGS84(),
	}
	if len(collection.Features) > 0 {
		if err := flatgeobuf.WriteFeatures(output, collection, options); err != nil {
			output.Close()
			return fmt.Errorf("failed to write %s: %w", w.path, err)
		}
	}
	return output.Close()
}
