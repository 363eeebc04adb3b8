package format

import (
	"os"

	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/opengeos/open-buildings-go/internal/geojson"
)

type geoJSONWriter struct {
	writer *geojson.FeatureWriter
}

func newGeoJSONWriter(file *os.File) *geoJSONWriter {
	return &geoJSONWriter{writer: geojson.NewFeatureWriter(file)}
}

func (w *geoJSONWriter) Write(feature *geo.Feature) error {
	return w.writer.Write(feature)
}

// Close finishes the feature collection. The underlying file is closed by
// the geojson writer.
func (w *geoJSONWriter) Close() error {
	return w.writer.Close()
}
