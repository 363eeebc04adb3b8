package geojson

import (
	"encoding/json"
	"io"

	"github.com/opengeos/open-buildings-go/internal/geo"
)

var (
	featureCollectionPrefix = []byte(`{"type":"FeatureCollection","features":[`)
	arraySeparator          = []byte(",")
	featureCollectionSuffix = []byte("]}")
)

// FeatureWriter streams features to a GeoJSON FeatureCollection without
// holding the collection in memory.
type FeatureWriter struct {
	writer  io.Writer
	writing bool
}

func NewFeatureWriter(writer io.Writer) *FeatureWriter {
	return &FeatureWriter{writer: writer}
}

func (w *FeatureWriter) Write(feature *geo.Feature) error {
	if !w.writing {
		if _, err := w.writer.Write(featureCollectionPrefix); err != nil {
			return err
		}
		w.writing = true
	} else {
		if _, err := w.writer.Write(arraySeparator); err != nil {
			return err
		}
	}

	featureData, jsonErr := json.Marshal(feature)
	if jsonErr != nil {
		return jsonErr
	}
	_, err := w.writer.Write(featureData)
	return err
}

func (w *FeatureWriter) Close() error {
	if !w.writing {
		if _, err := w.writer.Write(featureCollectionPrefix); err != nil {
			return err
		}
	}
	if _, err := w.writer.Write(featureCollectionSuffix); err != nil {
		return err
	}
	w.writing = false

	if closer, ok := w.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
