package format

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v16/parquet"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/opengeos/open-buildings-go/internal/geoparquet"
	"github.com/opengeos/open-buildings-go/internal/pqutil"
)

// parquetWriter buffers features so the arrow schema can be derived from the
// observed property values before any row is written.
type parquetWriter struct {
	path        string
	compression string
	features    []*geo.Feature
}

func newParquetWriter(path string, compression string) *parquetWriter {
	return &parquetWriter{path: path, compression: compression}
}

func (w *parquetWriter) Write(feature *geo.Feature) error {
	w.features = append(w.features, feature)
	return nil
}

func (w *parquetWriter) Close() error {
	builder := pqutil.NewArrowSchemaBuilder()
	if err := builder.AddGeometry(geoparquet.DefaultGeometryColumn, geoparquet.DefaultGeometryEncoding); err != nil {
		return err
	}
	resolved := map[string]bool{}
	for _, feature := range w.features {
		if err := builder.Add(feature.Properties); err != nil {
			return err
		}
		for name, value := range feature.Properties {
			if value != nil {
				resolved[name] = true
			} else if _, ok := resolved[name]; !ok {
				resolved[name] = false
			}
		}
	}
	if !builder.Ready() {
		// properties that never held a value get a string type
		fallback := map[string]any{}
		for name, ok := range resolved {
			if !ok {
				fallback[name] = ""
			}
		}
		if err := builder.Add(fallback); err != nil {
			return err
		}
	}
	arrowSchema, err := builder.Schema()
	if err != nil {
		return fmt.Errorf("could not derive schema for %s: %w", w.path, err)
	}

	var writerProps *parquet.WriterProperties
	if w.compression != "" {
		codec, codecErr := pqutil.GetCompression(w.compression)
		if codecErr != nil {
			return codecErr
		}
		writerProps = parquet.NewWriterProperties(parquet.WithCompression(codec))
	}

	output, err := os.Create(w.path)
	if err != nil {
		return err
	}

	featureWriter, err := geoparquet.NewFeatureWriter(&geoparquet.WriterConfig{
		Writer:             output,
		ArrowSchema:        arrowSchema,
		ParquetWriterProps: writerProps,
	})
	if err != nil {
		output.Close()
		return err
	}

	for _, feature := range w.features {
		if err := featureWriter.Write(feature); err != nil {
			featureWriter.Close()
			return err
		}
	}

	// the feature writer closes the underlying file
	return featureWriter.Close()
}
