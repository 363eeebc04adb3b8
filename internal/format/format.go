// Package format writes building features to the supported output formats.
// The format is chosen by name or inferred from the output file extension.
package format

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opengeos/open-buildings-go/internal/geo"
)

type Format string

const (
	GeoJSON    Format = "geojson"
	FlatGeobuf Format = "fgb"
	Parquet    Format = "parquet"
	GeoPackage Format = "gpkg"
	Shapefile  Format = "shp"
)

func Parse(name string) (Format, error) {
	switch Format(strings.ToLower(name)) {
	case GeoJSON, "json":
		return GeoJSON, nil
	case FlatGeobuf:
		return FlatGeobuf, nil
	case Parquet:
		return Parquet, nil
	case GeoPackage:
		return GeoPackage, nil
	case Shapefile:
		return Shapefile, nil
	}
	return "", fmt.Errorf("unknown format %q", name)
}

// FromPath infers the output format from a file extension.
func FromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer format, %q has no extension", path)
	}
	f, err := Parse(ext)
	if err != nil {
		return "", fmt.Errorf("unsupported output extension %q, expected json, geojson, fgb, parquet, gpkg, or shp", ext)
	}
	return f, nil
}

// Ext returns the canonical file extension for a format.
func (f Format) Ext() string {
	if f == GeoJSON {
		return ".geojson"
	}
	return "." + string(f)
}

// A FeatureWriter accepts features one at a time. Some formats buffer until
// Close, which finishes the file.
type FeatureWriter interface {
	Write(feature *geo.Feature) error
	Close() error
}

// WriterOptions tune the output encoding. Compression names a parquet codec
// and is ignored by the other formats.
type WriterOptions struct {
	Compression string
}

func (o *WriterOptions) compression() string {
	if o == nil {
		return ""
	}
	return o.Compression
}

// NewWriter creates a feature writer for the given output path and format.
// A nil options uses the defaults.
func NewWriter(path string, f Format, options *WriterOptions) (FeatureWriter, error) {
	switch f {
	case GeoJSON:
		file, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		return newGeoJSONWriter(file), nil
	case FlatGeobuf:
		return newFlatGeobufWriter(path), nil
	case Parquet:
		return newParquetWriter(path, options.compression()), nil
	case GeoPackage:
		return newGeoPackageWriter(path), nil
	case Shapefile:
		return newShapefileWriter(path), nil
	}
	return nil, fmt.Errorf("unknown format %q", f)
}
