package format

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/paulmach/orb"
)

// shapefileWriter buffers features and writes the .shp/.shx/.dbf set on
// Close. DBF fields are inferred from the observed property values and names
// are truncated to the 10-character DBF limit.
type shapefileWriter struct {
	path     string
	features []*geo.Feature
}

func newShapefileWriter(path string) *shapefileWriter {
	return &shapefileWriter{path: path}
}

func (w *shapefileWriter) Write(feature *geo.Feature) error {
	w.features = append(w.features, feature)
	return nil
}

func (w *shapefileWriter) Close() error {
	writer, err := shp.Create(w.path, shp.POLYGON)
	if err != nil {
		return err
	}

	names, fields := w.dbfFields()
	if err := writer.SetFields(fields); err != nil {
		writer.Close()
		return fmt.Errorf("failed to set DBF fields: %w", err)
	}

	for _, feature := range w.features {
		shape, shapeErr := polygonShape(feature.Geometry)
		if shapeErr != nil {
			writer.Close()
			return shapeErr
		}
		row := int(writer.Write(shape))
		for fieldNum, name := range names {
			value := feature.Properties[name]
			if value == nil {
				continue
			}
			if err := writer.WriteAttribute(row, fieldNum, value); err != nil {
				writer.Close()
				return fmt.Errorf("failed to write attribute %s: %w", name, err)
			}
		}
	}
	writer.Close()
	return w.fixDbfName()
}

// fixDbfName repairs the DBF sidecar name. go-shp derives the sidecar from
// the .shp path with the extension stripped and appends "dbf" without a dot,
// so "buildings.shp" gets a "buildingsdbf" sidecar.
func (w *shapefileWriter) fixDbfName() error {
	base := strings.TrimSuffix(w.path, filepath.Ext(w.path))
	misnamed := base + "dbf"
	if _, err := os.Stat(misnamed); err != nil {
		return nil
	}
	return os.Rename(misnamed, base+".dbf")
}

func (w *shapefileWriter) dbfFields() ([]string, []shp.Field) {
	types := map[string]string{}
	for _, feature := range w.features {
		for name, value := range feature.Properties {
			if types[name] != "" {
				continue
			}
			switch value.(type) {
			case nil:
				if _, ok := types[name]; !ok {
					types[name] = ""
				}
			case bool, int, int32, int64:
				types[name] = "number"
			case float32, float64:
				types[name] = "float"
			default:
				types[name] = "string"
			}
		}
	}

	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]shp.Field, len(names))
	for i, name := range names {
		short := name
		if len(short) > 10 {
			short = short[:10]
		}
		switch types[name] {
		case "number":
			fields[i] = shp.NumberField(short, 19)
		case "float":
			fields[i] = shp.FloatField(short, 19, 11)
		default:
			fields[i] = shp.StringField(short, 254)
		}
	}
	return names, fields
}

func polygonShape(geometry orb.Geometry) (shp.Shape, error) {
	var rings []orb.Ring
	switch g := geometry.(type) {
	case orb.Polygon:
		rings = g
	case orb.MultiPolygon:
		for _, polygon := range g {
			rings = append(rings, polygon...)
		}
	default:
		return nil, fmt.Errorf("cannot write %s geometry to a shapefile", geometry.GeoJSONType())
	}

	parts := make([][]shp.Point, len(rings))
	for i, ring := range rings {
		points := make([]shp.Point, len(ring))
		for j, point := range ring {
			points[j] = shp.Point{X: point.X(), Y: point.Y()}
		}
		parts[i] = points
	}
	return (*shp.Polygon)(shp.NewPolyLine(parts)), nil
}
