package geojson_test

import (
	"io"
	"strings"
	"testing"

	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/opengeos/open-buildings-go/internal/geojson"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, input string) []*geo.Feature {
	reader := geojson.NewFeatureReader(strings.NewReader(input))
	features := []*geo.Feature{}
	for {
		feature, err := reader.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		features = append(features, feature)
	}
	return features
}

func TestFeatureCollection(t *testing.T) {
	features := readAll(t, `{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [1, 2]},
				"properties": {"name": "first"}
			},
			{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [3, 4]},
				"properties": {"name": "second"}
			}
		]
	}`)

	require.Len(t, features, 2)
	assert.Equal(t, orb.Point{1, 2}, features[0].Geometry)
	assert.Equal(t, "first", features[0].Properties["name"])
	assert.Equal(t, orb.Point{3, 4}, features[1].Geometry)
	assert.Equal(t, "second", features[1].Properties["name"])
}

func TestEmptyFeatureCollection(t *testing.T) {
	features := readAll(t, `{"type": "FeatureCollection", "features": []}`)
	assert.Len(t, features, 0)
}

func TestSingleFeature(t *testing.T) {
	features := readAll(t, `{
		"type": "Feature",
		"geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]},
		"properties": {"confidence": 0.8}
	}`)

	require.Len(t, features, 1)
	require.IsType(t, orb.Polygon{}, features[0].Geometry)
	assert.Equal(t, 0.8, features[0].Properties["confidence"])
}

func TestBareGeometry(t *testing.T) {
	features := readAll(t, `{"type": "Point", "coordinates": [1, 2]}`)
	require.Len(t, features, 1)
	assert.Equal(t, orb.Point{1, 2}, features[0].Geometry)
}

func TestBareGeometryCoordinatesFirst(t *testing.T) {
	features := readAll(t, `{"coordinates": [1, 2], "type": "Point"}`)
	require.Len(t, features, 1)
	assert.Equal(t, orb.Point{1, 2}, features[0].Geometry)
}

func TestGeometryCollection(t *testing.T) {
	features := readAll(t, `{
		"type": "GeometryCollection",
		"geometries": [
			{"type": "Point", "coordinates": [1, 2]},
			{"type": "Point", "coordinates": [3, 4]}
		]
	}`)

	require.Len(t, features, 1)
	collection, ok := features[0].Geometry.(orb.Collection)
	require.True(t, ok)
	assert.Len(t, collection, 2)
}

func TestFeatureWithId(t *testing.T) {
	features := readAll(t, `{
		"type": "Feature",
		"id": "building-1",
		"geometry": {"type": "Point", "coordinates": [1, 2]},
		"properties": {}
	}`)

	require.Len(t, features, 1)
	assert.Equal(t, "building-1", features[0].Id)
}

func TestNotGeoJSON(t *testing.T) {
	reader := geojson.NewFeatureReader(strings.NewReader(`{"random": "object"}`))
	_, err := reader.Read()
	assert.Error(t, err)
}

func TestReadAOI(t *testing.T) {
	aoi, err := geojson.ReadAOI(strings.NewReader(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]},
				"properties": {}
			}
		]
	}`))
	require.NoError(t, err)
	require.IsType(t, orb.Polygon{}, aoi)
}

func TestReadAOIBareGeometry(t *testing.T) {
	aoi, err := geojson.ReadAOI(strings.NewReader(`{"type": "Point", "coordinates": [1, 2]}`))
	require.NoError(t, err)
	assert.Equal(t, orb.Point{1, 2}, aoi)
}

func TestReadAOIEmpty(t *testing.T) {
	_, err := geojson.ReadAOI(strings.NewReader(""))
	assert.EqualError(t, err, "empty GeoJSON input")
}

func TestReadAOINoGeometry(t *testing.T) {
	_, err := geojson.ReadAOI(strings.NewReader(`{
		"type": "FeatureCollection",
		"features": [{"type": "Feature", "geometry": null, "properties": {}}]
	}`))
	assert.EqualError(t, err, "GeoJSON input has no geometry")
}
