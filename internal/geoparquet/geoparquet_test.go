package geoparquet_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/apache/arrow/go/v16/parquet"
	"github.com/apache/arrow/go/v16/parquet/file"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/opengeos/open-buildings-go/internal/geoparquet"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = arrow.NewSchema([]arrow.Field{
	{Name: "geometry", Type: arrow.BinaryTypes.Binary, Nullable: true},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
	{Name: "area", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
}, nil)

func testFeature(name string, area float64, cx float64, cy float64) *geo.Feature {
	return &geo.Feature{
		Geometry: orb.Polygon{{
			{cx - 0.001, cy - 0.001}, {cx + 0.001, cy - 0.001},
			{cx + 0.001, cy + 0.001}, {cx - 0.001, cy - 0.001},
		}},
		Properties: map[string]any{"name": name, "area": area},
	}
}

func writeTestFile(t *testing.T, schema *arrow.Schema, features []*geo.Feature, props *parquet.WriterProperties) []byte {
	buffer := &bytes.Buffer{}
	writer, err := geoparquet.NewFeatureWriter(&geoparquet.WriterConfig{
		Writer:             buffer,
		ArrowSchema:        schema,
		ParquetWriterProps: props,
	})
	require.NoError(t, err)
	for _, feature := range features {
		require.NoError(t, writer.Write(feature))
	}
	require.NoError(t, writer.Close())
	return buffer.Bytes()
}

func readAllFeatures(t *testing.T, data []byte, config *geoparquet.ReaderConfig) []*geo.Feature {
	if config == nil {
		config = &geoparquet.ReaderConfig{}
	}
	if config.File == nil {
		config.Reader = bytes.NewReader(data)
	}
	reader, err := geoparquet.NewRecordReader(config)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	features := []*geo.Feature{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		batch, err := geoparquet.FeaturesFromRecord(record, reader.Metadata())
		require.NoError(t, err)
		features = append(features, batch...)
	}
	return features
}

func TestFeatureWriterRoundTrip(t *testing.T) {
	written := []*geo.Feature{
		testFeature("first", 10.5, 55.45, -4.6),
		testFeature("second", 20.25, 55.46, -4.61),
	}
	data := writeTestFile(t, testSchema, written, nil)

	features := readAllFeatures(t, data, nil)
	require.Len(t, features, 2)
	assert.Equal(t, "first", features[0].Properties["name"])
	assert.Equal(t, 10.5, features[0].Properties["area"])
	require.IsType(t, orb.Polygon{}, features[0].Geometry)
	assert.Equal(t, "second", features[1].Properties["name"])
}

func TestFeatureWriterMetadata(t *testing.T) {
	features := []*geo.Feature{testFeature("one", 1, 10, 20)}
	data := writeTestFile(t, testSchema, features, nil)

	fileReader, err := file.NewParquetReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = fileReader.Close() }()

	metadata, err := geoparquet.GetMetadata(fileReader.MetaData().KeyValueMetadata())
	require.NoError(t, err)
	assert.Equal(t, geoparquet.Version, metadata.Version)
	assert.Equal(t, "geometry", metadata.PrimaryColumn)

	column := metadata.Columns[metadata.PrimaryColumn]
	require.NotNil(t, column)
	assert.Equal(t, geo.EncodingWKB, column.Encoding)
	assert.Equal(t, []string{"Polygon"}, column.GetGeometryTypes())
	require.Len(t, column.Bounds, 4)
	assert.InDelta(t, 9.999, column.Bounds[0], 0.0001)
	assert.InDelta(t, 20.001, column.Bounds[3], 0.0001)
}

func TestGetMetadataMissing(t *testing.T) {
	_, err := geoparquet.GetMetadataValue(nil)
	assert.ErrorIs(t, err, geoparquet.ErrNoMetadata)
}

func TestRecordReaderColumnProjection(t *testing.T) {
	features := []*geo.Feature{testFeature("one", 1, 10, 20)}
	data := writeTestFile(t, testSchema, features, nil)

	fileReader, err := file.NewParquetReader(bytes.NewReader(data))
	require.NoError(t, err)

	parquetSchema := fileReader.MetaData().Schema
	columns := []int{
		parquetSchema.ColumnIndexByName("geometry"),
		parquetSchema.ColumnIndexByName("name"),
	}

	read := readAllFeatures(t, nil, &geoparquet.ReaderConfig{File: fileReader, Columns: columns})
	require.Len(t, read, 1)
	assert.Equal(t, "one", read[0].Properties["name"])
	assert.NotContains(t, read[0].Properties, "area")
	assert.NotNil(t, read[0].Geometry)
}

func TestRecordReaderColumnsRequirePrimaryGeometry(t *testing.T) {
	features := []*geo.Feature{testFeature("one", 1, 10, 20)}
	data := writeTestFile(t, testSchema, features, nil)

	fileReader, err := file.NewParquetReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = fileReader.Close() }()

	nameIdx := fileReader.MetaData().Schema.ColumnIndexByName("name")
	_, readerErr := geoparquet.NewRecordReader(&geoparquet.ReaderConfig{
		File:    fileReader,
		Columns: []int{nameIdx},
	})
	assert.ErrorContains(t, readerErr, "primary geometry column")
}

func TestRecordWriterDefaultMetadata(t *testing.T) {
	buffer := &bytes.Buffer{}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "geometry", Type: arrow.BinaryTypes.Binary, Nullable: true},
	}, nil)
	writer, err := geoparquet.NewRecordWriter(&geoparquet.WriterConfig{
		Writer:      buffer,
		ArrowSchema: schema,
	})
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	fileReader, err := file.NewParquetReader(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)
	defer func() { _ = fileReader.Close() }()

	metadata, err := geoparquet.GetMetadata(fileReader.MetaData().KeyValueMetadata())
	require.NoError(t, err)
	assert.Equal(t, geoparquet.Version, metadata.Version)
}

func TestRecordWriterCustomGeoMetadata(t *testing.T) {
	buffer := &bytes.Buffer{}
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "geometry", Type: arrow.BinaryTypes.Binary, Nullable: true},
	}, nil)
	writer, err := geoparquet.NewRecordWriter(&geoparquet.WriterConfig{
		Writer:      buffer,
		ArrowSchema: schema,
	})
	require.NoError(t, err)
	require.NoError(t, writer.AppendKeyValueMetadata(geoparquet.MetadataKey, "not json"))
	require.NoError(t, writer.Close())

	fileReader, err := file.NewParquetReader(bytes.NewReader(buffer.Bytes()))
	require.NoError(t, err)
	defer func() { _ = fileReader.Close() }()

	value, err := geoparquet.GetMetadataValue(fileReader.MetaData().KeyValueMetadata())
	require.NoError(t, err)
	assert.Equal(t, "not json", value)
}
