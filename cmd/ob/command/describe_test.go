package command_test

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/opengeos/open-buildings-go/cmd/ob/command"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/opengeos/open-buildings-go/internal/geoparquet"
	"github.com/paulmach/orb"
)

func (s *Suite) writeGeoParquetFixture() string {
	path := filepath.Join(s.T().TempDir(), "buildings.parquet")
	output, err := os.Create(path)
	s.Require().NoError(err)

	writer, err := geoparquet.NewFeatureWriter(&geoparquet.WriterConfig{
		Writer:      output,
		ArrowSchema: partitionSchema,
	})
	s.Require().NoError(err)
	s.Require().NoError(writer.Write(&geo.Feature{
		Geometry:   orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}},
		Properties: map[string]any{"name": "water tower"},
	}))
	s.Require().NoError(writer.Close())
	return path
}

func (s *Suite) TestDescribeJSON() {
	path := s.writeGeoParquetFixture()

	cmd := &command.DescribeCmd{Input: path, Format: "json"}
	s.Require().NoError(cmd.Run())

	info := struct {
		Schema struct {
			Fields []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"fields"`
		} `json:"schema"`
		Metadata struct {
			PrimaryColumn string `json:"primary_column"`
		} `json:"metadata"`
		Rows int64 `json:"rows"`
	}{}
	s.Require().NoError(json.Unmarshal(s.readStdout(), &info))

	s.Equal(int64(1), info.Rows)
	s.Equal("geometry", info.Metadata.PrimaryColumn)

	names := map[string]bool{}
	for _, field := range info.Schema.Fields {
		names[field.Name] = true
	}
	s.True(names["geometry"])
	s.True(names["name"])
}

func (s *Suite) TestDescribeText() {
	path := s.writeGeoParquetFixture()

	cmd := &command.DescribeCmd{Input: path}
	s.Require().NoError(cmd.Run())

	output := string(s.readStdout())
	s.Contains(output, "geometry")
	s.Contains(output, "name")
	s.Contains(output, "ROWS")
}

func (s *Suite) TestDescribeNotParquet() {
	s.writeStdin([]byte("not parquet"))
	cmd := &command.DescribeCmd{}
	s.Error(cmd.Run())
}
