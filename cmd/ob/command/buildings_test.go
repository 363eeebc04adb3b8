package command_test

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v16/arrow"
	"github.com/opengeos/open-buildings-go/cmd/ob/command"
	"github.com/opengeos/open-buildings-go/internal/geo"
	"github.com/opengeos/open-buildings-go/internal/geojson"
	"github.com/opengeos/open-buildings-go/internal/geoparquet"
	"github.com/opengeos/open-buildings-go/internal/source"
	"github.com/paulmach/orb"
	_ "gocloud.dev/blob/fileblob"
)

var partitionSchema = arrow.NewSchema([]arrow.Field{
	{Name: "geometry", Type: arrow.BinaryTypes.Binary, Nullable: true},
	{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
}, nil)

func (s *Suite) writePartition(root string, key string, features ...*geo.Feature) {
	path := filepath.Join(root, filepath.FromSlash(key))
	s.Require().NoError(os.MkdirAll(filepath.Dir(path), 0755))

	output, err := os.Create(path)
	s.Require().NoError(err)

	writer, err := geoparquet.NewFeatureWriter(&geoparquet.WriterConfig{
		Writer:      output,
		ArrowSchema: partitionSchema,
	})
	s.Require().NoError(err)
	for _, feature := range features {
		s.Require().NoError(writer.Write(feature))
	}
	s.Require().NoError(writer.Close())
}

func building(name string, cx float64, cy float64) *geo.Feature {
	return &geo.Feature{
		Geometry: orb.Polygon{{
			{cx - 0.0001, cy - 0.0001}, {cx + 0.0001, cy - 0.0001},
			{cx + 0.0001, cy + 0.0001}, {cx - 0.0001, cy - 0.0001},
		}},
		Properties: map[string]any{"name": name},
	}
}

// setupFixtures points the google source at a local bucket with one partition
// covering the testdata area of interest.
func (s *Suite) setupFixtures() {
	root := s.T().TempDir()
	s.writePartition(root, "buildings/country_iso=SC/sc.parquet",
		building("one", 55.45, -4.6),
		building("two", 55.451, -4.601),
		building("far away", 56.0, -4.6),
	)

	s.T().Setenv(source.EnvBucketURL, "file://"+root)
	s.T().Setenv(source.EnvGooglePrefix, "buildings/")
}

func (s *Suite) TestGetBuildingsDryRun() {
	s.setupFixtures()

	cmd := &command.GetBuildingsCmd{
		Geojson: "testdata/seychelles.geojson",
		Dst:     filepath.Join(s.T().TempDir(), "buildings.json"),
		Source:  "google",
		DryRun:  true,
		Silent:  true,
	}
	s.Require().NoError(cmd.Run())

	plan := struct {
		Source     string   `json:"source"`
		Quadkey    string   `json:"quadkey"`
		Partitions []string `json:"partitions"`
	}{}
	s.Require().NoError(json.Unmarshal(s.readStdout(), &plan))
	s.Equal("google", plan.Source)
	s.Equal("30100133031", plan.Quadkey)
	s.Equal([]string{"buildings/country_iso=SC/sc.parquet"}, plan.Partitions)
}

func (s *Suite) TestGetBuildings() {
	s.setupFixtures()

	dst := filepath.Join(s.T().TempDir(), "buildings.json")
	cmd := &command.GetBuildingsCmd{
		Geojson: "testdata/seychelles.geojson",
		Dst:     dst,
		Source:  "google",
	}
	s.Require().NoError(cmd.Run())
	s.Contains(string(s.readStdout()), "wrote 2 buildings")

	file, err := os.Open(dst)
	s.Require().NoError(err)
	defer file.Close()

	reader := geojson.NewFeatureReader(file)
	names := map[string]bool{}
	for {
		feature, err := reader.Read()
		if err != nil {
			break
		}
		names[feature.Properties["name"].(string)] = true
	}
	s.Len(names, 2)
	s.True(names["one"])
	s.True(names["two"])
}

func (s *Suite) TestGetBuildingsWrongCountryHint() {
	s.setupFixtures()

	dst := filepath.Join(s.T().TempDir(), "buildings.json")
	cmd := &command.GetBuildingsCmd{
		Geojson:    "testdata/seychelles.geojson",
		Dst:        dst,
		Source:     "google",
		CountryIso: "XX",
	}
	s.Require().NoError(cmd.Run())

	// the hint prints without --verbose and no empty output file is left behind
	s.Contains(string(s.readStdout()), `check the "XX" country code`)
	_, err := os.Stat(dst)
	s.True(os.IsNotExist(err))
}

func (s *Suite) TestGetBuildingsOutputExists() {
	s.setupFixtures()

	dst := filepath.Join(s.T().TempDir(), "buildings.json")
	s.Require().NoError(os.WriteFile(dst, []byte("{}"), 0644))

	cmd := &command.GetBuildingsCmd{
		Geojson: "testdata/seychelles.geojson",
		Dst:     dst,
		Source:  "google",
		Silent:  true,
	}
	err := cmd.Run()
	s.Require().Error(err)
	s.Contains(err.Error(), "already exists")
}

func (s *Suite) TestGetBuildingsDirectoryDst() {
	s.setupFixtures()

	dir := s.T().TempDir()
	cmd := &command.GetBuildingsCmd{
		Geojson: "testdata/seychelles.geojson",
		Dst:     dir,
		Source:  "google",
		Silent:  true,
	}
	s.Require().NoError(cmd.Run())

	info, err := os.Stat(filepath.Join(dir, "buildings.json"))
	s.Require().NoError(err)
	s.Greater(info.Size(), int64(0))
}
