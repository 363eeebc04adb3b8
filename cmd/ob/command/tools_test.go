package command_test

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/opengeos/open-buildings-go/cmd/ob/command"
)

func (s *Suite) TestToolsQuadkeyFromFile() {
	cmd := &command.QuadkeyCmd{Geojson: "testdata/seychelles.geojson"}
	s.Require().NoError(cmd.Run())
	s.Equal("30100133031\n", string(s.readStdout()))
}

func (s *Suite) TestToolsQuadkeyFromStdin() {
	data, err := os.ReadFile("testdata/seychelles.geojson")
	s.Require().NoError(err)
	s.writeStdin(data)

	cmd := &command.QuadkeyCmd{}
	s.Require().NoError(cmd.Run())
	s.Equal("30100133031\n", string(s.readStdout()))
}

func (s *Suite) TestToolsQuadkeyNoInput() {
	cmd := &command.QuadkeyCmd{}
	err := cmd.Run()
	s.Require().Error(err)
	s.Contains(err.Error(), "pipe GeoJSON to stdin")
}

func (s *Suite) TestToolsWkt() {
	cmd := &command.WktCmd{Geojson: "testdata/seychelles.geojson"}
	s.Require().NoError(cmd.Run())
	output := string(s.readStdout())
	s.True(strings.HasPrefix(output, "POLYGON"), output)
	s.Contains(output, "55.44 -4.61")
}

func (s *Suite) TestToolsQuad2json() {
	cmd := &command.Quad2jsonCmd{Quadkey: "301001330310"}
	s.Require().NoError(cmd.Run())

	collection := struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
			Geometry   struct {
				Type        string        `json:"type"`
				Coordinates [][][]float64 `json:"coordinates"`
			} `json:"geometry"`
		} `json:"features"`
	}{}
	s.Require().NoError(json.Unmarshal(s.readStdout(), &collection))

	s.Equal("FeatureCollection", collection.Type)
	s.Require().Len(collection.Features, 1)
	feature := collection.Features[0]
	s.Equal("301001330310", feature.Properties["quadkey"])
	s.Equal("Polygon", feature.Geometry.Type)
	s.Require().Len(feature.Geometry.Coordinates, 1)
	s.Len(feature.Geometry.Coordinates[0], 5)
}

func (s *Suite) TestToolsQuad2jsonInvalid() {
	cmd := &command.Quad2jsonCmd{Quadkey: "0147"}
	s.Error(cmd.Run())
}
