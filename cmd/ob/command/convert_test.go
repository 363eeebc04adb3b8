package command_test

import (
	"os"
	"path/filepath"

	"github.com/opengeos/open-buildings-go/cmd/ob/command"
)

const buildingsCsv = "../../../internal/convert/testdata/buildings.csv"

func (s *Suite) TestConvert() {
	outputDir := s.T().TempDir()
	cmd := &command.ConvertCmd{
		Input:   buildingsCsv,
		Output:  outputDir,
		Format:  "fgb",
		Backend: "stream",
		Silent:  true,
	}
	s.Require().NoError(cmd.Run())

	info, err := os.Stat(filepath.Join(outputDir, "buildings.fgb"))
	s.Require().NoError(err)
	s.Greater(info.Size(), int64(0))
}

func (s *Suite) TestConvertUnknownBackend() {
	cmd := &command.ConvertCmd{
		Input:   buildingsCsv,
		Output:  s.T().TempDir(),
		Format:  "fgb",
		Backend: "duckdb",
	}
	err := cmd.Run()
	s.Require().Error(err)
	s.Contains(err.Error(), "unknown backend")
}

func (s *Suite) TestConvertReportsProgress() {
	outputDir := s.T().TempDir()
	cmd := &command.ConvertCmd{
		Input:   buildingsCsv,
		Output:  outputDir,
		Format:  "parquet",
		Backend: "arrow",
	}
	s.Require().NoError(cmd.Run())

	output := string(s.readStdout())
	s.Contains(output, "converting")
	s.Contains(output, "buildings.parquet")
}
