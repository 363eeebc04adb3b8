package command_test

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/opengeos/open-buildings-go/cmd/ob/command"
)

func (s *Suite) TestBenchmarkReports() {
	outputDir := s.T().TempDir()
	cmd := &command.BenchmarkCmd{
		Input:        buildingsCsv,
		Output:       outputDir,
		Backends:     []string{"stream"},
		Formats:      []string{"fgb"},
		OutputFormat: []string{"csv", "json"},
		Silent:       true,
	}
	s.Require().NoError(cmd.Run())

	csvData, err := os.ReadFile(filepath.Join(outputDir, "buildings_benchmark.csv"))
	s.Require().NoError(err)
	lines := strings.Split(strings.TrimSpace(string(csvData)), "\n")
	s.Require().Len(lines, 2)
	s.Equal("backend,format,seconds", lines[0])
	s.True(strings.HasPrefix(lines[1], "stream,fgb,"), lines[1])

	jsonData, err := os.ReadFile(filepath.Join(outputDir, "buildings_benchmark.json"))
	s.Require().NoError(err)
	s.Contains(string(jsonData), `"backend": "stream"`)
}

func (s *Suite) TestBenchmarkAscii() {
	cmd := &command.BenchmarkCmd{
		Input:        buildingsCsv,
		Output:       s.T().TempDir(),
		Backends:     []string{"stream", "stream"},
		Formats:      []string{"parquet"},
		OutputFormat: []string{"ascii"},
		Silent:       true,
	}
	s.Require().NoError(cmd.Run())

	output := string(s.readStdout())
	s.Contains(output, "BACKEND")
	s.Contains(output, "stream")
	// the duplicate backend is collapsed, so only one result row
	s.Equal(1, strings.Count(output, "stream"))
}
