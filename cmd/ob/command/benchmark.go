package command

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/opengeos/open-buildings-go/internal/bench"
	"github.com/opengeos/open-buildings-go/internal/convert"
	"github.com/opengeos/open-buildings-go/internal/format"
	"golang.org/x/term"
)

type BenchmarkCmd struct {
	Input           string   `arg:"" name:"input" help:"Path to a CSV file, or a directory of CSV files." type:"existingpath"`
	Output          string   `arg:"" optional:"" name:"output" help:"Directory for csv and json reports.  Defaults to the directory of the input."`
	Backends        []string `help:"Backends to time.  Possible values: stream, arrow, sqlite." default:"stream,arrow,sqlite"`
	Formats         []string `help:"Formats to time.  Possible values: fgb, parquet, gpkg, shp." default:"fgb,parquet,gpkg,shp"`
	OutputFormat    []string `name:"output-format" help:"Report formats.  Possible values: ${enum}." enum:"ascii,csv,json" default:"ascii"`
	SkipSplitMultis bool     `help:"Keep multipolygons whole instead of splitting them into single buildings."`
	Silent          bool     `help:"Suppress progress output."`
	Verbose         bool     `help:"Print per-run progress."`
}

func (c *BenchmarkCmd) Run() error {
	backends := make([]convert.Backend, 0, len(c.Backends))
	for _, name := range c.Backends {
		backend, err := convert.ParseBackend(name)
		if err != nil {
			return NewCommandError("%s", err)
		}
		if !slices.Contains(backends, backend) {
			backends = append(backends, backend)
		}
	}
	formats := make([]format.Format, 0, len(c.Formats))
	for _, name := range c.Formats {
		f, err := format.Parse(name)
		if err != nil {
			return NewCommandError("%s", err)
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}

	progress := &Progress{Silent: c.Silent, Verbose: c.Verbose}
	options := &bench.Options{
		Backends:        backends,
		Formats:         formats,
		SkipSplitMultis: c.SkipSplitMultis,
		Progress:        progress.Report,
	}
	results, err := bench.Run(context.Background(), c.Input, options)
	if err != nil {
		return err
	}

	outputDir := c.Output
	if outputDir == "" {
		outputDir = filepath.Dir(c.Input)
	}
	stem := strings.TrimSuffix(filepath.Base(c.Input), filepath.Ext(c.Input))

	for _, reportFormat := range c.OutputFormat {
		switch reportFormat {
		case "csv":
			path := filepath.Join(outputDir, stem+"_benchmark.csv")
			file, createErr := os.Create(path)
			if createErr != nil {
				return createErr
			}
			writeErr := bench.WriteCSV(file, results)
			if closeErr := file.Close(); writeErr == nil {
				writeErr = closeErr
			}
			if writeErr != nil {
				return writeErr
			}
			progress.Report("wrote %s", path)
		case "json":
			path := filepath.Join(outputDir, stem+"_benchmark.json")
			file, createErr := os.Create(path)
			if createErr != nil {
				return createErr
			}
			writeErr := bench.WriteJSON(file, results)
			if closeErr := file.Close(); writeErr == nil {
				writeErr = closeErr
			}
			if writeErr != nil {
				return writeErr
			}
			progress.Report("wrote %s", path)
		default:
			width := 0
			if term.IsTerminal(int(os.Stdout.Fd())) {
				if w, _, sizeErr := term.GetSize(int(os.Stdout.Fd())); sizeErr == nil {
					width = w
				}
			}
			bench.WriteText(os.Stdout, results, width)
		}
	}
	return nil
}
