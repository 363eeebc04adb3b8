package command

import (
	"context"

	"github.com/opengeos/open-buildings-go/internal/convert"
	"github.com/opengeos/open-buildings-go/internal/format"
)

type ConvertCmd struct {
	Input           string `arg:"" name:"input" help:"Path to a CSV file, or a directory of CSV files." type:"existingpath"`
	Output          string `arg:"" name:"output" help:"Directory for the converted output."`
	Format          string `help:"Output format.  Possible values: ${enum}." enum:"fgb,parquet,gpkg,shp" default:"fgb"`
	Backend         string `help:"Conversion backend.  Possible values: ${enum}." enum:"stream,arrow,sqlite" default:"stream"`
	Compression     string `help:"Compression codec for parquet output.  Possible values: ${enum}." enum:"uncompressed,snappy,gzip,brotli,zstd,lz4" default:"zstd"`
	SkipSplitMultis bool   `help:"Keep multipolygons whole instead of splitting them into single buildings."`
	Overwrite       bool   `help:"Overwrite existing output files."`
	Silent          bool   `help:"Suppress progress output."`
	Verbose         bool   `help:"Print per-file progress."`
}

func (c *ConvertCmd) Run() error {
	outputFormat, err := format.Parse(c.Format)
	if err != nil {
		return NewCommandError("%s", err)
	}
	backend, err := convert.ParseBackend(c.Backend)
	if err != nil {
		return NewCommandError("%s", err)
	}

	progress := &Progress{Silent: c.Silent, Verbose: c.Verbose}
	options := &convert.Options{
		Format:          outputFormat,
		Backend:         backend,
		Compression:     c.Compression,
		SkipSplitMultis: c.SkipSplitMultis,
		Overwrite:       c.Overwrite,
		Progress:        progress.Report,
	}
	return convert.ProcessPath(context.Background(), c.Input, c.Output, options)
}
