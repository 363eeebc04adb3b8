package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opengeos/open-buildings-go/internal/format"
	"github.com/opengeos/open-buildings-go/internal/geojson"
	"github.com/opengeos/open-buildings-go/internal/source"
	"github.com/paulmach/orb"
)

type GetBuildingsCmd struct {
	Geojson     string `arg:"" optional:"" name:"geojson" help:"Path to a GeoJSON file with the area of interest.  If not provided, input is read from stdin." type:"existingfile"`
	Dst         string `arg:"" optional:"" name:"dst" default:"buildings.json" help:"Output file, or a directory to hold buildings.json.  The extension selects the format."`
	Source      string `help:"Building footprint source.  Possible values: ${enum}." enum:"google,overture" default:"google"`
	CountryIso  string `name:"country-iso" help:"Two letter country code that limits the partitions scanned."`
	Compression string `help:"Compression codec for parquet output.  Possible values: ${enum}." enum:"uncompressed,snappy,gzip,brotli,zstd,lz4" default:"zstd"`
	DryRun      bool   `help:"Print the query plan without downloading anything."`
	Overwrite   bool   `help:"Overwrite an existing output file."`
	Silent      bool   `help:"Suppress progress output."`
	Verbose     bool   `help:"Print per-partition progress."`
}

// aoiFromInput reads the area of interest from a GeoJSON file, or from stdin
// when the name is empty.
func aoiFromInput(name string) (orb.Geometry, error) {
	if name == "" {
		if !hasStdin() {
			return nil, NewCommandError("provide a GeoJSON file argument or pipe GeoJSON to stdin")
		}
		return geojson.ReadAOI(os.Stdin)
	}
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read from %q: %w", name, err)
	}
	defer file.Close()
	return geojson.ReadAOI(file)
}

func (c *GetBuildingsCmd) Run() error {
	aoi, err := aoiFromInput(c.Geojson)
	if err != nil {
		return err
	}

	sourceName, err := source.Parse(c.Source)
	if err != nil {
		return NewCommandError("%s", err)
	}

	dst := c.Dst
	if info, statErr := os.Stat(dst); statErr == nil && info.IsDir() {
		dst = filepath.Join(dst, "buildings.json")
	}
	outputFormat, err := format.FromPath(dst)
	if err != nil {
		return NewCommandError("%s", err)
	}
	if !c.Overwrite && !c.DryRun {
		if _, statErr := os.Stat(dst); statErr == nil {
			return NewCommandError("%s already exists, use --overwrite to replace it", dst)
		}
	}

	ctx := context.Background()
	client, err := source.NewClient(ctx, sourceName)
	if err != nil {
		return err
	}
	defer client.Close()

	progress := &Progress{Silent: c.Silent, Verbose: c.Verbose}
	query := &source.Query{
		AOI:        aoi,
		CountryISO: c.CountryIso,
		// Overture carries nested columns that only parquet output can hold.
		FlatColumnsOnly: sourceName == source.Overture && outputFormat != format.Parquet,
		Progress:        progress.Detail,
	}

	if c.DryRun {
		plan, planErr := client.Plan(ctx, query)
		if planErr != nil {
			return planErr
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(plan)
	}

	writer, err := format.NewWriter(dst, outputFormat, &format.WriterOptions{Compression: c.Compression})
	if err != nil {
		return err
	}

	progress.Report("querying %s buildings", sourceName)
	count, err := client.Run(ctx, query, writer)
	if err != nil {
		writer.Close()
		os.Remove(dst)
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	if count == 0 {
		os.Remove(dst)
		if c.CountryIso != "" {
			progress.Warn("no buildings found, check the %q country code", c.CountryIso)
		} else {
			progress.Report("no buildings found in the area of interest")
		}
		return nil
	}

	progress.Report("wrote %d building%s to %s", count, maybeS(count), dst)
	return nil
}
