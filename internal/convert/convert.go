// Package convert turns Google Open Buildings CSV archives into geospatial
// formats. Three backends produce identical output and exist so their
// relative performance can be benchmarked.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opengeos/open-buildings-go/internal/format"
)

type Backend string

const (
	// Stream parses rows one at a time with the standard CSV reader.
	Stream Backend = "stream"
	// Arrow loads the CSV in columnar batches.
	Arrow Backend = "arrow"
	// SQLite stages rows in a database table before export.
	SQLite Backend = "sqlite"
)

func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(name)) {
	case Stream:
		return Stream, nil
	case Arrow:
		return Arrow, nil
	case SQLite:
		return SQLite, nil
	}
	return "", fmt.Errorf("unknown backend %q, expected %q, %q, or %q", name, Stream, Arrow, SQLite)
}

var Backends = []Backend{Stream, Arrow, SQLite}

type Options struct {
	Format          format.Format
	Backend         Backend
	Compression     string
	SkipSplitMultis bool
	Overwrite       bool
	Progress        func(format string, args ...any)
}

func (o *Options) progress(format string, args ...any) {
	if o.Progress != nil {
		o.Progress(format, args...)
	}
}

// ProcessPath converts a CSV file, or every CSV file in a directory, writing
// the results to the output directory. Directory entries are processed
// smallest first so early failures surface quickly. Existing outputs are
// skipped unless Overwrite is set.
func ProcessPath(ctx context.Context, input string, outputDir string, options *Options) error {
	info, err := os.Stat(input)
	if err != nil {
		return err
	}

	paths := []string{input}
	if info.IsDir() {
		paths, err = csvFilesBySize(input)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return fmt.Errorf("no CSV files found in %s", input)
		}
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		output := filepath.Join(outputDir, stem+options.Format.Ext())
		if !options.Overwrite {
			if _, err := os.Stat(output); err == nil {
				options.progress("skipping %s, output exists", path)
				continue
			}
		}
		options.progress("converting %s with the %s backend", path, options.Backend)
		if err := ConvertFile(ctx, path, output, options); err != nil {
			return fmt.Errorf("failed to convert %s: %w", path, err)
		}
		options.progress("wrote %s", output)
	}
	return nil
}

// ConvertFile converts a single CSV file.
func ConvertFile(ctx context.Context, input string, output string, options *Options) error {
	writer, err := format.NewWriter(output, options.Format, &format.WriterOptions{Compression: options.Compression})
	if err != nil {
		return err
	}

	var convertErr error
	switch options.Backend {
	case Arrow:
		convertErr = convertArrow(ctx, input, writer, options)
	case SQLite:
		convertErr = convertSQLite(ctx, input, writer, options)
	default:
		convertErr = convertStream(ctx, input, writer, options)
	}
	if convertErr != nil {
		writer.Close()
		os.Remove(output)
		return convertErr
	}
	return writer.Close()
}

func csvFilesBySize(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type sized struct {
		path string
		size int64
	}
	files := []sized{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		files = append(files, sized{path: filepath.Join(dir, entry.Name()), size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].size < files[j].size })
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}
