package command

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opengeos/open-buildings-go/internal/storage"
)

var CLI struct {
	GetBuildings GetBuildingsCmd `cmd:"" name:"get-buildings" help:"Download buildings for an area of interest."`
	Convert      ConvertCmd      `cmd:"" help:"Convert Google Open Buildings CSV files to geospatial formats."`
	Benchmark    BenchmarkCmd    `cmd:"" help:"Time the conversion backends against the output formats."`
	Tools        ToolsCmd        `cmd:"" help:"Utilities for working with GeoJSON and quadkeys."`
	Describe     DescribeCmd     `cmd:"" help:"Describe a GeoParquet file."`
	Validate     ValidateCmd     `cmd:"" help:"Validate GeoParquet metadata."`
	Version      VersionCmd      `cmd:"" help:"Print the version of this program."`
}

type ReaderAtSeeker interface {
	io.Reader
	io.ReaderAt
	io.Seeker
}

// CommandError distinguishes failures the user can act on from bugs. The
// message is printed without a stack trace.
type CommandError struct {
	message string
}

func (e *CommandError) Error() string {
	return e.message
}

func NewCommandError(format string, args ...any) *CommandError {
	return &CommandError{message: fmt.Sprintf(format, args...)}
}

func hasStdin() bool {
	stats, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return stats.Size() > 0
}

// readerFromInput gets a random access reader for a local path, a url, or
// stdin when the name is empty.
func readerFromInput(name string) (ReaderAtSeeker, error) {
	if name == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("trouble reading from stdin: %w", err)
		}
		return bytes.NewReader(data), nil
	}
	if strings.Contains(name, "://") {
		return storage.Open(context.Background(), name)
	}
	return os.Open(name)
}
