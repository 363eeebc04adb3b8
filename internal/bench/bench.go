// Package bench times the CSV conversion backends against each output
// format.
package bench

import (
	"context"
	"os"
	"time"

	"github.com/opengeos/open-buildings-go/internal/convert"
	"github.com/opengeos/open-buildings-go/internal/format"
)

type Result struct {
	Backend  convert.Backend `json:"backend"`
	Format   format.Format   `json:"format"`
	Duration time.Duration   `json:"-"`
	Seconds  float64         `json:"seconds"`
}

type Options struct {
	Backends        []convert.Backend
	Formats         []format.Format
	SkipSplitMultis bool
	Progress        func(format string, args ...any)
}

// Run converts the input once per backend and format combination, writing
// outputs to a scratch directory, and reports the elapsed time of each run.
func Run(ctx context.Context, input string, options *Options) ([]*Result, error) {
	scratch, err := os.MkdirTemp("", "open-buildings-bench-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	results := make([]*Result, 0, len(options.Backends)*len(options.Formats))
	for _, backend := range options.Backends {
		for _, f := range options.Formats {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			if options.Progress != nil {
				options.Progress("timing %s to %s", backend, f)
			}
			convertOptions := &convert.Options{
				Format:          f,
				Backend:         backend,
				SkipSplitMultis: options.SkipSplitMultis,
				Overwrite:       true,
			}
			start := time.Now()
			runErr := convert.ProcessPath(ctx, input, scratch, convertOptions)
			elapsed := time.Since(start)
			if runErr != nil {
				return results, runErr
			}
			results = append(results, &Result{
				Backend:  backend,
				Format:   f,
				Duration: elapsed,
				Seconds:  elapsed.Seconds(),
			})
		}
	}
	return results, nil
}
