package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/opengeos/open-buildings-go/cmd/ob/command"
)

var (
	// set via ldflags at build time
	version = "development"
	commit  = "none"
	date    = "unknown"
)

func main() {
	info := &command.VersionInfo{Version: version, Commit: commit, Date: date}
	ctx := kong.Parse(&command.CLI, kong.Bind(info))
	err := ctx.Run()
	commandErr := &command.CommandError{}
	if errors.As(err, &commandErr) {
		fmt.Fprintln(os.Stderr, commandErr.Error())
		os.Exit(1)
	}
	ctx.FatalIfErrorf(err)
}
