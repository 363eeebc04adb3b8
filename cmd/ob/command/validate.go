package command

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/opengeos/open-buildings-go/internal/validator"
)

type ValidateCmd struct {
	Input    string `arg:"" optional:"" name:"input" help:"Path or URL for a GeoParquet file.  If not provided, input is read from stdin."`
	Unpretty bool   `help:"No colors in text output, no newlines and indentation in JSON output."`
	Format   string `help:"Report format.  Possible values: ${enum}." enum:"text,json" default:"text"`
}

func (c *ValidateCmd) Run(ctx *kong.Context) error {
	input, inputErr := readerFromInput(c.Input)
	if inputErr != nil {
		return NewCommandError("trouble getting a reader from %q: %s", c.Input, inputErr)
	}

	inputName := c.Input
	if inputName == "" {
		inputName = "<stdin>"
	}
	report, err := validator.Validate(input, inputName)
	if err != nil {
		return NewCommandError("validation failed: %s", err)
	}

	if c.Format == "json" {
		if err := c.formatJSON(report); err != nil {
			return NewCommandError("unable to format report as json: %s", err)
		}
	} else {
		if err := c.formatText(report); err != nil {
			return NewCommandError("unable to format report: %s", err)
		}
	}

	if !report.Valid() {
		ctx.Kong.Exit(1)
	}
	return nil
}

func (c *ValidateCmd) formatJSON(report *validator.Report) error {
	encoder := json.NewEncoder(os.Stdout)
	if !c.Unpretty {
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
	}

	return encoder.Encode(report)
}

func (c *ValidateCmd) formatText(report *validator.Report) error {
	passed := 0
	failed := 0
	unrun := 0
	for _, check := range report.Checks {
		if !check.Run {
			unrun++
		} else if check.Passed {
			passed++
		} else {
			failed++
		}
	}

	summaries := []string{
		fmt.Sprintf("Passed %d check%s", passed, maybeS(passed)),
	}
	if failed > 0 {
		summaries = append(summaries, fmt.Sprintf("failed %d check%s", failed, maybeS(failed)))
	}
	if unrun > 0 {
		summaries = append(summaries, fmt.Sprintf("%d check%s not run", unrun, maybeS(unrun)))
	}

	if c.Unpretty {
		color.NoColor = true
	}

	fmt.Printf("\nSummary: %s.\n\n", strings.Join(summaries, ", "))

	passPrefix := " ✓"
	failPrefix := " ✗"
	unrunPrefix := " !"
	reasonPrefix := "   ↳"
	for _, check := range report.Checks {
		if !check.Run {
			color.Yellow("%s %s", unrunPrefix, check.Title)
			color.Yellow("%s %s", reasonPrefix, "not checked")
			continue
		}

		if check.Passed {
			color.Green("%s %s", passPrefix, check.Title)
			continue
		}

		color.Red("%s %s", failPrefix, check.Title)
		color.Red("%s %s", reasonPrefix, check.Message)
	}
	fmt.Println()

	return nil
}

func maybeS(count int) string {
	if count == 1 {
		return ""
	}
	return "s"
}
