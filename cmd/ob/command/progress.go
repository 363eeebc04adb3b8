package command

import (
	"fmt"
	"time"

	"github.com/fatih/color"
)

// Progress prints timestamped status messages. Silent suppresses everything,
// verbose additionally prints detail messages.
type Progress struct {
	Silent  bool
	Verbose bool
}

func (p *Progress) stamp() string {
	return time.Now().Format("15:04:05")
}

// Report prints a message unless running silent.
func (p *Progress) Report(format string, args ...any) {
	if p.Silent {
		return
	}
	fmt.Printf("[%s] %s\n", p.stamp(), fmt.Sprintf(format, args...))
}

// Detail prints a message only when running verbose.
func (p *Progress) Detail(format string, args ...any) {
	if p.Silent || !p.Verbose {
		return
	}
	fmt.Printf("[%s] %s\n", p.stamp(), color.New(color.Faint).Sprintf(format, args...))
}

// Warn prints a highlighted message unless running silent.
func (p *Progress) Warn(format string, args ...any) {
	if p.Silent {
		return
	}
	fmt.Printf("[%s] %s\n", p.stamp(), color.YellowString(format, args...))
}
