package log

import (
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// NewTerminalHandler returns a handler writing terminal-formatted records
// of at most lvl verbosity to stderr. Colors are enabled when stderr is a
// terminal.
func NewTerminalHandler(lvl Lvl) Handler {
	usecolor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	output := io.Writer(os.Stderr)
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	return LvlFilterHandler(lvl, StreamHandler(output, TerminalFormat(usecolor)))
}
