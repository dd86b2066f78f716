package logx

import (
	"io"
	"log"
	"os"
)

// New creates the process logger. Verbose runs get timestamped lines; normal
// runs get bare messages, matching what a user expects from a build tool.
func New(verbose bool) *log.Logger {
	return NewWriter(os.Stderr, verbose)
}

// NewWriter is New with an explicit destination, for tests.
func NewWriter(w io.Writer, verbose bool) *log.Logger {
	flags := 0
	if verbose {
		flags = log.LstdFlags | log.Lmicroseconds
	}
	return log.New(w, "", flags)
}
