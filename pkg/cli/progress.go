package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// startSpinner shows msg with a spinner on terminals and returns the function that stops it
func startSpinner(w io.Writer, msg string) func() {
	f, ok := w.(*os.File)
	if !ok {
		return func() {}
	}
	if info, err := f.Stat(); err != nil || info.Mode()&os.ModeCharDevice == 0 {
		return func() {}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = " " + msg
	s.Start()
	return s.Stop
}
