// Package logging wraps logrus with the structured fields the driver and
// compiler stages attach to every trace line (source file, compilation
// stage, elapsed time).
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide structured logger, writing to stderr so stdout
// stays free for the compiler's own output (none currently, but §6 reserves
// it).
var Log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

// SetVerbose raises the logger to Debug level, enabling per-stage traces.
func SetVerbose(verbose bool) {
	if verbose {
		Log.SetLevel(logrus.DebugLevel)
	} else {
		Log.SetLevel(logrus.InfoLevel)
	}
}

// Stage returns a logger scoped to one compilation stage of one source file,
// for the driver to trace pipeline progress.
func Stage(file, stage string) *logrus.Entry {
	return Log.WithFields(logrus.Fields{"file": file, "stage": stage})
}
