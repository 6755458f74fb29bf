// Package app holds the small CLI-facing context shared by every
// subcommand: verbosity and the structured logger it drives. It is the direct descendant of the teacher's
// bare println-based app.Context, rebuilt on logrus so multi-worker
// recovery output stays attributable (§7a).
package app

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Context carries the resolved verbosity/logger pair from command-line
// flags down into device/config/pipeline construction.
type Context struct {
	Verbose bool
	Quiet   bool

	Log *logrus.Logger
}

// New builds a Context with a text-formatted logger at the level implied
// by verbose/quiet (verbose wins if both are somehow set, since seeing
// too much is safer than silently missing a real failure).
func New(verbose, quiet bool) *Context {
	log := logrus.New()
	log.Out = os.Stderr
	switch {
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	case quiet:
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
	return &Context{Verbose: verbose, Quiet: quiet, Log: log}
}
