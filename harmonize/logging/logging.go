// Package logging configures the logrus logger shared by the command-line tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// TimestampFormat is the timestamp layout used for console and file output.
const TimestampFormat = "2006-01-02,15:04:05.000"

// Options configures New.
type Options struct {
	// Verbose raises the level: 0 is warning, 1 is info, 2 or more is debug, 3 or more adds caller info.
	Verbose int

	// Quiet drops everything below error. Quiet wins over Verbose.
	Quiet bool

	// File, when set, receives a copy of every entry. Parent directories are created.
	File string

	// Console is the terminal stream, usually os.Stderr. Nil disables console output.
	Console io.Writer
}

// Level maps the -v count and -q flag to a logrus level.
func Level(verbose int, quiet bool) logrus.Level {
	switch {
	case quiet:
		return logrus.ErrorLevel
	case verbose >= 2:
		return logrus.DebugLevel
	case verbose == 1:
		return logrus.InfoLevel
	default:
		return logrus.WarnLevel
	}
}

// New builds a logger writing to the console and, optionally, an append-only log file.
// The returned close function flushes and closes the file; it is safe to call when no
// file was opened.
func New(opts Options) (*logrus.Logger, func() error, error) {
	l := logrus.New()
	l.SetLevel(Level(opts.Verbose, opts.Quiet))
	l.SetReportCaller(opts.Verbose >= 3 && !opts.Quiet)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: TimestampFormat,
		DisableColors:   opts.File != "",
	})

	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, opts.Console)
	}

	closeFn := func() error { return nil }
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("logging: mkdir %s: %w", dir, err)
			}
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open %s: %w", opts.File, err)
		}
		writers = append(writers, f)
		closeFn = f.Close
	}

	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}
	return l, closeFn, nil
}
