package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		verbose int
		quiet   bool
		want    logrus.Level
	}{
		{0, false, logrus.WarnLevel},
		{1, false, logrus.InfoLevel},
		{2, false, logrus.DebugLevel},
		{3, false, logrus.DebugLevel},
		{2, true, logrus.ErrorLevel},
	}
	for _, tt := range tests {
		if got := Level(tt.verbose, tt.quiet); got != tt.want {
			t.Fatalf("Level(%d, %v)=%v, want %v", tt.verbose, tt.quiet, got, tt.want)
		}
	}
}

func TestNew_FileAndConsole(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "error.log")
	l, closeFn, err := New(Options{Verbose: 1, File: path, Console: &console})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.WithField("ontology", "mondo").Info("matched 3 of 4 rows")
	l.Debug("hidden")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	for _, out := range []string{string(data), console.String()} {
		if !strings.Contains(out, "matched 3 of 4 rows") || !strings.Contains(out, "ontology=mondo") {
			t.Fatalf("log output=%q", out)
		}
		if strings.Contains(out, "hidden") {
			t.Fatalf("debug entry leaked at info level: %q", out)
		}
	}
}

func TestNew_DefaultIsWarning(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	l, closeFn, err := New(Options{Console: &console})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()
	l.Info("loaded spreadsheet")
	l.Warn("no label for MONDO:0000001")
	if out := console.String(); strings.Contains(out, "loaded spreadsheet") || !strings.Contains(out, "no label") {
		t.Fatalf("console=%q", out)
	}
}

func TestNew_Quiet(t *testing.T) {
	t.Parallel()

	var console bytes.Buffer
	l, closeFn, err := New(Options{Verbose: 2, Quiet: true, Console: &console})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()
	l.Info("progress")
	l.Error("boom")
	if out := console.String(); strings.Contains(out, "progress") || !strings.Contains(out, "boom") {
		t.Fatalf("console=%q", out)
	}
}
