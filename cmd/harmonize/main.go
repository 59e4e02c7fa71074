package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/logging"
	"github.com/theimaginaryfoundation/condition-harmonizer/harmonize/tracing"
)

// usageError marks failures caused by bad flags or arguments (exit code 2).
type usageError struct{ error }

func (e usageError) Unwrap() error { return e.error }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
	var ue usageError
	if errors.As(err, &ue) {
		os.Exit(2)
	}
	os.Exit(1)
}

// app carries state set up by the root command for its subcommands.
type app struct {
	global GlobalConfig
	stdout io.Writer
	stderr io.Writer

	log             *logrus.Logger
	closeLog        func() error
	shutdownTracing tracing.Shutdown
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{global: defaultGlobalConfig(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "harmonize",
		Short: "Match free-text condition labels in spreadsheets to ontology terms",
		Long:  `harmonize annotates condition labels from curated spreadsheets with
exact label and synonym matches from OBO ontologies (MONDO, HPO, MAXO, ...).

Results for every ontology are combined into one row per source row and written
to a timestamped .xlsx file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		return a.teardown(cmd.Context())
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.CountVarP(&a.global.Verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv debug with caller)")
	pf.BoolVarP(&a.global.Quiet, "quiet", "q", false, "Only log errors")
	pf.StringVar(&a.global.LogFile, "log-file", a.global.LogFile, "File receiving a copy of the log (empty disables)")
	pf.StringVar(&a.global.ConfigPath, "config", "", "Optional YAML layout file (sheet name, text column, group-by and aggregate columns)")
	pf.StringVar(&a.global.OTLPEndpoint, "otlp-endpoint", "", "OTLP/HTTP trace endpoint (default $"+tracing.EndpointEnv+", empty disables tracing)")

	root.AddCommand(newSearchCmd(a), newHelloCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	log, closeLog, err := logging.New(logging.Options{
		Verbose: a.global.Verbose,
		Quiet:   a.global.Quiet,
		File:    a.global.LogFile,
		Console: a.stderr,
	})
	if err != nil {
		return usageError{err}
	}
	a.log = log
	a.closeLog = closeLog

	shutdown, err := tracing.Setup(cmd.Context(), tracing.Endpoint(a.global.OTLPEndpoint), "harmonize")
	if err != nil {
		return err
	}
	a.shutdownTracing = shutdown
	log.WithField("command", cmd.Name()).Debug("starting")
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	var errs []error
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(context.WithoutCancel(ctx)); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}
	if a.closeLog != nil {
		if err := a.closeLog(); err != nil {
			errs = append(errs, err)
		}
		a.closeLog = nil
	}
	return errors.Join(errs...)
}

// fail logs err, releases resources and returns err so cobra reports it.
// PersistentPostRunE does not run when RunE fails.
func (a *app) fail(ctx context.Context, err error) error {
	if a.log != nil {
		a.log.WithError(err).Error("command failed")
	}
	_ = a.teardown(ctx)
	return err
}
