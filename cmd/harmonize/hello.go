package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newHelloCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hello",
		Short: "Smoke-test logging: greets, then logs a recovered runtime error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runHello(a)
			return nil
		},
	}
}

// runHello divides by zero at run time and logs the recovered panic with its
// stack at error level, so the log file setup can be checked end to end.
func runHello(a *app) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithField("stack", string(debug.Stack())).Errorf("hello: %v", r)
		}
	}()

	a.log.Info("Hello from harmonize")
	divisor := 0
	fmt.Fprintln(a.stdout, 1/divisor)
}
