// Command basketbot finds finished games of the tracked team on the
// supported results sites and creates their records on the wiki.
package main

import (
	"fmt"
	"os"

	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/maccabipedia/basketbot/internal/config"
	"github.com/maccabipedia/basketbot/internal/platform/logging"
)

const (
	serviceName    = "basketbot"
	serviceVersion = "1.0.0"
)

const (
	exitSuccess = 0
	exitFailure = 1
	// exitPartial means the cycle ran but some source or game failed.
	exitPartial = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           serviceName,
		Short:         "Create wiki records for finished basketball games",
		Version:       serviceVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunCmd(), newServeCmd(), newDiscoverCmd(), newMigrateCmd())
	return cmd
}

// setup loads configuration and installs the process logger.
func setup() (config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := logging.NewJSON(cfg.LogLevel).With("service", serviceName)
	logging.SetDefault(logger)
	return cfg, logger, nil
}

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		os.Exit(exitSuccess)
	}

	code := exitFailure
	if ee, ok := err.(*exitError); ok {
		code = ee.code
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
	os.Exit(code)
}
