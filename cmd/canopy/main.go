// Command canopy is the admin console for the organization hierarchy and
// the dictionary and application catalogs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/jacentio/canopy/catalog"
	"github.com/jacentio/canopy/hierarchy"
	"github.com/jacentio/canopy/internal/app"
	"github.com/jacentio/canopy/internal/config"
	"github.com/jacentio/canopy/internal/loggers"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitInvalid = 3
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// console carries the global flags and the open application into every
// command.
type console struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	envFile  string
	driver   string
	dbPath   string
	logLevel string
	policy   string
	metrics  bool

	app *app.App
}

func execute(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	c := &console{in: in, out: out, errOut: errOut}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if c.metrics {
			c.writeMetrics()
		}
		if cerr := c.app.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err == nil {
		return exitOK
	}

	fmt.Fprintln(errOut, "error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch {
	case errors.Is(err, hierarchy.ErrValidation), errors.Is(err, catalog.ErrValidation), errors.Is(err, hierarchy.ErrCycle):
		return exitInvalid
	}
	return exitFailure
}

func newRootCmd(c *console) *cobra.Command {
	root := &cobra.Command{
		Use:           "canopy",
		Short:         "Admin console for organizations, dictionaries and applications",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.open(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.envFile, "env-file", ".env", "Dotenv file to load before reading the environment")
	flags.StringVar(&c.driver, "driver", "", "Storage driver: sqlite, dynamodb or memory (env CANOPY_DRIVER)")
	flags.StringVar(&c.dbPath, "db", "", "SQLite database path (env CANOPY_DB)")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error (env CANOPY_LOG_LEVEL)")
	flags.StringVar(&c.policy, "level-policy", "", "Level maintenance: cascade or shallow (env CANOPY_LEVEL_POLICY)")
	flags.BoolVar(&c.metrics, "metrics", false, "Print store metrics to stderr on exit")

	root.AddCommand(
		newOrgCmd(c),
		newDictCmd(c),
		newContentCmd(c),
		newAppCmd(c),
		newMigrateCmd(c),
		newShellCmd(c),
	)
	return root
}

// open loads configuration, applies flag overrides and opens the store.
func (c *console) open(cmd *cobra.Command) error {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return withCode(exitUsage, err)
	}

	flags := cmd.Flags()
	if flags.Changed("driver") {
		if err := cfg.SetDriver(c.driver); err != nil {
			return withCode(exitUsage, err)
		}
	}
	if flags.Changed("db") {
		cfg.Store.Path = c.dbPath
	}
	if flags.Changed("log-level") {
		if err := cfg.SetLogLevel(c.logLevel); err != nil {
			return withCode(exitUsage, err)
		}
	}
	if flags.Changed("level-policy") {
		policy, err := hierarchy.ParseLevelPolicy(c.policy)
		if err != nil {
			return withCode(exitUsage, err)
		}
		cfg.LevelPolicy = policy
	}

	logger := loggers.New(c.errOut, cfg.LogLevel)
	a, err := app.Open(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *console) writeMetrics() {
	families, err := c.app.Gatherer.Gather()
	if err != nil {
		fmt.Fprintln(c.errOut, "gather metrics:", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(c.errOut, mf); err != nil {
			fmt.Fprintln(c.errOut, "write metrics:", err)
			return
		}
	}
}

func newMigrateCmd(c *console) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Provision storage tables (DynamoDB tables and indexes)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Migrate(cmd.Context(), timeout); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "%d tables ready\n", len(c.app.Registry.All()))
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "How long to wait for each table to become active")
	return cmd
}
