// symdex extracts function, class and method names from source trees and
// unifies them into a single symbol index.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/phobologic/symdex/internal/config"
	"github.com/phobologic/symdex/internal/dispatch"
	"github.com/phobologic/symdex/internal/store"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(&app{stdout: stdout, stderr: stderr})
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// app carries the state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath  string
	verbose     bool
	format      string
	ignore      []string
	timeout     time.Duration
	dbPath      string
	maxFileSize int64
	noLog       bool
	symbol      string
	file        string
	maxFiles    int

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "symdex",
		Short:         "Unified function and class index across languages",
		Long:          "Run a per-language symbol extractor over a directory and merge its output into one index of files, functions, classes and methods.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetVersionTemplate("symdex {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ./"+config.DefaultFile+" if present)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.StringVarP(&a.format, "format", "f", formatTOON, "output format: toon, json or log")
	pf.StringSliceVar(&a.ignore, "ignore", nil, "directories to exclude (repeatable)")
	pf.DurationVar(&a.timeout, "timeout", 0, "limit for one external extractor run (0 = none)")
	pf.StringVar(&a.dbPath, "db", "", "snapshot database path")
	pf.Int64Var(&a.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes")
	pf.BoolVar(&a.noLog, "no-log", false, "do not write the log artifact for in-process languages")
	pf.StringVar(&a.symbol, "symbol", "", "only show symbols whose name contains this (case-insensitive)")
	pf.StringVar(&a.file, "file", "", "only show files whose path contains this (case-insensitive)")
	pf.IntVarP(&a.maxFiles, "max-files", "n", 0, "maximum number of files to show")

	root.AddCommand(
		newAnalyzeCmd(a),
		newScanCmd(a),
		newDecodeCmd(a),
		newShowCmd(a),
		newLanguagesCmd(a),
		newInitCmd(a),
	)
	return root
}

// setup builds the logger and resolves the effective configuration. Flags
// set on the command line win over the config file.
func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	if _, err := parseFormat(a.format); err != nil {
		return err
	}

	path, optional := a.configPath, false
	if path == "" {
		path, optional = config.DefaultFile, true
	}
	cfg, err := config.Load(path, optional)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("ignore") {
		cfg.Ignore = a.ignore
	}
	if flags.Changed("timeout") {
		cfg.Timeout = a.timeout
	}
	if flags.Changed("db") {
		cfg.Database = a.dbPath
	}
	if flags.Changed("max-file-size") {
		if a.maxFileSize <= 0 {
			return fmt.Errorf("--max-file-size must be positive, got %d", a.maxFileSize)
		}
		cfg.MaxFileSize = a.maxFileSize
	}
	if flags.Changed("no-log") {
		enabled := !a.noLog
		cfg.WriteLog = &enabled
	}
	a.cfg = cfg

	a.logger.Debug("config loaded",
		slog.String("path", path),
		slog.Int("ignore", len(cfg.Ignore)),
		slog.Duration("timeout", cfg.Timeout),
		slog.String("database", cfg.Database))
	return nil
}

func (a *app) registry() (*dispatch.Registry, error) {
	reg := dispatch.DefaultRegistry()
	base := "."
	if a.configPath != "" {
		base = filepath.Dir(a.configPath)
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	if err := a.cfg.Apply(reg, base); err != nil {
		return nil, err
	}
	return reg, nil
}

func (a *app) dispatcher() (*dispatch.Dispatcher, error) {
	reg, err := a.registry()
	if err != nil {
		return nil, err
	}
	return dispatch.New(dispatch.Options{
		Registry:    reg,
		Ignore:      a.cfg.Ignore,
		MaxFileSize: a.cfg.MaxFileSize,
		SkipLog:     !a.cfg.LogEnabled(),
		Timeout:     a.cfg.Timeout,
		Logger:      a.logger,
	}), nil
}

// openStore opens the snapshot database, or returns nil when none is
// configured.
func (a *app) openStore() (*store.Store, error) {
	if a.cfg.Database == "" {
		return nil, nil
	}
	return store.Open(a.cfg.Database)
}
