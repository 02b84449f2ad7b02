package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/phobologic/symdex/internal/aggregate"
	"github.com/phobologic/symdex/internal/dispatch"
	"github.com/phobologic/symdex/internal/extract"
	"github.com/phobologic/symdex/internal/lang"
	"github.com/phobologic/symdex/internal/model"
	"github.com/phobologic/symdex/internal/protocol"
	"github.com/phobologic/symdex/internal/store"
	"github.com/phobologic/symdex/internal/toon"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <language> <directory>",
		Short: "Extract the symbols of a directory and print the index",
		Long: `Run the extractor registered for <language> over <directory> and print the
resulting index. Python, Go, Ruby and JavaScript are extracted in-process;
Java, C, C++ and Rust run an external extractor whose log artifact (or
stdout) is decoded.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.dispatcher()
			if err != nil {
				return err
			}
			res, err := d.Analyze(cmd.Context(), args[0], args[1])
			if err != nil {
				if dispatch.IsUnsupported(err) {
					return fmt.Errorf("%w (run `symdex languages` for the supported set)", err)
				}
				return err
			}

			files, functions, classes, methods := res.Index.Counts()
			attrs := []any{
				slog.String("language", res.Language.String()),
				slog.String("source", string(res.Source)),
				slog.Int("files", files),
				slog.Int("functions", functions),
				slog.Int("classes", classes),
				slog.Int("methods", methods),
			}
			if res.Report != nil {
				attrs = append(attrs, slog.Int("failed", len(res.Report.Failures())))
			}
			a.logger.Info("analyzed", attrs...)

			if err := a.saveSnapshot(res); err != nil {
				return err
			}
			return a.print(toon.Header{
				Dir:      res.Dir,
				Language: res.Language.String(),
				Source:   string(res.Source),
			}, res.Index)
		},
	}
}

func (a *app) saveSnapshot(res *dispatch.Result) error {
	s, err := a.openStore()
	if err != nil || s == nil {
		return err
	}
	defer s.Close()

	err = s.Save(store.Snapshot{
		Dir:      res.Dir,
		Language: res.Language.String(),
		Source:   string(res.Source),
		Created:  time.Now().UTC(),
		Index:    res.Index,
	})
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	a.logger.Debug("saved snapshot", slog.String("dir", res.Dir), slog.String("database", a.cfg.Database))
	return nil
}

func newScanCmd(a *app) *cobra.Command {
	var langs []string
	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Run the in-process extractors and print their log",
		Long: `Extract names from every Python, Go, Ruby and JavaScript file under
<directory> and print them. The default output is the interchange log, the
same text the in-process extractors leave behind during analyze.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range langs {
				if _, ok := lang.Languages[name]; !ok {
					return fmt.Errorf("unsupported language %q", name)
				}
			}
			root, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving root: %w", err)
			}
			info, err := os.Stat(root)
			if err != nil {
				return fmt.Errorf("root path: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s: not a directory", root)
			}

			res, err := extract.Scan(root, extract.Options{
				Languages:   langs,
				Ignore:      a.cfg.Ignore,
				MaxFileSize: a.cfg.MaxFileSize,
				Logger:      a.logger,
			})
			if err != nil {
				return err
			}
			a.logger.Info("scanned",
				slog.Int("files", len(res.Report.Results)),
				slog.Int("with_symbols", res.Report.Count(model.ResultOK)),
				slog.Int("failed", len(res.Report.Failures())))

			if !cmd.Flags().Changed("format") && a.symbol == "" && a.file == "" && a.maxFiles == 0 {
				return protocol.Encode(a.stdout, res.Files)
			}
			if !cmd.Flags().Changed("format") {
				a.format = formatLog
			}
			return a.print(toon.Header{Dir: root}, aggregate.FromSymbols(res.Files))
		},
	}
	cmd.Flags().StringSliceVarP(&langs, "langs", "l", nil, "languages to include: "+strings.Join(lang.Names(), ", "))
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Decode an extractor artifact and print the index",
		Long: `Decode an interchange log or structured JSON payload read from [file], or
from standard input when no file (or "-") is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("reading artifact: %w", err)
			}

			idx, err := aggregate.Decode(data)
			if err != nil {
				var ferr *aggregate.FormatError
				if errors.As(err, &ferr) && ferr.Partial != nil {
					a.logger.Warn("decoded partially", slog.Int("files", len(ferr.Partial.Files)))
				}
				return err
			}
			return a.print(toon.Header{}, idx)
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [directory]",
		Short: "Print the last saved index for a directory",
		Long: `Print the snapshot saved by the last successful analyze of [directory], or
the most recent snapshot of any directory when none is given. Requires a
snapshot database (--db or "database:" in the config file).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			if s == nil {
				return errors.New("no snapshot database configured (use --db)")
			}
			defer s.Close()

			var snap *store.Snapshot
			if len(args) == 0 {
				snap, err = s.Latest()
			} else {
				var dir string
				dir, err = filepath.Abs(args[0])
				if err == nil {
					snap, err = s.Load(dir)
				}
			}
			if err != nil {
				return err
			}
			if snap == nil {
				return errors.New("no snapshot found")
			}
			a.logger.Debug("loaded snapshot", slog.String("dir", snap.Dir), slog.Time("created", snap.Created))
			return a.print(toon.Header{
				Dir:      snap.Dir,
				Language: snap.Language,
				Source:   snap.Source,
			}, snap.Index)
		},
	}
}

func newLanguagesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the supported languages and their extractors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "LANGUAGE\tTAGS\tMODE\tEXTRACTOR\tLOG")
			for _, e := range reg.Entries() {
				extractor := e.Command.String()
				if e.Mode == dispatch.InProcess {
					extractor = "tree-sitter " + strings.Join(lang.Languages[e.LangName].Extensions, " ")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					e.Language, strings.Join(e.Language.Tags(), ","), e.Mode, extractor, e.LogName)
			}
			return tw.Flush()
		},
	}
}
