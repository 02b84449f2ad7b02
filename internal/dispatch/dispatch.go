// Package dispatch routes an analyze request to the extractor for a
// language and turns whatever it produced into an Index.
package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/phobologic/symdex/internal/aggregate"
	"github.com/phobologic/symdex/internal/discover"
	"github.com/phobologic/symdex/internal/extract"
	"github.com/phobologic/symdex/internal/model"
	"github.com/phobologic/symdex/internal/protocol"
)

// State is a step of a single Analyze call.
type State int

const (
	Idle State = iota
	Resolving
	Unsupported
	Invoking
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Resolving:
		return "resolving"
	case Unsupported:
		return "unsupported"
	case Invoking:
		return "invoking"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Source says which artifact an Index was decoded from.
type Source string

const (
	SourceInProcess        Source = "in-process"
	SourceLog              Source = "log"
	SourceStdoutStructured Source = "stdout-structured"
	SourceStdoutText       Source = "stdout-text"
)

// Options configures a Dispatcher.
type Options struct {
	// Registry defaults to DefaultRegistry().
	Registry *Registry
	// Runner defaults to ExecRunner.
	Runner Runner
	// Ignore lists directories whose symbols are excluded from every Index.
	Ignore []string
	// MaxFileSize is passed to in-process scans.
	MaxFileSize int64
	// SkipLog stops in-process scans from writing their log artifact.
	SkipLog bool
	// Timeout bounds one external extractor run. Zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Result is the outcome of a completed Analyze call.
type Result struct {
	Language Language
	Dir      string
	Index    *model.Index
	Source   Source
	// Report lists per-file results; only in-process scans produce one.
	Report *model.ScanReport
}

// Dispatcher owns the current Index. Every successful Analyze replaces it;
// a failed one leaves it untouched. A Dispatcher is not safe for
// concurrent use.
type Dispatcher struct {
	registry *Registry
	runner   Runner
	opts     Options
	logger   *slog.Logger
	index    *model.Index
}

// New returns a Dispatcher with an empty Index.
func New(opts Options) *Dispatcher {
	d := &Dispatcher{
		registry: opts.Registry,
		runner:   opts.Runner,
		opts:     opts,
		logger:   opts.Logger,
		index:    &model.Index{},
	}
	if d.registry == nil {
		d.registry = DefaultRegistry()
	}
	if d.runner == nil {
		d.runner = ExecRunner{}
	}
	if d.logger == nil {
		d.logger = slog.New(slog.DiscardHandler)
	}
	return d
}

// Index returns the Index from the last successful Analyze.
func (d *Dispatcher) Index() *model.Index {
	return d.index
}

// Registry returns the registry the Dispatcher resolves languages with.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Analyze extracts the symbols of dir with the extractor registered for tag.
func (d *Dispatcher) Analyze(ctx context.Context, tag, dir string) (*Result, error) {
	state := Idle
	transition := func(next State) {
		d.logger.Debug("dispatch",
			slog.String("tag", tag),
			slog.String("from", state.String()),
			slog.String("to", next.String()))
		state = next
	}

	transition(Resolving)
	language, err := ParseLanguage(tag)
	if err != nil {
		transition(Unsupported)
		return nil, err
	}
	entry, ok := d.registry.Lookup(language)
	if !ok {
		transition(Unsupported)
		return nil, &UnsupportedLanguageError{Tag: tag}
	}

	absDir, err := checkDir(dir)
	if err != nil {
		transition(Failed)
		return nil, err
	}

	transition(Invoking)
	var res *Result
	switch entry.Mode {
	case InProcess:
		res, err = d.runInProcess(entry, absDir)
	default:
		res, err = d.runExternal(ctx, entry, absDir)
	}
	if err != nil {
		transition(Failed)
		return nil, err
	}

	if ignored := discover.NewIgnoreSet(absDir, d.opts.Ignore); !ignored.Empty() {
		res.Index = res.Index.Filter(func(path string) bool {
			if !filepath.IsAbs(path) {
				path = filepath.Join(absDir, path)
			}
			return !ignored.Contains(path)
		})
	}

	d.index = res.Index
	transition(Completed)
	return res, nil
}

func checkDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", abs)
	}
	return abs, nil
}

func (d *Dispatcher) runInProcess(entry Entry, dir string) (*Result, error) {
	scan, err := extract.Scan(dir, extract.Options{
		Languages:   []string{entry.LangName},
		Ignore:      d.opts.Ignore,
		MaxFileSize: d.opts.MaxFileSize,
		Logger:      d.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%s scan: %w", entry.Language, err)
	}

	if !d.opts.SkipLog {
		logPath := filepath.Join(dir, entry.LogName)
		if err := protocol.WriteFile(logPath, scan.Files); err != nil {
			return nil, fmt.Errorf("%s scan: %w", entry.Language, err)
		}
		d.logger.Debug("wrote log", slog.String("path", logPath), slog.Int("files", len(scan.Files)))
	}

	return &Result{
		Language: entry.Language,
		Dir:      dir,
		Index:    aggregate.FromSymbols(scan.Files),
		Source:   SourceInProcess,
		Report:   &scan.Report,
	}, nil
}

func (d *Dispatcher) runExternal(ctx context.Context, entry Entry, dir string) (*Result, error) {
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	logPath := filepath.Join(dir, entry.LogName)
	before := statArtifact(logPath)
	if before.exists {
		// A rerun can rewrite an identical log within one mtime tick.
		if err := os.Remove(logPath); err != nil {
			d.logger.Debug("keeping previous log", slog.String("path", logPath), slog.Any("error", err))
		} else {
			before = artifact{}
		}
	}

	d.logger.Debug("running extractor",
		slog.String("language", entry.Language.String()),
		slog.String("command", entry.Command.String()),
		slog.String("dir", dir))

	out, err := d.runner.Run(ctx, entry.Command, dir)
	if err != nil {
		return nil, &ProcessExecutionError{
			Language: entry.Language,
			Command:  entry.Command.String(),
			ExitCode: -1,
			Stderr:   string(out.Stderr),
			Err:      err,
		}
	}
	if out.ExitCode != 0 {
		return nil, &ProcessExecutionError{
			Language: entry.Language,
			Command:  entry.Command.String(),
			ExitCode: out.ExitCode,
			Stderr:   string(out.Stderr),
		}
	}

	idx, source, err := d.decodeOutput(logPath, before, out.Stdout)
	if err != nil {
		return nil, err
	}
	return &Result{Language: entry.Language, Dir: dir, Index: idx, Source: source}, nil
}

// decodeOutput tries, in order, the log artifact, stdout as a structured
// payload, and stdout as an interchange log. The first decode that
// succeeds wins.
func (d *Dispatcher) decodeOutput(logPath string, before artifact, stdout []byte) (*model.Index, Source, error) {
	var logErr error

	after := statArtifact(logPath)
	switch {
	case !after.exists:
	case after == before:
		d.logger.Debug("ignoring stale log", slog.String("path", logPath))
	default:
		data, err := os.ReadFile(logPath)
		if err != nil {
			logErr = &aggregate.FormatError{Reason: fmt.Sprintf("reading %s: %v", logPath, err)}
			break
		}
		idx, err := aggregate.Decode(data)
		if err == nil {
			return idx, SourceLog, nil
		}
		logErr = err
		d.logger.Debug("log not decodable", slog.String("path", logPath), slog.Any("error", err))
	}

	if len(bytes.TrimSpace(stdout)) > 0 {
		if aggregate.LooksStructured(stdout) {
			idx, err := aggregate.DecodeStructured(stdout)
			if err == nil {
				return idx, SourceStdoutStructured, nil
			}
			d.logger.Debug("stdout is not a structured payload", slog.Any("error", err))
		}
		idx, err := aggregate.DecodeText(stdout)
		if err == nil {
			return idx, SourceStdoutText, nil
		}
		d.logger.Debug("stdout is not an interchange log", slog.Any("error", err))
	}

	if logErr != nil && aggregate.IsFormatError(logErr) {
		return nil, "", logErr
	}
	return nil, "", &aggregate.FormatError{Reason: fmt.Sprintf("no decodable artifact: %s is missing or unchanged and stdout is not decodable", filepath.Base(logPath))}
}

// artifact is a snapshot of a log file used to tell a fresh log from one
// left over by an earlier run that could not be removed.
type artifact struct {
	exists  bool
	size    int64
	modTime time.Time
}

func statArtifact(path string) artifact {
	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		return artifact{}
	}
	return artifact{exists: true, size: fi.Size(), modTime: fi.ModTime()}
}

// IsUnsupported reports whether err is an *UnsupportedLanguageError.
func IsUnsupported(err error) bool {
	var uerr *UnsupportedLanguageError
	return errors.As(err, &uerr)
}
