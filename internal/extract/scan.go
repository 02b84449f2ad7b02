package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/symdex/internal/discover"
	"github.com/phobologic/symdex/internal/lang"
	"github.com/phobologic/symdex/internal/model"
)

// DefaultMaxFileSize is the size above which files are skipped.
const DefaultMaxFileSize = 1_000_000 // 1 MB

// Options configures a directory scan.
type Options struct {
	// Languages restricts the scan to these registered language names.
	// Empty means every registered language.
	Languages []string
	// Ignore lists directories excluded from the walk.
	Ignore []string
	// MaxFileSize skips larger files. Zero means DefaultMaxFileSize.
	MaxFileSize int64
	Logger      *slog.Logger
}

// Result is the output of a directory scan: the files that produced at least
// one name, in visitation order, and a per-file report.
type Result struct {
	Files  []model.FileSymbols
	Report model.ScanReport
}

// Scan extracts qualified names from every supported file under root.
// Per-file failures are recorded in the report and never abort the scan.
func Scan(root string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxSize := opts.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	for _, name := range opts.Languages {
		if _, ok := lang.Languages[name]; !ok {
			return nil, fmt.Errorf("unsupported language %q", name)
		}
	}

	files, err := discover.Files(root, discover.Options{Languages: opts.Languages, Ignore: opts.Ignore})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}

	res := &Result{}
	parsers := make(map[string]*sitter.Parser)

	for _, f := range files {
		l := lang.Languages[f.Language]
		parser, ok := parsers[f.Language]
		if !ok {
			parser = l.NewParser()
			parsers[f.Language] = parser
		}

		fr := scanFile(l, parser, filepath.Join(root, f.Path), f.Path, maxSize)
		switch fr.result.Kind {
		case model.ResultReadError, model.ResultParseError:
			logger.Warn("skipping file",
				slog.String("file", f.Path),
				slog.String("kind", string(fr.result.Kind)),
				slog.Any("error", fr.result.Err))
		case model.ResultSkipped:
			logger.Warn("skipping file",
				slog.String("file", f.Path),
				slog.Int64("max_size", maxSize))
		case model.ResultOK:
			res.Files = append(res.Files, model.FileSymbols{Path: f.Path, Names: fr.names})
		}
		res.Report.Add(fr.result)
	}

	logger.Debug("scan complete",
		slog.String("root", root),
		slog.Int("visited", len(files)),
		slog.Int("with_symbols", len(res.Files)))
	return res, nil
}

type fileScan struct {
	result model.FileResult
	names  []model.QualifiedName
}

func scanFile(l *lang.Language, parser *sitter.Parser, absPath, relPath string, maxSize int64) fileScan {
	fr := fileScan{result: model.FileResult{Path: relPath}}

	fi, err := os.Stat(absPath)
	if err == nil && fi.Size() > maxSize {
		fr.result.Kind = model.ResultSkipped
		fr.result.Err = fmt.Errorf("%s: skipped (>%d bytes)", relPath, maxSize)
		return fr
	}

	source, err := os.ReadFile(absPath)
	if err != nil {
		fr.result.Kind = model.ResultReadError
		fr.result.Err = &ReadError{Path: relPath, Err: err}
		return fr
	}

	names, err := Collect(l, parser, source, relPath)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			fr.result.Kind = model.ResultParseError
		} else {
			fr.result.Kind = model.ResultReadError
		}
		fr.result.Err = err
		return fr
	}

	fr.names = names
	fr.result.Symbols = len(names)
	if len(names) == 0 {
		fr.result.Kind = model.ResultEmpty
	} else {
		fr.result.Kind = model.ResultOK
	}
	return fr
}
