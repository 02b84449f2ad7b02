// Package protocol implements the line-oriented interchange format that
// extractors use to hand symbol names to the aggregator.
//
// A log is a sequence of file blocks. Each block is a header line followed
// by one indented entry per qualified name:
//
//	file: pkg/a.py
//	  - Foo.bar
//	  - baz
//
// Files without names are omitted. Readers ignore blank lines and
// surrounding whitespace.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/phobologic/symdex/internal/model"
)

const (
	// HeaderPrefix starts a file header line.
	HeaderPrefix = "file:"
	// EntryPrefix starts a qualified-name line, after indentation.
	EntryPrefix = "- "

	// legacyHeaderPrefix is written by older external extractors.
	legacyHeaderPrefix = "文件:"

	indent = "  "

	maxLineSize = 1 << 20
)

var (
	// ErrEmptyName is returned for an entry without a name.
	ErrEmptyName = errors.New("empty qualified name")
	// ErrAmbiguousName is returned for a name with more than one separator.
	ErrAmbiguousName = errors.New("qualified name has more than one separator")
)

// ParseName splits the wire form of a qualified name. A name with no
// separator is a function; one separator yields (owner, member).
func ParseName(s string) (model.QualifiedName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.QualifiedName{}, ErrEmptyName
	}
	switch strings.Count(s, model.Separator) {
	case 0:
		return model.QualifiedName{Member: s}, nil
	case 1:
		owner, member, _ := strings.Cut(s, model.Separator)
		if owner == "" || member == "" {
			return model.QualifiedName{}, fmt.Errorf("%q: %w", s, ErrEmptyName)
		}
		return model.QualifiedName{Owner: owner, Member: member}, nil
	default:
		return model.QualifiedName{}, fmt.Errorf("%q: %w", s, ErrAmbiguousName)
	}
}

// FormatName returns the wire form of q, refusing names that would not
// parse back into the same owner and member.
func FormatName(q model.QualifiedName) (string, error) {
	if q.Member == "" {
		return "", ErrEmptyName
	}
	if strings.Contains(q.Owner, model.Separator) || strings.Contains(q.Member, model.Separator) {
		return "", fmt.Errorf("%q: %w", q.String(), ErrAmbiguousName)
	}
	return q.String(), nil
}

// Encode writes files in order. Files with no names produce no output.
func Encode(w io.Writer, files []model.FileSymbols) error {
	bw := bufio.NewWriter(w)
	for _, f := range files {
		if len(f.Names) == 0 {
			continue
		}
		if strings.ContainsAny(f.Path, "\r\n") {
			return fmt.Errorf("path %q contains a line break", f.Path)
		}
		if _, err := fmt.Fprintf(bw, "%s %s\n", HeaderPrefix, filepath.ToSlash(f.Path)); err != nil {
			return err
		}
		for _, q := range f.Names {
			name, err := FormatName(q)
			if err != nil {
				return fmt.Errorf("%s: %w", f.Path, err)
			}
			if _, err := fmt.Fprintf(bw, "%s%s%s\n", indent, EntryPrefix, name); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteFile encodes files to path. The log is written to a temporary file in
// the same directory and renamed into place, so a failed write never leaves
// a truncated log behind.
func WriteFile(path string, files []model.FileSymbols) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating log: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = Encode(tmp, files); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	return nil
}

// RecordKind identifies what a log line holds.
type RecordKind int

const (
	// Invalid is a non-blank line that is neither a header nor an entry.
	Invalid RecordKind = iota
	Header
	Entry
)

func (k RecordKind) String() string {
	switch k {
	case Header:
		return "header"
	case Entry:
		return "entry"
	default:
		return "invalid"
	}
}

// Record is one non-blank line of a log.
type Record struct {
	Kind RecordKind
	Line int    // 1-based line number
	Text string // trimmed line
	// Value is the path for headers and the raw qualified name for entries.
	Value string
}

// Reader reads records from a log, skipping blank lines.
type Reader struct {
	sc   *bufio.Scanner
	line int
	rec  Record
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Reader{sc: sc}
}

// Next advances to the next non-blank line. It returns false at end of
// input or on a read error, which Err reports.
func (r *Reader) Next() bool {
	for r.sc.Scan() {
		r.line++
		text := strings.TrimSpace(r.sc.Text())
		if text == "" {
			continue
		}
		r.rec = classify(text, r.line)
		return true
	}
	return false
}

// Record returns the record read by the last call to Next.
func (r *Reader) Record() Record {
	return r.rec
}

// Err returns the first read error, if any.
func (r *Reader) Err() error {
	return r.sc.Err()
}

func classify(text string, line int) Record {
	rec := Record{Kind: Invalid, Line: line, Text: text}
	switch {
	case strings.HasPrefix(text, HeaderPrefix):
		rec.Kind = Header
		rec.Value = strings.TrimSpace(strings.TrimPrefix(text, HeaderPrefix))
	case strings.HasPrefix(text, legacyHeaderPrefix):
		rec.Kind = Header
		rec.Value = strings.TrimSpace(strings.TrimPrefix(text, legacyHeaderPrefix))
	case strings.HasPrefix(text, EntryPrefix), text == "-":
		rec.Kind = Entry
		rec.Value = strings.TrimSpace(strings.TrimPrefix(text, "-"))
	}
	return rec
}
