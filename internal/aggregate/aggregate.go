// Package aggregate builds an Index from extractor output: interchange logs,
// structured JSON payloads, or names collected in-process. Every function in
// this package is pure: no I/O and no shared state.
package aggregate

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/phobologic/symdex/internal/model"
	"github.com/phobologic/symdex/internal/protocol"
)

// FormatError reports extractor output that could not be decoded.
type FormatError struct {
	Line   int    // 1-based line of the offending record; 0 if not line-specific
	Text   string // offending line, if any
	Reason string
	// Partial holds the files flushed before decoding stopped.
	Partial *model.Index
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("format error at line %d (%q): %s", e.Line, e.Text, e.Reason)
	}
	return "format error: " + e.Reason
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var ferr *FormatError
	return errors.As(err, &ferr)
}

// builder accumulates one file at a time and flushes it into the index.
type builder struct {
	idx *model.Index
	cur *model.SourceFile
}

func newBuilder() *builder {
	return &builder{idx: &model.Index{}}
}

func (b *builder) start(path string) {
	b.flush()
	b.cur = &model.SourceFile{Path: path}
}

// flush moves the pending file into the index. Files without symbols are
// dropped, and a path seen earlier in the same pass is merged into its first
// entry so paths stay unique.
func (b *builder) flush() {
	cur := b.cur
	b.cur = nil
	if cur == nil || cur.Empty() {
		return
	}
	existing := b.idx.File(cur.Path)
	if existing == nil {
		b.idx.Files = append(b.idx.Files, *cur)
		return
	}
	existing.Functions = append(existing.Functions, cur.Functions...)
	for _, c := range cur.Classes {
		dst := existing.AddClass(c.Name)
		dst.Methods = append(dst.Methods, c.Methods...)
	}
}

func (b *builder) finish() *model.Index {
	b.flush()
	return b.idx
}

// fail flushes what has been accumulated and returns it with a FormatError.
func (b *builder) fail(rec protocol.Record, reason string) (*model.Index, error) {
	idx := b.finish()
	return idx, &FormatError{Line: rec.Line, Text: rec.Text, Reason: reason, Partial: idx}
}

// DecodeText decodes an interchange log. On a malformed line decoding stops
// and the files accumulated so far, including the one in progress, are
// returned together with a *FormatError.
func DecodeText(data []byte) (*model.Index, error) {
	b := newBuilder()
	r := protocol.NewReader(bytes.NewReader(data))

	for r.Next() {
		rec := r.Record()
		switch rec.Kind {
		case protocol.Header:
			if rec.Value == "" {
				return b.fail(rec, "file header without a path")
			}
			b.start(rec.Value)
		case protocol.Entry:
			if b.cur == nil {
				return b.fail(rec, "entry before any file header")
			}
			q, err := protocol.ParseName(rec.Value)
			if err != nil {
				return b.fail(rec, err.Error())
			}
			b.cur.Add(q)
		default:
			return b.fail(rec, "unrecognized line")
		}
	}
	if err := r.Err(); err != nil {
		idx := b.finish()
		return idx, &FormatError{Reason: err.Error(), Partial: idx}
	}
	return b.finish(), nil
}

// FromSymbols builds an Index directly from in-process extractor output.
// Owner and member stay separate fields throughout, so no name is ever
// re-split.
func FromSymbols(files []model.FileSymbols) *model.Index {
	b := newBuilder()
	for _, f := range files {
		b.start(f.Path)
		for _, q := range f.Names {
			b.cur.Add(q)
		}
	}
	return b.finish()
}

// Decode decodes data as a structured payload when it looks like JSON and
// as an interchange log otherwise.
func Decode(data []byte) (*model.Index, error) {
	if LooksStructured(data) {
		return DecodeStructured(data)
	}
	return DecodeText(data)
}

// LooksStructured reports whether data starts like a JSON object or array.
func LooksStructured(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && (data[0] == '{' || data[0] == '[')
}

// Names flattens a file back into qualified names: functions first, then
// each class's methods. Classes without methods have no wire form.
func Names(f *model.SourceFile) []model.QualifiedName {
	var out []model.QualifiedName
	for _, fn := range f.Functions {
		out = append(out, model.QualifiedName{Member: fn.Name})
	}
	for _, c := range f.Classes {
		for _, m := range c.Methods {
			out = append(out, model.QualifiedName{Owner: c.Name, Member: m.Name})
		}
	}
	return out
}

// ToSymbols flattens an Index into encoder input.
func ToSymbols(idx *model.Index) []model.FileSymbols {
	out := make([]model.FileSymbols, 0, len(idx.Files))
	for i := range idx.Files {
		out = append(out, model.FileSymbols{Path: idx.Files[i].Path, Names: Names(&idx.Files[i])})
	}
	return out
}
