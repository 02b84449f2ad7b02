package protocol

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/symdex/internal/model"
)

func TestParseName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    model.QualifiedName
		wantErr error
	}{
		{"baz", model.QualifiedName{Member: "baz"}, nil},
		{"Foo.bar", model.QualifiedName{Owner: "Foo", Member: "bar"}, nil},
		{"  Foo.bar  ", model.QualifiedName{Owner: "Foo", Member: "bar"}, nil},
		{"Foo::Bar.baz", model.QualifiedName{Owner: "Foo::Bar", Member: "baz"}, nil},
		{"A.B.c", model.QualifiedName{}, ErrAmbiguousName},
		{"", model.QualifiedName{}, ErrEmptyName},
		{".bar", model.QualifiedName{}, ErrEmptyName},
		{"Foo.", model.QualifiedName{}, ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseName(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseName(%q) error = %v, want %v", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseName(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseName(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	files := []model.FileSymbols{
		{Path: "a.src", Names: []model.QualifiedName{{Owner: "Foo", Member: "bar"}, {Member: "baz"}}},
		{Path: "empty.src"},
		{Path: "b.src", Names: []model.QualifiedName{{Member: "qux"}}},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, files))

	want := "file: a.src\n  - Foo.bar\n  - baz\nfile: b.src\n  - qux\n"
	assert.Equal(t, want, buf.String())
	assert.NotContains(t, buf.String(), "empty.src")
}

func TestEncodeRejectsAmbiguousNames(t *testing.T) {
	t.Parallel()

	files := []model.FileSymbols{
		{Path: "a.src", Names: []model.QualifiedName{{Owner: "pkg.Foo", Member: "bar"}}},
	}
	err := Encode(&bytes.Buffer{}, files)
	assert.ErrorIs(t, err, ErrAmbiguousName)
}

func TestEncodeDeterministic(t *testing.T) {
	t.Parallel()

	files := []model.FileSymbols{
		{Path: "x.py", Names: []model.QualifiedName{{Member: "a"}, {Member: "a"}, {Owner: "K", Member: "m"}}},
	}
	var first, second bytes.Buffer
	require.NoError(t, Encode(&first, files))
	require.NoError(t, Encode(&second, files))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestReaderTolerance(t *testing.T) {
	t.Parallel()

	input := "\n\n   file: a.py   \n\n\t- Foo.bar\n   -   baz  \n\nfile:b.py\n-\nnot a record\n文件: legacy.py\n  - old\n"
	r := NewReader(strings.NewReader(input))

	var got []Record
	for r.Next() {
		got = append(got, r.Record())
	}
	require.NoError(t, r.Err())

	want := []Record{
		{Kind: Header, Line: 3, Text: "file: a.py", Value: "a.py"},
		{Kind: Entry, Line: 5, Text: "- Foo.bar", Value: "Foo.bar"},
		{Kind: Entry, Line: 6, Text: "-   baz", Value: "baz"},
		{Kind: Header, Line: 8, Text: "file:b.py", Value: "b.py"},
		{Kind: Entry, Line: 9, Text: "-", Value: ""},
		{Kind: Invalid, Line: 10, Text: "not a record"},
		{Kind: Header, Line: 11, Text: "文件: legacy.py", Value: "legacy.py"},
		{Kind: Entry, Line: 12, Text: "- old", Value: "old"},
	}
	assert.Equal(t, want, got)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "python_fns_log")

	files := []model.FileSymbols{{Path: "a.py", Names: []model.QualifiedName{{Member: "f"}}}}
	require.NoError(t, WriteFile(path, files))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file: a.py\n  - f\n", string(data))

	// Overwrites in place and leaves no temporary files.
	require.NoError(t, WriteFile(path, nil))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileFailureLeavesNoArtifact(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "fns_log")

	files := []model.FileSymbols{{Path: "a.rs", Names: []model.QualifiedName{{Owner: "a.b", Member: "c"}}}}
	require.Error(t, WriteFile(path, files))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordKindString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "header", Header.String())
	assert.Equal(t, "entry", Entry.String())
	assert.Equal(t, "invalid", Invalid.String())
}
