// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/symdex/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Header identifies the analysis an Index came from. Empty fields are
// omitted from the output.
type Header struct {
	Dir      string
	Language string
	Source   string
}

// Encode converts an Index into TOON format: a files table with per-file
// counts and a symbols table with one row per function, class and method.
func Encode(h Header, idx *model.Index) string {
	var parts []string

	for _, kv := range [][2]string{{"dir", h.Dir}, {"language", h.Language}, {"source", h.Source}} {
		if kv[1] != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", kv[0], encodeValue(kv[1])))
		}
	}

	var fileRows [][]string
	for i := range idx.Files {
		f := &idx.Files[i]
		methods := 0
		for j := range f.Classes {
			methods += len(f.Classes[j].Methods)
		}
		fileRows = append(fileRows, []string{
			f.Path,
			strconv.Itoa(len(f.Functions)),
			strconv.Itoa(len(f.Classes)),
			strconv.Itoa(methods),
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "functions", "classes", "methods"}, fileRows))

	var symbolRows [][]string
	for i := range idx.Files {
		f := &idx.Files[i]
		for _, fn := range f.Functions {
			symbolRows = append(symbolRows, []string{f.Path, "function", "", fn.Name})
		}
		for _, c := range f.Classes {
			symbolRows = append(symbolRows, []string{f.Path, "class", "", c.Name})
			for _, m := range c.Methods {
				symbolRows = append(symbolRows, []string{f.Path, "method", c.Name, m.Name})
			}
		}
	}
	parts = append(parts, formatTabular("symbols", []string{"file", "kind", "owner", "name"}, symbolRows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
