package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/phobologic/symdex/internal/aggregate"
	"github.com/phobologic/symdex/internal/filter"
	"github.com/phobologic/symdex/internal/model"
	"github.com/phobologic/symdex/internal/protocol"
	"github.com/phobologic/symdex/internal/toon"
)

const (
	formatTOON = "toon"
	formatJSON = "json"
	formatLog  = "log"
)

func parseFormat(s string) (string, error) {
	switch s {
	case formatTOON, formatJSON, formatLog:
		return s, nil
	default:
		return "", fmt.Errorf("unknown format %q (want toon, json or log)", s)
	}
}

// document is the JSON rendering of an Index with its provenance.
type document struct {
	Dir      string       `json:"dir,omitempty"`
	Language string       `json:"language,omitempty"`
	Source   string       `json:"source,omitempty"`
	Index    *model.Index `json:"index"`
}

// print writes idx to stdout in the selected format after applying the
// display filters.
func (a *app) print(h toon.Header, idx *model.Index) error {
	if a.file != "" {
		idx = filter.ByFile(idx, a.file)
	}
	if a.symbol != "" {
		idx = filter.BySymbol(idx, a.symbol)
	}
	idx = filter.SelectFiles(idx, a.maxFiles)
	return render(a.stdout, a.format, h, idx)
}

func render(w io.Writer, format string, h toon.Header, idx *model.Index) error {
	switch format {
	case formatJSON:
		if idx.Files == nil {
			idx = &model.Index{Files: []model.SourceFile{}}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(document{Dir: h.Dir, Language: h.Language, Source: h.Source, Index: idx})
	case formatLog:
		return protocol.Encode(w, aggregate.ToSymbols(idx))
	default:
		_, err := fmt.Fprintln(w, toon.Encode(h, idx))
		return err
	}
}
