package aggregate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/phobologic/symdex/internal/model"
)

// Structured payloads printed by external extractors. Only names are read;
// return types, flags and fields are ignored.
type (
	payloadFunction struct {
		Name string `json:"name"`
	}

	payloadMethod struct {
		Name string `json:"name"`
	}

	payloadClass struct {
		Name    string          `json:"name"`
		Path    string          `json:"path"`
		Methods []payloadMethod `json:"methods"`
	}

	payloadFile struct {
		Path      string            `json:"path"`
		Functions []payloadFunction `json:"functions"`
		Classes   []payloadClass    `json:"classes"`
	}

	payload struct {
		Files   []payloadFile  `json:"files"`
		Classes []payloadClass `json:"classes"`
	}
)

// DecodeStructured maps a JSON payload onto an Index. Accepted shapes:
//
//	{"files": [{"path", "functions": [{"name"}], "classes": [{"name", "methods": [{"name"}]}]}]}
//	{"classes": [{"name", "path", "methods": [{"name"}]}]}
//	[{"path", "functions", "classes"}]
//
// Functions and classes are taken as given; names are never re-split.
func DecodeStructured(data []byte) (*model.Index, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &FormatError{Reason: "empty structured payload"}
	}

	var p payload
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &p.Files); err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("invalid structured payload: %v", err)}
		}
		if p.Files == nil {
			p.Files = []payloadFile{}
		}
	case '{':
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, &FormatError{Reason: fmt.Sprintf("invalid structured payload: %v", err)}
		}
	default:
		return nil, &FormatError{Reason: "structured payload must be a JSON object or array"}
	}
	if p.Files == nil && p.Classes == nil {
		return nil, &FormatError{Reason: `structured payload has neither "files" nor "classes"`}
	}

	b := newBuilder()
	for _, f := range p.Files {
		if f.Path == "" {
			return nil, &FormatError{Reason: "file entry without a path"}
		}
		b.start(f.Path)
		for _, fn := range f.Functions {
			if fn.Name == "" {
				continue
			}
			b.cur.Functions = append(b.cur.Functions, model.FunctionSymbol{Name: fn.Name})
		}
		for _, c := range f.Classes {
			addClass(b.cur, c)
		}
	}

	// Class-only payloads carry the path on each class.
	for _, c := range p.Classes {
		if c.Path == "" {
			return nil, &FormatError{Reason: fmt.Sprintf("class %q without a path", c.Name)}
		}
		b.start(c.Path)
		addClass(b.cur, c)
	}

	return b.finish(), nil
}

func addClass(f *model.SourceFile, c payloadClass) {
	if c.Name == "" {
		return
	}
	dst := f.AddClass(c.Name)
	for _, m := range c.Methods {
		if m.Name == "" {
			continue
		}
		dst.Methods = append(dst.Methods, model.MethodSymbol{Name: m.Name})
	}
}
