// Package filter narrows an Index for display.
package filter

import (
	"strings"

	"github.com/phobologic/symdex/internal/model"
)

// SelectFiles returns a new Index with only the first maxFiles files.
// If maxFiles is <= 0 or >= len(files), idx is returned unchanged.
func SelectFiles(idx *model.Index, maxFiles int) *model.Index {
	if maxFiles <= 0 || maxFiles >= len(idx.Files) {
		return idx
	}
	return &model.Index{Files: idx.Files[:maxFiles:maxFiles]}
}

// BySymbol returns a new Index containing only symbols whose name contains
// substr (case-insensitive), and the files that declare them. A class whose
// own name matches keeps all of its methods; otherwise only the matching
// methods are kept. Methods also match on their qualified "Owner.Member"
// form.
func BySymbol(idx *model.Index, substr string) *model.Index {
	lower := strings.ToLower(substr)
	matches := func(name string) bool {
		return strings.Contains(strings.ToLower(name), lower)
	}

	out := &model.Index{}
	for i := range idx.Files {
		src := &idx.Files[i]
		f := model.SourceFile{Path: src.Path}
		for _, fn := range src.Functions {
			if matches(fn.Name) {
				f.Functions = append(f.Functions, fn)
			}
		}
		for _, c := range src.Classes {
			if matches(c.Name) {
				f.Classes = append(f.Classes, c)
				continue
			}
			var methods []model.MethodSymbol
			for _, m := range c.Methods {
				q := model.QualifiedName{Owner: c.Name, Member: m.Name}
				if matches(q.String()) {
					methods = append(methods, m)
				}
			}
			if len(methods) > 0 {
				f.Classes = append(f.Classes, model.ClassSymbol{Name: c.Name, Methods: methods})
			}
		}
		if !f.Empty() {
			out.Files = append(out.Files, f)
		}
	}
	return out
}

// ByFile returns a new Index containing only files whose path contains
// substr (case-insensitive).
func ByFile(idx *model.Index, substr string) *model.Index {
	lower := strings.ToLower(substr)
	return idx.Filter(func(path string) bool {
		return strings.Contains(strings.ToLower(path), lower)
	})
}
