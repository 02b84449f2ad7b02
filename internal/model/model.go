// Package model defines core data structures for symdex.
package model

// Separator joins an owner and a member in the wire form of a QualifiedName.
const Separator = "."

// QualifiedName is a symbol name as produced by an extractor. Owner is the
// innermost enclosing class (or receiver type) and is empty for functions.
type QualifiedName struct {
	Owner  string
	Member string
}

// IsMethod reports whether the name belongs to a class.
func (q QualifiedName) IsMethod() bool {
	return q.Owner != ""
}

// String returns the wire form: "Owner.Member" or "Member".
func (q QualifiedName) String() string {
	if q.Owner == "" {
		return q.Member
	}
	return q.Owner + Separator + q.Member
}

// FunctionSymbol is a non-method function declaration.
type FunctionSymbol struct {
	Name string `json:"name"`
}

// MethodSymbol is a function declared inside a class.
type MethodSymbol struct {
	Name string `json:"name"`
}

// ClassSymbol is a class together with the methods observed inside it.
type ClassSymbol struct {
	Name    string         `json:"name"`
	Methods []MethodSymbol `json:"methods,omitempty"`
}

// SourceFile holds the symbols declared in a single file.
type SourceFile struct {
	Path      string           `json:"path"`
	Functions []FunctionSymbol `json:"functions,omitempty"`
	Classes   []ClassSymbol    `json:"classes,omitempty"`
}

// Empty reports whether the file has no symbols at all.
func (f *SourceFile) Empty() bool {
	return len(f.Functions) == 0 && len(f.Classes) == 0
}

// Class returns the first class named name, or nil.
func (f *SourceFile) Class(name string) *ClassSymbol {
	for i := range f.Classes {
		if f.Classes[i].Name == name {
			return &f.Classes[i]
		}
	}
	return nil
}

// AddClass returns the first class named name, creating it if needed.
func (f *SourceFile) AddClass(name string) *ClassSymbol {
	if c := f.Class(name); c != nil {
		return c
	}
	f.Classes = append(f.Classes, ClassSymbol{Name: name})
	return &f.Classes[len(f.Classes)-1]
}

// Add files a qualified name under the function list or its owning class.
// Duplicates are kept.
func (f *SourceFile) Add(q QualifiedName) {
	if !q.IsMethod() {
		f.Functions = append(f.Functions, FunctionSymbol{Name: q.Member})
		return
	}
	c := f.AddClass(q.Owner)
	c.Methods = append(c.Methods, MethodSymbol{Name: q.Member})
}

// Index is the unified symbol index: files in scan or decode order.
type Index struct {
	Files []SourceFile `json:"files"`
}

// File returns the entry for path, or nil.
func (idx *Index) File(path string) *SourceFile {
	for i := range idx.Files {
		if idx.Files[i].Path == path {
			return &idx.Files[i]
		}
	}
	return nil
}

// Counts returns the number of files, functions, classes and methods.
func (idx *Index) Counts() (files, functions, classes, methods int) {
	for i := range idx.Files {
		f := &idx.Files[i]
		functions += len(f.Functions)
		classes += len(f.Classes)
		for j := range f.Classes {
			methods += len(f.Classes[j].Methods)
		}
	}
	return len(idx.Files), functions, classes, methods
}

// Filter returns a new Index containing only the files for which keep
// returns true.
func (idx *Index) Filter(keep func(path string) bool) *Index {
	out := &Index{}
	for _, f := range idx.Files {
		if keep(f.Path) {
			out.Files = append(out.Files, f)
		}
	}
	return out
}

// FileSymbols is the raw extractor output for one file: the qualified names
// in extraction order.
type FileSymbols struct {
	Path  string
	Names []QualifiedName
}

// ResultKind classifies the outcome of extracting one file.
type ResultKind string

const (
	ResultOK         ResultKind = "ok"
	ResultEmpty      ResultKind = "empty"
	ResultReadError  ResultKind = "read_error"
	ResultParseError ResultKind = "parse_error"
	ResultSkipped    ResultKind = "skipped"
)

// FileResult records what happened to a single file during a scan.
type FileResult struct {
	Path    string
	Kind    ResultKind
	Symbols int
	Err     error
}

// ScanReport collects per-file results so callers can inspect every failure
// after a scan completes.
type ScanReport struct {
	Results []FileResult
}

// Add appends a result.
func (r *ScanReport) Add(res FileResult) {
	r.Results = append(r.Results, res)
}

// Failures returns the results that were read or parse errors.
func (r *ScanReport) Failures() []FileResult {
	var out []FileResult
	for _, res := range r.Results {
		if res.Kind == ResultReadError || res.Kind == ResultParseError {
			out = append(out, res)
		}
	}
	return out
}

// Count returns the number of results of the given kind.
func (r *ScanReport) Count(kind ResultKind) int {
	n := 0
	for _, res := range r.Results {
		if res.Kind == kind {
			n++
		}
	}
	return n
}
