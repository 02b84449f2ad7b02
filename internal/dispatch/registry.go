package dispatch

import (
	"fmt"
	"sort"
	"strings"
)

// Language is the closed set of languages symdex can analyze.
type Language int

const (
	Python Language = iota + 1
	Go
	Ruby
	JavaScript
	Java
	C
	Cpp
	Rust
)

var languageNames = map[Language]string{
	Python:     "python",
	Go:         "go",
	Ruby:       "ruby",
	JavaScript: "javascript",
	Java:       "java",
	C:          "c",
	Cpp:        "cpp",
	Rust:       "rust",
}

// tags maps every accepted (lower-case) tag to its language.
var tags = map[string]Language{
	"python":     Python,
	"py":         Python,
	"go":         Go,
	"golang":     Go,
	"ruby":       Ruby,
	"rb":         Ruby,
	"javascript": JavaScript,
	"js":         JavaScript,
	"java":       Java,
	"c":          C,
	"cpp":        Cpp,
	"c++":        Cpp,
	"rust":       Rust,
	"rs":         Rust,
}

func (l Language) String() string {
	if name, ok := languageNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Language(%d)", int(l))
}

// Tags returns every tag accepted for l, sorted.
func (l Language) Tags() []string {
	var out []string
	for tag, lang := range tags {
		if lang == l {
			out = append(out, tag)
		}
	}
	sort.Strings(out)
	return out
}

// ParseLanguage resolves a case-insensitive language tag.
func ParseLanguage(tag string) (Language, error) {
	if l, ok := tags[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return l, nil
	}
	return 0, &UnsupportedLanguageError{Tag: tag}
}

// Mode says where an extractor runs.
type Mode int

const (
	InProcess Mode = iota + 1
	External
)

func (m Mode) String() string {
	switch m {
	case InProcess:
		return "in-process"
	case External:
		return "external"
	default:
		return "unknown"
	}
}

// DirPlaceholder is replaced by the target directory in argument templates.
const DirPlaceholder = "{dir}"

// Command is an external extractor invocation template.
type Command struct {
	Path string
	Args []string
	// Dir is the working directory of the process; empty means the
	// current directory.
	Dir string
}

// Argv expands the argument template for dir. A template without a
// placeholder gets dir appended as its only positional parameter.
func (c Command) Argv(dir string) []string {
	args := make([]string, 0, len(c.Args)+1)
	substituted := false
	for _, a := range c.Args {
		if strings.Contains(a, DirPlaceholder) {
			a = strings.ReplaceAll(a, DirPlaceholder, dir)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, dir)
	}
	return args
}

func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// Entry describes how one language is extracted.
type Entry struct {
	Language Language
	Mode     Mode
	// LogName is the artifact the extractor leaves at the directory root.
	LogName string
	// LangName is the in-process registry name (internal/lang).
	LangName string
	// Command runs an external extractor.
	Command Command
}

// Registry maps each Language to its extractor.
type Registry struct {
	entries map[Language]Entry
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	r := &Registry{entries: make(map[Language]Entry)}
	for _, e := range []Entry{
		{Language: Python, Mode: InProcess, LangName: "python", LogName: "python_fns_log"},
		{Language: Go, Mode: InProcess, LangName: "go", LogName: "go_fns_log"},
		{Language: Ruby, Mode: InProcess, LangName: "ruby", LogName: "ruby_fns_log"},
		{Language: JavaScript, Mode: InProcess, LangName: "javascript", LogName: "javascript_fns_log"},
		{Language: Java, Mode: External, LogName: "java_fns_log", Command: Command{Path: "java", Args: []string{"JavaAPI", DirPlaceholder}}},
		{Language: C, Mode: External, LogName: "c_fns_log", Command: Command{Path: "cAPI", Args: []string{DirPlaceholder}}},
		{Language: Cpp, Mode: External, LogName: "cpp_fns_log", Command: Command{Path: "cppAPI", Args: []string{DirPlaceholder}}},
		{Language: Rust, Mode: External, LogName: "fns_log", Command: Command{Path: "rustAPI", Args: []string{DirPlaceholder}}},
	} {
		r.entries[e.Language] = e
	}
	return r
}

// Lookup returns the entry for l.
func (r *Registry) Lookup(l Language) (Entry, bool) {
	e, ok := r.entries[l]
	return e, ok
}

// Entries returns all entries ordered by language.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.entries))
	for l := Python; l <= Rust; l++ {
		if e, ok := r.entries[l]; ok {
			out = append(out, e)
		}
	}
	return out
}

// Override replaces the command and, when non-empty, the log name of an
// entry. Any language can be routed to an external command this way.
func (r *Registry) Override(l Language, cmd Command, logName string) error {
	e, ok := r.entries[l]
	if !ok {
		return &UnsupportedLanguageError{Tag: l.String()}
	}
	if cmd.Path == "" {
		return fmt.Errorf("%s: extractor command is empty", l)
	}
	e.Mode = External
	e.Command = cmd
	if logName != "" {
		e.LogName = logName
	}
	r.entries[l] = e
	return nil
}
