// Package lang provides a language registry mapping file extensions to
// tree-sitter languages and the rules for recognizing their declarations.
package lang

import (
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language

	// ClassName returns the class name if node opens a class scope. An
	// anonymous class reports "" and true.
	ClassName func(node *sitter.Node, source []byte) (string, bool)

	// FunctionName returns the declared name if node is a named function
	// or method declaration. Anonymous functions report false.
	FunctionName func(node *sitter.Node, source []byte) (string, bool)

	// Owner returns the owning type of a declaration that names it
	// explicitly (Go receivers). Nil or "" defers to the enclosing class scope.
	Owner func(node *sitter.Node, source []byte) string
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Parsers are not safe for concurrent use.
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// Names returns the registered language names in sorted order.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// fieldText returns the text of node's named field, or "" when absent.
func fieldText(node *sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return NodeText(child, source)
}

// named wraps a field lookup for a fixed set of node types.
func named(field string, types ...string) func(*sitter.Node, []byte) (string, bool) {
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(node *sitter.Node, source []byte) (string, bool) {
		if _, ok := set[node.Type()]; !ok {
			return "", false
		}
		name := fieldText(node, field, source)
		return name, name != ""
	}
}
