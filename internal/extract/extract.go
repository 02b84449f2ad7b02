// Package extract walks tree-sitter syntax trees and yields the qualified
// names of the functions, classes and methods they declare.
package extract

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/symdex/internal/lang"
	"github.com/phobologic/symdex/internal/model"
)

// ParseError reports a source file whose syntax tree contains errors.
type ParseError struct {
	Path   string
	Line   int
	Column int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: syntax error", e.Path, e.Line, e.Column)
}

// ReadError reports a source file that could not be read or decoded.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// errInvalidEncoding marks source that is not valid UTF-8.
var errInvalidEncoding = errors.New("invalid UTF-8 encoding")

// Tree is a parsed source file.
type Tree struct {
	lang   *lang.Language
	tree   *sitter.Tree
	source []byte
}

// Parse parses source with parser, which must be configured for l.
// filePath is used only in error values.
func Parse(l *lang.Language, parser *sitter.Parser, source []byte, filePath string) (*Tree, error) {
	if !utf8.Valid(source) {
		return nil, &ReadError{Path: filePath, Err: errInvalidEncoding}
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}

	root := tree.RootNode()
	if root.HasError() {
		perr := &ParseError{Path: filePath, Line: 1, Column: 1}
		if n := firstError(root); n != nil {
			perr.Line = int(n.StartPoint().Row) + 1
			perr.Column = int(n.StartPoint().Column) + 1
		}
		tree.Close()
		return nil, perr
	}

	return &Tree{lang: l, tree: tree, source: source}, nil
}

// Close releases the underlying syntax tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// Names returns the qualified names declared in the tree, depth-first in
// declaration order. The sequence is lazy and can be ranged over repeatedly.
func (t *Tree) Names() iter.Seq[model.QualifiedName] {
	return func(yield func(model.QualifiedName) bool) {
		w := &walker{lang: t.lang, source: t.source, yield: yield}
		w.walk(t.tree.RootNode())
	}
}

// Collect parses source and returns all of its qualified names.
func Collect(l *lang.Language, parser *sitter.Parser, source []byte, filePath string) ([]model.QualifiedName, error) {
	t, err := Parse(l, parser, source, filePath)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	var names []model.QualifiedName
	for q := range t.Names() {
		names = append(names, q)
	}
	return names, nil
}

// scopeStack holds the names of the enclosing classes, innermost last. An
// anonymous class is held as "".
type scopeStack []string

// push enters a class scope. The returned func leaves it.
func (s *scopeStack) push(name string) (release func()) {
	*s = append(*s, name)
	depth := len(*s)
	return func() {
		*s = (*s)[:depth-1]
	}
}

func (s scopeStack) top() string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}

type walker struct {
	lang   *lang.Language
	source []byte
	scopes scopeStack
	yield  func(model.QualifiedName) bool
}

// walk visits node and its descendants. It returns false once the consumer
// stops the iteration.
func (w *walker) walk(node *sitter.Node) bool {
	if name, ok := w.lang.ClassName(node, w.source); ok {
		return w.visitClass(name, node)
	}
	if name, ok := w.lang.FunctionName(node, w.source); ok {
		if q, ok := w.qualify(node, name); ok && !w.yield(q) {
			return false
		}
	}
	return w.walkChildren(node)
}

func (w *walker) visitClass(name string, node *sitter.Node) bool {
	defer w.scopes.push(name)()
	return w.walkChildren(node)
}

func (w *walker) walkChildren(node *sitter.Node) bool {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if !w.walk(node.NamedChild(i)) {
			return false
		}
	}
	return true
}

// qualify attaches the owning class to name. Members of an anonymous class
// have no owner to report and are dropped.
func (w *walker) qualify(node *sitter.Node, name string) (model.QualifiedName, bool) {
	if w.lang.Owner != nil {
		if owner := w.lang.Owner(node, w.source); owner != "" {
			return model.QualifiedName{Owner: owner, Member: name}, true
		}
	}
	if len(w.scopes) > 0 && w.scopes.top() == "" {
		return model.QualifiedName{}, false
	}
	return model.QualifiedName{Owner: w.scopes.top(), Member: name}, true
}

// firstError returns the first error or missing node in a depth-first walk.
func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsMissing() {
			if n := firstError(child); n != nil {
				return n
			}
		}
	}
	return nil
}
