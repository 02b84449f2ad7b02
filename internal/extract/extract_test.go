package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/symdex/internal/lang"
	"github.com/phobologic/symdex/internal/model"
)

func setup(t *testing.T, langName string) func(source string) []string {
	t.Helper()
	l := lang.Languages[langName]
	if l == nil {
		t.Fatalf("language %q not registered", langName)
	}
	ext := l.Extensions[0]
	return func(source string) []string {
		t.Helper()
		names, err := Collect(l, l.NewParser(), []byte(source), "test"+ext)
		require.NoError(t, err)
		out := make([]string, len(names))
		for i, q := range names {
			out[i] = q.String()
		}
		return out
	}
}

// --- Python tests ---

func TestPythonClassAndFunction(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	got := extract("class Foo:\n    def bar(self):\n        pass\n\ndef baz():\n    pass\n")
	assert.Equal(t, []string{"Foo.bar", "baz"}, got)
}

func TestPythonAsyncAndLambda(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	source := `def simple_function():
    print("Hello, World!")

class TestClass:
    def __init__(self, name):
        self.name = name

    @staticmethod
    def static_method():
        return "Static method"

    async def fetch(self):
        return 1

async def async_function():
    return "Async function"

lambda_function = lambda x: x * 2
`
	got := extract(source)
	assert.Equal(t, []string{
		"simple_function",
		"TestClass.__init__",
		"TestClass.static_method",
		"TestClass.fetch",
		"async_function",
	}, got)
}

func TestPythonNestedClasses(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	source := `class Outer:
    def before(self):
        pass

    class Inner:
        def deep(self):
            pass

    def after(self):
        pass

def top():
    pass
`
	got := extract(source)
	assert.Equal(t, []string{"Outer.before", "Inner.deep", "Outer.after", "top"}, got)
}

func TestPythonNestedFunctions(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	source := `def outer():
    def inner():
        pass
    return inner

class Widget:
    def render(self):
        def helper():
            pass
        return helper()
`
	got := extract(source)
	assert.Equal(t, []string{"outer", "inner", "Widget.render", "Widget.helper"}, got)
}

func TestPythonEmpty(t *testing.T) {
	t.Parallel()
	extract := setup(t, "python")

	assert.Empty(t, extract(""))
	assert.Empty(t, extract("x = 1\nprint(x)\n"))
}

func TestPythonParseError(t *testing.T) {
	t.Parallel()
	l := lang.Languages["python"]

	_, err := Collect(l, l.NewParser(), []byte("def broken(:\n    pass\n"), "bad.py")
	var perr *ParseError
	require.True(t, errors.As(err, &perr), "want *ParseError, got %v", err)
	assert.Equal(t, "bad.py", perr.Path)
	assert.Equal(t, 1, perr.Line)
}

func TestInvalidEncoding(t *testing.T) {
	t.Parallel()
	l := lang.Languages["python"]

	_, err := Collect(l, l.NewParser(), []byte("def f():\n    return '\xff\xfe'\n"), "latin.py")
	var rerr *ReadError
	require.True(t, errors.As(err, &rerr), "want *ReadError, got %v", err)
	assert.ErrorIs(t, err, errInvalidEncoding)
}

func TestNamesRestartable(t *testing.T) {
	t.Parallel()
	l := lang.Languages["python"]

	tree, err := Parse(l, l.NewParser(), []byte("class A:\n    def m(self): pass\ndef f(): pass\n"), "a.py")
	require.NoError(t, err)
	defer tree.Close()

	var first, second []model.QualifiedName
	for q := range tree.Names() {
		first = append(first, q)
	}
	for q := range tree.Names() {
		second = append(second, q)
	}
	assert.Equal(t, first, second)
	assert.Equal(t, []model.QualifiedName{{Owner: "A", Member: "m"}, {Member: "f"}}, first)
}

func TestNamesEarlyStop(t *testing.T) {
	t.Parallel()
	l := lang.Languages["python"]

	tree, err := Parse(l, l.NewParser(), []byte("class A:\n    def a(self): pass\n    def b(self): pass\ndef c(): pass\n"), "a.py")
	require.NoError(t, err)
	defer tree.Close()

	var got []string
	for q := range tree.Names() {
		got = append(got, q.String())
		if len(got) == 1 {
			break
		}
	}
	assert.Equal(t, []string{"A.a"}, got)

	// A fresh iteration starts from module scope again.
	var all []string
	for q := range tree.Names() {
		all = append(all, q.String())
	}
	assert.Equal(t, []string{"A.a", "A.b", "c"}, all)
}

// --- Go tests ---

func TestGoFunctionsAndMethods(t *testing.T) {
	t.Parallel()
	extract := setup(t, "go")

	source := `package main

type Server struct{}

func (s *Server) Handle() {}

func (s Server) Name() string { return "" }

func main() {
	f := func() {}
	f()
}
`
	got := extract(source)
	assert.Equal(t, []string{"Server.Handle", "Server.Name", "main"}, got)
}

// --- Ruby tests ---

func TestRubyClassesAndModules(t *testing.T) {
	t.Parallel()
	extract := setup(t, "ruby")

	source := `module Util
  def self.helper
  end

  class Parser
    def parse(input)
    end
  end
end

def top_level
end
`
	got := extract(source)
	assert.Equal(t, []string{"Util.helper", "Parser.parse", "top_level"}, got)
}

// --- JavaScript tests ---

func TestJavaScriptDeclarations(t *testing.T) {
	t.Parallel()
	extract := setup(t, "javascript")

	source := `class Foo {
  bar() {}
  static create() {}
}

function baz() {}

const arrow = () => 1;
const expr = function () {};

[1, 2].map(function (x) { return x; });
`
	got := extract(source)
	assert.Equal(t, []string{"Foo.bar", "Foo.create", "baz", "arrow", "expr"}, got)
}

func TestJavaScriptAnonymousClass(t *testing.T) {
	t.Parallel()
	extract := setup(t, "javascript")

	source := `class Outer {
  make() {
    return class {
      inner() {}
    };
  }
  after() {}
}

register(class { hidden() {} });

const Named = class { visible() {} };
`
	got := extract(source)
	assert.Equal(t, []string{"Outer.make", "Outer.after", "Named.visible"}, got)
}

func TestJavaScriptFieldsAndPairs(t *testing.T) {
	t.Parallel()
	extract := setup(t, "javascript")

	source := `class Widget {
  handler = () => {};
  static Factory = class { build() {} };
  count = 0;
}

const api = {
  bar: function () {},
  baz: () => 1,
  qux() {},
  "quoted": function () {},
  label: "x",
};
`
	got := extract(source)
	assert.Equal(t, []string{"Widget.handler", "Factory.build", "bar", "baz", "qux"}, got)
}
