package lang

import (
	"github.com/smacker/go-tree-sitter/ruby"
)

// Modules open a scope like classes do, and a scope_resolution name
// (class Foo::Bar) is kept verbatim. def self.foo is a singleton_method whose
// name field is "foo".
func init() {
	Languages["ruby"] = &Language{
		Name:         "ruby",
		Extensions:   []string{".rb"},
		lang:         ruby.GetLanguage(),
		ClassName:    named("name", "class", "module"),
		FunctionName: named("name", "method", "singleton_method"),
	}
}
