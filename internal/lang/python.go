package lang

import (
	"github.com/smacker/go-tree-sitter/python"
)

// async def is a function_definition with a leading "async" token; lambda is
// its own node type and never matches. Decorated definitions are walked
// through like any other node.
func init() {
	Languages["python"] = &Language{
		Name:         "python",
		Extensions:   []string{".py"},
		lang:         python.GetLanguage(),
		ClassName:    named("name", "class_definition"),
		FunctionName: named("name", "function_definition"),
	}
}
