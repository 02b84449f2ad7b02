package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

func init() {
	Languages["javascript"] = &Language{
		Name:         "javascript",
		Extensions:   []string{".js", ".jsx", ".mjs", ".cjs"},
		lang:         javascript.GetLanguage(),
		ClassName:    jsClassName,
		FunctionName: jsFunctionName,
	}
}

// Function expression node types; the grammar renamed "function" to
// "function_expression", so both are accepted.
var jsFunctionExpressions = map[string]struct{}{
	"function":            {},
	"function_expression": {},
	"generator_function":  {},
	"arrow_function":      {},
}

func jsClassName(node *sitter.Node, source []byte) (string, bool) {
	switch node.Type() {
	case "class_declaration", "class":
		if name := fieldText(node, "name", source); name != "" {
			return name, true
		}
		// const Foo = class { ... }
		if name := jsBindingName(node, source); name != "" {
			return name, true
		}
		return "", true
	}
	return "", false
}

func jsFunctionName(node *sitter.Node, source []byte) (string, bool) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		name := fieldText(node, "name", source)
		return name, name != ""
	case "method_definition":
		key := node.ChildByFieldName("name")
		if key == nil {
			return "", false
		}
		switch key.Type() {
		case "property_identifier", "private_property_identifier", "identifier":
			return NodeText(key, source), true
		}
		// Computed and string-literal keys have no stable identity.
		return "", false
	}

	if _, ok := jsFunctionExpressions[node.Type()]; !ok {
		return "", false
	}
	if name := jsBindingName(node, source); name != "" {
		return name, true
	}
	name := fieldText(node, "name", source)
	return name, name != ""
}

// jsBindingName returns the name a value node is bound to, or "". The
// bindings are a declaration (`const foo = () => {}`), a class field
// (`handler = () => {}`) and an object literal pair (`bar: function () {}`).
func jsBindingName(node *sitter.Node, source []byte) string {
	parent := node.Parent()
	if parent == nil {
		return ""
	}
	var id *sitter.Node
	switch parent.Type() {
	case "variable_declarator":
		id = parent.ChildByFieldName("name")
	case "field_definition":
		id = parent.ChildByFieldName("property")
	case "pair":
		id = parent.ChildByFieldName("key")
	default:
		return ""
	}
	if id == nil {
		return ""
	}
	if value := parent.ChildByFieldName("value"); value == nil || !value.Equal(node) {
		return ""
	}
	switch id.Type() {
	case "identifier", "property_identifier", "private_property_identifier":
		return NodeText(id, source)
	}
	return ""
}
