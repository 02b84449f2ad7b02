package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

func init() {
	Languages["go"] = &Language{
		Name:         "go",
		Extensions:   []string{".go"},
		lang:         golang.GetLanguage(),
		ClassName:    func(*sitter.Node, []byte) (string, bool) { return "", false },
		FunctionName: named("name", "function_declaration", "method_declaration"),
		Owner:        goFindReceiverType,
	}
}

// goFindReceiverType extracts the receiver type name from a method_declaration node.
// Navigates: method_declaration → receiver (parameter_list) → parameter_declaration → type,
// unwrapping pointer and generic types.
func goFindReceiverType(node *sitter.Node, source []byte) string {
	if node.Type() != "method_declaration" {
		return ""
	}
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	for i := 0; i < int(recv.NamedChildCount()); i++ {
		param := recv.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typ := param.ChildByFieldName("type")
		if typ == nil {
			return ""
		}
		return firstTypeIdentifier(typ, source)
	}
	return ""
}

// firstTypeIdentifier returns the first type_identifier in a depth-first walk,
// so *T, T[K], and *T[K] all resolve to T.
func firstTypeIdentifier(node *sitter.Node, source []byte) string {
	if node.Type() == "type_identifier" {
		return NodeText(node, source)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if name := firstTypeIdentifier(node.NamedChild(i), source); name != "" {
			return name
		}
	}
	return ""
}
