package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/symdex/internal/model"
)

func TestDecodeStructuredFiles(t *testing.T) {
	t.Parallel()

	payload := `{
  "files": [
    {
      "path": "test.cpp",
      "functions": [
        {"name": "simple_function", "return_type": "void", "is_template": false},
        {"name": ""}
      ],
      "classes": [
        {
          "name": "TestClass",
          "base_classes": [],
          "methods": [
            {"name": "instance_method", "is_virtual": true},
            {"name": "static_method"}
          ]
        },
        {"name": "Empty", "methods": []}
      ]
    },
    {"path": "nothing.cpp", "functions": [], "classes": []}
  ]
}`
	idx, err := DecodeStructured([]byte(payload))
	require.NoError(t, err)

	want := &model.Index{Files: []model.SourceFile{{
		Path:      "test.cpp",
		Functions: []model.FunctionSymbol{{Name: "simple_function"}},
		Classes: []model.ClassSymbol{
			{Name: "TestClass", Methods: []model.MethodSymbol{{Name: "instance_method"}, {Name: "static_method"}}},
			{Name: "Empty"},
		},
	}}}
	assert.Equal(t, want, idx)
}

func TestDecodeStructuredClassesOnly(t *testing.T) {
	t.Parallel()

	payload := `{"classes": [
  {"name": "A", "path": "src/A.java", "methods": [{"name": "run", "returnType": "void"}], "fields": []},
  {"name": "B", "path": "src/B.java", "methods": []},
  {"name": "Inner", "path": "src/A.java", "methods": [{"name": "help"}]}
]}`
	idx, err := DecodeStructured([]byte(payload))
	require.NoError(t, err)
	require.Len(t, idx.Files, 2)

	a := idx.File("src/A.java")
	require.NotNil(t, a)
	require.Len(t, a.Classes, 2)
	assert.Equal(t, "A", a.Classes[0].Name)
	assert.Equal(t, "Inner", a.Classes[1].Name)
	assert.Equal(t, "src/B.java", idx.Files[1].Path)
	assert.Empty(t, idx.Files[1].Classes[0].Methods)
}

func TestDecodeStructuredArray(t *testing.T) {
	t.Parallel()

	idx, err := DecodeStructured([]byte(`[{"path": "a.js", "functions": [{"name": "f", "type": "arrow", "async": true}]}]`))
	require.NoError(t, err)
	require.Len(t, idx.Files, 1)
	assert.Equal(t, []model.FunctionSymbol{{Name: "f"}}, idx.Files[0].Functions)

	idx, err = DecodeStructured([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, idx.Files)
}

func TestDecodeStructuredKeepsDottedNames(t *testing.T) {
	t.Parallel()

	idx, err := DecodeStructured([]byte(`{"files": [{"path": "a.cpp", "classes": [{"name": "ns.Outer", "methods": [{"name": "operator."}]}]}]}`))
	require.NoError(t, err)
	assert.Equal(t, "ns.Outer", idx.Files[0].Classes[0].Name)
}

func TestDecodeStructuredErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"empty", "   "},
		{"not json", "file: a.py"},
		{"broken json", `{"files": [`},
		{"no known keys", `{"results": []}`},
		{"file without path", `{"files": [{"functions": [{"name": "f"}]}]}`},
		{"class without path", `{"classes": [{"name": "A"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeStructured([]byte(tt.input))
			assert.True(t, IsFormatError(err), "want FormatError, got %v", err)
		})
	}
}
