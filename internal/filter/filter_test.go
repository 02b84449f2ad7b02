package filter

import (
	"testing"

	"github.com/phobologic/symdex/internal/model"
)

func makeIndex() *model.Index {
	return &model.Index{Files: []model.SourceFile{
		{
			Path:      "pkg/server.py",
			Functions: []model.FunctionSymbol{{Name: "serve"}, {Name: "main"}},
			Classes: []model.ClassSymbol{
				{Name: "Handler", Methods: []model.MethodSymbol{{Name: "handle"}, {Name: "close"}}},
				{Name: "Server", Methods: []model.MethodSymbol{{Name: "start"}}},
			},
		},
		{
			Path:      "pkg/util.py",
			Functions: []model.FunctionSymbol{{Name: "helper"}},
		},
		{
			Path:    "cmd/cli.py",
			Classes: []model.ClassSymbol{{Name: "App", Methods: []model.MethodSymbol{{Name: "run"}}}},
		},
	}}
}

func TestSelectFiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		maxFiles int
		want     int
	}{
		{"zero means all", 0, 3},
		{"negative means all", -1, 3},
		{"more than available", 10, 3},
		{"exactly available", 3, 3},
		{"fewer", 2, 2},
		{"one", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SelectFiles(makeIndex(), tt.maxFiles)
			if len(got.Files) != tt.want {
				t.Errorf("SelectFiles(%d) = %d files, want %d", tt.maxFiles, len(got.Files), tt.want)
			}
		})
	}
}

func TestSelectFilesKeepsOrder(t *testing.T) {
	t.Parallel()

	got := SelectFiles(makeIndex(), 2)
	if got.Files[0].Path != "pkg/server.py" || got.Files[1].Path != "pkg/util.py" {
		t.Errorf("unexpected files: %s, %s", got.Files[0].Path, got.Files[1].Path)
	}
}

func TestBySymbolFunction(t *testing.T) {
	t.Parallel()

	got := BySymbol(makeIndex(), "HELP")
	if len(got.Files) != 1 || got.Files[0].Path != "pkg/util.py" {
		t.Fatalf("expected only pkg/util.py, got %+v", got.Files)
	}
	if len(got.Files[0].Functions) != 1 || got.Files[0].Functions[0].Name != "helper" {
		t.Errorf("unexpected functions: %+v", got.Files[0].Functions)
	}
}

func TestBySymbolClassKeepsMethods(t *testing.T) {
	t.Parallel()

	got := BySymbol(makeIndex(), "handler")
	if len(got.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(got.Files))
	}
	f := got.Files[0]
	if len(f.Functions) != 0 {
		t.Errorf("functions should be trimmed: %+v", f.Functions)
	}
	if len(f.Classes) != 1 || len(f.Classes[0].Methods) != 2 {
		t.Errorf("expected Handler with both methods, got %+v", f.Classes)
	}
}

func TestBySymbolMethod(t *testing.T) {
	t.Parallel()

	got := BySymbol(makeIndex(), "Server.st")
	if len(got.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(got.Files))
	}
	classes := got.Files[0].Classes
	if len(classes) != 1 || classes[0].Name != "Server" || len(classes[0].Methods) != 1 {
		t.Errorf("unexpected classes: %+v", classes)
	}

	got = BySymbol(makeIndex(), "close")
	classes = got.Files[0].Classes
	if len(classes) != 1 || classes[0].Name != "Handler" || classes[0].Methods[0].Name != "close" {
		t.Errorf("unexpected classes: %+v", classes)
	}
}

func TestBySymbolNoMatch(t *testing.T) {
	t.Parallel()

	if got := BySymbol(makeIndex(), "NoSuchSymbol"); len(got.Files) != 0 {
		t.Errorf("expected empty index, got %+v", got.Files)
	}
}

func TestBySymbolDoesNotMutate(t *testing.T) {
	t.Parallel()

	idx := makeIndex()
	_ = BySymbol(idx, "close")
	if len(idx.Files[0].Classes[0].Methods) != 2 {
		t.Error("input index was modified")
	}
}

func TestByFile(t *testing.T) {
	t.Parallel()

	got := ByFile(makeIndex(), "PKG/")
	if len(got.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(got.Files))
	}
	for _, f := range got.Files {
		if f.Path == "cmd/cli.py" {
			t.Error("cmd/cli.py should be filtered out")
		}
	}
}
