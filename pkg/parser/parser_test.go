package parser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
)

func TestNew(t *testing.T) {
	p := New()
	if p == nil {
		t.Fatal("New() returned nil")
	}
	if p.parser == nil {
		t.Error("parser field is nil")
	}
	p.Close()
}

func TestIsPython(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"main.py", true},
		{"pkg/module.py", true},
		{"script.pyw", true},
		{"stubs/types.pyi", true},
		{"UPPER.PY", true},
		{"main.go", false},
		{"README.md", false},
		{"py", false},
		{"archive.py.bak", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsPython(tt.path); got != tt.want {
				t.Errorf("IsPython(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("def greet(name):\n    return 'hi ' + name\n")
	result, err := p.Parse(context.Background(), source, "greet.py")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	defer result.Close()

	root := result.Root()
	if root.Type() != "module" {
		t.Errorf("root type = %q, want module", root.Type())
	}
	if result.Path != "greet.py" {
		t.Errorf("Path = %q, want greet.py", result.Path)
	}
	if root.HasError() {
		t.Error("valid source parsed with errors")
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.py")
	if err := os.WriteFile(path, []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p := New()
	defer p.Close()

	result, err := p.ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	result.Close()

	if _, err := p.ParseFile(filepath.Join(dir, "notes.txt")); !errors.Is(err, ErrUnsupported) {
		t.Errorf("ParseFile(notes.txt) error = %v, want ErrUnsupported", err)
	}
	if _, err := p.ParseFile(filepath.Join(dir, "missing.py")); err == nil {
		t.Error("ParseFile(missing.py) should fail")
	}
}

func TestFirstError(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   int // 0 for a well-formed tree, otherwise any line
	}{
		{"valid", "def f():\n    return 1\n", 0},
		{"empty", "", 0},
		{"broken signature", "x = 1\ny = 2\ndef f(:\n    pass\n", 3},
		{"unclosed paren", "print((1, 2)\n", 1},
	}

	p := New()
	defer p.Close()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.Parse(context.Background(), []byte(tt.source), "")
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			defer result.Close()

			got := FirstError(result.Root())
			if tt.want == 0 && got != 0 {
				t.Errorf("FirstError() = %d, want 0", got)
			}
			if tt.want != 0 && got == 0 {
				t.Errorf("FirstError() = 0, want line %d", tt.want)
			}
		})
	}

	if got := FirstError(nil); got != 0 {
		t.Errorf("FirstError(nil) = %d, want 0", got)
	}
}

func TestWalk(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("def a():\n    def b():\n        pass\n\ndef c():\n    pass\n")
	result, err := p.Parse(context.Background(), source, "")
	if err != nil {
		t.Fatal(err)
	}
	defer result.Close()

	var names []string
	Walk(result.Root(), func(node *sitter.Node) bool {
		if node.Type() == "function_definition" {
			names = append(names, GetNodeText(node.ChildByFieldName("name"), source))
		}
		return true
	})
	if len(names) != 3 || names[0] != "a" || names[1] != "b" || names[2] != "c" {
		t.Errorf("pre-order names = %v, want [a b c]", names)
	}

	var top []string
	Walk(result.Root(), func(node *sitter.Node) bool {
		if node.Type() == "function_definition" {
			top = append(top, GetNodeText(node.ChildByFieldName("name"), source))
			return false
		}
		return true
	})
	if len(top) != 2 {
		t.Errorf("returning false should skip children, got %v", top)
	}

	Walk(nil, func(*sitter.Node) bool {
		t.Error("visitor called for nil node")
		return true
	})
}

func TestNodeHelpers(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("\n\ndef f():\n    x = 1\n    return x\n")
	result, err := p.Parse(context.Background(), source, "")
	if err != nil {
		t.Fatal(err)
	}
	defer result.Close()

	fn := result.Root().NamedChild(0)
	if fn == nil || fn.Type() != "function_definition" {
		t.Fatalf("first named child = %v, want function_definition", fn)
	}
	if got := StartLine(fn); got != 3 {
		t.Errorf("StartLine() = %d, want 3", got)
	}
	if got := EndLine(fn); got != 5 {
		t.Errorf("EndLine() = %d, want 5", got)
	}
	if got := GetNodeText(fn.ChildByFieldName("name"), source); got != "f" {
		t.Errorf("GetNodeText() = %q, want f", got)
	}
	if got := GetNodeText(nil, source); got != "" {
		t.Errorf("GetNodeText(nil) = %q, want empty", got)
	}
	if got := GetNodeText(fn, source[:4]); got != "" {
		t.Errorf("GetNodeText() with short source = %q, want empty", got)
	}
}
