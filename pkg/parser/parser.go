package parser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ErrUnsupported is returned for files that are not Python source.
var ErrUnsupported = errors.New("unsupported file type")

// Parser wraps a tree-sitter parser configured for Python.
// A Parser is not safe for concurrent use; create one per goroutine.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	Tree   *sitter.Tree
	Source []byte
	Path   string
}

// Root returns the root node of the parsed tree.
func (r *ParseResult) Root() *sitter.Node {
	return r.Tree.RootNode()
}

// Close releases the tree.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
	}
}

// New creates a new parser instance.
func New() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(python.GetLanguage())
	return &Parser{parser: p}
}

// ParseFile reads and parses a Python source file.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	if !IsPython(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return p.Parse(context.Background(), source, path)
}

// Parse parses Python source. Path is recorded on the result and may be empty.
func (p *Parser) Parse(ctx context.Context, source []byte, path string) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	return &ParseResult{
		Tree:   tree,
		Source: source,
		Path:   path,
	}, nil
}

// Close releases parser resources.
func (p *Parser) Close() {
	p.parser.Close()
}

// IsPython reports whether path has a Python source extension.
func IsPython(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".py", ".pyw", ".pyi":
		return true
	default:
		return false
	}
}

// FirstError returns the 1-based line of the first ERROR or MISSING node
// in source order, or 0 when the tree is well formed.
func FirstError(root *sitter.Node) int {
	if root == nil || !root.HasError() {
		return 0
	}

	line := 0
	Walk(root, func(node *sitter.Node) bool {
		if line != 0 {
			return false
		}
		if node.IsError() || node.IsMissing() {
			line = int(node.StartPoint().Row) + 1
			return false
		}
		return node.HasError()
	})
	if line == 0 {
		line = int(root.StartPoint().Row) + 1
	}
	return line
}

// NodeVisitor is a function that visits AST nodes. Returning false skips
// the node's children.
type NodeVisitor func(node *sitter.Node) bool

// Walk traverses the AST calling visitor for each node in pre-order.
func Walk(node *sitter.Node, visitor NodeVisitor) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := range int(node.ChildCount()) {
		Walk(node.Child(i), visitor)
	}
}

// GetNodeText extracts the source text for a node.
// Returns empty string if node is nil or byte offsets are out of bounds.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// StartLine returns the 1-based first line of node.
func StartLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// EndLine returns the 1-based last line of node.
func EndLine(node *sitter.Node) int {
	return int(node.EndPoint().Row) + 1
}
