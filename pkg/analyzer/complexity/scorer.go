package complexity

import (
	"github.com/panbanda/cogmark/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// Score returns the cognitive complexity of a function_definition node.
// Nested function definitions are not descended into; they are scored as
// their own entries by the file analyzer.
func Score(fn *sitter.Node, source []byte) uint32 {
	if fn == nil {
		return 0
	}
	return scoreFunction(fn, source, isMethod(fn))
}

func scoreFunction(fn *sitter.Node, source []byte, inMethod bool) uint32 {
	s := &scorer{
		source:   source,
		name:     parser.GetNodeText(fn.ChildByFieldName("name"), source),
		inMethod: inMethod,
	}
	s.walk(fn.ChildByFieldName("body"), 0)
	return s.score
}

// scorer holds the state of one function's walk. Recursion is tracked per
// function so repeated self-calls are charged once.
type scorer struct {
	source   []byte
	name     string
	inMethod bool
	recursed bool
	score    uint32
}

func (s *scorer) add(n uint32) {
	s.score += n
}

func (s *scorer) walkChildren(node *sitter.Node, nesting uint32) {
	for i := range int(node.ChildCount()) {
		s.walk(node.Child(i), nesting)
	}
}

func (s *scorer) walk(node *sitter.Node, nesting uint32) {
	if node == nil {
		return
	}

	switch Classify(node.Type()) {
	case KindFunction:
		// Scored independently.
	case KindClass, KindDecorated, KindWith, KindLambda, KindFinally, KindMatch, KindPlain:
		s.walkChildren(node, nesting)
	case KindIf, KindElif:
		s.add(1 + nesting)
		s.walk(node.ChildByFieldName("condition"), nesting)
		s.walk(node.ChildByFieldName("consequence"), nesting+1)
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			if k := Classify(child.Type()); k == KindElif || k == KindElse {
				s.walk(child, nesting)
			}
		}
	case KindElse:
		s.add(1)
		s.walkBody(node, nesting+1)
	case KindFor:
		s.add(1 + nesting)
		s.walk(node.ChildByFieldName("left"), nesting)
		s.walk(node.ChildByFieldName("right"), nesting)
		s.walk(node.ChildByFieldName("body"), nesting+1)
		s.walk(node.ChildByFieldName("alternative"), nesting)
	case KindWhile:
		s.add(1 + nesting)
		s.walk(node.ChildByFieldName("condition"), nesting)
		s.walk(node.ChildByFieldName("body"), nesting+1)
		s.walk(node.ChildByFieldName("alternative"), nesting)
	case KindTry:
		s.walkTry(node, nesting)
	case KindExcept:
		s.add(1 + nesting)
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			if child.Type() == "block" {
				s.walk(child, nesting+1)
			} else {
				s.walk(child, nesting)
			}
		}
	case KindCase:
		s.add(1 + nesting)
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			switch {
			case Classify(child.Type()) == KindFilter:
				// The guard is a condition of the arm, not a filter.
				s.walkChildren(child, nesting)
			case child.Type() == "block":
				s.walk(child, nesting+1)
			default:
				s.walk(child, nesting)
			}
		}
	case KindTernary:
		s.add(1 + nesting)
		s.walkChildren(node, nesting+1)
	case KindBoolean:
		s.add(1)
		s.walkChildren(node, nesting)
	case KindJump:
		// Python has no labeled break/continue.
	case KindComprehension:
		s.walkComprehension(node, nesting)
	case KindForIn, KindFilter:
		s.walkChildren(node, nesting)
	case KindCall:
		if !s.recursed && s.isSelfCall(node) {
			s.recursed = true
			s.add(1)
		}
		s.walkChildren(node, nesting)
	}
}

// walkBody walks an else clause body, which is a field on some grammar
// versions and a bare block child on others.
func (s *scorer) walkBody(node *sitter.Node, nesting uint32) {
	if body := node.ChildByFieldName("body"); body != nil {
		s.walk(body, nesting)
		return
	}
	for i := range int(node.ChildCount()) {
		if child := node.Child(i); child.Type() == "block" {
			s.walk(child, nesting)
		}
	}
}

// walkTry charges each except clause; the try body, else and finally blocks
// stay at the current nesting level.
func (s *scorer) walkTry(node *sitter.Node, nesting uint32) {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch Classify(child.Type()) {
		case KindElse, KindFinally:
			s.walkChildren(child, nesting)
		default:
			s.walk(child, nesting)
		}
	}
}

// walkComprehension charges the comprehension itself, every for clause after
// the first, and every filter. Element, iterables and filters are walked one
// level deeper.
func (s *scorer) walkComprehension(node *sitter.Node, nesting uint32) {
	s.add(1 + nesting)

	clauses := 0
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		switch Classify(child.Type()) {
		case KindForIn:
			clauses++
			if clauses > 1 {
				s.add(1)
			}
			s.walkChildren(child, nesting+1)
		case KindFilter:
			s.add(1)
			s.walkChildren(child, nesting+1)
		default:
			s.walk(child, nesting+1)
		}
	}
}

// isSelfCall reports whether a call node invokes the function being scored:
// name(...) for plain functions, self.name(...) or cls.name(...) for methods.
func (s *scorer) isSelfCall(call *sitter.Node) bool {
	if s.name == "" {
		return false
	}
	fn := call.ChildByFieldName("function")
	if fn == nil {
		return false
	}

	switch fn.Type() {
	case "identifier":
		return !s.inMethod && parser.GetNodeText(fn, s.source) == s.name
	case "attribute":
		if !s.inMethod {
			return false
		}
		obj := parser.GetNodeText(fn.ChildByFieldName("object"), s.source)
		attr := parser.GetNodeText(fn.ChildByFieldName("attribute"), s.source)
		return (obj == "self" || obj == "cls") && attr == s.name
	}
	return false
}

// isMethod reports whether fn is defined directly in a class body,
// possibly behind decorators.
func isMethod(fn *sitter.Node) bool {
	parent := fn.Parent()
	if parent != nil && parent.Type() == "decorated_definition" {
		parent = parent.Parent()
	}
	if parent == nil || parent.Type() != "block" {
		return false
	}
	grand := parent.Parent()
	return grand != nil && Classify(grand.Type()) == KindClass
}
