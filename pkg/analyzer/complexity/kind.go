package complexity

// Kind is the scoring category of a syntax node. Every tree-sitter Python
// node type maps to exactly one Kind; types with no scoring role are KindPlain.
type Kind uint8

const (
	KindPlain Kind = iota
	KindFunction
	KindClass
	KindDecorated
	KindIf
	KindElif
	KindElse
	KindFor
	KindWhile
	KindTry
	KindExcept
	KindFinally
	KindMatch
	KindCase
	KindWith
	KindTernary
	KindBoolean
	KindJump
	KindComprehension
	KindForIn
	KindFilter
	KindLambda
	KindCall
)

var kindNames = [...]string{
	KindPlain:         "plain",
	KindFunction:      "function",
	KindClass:         "class",
	KindDecorated:     "decorated",
	KindIf:            "if",
	KindElif:          "elif",
	KindElse:          "else",
	KindFor:           "for",
	KindWhile:         "while",
	KindTry:           "try",
	KindExcept:        "except",
	KindFinally:       "finally",
	KindMatch:         "match",
	KindCase:          "case",
	KindWith:          "with",
	KindTernary:       "ternary",
	KindBoolean:       "boolean",
	KindJump:          "jump",
	KindComprehension: "comprehension",
	KindForIn:         "for_in",
	KindFilter:        "filter",
	KindLambda:        "lambda",
	KindCall:          "call",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Classify maps a tree-sitter Python node type to its Kind.
func Classify(nodeType string) Kind {
	switch nodeType {
	case "function_definition":
		return KindFunction
	case "class_definition":
		return KindClass
	case "decorated_definition":
		return KindDecorated
	case "if_statement":
		return KindIf
	case "elif_clause":
		return KindElif
	case "else_clause":
		return KindElse
	case "for_statement":
		return KindFor
	case "while_statement":
		return KindWhile
	case "try_statement":
		return KindTry
	case "except_clause", "except_group_clause":
		return KindExcept
	case "finally_clause":
		return KindFinally
	case "match_statement":
		return KindMatch
	case "case_clause":
		return KindCase
	case "with_statement":
		return KindWith
	case "conditional_expression":
		return KindTernary
	case "boolean_operator":
		return KindBoolean
	case "break_statement", "continue_statement":
		return KindJump
	case "list_comprehension", "set_comprehension", "dictionary_comprehension", "generator_expression":
		return KindComprehension
	case "for_in_clause":
		return KindForIn
	case "if_clause":
		return KindFilter
	case "lambda":
		return KindLambda
	case "call":
		return KindCall
	default:
		return KindPlain
	}
}
