package complexity

import (
	"bytes"
	"strings"

	"github.com/panbanda/cogmark/pkg/parser"
	sitter "github.com/smacker/go-tree-sitter"
)

// DefaultMarker is the inline comment that excludes a function from analysis.
const DefaultMarker = "noqa: cogmark"

// lineIndex gives case-folded access to source lines by 1-based number.
type lineIndex [][]byte

func newLineIndex(source []byte) lineIndex {
	return bytes.Split(bytes.ToLower(source), []byte("\n"))
}

func (l lineIndex) contains(line int, marker []byte) bool {
	if line < 1 || line > len(l) {
		return false
	}
	return bytes.Contains(l[line-1], marker)
}

// suppressed reports whether fn carries the marker. The marker may sit on the
// line above the first decorator (or the def when undecorated), on any
// decorator line, or on the def header up to the line before the body.
func suppressed(fn *sitter.Node, lines lineIndex, marker []byte) bool {
	if len(marker) == 0 {
		return false
	}

	first := parser.StartLine(fn)
	if parent := fn.Parent(); parent != nil && Classify(parent.Type()) == KindDecorated {
		first = parser.StartLine(parent)
	}

	last := parser.StartLine(fn)
	if body := fn.ChildByFieldName("body"); body != nil {
		if end := parser.StartLine(body) - 1; end > last {
			last = end
		}
	}

	for line := first - 1; line <= last; line++ {
		if lines.contains(line, marker) {
			return true
		}
	}
	return false
}

func normalizeMarker(marker string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(marker)))
}
