package analyzer

import (
	"fmt"
	"strings"

	"github.com/connascence-tools/conscan/internal/parser"
)

// FindNodesByType walks the tree in document order and collects every node
// whose type matches one of the given types.
func FindNodesByType(root *parser.Node, types ...parser.NodeType) []*parser.Node {
	if root == nil || len(types) == 0 {
		return nil
	}

	want := make(map[parser.NodeType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}

	var found []*parser.Node
	root.Walk(func(n *parser.Node) bool {
		if want[n.Type] {
			found = append(found, n)
		}
		return true
	})
	return found
}

// FunctionParams summarizes the parameter list of a function definition.
type FunctionParams struct {
	// Positional counts parameters that must be supplied positionally,
	// excluding a leading self/cls receiver, underscore-prefixed names,
	// varargs, and keyword-only parameters.
	Positional  int
	KeywordOnly int
	HasVarargs  bool
	HasKwargs   bool
	// Names lists every declared parameter name in order, receiver included.
	Names []string
}

// ExtractFunctionParams classifies the parameters of a FunctionDef or Lambda.
func ExtractFunctionParams(fn *parser.Node) FunctionParams {
	var fp FunctionParams
	if fn == nil {
		return fp
	}

	seenPositional := 0
	for _, p := range fn.Params {
		if p == nil {
			continue
		}
		if p.Name != "" {
			fp.Names = append(fp.Names, p.Name)
		}

		switch {
		case p.IsVararg:
			fp.HasVarargs = true
		case p.IsKwarg:
			fp.HasKwargs = true
		case p.IsKwOnly:
			fp.KeywordOnly++
		default:
			seenPositional++
			if seenPositional == 1 && (p.Name == "self" || p.Name == "cls") {
				continue
			}
			if strings.HasPrefix(p.Name, "_") {
				continue
			}
			fp.Positional++
		}
	}
	return fp
}

// ExtractSnippet renders the source lines around a 1-indexed line number with
// a ">>>" marker on the offending line. Context is clamped at file edges.
func ExtractSnippet(lines []string, line, contextLines int) string {
	if len(lines) == 0 || line < 1 || line > len(lines) {
		return ""
	}
	if contextLines < 0 {
		contextLines = 0
	}

	start := line - contextLines - 1
	if start < 0 {
		start = 0
	}
	end := line + contextLines
	if end > len(lines) {
		end = len(lines)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		marker := "   "
		if i == line-1 {
			marker = ">>>"
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %3d: %s", marker, i+1, lines[i])
	}
	return b.String()
}

// SourceLine returns the 1-indexed source line, or "" when out of range.
func SourceLine(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// ContextWindow joins the source lines around the 1-indexed line, context
// lines on each side, without markers. Used for keyword scans over a
// literal's neighborhood.
func ContextWindow(lines []string, line, context int) string {
	if len(lines) == 0 {
		return ""
	}
	start := line - context - 1
	if start < 0 {
		start = 0
	}
	end := line + context
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}

// IsInConditional reports whether the 1-indexed source line opens a branch or
// loop. This is a lexical check on the line text, not a structural one, which
// matches how literals on condition lines are weighted.
func IsInConditional(lines []string, line int) bool {
	text := strings.TrimSpace(SourceLine(lines, line))
	for _, kw := range []string{"if ", "elif ", "while ", "for "} {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// CallName returns the dotted callable name of a Call node, e.g. "eval" or
// "time.sleep". When the base of an attribute chain is dynamic (a call, a
// subscript) only the trailing attribute names are returned, so ".sleep"
// suffix checks still work. Returns "" for non-calls and fully dynamic
// callees.
func CallName(call *parser.Node) string {
	if call == nil || call.Type != parser.NodeCall {
		return ""
	}
	return DottedName(call.Func)
}

// DottedName flattens a Name or Attribute chain into "a.b.c" form.
func DottedName(node *parser.Node) string {
	switch {
	case node == nil:
		return ""
	case node.Type == parser.NodeName:
		return node.Name
	case node.Type == parser.NodeAttribute:
		base := DottedName(node.Object)
		if base == "" {
			return node.Name
		}
		return base + "." + node.Name
	default:
		return ""
	}
}

// TopLevelStatements returns the immediate body statements of a function,
// class, or module node.
func TopLevelStatements(node *parser.Node) []*parser.Node {
	if node == nil {
		return nil
	}
	return node.Body
}

// HasDocstring reports whether the first body statement of a function, class,
// or module is a bare string constant.
func HasDocstring(node *parser.Node) bool {
	if node == nil || len(node.Body) == 0 {
		return false
	}
	first := node.Body[0]
	if first == nil || first.Type != parser.NodeExprStmt || first.Expr == nil {
		return false
	}
	_, ok := first.Expr.StringValue()
	return ok
}

// MethodsOf returns the function definitions directly inside a class body.
func MethodsOf(class *parser.Node) []*parser.Node {
	if class == nil {
		return nil
	}
	var methods []*parser.Node
	for _, stmt := range class.Body {
		if stmt != nil && stmt.Type == parser.NodeFunctionDef {
			methods = append(methods, stmt)
		}
	}
	return methods
}

// EnclosingFunction returns the nearest FunctionDef ancestor, or nil at
// module scope.
func EnclosingFunction(node *parser.Node) *parser.Node {
	if node == nil {
		return nil
	}
	for cur := node.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == parser.NodeFunctionDef {
			return cur
		}
	}
	return nil
}

// InsideLoop reports whether the node has a For or While ancestor.
func InsideLoop(node *parser.Node) bool {
	if node == nil {
		return false
	}
	for cur := node.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == parser.NodeFor || cur.Type == parser.NodeWhile {
			return true
		}
	}
	return false
}

// InsideTry reports whether the node has a Try ancestor that encloses it via
// the guarded body (handlers and finally blocks do not count).
func InsideTry(node *parser.Node) bool {
	child := node
	for cur := node.Parent; cur != nil; child, cur = cur, cur.Parent {
		if cur.Type != parser.NodeTry {
			continue
		}
		for _, stmt := range cur.Body {
			if stmt == child {
				return true
			}
		}
	}
	return false
}

// WithinTryStatement reports whether the node sits anywhere inside a Try
// statement, handlers and finally blocks included.
func WithinTryStatement(node *parser.Node) bool {
	if node == nil {
		return false
	}
	for cur := node.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == parser.NodeTry {
			return true
		}
	}
	return false
}

// FunctionLineSpan returns the inclusive line count of a definition,
// excluding a leading docstring when skipDocstring is set.
func FunctionLineSpan(fn *parser.Node, skipDocstring bool) int {
	if fn == nil {
		return 0
	}
	start := fn.Location.StartLine
	end := fn.Location.EndLine
	if end < start {
		return 0
	}
	span := end - start + 1
	if skipDocstring && HasDocstring(fn) {
		doc := fn.Body[0]
		docSpan := doc.Location.EndLine - doc.Location.StartLine + 1
		if docSpan > 0 && docSpan < span {
			span -= docSpan
		}
	}
	return span
}
