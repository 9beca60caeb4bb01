package analyzer

import (
	"github.com/connascence-tools/conscan/internal/parser"
)

// CyclomaticComplexity computes the decision-point complexity of a function
// or any other subtree: one plus each branch, loop, exception handler, and
// boolean operator found below the node.
func CyclomaticComplexity(node *parser.Node) int {
	if node == nil {
		return 0
	}
	complexity := 1
	node.Walk(func(n *parser.Node) bool {
		switch n.Type {
		case parser.NodeIf, parser.NodeWhile, parser.NodeFor:
			complexity++
		case parser.NodeExcept:
			complexity++
		case parser.NodeBoolOp:
			complexity++
		}
		return true
	})
	return complexity
}

// MaxNestingDepth returns the deepest chain of nested if/while/for/with
// statements below the node. A flat body has depth zero.
func MaxNestingDepth(node *parser.Node) int {
	if node == nil {
		return 0
	}
	return nestingDepth(node, 0)
}

func nestingDepth(n *parser.Node, depth int) int {
	maxDepth := depth
	n.EachChild(func(child *parser.Node) {
		d := depth
		switch child.Type {
		case parser.NodeIf, parser.NodeWhile, parser.NodeFor, parser.NodeWith:
			d = depth + 1
		}
		if cd := nestingDepth(child, d); cd > maxDepth {
			maxDepth = cd
		}
	})
	return maxDepth
}
