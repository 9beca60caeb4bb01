package analyzer

import "strings"

// CostModel defines the cost functions for tree edit operations.
type CostModel interface {
	// Insert returns the cost of inserting a node
	Insert(node *TreeNode) float64

	// Delete returns the cost of deleting a node
	Delete(node *TreeNode) float64

	// Rename returns the cost of renaming node1 to node2
	Rename(node1, node2 *TreeNode) float64
}

// DefaultCostModel charges one unit per operation and zero for renaming
// equal labels.
type DefaultCostModel struct{}

// NewDefaultCostModel creates a new default cost model.
func NewDefaultCostModel() *DefaultCostModel {
	return &DefaultCostModel{}
}

// Insert returns the cost of inserting a node (always 1.0).
func (m *DefaultCostModel) Insert(node *TreeNode) float64 {
	return 1.0
}

// Delete returns the cost of deleting a node (always 1.0).
func (m *DefaultCostModel) Delete(node *TreeNode) float64 {
	return 1.0
}

// Rename returns the cost of renaming node1 to node2.
// Returns 0.0 if labels are identical, 1.0 otherwise.
func (m *DefaultCostModel) Rename(node1, node2 *TreeNode) float64 {
	if node1.Label == node2.Label {
		return 0.0
	}
	return 1.0
}

// PythonCostModel weighs edit operations by what the node means in Python
// source. Definitions and control flow cost more to change than plain
// expressions, and literal or identifier differences can be discounted so
// that renamed copies of a function still compare as near-identical.
type PythonCostModel struct {
	// IgnoreLiterals treats differing constant values as near-equal
	IgnoreLiterals bool

	// IgnoreIdentifiers treats differing variable names as near-equal
	IgnoreIdentifiers bool
}

// NewPythonCostModel creates a cost model with literal and identifier
// differences discounted, the configuration used for duplicate detection.
func NewPythonCostModel() *PythonCostModel {
	return &PythonCostModel{
		IgnoreLiterals:    true,
		IgnoreIdentifiers: true,
	}
}

// NewPythonCostModelWithConfig creates a cost model with custom settings.
func NewPythonCostModelWithConfig(ignoreLiterals, ignoreIdentifiers bool) *PythonCostModel {
	return &PythonCostModel{
		IgnoreLiterals:    ignoreLiterals,
		IgnoreIdentifiers: ignoreIdentifiers,
	}
}

// Insert returns the cost of inserting a node.
func (m *PythonCostModel) Insert(node *TreeNode) float64 {
	return m.getNodeTypeMultiplier(node)
}

// Delete returns the cost of deleting a node.
func (m *PythonCostModel) Delete(node *TreeNode) float64 {
	return m.getNodeTypeMultiplier(node)
}

// Rename returns the cost of renaming node1 to node2.
func (m *PythonCostModel) Rename(node1, node2 *TreeNode) float64 {
	if node1.Label == node2.Label {
		return 0.0
	}

	if m.shouldIgnoreDifference(node1, node2) {
		return 0.1
	}

	similarity := m.calculateLabelSimilarity(node1.Label, node2.Label)
	multiplier := (m.getNodeTypeMultiplier(node1) + m.getNodeTypeMultiplier(node2)) / 2.0
	return (1.0 - similarity) * multiplier
}

// getNodeTypeMultiplier returns the importance weight for a node type.
func (m *PythonCostModel) getNodeTypeMultiplier(node *TreeNode) float64 {
	baseType := extractBaseNodeType(node.Label)

	switch {
	case isStructuralNodeType(baseType):
		return 1.5
	case isControlFlowNodeType(baseType):
		return 1.3
	case isExpressionNodeType(baseType):
		return 0.8
	default:
		return 1.0
	}
}

// shouldIgnoreDifference reports whether the label difference is one the
// model is configured to discount.
func (m *PythonCostModel) shouldIgnoreDifference(node1, node2 *TreeNode) bool {
	base1 := extractBaseNodeType(node1.Label)
	base2 := extractBaseNodeType(node2.Label)
	if base1 != base2 {
		return false
	}

	if m.IgnoreLiterals && base1 == "Constant" {
		return true
	}
	if m.IgnoreIdentifiers && (base1 == "Name" || base1 == "Arg" || base1 == "Attribute") {
		return true
	}
	return false
}

// calculateLabelSimilarity estimates how close two labels are in [0, 1].
func (m *PythonCostModel) calculateLabelSimilarity(label1, label2 string) float64 {
	if label1 == label2 {
		return 1.0
	}

	base1 := extractBaseNodeType(label1)
	base2 := extractBaseNodeType(label2)

	if base1 == base2 {
		return 0.8
	}
	if areRelatedNodeTypes(base1, base2) {
		return 0.5
	}
	if areSameCategory(base1, base2) {
		return 0.3
	}
	return 0.0
}

// extractBaseNodeType strips the payload suffix from a label, so
// "Name(total)" becomes "Name" and "BinOp(+)" becomes "BinOp".
func extractBaseNodeType(label string) string {
	if idx := strings.Index(label, "("); idx > 0 {
		return label[:idx]
	}
	return label
}

// isStructuralNodeType reports whether the type introduces a definition
// or module scope.
func isStructuralNodeType(baseType string) bool {
	switch baseType {
	case "Module", "FunctionDef", "ClassDef", "Lambda":
		return true
	}
	return false
}

// isControlFlowNodeType reports whether the type alters control flow.
func isControlFlowNodeType(baseType string) bool {
	switch baseType {
	case "If", "For", "While", "Try", "ExceptHandler", "With",
		"Return", "Raise", "Break", "Continue", "Assert":
		return true
	}
	return false
}

// isExpressionNodeType reports whether the type is a plain expression.
func isExpressionNodeType(baseType string) bool {
	switch baseType {
	case "Call", "Attribute", "Name", "Constant", "BinOp", "UnaryOp",
		"BoolOp", "Compare", "IfExp", "NamedExpr", "Subscript", "Slice",
		"Starred", "JoinedStr", "Await", "Yield":
		return true
	}
	return false
}

// areRelatedNodeTypes reports whether two distinct types express
// interchangeable constructs.
func areRelatedNodeTypes(type1, type2 string) bool {
	related := map[string][]string{
		"For":          {"While", "ListComp", "GeneratorExp"},
		"While":        {"For"},
		"If":           {"IfExp"},
		"IfExp":        {"If"},
		"FunctionDef":  {"Lambda"},
		"Lambda":       {"FunctionDef"},
		"List":         {"Tuple", "Set"},
		"Tuple":        {"List", "Set"},
		"Set":          {"List", "Tuple"},
		"ListComp":     {"SetComp", "GeneratorExp", "For"},
		"SetComp":      {"ListComp", "GeneratorExp"},
		"GeneratorExp": {"ListComp", "SetComp", "For"},
		"Assign":       {"AugAssign", "AnnAssign"},
		"AugAssign":    {"Assign"},
		"AnnAssign":    {"Assign"},
	}

	if candidates, ok := related[type1]; ok {
		for _, candidate := range candidates {
			if candidate == type2 {
				return true
			}
		}
	}
	return false
}

// areSameCategory reports whether both types fall in the same broad
// category (structural, control flow, or expression).
func areSameCategory(type1, type2 string) bool {
	if isStructuralNodeType(type1) && isStructuralNodeType(type2) {
		return true
	}
	if isControlFlowNodeType(type1) && isControlFlowNodeType(type2) {
		return true
	}
	if isExpressionNodeType(type1) && isExpressionNodeType(type2) {
		return true
	}
	return false
}
