package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/connascence-tools/conscan/internal/parser"
)

// TreeNode is a node in the ordered labeled tree used by the tree edit
// distance computation.
type TreeNode struct {
	// Unique identifier for this node
	ID int

	// Label for the node (node type, optionally refined with operator,
	// constant kind, or identifier)
	Label string

	// Tree structure
	Children []*TreeNode
	Parent   *TreeNode

	// Indices for the keyroot decomposition
	PostOrderID  int  // Post-order traversal position
	LeftMostLeaf int  // Left-most leaf descendant
	KeyRoot      bool // Whether this node is a key root

	// Optional reference back to the source AST
	OriginalNode *parser.Node
}

// NewTreeNode creates a new tree node with the given ID and label.
func NewTreeNode(id int, label string) *TreeNode {
	return &TreeNode{
		ID:       id,
		Label:    label,
		Children: []*TreeNode{},
	}
}

// AddChild adds a child node to this node.
func (t *TreeNode) AddChild(child *TreeNode) {
	if child != nil {
		child.Parent = t
		t.Children = append(t.Children, child)
	}
}

// IsLeaf returns true if this node has no children.
func (t *TreeNode) IsLeaf() bool {
	return len(t.Children) == 0
}

// Size returns the number of nodes in the subtree rooted at this node.
func (t *TreeNode) Size() int {
	size := 1
	for _, child := range t.Children {
		size += child.Size()
	}
	return size
}

// Height returns the height of the subtree rooted at this node.
func (t *TreeNode) Height() int {
	if t.IsLeaf() {
		return 0
	}
	maxHeight := 0
	for _, child := range t.Children {
		if h := child.Height(); h > maxHeight {
			maxHeight = h
		}
	}
	return maxHeight + 1
}

// String returns a string representation of the node.
func (t *TreeNode) String() string {
	return fmt.Sprintf("Node{ID: %d, Label: %s, Children: %d}", t.ID, t.Label, len(t.Children))
}

// TreeConverter converts parser AST nodes into labeled trees for structural
// comparison.
type TreeConverter struct {
	nextID int
}

// NewTreeConverter creates a new tree converter.
func NewTreeConverter() *TreeConverter {
	return &TreeConverter{nextID: 0}
}

// ConvertAST converts a parser AST node to a labeled tree. Child order
// follows the AST's field traversal order, so statement sequence and
// expression shape are preserved.
func (tc *TreeConverter) ConvertAST(astNode *parser.Node) *TreeNode {
	if astNode == nil {
		return nil
	}

	treeNode := NewTreeNode(tc.nextID, tc.getNodeLabel(astNode))
	tc.nextID++
	treeNode.OriginalNode = astNode

	astNode.EachChild(func(child *parser.Node) {
		if converted := tc.ConvertAST(child); converted != nil {
			treeNode.AddChild(converted)
		}
	})

	return treeNode
}

// getNodeLabel derives the comparison label for an AST node. Identifiers
// and constants keep their payload in the label so that cost models can
// choose whether renames and literal changes count.
func (tc *TreeConverter) getNodeLabel(astNode *parser.Node) string {
	switch astNode.Type {
	case parser.NodeName:
		return fmt.Sprintf("Name(%s)", astNode.Name)
	case parser.NodeArg:
		return fmt.Sprintf("Arg(%s)", astNode.Name)
	case parser.NodeAttribute:
		return fmt.Sprintf("Attribute(%s)", astNode.Name)
	case parser.NodeConstant:
		return fmt.Sprintf("Constant(%s:%v)", astNode.Kind, astNode.Value)
	case parser.NodeFunctionDef:
		return fmt.Sprintf("FunctionDef(%s)", astNode.Name)
	case parser.NodeClassDef:
		return fmt.Sprintf("ClassDef(%s)", astNode.Name)
	case parser.NodeKeyword:
		return fmt.Sprintf("Keyword(%s)", astNode.Name)
	case parser.NodeBinOp, parser.NodeBoolOp, parser.NodeUnaryOp, parser.NodeAugAssign:
		if astNode.Op != "" {
			return fmt.Sprintf("%s(%s)", astNode.Type, astNode.Op)
		}
		return string(astNode.Type)
	case parser.NodeCompare:
		return fmt.Sprintf("Compare(%s)", strings.Join(astNode.Ops, ","))
	default:
		return string(astNode.Type)
	}
}

// PostOrderTraversal assigns post-order IDs to every node in the tree.
func PostOrderTraversal(root *TreeNode) {
	if root == nil {
		return
	}
	postOrderID := 0
	postOrderTraversalRecursive(root, &postOrderID)
}

func postOrderTraversalRecursive(node *TreeNode, postOrderID *int) {
	if node == nil {
		return
	}
	for _, child := range node.Children {
		postOrderTraversalRecursive(child, postOrderID)
	}
	node.PostOrderID = *postOrderID
	*postOrderID++
}

// ComputeLeftMostLeaves computes left-most leaf descendants for all nodes.
// Requires post-order IDs to be assigned first.
func ComputeLeftMostLeaves(root *TreeNode) {
	if root == nil {
		return
	}
	computeLeftMostLeavesRecursive(root)
}

func computeLeftMostLeavesRecursive(node *TreeNode) int {
	if node.IsLeaf() {
		node.LeftMostLeaf = node.PostOrderID
		return node.LeftMostLeaf
	}

	leftMostLeaf := computeLeftMostLeavesRecursive(node.Children[0])
	node.LeftMostLeaf = leftMostLeaf

	for i := 1; i < len(node.Children); i++ {
		computeLeftMostLeavesRecursive(node.Children[i])
	}

	return leftMostLeaf
}

// ComputeKeyRoots identifies the key roots used by the path decomposition:
// every node whose left-most leaf is not shared with an already-visited
// ancestor on the leftmost path.
func ComputeKeyRoots(root *TreeNode) []int {
	if root == nil {
		return []int{}
	}

	keyRoots := []int{}
	visited := make(map[int]bool)
	computeKeyRootsRecursive(root, &keyRoots, visited)
	return keyRoots
}

func computeKeyRootsRecursive(node *TreeNode, keyRoots *[]int, visited map[int]bool) {
	if node == nil {
		return
	}

	if !visited[node.LeftMostLeaf] {
		node.KeyRoot = true
		*keyRoots = append(*keyRoots, node.PostOrderID)
		visited[node.LeftMostLeaf] = true
	}

	for _, child := range node.Children {
		computeKeyRootsRecursive(child, keyRoots, visited)
	}
}

// PrepareTreeForAPTED computes post-order IDs, left-most leaves, and key
// roots. Key roots are returned sorted ascending, as the distance
// computation consumes them smallest-subtree first.
func PrepareTreeForAPTED(root *TreeNode) []int {
	if root == nil {
		return []int{}
	}

	PostOrderTraversal(root)
	ComputeLeftMostLeaves(root)
	keyRoots := ComputeKeyRoots(root)
	sort.Ints(keyRoots)
	return keyRoots
}

// GetNodeByPostOrderID finds a node by its post-order ID.
func GetNodeByPostOrderID(root *TreeNode, postOrderID int) *TreeNode {
	if root == nil {
		return nil
	}
	if root.PostOrderID == postOrderID {
		return root
	}
	for _, child := range root.Children {
		if node := GetNodeByPostOrderID(child, postOrderID); node != nil {
			return node
		}
	}
	return nil
}

// postOrderNodes returns the tree's nodes indexed by post-order ID.
// PrepareTreeForAPTED must have run on the root.
func postOrderNodes(root *TreeNode) []*TreeNode {
	if root == nil {
		return nil
	}
	nodes := make([]*TreeNode, root.Size())
	var collect func(*TreeNode)
	collect = func(n *TreeNode) {
		for _, child := range n.Children {
			collect(child)
		}
		nodes[n.PostOrderID] = n
	}
	collect(root)
	return nodes
}
