package parser

import "fmt"

// NodeType identifies the kind of a Python AST node. The names follow the
// CPython ast module so that analyzer rules read like their reference
// descriptions.
type NodeType string

const (
	// Statements
	NodeModule      NodeType = "Module"
	NodeFunctionDef NodeType = "FunctionDef"
	NodeClassDef    NodeType = "ClassDef"
	NodeIf          NodeType = "If"
	NodeFor         NodeType = "For"
	NodeWhile       NodeType = "While"
	NodeTry         NodeType = "Try"
	NodeExcept      NodeType = "ExceptHandler"
	NodeWith        NodeType = "With"
	NodeAssign      NodeType = "Assign"
	NodeAugAssign   NodeType = "AugAssign"
	NodeAnnAssign   NodeType = "AnnAssign"
	NodeReturn      NodeType = "Return"
	NodeRaise       NodeType = "Raise"
	NodeAssert      NodeType = "Assert"
	NodePass        NodeType = "Pass"
	NodeBreak       NodeType = "Break"
	NodeContinue    NodeType = "Continue"
	NodeDelete      NodeType = "Delete"
	NodeGlobal      NodeType = "Global"
	NodeNonlocal    NodeType = "Nonlocal"
	NodeImport      NodeType = "Import"
	NodeImportFrom  NodeType = "ImportFrom"
	NodeExprStmt    NodeType = "Expr"

	// Expressions
	NodeCall          NodeType = "Call"
	NodeAttribute     NodeType = "Attribute"
	NodeName          NodeType = "Name"
	NodeConstant      NodeType = "Constant"
	NodeFString       NodeType = "JoinedStr"
	NodeBinOp         NodeType = "BinOp"
	NodeUnaryOp       NodeType = "UnaryOp"
	NodeBoolOp        NodeType = "BoolOp"
	NodeCompare       NodeType = "Compare"
	NodeLambda        NodeType = "Lambda"
	NodeAwait         NodeType = "Await"
	NodeYield         NodeType = "Yield"
	NodeIfExp         NodeType = "IfExp"
	NodeNamedExpr     NodeType = "NamedExpr"
	NodeList          NodeType = "List"
	NodeDict          NodeType = "Dict"
	NodeSet           NodeType = "Set"
	NodeTuple         NodeType = "Tuple"
	NodePair          NodeType = "Pair"
	NodeListComp      NodeType = "ListComp"
	NodeDictComp      NodeType = "DictComp"
	NodeSetComp       NodeType = "SetComp"
	NodeGeneratorExp  NodeType = "GeneratorExp"
	NodeSubscript     NodeType = "Subscript"
	NodeSlice         NodeType = "Slice"
	NodeStarred       NodeType = "Starred"
	NodeKeyword       NodeType = "Keyword"
	NodeArg           NodeType = "Arg"
	NodeDecorator     NodeType = "Decorator"
	NodeWithItem      NodeType = "WithItem"
	NodeComprehension NodeType = "Comprehension"

	NodeUnknown NodeType = "Unknown"
)

// ConstKind classifies the payload of a Constant node.
type ConstKind string

const (
	ConstInt      ConstKind = "int"
	ConstFloat    ConstKind = "float"
	ConstStr      ConstKind = "str"
	ConstBytes    ConstKind = "bytes"
	ConstBool     ConstKind = "bool"
	ConstNone     ConstKind = "none"
	ConstEllipsis ConstKind = "ellipsis"
)

// Location is a position range in a source file. Lines are 1-indexed,
// columns 0-indexed, matching tree-sitter points shifted to editor rows.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.StartLine, l.StartCol)
}

// Node is a single Python AST node. One struct covers every node kind;
// unused fields stay at their zero value. The per-kind conventions are:
//
//	FunctionDef:   Name, Params, Body, Decorators, Returns, Async
//	ClassDef:      Name, Bases, Keywords, Body, Decorators
//	If/While:      Test, Body, Orelse
//	For:           Target, Iter, Body, Orelse, Async
//	Try:           Body, Handlers, Orelse, Final
//	ExceptHandler: ExceptType, Name (alias), Body
//	With:          Items (WithItem nodes), Body, Async
//	Assign:        Targets, Expr
//	AugAssign:     Target, Op, Expr
//	AnnAssign:     Target, Annotation, Expr
//	Call:          Func, Args, Keywords
//	Attribute:     Object, Name
//	Constant:      Kind, Value, Raw
//	BinOp/BoolOp:  Left, Right, Op
//	Compare:       Left, Ops, Comparators
//	Arg:           Name, Annotation, Default, IsVararg, IsKwarg, IsKwOnly
type Node struct {
	Type     NodeType
	Location Location
	Parent   *Node

	// Literal payload for Constant nodes.
	Value interface{}
	Kind  ConstKind
	Raw   string

	// Identifier payload: Name, Attribute, FunctionDef, ClassDef, Keyword,
	// Arg, and the alias on ExceptHandler.
	Name string

	// Operator token for BinOp, BoolOp, UnaryOp and AugAssign.
	Op string
	// Operator chain for Compare (a < b <= c has Ops ["<", "<="]).
	Ops []string

	Async bool

	// Parameter flags on Arg nodes.
	IsVararg bool
	IsKwarg  bool
	IsKwOnly bool

	// Names listed by Global, Nonlocal, Import and ImportFrom statements.
	Names []string

	Params      []*Node
	Body        []*Node
	Orelse      []*Node
	Handlers    []*Node
	Final       []*Node
	Decorators  []*Node
	Bases       []*Node
	Keywords    []*Node
	Items       []*Node
	Targets     []*Node
	Args        []*Node
	Comparators []*Node
	Elts        []*Node
	Children    []*Node

	Test       *Node
	Target     *Node
	Iter       *Node
	ExceptType *Node
	Func       *Node
	Object     *Node
	Left       *Node
	Right      *Node
	Operand    *Node
	Expr       *Node
	Index      *Node
	Key        *Node
	Annotation *Node
	Default    *Node
	Returns    *Node
}

// NewNode creates a node of the given type at the given location.
func NewNode(nodeType NodeType, loc Location) *Node {
	return &Node{Type: nodeType, Location: loc}
}

func (n *Node) String() string {
	if n.Name != "" {
		return fmt.Sprintf("%s(%s) at %s", n.Type, n.Name, n.Location)
	}
	return fmt.Sprintf("%s at %s", n.Type, n.Location)
}

// AddChild appends a node to the generic Children list and sets its parent.
func (n *Node) AddChild(child *Node) {
	if child == nil {
		return
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

// eachChild calls fn for every direct child node in roughly source order.
// It is the single enumeration point for the per-kind child fields.
func (n *Node) eachChild(fn func(*Node)) {
	one := func(c *Node) {
		if c != nil {
			fn(c)
		}
	}
	list := func(nodes []*Node) {
		for _, c := range nodes {
			one(c)
		}
	}

	list(n.Decorators)
	list(n.Params)
	one(n.Annotation)
	one(n.Default)
	one(n.Returns)
	list(n.Bases)
	list(n.Keywords)
	one(n.Test)
	one(n.Target)
	list(n.Targets)
	one(n.Iter)
	one(n.ExceptType)
	one(n.Func)
	list(n.Args)
	one(n.Object)
	one(n.Left)
	one(n.Right)
	one(n.Operand)
	list(n.Comparators)
	one(n.Key)
	one(n.Expr)
	one(n.Index)
	list(n.Items)
	list(n.Elts)
	list(n.Children)
	list(n.Body)
	list(n.Handlers)
	list(n.Orelse)
	list(n.Final)
}

// EachChild calls fn for every direct child node in roughly source order.
func (n *Node) EachChild(fn func(*Node)) {
	if n == nil {
		return
	}
	n.eachChild(fn)
}

// Walk visits n and all its descendants in roughly source order. The
// visitor returns false to skip the subtree below the current node.
func (n *Node) Walk(visitor func(*Node) bool) {
	if n == nil {
		return
	}
	if !visitor(n) {
		return
	}
	n.eachChild(func(c *Node) {
		c.Walk(visitor)
	})
}

// LinkParents wires the Parent pointer of every descendant of n.
func (n *Node) LinkParents() {
	if n == nil {
		return
	}
	n.eachChild(func(c *Node) {
		c.Parent = n
		c.LinkParents()
	})
}

// IsStatement reports whether the node is a Python statement.
func (n *Node) IsStatement() bool {
	switch n.Type {
	case NodeFunctionDef, NodeClassDef, NodeIf, NodeFor, NodeWhile,
		NodeTry, NodeWith, NodeAssign, NodeAugAssign, NodeAnnAssign,
		NodeReturn, NodeRaise, NodeAssert, NodePass, NodeBreak,
		NodeContinue, NodeDelete, NodeGlobal, NodeNonlocal,
		NodeImport, NodeImportFrom, NodeExprStmt:
		return true
	}
	return false
}

// IsExpression reports whether the node is a Python expression.
func (n *Node) IsExpression() bool {
	switch n.Type {
	case NodeCall, NodeAttribute, NodeName, NodeConstant, NodeFString,
		NodeBinOp, NodeUnaryOp, NodeBoolOp, NodeCompare, NodeLambda,
		NodeAwait, NodeYield, NodeIfExp, NodeNamedExpr, NodeList,
		NodeDict, NodeSet, NodeTuple, NodeListComp, NodeDictComp,
		NodeSetComp, NodeGeneratorExp, NodeSubscript, NodeSlice,
		NodeStarred:
		return true
	}
	return false
}

// IsFunction reports whether the node defines a callable body.
func (n *Node) IsFunction() bool {
	return n.Type == NodeFunctionDef || n.Type == NodeLambda
}

// IsLoop reports whether the node is a for or while loop.
func (n *Node) IsLoop() bool {
	return n.Type == NodeFor || n.Type == NodeWhile
}

// IsComprehension reports whether the node is a comprehension expression.
func (n *Node) IsComprehension() bool {
	switch n.Type {
	case NodeListComp, NodeDictComp, NodeSetComp, NodeGeneratorExp:
		return true
	}
	return false
}

// StringValue returns the payload of a string Constant.
func (n *Node) StringValue() (string, bool) {
	if n.Type != NodeConstant || n.Kind != ConstStr {
		return "", false
	}
	s, ok := n.Value.(string)
	return s, ok
}

// NumericValue returns the payload of an int or float Constant as float64.
func (n *Node) NumericValue() (float64, bool) {
	if n.Type != NodeConstant {
		return 0, false
	}
	switch v := n.Value.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
