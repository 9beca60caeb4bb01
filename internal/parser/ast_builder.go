package parser

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ASTBuilder builds our internal AST from a tree-sitter CST.
type ASTBuilder struct {
	filename string
	source   []byte
}

// NewASTBuilder creates a new AST builder for the given file.
func NewASTBuilder(filename string, source []byte) *ASTBuilder {
	return &ASTBuilder{
		filename: filename,
		source:   source,
	}
}

// Build builds the AST from a tree-sitter node and wires parent pointers.
func (b *ASTBuilder) Build(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}

	node := b.buildNode(tsNode)
	if node != nil {
		node.LinkParents()
	}
	return node
}

// buildNode converts a tree-sitter node to our internal AST node.
func (b *ASTBuilder) buildNode(tsNode *sitter.Node) *Node {
	if tsNode == nil {
		return nil
	}

	switch tsNode.Type() {
	case "module":
		return b.buildModule(tsNode)
	case "function_definition":
		return b.buildFunctionDef(tsNode)
	case "class_definition":
		return b.buildClassDef(tsNode)
	case "decorated_definition":
		return b.buildDecoratedDefinition(tsNode)
	case "if_statement":
		return b.buildIf(tsNode)
	case "for_statement":
		return b.buildFor(tsNode)
	case "while_statement":
		return b.buildWhile(tsNode)
	case "try_statement":
		return b.buildTry(tsNode)
	case "with_statement":
		return b.buildWith(tsNode)
	case "expression_statement":
		return b.buildExpressionStatement(tsNode)
	case "assignment":
		return b.buildAssignment(tsNode)
	case "augmented_assignment":
		return b.buildAugmentedAssignment(tsNode)
	case "named_expression":
		return b.buildNamedExpression(tsNode)
	case "return_statement":
		return b.buildSimpleStatement(tsNode, NodeReturn)
	case "raise_statement":
		return b.buildSimpleStatement(tsNode, NodeRaise)
	case "delete_statement":
		return b.buildDelete(tsNode)
	case "assert_statement":
		return b.buildAssert(tsNode)
	case "pass_statement":
		return NewNode(NodePass, b.getLocation(tsNode))
	case "break_statement":
		return NewNode(NodeBreak, b.getLocation(tsNode))
	case "continue_statement":
		return NewNode(NodeContinue, b.getLocation(tsNode))
	case "global_statement":
		return b.buildNameListStatement(tsNode, NodeGlobal)
	case "nonlocal_statement":
		return b.buildNameListStatement(tsNode, NodeNonlocal)
	case "import_statement":
		return b.buildImport(tsNode)
	case "import_from_statement", "future_import_statement":
		return b.buildImportFrom(tsNode)
	case "call":
		return b.buildCall(tsNode)
	case "attribute":
		return b.buildAttribute(tsNode)
	case "identifier":
		return b.buildIdentifier(tsNode)
	case "true", "false":
		return b.buildBoolLiteral(tsNode)
	case "none":
		return b.buildNoneLiteral(tsNode)
	case "integer":
		return b.buildIntegerLiteral(tsNode)
	case "float":
		return b.buildFloatLiteral(tsNode)
	case "string":
		return b.buildString(tsNode)
	case "concatenated_string":
		return b.buildConcatenatedString(tsNode)
	case "ellipsis":
		return b.buildEllipsis(tsNode)
	case "binary_operator":
		return b.buildBinaryOperator(tsNode)
	case "boolean_operator":
		return b.buildBooleanOperator(tsNode)
	case "comparison_operator":
		return b.buildComparisonOperator(tsNode)
	case "unary_operator":
		return b.buildUnaryOperator(tsNode)
	case "not_operator":
		return b.buildNotOperator(tsNode)
	case "lambda":
		return b.buildLambda(tsNode)
	case "conditional_expression":
		return b.buildConditionalExpression(tsNode)
	case "await":
		return b.buildAwait(tsNode)
	case "yield":
		return b.buildYield(tsNode)
	case "list":
		return b.buildElementContainer(tsNode, NodeList)
	case "set":
		return b.buildElementContainer(tsNode, NodeSet)
	case "tuple", "expression_list", "pattern_list", "tuple_pattern", "list_pattern":
		return b.buildElementContainer(tsNode, NodeTuple)
	case "dictionary":
		return b.buildElementContainer(tsNode, NodeDict)
	case "pair":
		return b.buildPair(tsNode)
	case "list_comprehension":
		return b.buildComprehension(tsNode, NodeListComp)
	case "set_comprehension":
		return b.buildComprehension(tsNode, NodeSetComp)
	case "dictionary_comprehension":
		return b.buildComprehension(tsNode, NodeDictComp)
	case "generator_expression":
		return b.buildComprehension(tsNode, NodeGeneratorExp)
	case "for_in_clause":
		return b.buildForInClause(tsNode)
	case "if_clause":
		return b.buildIfClause(tsNode)
	case "subscript":
		return b.buildSubscript(tsNode)
	case "slice":
		return b.buildElementContainer(tsNode, NodeSlice)
	case "list_splat", "list_splat_pattern", "dictionary_splat", "dictionary_splat_pattern":
		return b.buildStarred(tsNode)
	case "keyword_argument":
		return b.buildKeywordArgument(tsNode)
	case "parenthesized_expression", "interpolation", "type":
		return b.buildNode(b.firstNamedChild(tsNode))
	case "as_pattern":
		return b.buildNode(tsNode.NamedChild(0))
	case "comment", "line_continuation":
		return nil
	default:
		return b.buildGenericNode(tsNode)
	}
}

func (b *ASTBuilder) buildModule(tsNode *sitter.Node) *Node {
	node := NewNode(NodeModule, b.getLocation(tsNode))
	node.Body = b.buildStatements(tsNode)
	return node
}

func (b *ASTBuilder) buildFunctionDef(tsNode *sitter.Node) *Node {
	node := NewNode(NodeFunctionDef, b.getLocation(tsNode))
	node.Async = b.hasKeywordChild(tsNode, "async")

	if nameNode := b.getChildByFieldName(tsNode, "name"); nameNode != nil {
		node.Name = b.text(nameNode)
	}
	if paramsNode := b.getChildByFieldName(tsNode, "parameters"); paramsNode != nil {
		node.Params = b.buildParameters(paramsNode)
	}
	if retNode := b.getChildByFieldName(tsNode, "return_type"); retNode != nil {
		node.Returns = b.buildNode(retNode)
	}
	if bodyNode := b.getChildByFieldName(tsNode, "body"); bodyNode != nil {
		node.Body = b.buildStatements(bodyNode)
	}
	return node
}

func (b *ASTBuilder) buildClassDef(tsNode *sitter.Node) *Node {
	node := NewNode(NodeClassDef, b.getLocation(tsNode))

	if nameNode := b.getChildByFieldName(tsNode, "name"); nameNode != nil {
		node.Name = b.text(nameNode)
	}
	if supersNode := b.getChildByFieldName(tsNode, "superclasses"); supersNode != nil {
		args, keywords := b.buildArguments(supersNode)
		node.Bases = args
		node.Keywords = keywords
	}
	if bodyNode := b.getChildByFieldName(tsNode, "body"); bodyNode != nil {
		node.Body = b.buildStatements(bodyNode)
	}
	return node
}

// buildDecoratedDefinition attaches the decorators to the wrapped
// function or class definition instead of introducing a wrapper node.
func (b *ASTBuilder) buildDecoratedDefinition(tsNode *sitter.Node) *Node {
	var decorators []*Node
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if child.Type() == "decorator" {
			decorators = append(decorators, b.buildDecorator(child))
		}
	}

	defNode := b.buildNode(b.getChildByFieldName(tsNode, "definition"))
	if defNode == nil {
		return nil
	}
	defNode.Decorators = decorators
	return defNode
}

func (b *ASTBuilder) buildDecorator(tsNode *sitter.Node) *Node {
	node := NewNode(NodeDecorator, b.getLocation(tsNode))
	node.Expr = b.buildNode(b.firstNamedChild(tsNode))
	node.Name = decoratorName(node.Expr)
	return node
}

// decoratorName returns the dotted name of a decorator expression,
// dropping any call arguments ("@lru_cache(maxsize=1)" yields "lru_cache").
func decoratorName(expr *Node) string {
	switch {
	case expr == nil:
		return ""
	case expr.Type == NodeCall:
		return decoratorName(expr.Func)
	case expr.Type == NodeAttribute:
		prefix := decoratorName(expr.Object)
		if prefix == "" {
			return expr.Name
		}
		return prefix + "." + expr.Name
	case expr.Type == NodeName:
		return expr.Name
	}
	return ""
}

// buildIf nests elif clauses as If nodes in Orelse, the way the CPython
// ast module represents them.
func (b *ASTBuilder) buildIf(tsNode *sitter.Node) *Node {
	node := NewNode(NodeIf, b.getLocation(tsNode))
	node.Test = b.buildNode(b.getChildByFieldName(tsNode, "condition"))
	node.Body = b.buildStatements(b.getChildByFieldName(tsNode, "consequence"))

	tail := node
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		switch child.Type() {
		case "elif_clause":
			elifNode := NewNode(NodeIf, b.getLocation(child))
			elifNode.Test = b.buildNode(b.getChildByFieldName(child, "condition"))
			elifNode.Body = b.buildStatements(b.getChildByFieldName(child, "consequence"))
			tail.Orelse = []*Node{elifNode}
			tail = elifNode
		case "else_clause":
			tail.Orelse = b.buildStatements(b.getChildByFieldName(child, "body"))
		}
	}
	return node
}

func (b *ASTBuilder) buildFor(tsNode *sitter.Node) *Node {
	node := NewNode(NodeFor, b.getLocation(tsNode))
	node.Async = b.hasKeywordChild(tsNode, "async")
	node.Target = b.buildNode(b.getChildByFieldName(tsNode, "left"))
	node.Iter = b.buildNode(b.getChildByFieldName(tsNode, "right"))
	node.Body = b.buildStatements(b.getChildByFieldName(tsNode, "body"))
	if elseClause := b.childOfType(tsNode, "else_clause"); elseClause != nil {
		node.Orelse = b.buildStatements(b.getChildByFieldName(elseClause, "body"))
	}
	return node
}

func (b *ASTBuilder) buildWhile(tsNode *sitter.Node) *Node {
	node := NewNode(NodeWhile, b.getLocation(tsNode))
	node.Test = b.buildNode(b.getChildByFieldName(tsNode, "condition"))
	node.Body = b.buildStatements(b.getChildByFieldName(tsNode, "body"))
	if elseClause := b.childOfType(tsNode, "else_clause"); elseClause != nil {
		node.Orelse = b.buildStatements(b.getChildByFieldName(elseClause, "body"))
	}
	return node
}

func (b *ASTBuilder) buildTry(tsNode *sitter.Node) *Node {
	node := NewNode(NodeTry, b.getLocation(tsNode))
	node.Body = b.buildStatements(b.getChildByFieldName(tsNode, "body"))

	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		switch child.Type() {
		case "except_clause", "except_group_clause":
			node.Handlers = append(node.Handlers, b.buildExceptClause(child))
		case "else_clause":
			node.Orelse = b.buildStatements(b.getChildByFieldName(child, "body"))
		case "finally_clause":
			node.Final = b.buildStatements(b.childOfType(child, "block"))
		}
	}
	return node
}

func (b *ASTBuilder) buildExceptClause(tsNode *sitter.Node) *Node {
	node := NewNode(NodeExcept, b.getLocation(tsNode))

	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		switch child.Type() {
		case "block":
			node.Body = b.buildStatements(child)
		case "as_pattern":
			node.ExceptType = b.buildNode(child.NamedChild(0))
			if alias := b.getChildByFieldName(child, "alias"); alias != nil {
				node.Name = b.text(alias)
			}
		case "comment":
		default:
			node.ExceptType = b.buildNode(child)
		}
	}
	return node
}

func (b *ASTBuilder) buildWith(tsNode *sitter.Node) *Node {
	node := NewNode(NodeWith, b.getLocation(tsNode))
	node.Async = b.hasKeywordChild(tsNode, "async")

	if clause := b.childOfType(tsNode, "with_clause"); clause != nil {
		for i := 0; i < int(clause.NamedChildCount()); i++ {
			child := clause.NamedChild(i)
			if child.Type() == "with_item" {
				node.Items = append(node.Items, b.buildWithItem(child))
			}
		}
	}
	node.Body = b.buildStatements(b.getChildByFieldName(tsNode, "body"))
	return node
}

func (b *ASTBuilder) buildWithItem(tsNode *sitter.Node) *Node {
	node := NewNode(NodeWithItem, b.getLocation(tsNode))

	valueNode := b.getChildByFieldName(tsNode, "value")
	if valueNode == nil {
		valueNode = b.firstNamedChild(tsNode)
	}
	if valueNode != nil && valueNode.Type() == "as_pattern" {
		node.Expr = b.buildNode(valueNode.NamedChild(0))
		if alias := b.getChildByFieldName(valueNode, "alias"); alias != nil {
			node.Name = b.text(alias)
		}
		return node
	}
	node.Expr = b.buildNode(valueNode)
	return node
}

// buildExpressionStatement unwraps assignments so they surface as
// statements, matching the CPython ast shape.
func (b *ASTBuilder) buildExpressionStatement(tsNode *sitter.Node) *Node {
	inner := b.firstNamedChild(tsNode)
	if inner == nil {
		return nil
	}
	switch inner.Type() {
	case "assignment", "augmented_assignment":
		return b.buildNode(inner)
	}

	node := NewNode(NodeExprStmt, b.getLocation(tsNode))
	node.Expr = b.buildNode(inner)
	if node.Expr == nil {
		return nil
	}
	return node
}

// buildAssignment handles plain, annotated and chained assignments.
func (b *ASTBuilder) buildAssignment(tsNode *sitter.Node) *Node {
	left := b.buildNode(b.getChildByFieldName(tsNode, "left"))
	typeNode := b.getChildByFieldName(tsNode, "type")
	right := b.getChildByFieldName(tsNode, "right")

	if typeNode != nil {
		node := NewNode(NodeAnnAssign, b.getLocation(tsNode))
		node.Target = left
		node.Annotation = b.buildNode(typeNode)
		node.Expr = b.buildNode(right)
		return node
	}

	node := NewNode(NodeAssign, b.getLocation(tsNode))
	node.Targets = []*Node{left}

	// x = y = value parses as nested assignments; fold the chain into a
	// single node with multiple targets.
	if right != nil && right.Type() == "assignment" {
		if chained := b.buildAssignment(right); chained != nil && chained.Type == NodeAssign {
			node.Targets = append(node.Targets, chained.Targets...)
			node.Expr = chained.Expr
			return node
		}
	}
	node.Expr = b.buildNode(right)
	return node
}

func (b *ASTBuilder) buildAugmentedAssignment(tsNode *sitter.Node) *Node {
	node := NewNode(NodeAugAssign, b.getLocation(tsNode))
	node.Target = b.buildNode(b.getChildByFieldName(tsNode, "left"))
	if opNode := b.getChildByFieldName(tsNode, "operator"); opNode != nil {
		node.Op = b.text(opNode)
	}
	node.Expr = b.buildNode(b.getChildByFieldName(tsNode, "right"))
	return node
}

func (b *ASTBuilder) buildNamedExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeNamedExpr, b.getLocation(tsNode))
	node.Target = b.buildNode(b.getChildByFieldName(tsNode, "name"))
	node.Expr = b.buildNode(b.getChildByFieldName(tsNode, "value"))
	return node
}

// buildSimpleStatement covers statements carrying a single optional
// expression, such as return and raise.
func (b *ASTBuilder) buildSimpleStatement(tsNode *sitter.Node, nodeType NodeType) *Node {
	node := NewNode(nodeType, b.getLocation(tsNode))
	node.Expr = b.buildNode(b.firstNamedChild(tsNode))
	return node
}

func (b *ASTBuilder) buildDelete(tsNode *sitter.Node) *Node {
	node := NewNode(NodeDelete, b.getLocation(tsNode))
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		if target := b.buildNode(tsNode.NamedChild(i)); target != nil {
			node.Targets = append(node.Targets, target)
		}
	}
	return node
}

func (b *ASTBuilder) buildAssert(tsNode *sitter.Node) *Node {
	node := NewNode(NodeAssert, b.getLocation(tsNode))
	node.Test = b.buildNode(tsNode.NamedChild(0))
	if tsNode.NamedChildCount() > 1 {
		node.Expr = b.buildNode(tsNode.NamedChild(1))
	}
	return node
}

func (b *ASTBuilder) buildNameListStatement(tsNode *sitter.Node, nodeType NodeType) *Node {
	node := NewNode(nodeType, b.getLocation(tsNode))
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		node.Names = append(node.Names, b.text(tsNode.NamedChild(i)))
	}
	return node
}

func (b *ASTBuilder) buildImport(tsNode *sitter.Node) *Node {
	node := NewNode(NodeImport, b.getLocation(tsNode))
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		switch child.Type() {
		case "dotted_name":
			node.Names = append(node.Names, b.text(child))
		case "aliased_import":
			if alias := b.getChildByFieldName(child, "alias"); alias != nil {
				node.Names = append(node.Names, b.text(alias))
			} else if name := b.getChildByFieldName(child, "name"); name != nil {
				node.Names = append(node.Names, b.text(name))
			}
		}
	}
	return node
}

func (b *ASTBuilder) buildImportFrom(tsNode *sitter.Node) *Node {
	node := NewNode(NodeImportFrom, b.getLocation(tsNode))
	if module := b.getChildByFieldName(tsNode, "module_name"); module != nil {
		node.Name = b.text(module)
	}

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		if tsNode.FieldNameForChild(i) != "name" {
			if child.Type() == "wildcard_import" {
				node.Names = append(node.Names, "*")
			}
			continue
		}
		switch child.Type() {
		case "dotted_name":
			node.Names = append(node.Names, b.text(child))
		case "aliased_import":
			if alias := b.getChildByFieldName(child, "alias"); alias != nil {
				node.Names = append(node.Names, b.text(alias))
			} else if name := b.getChildByFieldName(child, "name"); name != nil {
				node.Names = append(node.Names, b.text(name))
			}
		}
	}
	return node
}

func (b *ASTBuilder) buildCall(tsNode *sitter.Node) *Node {
	node := NewNode(NodeCall, b.getLocation(tsNode))
	node.Func = b.buildNode(b.getChildByFieldName(tsNode, "function"))

	argsNode := b.getChildByFieldName(tsNode, "arguments")
	if argsNode == nil {
		return node
	}
	if argsNode.Type() == "generator_expression" {
		if arg := b.buildNode(argsNode); arg != nil {
			node.Args = []*Node{arg}
		}
		return node
	}
	node.Args, node.Keywords = b.buildArguments(argsNode)
	return node
}

// buildArguments splits an argument_list into positional and keyword
// arguments. A dictionary splat becomes a Keyword node with no name.
func (b *ASTBuilder) buildArguments(tsNode *sitter.Node) ([]*Node, []*Node) {
	var args []*Node
	var keywords []*Node

	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if b.isTrivia(child) {
			continue
		}
		switch child.Type() {
		case "keyword_argument":
			if kw := b.buildKeywordArgument(child); kw != nil {
				keywords = append(keywords, kw)
			}
		case "dictionary_splat":
			kw := NewNode(NodeKeyword, b.getLocation(child))
			kw.Expr = b.buildNode(child.NamedChild(0))
			keywords = append(keywords, kw)
		default:
			if arg := b.buildNode(child); arg != nil {
				args = append(args, arg)
			}
		}
	}
	return args, keywords
}

func (b *ASTBuilder) buildKeywordArgument(tsNode *sitter.Node) *Node {
	node := NewNode(NodeKeyword, b.getLocation(tsNode))
	if nameNode := b.getChildByFieldName(tsNode, "name"); nameNode != nil {
		node.Name = b.text(nameNode)
	}
	node.Expr = b.buildNode(b.getChildByFieldName(tsNode, "value"))
	return node
}

func (b *ASTBuilder) buildAttribute(tsNode *sitter.Node) *Node {
	node := NewNode(NodeAttribute, b.getLocation(tsNode))
	node.Object = b.buildNode(b.getChildByFieldName(tsNode, "object"))
	if attr := b.getChildByFieldName(tsNode, "attribute"); attr != nil {
		node.Name = b.text(attr)
	}
	return node
}

func (b *ASTBuilder) buildIdentifier(tsNode *sitter.Node) *Node {
	node := NewNode(NodeName, b.getLocation(tsNode))
	node.Name = b.text(tsNode)
	return node
}

func (b *ASTBuilder) buildBoolLiteral(tsNode *sitter.Node) *Node {
	node := NewNode(NodeConstant, b.getLocation(tsNode))
	node.Kind = ConstBool
	node.Raw = b.text(tsNode)
	node.Value = tsNode.Type() == "true"
	return node
}

func (b *ASTBuilder) buildNoneLiteral(tsNode *sitter.Node) *Node {
	node := NewNode(NodeConstant, b.getLocation(tsNode))
	node.Kind = ConstNone
	node.Raw = b.text(tsNode)
	return node
}

func (b *ASTBuilder) buildEllipsis(tsNode *sitter.Node) *Node {
	node := NewNode(NodeConstant, b.getLocation(tsNode))
	node.Kind = ConstEllipsis
	node.Raw = b.text(tsNode)
	return node
}

func (b *ASTBuilder) buildIntegerLiteral(tsNode *sitter.Node) *Node {
	node := NewNode(NodeConstant, b.getLocation(tsNode))
	node.Raw = b.text(tsNode)
	node.Kind = ConstInt

	text := strings.ReplaceAll(node.Raw, "_", "")
	if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
		node.Kind = ConstFloat
		if v, err := strconv.ParseFloat(text[:len(text)-1], 64); err == nil {
			node.Value = v
		}
		return node
	}
	if v, err := strconv.ParseInt(text, 0, 64); err == nil {
		node.Value = v
		return node
	}
	// Integers beyond int64 degrade to float64.
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		node.Kind = ConstFloat
		node.Value = v
	}
	return node
}

func (b *ASTBuilder) buildFloatLiteral(tsNode *sitter.Node) *Node {
	node := NewNode(NodeConstant, b.getLocation(tsNode))
	node.Raw = b.text(tsNode)
	node.Kind = ConstFloat

	text := strings.ReplaceAll(node.Raw, "_", "")
	if strings.HasSuffix(text, "j") || strings.HasSuffix(text, "J") {
		text = text[:len(text)-1]
	}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		node.Value = v
	}
	return node
}

// buildString produces a Constant for plain literals and a JoinedStr
// carrying only the interpolated expressions for f-strings. The static
// text of an f-string never becomes a Constant node.
func (b *ASTBuilder) buildString(tsNode *sitter.Node) *Node {
	raw := b.text(tsNode)
	prefix, body := splitStringLiteral(raw)

	var interpolations []*Node
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if child.Type() != "interpolation" {
			continue
		}
		if expr := b.buildNode(child); expr != nil {
			interpolations = append(interpolations, expr)
		}
	}

	if strings.Contains(prefix, "f") || len(interpolations) > 0 {
		node := NewNode(NodeFString, b.getLocation(tsNode))
		node.Raw = raw
		node.Children = interpolations
		return node
	}

	node := NewNode(NodeConstant, b.getLocation(tsNode))
	node.Raw = raw
	node.Kind = ConstStr
	if strings.Contains(prefix, "b") {
		node.Kind = ConstBytes
	}
	if strings.Contains(prefix, "r") {
		node.Value = body
	} else {
		node.Value = decodeStringEscapes(body)
	}
	return node
}

func (b *ASTBuilder) buildConcatenatedString(tsNode *sitter.Node) *Node {
	var parts []*Node
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		if part := b.buildNode(tsNode.NamedChild(i)); part != nil {
			parts = append(parts, part)
		}
	}

	allPlain := true
	var merged strings.Builder
	for _, part := range parts {
		s, ok := part.StringValue()
		if !ok {
			allPlain = false
			break
		}
		merged.WriteString(s)
	}

	if allPlain {
		node := NewNode(NodeConstant, b.getLocation(tsNode))
		node.Kind = ConstStr
		node.Raw = b.text(tsNode)
		node.Value = merged.String()
		return node
	}

	node := NewNode(NodeFString, b.getLocation(tsNode))
	node.Raw = b.text(tsNode)
	node.Children = parts
	return node
}

func (b *ASTBuilder) buildBinaryOperator(tsNode *sitter.Node) *Node {
	node := NewNode(NodeBinOp, b.getLocation(tsNode))
	node.Left = b.buildNode(b.getChildByFieldName(tsNode, "left"))
	node.Right = b.buildNode(b.getChildByFieldName(tsNode, "right"))
	if opNode := b.getChildByFieldName(tsNode, "operator"); opNode != nil {
		node.Op = b.text(opNode)
	}
	return node
}

func (b *ASTBuilder) buildBooleanOperator(tsNode *sitter.Node) *Node {
	node := NewNode(NodeBoolOp, b.getLocation(tsNode))
	node.Left = b.buildNode(b.getChildByFieldName(tsNode, "left"))
	node.Right = b.buildNode(b.getChildByFieldName(tsNode, "right"))
	if opNode := b.getChildByFieldName(tsNode, "operator"); opNode != nil {
		node.Op = b.text(opNode)
	}
	return node
}

func (b *ASTBuilder) buildComparisonOperator(tsNode *sitter.Node) *Node {
	node := NewNode(NodeCompare, b.getLocation(tsNode))

	var operands []*Node
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child == nil {
			continue
		}
		if child.IsNamed() {
			if operand := b.buildNode(child); operand != nil {
				operands = append(operands, operand)
			}
			continue
		}
		// Two-token operators arrive as separate children.
		tok := child.Type()
		last := len(node.Ops) - 1
		switch {
		case tok == "in" && last >= 0 && node.Ops[last] == "not":
			node.Ops[last] = "not in"
		case tok == "not" && last >= 0 && node.Ops[last] == "is":
			node.Ops[last] = "is not"
		default:
			node.Ops = append(node.Ops, tok)
		}
	}

	if len(operands) > 0 {
		node.Left = operands[0]
		node.Comparators = operands[1:]
	}
	return node
}

// buildUnaryOperator folds negated numeric literals into Constants so
// that -1 carries the value -1 rather than a nested expression.
func (b *ASTBuilder) buildUnaryOperator(tsNode *sitter.Node) *Node {
	op := ""
	if opNode := b.getChildByFieldName(tsNode, "operator"); opNode != nil {
		op = b.text(opNode)
	}
	operand := b.buildNode(b.getChildByFieldName(tsNode, "argument"))

	if op == "-" && operand != nil && operand.Type == NodeConstant {
		switch v := operand.Value.(type) {
		case int64:
			operand.Value = -v
			operand.Raw = "-" + operand.Raw
			operand.Location = b.getLocation(tsNode)
			return operand
		case float64:
			operand.Value = -v
			operand.Raw = "-" + operand.Raw
			operand.Location = b.getLocation(tsNode)
			return operand
		}
	}

	node := NewNode(NodeUnaryOp, b.getLocation(tsNode))
	node.Op = op
	node.Operand = operand
	return node
}

func (b *ASTBuilder) buildNotOperator(tsNode *sitter.Node) *Node {
	node := NewNode(NodeUnaryOp, b.getLocation(tsNode))
	node.Op = "not"
	node.Operand = b.buildNode(b.getChildByFieldName(tsNode, "argument"))
	return node
}

func (b *ASTBuilder) buildLambda(tsNode *sitter.Node) *Node {
	node := NewNode(NodeLambda, b.getLocation(tsNode))
	if paramsNode := b.getChildByFieldName(tsNode, "parameters"); paramsNode != nil {
		node.Params = b.buildParameters(paramsNode)
	}
	node.Expr = b.buildNode(b.getChildByFieldName(tsNode, "body"))
	return node
}

// buildConditionalExpression maps "a if cond else b" with Left holding
// the value when the test is true and Right the value otherwise.
func (b *ASTBuilder) buildConditionalExpression(tsNode *sitter.Node) *Node {
	node := NewNode(NodeIfExp, b.getLocation(tsNode))
	if tsNode.NamedChildCount() >= 3 {
		node.Left = b.buildNode(tsNode.NamedChild(0))
		node.Test = b.buildNode(tsNode.NamedChild(1))
		node.Right = b.buildNode(tsNode.NamedChild(2))
	}
	return node
}

func (b *ASTBuilder) buildAwait(tsNode *sitter.Node) *Node {
	node := NewNode(NodeAwait, b.getLocation(tsNode))
	node.Expr = b.buildNode(b.firstNamedChild(tsNode))
	return node
}

func (b *ASTBuilder) buildYield(tsNode *sitter.Node) *Node {
	node := NewNode(NodeYield, b.getLocation(tsNode))
	node.Expr = b.buildNode(b.firstNamedChild(tsNode))
	return node
}

func (b *ASTBuilder) buildElementContainer(tsNode *sitter.Node, nodeType NodeType) *Node {
	node := NewNode(nodeType, b.getLocation(tsNode))
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if b.isTrivia(child) {
			continue
		}
		if elt := b.buildNode(child); elt != nil {
			node.Elts = append(node.Elts, elt)
		}
	}
	return node
}

func (b *ASTBuilder) buildPair(tsNode *sitter.Node) *Node {
	node := NewNode(NodePair, b.getLocation(tsNode))
	node.Key = b.buildNode(b.getChildByFieldName(tsNode, "key"))
	node.Expr = b.buildNode(b.getChildByFieldName(tsNode, "value"))
	return node
}

func (b *ASTBuilder) buildComprehension(tsNode *sitter.Node, nodeType NodeType) *Node {
	node := NewNode(nodeType, b.getLocation(tsNode))
	node.Expr = b.buildNode(b.getChildByFieldName(tsNode, "body"))

	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		switch child.Type() {
		case "for_in_clause", "if_clause":
			if clause := b.buildNode(child); clause != nil {
				node.Children = append(node.Children, clause)
			}
		}
	}
	return node
}

func (b *ASTBuilder) buildForInClause(tsNode *sitter.Node) *Node {
	node := NewNode(NodeComprehension, b.getLocation(tsNode))
	node.Async = b.hasKeywordChild(tsNode, "async")
	node.Target = b.buildNode(b.getChildByFieldName(tsNode, "left"))
	node.Iter = b.buildNode(b.getChildByFieldName(tsNode, "right"))
	return node
}

func (b *ASTBuilder) buildIfClause(tsNode *sitter.Node) *Node {
	node := NewNode(NodeComprehension, b.getLocation(tsNode))
	node.Test = b.buildNode(b.firstNamedChild(tsNode))
	return node
}

func (b *ASTBuilder) buildSubscript(tsNode *sitter.Node) *Node {
	node := NewNode(NodeSubscript, b.getLocation(tsNode))
	node.Object = b.buildNode(b.getChildByFieldName(tsNode, "value"))

	for i := 0; i < int(tsNode.ChildCount()); i++ {
		if tsNode.FieldNameForChild(i) != "subscript" {
			continue
		}
		if idx := b.buildNode(tsNode.Child(i)); idx != nil {
			if node.Index == nil {
				node.Index = idx
			} else {
				node.Elts = append(node.Elts, idx)
			}
		}
	}
	return node
}

func (b *ASTBuilder) buildStarred(tsNode *sitter.Node) *Node {
	node := NewNode(NodeStarred, b.getLocation(tsNode))
	node.Expr = b.buildNode(b.firstNamedChild(tsNode))
	return node
}

// buildParameters flattens a parameters node into Arg nodes. Parameters
// after a bare * or *args are keyword-only.
func (b *ASTBuilder) buildParameters(tsNode *sitter.Node) []*Node {
	var params []*Node
	kwOnly := false

	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		switch child.Type() {
		case "identifier":
			arg := NewNode(NodeArg, b.getLocation(child))
			arg.Name = b.text(child)
			arg.IsKwOnly = kwOnly
			params = append(params, arg)
		case "typed_parameter":
			arg := b.buildTypedParameter(child)
			arg.IsKwOnly = kwOnly
			if arg.IsVararg {
				kwOnly = true
				arg.IsKwOnly = false
			}
			params = append(params, arg)
		case "default_parameter", "typed_default_parameter":
			arg := NewNode(NodeArg, b.getLocation(child))
			if nameNode := b.getChildByFieldName(child, "name"); nameNode != nil {
				arg.Name = b.text(nameNode)
			}
			if typeNode := b.getChildByFieldName(child, "type"); typeNode != nil {
				arg.Annotation = b.buildNode(typeNode)
			}
			arg.Default = b.buildNode(b.getChildByFieldName(child, "value"))
			arg.IsKwOnly = kwOnly
			params = append(params, arg)
		case "list_splat_pattern":
			arg := NewNode(NodeArg, b.getLocation(child))
			arg.Name = b.innerName(child)
			arg.IsVararg = true
			params = append(params, arg)
			kwOnly = true
		case "dictionary_splat_pattern":
			arg := NewNode(NodeArg, b.getLocation(child))
			arg.Name = b.innerName(child)
			arg.IsKwarg = true
			params = append(params, arg)
		case "keyword_separator":
			kwOnly = true
		case "positional_separator", "comment":
		default:
			arg := NewNode(NodeArg, b.getLocation(child))
			arg.Name = b.text(child)
			arg.IsKwOnly = kwOnly
			params = append(params, arg)
		}
	}
	return params
}

func (b *ASTBuilder) buildTypedParameter(tsNode *sitter.Node) *Node {
	arg := NewNode(NodeArg, b.getLocation(tsNode))
	if typeNode := b.getChildByFieldName(tsNode, "type"); typeNode != nil {
		arg.Annotation = b.buildNode(typeNode)
	}

	inner := b.firstNamedChild(tsNode)
	if inner == nil {
		return arg
	}
	switch inner.Type() {
	case "list_splat_pattern":
		arg.IsVararg = true
		arg.Name = b.innerName(inner)
	case "dictionary_splat_pattern":
		arg.IsKwarg = true
		arg.Name = b.innerName(inner)
	default:
		arg.Name = b.text(inner)
	}
	return arg
}

// buildStatements builds the statement list of a block or module node.
func (b *ASTBuilder) buildStatements(tsNode *sitter.Node) []*Node {
	if tsNode == nil {
		return nil
	}

	stmts := make([]*Node, 0, tsNode.NamedChildCount())
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if b.isTrivia(child) {
			continue
		}
		if stmt := b.buildNode(child); stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

// buildGenericNode keeps unhandled constructs walkable by collecting
// their named children. Match statements and other newer syntax pass
// through here.
func (b *ASTBuilder) buildGenericNode(tsNode *sitter.Node) *Node {
	if !tsNode.IsNamed() {
		return nil
	}

	node := NewNode(NodeUnknown, b.getLocation(tsNode))
	node.Raw = tsNode.Type()
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if b.isTrivia(child) {
			continue
		}
		if childNode := b.buildNode(child); childNode != nil {
			node.AddChild(childNode)
		}
	}
	return node
}

// Helper methods

// getLocation extracts location information from a tree-sitter node.
func (b *ASTBuilder) getLocation(tsNode *sitter.Node) Location {
	return Location{
		File:      b.filename,
		StartLine: int(tsNode.StartPoint().Row) + 1,
		StartCol:  int(tsNode.StartPoint().Column),
		EndLine:   int(tsNode.EndPoint().Row) + 1,
		EndCol:    int(tsNode.EndPoint().Column),
	}
}

// getChildByFieldName gets a child node by field name.
func (b *ASTBuilder) getChildByFieldName(tsNode *sitter.Node, fieldName string) *sitter.Node {
	if tsNode == nil {
		return nil
	}
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && tsNode.FieldNameForChild(i) == fieldName {
			return child
		}
	}
	return nil
}

// firstNamedChild returns the first non-trivia named child.
func (b *ASTBuilder) firstNamedChild(tsNode *sitter.Node) *sitter.Node {
	if tsNode == nil {
		return nil
	}
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if !b.isTrivia(child) {
			return child
		}
	}
	return nil
}

// childOfType returns the first named child with the given type.
func (b *ASTBuilder) childOfType(tsNode *sitter.Node, nodeType string) *sitter.Node {
	if tsNode == nil {
		return nil
	}
	for i := 0; i < int(tsNode.NamedChildCount()); i++ {
		child := tsNode.NamedChild(i)
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// hasKeywordChild reports whether a keyword token such as "async"
// appears among the direct children.
func (b *ASTBuilder) hasKeywordChild(tsNode *sitter.Node, keyword string) bool {
	for i := 0; i < int(tsNode.ChildCount()); i++ {
		child := tsNode.Child(i)
		if child != nil && !child.IsNamed() && child.Type() == keyword {
			return true
		}
	}
	return false
}

// innerName extracts the identifier inside a splat pattern.
func (b *ASTBuilder) innerName(tsNode *sitter.Node) string {
	if inner := b.firstNamedChild(tsNode); inner != nil {
		return b.text(inner)
	}
	return ""
}

// text returns the source text covered by a node.
func (b *ASTBuilder) text(tsNode *sitter.Node) string {
	if tsNode == nil {
		return ""
	}
	return tsNode.Content(b.source)
}

// isTrivia checks if a node is trivia such as comments.
func (b *ASTBuilder) isTrivia(tsNode *sitter.Node) bool {
	nodeType := tsNode.Type()
	return nodeType == "comment" || nodeType == "line_continuation" || nodeType == ""
}

// splitStringLiteral separates the prefix and the quoted body of a
// Python string literal.
func splitStringLiteral(raw string) (prefix, body string) {
	i := 0
	for i < len(raw) && raw[i] != '\'' && raw[i] != '"' {
		i++
	}
	prefix = strings.ToLower(raw[:i])
	rest := raw[i:]

	for _, quote := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(rest, quote) {
			body = strings.TrimPrefix(rest, quote)
			body = strings.TrimSuffix(body, quote)
			return prefix, body
		}
	}
	return prefix, rest
}

// decodeStringEscapes resolves the single-character escape sequences
// that matter for literal comparison. Unicode and hex escapes are kept
// as written.
func decodeStringEscapes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var out strings.Builder
	out.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case 'r':
			out.WriteByte('\r')
		case '\\':
			out.WriteByte('\\')
		case '\'':
			out.WriteByte('\'')
		case '"':
			out.WriteByte('"')
		case '0':
			out.WriteByte(0)
		case '\n':
			// Line continuation inside a literal.
		default:
			out.WriteByte('\\')
			out.WriteByte(s[i])
		}
	}
	return out.String()
}
