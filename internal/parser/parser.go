package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// maxSyntaxErrors caps how many recovery points are reported per file.
const maxSyntaxErrors = 10

// SyntaxError is a point where tree-sitter had to recover while parsing.
type SyntaxError struct {
	Line    int
	Col     int
	Message string
}

func (e SyntaxError) String() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Message)
}

// ParseResult is the outcome of parsing one Python source file. The tree
// is usable even when syntax errors were recovered; callers decide
// whether to analyze partial trees.
type ParseResult struct {
	Root         *Node
	SourceLines  []string
	SyntaxErrors []SyntaxError
}

// HasSyntaxErrors reports whether parsing required error recovery.
func (r *ParseResult) HasSyntaxErrors() bool {
	return len(r.SyntaxErrors) > 0
}

// Parser wraps the tree-sitter parser for Python.
type Parser struct {
	parser   *sitter.Parser
	language *sitter.Language
}

// NewParser creates a new Python parser.
func NewParser() *Parser {
	parser := sitter.NewParser()
	lang := python.GetLanguage()
	parser.SetLanguage(lang)

	return &Parser{
		parser:   parser,
		language: lang,
	}
}

// ParseFile parses a Python source file.
func (p *Parser) ParseFile(filename string, source []byte) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse file %s: %v", filename, err)
	}
	defer tree.Close()

	rootNode := tree.RootNode()
	if rootNode == nil {
		return nil, fmt.Errorf("no root node in parse tree for %s", filename)
	}

	result := &ParseResult{
		SourceLines: splitSourceLines(source),
	}
	if rootNode.HasError() {
		result.SyntaxErrors = collectSyntaxErrors(rootNode)
	}

	builder := NewASTBuilder(filename, source)
	result.Root = builder.Build(rootNode)
	if result.Root == nil {
		return nil, fmt.Errorf("empty parse tree for %s", filename)
	}
	return result, nil
}

// Parse parses Python source code.
func (p *Parser) Parse(source []byte) (*ParseResult, error) {
	return p.ParseFile("<input>", source)
}

// ParseString parses Python source code from a string.
func (p *Parser) ParseString(source string) (*ParseResult, error) {
	return p.Parse([]byte(source))
}

// Close closes the parser and frees resources.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
	}
}

// collectSyntaxErrors walks the CST for error and missing nodes.
func collectSyntaxErrors(root *sitter.Node) []SyntaxError {
	var errs []SyntaxError

	var visit func(node *sitter.Node)
	visit = func(node *sitter.Node) {
		if node == nil || len(errs) >= maxSyntaxErrors {
			return
		}

		switch {
		case node.IsError():
			errs = append(errs, SyntaxError{
				Line:    int(node.StartPoint().Row) + 1,
				Col:     int(node.StartPoint().Column),
				Message: "syntax error",
			})
		case node.IsMissing():
			errs = append(errs, SyntaxError{
				Line:    int(node.StartPoint().Row) + 1,
				Col:     int(node.StartPoint().Column),
				Message: fmt.Sprintf("missing %s", node.Type()),
			})
		}
		if !node.HasError() {
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			visit(node.Child(i))
		}
	}
	visit(root)
	return errs
}

// splitSourceLines splits source into display lines for snippets.
func splitSourceLines(source []byte) []string {
	lines := strings.Split(string(source), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}
