// Package testutil provides helper functions for testing conscan components
package testutil

import (
	"testing"

	"github.com/connascence-tools/conscan/internal/parser"
)

// ParsePython parses Python source code for a test, failing on parser errors.
func ParsePython(t *testing.T, source string) *parser.ParseResult {
	t.Helper()
	p := parser.NewParser()
	defer p.Close()

	result, err := p.ParseString(source)
	if err != nil {
		t.Fatalf("Failed to parse test code: %v", err)
	}
	return result
}

// ParseModule parses Python source code and returns the module root node.
func ParseModule(t *testing.T, source string) *parser.Node {
	t.Helper()
	return ParsePython(t, source).Root
}

// ParsePythonNoFail parses Python source, returning the error instead of failing.
func ParsePythonNoFail(source string) (*parser.ParseResult, error) {
	p := parser.NewParser()
	defer p.Close()
	return p.ParseString(source)
}

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertEqual fails the test if expected != actual
func AssertEqual(t *testing.T, expected, actual any) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}

// AssertTrue fails the test if condition is false
func AssertTrue(t *testing.T, condition bool, msg string) {
	t.Helper()
	if !condition {
		t.Error(msg)
	}
}

// AssertFalse fails the test if condition is true
func AssertFalse(t *testing.T, condition bool, msg string) {
	t.Helper()
	if condition {
		t.Error(msg)
	}
}

// FindFunctionInAST finds a function node by name in the AST
func FindFunctionInAST(ast *parser.Node, name string) *parser.Node {
	var found *parser.Node
	ast.Walk(func(n *parser.Node) bool {
		if n.IsFunction() && n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// FindClassInAST finds a class node by name in the AST
func FindClassInAST(ast *parser.Node, name string) *parser.Node {
	var found *parser.Node
	ast.Walk(func(n *parser.Node) bool {
		if n.Type == parser.NodeClassDef && n.Name == name {
			found = n
			return false
		}
		return true
	})
	return found
}

// CountNodesOfType counts nodes of a specific type in an AST
func CountNodesOfType(ast *parser.Node, nodeType parser.NodeType) int {
	count := 0
	ast.Walk(func(n *parser.Node) bool {
		if n.Type == nodeType {
			count++
		}
		return true
	})
	return count
}
