package parser

import (
	"testing"
)

func TestParseSimpleFunction(t *testing.T) {
	code := `def hello():
    return 42
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	ast := result.Root
	if ast == nil {
		t.Fatal("AST is nil")
	}
	if ast.Type != NodeModule {
		t.Errorf("Expected NodeModule, got %s", ast.Type)
	}
	if len(ast.Body) == 0 {
		t.Fatal("Expected at least one statement in body")
	}

	funcNode := ast.Body[0]
	if funcNode.Type != NodeFunctionDef {
		t.Errorf("Expected NodeFunctionDef, got %s", funcNode.Type)
	}
	if funcNode.Name != "hello" {
		t.Errorf("Expected function name 'hello', got '%s'", funcNode.Name)
	}
	if len(funcNode.Body) != 1 {
		t.Fatalf("Expected 1 body statement, got %d", len(funcNode.Body))
	}
	if funcNode.Body[0].Type != NodeReturn {
		t.Errorf("Expected NodeReturn, got %s", funcNode.Body[0].Type)
	}
}

func TestParseParameters(t *testing.T) {
	code := `def process(self, data, limit=10, *args, mode, **kwargs):
    pass
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	funcNode := result.Root.Body[0]
	if len(funcNode.Params) != 6 {
		t.Fatalf("Expected 6 parameters, got %d", len(funcNode.Params))
	}

	names := []string{"self", "data", "limit", "args", "mode", "kwargs"}
	for i, want := range names {
		if funcNode.Params[i].Name != want {
			t.Errorf("Param %d: expected %q, got %q", i, want, funcNode.Params[i].Name)
		}
	}

	if funcNode.Params[2].Default == nil {
		t.Error("Expected default value on 'limit'")
	}
	if !funcNode.Params[3].IsVararg {
		t.Error("Expected 'args' to be vararg")
	}
	if !funcNode.Params[4].IsKwOnly {
		t.Error("Expected 'mode' to be keyword-only after *args")
	}
	if !funcNode.Params[5].IsKwarg {
		t.Error("Expected 'kwargs' to be kwarg")
	}
}

func TestParseKeywordOnlySeparator(t *testing.T) {
	code := `def configure(host, *, port, timeout=5):
    pass
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	funcNode := result.Root.Body[0]
	if len(funcNode.Params) != 3 {
		t.Fatalf("Expected 3 parameters, got %d", len(funcNode.Params))
	}
	if funcNode.Params[0].IsKwOnly {
		t.Error("'host' should not be keyword-only")
	}
	if !funcNode.Params[1].IsKwOnly {
		t.Error("'port' should be keyword-only")
	}
	if !funcNode.Params[2].IsKwOnly {
		t.Error("'timeout' should be keyword-only")
	}
}

func TestParseIfElifElse(t *testing.T) {
	code := `if x > 0:
    a = 1
elif x < 0:
    a = 2
else:
    a = 3
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	ifNode := result.Root.Body[0]
	if ifNode.Type != NodeIf {
		t.Fatalf("Expected NodeIf, got %s", ifNode.Type)
	}
	if ifNode.Test == nil {
		t.Fatal("Expected if to have a test")
	}

	// elif nests as a single If in Orelse
	if len(ifNode.Orelse) != 1 || ifNode.Orelse[0].Type != NodeIf {
		t.Fatalf("Expected elif to nest as If in Orelse, got %+v", ifNode.Orelse)
	}
	elifNode := ifNode.Orelse[0]
	if len(elifNode.Orelse) != 1 {
		t.Fatalf("Expected else body with 1 statement, got %d", len(elifNode.Orelse))
	}
	if elifNode.Orelse[0].Type != NodeAssign {
		t.Errorf("Expected NodeAssign in else body, got %s", elifNode.Orelse[0].Type)
	}
}

func TestParseForLoop(t *testing.T) {
	code := `for item in items:
    total += item
else:
    done = True
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	forNode := result.Root.Body[0]
	if forNode.Type != NodeFor {
		t.Fatalf("Expected NodeFor, got %s", forNode.Type)
	}
	if forNode.Target == nil {
		t.Error("Expected for loop to have a target")
	}
	if forNode.Iter == nil {
		t.Error("Expected for loop to have an iterable")
	}
	if len(forNode.Body) != 1 || forNode.Body[0].Type != NodeAugAssign {
		t.Errorf("Expected AugAssign body, got %+v", forNode.Body)
	}
	if len(forNode.Orelse) != 1 {
		t.Errorf("Expected for-else body, got %d statements", len(forNode.Orelse))
	}
}

func TestParseWhileLoop(t *testing.T) {
	code := `while count < 10:
    count = count + 1
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	found := false
	result.Root.Walk(func(n *Node) bool {
		if n.Type == NodeWhile {
			found = true
			if n.Test == nil {
				t.Error("Expected while loop to have test condition")
			}
			return false
		}
		return true
	})

	if !found {
		t.Error("Expected to find while statement")
	}
}

func TestParseTryExceptFinally(t *testing.T) {
	code := `try:
    risky()
except ValueError as err:
    handle(err)
except Exception:
    pass
else:
    celebrate()
finally:
    cleanup()
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tryNode := result.Root.Body[0]
	if tryNode.Type != NodeTry {
		t.Fatalf("Expected NodeTry, got %s", tryNode.Type)
	}
	if len(tryNode.Handlers) != 2 {
		t.Fatalf("Expected 2 except handlers, got %d", len(tryNode.Handlers))
	}

	first := tryNode.Handlers[0]
	if first.ExceptType == nil || first.ExceptType.Name != "ValueError" {
		t.Errorf("Expected first handler to catch ValueError, got %+v", first.ExceptType)
	}
	if first.Name != "err" {
		t.Errorf("Expected alias 'err', got %q", first.Name)
	}

	second := tryNode.Handlers[1]
	if second.ExceptType == nil || second.ExceptType.Name != "Exception" {
		t.Errorf("Expected second handler to catch Exception, got %+v", second.ExceptType)
	}
	if len(second.Body) != 1 || second.Body[0].Type != NodePass {
		t.Errorf("Expected pass body in second handler")
	}

	if len(tryNode.Orelse) != 1 {
		t.Errorf("Expected try-else body, got %d statements", len(tryNode.Orelse))
	}
	if len(tryNode.Final) != 1 {
		t.Errorf("Expected finally body, got %d statements", len(tryNode.Final))
	}
}

func TestParseBareExcept(t *testing.T) {
	code := `try:
    risky()
except:
    pass
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	tryNode := result.Root.Body[0]
	if len(tryNode.Handlers) != 1 {
		t.Fatalf("Expected 1 handler, got %d", len(tryNode.Handlers))
	}
	if tryNode.Handlers[0].ExceptType != nil {
		t.Error("Bare except should have nil ExceptType")
	}
}

func TestParseWithStatement(t *testing.T) {
	code := `with open(path) as f, lock:
    data = f.read()
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	withNode := result.Root.Body[0]
	if withNode.Type != NodeWith {
		t.Fatalf("Expected NodeWith, got %s", withNode.Type)
	}
	if len(withNode.Items) != 2 {
		t.Fatalf("Expected 2 with items, got %d", len(withNode.Items))
	}
	if withNode.Items[0].Name != "f" {
		t.Errorf("Expected alias 'f', got %q", withNode.Items[0].Name)
	}
	if withNode.Items[0].Expr == nil || withNode.Items[0].Expr.Type != NodeCall {
		t.Error("Expected first with item to be a call")
	}
	if withNode.Items[1].Name != "" {
		t.Errorf("Second item has no alias, got %q", withNode.Items[1].Name)
	}
}

func TestParseClass(t *testing.T) {
	code := `class OrderService(BaseService, metaclass=Meta):
    def __init__(self):
        self.orders = []

    def submit(self, order):
        self.orders.append(order)
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	classNode := result.Root.Body[0]
	if classNode.Type != NodeClassDef {
		t.Fatalf("Expected NodeClassDef, got %s", classNode.Type)
	}
	if classNode.Name != "OrderService" {
		t.Errorf("Expected class name 'OrderService', got '%s'", classNode.Name)
	}
	if len(classNode.Bases) != 1 || classNode.Bases[0].Name != "BaseService" {
		t.Errorf("Expected base 'BaseService', got %+v", classNode.Bases)
	}
	if len(classNode.Keywords) != 1 || classNode.Keywords[0].Name != "metaclass" {
		t.Errorf("Expected metaclass keyword, got %+v", classNode.Keywords)
	}
	if len(classNode.Body) != 2 {
		t.Fatalf("Expected 2 methods, got %d", len(classNode.Body))
	}
	if classNode.Body[0].Name != "__init__" || classNode.Body[1].Name != "submit" {
		t.Errorf("Unexpected method names: %s, %s", classNode.Body[0].Name, classNode.Body[1].Name)
	}
}

func TestParseDecorators(t *testing.T) {
	code := `@app.route("/health")
@lru_cache(maxsize=1)
@property
def status(self):
    return self._status
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	funcNode := result.Root.Body[0]
	if funcNode.Type != NodeFunctionDef {
		t.Fatalf("Expected NodeFunctionDef, got %s", funcNode.Type)
	}
	if len(funcNode.Decorators) != 3 {
		t.Fatalf("Expected 3 decorators, got %d", len(funcNode.Decorators))
	}

	names := []string{"app.route", "lru_cache", "property"}
	for i, want := range names {
		if funcNode.Decorators[i].Name != want {
			t.Errorf("Decorator %d: expected %q, got %q", i, want, funcNode.Decorators[i].Name)
		}
	}
}

func TestParseAsyncFunction(t *testing.T) {
	code := `async def fetch_data(url):
    response = await client.get(url)
    return response
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	funcNode := result.Root.Body[0]
	if funcNode.Type != NodeFunctionDef {
		t.Fatalf("Expected NodeFunctionDef, got %s", funcNode.Type)
	}
	if !funcNode.Async {
		t.Error("Expected async flag on function")
	}

	awaitFound := false
	funcNode.Walk(func(n *Node) bool {
		if n.Type == NodeAwait {
			awaitFound = true
			return false
		}
		return true
	})
	if !awaitFound {
		t.Error("Expected to find await expression")
	}
}

func TestParseAssignmentForms(t *testing.T) {
	code := `x = 5
x: int = 6
x += 1
a = b = 7
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	body := result.Root.Body
	if len(body) != 4 {
		t.Fatalf("Expected 4 statements, got %d", len(body))
	}

	if body[0].Type != NodeAssign {
		t.Errorf("Expected NodeAssign, got %s", body[0].Type)
	}
	if body[1].Type != NodeAnnAssign {
		t.Errorf("Expected NodeAnnAssign, got %s", body[1].Type)
	}
	if body[1].Annotation == nil {
		t.Error("Expected annotation on annotated assignment")
	}
	if body[2].Type != NodeAugAssign || body[2].Op != "+=" {
		t.Errorf("Expected AugAssign with +=, got %s %q", body[2].Type, body[2].Op)
	}
	if body[3].Type != NodeAssign || len(body[3].Targets) != 2 {
		t.Errorf("Expected chained assign with 2 targets, got %d", len(body[3].Targets))
	}
}

func TestParseIntegerLiterals(t *testing.T) {
	code := `a = 42
b = 0xFF
c = 1_000_000
d = 0b101
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []int64{42, 255, 1000000, 5}
	for i, stmt := range result.Root.Body {
		c := stmt.Expr
		if c == nil || c.Type != NodeConstant || c.Kind != ConstInt {
			t.Fatalf("Statement %d: expected int constant, got %+v", i, c)
		}
		if v, ok := c.Value.(int64); !ok || v != want[i] {
			t.Errorf("Statement %d: expected %d, got %v", i, want[i], c.Value)
		}
	}
}

func TestParseNegativeNumberFolding(t *testing.T) {
	code := `x = -1
y = -2.5
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	first := result.Root.Body[0].Expr
	if first.Type != NodeConstant {
		t.Fatalf("Expected folded constant for -1, got %s", first.Type)
	}
	if v, ok := first.Value.(int64); !ok || v != -1 {
		t.Errorf("Expected -1, got %v", first.Value)
	}
	if first.Raw != "-1" {
		t.Errorf("Expected raw '-1', got %q", first.Raw)
	}

	second := result.Root.Body[1].Expr
	if v, ok := second.Value.(float64); !ok || v != -2.5 {
		t.Errorf("Expected -2.5, got %v", second.Value)
	}
}

func TestParseStringLiterals(t *testing.T) {
	code := `a = "hello"
b = 'single'
c = "line\n"
d = r"raw\n"
e = b"bytes"
f = """triple
quoted"""
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	body := result.Root.Body
	cases := []struct {
		value string
		kind  ConstKind
	}{
		{"hello", ConstStr},
		{"single", ConstStr},
		{"line\n", ConstStr},
		{`raw\n`, ConstStr},
		{"bytes", ConstBytes},
		{"triple\nquoted", ConstStr},
	}

	for i, want := range cases {
		c := body[i].Expr
		if c == nil || c.Type != NodeConstant {
			t.Fatalf("Statement %d: expected constant, got %+v", i, c)
		}
		if c.Kind != want.kind {
			t.Errorf("Statement %d: expected kind %s, got %s", i, want.kind, c.Kind)
		}
		if s, _ := c.Value.(string); s != want.value {
			t.Errorf("Statement %d: expected %q, got %q", i, want.value, s)
		}
	}
}

func TestParseFString(t *testing.T) {
	code := `msg = f"user {name} has {count} items"
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	fstr := result.Root.Body[0].Expr
	if fstr.Type != NodeFString {
		t.Fatalf("Expected NodeFString, got %s", fstr.Type)
	}
	if len(fstr.Children) != 2 {
		t.Fatalf("Expected 2 interpolations, got %d", len(fstr.Children))
	}

	// Static f-string text must not surface as string constants.
	constCount := 0
	fstr.Walk(func(n *Node) bool {
		if n.Type == NodeConstant && n.Kind == ConstStr {
			constCount++
		}
		return true
	})
	if constCount != 0 {
		t.Errorf("Expected no string constants inside f-string, got %d", constCount)
	}
}

func TestParseComparisonChain(t *testing.T) {
	code := `ok = 0 < x <= 100
miss = key not in cache
same = a is not b
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	chain := result.Root.Body[0].Expr
	if chain.Type != NodeCompare {
		t.Fatalf("Expected NodeCompare, got %s", chain.Type)
	}
	if len(chain.Ops) != 2 || chain.Ops[0] != "<" || chain.Ops[1] != "<=" {
		t.Errorf("Expected ops [< <=], got %v", chain.Ops)
	}
	if len(chain.Comparators) != 2 {
		t.Errorf("Expected 2 comparators, got %d", len(chain.Comparators))
	}

	notIn := result.Root.Body[1].Expr
	if len(notIn.Ops) != 1 || notIn.Ops[0] != "not in" {
		t.Errorf("Expected [not in], got %v", notIn.Ops)
	}

	isNot := result.Root.Body[2].Expr
	if len(isNot.Ops) != 1 || isNot.Ops[0] != "is not" {
		t.Errorf("Expected [is not], got %v", isNot.Ops)
	}
}

func TestParseCallArguments(t *testing.T) {
	code := `connect(host, 8080, timeout=30, *extra, **options)
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	call := result.Root.Body[0].Expr
	if call.Type != NodeCall {
		t.Fatalf("Expected NodeCall, got %s", call.Type)
	}
	if call.Func == nil || call.Func.Name != "connect" {
		t.Errorf("Expected callee 'connect', got %+v", call.Func)
	}
	// host, 8080 and *extra are positional
	if len(call.Args) != 3 {
		t.Errorf("Expected 3 positional args, got %d", len(call.Args))
	}
	// timeout=30 and **options are keywords
	if len(call.Keywords) != 2 {
		t.Fatalf("Expected 2 keyword args, got %d", len(call.Keywords))
	}
	if call.Keywords[0].Name != "timeout" {
		t.Errorf("Expected keyword 'timeout', got %q", call.Keywords[0].Name)
	}
	if call.Keywords[1].Name != "" {
		t.Errorf("Dict splat keyword should have empty name, got %q", call.Keywords[1].Name)
	}
}

func TestParseAttributeChain(t *testing.T) {
	code := `time.sleep(5)
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	call := result.Root.Body[0].Expr
	attr := call.Func
	if attr.Type != NodeAttribute {
		t.Fatalf("Expected NodeAttribute, got %s", attr.Type)
	}
	if attr.Name != "sleep" {
		t.Errorf("Expected attribute 'sleep', got %q", attr.Name)
	}
	if attr.Object == nil || attr.Object.Name != "time" {
		t.Errorf("Expected object 'time', got %+v", attr.Object)
	}
}

func TestParseLambdaAndComprehension(t *testing.T) {
	code := `square = lambda v: v * v
values = [square(v) for v in items if v > 0]
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	lambdaNode := result.Root.Body[0].Expr
	if lambdaNode.Type != NodeLambda {
		t.Fatalf("Expected NodeLambda, got %s", lambdaNode.Type)
	}
	if len(lambdaNode.Params) != 1 || lambdaNode.Params[0].Name != "v" {
		t.Errorf("Expected lambda param 'v', got %+v", lambdaNode.Params)
	}
	if !lambdaNode.IsFunction() {
		t.Error("Lambda should report IsFunction")
	}

	comp := result.Root.Body[1].Expr
	if comp.Type != NodeListComp {
		t.Fatalf("Expected NodeListComp, got %s", comp.Type)
	}
	if comp.Expr == nil || comp.Expr.Type != NodeCall {
		t.Error("Expected comprehension body to be a call")
	}
	if len(comp.Children) != 2 {
		t.Errorf("Expected for and if clauses, got %d", len(comp.Children))
	}
}

func TestParseGlobalStatement(t *testing.T) {
	code := `def bump():
    global counter, total
    counter += 1
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	globalNode := result.Root.Body[0].Body[0]
	if globalNode.Type != NodeGlobal {
		t.Fatalf("Expected NodeGlobal, got %s", globalNode.Type)
	}
	if len(globalNode.Names) != 2 || globalNode.Names[0] != "counter" || globalNode.Names[1] != "total" {
		t.Errorf("Expected names [counter total], got %v", globalNode.Names)
	}
}

func TestParseImports(t *testing.T) {
	code := `import os
import numpy as np
from collections import OrderedDict, defaultdict
from . import sibling
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	body := result.Root.Body
	if body[0].Type != NodeImport || body[0].Names[0] != "os" {
		t.Errorf("Expected import os, got %+v", body[0])
	}
	if body[1].Names[0] != "np" {
		t.Errorf("Expected alias 'np', got %v", body[1].Names)
	}
	if body[2].Type != NodeImportFrom || body[2].Name != "collections" {
		t.Errorf("Expected from collections, got %+v", body[2])
	}
	if len(body[2].Names) != 2 {
		t.Errorf("Expected 2 imported names, got %v", body[2].Names)
	}
}

func TestParseDocstringPosition(t *testing.T) {
	code := `def documented():
    """Says what it does."""
    return 1
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	funcNode := result.Root.Body[0]
	if len(funcNode.Body) != 2 {
		t.Fatalf("Expected 2 body statements, got %d", len(funcNode.Body))
	}

	doc := funcNode.Body[0]
	if doc.Type != NodeExprStmt || doc.Expr == nil {
		t.Fatalf("Expected expression statement, got %s", doc.Type)
	}
	if s, ok := doc.Expr.StringValue(); !ok || s != "Says what it does." {
		t.Errorf("Expected docstring payload, got %q", s)
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	code := `def broken(:
    return
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse should recover, got error: %v", err)
	}
	if !result.HasSyntaxErrors() {
		t.Error("Expected syntax errors to be recorded")
	}
	if result.Root == nil {
		t.Error("Expected a partial tree despite syntax errors")
	}
}

func TestParseCleanFileHasNoSyntaxErrors(t *testing.T) {
	code := `x = 1
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.HasSyntaxErrors() {
		t.Errorf("Unexpected syntax errors: %v", result.SyntaxErrors)
	}
}

func TestParser_ParseString_Empty(t *testing.T) {
	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString("")
	if err != nil {
		t.Fatalf("Parsing empty string failed: %v", err)
	}
	if result.Root == nil {
		t.Error("AST should not be nil for empty input")
	}
	if len(result.Root.Body) != 0 {
		t.Errorf("Empty module should have no statements, got %d", len(result.Root.Body))
	}
}

func TestParseLocations(t *testing.T) {
	code := `x = 1

def f():
    pass
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseFile("sample.py", []byte(code))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	assign := result.Root.Body[0]
	if assign.Location.StartLine != 1 {
		t.Errorf("Expected assignment on line 1, got %d", assign.Location.StartLine)
	}
	if assign.Location.File != "sample.py" {
		t.Errorf("Expected file 'sample.py', got %q", assign.Location.File)
	}

	funcNode := result.Root.Body[1]
	if funcNode.Location.StartLine != 3 {
		t.Errorf("Expected function on line 3, got %d", funcNode.Location.StartLine)
	}
}

func TestParentLinks(t *testing.T) {
	code := `def outer():
    if flag:
        return compute(1)
`

	parser := NewParser()
	defer parser.Close()

	result, err := parser.ParseString(code)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	var call *Node
	result.Root.Walk(func(n *Node) bool {
		if n.Type == NodeCall {
			call = n
			return false
		}
		return true
	})
	if call == nil {
		t.Fatal("Expected to find call node")
	}

	// call -> return -> if -> function -> module
	types := []NodeType{}
	for n := call.Parent; n != nil; n = n.Parent {
		types = append(types, n.Type)
	}
	want := []NodeType{NodeReturn, NodeIf, NodeFunctionDef, NodeModule}
	if len(types) != len(want) {
		t.Fatalf("Expected parent chain %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("Parent chain[%d]: expected %s, got %s", i, want[i], types[i])
		}
	}
}

// AST node tests

func TestNode_AddChild(t *testing.T) {
	parent := NewNode(NodeModule, Location{})
	child := NewNode(NodeExprStmt, Location{})

	parent.AddChild(child)

	if len(parent.Children) != 1 {
		t.Error("Parent should have 1 child")
	}
	if child.Parent != parent {
		t.Error("Child's parent should be set")
	}

	parent.AddChild(nil)
	if len(parent.Children) != 1 {
		t.Error("Adding nil child should not increase children count")
	}
}

func TestNode_Walk_Nil(t *testing.T) {
	var node *Node
	node.Walk(func(n *Node) bool {
		return true
	})
}

func TestNode_String(t *testing.T) {
	node := NewNode(NodeFunctionDef, Location{File: "test.py", StartLine: 10, StartCol: 5})
	node.Name = "my_func"

	str := node.String()
	if str != "FunctionDef(my_func) at test.py:10:5" {
		t.Errorf("Unexpected String output: %s", str)
	}

	node2 := NewNode(NodeIf, Location{File: "test.py", StartLine: 20, StartCol: 1})
	str2 := node2.String()
	if str2 != "If at test.py:20:1" {
		t.Errorf("Unexpected String output: %s", str2)
	}
}

func TestNode_IsStatement(t *testing.T) {
	statements := []NodeType{
		NodeIf, NodeFor, NodeWhile, NodeTry, NodeWith,
		NodeAssign, NodeAugAssign, NodeAnnAssign,
		NodeReturn, NodeRaise, NodeAssert, NodePass,
		NodeBreak, NodeContinue, NodeGlobal, NodeImport, NodeExprStmt,
	}

	for _, nt := range statements {
		node := &Node{Type: nt}
		if !node.IsStatement() {
			t.Errorf("%s should be a statement", nt)
		}
	}

	nonStmt := &Node{Type: NodeName}
	if nonStmt.IsStatement() {
		t.Error("Name should not be a statement")
	}
}

func TestNode_IsExpression(t *testing.T) {
	expressions := []NodeType{
		NodeCall, NodeAttribute, NodeName, NodeConstant, NodeFString,
		NodeBinOp, NodeUnaryOp, NodeBoolOp, NodeCompare, NodeLambda,
		NodeAwait, NodeIfExp, NodeList, NodeDict, NodeSet, NodeTuple,
		NodeListComp, NodeSubscript,
	}

	for _, nt := range expressions {
		node := &Node{Type: nt}
		if !node.IsExpression() {
			t.Errorf("%s should be an expression", nt)
		}
	}

	nonExpr := &Node{Type: NodeIf}
	if nonExpr.IsExpression() {
		t.Error("If should not be an expression")
	}
}

func TestNode_IsLoop(t *testing.T) {
	if !(&Node{Type: NodeFor}).IsLoop() {
		t.Error("For should be a loop")
	}
	if !(&Node{Type: NodeWhile}).IsLoop() {
		t.Error("While should be a loop")
	}
	if (&Node{Type: NodeIf}).IsLoop() {
		t.Error("If should not be a loop")
	}
}

func TestNode_NumericValue(t *testing.T) {
	intNode := &Node{Type: NodeConstant, Kind: ConstInt, Value: int64(42)}
	if v, ok := intNode.NumericValue(); !ok || v != 42 {
		t.Errorf("Expected 42, got %v ok=%v", v, ok)
	}

	floatNode := &Node{Type: NodeConstant, Kind: ConstFloat, Value: 2.5}
	if v, ok := floatNode.NumericValue(); !ok || v != 2.5 {
		t.Errorf("Expected 2.5, got %v ok=%v", v, ok)
	}

	strNode := &Node{Type: NodeConstant, Kind: ConstStr, Value: "nope"}
	if _, ok := strNode.NumericValue(); ok {
		t.Error("String constant should not report a numeric value")
	}
}

func TestLocation_String(t *testing.T) {
	loc := Location{
		File:      "src/app.py",
		StartLine: 42,
		StartCol:  10,
	}

	str := loc.String()
	if str != "src/app.py:42:10" {
		t.Errorf("Expected 'src/app.py:42:10', got '%s'", str)
	}
}
