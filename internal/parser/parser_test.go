package parser

import (
	"testing"

	"plush/internal/lexer"
)

func parseString(input string) ([]Stmt, error) {
	sc := lexer.NewScanner(input)
	tokens := sc.ScanTokens()
	if err := sc.Err(); err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	return p.Parse()
}

func assertParseSuccess(t *testing.T, input string) []Stmt {
	t.Helper()
	stmts, err := parseString(input)
	if err != nil {
		t.Fatalf("parsing %q failed: %v", input, err)
	}
	return stmts
}

func assertParseError(t *testing.T, input string) {
	t.Helper()
	_, err := parseString(input)
	if err == nil {
		t.Fatalf("expected parsing %q to fail", input)
	}
}

func TestParseVariableDeclarations(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{"let with init", "let x = 1", false},
		{"var with init", "var x = 1", false},
		{"let missing init", "let x", true},
		{"missing semicolon is fine", "let x = 1\nlet y = 2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.shouldErr {
				assertParseError(t, tt.input)
			} else {
				assertParseSuccess(t, tt.input)
			}
		})
	}
}

func TestParseFunctionDeclaration(t *testing.T) {
	stmts := assertParseSuccess(t, `
		fun add(a, b) {
			return a + b
		}
	`)
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	fn, ok := stmts[0].(*FunctionStmt)
	if !ok {
		t.Fatalf("expected *FunctionStmt, got %T", stmts[0])
	}
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Errorf("unexpected function shape: %+v", fn)
	}
}

func TestParseClassWithInit(t *testing.T) {
	stmts := assertParseSuccess(t, `
		class Point {
			fun init(self, x, y) {
				self.x = x
				self.y = y
			}
			fun sum(self) {
				return self.x + self.y
			}
		}
	`)
	cls, ok := stmts[0].(*ClassStmt)
	if !ok {
		t.Fatalf("expected *ClassStmt, got %T", stmts[0])
	}
	if cls.Name != "Point" || len(cls.Methods) != 2 {
		t.Errorf("unexpected class shape: %+v", cls)
	}
}

func TestParseForLoopDesugarShape(t *testing.T) {
	stmts := assertParseSuccess(t, `
		for (let i = 0; i < 10; i = i + 1) {
			print(i)
		}
	`)
	forStmt, ok := stmts[0].(*ForStmt)
	if !ok {
		t.Fatalf("expected *ForStmt, got %T", stmts[0])
	}
	if forStmt.Init == nil || forStmt.Condition == nil || forStmt.Step == nil {
		t.Errorf("expected init/condition/step all present: %+v", forStmt)
	}
}

func TestParseNewAndInstanceOf(t *testing.T) {
	stmts := assertParseSuccess(t, `let p = new Point(1, 2)
	let ok = p instanceof Point`)
	letStmt := stmts[0].(*LetStmt)
	newExpr, ok := letStmt.Expr.(*NewExpr)
	if !ok {
		t.Fatalf("expected *NewExpr, got %T", letStmt.Expr)
	}
	if newExpr.ClassName != "Point" || len(newExpr.Args) != 2 {
		t.Errorf("unexpected new expr: %+v", newExpr)
	}

	second := stmts[1].(*LetStmt)
	ioExpr, ok := second.Expr.(*InstanceOfExpr)
	if !ok {
		t.Fatalf("expected *InstanceOfExpr, got %T", second.Expr)
	}
	if ioExpr.ClassName != "Point" {
		t.Errorf("unexpected instanceof class: %q", ioExpr.ClassName)
	}
}

func TestParseTernaryAndLogical(t *testing.T) {
	stmts := assertParseSuccess(t, `let x = a && b || c ? 1 : 2`)
	letStmt := stmts[0].(*LetStmt)
	if _, ok := letStmt.Expr.(*TernaryExpr); !ok {
		t.Fatalf("expected *TernaryExpr at top, got %T", letStmt.Expr)
	}
}

func TestParseArrayAndIndex(t *testing.T) {
	stmts := assertParseSuccess(t, `
		let arr = [1, 2, 3]
		arr[0] = 4
	`)
	letStmt := stmts[0].(*LetStmt)
	if _, ok := letStmt.Expr.(*ArrayExpr); !ok {
		t.Fatalf("expected *ArrayExpr, got %T", letStmt.Expr)
	}
	exprStmt := stmts[1].(*ExpressionStmt)
	if _, ok := exprStmt.Expr.(*SetIndexExpr); !ok {
		t.Fatalf("expected *SetIndexExpr, got %T", exprStmt.Expr)
	}
}

func TestParseLambda(t *testing.T) {
	stmts := assertParseSuccess(t, `let f = fun(x) { return x + 1 }`)
	letStmt := stmts[0].(*LetStmt)
	if _, ok := letStmt.Expr.(*LambdaExpr); !ok {
		t.Fatalf("expected *LambdaExpr, got %T", letStmt.Expr)
	}
}

func TestParseRejectsMismatchedBraces(t *testing.T) {
	assertParseError(t, `fun broken() { return 1`)
}
