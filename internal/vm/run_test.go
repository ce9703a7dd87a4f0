package vm

import (
	"testing"

	"plush/internal/compiler"
	"plush/internal/lexer"
	"plush/internal/parser"
	"plush/internal/value"
)

// run compiles and executes a whole Plush source program, returning the
// top-level script's result. Used by every VM-level test in this package
// since constructing raw bytecode by hand for classes/closures/calls would
// just re-derive what the compiler already does.
func run(t *testing.T, src string) value.Value {
	t.Helper()
	sc := lexer.NewScanner(src)
	tokens := sc.ScanTokens()
	if err := sc.Err(); err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := parser.NewParser(tokens)
	stmts, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	program, err := compiler.CompileProgram(stmts, "<test>", nil)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	machine := New(program.Classes, nil)
	result, err := machine.Run(program.Script)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return result
}

func runErr(t *testing.T, src string) error {
	t.Helper()
	sc := lexer.NewScanner(src)
	tokens := sc.ScanTokens()
	p := parser.NewParser(tokens)
	stmts, err := p.Parse()
	if err != nil {
		return err
	}
	program, err := compiler.CompileProgram(stmts, "<test>", nil)
	if err != nil {
		return err
	}
	machine := New(program.Classes, nil)
	_, err = machine.Run(program.Script)
	return err
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int64
	}{
		{"addition", "return 10 + 20", 30},
		{"subtraction", "return 50 - 20", 30},
		{"multiplication", "return 5 * 6", 30},
		{"integer division", "return 60 _/ 2", 30},
		{"modulo", "return 17 % 5", 2},
		{"negation", "return -42", -42},
		{"precedence", "return 2 + 3 * 4", 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, tt.src)
			if got.(int64) != tt.want {
				t.Errorf("got %v, want %d", got, tt.want)
			}
		})
	}
}

func TestFloatDivisionAlwaysFloat(t *testing.T) {
	got := run(t, "return 7 / 2")
	f, ok := got.(float64)
	if !ok {
		t.Fatalf("expected float64, got %T", got)
	}
	if f != 3.5 {
		t.Errorf("got %v, want 3.5", f)
	}
}

func TestStringConcatenation(t *testing.T) {
	got := run(t, `return "foo" + "bar"`)
	if got.(string) != "foobar" {
		t.Errorf("got %v, want foobar", got)
	}
}

func TestIfElseAsExpression(t *testing.T) {
	got := run(t, `
		let x = 5
		return if x > 3 { "big" } else { "small" }
	`)
	if got.(string) != "big" {
		t.Errorf("got %v, want big", got)
	}
}

// TestIfExpressionBranchLocalSurvivesScopeExit exercises a branch that
// declares its own local before its trailing value: the branch's own
// endScope() truncates that local off the stack, and without a dedicated
// result slot outside the branch's scope the truncation discards the
// trailing value right along with it.
func TestIfExpressionBranchLocalSurvivesScopeExit(t *testing.T) {
	got := run(t, `
		let x = if true {
			let tmp = 5
			tmp + 1
		} else {
			0
		}
		return x + 100
	`)
	if got.(int64) != 106 {
		t.Errorf("got %v, want 106", got)
	}
}

func TestWhileLoop(t *testing.T) {
	got := run(t, `
		var i = 0
		var sum = 0
		while i < 5 {
			sum = sum + i
			i = i + 1
		}
		return sum
	`)
	if got.(int64) != 10 {
		t.Errorf("got %v, want 10", got)
	}
}

func TestForLoopBreakAndContinue(t *testing.T) {
	got := run(t, `
		var sum = 0
		for (var i = 0; i < 10; i = i + 1) {
			if i == 5 {
				break
			}
			if i % 2 == 0 {
				continue
			}
			sum = sum + i
		}
		return sum
	`)
	// i = 1 and 3 survive the continue before the break at i == 5
	if got.(int64) != 4 {
		t.Errorf("got %v, want 4", got)
	}
}

// TestBreakClosesLoopLocalsDeclaredBeforeIt exercises a break that fires
// after the loop body has already declared its own local: without its own
// CLOSE_UPVALUES, the break's jump skips the loop body's normal scope exit
// and leaves that local's slot on the stack forever, corrupting every local
// slot address compiled after the loop.
func TestBreakClosesLoopLocalsDeclaredBeforeIt(t *testing.T) {
	got := run(t, `
		var sum = 0
		var i = 0
		while true {
			let x = 1
			if i >= 3 {
				break
			}
			sum = sum + x
			i = i + 1
		}
		var after = 100
		return sum + after
	`)
	if got.(int64) != 103 {
		t.Errorf("got %v, want 103", got)
	}
}

// TestContinueClosesLoopLocalsDeclaredBeforeIt mirrors
// TestBreakClosesLoopLocalsDeclaredBeforeIt for continue.
func TestContinueClosesLoopLocalsDeclaredBeforeIt(t *testing.T) {
	got := run(t, `
		var sum = 0
		for (var i = 0; i < 5; i = i + 1) {
			let x = i
			if x % 2 == 0 {
				continue
			}
			sum = sum + x
		}
		var after = 100
		return sum + after
	`)
	if got.(int64) != 104 {
		t.Errorf("got %v, want 104", got)
	}
}

func TestRecursiveFunction(t *testing.T) {
	got := run(t, `
		fun fib(n) {
			if n < 2 {
				return n
			}
			return fib(n - 1) + fib(n - 2)
		}
		return fib(10)
	`)
	if got.(int64) != 55 {
		t.Errorf("fib(10): got %v, want 55", got)
	}
}

func TestClosureCapturesUpvalue(t *testing.T) {
	got := run(t, `
		fun makeCounter() {
			var count = 0
			return fun() {
				count = count + 1
				return count
			}
		}
		let counter = makeCounter()
		counter()
		counter()
		return counter()
	`)
	if got.(int64) != 3 {
		t.Errorf("got %v, want 3", got)
	}
}

func TestClassConstructionAndMethods(t *testing.T) {
	got := run(t, `
		class Point {
			fun init(self, x, y) {
				self.x = x
				self.y = y
			}
			fun sum(self) {
				return self.x + self.y
			}
		}
		let p = new Point(3, 4)
		return p.sum()
	`)
	if got.(int64) != 7 {
		t.Errorf("got %v, want 7", got)
	}
}

func TestInstanceOf(t *testing.T) {
	got := run(t, `
		class Point {
			fun init(self, x) {
				self.x = x
			}
		}
		let p = new Point(1)
		return p instanceof Point
	`)
	if got.(bool) != true {
		t.Errorf("got %v, want true", got)
	}
}

func TestArrayIndexAndLen(t *testing.T) {
	got := run(t, `
		let arr = [1, 2, 3]
		arr[1] = 20
		return arr[1] + arr.len
	`)
	if got.(int64) != 23 {
		t.Errorf("got %v, want 23", got)
	}
}

func TestObjectLiteral(t *testing.T) {
	got := run(t, `
		let o = { var x = 1, var y = 2 }
		o.x = 10
		return o.x + o.y
	`)
	if got.(int64) != 12 {
		t.Errorf("got %v, want 12", got)
	}
}

func TestIntegerOverflowRaisesDomainFault(t *testing.T) {
	err := runErr(t, `return 9223372036854775807 + 1`)
	if err == nil {
		t.Fatal("expected an overflow fault")
	}
}

func TestDivideByZeroRaisesDomainFault(t *testing.T) {
	err := runErr(t, `return 1 _/ 0`)
	if err == nil {
		t.Fatal("expected a divide by zero fault")
	}
}

func TestCallingNonCallableRaisesTypeFault(t *testing.T) {
	err := runErr(t, `
		let x = 5
		return x()
	`)
	if err == nil {
		t.Fatal("expected a type fault calling a non-callable")
	}
}

func TestOutOfRangeIndexRaisesDomainFault(t *testing.T) {
	err := runErr(t, `
		let arr = [1, 2, 3]
		return arr[10]
	`)
	if err == nil {
		t.Fatal("expected a domain fault for an out of range index")
	}
}
