package compiler

import (
	"plush/internal/bytecode"
	"plush/internal/parser"
)

// compileExpr dispatches on the concrete AST node and leaves exactly one
// value on the operand stack.
func (fc *FunctionCompiler) compileExpr(e parser.Expr) error {
	var err error
	switch x := e.(type) {
	case *parser.Literal:
		fc.currentLine = x.Line
		fc.emitConstant(x.Value)
	case *parser.Variable:
		fc.currentLine = x.Line
		err = fc.compileRead(x.Name)
	case *parser.Binary:
		fc.currentLine = x.Line
		if err = fc.compileExpr(x.Left); err != nil {
			return err
		}
		if err = fc.compileExpr(x.Right); err != nil {
			return err
		}
		fc.emitBinaryOp(x.Operator)
	case *parser.UnaryExpr:
		fc.currentLine = x.Line
		err = fc.compileUnary(x)
	case *parser.LogicalExpr:
		fc.currentLine = x.Line
		err = fc.compileLogical(x)
	case *parser.TernaryExpr:
		fc.currentLine = x.Line
		err = fc.compileTernary(x)
	case *parser.Assign:
		fc.currentLine = x.Line
		err = fc.compileAssign(x)
	case *parser.CallExpr:
		fc.currentLine = x.Line
		err = fc.compileCall(x)
	case *parser.HostCallExpr:
		fc.currentLine = x.Line
		err = fc.compileHostCall(x)
	case *parser.MethodCallExpr:
		fc.currentLine = x.Line
		err = fc.compileMethodCall(x)
	case *parser.ArrayExpr:
		fc.currentLine = x.Line
		err = fc.compileArray(x)
	case *parser.ObjectLiteralExpr:
		fc.currentLine = x.Line
		err = fc.compileObjectLiteral(x)
	case *parser.IndexExpr:
		fc.currentLine = x.Line
		if err = fc.compileExpr(x.Object); err != nil {
			return err
		}
		if err = fc.compileExpr(x.Index); err != nil {
			return err
		}
		fc.emitOp(bytecode.OpGetIndex)
	case *parser.SetIndexExpr:
		fc.currentLine = x.Line
		err = fc.compileSetIndex(x)
	case *parser.PropertyExpr:
		fc.currentLine = x.Line
		err = fc.compilePropertyRead(x)
	case *parser.SetPropertyExpr:
		fc.currentLine = x.Line
		err = fc.compileSetProperty(x)
	case *parser.NewExpr:
		fc.currentLine = x.Line
		err = fc.compileNew(x)
	case *parser.InstanceOfExpr:
		fc.currentLine = x.Line
		err = fc.compileInstanceOf(x)
	case *parser.LambdaExpr:
		fc.currentLine = x.Line
		err = fc.compileLambda(x, "<lambda>")
	case *parser.IfExpr:
		fc.currentLine = x.Line
		err = fc.compileIfExpr(x)
	case *parser.BlockExpr:
		err = fc.compileBlockExprValue(x)
	default:
		return fc.fault("unsupported expression node %T", e)
	}
	return err
}

func (fc *FunctionCompiler) emitConstant(v interface{}) {
	switch val := v.(type) {
	case nil:
		fc.emitOp(bytecode.OpPushNil)
	case bool:
		if val {
			fc.emitOp(bytecode.OpPushTrue)
		} else {
			fc.emitOp(bytecode.OpPushFalse)
		}
	default:
		idx := fc.addConstant(v)
		fc.emitOp(bytecode.OpConstant)
		fc.emitByte(byte(idx))
	}
}

func (fc *FunctionCompiler) compileRead(name string) error {
	kind, idx, _ := fc.resolveIdent(name)
	switch kind {
	case identLocal:
		fc.emitOp(bytecode.OpGetLocal)
		fc.emitByte(byte(idx))
	case identUpvalue:
		fc.emitOp(bytecode.OpGetUpvalue)
		fc.emitByte(byte(idx))
	case identGlobal:
		nameIdx := fc.addConstant(name)
		fc.emitOp(bytecode.OpGetGlobal)
		fc.emitByte(byte(nameIdx))
	default:
		return fc.fault("undeclared identifier %q", name)
	}
	return nil
}

func (fc *FunctionCompiler) emitBinaryOp(operator string) {
	switch operator {
	case "+":
		fc.emitOp(bytecode.OpAdd)
	case "-":
		fc.emitOp(bytecode.OpSub)
	case "*":
		fc.emitOp(bytecode.OpMul)
	case "/":
		fc.emitOp(bytecode.OpDivF)
	case "_/":
		fc.emitOp(bytecode.OpDivI)
	case "%":
		fc.emitOp(bytecode.OpMod)
	case "==":
		fc.emitOp(bytecode.OpEq)
	case "!=":
		fc.emitOp(bytecode.OpNeq)
	case "<":
		fc.emitOp(bytecode.OpLt)
	case "<=":
		fc.emitOp(bytecode.OpLe)
	case ">":
		fc.emitOp(bytecode.OpGt)
	case ">=":
		fc.emitOp(bytecode.OpGe)
	}
}

func (fc *FunctionCompiler) compileUnary(x *parser.UnaryExpr) error {
	switch x.Operator {
	case "!":
		if err := fc.compileExpr(x.Operand); err != nil {
			return err
		}
		fc.emitOp(bytecode.OpNot)
		return nil
	case "-":
		if err := fc.compileExpr(x.Operand); err != nil {
			return err
		}
		fc.emitOp(bytecode.OpNeg)
		return nil
	case "++", "--":
		return fc.compileIncDec(x.Operand, x.Operator == "++", true)
	case "post++", "post--":
		return fc.compileIncDec(x.Operand, x.Operator == "post++", false)
	}
	return fc.fault("unknown unary operator %q", x.Operator)
}

// compileIncDec desugars ++x/--x (and postfix forms) into a read-modify-
// write over whatever lvalue kind the operand is. prefix controls whether
// the updated or original value is left on the stack.
func (fc *FunctionCompiler) compileIncDec(operand parser.Expr, isInc, prefix bool) error {
	v, ok := operand.(*parser.Variable)
	if !ok {
		return fc.fault("'++'/'--' only apply to a variable")
	}
	if err := fc.compileRead(v.Name); err != nil {
		return err
	}
	if !prefix {
		fc.emitOp(bytecode.OpDup)
	}
	fc.emitConstant(int64(1))
	if isInc {
		fc.emitOp(bytecode.OpAdd)
	} else {
		fc.emitOp(bytecode.OpSub)
	}
	if err := fc.compileWrite(v.Name); err != nil {
		return err
	}
	if !prefix {
		fc.emitOp(bytecode.OpPop)
	}
	return nil
}

func (fc *FunctionCompiler) compileLogical(x *parser.LogicalExpr) error {
	if err := fc.compileExpr(x.Left); err != nil {
		return err
	}
	if x.Operator == "&&" {
		jumpPos := fc.emitJump(bytecode.OpJumpIfFalse)
		fc.emitOp(bytecode.OpPop)
		if err := fc.compileExpr(x.Right); err != nil {
			return err
		}
		fc.patchJumpToHere(jumpPos)
		return nil
	}
	jumpPos := fc.emitJump(bytecode.OpJumpIfTrue)
	fc.emitOp(bytecode.OpPop)
	if err := fc.compileExpr(x.Right); err != nil {
		return err
	}
	fc.patchJumpToHere(jumpPos)
	return nil
}

// compileTernary leaves exactly one value on the stack on every path.
func (fc *FunctionCompiler) compileTernary(x *parser.TernaryExpr) error {
	if err := fc.compileExpr(x.Cond); err != nil {
		return err
	}
	elseJump := fc.emitJump(bytecode.OpJumpIfFalse)
	fc.emitOp(bytecode.OpPop)
	if err := fc.compileExpr(x.Then); err != nil {
		return err
	}
	endJump := fc.emitJump(bytecode.OpJump)
	fc.patchJumpToHere(elseJump)
	fc.emitOp(bytecode.OpPop)
	if err := fc.compileExpr(x.Else); err != nil {
		return err
	}
	fc.patchJumpToHere(endJump)
	return nil
}

func (fc *FunctionCompiler) compileWrite(name string) error {
	kind, idx, immutable := fc.resolveIdent(name)
	switch kind {
	case identLocal:
		if immutable {
			return fc.fault("cannot assign to immutable binding %q (declared with 'let')", name)
		}
		fc.emitOp(bytecode.OpSetLocal)
		fc.emitByte(byte(idx))
	case identUpvalue:
		if immutable {
			return fc.fault("cannot assign to immutable binding %q (declared with 'let')", name)
		}
		fc.emitOp(bytecode.OpSetUpvalue)
		fc.emitByte(byte(idx))
	case identGlobal:
		return fc.fault("cannot assign to %q (functions and classes are frozen)", name)
	default:
		return fc.fault("undeclared identifier %q", name)
	}
	return nil
}

func (fc *FunctionCompiler) compileAssign(x *parser.Assign) error {
	switch x.Operator {
	case "=":
		if err := fc.compileExpr(x.Value); err != nil {
			return err
		}
	case "+=", "-=":
		if err := fc.compileRead(x.Name); err != nil {
			return err
		}
		if err := fc.compileExpr(x.Value); err != nil {
			return err
		}
		if x.Operator == "+=" {
			fc.emitOp(bytecode.OpAdd)
		} else {
			fc.emitOp(bytecode.OpSub)
		}
	}
	return fc.compileWrite(x.Name)
}

func (fc *FunctionCompiler) compileCall(x *parser.CallExpr) error {
	for _, a := range x.Args {
		if err := fc.compileExpr(a); err != nil {
			return err
		}
	}
	if err := fc.compileExpr(x.Callee); err != nil {
		return err
	}
	fc.emitOp(bytecode.OpCall)
	fc.emitByte(byte(len(x.Args)))
	return nil
}

func (fc *FunctionCompiler) compileHostCall(x *parser.HostCallExpr) error {
	for _, a := range x.Args {
		if err := fc.compileExpr(a); err != nil {
			return err
		}
	}
	nameIdx := fc.addConstant(x.Name)
	fc.emitOp(bytecode.OpCallHost)
	fc.emitUint16(uint16(nameIdx))
	fc.emitByte(byte(len(x.Args)))
	return nil
}

func (fc *FunctionCompiler) compileMethodCall(x *parser.MethodCallExpr) error {
	if err := fc.compileExpr(x.Object); err != nil {
		return err
	}
	for _, a := range x.Args {
		if err := fc.compileExpr(a); err != nil {
			return err
		}
	}
	nameIdx := fc.addConstant(x.Name)
	fc.emitOp(bytecode.OpCallMethod)
	fc.emitByte(byte(nameIdx))
	fc.emitByte(byte(len(x.Args)))
	return nil
}

func (fc *FunctionCompiler) compileArray(x *parser.ArrayExpr) error {
	for _, e := range x.Elements {
		if err := fc.compileExpr(e); err != nil {
			return err
		}
	}
	fc.emitOp(bytecode.OpNewArray)
	fc.emitUint16(uint16(len(x.Elements)))
	return nil
}

func (fc *FunctionCompiler) compileObjectLiteral(x *parser.ObjectLiteralExpr) error {
	// Built via the plain-object class: alloc then SET_FIELD per entry.
	classIdx := fc.addConstant(plainObjectClassMarker)
	fc.emitOp(bytecode.OpNewObject)
	fc.emitByte(byte(classIdx))
	for i, name := range x.FieldNames {
		fc.emitOp(bytecode.OpDup)
		if err := fc.compileExpr(x.FieldValues[i]); err != nil {
			return err
		}
		nameIdx := fc.addConstant(name)
		fc.emitOp(bytecode.OpSetField)
		fc.emitByte(byte(nameIdx))
		fc.emitOp(bytecode.OpPop)
	}
	return nil
}

func (fc *FunctionCompiler) compileSetIndex(x *parser.SetIndexExpr) error {
	if err := fc.compileExpr(x.Object); err != nil {
		return err
	}
	if err := fc.compileExpr(x.Index); err != nil {
		return err
	}
	if err := fc.compileExpr(x.Value); err != nil {
		return err
	}
	fc.emitOp(bytecode.OpSetIndex)
	return nil
}

func (fc *FunctionCompiler) compilePropertyRead(x *parser.PropertyExpr) error {
	if err := fc.compileExpr(x.Object); err != nil {
		return err
	}
	if x.Name == "len" {
		fc.emitOp(bytecode.OpDup)
		fc.emitOp(bytecode.OpArrayLen)
		return nil
	}
	nameIdx := fc.addConstant(x.Name)
	fc.emitOp(bytecode.OpGetField)
	fc.emitByte(byte(nameIdx))
	return nil
}

func (fc *FunctionCompiler) compileSetProperty(x *parser.SetPropertyExpr) error {
	if err := fc.compileExpr(x.Object); err != nil {
		return err
	}
	if err := fc.compileExpr(x.Value); err != nil {
		return err
	}
	nameIdx := fc.addConstant(x.Name)
	fc.emitOp(bytecode.OpSetField)
	fc.emitByte(byte(nameIdx))
	return nil
}

// compileNew desugars `new ClassName(args)` to calling the class value
// itself — `new` is optional sugar, not a distinct runtime operation.
func (fc *FunctionCompiler) compileNew(x *parser.NewExpr) error {
	if !fc.global.names[x.ClassName] {
		return fc.fault("undeclared class %q", x.ClassName)
	}
	for _, a := range x.Args {
		if err := fc.compileExpr(a); err != nil {
			return err
		}
	}
	nameIdx := fc.addConstant(x.ClassName)
	fc.emitOp(bytecode.OpGetGlobal)
	fc.emitByte(byte(nameIdx))
	fc.emitOp(bytecode.OpCall)
	fc.emitByte(byte(len(x.Args)))
	return nil
}

func (fc *FunctionCompiler) compileInstanceOf(x *parser.InstanceOfExpr) error {
	if !fc.global.names[x.ClassName] {
		return fc.fault("undeclared class %q", x.ClassName)
	}
	if err := fc.compileExpr(x.Object); err != nil {
		return err
	}
	classIdx := fc.addConstant(x.ClassName)
	fc.emitOp(bytecode.OpInstanceOf)
	fc.emitByte(byte(classIdx))
	return nil
}

func (fc *FunctionCompiler) compileIfExpr(x *parser.IfExpr) error {
	if err := fc.compileExpr(x.Cond); err != nil {
		return err
	}
	elseJump := fc.emitJump(bytecode.OpJumpIfFalse)
	fc.emitOp(bytecode.OpPop)
	if err := fc.compileExpr(x.ThenBranch); err != nil {
		return err
	}
	endJump := fc.emitJump(bytecode.OpJump)
	fc.patchJumpToHere(elseJump)
	fc.emitOp(bytecode.OpPop)
	if x.ElseBranch != nil {
		if err := fc.compileExpr(x.ElseBranch); err != nil {
			return err
		}
	} else {
		fc.emitOp(bytecode.OpPushNil)
	}
	fc.patchJumpToHere(endJump)
	return nil
}

// compileBlockExprValue compiles a block used in value position (e.g. an
// if-expression branch): every statement but the last runs for effect, and
// the last must be an expression statement whose value becomes the block's
// value.
//
// The block's own locals live in a nested scope that endScope() truncates
// away on exit, but the result has to survive that truncation. A plain
// "compile the tail expression, then endScope()" ordering pushes the result
// above the block's locals and loses it to the very truncation that drops
// them. Instead a result slot is reserved one scope level out, before the
// block's own scope begins, so it isn't touched by the block's endScope();
// the tail expression's value is written into it with SET_LOCAL (which
// leaves the value on the stack, only copying it into the slot), and that
// leftover copy is popped before the block's locals are closed out from
// above the slot.
func (fc *FunctionCompiler) compileBlockExprValue(b *parser.BlockExpr) error {
	fc.emitOp(bytecode.OpPushNil)
	resultSlot := fc.declareLocal("$blockvalue", false)

	fc.beginScope()
	for i, s := range b.Stmts {
		if i == len(b.Stmts)-1 {
			if es, ok := s.(*parser.ExpressionStmt); ok {
				if err := fc.compileExpr(es.Expr); err != nil {
					return err
				}
				fc.emitOp(bytecode.OpSetLocal)
				fc.emitByte(byte(resultSlot))
				fc.emitOp(bytecode.OpPop)
				continue
			}
		}
		if err := fc.compileStmt(s); err != nil {
			return err
		}
	}
	fc.endScope()

	// The result slot was only ever a bookkeeping placeholder for the
	// compiler; drop it from local tracking now that its value sits on top
	// of the stack like any other expression's result.
	fc.locals = fc.locals[:len(fc.locals)-1]
	return nil
}

// plainObjectClassMarker is the constant-pool sentinel NEW_OBJECT uses to
// signal "no named class backs this instance" for an object literal; the
// VM allocates a bare property bag with a synthetic anonymous class.
const plainObjectClassMarker = "$anonymous"
