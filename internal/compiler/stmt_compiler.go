package compiler

import (
	"plush/internal/bytecode"
	"plush/internal/parser"
)

func (fc *FunctionCompiler) compileStmt(s parser.Stmt) error {
	switch st := s.(type) {
	case *parser.LetStmt:
		fc.currentLine = st.Line
		return fc.compileVarDecl(st.Name, st.Expr, true)
	case *parser.VarStmt:
		fc.currentLine = st.Line
		return fc.compileVarDecl(st.Name, st.Expr, false)
	case *parser.ExpressionStmt:
		if err := fc.compileExpr(st.Expr); err != nil {
			return err
		}
		fc.emitOp(bytecode.OpPop)
		return nil
	case *parser.FunctionStmt:
		fc.currentLine = st.Line
		return fc.compileFunctionDecl(st)
	case *parser.ReturnStmt:
		fc.currentLine = st.Line
		if st.Value != nil {
			if err := fc.compileExpr(st.Value); err != nil {
				return err
			}
		} else {
			fc.emitOp(bytecode.OpPushNil)
		}
		fc.emitOp(bytecode.OpReturn)
		return nil
	case *parser.IfStmt:
		fc.currentLine = st.Line
		return fc.compileIfStmt(st)
	case *parser.WhileStmt:
		fc.currentLine = st.Line
		return fc.compileWhileStmt(st)
	case *parser.LoopStmt:
		fc.currentLine = st.Line
		return fc.compileLoopStmt(st)
	case *parser.ForStmt:
		fc.currentLine = st.Line
		return fc.compileForStmt(st)
	case *parser.BreakStmt:
		fc.currentLine = st.Line
		return fc.compileBreak()
	case *parser.ContinueStmt:
		fc.currentLine = st.Line
		return fc.compileContinue()
	case *parser.AssertStmt:
		fc.currentLine = st.Line
		return fc.compileAssert(st)
	case *parser.BlockStmt:
		fc.currentLine = st.Line
		fc.beginScope()
		for _, inner := range st.Stmts {
			if err := fc.compileStmt(inner); err != nil {
				return err
			}
		}
		fc.endScope()
		return nil
	case *parser.ClassStmt:
		return fc.fault("nested class declarations are not supported")
	default:
		return fc.fault("unsupported statement node %T", s)
	}
}

func (fc *FunctionCompiler) compileVarDecl(name string, expr parser.Expr, immutable bool) error {
	if err := fc.compileExpr(expr); err != nil {
		return err
	}
	fc.declareLocal(name, immutable)
	// The value is already on the stack in exactly the new local's slot
	// position since locals are stack-allocated in declaration order; no
	// separate SET_LOCAL is needed for the initializer itself.
	return nil
}

func (fc *FunctionCompiler) compileFunctionDecl(st *parser.FunctionStmt) error {
	proto, err := fc.compileFunctionBody(st.Name, st.Params, st.Body)
	if err != nil {
		return err
	}
	fc.emitClosure(proto)
	if fc.enclosing == nil && fc.scopeDepth == 0 {
		nameIdx := fc.addConstant(st.Name)
		fc.emitOp(bytecode.OpDefineGlobal)
		fc.emitByte(byte(nameIdx))
	} else {
		fc.declareLocal(st.Name, true)
	}
	return nil
}

func (fc *FunctionCompiler) compileIfStmt(st *parser.IfStmt) error {
	if err := fc.compileExpr(st.Condition); err != nil {
		return err
	}
	elseJump := fc.emitJump(bytecode.OpJumpIfFalse)
	fc.emitOp(bytecode.OpPop)
	fc.beginScope()
	for _, s := range st.Then {
		if err := fc.compileStmt(s); err != nil {
			return err
		}
	}
	fc.endScope()
	endJump := fc.emitJump(bytecode.OpJump)
	fc.patchJumpToHere(elseJump)
	fc.emitOp(bytecode.OpPop)
	if len(st.Else) > 0 {
		fc.beginScope()
		for _, s := range st.Else {
			if err := fc.compileStmt(s); err != nil {
				return err
			}
		}
		fc.endScope()
	}
	fc.patchJumpToHere(endJump)
	return nil
}

func (fc *FunctionCompiler) compileWhileStmt(st *parser.WhileStmt) error {
	loopStart := fc.chunk.Len()
	if err := fc.compileExpr(st.Condition); err != nil {
		return err
	}
	exitJump := fc.emitJump(bytecode.OpJumpIfFalse)
	fc.emitOp(bytecode.OpPop)

	fc.loops = append(fc.loops, loopContext{localsBase: len(fc.locals)})
	fc.beginScope()
	for _, s := range st.Body {
		if err := fc.compileStmt(s); err != nil {
			return err
		}
	}
	fc.endScope()
	lc := fc.loops[len(fc.loops)-1]
	fc.loops = fc.loops[:len(fc.loops)-1]
	for _, pos := range lc.continueTargets {
		fc.chunk.PatchUint16(pos, uint16(fc.chunk.Len()))
	}

	fc.emitLoop(loopStart)
	fc.patchJumpToHere(exitJump)
	fc.emitOp(bytecode.OpPop)
	for _, pos := range lc.breakJumps {
		fc.chunk.PatchUint16(pos, uint16(fc.chunk.Len()))
	}
	return nil
}

func (fc *FunctionCompiler) compileLoopStmt(st *parser.LoopStmt) error {
	loopStart := fc.chunk.Len()
	fc.loops = append(fc.loops, loopContext{localsBase: len(fc.locals)})
	fc.beginScope()
	for _, s := range st.Body {
		if err := fc.compileStmt(s); err != nil {
			return err
		}
	}
	fc.endScope()
	lc := fc.loops[len(fc.loops)-1]
	fc.loops = fc.loops[:len(fc.loops)-1]
	for _, pos := range lc.continueTargets {
		fc.chunk.PatchUint16(pos, uint16(fc.chunk.Len()))
	}
	fc.emitLoop(loopStart)
	for _, pos := range lc.breakJumps {
		fc.chunk.PatchUint16(pos, uint16(fc.chunk.Len()))
	}
	return nil
}

// compileForStmt desugars `for(init; cond; step) { body }` into
// `init; while(cond) { body; step }`, with `continue` branching to step
// and `break` branching past the loop — skipping step on break, per the
// spec's break-skips-step resolution.
func (fc *FunctionCompiler) compileForStmt(st *parser.ForStmt) error {
	fc.beginScope()
	if st.Init != nil {
		if err := fc.compileStmt(st.Init); err != nil {
			return err
		}
	}

	loopStart := fc.chunk.Len()
	var exitJump int
	hasCond := st.Condition != nil
	if hasCond {
		if err := fc.compileExpr(st.Condition); err != nil {
			return err
		}
		exitJump = fc.emitJump(bytecode.OpJumpIfFalse)
		fc.emitOp(bytecode.OpPop)
	}

	fc.loops = append(fc.loops, loopContext{isForLoop: true, localsBase: len(fc.locals)})
	fc.beginScope()
	for _, s := range st.Body {
		if err := fc.compileStmt(s); err != nil {
			return err
		}
	}
	fc.endScope()
	lc := fc.loops[len(fc.loops)-1]
	fc.loops = fc.loops[:len(fc.loops)-1]

	stepStart := fc.chunk.Len()
	for _, pos := range lc.continueTargets {
		fc.chunk.PatchUint16(pos, uint16(stepStart))
	}
	if st.Step != nil {
		if err := fc.compileExpr(st.Step); err != nil {
			return err
		}
		fc.emitOp(bytecode.OpPop)
	}

	fc.emitLoop(loopStart)
	if hasCond {
		fc.patchJumpToHere(exitJump)
		fc.emitOp(bytecode.OpPop)
	}
	for _, pos := range lc.breakJumps {
		fc.chunk.PatchUint16(pos, uint16(fc.chunk.Len()))
	}
	fc.endScope()
	return nil
}

// closeLoopLocals truncates the stack back to the loop body's own scope
// entry before a break/continue jump. Both jumps land past the point where
// the body's own endScope() would normally emit this truncation, so without
// it any local declared before the break/continue in a scope nested inside
// the loop body stays on the stack forever, corrupting every slot above it.
func (fc *FunctionCompiler) closeLoopLocals(lc *loopContext) {
	if len(fc.locals) > lc.localsBase {
		fc.emitOp(bytecode.OpCloseUpvalues)
		fc.emitByte(byte(lc.localsBase))
	}
}

func (fc *FunctionCompiler) compileBreak() error {
	if len(fc.loops) == 0 {
		return fc.fault("'break' outside of a loop")
	}
	top := len(fc.loops) - 1
	fc.closeLoopLocals(&fc.loops[top])
	pos := fc.emitJump(bytecode.OpJump)
	fc.loops[top].breakJumps = append(fc.loops[top].breakJumps, pos)
	return nil
}

func (fc *FunctionCompiler) compileContinue() error {
	if len(fc.loops) == 0 {
		return fc.fault("'continue' outside of a loop")
	}
	top := len(fc.loops) - 1
	fc.closeLoopLocals(&fc.loops[top])
	pos := fc.emitJump(bytecode.OpJump)
	fc.loops[top].continueTargets = append(fc.loops[top].continueTargets, pos)
	return nil
}

func (fc *FunctionCompiler) compileAssert(st *parser.AssertStmt) error {
	if err := fc.compileExpr(st.Expr); err != nil {
		return err
	}
	msgIdx := fc.addConstant(st.Source)
	fc.emitOp(bytecode.OpAssert)
	fc.emitByte(byte(msgIdx))
	return nil
}
