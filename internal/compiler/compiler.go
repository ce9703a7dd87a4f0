// Package compiler lowers a parsed Plush program into bytecode chunks:
// one FunctionProto per function/method/lambda/top-level script, with
// locals resolved to stack slots and captured locals resolved to upvalue
// descriptors. Apart from hoisting top-level names, names are resolved
// while code is emitted, in a single walk; there is no separate resolve
// pass.
package compiler

import (
	"fmt"

	"plush/internal/bytecode"
	"plush/internal/errors"
	"plush/internal/parser"
	"plush/internal/value"
)

type local struct {
	name       string
	depth      int
	immutable  bool
	isCaptured bool
}

type loopContext struct {
	continueTargets []int // positions of JUMP operand bytes needing to land on the step
	breakJumps      []int // positions of JUMP operand bytes needing to land past the loop
	isForLoop       bool
	localsBase      int // len(fc.locals) at the loop body's own scope entry
}

// FunctionCompiler compiles one function body (or the top-level script) at
// a time. Its `enclosing` pointer forms the chain resolveUpvalue walks to
// capture a local from an arbitrary number of lexical levels out.
type FunctionCompiler struct {
	enclosing *FunctionCompiler
	global    *globalScope

	proto *value.FunctionProto
	chunk *bytecode.Chunk

	locals     []local
	scopeDepth int
	upvalues   []value.UpvalueDesc

	loops []loopContext

	fileName    string
	currentLine int
}

// globalScope tracks the names declared at the top level by `fun`/`class`,
// resolved before any function body is compiled so forward references work.
type globalScope struct {
	names map[string]bool
}

// Program is the result of compiling a whole source file: the synthetic
// top-level script function plus every class encountered, keyed by name so
// the VM can wire NEW_OBJECT/INSTANCE_OF constant references.
type Program struct {
	Script  *value.FunctionProto
	Classes map[string]*value.Class
}

// CompileProgram compiles a parsed statement list into a Program. fileName
// is used only for diagnostics. coreClasses seeds the global namespace with
// host-registered classes (e.g. UIEvent) so `new`/`instanceof` against them
// resolve at compile time even though no `class` statement declares them.
func CompileProgram(stmts []parser.Stmt, fileName string, coreClasses map[string]*value.Class) (*Program, error) {
	return compileProgram(stmts, fileName, coreClasses, nil)
}

// CompileIncremental is CompileProgram plus knownNames: top-level fun/class
// names a prior compile already defined, so a REPL session can resolve a
// reference to a function declared on an earlier line even though this
// call only sees the current line's statements.
func CompileIncremental(stmts []parser.Stmt, fileName string, coreClasses map[string]*value.Class, knownNames map[string]bool) (*Program, error) {
	return compileProgram(stmts, fileName, coreClasses, knownNames)
}

func compileProgram(stmts []parser.Stmt, fileName string, coreClasses map[string]*value.Class, knownNames map[string]bool) (*Program, error) {
	gs := &globalScope{names: map[string]bool{}}
	classes := map[string]*value.Class{}
	for name, cls := range coreClasses {
		gs.names[name] = true
		classes[name] = cls
	}
	for name := range knownNames {
		gs.names[name] = true
	}
	hoistGlobalNames(stmts, gs)

	fc := newFunctionCompiler(nil, gs, "<script>", nil, fileName)
	cc := &classCompiler{global: gs, fileName: fileName, classes: classes}

	for _, s := range stmts {
		if cls, ok := s.(*parser.ClassStmt); ok {
			if err := cc.declareClass(cls); err != nil {
				return nil, err
			}
			continue
		}
		if err := fc.compileStmt(s); err != nil {
			return nil, err
		}
	}
	fc.emitOp(bytecode.OpPushNil)
	fc.emitOp(bytecode.OpReturn)
	fc.proto.Chunk = fc.chunk

	return &Program{Script: fc.proto, Classes: classes}, nil
}

// hoistGlobalNames makes every top-level fun/class name resolvable from
// anywhere in the program, including before its own declaration.
func hoistGlobalNames(stmts []parser.Stmt, gs *globalScope) {
	for _, s := range stmts {
		switch st := s.(type) {
		case *parser.FunctionStmt:
			gs.names[st.Name] = true
		case *parser.ClassStmt:
			gs.names[st.Name] = true
		}
	}
}

func newFunctionCompiler(enclosing *FunctionCompiler, gs *globalScope, name string, params []string, fileName string) *FunctionCompiler {
	chunk := bytecode.NewChunk()
	fc := &FunctionCompiler{
		enclosing: enclosing,
		global:    gs,
		chunk:     chunk,
		fileName:  fileName,
		proto: &value.FunctionProto{
			Name:       name,
			Arity:      len(params),
			ParamNames: params,
			Chunk:      chunk,
		},
	}
	for _, p := range params {
		fc.locals = append(fc.locals, local{name: p, depth: 0, immutable: false})
	}
	return fc
}

func (fc *FunctionCompiler) fault(format string, args ...interface{}) error {
	return errors.NewCompileFault(fmt.Sprintf(format, args...), fc.fileName, fc.currentLine, 0)
}

func (fc *FunctionCompiler) debug() bytecode.DebugInfo {
	return bytecode.DebugInfo{Line: fc.currentLine, File: fc.fileName, Function: fc.proto.Name}
}

func (fc *FunctionCompiler) emitOp(op bytecode.OpCode) {
	fc.chunk.WriteOpWithDebug(op, fc.debug())
}

func (fc *FunctionCompiler) emitByte(b byte) {
	fc.chunk.WriteByteWithDebug(b, fc.debug())
}

func (fc *FunctionCompiler) emitUint16(v uint16) {
	fc.chunk.WriteUint16(v, fc.debug())
}

// emitJump writes op plus a placeholder 16-bit offset and returns the
// offset of the first placeholder byte, for later patching.
func (fc *FunctionCompiler) emitJump(op bytecode.OpCode) int {
	fc.emitOp(op)
	pos := fc.chunk.Len()
	fc.emitUint16(0)
	return pos
}

func (fc *FunctionCompiler) patchJumpToHere(pos int) {
	fc.chunk.PatchUint16(pos, uint16(fc.chunk.Len()))
}

// emitLoop emits a backward jump to `start`.
func (fc *FunctionCompiler) emitLoop(start int) {
	fc.emitOp(bytecode.OpLoop)
	offset := fc.chunk.Len() + 2 - start
	fc.emitUint16(uint16(offset))
}

func (fc *FunctionCompiler) addConstant(v interface{}) int {
	return fc.chunk.AddConstant(v)
}

// emitImplicitReturn appends the implicit `return nil` every function body
// falls through to if control reaches its end without an explicit return.
func (fc *FunctionCompiler) emitImplicitReturn() {
	fc.emitOp(bytecode.OpPushNil)
	fc.emitOp(bytecode.OpReturn)
}

// --- Scopes ---

func (fc *FunctionCompiler) beginScope() {
	fc.scopeDepth++
}

// endScope pops every local declared in the scope being left. CLOSE_UPVALUES
// both truncates the stack back to the scope's starting slot and, for any
// of the popped slots with an open upvalue cell, copies the value into the
// cell and marks it closed before discarding the stack slot.
func (fc *FunctionCompiler) endScope() {
	fc.scopeDepth--
	truncateTo := len(fc.locals)
	for truncateTo > 0 && fc.locals[truncateTo-1].depth > fc.scopeDepth {
		truncateTo--
	}
	if truncateTo != len(fc.locals) {
		fc.emitOp(bytecode.OpCloseUpvalues)
		fc.emitByte(byte(truncateTo))
		fc.locals = fc.locals[:truncateTo]
	}
}

// declareLocal adds a new local in the current scope and returns its slot.
func (fc *FunctionCompiler) declareLocal(name string, immutable bool) int {
	fc.locals = append(fc.locals, local{name: name, depth: fc.scopeDepth, immutable: immutable})
	return len(fc.locals) - 1
}

// resolveLocal finds the nearest (innermost) local with this name.
func (fc *FunctionCompiler) resolveLocal(name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			return i
		}
	}
	return -1
}

// resolveUpvalue walks the enclosing-function chain, recording an upvalue
// descriptor on every intervening function so CLOSURE capture chains work.
func (fc *FunctionCompiler) resolveUpvalue(name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if idx := fc.enclosing.resolveLocal(name); idx != -1 {
		fc.enclosing.locals[idx].isCaptured = true
		return fc.addUpvalue(idx, true, fc.enclosing.locals[idx].immutable)
	}
	if upIdx := fc.enclosing.resolveUpvalue(name); upIdx != -1 {
		return fc.addUpvalue(upIdx, false, fc.enclosing.upvalues[upIdx].Immutable)
	}
	return -1
}

func (fc *FunctionCompiler) addUpvalue(index int, fromLocal, immutable bool) int {
	for i, uv := range fc.upvalues {
		if uv.Index == index && uv.FromLocal == fromLocal {
			return i
		}
	}
	fc.upvalues = append(fc.upvalues, value.UpvalueDesc{FromLocal: fromLocal, Index: index, Immutable: immutable})
	fc.proto.UpvalueDescs = fc.upvalues
	return len(fc.upvalues) - 1
}

// identKind classifies how a name resolves, used by both read and
// assignment compilation.
type identKind int

const (
	identNone identKind = iota
	identLocal
	identUpvalue
	identGlobal
)

func (fc *FunctionCompiler) resolveIdent(name string) (identKind, int, bool) {
	if idx := fc.resolveLocal(name); idx != -1 {
		return identLocal, idx, fc.locals[idx].immutable
	}
	if idx := fc.resolveUpvalue(name); idx != -1 {
		return identUpvalue, idx, fc.upvalues[idx].Immutable
	}
	if fc.global.names[name] {
		return identGlobal, 0, true
	}
	return identNone, 0, false
}
