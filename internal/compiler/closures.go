package compiler

import (
	"plush/internal/bytecode"
	"plush/internal/parser"
	"plush/internal/value"
)

// compileFunctionBody compiles a nested function/method/lambda body in its
// own FunctionCompiler, chained to fc as its enclosing scope so upvalue
// resolution can walk outward.
func (fc *FunctionCompiler) compileFunctionBody(name string, params []string, body []parser.Stmt) (*value.FunctionProto, error) {
	inner := newFunctionCompiler(fc, fc.global, name, params, fc.fileName)
	for _, s := range body {
		if err := inner.compileStmt(s); err != nil {
			return nil, err
		}
	}
	inner.emitImplicitReturn()
	inner.proto.Chunk = inner.chunk
	return inner.proto, nil
}

// emitClosure emits NEW_CLOSURE plus the per-upvalue capture sidecar the
// proto's UpvalueDescs describe.
func (fc *FunctionCompiler) emitClosure(proto *value.FunctionProto) {
	idx := fc.addConstant(proto)
	fc.emitOp(bytecode.OpNewClosure)
	fc.emitByte(byte(idx))
	for _, uv := range proto.UpvalueDescs {
		if uv.FromLocal {
			fc.emitByte(1)
		} else {
			fc.emitByte(0)
		}
		fc.emitByte(byte(uv.Index))
	}
}

func (fc *FunctionCompiler) compileLambda(x *parser.LambdaExpr, name string) error {
	proto, err := fc.compileFunctionBody(name, x.Params, x.Body)
	if err != nil {
		return err
	}
	fc.emitClosure(proto)
	return nil
}
