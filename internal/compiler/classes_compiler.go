package compiler

import (
	"plush/internal/parser"
	"plush/internal/value"
)

// classCompiler compiles every class declaration in the program into a
// frozen *value.Class. Methods compile as ordinary functions with no
// enclosing scope: classes are shared, top-level-shaped descriptors, so a
// method never captures a surrounding function's locals as an upvalue.
type classCompiler struct {
	global   *globalScope
	fileName string
	classes  map[string]*value.Class
}

func (cc *classCompiler) declareClass(cls *parser.ClassStmt) error {
	methodOrder := make([]string, 0, len(cls.Methods))
	methods := make(map[string]*value.Closure, len(cls.Methods))
	var initClosure *value.Closure

	for _, m := range cls.Methods {
		fc := newFunctionCompiler(nil, cc.global, cls.Name+"."+m.Name, m.Params, cc.fileName)
		for _, s := range m.Body {
			if err := fc.compileStmt(s); err != nil {
				return err
			}
		}
		fc.emitImplicitReturn()
		fc.proto.Chunk = fc.chunk

		closure := &value.Closure{Proto: fc.proto}
		methodOrder = append(methodOrder, m.Name)
		methods[m.Name] = closure
		if m.Name == "init" {
			initClosure = closure
		}
	}

	cc.classes[cls.Name] = &value.Class{
		Name:        cls.Name,
		MethodOrder: methodOrder,
		Methods:     methods,
		Init:        initClosure,
	}
	return nil
}
