// Package vm runs compiled Plush bytecode: a stack machine with one
// activation record per call, open/closed upvalue cells shared with the
// compiler's CLOSE_UPVALUES contract, and a small set of aggregate and
// object opcodes layered on top of the core arithmetic/control-flow set.
package vm

import (
	"fmt"
	"math"

	"plush/internal/bytecode"
	"plush/internal/errors"
	"plush/internal/value"
)

// stackMax bounds the operand stack so a local slot's upvalue cell can
// safely hold a pointer into the backing array: the array is sized once,
// up front, and never reallocated by append.
const stackMax = 1 << 16

// framesMax bounds call depth; a Plush program that recurses past this
// gets a clean DomainFault instead of exhausting the host's own stack.
const framesMax = 1024

// HostFunc is a host intrinsic: a Go function reachable from Plush code
// via `$name(args...)`.
type HostFunc func(args []value.Value) (value.Value, error)

// VM executes one compiled Program. It is not safe for concurrent use from
// multiple goroutines; each actor gets its own VM instance.
type VM struct {
	globals map[string]value.Value
	classes map[string]*value.Class
	hosts   map[string]HostFunc

	stack  []value.Value
	frames []*Frame

	openUpvalues map[int]*value.Upvalue
	anonClass    *value.Class
}

// New builds a VM preloaded with a program's classes (made visible as
// globals alongside whatever functions DEFINE_GLOBAL adds at runtime) and
// a host intrinsic table.
func New(classes map[string]*value.Class, hosts map[string]HostFunc) *VM {
	globals := make(map[string]value.Value, len(classes))
	for name, cls := range classes {
		globals[name] = cls
	}
	return &VM{
		globals:      globals,
		classes:      classes,
		hosts:        hosts,
		stack:        make([]value.Value, 0, stackMax),
		openUpvalues: make(map[int]*value.Upvalue),
	}
}

// Run executes a script's top-level function to completion and returns
// whatever its implicit or explicit top-level return yields.
func (vm *VM) Run(script *value.FunctionProto) (value.Value, error) {
	for name, cls := range vm.classes {
		vm.globals[name] = cls
	}
	cl := &value.Closure{Proto: script}
	vm.frames = append(vm.frames, &Frame{closure: cl, ip: 0, base: 0})
	return vm.execute()
}

// Global exposes a previously DEFINE_GLOBAL'd binding (or a preloaded
// class), letting an embedder fetch a top-level function by name after Run
// returns.
func (vm *VM) Global(name string) (value.Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// Call invokes an arbitrary callable value (typically a *value.Closure
// fetched via Global) with already-constructed argument values, running
// it to completion. Used by actor entry-point dispatch and by host
// intrinsics that need to call back into Plush code.
func (vm *VM) Call(callee value.Value, args []value.Value) (value.Value, error) {
	depth := len(vm.frames)
	if err := vm.invokeCallable(callee, args, nil, 0); err != nil {
		return nil, err
	}
	if len(vm.frames) == depth {
		// invokeCallable resolved immediately (native fn, no-init class) and
		// left its result on the stack without pushing a frame.
		return vm.pop(), nil
	}
	return vm.execute()
}

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distanceFromTop int) value.Value {
	return vm.stack[len(vm.stack)-1-distanceFromTop]
}

func (vm *VM) execute() (value.Value, error) {
	for {
		frame := vm.frames[len(vm.frames)-1]
		if frame.ip >= frame.chunkLen() {
			return nil, vm.runtimeFault(frame, frame.ip, "instruction pointer ran past the end of its chunk")
		}
		opPos := frame.ip
		op := bytecode.OpCode(frame.readByte())

		switch op {
		case bytecode.OpPushNil:
			vm.push(nil)
		case bytecode.OpPushTrue:
			vm.push(true)
		case bytecode.OpPushFalse:
			vm.push(false)
		case bytecode.OpConstant:
			idx := int(frame.readByte())
			vm.push(frame.constant(idx))
		case bytecode.OpPop:
			vm.pop()
		case bytecode.OpDup:
			vm.push(vm.peek(0))
		case bytecode.OpSwap:
			a, b := vm.pop(), vm.pop()
			vm.push(a)
			vm.push(b)

		case bytecode.OpGetLocal:
			slot := int(frame.readByte())
			vm.push(vm.stack[frame.base+slot])
		case bytecode.OpSetLocal:
			slot := int(frame.readByte())
			vm.stack[frame.base+slot] = vm.peek(0)
		case bytecode.OpGetUpvalue:
			idx := int(frame.readByte())
			vm.push(frame.closure.Upvalues[idx].Get())
		case bytecode.OpSetUpvalue:
			idx := int(frame.readByte())
			frame.closure.Upvalues[idx].Set(vm.peek(0))
		case bytecode.OpCloseUpvalues:
			target := int(frame.readByte())
			abs := frame.base + target
			vm.closeUpvalues(abs)
			vm.stack = vm.stack[:abs]

		case bytecode.OpGetGlobal:
			idx := int(frame.readByte())
			name := frame.constant(idx).(string)
			v, ok := vm.globals[name]
			if !ok {
				return nil, vm.runtimeFault(frame, opPos, fmt.Sprintf("%q is not yet defined", name))
			}
			vm.push(v)
		case bytecode.OpDefineGlobal:
			idx := int(frame.readByte())
			name := frame.constant(idx).(string)
			vm.globals[name] = vm.pop()
		case bytecode.OpSetGlobal:
			idx := int(frame.readByte())
			name := frame.constant(idx).(string)
			return nil, vm.typeFault(frame, opPos, "cannot assign to %q (functions and classes are frozen)", name)

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDivF, bytecode.OpDivI, bytecode.OpMod,
			bytecode.OpEq, bytecode.OpNeq, bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
			if err := vm.binaryOp(frame, opPos, op); err != nil {
				return nil, err
			}
		case bytecode.OpNeg:
			if err := vm.negate(frame, opPos); err != nil {
				return nil, err
			}
		case bytecode.OpNot:
			vm.push(!value.Truthy(vm.pop()))

		case bytecode.OpJump:
			target := int(frame.readUint16())
			frame.ip = target
		case bytecode.OpJumpIfTrue:
			target := int(frame.readUint16())
			if value.Truthy(vm.peek(0)) {
				frame.ip = target
			}
		case bytecode.OpJumpIfFalse:
			target := int(frame.readUint16())
			if !value.Truthy(vm.peek(0)) {
				frame.ip = target
			}
		case bytecode.OpLoop:
			offset := int(frame.readUint16())
			frame.ip -= offset

		case bytecode.OpCall:
			argc := int(frame.readByte())
			if err := vm.doCall(frame, opPos, argc); err != nil {
				return nil, err
			}
		case bytecode.OpCallMethod:
			nameIdx := int(frame.readByte())
			argc := int(frame.readByte())
			if err := vm.doCallMethod(frame, opPos, nameIdx, argc); err != nil {
				return nil, err
			}
		case bytecode.OpCallHost:
			nameIdx := int(frame.readUint16())
			argc := int(frame.readByte())
			if err := vm.doCallHost(frame, opPos, nameIdx, argc); err != nil {
				return nil, err
			}
		case bytecode.OpReturn:
			ret := vm.pop()
			if frame.returnsConstructed {
				ret = frame.constructedObj
			}
			vm.closeUpvalues(frame.base)
			vm.stack = vm.stack[:frame.base]
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return ret, nil
			}
			vm.push(ret)

		case bytecode.OpNewClosure:
			if err := vm.doNewClosure(frame); err != nil {
				return nil, err
			}

		case bytecode.OpNewArray:
			n := int(frame.readUint16())
			elems := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				elems[i] = vm.pop()
			}
			vm.push(&value.Array{Elements: elems})
		case bytecode.OpGetIndex:
			if err := vm.getIndex(frame, opPos); err != nil {
				return nil, err
			}
		case bytecode.OpSetIndex:
			if err := vm.setIndex(frame, opPos); err != nil {
				return nil, err
			}
		case bytecode.OpArrayLen:
			top := vm.pop()
			vm.pop() // the DUP'd copy underneath; both identical
			switch t := top.(type) {
			case *value.Array:
				vm.push(int64(len(t.Elements)))
			case *value.ByteArray:
				vm.push(int64(len(t.Bytes)))
			default:
				return nil, vm.typeFault(frame, opPos, "'len' only applies to array or bytearray values, got %s", value.TypeName(top))
			}
		case bytecode.OpNewObject:
			if err := vm.newObject(frame, opPos); err != nil {
				return nil, err
			}
		case bytecode.OpGetField:
			if err := vm.getField(frame, opPos); err != nil {
				return nil, err
			}
		case bytecode.OpSetField:
			if err := vm.setField(frame, opPos); err != nil {
				return nil, err
			}
		case bytecode.OpInstanceOf:
			idx := int(frame.readByte())
			name := frame.constant(idx).(string)
			v := vm.pop()
			result := false
			if obj, ok := v.(*value.Object); ok {
				if cls, ok2 := vm.classes[name]; ok2 {
					result = obj.Class == cls
				}
			}
			vm.push(result)

		case bytecode.OpAssert:
			idx := int(frame.readByte())
			cond := vm.pop()
			if !value.Truthy(cond) {
				src := frame.constant(idx).(string)
				return nil, vm.domainFault(frame, opPos, "assertion failed: %s", src)
			}

		default:
			return nil, vm.runtimeFault(frame, opPos, fmt.Sprintf("unhandled opcode %s", op))
		}
	}
}

// --- Upvalues ---

func (vm *VM) captureUpvalue(abs int) *value.Upvalue {
	if uv, ok := vm.openUpvalues[abs]; ok {
		return uv
	}
	uv := &value.Upvalue{Slot: &vm.stack[abs]}
	vm.openUpvalues[abs] = uv
	return uv
}

// closeUpvalues closes every open upvalue whose stack slot is at or past
// from, copying the live value into the cell before the slot is discarded.
func (vm *VM) closeUpvalues(from int) {
	for abs, uv := range vm.openUpvalues {
		if abs >= from {
			uv.Close()
			delete(vm.openUpvalues, abs)
		}
	}
}

func (vm *VM) doNewClosure(frame *Frame) error {
	idx := int(frame.readByte())
	proto := frame.constant(idx).(*value.FunctionProto)
	closure := &value.Closure{Proto: proto, Upvalues: make([]*value.Upvalue, len(proto.UpvalueDescs))}
	for i := range proto.UpvalueDescs {
		isLocal := frame.readByte() == 1
		index := int(frame.readByte())
		if isLocal {
			closure.Upvalues[i] = vm.captureUpvalue(frame.base + index)
		} else {
			closure.Upvalues[i] = frame.closure.Upvalues[index]
		}
	}
	vm.push(closure)
	return nil
}

// --- Calls ---

func (vm *VM) doCall(frame *Frame, opPos, argc int) error {
	callee := vm.pop()
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	return vm.invokeCallable(callee, args, frame, opPos)
}

func (vm *VM) doCallMethod(frame *Frame, opPos, nameIdx, argc int) error {
	name := frame.constant(nameIdx).(string)
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	receiver := vm.pop()
	return vm.callMethod(receiver, name, args, frame, opPos)
}

func (vm *VM) doCallHost(frame *Frame, opPos, nameIdx, argc int) error {
	name := frame.constant(nameIdx).(string)
	args := make([]value.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}
	fn, ok := vm.hosts[name]
	if !ok {
		return vm.hostFault(frame, opPos, "unknown host function %q", name)
	}
	result, err := fn(args)
	if err != nil {
		return err
	}
	vm.push(result)
	return nil
}

// invokeCallable dispatches a CALL onto whatever kind of value the callee
// turned out to be. frame/opPos are the call SITE's location, used only
// for diagnostics attached to faults raised before a new frame exists
// (arity mismatch, not-callable); frame may be nil when invoked from Call.
func (vm *VM) invokeCallable(callee value.Value, args []value.Value, frame *Frame, opPos int) error {
	switch c := callee.(type) {
	case *value.Closure:
		return vm.pushClosureFrame(c, args, frame, opPos, false, nil)
	case *value.NativeFunction:
		if c.Arity >= 0 && c.Arity != len(args) {
			return vm.typeFault(frame, opPos, "%q expects %d argument(s), got %d", c.Name, c.Arity, len(args))
		}
		result, err := c.Fn(args)
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	case *value.BoundMethod:
		newArgs := make([]value.Value, 0, len(args)+1)
		newArgs = append(newArgs, c.Receiver)
		newArgs = append(newArgs, args...)
		return vm.pushClosureFrame(c.Method, newArgs, frame, opPos, false, nil)
	case *value.Class:
		obj := value.NewObject(c)
		if c.Init == nil {
			if len(args) != 0 {
				return vm.typeFault(frame, opPos, "class %q takes no constructor arguments", c.Name)
			}
			vm.push(obj)
			return nil
		}
		initArgs := make([]value.Value, 0, len(args)+1)
		initArgs = append(initArgs, value.Value(obj))
		initArgs = append(initArgs, args...)
		return vm.pushClosureFrame(c.Init, initArgs, frame, opPos, true, obj)
	default:
		return vm.typeFault(frame, opPos, "value of type %s is not callable", value.TypeName(callee))
	}
}

func (vm *VM) pushClosureFrame(cl *value.Closure, args []value.Value, frame *Frame, opPos int, isInit bool, constructedObj value.Value) error {
	if len(args) != cl.Proto.Arity {
		return vm.typeFault(frame, opPos, "%q expects %d argument(s), got %d", cl.Proto.Name, cl.Proto.Arity, len(args))
	}
	if len(vm.frames) >= framesMax {
		return vm.callSiteFault(frame, opPos, "call stack overflow")
	}
	base := len(vm.stack)
	if base+len(args) > stackMax {
		return vm.callSiteFault(frame, opPos, "operand stack overflow")
	}
	for _, a := range args {
		vm.push(a)
	}
	nf := &Frame{closure: cl, ip: 0, base: base}
	if isInit {
		nf.returnsConstructed = true
		nf.constructedObj = constructedObj
	}
	vm.frames = append(vm.frames, nf)
	return nil
}

func (vm *VM) callMethod(receiver value.Value, name string, args []value.Value, frame *Frame, opPos int) error {
	switch r := receiver.(type) {
	case *value.Object:
		if fv, ok := r.Fields[name]; ok {
			return vm.invokeCallable(fv, args, frame, opPos)
		}
		if m, ok := r.Class.Method(name); ok {
			newArgs := make([]value.Value, 0, len(args)+1)
			newArgs = append(newArgs, value.Value(r))
			newArgs = append(newArgs, args...)
			return vm.pushClosureFrame(m, newArgs, frame, opPos, false, nil)
		}
		return vm.callSiteFault(frame, opPos, "no method or field %q on %s instance", name, r.Class.Name)
	case *value.ByteArray:
		return vm.callByteArrayMethod(r, name, args, frame, opPos)
	default:
		return vm.typeFault(frame, opPos, "cannot call method %q on value of type %s", name, value.TypeName(receiver))
	}
}

func (vm *VM) callByteArrayMethod(b *value.ByteArray, name string, args []value.Value, frame *Frame, opPos int) error {
	switch name {
	case "read_u32":
		if len(args) != 1 {
			return vm.typeFault(frame, opPos, "'read_u32' expects 1 argument, got %d", len(args))
		}
		off, ok := args[0].(int64)
		if !ok {
			return vm.typeFault(frame, opPos, "'read_u32' offset must be an integer")
		}
		if off < 0 || int(off)+4 > len(b.Bytes) {
			return vm.domainFault(frame, opPos, "'read_u32' offset %d out of range for bytearray of length %d", off, len(b.Bytes))
		}
		vm.push(int64(b.ReadU32(int(off))))
		return nil
	case "write_u32":
		if len(args) != 2 {
			return vm.typeFault(frame, opPos, "'write_u32' expects 2 arguments, got %d", len(args))
		}
		off, ok := args[0].(int64)
		if !ok {
			return vm.typeFault(frame, opPos, "'write_u32' offset must be an integer")
		}
		val, ok := args[1].(int64)
		if !ok {
			return vm.typeFault(frame, opPos, "'write_u32' value must be an integer")
		}
		if off < 0 || int(off)+4 > len(b.Bytes) {
			return vm.domainFault(frame, opPos, "'write_u32' offset %d out of range for bytearray of length %d", off, len(b.Bytes))
		}
		b.WriteU32(int(off), uint32(val))
		vm.push(nil)
		return nil
	case "copy_from":
		if len(args) != 4 {
			return vm.typeFault(frame, opPos, "'copy_from' expects 4 arguments, got %d", len(args))
		}
		src, ok := args[0].(*value.ByteArray)
		if !ok {
			return vm.typeFault(frame, opPos, "'copy_from' source must be a bytearray")
		}
		srcOff, ok1 := args[1].(int64)
		dstOff, ok2 := args[2].(int64)
		length, ok3 := args[3].(int64)
		if !ok1 || !ok2 || !ok3 {
			return vm.typeFault(frame, opPos, "'copy_from' offsets and length must be integers")
		}
		if srcOff < 0 || dstOff < 0 || length < 0 ||
			int(srcOff+length) > len(src.Bytes) || int(dstOff+length) > len(b.Bytes) {
			return vm.domainFault(frame, opPos, "'copy_from' range out of bounds")
		}
		copy(b.Bytes[dstOff:dstOff+length], src.Bytes[srcOff:srcOff+length])
		vm.push(nil)
		return nil
	default:
		return vm.callSiteFault(frame, opPos, "bytearray has no method %q", name)
	}
}

// --- Aggregates / objects ---

func (vm *VM) getIndex(frame *Frame, opPos int) error {
	idx := vm.pop()
	obj := vm.pop()
	i, ok := idx.(int64)
	if !ok {
		return vm.typeFault(frame, opPos, "index must be an integer, got %s", value.TypeName(idx))
	}
	switch o := obj.(type) {
	case *value.Array:
		if i < 0 || int(i) >= len(o.Elements) {
			return vm.domainFault(frame, opPos, "array index %d out of range for length %d", i, len(o.Elements))
		}
		vm.push(o.Elements[i])
	case *value.ByteArray:
		if i < 0 || int(i) >= len(o.Bytes) {
			return vm.domainFault(frame, opPos, "bytearray index %d out of range for length %d", i, len(o.Bytes))
		}
		vm.push(int64(o.Bytes[i]))
	default:
		return vm.typeFault(frame, opPos, "indexing requires an array or bytearray, got %s", value.TypeName(obj))
	}
	return nil
}

func (vm *VM) setIndex(frame *Frame, opPos int) error {
	val := vm.pop()
	idx := vm.pop()
	obj := vm.pop()
	i, ok := idx.(int64)
	if !ok {
		return vm.typeFault(frame, opPos, "index must be an integer, got %s", value.TypeName(idx))
	}
	switch o := obj.(type) {
	case *value.Array:
		if i < 0 || int(i) >= len(o.Elements) {
			return vm.domainFault(frame, opPos, "array index %d out of range for length %d", i, len(o.Elements))
		}
		o.Elements[i] = val
	case *value.ByteArray:
		bv, ok := val.(int64)
		if !ok {
			return vm.typeFault(frame, opPos, "bytearray element must be an integer, got %s", value.TypeName(val))
		}
		if bv < 0 || bv > 255 {
			return vm.domainFault(frame, opPos, "byte value %d out of range 0..255", bv)
		}
		if i < 0 || int(i) >= len(o.Bytes) {
			return vm.domainFault(frame, opPos, "bytearray index %d out of range for length %d", i, len(o.Bytes))
		}
		o.Bytes[i] = byte(bv)
	default:
		return vm.typeFault(frame, opPos, "indexing requires an array or bytearray, got %s", value.TypeName(obj))
	}
	vm.push(val)
	return nil
}

func (vm *VM) newObject(frame *Frame, opPos int) error {
	idx := int(frame.readByte())
	name := frame.constant(idx).(string)
	if name == "$anonymous" {
		if vm.anonClass == nil {
			vm.anonClass = &value.Class{Name: "object"}
		}
		vm.push(value.NewObject(vm.anonClass))
		return nil
	}
	cls, ok := vm.classes[name]
	if !ok {
		return vm.runtimeFault(frame, opPos, fmt.Sprintf("undefined class %q", name))
	}
	vm.push(value.NewObject(cls))
	return nil
}

func (vm *VM) getField(frame *Frame, opPos int) error {
	idx := int(frame.readByte())
	name := frame.constant(idx).(string)
	recv := vm.pop()
	obj, ok := recv.(*value.Object)
	if !ok {
		return vm.typeFault(frame, opPos, "field access requires an object, got %s", value.TypeName(recv))
	}
	if fv, ok := obj.Fields[name]; ok {
		vm.push(fv)
		return nil
	}
	if m, ok := obj.Class.Method(name); ok {
		vm.push(&value.BoundMethod{Receiver: obj, Method: m})
		return nil
	}
	return vm.callSiteFault(frame, opPos, "no such field or method %q on %s instance", name, obj.Class.Name)
}

func (vm *VM) setField(frame *Frame, opPos int) error {
	idx := int(frame.readByte())
	name := frame.constant(idx).(string)
	val := vm.pop()
	recv := vm.pop()
	obj, ok := recv.(*value.Object)
	if !ok {
		return vm.typeFault(frame, opPos, "field assignment requires an object, got %s", value.TypeName(recv))
	}
	obj.Fields[name] = val
	vm.push(val)
	return nil
}

// --- Arithmetic ---

func toFloat(v value.Value) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func addOverflows(a, b int64) (int64, bool) {
	result := a + b
	return result, ((a ^ result) & (b ^ result)) < 0
}

func subOverflows(a, b int64) (int64, bool) {
	result := a - b
	return result, ((a ^ b) & (a ^ result)) < 0
}

func mulOverflows(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	result := a * b
	return result, result/b != a
}

func (vm *VM) binaryOp(frame *Frame, opPos int, op bytecode.OpCode) error {
	b := vm.pop()
	a := vm.pop()

	switch op {
	case bytecode.OpEq:
		vm.push(value.Equal(a, b))
		return nil
	case bytecode.OpNeq:
		vm.push(!value.Equal(a, b))
		return nil
	}

	switch op {
	case bytecode.OpAdd:
		if as, ok := a.(string); ok {
			bs, ok2 := b.(string)
			if !ok2 {
				return vm.typeFault(frame, opPos, "'+' requires two numbers or two strings")
			}
			vm.push(as + bs)
			return nil
		}
		if ai, aIsInt := a.(int64); aIsInt {
			if bi, bIsInt := b.(int64); bIsInt {
				sum, overflow := addOverflows(ai, bi)
				if overflow {
					return vm.domainFault(frame, opPos, "integer overflow in '+'")
				}
				vm.push(sum)
				return nil
			}
		}
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if !aok || !bok {
			return vm.typeFault(frame, opPos, "'+' requires two numbers or two strings")
		}
		vm.push(af + bf)
	case bytecode.OpSub:
		if ai, aIsInt := a.(int64); aIsInt {
			if bi, bIsInt := b.(int64); bIsInt {
				diff, overflow := subOverflows(ai, bi)
				if overflow {
					return vm.domainFault(frame, opPos, "integer overflow in '-'")
				}
				vm.push(diff)
				return nil
			}
		}
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if !aok || !bok {
			return vm.typeFault(frame, opPos, "'-' requires two numbers")
		}
		vm.push(af - bf)
	case bytecode.OpMul:
		if ai, aIsInt := a.(int64); aIsInt {
			if bi, bIsInt := b.(int64); bIsInt {
				prod, overflow := mulOverflows(ai, bi)
				if overflow {
					return vm.domainFault(frame, opPos, "integer overflow in '*'")
				}
				vm.push(prod)
				return nil
			}
		}
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if !aok || !bok {
			return vm.typeFault(frame, opPos, "'*' requires two numbers")
		}
		vm.push(af * bf)
	case bytecode.OpDivF:
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if !aok || !bok {
			return vm.typeFault(frame, opPos, "'/' requires two numbers")
		}
		if bf == 0 {
			return vm.domainFault(frame, opPos, "division by zero")
		}
		vm.push(af / bf)
	case bytecode.OpDivI:
		ai, aok := a.(int64)
		bi, bok := b.(int64)
		if !aok || !bok {
			return vm.typeFault(frame, opPos, "'_/' requires two integers")
		}
		if bi == 0 {
			return vm.domainFault(frame, opPos, "integer division by zero")
		}
		vm.push(ai / bi)
	case bytecode.OpMod:
		ai, aok := a.(int64)
		bi, bok := b.(int64)
		if !aok || !bok {
			return vm.typeFault(frame, opPos, "'%%' requires two integers")
		}
		if bi == 0 {
			return vm.domainFault(frame, opPos, "modulo by zero")
		}
		vm.push(ai % bi)
	case bytecode.OpLt, bytecode.OpLe, bytecode.OpGt, bytecode.OpGe:
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if !aok || !bok {
			return vm.typeFault(frame, opPos, "comparison requires two numbers")
		}
		switch op {
		case bytecode.OpLt:
			vm.push(af < bf)
		case bytecode.OpLe:
			vm.push(af <= bf)
		case bytecode.OpGt:
			vm.push(af > bf)
		case bytecode.OpGe:
			vm.push(af >= bf)
		}
	}
	return nil
}

func (vm *VM) negate(frame *Frame, opPos int) error {
	v := vm.pop()
	switch x := v.(type) {
	case int64:
		if x == math.MinInt64 {
			return vm.domainFault(frame, opPos, "integer overflow negating %d", x)
		}
		vm.push(-x)
	case float64:
		vm.push(-x)
	default:
		return vm.typeFault(frame, opPos, "unary '-' requires a number, got %s", value.TypeName(v))
	}
	return nil
}

// --- Fault construction ---

func debugAt(frame *Frame, opPos int) bytecode.DebugInfo {
	if frame == nil {
		return bytecode.DebugInfo{}
	}
	return frame.closure.Proto.Chunk.GetDebugInfo(opPos)
}

func (vm *VM) typeFault(frame *Frame, opPos int, format string, args ...interface{}) error {
	d := debugAt(frame, opPos)
	return errors.NewTypeFault(fmt.Sprintf(format, args...), d.Line, d.Column)
}

func (vm *VM) domainFault(frame *Frame, opPos int, format string, args ...interface{}) error {
	d := debugAt(frame, opPos)
	return errors.NewDomainFault(fmt.Sprintf(format, args...), d.Line, d.Column)
}

func (vm *VM) hostFault(frame *Frame, opPos int, format string, args ...interface{}) error {
	return errors.NewHostFault(fmt.Sprintf(format, args...))
}

func (vm *VM) runtimeFault(frame *Frame, opPos int, message string) error {
	d := debugAt(frame, opPos)
	return errors.NewDomainFault(message, d.Line, d.Column)
}

// callSiteFault raises a DomainFault for call-shape errors other than
// arity mismatches: stack/frame overflow and unknown field/method names.
// Arity mismatches are TypeFaults (see typeFault call sites in
// invokeCallable/pushClosureFrame/callByteArrayMethod) per spec's fault
// taxonomy.
func (vm *VM) callSiteFault(frame *Frame, opPos int, format string, args ...interface{}) error {
	d := debugAt(frame, opPos)
	return errors.NewDomainFault(fmt.Sprintf(format, args...), d.Line, d.Column)
}
