// Package value defines the runtime value model shared by the compiler and
// the VM: every kind a Plush program can hold at runtime, plus the
// reference/content equality rules and the deep-copy machinery actors use to
// exchange messages without sharing mutable state.
package value

import (
	"fmt"
	"strings"

	"plush/internal/bytecode"
)

// Value is any Plush runtime value. Concrete kinds: nil, bool, int64,
// float64, string, *Array, *ByteArray, *Object, *Class, *Closure,
// *BoundMethod, *NativeFunction, ActorID.
type Value interface{}

// ActorID is an opaque, shareable-by-value handle to an actor.
type ActorID int64

// Array is a dynamic, indexable, mutable vector. Belongs to exactly one
// actor's heap; deep-copied whenever it crosses an actor boundary.
type Array struct {
	Elements []Value
}

func NewArray(n int) *Array {
	return &Array{Elements: make([]Value, n)}
}

func (a *Array) Len() int { return len(a.Elements) }

// ByteArray is a raw byte buffer with little-endian u32 helpers.
type ByteArray struct {
	Bytes []byte
}

func NewByteArray(n int) *ByteArray {
	return &ByteArray{Bytes: make([]byte, n)}
}

func (b *ByteArray) ReadU32(offset int) uint32 {
	return uint32(b.Bytes[offset]) |
		uint32(b.Bytes[offset+1])<<8 |
		uint32(b.Bytes[offset+2])<<16 |
		uint32(b.Bytes[offset+3])<<24
}

func (b *ByteArray) WriteU32(offset int, v uint32) {
	b.Bytes[offset] = byte(v)
	b.Bytes[offset+1] = byte(v >> 8)
	b.Bytes[offset+2] = byte(v >> 16)
	b.Bytes[offset+3] = byte(v >> 24)
}

// FunctionProto is frozen, immutable compiled code: a function or method
// body, its constant pool, and the upvalue descriptors a closure over it
// must resolve at creation time.
type FunctionProto struct {
	Name         string
	Arity        int
	ParamNames   []string
	Chunk        *bytecode.Chunk
	UpvalueDescs []UpvalueDesc
}

// UpvalueDesc tells NEW_CLOSURE where to find the cell for upvalue i:
// either the enclosing function's own local-slot array (FromLocal) or the
// enclosing function's own already-resolved upvalue array.
type UpvalueDesc struct {
	FromLocal bool
	Index     int
	Immutable bool
}

// Upvalue is a shared mutable cell. While Closed is false it aliases a
// living stack slot (Slot points into the owning frame's locals); once the
// owning frame exits, the runtime copies the current value into Value and
// sets Closed, after which reads/writes touch Value directly.
type Upvalue struct {
	Closed bool
	Value  Value
	Slot   *Value
}

func (u *Upvalue) Get() Value {
	if u.Closed {
		return u.Value
	}
	return *u.Slot
}

func (u *Upvalue) Set(v Value) {
	if u.Closed {
		u.Value = v
		return
	}
	*u.Slot = v
}

func (u *Upvalue) Close() {
	if !u.Closed {
		u.Value = *u.Slot
		u.Closed = true
		u.Slot = nil
	}
}

// Closure pairs a frozen FunctionProto with the upvalue cells resolved at
// the point the closure was created.
type Closure struct {
	Proto    *FunctionProto
	Upvalues []*Upvalue
}

// BoundMethod is a method resolved off a receiver: calling it prepends the
// receiver as argument zero to the underlying closure.
type BoundMethod struct {
	Receiver Value
	Method   *Closure
}

// Class is a frozen, shareable-by-reference descriptor: a name, an ordered
// method table, and an optional constructor.
type Class struct {
	Name        string
	MethodOrder []string
	Methods     map[string]*Closure
	Init        *Closure
}

func (c *Class) Method(name string) (*Closure, bool) {
	m, ok := c.Methods[name]
	return m, ok
}

// Object is a class instance: a mutable property bag plus a reference to
// its (shared, frozen) class.
type Object struct {
	Class  *Class
	Fields map[string]Value
}

func NewObject(class *Class) *Object {
	return &Object{Class: class, Fields: make(map[string]Value)}
}

// NativeFunction wraps a host intrinsic or other Go-implemented callable.
type NativeFunction struct {
	Name  string
	Arity int
	Fn    func(args []Value) (Value, error)
}

// TypeName renders a Plush-facing type name, used in fault messages.
func TypeName(v Value) string {
	switch v.(type) {
	case nil:
		return "nil"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case *Array:
		return "array"
	case *ByteArray:
		return "bytearray"
	case *Object:
		return "object"
	case *Class:
		return "class"
	case *Closure:
		return "function"
	case *BoundMethod:
		return "function"
	case *NativeFunction:
		return "function"
	case ActorID:
		return "actor"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Truthy implements Plush's truthiness rule: nil and false are false,
// everything else — including 0 and 0.0 — is true.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	default:
		return true
	}
}

// Equal implements spec's equality rule: reference identity for
// objects/arrays/bytearrays/functions/classes, content equality for
// strings (the one exception), value equality for scalars, and Int64/
// Float64 cross-kind comparison via float coercion. Any other kind
// mismatch is false.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int64:
		switch bv := b.(type) {
		case int64:
			return av == bv
		case float64:
			return float64(av) == bv
		}
		return false
	case float64:
		switch bv := b.(type) {
		case float64:
			return av == bv
		case int64:
			return av == float64(bv)
		}
		return false
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case ActorID:
		bv, ok := b.(ActorID)
		return ok && av == bv
	case *Array:
		bv, ok := b.(*Array)
		return ok && av == bv
	case *ByteArray:
		bv, ok := b.(*ByteArray)
		return ok && av == bv
	case *Object:
		bv, ok := b.(*Object)
		return ok && av == bv
	case *Class:
		bv, ok := b.(*Class)
		return ok && av == bv
	case *Closure:
		bv, ok := b.(*Closure)
		return ok && av == bv
	case *BoundMethod:
		bv, ok := b.(*BoundMethod)
		return ok && av == bv
	default:
		return false
	}
}

// Inspect renders a value the way $print does.
func Inspect(v Value) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		if x {
			return "true"
		}
		return "false"
	case int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return fmt.Sprintf("%g", x)
	case string:
		return x
	case *Array:
		parts := make([]string, len(x.Elements))
		for i, e := range x.Elements {
			parts[i] = Inspect(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *ByteArray:
		return fmt.Sprintf("<bytearray len=%d>", len(x.Bytes))
	case *Object:
		return fmt.Sprintf("<%s instance>", x.Class.Name)
	case *Class:
		return fmt.Sprintf("<class %s>", x.Name)
	case *Closure:
		return fmt.Sprintf("<fn %s>", x.Proto.Name)
	case *BoundMethod:
		return fmt.Sprintf("<bound fn %s>", x.Method.Proto.Name)
	case *NativeFunction:
		return fmt.Sprintf("<native fn %s>", x.Name)
	case ActorID:
		return fmt.Sprintf("<actor %d>", int64(x))
	default:
		return fmt.Sprintf("%v", x)
	}
}
