package value

// DeepCopy clones a value for transport across an actor boundary. Scalars,
// strings, classes, and actor ids pass through by reference since they are
// immutable or trivially shareable. Arrays, ByteArrays, Objects, and
// Closures are cloned onto the destination actor's heap; an identity map
// preserves aliasing and terminates cycles (e.g. `o.self = o`).
func DeepCopy(v Value) Value {
	return deepCopy(v, make(map[interface{}]Value))
}

func deepCopy(v Value, seen map[interface{}]Value) Value {
	switch x := v.(type) {
	case nil, bool, int64, float64, string, ActorID, *Class, *NativeFunction:
		return x
	case *Array:
		if copied, ok := seen[x]; ok {
			return copied
		}
		out := &Array{Elements: make([]Value, len(x.Elements))}
		seen[x] = out
		for i, e := range x.Elements {
			out.Elements[i] = deepCopy(e, seen)
		}
		return out
	case *ByteArray:
		if copied, ok := seen[x]; ok {
			return copied
		}
		out := &ByteArray{Bytes: make([]byte, len(x.Bytes))}
		copy(out.Bytes, x.Bytes)
		seen[x] = out
		return out
	case *Object:
		if copied, ok := seen[x]; ok {
			return copied
		}
		out := &Object{Class: x.Class, Fields: make(map[string]Value, len(x.Fields))}
		seen[x] = out
		for k, fv := range x.Fields {
			out.Fields[k] = deepCopy(fv, seen)
		}
		return out
	case *Closure:
		if copied, ok := seen[x]; ok {
			return copied
		}
		out := &Closure{Proto: x.Proto, Upvalues: make([]*Upvalue, len(x.Upvalues))}
		seen[x] = out
		for i, uv := range x.Upvalues {
			closedVal := uv.Get()
			out.Upvalues[i] = &Upvalue{Closed: true, Value: deepCopy(closedVal, seen)}
		}
		return out
	case *BoundMethod:
		if copied, ok := seen[x]; ok {
			return copied
		}
		out := &BoundMethod{}
		seen[x] = out
		out.Receiver = deepCopy(x.Receiver, seen)
		methodCopy := deepCopy(x.Method, seen)
		out.Method = methodCopy.(*Closure)
		return out
	default:
		return x
	}
}
