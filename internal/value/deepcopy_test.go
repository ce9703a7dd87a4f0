package value

import "testing"

func TestDeepCopyArrayIsIndependent(t *testing.T) {
	orig := &Array{Elements: []Value{int64(1), int64(2), int64(3)}}
	copied := DeepCopy(orig).(*Array)

	copied.Elements[0] = int64(99)
	if orig.Elements[0].(int64) != 1 {
		t.Fatalf("mutating the copy mutated the original: %v", orig.Elements[0])
	}
}

func TestDeepCopyPreservesScalarsByValue(t *testing.T) {
	for _, v := range []Value{int64(5), 3.5, "hi", true, nil} {
		got := DeepCopy(v)
		if !Equal(got, v) {
			t.Errorf("DeepCopy(%v) = %v, want equal", v, got)
		}
	}
}

func TestDeepCopyObjectClonesFieldsButSharesClass(t *testing.T) {
	cls := &Class{Name: "Point"}
	obj := NewObject(cls)
	obj.Fields["x"] = int64(1)

	copied := DeepCopy(obj).(*Object)
	copied.Fields["x"] = int64(2)

	if obj.Fields["x"].(int64) != 1 {
		t.Fatalf("mutating the copy's field mutated the original: %v", obj.Fields["x"])
	}
	if copied.Class != cls {
		t.Fatalf("expected the class reference to be shared, not cloned")
	}
}

func TestDeepCopyHandlesSelfReferentialCycle(t *testing.T) {
	cls := &Class{Name: "Node"}
	obj := NewObject(cls)
	obj.Fields["self"] = obj

	copied := DeepCopy(obj).(*Object)
	if copied.Fields["self"].(*Object) != copied {
		t.Fatalf("expected the cloned self-reference to point back at the clone, not the original")
	}
}

func TestDeepCopyByteArrayClones(t *testing.T) {
	orig := &ByteArray{Bytes: []byte{1, 2, 3}}
	copied := DeepCopy(orig).(*ByteArray)
	copied.Bytes[0] = 9
	if orig.Bytes[0] != 1 {
		t.Fatalf("mutating the copy mutated the original: %v", orig.Bytes[0])
	}
}
