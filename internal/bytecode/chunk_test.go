package bytecode

import "testing"

func TestChunkWriteAndPatchUint16(t *testing.T) {
	c := NewChunk()
	c.WriteOpWithDebug(OpJump, DebugInfo{Line: 1})
	pos := c.Len()
	c.WriteUint16(0, DebugInfo{Line: 1})
	c.WriteOpWithDebug(OpPop, DebugInfo{Line: 2})

	c.PatchUint16(pos, uint16(c.Len()))

	got := uint16(c.Code[pos])<<8 | uint16(c.Code[pos+1])
	if int(got) != c.Len() {
		t.Errorf("patched jump target: got %d, want %d", got, c.Len())
	}
}

func TestChunkAddConstantReturnsIndex(t *testing.T) {
	c := NewChunk()
	i0 := c.AddConstant(int64(10))
	i1 := c.AddConstant("hello")
	if i0 != 0 || i1 != 1 {
		t.Errorf("got indices (%d, %d), want (0, 1)", i0, i1)
	}
	if c.Constants[i0].(int64) != 10 || c.Constants[i1].(string) != "hello" {
		t.Errorf("unexpected constants: %v", c.Constants)
	}
}

func TestChunkGetDebugInfoOutOfRangeReturnsZeroValue(t *testing.T) {
	c := NewChunk()
	c.WriteOpWithDebug(OpPop, DebugInfo{Line: 5, File: "x.pl"})
	if d := c.GetDebugInfo(0); d.Line != 5 {
		t.Errorf("got line %d, want 5", d.Line)
	}
	if d := c.GetDebugInfo(99); d != (DebugInfo{}) {
		t.Errorf("expected zero-value DebugInfo out of range, got %+v", d)
	}
}
