package bytecode

type OpCode byte

const (
	// Stack
	OpPushNil OpCode = iota
	OpPushTrue
	OpPushFalse
	OpConstant // 1 operand byte: constant index
	OpPop
	OpDup
	OpSwap

	// Locals / upvalues
	OpGetLocal      // 1 operand byte: slot
	OpSetLocal      // 1 operand byte: slot
	OpGetUpvalue    // 1 operand byte: index
	OpSetUpvalue    // 1 operand byte: index
	OpCloseUpvalues // 1 operand byte: stack depth to close from

	// Globals
	OpGetGlobal    // 1 operand byte: constant index (name)
	OpDefineGlobal // 1 operand byte: constant index (name)
	OpSetGlobal    // 1 operand byte: constant index (name)

	// Arithmetic / logic
	OpAdd
	OpSub
	OpMul
	OpDivF // always float
	OpDivI // truncated-toward-zero integer division
	OpMod
	OpNeg
	OpNot
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGt
	OpGe

	// Control flow (2 operand bytes: unsigned 16-bit offset)
	OpJump
	OpJumpIfTrue
	OpJumpIfFalse
	OpLoop // backward jump

	// Calls
	OpCall       // 1 operand byte: argc
	OpCallMethod // 1 operand byte: constant index (name); 1 operand byte: argc
	OpCallHost   // 2 operand bytes: constant index (host name); 1 operand byte: argc
	OpReturn
	OpNewClosure // 1 operand byte: constant index (function proto), then a
	// per-upvalue sidecar of {isLocal byte, index byte} pairs, len(proto.UpvalueDescs) long

	// Aggregates
	OpNewArray // 2 operand bytes: item count
	OpGetIndex
	OpSetIndex
	OpArrayLen
	OpNewObject  // 1 operand byte: constant index (class)
	OpGetField   // 1 operand byte: constant index (name)
	OpSetField   // 1 operand byte: constant index (name)
	OpInstanceOf // 1 operand byte: constant index (class)

	// Assertion
	OpAssert // 1 operand byte: constant index (source snippet, for diagnostics)
)

var names = map[OpCode]string{
	OpPushNil:       "PUSH_NIL",
	OpPushTrue:      "PUSH_TRUE",
	OpPushFalse:     "PUSH_FALSE",
	OpConstant:      "PUSH_CONST",
	OpPop:           "POP",
	OpDup:           "DUP",
	OpSwap:          "SWAP",
	OpGetLocal:      "GET_LOCAL",
	OpSetLocal:      "SET_LOCAL",
	OpGetUpvalue:    "GET_UPVALUE",
	OpSetUpvalue:    "SET_UPVALUE",
	OpCloseUpvalues: "CLOSE_UPVALUES",
	OpGetGlobal:     "GET_GLOBAL",
	OpDefineGlobal:  "DEFINE_GLOBAL",
	OpSetGlobal:     "SET_GLOBAL",
	OpAdd:           "ADD",
	OpSub:           "SUB",
	OpMul:           "MUL",
	OpDivF:          "DIV_F",
	OpDivI:          "DIV_I",
	OpMod:           "MOD",
	OpNeg:           "NEG",
	OpNot:           "NOT",
	OpEq:            "EQ",
	OpNeq:           "NEQ",
	OpLt:            "LT",
	OpLe:            "LE",
	OpGt:            "GT",
	OpGe:            "GE",
	OpJump:          "JUMP",
	OpJumpIfTrue:    "JUMP_IF_TRUE",
	OpJumpIfFalse:   "JUMP_IF_FALSE",
	OpLoop:          "LOOP",
	OpCall:          "CALL",
	OpCallMethod:    "CALL_METHOD",
	OpCallHost:      "CALL_HOST",
	OpReturn:        "RETURN",
	OpNewClosure:    "NEW_CLOSURE",
	OpNewArray:      "NEW_ARRAY",
	OpGetIndex:      "GET_INDEX",
	OpSetIndex:      "SET_INDEX",
	OpArrayLen:      "ARRAY_LEN",
	OpNewObject:     "NEW_OBJECT",
	OpGetField:      "GET_FIELD",
	OpSetField:      "SET_FIELD",
	OpInstanceOf:    "INSTANCE_OF",
	OpAssert:        "ASSERT",
}

func (op OpCode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "UNKNOWN_OP"
}
