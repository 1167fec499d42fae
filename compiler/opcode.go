package compiler

// Opcode identifies one bytecode instruction. Numeric values are only
// required to be stable within this implementation (the disassembler
// dispatches on them); the ordering below is the canonical one this
// project settled on.
type Opcode byte

const (
	OpReturn Opcode = iota
	OpConstant
	OpNegate
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNil
	OpTrue
	OpFalse
	OpNot
	OpEqual
	OpGreater
	OpLess
	OpPrint
	OpPop
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal
	OpJumpIfFalse
	OpJump
	OpLoop
)

// operandWidth describes how many operand bytes follow an opcode: 0 for
// none, 1 for a constant index or local slot, 2 for a big-endian jump
// offset.
var operandWidth = map[Opcode]int{
	OpReturn:       0,
	OpConstant:     1,
	OpNegate:       0,
	OpAdd:          0,
	OpSubtract:     0,
	OpMultiply:     0,
	OpDivide:       0,
	OpNil:          0,
	OpTrue:         0,
	OpFalse:        0,
	OpNot:          0,
	OpEqual:        0,
	OpGreater:      0,
	OpLess:         0,
	OpPrint:        0,
	OpPop:          0,
	OpDefineGlobal: 1,
	OpGetGlobal:    1,
	OpSetGlobal:    1,
	OpGetLocal:     1,
	OpSetLocal:     1,
	OpJumpIfFalse:  2,
	OpJump:         2,
	OpLoop:         2,
}

// opcodeNames backs the disassembler.
var opcodeNames = map[Opcode]string{
	OpReturn:       "OP_RETURN",
	OpConstant:     "OP_CONSTANT",
	OpNegate:       "OP_NEGATE",
	OpAdd:          "OP_ADD",
	OpSubtract:     "OP_SUBTRACT",
	OpMultiply:     "OP_MULTIPLY",
	OpDivide:       "OP_DIVIDE",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpNot:          "OP_NOT",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpPrint:        "OP_PRINT",
	OpPop:          "OP_POP",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpJump:         "OP_JUMP",
	OpLoop:         "OP_LOOP",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "OP_UNKNOWN"
}
