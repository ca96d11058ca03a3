package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a Function's bytecode as a human-readable listing,
// generalizing the teacher's disassembler to the value.Value constant pool
// and the opcode set in instruction.go. Inner functions are listed after
// their parent, each under its own header.
func Disassemble(fn *Function) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "== %s ==\n", fn.Name)
	disassembleChunk(&sb, fn.Chunk)
	for _, inner := range fn.Inner {
		sb.WriteString("\n")
		sb.WriteString(Disassemble(inner))
	}
	return sb.String()
}

func disassembleChunk(sb *strings.Builder, c *Chunk) {
	for pc := 0; pc < len(c.Code); pc++ {
		ins := Decode(c.Code[pc])
		fmt.Fprintf(sb, "%04d %-14s", pc, ins.Op.String())
		switch ins.Op {
		case OpLoadConst, OpLoadGlobal, OpStoreGlobal, OpDeclareVar, OpDeclareLet,
			OpInitBinding, OpGetProp, OpSetProp, OpMakeClosure, OpCallMethod:
			if int(ins.B) < len(c.Constants) {
				fmt.Fprintf(sb, " %d ; %v", ins.B, c.Constants[ins.B])
			} else {
				fmt.Fprintf(sb, " %d", ins.B)
			}
		case OpLoadLocal, OpStoreLocal, OpLoadUpvalue, OpStoreUpvalue:
			fmt.Fprintf(sb, " %d", ins.B)
		case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpJumpIfNullish:
			fmt.Fprintf(sb, " -> %04d", pc+1+int(int16(ins.B)))
		case OpPushHandler:
			fmt.Fprintf(sb, " -> %04d", ins.B)
		case OpCall, OpNew:
			fmt.Fprintf(sb, " argc=%d", ins.A)
		}
		sb.WriteString("\n")
	}
}
