// Package debug holds the diagnostic tooling spec.md §2 lists as the
// "Disassembler" component: chunk disassembly for -trace output and a
// sorted globals dump for the REPL's -dump-globals flag.
package debug

import (
	"fmt"
	"io"

	"github.com/enix403/volt/bytecode"
	"github.com/enix403/volt/runtime"
)

// DisassembleChunk writes a human-readable listing of every instruction
// in chunk to w, labeled with name (typically the enclosing function's
// name, or "<script>").
func DisassembleChunk(w io.Writer, chunk *runtime.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		offset = DisassembleInstruction(w, chunk, offset)
	}
}

// DisassembleInstruction writes one instruction at offset and returns
// the offset of the next one. It is also used by the VM's -trace mode
// to print each instruction immediately before it executes.
func DisassembleInstruction(w io.Writer, chunk *runtime.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	line := chunk.Line(offset)
	if offset > 0 && line == chunk.Line(offset-1) {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", line)
	}

	op := bytecode.OpCode(chunk.Code[offset])
	switch op {
	case bytecode.LOADCONST, bytecode.DEFINE_GLOBAL, bytecode.GET_GLOBAL, bytecode.SET_GLOBAL:
		return constantInstruction(w, op, chunk, offset)
	case bytecode.GET_LOCAL, bytecode.SET_LOCAL, bytecode.POPN, bytecode.CALL:
		return byteInstruction(w, op, chunk, offset)
	case bytecode.JUMP_IF_FALSE, bytecode.JUMP_IF_TRUE, bytecode.JUMP:
		return jumpInstruction(w, op, 1, chunk, offset)
	case bytecode.LOOP:
		return jumpInstruction(w, op, -1, chunk, offset)
	default:
		fmt.Fprintln(w, op.String())
		return offset + 1
	}
}

func constantInstruction(w io.Writer, op bytecode.OpCode, chunk *runtime.Chunk, offset int) int {
	idx := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d '%s'\n", op.String(), idx, chunk.Constants[idx].String())
	return offset + 2
}

func byteInstruction(w io.Writer, op bytecode.OpCode, chunk *runtime.Chunk, offset int) int {
	slot := chunk.Code[offset+1]
	fmt.Fprintf(w, "%-16s %4d\n", op.String(), slot)
	return offset + 2
}

func jumpInstruction(w io.Writer, op bytecode.OpCode, sign int, chunk *runtime.Chunk, offset int) int {
	hi := int(chunk.Code[offset+1])
	lo := int(chunk.Code[offset+2])
	jump := hi<<8 | lo
	fmt.Fprintf(w, "%-16s %4d -> %d\n", op.String(), offset, offset+3+sign*jump)
	return offset + 3
}
