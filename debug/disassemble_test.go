package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/enix403/volt/bytecode"
	"github.com/enix403/volt/runtime"
)

func TestDisassembleChunkListsEveryInstruction(t *testing.T) {
	chunk := runtime.NewChunk()
	idx := chunk.AddConstant(runtime.Number(42))
	chunk.Write(byte(bytecode.LOADCONST), 1)
	chunk.Write(byte(idx), 1)
	chunk.Write(byte(bytecode.RETURN), 1)

	var out bytes.Buffer
	DisassembleChunk(&out, chunk, "<script>")

	got := out.String()
	if !strings.Contains(got, "== <script> ==") {
		t.Errorf("output missing header, got %q", got)
	}
	if !strings.Contains(got, "LOADCONST") {
		t.Errorf("output missing LOADCONST, got %q", got)
	}
	if !strings.Contains(got, "RETURN") {
		t.Errorf("output missing RETURN, got %q", got)
	}
}

func TestDumpGlobalsIsSortedByName(t *testing.T) {
	registry := runtime.NewRegistry()
	strings_ := runtime.NewStrings(registry)
	globals := runtime.NewTable()

	globals.Set(strings_.CopyString("zeta"), runtime.Number(1))
	globals.Set(strings_.CopyString("alpha"), runtime.Number(2))
	globals.Set(strings_.CopyString("mid"), runtime.Bool(true))

	var out bytes.Buffer
	DumpGlobals(&out, globals)

	want := "alpha = 2\nmid = true\nzeta = 1\n"
	if out.String() != want {
		t.Fatalf("DumpGlobals output = %q, want %q", out.String(), want)
	}
}
