package compiler

import (
	"testing"

	"github.com/enix403/volt/runtime"
)

func newStrings() *runtime.Strings {
	return runtime.NewStrings(runtime.NewRegistry())
}

func TestCompileSimpleExpressionStatement(t *testing.T) {
	fn, errs := Compile("1 + 2;", newStrings())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if fn == nil {
		t.Fatalf("expected a compiled function")
	}
	if len(fn.Chunk.Code) == 0 {
		t.Fatalf("expected non-empty bytecode")
	}
}

func TestCompileVarAndPrint(t *testing.T) {
	_, errs := Compile(`var a = 1; print a;`, newStrings())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestCompileFunctionDeclarationAndCall(t *testing.T) {
	src := `
		fun add(a, b) {
			return a + b;
		}
		print add(1, 2);
	`
	_, errs := Compile(src, newStrings())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
}

func TestSelfReferentialLocalInitializerIsAnError(t *testing.T) {
	_, errs := Compile(`{ var a = a; }`, newStrings())
	if len(errs) == 0 {
		t.Fatalf("expected a compile error for `var a = a;` inside a block")
	}
	found := false
	for _, e := range errs {
		if e.Message == "Cannot access variable in its own initializer." {
			found = true
		}
	}
	if !found {
		t.Fatalf("errors = %v, want one mentioning the self-initializer rule", errs)
	}
}

func TestInvalidAssignmentTargetIsAnError(t *testing.T) {
	_, errs := Compile(`1 = 2;`, newStrings())
	if len(errs) == 0 {
		t.Fatalf("expected a compile error for assigning to a non-lvalue")
	}
}

func TestReturnAtTopLevelIsAnError(t *testing.T) {
	_, errs := Compile(`return 1;`, newStrings())
	if len(errs) == 0 {
		t.Fatalf("expected a compile error for return outside a function")
	}
	if errs[0].Message != "Can't return from top-level code." {
		t.Fatalf("errs[0] = %v, want the top-level-return message", errs[0])
	}
}

func TestUnterminatedStringIsAnError(t *testing.T) {
	_, errs := Compile(`print "unterminated;`, newStrings())
	if len(errs) == 0 {
		t.Fatalf("expected a compile error for an unterminated string")
	}
}

func TestSynchronizeAllowsMultipleErrorsInOneRun(t *testing.T) {
	src := `
		1 = 2;
		3 = 4;
	`
	_, errs := Compile(src, newStrings())
	if len(errs) < 2 {
		t.Fatalf("expected compilation to continue past the first error and report both, got %v", errs)
	}
}
