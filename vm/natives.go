package vm

import (
	"strconv"
	"strings"

	"github.com/enix403/volt/runtime"
)

// defineNatives registers the built-in functions from spec.md §4.6:
// clock() -> Number (seconds of VM uptime) and input_num() -> Number,
// reading one line from stdin and parsing it as a signed integer. Each
// is installed directly into globals rather than through DEFINE_GLOBAL
// bytecode, since native bindings exist before any user code runs.
func (v *VM) defineNatives() {
	v.defineNative("clock", v.nativeClock)
	v.defineNative("input_num", v.nativeInputNum)
}

func (v *VM) defineNative(name string, fn runtime.NativeFn) {
	nameObj := v.strings.CopyString(name)
	native := &runtime.ObjNativeFn{Name: name, Fn: fn}
	v.registry.Track(native)
	v.globals.Set(nameObj, runtime.ObjVal(native))
}

func (v *VM) nativeClock(args []runtime.Value) runtime.Value {
	return runtime.Number(v.Uptime().Seconds())
}

// nativeInputNum reads a line from stdin and parses it as a signed
// integer, matching original_source/src/volt/vm.c's input_num_native
// (scanf("%ld", ...)) rather than accepting arbitrary float syntax. A
// malformed or absent line — including fractional input like "3.14" —
// yields Nil, since the language has no exception facility a native
// could raise instead, per SPEC_FULL.md §C.
func (v *VM) nativeInputNum(args []runtime.Value) runtime.Value {
	line, err := v.stdin.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" && err != nil {
		return runtime.Nil
	}
	n, perr := strconv.ParseInt(line, 10, 64)
	if perr != nil {
		return runtime.Nil
	}
	return runtime.Number(float64(n))
}
