package vm

import "github.com/enix403/volt/runtime"

// CallFrame is a per-activation record: the function being executed,
// its program counter, and the base offset into the VM's value stack
// where this call's slot 0 (the callee itself) lives, per spec.md
// §4.6. Locals and arguments for the call occupy slotBase+1 and up.
type CallFrame struct {
	fn       *runtime.ObjFunction
	pc       int
	slotBase int
}
