// Package vm implements the stack-machine interpreter from spec.md
// §4.6: call frames, the value stack, globals, and the fetch-decode-
// execute dispatch loop. It ties together the compiler (to go from
// source text to a compiled function) and the runtime package's
// value/object/table model.
package vm

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/enix403/volt/bytecode"
	"github.com/enix403/volt/compiler"
	"github.com/enix403/volt/debug"
	"github.com/enix403/volt/internal/config"
	"github.com/enix403/volt/internal/vlog"
	"github.com/enix403/volt/runtime"
)

// VM is one interpreter instance. It is not safe for concurrent use —
// spec.md §5 is explicit that execution is single-threaded and
// synchronous.
type VM struct {
	cfg config.Config
	log *vlog.Logger

	stdout io.Writer
	stderr io.Writer
	stdin  *bufio.Reader

	frames   []CallFrame
	stack    []runtime.Value
	stackTop int

	registry *runtime.Registry
	strings  *runtime.Strings
	globals  *runtime.Table

	runID     string
	startedAt time.Time
}

// New builds a VM with its own object registry, string-interning
// table, and globals table, and registers the native functions from
// spec.md §4.6 if cfg.EnableNatives is set. Each VM gets a fresh
// google/uuid run identifier stamped into its logger, grounded on
// SnellerInc-sneller's request/log-correlation use of the same
// library (see SPEC_FULL.md §B). stdout receives `print` output,
// stderr receives compile/runtime error reports and log lines, and
// stdin feeds the input_num() native.
func New(cfg config.Config, stdout, stderr io.Writer, stdin io.Reader) *VM {
	runID := uuid.New().String()
	level := vlog.LevelInfo
	if cfg.DebugTrace {
		level = vlog.LevelDebug
	}

	registry := runtime.NewRegistry()
	v := &VM{
		cfg:       cfg,
		log:       vlog.New(stderr, level, runID),
		stdout:    stdout,
		stderr:    stderr,
		stdin:     bufio.NewReader(stdin),
		stack:     make([]runtime.Value, cfg.StackMax()),
		registry:  registry,
		strings:   runtime.NewStrings(registry),
		globals:   runtime.NewTable(),
		runID:     runID,
		startedAt: time.Now(),
	}
	if cfg.EnableNatives {
		v.defineNatives()
	}
	return v
}

// Strings exposes the VM's interning table so the compiler can
// canonicalize identifiers and string literals into the same pool the
// interpreter reads from.
func (v *VM) Strings() *runtime.Strings { return v.strings }

func (v *VM) resetStack() {
	v.stackTop = 0
	v.frames = v.frames[:0]
}

func (v *VM) push(val runtime.Value) {
	v.stack[v.stackTop] = val
	v.stackTop++
}

func (v *VM) pop() runtime.Value {
	v.stackTop--
	return v.stack[v.stackTop]
}

func (v *VM) peek(distance int) runtime.Value {
	return v.stack[v.stackTop-1-distance]
}

// Interpret compiles and runs source, per spec.md §6's
// `interpret(source) -> Result` interface. It is the sole external
// entry point into the compiler+VM pair.
func (v *VM) Interpret(source string) Result {
	fn, errs := compiler.Compile(source, v.strings)
	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintln(v.stderr, e.Error())
		}
		v.log.Errorf("compile failed with %d error(s)", len(errs))
		return ResultCompileError
	}

	v.resetStack()
	v.push(runtime.ObjVal(fn))
	v.frames = append(v.frames, CallFrame{fn: fn, pc: 0, slotBase: 0})

	return v.run()
}

func isFalsey(val runtime.Value) bool { return val.IsFalsey() }

// run is the fetch-decode-execute loop. Runtime errors are raised via
// panic(*RuntimeError) from deep inside opcode handling (arity checks,
// operand type checks, stack overflow) and recovered here — the
// idiomatic Go analogue of the C original's early-return-from-any-depth
// on a runtime fault.
func (v *VM) run() (result Result) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(*RuntimeError)
			if !ok {
				panic(r)
			}
			fmt.Fprintln(v.stderr, rerr.Error())
			v.log.Errorf("runtime error: %s", rerr.Message)
			v.resetStack()
			result = ResultRuntimeError
		}
	}()

	for {
		frame := &v.frames[len(v.frames)-1]
		if v.cfg.DebugTrace {
			debug.DisassembleInstruction(v.stderr, frame.fn.Chunk, frame.pc)
		}
		op := bytecode.OpCode(frame.fn.Chunk.Code[frame.pc])
		frame.pc++

		switch op {
		case bytecode.RETURN:
			retVal := v.pop()
			v.frames = v.frames[:len(v.frames)-1]
			if len(v.frames) == 0 {
				v.pop() // discard the script's own slot
				return ResultOK
			}
			v.stackTop = frame.slotBase
			v.push(retVal)

		case bytecode.LOADCONST:
			idx := v.readByte(frame)
			v.push(frame.fn.Chunk.Constants[idx])

		case bytecode.NIL:
			v.push(runtime.Nil)
		case bytecode.TRUE:
			v.push(runtime.Bool(true))
		case bytecode.FALSE:
			v.push(runtime.Bool(false))

		case bytecode.POP:
			v.pop()
		case bytecode.POPN:
			n := int(v.readByte(frame))
			v.stackTop -= n

		case bytecode.NEGATE:
			if !v.peek(0).IsNumber() {
				v.runtimeError(frame, "Operand must be a number")
			}
			v.push(runtime.Number(-v.pop().AsNumber()))

		case bytecode.ADD:
			v.add(frame)

		case bytecode.SUBTRACT:
			b, a := v.popNumberPair(frame)
			v.push(runtime.Number(a - b))
		case bytecode.MULTIPLY:
			b, a := v.popNumberPair(frame)
			v.push(runtime.Number(a * b))
		case bytecode.DIVIDE:
			b, a := v.popNumberPair(frame)
			v.push(runtime.Number(a / b))

		case bytecode.LOGIC_NOT:
			v.push(runtime.Bool(isFalsey(v.pop())))

		case bytecode.LOGIC_EQUAL:
			b, a := v.pop(), v.pop()
			v.push(runtime.Bool(runtime.Equal(a, b)))
		case bytecode.LOGIC_GREATER:
			b, a := v.popNumberPair(frame)
			v.push(runtime.Bool(a > b))
		case bytecode.LOGIC_LESS:
			b, a := v.popNumberPair(frame)
			v.push(runtime.Bool(a < b))

		case bytecode.PRINT:
			fmt.Fprintln(v.stdout, v.pop().String())

		case bytecode.DEFINE_GLOBAL:
			idx := v.readByte(frame)
			name := frame.fn.Chunk.Constants[idx].AsString()
			v.globals.Set(name, v.peek(0))
			v.pop()

		case bytecode.GET_GLOBAL:
			idx := v.readByte(frame)
			name := frame.fn.Chunk.Constants[idx].AsString()
			val, ok := v.globals.Get(name)
			if !ok {
				v.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}
			v.push(val)

		case bytecode.SET_GLOBAL:
			idx := v.readByte(frame)
			name := frame.fn.Chunk.Constants[idx].AsString()
			isNew := v.globals.Set(name, v.peek(0))
			if isNew {
				// Assignment must not implicitly define: roll back.
				v.globals.Delete(name)
				v.runtimeError(frame, "Undefined variable '%s'.", name.Chars)
			}

		case bytecode.GET_LOCAL:
			slot := v.readByte(frame)
			v.push(v.stack[frame.slotBase+int(slot)])

		case bytecode.SET_LOCAL:
			slot := v.readByte(frame)
			v.stack[frame.slotBase+int(slot)] = v.peek(0)

		case bytecode.JUMP_IF_FALSE:
			offset := v.readShort(frame)
			if isFalsey(v.peek(0)) {
				frame.pc += int(offset)
			}
		case bytecode.JUMP_IF_TRUE:
			offset := v.readShort(frame)
			if !isFalsey(v.peek(0)) {
				frame.pc += int(offset)
			}
		case bytecode.JUMP:
			offset := v.readShort(frame)
			frame.pc += int(offset)
		case bytecode.LOOP:
			offset := v.readShort(frame)
			frame.pc -= int(offset)

		case bytecode.CALL:
			argc := int(v.readByte(frame))
			v.callValue(v.peek(argc), argc)

		default:
			v.runtimeError(frame, "Unknown opcode %d", op)
		}
	}
}

func (v *VM) readByte(frame *CallFrame) byte {
	b := frame.fn.Chunk.Code[frame.pc]
	frame.pc++
	return b
}

func (v *VM) readShort(frame *CallFrame) uint16 {
	hi := frame.fn.Chunk.Code[frame.pc]
	lo := frame.fn.Chunk.Code[frame.pc+1]
	frame.pc += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (v *VM) popNumberPair(frame *CallFrame) (b, a float64) {
	if !v.peek(0).IsNumber() || !v.peek(1).IsNumber() {
		v.runtimeError(frame, "Operands must be numbers.")
	}
	bv, av := v.pop(), v.pop()
	return bv.AsNumber(), av.AsNumber()
}

// add implements spec.md §4.6's ADD: (string,string) concatenates and
// interns; (number,number) adds; anything else is a runtime error.
func (v *VM) add(frame *CallFrame) {
	b, a := v.peek(0), v.peek(1)
	switch {
	case a.IsString() && b.IsString():
		v.pop()
		v.pop()
		concatenated := a.AsString().Chars + b.AsString().Chars
		v.push(runtime.ObjVal(v.strings.TakeString(concatenated)))
	case a.IsNumber() && b.IsNumber():
		v.pop()
		v.pop()
		v.push(runtime.Number(a.AsNumber() + b.AsNumber()))
	default:
		v.runtimeError(frame, "Operands must be two numbers or strings.")
	}
}

// callValue dispatches OP_CALL based on the callee's runtime type, per
// spec.md §4.6's "Call dispatch".
func (v *VM) callValue(callee runtime.Value, argc int) {
	if !callee.IsObj() {
		v.runtimeErrorNoFrame("Can only call functions and classes.")
		return
	}
	switch obj := callee.AsObj().(type) {
	case *runtime.ObjFunction:
		v.callFunction(obj, argc)
	case *runtime.ObjNativeFn:
		args := v.stack[v.stackTop-argc : v.stackTop]
		result := obj.Fn(args)
		v.stackTop -= argc + 1
		v.push(result)
	default:
		v.runtimeErrorNoFrame("Can only call functions and classes.")
	}
}

func (v *VM) callFunction(fn *runtime.ObjFunction, argc int) {
	if argc != fn.Arity {
		v.runtimeErrorNoFrame("Expected %d arguments but got %d.", fn.Arity, argc)
		return
	}
	if len(v.frames) == v.cfg.FramesMax {
		v.runtimeErrorNoFrame("Call stack overflow.")
		return
	}
	v.frames = append(v.frames, CallFrame{
		fn:       fn,
		pc:       0,
		slotBase: v.stackTop - argc - 1,
	})
}

// runtimeError raises a *RuntimeError at the current frame's line, in
// the "<message>\n[line L] in script" form from spec.md §7.
func (v *VM) runtimeError(frame *CallFrame, format string, args ...any) {
	line := frame.fn.Chunk.Line(frame.pc - 1)
	panic(newRuntimeError(line, format, args...))
}

// runtimeErrorNoFrame is used from call dispatch, where the error
// belongs to the *calling* frame's current instruction rather than one
// already threaded through the switch.
func (v *VM) runtimeErrorNoFrame(format string, args ...any) {
	frame := &v.frames[len(v.frames)-1]
	v.runtimeError(frame, format, args...)
}

// Registry exposes the VM's object registry for diagnostics.
func (v *VM) Registry() *runtime.Registry { return v.registry }

// Globals exposes the globals table for the debug package's REPL
// introspection dump.
func (v *VM) Globals() *runtime.Table { return v.globals }

// Close releases every object in the VM's registry, modeling
// spec.md §5's "freed en masse at interpreter teardown" without a
// hand-rolled allocator.
func (v *VM) Close() {
	v.registry.Release()
}

// Uptime is used by the clock() native.
func (v *VM) Uptime() time.Duration {
	return time.Since(v.startedAt)
}
