// Package runtime holds the value and object model shared by the
// compiler's constant pool and the interpreter: the tagged Value union,
// heap objects (strings, functions, natives), the open-addressed hash
// table used for both globals and string interning, and the Chunk
// bytecode container — spec.md §3, §4.1-§4.3. The interpreter loop
// itself lives in package vm, which imports this package.
package runtime

import (
	"fmt"
	"math"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind byte

const (
	KindNil ValueKind = iota
	KindBool
	KindNumber
	KindObj
)

// Value is the tagged union every stack slot, constant, and global holds.
// It is a small value type (no pointer indirection for Nil/Bool/Number)
// so pushing and popping the operand stack never allocates.
type Value struct {
	kind ValueKind
	num  float64
	b    bool
	obj  Obj
}

var Nil = Value{kind: KindNil}

func Bool(b bool) Value    { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func ObjVal(o Obj) Value    { return Value{kind: KindObj, obj: o} }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsObj() bool    { return v.kind == KindObj }

func (v Value) AsBool() bool    { return v.b }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObj() Obj     { return v.obj }

// IsString reports whether v holds a *ObjString.
func (v Value) IsString() bool {
	_, ok := v.obj.(*ObjString)
	return v.kind == KindObj && ok
}

func (v Value) AsString() *ObjString {
	return v.obj.(*ObjString)
}

// IsFalsey implements spec.md's truthiness rule: only Nil and Bool(false)
// are falsey. Everything else — including 0 and the empty string — is
// truthy.
func (v Value) IsFalsey() bool {
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return !v.b
	default:
		return false
	}
}

// Equal implements structural equality with strings compared by
// reference, per the interning identity invariant in spec.md §3.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindObj:
		if as, ok := a.obj.(*ObjString); ok {
			bs, ok2 := b.obj.(*ObjString)
			return ok2 && as == bs
		}
		return a.obj == b.obj
	}
	return false
}

// String renders a Value the way `print` does.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.num)
	case KindObj:
		return v.obj.String()
	}
	return "<invalid value>"
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// TypeName is used in runtime error messages.
func (v Value) TypeName() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindObj:
		return fmt.Sprintf("%T", v.obj)
	}
	return "unknown"
}
