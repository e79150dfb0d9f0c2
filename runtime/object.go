package runtime

import "fmt"

// Obj is the interface every heap-allocated value implements. The VM
// keeps interned strings and native function wrappers on a single
// registry (Registry) so teardown can release them all at once;
// compiled ObjFunctions are not registered. There is no garbage
// collector, see
// spec.md §3 "Lifecycle" and §9's GC design note.
type Obj interface {
	String() string
	objMarker()
}

// Registry owns the heap objects registered with it during a VM's
// lifetime: interned strings and native function wrappers. Functions
// built by NewFunction are not registered. It plays the role of the C original's intrusive `Obj.next` linked
// list, but as an idiomatic Go slice of interfaces: the object-list
// head/next-link is a memory-layout concern the original needed
// because it manually managed allocation; here the registry is simply
// an owning collection that is dropped (and, with it, every Obj) when
// the VM is discarded.
type Registry struct {
	objects []Obj
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) track(o Obj) {
	r.objects = append(r.objects, o)
}

// Track registers a heap object allocated outside the intern table
// (e.g. a native function wrapper) so Release still reclaims it.
func (r *Registry) Track(o Obj) {
	r.track(o)
}

// Count reports how many heap objects are currently tracked. Exposed
// for diagnostics and tests.
func (r *Registry) Count() int {
	return len(r.objects)
}

// Release drops every tracked object. Go's own GC reclaims the memory;
// this models the "freed en masse at interpreter teardown" contract
// from spec.md §1/§5 without hand-rolled free().
func (r *Registry) Release() {
	r.objects = nil
}

// ObjString is an interned, immutable string. Identity invariant: two
// *ObjString values are equal iff they are the same pointer — see
// spec.md §3. The hash is precomputed once at allocation.
type ObjString struct {
	Chars string
	Hash  uint32
}

func (s *ObjString) String() string { return s.Chars }
func (*ObjString) objMarker()       {}

// ObjFunction is a compiled function: an arity, its own Chunk, and an
// optional name (itself an interned ObjString). The top-level script is
// represented as a nameless function with arity 0, per spec.md §3.
type ObjFunction struct {
	Arity int
	Chunk *Chunk
	Name  *ObjString // nil for the top-level script
}

func NewFunction() *ObjFunction {
	return &ObjFunction{Chunk: NewChunk()}
}

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<fn %s>", f.Name.Chars)
}
func (*ObjFunction) objMarker() {}

// NativeFn is the Go function signature a native callable wraps:
// argc/args in, a single Value out, matching spec.md §4.6's native
// function interface.
type NativeFn func(args []Value) Value

// ObjNativeFn wraps a Go function so it can live in a Value and be
// dispatched by OP_CALL exactly like an ObjFunction.
type ObjNativeFn struct {
	Name string
	Fn   NativeFn
}

func (n *ObjNativeFn) String() string { return fmt.Sprintf("<native fn %s>", n.Name) }
func (*ObjNativeFn) objMarker()       {}
