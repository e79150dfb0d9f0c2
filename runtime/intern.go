package runtime

// Strings is the canonicalizing string pool described in spec.md §4.3.
// Every ObjString that ever reaches a Value goes through CopyString or
// TakeString first, so two equal strings are always the same pointer —
// the "Identity invariant" from §3 that lets the VM compare strings by
// reference everywhere except here.
type Strings struct {
	interned *Table
	registry *Registry
}

func NewStrings(registry *Registry) *Strings {
	return &Strings{interned: NewTable(), registry: registry}
}

// fnv1a32 is the exact hash spec.md §4.3 and testable property #2 pin:
// the 32-bit Fowler-Noll-Vo 1a variant, offset basis 2166136261,
// prime 16777619 — ported byte for byte from
// original_source/src/volt/code/object.c's hash_string.
func fnv1a32(s string) uint32 {
	var hash uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}

// CopyString interns s, copying it if it is not already canonical.
// Use this when the caller does not already own a fresh buffer (e.g.
// the compiler interning a string literal's lexeme).
func (s *Strings) CopyString(chars string) *ObjString {
	hash := fnv1a32(chars)
	if existing := s.interned.findString(chars, hash); existing != nil {
		return existing
	}
	return s.allocate(chars, hash)
}

// TakeString interns chars without copying: the caller is handing over
// a value it has already built (string concatenation's result) and
// does not need a second copy if an equal intern already exists — in
// Go this just means the freshly-built string is discarded in favor of
// the canonical one, letting the GC reclaim it.
func (s *Strings) TakeString(chars string) *ObjString {
	hash := fnv1a32(chars)
	if existing := s.interned.findString(chars, hash); existing != nil {
		return existing
	}
	return s.allocate(chars, hash)
}

func (s *Strings) allocate(chars string, hash uint32) *ObjString {
	obj := &ObjString{Chars: chars, Hash: hash}
	s.registry.track(obj)
	// The interning table is used as a set: the key is the canonical
	// entry, the value is unused (Nil), matching spec.md §4.3.
	s.interned.Set(obj, Nil)
	return obj
}

// Size reports how many distinct strings are currently interned, for
// diagnostics and tests.
func (s *Strings) Size() int {
	return s.interned.Count()
}
