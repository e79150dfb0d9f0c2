package runtime

import "testing"

func TestCopyStringInterns(t *testing.T) {
	registry := NewRegistry()
	strings := NewStrings(registry)

	a := strings.CopyString("hello")
	b := strings.CopyString("hello")
	if a != b {
		t.Fatalf("two CopyString calls with equal content must return the same *ObjString")
	}
	if strings.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", strings.Size())
	}
}

func TestTakeStringDedupesAgainstCopyString(t *testing.T) {
	registry := NewRegistry()
	strings := NewStrings(registry)

	a := strings.CopyString("concat")
	b := strings.TakeString("concat")
	if a != b {
		t.Fatalf("TakeString must return the existing interned pointer for equal content")
	}
	if strings.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", strings.Size())
	}
}

func TestDistinctStringsAreNotEqual(t *testing.T) {
	registry := NewRegistry()
	strings := NewStrings(registry)

	a := strings.CopyString("foo")
	b := strings.CopyString("bar")
	if a == b {
		t.Fatalf("distinct content must not be interned to the same pointer")
	}
	if strings.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", strings.Size())
	}
}

func TestFNV1aMatchesKnownBasis(t *testing.T) {
	// Pinned by original_source/src/volt/code/object.c: the empty
	// string hashes to the raw offset basis.
	if got := fnv1a32(""); got != 2166136261 {
		t.Fatalf("fnv1a32(\"\") = %d, want 2166136261", got)
	}
}
