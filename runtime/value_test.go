package runtime

import "testing"

func TestIsFalsey(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Nil, true},
		{Bool(false), true},
		{Bool(true), false},
		{Number(0), false},
		{Number(1), false},
	}
	for _, c := range cases {
		if got := c.v.IsFalsey(); got != c.want {
			t.Errorf("IsFalsey(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestEqualStringsByIdentity(t *testing.T) {
	registry := NewRegistry()
	strings := NewStrings(registry)

	a := ObjVal(strings.CopyString("same"))
	b := ObjVal(strings.CopyString("same"))
	if !Equal(a, b) {
		t.Fatalf("interned equal-content strings must compare Equal")
	}

	c := ObjVal(&ObjString{Chars: "same"})
	if Equal(a, c) {
		t.Fatalf("a non-interned ObjString with equal content but different identity must not compare Equal")
	}
}

func TestEqualAcrossKinds(t *testing.T) {
	if Equal(Nil, Bool(false)) {
		t.Fatalf("Nil must not equal Bool(false)")
	}
	if Equal(Number(0), Bool(false)) {
		t.Fatalf("Number(0) must not equal Bool(false)")
	}
}

func TestStringFormatting(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Nil, "nil"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Number(3), "3"},
		{Number(3.5), "3.5"},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}
