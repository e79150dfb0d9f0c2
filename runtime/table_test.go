package runtime

import "testing"

func makeKey(s *Strings, chars string) *ObjString {
	return s.CopyString(chars)
}

func TestTableSetGetDelete(t *testing.T) {
	registry := NewRegistry()
	strings := NewStrings(registry)
	table := NewTable()

	key := makeKey(strings, "answer")
	if isNew := table.Set(key, Number(42)); !isNew {
		t.Fatalf("Set on a fresh key should report isNewKey=true")
	}

	val, ok := table.Get(key)
	if !ok || val.AsNumber() != 42 {
		t.Fatalf("Get(%q) = (%v, %v), want (42, true)", key.Chars, val, ok)
	}

	if isNew := table.Set(key, Number(43)); isNew {
		t.Fatalf("Set on an existing key should report isNewKey=false")
	}
	val, _ = table.Get(key)
	if val.AsNumber() != 43 {
		t.Fatalf("overwrite did not take effect: got %v", val)
	}

	if !table.Delete(key) {
		t.Fatalf("Delete on a present key should succeed")
	}
	if _, ok := table.Get(key); ok {
		t.Fatalf("Get after Delete should miss")
	}
}

func TestTableLoadFactorNeverExceedsThreeQuarters(t *testing.T) {
	registry := NewRegistry()
	strings := NewStrings(registry)
	table := NewTable()

	for i := 0; i < 200; i++ {
		key := makeKey(strings, string(rune('a'+i%26))+string(rune(i)))
		table.Set(key, Number(float64(i)))
		if table.Capacity() > 0 && float64(table.Count())/float64(table.Capacity()) > tableMaxLoad {
			t.Fatalf("load factor exceeded %v at count=%d capacity=%d", tableMaxLoad, table.Count(), table.Capacity())
		}
	}
}

func TestTableDeleteKeepsCountAndLaterInsertIsFound(t *testing.T) {
	registry := NewRegistry()
	strings := NewStrings(registry)
	table := NewTable()

	a := makeKey(strings, "a")
	b := makeKey(strings, "b")
	table.Set(a, Bool(true))
	table.Set(b, Bool(true))
	countBefore := table.Count()

	table.Delete(a)
	if table.Count() != countBefore {
		t.Fatalf("count must not decrease on delete: before=%d after=%d", countBefore, table.Count())
	}

	c := makeKey(strings, "c")
	table.Set(c, Bool(true))
	if _, ok := table.Get(c); !ok {
		t.Fatalf("insert after a tombstone should still be found")
	}
}

func TestTableEachVisitsEveryLiveEntry(t *testing.T) {
	registry := NewRegistry()
	strings := NewStrings(registry)
	table := NewTable()

	names := []string{"x", "y", "z"}
	for i, n := range names {
		table.Set(makeKey(strings, n), Number(float64(i)))
	}
	table.Delete(makeKey(strings, "y"))

	seen := map[string]bool{}
	table.Each(func(key *ObjString, value Value) {
		seen[key.Chars] = true
	})
	if seen["y"] {
		t.Fatalf("Each must not yield a deleted (tombstoned) key")
	}
	if !seen["x"] || !seen["z"] {
		t.Fatalf("Each must yield every live key, got %v", seen)
	}
}
