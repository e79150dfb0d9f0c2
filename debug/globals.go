package debug

import (
	"fmt"
	"io"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/enix403/volt/runtime"
)

// DumpGlobals prints every global variable currently defined, sorted by
// name for deterministic REPL output — the same maps.Keys + slices.Sort
// idiom SnellerInc-sneller's plan/pir package uses to get a stable
// iteration order out of a Go map.
func DumpGlobals(w io.Writer, globals *runtime.Table) {
	names := make(map[string]runtime.Value, globals.Count())
	globals.Each(func(key *runtime.ObjString, value runtime.Value) {
		names[key.Chars] = value
	})

	keys := maps.Keys(names)
	slices.Sort(keys)

	for _, name := range keys {
		fmt.Fprintf(w, "%s = %s\n", name, names[name].String())
	}
}
