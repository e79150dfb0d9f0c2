// Command volt is the REPL and file-execution front end for the
// language, per spec.md §6's "External Interfaces": `volt` with no
// arguments starts a prompt, `volt <script>` runs a file, and the
// process exit code follows the Result mapping (0/65/71/74).
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/enix403/volt/debug"
	"github.com/enix403/volt/internal/config"
	"github.com/enix403/volt/vm"
)

func main() {
	trace := flag.Bool("trace", false, "enable per-instruction disassembly and debug logging")
	noNatives := flag.Bool("no-natives", false, "disable registration of clock()/input_num()")
	dumpGlobals := flag.Bool("dump-globals", false, "print globals after each REPL line")
	flag.Parse()

	cfg := config.Load()
	if *trace {
		cfg.DebugTrace = true
	}
	if *noNatives {
		cfg.EnableNatives = false
	}

	args := flag.Args()
	switch len(args) {
	case 0:
		runREPL(cfg, *dumpGlobals)
	case 1:
		os.Exit(runFile(cfg, args[0]))
	default:
		fmt.Fprintln(os.Stderr, "Usage: volt [script]")
		os.Exit(64)
	}
}

func runFile(cfg config.Config, path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "can't open %q: %s\n", path, err)
		return 74
	}

	machine := vm.New(cfg, os.Stdout, os.Stderr, os.Stdin)
	defer machine.Close()
	return machine.Interpret(string(source)).ExitCode()
}

func runREPL(cfg config.Config, dumpGlobals bool) {
	machine := vm.New(cfg, os.Stdout, os.Stderr, os.Stdin)
	defer machine.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stdout, ">> ")
		if !scanner.Scan() {
			fmt.Fprintln(os.Stdout)
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		machine.Interpret(line)
		if dumpGlobals {
			debug.DumpGlobals(os.Stdout, machine.Globals())
		}
	}
}
