// internal/repl/repl.go
package repl

import (
	"bufio"
	"fmt"
	"os"

	"plush/internal/actorsys"
	"plush/internal/compiler"
	"plush/internal/errors"
	"plush/internal/intrinsics"
	"plush/internal/lexer"
	"plush/internal/parser"
	"plush/internal/value"
	"plush/internal/vm"
)

// Start runs an interactive session: each line is compiled against the
// accumulated set of classes and top-level function names from earlier
// lines and executed on a single persistent VM, so `fun`/`class`
// declarations and global state survive across lines.
func Start() {
	fmt.Println("Plush REPL | type 'exit' to quit")

	cfg := intrinsics.DefaultConfig(nil)
	knownClasses := intrinsics.CoreClasses()
	knownNames := map[string]bool{}
	for name := range knownClasses {
		knownNames[name] = true
	}

	factory := intrinsics.NewFactory(cfg)
	sys, mainActor := actorsys.NewSystem(knownClasses, factory)
	machine := vm.New(knownClasses, factory(sys, mainActor))

	prompt := ">>> "
	if !intrinsics.IsInteractive(os.Stdin) {
		prompt = ""
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt)
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}

		program, err := compileLine(line, knownClasses, knownNames)
		if err != nil {
			fmt.Fprintln(os.Stderr, renderFault(err))
			continue
		}
		for name := range program.Classes {
			knownClasses[name] = program.Classes[name]
			knownNames[name] = true
		}
		result, err := machine.Run(program.Script)
		if err != nil {
			fmt.Fprintln(os.Stderr, renderFault(err))
			continue
		}
		if result != nil {
			fmt.Println(value.Inspect(result))
		}
	}
}

func compileLine(line string, knownClasses map[string]*value.Class, knownNames map[string]bool) (*compiler.Program, error) {
	sc := lexer.NewScanner(line)
	tokens := sc.ScanTokens()
	if lexErr := sc.Err(); lexErr != nil {
		return nil, errors.NewLexFault(lexErr.Message, "<repl>", lexErr.Line, lexErr.Column)
	}
	p := parser.NewParserWithSource(tokens, line, "<repl>")
	stmts, err := p.Parse()
	if err != nil {
		return nil, err
	}
	program, err := compiler.CompileIncremental(stmts, "<repl>", knownClasses, knownNames)
	if err != nil {
		return nil, err
	}
	for _, s := range stmts {
		if fn, ok := s.(*parser.FunctionStmt); ok {
			knownNames[fn.Name] = true
		}
	}
	return program, nil
}

func renderFault(err error) string {
	if f, ok := err.(*errors.PlushFault); ok {
		return f.Error()
	}
	return err.Error()
}
