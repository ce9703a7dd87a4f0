// cmd/plush/main.go
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"plush/internal/actorsys"
	"plush/internal/compiler"
	"plush/internal/errors"
	"plush/internal/intrinsics"
	"plush/internal/lexer"
	"plush/internal/parser"
	"plush/internal/repl"
	"plush/internal/vm"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		os.Exit(1)
	}

	errLog := log.New(os.Stderr, "", 0)

	switch args[0] {
	case "--version", "-v":
		fmt.Println("plush", version)
	case "--help", "-h":
		showUsage()
	case "repl":
		repl.Start()
	case "--no-exec":
		if len(args) < 2 {
			errLog.Fatal("usage: plush --no-exec <path>")
		}
		if err := checkOnly(args[1]); err != nil {
			errLog.Fatal(renderFault(err))
		}
	case "--eval":
		if len(args) < 2 {
			errLog.Fatal("usage: plush --eval <source>")
		}
		if err := runSource(args[1], "<eval>", args[2:]); err != nil {
			errLog.Fatal(renderFault(err))
		}
	default:
		if len(args[0]) > 0 && args[0][0] == '-' {
			errLog.Fatalf("unknown flag: %s", args[0])
		}
		src, err := os.ReadFile(args[0])
		if err != nil {
			errLog.Fatalf("reading %s: %v", args[0], err)
		}
		if err := runSource(string(src), args[0], args[1:]); err != nil {
			errLog.Fatal(renderFault(err))
		}
	}
}

func showUsage() {
	fmt.Println(`plush - a small actor-based scripting language

Usage:
  plush <path>                 run a file
  plush --no-exec <path>       parse and compile only, report errors
  plush --eval <source>        run a literal program string
  plush --version              print the version
  plush repl                   start an interactive session`)
}

func renderFault(err error) string {
	if f, ok := err.(*errors.PlushFault); ok {
		return f.Error()
	}
	return err.Error()
}

func checkOnly(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = compileSource(string(src), path)
	return err
}

func compileSource(src, fileName string) (*compiler.Program, error) {
	sc := lexer.NewScanner(src)
	tokens := sc.ScanTokens()
	if lexErr := sc.Err(); lexErr != nil {
		return nil, errors.NewLexFault(lexErr.Message, fileName, lexErr.Line, lexErr.Column)
	}
	p := parser.NewParserWithSource(tokens, src, fileName)
	stmts, err := p.Parse()
	if err != nil {
		return nil, err
	}
	return compiler.CompileProgram(stmts, fileName, intrinsics.CoreClasses())
}

func runSource(src, fileName string, scriptArgs []string) error {
	program, err := compileSource(src, fileName)
	if err != nil {
		return err
	}

	cfg := intrinsics.DefaultConfig(scriptArgs)
	factory := intrinsics.NewFactory(cfg)
	sys, mainActor := actorsys.NewSystem(program.Classes, factory)
	machine := vm.New(program.Classes, factory(sys, mainActor))

	start := time.Now()
	_, runErr := machine.Run(program.Script)
	elapsed := time.Since(start)
	if runErr != nil {
		return runErr
	}
	fmt.Fprintf(os.Stderr, "ran in %s (%s)\n", elapsed, humanize.Time(start))
	return nil
}
