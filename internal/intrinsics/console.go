package intrinsics

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"plush/internal/errors"
	"plush/internal/value"
	"plush/internal/vm"
)

// IsInteractive reports whether f is attached to a terminal. The REPL uses
// this to decide whether to print a prompt; the console intrinsics
// themselves behave identically either way.
func IsInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func registerConsole(hosts map[string]vm.HostFunc, cfg Config) {
	out := cfg.Stdout
	reader := bufio.NewReader(cfg.Stdin)

	hosts["print"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewHostFault("print expects 1 argument")
		}
		fmt.Fprint(out, value.Inspect(args[0]))
		return nil, nil
	}
	hosts["println"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewHostFault("println expects 1 argument")
		}
		fmt.Fprintln(out, value.Inspect(args[0]))
		return nil, nil
	}
	hosts["print_i64"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewHostFault("print_i64 expects 1 argument")
		}
		i, ok := args[0].(int64)
		if !ok {
			return nil, errors.NewHostFault("print_i64 requires an integer argument")
		}
		fmt.Fprint(out, i)
		return nil, nil
	}
	hosts["print_endl"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, errors.NewHostFault("print_endl takes no arguments")
		}
		fmt.Fprintln(out)
		return nil, nil
	}
	hosts["readln"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, errors.NewHostFault("readln takes no arguments")
		}
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return nil, nil
			}
			return nil, errors.NewHostFault(fmt.Sprintf("readln: %v", err))
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}
