// Package intrinsics implements the host intrinsic registry: the fixed set
// of `$name(...)`-callable functions the VM's CALL_HOST opcode dispatches
// to, covering console I/O, time, process control, and the actor runtime.
package intrinsics

import (
	"io"
	"os"

	"plush/internal/actorsys"
	"plush/internal/value"
	"plush/internal/vm"
)

// Config carries the process-level inputs every actor's host table needs:
// the program's own argument vector and the console streams.
type Config struct {
	Args   []string
	Stdout io.Writer
	Stdin  io.Reader
}

// DefaultConfig builds a Config wired to the real process argv/stdio.
func DefaultConfig(args []string) Config {
	return Config{Args: args, Stdout: os.Stdout, Stdin: os.Stdin}
}

// CoreClasses returns the classes the host environment itself registers,
// independent of any user `class` declaration.
func CoreClasses() map[string]*value.Class {
	return map[string]*value.Class{
		"UIEvent": UIEventClass(),
	}
}

// NewFactory builds an actorsys.HostFactory: given a system and the actor
// being started, it returns the complete host function table that actor's
// VM runs with.
func NewFactory(cfg Config) actorsys.HostFactory {
	return func(sys *actorsys.System, self *actorsys.Actor) map[string]vm.HostFunc {
		hosts := make(map[string]vm.HostFunc)
		registerConsole(hosts, cfg)
		registerTime(hosts)
		registerProcess(hosts, cfg)
		registerActor(hosts, sys, self)
		registerWindow(hosts)
		return hosts
	}
}
