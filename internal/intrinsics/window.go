package intrinsics

import (
	"plush/internal/errors"
	"plush/internal/value"
	"plush/internal/vm"
)

// UIEventClass is the one piece of the windowing collaborator the core
// itself owns: a registered class so `instanceof UIEvent` resolves even
// though no windowing backend is linked into this build. The windowing
// host, when present, populates instances of it with `kind`/`key`/`x`/`y`
// fields and delivers them into the owning actor's mailbox.
func UIEventClass() *value.Class {
	return &value.Class{Name: "UIEvent", Methods: map[string]*value.Closure{}}
}

// registerWindow wires window_create/window_draw_frame with the correct
// arity so calling code compiles and faults cleanly; the actual SDL-like
// backend is an external collaborator not built here (spec explicitly
// scopes it out of the core).
func registerWindow(hosts map[string]vm.HostFunc) {
	hosts["window_create"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 4 {
			return nil, errors.NewHostFault("window_create expects 4 arguments")
		}
		return nil, errors.NewHostFault("no windowing backend is linked into this build")
	}
	hosts["window_draw_frame"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, errors.NewHostFault("window_draw_frame expects 2 arguments")
		}
		return nil, errors.NewHostFault("no windowing backend is linked into this build")
	}
}
