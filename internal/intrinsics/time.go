package intrinsics

import (
	"time"

	"github.com/dustin/go-humanize"

	"plush/internal/errors"
	"plush/internal/value"
	"plush/internal/vm"
)

func registerTime(hosts map[string]vm.HostFunc) {
	hosts["time_current_ms"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, errors.NewHostFault("time_current_ms takes no arguments")
		}
		return time.Now().UnixMilli(), nil
	}
	// time_since is not named by the core intrinsic table; it's a
	// convenience wrapper for scripts that want a human phrase instead of
	// a raw millisecond delta.
	hosts["time_since"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewHostFault("time_since expects 1 argument")
		}
		startMs, ok := args[0].(int64)
		if !ok {
			return nil, errors.NewHostFault("time_since requires an integer millisecond timestamp")
		}
		elapsed := time.Duration(time.Now().UnixMilli()-startMs) * time.Millisecond
		return humanize.Time(time.Now().Add(-elapsed)), nil
	}
}
