package intrinsics

import (
	"os"

	"plush/internal/errors"
	"plush/internal/value"
	"plush/internal/vm"
)

func registerProcess(hosts map[string]vm.HostFunc, cfg Config) {
	hosts["exit"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewHostFault("exit expects 1 argument")
		}
		code, ok := args[0].(int64)
		if !ok {
			return nil, errors.NewHostFault("exit requires an integer exit code")
		}
		os.Exit(int(code))
		return nil, nil
	}
	hosts["cmd_num_args"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, errors.NewHostFault("cmd_num_args takes no arguments")
		}
		return int64(len(cfg.Args)), nil
	}
	hosts["cmd_get_arg"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewHostFault("cmd_get_arg expects 1 argument")
		}
		i, ok := args[0].(int64)
		if !ok {
			return nil, errors.NewHostFault("cmd_get_arg requires an integer index")
		}
		if i < 0 || int(i) >= len(cfg.Args) {
			return nil, nil
		}
		return cfg.Args[int(i)], nil
	}
}
