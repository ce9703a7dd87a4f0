package intrinsics

import (
	"time"

	"plush/internal/actorsys"
	"plush/internal/errors"
	"plush/internal/value"
	"plush/internal/vm"
)

func registerActor(hosts map[string]vm.HostFunc, sys *actorsys.System, self *actorsys.Actor) {
	hosts["actor_id"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, errors.NewHostFault("actor_id takes no arguments")
		}
		return self.ID, nil
	}
	hosts["actor_parent"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, errors.NewHostFault("actor_parent takes no arguments")
		}
		return self.ParentID, nil
	}
	hosts["actor_spawn"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewHostFault("actor_spawn expects 1 argument")
		}
		id, err := sys.Spawn(self, args[0])
		if err != nil {
			return nil, err
		}
		return id, nil
	}
	hosts["actor_send"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, errors.NewHostFault("actor_send expects 2 arguments")
		}
		var id value.ActorID
		switch target := args[0].(type) {
		case value.ActorID:
			id = target
		case int64:
			id = value.ActorID(target)
		default:
			return nil, errors.NewHostFault("actor_send requires an actor id")
		}
		return nil, sys.Send(id, args[1])
	}
	hosts["actor_recv"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, errors.NewHostFault("actor_recv takes no arguments")
		}
		return sys.Recv(self), nil
	}
	hosts["actor_poll"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 0 {
			return nil, errors.NewHostFault("actor_poll takes no arguments")
		}
		v, ok := sys.Poll(self)
		if !ok {
			return nil, nil
		}
		return v, nil
	}
	hosts["actor_sleep"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewHostFault("actor_sleep expects 1 argument")
		}
		ms, ok := args[0].(int64)
		if !ok {
			return nil, errors.NewHostFault("actor_sleep requires an integer millisecond duration")
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
		return nil, nil
	}
	hosts["actor_join"] = func(args []value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, errors.NewHostFault("actor_join expects 1 argument")
		}
		id, ok := args[0].(value.ActorID)
		if !ok {
			return nil, errors.NewHostFault("actor_join requires an actor id")
		}
		return sys.Join(id)
	}
}
