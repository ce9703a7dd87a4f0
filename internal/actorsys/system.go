// Package actorsys implements Plush's actor runtime: one real OS thread
// per actor (no green-thread scheduler, no GIL), mailboxes as
// mutex/condvar FIFO queues, and deep-copy-at-the-boundary message
// passing so no two actors ever alias the same mutable heap value.
package actorsys

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"plush/internal/errors"
	"plush/internal/value"
	"plush/internal/vm"
)

// maxConcurrentThreads bounds how many actor goroutines may be holding an
// OS thread (via runtime.LockOSThread) at once. This throttles thread
// creation only — it is not the mailbox backpressure the spec says the
// core does not have by default; sends never block on it.
const maxConcurrentThreads = 4096

// HostFactory builds the host intrinsic table a newly spawned actor's VM
// should run with, given the system and the actor it belongs to.
type HostFactory func(sys *System, a *Actor) map[string]vm.HostFunc

// System owns every live actor and the shared, read-only program state
// (classes) every actor's VM is constructed with.
type System struct {
	mu      sync.Mutex
	actors  map[value.ActorID]*Actor
	nextID  int64
	classes map[string]*value.Class
	hosts   HostFactory
	sem     *semaphore.Weighted
}

// NewSystem creates a system with actor 0 pre-registered as the "main"
// actor — the one running the top-level script — so other actors can
// $actor_send(0, ...) to it from the start.
func NewSystem(classes map[string]*value.Class, hosts HostFactory) (*System, *Actor) {
	sys := &System{
		actors:  make(map[value.ActorID]*Actor),
		classes: classes,
		hosts:   hosts,
		sem:     semaphore.NewWeighted(maxConcurrentThreads),
	}
	main := newActor(0, 0)
	sys.actors[0] = main
	sys.nextID = 1
	return sys, main
}

func (sys *System) lookup(id value.ActorID) (*Actor, bool) {
	sys.mu.Lock()
	defer sys.mu.Unlock()
	a, ok := sys.actors[id]
	return a, ok
}

// Spawn starts a new actor running entry (a closure or bound method, no
// arguments) on its own OS thread and returns its id immediately; the
// actor runs concurrently with the spawner.
func (sys *System) Spawn(parent *Actor, entry value.Value) (value.ActorID, error) {
	switch entry.(type) {
	case *value.Closure, *value.BoundMethod:
	default:
		return 0, errors.NewActorFault("actor_spawn requires a callable with no arguments")
	}
	entry = value.DeepCopy(entry)

	sys.mu.Lock()
	id := value.ActorID(sys.nextID)
	sys.nextID++
	a := newActor(id, parent.ID)
	sys.actors[id] = a
	sys.mu.Unlock()

	if err := sys.sem.Acquire(context.Background(), 1); err != nil {
		return 0, errors.NewActorFault("failed to acquire an OS thread slot for the new actor")
	}

	go func() {
		defer sys.sem.Release(1)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hostFuncs := sys.hosts(sys, a)
		actorVM := vm.New(sys.classes, hostFuncs)
		result, err := actorVM.Call(entry, nil)
		a.finish(result, err)
	}()

	return id, nil
}

// Send deep-copies v and enqueues it on the target actor's mailbox.
func (sys *System) Send(target value.ActorID, v value.Value) error {
	a, ok := sys.lookup(target)
	if !ok {
		return errors.NewActorFault("send to unknown actor")
	}
	a.Mailbox.Send(value.DeepCopy(v))
	return nil
}

// Recv blocks the calling actor until a message arrives in its own mailbox.
func (sys *System) Recv(self *Actor) value.Value {
	return self.Mailbox.Recv().(value.Value)
}

// Poll returns the next message for self without blocking.
func (sys *System) Poll(self *Actor) (value.Value, bool) {
	v, ok := self.Mailbox.Poll()
	if !ok {
		return nil, false
	}
	return v.(value.Value), true
}

// Join blocks until the target actor's entry closure returns, yielding its
// (deep-copied) result.
func (sys *System) Join(target value.ActorID) (value.Value, error) {
	a, ok := sys.lookup(target)
	if !ok {
		return nil, errors.NewActorFault("join on unknown actor")
	}
	return a.wait()
}
