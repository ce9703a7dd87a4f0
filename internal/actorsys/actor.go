package actorsys

import (
	"github.com/google/uuid"

	"plush/internal/value"
)

// Actor is one OS-thread-backed unit of execution: an id, a parent, a
// private mailbox, and (once its goroutine starts) the VM running its
// entry closure. RunLabel is a debug-only identity independent of the
// user-visible integer id, so a crash dump surviving an id's reuse after
// restart can still be told apart.
type Actor struct {
	ID       value.ActorID
	ParentID value.ActorID
	RunLabel uuid.UUID

	Mailbox *Mailbox

	done   chan struct{}
	result value.Value
	err    error
}

func newActor(id, parent value.ActorID) *Actor {
	return &Actor{
		ID:       id,
		ParentID: parent,
		RunLabel: uuid.New(),
		Mailbox:  NewMailbox(),
		done:     make(chan struct{}),
	}
}

// wait blocks until the actor's entry closure has returned (or faulted)
// and yields its result, deep-copied so the joining actor can't observe
// or corrupt state still live on the finished actor's own heap.
func (a *Actor) wait() (value.Value, error) {
	<-a.done
	if a.err != nil {
		return nil, a.err
	}
	return value.DeepCopy(a.result), nil
}

func (a *Actor) finish(result value.Value, err error) {
	a.result = result
	a.err = err
	close(a.done)
}
