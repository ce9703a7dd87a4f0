package actorsys_test

import (
	"testing"

	"plush/internal/actorsys"
	"plush/internal/compiler"
	"plush/internal/intrinsics"
	"plush/internal/lexer"
	"plush/internal/parser"
	"plush/internal/value"
	"plush/internal/vm"
)

// runScript compiles a program, wires a fresh actor system and host table
// for it, and runs it as the main actor to completion.
func runScript(t *testing.T, src string) value.Value {
	t.Helper()
	sc := lexer.NewScanner(src)
	tokens := sc.ScanTokens()
	if err := sc.Err(); err != nil {
		t.Fatalf("lex error: %v", err)
	}
	p := parser.NewParser(tokens)
	stmts, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	program, err := compiler.CompileProgram(stmts, "<test>", intrinsics.CoreClasses())
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}

	cfg := intrinsics.DefaultConfig(nil)
	factory := intrinsics.NewFactory(cfg)
	sys, mainActor := actorsys.NewSystem(program.Classes, factory)
	machine := vm.New(program.Classes, factory(sys, mainActor))

	result, err := machine.Run(program.Script)
	if err != nil {
		t.Fatalf("run error: %v", err)
	}
	return result
}

// TestActorSpawnSendRecvJoin mirrors a ping-pong handoff: the main actor
// spawns a worker closure that replies by sending its doubled argument
// back to actor 0, then the main actor receives it and joins the worker.
func TestActorSpawnSendRecvJoin(t *testing.T) {
	got := runScript(t, `
		fun worker() {
			let n = $actor_recv()
			$actor_send(0, n * 2)
		}
		let id = $actor_spawn(worker)
		$actor_send(id, 21)
		let r = $actor_recv()
		$actor_join(id)
		return r
	`)
	if got.(int64) != 42 {
		t.Fatalf("got %v, want 42", got)
	}
}

func TestActorJoinReturnsSpawnedResult(t *testing.T) {
	got := runScript(t, `
		fun worker() {
			return 7 + 8
		}
		let id = $actor_spawn(worker)
		return $actor_join(id)
	`)
	if got.(int64) != 15 {
		t.Fatalf("got %v, want 15", got)
	}
}

func TestActorIdAndParent(t *testing.T) {
	got := runScript(t, `return $actor_id()`)
	if got.(value.ActorID) != value.ActorID(0) {
		t.Fatalf("main actor id: got %v, want 0", got)
	}
	parent := runScript(t, `return $actor_parent()`)
	if parent.(value.ActorID) != value.ActorID(0) {
		t.Fatalf("main actor parent: got %v, want 0", parent)
	}
}

// TestMessagesAreDeepCopiedAcrossActors exercises spec's message-isolation
// invariant: the array a worker receives must not alias the sender's own
// array, so mutating one side after the send is invisible to the other.
func TestMessagesAreDeepCopiedAcrossActors(t *testing.T) {
	got := runScript(t, `
		fun worker() {
			let arr = $actor_recv()
			arr[0] = 999
			$actor_send(0, arr[0])
		}
		let shared = [1, 2, 3]
		let id = $actor_spawn(worker)
		$actor_send(id, shared)
		let reply = $actor_recv()
		return shared[0] == 1 && reply == 999
	`)
	if got.(bool) != true {
		t.Fatalf("expected sender's array to be unaffected by the worker's mutation, got %v", got)
	}
}

// TestSpawnedClosureDoesNotShareUpvalueWithParent exercises spec's
// "spawn deep-copies the entry closure" invariant: a closure captured by
// $actor_spawn must not keep mutating the parent's own live upvalue cell.
// Without the deep copy, the child runs on its own VM but reads/writes the
// exact same *value.Upvalue the parent's own closure still holds open.
func TestSpawnedClosureDoesNotShareUpvalueWithParent(t *testing.T) {
	got := runScript(t, `
		var counter = 0
		let bump = fun() {
			counter = counter + 1
			return counter
		}
		let id = $actor_spawn(bump)
		$actor_join(id)
		return counter
	`)
	if got.(int64) != 0 {
		t.Fatalf("expected the parent's own counter to be untouched by the spawned closure's mutation, got %v", got)
	}
}
