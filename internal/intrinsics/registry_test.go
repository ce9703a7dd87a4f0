package intrinsics

import (
	"bytes"
	"strings"
	"testing"

	"plush/internal/value"
	"plush/internal/vm"
)

func TestRegisterConsolePrintAndReadln(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{Stdout: &out, Stdin: strings.NewReader("hello world\n")}
	table := map[string]vm.HostFunc{}
	registerConsole(table, cfg)

	if _, err := table["println"]([]value.Value{"hi"}); err != nil {
		t.Fatalf("println: unexpected error: %v", err)
	}
	if out.String() != "hi\n" {
		t.Errorf("got %q, want %q", out.String(), "hi\n")
	}

	line, err := table["readln"](nil)
	if err != nil {
		t.Fatalf("readln: unexpected error: %v", err)
	}
	if line.(string) != "hello world" {
		t.Errorf("got %q, want %q", line, "hello world")
	}
}

func TestRegisterConsoleWrongArityFaults(t *testing.T) {
	var out bytes.Buffer
	cfg := Config{Stdout: &out, Stdin: strings.NewReader("")}
	table := map[string]vm.HostFunc{}
	registerConsole(table, cfg)

	if _, err := table["print"](nil); err == nil {
		t.Fatal("expected a host fault calling print with no arguments")
	}
}

func TestRegisterProcessCmdArgs(t *testing.T) {
	cfg := Config{Args: []string{"a", "b", "c"}}
	table := map[string]vm.HostFunc{}
	registerProcess(table, cfg)

	n, err := table["cmd_num_args"](nil)
	if err != nil {
		t.Fatalf("cmd_num_args: unexpected error: %v", err)
	}
	if n.(int64) != 3 {
		t.Errorf("got %v, want 3", n)
	}

	arg, err := table["cmd_get_arg"]([]value.Value{int64(1)})
	if err != nil {
		t.Fatalf("cmd_get_arg: unexpected error: %v", err)
	}
	if arg.(string) != "b" {
		t.Errorf("got %v, want b", arg)
	}

	past, err := table["cmd_get_arg"]([]value.Value{int64(10)})
	if err != nil {
		t.Fatalf("cmd_get_arg past end: unexpected error: %v", err)
	}
	if past != nil {
		t.Errorf("expected nil past the end of argv, got %v", past)
	}
}

func TestRegisterTimeCurrentMs(t *testing.T) {
	table := map[string]vm.HostFunc{}
	registerTime(table)

	ms, err := table["time_current_ms"](nil)
	if err != nil {
		t.Fatalf("time_current_ms: unexpected error: %v", err)
	}
	if _, ok := ms.(int64); !ok {
		t.Errorf("expected int64, got %T", ms)
	}
}

func TestCoreClassesRegistersUIEvent(t *testing.T) {
	classes := CoreClasses()
	cls, ok := classes["UIEvent"]
	if !ok {
		t.Fatal("expected UIEvent to be registered")
	}
	if cls.Name != "UIEvent" {
		t.Errorf("got %q, want UIEvent", cls.Name)
	}
}
