package debugger

import (
	"testing"

	"github.com/mkarimi/mips-emulator/vm"
)

func addi(rt uint32, imm uint16) uint32 {
	return 0b001000<<26 | rt<<16 | uint32(imm)
}

func newTestDebugger(t *testing.T, program ...uint32) *Debugger {
	t.Helper()
	sim, err := vm.New(vm.Options{})
	if err != nil {
		t.Fatalf("vm.New: %v", err)
	}
	if err := sim.LoadProgram(program); err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	return New(sim)
}

func TestStepAdvancesClock(t *testing.T) {
	d := newTestDebugger(t, addi(1, 5))
	if err := d.Step(2); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if d.Sim.Cycle != 2 {
		t.Errorf("cycle = %d, want 2", d.Sim.Cycle)
	}

	// Stepping past the end stops at the budget.
	if err := d.Step(100); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if d.Sim.Cycle != 5 || !d.Sim.Done() {
		t.Errorf("cycle = %d done=%v, want 5 and done", d.Sim.Cycle, d.Sim.Done())
	}
	if got := d.Sim.Regs.Read(1); got != 5 {
		t.Errorf("$1 = %d, want 5", got)
	}
}

func TestRunStopsAtBreakpoint(t *testing.T) {
	d := newTestDebugger(t, addi(1, 5), addi(2, 6))
	d.AddBreakpoint(3)
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.Sim.Cycle != 3 {
		t.Errorf("stopped at cycle %d, want 3", d.Sim.Cycle)
	}

	d.DeleteBreakpoint(3)
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !d.Sim.Done() {
		t.Error("run after deleting the breakpoint should finish")
	}
}

func TestBreakpointListing(t *testing.T) {
	d := newTestDebugger(t, addi(1, 5))
	d.AddBreakpoint(9)
	d.AddBreakpoint(2)
	d.AddBreakpoint(5)
	got := d.Breakpoints()
	want := []uint64{2, 5, 9}
	if len(got) != len(want) {
		t.Fatalf("Breakpoints() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Breakpoints()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestResetRewinds(t *testing.T) {
	d := newTestDebugger(t, addi(1, 5))
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := d.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if d.Sim.Cycle != 0 || d.Sim.Regs.Read(1) != 0 {
		t.Error("reset should rewind clock and registers")
	}
	if err := d.Run(); err != nil {
		t.Fatalf("Run after reset: %v", err)
	}
	if got := d.Sim.Regs.Read(1); got != 5 {
		t.Errorf("$1 = %d after re-run, want 5", got)
	}
}
