// Package debugger drives a simulator interactively: single-cycle stepping,
// run-to-completion, cycle breakpoints, and the TUI front-end.
package debugger

import (
	"fmt"
	"sort"

	"github.com/mkarimi/mips-emulator/vm"
)

// Debugger wraps a simulator with stepping and breakpoint control.
type Debugger struct {
	Sim *vm.Simulator

	breakpoints map[uint64]bool
	LastError   error
}

// New creates a debugger for the given simulator.
func New(sim *vm.Simulator) *Debugger {
	return &Debugger{
		Sim:         sim,
		breakpoints: make(map[uint64]bool),
	}
}

// Step advances the simulation by n cycles, stopping early at the cycle
// budget or on error.
func (d *Debugger) Step(n int) error {
	for i := 0; i < n && !d.Sim.Done(); i++ {
		if err := d.Sim.Step(); err != nil {
			d.LastError = err
			return err
		}
	}
	return nil
}

// Run advances until a breakpoint, the cycle budget, or an error.
func (d *Debugger) Run() error {
	for !d.Sim.Done() {
		if err := d.Sim.Step(); err != nil {
			d.LastError = err
			return err
		}
		if d.breakpoints[d.Sim.Cycle] {
			return nil
		}
	}
	return nil
}

// AddBreakpoint stops a Run after the given cycle completes.
func (d *Debugger) AddBreakpoint(cycle uint64) {
	d.breakpoints[cycle] = true
}

// DeleteBreakpoint removes a breakpoint; it is not an error if absent.
func (d *Debugger) DeleteBreakpoint(cycle uint64) {
	delete(d.breakpoints, cycle)
}

// Breakpoints lists the set breakpoints in ascending cycle order.
func (d *Debugger) Breakpoints() []uint64 {
	cycles := make([]uint64, 0, len(d.breakpoints))
	for c := range d.breakpoints {
		cycles = append(cycles, c)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i] < cycles[j] })
	return cycles
}

// Reset rewinds the machine to cycle zero with the program still loaded.
func (d *Debugger) Reset() error {
	d.LastError = nil
	return d.Sim.Reset()
}

// Status summarizes where the simulation stands.
func (d *Debugger) Status() string {
	if d.LastError != nil {
		return fmt.Sprintf("error: %v", d.LastError)
	}
	if d.Sim.Done() {
		return fmt.Sprintf("finished after %d cycles (%d stalls)", d.Sim.Cycle, d.Sim.StallCount)
	}
	return fmt.Sprintf("cycle %d of %d", d.Sim.Cycle, d.Sim.TotalCycles())
}
