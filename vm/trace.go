package vm

import (
	"fmt"
	"io"
)

const (
	stageSeparator = "------------------"
	cycleSeparator = "=================="
)

// CycleTrace writes the per-cycle, per-stage trace: one block per stage in
// fetch/decode/execute/memory/write-back order, with separator lines between
// stages and between cycles. A nil trace discards everything.
type CycleTrace struct {
	Enabled bool
	W       io.Writer
}

// NewCycleTrace creates an enabled trace writing to w.
func NewCycleTrace(w io.Writer) *CycleTrace {
	return &CycleTrace{Enabled: true, W: w}
}

func (t *CycleTrace) active() bool {
	return t != nil && t.Enabled && t.W != nil
}

// Fetched reports the raw instruction bits leaving the fetch stage.
func (t *CycleTrace) Fetched(word uint32) {
	if !t.active() {
		return
	}
	fmt.Fprintf(t.W, "instruction fetched:\n%s\n%s\n", WordString(word), stageSeparator)
}

// Decoded reports the mnemonic and operands seen by decode.
func (t *CycleTrace) Decoded(text string) {
	if !t.active() {
		return
	}
	fmt.Fprintf(t.W, "instruction decoded:\n%s\n%s\n", text, stageSeparator)
}

// Executed reports the execute stage's computed values.
func (t *CycleTrace) Executed(text string) {
	if !t.active() {
		return
	}
	fmt.Fprintf(t.W, "execution:\n%s\n%s\n", text, stageSeparator)
}

// Memory reports the memory stage's cache activity.
func (t *CycleTrace) Memory(text string) {
	if !t.active() {
		return
	}
	fmt.Fprintf(t.W, "working with cache/mem:\n%s\n%s\n", text, stageSeparator)
}

// WriteBack reports any register update.
func (t *CycleTrace) WriteBack(text string) {
	if !t.active() {
		return
	}
	fmt.Fprintf(t.W, "write back:\n%s\n", text)
}

// Stall reports an injected load-use stall bubble.
func (t *CycleTrace) Stall() {
	if !t.active() {
		return
	}
	fmt.Fprintf(t.W, "---- stall ----\n")
}

// CycleEnd closes the block for one simulated clock.
func (t *CycleTrace) CycleEnd(cycle uint64) {
	if !t.active() {
		return
	}
	fmt.Fprintf(t.W, "\n\t %s cycle %d %s\n\n", cycleSeparator, cycle, cycleSeparator)
}
