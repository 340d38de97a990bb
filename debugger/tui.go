package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/mkarimi/mips-emulator/vm"
)

// TUI is the text user interface for the debugger: pipeline, register,
// cache and memory panels around a command input.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application

	MainLayout *tview.Flex

	PipelineView *tview.TextView
	RegisterView *tview.TextView
	CacheView    *tview.TextView
	MemoryView   *tview.TextView
	OutputView   *tview.TextView
	CommandInput *tview.InputField

	// First data-memory word shown in the memory panel.
	MemoryAddress uint32
}

// NewTUI creates the text user interface.
func NewTUI(debugger *Debugger) *TUI {
	tui := &TUI{
		Debugger: debugger,
		App:      tview.NewApplication(),
	}

	tui.initializeViews()
	tui.buildLayout()
	tui.setupKeyBindings()
	tui.refresh()

	return tui
}

// initializeViews creates all the view panels
func (t *TUI) initializeViews() {
	t.PipelineView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false).
		SetWrap(false)
	t.PipelineView.SetBorder(true).SetTitle(" Pipeline ")

	t.RegisterView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.CacheView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.CacheView.SetBorder(true).SetTitle(" Data Cache ")

	t.MemoryView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(false)
	t.MemoryView.SetBorder(true).SetTitle(" Data Memory ")

	t.OutputView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().
		SetLabel("> ").
		SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

// buildLayout constructs the TUI layout
func (t *TUI) buildLayout() {
	left := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.PipelineView, 0, 2, false).
		AddItem(t.OutputView, 0, 1, false)

	right := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, 0, 2, false).
		AddItem(t.CacheView, 0, 2, false).
		AddItem(t.MemoryView, 0, 1, false)

	body := tview.NewFlex().
		AddItem(left, 0, 3, false).
		AddItem(right, 0, 2, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, false).
		AddItem(t.CommandInput, 3, 0, true)
}

// setupKeyBindings installs the global shortcuts: F10 steps, F5 runs,
// Ctrl-R resets.
func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF10:
			t.doStep(1)
			return nil
		case tcell.KeyF5:
			t.doRun()
			return nil
		case tcell.KeyCtrlR:
			t.doReset()
			return nil
		}
		return event
	})
}

// Run starts the interface and blocks until quit.
func (t *TUI) Run() error {
	return t.App.SetRoot(t.MainLayout, true).SetFocus(t.CommandInput).Run()
}

// handleCommand executes a command line from the input field.
func (t *TUI) handleCommand(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	line := strings.TrimSpace(t.CommandInput.GetText())
	t.CommandInput.SetText("")
	if line == "" {
		t.doStep(1)
		return
	}

	parts := strings.Fields(line)
	switch parts[0] {
	case "step", "s":
		n := 1
		if len(parts) > 1 {
			v, err := strconv.Atoi(parts[1])
			if err != nil || v < 1 {
				t.print("step: bad count %q", parts[1])
				return
			}
			n = v
		}
		t.doStep(n)

	case "run", "r", "continue", "c":
		t.doRun()

	case "reset":
		t.doReset()

	case "break", "b":
		if len(parts) < 2 {
			t.print("usage: break <cycle>")
			return
		}
		c, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			t.print("break: bad cycle %q", parts[1])
			return
		}
		t.Debugger.AddBreakpoint(c)
		t.print("breakpoint at cycle %d", c)

	case "delete", "d":
		if len(parts) < 2 {
			t.print("usage: delete <cycle>")
			return
		}
		c, err := strconv.ParseUint(parts[1], 10, 64)
		if err != nil {
			t.print("delete: bad cycle %q", parts[1])
			return
		}
		t.Debugger.DeleteBreakpoint(c)
		t.print("breakpoint at cycle %d removed", c)

	case "mem", "m":
		if len(parts) < 2 {
			t.print("usage: mem <word-address>")
			return
		}
		a, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			t.print("mem: bad address %q", parts[1])
			return
		}
		t.MemoryAddress = uint32(a)
		t.refresh()

	case "help", "h":
		t.print("commands: step [n], run, reset, break <cycle>, delete <cycle>, mem <addr>, quit")
		t.print("keys: F10 step, F5 run, Ctrl-R reset")

	case "quit", "q", "exit":
		t.App.Stop()

	default:
		t.print("unknown command %q (try help)", parts[0])
	}
}

func (t *TUI) doStep(n int) {
	if err := t.Debugger.Step(n); err != nil {
		t.print("[red]%v[-]", err)
	}
	t.refresh()
}

func (t *TUI) doRun() {
	if err := t.Debugger.Run(); err != nil {
		t.print("[red]%v[-]", err)
	}
	t.refresh()
}

func (t *TUI) doReset() {
	if err := t.Debugger.Reset(); err != nil {
		t.print("[red]%v[-]", err)
	}
	t.print("machine reset")
	t.refresh()
}

func (t *TUI) print(format string, args ...interface{}) {
	fmt.Fprintf(t.OutputView, format+"\n", args...)
	t.OutputView.ScrollToEnd()
}

// refresh redraws every panel from the simulator state.
func (t *TUI) refresh() {
	t.updatePipelineView()
	t.updateRegisterView()
	t.updateCacheView()
	t.updateMemoryView()
}

func (t *TUI) updatePipelineView() {
	sim := t.Debugger.Sim
	ifid, idex, exmem, memwb := sim.Latches()

	var sb strings.Builder
	fmt.Fprintf(&sb, "[yellow]%s[-]\n\n", t.Debugger.Status())
	fmt.Fprintf(&sb, "[green]PC[-]     %d\n", sim.PC)
	fmt.Fprintf(&sb, "[green]IF/ID[-]  %s\n", latchLine(ifid.IR))
	fmt.Fprintf(&sb, "[green]ID/EX[-]  %s\n", latchLine(idex.IR))
	fmt.Fprintf(&sb, "[green]EX/MEM[-] %s", latchLine(exmem.IR))
	if exmem.IR != 0 {
		fmt.Fprintf(&sb, "  out=%d", int32(exmem.ALUOut))
	}
	fmt.Fprintf(&sb, "\n[green]MEM/WB[-] %s", latchLine(memwb.IR))
	if memwb.IR != 0 {
		fmt.Fprintf(&sb, "  result=%d", int32(memwb.Result()))
	}
	sb.WriteByte('\n')

	t.PipelineView.SetText(sb.String())
}

func latchLine(word uint32) string {
	if word == 0 {
		return "nop"
	}
	return vm.Disassemble(word)
}

func (t *TUI) updateRegisterView() {
	sim := t.Debugger.Sim
	var sb strings.Builder
	for i := uint32(0); i < vm.NumRegisters; i += 2 {
		fmt.Fprintf(&sb, "[green]%-4s[-] %11d  [green]%-4s[-] %11d\n",
			vm.RegisterName(i), int32(sim.Regs.Read(i)),
			vm.RegisterName(i+1), int32(sim.Regs.Read(i+1)))
	}
	t.RegisterView.SetText(sb.String())
}

func (t *TUI) updateCacheView() {
	c := t.Debugger.Sim.DCache
	var sb strings.Builder
	fmt.Fprintf(&sb, "hits %d  misses %d  writebacks %d\n", c.Hits, c.Misses, c.Writebacks)
	for set := 0; set < c.NumSets; set++ {
		ways := c.Set(set)
		for w, line := range ways {
			states := make([]string, len(line))
			for o, b := range line {
				states[o] = string(b.State.String()[0])
			}
			fmt.Fprintf(&sb, "set %d way %d  tag %d  [%s]\n", set, w, line[0].Tag, strings.Join(states, " "))
		}
	}
	t.CacheView.SetText(sb.String())
}

func (t *TUI) updateMemoryView() {
	sim := t.Debugger.Sim
	var sb strings.Builder
	for i := uint32(0); i < 16; i++ {
		addr := t.MemoryAddress + i
		v, err := sim.DataMem.ReadWord(addr)
		if err != nil {
			break
		}
		fmt.Fprintf(&sb, "[green]%5d[-] %s (%d)\n", addr, vm.WordString(v), int32(v))
	}
	t.MemoryView.SetText(sb.String())
}
