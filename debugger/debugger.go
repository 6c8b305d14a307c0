// Package debugger implements the interactive debug collaborator, plus a
// CLI and a tcell/tview TUI front end for it.
package debugger

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/openipu/ipu-emulator/ipu"
	"github.com/openipu/ipu-emulator/tools"
)

// Debugger is both the external run-loop driver (software PC breakpoints
// and watchpoints, evaluated before each cycle) and the hardware debug
// collaborator the cycle engine calls into when a Break sub-op fires. A
// single Debugger value fills both roles so that "break <pc>" commands and
// BREAK/BREAK_IFEQ sub-ops land in the same prompt.
type Debugger struct {
	Machine *ipu.IPU

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory
	Evaluator   *ConditionEvaluator

	Running     bool
	StepMode    bool // single-step: pause again after the next cycle
	LastCommand string

	// Verbosity controls how much register state EnterPrompt prints before
	// handing control to the interactive prompt, the Go equivalent of
	// original_source's ipu_debug.cpp level-based REPL verbosity (set from
	// the CLI's -debug-level flag; SPEC_FULL.md supplemented feature 7).
	Verbosity int

	quit    bool
	scanner *bufio.Scanner

	Output strings.Builder
}

// NewDebugger wraps machine with a fresh debugger session.
func NewDebugger(machine *ipu.IPU) *Debugger {
	return &Debugger{
		Machine:     machine,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
		Evaluator:   NewConditionEvaluator(),
	}
}

// EnterPrompt implements ipu.Debugger: it is the hook the cycle engine
// invokes when a Break sub-op fires this cycle.
func (d *Debugger) EnterPrompt(machine *ipu.IPU, level int) ipu.DebugAction {
	d.Printf("break (level %d) at pc=%d, cycle=%d\n", level, machine.PC, machine.Cycles)
	if d.Verbosity > 0 {
		d.Printf("%s", tools.FormatRegisters(&machine.Regs, 8))
	}
	return d.prompt()
}

// ShouldBreak reports whether the run loop should pause before executing
// the cycle at the current PC: single-step mode, a software breakpoint, or
// a fired watchpoint.
func (d *Debugger) ShouldBreak() (bool, string) {
	if d.StepMode {
		d.StepMode = false
		return true, "single step"
	}

	pc := d.Machine.PC
	if bp := d.Breakpoints.GetBreakpoint(pc); bp != nil && bp.Enabled {
		if bp.Condition != "" {
			ok, err := d.Evaluator.Evaluate(bp.Condition, d.Machine)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			if !ok {
				return false, ""
			}
		}
		hit := d.Breakpoints.ProcessHit(pc)
		return true, fmt.Sprintf("breakpoint %d", hit.ID)
	}

	if wp, changed := d.Watchpoints.Check(&d.Machine.Regs); changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.String())
	}

	return false, ""
}

// Printf appends formatted text to the output buffer (drained by the CLI or
// TUI front end after each command).
func (d *Debugger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&d.Output, format, args...)
}

// GetOutput returns and clears the accumulated output.
func (d *Debugger) GetOutput() string {
	out := d.Output.String()
	d.Output.Reset()
	return out
}

// Quit reports whether the user has asked to exit the debug session.
func (d *Debugger) Quit() bool { return d.quit }
