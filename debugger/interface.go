package debugger

import (
	"bufio"
	"fmt"
	"os"

	"github.com/openipu/ipu-emulator/ipu"
)

// prompt is the shared interactive loop: print the accumulated output, read
// a command, execute it, and repeat until the user resumes execution
// (run/continue/step) or quits. It is invoked both as ipu.Debugger's
// EnterPrompt (hardware Break sub-op) and from RunCLI's own breakpoint/
// watchpoint check, so both paths land in the same place.
func (d *Debugger) prompt() ipu.DebugAction {
	if d.scanner == nil {
		d.scanner = bufio.NewScanner(os.Stdin)
	}

	for {
		if out := d.GetOutput(); out != "" {
			fmt.Print(out)
		}
		fmt.Print("(ipu-dbg) ")

		if !d.scanner.Scan() {
			d.quit = true
			return ipu.ActionQuit
		}

		if err := d.ExecuteCommand(d.scanner.Text()); err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}

		if d.quit {
			return ipu.ActionQuit
		}
		if d.Running {
			if d.StepMode {
				return ipu.ActionStep
			}
			return ipu.ActionContinue
		}
	}
}

// RunCLI drives the emulator under the line-oriented debugger front end: it
// alternates between the interactive prompt and executing cycles, checking
// ShouldBreak before each one.
func RunCLI(d *Debugger) error {
	if out := d.GetOutput(); out != "" {
		fmt.Print(out)
	}

	for {
		if d.Machine.Halted() {
			fmt.Printf("halted at pc=%d, cycle=%d\n", d.Machine.PC, d.Machine.Cycles)
			return nil
		}

		if shouldBreak, reason := d.ShouldBreak(); shouldBreak {
			d.Running = false
			fmt.Printf("stopped: %s at pc=%d\n", reason, d.Machine.PC)
		}

		if !d.Running {
			action := d.prompt()
			if action == ipu.ActionQuit {
				return nil
			}
		}

		if _, err := d.Machine.Step(d); err != nil {
			fmt.Printf("runtime error: %v\n", err)
			d.Running = false
			continue
		}
	}
}

// RunTUI runs the tcell/tview text UI front end.
func RunTUI(d *Debugger) error {
	t := NewTUI(d)
	return t.Run()
}
