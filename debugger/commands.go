package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openipu/ipu-emulator/ipu"
	"github.com/openipu/ipu-emulator/loader"
)

// ExecuteCommand parses and dispatches one command line.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)
	if cmdLine == "" {
		cmdLine = d.LastCommand
	}
	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	return d.handleCommand(strings.ToLower(parts[0]), parts[1:])
}

func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r", "continue", "c":
		d.Running = true
		return nil
	case "step", "s":
		d.StepMode = true
		d.Running = true
		return nil
	case "quit", "q", "exit":
		d.quit = true
		d.Running = false
		return nil

	case "break", "b":
		return d.cmdBreak(args, false)
	case "tbreak", "tb":
		return d.cmdBreak(args, true)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnableDisable(args, true)
	case "disable":
		return d.cmdEnableDisable(args, false)

	case "watch", "w":
		return d.cmdWatch(args)
	case "unwatch":
		return d.cmdUnwatch(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "set":
		return d.cmdSet(args)
	case "info", "i":
		return d.cmdInfo(args)

	case "load":
		return d.cmdLoad(args)
	case "reset":
		d.Machine.Reset()
		d.Printf("reset\n")
		return nil

	case "help", "h", "?":
		d.cmdHelp()
		return nil

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

func (d *Debugger) cmdBreak(args []string, temp bool) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: break <pc> [condition...]")
	}
	pc, err := parseUint32(args[0])
	if err != nil {
		return fmt.Errorf("invalid pc: %s", args[0])
	}
	condition := strings.Join(args[1:], " ")
	bp := d.Breakpoints.AddBreakpoint(pc, temp, condition)
	d.Printf("breakpoint %d at pc=%d\n", bp.ID, bp.PC)
	return nil
}

func (d *Debugger) cmdDelete(args []string) error {
	if len(args) < 1 {
		d.Breakpoints.Clear()
		d.Printf("all breakpoints deleted\n")
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	return d.Breakpoints.DeleteBreakpoint(id)
}

func (d *Debugger) cmdEnableDisable(args []string, enable bool) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <breakpoint-id>", map[bool]string{true: "enable", false: "disable"}[enable])
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint id: %s", args[0])
	}
	if enable {
		return d.Breakpoints.EnableBreakpoint(id)
	}
	return d.Breakpoints.DisableBreakpoint(id)
}

func (d *Debugger) cmdWatch(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: watch <lr|cr> <index>")
	}
	idx, err := strconv.Atoi(args[1])
	if err != nil || idx < 0 || idx >= ipu.LRRegs {
		return fmt.Errorf("invalid register index: %s", args[1])
	}
	var kind WatchKind
	switch strings.ToLower(args[0]) {
	case "lr":
		kind = WatchLR
	case "cr":
		kind = WatchCR
	default:
		return fmt.Errorf("usage: watch <lr|cr> <index>")
	}
	wp := d.Watchpoints.Add(kind, idx)
	d.Printf("watchpoint %d on %s\n", wp.ID, wp.String())
	return nil
}

func (d *Debugger) cmdUnwatch(args []string) error {
	if len(args) < 1 {
		d.Watchpoints.Clear()
		d.Printf("all watchpoints deleted\n")
		return nil
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid watchpoint id: %s", args[0])
	}
	return d.Watchpoints.Delete(id)
}

func (d *Debugger) cmdPrint(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: print <lrN|crN|pc|cycles>")
	}
	ce := d.Evaluator
	v, err := ce.operand(args[0], d.Machine)
	if err != nil {
		return err
	}
	d.Printf("%s = %d (0x%08X)\n", args[0], v, v)
	return nil
}

func (d *Debugger) cmdSet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <lrN|crN> <value>")
	}
	val, err := parseUint32(args[1])
	if err != nil {
		return fmt.Errorf("invalid value: %s", args[1])
	}
	lower := strings.ToLower(args[0])
	switch {
	case strings.HasPrefix(lower, "lr"):
		idx, err := strconv.Atoi(lower[2:])
		if err != nil || idx < 0 || idx >= ipu.LRRegs {
			return fmt.Errorf("invalid lr operand: %s", args[0])
		}
		d.Machine.Regs.LR[idx] = val
	case strings.HasPrefix(lower, "cr"):
		idx, err := strconv.Atoi(lower[2:])
		if err != nil || idx < 0 || idx >= ipu.CRRegs {
			return fmt.Errorf("invalid cr operand: %s", args[0])
		}
		d.Machine.Regs.CR[idx] = val
	default:
		return fmt.Errorf("set only supports lrN/crN targets, got %s", args[0])
	}
	d.Printf("%s = %d\n", args[0], val)
	return nil
}

func (d *Debugger) cmdInfo(args []string) error {
	m := d.Machine
	d.Printf("pc=%d cycles=%d halted=%v\n", m.PC, m.Cycles, m.Halted())
	for i := 0; i < ipu.LRRegs; i += RegisterGroupSize {
		end := i + RegisterGroupSize
		if end > ipu.LRRegs {
			end = ipu.LRRegs
		}
		for j := i; j < end; j++ {
			d.Printf("lr%-2d=0x%08X ", j, m.Regs.LR[j])
		}
		d.Printf("\n")
	}
	for i := 0; i < ipu.CRRegs; i += RegisterGroupSize {
		end := i + RegisterGroupSize
		if end > ipu.CRRegs {
			end = ipu.CRRegs
		}
		for j := i; j < end; j++ {
			d.Printf("cr%-2d=0x%08X ", j, m.Regs.CR[j])
		}
		d.Printf("\n")
	}
	d.Printf("breakpoints: %d, watchpoints: %d\n", d.Breakpoints.Count(), len(d.Watchpoints.All()))
	return nil
}

func (d *Debugger) cmdLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <program-file>")
	}
	program, err := loader.LoadProgramFile(args[0])
	if err != nil {
		return err
	}
	if err := d.Machine.LoadProgram(program); err != nil {
		return err
	}
	d.Machine.PC = 0
	d.Printf("loaded %d records from %s\n", len(program), args[0])
	return nil
}

func (d *Debugger) cmdHelp() {
	d.Printf(`commands:
  run, continue, c       resume execution
  step, s                execute one cycle, then pause
  break <pc> [cond]       set a breakpoint (pc-indexed), optional condition
  tbreak <pc> [cond]      set a one-shot breakpoint
  delete [id]            delete a breakpoint (all if no id given)
  enable/disable <id>    toggle a breakpoint
  watch <lr|cr> <idx>    pause when the register's value changes
  unwatch [id]           delete a watchpoint (all if no id given)
  print <operand>        print an lrN/crN/pc/cycles value
  set <lrN|crN> <value>  write a register
  info                   dump pc, cycles, and all registers
  load <file>            load a new program file
  reset                  reset IPU state
  quit, q, exit          leave the debugger
`)
}
