// Command ipu-run is the external CLI driver. It is kept thin: flag parsing,
// config load, loader wiring, run-loop invocation, and exit-code translation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/openipu/ipu-emulator/config"
	"github.com/openipu/ipu-emulator/debugger"
	"github.com/openipu/ipu-emulator/ipu"
	"github.com/openipu/ipu-emulator/loader"
	"github.com/openipu/ipu-emulator/monitor"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("ipu-run", flag.ContinueOnError)

	var (
		configPath   = fs.String("config", "", "path to a TOML config file (default: platform config dir)")
		maxCycles    = fs.Int64("max-cycles", 0, "safety limit on cycles before aborting (0 = config/default)")
		debugMode    = fs.Bool("debug", false, "start in line-oriented debugger mode")
		tuiMode      = fs.Bool("tui", false, "start in the tcell/tview debugger TUI")
		debugLevel   = fs.Int("debug-level", 0, "verbosity level passed to the debug collaborator")
		xmemPreload  = fs.String("xmem-preload", "", "raw binary file to preload into XMEM")
		xmemBase     = fs.Uint64("xmem-base", 0, "base XMEM address for -xmem-preload")
		xmemDump     = fs.String("xmem-dump", "", "dump XMEM to this file after the run")
		xmemDumpBase = fs.Uint64("xmem-dump-base", 0, "base XMEM address for -xmem-dump")
		xmemDumpLen  = fs.Uint64("xmem-dump-len", 0, "number of bytes for -xmem-dump")
		enableMon    = fs.Bool("monitor", false, "start the HTTP+WebSocket monitor server")
		monitorAddr  = fs.String("monitor-addr", "", "monitor listen address (default: config)")
	)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: ipu-run <inst_file> [--xmem-preload=file --xmem-base=addr] [--debug | --tui] [--debug-level=N]")
		return 2
	}
	instFile := fs.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ipu-run: config: %v\n", err)
		return 1
	}

	program, err := loader.LoadProgramFile(instFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ipu-run: %v\n", err)
		return 1
	}

	machine := ipu.NewIPU()
	if err := machine.LoadProgram(program); err != nil {
		fmt.Fprintf(os.Stderr, "ipu-run: %v\n", err)
		return 1
	}

	if *xmemPreload != "" {
		if err := loader.LoadXMemFile(machine, *xmemPreload, uint32(*xmemBase)); err != nil {
			fmt.Fprintf(os.Stderr, "ipu-run: %v\n", err)
			return 1
		}
	}

	var mon *monitor.Server
	if *enableMon || cfg.Monitor.Enabled {
		addr := *monitorAddr
		if addr == "" {
			addr = cfg.Monitor.ListenAddr
		}
		mon = monitor.NewServer(machine, addr)
		go func() {
			if err := mon.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "ipu-run: monitor: %v\n", err)
			}
		}()
		defer shutdownMonitor(mon)
	}

	cycles := *maxCycles
	if cycles == 0 {
		cycles = cfg.Execution.MaxCycles
	}

	var dbg ipu.Debugger = ipu.NoDebugger{}
	if *debugMode || *tuiMode {
		d := debugger.NewDebugger(machine)
		d.Verbosity = *debugLevel
		dbg = d
		if err := runDebugSession(d, *tuiMode); err != nil {
			fmt.Fprintf(os.Stderr, "ipu-run: debugger: %v\n", err)
			return 1
		}
		dumpAndReport(machine, *xmemDump, uint32(*xmemDumpBase), uint32(*xmemDumpLen))
		return 0
	}

	var result ipu.RunResult
	if mon != nil {
		result, err = runWithBroadcast(machine, dbg, cycles, mon.Hub())
		mon.Hub().BroadcastHalt(result.Reason.String(), result.Cycles)
	} else {
		result, err = ipu.Run(machine, dbg, cycles)
	}
	if err != nil {
		if f, ok := err.(*ipu.Fault); ok {
			fmt.Fprintf(os.Stderr, "ipu-run: pc=%d: %s\n", f.PC, f.Error())
		} else {
			fmt.Fprintf(os.Stderr, "ipu-run: %v\n", err)
		}
		if result.Reason != ipu.TerminationMaxCycles {
			return 1
		}
	}

	fmt.Printf("ipu-run: %s after %d cycles, pc=%d\n", result.Reason, result.Cycles, machine.PC)

	if err := dumpAndReport(machine, *xmemDump, uint32(*xmemDumpBase), uint32(*xmemDumpLen)); err != nil {
		return 1
	}
	if result.Reason == ipu.TerminationMaxCycles {
		return 1
	}
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// runDebugSession starts either the line-oriented CLI front end or the
// tcell/tview TUI, both of which drive the run loop themselves via
// debugger.RunCLI/RunTUI.
func runDebugSession(d *debugger.Debugger, tui bool) error {
	if tui {
		return debugger.RunTUI(d)
	}
	return debugger.RunCLI(d)
}

func dumpAndReport(machine *ipu.IPU, path string, base, length uint32) error {
	if path == "" {
		return nil
	}
	if err := loader.DumpXMemFile(machine, path, base, length); err != nil {
		fmt.Fprintf(os.Stderr, "ipu-run: %v\n", err)
		return err
	}
	return nil
}

func shutdownMonitor(mon *monitor.Server) {
	_ = mon.Shutdown(context.Background())
}

// runWithBroadcast mirrors ipu.Run's cycle loop, additionally pushing a
// state snapshot to the monitor hub after every cycle. Kept in the CLI
// driver rather than the core run loop: the broadcast is an external
// observability concern, and ipu.Run has no reason to know
// monitor.Hub exists.
func runWithBroadcast(machine *ipu.IPU, dbg ipu.Debugger, maxCycles int64, hub *monitor.Hub) (ipu.RunResult, error) {
	if maxCycles <= 0 {
		maxCycles = ipu.DefaultMaxCycles
	}

	var cycles int64
	for {
		if machine.Halted() {
			return ipu.RunResult{Reason: ipu.TerminationHalted, Cycles: machine.Cycles}, nil
		}
		if cycles >= maxCycles {
			return ipu.RunResult{Reason: ipu.TerminationMaxCycles, Cycles: machine.Cycles},
				fmt.Errorf("ipu: max cycles (%d) reached before halting", maxCycles)
		}

		result, err := machine.Step(dbg)
		if err != nil {
			return ipu.RunResult{Reason: ipu.TerminationFault, Cycles: machine.Cycles}, err
		}
		hub.BroadcastCycle(monitor.Snapshot(machine))
		if result.Halted {
			return ipu.RunResult{Reason: ipu.TerminationHalted, Cycles: machine.Cycles}, nil
		}
		cycles++
	}
}
