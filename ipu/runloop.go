package ipu

import "fmt"

// TerminationReason distinguishes the ways Run can stop:
// these are outcomes, not errors (a Fault is always returned separately).
type TerminationReason int

const (
	TerminationHalted    TerminationReason = iota // PC reached InstMemSize via BKPT or debug QUIT
	TerminationMaxCycles                          // safety limit reached before halting
	TerminationFault                              // a Fault aborted the cycle engine
)

func (r TerminationReason) String() string {
	switch r {
	case TerminationHalted:
		return "halted"
	case TerminationMaxCycles:
		return "max cycles reached"
	case TerminationFault:
		return "fault"
	default:
		return "unknown"
	}
}

// RunResult summarizes a completed Run call.
type RunResult struct {
	Reason TerminationReason
	Cycles uint64
}

// DefaultMaxCycles bounds a run when the caller doesn't supply one, guarding
// against a program that never branches to BKPT.
const DefaultMaxCycles = 10_000_000

// Run drives the cycle engine to completion (C7): it calls Step repeatedly
// until the IPU halts, a Fault aborts execution, or maxCycles cycles have
// run without halting. maxCycles <= 0 uses DefaultMaxCycles.
//
// Reaching the safety limit is reported as a warning: Run
// returns a non-nil error so the caller (cmd/ipu-run) can set a nonzero
// exit status, but the error is not a *Fault — callers distinguish the two
// by checking RunResult.Reason or by type-asserting the error.
func Run(ipu *IPU, dbg Debugger, maxCycles int64) (RunResult, error) {
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}

	var cycles int64
	for {
		if ipu.Halted() {
			return RunResult{Reason: TerminationHalted, Cycles: ipu.Cycles}, nil
		}
		if cycles >= maxCycles {
			return RunResult{Reason: TerminationMaxCycles, Cycles: ipu.Cycles},
				fmt.Errorf("ipu: max cycles (%d) reached before halting", maxCycles)
		}

		result, err := ipu.Step(dbg)
		if err != nil {
			return RunResult{Reason: TerminationFault, Cycles: ipu.Cycles}, err
		}
		if result.Halted {
			return RunResult{Reason: TerminationHalted, Cycles: ipu.Cycles}, nil
		}
		cycles++
	}
}
