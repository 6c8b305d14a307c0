package ipu

// StepResult reports what happened during one Step call, for the run loop
// and any caller that wants per-cycle visibility (tracing, the monitor
// broadcaster).
type StepResult struct {
	Halted bool
	PC     uint32 // PC before this cycle executed
}

// Step executes exactly one cycle:
//
//  1. Fetch: inst = inst_mem[pc].
//  2. Snapshot: copy the live register file into a read-only snapshot; every
//     sub-op in this cycle reads operands exclusively from it (invariant 1).
//  3. Break-priority check: if the Break sub-op's predicate fires, invoke
//     the debug collaborator before any other sub-op of this cycle runs.
//  4. Dispatch XMEM, both LR slots, Mult, Acc, Cond — in this fixed order so
//     the Mult -> mult_res -> Acc dataflow and LR-conflict diagnostics are
//     deterministic (the order is otherwise semantically irrelevant, since
//     every read goes through the snapshot).
//  5. PC update: the Cond sub-op (including its explicit fall-through arms)
//     is the sole source of the next PC; CondNop means pc+1.
func (ipu *IPU) Step(dbg Debugger) (StepResult, error) {
	if dbg == nil {
		dbg = NoDebugger{}
	}

	startPC := ipu.PC
	if ipu.Halted() {
		return StepResult{Halted: true, PC: startPC}, nil
	}

	inst := ipu.InstMem[ipu.PC]
	snap := ipu.Regs.Snapshot()

	fires, err := breakFires(inst.Break, &snap)
	if err != nil {
		return StepResult{PC: startPC}, annotatePC(err, startPC)
	}
	if fires {
		switch dbg.EnterPrompt(ipu, 0) {
		case ActionQuit:
			ipu.PC = InstMemSize
			return StepResult{Halted: true, PC: startPC}, nil
		case ActionStep, ActionContinue:
			// fall through to execute the remaining sub-ops this cycle
		}
	}

	if err := execXMem(ipu, inst.XMem, &snap); err != nil {
		return StepResult{PC: startPC}, annotatePC(err, startPC)
	}
	if err := execLRSlots(ipu, inst.LR0, inst.LR1, &snap); err != nil {
		return StepResult{PC: startPC}, annotatePC(err, startPC)
	}
	if err := execMult(ipu, inst.Mult, &snap); err != nil {
		return StepResult{PC: startPC}, annotatePC(err, startPC)
	}
	if err := execAcc(ipu, inst.Acc, &snap); err != nil {
		return StepResult{PC: startPC}, annotatePC(err, startPC)
	}
	nextPC, err := execCond(ipu, inst.Cond, &snap)
	if err != nil {
		return StepResult{PC: startPC}, annotatePC(err, startPC)
	}

	ipu.PC = nextPC
	ipu.Cycles++
	return StepResult{Halted: ipu.Halted(), PC: startPC}, nil
}

// annotatePC attaches the cycle's PC to a *Fault that didn't already carry
// one (most executors raise faults without a PC since they don't track it).
func annotatePC(err error, pc uint32) error {
	if f, ok := err.(*Fault); ok && f.PC == 0 {
		return f.WithPC(pc)
	}
	return err
}
