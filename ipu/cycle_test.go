package ipu

import "testing"

func TestStepOnHaltedIPUIsANoop(t *testing.T) {
	m := NewIPU()
	m.PC = InstMemSize
	res, err := m.Step(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Halted {
		t.Fatal("expected Halted=true")
	}
}

// TestStepAdvancesPCByDefault exercises P3: with no Cond sub-op, pc+1.
func TestStepAdvancesPCByDefault(t *testing.T) {
	m := NewIPU()
	m.InstMem[0] = NOPInstruction
	res, err := m.Step(nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Halted {
		t.Fatal("should not have halted on a NOP")
	}
	if m.PC != 1 {
		t.Fatalf("PC = %d, want 1", m.PC)
	}
	if m.Cycles != 1 {
		t.Fatalf("Cycles = %d, want 1", m.Cycles)
	}
}

func TestStepCondBranchOverridesPC(t *testing.T) {
	m := NewIPU()
	m.InstMem[0] = Instruction{Cond: CondInst{Op: CondB, Label: 42}}
	if _, err := m.Step(nil); err != nil {
		t.Fatal(err)
	}
	if m.PC != 42 {
		t.Fatalf("PC = %d, want 42", m.PC)
	}
}

func TestStepCondBKPTHalts(t *testing.T) {
	m := NewIPU()
	m.InstMem[0] = Instruction{Cond: CondInst{Op: CondBKPT}}
	res, err := m.Step(nil)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Halted {
		t.Fatal("expected BKPT to halt")
	}
}

// TestLRConflictAbortsCycle exercises P2: two LR sub-ops writing the same
// target in one cycle is fatal, and neither write commits.
func TestLRConflictAbortsCycle(t *testing.T) {
	m := NewIPU()
	m.Regs.LR[3] = 100
	m.InstMem[0] = Instruction{
		LR0: LRInst{Op: LRSet, Target: 3, Imm: 1},
		LR1: LRInst{Op: LRSet, Target: 3, Imm: 2},
	}
	_, err := m.Step(nil)
	if err == nil {
		t.Fatal("expected an LR conflict fault")
	}
	f, ok := err.(*Fault)
	if !ok || f.Kind != FaultLRConflict {
		t.Fatalf("got %v, want a FaultLRConflict", err)
	}
	if m.Regs.LR[3] != 100 {
		t.Fatalf("LR[3] = %d, want unchanged at 100 (conflict aborts before commit)", m.Regs.LR[3])
	}
}

func TestLRTwoSlotsDifferentTargetsBothCommit(t *testing.T) {
	m := NewIPU()
	m.InstMem[0] = Instruction{
		LR0: LRInst{Op: LRSet, Target: 0, Imm: 10},
		LR1: LRInst{Op: LRSet, Target: 1, Imm: 20},
	}
	if _, err := m.Step(nil); err != nil {
		t.Fatal(err)
	}
	if m.Regs.LR[0] != 10 || m.Regs.LR[1] != 20 {
		t.Fatalf("LR[0]=%d LR[1]=%d, want 10, 20", m.Regs.LR[0], m.Regs.LR[1])
	}
}

func TestLRIncrWithZeroImmIsNotARealWrite(t *testing.T) {
	m := NewIPU()
	m.Regs.LR[0] = 5
	m.InstMem[0] = Instruction{
		LR0: LRInst{Op: LRIncr, Target: 0, Imm: 0},
		LR1: LRInst{Op: LRSet, Target: 0, Imm: 99},
	}
	// INCR with Imm=0 is defined as a NOP, so it does not conflict with the
	// SET targeting the same index.
	if _, err := m.Step(nil); err != nil {
		t.Fatal(err)
	}
	if m.Regs.LR[0] != 99 {
		t.Fatalf("LR[0] = %d, want 99", m.Regs.LR[0])
	}
}

// TestMaskZeroesLanes exercises P7: a mult_res lane whose mask bit is 0 is
// zeroed before Acc ever sees it.
func TestMaskZeroesLanes(t *testing.T) {
	m := NewIPU()
	m.Regs.CR[CRDtypeIndex] = uint32(DtypeInt8)
	for i := range m.Regs.Mult.R[0] {
		m.Regs.Mult.R[0][i] = 2
	}
	var window [RegBytes]byte
	for i := range window {
		window[i] = 3
	}
	m.Regs.Mult.SetCyclicAt(0, window[:])

	// r_mask sub-mask 0: only bit 0 set, all others clear.
	m.Regs.Mult.RMask[0] = 0x01

	m.InstMem[0] = Instruction{
		Mult: MultInst{Op: MultEE, Ra: RegR0, LRCyclicBase: 0, LRMaskIdx: 1, LRShift: 2},
		Acc:  AccInst{Op: Acc},
	}
	// lr[0]=0 (cyclic base), lr[1]=0 (mask sub-mask index), lr[2]=0 (no shift)
	if _, err := m.Step(nil); err != nil {
		t.Fatal(err)
	}

	if got := m.Regs.Acc.RTWord(0); int32(got) != 6 {
		t.Fatalf("lane 0 = %d, want 6 (2*3, mask bit set)", int32(got))
	}
	if got := m.Regs.Acc.RTWord(1); got != 0 {
		t.Fatalf("lane 1 = %d, want 0 (mask bit clear)", got)
	}
}

func TestAccAggReducesAllLanes(t *testing.T) {
	m := NewIPU()
	m.Regs.CR[CRDtypeIndex] = uint32(DtypeInt8)
	for i := range m.Regs.Mult.R[0] {
		m.Regs.Mult.R[0][i] = 1
	}
	var window [RegBytes]byte
	for i := range window {
		window[i] = 1
	}
	m.Regs.Mult.SetCyclicAt(0, window[:])
	m.Regs.Mult.RMask = [RegBytes]byte{}
	for i := range m.Regs.Mult.RMask {
		m.Regs.Mult.RMask[i] = 0xFF // every mask bit set, no zeroing
	}

	m.InstMem[0] = Instruction{
		Mult: MultInst{Op: MultEE, Ra: RegR0, LRCyclicBase: 0, LRMaskIdx: 0, LRShift: 0},
		Acc:  AccInst{Op: AccAgg, AggLRIdx: 5},
	}
	m.Regs.LR[5] = 3
	if _, err := m.Step(nil); err != nil {
		t.Fatal(err)
	}
	if got := int32(m.Regs.Acc.RTWord(3)); got != RegBytes {
		t.Fatalf("aggregated sum = %d, want %d", got, RegBytes)
	}
}

// TestBreakInvokesDebugger exercises the Break sub-op's collaborator hook.
type stubDebugger struct {
	action DebugAction
	called bool
}

func (s *stubDebugger) EnterPrompt(*IPU, int) DebugAction {
	s.called = true
	return s.action
}

func TestBreakInvokesDebugger(t *testing.T) {
	m := NewIPU()
	m.InstMem[0] = Instruction{Break: BreakInst{Op: Break}}
	dbg := &stubDebugger{action: ActionContinue}
	if _, err := m.Step(dbg); err != nil {
		t.Fatal(err)
	}
	if !dbg.called {
		t.Fatal("expected the debug collaborator to be invoked")
	}
	if m.PC != 1 {
		t.Fatalf("PC = %d, want 1 (continue runs the rest of the cycle)", m.PC)
	}
}

func TestBreakQuitHaltsImmediately(t *testing.T) {
	m := NewIPU()
	m.InstMem[0] = Instruction{
		Break: BreakInst{Op: Break},
		LR0:   LRInst{Op: LRSet, Target: 0, Imm: 99},
	}
	dbg := &stubDebugger{action: ActionQuit}
	res, err := m.Step(dbg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Halted {
		t.Fatal("expected QUIT to halt the run")
	}
	if m.Regs.LR[0] != 0 {
		t.Fatalf("LR[0] = %d, want 0 (QUIT aborts before the rest of the cycle runs)", m.Regs.LR[0])
	}
}

// TestMalformedRegisterIndexFaultsInsteadOfPanicking exercises the
// out-of-range-index path a corrupt program record can trigger: every LR/CR
// index comes straight off disk with no decode-time validation, so Step
// itself must turn an out-of-range index into a Fault rather than panic.
func TestMalformedRegisterIndexFaultsInsteadOfPanicking(t *testing.T) {
	cases := []struct {
		name string
		inst Instruction
		sub  string
	}{
		{"xmem lr", Instruction{XMem: XMemInst{Op: XMemStrAccReg, LR: 9999}}, "xmem"},
		{"xmem cr", Instruction{XMem: XMemInst{Op: XMemStrAccReg, CR: 9999}}, "xmem"},
		{"lr target", Instruction{LR0: LRInst{Op: LRSet, Target: 9999, Imm: 1}}, "lr"},
		{"lr add source", Instruction{LR0: LRInst{Op: LRAdd, Target: 0, A: LCR(9999), B: 0}}, "lr"},
		{"cond lr1", Instruction{Cond: CondInst{Op: CondBZ, LR1: 9999}}, "cond"},
		{"acc agg index", Instruction{Acc: AccInst{Op: AccAgg, AggLRIdx: 9999}}, "acc"},
		{"break ifeq", Instruction{Break: BreakInst{Op: BreakIfEQ, LR: 9999}}, "break"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewIPU()
			m.InstMem[0] = tc.inst
			_, err := m.Step(nil)
			if err == nil {
				t.Fatal("expected a fault, got nil")
			}
			f, ok := err.(*Fault)
			if !ok {
				t.Fatalf("got %T, want *Fault", err)
			}
			if f.Kind != FaultRegisterIndex {
				t.Fatalf("Kind = %v, want FaultRegisterIndex", f.Kind)
			}
			if f.SubOp != tc.sub {
				t.Fatalf("SubOp = %q, want %q", f.SubOp, tc.sub)
			}
			if f.PC != 0 {
				t.Fatalf("PC = %d, want 0", f.PC)
			}
		})
	}
}

func TestRunStopsAtMaxCycles(t *testing.T) {
	m := NewIPU()
	for i := range m.InstMem {
		m.InstMem[i] = NOPInstruction // pc+1 forever, never halts
	}
	result, err := Run(m, nil, 10)
	if err == nil {
		t.Fatal("expected an error when the cycle limit is hit")
	}
	if result.Reason != TerminationMaxCycles {
		t.Fatalf("reason = %s, want max cycles reached", result.Reason)
	}
	if result.Cycles != 10 {
		t.Fatalf("cycles = %d, want 10", result.Cycles)
	}
}

func TestRunHaltsOnBKPT(t *testing.T) {
	m := NewIPU()
	m.InstMem[0] = Instruction{Cond: CondInst{Op: CondBKPT}}
	result, err := Run(m, nil, 100)
	if err != nil {
		t.Fatal(err)
	}
	if result.Reason != TerminationHalted {
		t.Fatalf("reason = %s, want halted", result.Reason)
	}
}
