package ipu

// breakFires reports whether the Break sub-op's predicate fires this cycle:
// BREAK is unconditional, BREAK_IFEQ compares an LR to an immediate,
// BREAK_NOP never fires.
func breakFires(inst BreakInst, snap *RegFile) (bool, error) {
	switch inst.Op {
	case Break:
		return true, nil
	case BreakIfEQ:
		lr, err := snap.LRAt(inst.LR, "break")
		if err != nil {
			return false, err
		}
		return lr == inst.Imm, nil
	default:
		return false, nil
	}
}
