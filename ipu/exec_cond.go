package ipu

// execCond runs the Cond sub-op and returns the PC to apply at the end of
// the cycle. Every not-taken branch arm, and the NOP/absent case, returns
// pc+1 itself rather than leaving it implicit.
func execCond(ipu *IPU, inst CondInst, snap *RegFile) (uint32, error) {
	switch inst.Op {
	case CondNop:
		return ipu.PC + 1, nil
	case CondB:
		return inst.Label, nil
	case CondBKPT:
		return InstMemSize, nil
	}

	lr1, err := snap.LRAt(inst.LR1, "cond")
	if err != nil {
		return 0, err
	}

	switch inst.Op {
	case CondBZ:
		if lr1 == 0 {
			return inst.Label, nil
		}
		return ipu.PC + 1, nil
	case CondBNZ:
		if lr1 != 0 {
			return inst.Label, nil
		}
		return ipu.PC + 1, nil
	case CondBR:
		return lr1, nil
	}

	lr2, err := snap.LRAt(inst.LR2, "cond")
	if err != nil {
		return 0, err
	}

	switch inst.Op {
	case CondBEQ:
		if lr1 == lr2 {
			return inst.Label, nil
		}
		return ipu.PC + 1, nil
	case CondBNE:
		if lr1 != lr2 {
			return inst.Label, nil
		}
		return ipu.PC + 1, nil
	case CondBLT:
		if lr1 < lr2 {
			return inst.Label, nil
		}
		return ipu.PC + 1, nil
	default:
		return 0, &Fault{Kind: FaultUnknownOpcode, SubOp: "cond", Field: "unknown cond opcode", PC: ipu.PC}
	}
}
