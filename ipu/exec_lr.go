package ipu

import "fmt"

// lrResult is the write a single LR sub-op produces, computed entirely from
// the snapshot so two slots can be conflict-checked before either is
// applied.
type lrResult struct {
	wrote bool
	value uint32
}

func evalLR(inst LRInst, snap *RegFile) (lrResult, error) {
	if !inst.IsRealWrite() {
		return lrResult{}, nil
	}
	if inst.Target < 0 || inst.Target >= LRRegs {
		return lrResult{}, &Fault{Kind: FaultRegisterIndex, SubOp: "lr", Field: fmt.Sprintf("target index %d out of range", inst.Target)}
	}
	switch inst.Op {
	case LRSet:
		return lrResult{wrote: true, value: inst.Imm}, nil
	case LRIncr:
		v, err := snap.LRAt(inst.Target, "lr")
		if err != nil {
			return lrResult{}, err
		}
		return lrResult{wrote: true, value: v + inst.Imm}, nil
	case LRAdd:
		a, err := inst.A.Resolve(snap, "lr")
		if err != nil {
			return lrResult{}, err
		}
		b, err := inst.B.Resolve(snap, "lr")
		if err != nil {
			return lrResult{}, err
		}
		return lrResult{wrote: true, value: a + b}, nil
	case LRSub:
		a, err := inst.A.Resolve(snap, "lr")
		if err != nil {
			return lrResult{}, err
		}
		b, err := inst.B.Resolve(snap, "lr")
		if err != nil {
			return lrResult{}, err
		}
		return lrResult{wrote: true, value: a - b}, nil
	case LRNop:
		return lrResult{}, nil
	default:
		return lrResult{}, &Fault{Kind: FaultUnknownOpcode, SubOp: "lr", Field: "unknown lr opcode"}
	}
}

// execLRSlots runs both LR sub-op slots for the cycle: at most one slot may
// issue a real write to a given LR index; two real writes to the same index
// abort the cycle before either commits.
func execLRSlots(ipu *IPU, slot0, slot1 LRInst, snap *RegFile) error {
	r0, err := evalLR(slot0, snap)
	if err != nil {
		return err
	}
	r1, err := evalLR(slot1, snap)
	if err != nil {
		return err
	}

	if r0.wrote && r1.wrote && slot0.Target == slot1.Target {
		return &Fault{Kind: FaultLRConflict, SubOp: "lr", Field: "two lr sub-ops wrote the same index"}
	}

	if r0.wrote {
		ipu.Regs.LR[slot0.Target] = r0.value
	}
	if r1.wrote {
		ipu.Regs.LR[slot1.Target] = r1.value
	}
	return nil
}
