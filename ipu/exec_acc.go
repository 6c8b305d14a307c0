package ipu

// execAcc runs the Acc sub-op. It is the only consumer of
// misc.mult_res; it reads the accumulator baseline from the snapshot so
// that parallelism with an Acc-targeting XMEM store in the same cycle is
// well-defined.
func execAcc(ipu *IPU, inst AccInst, snap *RegFile) error {
	switch inst.Op {
	case AccNop:
		return nil

	case Acc:
		dtype, err := snap.Dtype()
		if err != nil {
			return err
		}
		for i := 0; i < AccRTWords; i++ {
			sum, err := Add(snap.Acc.RTWord(i), ipu.MultRes[i], dtype)
			if err != nil {
				return err.(*Fault).WithPC(ipu.PC)
			}
			ipu.Regs.Acc.SetRTWord(i, sum)
		}
		return nil

	case AccReset:
		ipu.Regs.Acc.Reset()
		return nil

	case AccAgg:
		// Supplemented opcode:
		// add-reduce the 128 mult_res lanes left-to-right under the active
		// dtype, then store the sum at r_acc.words[lr[AggLRIdx] mod 128].
		dtype, err := snap.Dtype()
		if err != nil {
			return err
		}
		var sum uint32
		for i := 0; i < AccRTWords; i++ {
			sum, err = Add(sum, ipu.MultRes[i], dtype)
			if err != nil {
				return err.(*Fault).WithPC(ipu.PC)
			}
		}
		idx, err := snap.LRAt(inst.AggLRIdx, "acc")
		if err != nil {
			return err
		}
		ipu.Regs.Acc.SetRTWord(int(idx%AccRTWords), sum)
		return nil

	default:
		return &Fault{Kind: FaultUnknownOpcode, SubOp: "acc", Field: "unknown acc opcode"}
	}
}
