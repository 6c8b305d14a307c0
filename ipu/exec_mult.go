package ipu

const masksPerRMask = RegBytes / 16 // r_mask is 128 bytes of 128-bit (16-byte) sub-masks: 8 of them

// maskBitAt returns bit i (0..127) of the 128-bit sub-mask selected by
// maskIdx, after applying the signed shift (positive = left, negative =
// right). Shifts with |shift| >= 128 are fully zeroing: every shifted
// position falls outside 0..127, so every lane's mask bit reads as unset.
func maskBitAt(rMask *[RegBytes]byte, maskIdx uint32, shift int32, i int) bool {
	base := int(maskIdx%masksPerRMask) * 16
	pos := i - int(shift)
	if pos < 0 || pos >= 128 {
		return false
	}
	byteIdx := base + pos/8
	bitIdx := uint(pos % 8)
	return (rMask[byteIdx]>>bitIdx)&1 != 0
}

// applyMaskAndShift zeroes mult_res lanes whose selected mask bit is 0.
func applyMaskAndShift(ipu *IPU, maskIdx uint32, shift int32) {
	for i := 0; i < AccRTWords; i++ {
		if !maskBitAt(&ipu.Regs.Mult.RMask, maskIdx, shift, i) {
			ipu.MultRes[i] = 0
		}
	}
}

// execMult runs the Mult sub-op, writing ipu.MultRes for the Acc sub-op to
// consume later in the same cycle.
func execMult(ipu *IPU, inst MultInst, snap *RegFile) error {
	switch inst.Op {
	case MultNop:
		return nil

	case MultEE:
		raBytes := regBytesFromSnap(snap, inst.Ra)
		cyclicBase, maskIdx, shift, err := multMaskOperands(snap, inst)
		if err != nil {
			return err
		}
		var cyclicWindow [RegBytes]byte
		snap.Mult.GetCyclicAt(cyclicBase, cyclicWindow[:])

		dtype, err := snap.Dtype()
		if err != nil {
			return err
		}
		for i := 0; i < RegBytes; i++ {
			res, err := Mult(raBytes[i], cyclicWindow[i], dtype)
			if err != nil {
				return err.(*Fault).WithPC(ipu.PC)
			}
			ipu.MultRes[i] = res
		}
		applyMaskAndShift(ipu, maskIdx, shift)
		return nil

	case MultEV:
		raBytes := regBytesFromSnap(snap, inst.Ra)
		cyclicBase, maskIdx, shift, err := multMaskOperands(snap, inst)
		if err != nil {
			return err
		}
		var cyclicWindow [RegBytes]byte
		snap.Mult.GetCyclicAt(cyclicBase, cyclicWindow[:])
		scalarIdx, err := snap.LRAt(inst.LRScalarIdx, "mult")
		if err != nil {
			return err
		}
		scalar := raBytes[scalarIdx%RegBytes]

		dtype, err := snap.Dtype()
		if err != nil {
			return err
		}
		for i := 0; i < RegBytes; i++ {
			res, err := Mult(scalar, cyclicWindow[i], dtype)
			if err != nil {
				return err.(*Fault).WithPC(ipu.PC)
			}
			ipu.MultRes[i] = res
		}
		applyMaskAndShift(ipu, maskIdx, shift)
		return nil

	default:
		return &Fault{Kind: FaultUnknownOpcode, SubOp: "mult", Field: "unknown mult opcode"}
	}
}

// multMaskOperands resolves the three LR-indirect operands shared by both
// multiply opcodes: the cyclic window base, the mask-table index, and the
// signed shift amount.
func multMaskOperands(snap *RegFile, inst MultInst) (cyclicBase, maskIdx uint32, shift int32, err error) {
	cyclicBase, err = snap.LRAt(inst.LRCyclicBase, "mult")
	if err != nil {
		return 0, 0, 0, err
	}
	maskIdx, err = snap.LRAt(inst.LRMaskIdx, "mult")
	if err != nil {
		return 0, 0, 0, err
	}
	shiftVal, err := snap.LRAt(inst.LRShift, "mult")
	if err != nil {
		return 0, 0, 0, err
	}
	return cyclicBase, maskIdx, int32(shiftVal), nil
}

func regBytesFromSnap(snap *RegFile, r MultReg) []byte {
	switch r {
	case RegR0:
		return snap.Mult.R[0][:]
	case RegR1:
		return snap.Mult.R[1][:]
	default:
		return snap.MemBypass[:]
	}
}
