package ipu

// IPU is the complete emulator state (C3-C6): the register file, XMEM,
// instruction memory, program counter, and the transient mult->acc scratch
// buffer. It is created once at startup and owns all mutable state until
// the run loop terminates.
type IPU struct {
	Regs    RegFile
	XMem    *XMem
	InstMem [InstMemSize]Instruction
	PC      uint32

	// MultRes is the pipeline scratch register (misc.mult_res): the
	// multiply stage's 128-lane output, one 32-bit accumulator-width word
	// per lane (raw i32 or f32 bits, matching the dtype active when Mult
	// ran), consumed by the Acc sub-op within the same cycle.
	MultRes [AccRTWords]uint32

	// Cycles counts completed cycles, for statistics/tracing.
	Cycles uint64
}

// NewIPU returns a zero-initialized IPU: all registers zero, XMEM zero,
// instruction memory all-NOP, PC at 0.
func NewIPU() *IPU {
	return &IPU{XMem: NewXMem()}
}

// Reset restores the IPU to its zero-initialized state without reloading a
// program or XMEM contents.
func (ipu *IPU) Reset() {
	ipu.Regs = RegFile{}
	ipu.XMem = NewXMem()
	ipu.PC = 0
	ipu.MultRes = [AccRTWords]uint32{}
	ipu.Cycles = 0
}

// Halted reports whether PC has reached its terminal value.
func (ipu *IPU) Halted() bool {
	return ipu.PC >= InstMemSize
}

// LoadProgram copies decoded instructions into instruction memory starting
// at index 0, padding the remainder with NOPs. It is fatal to
// pass more than InstMemSize instructions.
func (ipu *IPU) LoadProgram(program []Instruction) error {
	if len(program) > InstMemSize {
		return &Fault{Kind: FaultOutOfRange, SubOp: "load", Field: "program exceeds InstMemSize"}
	}
	ipu.InstMem = [InstMemSize]Instruction{}
	copy(ipu.InstMem[:], program)
	return nil
}
