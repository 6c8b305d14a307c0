package ipu

import "fmt"

// FaultKind categorizes a fatal engine error.
type FaultKind int

const (
	FaultUnknownOpcode         FaultKind = iota
	FaultLRConflict                      // two LR sub-ops in one cycle wrote the same index
	FaultBypassStore                     // bypass register used as a store source
	FaultMisalignedCyclicWrite           // cyclic deposit index not aligned to 128
	FaultOutOfRange                      // XMEM or register index out of bounds
	FaultInvalidDtype                    // cr[15] does not name a supported dtype
	FaultRegisterIndex                   // LR/CR/mult-stage index out of range
	FaultAccIndex                        // accumulate index outside 0..128 words
)

func (k FaultKind) String() string {
	switch k {
	case FaultUnknownOpcode:
		return "unknown opcode"
	case FaultLRConflict:
		return "lr conflict"
	case FaultBypassStore:
		return "bypass store"
	case FaultMisalignedCyclicWrite:
		return "misaligned cyclic write"
	case FaultOutOfRange:
		return "out of range"
	case FaultInvalidDtype:
		return "invalid dtype"
	case FaultRegisterIndex:
		return "register index"
	case FaultAccIndex:
		return "acc index"
	default:
		return "unknown fault"
	}
}

// Fault is the single fatal-error type the engine raises. Every program-
// well-formedness and state-bounds error surfaces as a Fault naming the
// failing sub-op, the offending field, and the PC at the time of the fault,
// so callers can print a one-line diagnostic without reconstructing context.
type Fault struct {
	Kind  FaultKind
	SubOp string // "xmem", "lr", "mult", "acc", "cond", "break"
	Field string // the offending field/value, e.g. "lr_idx=7"
	PC    uint32
}

func (f *Fault) Error() string {
	return fmt.Sprintf("pc=%d: %s sub-op fault (%s): %s", f.PC, f.SubOp, f.Kind, f.Field)
}

func newFault(kind FaultKind, subOp, field string, pc uint32) *Fault {
	return &Fault{Kind: kind, SubOp: subOp, Field: field, PC: pc}
}

// WithPC returns a copy of f with PC set, used to attach cycle context to a
// fault raised deep inside the numeric kernel (which has no PC of its own).
func (f *Fault) WithPC(pc uint32) *Fault {
	cp := *f
	cp.PC = pc
	return &cp
}
