// Package tools provides static analysis and formatting utilities that run
// ahead of the cycle engine: a linter that catches program-well-formedness
// errors, and a formatter for dumping decoded programs and machine state in
// human-readable form.
package tools

import (
	"fmt"
	"sort"

	"github.com/openipu/ipu-emulator/ipu"
)

// LintLevel represents the severity of a lint issue.
type LintLevel int

const (
	LintError   LintLevel = iota // would abort the cycle engine at runtime
	LintWarning                  // legal but suspicious
	LintInfo                     // style/cleanliness suggestion
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue represents a single lint finding, anchored to an instruction
// record index rather than a source line since programs are already
// decoded by the time they reach the linter.
type LintIssue struct {
	Level   LintLevel
	Record  int
	Message string
	Code    string
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("record %d: %s: %s [%s]", i.Record, i.Level, i.Message, i.Code)
}

// LintOptions controls linter behavior.
type LintOptions struct {
	Strict        bool // treat warnings as errors
	CheckReach    bool // check for a run of trailing all-NOP records after the last live record
	CheckRegIndex bool // check LR/CR/mult-stage indices are in range
	CheckDtype    bool // report a mult sub-op with no acc sub-op in its record (MULT_WITHOUT_ACC)
}

// DefaultLintOptions returns default linter options.
func DefaultLintOptions() *LintOptions {
	return &LintOptions{
		Strict:        false,
		CheckReach:    true,
		CheckRegIndex: true,
		CheckDtype:    true,
	}
}

// Linter analyzes a decoded program for issues ahead of execution.
type Linter struct {
	options *LintOptions
	issues  []*LintIssue
}

// NewLinter creates a new linter.
func NewLinter(options *LintOptions) *Linter {
	if options == nil {
		options = DefaultLintOptions()
	}
	return &Linter{options: options, issues: make([]*LintIssue, 0)}
}

// Lint analyzes a decoded program, returning issues sorted by record index.
func (l *Linter) Lint(program []ipu.Instruction) []*LintIssue {
	l.issues = l.issues[:0]

	for i, inst := range program {
		l.checkXMem(i, inst)
		l.checkLRConflict(i, inst)
		l.checkMult(i, inst)
		l.checkAcc(i, inst)
		l.checkCond(i, inst)
		l.checkBreak(i, inst)
	}

	if l.options.CheckReach {
		l.checkUnreachableTail(program)
	}

	sort.SliceStable(l.issues, func(a, b int) bool {
		return l.issues[a].Record < l.issues[b].Record
	})

	if l.options.Strict {
		for _, issue := range l.issues {
			if issue.Level == LintWarning {
				issue.Level = LintError
			}
		}
	}

	return l.issues
}

func (l *Linter) add(record int, level LintLevel, code, message string) {
	l.issues = append(l.issues, &LintIssue{Level: level, Record: record, Message: message, Code: code})
}

// checkXMem validates the XMEM sub-op's opcode and operand ranges.
//
// Note: storing the bypass register to XMEM would be a fatal condition, but
// the decoded instruction format has no opcode that stores any multi-stage
// register to XMEM (STR_ACC_REG always stores the accumulator; it is the
// only XMEM write path). ipu.FaultBypassStore exists for completeness with
// every value ipu.FaultKind can represent, so there is nothing for the
// linter to flag here.
func (l *Linter) checkXMem(record int, inst ipu.Instruction) {
	switch inst.XMem.Op {
	case ipu.XMemNop, ipu.XMemStrAccReg, ipu.XMemLdrMultReg, ipu.XMemLdrMultMaskReg, ipu.XMemLdrCyclicMultReg:
	default:
		l.add(record, LintError, "UNKNOWN_OPCODE", "unrecognized xmem opcode")
		return
	}

	if !l.options.CheckRegIndex {
		return
	}
	switch inst.XMem.Op {
	case ipu.XMemStrAccReg, ipu.XMemLdrMultReg, ipu.XMemLdrMultMaskReg:
		l.checkLRIndex(record, "xmem", inst.XMem.LR)
		l.checkCRIndex(record, "xmem", inst.XMem.CR)
	case ipu.XMemLdrCyclicMultReg:
		l.checkLRIndex(record, "xmem", inst.XMem.LR)
		l.checkLRIndex(record, "xmem", inst.XMem.LRIdx)
		l.checkCRIndex(record, "xmem", inst.XMem.CR)
	}
}

// checkLRConflict flags the two LR slots writing the same target index, the
// same fatal condition ipu.execLRSlots raises at runtime, caught here ahead of time.
func (l *Linter) checkLRConflict(record int, inst ipu.Instruction) {
	if inst.LR0.IsRealWrite() && inst.LR1.IsRealWrite() && inst.LR0.Target == inst.LR1.Target {
		l.add(record, LintError, "LR_CONFLICT", fmt.Sprintf("both lr sub-ops write lr%d this cycle", inst.LR0.Target))
	}

	if !l.options.CheckRegIndex {
		return
	}
	for _, slot := range []ipu.LRInst{inst.LR0, inst.LR1} {
		switch slot.Op {
		case ipu.LRNop:
		case ipu.LRSet, ipu.LRIncr:
			l.checkLRIndex(record, "lr", slot.Target)
		case ipu.LRAdd, ipu.LRSub:
			l.checkLRIndex(record, "lr", slot.Target)
			l.checkLCR(record, slot.A)
			l.checkLCR(record, slot.B)
		default:
			l.add(record, LintError, "UNKNOWN_OPCODE", "unrecognized lr opcode")
		}
	}
}

func (l *Linter) checkMult(record int, inst ipu.Instruction) {
	switch inst.Mult.Op {
	case ipu.MultNop:
		return
	case ipu.MultEE, ipu.MultEV:
	default:
		l.add(record, LintError, "UNKNOWN_OPCODE", "unrecognized mult opcode")
		return
	}

	if !l.options.CheckRegIndex {
		return
	}
	l.checkLRIndex(record, "mult", inst.Mult.LRCyclicBase)
	l.checkLRIndex(record, "mult", inst.Mult.LRMaskIdx)
	l.checkLRIndex(record, "mult", inst.Mult.LRShift)
	if inst.Mult.Op == ipu.MultEV {
		l.checkLRIndex(record, "mult", inst.Mult.LRScalarIdx)
	}

	if l.options.CheckDtype && inst.Cond.Op == ipu.CondNop && inst.Acc.Op == ipu.AccNop {
		l.add(record, LintInfo, "MULT_WITHOUT_ACC", "mult sub-op issues with no acc sub-op in the same record; result is discarded")
	}
}

func (l *Linter) checkAcc(record int, inst ipu.Instruction) {
	switch inst.Acc.Op {
	case ipu.AccNop, ipu.Acc, ipu.AccReset:
		return
	case ipu.AccAgg:
	default:
		l.add(record, LintError, "UNKNOWN_OPCODE", "unrecognized acc opcode")
		return
	}
	if l.options.CheckRegIndex {
		l.checkLRIndex(record, "acc", inst.Acc.AggLRIdx)
	}
}

func (l *Linter) checkCond(record int, inst ipu.Instruction) {
	switch inst.Cond.Op {
	case ipu.CondNop, ipu.CondB, ipu.CondBKPT:
		return
	case ipu.CondBEQ, ipu.CondBNE, ipu.CondBLT, ipu.CondBZ, ipu.CondBNZ, ipu.CondBR:
	default:
		l.add(record, LintError, "UNKNOWN_OPCODE", "unrecognized cond opcode")
		return
	}
	if !l.options.CheckRegIndex {
		return
	}
	switch inst.Cond.Op {
	case ipu.CondBEQ, ipu.CondBNE, ipu.CondBLT:
		l.checkLRIndex(record, "cond", inst.Cond.LR1)
		l.checkLRIndex(record, "cond", inst.Cond.LR2)
	case ipu.CondBZ, ipu.CondBNZ, ipu.CondBR:
		l.checkLRIndex(record, "cond", inst.Cond.LR1)
	}
}

func (l *Linter) checkBreak(record int, inst ipu.Instruction) {
	switch inst.Break.Op {
	case ipu.BreakNop, ipu.Break:
		return
	case ipu.BreakIfEQ:
	default:
		l.add(record, LintError, "UNKNOWN_OPCODE", "unrecognized break opcode")
		return
	}
	if l.options.CheckRegIndex && inst.Break.Op == ipu.BreakIfEQ {
		l.checkLRIndex(record, "break", inst.Break.LR)
	}
}

func (l *Linter) checkLRIndex(record int, subOp string, idx int) {
	if idx < 0 || idx >= ipu.LRRegs {
		l.add(record, LintError, "REG_INDEX", fmt.Sprintf("%s sub-op references lr%d, out of range [0,%d)", subOp, idx, ipu.LRRegs))
	}
}

func (l *Linter) checkCRIndex(record int, subOp string, idx int) {
	if idx < 0 || idx >= ipu.CRRegs {
		l.add(record, LintError, "REG_INDEX", fmt.Sprintf("%s sub-op references cr%d, out of range [0,%d)", subOp, idx, ipu.CRRegs))
	}
}

func (l *Linter) checkLCR(record int, h ipu.LCR) {
	if h.IsCR() {
		l.checkCRIndex(record, "lr", h.Index())
		return
	}
	l.checkLRIndex(record, "lr", h.Index())
}

// checkUnreachableTail flags a long run of trailing all-NOP records after
// the last non-NOP record, a common sign of a program whose author
// overshot InstMemSize padding expectations.
func (l *Linter) checkUnreachableTail(program []ipu.Instruction) {
	last := -1
	for i, inst := range program {
		if inst != (ipu.Instruction{}) {
			last = i
		}
	}
	if last >= 0 && last < len(program)-1 {
		trailing := len(program) - 1 - last
		if trailing > 1 {
			l.add(last+1, LintInfo, "TRAILING_NOP", fmt.Sprintf("%d trailing all-nop records after the last live record", trailing))
		}
	}
}
