package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openipu/ipu-emulator/ipu"
)

// ConditionEvaluator evaluates the small breakpoint/watchpoint condition
// grammar: "<operand> <op> <operand>", where an operand is lrN, crN, pc,
// cycles, or an integer literal (decimal or 0x-prefixed hex), and op is one
// of == != < <= > >=. This is deliberately a single comparison, not a full
// expression language: the IPU's debug surface is a flat register file with
// no call stack or memory addressing mode worth a richer grammar for.
type ConditionEvaluator struct{}

// NewConditionEvaluator returns a ready-to-use evaluator.
func NewConditionEvaluator() *ConditionEvaluator { return &ConditionEvaluator{} }

// Evaluate parses and evaluates expr against the IPU's live state.
func (e *ConditionEvaluator) Evaluate(expr string, machine *ipu.IPU) (bool, error) {
	fields := strings.Fields(expr)
	if len(fields) != 3 {
		return false, fmt.Errorf("expr: expected '<operand> <op> <operand>', got %q", expr)
	}

	lhs, err := e.operand(fields[0], machine)
	if err != nil {
		return false, err
	}
	rhs, err := e.operand(fields[2], machine)
	if err != nil {
		return false, err
	}

	switch fields[1] {
	case "==":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">":
		return lhs > rhs, nil
	case ">=":
		return lhs >= rhs, nil
	default:
		return false, fmt.Errorf("expr: unknown operator %q", fields[1])
	}
}

func (e *ConditionEvaluator) operand(tok string, machine *ipu.IPU) (uint32, error) {
	lower := strings.ToLower(tok)

	switch {
	case lower == "pc":
		return machine.PC, nil
	case lower == "cycles":
		return uint32(machine.Cycles), nil
	case strings.HasPrefix(lower, "lr"):
		idx, err := strconv.Atoi(lower[2:])
		if err != nil || idx < 0 || idx >= ipu.LRRegs {
			return 0, fmt.Errorf("expr: invalid lr operand %q", tok)
		}
		return machine.Regs.LR[idx], nil
	case strings.HasPrefix(lower, "cr"):
		idx, err := strconv.Atoi(lower[2:])
		if err != nil || idx < 0 || idx >= ipu.CRRegs {
			return 0, fmt.Errorf("expr: invalid cr operand %q", tok)
		}
		return machine.Regs.CR[idx], nil
	default:
		v, err := strconv.ParseUint(lower, 0, 32)
		if err != nil {
			return 0, fmt.Errorf("expr: invalid operand %q", tok)
		}
		return uint32(v), nil
	}
}
