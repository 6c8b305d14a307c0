package tools

import (
	"fmt"
	"strings"

	"github.com/openipu/ipu-emulator/ipu"
)

// FormatStyle defines formatting options.
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // one line per record, aligned columns
	FormatCompact                     // minimal whitespace, one line per record
	FormatExpanded                    // one line per sub-op, grouped per record
)

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	Style         FormatStyle
	ShowBlankSlot bool // print nop sub-ops explicitly rather than eliding them
	RecordColumn  int  // column width reserved for the record index
	SkipAllNop    bool // omit all-nop records from the listing
}

// DefaultFormatOptions returns default formatter options.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:         FormatDefault,
		ShowBlankSlot: true,
		RecordColumn:  6,
		SkipAllNop:    true,
	}
}

// CompactFormatOptions returns options for compact formatting.
func CompactFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatCompact
	opts.ShowBlankSlot = false
	return opts
}

// ExpandedFormatOptions returns options for expanded, one-sub-op-per-line
// formatting.
func ExpandedFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatExpanded
	opts.ShowBlankSlot = false
	return opts
}

// Formatter pretty-prints a decoded program.
type Formatter struct {
	options *FormatOptions
	output  strings.Builder
}

// NewFormatter creates a new formatter.
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format renders program as a disassembly-style listing.
func (f *Formatter) Format(program []ipu.Instruction) string {
	f.output.Reset()

	for i, inst := range program {
		if f.options.SkipAllNop && inst == (ipu.Instruction{}) {
			continue
		}
		switch f.options.Style {
		case FormatExpanded:
			f.formatExpanded(i, inst)
		default:
			f.formatOneLine(i, inst)
		}
	}

	return f.output.String()
}

func (f *Formatter) formatOneLine(record int, inst ipu.Instruction) {
	sep := "  "
	if f.options.Style == FormatCompact {
		sep = " "
	}
	fmt.Fprintf(&f.output, "%*d:%s", f.options.RecordColumn, record, sep)

	parts := []string{
		f.slot("xmem", inst.XMem.Op.String()),
		f.slot("lr0", inst.LR0.Op.String()),
		f.slot("lr1", inst.LR1.Op.String()),
		f.slot("mult", inst.Mult.Op.String()),
		f.slot("acc", inst.Acc.Op.String()),
		f.slot("cond", inst.Cond.Op.String()),
		f.slot("brk", inst.Break.Op.String()),
	}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	fmt.Fprintln(&f.output, strings.Join(nonEmpty, sep))
}

func (f *Formatter) slot(name, op string) string {
	if op == "nop" && !f.options.ShowBlankSlot {
		return ""
	}
	return fmt.Sprintf("%s=%s", name, op)
}

func (f *Formatter) formatExpanded(record int, inst ipu.Instruction) {
	fmt.Fprintf(&f.output, "record %d:\n", record)
	if inst.XMem.Op != ipu.XMemNop {
		fmt.Fprintf(&f.output, "  xmem  %s lr=%d cr=%d target=%s\n", inst.XMem.Op, inst.XMem.LR, inst.XMem.CR, inst.XMem.Target)
	}
	if inst.LR0.Op != ipu.LRNop {
		fmt.Fprintf(&f.output, "  lr0   %s -> lr%d\n", inst.LR0.Op, inst.LR0.Target)
	}
	if inst.LR1.Op != ipu.LRNop {
		fmt.Fprintf(&f.output, "  lr1   %s -> lr%d\n", inst.LR1.Op, inst.LR1.Target)
	}
	if inst.Mult.Op != ipu.MultNop {
		fmt.Fprintf(&f.output, "  mult  %s ra=%s\n", inst.Mult.Op, inst.Mult.Ra)
	}
	if inst.Acc.Op != ipu.AccNop {
		fmt.Fprintf(&f.output, "  acc   %s\n", inst.Acc.Op)
	}
	if inst.Cond.Op != ipu.CondNop {
		fmt.Fprintf(&f.output, "  cond  %s label=%d\n", inst.Cond.Op, inst.Cond.Label)
	}
	if inst.Break.Op != ipu.BreakNop {
		fmt.Fprintf(&f.output, "  brk   %s\n", inst.Break.Op)
	}
}

// FormatRegisters renders the LR and CR banks, grouped per row, for
// inclusion in CLI dumps and logs.
func FormatRegisters(regs *ipu.RegFile, perRow int) string {
	var b strings.Builder
	writeBank := func(name string, vals []uint32) {
		for i := 0; i < len(vals); i += perRow {
			end := i + perRow
			if end > len(vals) {
				end = len(vals)
			}
			for j := i; j < end; j++ {
				fmt.Fprintf(&b, "%s%-2d=0x%08X ", name, j, vals[j])
			}
			fmt.Fprintln(&b)
		}
	}
	writeBank("lr", regs.LR[:])
	writeBank("cr", regs.CR[:])
	return b.String()
}

// FormatHexDump renders a hex dump of a byte buffer starting at baseAddr,
// width bytes per row.
func FormatHexDump(baseAddr uint32, data []byte, width int) string {
	var b strings.Builder
	for off := 0; off < len(data); off += width {
		end := off + width
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&b, "0x%06X: % X\n", baseAddr+uint32(off), data[off:end])
	}
	return b.String()
}
