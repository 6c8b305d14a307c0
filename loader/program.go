// Package loader reads program and data files produced by the external
// assembler/tooling and installs them into an ipu.IPU. The emulator never parses source text; it only consumes the
// decoded binary records this package understands.
package loader

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/openipu/ipu-emulator/ipu"
)

// RecordWords is the number of little-endian uint32 fields in one encoded
// instruction record. RecordBytes is its size on disk.
const (
	RecordWords = 30
	RecordBytes = RecordWords * 4
)

// LoadProgramFile reads a program file from path and decodes it into a
// sequence of ipu.Instruction records. The
// returned slice is never longer than ipu.InstMemSize; ipu.IPU.LoadProgram
// pads the remainder of instruction memory with NOPs.
func LoadProgramFile(path string) ([]ipu.Instruction, error) {
	f, err := os.Open(path) // #nosec G304 -- user-specified program file path
	if err != nil {
		return nil, fmt.Errorf("loader: opening program file: %w", err)
	}
	defer f.Close()

	return DecodeProgram(f)
}

// DecodeProgram reads an ordered sequence of fixed-size instruction records
// from r. A trailing partial record is a fatal format error;
// there is no padding here, since ipu.IPU.LoadProgram already pads a short
// program out to InstMemSize with NOPs.
func DecodeProgram(r io.Reader) ([]ipu.Instruction, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("loader: reading program stream: %w", err)
	}

	if len(raw)%RecordBytes != 0 {
		return nil, fmt.Errorf("loader: partial instruction record: stream length %d is not a multiple of %d bytes", len(raw), RecordBytes)
	}

	numRecords := len(raw) / RecordBytes
	if numRecords > ipu.InstMemSize {
		return nil, fmt.Errorf("loader: program has %d records, exceeds InstMemSize (%d)", numRecords, ipu.InstMemSize)
	}

	program := make([]ipu.Instruction, numRecords)
	for i := 0; i < numRecords; i++ {
		program[i] = decodeRecord(raw[i*RecordBytes : (i+1)*RecordBytes])
	}
	return program, nil
}

// decodeRecord unpacks one RecordBytes-sized slice into an Instruction. The
// wire layout is a flat sequence of RecordWords little-endian uint32 fields,
// one per decoded-struct field in slot order (XMEM, LR0, LR1, Mult, Acc,
// Cond, Break); this keeps the on-disk format free of any Go struct padding
// concerns.
func decodeRecord(buf []byte) ipu.Instruction {
	var w [RecordWords]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}

	return ipu.Instruction{
		XMem: ipu.XMemInst{
			Op:     ipu.XMemOp(w[0]),
			Target: ipu.MultReg(w[1]),
			LR:     int(w[2]),
			LRIdx:  int(w[3]),
			CR:     int(w[4]),
		},
		LR0: ipu.LRInst{
			Op:     ipu.LROp(w[5]),
			Target: int(w[6]),
			A:      ipu.LCR(w[7]),
			B:      ipu.LCR(w[8]),
			Imm:    w[9],
		},
		LR1: ipu.LRInst{
			Op:     ipu.LROp(w[10]),
			Target: int(w[11]),
			A:      ipu.LCR(w[12]),
			B:      ipu.LCR(w[13]),
			Imm:    w[14],
		},
		Mult: ipu.MultInst{
			Op:           ipu.MultOp(w[15]),
			Ra:           ipu.MultReg(w[16]),
			LRCyclicBase: int(w[17]),
			LRMaskIdx:    int(w[18]),
			LRShift:      int(w[19]),
			LRScalarIdx:  int(w[20]),
		},
		Acc: ipu.AccInst{
			Op:       ipu.AccOp(w[21]),
			AggLRIdx: int(w[22]),
		},
		Cond: ipu.CondInst{
			Op:    ipu.CondOp(w[23]),
			LR1:   int(w[24]),
			LR2:   int(w[25]),
			Label: w[26],
		},
		Break: ipu.BreakInst{
			Op:  ipu.BreakOp(w[27]),
			LR:  int(w[28]),
			Imm: w[29],
		},
	}
}

// EncodeRecord packs an Instruction back into its RecordBytes-sized wire
// form, the inverse of decodeRecord. Exported for tooling (tests, and any
// program-file writer) that needs to round-trip instructions.
func EncodeRecord(inst ipu.Instruction) []byte {
	w := [RecordWords]uint32{
		uint32(inst.XMem.Op), uint32(inst.XMem.Target), uint32(inst.XMem.LR), uint32(inst.XMem.LRIdx), uint32(inst.XMem.CR),
		uint32(inst.LR0.Op), uint32(inst.LR0.Target), uint32(inst.LR0.A), uint32(inst.LR0.B), inst.LR0.Imm,
		uint32(inst.LR1.Op), uint32(inst.LR1.Target), uint32(inst.LR1.A), uint32(inst.LR1.B), inst.LR1.Imm,
		uint32(inst.Mult.Op), uint32(inst.Mult.Ra), uint32(inst.Mult.LRCyclicBase), uint32(inst.Mult.LRMaskIdx), uint32(inst.Mult.LRShift), uint32(inst.Mult.LRScalarIdx),
		uint32(inst.Acc.Op), uint32(inst.Acc.AggLRIdx),
		uint32(inst.Cond.Op), uint32(inst.Cond.LR1), uint32(inst.Cond.LR2), inst.Cond.Label,
		uint32(inst.Break.Op), uint32(inst.Break.LR), inst.Break.Imm,
	}

	buf := make([]byte, RecordBytes)
	for i, v := range w {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], v)
	}
	return buf
}
