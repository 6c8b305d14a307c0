package loader

import (
	"bytes"
	"testing"

	"github.com/openipu/ipu-emulator/ipu"
)

func TestEncodeDecodeRecordRoundTrip(t *testing.T) {
	inst := ipu.Instruction{
		XMem: ipu.XMemInst{Op: ipu.XMemLdrMultReg, Target: ipu.RegR1, LR: 3, LRIdx: 2, CR: 1},
		LR0:  ipu.LRInst{Op: ipu.LRAdd, Target: 5, A: ipu.LCR(1), B: ipu.LCR(2)},
		LR1:  ipu.LRInst{Op: ipu.LRSet, Target: 6, Imm: 99},
		Mult: ipu.MultInst{Op: ipu.MultEE, Ra: ipu.RegR0, LRCyclicBase: 1, LRMaskIdx: 2, LRShift: 3, LRScalarIdx: 4},
		Acc:  ipu.AccInst{Op: ipu.AccAgg, AggLRIdx: 7},
		Cond: ipu.CondInst{Op: ipu.CondBEQ, LR1: 1, LR2: 2, Label: 42},
		Break: ipu.BreakInst{
			Op:  ipu.BreakIfEQ,
			LR:  3,
			Imm: 7,
		},
	}

	buf := EncodeRecord(inst)
	if len(buf) != RecordBytes {
		t.Fatalf("encoded record length = %d, want %d", len(buf), RecordBytes)
	}

	got := decodeRecord(buf)
	if got != inst {
		t.Fatalf("decodeRecord(EncodeRecord(inst)) = %+v, want %+v", got, inst)
	}
}

func TestDecodeProgramMultipleRecords(t *testing.T) {
	insts := []ipu.Instruction{
		{LR0: ipu.LRInst{Op: ipu.LRSet, Target: 0, Imm: 1}},
		{LR0: ipu.LRInst{Op: ipu.LRSet, Target: 1, Imm: 2}},
		{Cond: ipu.CondInst{Op: ipu.CondBKPT}},
	}

	var buf bytes.Buffer
	for _, inst := range insts {
		buf.Write(EncodeRecord(inst))
	}

	program, err := DecodeProgram(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(program) != len(insts) {
		t.Fatalf("got %d records, want %d", len(program), len(insts))
	}
	for i := range insts {
		if program[i] != insts[i] {
			t.Fatalf("record %d: got %+v, want %+v", i, program[i], insts[i])
		}
	}
}

func TestDecodeProgramPartialRecordErrors(t *testing.T) {
	buf := bytes.NewReader(make([]byte, RecordBytes+3))
	if _, err := DecodeProgram(buf); err == nil {
		t.Fatal("expected an error for a partial trailing record")
	}
}

func TestDecodeProgramExceedsInstMemSizeErrors(t *testing.T) {
	buf := bytes.NewReader(make([]byte, (ipu.InstMemSize+1)*RecordBytes))
	if _, err := DecodeProgram(buf); err == nil {
		t.Fatal("expected an error when the record count exceeds InstMemSize")
	}
}
