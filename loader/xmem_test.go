package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openipu/ipu-emulator/ipu"
)

func TestLoadXMemFileWritesAtBase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	data := []byte{10, 20, 30, 40}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	m := ipu.NewIPU()
	if err := LoadXMemFile(m, path, 0x1000); err != nil {
		t.Fatal(err)
	}

	out := make([]byte, len(data))
	if err := m.XMem.Read(0x1000, out); err != nil {
		t.Fatal(err)
	}
	for i := range data {
		if out[i] != data[i] {
			t.Fatalf("byte %d: got %d want %d", i, out[i], data[i])
		}
	}
}

func TestLoadXMemFileMissingFileErrors(t *testing.T) {
	m := ipu.NewIPU()
	if err := LoadXMemFile(m, filepath.Join(t.TempDir(), "missing.bin"), 0); err == nil {
		t.Fatal("expected an error for a missing preload file")
	}
}

func TestDumpXMemFileRoundTrip(t *testing.T) {
	m := ipu.NewIPU()
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := m.XMem.Write(0x2000, data); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "dump.bin")
	if err := DumpXMemFile(m, path, 0x2000, uint32(len(data))); err != nil {
		t.Fatal(err)
	}

	out, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != string(data) {
		t.Fatalf("dumped bytes = %v, want %v", out, data)
	}
}

func TestDumpXMemFileOutOfRangeErrors(t *testing.T) {
	m := ipu.NewIPU()
	path := filepath.Join(t.TempDir(), "dump.bin")
	if err := DumpXMemFile(m, path, ipu.XMemSize-4, 64); err == nil {
		t.Fatal("expected an out-of-range error")
	}
}
