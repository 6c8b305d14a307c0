package ipu

import "testing"

func TestXMemReadWriteRoundTrip(t *testing.T) {
	m := NewXMem()
	data := []byte{1, 2, 3, 4, 5}
	if err := m.Write(100, data); err != nil {
		t.Fatal(err)
	}
	out := make([]byte, len(data))
	if err := m.Read(100, out); err != nil {
		t.Fatal(err)
	}
	for i := range data {
		if out[i] != data[i] {
			t.Fatalf("byte %d: got %d want %d", i, out[i], data[i])
		}
	}
}

func TestXMemUnwrittenReadsZero(t *testing.T) {
	m := NewXMem()
	out := make([]byte, 16)
	if err := m.Read(4096, out); err != nil {
		t.Fatal(err)
	}
	for i, b := range out {
		if b != 0 {
			t.Fatalf("byte %d: got %d want 0", i, b)
		}
	}
}

func TestXMemOutOfRangeFaults(t *testing.T) {
	m := NewXMem()
	if err := m.Write(XMemSize-4, make([]byte, 8)); err == nil {
		t.Fatal("expected an out-of-range fault")
	}
	if err := m.Read(XMemSize+1, make([]byte, 1)); err == nil {
		t.Fatal("expected an out-of-range fault")
	}
}

func TestAlign(t *testing.T) {
	cases := []struct{ in, want uint32 }{
		{0, 0},
		{1, 128},
		{127, 128},
		{128, 128},
		{129, 256},
	}
	for _, c := range cases {
		if got := Align(c.in); got != c.want {
			t.Errorf("Align(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestLoadMatrixRowAlignment(t *testing.T) {
	m := NewXMem()
	rows, cols := 3, 10
	src := make([]byte, rows*cols)
	for i := range src {
		src[i] = byte(i + 1)
	}
	if err := m.LoadMatrix(src, rows, cols, 0); err != nil {
		t.Fatal(err)
	}

	// Each row starts at a 128-byte aligned address: row 0 at 0, row 1 at
	// Align(10)=128, row 2 at Align(138)=256.
	row0 := make([]byte, cols)
	row1 := make([]byte, cols)
	row2 := make([]byte, cols)
	_ = m.Read(0, row0)
	_ = m.Read(128, row1)
	_ = m.Read(256, row2)

	for i := 0; i < cols; i++ {
		if row0[i] != src[i] {
			t.Fatalf("row0[%d] = %d, want %d", i, row0[i], src[i])
		}
		if row1[i] != src[cols+i] {
			t.Fatalf("row1[%d] = %d, want %d", i, row1[i], src[cols+i])
		}
		if row2[i] != src[2*cols+i] {
			t.Fatalf("row2[%d] = %d, want %d", i, row2[i], src[2*cols+i])
		}
	}
}

func TestLoadMatrixShortSourceFaults(t *testing.T) {
	m := NewXMem()
	if err := m.LoadMatrix(make([]byte, 5), 3, 3, 0); err == nil {
		t.Fatal("expected a fault for a too-short matrix source")
	}
}
