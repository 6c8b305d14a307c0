package ipu

// XMem is the flat 2MiB byte-addressable external memory (C2). Its only
// invariant is that reads return last-written bytes and unwritten bytes read
// as zero; all access is bounds-checked.
type XMem struct {
	data [XMemSize]byte
}

// NewXMem returns a zero-initialized XMem.
func NewXMem() *XMem {
	return &XMem{}
}

// Read copies len(buf) bytes starting at addr into buf. Fatal if the access
// runs past XMemSize.
func (m *XMem) Read(addr uint32, buf []byte) error {
	if err := m.checkBounds(addr, len(buf)); err != nil {
		return err
	}
	copy(buf, m.data[addr:addr+uint32(len(buf))])
	return nil
}

// Write copies buf into XMem starting at addr. Fatal if the access runs past
// XMemSize.
func (m *XMem) Write(addr uint32, buf []byte) error {
	if err := m.checkBounds(addr, len(buf)); err != nil {
		return err
	}
	copy(m.data[addr:addr+uint32(len(buf))], buf)
	return nil
}

func (m *XMem) checkBounds(addr uint32, n int) error {
	if n == 0 {
		return nil
	}
	if uint64(addr)+uint64(n) > uint64(XMemSize) {
		return &Fault{Kind: FaultOutOfRange, SubOp: "xmem", Field: "address out of range"}
	}
	return nil
}

// Align rounds addr up to the next multiple of XMemWidth (128 bytes).
func Align(addr uint32) uint32 {
	rem := addr % XMemWidth
	if rem == 0 {
		return addr
	}
	return addr + (XMemWidth - rem)
}

// LoadArray writes src into XMem at start, a plain contiguous copy.
func (m *XMem) LoadArray(src []byte, start uint32) error {
	return m.Write(start, src)
}

// LoadMatrix writes a rows x cols byte matrix into XMem, one row at a time,
// with each row starting on a 128-byte-aligned address.
func (m *XMem) LoadMatrix(src []byte, rows, cols int, start uint32) error {
	if len(src) < rows*cols {
		return &Fault{Kind: FaultOutOfRange, SubOp: "xmem", Field: "matrix source too short"}
	}
	addr := start
	for r := 0; r < rows; r++ {
		row := src[r*cols : (r+1)*cols]
		if err := m.Write(addr, row); err != nil {
			return err
		}
		addr = Align(addr + uint32(cols))
	}
	return nil
}
