package loader

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/openipu/ipu-emulator/ipu"
)

// LoadFP32File reads a raw fp32 (4-byte float, native byte order) data file,
// converts every value to the target low-precision dtype, and writes the
// converted bytes into XMEM at base. Grounded on
// original_source/src/lib/fp/fp.c's fp__load_fp32_file_to_xmem: a
// supplemented convenience loader on top of the raw-binary XMEM preload
// contract, for applications that ship weights
// as plain fp32 and expect the loader to quantize them.
//
// dtype must be one of FP4, FP8_E4M3, FP8_E5M2, or FP16 -- the only dtypes
// with a byte-packed wire encoding a raw data file can carry (INT4/INT8/TF32
// have no fp32 source form this loader makes sense for).
func LoadFP32File(machine *ipu.IPU, path string, dtype ipu.Dtype, base uint32) error {
	raw, err := os.ReadFile(path) // #nosec G304 -- user-specified data file path
	if err != nil {
		return fmt.Errorf("loader: reading fp32 file %q: %w", path, err)
	}
	if len(raw)%4 != 0 {
		return fmt.Errorf("loader: fp32 file %q length %d is not a multiple of 4 bytes", path, len(raw))
	}

	elemSize, err := fp32ElementSize(dtype)
	if err != nil {
		return err
	}

	numValues := len(raw) / 4
	out := make([]byte, numValues*elemSize)
	for i := 0; i < numValues; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		v := math.Float32frombits(bits)
		packed := ipu.FromFP32(v, dtype)
		switch elemSize {
		case 1:
			out[i] = byte(packed)
		case 2:
			binary.LittleEndian.PutUint16(out[i*2:i*2+2], uint16(packed))
		}
	}

	if err := machine.XMem.Write(base, out); err != nil {
		return fmt.Errorf("loader: loading converted fp32 data at 0x%x: %w", base, err)
	}
	return nil
}

func fp32ElementSize(d ipu.Dtype) (int, error) {
	switch d {
	case ipu.DtypeFP4, ipu.DtypeFP8E4M3, ipu.DtypeFP8E5M2:
		return 1, nil
	case ipu.DtypeFP16:
		return 2, nil
	default:
		return 0, fmt.Errorf("loader: dtype %s has no fp32-file conversion target", d)
	}
}
