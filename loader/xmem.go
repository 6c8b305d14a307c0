package loader

import (
	"fmt"
	"os"

	"github.com/openipu/ipu-emulator/ipu"
)

// LoadXMemFile reads a raw binary chunk from path and writes it into the
// IPU's XMEM at base.
func LoadXMemFile(machine *ipu.IPU, path string, base uint32) error {
	data, err := os.ReadFile(path) // #nosec G304 -- user-specified data file path
	if err != nil {
		return fmt.Errorf("loader: reading xmem preload file %q: %w", path, err)
	}
	if err := machine.XMem.Write(base, data); err != nil {
		return fmt.Errorf("loader: preloading xmem at 0x%x: %w", base, err)
	}
	return nil
}

// DumpXMemFile reads length bytes starting at base out of the IPU's XMEM and
// writes them to path as a raw binary chunk.
func DumpXMemFile(machine *ipu.IPU, path string, base, length uint32) error {
	buf := make([]byte, length)
	if err := machine.XMem.Read(base, buf); err != nil {
		return fmt.Errorf("loader: dumping xmem at 0x%x: %w", base, err)
	}
	if err := os.WriteFile(path, buf, 0600); err != nil {
		return fmt.Errorf("loader: writing xmem dump file %q: %w", path, err)
	}
	return nil
}
