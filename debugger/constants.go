package debugger

// TUI Display Update Constants
const (
	// DisplayUpdateFrequency controls how often the TUI display updates during continuous execution
	// (every N cycles to keep display responsive without overwhelming the terminal)
	DisplayUpdateFrequency = 100
)

// Code View Context Constants
const (
	// CodeContextInstructions is the number of instruction-memory records
	// shown around PC in the TUI's instruction panel
	CodeContextInstructions = 10
)

// XMEM Display Constants
const (
	// XMemDisplayRows is the number of rows to show in the XMEM hex dump view
	XMemDisplayRows = 16

	// XMemDisplayColumns is the number of bytes per row in the XMEM hex dump view
	XMemDisplayColumns = 16
)

// Register Display Constants
const (
	// RegisterViewRows is the fixed height of the register view panel
	// (two LR rows + two CR rows + status line + borders)
	RegisterViewRows = 7

	// RegisterGroupSize is the number of LR/CR registers displayed per row
	RegisterGroupSize = 8
)
