package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/openipu/ipu-emulator/ipu"
)

// TUI is the tcell/tview text UI front end for a Debugger session.
type TUI struct {
	Debugger *Debugger
	App      *tview.Application
	Pages    *tview.Pages

	MainLayout *tview.Flex
	LeftPanel  *tview.Flex
	RightPanel *tview.Flex

	InstructionsView *tview.TextView
	RegisterView     *tview.TextView
	XMemView         *tview.TextView
	BreakpointsView  *tview.TextView
	OutputView       *tview.TextView
	CommandInput     *tview.InputField

	XMemAddress uint32
}

// NewTUI builds the view tree for debugger.
func NewTUI(debugger *Debugger) *TUI {
	t := &TUI{
		Debugger: debugger,
		App:      tview.NewApplication(),
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

func (t *TUI) initializeViews() {
	t.InstructionsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.InstructionsView.SetBorder(true).SetTitle(" Instructions ")

	t.RegisterView = tview.NewTextView().SetDynamicColors(true).SetScrollable(false)
	t.RegisterView.SetBorder(true).SetTitle(" Registers ")

	t.XMemView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.XMemView.SetBorder(true).SetTitle(" XMEM ")

	t.BreakpointsView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(false)
	t.BreakpointsView.SetBorder(true).SetTitle(" Breakpoints/Watchpoints ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output ")

	t.CommandInput = tview.NewInputField().SetLabel("> ").SetFieldWidth(0)
	t.CommandInput.SetBorder(true).SetTitle(" Command ")
	t.CommandInput.SetDoneFunc(t.handleCommand)
}

func (t *TUI) buildLayout() {
	t.LeftPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.InstructionsView, 0, 2, false).
		AddItem(t.XMemView, 0, 1, false)

	t.RightPanel = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.RegisterView, RegisterViewRows, 0, false).
		AddItem(t.BreakpointsView, 0, 1, false)

	mainContent := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.LeftPanel, 0, 2, false).
		AddItem(t.RightPanel, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(mainContent, 0, 4, false).
		AddItem(t.OutputView, 8, 0, false).
		AddItem(t.CommandInput, 3, 0, true)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF1:
			t.executeCommand("help")
			return nil
		case tcell.KeyF5:
			t.executeCommand("continue")
			return nil
		case tcell.KeyF11:
			t.executeCommand("step")
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		case tcell.KeyCtrlL:
			t.RefreshAll()
			return nil
		}
		return event
	})
}

func (t *TUI) handleCommand(key tcell.Key) {
	if key == tcell.KeyEnter {
		cmd := t.CommandInput.GetText()
		if cmd != "" {
			t.executeCommand(cmd)
			t.CommandInput.SetText("")
		}
	}
}

func (t *TUI) executeCommand(cmd string) {
	t.Debugger.Output.Reset()

	err := t.Debugger.ExecuteCommand(cmd)
	output := t.Debugger.GetOutput()

	if err != nil {
		t.WriteOutput(fmt.Sprintf("[red]Error:[white] %v\n", err))
	}
	if output != "" {
		t.WriteOutput(output)
	}

	if t.Debugger.Running && !t.Debugger.quit {
		if _, stepErr := t.Debugger.Machine.Step(t.Debugger); stepErr != nil {
			t.WriteOutput(fmt.Sprintf("[red]Runtime error:[white] %v\n", stepErr))
		}
		t.Debugger.Running = false
	}
	if t.Debugger.quit {
		t.App.Stop()
		return
	}

	t.RefreshAll()
}

// WriteOutput appends text to the output panel.
func (t *TUI) WriteOutput(text string) {
	_, _ = t.OutputView.Write([]byte(text)) // ignore write errors in TUI
	t.OutputView.ScrollToEnd()
}

// RefreshAll redraws every panel from current IPU state.
func (t *TUI) RefreshAll() {
	t.UpdateInstructionsView()
	t.UpdateRegisterView()
	t.UpdateXMemView()
	t.UpdateBreakpointsView()
	t.App.Draw()
}

// UpdateInstructionsView shows the instruction records around PC.
func (t *TUI) UpdateInstructionsView() {
	t.InstructionsView.Clear()

	m := t.Debugger.Machine
	start := 0
	if int(m.PC) > CodeContextInstructions {
		start = int(m.PC) - CodeContextInstructions
	}
	end := start + 2*CodeContextInstructions
	if end > ipu.InstMemSize {
		end = ipu.InstMemSize
	}

	var lines []string
	for i := start; i < end; i++ {
		marker := "  "
		if uint32(i) == m.PC {
			marker = "[yellow]->[white]"
		}
		inst := m.InstMem[i]
		lines = append(lines, fmt.Sprintf("%s %4d: xmem=%s lr0=%s lr1=%s mult=%s acc=%s cond=%s brk=%s",
			marker, i, inst.XMem.Op, inst.LR0.Op, inst.LR1.Op, inst.Mult.Op, inst.Acc.Op, inst.Cond.Op, inst.Break.Op))
	}
	t.InstructionsView.SetText(strings.Join(lines, "\n"))
}

// UpdateRegisterView shows PC/cycles and the LR/CR banks.
func (t *TUI) UpdateRegisterView() {
	t.RegisterView.Clear()

	m := t.Debugger.Machine
	var lines []string

	for i := 0; i < ipu.LRRegs; i += RegisterGroupSize {
		var cols []string
		for j := i; j < i+RegisterGroupSize && j < ipu.LRRegs; j++ {
			cols = append(cols, fmt.Sprintf("lr%-2d:0x%08X", j, m.Regs.LR[j]))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}
	for i := 0; i < ipu.CRRegs; i += RegisterGroupSize {
		var cols []string
		for j := i; j < i+RegisterGroupSize && j < ipu.CRRegs; j++ {
			cols = append(cols, fmt.Sprintf("cr%-2d:0x%08X", j, m.Regs.CR[j]))
		}
		lines = append(lines, strings.Join(cols, "  "))
	}

	lines = append(lines, fmt.Sprintf("PC: %d   Cycles: %d   Halted: %v", m.PC, m.Cycles, m.Halted()))
	t.RegisterView.SetText(strings.Join(lines, "\n"))
}

// UpdateXMemView shows a hex dump window of XMEM around XMemAddress.
func (t *TUI) UpdateXMemView() {
	t.XMemView.Clear()

	m := t.Debugger.Machine
	var lines []string
	var row [XMemDisplayColumns]byte
	for r := 0; r < XMemDisplayRows; r++ {
		addr := t.XMemAddress + uint32(r*XMemDisplayColumns)
		if err := m.XMem.Read(addr, row[:]); err != nil {
			break
		}
		lines = append(lines, fmt.Sprintf("0x%06X: % X", addr, row[:]))
	}
	t.XMemView.SetText(strings.Join(lines, "\n"))
}

// UpdateBreakpointsView lists active breakpoints and watchpoints.
func (t *TUI) UpdateBreakpointsView() {
	t.BreakpointsView.Clear()

	var lines []string
	for _, bp := range t.Debugger.Breakpoints.GetAllBreakpoints() {
		state := "enabled"
		if !bp.Enabled {
			state = "disabled"
		}
		lines = append(lines, fmt.Sprintf("#%d pc=%d %s hits=%d", bp.ID, bp.PC, state, bp.HitCount))
	}
	for _, wp := range t.Debugger.Watchpoints.All() {
		lines = append(lines, fmt.Sprintf("#%d watch %s", wp.ID, wp.String()))
	}
	t.BreakpointsView.SetText(strings.Join(lines, "\n"))
}

// Run starts the tview event loop.
func (t *TUI) Run() error {
	t.RefreshAll()
	return t.App.SetRoot(t.Pages, true).SetFocus(t.CommandInput).Run()
}

// Stop ends the tview event loop.
func (t *TUI) Stop() {
	t.App.Stop()
}
