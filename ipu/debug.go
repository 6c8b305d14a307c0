package ipu

// DebugAction is the verdict the debug collaborator returns when a break
// fires.
type DebugAction int

const (
	ActionContinue DebugAction = iota
	ActionStep
	ActionQuit
)

// Debugger is the external debug collaborator interface:
// "enter_prompt(ipu_handle, level) -> {CONTINUE, STEP, QUIT}". The cycle
// engine invokes it only when a Break sub-op fires, always with level 0.
// Step treats ActionStep the same as ActionContinue: neither Step nor Run
// keeps single-step state or calls the collaborator on a later cycle by
// itself. debugger.Debugger, outside the core, satisfies this interface.
type Debugger interface {
	EnterPrompt(ipu *IPU, level int) DebugAction
}

// NoDebugger never breaks; it is the zero-configuration default used when
// no interactive collaborator is attached.
type NoDebugger struct{}

func (NoDebugger) EnterPrompt(*IPU, int) DebugAction { return ActionContinue }
