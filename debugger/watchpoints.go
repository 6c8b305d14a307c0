package debugger

import (
	"fmt"
	"sync"

	"github.com/openipu/ipu-emulator/ipu"
)

// WatchKind distinguishes what a Watchpoint observes.
type WatchKind int

const (
	WatchLR WatchKind = iota
	WatchCR
)

// Watchpoint fires when the observed LR or CR value changes between cycles.
type Watchpoint struct {
	ID    int
	Kind  WatchKind
	Index int
	last  uint32
	armed bool
}

func (w *Watchpoint) String() string {
	reg := "lr"
	if w.Kind == WatchCR {
		reg = "cr"
	}
	return fmt.Sprintf("%s[%d]", reg, w.Index)
}

// WatchpointManager tracks the set of active watchpoints.
type WatchpointManager struct {
	mu     sync.RWMutex
	points []*Watchpoint
	nextID int
}

// NewWatchpointManager creates an empty watchpoint manager.
func NewWatchpointManager() *WatchpointManager {
	return &WatchpointManager{nextID: 1}
}

// Add registers a new watchpoint on the given LR/CR index.
func (wm *WatchpointManager) Add(kind WatchKind, index int) *Watchpoint {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	wp := &Watchpoint{ID: wm.nextID, Kind: kind, Index: index}
	wm.points = append(wm.points, wp)
	wm.nextID++
	return wp
}

// Delete removes a watchpoint by ID.
func (wm *WatchpointManager) Delete(id int) error {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for i, wp := range wm.points {
		if wp.ID == id {
			wm.points = append(wm.points[:i], wm.points[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("watchpoint %d not found", id)
}

// All returns every registered watchpoint.
func (wm *WatchpointManager) All() []*Watchpoint {
	wm.mu.RLock()
	defer wm.mu.RUnlock()

	result := make([]*Watchpoint, len(wm.points))
	copy(result, wm.points)
	return result
}

// Clear removes every watchpoint.
func (wm *WatchpointManager) Clear() {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.points = nil
}

// Check scans all watchpoints against the current register file and returns
// the first one whose observed value changed since the last check.
func (wm *WatchpointManager) Check(regs *ipu.RegFile) (*Watchpoint, bool) {
	wm.mu.Lock()
	defer wm.mu.Unlock()

	for _, wp := range wm.points {
		var cur uint32
		if wp.Kind == WatchCR {
			cur = regs.CR[wp.Index]
		} else {
			cur = regs.LR[wp.Index]
		}

		if !wp.armed {
			wp.last = cur
			wp.armed = true
			continue
		}
		if cur != wp.last {
			wp.last = cur
			return wp, true
		}
	}
	return nil, false
}
