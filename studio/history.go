package studio

import (
	"log"

	"github.com/google/uuid"
)

// maxHistory caps both undo and redo stacks; the oldest entry is dropped when
// a new one would overflow.
const maxHistory = 100

// History is the undo/redo engine. It is a plain service object: construct
// one per open project with NewHistory and Clear it when the project is
// replaced. All methods must be called from the same goroutine (the model
// goroutine); the executing flag is a reentrancy guard against a command
// calling back into the engine, not a lock.
type History struct {
	undoStack []Command
	redoStack []Command
	executing bool
	groupID   string
	pending   []Command
	warn      func(format string, args ...any)
}

func NewHistory() *History {
	return &History{warn: log.Printf}
}

// Execute runs the command and records it for undo. If a group is open the
// command is accumulated into the group instead of being pushed. A failing
// command is logged and dropped; the stacks are never left half-updated.
func (h *History) Execute(cmd Command) {
	if cmd == nil {
		return
	}
	if h.groupID != "" {
		// group accumulation does not touch the executing flag or the redo
		// stack; both are handled when the group ends
		if err := cmd.Do(); err != nil {
			h.warn("command %q failed in group %s, dropped: %v", cmd.Description(), h.groupID, err)
			return
		}
		h.pending = append(h.pending, cmd)
		return
	}
	if h.executing {
		h.warn("rejecting nested execution of command %q", cmd.Description())
		return
	}
	h.executing = true
	defer func() { h.executing = false }()
	if err := cmd.Do(); err != nil {
		h.warn("command %q failed: %v", cmd.Description(), err)
		return
	}
	h.push(cmd)
	h.redoStack = h.redoStack[:0]
}

// push appends to the undo stack, first giving the current tail a chance to
// merge with the new command, and evicting the oldest entry at the cap.
func (h *History) push(cmd Command) {
	if last := len(h.undoStack) - 1; last >= 0 {
		if m, ok := h.undoStack[last].(Merger); ok && m.CanMergeWith(cmd) {
			h.undoStack[last] = m.MergeWith(cmd)
			return
		}
	}
	h.undoStack = trim(append(h.undoStack, cmd))
}

// trim evicts the oldest commands past the cap, shifting in place so the
// backing array drops its references to them.
func trim(stack []Command) []Command {
	if len(stack) <= maxHistory {
		return stack
	}
	copy(stack, stack[len(stack)-maxHistory:])
	return stack[:maxHistory]
}

// Undo reverses the most recent command and moves it to the redo stack.
// Returns false when there is nothing to undo; that is not an error. If the
// command's Undo fails, the command is lost from both stacks: it was already
// popped and cannot be trusted to be reapplied. Degraded but deliberate.
func (h *History) Undo() bool {
	if h.executing {
		h.warn("rejecting undo during command execution")
		return false
	}
	if h.groupID != "" {
		h.warn("rejecting undo while group %s is open", h.groupID)
		return false
	}
	n := len(h.undoStack)
	if n == 0 {
		return false
	}
	cmd := h.undoStack[n-1]
	h.undoStack = h.undoStack[:n-1]
	h.executing = true
	defer func() { h.executing = false }()
	if err := cmd.Undo(); err != nil {
		h.warn("undo of %q failed: %v", cmd.Description(), err)
		return false
	}
	h.redoStack = trim(append(h.redoStack, cmd))
	return true
}

// Redo reapplies the most recently undone command. Symmetric to Undo.
func (h *History) Redo() bool {
	if h.executing {
		h.warn("rejecting redo during command execution")
		return false
	}
	if h.groupID != "" {
		h.warn("rejecting redo while group %s is open", h.groupID)
		return false
	}
	n := len(h.redoStack)
	if n == 0 {
		return false
	}
	cmd := h.redoStack[n-1]
	h.redoStack = h.redoStack[:n-1]
	h.executing = true
	defer func() { h.executing = false }()
	if err := cmd.Do(); err != nil {
		h.warn("redo of %q failed: %v", cmd.Description(), err)
		return false
	}
	h.undoStack = trim(append(h.undoStack, cmd))
	return true
}

func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }

// UndoDescription returns the label of the edit Undo would reverse, for the
// undo menu item. ok is false when the undo stack is empty.
func (h *History) UndoDescription() (desc string, ok bool) {
	if n := len(h.undoStack); n > 0 {
		return h.undoStack[n-1].Description(), true
	}
	return "", false
}

func (h *History) RedoDescription() (desc string, ok bool) {
	if n := len(h.redoStack); n > 0 {
		return h.redoStack[n-1].Description(), true
	}
	return "", false
}

// BeginGroup starts accumulating commands into one undoable unit. An empty
// groupID gets a generated one. Groups do not nest: starting a group while
// one is open discards the previous pending commands with a warning.
func (h *History) BeginGroup(groupID string) {
	if h.groupID != "" {
		h.warn("group %s reopened as %s, discarding %d pending commands", h.groupID, groupID, len(h.pending))
	}
	if groupID == "" {
		groupID = uuid.NewString()
	}
	h.groupID = groupID
	h.pending = nil
}

// EndGroup closes the group and pushes one compound command covering all the
// commands accumulated since BeginGroup. A group with no commands closes
// without creating an undo entry.
func (h *History) EndGroup(description string) {
	if h.groupID == "" {
		h.warn("EndGroup called with no open group")
		return
	}
	pending, id := h.pending, h.groupID
	h.pending, h.groupID = nil, ""
	if len(pending) == 0 {
		return
	}
	h.push(newCompound(id, description, pending))
	h.redoStack = h.redoStack[:0]
}

// CancelGroup reverts everything the open group already applied, in reverse
// order, and closes the group without touching the undo stack. This is the
// escape-mid-drag path: the unwind is best effort, a failing child is logged
// and the rest are still unwound.
func (h *History) CancelGroup() {
	if h.groupID == "" {
		h.warn("CancelGroup called with no open group")
		return
	}
	pending, id := h.pending, h.groupID
	h.pending, h.groupID = nil, ""
	for i := len(pending) - 1; i >= 0; i-- {
		if err := pending[i].Undo(); err != nil {
			h.warn("cancel of group %s: undo of %q failed: %v", id, pending[i].Description(), err)
		}
	}
}

// Clear drops both stacks and any open group. Called when a project is
// loaded or created, so undo can never cross project boundaries.
func (h *History) Clear() {
	h.undoStack = h.undoStack[:0]
	h.redoStack = h.redoStack[:0]
	h.groupID = ""
	h.pending = nil
}
