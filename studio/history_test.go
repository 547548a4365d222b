package studio

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterCommand increments a shared counter by delta; undo decrements it.
// The simplest command whose inverse law is checkable by eye.
type counterCommand struct {
	id      string
	counter *int
	delta   int
	doErr   error
	undoErr error
}

func (c *counterCommand) ID() string           { return c.id }
func (c *counterCommand) Description() string  { return fmt.Sprintf("add %d", c.delta) }
func (c *counterCommand) Timestamp() time.Time { return time.Time{} }

func (c *counterCommand) Do() error {
	if c.doErr != nil {
		return c.doErr
	}
	*c.counter += c.delta
	return nil
}

func (c *counterCommand) Undo() error {
	if c.undoErr != nil {
		return c.undoErr
	}
	*c.counter -= c.delta
	return nil
}

func add(counter *int, delta int) *counterCommand {
	return &counterCommand{id: fmt.Sprintf("add-%d", delta), counter: counter, delta: delta}
}

func newTestHistory(t *testing.T) (*History, *int) {
	t.Helper()
	h := NewHistory()
	h.warn = func(format string, args ...any) { t.Logf("warn: "+format, args...) }
	counter := new(int)
	return h, counter
}

func TestHistoryUndoRedo(t *testing.T) {
	h, counter := newTestHistory(t)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.False(t, h.Undo())
	assert.False(t, h.Redo())

	h.Execute(add(counter, 1))
	h.Execute(add(counter, 10))
	assert.Equal(t, 11, *counter)
	assert.True(t, h.CanUndo())

	require.True(t, h.Undo())
	assert.Equal(t, 1, *counter)
	assert.True(t, h.CanRedo())
	require.True(t, h.Undo())
	assert.Equal(t, 0, *counter)
	assert.False(t, h.CanUndo())

	require.True(t, h.Redo())
	require.True(t, h.Redo())
	assert.Equal(t, 11, *counter)
	assert.False(t, h.CanRedo())
}

func TestHistoryNewEditClearsRedo(t *testing.T) {
	h, counter := newTestHistory(t)
	h.Execute(add(counter, 1))
	h.Execute(add(counter, 2))
	require.True(t, h.Undo())
	assert.True(t, h.CanRedo())

	h.Execute(add(counter, 4))
	assert.False(t, h.CanRedo(), "a new edit after undo must invalidate the redo stack")
	assert.Equal(t, 5, *counter)
	assert.False(t, h.Redo())
	assert.Equal(t, 5, *counter)
}

func TestHistoryDescriptions(t *testing.T) {
	h, counter := newTestHistory(t)
	_, ok := h.UndoDescription()
	assert.False(t, ok)

	h.Execute(add(counter, 7))
	desc, ok := h.UndoDescription()
	require.True(t, ok)
	assert.Equal(t, "add 7", desc)

	require.True(t, h.Undo())
	desc, ok = h.RedoDescription()
	require.True(t, ok)
	assert.Equal(t, "add 7", desc)
}

func TestHistoryFailedCommandNotRecorded(t *testing.T) {
	h, counter := newTestHistory(t)
	warned := 0
	h.warn = func(string, ...any) { warned++ }

	h.Execute(&counterCommand{counter: counter, delta: 1, doErr: errors.New("disk full")})
	assert.Equal(t, 0, *counter)
	assert.False(t, h.CanUndo(), "a failed command must not land on the undo stack")
	assert.Equal(t, 1, warned)

	// the failure must not disturb what was already there
	h.Execute(add(counter, 2))
	h.Execute(&counterCommand{counter: counter, delta: 4, doErr: errors.New("disk full")})
	assert.Equal(t, 2, *counter)
	require.True(t, h.Undo())
	assert.Equal(t, 0, *counter)
}

func TestHistoryFailedUndoDropsCommand(t *testing.T) {
	h, counter := newTestHistory(t)
	h.Execute(&counterCommand{counter: counter, delta: 1, undoErr: errors.New("gone")})
	assert.False(t, h.Undo())
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestHistoryOverflowDropsOldest(t *testing.T) {
	h, counter := newTestHistory(t)
	for i := 0; i < 150; i++ {
		h.Execute(add(counter, 1))
	}
	assert.Equal(t, 150, *counter)
	undone := 0
	for h.Undo() {
		undone++
	}
	assert.Equal(t, 100, undone, "stack is capped, oldest entries evicted")
	assert.Equal(t, 50, *counter, "the evicted edits stay applied")
}

func TestHistoryReentrancyGuard(t *testing.T) {
	h, counter := newTestHistory(t)
	warned := 0
	h.warn = func(string, ...any) { warned++ }

	h.Execute(Func("outer", func() error {
		h.Execute(add(counter, 100)) // must be rejected, not deadlock or recurse
		*counter++
		return nil
	}, func() error {
		*counter--
		return nil
	}))
	assert.Equal(t, 1, *counter)
	assert.Equal(t, 1, warned)

	undone := 0
	for h.Undo() {
		undone++
	}
	assert.Equal(t, 1, undone)
	assert.Equal(t, 0, *counter)
}

func TestHistoryGroup(t *testing.T) {
	h, counter := newTestHistory(t)
	h.BeginGroup("drag")
	h.Execute(add(counter, 1))
	h.Execute(add(counter, 2))
	h.Execute(add(counter, 4))
	assert.Equal(t, 7, *counter)
	assert.False(t, h.CanUndo(), "pending group is not yet undoable")
	h.EndGroup("Drag notes")

	desc, ok := h.UndoDescription()
	require.True(t, ok)
	assert.Equal(t, "Drag notes", desc)

	require.True(t, h.Undo(), "whole group reverses as one step")
	assert.Equal(t, 0, *counter)
	require.True(t, h.Redo())
	assert.Equal(t, 7, *counter)
}

func TestHistoryGroupUndoOrder(t *testing.T) {
	h, _ := newTestHistory(t)
	var order []string
	step := func(name string) Command {
		return Func(name,
			func() error { return nil },
			func() error { order = append(order, name); return nil })
	}
	h.BeginGroup("")
	h.Execute(step("a"))
	h.Execute(step("b"))
	h.Execute(step("c"))
	h.EndGroup("")
	require.True(t, h.Undo())
	assert.Equal(t, []string{"c", "b", "a"}, order, "group children must unwind in reverse")
}

func TestHistoryEmptyGroup(t *testing.T) {
	h, _ := newTestHistory(t)
	h.BeginGroup("empty")
	h.EndGroup("nothing happened")
	assert.False(t, h.CanUndo(), "empty group leaves no undo entry")
}

func TestHistoryCancelGroup(t *testing.T) {
	h, counter := newTestHistory(t)
	h.Execute(add(counter, 100))
	h.BeginGroup("drag")
	h.Execute(add(counter, 1))
	h.Execute(add(counter, 2))
	h.CancelGroup()
	assert.Equal(t, 100, *counter, "cancel rolls back everything applied in the group")
	require.True(t, h.Undo())
	assert.Equal(t, 0, *counter, "prior history is intact after a cancel")
}

func TestHistoryGroupReopenWarns(t *testing.T) {
	h, counter := newTestHistory(t)
	warned := 0
	h.warn = func(string, ...any) { warned++ }
	h.BeginGroup("one")
	h.Execute(add(counter, 1))
	h.BeginGroup("two")
	assert.Equal(t, 1, warned)
	h.Execute(add(counter, 2))
	h.EndGroup("")
	require.True(t, h.Undo())
	assert.Equal(t, 1, *counter, "only the second group's edits are in the compound")
}

func TestHistoryUndoRejectedDuringGroup(t *testing.T) {
	h, counter := newTestHistory(t)
	h.Execute(add(counter, 1))
	h.BeginGroup("drag")
	assert.False(t, h.Undo())
	assert.False(t, h.Redo())
	h.EndGroup("")
	assert.True(t, h.Undo())
}

func TestHistoryFailedCommandInGroupDropped(t *testing.T) {
	h, counter := newTestHistory(t)
	warned := 0
	h.warn = func(string, ...any) { warned++ }
	h.BeginGroup("drag")
	h.Execute(add(counter, 1))
	h.Execute(&counterCommand{counter: counter, delta: 2, doErr: errors.New("nope")})
	h.EndGroup("")
	assert.Equal(t, 1, warned)
	require.True(t, h.Undo())
	assert.Equal(t, 0, *counter)
}

func TestHistoryClear(t *testing.T) {
	h, counter := newTestHistory(t)
	h.Execute(add(counter, 1))
	require.True(t, h.Undo())
	h.Clear()
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

// mergeCommand models a knob: consecutive tweaks of the same knob coalesce,
// keeping the first before value and the last after value.
type mergeCommand struct {
	id            string
	knob          *int
	name          string
	before, after int
}

func (c *mergeCommand) ID() string           { return c.id }
func (c *mergeCommand) Description() string  { return "tweak " + c.name }
func (c *mergeCommand) Timestamp() time.Time { return time.Time{} }
func (c *mergeCommand) Do() error            { *c.knob = c.after; return nil }
func (c *mergeCommand) Undo() error          { *c.knob = c.before; return nil }

func (c *mergeCommand) CanMergeWith(next Command) bool {
	n, ok := next.(*mergeCommand)
	return ok && n.name == c.name
}

func (c *mergeCommand) MergeWith(next Command) Command {
	n := next.(*mergeCommand)
	return &mergeCommand{id: c.id, knob: c.knob, name: c.name, before: c.before, after: n.after}
}

func TestHistoryMerge(t *testing.T) {
	h, _ := newTestHistory(t)
	knob := new(int)
	tweak := func(from, to int) {
		h.Execute(&mergeCommand{id: fmt.Sprintf("tweak-%d-%d", from, to), knob: knob, name: "volume", before: from, after: to})
	}
	tweak(0, 1)
	tweak(1, 2)
	tweak(2, 5)
	assert.Equal(t, 5, *knob)

	require.True(t, h.Undo(), "merged drags undo in one step")
	assert.Equal(t, 0, *knob)
	assert.False(t, h.CanUndo())
	require.True(t, h.Redo())
	assert.Equal(t, 5, *knob)
}

func TestHistoryMergeStopsAtDifferentTarget(t *testing.T) {
	h, _ := newTestHistory(t)
	knob, other := new(int), new(int)
	h.Execute(&mergeCommand{id: "a", knob: knob, name: "volume", before: 0, after: 1})
	h.Execute(&mergeCommand{id: "b", knob: other, name: "pan", before: 0, after: 3})
	h.Execute(&mergeCommand{id: "c", knob: knob, name: "volume", before: 1, after: 2})

	require.True(t, h.Undo())
	require.True(t, h.Undo())
	require.True(t, h.Undo())
	assert.False(t, h.CanUndo(), "interleaved different targets must not merge across each other")
	assert.Equal(t, 0, *knob)
	assert.Equal(t, 0, *other)
}
