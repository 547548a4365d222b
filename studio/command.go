package studio

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type (
	// Command is one reversible edit. Do applies the edit and Undo reverses it
	// exactly; both must be synchronous and must not call back into the
	// History that executes them. Commands own deep copies of whatever state
	// they need, so a command on the undo stack stays valid no matter what
	// later edits do to the project.
	Command interface {
		ID() string
		Description() string
		Timestamp() time.Time
		Do() error
		Undo() error
	}

	// Merger is an optional capability of a Command: coalescing a directly
	// following similar edit (e.g. successive knob drags) into a single undo
	// step. The history engine checks for it with a type assertion. The merge
	// policy, including which command's state wins, is entirely up to the
	// implementation.
	Merger interface {
		CanMergeWith(next Command) bool
		MergeWith(next Command) Command
	}

	funcCommand struct {
		id          string
		description string
		timestamp   time.Time
		do, undo    func() error
	}

	compoundCommand struct {
		id          string
		description string
		timestamp   time.Time
		children    []Command
	}
)

// Func wraps a pair of closures into a Command. The closures must be
// synchronous, fast and deterministic; any slow work (sample loading etc.)
// must happen before the command is constructed. Unlike the typed snapshot
// commands in this package, nothing forces do and undo to be true inverses,
// so closure commands are the caller's responsibility to keep atomic.
func Func(description string, do, undo func() error) Command {
	return &funcCommand{
		id:          uuid.NewString(),
		description: description,
		timestamp:   time.Now(),
		do:          do,
		undo:        undo,
	}
}

func (c *funcCommand) ID() string           { return c.id }
func (c *funcCommand) Description() string  { return c.description }
func (c *funcCommand) Timestamp() time.Time { return c.timestamp }
func (c *funcCommand) Do() error            { return c.do() }
func (c *funcCommand) Undo() error          { return c.undo() }

func newCompound(id, description string, children []Command) Command {
	if description == "" {
		description = fmt.Sprintf("%d edits", len(children))
	}
	return &compoundCommand{
		id:          id,
		description: description,
		timestamp:   time.Now(),
		children:    children,
	}
}

func (c *compoundCommand) ID() string           { return c.id }
func (c *compoundCommand) Description() string  { return c.description }
func (c *compoundCommand) Timestamp() time.Time { return c.timestamp }

// Do replays the children in their original order. It is only ever called on
// redo; during group accumulation the children were already executed one by
// one. Stops at the first failure, since later children may depend on the
// earlier ones being applied.
func (c *compoundCommand) Do() error {
	for _, child := range c.children {
		if err := child.Do(); err != nil {
			return fmt.Errorf("%s: %w", child.Description(), err)
		}
	}
	return nil
}

// Undo unwinds the children in reverse order: later edits may depend on
// earlier ones remaining applied until they are individually reversed. A
// failing child does not stop the unwind; the errors are collected.
func (c *compoundCommand) Undo() error {
	var errs []error
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Undo(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.children[i].Description(), err))
		}
	}
	return errors.Join(errs...)
}
