package tools

import (
	"errors"

	"doodle-server/core"
	"doodle-server/surface"
)

// Command is a surface mutation produced by the machine.
type Command interface {
	Apply(s surface.Surface) error
}

type (
	// AddObject inserts a new shape.
	AddObject struct{ Object *surface.Object }
	// UpdateObject applies property updates to a shape. The surface
	// recomputes the shape's bounds afterwards.
	UpdateObject struct {
		ID    string
		Props []surface.Prop
	}
	// RemoveObject drops a shape.
	RemoveObject struct{ ID string }
	// SetActive makes a shape the current selection.
	SetActive struct{ ID string }
	// SetTool asks the owner of the tool state to switch tools. It does not
	// touch the surface.
	SetTool struct{ Tool core.Tool }
	// Render requests a repaint.
	Render struct{}
)

func (c AddObject) Apply(s surface.Surface) error    { return s.AddObject(c.Object) }
func (c UpdateObject) Apply(s surface.Surface) error { return s.SetObjectProperties(c.ID, c.Props...) }
func (c RemoveObject) Apply(s surface.Surface) error { return s.RemoveObject(c.ID) }
func (c SetActive) Apply(s surface.Surface) error    { return s.SetActiveObject(c.ID) }
func (SetTool) Apply(surface.Surface) error          { return nil }
func (Render) Apply(s surface.Surface) error {
	s.Render()
	return nil
}

// Run applies cmds in order. SetTool commands are handed to onTool instead of
// the surface. A surface that is not ready turns every command into a no-op.
func Run(s surface.Surface, cmds []Command, onTool func(core.Tool) error) error {
	for _, cmd := range cmds {
		if st, ok := cmd.(SetTool); ok {
			if onTool == nil {
				continue
			}
			if err := onTool(st.Tool); err != nil {
				return err
			}
			continue
		}
		if err := cmd.Apply(s); err != nil {
			if errors.Is(err, core.ErrSurfaceNotReady) {
				return nil
			}
			return err
		}
	}
	return nil
}
