// Package tools turns pointer gestures into shape construction. The Machine
// is a pure reducer: it takes the current session and one pointer event and
// returns the next session together with the surface commands to apply.
package tools

import (
	"math"

	"doodle-server/core"
	"doodle-server/geometry"
	"doodle-server/surface"
)

const (
	// DefaultThreshold is the size under which a finished drag is discarded.
	DefaultThreshold = 5
	// PlaceholderText is the content of a freshly placed text object.
	PlaceholderText = "Double click to edit"
	// TextSize is the font size of placed text.
	TextSize = 24
)

// Session tracks the shape under construction. The zero value is idle.
type Session struct {
	Active  bool
	Origin  geometry.Point
	Pending string
	Kind    surface.Kind
	Extent  geometry.Box
}

// Event is one pointer event in canvas space, together with the tool and
// style in effect when it happened.
type Event struct {
	Phase surface.Phase
	Point geometry.Point
	Tool  core.Tool
	Style core.Style
}

// Machine holds the construction parameters.
type Machine struct {
	Threshold  float64
	HeadLength float64
	NewID      func() string
}

// NewMachine returns a machine with the default threshold and head length.
func NewMachine(newID func() string) Machine {
	return Machine{
		Threshold:  DefaultThreshold,
		HeadLength: geometry.DefaultHeadLength,
		NewID:      newID,
	}
}

// ShapeKind maps a discrete shape tool to the kind it draws.
func ShapeKind(t core.Tool) (surface.Kind, bool) {
	switch t {
	case core.ToolRectangle:
		return surface.KindRect, true
	case core.ToolCircle:
		return surface.KindCircle, true
	case core.ToolEllipse:
		return surface.KindEllipse, true
	case core.ToolArrow:
		return surface.KindArrow, true
	}
	return 0, false
}

// Reduce advances the session by one event.
func (m Machine) Reduce(s Session, ev Event) (Session, []Command) {
	switch ev.Phase {
	case surface.PointerDown:
		return m.down(s, ev)
	case surface.PointerMove:
		return m.move(s, ev)
	case surface.PointerUp:
		return m.up(s)
	}
	return s, nil
}

// PlaceText handles a press with the Text tool: it drops an editable text
// object at the pointer, selects it and switches to Select. It reports false
// for any other event, which then goes through Reduce.
func (m Machine) PlaceText(ev Event) ([]Command, bool) {
	if ev.Tool != core.ToolText || ev.Phase != surface.PointerDown {
		return nil, false
	}
	id := m.NewID()
	obj := surface.NewText(id, ev.Point, PlaceholderText, TextSize, ev.Style.StrokeColor)
	return []Command{
		AddObject{Object: obj},
		SetActive{ID: id},
		SetTool{Tool: core.ToolSelect},
		Render{},
	}, true
}

func (m Machine) down(s Session, ev Event) (Session, []Command) {
	kind, ok := ShapeKind(ev.Tool)
	if !ok {
		return s, nil
	}
	var cmds []Command
	if s.Active && s.Pending != "" {
		cmds = append(cmds, RemoveObject{ID: s.Pending})
	}
	id := m.NewID()
	obj := surface.NewShape(id, kind, ev.Point, ev.Style)
	if kind == surface.KindArrow {
		obj.Arrow = geometry.ArrowFrom(ev.Point, ev.Point, m.HeadLength)
	}
	next := Session{
		Active:  true,
		Origin:  ev.Point,
		Pending: id,
		Kind:    kind,
		Extent:  geometry.Box{Left: ev.Point.X, Top: ev.Point.Y},
	}
	return next, append(cmds, AddObject{Object: obj}, Render{})
}

func (m Machine) move(s Session, ev Event) (Session, []Command) {
	if !s.Active || s.Pending == "" {
		return s, nil
	}
	box := geometry.BoxFrom(s.Origin, ev.Point)
	var props []surface.Prop
	switch s.Kind {
	case surface.KindRect:
		props = resizeRect(box)
	case surface.KindCircle:
		props = resizeCircle(box)
	case surface.KindEllipse:
		props = resizeEllipse(box)
	case surface.KindArrow:
		props = m.resizeArrow(s.Origin, ev.Point)
	default:
		return s, nil
	}
	s.Extent = box
	return s, []Command{UpdateObject{ID: s.Pending, Props: props}, Render{}}
}

func (m Machine) up(s Session) (Session, []Command) {
	if !s.Active || s.Pending == "" {
		return Session{}, nil
	}
	if s.Kind != surface.KindArrow && s.Extent.Smaller(m.Threshold) {
		return Session{}, []Command{RemoveObject{ID: s.Pending}, Render{}}
	}
	return Session{}, []Command{
		UpdateObject{ID: s.Pending, Props: []surface.Prop{surface.Interactive(true)}},
		SetTool{Tool: core.ToolSelect},
		SetActive{ID: s.Pending},
		Render{},
	}
}

func resizeRect(b geometry.Box) []surface.Prop {
	return []surface.Prop{surface.Position(b.Left, b.Top), surface.Size(b.Width, b.Height)}
}

func resizeCircle(b geometry.Box) []surface.Prop {
	return []surface.Prop{surface.Position(b.Left, b.Top), surface.Radius(math.Max(b.Width, b.Height) / 2)}
}

func resizeEllipse(b geometry.Box) []surface.Prop {
	return []surface.Prop{surface.Position(b.Left, b.Top), surface.Radii(b.Width/2, b.Height/2)}
}

func (m Machine) resizeArrow(origin, p geometry.Point) []surface.Prop {
	return []surface.Prop{surface.Path(geometry.ArrowFrom(origin, p, m.HeadLength))}
}
