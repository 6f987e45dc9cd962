package tools

import (
	"image/color"

	"doodle-server/core"
	"doodle-server/surface"
)

// EraserScale is the eraser brush width relative to the stroke width.
const EraserScale = 4

// Mode is the surface configuration implied by a tool.
type Mode struct {
	FreeDraw    bool
	Brush       surface.Brush
	Interactive bool
	Cursor      surface.Cursor
}

// ModeFor derives the surface configuration for tool. Pencil and Eraser use
// the native brush, the eraser painting with the background colour; only
// Select leaves objects interactive.
func ModeFor(tool core.Tool, style core.Style, background color.RGBA) Mode {
	m := Mode{
		FreeDraw:    tool.FreeDraw(),
		Brush:       surface.Brush{Width: style.StrokeWidth, Color: style.StrokeColor},
		Interactive: tool == core.ToolSelect,
		Cursor:      surface.CursorCrosshair,
	}
	if tool == core.ToolEraser {
		m.Brush = surface.Brush{Width: style.StrokeWidth * EraserScale, Color: background}
	}
	if m.Interactive {
		m.Cursor = surface.CursorDefault
	}
	return m
}

// Apply reconfigures s in one step.
func (m Mode) Apply(s surface.Surface) error {
	if err := s.SetFreeDrawMode(m.FreeDraw, m.Brush); err != nil {
		return err
	}
	if err := s.SetGlobalInteractivity(m.Interactive); err != nil {
		return err
	}
	return s.SetDefaultCursor(m.Cursor)
}
