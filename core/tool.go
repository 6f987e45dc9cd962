package core

import (
	"fmt"
	"strings"
)

// Tool selects how pointer input on the canvas is interpreted.
type Tool string

const (
	ToolSelect    Tool = "select"
	ToolPencil    Tool = "pencil"
	ToolEraser    Tool = "eraser"
	ToolRectangle Tool = "rectangle"
	ToolCircle    Tool = "circle"
	ToolEllipse   Tool = "ellipse"
	ToolArrow     Tool = "arrow"
	ToolText      Tool = "text"
)

// Tools lists every tool in toolbar order.
func Tools() []Tool {
	return []Tool{ToolSelect, ToolPencil, ToolEraser, ToolRectangle, ToolCircle, ToolEllipse, ToolArrow, ToolText}
}

// ParseTool resolves a tool name case-insensitively.
func ParseTool(s string) (Tool, error) {
	name := Tool(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range Tools() {
		if t == name {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTool, s)
}

// FreeDraw reports whether the tool paints continuous ink.
func (t Tool) FreeDraw() bool {
	return t == ToolPencil || t == ToolEraser
}

// Discrete reports whether the tool produces one shape per drag.
func (t Tool) Discrete() bool {
	switch t {
	case ToolRectangle, ToolCircle, ToolEllipse, ToolArrow:
		return true
	}
	return false
}

func (t Tool) String() string { return string(t) }
