// Package surface is the drawing surface the editor paints on: a retained
// scene of shape objects with selection, a native free-draw brush and
// raster export.
package surface

import (
	"fmt"
	"image/color"
	"strings"

	"doodle-server/geometry"
)

// Surface is the contract the tool state machine and the editor drive. Every
// method returns core.ErrSurfaceNotReady until the surface is initialised;
// callers treat that as a no-op.
type Surface interface {
	AddObject(obj *Object) error
	RemoveObject(ids ...string) error
	SetObjectProperties(id string, props ...Prop) error
	Object(id string) (*Object, bool)
	Objects() []*Object

	// PointerPosition translates a raw viewport event into canvas space.
	PointerPosition(raw RawPointer) (geometry.Point, error)
	// HandleNative lets the surface react to pointer input on its own: the
	// free-draw brush in free-draw mode and hit-testing/moving in
	// interactive mode. It reports whether the scene changed.
	HandleNative(phase Phase, p geometry.Point) (bool, error)

	SetFreeDrawMode(enabled bool, brush Brush) error
	SetGlobalInteractivity(enabled bool) error
	SetDefaultCursor(c Cursor) error

	ActiveObjects() []*Object
	SetActiveObject(id string) error
	DiscardActiveObject() error

	ClearAll(background color.RGBA) error
	Render()
	ExportSnapshot(format Format, quality float64) (string, error)
}

// Phase is the stage of a pointer gesture.
type Phase string

const (
	PointerDown Phase = "down"
	PointerMove Phase = "move"
	PointerUp   Phase = "up"
)

// ParsePhase accepts "down", "move" and "up".
func ParsePhase(s string) (Phase, error) {
	switch p := Phase(strings.ToLower(strings.TrimSpace(s))); p {
	case PointerDown, PointerMove, PointerUp:
		return p, nil
	}
	return "", fmt.Errorf("unknown pointer phase %q", s)
}

// RawPointer is a pointer position in viewport coordinates, before any
// scroll offset or zoom is applied.
type RawPointer struct {
	ClientX float64 `json:"x"`
	ClientY float64 `json:"y"`
}

// Brush configures free drawing.
type Brush struct {
	Width float64
	Color color.RGBA
}

// Cursor is the pointer cursor shown over the canvas.
type Cursor string

const (
	CursorDefault   Cursor = "default"
	CursorCrosshair Cursor = "crosshair"
)

// Format is an export image encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat resolves an export format; the empty string means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType is the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}
