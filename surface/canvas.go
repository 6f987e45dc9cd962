package surface

import (
	"fmt"
	"image/color"
	"slices"

	"golang.org/x/image/font"

	"doodle-server/core"
	"doodle-server/geometry"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 500
)

// White is the default canvas background.
var White = color.RGBA{255, 255, 255, 255}

var _ Surface = (*Canvas)(nil)

// Canvas is the raster Surface. It is not safe for concurrent use; the
// editor serialises every call.
type Canvas struct {
	ready      bool
	width      int
	height     int
	background color.RGBA

	objects []*Object
	active  []string

	freeDraw    bool
	brush       Brush
	interactive bool
	cursor      Cursor

	offset geometry.Point
	zoom   float64

	stroke *Object
	drag   *geometry.Point

	newID func() string
	faces map[float64]font.Face
	frame uint64
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithSize sets the canvas dimensions.
func WithSize(width, height int) Option {
	return func(c *Canvas) { c.width, c.height = width, height }
}

// WithIDs sets the id generator used for freehand strokes.
func WithIDs(newID func() string) Option {
	return func(c *Canvas) { c.newID = newID }
}

// NewCanvas returns an uninitialised canvas; every operation fails with
// core.ErrSurfaceNotReady until Init is called.
func NewCanvas(opts ...Option) *Canvas {
	c := &Canvas{
		width:      DefaultWidth,
		height:     DefaultHeight,
		background: White,
		cursor:     CursorDefault,
		zoom:       1,
		faces:      map[float64]font.Face{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.newID == nil {
		var n int
		c.newID = func() string {
			n++
			return fmt.Sprintf("path-%d", n)
		}
	}
	return c
}

// Init makes the canvas usable.
func (c *Canvas) Init() {
	c.ready = true
}

// SetViewport sets the scroll offset and zoom applied by PointerPosition.
func (c *Canvas) SetViewport(offset geometry.Point, zoom float64) {
	if zoom <= 0 {
		zoom = 1
	}
	c.offset, c.zoom = offset, zoom
}

func (c *Canvas) Size() (int, int)        { return c.width, c.height }
func (c *Canvas) Background() color.RGBA  { return c.background }
func (c *Canvas) Cursor() Cursor          { return c.cursor }
func (c *Canvas) FreeDraw() (bool, Brush) { return c.freeDraw, c.brush }
func (c *Canvas) Selection() bool         { return c.interactive }

// Frame counts calls to Render. Clients use it to detect stale pictures.
func (c *Canvas) Frame() uint64 { return c.frame }

func (c *Canvas) AddObject(obj *Object) error {
	if !c.ready {
		return core.ErrSurfaceNotReady
	}
	c.syncBounds(obj)
	c.objects = append(c.objects, obj)
	return nil
}

func (c *Canvas) RemoveObject(ids ...string) error {
	if !c.ready {
		return core.ErrSurfaceNotReady
	}
	c.objects = slices.DeleteFunc(c.objects, func(o *Object) bool {
		return slices.Contains(ids, o.ID)
	})
	c.active = slices.DeleteFunc(c.active, func(id string) bool {
		return slices.Contains(ids, id)
	})
	return nil
}

// SetObjectProperties applies props and recomputes the object's bounds.
// Unknown ids are ignored.
func (c *Canvas) SetObjectProperties(id string, props ...Prop) error {
	if !c.ready {
		return core.ErrSurfaceNotReady
	}
	o := c.find(id)
	if o == nil {
		return nil
	}
	for _, p := range props {
		p(o)
	}
	c.syncBounds(o)
	return nil
}

// Object returns a copy of the object with the given id.
func (c *Canvas) Object(id string) (*Object, bool) {
	o := c.find(id)
	if o == nil {
		return nil, false
	}
	return o.Clone(), true
}

// Objects returns copies of every object in paint order.
func (c *Canvas) Objects() []*Object {
	out := make([]*Object, 0, len(c.objects))
	for _, o := range c.objects {
		out = append(out, o.Clone())
	}
	return out
}

func (c *Canvas) PointerPosition(raw RawPointer) (geometry.Point, error) {
	if !c.ready {
		return geometry.Point{}, core.ErrSurfaceNotReady
	}
	return geometry.Point{
		X: (raw.ClientX - c.offset.X) / c.zoom,
		Y: (raw.ClientY - c.offset.Y) / c.zoom,
	}, nil
}

func (c *Canvas) SetFreeDrawMode(enabled bool, brush Brush) error {
	if !c.ready {
		return core.ErrSurfaceNotReady
	}
	c.freeDraw = enabled
	c.brush = brush
	if !enabled {
		c.stroke = nil
	}
	return nil
}

// SetGlobalInteractivity toggles group selection and the selectable and
// evented flags of every object.
func (c *Canvas) SetGlobalInteractivity(enabled bool) error {
	if !c.ready {
		return core.ErrSurfaceNotReady
	}
	c.interactive = enabled
	for _, o := range c.objects {
		o.Selectable, o.Evented = enabled, enabled
	}
	return nil
}

func (c *Canvas) SetDefaultCursor(cur Cursor) error {
	if !c.ready {
		return core.ErrSurfaceNotReady
	}
	c.cursor = cur
	return nil
}

// ActiveObjects returns copies of the selected objects in paint order.
func (c *Canvas) ActiveObjects() []*Object {
	var out []*Object
	for _, o := range c.objects {
		if slices.Contains(c.active, o.ID) {
			out = append(out, o.Clone())
		}
	}
	return out
}

func (c *Canvas) SetActiveObject(id string) error {
	if !c.ready {
		return core.ErrSurfaceNotReady
	}
	if c.find(id) == nil {
		return nil
	}
	c.active = []string{id}
	return nil
}

func (c *Canvas) DiscardActiveObject() error {
	if !c.ready {
		return core.ErrSurfaceNotReady
	}
	c.active = nil
	c.drag = nil
	return nil
}

// ClearAll removes every object and repaints the background.
func (c *Canvas) ClearAll(background color.RGBA) error {
	if !c.ready {
		return core.ErrSurfaceNotReady
	}
	c.objects = nil
	c.active = nil
	c.stroke = nil
	c.drag = nil
	c.background = background
	return nil
}

func (c *Canvas) Render() {
	c.frame++
}

func (c *Canvas) find(id string) *Object {
	for _, o := range c.objects {
		if o.ID == id {
			return o
		}
	}
	return nil
}

func (c *Canvas) syncBounds(o *Object) {
	if o.Kind == KindText {
		o.Width, o.Height = c.measure(o.Text, o.FontSize)
		return
	}
	o.syncBounds()
}
