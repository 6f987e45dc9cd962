package surface

import (
	"encoding/json"
	"fmt"
	"image/color"
	"math"

	"doodle-server/core"
	"doodle-server/geometry"
)

// Kind is the type of a scene object.
type Kind int

const (
	KindRect Kind = iota
	KindCircle
	KindEllipse
	KindArrow
	KindFreehand
	KindText
)

var kindNames = [...]string{
	KindRect:     "rect",
	KindCircle:   "circle",
	KindEllipse:  "ellipse",
	KindArrow:    "arrow",
	KindFreehand: "path",
	KindText:     "text",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// hitTolerance widens the pickable area of thin objects.
const hitTolerance = 4

// Object is one shape in the scene. Left/Top/Width/Height always hold the
// object's bounding box; the kind-specific fields describe its geometry.
type Object struct {
	ID     string
	Kind   Kind
	Left   float64
	Top    float64
	Width  float64
	Height float64

	Radius float64
	RX     float64
	RY     float64
	Arrow  geometry.Arrow
	Points []geometry.Point

	Text     string
	FontSize float64

	Stroke      color.RGBA
	StrokeWidth float64
	Fill        color.RGBA

	Selectable bool
	Evented    bool
}

// NewShape returns a non-interactive object of the given kind anchored at p
// with zero extent, stroked with style and no fill.
func NewShape(id string, kind Kind, p geometry.Point, style core.Style) *Object {
	o := &Object{
		ID:          id,
		Kind:        kind,
		Left:        p.X,
		Top:         p.Y,
		Stroke:      style.StrokeColor,
		StrokeWidth: style.StrokeWidth,
	}
	switch kind {
	case KindArrow:
		o.Arrow = geometry.ArrowFrom(p, p, geometry.DefaultHeadLength)
	case KindFreehand:
		o.Points = []geometry.Point{p}
	}
	return o
}

// NewText returns an editable text object with its top-left corner at p.
func NewText(id string, p geometry.Point, text string, size float64, fill color.RGBA) *Object {
	return &Object{
		ID:         id,
		Kind:       KindText,
		Left:       p.X,
		Top:        p.Y,
		Text:       text,
		FontSize:   size,
		Fill:       fill,
		Selectable: true,
		Evented:    true,
	}
}

// Box returns the object's bounding box.
func (o *Object) Box() geometry.Box {
	return geometry.Box{Left: o.Left, Top: o.Top, Width: o.Width, Height: o.Height}
}

// Interactive reports whether the object can be selected and receive events.
func (o *Object) Interactive() bool { return o.Selectable && o.Evented }

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	c := *o
	if o.Points != nil {
		c.Points = append([]geometry.Point(nil), o.Points...)
	}
	return &c
}

// Hit reports whether p picks the object.
func (o *Object) Hit(p geometry.Point) bool {
	reach := o.StrokeWidth/2 + hitTolerance
	switch o.Kind {
	case KindArrow:
		for _, s := range o.Arrow.Segments() {
			if geometry.DistanceToSegment(p, s[0], s[1]) <= reach {
				return true
			}
		}
		return false
	case KindFreehand:
		if len(o.Points) == 1 {
			return math.Hypot(p.X-o.Points[0].X, p.Y-o.Points[0].Y) <= reach
		}
		for i := 1; i < len(o.Points); i++ {
			if geometry.DistanceToSegment(p, o.Points[i-1], o.Points[i]) <= reach {
				return true
			}
		}
		return false
	}
	return o.Box().Grow(reach).Contains(p)
}

// Translate moves the object by d.
func (o *Object) Translate(d geometry.Point) {
	o.Left += d.X
	o.Top += d.Y
	switch o.Kind {
	case KindArrow:
		o.Arrow = o.Arrow.Translate(d)
	case KindFreehand:
		for i := range o.Points {
			o.Points[i] = o.Points[i].Add(d)
		}
	}
}

// syncBounds recomputes the bounding box from the kind-specific geometry.
// Text is measured by the canvas, which owns the font faces.
func (o *Object) syncBounds() {
	switch o.Kind {
	case KindCircle:
		o.Width, o.Height = 2*o.Radius, 2*o.Radius
	case KindEllipse:
		o.Width, o.Height = 2*o.RX, 2*o.RY
	case KindArrow:
		b := o.Arrow.Bounds()
		o.Left, o.Top, o.Width, o.Height = b.Left, b.Top, b.Width, b.Height
	case KindFreehand:
		b := geometry.BoundsOf(o.Points...)
		o.Left, o.Top, o.Width, o.Height = b.Left, b.Top, b.Width, b.Height
	}
}

type objectJSON struct {
	ID          string           `json:"id"`
	Kind        Kind             `json:"kind"`
	Left        float64          `json:"left"`
	Top         float64          `json:"top"`
	Width       float64          `json:"width"`
	Height      float64          `json:"height"`
	Radius      float64          `json:"radius,omitempty"`
	RX          float64          `json:"rx,omitempty"`
	RY          float64          `json:"ry,omitempty"`
	Arrow       *geometry.Arrow  `json:"arrow,omitempty"`
	Points      []geometry.Point `json:"points,omitempty"`
	Text        string           `json:"text,omitempty"`
	FontSize    float64          `json:"fontSize,omitempty"`
	Stroke      string           `json:"stroke,omitempty"`
	StrokeWidth float64          `json:"strokeWidth,omitempty"`
	Fill        string           `json:"fill,omitempty"`
	Selectable  bool             `json:"selectable"`
	Evented     bool             `json:"evented"`
}

// MarshalJSON renders colours as hex strings and omits geometry that does
// not apply to the object's kind.
func (o *Object) MarshalJSON() ([]byte, error) {
	v := objectJSON{
		ID:          o.ID,
		Kind:        o.Kind,
		Left:        o.Left,
		Top:         o.Top,
		Width:       o.Width,
		Height:      o.Height,
		Radius:      o.Radius,
		RX:          o.RX,
		RY:          o.RY,
		Points:      o.Points,
		Text:        o.Text,
		FontSize:    o.FontSize,
		StrokeWidth: o.StrokeWidth,
		Selectable:  o.Selectable,
		Evented:     o.Evented,
	}
	if o.Kind == KindArrow {
		a := o.Arrow
		v.Arrow = &a
	}
	if o.Kind == KindText {
		v.Fill = core.FormatColor(o.Fill)
	} else {
		v.Stroke = core.FormatColor(o.Stroke)
	}
	return json.Marshal(v)
}

// Prop is a property update applied through Surface.SetObjectProperties.
type Prop func(*Object)

// Position moves the object's top-left corner.
func Position(left, top float64) Prop {
	return func(o *Object) { o.Left, o.Top = left, top }
}

// Size sets the width and height of a rectangle.
func Size(width, height float64) Prop {
	return func(o *Object) { o.Width, o.Height = width, height }
}

// Radius sets a circle's radius.
func Radius(r float64) Prop {
	return func(o *Object) { o.Radius = r }
}

// Radii sets an ellipse's horizontal and vertical radii.
func Radii(rx, ry float64) Prop {
	return func(o *Object) { o.RX, o.RY = rx, ry }
}

// Path replaces an arrow's path.
func Path(a geometry.Arrow) Prop {
	return func(o *Object) { o.Arrow = a }
}

// Interactive toggles whether the object is selectable and evented.
func Interactive(on bool) Prop {
	return func(o *Object) { o.Selectable, o.Evented = on, on }
}

// Content replaces a text object's text.
func Content(text string) Prop {
	return func(o *Object) { o.Text = text }
}
