package surface

import (
	"doodle-server/core"
	"doodle-server/geometry"
)

// HandleNative runs the canvas's built-in pointer behaviour: in free-draw
// mode the brush paints a freehand stroke, and with global interactivity on
// a press picks the topmost interactive object and a drag moves it.
func (c *Canvas) HandleNative(phase Phase, p geometry.Point) (bool, error) {
	if !c.ready {
		return false, core.ErrSurfaceNotReady
	}
	switch {
	case c.freeDraw:
		return c.paint(phase, p), nil
	case c.interactive:
		return c.pick(phase, p), nil
	}
	return false, nil
}

func (c *Canvas) paint(phase Phase, p geometry.Point) bool {
	switch phase {
	case PointerDown:
		if c.stroke != nil {
			c.finishStroke()
		}
		c.stroke = NewShape(c.newID(), KindFreehand, p, brushStyle(c.brush))
		c.syncBounds(c.stroke)
		c.objects = append(c.objects, c.stroke)
		return true
	case PointerMove:
		if c.stroke == nil {
			return false
		}
		c.stroke.Points = append(c.stroke.Points, p)
		c.syncBounds(c.stroke)
		return true
	case PointerUp:
		if c.stroke == nil {
			return false
		}
		c.finishStroke()
		return true
	}
	return false
}

func (c *Canvas) finishStroke() {
	c.stroke.Selectable, c.stroke.Evented = true, true
	c.syncBounds(c.stroke)
	c.stroke = nil
}

func (c *Canvas) pick(phase Phase, p geometry.Point) bool {
	switch phase {
	case PointerDown:
		if hit := c.topmost(p); hit != nil {
			c.active = []string{hit.ID}
			c.drag = &p
		} else {
			c.active = nil
			c.drag = nil
		}
		return true
	case PointerMove:
		if c.drag == nil {
			return false
		}
		d := p.Sub(*c.drag)
		for _, id := range c.active {
			if o := c.find(id); o != nil {
				o.Translate(d)
			}
		}
		c.drag = &p
		return true
	case PointerUp:
		moved := c.drag != nil
		c.drag = nil
		return moved
	}
	return false
}

func (c *Canvas) topmost(p geometry.Point) *Object {
	for i := len(c.objects) - 1; i >= 0; i-- {
		if o := c.objects[i]; o.Interactive() && o.Hit(p) {
			return o
		}
	}
	return nil
}

func brushStyle(b Brush) core.Style {
	return core.Style{StrokeColor: b.Color, StrokeWidth: b.Width}
}
