package surface

import (
	"encoding/json"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doodle-server/core"
	"doodle-server/geometry"
)

func newReady(t *testing.T) *Canvas {
	t.Helper()
	c := NewCanvas()
	c.Init()
	return c
}

func TestCanvasNotReady(t *testing.T) {
	c := NewCanvas()
	assert.ErrorIs(t, c.AddObject(&Object{ID: "a"}), core.ErrSurfaceNotReady)
	assert.ErrorIs(t, c.SetFreeDrawMode(true, Brush{}), core.ErrSurfaceNotReady)
	assert.ErrorIs(t, c.ClearAll(White), core.ErrSurfaceNotReady)
	_, err := c.PointerPosition(RawPointer{})
	assert.ErrorIs(t, err, core.ErrSurfaceNotReady)
	_, err = c.ExportSnapshot(FormatPNG, 1)
	assert.ErrorIs(t, err, core.ErrSurfaceNotReady)
	_, err = c.HandleNative(PointerDown, geometry.Pt(1, 1))
	assert.ErrorIs(t, err, core.ErrSurfaceNotReady)
}

func TestPointerPositionAppliesViewport(t *testing.T) {
	c := newReady(t)
	c.SetViewport(geometry.Pt(10, 20), 2)
	p, err := c.PointerPosition(RawPointer{ClientX: 110, ClientY: 220})
	require.NoError(t, err)
	assert.Equal(t, geometry.Pt(50, 100), p)
}

func TestSetObjectPropertiesSyncsBounds(t *testing.T) {
	c := newReady(t)
	style := core.DefaultStyle()
	require.NoError(t, c.AddObject(NewShape("c", KindCircle, geometry.Pt(10, 10), style)))
	require.NoError(t, c.AddObject(NewShape("e", KindEllipse, geometry.Pt(0, 0), style)))
	require.NoError(t, c.AddObject(NewShape("a", KindArrow, geometry.Pt(0, 0), style)))

	require.NoError(t, c.SetObjectProperties("c", Radius(15)))
	require.NoError(t, c.SetObjectProperties("e", Radii(30, 10)))
	arrow := geometry.ArrowFrom(geometry.Pt(0, 0), geometry.Pt(100, 0), geometry.DefaultHeadLength)
	require.NoError(t, c.SetObjectProperties("a", Path(arrow)))

	circle, _ := c.Object("c")
	assert.Equal(t, 30.0, circle.Width)
	assert.Equal(t, 30.0, circle.Height)
	ellipse, _ := c.Object("e")
	assert.Equal(t, 60.0, ellipse.Width)
	assert.Equal(t, 20.0, ellipse.Height)
	a, _ := c.Object("a")
	assert.Equal(t, arrow.Bounds(), a.Box())

	assert.NoError(t, c.SetObjectProperties("missing", Radius(1)))
}

func TestObjectsAreCopies(t *testing.T) {
	c := newReady(t)
	require.NoError(t, c.AddObject(NewShape("r", KindRect, geometry.Pt(0, 0), core.DefaultStyle())))
	c.Objects()[0].Left = 99
	o, ok := c.Object("r")
	require.True(t, ok)
	assert.Zero(t, o.Left)
}

func TestRemoveObjectDropsSelection(t *testing.T) {
	c := newReady(t)
	require.NoError(t, c.AddObject(NewShape("r", KindRect, geometry.Pt(0, 0), core.DefaultStyle())))
	require.NoError(t, c.SetActiveObject("r"))
	require.Len(t, c.ActiveObjects(), 1)
	require.NoError(t, c.RemoveObject("r"))
	assert.Empty(t, c.Objects())
	assert.Empty(t, c.ActiveObjects())
}

func TestGlobalInteractivity(t *testing.T) {
	c := newReady(t)
	require.NoError(t, c.AddObject(NewShape("r", KindRect, geometry.Pt(0, 0), core.DefaultStyle())))
	require.NoError(t, c.SetGlobalInteractivity(true))
	o, _ := c.Object("r")
	assert.True(t, o.Interactive())
	assert.True(t, c.Selection())
	require.NoError(t, c.SetGlobalInteractivity(false))
	o, _ = c.Object("r")
	assert.False(t, o.Selectable)
	assert.False(t, o.Evented)
}

func TestFreeDrawStroke(t *testing.T) {
	c := newReady(t)
	red := color.RGBA{255, 0, 0, 255}
	require.NoError(t, c.SetFreeDrawMode(true, Brush{Width: 5, Color: red}))

	for _, step := range []struct {
		phase Phase
		p     geometry.Point
	}{
		{PointerDown, geometry.Pt(10, 10)},
		{PointerMove, geometry.Pt(20, 15)},
		{PointerMove, geometry.Pt(30, 40)},
		{PointerUp, geometry.Pt(30, 40)},
	} {
		changed, err := c.HandleNative(step.phase, step.p)
		require.NoError(t, err)
		assert.True(t, changed)
	}

	objs := c.Objects()
	require.Len(t, objs, 1)
	stroke := objs[0]
	assert.Equal(t, KindFreehand, stroke.Kind)
	assert.Len(t, stroke.Points, 3)
	assert.Equal(t, red, stroke.Stroke)
	assert.Equal(t, 5.0, stroke.StrokeWidth)
	assert.True(t, stroke.Interactive())
	assert.Equal(t, geometry.Box{Left: 10, Top: 10, Width: 20, Height: 30}, stroke.Box())

	changed, err := c.HandleNative(PointerMove, geometry.Pt(50, 50))
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestFreeDrawPressFinishesOpenStroke(t *testing.T) {
	c := newReady(t)
	require.NoError(t, c.SetFreeDrawMode(true, Brush{Width: 3, Color: color.RGBA{0, 0, 0, 255}}))

	_, err := c.HandleNative(PointerDown, geometry.Pt(10, 10))
	require.NoError(t, err)
	_, err = c.HandleNative(PointerMove, geometry.Pt(20, 20))
	require.NoError(t, err)
	// No up for the first stroke.
	_, err = c.HandleNative(PointerDown, geometry.Pt(100, 100))
	require.NoError(t, err)
	_, err = c.HandleNative(PointerUp, geometry.Pt(100, 100))
	require.NoError(t, err)

	objs := c.Objects()
	require.Len(t, objs, 2)
	assert.True(t, objs[0].Interactive())
	assert.Equal(t, geometry.Box{Left: 10, Top: 10, Width: 10, Height: 10}, objs[0].Box())
	assert.True(t, objs[1].Interactive())
	assert.Len(t, objs[1].Points, 1)
}

func TestSelectAndMove(t *testing.T) {
	c := newReady(t)
	r := NewShape("r", KindRect, geometry.Pt(10, 10), core.DefaultStyle())
	require.NoError(t, c.AddObject(r))
	require.NoError(t, c.SetObjectProperties("r", Size(50, 50)))
	require.NoError(t, c.SetGlobalInteractivity(true))

	_, err := c.HandleNative(PointerDown, geometry.Pt(30, 30))
	require.NoError(t, err)
	active := c.ActiveObjects()
	require.Len(t, active, 1)
	assert.Equal(t, "r", active[0].ID)

	_, err = c.HandleNative(PointerMove, geometry.Pt(40, 35))
	require.NoError(t, err)
	_, err = c.HandleNative(PointerUp, geometry.Pt(40, 35))
	require.NoError(t, err)

	o, _ := c.Object("r")
	assert.Equal(t, 20.0, o.Left)
	assert.Equal(t, 15.0, o.Top)

	_, err = c.HandleNative(PointerDown, geometry.Pt(400, 400))
	require.NoError(t, err)
	assert.Empty(t, c.ActiveObjects())
}

func TestTopmostWins(t *testing.T) {
	c := newReady(t)
	for _, id := range []string{"below", "above"} {
		require.NoError(t, c.AddObject(NewShape(id, KindRect, geometry.Pt(0, 0), core.DefaultStyle())))
		require.NoError(t, c.SetObjectProperties(id, Size(100, 100)))
	}
	require.NoError(t, c.SetGlobalInteractivity(true))
	_, err := c.HandleNative(PointerDown, geometry.Pt(50, 50))
	require.NoError(t, err)
	active := c.ActiveObjects()
	require.Len(t, active, 1)
	assert.Equal(t, "above", active[0].ID)
}

func TestTextIsMeasured(t *testing.T) {
	c := newReady(t)
	require.NoError(t, c.AddObject(NewText("t", geometry.Pt(5, 5), "Double click to edit", 24, color.RGBA{A: 255})))
	o, _ := c.Object("t")
	assert.Greater(t, o.Width, 0.0)
	assert.InDelta(t, 24*lineHeight, o.Height, 1e-9)

	require.NoError(t, c.SetObjectProperties("t", Content("a\nb")))
	o, _ = c.Object("t")
	assert.InDelta(t, 2*24*lineHeight, o.Height, 1e-9)
}

func TestClearAll(t *testing.T) {
	c := newReady(t)
	require.NoError(t, c.AddObject(NewShape("r", KindRect, geometry.Pt(0, 0), core.DefaultStyle())))
	require.NoError(t, c.ClearAll(color.RGBA{1, 2, 3, 255}))
	assert.Empty(t, c.Objects())
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, c.Background())
}

func TestExportSnapshot(t *testing.T) {
	c := newReady(t)
	require.NoError(t, c.AddObject(NewShape("r", KindRect, geometry.Pt(10, 10), core.DefaultStyle())))
	require.NoError(t, c.SetObjectProperties("r", Size(100, 60)))
	require.NoError(t, c.AddObject(NewText("t", geometry.Pt(200, 200), "hi", 24, color.RGBA{A: 255})))

	png, err := c.ExportSnapshot(FormatPNG, 1)
	require.NoError(t, err)
	ct, data, err := core.DecodeDataURL(png)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	assert.True(t, strings.HasPrefix(string(data), "\x89PNG"))

	jpg, err := c.ExportSnapshot(FormatJPEG, 0.8)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(jpg, "data:image/jpeg;base64,"))

	_, err = c.ExportSnapshot("gif", 1)
	assert.Error(t, err)
}

func TestRasterPaintsStroke(t *testing.T) {
	c := newReady(t)
	require.NoError(t, c.AddObject(NewShape("r", KindRect, geometry.Pt(10, 10), core.DefaultStyle())))
	require.NoError(t, c.SetObjectProperties("r", Size(100, 60)))
	img := c.Image()
	r, g, b, _ := img.At(10, 40).RGBA()
	assert.Zero(t, r+g+b)
	r, g, b, _ = img.At(60, 40).RGBA()
	assert.Equal(t, uint32(3*0xffff), r+g+b)
}

func TestObjectJSON(t *testing.T) {
	o := NewShape("a", KindArrow, geometry.Pt(0, 0), core.DefaultStyle())
	raw, err := json.Marshal(o)
	require.NoError(t, err)
	var v map[string]any
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, "arrow", v["kind"])
	assert.Equal(t, "#000000", v["stroke"])
	assert.Contains(t, v, "arrow")
	assert.NotContains(t, v, "fill")
}

func TestParseFormatAndPhase(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, f)
	f, err = ParseFormat("JPG")
	require.NoError(t, err)
	assert.Equal(t, FormatJPEG, f)
	_, err = ParseFormat("bmp")
	assert.Error(t, err)

	p, err := ParsePhase("Move")
	require.NoError(t, err)
	assert.Equal(t, PointerMove, p)
	_, err = ParsePhase("hover")
	assert.Error(t, err)
}
