package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestBoxFromNormalisesDragDirection(t *testing.T) {
	cases := []struct {
		name string
		a, b Point
		want Box
	}{
		{"down right", Pt(10, 20), Pt(50, 80), Box{10, 20, 40, 60}},
		{"up left", Pt(50, 80), Pt(10, 20), Box{10, 20, 40, 60}},
		{"up right", Pt(10, 80), Pt(50, 20), Box{10, 20, 40, 60}},
		{"down left", Pt(50, 20), Pt(10, 80), Box{10, 20, 40, 60}},
		{"click", Pt(7, 7), Pt(7, 7), Box{7, 7, 0, 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BoxFrom(tc.a, tc.b))
		})
	}
}

func TestBoundsOf(t *testing.T) {
	assert.Equal(t, Box{}, BoundsOf())
	assert.Equal(t, Box{-1, 2, 6, 8}, BoundsOf(Pt(3, 10), Pt(-1, 2), Pt(5, 4)))
}

func TestBoxHelpers(t *testing.T) {
	b := Box{10, 10, 20, 10}
	assert.True(t, b.Contains(Pt(10, 10)))
	assert.True(t, b.Contains(Pt(30, 20)))
	assert.False(t, b.Contains(Pt(31, 20)))
	assert.Equal(t, Pt(20, 15), b.Center())
	assert.Equal(t, Box{8, 8, 24, 14}, b.Grow(2))
	assert.True(t, Box{0, 0, 4, 4.9}.Smaller(5))
	assert.False(t, Box{0, 0, 4, 5}.Smaller(5))
}

func TestArrowHeadHorizontal(t *testing.T) {
	a := ArrowFrom(Pt(0, 0), Pt(100, 0), 20)

	assert.Equal(t, Pt(0, 0), a.Start)
	assert.Equal(t, Pt(100, 0), a.End)

	assert.InDelta(t, 100-20*math.Cos(-math.Pi/7), a.Left.X, eps)
	assert.InDelta(t, -20*math.Sin(-math.Pi/7), a.Left.Y, eps)
	assert.InDelta(t, 100-20*math.Cos(math.Pi/7), a.Right.X, eps)
	assert.InDelta(t, -20*math.Sin(math.Pi/7), a.Right.Y, eps)

	// The barbs mirror each other around the shaft.
	assert.InDelta(t, a.Left.X, a.Right.X, eps)
	assert.InDelta(t, -a.Left.Y, a.Right.Y, eps)
}

func TestArrowIsRebuiltFromEndpoints(t *testing.T) {
	first := ArrowFrom(Pt(0, 0), Pt(100, 0), 20)
	moved := ArrowFrom(Pt(0, 0), Pt(0, 100), 20)

	// Pointing straight down the barbs sit above the tip.
	assert.InDelta(t, 100-20*math.Cos(HeadAngle), moved.Left.Y, eps)
	assert.InDelta(t, 100-20*math.Cos(HeadAngle), moved.Right.Y, eps)
	assert.NotEqual(t, first.Left, moved.Left)

	segs := moved.Segments()
	for _, seg := range segs[1:] {
		assert.Equal(t, moved.End, seg[0])
		assert.InDelta(t, 20, math.Hypot(seg[1].X-seg[0].X, seg[1].Y-seg[0].Y), eps)
	}
}

func TestArrowDegenerate(t *testing.T) {
	a := ArrowFrom(Pt(5, 5), Pt(5, 5), 20)
	b := a.Bounds()
	assert.False(t, math.IsNaN(b.Width))
	assert.InDelta(t, 20*math.Cos(HeadAngle), b.Width, eps)
}

func TestArrowBoundsAndTranslate(t *testing.T) {
	a := ArrowFrom(Pt(0, 0), Pt(100, 0), 20)
	b := a.Bounds()
	assert.InDelta(t, 0, b.Left, eps)
	assert.InDelta(t, 100, b.Right(), eps)
	assert.InDelta(t, 2*20*math.Sin(HeadAngle), b.Height, eps)

	moved := a.Translate(Pt(10, 5))
	assert.Equal(t, Pt(10, 5), moved.Start)
	assert.InDelta(t, b.Left+10, moved.Bounds().Left, eps)
}

func TestDistanceToSegment(t *testing.T) {
	assert.InDelta(t, 5, DistanceToSegment(Pt(5, 5), Pt(0, 0), Pt(10, 0)), eps)
	assert.InDelta(t, 5, DistanceToSegment(Pt(-3, 4), Pt(0, 0), Pt(10, 0)), eps)
	assert.InDelta(t, 5, DistanceToSegment(Pt(3, 4), Pt(0, 0), Pt(0, 0)), eps)
}
