package geometry

import "math"

const (
	// DefaultHeadLength is the length of each arrowhead barb.
	DefaultHeadLength = 20
	// HeadAngle is the angle between the shaft and each barb.
	HeadAngle = math.Pi / 7
)

// Arrow is a shaft from Start to End with a V-shaped head at End made of the
// segments End→Left and End→Right.
type Arrow struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
	Left  Point `json:"left"`
	Right Point `json:"right"`
}

// ArrowFrom builds the full arrow path between two endpoints. The head is
// derived from the shaft direction, so the whole path has to be rebuilt
// whenever either endpoint moves.
func ArrowFrom(start, end Point, headLength float64) Arrow {
	angle := math.Atan2(end.Y-start.Y, end.X-start.X)
	barb := func(a float64) Point {
		return Point{
			X: end.X - headLength*math.Cos(a),
			Y: end.Y - headLength*math.Sin(a),
		}
	}
	return Arrow{
		Start: start,
		End:   end,
		Left:  barb(angle - HeadAngle),
		Right: barb(angle + HeadAngle),
	}
}

// Segments returns the three line segments making up the arrow.
func (a Arrow) Segments() [3][2]Point {
	return [3][2]Point{
		{a.Start, a.End},
		{a.End, a.Left},
		{a.End, a.Right},
	}
}

// Bounds is the bounding box of the shaft and both barbs.
func (a Arrow) Bounds() Box {
	return BoundsOf(a.Start, a.End, a.Left, a.Right)
}

// Translate moves the whole arrow by d.
func (a Arrow) Translate(d Point) Arrow {
	return Arrow{
		Start: a.Start.Add(d),
		End:   a.End.Add(d),
		Left:  a.Left.Add(d),
		Right: a.Right.Add(d),
	}
}

// DistanceToSegment returns the distance from p to the segment ab.
func DistanceToSegment(p, a, b Point) float64 {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / l2
	t = math.Max(0, math.Min(1, t))
	proj := Point{a.X + t*d.X, a.Y + t*d.Y}
	return math.Hypot(p.X-proj.X, p.Y-proj.Y)
}
