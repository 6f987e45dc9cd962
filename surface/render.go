package surface

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"doodle-server/core"
)

// lineHeight is the text line spacing as a multiple of the font size.
const lineHeight = 1.16

var regular = mustParseFont(goregular.TTF)

func mustParseFont(ttf []byte) *truetype.Font {
	f, err := truetype.Parse(ttf)
	if err != nil {
		panic(fmt.Sprintf("parse embedded font: %v", err))
	}
	return f
}

func (c *Canvas) face(size float64) font.Face {
	if f, ok := c.faces[size]; ok {
		return f
	}
	f := truetype.NewFace(regular, &truetype.Options{Size: size})
	c.faces[size] = f
	return f
}

func (c *Canvas) measure(text string, size float64) (float64, float64) {
	if size <= 0 {
		return 0, 0
	}
	d := font.Drawer{Face: c.face(size)}
	lines := strings.Split(text, "\n")
	var width float64
	for _, l := range lines {
		width = math.Max(width, float64(d.MeasureString(l))/64)
	}
	return width, float64(len(lines)) * size * lineHeight
}

// Image rasterises the scene.
func (c *Canvas) Image() image.Image {
	return c.draw().Image()
}

func (c *Canvas) draw() *gg.Context {
	dc := gg.NewContext(c.width, c.height)
	dc.SetColor(c.background)
	dc.Clear()
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	for _, o := range c.objects {
		c.drawObject(dc, o)
	}
	return dc
}

func (c *Canvas) drawObject(dc *gg.Context, o *Object) {
	dc.SetLineWidth(o.StrokeWidth)
	dc.SetColor(o.Stroke)
	switch o.Kind {
	case KindRect:
		dc.DrawRectangle(o.Left, o.Top, o.Width, o.Height)
		dc.Stroke()
	case KindCircle:
		dc.DrawCircle(o.Left+o.Radius, o.Top+o.Radius, o.Radius)
		dc.Stroke()
	case KindEllipse:
		dc.DrawEllipse(o.Left+o.RX, o.Top+o.RY, o.RX, o.RY)
		dc.Stroke()
	case KindArrow:
		for _, s := range o.Arrow.Segments() {
			dc.MoveTo(s[0].X, s[0].Y)
			dc.LineTo(s[1].X, s[1].Y)
		}
		dc.Stroke()
	case KindFreehand:
		if len(o.Points) == 1 {
			dc.DrawCircle(o.Points[0].X, o.Points[0].Y, o.StrokeWidth/2)
			dc.Fill()
			return
		}
		for i, p := range o.Points {
			if i == 0 {
				dc.MoveTo(p.X, p.Y)
				continue
			}
			dc.LineTo(p.X, p.Y)
		}
		dc.Stroke()
	case KindText:
		dc.SetFontFace(c.face(o.FontSize))
		dc.SetColor(o.Fill)
		for i, line := range strings.Split(o.Text, "\n") {
			dc.DrawStringAnchored(line, o.Left, o.Top+float64(i)*o.FontSize*lineHeight, 0, 1)
		}
	}
}

// ExportSnapshot encodes the scene as a data URL. Quality in (0, 1] applies
// to JPEG only; anything else uses the encoder default.
func (c *Canvas) ExportSnapshot(format Format, quality float64) (string, error) {
	if !c.ready {
		return "", core.ErrSurfaceNotReady
	}
	dc := c.draw()
	var buf bytes.Buffer
	switch format {
	case FormatPNG, "":
		if err := dc.EncodePNG(&buf); err != nil {
			return "", fmt.Errorf("encode png: %w", err)
		}
		format = FormatPNG
	case FormatJPEG:
		opts := &jpeg.Options{Quality: jpeg.DefaultQuality}
		if quality > 0 && quality <= 1 {
			opts.Quality = max(1, int(math.Round(quality*100)))
		}
		if err := jpeg.Encode(&buf, dc.Image(), opts); err != nil {
			return "", fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	return core.EncodeDataURL(format.ContentType(), buf.Bytes()), nil
}
