package pptx

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var basicFace font.Face = basicfont.Face7x13

// RenderOptions configures slide previews.
type RenderOptions struct {
	// Width is the image width in pixels; the height follows the slide
	// aspect ratio. Default 960.
	Width int
	// Fonts is shared between renders. Nil uses a new cache.
	Fonts *FontCache
}

// DefaultRenderOptions returns the defaults.
func DefaultRenderOptions() *RenderOptions {
	return &RenderOptions{Width: 960}
}

// RenderSlide draws slide index as an RGBA preview. Pictures, solid fills,
// outlines, rectangles, ellipses and text are drawn; anything else is
// ignored.
func (p *Presentation) RenderSlide(index int, opts *RenderOptions) (*image.RGBA, error) {
	slide, err := p.GetSlide(index)
	if err != nil {
		return nil, fmt.Errorf("slide %d: %w", index, err)
	}
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	width := opts.Width
	if width <= 0 {
		width = 960
	}
	if p.layout.CX <= 0 || p.layout.CY <= 0 {
		return nil, fmt.Errorf("invalid slide size %dx%d", p.layout.CX, p.layout.CY)
	}
	height := max(1, int(math.Round(float64(width)*float64(p.layout.CY)/float64(p.layout.CX))))

	r := &renderer{
		img:   image.NewRGBA(image.Rect(0, 0, width, height)),
		scale: float64(width) / float64(p.layout.CX),
		fonts: opts.Fonts,
	}
	if r.fonts == nil {
		r.fonts = NewFontCache()
	}

	bg := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if f := slide.background; f != nil && f.Type == FillSolid {
		bg = toRGBA(f.Color)
	}
	draw.Draw(r.img, r.img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	for _, s := range slide.shapes {
		r.shape(s)
	}
	return r.img, nil
}

// WriteSlidePNG renders slide index and encodes it as PNG.
func (p *Presentation) WriteSlidePNG(w io.Writer, index int, opts *RenderOptions) error {
	img, err := p.RenderSlide(index, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// SaveSlidesPNG renders every slide to fmt.Sprintf(pattern, n) with n
// counting from 1, and returns the paths written.
func (p *Presentation) SaveSlidesPNG(pattern string, opts *RenderOptions) ([]string, error) {
	if opts == nil {
		opts = DefaultRenderOptions()
	}
	if opts.Fonts == nil {
		shared := *opts
		shared.Fonts = NewFontCache()
		opts = &shared
	}

	paths := make([]string, 0, len(p.slides))
	for i := range p.slides {
		path := fmt.Sprintf(pattern, i+1)
		var buf bytes.Buffer
		if err := p.WriteSlidePNG(&buf, i, opts); err != nil {
			return paths, err
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create directory: %w", err)
			}
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("slide %d: %w", i+1, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

type renderer struct {
	img   *image.RGBA
	scale float64 // pixels per EMU
	fonts *FontCache
}

func toRGBA(c Color) color.RGBA {
	return color.RGBA{R: c.GetRed(), G: c.GetGreen(), B: c.GetBlue(), A: c.GetAlpha()}
}

func (r *renderer) px(emu int64) int {
	return int(float64(emu)*r.scale + 0.5)
}

func (r *renderer) rect(b *BaseShape) image.Rectangle {
	x, y := r.px(b.offsetX), r.px(b.offsetY)
	return image.Rect(x, y, x+r.px(b.width), y+r.px(b.height))
}

// lineWidth converts an outline width to pixels, at least one.
func (r *renderer) lineWidth(b *Border) int {
	return max(1, r.px(b.Width))
}

func (r *renderer) shape(s Shape) {
	switch v := s.(type) {
	case *DrawingShape:
		r.picture(v)
	case *AutoShape:
		r.autoShape(v)
	case *RichTextShape:
		rect := r.rect(&v.BaseShape)
		if v.fill != nil && v.fill.Type == FillSolid {
			draw.Draw(r.img, rect, image.NewUniform(toRGBA(v.fill.Color)), image.Point{}, draw.Over)
		}
		if v.border != nil && v.border.Style != BorderNone {
			r.strokeRect(rect, toRGBA(v.border.Color), r.lineWidth(v.border))
		}
		r.text(v, rect)
	case *GroupShape:
		for _, child := range v.shapes {
			r.shape(child)
		}
	}
}

func (r *renderer) picture(s *DrawingShape) {
	dst := r.rect(&s.BaseShape)
	if len(s.data) == 0 || dst.Empty() {
		return
	}
	src, _, err := image.Decode(bytes.NewReader(s.data))
	if err != nil {
		r.strokeRect(dst, color.RGBA{R: 200, G: 200, B: 200, A: 255}, 1)
		return
	}
	draw.ApproxBiLinear.Scale(r.img, dst, src, src.Bounds(), draw.Over, nil)
}

func (r *renderer) autoShape(s *AutoShape) {
	rect := r.rect(&s.BaseShape)
	ellipse := s.shapeType == AutoShapeEllipse

	if s.fill != nil && s.fill.Type == FillSolid {
		c := toRGBA(s.fill.Color)
		if ellipse {
			r.fillEllipse(rect, c, 0)
		} else {
			draw.Draw(r.img, rect, image.NewUniform(c), image.Point{}, draw.Over)
		}
	}
	if s.border != nil && s.border.Style != BorderNone {
		c, w := toRGBA(s.border.Color), r.lineWidth(s.border)
		if ellipse {
			r.fillEllipse(rect, c, w)
		} else {
			r.strokeRect(rect, c, w)
		}
	}
	if s.text != "" {
		face := r.fonts.Face("", 10*float64(emuPerPoint)*r.scale, false)
		r.line(s.text, face, color.RGBA{A: 255}, rect, HorizontalCenter,
			rect.Min.Y+(rect.Dy()+face.Metrics().Ascent.Ceil())/2)
	}
}

func (r *renderer) strokeRect(rect image.Rectangle, c color.RGBA, width int) {
	u := image.NewUniform(c)
	for _, edge := range []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+width),
		image.Rect(rect.Min.X, rect.Max.Y-width, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+width, rect.Max.Y),
		image.Rect(rect.Max.X-width, rect.Min.Y, rect.Max.X, rect.Max.Y),
	} {
		draw.Draw(r.img, edge.Intersect(rect), u, image.Point{}, draw.Over)
	}
}

// fillEllipse fills the ellipse inscribed in rect. A positive ring draws
// only the outer ring pixels wide.
func (r *renderer) fillEllipse(rect image.Rectangle, c color.RGBA, ring int) {
	rx, ry := float64(rect.Dx())/2, float64(rect.Dy())/2
	if rx <= 0 || ry <= 0 {
		return
	}
	cx, cy := float64(rect.Min.X)+rx, float64(rect.Min.Y)+ry
	irx, iry := rx-float64(ring), ry-float64(ring)

	area := rect.Intersect(r.img.Bounds())
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			if (dx*dx)/(rx*rx)+(dy*dy)/(ry*ry) > 1 {
				continue
			}
			if ring > 0 && irx > 0 && iry > 0 && (dx*dx)/(irx*irx)+(dy*dy)/(iry*iry) < 1 {
				continue
			}
			r.img.SetRGBA(x, y, c)
		}
	}
}

// span is a piece of text in one face and color.
type span struct {
	text  string
	face  font.Face
	color color.RGBA
}

type textLine struct {
	spans  []span
	width  int
	height int
	ascent int
	align  HorizontalAlignment
}

func (l *textLine) add(s span) {
	l.spans = append(l.spans, s)
	l.width += font.MeasureString(s.face, s.text).Ceil()
	m := s.face.Metrics()
	l.height = max(l.height, m.Height.Ceil())
	l.ascent = max(l.ascent, m.Ascent.Ceil())
}

func (r *renderer) text(s *RichTextShape, rect image.Rectangle) {
	if l, t, rt, b, ok := s.GetInsets(); ok {
		rect = image.Rect(rect.Min.X+r.px(l), rect.Min.Y+r.px(t), rect.Max.X-r.px(rt), rect.Max.Y-r.px(b))
	}

	var lines []textLine
	for _, para := range s.paragraphs {
		align := HorizontalLeft
		if para.alignment != nil {
			align = para.alignment.Horizontal
		}
		var pending []span
		flush := func() {
			lines = append(lines, r.wrap(pending, align, rect.Dx(), s.wordWrap)...)
			pending = nil
		}
		for _, el := range para.elements {
			switch e := el.(type) {
			case *TextRun:
				f := e.font
				if f == nil {
					f = NewFont()
				}
				face := r.fonts.Face(f.Name, f.Size*float64(emuPerPoint)*r.scale, f.Bold)
				pending = append(pending, span{text: e.text, face: face, color: toRGBA(f.Color)})
			case *BreakElement:
				flush()
			}
		}
		flush()
	}

	y := rect.Min.Y
	for _, l := range lines {
		if l.height == 0 {
			l.height = basicFace.Metrics().Height.Ceil()
		}
		if y+l.height > rect.Max.Y && y > rect.Min.Y {
			break
		}
		x := rect.Min.X
		switch l.align {
		case HorizontalCenter:
			x += (rect.Dx() - l.width) / 2
		case HorizontalRight:
			x += rect.Dx() - l.width
		}
		baseline := y + l.ascent
		for _, sp := range l.spans {
			d := &font.Drawer{Dst: r.img, Src: image.NewUniform(sp.color), Face: sp.face, Dot: fixed.P(x, baseline)}
			d.DrawString(sp.text)
			x += font.MeasureString(sp.face, sp.text).Ceil()
		}
		y += l.height
	}
}

// wrap breaks spans into lines no wider than maxWidth at word boundaries.
// An empty input yields one empty line.
func (r *renderer) wrap(spans []span, align HorizontalAlignment, maxWidth int, wordWrap bool) []textLine {
	cur := textLine{align: align}
	if len(spans) == 0 {
		return []textLine{cur}
	}
	if !wordWrap || maxWidth <= 0 {
		for _, s := range spans {
			cur.add(s)
		}
		return []textLine{cur}
	}

	var lines []textLine
	spaceBefore := false
	for _, s := range spans {
		leading := spaceBefore || strings.HasPrefix(s.text, " ")
		spaceBefore = strings.HasSuffix(s.text, " ")
		for i, word := range strings.Fields(s.text) {
			if i > 0 || (leading && len(cur.spans) > 0) {
				word = " " + word
			}
			w := font.MeasureString(s.face, word).Ceil()
			if cur.width+w > maxWidth && len(cur.spans) > 0 {
				lines = append(lines, cur)
				cur = textLine{align: align}
				word = strings.TrimLeft(word, " ")
			}
			cur.add(span{text: word, face: s.face, color: s.color})
		}
	}
	if len(cur.spans) > 0 || len(lines) == 0 {
		lines = append(lines, cur)
	}
	return lines
}

// line draws a single unwrapped string in rect with its baseline at y.
func (r *renderer) line(text string, face font.Face, c color.RGBA, rect image.Rectangle, align HorizontalAlignment, y int) {
	w := font.MeasureString(face, text).Ceil()
	x := rect.Min.X
	switch align {
	case HorizontalCenter:
		x += (rect.Dx() - w) / 2
	case HorizontalRight:
		x += rect.Dx() - w
	}
	d := &font.Drawer{Dst: r.img, Src: image.NewUniform(c), Face: face, Dot: fixed.P(x, y)}
	d.DrawString(text)
}
