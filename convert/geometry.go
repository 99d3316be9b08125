package convert

import (
	"github.com/VantageDataChat/figslides/deck"
	"github.com/VantageDataChat/figslides/pptx"
)

// frame maps one slide's source coordinates onto its canvas.
type frame struct {
	sourceW, sourceH float64
	canvasW, canvasH int64 // EMU
}

// slideFrame resolves the source size and canvas for a slide. Missing or
// non-positive dimensions fall back to DefaultSlide; the returned warnings
// say so.
func (c *Converter) slideFrame(s deck.SlideSpec) (frame, []string) {
	var warnings []string
	w := s.Width.Or(c.cfg.DefaultSlide.Width)
	h := s.Height.Or(c.cfg.DefaultSlide.Height)
	if w <= 0 {
		warnings = append(warnings, "non-positive slide width, using default")
		w = c.cfg.DefaultSlide.Width
	}
	if h <= 0 {
		warnings = append(warnings, "non-positive slide height, using default")
		h = c.cfg.DefaultSlide.Height
	}

	f := frame{sourceW: w, sourceH: h}
	switch c.cfg.Layout {
	case LayoutFixed:
		f.canvasW = pptx.Inch(c.cfg.Canvas.Width)
		f.canvasH = pptx.Inch(c.cfg.Canvas.Height)
	default:
		f.canvasW = pptx.Inch(w / c.cfg.PixelsPerInch)
		f.canvasH = pptx.Inch(h / c.cfg.PixelsPerInch)
	}
	return f, warnings
}

func (f frame) scaleX() float64 { return float64(f.canvasW) / f.sourceW }
func (f frame) scaleY() float64 { return float64(f.canvasH) / f.sourceH }

// pointsPerUnit is the horizontal scale in points per source unit; 1 at
// 72 px per inch.
func (f frame) pointsPerUnit() float64 {
	return f.scaleX() / float64(pptx.Point(1))
}

// place positions b at the element's transformed geometry.
func (f frame) place(b *pptx.BaseShape, fr deck.Frame, def Size) {
	x := fr.X.Or(0) * f.scaleX()
	y := fr.Y.Or(0) * f.scaleY()
	w := max(fr.Width.Or(def.Width), 0) * f.scaleX()
	h := max(fr.Height.Or(def.Height), 0) * f.scaleY()
	b.SetPosition(pptx.EMU(x), pptx.EMU(y))
	b.SetSize(pptx.EMU(w), pptx.EMU(h))
}

// cover positions b at the origin, sized to the whole canvas.
func (f frame) cover(b *pptx.BaseShape) {
	b.SetPosition(0, 0)
	b.SetSize(f.canvasW, f.canvasH)
}

func (f frame) inches() Size {
	return Size{Width: pptx.EMUToInch(f.canvasW), Height: pptx.EMUToInch(f.canvasH)}
}
