// Package convert turns a deck.Document into a pptx.Presentation.
//
// Every slide becomes exactly one output slide, in order. Each element is
// converted in isolation: errors and panics are recorded as a failed
// Result for that element and conversion carries on.
package convert

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/VantageDataChat/figslides/deck"
	"github.com/VantageDataChat/figslides/pptx"
	"github.com/flanksource/commons/logger"
	"golang.org/x/text/unicode/norm"
)

// Converter converts documents with a fixed Config. It holds no per
// document state and is safe for concurrent use.
type Converter struct {
	cfg        Config
	background pptx.Color
	log        logger.Logger
}

// New validates cfg and returns a Converter.
func New(cfg Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	bg, _ := parseHex(cfg.Background)
	return &Converter{cfg: cfg, background: bg, log: logger.GetLogger("convert")}, nil
}

// Config returns the converter's configuration.
func (c *Converter) Config() Config {
	return c.cfg
}

// skipError marks an element as skipped rather than failed.
type skipError struct{ reason string }

func (e skipError) Error() string { return e.reason }

func skip(format string, args ...any) error {
	return skipError{reason: fmt.Sprintf(format, args...)}
}

// Convert builds a presentation from doc. A nil document converts to an
// empty presentation.
func (c *Converter) Convert(doc *deck.Document) (*pptx.Presentation, *Report) {
	pres := pptx.New()
	report := &Report{Slides: make([]SlideReport, 0)}
	if doc == nil {
		return pres, report
	}

	if doc.FileName != "" {
		pres.GetDocumentProperties().Title = doc.FileName
	}
	if c.cfg.Layout == LayoutFixed {
		pres.GetLayout().SetCustomLayout(pptx.Inch(c.cfg.Canvas.Width), pptx.Inch(c.cfg.Canvas.Height))
	}

	for i, in := range doc.Slides {
		report.Slides = append(report.Slides, c.convertSlide(pres, i, in))
	}
	return pres, report
}

func (c *Converter) convertSlide(pres *pptx.Presentation, index int, in deck.SlideSpec) SlideReport {
	f, warnings := c.slideFrame(in)
	if c.cfg.Layout == LayoutPerSlide {
		// One slide size per package: the last slide's canvas wins.
		pres.GetLayout().SetCustomLayout(f.canvasW, f.canvasH)
	}

	slide := pres.CreateSlide()
	slide.SetName(in.Name)
	slide.SetBackground(pptx.NewSolidFill(c.background))

	sr := SlideReport{
		Index:    index,
		Name:     in.Name,
		Source:   Size{Width: f.sourceW, Height: f.sourceH},
		Canvas:   f.inches(),
		Warnings: append(append([]string(nil), in.Warnings...), warnings...),
	}
	for _, w := range sr.Warnings {
		c.log.Warnf("slide %d: %s", index+1, w)
	}

	shapes, results := c.convertElements(f, in.Elements)
	for _, s := range shapes {
		slide.AddShape(s)
	}
	sr.Elements = results
	c.log.Debugf("slide %d: %d shapes from %d elements", index+1, len(shapes), len(results))
	return sr
}

// convertElements converts elements in order. Results line up with
// elements; shapes only holds what was produced.
func (c *Converter) convertElements(f frame, elements []deck.Element) ([]pptx.Shape, []Result) {
	shapes := make([]pptx.Shape, 0, len(elements))
	results := make([]Result, 0, len(elements))
	for i, el := range elements {
		shape, res := c.convertElement(f, i, el)
		if shape != nil {
			shapes = append(shapes, shape)
		}
		results = append(results, res)
	}
	return shapes, results
}

func (c *Converter) convertElement(f frame, index int, el deck.Element) (shape pptx.Shape, res Result) {
	res = Result{Index: index, Status: StatusOK}
	if el == nil {
		res.Kind = deck.KindUnknown
		res.Status = StatusSkipped
		res.Reason = "empty element"
		return nil, res
	}
	res.Kind = el.Kind()

	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("%s element %d panicked: %v\n%s", res.Kind, index, r, debug.Stack())
			shape = nil
			res.Status = StatusFailed
			res.Reason = fmt.Sprintf("panic: %v", r)
		}
	}()

	var err error
	switch e := el.(type) {
	case *deck.Image:
		shape, err = c.image(f, e)
	case *deck.Text:
		shape, err = c.text(f, e)
	case *deck.Rectangle:
		shape, err = c.rectangle(f, e)
	case *deck.Circle:
		shape, err = c.circle(f, e)
	case *deck.Group:
		shape, res.Children, err = c.group(f, e)
	case *deck.Invalid:
		err = fmt.Errorf("malformed %s element: %w", e.Type, e.Err)
	case *deck.Unknown:
		err = skip("%s", e.Reason())
	default:
		err = skip("unhandled element %T", el)
	}

	var se skipError
	switch {
	case err == nil:
	case errors.As(err, &se):
		c.log.Debugf("skipping %s element %d: %v", res.Kind, index, err)
		res.Status = StatusSkipped
		res.Reason = se.reason
		shape = nil
	default:
		c.log.Warnf("%s element %d failed: %v", res.Kind, index, err)
		res.Status = StatusFailed
		res.Reason = err.Error()
		shape = nil
	}
	return shape, res
}

func (c *Converter) image(f frame, e *deck.Image) (pptx.Shape, error) {
	img, err := decodeImage(e.ImageBase64)
	if errors.Is(err, errNoImageData) {
		return nil, skip("image has no data")
	}
	if err != nil {
		return nil, err
	}

	pic := pptx.NewDrawingShape().SetImageData(img.data, img.mimeType)
	pic.SetDescription(fmt.Sprintf("%dx%d %s", img.width, img.height, img.mimeType))
	if e.FullCanvas || c.cfg.Images == ImagesFill {
		f.cover(&pic.BaseShape)
	} else {
		f.place(&pic.BaseShape, e.Frame, c.cfg.DefaultElement)
	}
	return pic, nil
}

func (c *Converter) text(f frame, e *deck.Text) (pptx.Shape, error) {
	box := pptx.NewRichTextShape()
	f.place(&box.BaseShape, e.Frame, c.cfg.DefaultElement)
	inset := pptx.Inch(c.cfg.TextInset)
	box.SetInsets(inset, inset, inset, inset)
	box.SetWordWrap(true)
	box.SetTextAnchor(pptx.TextAnchorTop)

	size := max(c.cfg.MinFontSize, e.FontSize.Or(c.cfg.FontSize)*f.pointsPerUnit())
	family := strings.TrimSpace(e.FontFamily)
	if family == "" {
		family = c.cfg.FontFamily
	}
	color := c.colorOrBlack(e.Color)

	para := box.GetActiveParagraph()
	para.GetAlignment().SetHorizontal(alignment(e.TextAlign))

	// Line feeds become breaks inside the single paragraph.
	content := norm.NFC.String(strings.ReplaceAll(e.Content, "\r\n", "\n"))
	for i, line := range strings.Split(content, "\n") {
		if i > 0 {
			para.CreateBreak()
		}
		run := para.CreateTextRun(line)
		run.GetFont().
			SetName(family).
			SetSize(size).
			SetBold(e.FontWeight.IsBold()).
			SetColor(color)
	}
	return box, nil
}

// alignment maps LEFT, CENTER and RIGHT in any case; anything else is left.
func alignment(s string) pptx.HorizontalAlignment {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CENTER":
		return pptx.HorizontalCenter
	case "RIGHT":
		return pptx.HorizontalRight
	default:
		return pptx.HorizontalLeft
	}
}

func (c *Converter) rectangle(f frame, e *deck.Rectangle) (pptx.Shape, error) {
	rect := pptx.NewAutoShape().SetAutoShapeType(pptx.AutoShapeRectangle)
	f.place(&rect.BaseShape, e.Frame, c.cfg.DefaultElement)
	if e.Fill != "" {
		rect.SetSolidFill(c.colorOrBlack(e.Fill))
	}
	if e.Stroke != "" {
		rect.SetOutline(c.colorOrBlack(e.Stroke), pptx.Point(c.cfg.StrokeWidth))
	}
	return rect, nil
}

func (c *Converter) circle(f frame, e *deck.Circle) (pptx.Shape, error) {
	ellipse := pptx.NewAutoShape().SetAutoShapeType(pptx.AutoShapeEllipse)
	f.place(&ellipse.BaseShape, e.Frame, c.cfg.DefaultElement)
	if e.Fill != "" {
		ellipse.SetSolidFill(c.colorOrBlack(e.Fill))
	}
	return ellipse, nil
}

// group converts children in the slide's frame; the group's own geometry
// is ignored and its bounds are the union of its children.
func (c *Converter) group(f frame, e *deck.Group) (pptx.Shape, []Result, error) {
	if len(e.Children) == 0 {
		return nil, nil, skip("empty group")
	}
	shapes, results := c.convertElements(f, e.Children)
	if len(shapes) == 0 {
		return nil, results, skip("no convertible children")
	}
	g := pptx.NewGroupShape()
	for _, s := range shapes {
		g.AddShape(s)
	}
	g.FitToChildren()
	return g, results, nil
}
