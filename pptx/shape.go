package pptx

import (
	"fmt"
	"os"
	"strings"
)

// Shape is the interface that all shapes implement.
type Shape interface {
	GetType() ShapeType
	GetOffsetX() int64
	GetOffsetY() int64
	GetWidth() int64
	GetHeight() int64
	GetName() string
	// base returns the underlying BaseShape (unexported, internal use only).
	base() *BaseShape
}

// ShapeType represents the type of shape.
type ShapeType int

const (
	ShapeTypeRichText ShapeType = iota
	ShapeTypeDrawing
	ShapeTypeAutoShape
	ShapeTypeGroup
)

func (t ShapeType) String() string {
	switch t {
	case ShapeTypeRichText:
		return "text"
	case ShapeTypeDrawing:
		return "picture"
	case ShapeTypeAutoShape:
		return "shape"
	case ShapeTypeGroup:
		return "group"
	}
	return fmt.Sprintf("ShapeType(%d)", int(t))
}

// BaseShape contains common shape properties.
type BaseShape struct {
	name        string
	description string
	offsetX     int64 // in EMU
	offsetY     int64 // in EMU
	width       int64 // in EMU
	height      int64 // in EMU
	rotation    int   // in degrees
	fill        *Fill
	border      *Border
}

func (b *BaseShape) GetOffsetX() int64 { return b.offsetX }
func (b *BaseShape) GetOffsetY() int64 { return b.offsetY }
func (b *BaseShape) GetWidth() int64   { return b.width }
func (b *BaseShape) GetHeight() int64  { return b.height }
func (b *BaseShape) GetName() string   { return b.name }
func (b *BaseShape) GetRotation() int  { return b.rotation }
func (b *BaseShape) base() *BaseShape  { return b }

func (b *BaseShape) SetName(n string) *BaseShape  { b.name = n; return b }
func (b *BaseShape) SetRotation(r int) *BaseShape { b.rotation = ((r % 360) + 360) % 360; return b }

// SetPosition sets both offset X and Y in EMU.
func (b *BaseShape) SetPosition(x, y int64) *BaseShape {
	b.offsetX = x
	b.offsetY = y
	return b
}

// SetSize sets both width and height in EMU.
func (b *BaseShape) SetSize(w, h int64) *BaseShape {
	b.width = w
	b.height = h
	return b
}

func (b *BaseShape) GetDescription() string  { return b.description }
func (b *BaseShape) SetDescription(d string) { b.description = d }

// GetFill returns the shape fill, creating an empty one on first use.
func (b *BaseShape) GetFill() *Fill {
	if b.fill == nil {
		b.fill = NewFill()
	}
	return b.fill
}

func (b *BaseShape) SetFill(f *Fill) { b.fill = f }

// GetBorder returns the shape outline, creating an empty one on first use.
func (b *BaseShape) GetBorder() *Border {
	if b.border == nil {
		b.border = NewBorder()
	}
	return b.border
}

func (b *BaseShape) SetBorder(border *Border) { b.border = border }

// RichTextShape represents a text box.
type RichTextShape struct {
	BaseShape
	paragraphs      []*Paragraph
	activeParagraph int
	wordWrap        bool
	textAnchor      TextAnchorType
	// Text insets in EMU. When insetsSet is false PowerPoint defaults apply
	// (0.1 in left/right, 0.05 in top/bottom).
	insetLeft   int64
	insetRight  int64
	insetTop    int64
	insetBottom int64
	insetsSet   bool
}

// TextAnchorType represents the vertical anchoring of text within a shape.
type TextAnchorType string

const (
	TextAnchorTop    TextAnchorType = "t"
	TextAnchorMiddle TextAnchorType = "ctr"
	TextAnchorBottom TextAnchorType = "b"
	TextAnchorNone   TextAnchorType = ""
)

func (r *RichTextShape) GetType() ShapeType { return ShapeTypeRichText }

// NewRichTextShape creates a new text box with one empty paragraph.
func NewRichTextShape() *RichTextShape {
	return &RichTextShape{
		paragraphs: []*Paragraph{NewParagraph()},
		wordWrap:   true,
	}
}

// GetActiveParagraph returns the active paragraph.
func (r *RichTextShape) GetActiveParagraph() *Paragraph {
	if len(r.paragraphs) == 0 {
		r.paragraphs = append(r.paragraphs, NewParagraph())
		r.activeParagraph = 0
	}
	return r.paragraphs[r.activeParagraph]
}

// CreateParagraph creates a new paragraph and makes it active.
func (r *RichTextShape) CreateParagraph() *Paragraph {
	p := NewParagraph()
	r.paragraphs = append(r.paragraphs, p)
	r.activeParagraph = len(r.paragraphs) - 1
	return p
}

// GetParagraphs returns all paragraphs.
func (r *RichTextShape) GetParagraphs() []*Paragraph {
	return r.paragraphs
}

// CreateTextRun creates a text run in the active paragraph.
func (r *RichTextShape) CreateTextRun(text string) *TextRun {
	return r.GetActiveParagraph().CreateTextRun(text)
}

// SetText replaces all content with a single paragraph holding one run.
func (r *RichTextShape) SetText(text string) *TextRun {
	r.paragraphs = []*Paragraph{NewParagraph()}
	r.activeParagraph = 0
	return r.paragraphs[0].CreateTextRun(text)
}

// Text returns the concatenated text of all paragraphs, one per line.
func (r *RichTextShape) Text() string {
	return strings.Join(paragraphsText(r.paragraphs), "\n")
}

func (r *RichTextShape) SetWordWrap(wrap bool) { r.wordWrap = wrap }
func (r *RichTextShape) GetWordWrap() bool     { return r.wordWrap }

func (r *RichTextShape) SetTextAnchor(anchor TextAnchorType) { r.textAnchor = anchor }
func (r *RichTextShape) GetTextAnchor() TextAnchorType       { return r.textAnchor }

// SetInsets sets the text insets in EMU.
func (r *RichTextShape) SetInsets(left, top, right, bottom int64) {
	r.insetLeft, r.insetTop, r.insetRight, r.insetBottom = left, top, right, bottom
	r.insetsSet = true
}

// GetInsets returns the text insets in EMU and whether they were set.
func (r *RichTextShape) GetInsets() (left, top, right, bottom int64, ok bool) {
	return r.insetLeft, r.insetTop, r.insetRight, r.insetBottom, r.insetsSet
}

// Paragraph represents a text paragraph.
type Paragraph struct {
	elements  []ParagraphElement
	alignment *Alignment
}

// ParagraphElement is the interface for paragraph content.
type ParagraphElement interface {
	GetElementType() string
}

// NewParagraph creates a new left-aligned paragraph.
func NewParagraph() *Paragraph {
	return &Paragraph{
		elements:  make([]ParagraphElement, 0),
		alignment: NewAlignment(),
	}
}

func (p *Paragraph) GetAlignment() *Alignment        { return p.alignment }
func (p *Paragraph) SetAlignment(a *Alignment)       { p.alignment = a }
func (p *Paragraph) GetElements() []ParagraphElement { return p.elements }

// CreateTextRun appends a new text run with default font.
func (p *Paragraph) CreateTextRun(text string) *TextRun {
	tr := &TextRun{
		text: text,
		font: NewFont(),
	}
	p.elements = append(p.elements, tr)
	return tr
}

// CreateBreak appends a line break.
func (p *Paragraph) CreateBreak() *BreakElement {
	br := &BreakElement{}
	p.elements = append(p.elements, br)
	return br
}

// TextRun represents a run of text with formatting.
type TextRun struct {
	text string
	font *Font
}

func (tr *TextRun) GetElementType() string { return "textrun" }
func (tr *TextRun) GetText() string        { return tr.text }
func (tr *TextRun) SetText(text string)    { tr.text = text }
func (tr *TextRun) GetFont() *Font         { return tr.font }
func (tr *TextRun) SetFont(f *Font)        { tr.font = f }

// BreakElement represents a line break.
type BreakElement struct{}

func (br *BreakElement) GetElementType() string { return "break" }

func paragraphsText(paragraphs []*Paragraph) []string {
	lines := make([]string, 0, len(paragraphs))
	for _, para := range paragraphs {
		var sb strings.Builder
		for _, elem := range para.elements {
			switch e := elem.(type) {
			case *TextRun:
				sb.WriteString(e.text)
			case *BreakElement:
				sb.WriteString("\n")
			}
		}
		lines = append(lines, sb.String())
	}
	return lines
}

// DrawingShape represents a picture.
type DrawingShape struct {
	BaseShape
	data     []byte
	mimeType string
}

func (d *DrawingShape) GetType() ShapeType { return ShapeTypeDrawing }

// NewDrawingShape creates an empty picture.
func NewDrawingShape() *DrawingShape {
	return &DrawingShape{}
}

// SetImageData sets the raw image bytes and their MIME type.
func (d *DrawingShape) SetImageData(data []byte, mimeType string) *DrawingShape {
	d.data = data
	d.mimeType = mimeType
	return d
}

func (d *DrawingShape) GetImageData() []byte { return d.data }
func (d *DrawingShape) GetMimeType() string  { return d.mimeType }

// maxImageFileSize is the maximum allowed size for an image file loaded from disk.
const maxImageFileSize = 50 << 20

// SetImageFromFile loads an image from disk, guessing the MIME type from
// the extension.
func (d *DrawingShape) SetImageFromFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat image file: %w", err)
	}
	if info.Size() > maxImageFileSize {
		return fmt.Errorf("image file too large: %d bytes (max %d)", info.Size(), maxImageFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image file: %w", err)
	}
	d.data = data
	d.mimeType = guessMimeFromPath(path)
	return nil
}

func guessMimeFromPath(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	case strings.HasSuffix(lower, ".bmp"):
		return "image/bmp"
	default:
		return "image/png"
	}
}

// AutoShape represents a preset geometry shape.
type AutoShape struct {
	BaseShape
	shapeType AutoShapeType
	text      string
}

// AutoShapeType is the DrawingML preset geometry name.
type AutoShapeType string

const (
	AutoShapeRectangle   AutoShapeType = "rect"
	AutoShapeRoundedRect AutoShapeType = "roundRect"
	AutoShapeEllipse     AutoShapeType = "ellipse"
	AutoShapeTriangle    AutoShapeType = "triangle"
	AutoShapeDiamond     AutoShapeType = "diamond"
)

func (a *AutoShape) GetType() ShapeType { return ShapeTypeAutoShape }

// NewAutoShape creates a rectangle with no fill and no outline.
func NewAutoShape() *AutoShape {
	return &AutoShape{shapeType: AutoShapeRectangle}
}

// SetAutoShapeType sets the preset geometry.
func (a *AutoShape) SetAutoShapeType(t AutoShapeType) *AutoShape {
	a.shapeType = t
	return a
}

func (a *AutoShape) GetAutoShapeType() AutoShapeType { return a.shapeType }

// SetSolidFill sets a solid fill on the auto shape.
func (a *AutoShape) SetSolidFill(c Color) *AutoShape {
	a.GetFill().SetSolid(c)
	return a
}

// SetOutline sets a solid outline of the given width in EMU.
func (a *AutoShape) SetOutline(c Color, width int64) *AutoShape {
	b := a.GetBorder()
	b.Style = BorderSolid
	b.Width = width
	b.Color = c
	return a
}

func (a *AutoShape) SetText(text string) *AutoShape { a.text = text; return a }
func (a *AutoShape) GetText() string                { return a.text }
