// Package pptx provides a pure Go model of a PowerPoint presentation and
// reads and writes it as an Office Open XML (.pptx) package.
//
// The model covers what slide conversion needs: slides with a background,
// pictures, text boxes, preset auto shapes and groups, all positioned in
// EMU (English Metric Units).
package pptx

import (
	"errors"
	"time"
)

// Presentation represents an in-memory PowerPoint presentation.
type Presentation struct {
	properties *DocumentProperties
	slides     []*Slide
	layout     *DocumentLayout
}

// New creates an empty Presentation with the default 4:3 layout.
// Unlike PowerPoint it starts with no slides; use CreateSlide to add them.
func New() *Presentation {
	return &Presentation{
		properties: NewDocumentProperties(),
		slides:     make([]*Slide, 0),
		layout:     NewDocumentLayout(),
	}
}

// GetDocumentProperties returns the document properties.
func (p *Presentation) GetDocumentProperties() *DocumentProperties {
	return p.properties
}

// SetDocumentProperties sets the document properties.
func (p *Presentation) SetDocumentProperties(props *DocumentProperties) {
	p.properties = props
}

// GetLayout returns the document layout.
func (p *Presentation) GetLayout() *DocumentLayout {
	return p.layout
}

// SetLayout sets the document layout.
func (p *Presentation) SetLayout(layout *DocumentLayout) {
	p.layout = layout
}

// CreateSlide creates a new slide and appends it to the presentation.
func (p *Presentation) CreateSlide() *Slide {
	slide := newSlide()
	p.slides = append(p.slides, slide)
	return slide
}

// GetSlide returns a slide by index.
func (p *Presentation) GetSlide(index int) (*Slide, error) {
	if index < 0 || index >= len(p.slides) {
		return nil, errOutOfRange
	}
	return p.slides[index], nil
}

// GetAllSlides returns all slides in order.
func (p *Presentation) GetAllSlides() []*Slide {
	return p.slides
}

// GetSlideCount returns the number of slides.
func (p *Presentation) GetSlideCount() int {
	return len(p.slides)
}

// RemoveSlideByIndex removes a slide by index.
func (p *Presentation) RemoveSlideByIndex(index int) error {
	if index < 0 || index >= len(p.slides) {
		return errOutOfRange
	}
	p.slides = append(p.slides[:index], p.slides[index+1:]...)
	return nil
}

// ShapeCount returns the number of top-level shapes across all slides.
func (p *Presentation) ShapeCount() int {
	n := 0
	for _, s := range p.slides {
		n += len(s.shapes)
	}
	return n
}

// DocumentProperties holds the core document properties written to
// docProps/core.xml and docProps/app.xml.
type DocumentProperties struct {
	Creator        string
	LastModifiedBy string
	Created        time.Time
	Modified       time.Time
	Title          string
	Description    string
	Subject        string
	Keywords       string
	Company        string
}

// NewDocumentProperties creates document properties stamped with the
// current time.
func NewDocumentProperties() *DocumentProperties {
	now := time.Now()
	return &DocumentProperties{
		Creator:        "figslides",
		LastModifiedBy: "figslides",
		Created:        now,
		Modified:       now,
	}
}

// DocumentLayout represents the slide dimensions shared by every slide.
type DocumentLayout struct {
	CX   int64 // width in EMU
	CY   int64 // height in EMU
	Name string
}

// Standard layout names.
const (
	LayoutScreen4x3   = "screen4x3"
	LayoutScreen16x9  = "screen16x9"
	LayoutA4Portrait  = "A4Portrait"
	LayoutA4Landscape = "A4"
	LayoutCustom      = "custom"
)

// NewDocumentLayout creates a default 4:3 layout (10 x 7.5 in).
func NewDocumentLayout() *DocumentLayout {
	return &DocumentLayout{
		CX:   9144000,
		CY:   6858000,
		Name: LayoutScreen4x3,
	}
}

// SetLayout sets a predefined layout. Unknown names are ignored.
func (dl *DocumentLayout) SetLayout(name string) {
	switch name {
	case LayoutScreen4x3:
		dl.CX, dl.CY = 9144000, 6858000
	case LayoutScreen16x9:
		dl.CX, dl.CY = 12192000, 6858000
	case LayoutA4Portrait:
		dl.CX, dl.CY = 7560000, 10692000
	case LayoutA4Landscape:
		dl.CX, dl.CY = 10692000, 7560000
	default:
		return
	}
	dl.Name = name
}

// SetCustomLayout sets custom dimensions in EMU. Non-positive values fall
// back to the 4:3 defaults.
func (dl *DocumentLayout) SetCustomLayout(cx, cy int64) {
	if cx <= 0 {
		cx = 9144000
	}
	if cy <= 0 {
		cy = 6858000
	}
	dl.CX = cx
	dl.CY = cy
	dl.Name = LayoutCustom
}

var errOutOfRange = errors.New("index out of range")
