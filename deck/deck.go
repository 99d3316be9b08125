// Package deck is the input model: a JSON document of slides exported from
// a design tool, each holding positioned elements.
//
// Parsing is lenient below the container level. A document that is not
// JSON, or whose slides or elements are not arrays, is rejected; an element
// with malformed fields becomes Unknown and a slide field with the wrong
// type falls back to its default with a warning.
package deck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrInvalidDocument wraps every fatal parse error.
	ErrInvalidDocument = errors.New("invalid slide document")
	// ErrNoSlides is returned by RequireSlides for an empty document.
	ErrNoSlides = errors.New("no slides to export")
)

// Document is a parsed input file or request body.
type Document struct {
	Slides []SlideSpec
	// FileName is the download name requested by HTTP clients, without
	// extension.
	FileName string
}

// RequireSlides returns ErrNoSlides when the document has no slides.
func (d *Document) RequireSlides() error {
	if d == nil || len(d.Slides) == 0 {
		return ErrNoSlides
	}
	return nil
}

// ElementCount returns the number of elements in the document, group
// children included.
func (d *Document) ElementCount() int {
	n := 0
	for _, s := range d.Slides {
		n += countElements(s.Elements)
	}
	return n
}

func countElements(elements []Element) int {
	n := 0
	for _, e := range elements {
		n++
		if g, ok := e.(*Group); ok {
			n += countElements(g.Children)
		}
	}
	return n
}

// SlideSpec describes one output slide. Width and Height are source pixels;
// nil means the configured default.
type SlideSpec struct {
	Name     string
	Width    *Number
	Height   *Number
	Elements []Element
	// Warnings lists slide fields that were ignored because of their type.
	Warnings []string
}

// Number is a JSON number that also accepts numeric strings.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected a number, got %s", b)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*n = Number(f)
	return nil
}

// Or returns the value, or def when n is nil.
func (n *Number) Or(def float64) float64 {
	if n == nil {
		return def
	}
	return float64(*n)
}

// NewNumber returns a pointer to v, for building documents in code.
func NewNumber(v float64) *Number {
	n := Number(v)
	return &n
}

// Parse reads a slide document.
func Parse(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading slide document: %w", err)
	}
	return ParseBytes(data)
}

// Load reads and parses the slide document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

type rawDocument struct {
	Slides   []rawSlide      `json:"slides"`
	FileName json.RawMessage `json:"fileName"`
}

type rawSlide struct {
	Name        json.RawMessage   `json:"name"`
	Title       json.RawMessage   `json:"title"`
	Width       json.RawMessage   `json:"width"`
	Height      json.RawMessage   `json:"height"`
	ImageBase64 json.RawMessage   `json:"imageBase64"`
	Elements    []json.RawMessage `json:"elements"`
}

// ParseBytes parses a slide document held in memory.
func ParseBytes(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidDocument)
	}
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc := &Document{Slides: make([]SlideSpec, 0, len(raw.Slides))}
	var ignored []string
	decodeField(raw.FileName, "fileName", &doc.FileName, &ignored)

	for _, rs := range raw.Slides {
		doc.Slides = append(doc.Slides, parseSlide(rs))
	}
	return doc, nil
}

func parseSlide(rs rawSlide) SlideSpec {
	var s SlideSpec
	decodeField(rs.Name, "name", &s.Name, &s.Warnings)
	if s.Name == "" {
		decodeField(rs.Title, "title", &s.Name, &s.Warnings)
	}
	decodeField(rs.Width, "width", &s.Width, &s.Warnings)
	decodeField(rs.Height, "height", &s.Height, &s.Warnings)

	s.Elements = make([]Element, 0, len(rs.Elements)+1)

	var background string
	decodeField(rs.ImageBase64, "imageBase64", &background, &s.Warnings)
	if background != "" {
		s.Elements = append(s.Elements, &Image{ImageBase64: background, FullCanvas: true})
	}

	for _, re := range rs.Elements {
		s.Elements = append(s.Elements, ParseElement(re))
	}
	return s
}

// decodeField decodes an optional field, leaving dst untouched and adding a
// warning when the JSON type does not fit.
func decodeField[T any](raw json.RawMessage, name string, dst *T, warnings *[]string) {
	if len(raw) == 0 || string(raw) == "null" {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		*warnings = append(*warnings, fmt.Sprintf("ignoring %s: %v", name, err))
		return
	}
	*dst = v
}
