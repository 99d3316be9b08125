package deck

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind names an element variant.
type Kind string

const (
	KindImage     Kind = "image"
	KindText      Kind = "text"
	KindRectangle Kind = "rectangle"
	KindCircle    Kind = "circle"
	KindGroup     Kind = "group"
	KindUnknown   Kind = "unknown"
)

// Element is one positioned item on a slide. The set of implementations is
// closed: *Image, *Text, *Rectangle, *Circle, *Group, *Invalid and *Unknown.
type Element interface {
	Kind() Kind
	element()
}

// Frame is the element geometry in source units. Nil fields take the
// configured defaults (0 for X and Y).
type Frame struct {
	X      *Number `json:"x"`
	Y      *Number `json:"y"`
	Width  *Number `json:"width"`
	Height *Number `json:"height"`
}

// Image is an embedded raster picture.
type Image struct {
	Frame
	// ImageBase64 is plain base64 or a data: URL.
	ImageBase64 string
	// FullCanvas is set for the slide-level image, which always covers the
	// whole slide.
	FullCanvas bool
}

// Text is a single-paragraph text box.
type Text struct {
	Frame
	Content    string
	FontSize   *Number
	FontFamily string
	FontWeight *Weight
	Color      string
	TextAlign  string
}

// Rectangle is a filled and optionally stroked rectangle.
type Rectangle struct {
	Frame
	Fill   string
	Stroke string
}

// Circle is a filled ellipse inscribed in its frame.
type Circle struct {
	Frame
	Fill string
}

// Group holds child elements positioned in the slide's coordinate space.
type Group struct {
	Frame
	Children []Element
}

// Unknown is an element with a missing or unrecognised type tag, or one
// that is not a JSON object at all.
type Unknown struct {
	Type string
	Err  error
}

// Invalid is an element of a known kind whose fields could not be decoded.
type Invalid struct {
	Type Kind
	Err  error
}

func (*Image) Kind() Kind     { return KindImage }
func (*Text) Kind() Kind      { return KindText }
func (*Rectangle) Kind() Kind { return KindRectangle }
func (*Circle) Kind() Kind    { return KindCircle }
func (*Group) Kind() Kind     { return KindGroup }
func (*Unknown) Kind() Kind   { return KindUnknown }
func (e *Invalid) Kind() Kind  { return e.Type }

func (*Image) element()     {}
func (*Text) element()      {}
func (*Rectangle) element() {}
func (*Circle) element()    {}
func (*Group) element()     {}
func (*Unknown) element()   {}
func (*Invalid) element()   {}

// Reason describes why the element is unknown.
func (u *Unknown) Reason() string {
	if u.Err != nil {
		return fmt.Sprintf("malformed element: %v", u.Err)
	}
	if u.Type == "" {
		return "element has no type"
	}
	return fmt.Sprintf("unsupported element type %q", u.Type)
}

// Weight is a font weight: a number, a numeric string, "normal" or "bold".
type Weight float64

const (
	WeightNormal Weight = 400
	WeightBold   Weight = 700
)

// UnmarshalJSON implements json.Unmarshaler.
func (w *Weight) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*w = Weight(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("expected a font weight, got %s", b)
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "regular":
		*w = WeightNormal
		return nil
	case "bold":
		*w = WeightBold
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid font weight %q", s)
	}
	*w = Weight(f)
	return nil
}

// IsBold reports whether w is set and at least 700.
func (w *Weight) IsBold() bool {
	return w != nil && *w >= WeightBold
}

type rawElement struct {
	Type string `json:"type"`
	Frame
	ImageBase64 string            `json:"imageBase64"`
	Content     string            `json:"content"`
	FontSize    *Number           `json:"fontSize"`
	FontFamily  string            `json:"fontFamily"`
	FontWeight  *Weight           `json:"fontWeight"`
	Color       string            `json:"color"`
	TextAlign   string            `json:"textAlign"`
	Fill        string            `json:"fill"`
	Stroke      string            `json:"stroke"`
	Children    []json.RawMessage `json:"children"`
}

// ParseElement decodes one element. It never fails: an element of a known
// kind with bad fields is returned as *Invalid, anything else that cannot be
// decoded as *Unknown.
func ParseElement(data json.RawMessage) Element {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return &Unknown{Err: err}
	}

	switch Kind(head.Type) {
	case KindImage, KindText, KindRectangle, KindCircle, KindGroup:
	default:
		return &Unknown{Type: head.Type}
	}

	var raw rawElement
	if err := json.Unmarshal(data, &raw); err != nil {
		return &Invalid{Type: Kind(head.Type), Err: err}
	}

	switch Kind(raw.Type) {
	case KindImage:
		return &Image{Frame: raw.Frame, ImageBase64: raw.ImageBase64}
	case KindText:
		return &Text{
			Frame:      raw.Frame,
			Content:    raw.Content,
			FontSize:   raw.FontSize,
			FontFamily: raw.FontFamily,
			FontWeight: raw.FontWeight,
			Color:      raw.Color,
			TextAlign:  raw.TextAlign,
		}
	case KindRectangle:
		return &Rectangle{Frame: raw.Frame, Fill: raw.Fill, Stroke: raw.Stroke}
	case KindCircle:
		return &Circle{Frame: raw.Frame, Fill: raw.Fill}
	default:
		g := &Group{Frame: raw.Frame, Children: make([]Element, 0, len(raw.Children))}
		for _, c := range raw.Children {
			g.Children = append(g.Children, ParseElement(c))
		}
		return g
	}
}
