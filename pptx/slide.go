package pptx

// Slide is a single slide: an optional background and an ordered list of
// shapes, drawn back to front.
type Slide struct {
	name       string
	background *Fill
	shapes     []Shape
}

func newSlide() *Slide {
	return &Slide{shapes: make([]Shape, 0)}
}

func (s *Slide) GetName() string     { return s.name }
func (s *Slide) SetName(name string) { s.name = name }

// GetBackground returns the slide background, or nil when the slide
// inherits the master background.
func (s *Slide) GetBackground() *Fill { return s.background }

// SetBackground sets the slide background fill.
func (s *Slide) SetBackground(f *Fill) { s.background = f }

// GetShapes returns the top-level shapes of the slide.
func (s *Slide) GetShapes() []Shape { return s.shapes }

// GetShapeCount returns the number of top-level shapes.
func (s *Slide) GetShapeCount() int { return len(s.shapes) }

// AddShape appends an existing shape.
func (s *Slide) AddShape(shape Shape) {
	s.shapes = append(s.shapes, shape)
}

// CreateRichTextShape adds an empty text box.
func (s *Slide) CreateRichTextShape() *RichTextShape {
	rt := NewRichTextShape()
	s.shapes = append(s.shapes, rt)
	return rt
}

// CreateDrawingShape adds an empty picture.
func (s *Slide) CreateDrawingShape() *DrawingShape {
	d := NewDrawingShape()
	s.shapes = append(s.shapes, d)
	return d
}

// CreateAutoShape adds a rectangle auto shape.
func (s *Slide) CreateAutoShape() *AutoShape {
	a := NewAutoShape()
	s.shapes = append(s.shapes, a)
	return a
}

// CreateGroupShape adds an empty group.
func (s *Slide) CreateGroupShape() *GroupShape {
	g := NewGroupShape()
	s.shapes = append(s.shapes, g)
	return g
}

// RemoveShape removes a shape by index.
func (s *Slide) RemoveShape(index int) error {
	if index < 0 || index >= len(s.shapes) {
		return errOutOfRange
	}
	s.shapes = append(s.shapes[:index], s.shapes[index+1:]...)
	return nil
}
