package pptx

// GroupShape represents a group of shapes. Children are positioned in slide
// coordinates; the group's own offset and extent are their bounding box.
type GroupShape struct {
	BaseShape
	shapes []Shape
}

func (g *GroupShape) GetType() ShapeType { return ShapeTypeGroup }

// NewGroupShape creates a new group shape.
func NewGroupShape() *GroupShape {
	return &GroupShape{
		shapes: make([]Shape, 0),
	}
}

// AddShape adds a shape to the group.
func (g *GroupShape) AddShape(s Shape) *GroupShape {
	g.shapes = append(g.shapes, s)
	return g
}

// GetShapes returns all shapes in the group.
func (g *GroupShape) GetShapes() []Shape {
	return g.shapes
}

// GetShapeCount returns the number of shapes in the group.
func (g *GroupShape) GetShapeCount() int {
	return len(g.shapes)
}

// RemoveShape removes a shape by index.
func (g *GroupShape) RemoveShape(index int) error {
	if index < 0 || index >= len(g.shapes) {
		return errOutOfRange
	}
	g.shapes = append(g.shapes[:index], g.shapes[index+1:]...)
	return nil
}

// FitToChildren sets the group's offset and extent to the bounding box of
// its children. A group without children is left unchanged.
func (g *GroupShape) FitToChildren() *GroupShape {
	first := true
	var minX, minY, maxX, maxY int64
	for _, s := range g.shapes {
		if s == nil {
			continue
		}
		x0, y0 := s.GetOffsetX(), s.GetOffsetY()
		x1, y1 := x0+s.GetWidth(), y0+s.GetHeight()
		if first {
			minX, minY, maxX, maxY = x0, y0, x1, y1
			first = false
			continue
		}
		minX = min(minX, x0)
		minY = min(minY, y0)
		maxX = max(maxX, x1)
		maxY = max(maxY, y1)
	}
	if !first {
		g.SetPosition(minX, minY)
		g.SetSize(maxX-minX, maxY-minY)
	}
	return g
}
