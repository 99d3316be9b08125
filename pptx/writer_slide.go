package pptx

import (
	"archive/zip"
	"fmt"
	"math"
	"strings"
)

// imageRelIDs assigns slide-local relationship ids to every picture on the
// slide, nested groups included. rId1 is the slide layout.
func imageRelIDs(slide *Slide) map[*DrawingShape]string {
	rels := make(map[*DrawingShape]string)
	for i, ds := range collectDrawingShapes(slide.shapes) {
		rels[ds] = fmt.Sprintf("rId%d", i+2)
	}
	return rels
}

// collectDrawingShapes returns all pictures with image data in document
// order, descending into groups.
func collectDrawingShapes(shapes []Shape) []*DrawingShape {
	var result []*DrawingShape
	for _, shape := range shapes {
		switch s := shape.(type) {
		case *DrawingShape:
			if len(s.data) > 0 {
				result = append(result, s)
			}
		case *GroupShape:
			result = append(result, collectDrawingShapes(s.shapes)...)
		}
	}
	return result
}

func (w *PPTXWriter) writeSlide(zw *zip.Writer, slide *Slide, slideNum int, rels map[*DrawingShape]string) error {
	var shapesXML strings.Builder
	shapeID := 2 // 1 is the slide's group shape

	for _, shape := range slide.shapes {
		shapesXML.WriteString(w.shapeXML(shape, &shapeID, rels))
	}

	bgXML := ""
	if slide.background != nil && slide.background.Type != FillNone {
		bgXML = "    <p:bg>\n      <p:bgPr>\n"
		bgXML += w.writeFillXML(slide.background)
		bgXML += "        <a:effectLst/>\n      </p:bgPr>\n    </p:bg>\n"
	}

	nameAttr := ""
	if slide.name != "" {
		nameAttr = fmt.Sprintf(` name="%s"`, xmlEscape(slide.name))
	}

	content := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">
  <p:cSld%s>
%s    <p:spTree>
      <p:nvGrpSpPr>
        <p:cNvPr id="1" name=""/>
        <p:cNvGrpSpPr/>
        <p:nvPr/>
      </p:nvGrpSpPr>
      <p:grpSpPr>
        <a:xfrm>
          <a:off x="0" y="0"/>
          <a:ext cx="0" cy="0"/>
          <a:chOff x="0" y="0"/>
          <a:chExt cx="0" cy="0"/>
        </a:xfrm>
      </p:grpSpPr>
%s    </p:spTree>
  </p:cSld>
  <p:clrMapOvr>
    <a:masterClrMapping/>
  </p:clrMapOvr>
</p:sld>`, nsDrawingML, nsOfficeDocRels, nsPresentationML, nameAttr, bgXML, shapesXML.String())

	return writeRawXMLToZip(zw, fmt.Sprintf("ppt/slides/slide%d.xml", slideNum), content)
}

func (w *PPTXWriter) shapeXML(shape Shape, shapeID *int, rels map[*DrawingShape]string) string {
	switch s := shape.(type) {
	case *RichTextShape:
		return w.writeRichTextShapeXML(s, shapeID)
	case *DrawingShape:
		if _, ok := rels[s]; !ok {
			return ""
		}
		return w.writeDrawingShapeXML(s, shapeID, rels[s])
	case *AutoShape:
		return w.writeAutoShapeXML(s, shapeID)
	case *GroupShape:
		return w.writeGroupShapeXML(s, shapeID, rels)
	}
	return ""
}

func (w *PPTXWriter) writeSlideRels(zw *zip.Writer, slide *Slide, slideNum int, rels map[*DrawingShape]string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="%s">
  <Relationship Id="rId1" Type="%s" Target="../slideLayouts/slideLayout1.xml"/>`, nsRelationships, relTypeSlideLayout)

	for _, ds := range collectDrawingShapes(slide.shapes) {
		fmt.Fprintf(&sb, `
  <Relationship Id="%s" Type="%s" Target="../media/image%d.%s"/>`,
			rels[ds], relTypeImage, w.mediaIndex[ds], imageExtension(ds))
	}

	sb.WriteString(`
</Relationships>`)
	return writeRawXMLToZip(zw, fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", slideNum), sb.String())
}

// --- Rich Text Shape XML ---

func xfrmAttrs(b *BaseShape) string {
	if b.rotation != 0 {
		return fmt.Sprintf(` rot="%d"`, b.rotation*60000)
	}
	return ""
}

func descrAttr(b *BaseShape) string {
	if b.description == "" {
		return ""
	}
	return fmt.Sprintf(` descr="%s"`, xmlEscape(b.description))
}

func (w *PPTXWriter) writeRichTextShapeXML(s *RichTextShape, shapeID *int) string {
	id := *shapeID
	*shapeID++

	name := s.name
	if name == "" {
		name = fmt.Sprintf("TextBox %d", id)
	}

	var paragraphsXML strings.Builder
	for _, para := range s.paragraphs {
		paragraphsXML.WriteString(w.writeParagraphXML(para))
	}

	return fmt.Sprintf(`      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="%d" name="%s"%s/>
          <p:cNvSpPr txBox="1"/>
          <p:nvPr/>
        </p:nvSpPr>
        <p:spPr>
          <a:xfrm%s>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="rect">
            <a:avLst/>
          </a:prstGeom>
%s%s        </p:spPr>
        <p:txBody>
          <a:bodyPr wrap="%s"%s%s/>
          <a:lstStyle/>
%s        </p:txBody>
      </p:sp>
`, id, xmlEscape(name), descrAttr(&s.BaseShape), xfrmAttrs(&s.BaseShape),
		s.offsetX, s.offsetY, s.width, s.height,
		w.writeFillXML(s.fill), w.writeBorderXML(s.border),
		boolToWrap(s.wordWrap), insetAttrs(s), textAnchorAttr(s.textAnchor),
		paragraphsXML.String())
}

func boolToWrap(wrap bool) string {
	if wrap {
		return "square"
	}
	return "none"
}

func insetAttrs(s *RichTextShape) string {
	if !s.insetsSet {
		return ""
	}
	return fmt.Sprintf(` lIns="%d" tIns="%d" rIns="%d" bIns="%d"`,
		s.insetLeft, s.insetTop, s.insetRight, s.insetBottom)
}

func textAnchorAttr(anchor TextAnchorType) string {
	if anchor == TextAnchorNone {
		return ""
	}
	return fmt.Sprintf(` anchor="%s"`, string(anchor))
}

func (w *PPTXWriter) writeParagraphXML(para *Paragraph) string {
	algn := ""
	if para.alignment != nil {
		if para.alignment.Horizontal != "" {
			algn = fmt.Sprintf(` algn="%s"`, para.alignment.Horizontal)
		}
		if para.alignment.Level > 0 {
			algn += fmt.Sprintf(` lvl="%d"`, para.alignment.Level)
		}
	}

	var elementsXML strings.Builder
	for _, elem := range para.elements {
		switch e := elem.(type) {
		case *TextRun:
			elementsXML.WriteString(w.writeTextRunXML(e))
		case *BreakElement:
			elementsXML.WriteString("            <a:br/>\n")
		}
	}

	return fmt.Sprintf(`          <a:p>
            <a:pPr%s/>
%s          </a:p>
`, algn, elementsXML.String())
}

// fontSizeHundredths converts a point size to the sz attribute (1/100 pt).
func fontSizeHundredths(size float64) int {
	return int(math.Round(size * 100))
}

func (w *PPTXWriter) writeTextRunXML(tr *TextRun) string {
	font := tr.font
	if font == nil {
		font = NewFont()
	}
	attrs := fmt.Sprintf(` lang="en-US" sz="%d" dirty="0"`, fontSizeHundredths(font.Size))
	if font.Bold {
		attrs += ` b="1"`
	}
	if font.Italic {
		attrs += ` i="1"`
	}

	solidFill := ""
	if font.Color.ARGB != "" {
		solidFill = fmt.Sprintf(`
                <a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, font.Color.RGB())
	}

	latin := ""
	if font.Name != "" {
		latin = fmt.Sprintf(`
                <a:latin typeface="%s"/>`, xmlEscape(font.Name))
	}

	return fmt.Sprintf(`            <a:r>
              <a:rPr%s>%s%s
              </a:rPr>
              <a:t>%s</a:t>
            </a:r>
`, attrs, solidFill, latin, xmlEscape(tr.text))
}

// --- Drawing Shape XML ---

func (w *PPTXWriter) writeDrawingShapeXML(s *DrawingShape, shapeID *int, relID string) string {
	id := *shapeID
	*shapeID++

	name := s.name
	if name == "" {
		name = fmt.Sprintf("Picture %d", id)
	}

	return fmt.Sprintf(`      <p:pic>
        <p:nvPicPr>
          <p:cNvPr id="%d" name="%s"%s/>
          <p:cNvPicPr>
            <a:picLocks noChangeAspect="1"/>
          </p:cNvPicPr>
          <p:nvPr/>
        </p:nvPicPr>
        <p:blipFill>
          <a:blip r:embed="%s"/>
          <a:stretch>
            <a:fillRect/>
          </a:stretch>
        </p:blipFill>
        <p:spPr>
          <a:xfrm%s>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="rect">
            <a:avLst/>
          </a:prstGeom>
        </p:spPr>
      </p:pic>
`, id, xmlEscape(name), descrAttr(&s.BaseShape),
		relID,
		xfrmAttrs(&s.BaseShape),
		s.offsetX, s.offsetY, s.width, s.height)
}

// --- Auto Shape XML ---

func (w *PPTXWriter) writeAutoShapeXML(s *AutoShape, shapeID *int) string {
	id := *shapeID
	*shapeID++

	name := s.name
	if name == "" {
		name = fmt.Sprintf("Shape %d", id)
	}

	textXML := ""
	if s.text != "" {
		textXML = fmt.Sprintf(`
        <p:txBody>
          <a:bodyPr/>
          <a:lstStyle/>
          <a:p>
            <a:r>
              <a:rPr lang="en-US" dirty="0"/>
              <a:t>%s</a:t>
            </a:r>
          </a:p>
        </p:txBody>`, xmlEscape(s.text))
	}

	// Without an explicit <a:ln> PowerPoint draws the theme outline.
	borderXML := w.writeBorderXML(s.border)
	if borderXML == "" {
		borderXML = "          <a:ln><a:noFill/></a:ln>\n"
	}
	fillXML := w.writeFillXML(s.fill)
	if fillXML == "" {
		fillXML = "          <a:noFill/>\n"
	}

	return fmt.Sprintf(`      <p:sp>
        <p:nvSpPr>
          <p:cNvPr id="%d" name="%s"%s/>
          <p:cNvSpPr/>
          <p:nvPr/>
        </p:nvSpPr>
        <p:spPr>
          <a:xfrm%s>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
          </a:xfrm>
          <a:prstGeom prst="%s">
            <a:avLst/>
          </a:prstGeom>
%s%s        </p:spPr>%s
      </p:sp>
`, id, xmlEscape(name), descrAttr(&s.BaseShape),
		xfrmAttrs(&s.BaseShape),
		s.offsetX, s.offsetY, s.width, s.height,
		s.shapeType,
		fillXML, borderXML, textXML)
}

// --- Group Shape XML ---

func (w *PPTXWriter) writeGroupShapeXML(g *GroupShape, shapeID *int, rels map[*DrawingShape]string) string {
	id := *shapeID
	*shapeID++

	name := g.name
	if name == "" {
		name = fmt.Sprintf("Group %d", id)
	}

	var childXML strings.Builder
	for _, shape := range g.shapes {
		childXML.WriteString(w.shapeXML(shape, shapeID, rels))
	}

	// Child offsets share the slide coordinate space, so chOff/chExt equal
	// the group frame.
	return fmt.Sprintf(`      <p:grpSp>
        <p:nvGrpSpPr>
          <p:cNvPr id="%d" name="%s"/>
          <p:cNvGrpSpPr/>
          <p:nvPr/>
        </p:nvGrpSpPr>
        <p:grpSpPr>
          <a:xfrm%s>
            <a:off x="%d" y="%d"/>
            <a:ext cx="%d" cy="%d"/>
            <a:chOff x="%d" y="%d"/>
            <a:chExt cx="%d" cy="%d"/>
          </a:xfrm>
        </p:grpSpPr>
%s      </p:grpSp>
`, id, xmlEscape(name),
		xfrmAttrs(&g.BaseShape),
		g.offsetX, g.offsetY, g.width, g.height,
		g.offsetX, g.offsetY, g.width, g.height,
		childXML.String())
}

// --- Fill and Border helpers ---

func (w *PPTXWriter) writeFillXML(f *Fill) string {
	if f == nil || f.Type != FillSolid {
		return ""
	}
	return fmt.Sprintf("          <a:solidFill><a:srgbClr val=\"%s\"/></a:solidFill>\n", f.Color.RGB())
}

func (w *PPTXWriter) writeBorderXML(b *Border) string {
	if b == nil || b.Style == BorderNone || b.Style == "" {
		return ""
	}
	dashXML := ""
	switch b.Style {
	case BorderDash:
		dashXML = `<a:prstDash val="dash"/>`
	case BorderDot:
		dashXML = `<a:prstDash val="dot"/>`
	}
	return fmt.Sprintf("          <a:ln w=\"%d\"><a:solidFill><a:srgbClr val=\"%s\"/></a:solidFill>%s</a:ln>\n",
		b.Width, b.Color.RGB(), dashXML)
}

// --- Media ---

func (w *PPTXWriter) writeMedia(zw *zip.Writer) error {
	for _, slide := range w.presentation.slides {
		for _, ds := range collectDrawingShapes(slide.shapes) {
			path := fmt.Sprintf("ppt/media/image%d.%s", w.mediaIndex[ds], imageExtension(ds))
			fw, err := zw.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s in zip: %w", path, err)
			}
			if _, err := fw.Write(ds.data); err != nil {
				return err
			}
		}
	}
	return nil
}
