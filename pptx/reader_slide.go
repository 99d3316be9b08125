package pptx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
)

// --- slide XML subset ---

type xmlCNvPrRead struct {
	ID    int    `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Descr string `xml:"descr,attr"`
}

type xmlValRead struct {
	Val string `xml:"val,attr"`
}

type xmlSolidFillRead struct {
	SrgbClr *xmlValRead `xml:"srgbClr"`
}

func (f *xmlSolidFillRead) color() (Color, bool) {
	if f == nil || f.SrgbClr == nil {
		return Color{}, false
	}
	return NewColor(f.SrgbClr.Val), true
}

type xmlXfrmRead struct {
	Rot int `xml:"rot,attr"`
	Off struct {
		X int64 `xml:"x,attr"`
		Y int64 `xml:"y,attr"`
	} `xml:"off"`
	Ext struct {
		CX int64 `xml:"cx,attr"`
		CY int64 `xml:"cy,attr"`
	} `xml:"ext"`
}

type xmlLnRead struct {
	W         int64             `xml:"w,attr"`
	NoFill    *struct{}         `xml:"noFill"`
	SolidFill *xmlSolidFillRead `xml:"solidFill"`
	PrstDash  *xmlValRead       `xml:"prstDash"`
}

type xmlSpPrRead struct {
	Xfrm     xmlXfrmRead `xml:"xfrm"`
	PrstGeom struct {
		Prst string `xml:"prst,attr"`
	} `xml:"prstGeom"`
	SolidFill *xmlSolidFillRead `xml:"solidFill"`
	Ln        *xmlLnRead        `xml:"ln"`
}

type xmlRPrRead struct {
	Sz        int               `xml:"sz,attr"`
	B         string            `xml:"b,attr"`
	I         string            `xml:"i,attr"`
	SolidFill *xmlSolidFillRead `xml:"solidFill"`
	Latin     *struct {
		Typeface string `xml:"typeface,attr"`
	} `xml:"latin"`
}

// xmlRunRead captures a:r, a:br and a:endParaRPr in document order.
type xmlRunRead struct {
	XMLName xml.Name
	RPr     xmlRPrRead `xml:"rPr"`
	T       string     `xml:"t"`
}

type xmlParaRead struct {
	PPr struct {
		Algn string `xml:"algn,attr"`
		Lvl  int    `xml:"lvl,attr"`
	} `xml:"pPr"`
	Items []xmlRunRead `xml:",any"`
}

type xmlBodyPrRead struct {
	Wrap   string `xml:"wrap,attr"`
	Anchor string `xml:"anchor,attr"`
	LIns   string `xml:"lIns,attr"`
	TIns   string `xml:"tIns,attr"`
	RIns   string `xml:"rIns,attr"`
	BIns   string `xml:"bIns,attr"`
}

type xmlTxBodyRead struct {
	BodyPr     xmlBodyPrRead `xml:"bodyPr"`
	Paragraphs []xmlParaRead `xml:"p"`
}

type xmlSpRead struct {
	NvSpPr struct {
		CNvPr   xmlCNvPrRead `xml:"cNvPr"`
		CNvSpPr struct {
			TxBox string `xml:"txBox,attr"`
		} `xml:"cNvSpPr"`
	} `xml:"nvSpPr"`
	SpPr   xmlSpPrRead    `xml:"spPr"`
	TxBody *xmlTxBodyRead `xml:"txBody"`
}

type xmlPicRead struct {
	NvPicPr struct {
		CNvPr xmlCNvPrRead `xml:"cNvPr"`
	} `xml:"nvPicPr"`
	BlipFill struct {
		Blip struct {
			Embed string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships embed,attr"`
		} `xml:"blip"`
	} `xml:"blipFill"`
	SpPr xmlSpPrRead `xml:"spPr"`
}

type xmlBgRead struct {
	BgPr struct {
		SolidFill *xmlSolidFillRead `xml:"solidFill"`
	} `xml:"bgPr"`
}

// slideContext carries what shape readers need to resolve pictures.
type slideContext struct {
	files     map[string]*zip.File
	slidePath string
	rels      map[string]string
}

func (r *PPTXReader) readSlide(files map[string]*zip.File, slidePath string) (*Slide, error) {
	data, err := readFileFromZip(files, slidePath)
	if err != nil {
		return nil, err
	}

	rels, err := r.readRelationships(files, relsPathFor(slidePath))
	if err != nil {
		return nil, err
	}
	ctx := &slideContext{files: files, slidePath: slidePath, rels: make(map[string]string, len(rels))}
	for _, rel := range rels {
		ctx.rels[rel.ID] = rel.Target
	}

	slide := newSlide()
	decoder := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse slide XML: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "cSld":
			slide.name = attrValue(se, "name")
		case "bg":
			var bg xmlBgRead
			if err := decoder.DecodeElement(&bg, &se); err != nil {
				return nil, fmt.Errorf("failed to parse background: %w", err)
			}
			if c, ok := bg.BgPr.SolidFill.color(); ok {
				slide.background = NewSolidFill(c)
			}
		case "spTree":
			shapes, _, err := r.readShapeTree(decoder, ctx)
			if err != nil {
				return nil, err
			}
			slide.shapes = shapes
		}
	}
	return slide, nil
}

// readShapeTree consumes the children of an spTree or grpSp up to its end
// element. It returns the shapes in drawing order and, for groups, the
// group's own name and frame.
func (r *PPTXReader) readShapeTree(decoder *xml.Decoder, ctx *slideContext) ([]Shape, *GroupShape, error) {
	shapes := make([]Shape, 0)
	group := NewGroupShape()
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse shape tree: %w", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return shapes, group, nil
		case xml.StartElement:
			switch t.Name.Local {
			case "nvGrpSpPr":
				var nv struct {
					CNvPr xmlCNvPrRead `xml:"cNvPr"`
				}
				if err := decoder.DecodeElement(&nv, &t); err != nil {
					return nil, nil, err
				}
				group.SetName(nv.CNvPr.Name)
			case "grpSpPr":
				var sp struct {
					Xfrm xmlXfrmRead `xml:"xfrm"`
				}
				if err := decoder.DecodeElement(&sp, &t); err != nil {
					return nil, nil, err
				}
				applyXfrm(&group.BaseShape, sp.Xfrm)
			case "sp":
				var sp xmlSpRead
				if err := decoder.DecodeElement(&sp, &t); err != nil {
					return nil, nil, fmt.Errorf("failed to parse shape: %w", err)
				}
				shapes = append(shapes, readSp(&sp))
			case "pic":
				var pic xmlPicRead
				if err := decoder.DecodeElement(&pic, &t); err != nil {
					return nil, nil, fmt.Errorf("failed to parse picture: %w", err)
				}
				ds, err := readPic(&pic, ctx)
				if err != nil {
					return nil, nil, err
				}
				shapes = append(shapes, ds)
			case "grpSp":
				children, g, err := r.readShapeTree(decoder, ctx)
				if err != nil {
					return nil, nil, err
				}
				g.shapes = children
				shapes = append(shapes, g)
			default:
				if err := decoder.Skip(); err != nil {
					return nil, nil, err
				}
			}
		}
	}
}

func attrValue(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func applyXfrm(b *BaseShape, x xmlXfrmRead) {
	b.SetPosition(x.Off.X, x.Off.Y)
	b.SetSize(x.Ext.CX, x.Ext.CY)
	if x.Rot != 0 {
		b.SetRotation(x.Rot / 60000)
	}
}

func applyCNvPr(b *BaseShape, c xmlCNvPrRead) {
	b.SetName(c.Name)
	b.SetDescription(c.Descr)
}

func readSp(sp *xmlSpRead) Shape {
	if sp.NvSpPr.CNvSpPr.TxBox == "1" || sp.SpPr.PrstGeom.Prst == "" {
		return readTextBox(sp)
	}

	as := NewAutoShape()
	applyCNvPr(&as.BaseShape, sp.NvSpPr.CNvPr)
	applyXfrm(&as.BaseShape, sp.SpPr.Xfrm)
	as.SetAutoShapeType(AutoShapeType(sp.SpPr.PrstGeom.Prst))
	if c, ok := sp.SpPr.SolidFill.color(); ok {
		as.SetSolidFill(c)
	}
	if b := readBorder(sp.SpPr.Ln); b != nil {
		as.SetBorder(b)
	}
	if sp.TxBody != nil {
		var lines []string
		for _, p := range sp.TxBody.Paragraphs {
			lines = append(lines, paragraphsText([]*Paragraph{readParagraph(p)})...)
		}
		as.SetText(strings.Join(lines, "\n"))
	}
	return as
}

func readTextBox(sp *xmlSpRead) *RichTextShape {
	rt := NewRichTextShape()
	applyCNvPr(&rt.BaseShape, sp.NvSpPr.CNvPr)
	applyXfrm(&rt.BaseShape, sp.SpPr.Xfrm)
	if c, ok := sp.SpPr.SolidFill.color(); ok {
		rt.SetFill(NewSolidFill(c))
	}
	if b := readBorder(sp.SpPr.Ln); b != nil {
		rt.SetBorder(b)
	}
	if sp.TxBody == nil {
		return rt
	}

	body := sp.TxBody.BodyPr
	rt.SetWordWrap(body.Wrap != "none")
	rt.SetTextAnchor(TextAnchorType(body.Anchor))
	if body.LIns != "" || body.TIns != "" || body.RIns != "" || body.BIns != "" {
		rt.SetInsets(parseEMU(body.LIns), parseEMU(body.TIns), parseEMU(body.RIns), parseEMU(body.BIns))
	}

	if len(sp.TxBody.Paragraphs) > 0 {
		rt.paragraphs = make([]*Paragraph, 0, len(sp.TxBody.Paragraphs))
		for _, p := range sp.TxBody.Paragraphs {
			rt.paragraphs = append(rt.paragraphs, readParagraph(p))
		}
		rt.activeParagraph = len(rt.paragraphs) - 1
	}
	return rt
}

func parseEMU(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func readParagraph(p xmlParaRead) *Paragraph {
	para := NewParagraph()
	if p.PPr.Algn != "" {
		para.alignment.SetHorizontal(HorizontalAlignment(p.PPr.Algn))
	}
	para.alignment.Level = p.PPr.Lvl

	for _, item := range p.Items {
		switch item.XMLName.Local {
		case "r":
			tr := para.CreateTextRun(item.T)
			applyRunProps(tr.font, item.RPr)
		case "br":
			para.CreateBreak()
		}
	}
	return para
}

func applyRunProps(f *Font, rpr xmlRPrRead) {
	if rpr.Sz > 0 {
		f.Size = float64(rpr.Sz) / 100
	}
	f.Bold = rpr.B == "1" || rpr.B == "true"
	f.Italic = rpr.I == "1" || rpr.I == "true"
	if c, ok := rpr.SolidFill.color(); ok {
		f.Color = c
	}
	if rpr.Latin != nil && rpr.Latin.Typeface != "" {
		f.Name = rpr.Latin.Typeface
	}
}

func readBorder(ln *xmlLnRead) *Border {
	if ln == nil || ln.NoFill != nil {
		return nil
	}
	c, ok := ln.SolidFill.color()
	if !ok {
		return nil
	}
	b := &Border{Style: BorderSolid, Width: ln.W, Color: c}
	if ln.PrstDash != nil {
		switch ln.PrstDash.Val {
		case "dash":
			b.Style = BorderDash
		case "dot", "sysDot":
			b.Style = BorderDot
		}
	}
	return b
}

func readPic(pic *xmlPicRead, ctx *slideContext) (*DrawingShape, error) {
	ds := NewDrawingShape()
	applyCNvPr(&ds.BaseShape, pic.NvPicPr.CNvPr)
	applyXfrm(&ds.BaseShape, pic.SpPr.Xfrm)

	target, ok := ctx.rels[pic.BlipFill.Blip.Embed]
	if !ok {
		return ds, nil
	}
	mediaPath := resolveRelativePath(ctx.slidePath, target)
	data, err := readFileFromZip(ctx.files, mediaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", mediaPath, err)
	}
	ds.SetImageData(data, guessMimeFromPath(path.Base(mediaPath)))
	return ds, nil
}
