package convert

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/VantageDataChat/figslides/deck"
	"github.com/VantageDataChat/figslides/pptx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func onePixel() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return img
}

func pngBase64(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, onePixel()))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func mustParse(t *testing.T, js string) *deck.Document {
	t.Helper()
	doc, err := deck.ParseBytes([]byte(js))
	require.NoError(t, err)
	return doc
}

func convertWith(t *testing.T, cfg Config, js string) (*pptx.Presentation, *Report) {
	t.Helper()
	c, err := New(cfg)
	require.NoError(t, err)
	return c.Convert(mustParse(t, js))
}

func scaledConfig() Config {
	cfg := DefaultConfig()
	cfg.Images = ImagesScaled
	return cfg
}

func shapesOf(t *testing.T, p *pptx.Presentation, slide int) []pptx.Shape {
	t.Helper()
	s, err := p.GetSlide(slide)
	require.NoError(t, err)
	return s.GetShapes()
}

func TestFullCanvasImageExample(t *testing.T) {
	js := `{"slides":[{"width":720,"height":960,"elements":[{"type":"image","imageBase64":"` + pngBase64(t) + `"}]}]}`
	pres, report := convertWith(t, DefaultConfig(), js)

	require.Equal(t, 1, pres.GetSlideCount())
	layout := pres.GetLayout()
	assert.Equal(t, pptx.Inch(10), layout.CX)
	assert.Equal(t, int64(960*12700), layout.CY)
	assert.InDelta(t, 13.33, pptx.EMUToInch(layout.CY), 0.005)

	shapes := shapesOf(t, pres, 0)
	require.Len(t, shapes, 1)
	pic, ok := shapes[0].(*pptx.DrawingShape)
	require.True(t, ok)
	assert.Equal(t, int64(0), pic.GetOffsetX())
	assert.Equal(t, int64(0), pic.GetOffsetY())
	assert.Equal(t, layout.CX, pic.GetWidth())
	assert.Equal(t, layout.CY, pic.GetHeight())
	assert.Equal(t, "image/png", pic.GetMimeType())

	require.Len(t, report.Slides, 1)
	assert.Equal(t, Size{Width: 720, Height: 960}, report.Slides[0].Source)
	assert.InDelta(t, 10.0, report.Slides[0].Canvas.Width, 1e-9)
	assert.Equal(t, 1, report.Count(StatusOK))
}

func TestSlideCountAndOrder(t *testing.T) {
	pres, report := convertWith(t, DefaultConfig(), `{"slides":[{"name":"a"},{"name":"b"},{"name":"c","elements":[{"type":"mystery"}]}]}`)

	require.Equal(t, 3, pres.GetSlideCount())
	for i, name := range []string{"a", "b", "c"} {
		s, _ := pres.GetSlide(i)
		assert.Equal(t, name, s.GetName())
		require.NotNil(t, s.GetBackground())
		assert.Equal(t, "FFFFFF", s.GetBackground().Color.RGB())
	}
	assert.Len(t, report.Slides, 3)
}

func TestEmptyDocument(t *testing.T) {
	pres, report := convertWith(t, DefaultConfig(), `{}`)
	assert.Equal(t, 0, pres.GetSlideCount())
	assert.Empty(t, report.Slides)

	c, err := New(DefaultConfig())
	require.NoError(t, err)
	pres, report = c.Convert(nil)
	assert.Equal(t, 0, pres.GetSlideCount())
	assert.Equal(t, 0, report.Total())
}

func TestDefaultSlideSize(t *testing.T) {
	pres, report := convertWith(t, DefaultConfig(), `{"slides":[{}]}`)
	assert.Equal(t, int64(960*12700), pres.GetLayout().CX)
	assert.Equal(t, int64(1280*12700), pres.GetLayout().CY)
	assert.Equal(t, Size{Width: 960, Height: 1280}, report.Slides[0].Source)
}

func TestPerSlideLayoutLastSlideWins(t *testing.T) {
	pres, report := convertWith(t, DefaultConfig(), `{"slides":[{"width":720,"height":960},{"width":1440,"height":720}]}`)
	assert.Equal(t, pptx.Inch(20), pres.GetLayout().CX)
	assert.Equal(t, pptx.Inch(10), pres.GetLayout().CY)
	assert.InDelta(t, 10.0, report.Slides[0].Canvas.Width, 1e-9)
	assert.InDelta(t, 20.0, report.Slides[1].Canvas.Width, 1e-9)
}

func TestFixedLayoutScaling(t *testing.T) {
	cfg := scaledConfig()
	cfg.Layout = LayoutFixed
	js := `{"slides":[{"width":827,"height":1169,"elements":[
		{"type":"rectangle","x":100,"y":200,"width":300,"height":400}
	]}]}`
	pres, _ := convertWith(t, cfg, js)

	assert.Equal(t, pptx.Inch(8.27), pres.GetLayout().CX)
	assert.Equal(t, pptx.Inch(11.69), pres.GetLayout().CY)

	rect := shapesOf(t, pres, 0)[0]
	// 827 px across 8.27 in is exactly 0.01 in per px.
	assert.Equal(t, pptx.Inch(1), rect.GetOffsetX())
	assert.Equal(t, pptx.Inch(2), rect.GetOffsetY())
	assert.Equal(t, pptx.Inch(3), rect.GetWidth())
	assert.Equal(t, pptx.Inch(4), rect.GetHeight())
}

func TestScaledImage(t *testing.T) {
	js := `{"slides":[{"width":720,"height":720,"elements":[
		{"type":"image","x":72,"y":144,"width":36,"imageBase64":"data:image/png;base64,` + pngBase64(t) + `"}
	]}]}`
	pres, _ := convertWith(t, scaledConfig(), js)

	pic := shapesOf(t, pres, 0)[0]
	assert.Equal(t, pptx.Inch(1), pic.GetOffsetX())
	assert.Equal(t, pptx.Inch(2), pic.GetOffsetY())
	assert.Equal(t, pptx.Inch(0.5), pic.GetWidth())
	assert.Equal(t, pptx.Inch(100.0/72), pic.GetHeight())
}

func TestImageFailures(t *testing.T) {
	js := `{"slides":[{"elements":[
		{"type":"image"},
		{"type":"image","imageBase64":"***not base64***"},
		{"type":"image","imageBase64":"` + base64.StdEncoding.EncodeToString([]byte("plain text")) + `"},
		{"type":"image","imageBase64":"data:image/png,rawbytes"},
		{"type":"text","content":"still here"}
	]}]}`
	pres, report := convertWith(t, DefaultConfig(), js)

	results := report.Slides[0].Elements
	require.Len(t, results, 5)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Contains(t, results[1].Reason, "base64")
	assert.Equal(t, StatusFailed, results[2].Status)
	assert.Equal(t, StatusFailed, results[3].Status)
	assert.Equal(t, StatusOK, results[4].Status)

	shapes := shapesOf(t, pres, 0)
	require.Len(t, shapes, 1)
	assert.IsType(t, &pptx.RichTextShape{}, shapes[0])
	assert.Equal(t, 3, report.Count(StatusFailed))
	assert.Len(t, report.Failures(), 3)
}

func TestTIFFIsTranscoded(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, onePixel(), nil))
	js := `{"slides":[{"elements":[{"type":"image","imageBase64":"` + base64.StdEncoding.EncodeToString(buf.Bytes()) + `"}]}]}`
	pres, report := convertWith(t, DefaultConfig(), js)

	require.Equal(t, StatusOK, report.Slides[0].Elements[0].Status)
	pic := shapesOf(t, pres, 0)[0].(*pptx.DrawingShape)
	assert.Equal(t, "image/png", pic.GetMimeType())
	_, format, err := image.DecodeConfig(bytes.NewReader(pic.GetImageData()))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
}

func TestText(t *testing.T) {
	js := `{"slides":[{"width":720,"height":960,"elements":[
		{"type":"text","x":72,"y":72,"width":144,"height":36,"content":"Bold","fontSize":24,"fontWeight":700,"color":"#336699","textAlign":"center","fontFamily":"Helvetica"},
		{"type":"text","content":"Light","fontWeight":699,"color":"zzzzzz","textAlign":"justify"},
		{"type":"text","content":"Tiny","fontSize":2,"color":"#12","textAlign":"Right"},
		{"type":"text","content":"two\nlines"}
	]}]}`
	pres, report := convertWith(t, DefaultConfig(), js)
	require.Equal(t, 4, report.Count(StatusOK))

	shapes := shapesOf(t, pres, 0)
	require.Len(t, shapes, 4)

	bold := shapes[0].(*pptx.RichTextShape)
	assert.Equal(t, pptx.Inch(1), bold.GetOffsetX())
	assert.Equal(t, pptx.Inch(2), bold.GetWidth())
	l, top, r, b, ok := bold.GetInsets()
	assert.True(t, ok)
	for _, inset := range []int64{l, top, r, b} {
		assert.Equal(t, pptx.Inch(0.05), inset)
	}
	para := bold.GetParagraphs()[0]
	assert.Equal(t, pptx.HorizontalCenter, para.GetAlignment().Horizontal)
	font := para.GetElements()[0].(*pptx.TextRun).GetFont()
	assert.True(t, font.Bold)
	assert.Equal(t, 24.0, font.Size)
	assert.Equal(t, "Helvetica", font.Name)
	assert.Equal(t, "336699", font.Color.RGB())

	light := shapes[1].(*pptx.RichTextShape)
	font = light.GetParagraphs()[0].GetElements()[0].(*pptx.TextRun).GetFont()
	assert.False(t, font.Bold)
	assert.Equal(t, "000000", font.Color.RGB())
	assert.Equal(t, "Arial", font.Name)
	assert.Equal(t, 16.0, font.Size)
	assert.Equal(t, pptx.HorizontalLeft, light.GetParagraphs()[0].GetAlignment().Horizontal)
	assert.Equal(t, pptx.Inch(100.0/72), light.GetWidth())

	tiny := shapes[2].(*pptx.RichTextShape)
	font = tiny.GetParagraphs()[0].GetElements()[0].(*pptx.TextRun).GetFont()
	assert.Equal(t, 8.0, font.Size)
	assert.Equal(t, "000000", font.Color.RGB())
	assert.Equal(t, pptx.HorizontalRight, tiny.GetParagraphs()[0].GetAlignment().Horizontal)

	multi := shapes[3].(*pptx.RichTextShape)
	require.Len(t, multi.GetParagraphs(), 1)
	assert.Equal(t, "two\nlines", multi.Text())
}

func TestFontSizeFollowsScale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout = LayoutFixed
	cfg.Canvas = Size{Width: 5, Height: 5}
	// 720 px across 5 in is half a point per px.
	pres, _ := convertWith(t, cfg, `{"slides":[{"width":720,"height":720,"elements":[
		{"type":"text","content":"x","fontSize":40},
		{"type":"text","content":"y","fontSize":10}
	]}]}`)
	shapes := shapesOf(t, pres, 0)
	size := func(i int) float64 {
		return shapes[i].(*pptx.RichTextShape).GetParagraphs()[0].GetElements()[0].(*pptx.TextRun).GetFont().Size
	}
	assert.InDelta(t, 20.0, size(0), 1e-9)
	assert.Equal(t, 8.0, size(1))
}

func TestShapes(t *testing.T) {
	js := `{"slides":[{"width":720,"height":720,"elements":[
		{"type":"rectangle","fill":"#FF0000","stroke":"#0000FF"},
		{"type":"rectangle"},
		{"type":"rectangle","fill":"#12"},
		{"type":"circle","x":10,"fill":"00ff00"},
		{"type":"circle"}
	]}]}`
	pres, _ := convertWith(t, DefaultConfig(), js)
	shapes := shapesOf(t, pres, 0)
	require.Len(t, shapes, 5)

	filled := shapes[0].(*pptx.AutoShape)
	assert.Equal(t, pptx.AutoShapeRectangle, filled.GetAutoShapeType())
	assert.Equal(t, pptx.FillSolid, filled.GetFill().Type)
	assert.Equal(t, "FF0000", filled.GetFill().Color.RGB())
	assert.Equal(t, pptx.BorderSolid, filled.GetBorder().Style)
	assert.Equal(t, pptx.Point(1), filled.GetBorder().Width)
	assert.Equal(t, "0000FF", filled.GetBorder().Color.RGB())

	plain := shapes[1].(*pptx.AutoShape)
	assert.Equal(t, pptx.FillNone, plain.GetFill().Type)
	assert.Equal(t, pptx.BorderNone, plain.GetBorder().Style)

	assert.Equal(t, "000000", shapes[2].(*pptx.AutoShape).GetFill().Color.RGB())

	circle := shapes[3].(*pptx.AutoShape)
	assert.Equal(t, pptx.AutoShapeEllipse, circle.GetAutoShapeType())
	assert.Equal(t, "00FF00", circle.GetFill().Color.RGB())
	assert.Equal(t, pptx.Point(10), circle.GetOffsetX())
	assert.Equal(t, pptx.BorderNone, circle.GetBorder().Style)

	assert.Equal(t, pptx.FillNone, shapes[4].(*pptx.AutoShape).GetFill().Type)
}

func TestGroups(t *testing.T) {
	js := `{"slides":[{"width":720,"height":720,"elements":[
		{"type":"group","x":500,"y":500,"children":[
			{"type":"rectangle","x":72,"y":72,"width":72,"height":72},
			{"type":"circle","x":216,"y":144,"width":72,"height":72},
			{"type":"unknown-thing"}
		]},
		{"type":"group","children":[]},
		{"type":"group","children":[{"type":"image"}]},
		{"type":"text","content":"after"}
	]}]}`
	pres, report := convertWith(t, DefaultConfig(), js)

	shapes := shapesOf(t, pres, 0)
	require.Len(t, shapes, 2)

	g := shapes[0].(*pptx.GroupShape)
	require.Equal(t, 2, g.GetShapeCount())
	// Children stay frame-absolute; the group's own x/y is ignored.
	assert.Equal(t, pptx.Inch(1), g.GetShapes()[0].GetOffsetX())
	assert.Equal(t, pptx.Inch(1), g.GetOffsetX())
	assert.Equal(t, pptx.Inch(1), g.GetOffsetY())
	assert.Equal(t, pptx.Inch(3), g.GetWidth())
	assert.Equal(t, pptx.Inch(2), g.GetHeight())

	results := report.Slides[0].Elements
	require.Len(t, results, 4)
	assert.Equal(t, StatusOK, results[0].Status)
	require.Len(t, results[0].Children, 3)
	assert.Equal(t, StatusSkipped, results[0].Children[2].Status)
	assert.Equal(t, StatusSkipped, results[1].Status)
	assert.Equal(t, "empty group", results[1].Reason)
	assert.Equal(t, StatusSkipped, results[2].Status)
	assert.Equal(t, StatusOK, results[3].Status)

	assert.Equal(t, 8, report.Total())
	assert.Equal(t, 4, report.Count(StatusOK))
	assert.Equal(t, 4, report.Count(StatusSkipped))
}

func TestUnknownElementsDoNotDisturbOthers(t *testing.T) {
	js := `{"slides":[{"elements":[
		{"type":"rectangle"},
		{"type":"polygon"},
		{"type":"text","content":5},
		{"type":"circle"}
	]}]}`
	pres, report := convertWith(t, DefaultConfig(), js)

	shapes := shapesOf(t, pres, 0)
	require.Len(t, shapes, 2)
	assert.Equal(t, pptx.AutoShapeRectangle, shapes[0].(*pptx.AutoShape).GetAutoShapeType())
	assert.Equal(t, pptx.AutoShapeEllipse, shapes[1].(*pptx.AutoShape).GetAutoShapeType())
	assert.Equal(t, 1, report.Count(StatusSkipped))
	assert.Equal(t, 1, report.Count(StatusFailed))

	results := report.Slides[0].Elements
	assert.Equal(t, deck.KindUnknown, results[1].Kind)
	assert.Equal(t, StatusSkipped, results[1].Status)
	assert.Equal(t, deck.KindText, results[2].Kind)
	assert.Equal(t, StatusFailed, results[2].Status)
	assert.Contains(t, results[2].Reason, "malformed text element")
}

func TestPanicIsCapturedPerElement(t *testing.T) {
	c, err := New(DefaultConfig())
	require.NoError(t, err)

	doc := &deck.Document{Slides: []deck.SlideSpec{{
		Elements: []deck.Element{
			// A typed nil pointer dereferences inside the text builder.
			(*deck.Text)(nil),
			&deck.Rectangle{},
			nil,
		},
	}}}
	pres, report := c.Convert(doc)

	results := report.Slides[0].Elements
	require.Len(t, results, 3)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, "panic")
	assert.Equal(t, StatusOK, results[1].Status)
	assert.Equal(t, StatusSkipped, results[2].Status)
	assert.Len(t, shapesOf(t, pres, 0), 1)
}

func TestSlideLevelImageCoversCanvasInScaledMode(t *testing.T) {
	js := `{"slides":[{"width":720,"height":540,"imageBase64":"` + pngBase64(t) + `"}]}`
	pres, _ := convertWith(t, scaledConfig(), js)

	pic := shapesOf(t, pres, 0)[0]
	assert.Equal(t, int64(0), pic.GetOffsetX())
	assert.Equal(t, pres.GetLayout().CX, pic.GetWidth())
	assert.Equal(t, pres.GetLayout().CY, pic.GetHeight())
}

func TestConversionIsRepeatable(t *testing.T) {
	js := `{"slides":[{"width":800,"height":600,"elements":[
		{"type":"image","x":1,"y":2,"width":3,"height":4,"imageBase64":"` + pngBase64(t) + `"},
		{"type":"text","x":5,"y":6,"content":"t"},
		{"type":"group","children":[{"type":"circle","x":7}]}
	]},{"elements":[{"type":"rectangle","x":9}]}]}`

	c, err := New(scaledConfig())
	require.NoError(t, err)
	doc := mustParse(t, js)

	first, r1 := c.Convert(doc)
	second, r2 := c.Convert(doc)

	assert.Equal(t, r1, r2)
	require.Equal(t, first.GetSlideCount(), second.GetSlideCount())
	assert.Equal(t, first.GetLayout(), second.GetLayout())
	for i := 0; i < first.GetSlideCount(); i++ {
		a := shapesOf(t, first, i)
		b := shapesOf(t, second, i)
		require.Len(t, b, len(a))
		for j := range a {
			assert.Equal(t, a[j].GetType(), b[j].GetType())
			assert.Equal(t, a[j].GetOffsetX(), b[j].GetOffsetX())
			assert.Equal(t, a[j].GetOffsetY(), b[j].GetOffsetY())
			assert.Equal(t, a[j].GetWidth(), b[j].GetWidth())
			assert.Equal(t, a[j].GetHeight(), b[j].GetHeight())
		}
	}
}

func TestConvertedPresentationWrites(t *testing.T) {
	js := `{"slides":[{"elements":[
		{"type":"image","imageBase64":"` + pngBase64(t) + `"},
		{"type":"group","children":[{"type":"image","imageBase64":"` + pngBase64(t) + `"},{"type":"text","content":"é"}]}
	]}]}`
	pres, _ := convertWith(t, scaledConfig(), js)
	require.NoError(t, pres.Validate())

	data, err := pres.Bytes()
	require.NoError(t, err)
	back, err := pptx.ReadBytes(data)
	require.NoError(t, err)
	require.Equal(t, 1, back.GetSlideCount())
	assert.Equal(t, pres.GetLayout().CX, back.GetLayout().CX)

	shapes := shapesOf(t, back, 0)
	require.Len(t, shapes, 2)
	g := shapes[1].(*pptx.GroupShape)
	require.Equal(t, 2, g.GetShapeCount())
	assert.NotEmpty(t, g.GetShapes()[0].(*pptx.DrawingShape).GetImageData())
}
