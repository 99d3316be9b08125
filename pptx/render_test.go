package pptx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goitalic"
)

func solidPNG(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func assertPixel(t *testing.T, img *image.RGBA, x, y int, want color.RGBA) {
	t.Helper()
	if got := img.RGBAAt(x, y); got != want {
		t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
	}
}

var (
	white = color.RGBA{255, 255, 255, 255}
	red   = color.RGBA{255, 0, 0, 255}
	blue  = color.RGBA{0, 0, 255, 255}
	green = color.RGBA{0, 255, 0, 255}
)

func TestRenderBlankSlide(t *testing.T) {
	p := New()
	p.CreateSlide()

	img, err := p.RenderSlide(0, nil)
	if err != nil {
		t.Fatalf("RenderSlide: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 960 || b.Dy() != 720 {
		t.Errorf("size = %v, want 960x720", b)
	}
	assertPixel(t, img, 480, 360, white)

	if _, err := p.RenderSlide(1, nil); err == nil {
		t.Error("expected error for missing slide")
	}
}

func TestRenderShapes(t *testing.T) {
	p := New()
	p.GetLayout().SetCustomLayout(Inch(10), Inch(10))
	s := p.CreateSlide()
	s.SetBackground(NewSolidFill(NewColorRGB(0, 255, 0)))

	pic := s.CreateDrawingShape()
	pic.SetImageData(solidPNG(t, blue), "image/png")
	pic.SetPosition(0, 0)
	pic.SetSize(Inch(5), Inch(5))

	rect := s.CreateAutoShape()
	rect.SetSolidFill(NewColorRGB(255, 0, 0))
	rect.SetPosition(Inch(5), Inch(5))
	rect.SetSize(Inch(5), Inch(5))

	g := s.CreateGroupShape()
	circle := NewAutoShape().SetAutoShapeType(AutoShapeEllipse).SetSolidFill(NewColorRGB(255, 0, 0))
	circle.SetPosition(Inch(5), 0)
	circle.SetSize(Inch(5), Inch(5))
	g.AddShape(circle)

	img, err := p.RenderSlide(0, &RenderOptions{Width: 100})
	if err != nil {
		t.Fatalf("RenderSlide: %v", err)
	}
	if img.Bounds().Dy() != 100 {
		t.Fatalf("height = %d, want 100", img.Bounds().Dy())
	}
	assertPixel(t, img, 25, 25, blue)
	assertPixel(t, img, 75, 75, red)
	// Grouped ellipse: filled centre, background in the corner.
	assertPixel(t, img, 75, 25, red)
	assertPixel(t, img, 51, 1, green)
	assertPixel(t, img, 25, 75, green)
}

func TestRenderOutline(t *testing.T) {
	p := New()
	p.GetLayout().SetCustomLayout(Inch(10), Inch(10))
	s := p.CreateSlide()
	box := s.CreateAutoShape()
	box.SetOutline(NewColorRGB(0, 0, 255), Inch(0.2))
	box.SetPosition(Inch(1), Inch(1))
	box.SetSize(Inch(8), Inch(8))

	img, err := p.RenderSlide(0, &RenderOptions{Width: 100})
	if err != nil {
		t.Fatal(err)
	}
	assertPixel(t, img, 10, 50, blue)
	assertPixel(t, img, 11, 50, blue)
	assertPixel(t, img, 50, 50, white)
}

func TestRenderText(t *testing.T) {
	p := New()
	s := p.CreateSlide()
	box := s.CreateRichTextShape()
	box.SetPosition(0, 0)
	box.SetSize(Inch(10), Inch(2))
	box.SetWordWrap(true)
	run := box.CreateTextRun("Hello figslides, this line is long enough to wrap onto a second line")
	run.GetFont().SetSize(40).SetColor(NewColorRGB(0, 0, 0))

	img, err := p.RenderSlide(0, nil)
	if err != nil {
		t.Fatal(err)
	}
	inked := func(y0, y1 int) bool {
		for y := y0; y < y1; y++ {
			for x := 0; x < img.Bounds().Dx(); x++ {
				if img.RGBAAt(x, y) != white {
					return true
				}
			}
		}
		return false
	}
	// 40pt at 96 px per inch is about 53 px per line.
	if !inked(0, 60) {
		t.Error("expected text on the first line")
	}
	if !inked(60, 130) {
		t.Error("expected wrapped text on the second line")
	}
	if inked(200, 720) {
		t.Error("text drawn outside its box")
	}
}

func TestFontCache(t *testing.T) {
	fc := NewFontCache()
	a := fc.Face("Arial", 20, false)
	if a == nil {
		t.Fatal("nil face")
	}
	if fc.Face("arial", 20, false) != a {
		t.Error("expected cached face")
	}
	if fc.Face("Arial", 20, true) == a {
		t.Error("bold should not share the regular face")
	}

	if err := fc.LoadFontData("Arial", goitalic.TTF, false); err != nil {
		t.Fatalf("LoadFontData: %v", err)
	}
	if fc.Face("Arial", 20, false) == a {
		t.Error("registered font should replace the cached fallback")
	}
	if err := fc.LoadFontData("Broken", []byte("nope"), false); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveSlidesPNG(t *testing.T) {
	p := New()
	p.CreateSlide()
	p.CreateSlide().SetBackground(NewSolidFill(NewColorRGB(255, 0, 0)))

	pattern := filepath.Join(t.TempDir(), "out", "slide-%02d.png")
	paths, err := p.SaveSlidesPNG(pattern, &RenderOptions{Width: 40})
	if err != nil {
		t.Fatalf("SaveSlidesPNG: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[1]) != "slide-02.png" {
		t.Fatalf("paths = %v", paths)
	}
	f, err := os.Open(paths[1])
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, g, b, _ := img.At(5, 5).RGBA(); r>>8 != 255 || g != 0 || b != 0 {
		t.Errorf("slide 2 not red: %v", img.At(5, 5))
	}
}
