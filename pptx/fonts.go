package pptx

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// fontKey identifies a face by family, pixel size and weight.
type fontKey struct {
	name string
	size float64
	bold bool
}

// FontCache hands out font faces to the renderer. Families registered with
// LoadFont or LoadFontData are used by name; every other family renders
// with the Go fonts. It is safe for concurrent use.
type FontCache struct {
	mu    sync.Mutex
	fonts map[string]*opentype.Font // lowercase name, " bold" suffix for bold
	faces map[fontKey]font.Face
}

// NewFontCache creates an empty cache.
func NewFontCache() *FontCache {
	return &FontCache{
		fonts: make(map[string]*opentype.Font),
		faces: make(map[fontKey]font.Face),
	}
}

var goFonts = sync.OnceValues(func() (map[bool]*opentype.Font, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, err
	}
	return map[bool]*opentype.Font{false: regular, true: bold}, nil
})

// LoadFont registers a TrueType or OpenType file under name.
func (fc *FontCache) LoadFont(name, path string, bold bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font: %w", err)
	}
	return fc.LoadFontData(name, data, bold)
}

// LoadFontData registers font data under name.
func (fc *FontCache) LoadFontData(name string, data []byte, bold bool) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", name, err)
	}
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.fonts[registeredName(name, bold)] = f
	// Faces for this family may have been built from the fallback.
	for k := range fc.faces {
		if k.name == strings.ToLower(name) {
			delete(fc.faces, k)
		}
	}
	return nil
}

func registeredName(name string, bold bool) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if bold {
		n += " bold"
	}
	return n
}

// Face returns a face for the family at sizePx pixels. It never returns
// nil; if no font can be parsed the basic bitmap font is used.
func (fc *FontCache) Face(name string, sizePx float64, bold bool) font.Face {
	if sizePx < 1 {
		sizePx = 1
	}
	key := fontKey{name: strings.ToLower(name), size: sizePx, bold: bold}

	fc.mu.Lock()
	defer fc.mu.Unlock()
	if face, ok := fc.faces[key]; ok {
		return face
	}

	f := fc.fonts[registeredName(name, bold)]
	if f == nil && bold {
		f = fc.fonts[registeredName(name, false)]
	}
	if f == nil {
		fallback, err := goFonts()
		if err != nil {
			return basicFace
		}
		f = fallback[bold]
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicFace
	}
	fc.faces[key] = face
	return face
}
