package convert

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout selects how slide canvases are sized.
type Layout string

const (
	// LayoutPerSlide sizes each canvas from the slide's pixels divided by
	// PixelsPerInch.
	LayoutPerSlide Layout = "per-slide"
	// LayoutFixed uses Canvas for every slide.
	LayoutFixed Layout = "fixed"
)

// ImageMode selects where images are placed.
type ImageMode string

const (
	// ImagesFill places every image at the origin, sized to the canvas.
	ImagesFill ImageMode = "fill"
	// ImagesScaled places images at their transformed geometry.
	ImagesScaled ImageMode = "scaled"
)

// Size is a width and height pair. Units depend on the field.
type Size struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Config holds every conversion default.
type Config struct {
	Layout Layout    `yaml:"layout"`
	Images ImageMode `yaml:"images"`
	// PixelsPerInch divides source pixels in the per-slide layout.
	PixelsPerInch float64 `yaml:"pixelsPerInch"`
	// Canvas is the fixed layout's slide size in inches.
	Canvas Size `yaml:"canvas"`
	// DefaultSlide is used for slides without width or height, in source px.
	DefaultSlide Size `yaml:"defaultSlide"`
	// DefaultElement is used for elements without width or height.
	DefaultElement Size `yaml:"defaultElement"`

	FontFamily  string  `yaml:"fontFamily"`
	FontSize    float64 `yaml:"fontSize"`
	MinFontSize float64 `yaml:"minFontSize"`
	// TextInset is applied to all four sides of text boxes, in inches.
	TextInset float64 `yaml:"textInset"`
	// StrokeWidth is the rectangle outline width in points.
	StrokeWidth float64 `yaml:"strokeWidth"`
	// Background is the slide background as hex RGB.
	Background string `yaml:"background"`
}

// DefaultConfig returns the defaults: per-slide canvases at 72 px per inch,
// full-canvas images and an A4 portrait fixed canvas.
func DefaultConfig() Config {
	return Config{
		Layout:         LayoutPerSlide,
		Images:         ImagesFill,
		PixelsPerInch:  72,
		Canvas:         Size{Width: 8.27, Height: 11.69},
		DefaultSlide:   Size{Width: 960, Height: 1280},
		DefaultElement: Size{Width: 100, Height: 100},
		FontFamily:     "Arial",
		FontSize:       16,
		MinFontSize:    8,
		TextInset:      0.05,
		StrokeWidth:    1,
		Background:     "#FFFFFF",
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	switch c.Layout {
	case LayoutPerSlide, LayoutFixed:
	default:
		errs = append(errs, fmt.Errorf("layout must be %q or %q, got %q", LayoutPerSlide, LayoutFixed, c.Layout))
	}
	switch c.Images {
	case ImagesFill, ImagesScaled:
	default:
		errs = append(errs, fmt.Errorf("images must be %q or %q, got %q", ImagesFill, ImagesScaled, c.Images))
	}
	if c.PixelsPerInch <= 0 {
		errs = append(errs, fmt.Errorf("pixelsPerInch must be positive, got %v", c.PixelsPerInch))
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas must be positive, got %vx%v in", c.Canvas.Width, c.Canvas.Height))
	}
	if c.DefaultSlide.Width <= 0 || c.DefaultSlide.Height <= 0 {
		errs = append(errs, fmt.Errorf("defaultSlide must be positive, got %vx%v", c.DefaultSlide.Width, c.DefaultSlide.Height))
	}
	if c.DefaultElement.Width < 0 || c.DefaultElement.Height < 0 {
		errs = append(errs, fmt.Errorf("defaultElement must not be negative"))
	}
	if c.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("fontSize must be positive, got %v", c.FontSize))
	}
	if c.MinFontSize < 0 {
		errs = append(errs, fmt.Errorf("minFontSize must not be negative, got %v", c.MinFontSize))
	}
	if c.TextInset < 0 {
		errs = append(errs, fmt.Errorf("textInset must not be negative, got %v", c.TextInset))
	}
	if c.StrokeWidth < 0 {
		errs = append(errs, fmt.Errorf("strokeWidth must not be negative, got %v", c.StrokeWidth))
	}
	if _, err := parseHex(c.Background); err != nil {
		errs = append(errs, fmt.Errorf("background: %w", err))
	}
	return errors.Join(errs...)
}

// LoadConfig reads a YAML config file on top of DefaultConfig. Unknown keys
// are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
