package convert

import (
	"fmt"
	"strings"

	"github.com/VantageDataChat/figslides/pptx"
	"github.com/lucasb-eyer/go-colorful"
)

const hexDigits = "0123456789abcdefABCDEF"

// parseHex parses "#RRGGBB" (the "#" is optional, "#RGB" is accepted).
func parseHex(s string) (pptx.Color, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if (len(digits) != 6 && len(digits) != 3) || strings.Trim(digits, hexDigits) != "" {
		return pptx.ColorBlack, fmt.Errorf("invalid hex color %q", s)
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return pptx.ColorBlack, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.Clamped().RGB255()
	return pptx.NewColorRGB(r, g, b), nil
}

// colorOrBlack parses s, falling back to black when it is empty or
// malformed.
func (c *Converter) colorOrBlack(s string) pptx.Color {
	if strings.TrimSpace(s) == "" {
		return pptx.ColorBlack
	}
	col, err := parseHex(s)
	if err != nil {
		c.log.Debugf("%v, using black", err)
		return pptx.ColorBlack
	}
	return col
}
