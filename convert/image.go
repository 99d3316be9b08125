package convert

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// maxImageBytes bounds a single decoded image.
const maxImageBytes = 50 << 20

var errNoImageData = errors.New("image has no data")

// decodedImage is an embeddable picture.
type decodedImage struct {
	data     []byte
	mimeType string
	width    int // pixels
	height   int
}

// passThrough lists the formats PowerPoint embeds as is.
var passThrough = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
}

// decodeImage decodes a base64 payload or data: URL and sniffs the format.
// TIFF and WebP are transcoded to PNG.
func decodeImage(payload string) (*decodedImage, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, errNoImageData
	}

	if strings.HasPrefix(payload, "data:") {
		meta, rest, ok := strings.Cut(payload[len("data:"):], ",")
		if !ok {
			return nil, fmt.Errorf("malformed data URL")
		}
		if !strings.HasSuffix(meta, ";base64") {
			return nil, fmt.Errorf("data URL is not base64 encoded")
		}
		payload = rest
	}

	data, err := decodeBase64(payload)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errNoImageData
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image is %d bytes, limit is %d", len(data), maxImageBytes)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unrecognised image data: %w", err)
	}

	if mime, ok := passThrough[format]; ok {
		return &decodedImage{data: data, mimeType: mime, width: cfg.Width, height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding %s image: %w", format, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("transcoding %s image to png: %w", format, err)
	}
	return &decodedImage{data: buf.Bytes(), mimeType: "image/png", width: cfg.Width, height: cfg.Height}, nil
}

// decodeBase64 accepts standard and URL alphabets, with or without padding,
// ignoring embedded whitespace.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)

	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		data, err := enc.DecodeString(s)
		if err == nil {
			return data, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("invalid base64 image data: %w", firstErr)
}
