package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/VantageDataChat/figslides/convert"
	"github.com/VantageDataChat/figslides/deck"
	"github.com/VantageDataChat/figslides/pptx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeDeck(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	img := base64.StdEncoding.EncodeToString(buf.Bytes())

	path := filepath.Join(t.TempDir(), "deck.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"fileName":"Demo","slides":[
		{"name":"cover","width":720,"height":960,"elements":[
			{"type":"image","imageBase64":"`+img+`"},
			{"type":"text","content":"Hello","fontWeight":"bold"}
		]},
		{"name":"second","elements":[
			{"type":"group","children":[{"type":"circle","fill":"#abc"},{"type":"sparkle"}]},
			{"type":"image","imageBase64":"!!"}
		]}
	]}`), 0o644))
	return path
}

func TestConvertCommand(t *testing.T) {
	in := writeDeck(t)
	dir := t.TempDir()
	out := filepath.Join(dir, "deck.pptx")
	reportPath := filepath.Join(dir, "report.yaml")

	stdout, err := run(t, "convert", "--report", reportPath, in, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Slide 1/2 cover")
	assert.Contains(t, stdout, "10.00 x 13.33 in")
	assert.Contains(t, stdout, "✓ image #1")
	assert.Contains(t, stdout, `- unknown #2 unsupported element type "sparkle"`)
	assert.Contains(t, stdout, "✗ image #2")
	assert.Contains(t, stdout, out+" (2 slides, 6 elements, 1 failed)")

	pres, err := pptx.Open(out)
	require.NoError(t, err)
	assert.Equal(t, 2, pres.GetSlideCount())
	assert.Equal(t, "Demo", pres.GetDocumentProperties().Title)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var report convert.Report
	require.NoError(t, yaml.Unmarshal(data, &report))
	require.Len(t, report.Slides, 2)
	assert.Equal(t, "cover", report.Slides[0].Name)
	assert.Equal(t, 1, report.Count(convert.StatusFailed))
}

func TestRootCommandConverts(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "deck.pptx")
	_, err := run(t, "--layout", "fixed", "--canvas-width", "10", "--canvas-height", "7.5", writeDeck(t), out)
	require.NoError(t, err)

	pres, err := pptx.Open(out)
	require.NoError(t, err)
	assert.Equal(t, pptx.Inch(10), pres.GetLayout().CX)
	assert.Equal(t, pptx.Inch(7.5), pres.GetLayout().CY)
}

func TestConvertErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"slides":`), 0o644))
	out := filepath.Join(dir, "x.pptx")

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, err error)
	}{
		{"no args", nil, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, errUsage)
		}},
		{"one arg", []string{"only.json"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, errUsage)
			assert.ErrorContains(t, err, "got 1 arguments")
		}},
		{"three args", []string{"a", "b", "c"}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, errUsage)
		}},
		{"missing input", []string{filepath.Join(dir, "nope.json"), out}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, os.ErrNotExist)
			assert.ErrorContains(t, err, "reading")
		}},
		{"invalid json", []string{broken, out}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, deck.ErrInvalidDocument)
		}},
		{"bad layout", []string{"--layout", "sideways", writeDeck(t), out}, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, `got "sideways"`)
		}},
		{"convert arg count", []string{"convert", "only.json"}, func(t *testing.T, err error) {
			assert.ErrorContains(t, err, "accepts 2 arg(s)")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.NotContains(t, err.Error(), "unknown command")
			tt.check(t, err)
		})
	}
	assert.NoFileExists(t, out)
}

func TestConvertEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	for i, body := range []string{`{}`, `{"slides":[]}`} {
		in := filepath.Join(dir, fmt.Sprintf("empty-%d.json", i))
		require.NoError(t, os.WriteFile(in, []byte(body), 0o644))
		out := filepath.Join(dir, fmt.Sprintf("empty-%d.pptx", i))

		stdout, err := run(t, in, out)
		require.NoError(t, err, body)
		assert.Contains(t, stdout, out+" (0 slides, 0 elements, 0 failed)")

		pres, err := pptx.Open(out)
		require.NoError(t, err)
		assert.Equal(t, 0, pres.GetSlideCount())
	}
}

func TestInspectCommand(t *testing.T) {
	out := filepath.Join(t.TempDir(), "deck.pptx")
	_, err := run(t, "--images", "scaled", writeDeck(t), out)
	require.NoError(t, err)

	stdout, err := run(t, "inspect", out)
	require.NoError(t, err)
	// The last slide falls back to the default 960x1280 source size.
	assert.Contains(t, stdout, "Size 13.33 x 17.78 in")
	assert.Contains(t, stdout, "2 slides")
	assert.Contains(t, stdout, "Title Demo")
	assert.Contains(t, stdout, "Slide 1 cover")
	assert.Contains(t, stdout, "picture")
	assert.Contains(t, stdout, `"Hello"`)
	assert.Contains(t, stdout, "ellipse #AABBCC")
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "deck.pptx")
	_, err := run(t, writeDeck(t), out)
	require.NoError(t, err)

	stdout, err := run(t, "render", "--width", "120", out, filepath.Join(dir, "previews"))
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(dir, "previews", "slide-01.png"))
	assert.Contains(t, stdout, filepath.Join(dir, "previews", "slide-02.png"))

	f, err := os.Open(filepath.Join(dir, "previews", "slide-02.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 120, img.Bounds().Dx())
	assert.Equal(t, 160, img.Bounds().Dy())
}

func TestVersionCommand(t *testing.T) {
	stdout, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "figslides dev")
	assert.Contains(t, stdout, pptx.Version)
}
