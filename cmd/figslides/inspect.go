package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/VantageDataChat/figslides/pptx"
	"github.com/spf13/cobra"
)

func newInspectCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.pptx>",
		Short: "Print the slide size, slides and shapes of a .pptx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pres, err := pptx.Open(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printPresentation(out, newStyles(out, o.noColor), pres)
			if err := pres.Validate(); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			return nil
		},
	}
}

func printPresentation(w io.Writer, st styles, pres *pptx.Presentation) {
	layout := pres.GetLayout()
	fmt.Fprintf(w, "%s %.2f x %.2f in (%s), %d slides\n", st.heading.Render("Size"),
		pptx.EMUToInch(layout.CX), pptx.EMUToInch(layout.CY), layout.Name, pres.GetSlideCount())
	if title := pres.GetDocumentProperties().Title; title != "" {
		fmt.Fprintf(w, "%s %s\n", st.heading.Render("Title"), title)
	}

	for i, slide := range pres.GetAllSlides() {
		title := fmt.Sprintf("Slide %d", i+1)
		if slide.GetName() != "" {
			title += " " + slide.GetName()
		}
		fmt.Fprintln(w, st.heading.Render(title))
		printShapes(w, st, slide.GetShapes(), "  ")
	}
}

func printShapes(w io.Writer, st styles, shapes []pptx.Shape, indent string) {
	for _, s := range shapes {
		geom := st.muted.Render(fmt.Sprintf("@%.2f,%.2f %.2fx%.2f in",
			pptx.EMUToInch(s.GetOffsetX()), pptx.EMUToInch(s.GetOffsetY()),
			pptx.EMUToInch(s.GetWidth()), pptx.EMUToInch(s.GetHeight())))
		fmt.Fprintf(w, "%s%s %s%s\n", indent, s.GetType(), geom, shapeDetail(s))
		if g, ok := s.(*pptx.GroupShape); ok {
			printShapes(w, st, g.GetShapes(), indent+"  ")
		}
	}
}

func shapeDetail(s pptx.Shape) string {
	switch v := s.(type) {
	case *pptx.DrawingShape:
		return fmt.Sprintf(" %s %dB", v.GetMimeType(), len(v.GetImageData()))
	case *pptx.RichTextShape:
		text := strings.ReplaceAll(v.Text(), "\n", " / ")
		if r := []rune(text); len(r) > 40 {
			text = string(r[:40]) + "..."
		}
		return fmt.Sprintf(" %q", text)
	case *pptx.AutoShape:
		d := " " + string(v.GetAutoShapeType())
		if f := v.GetFill(); f.Type == pptx.FillSolid {
			d += " #" + f.Color.RGB()
		}
		return d
	case *pptx.GroupShape:
		return fmt.Sprintf(" %d shapes", v.GetShapeCount())
	}
	return ""
}
