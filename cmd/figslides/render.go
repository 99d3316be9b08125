package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/VantageDataChat/figslides/pptx"
	"github.com/spf13/cobra"
)

func newRenderCommand() *cobra.Command {
	opts := pptx.DefaultRenderOptions()
	cmd := &cobra.Command{
		Use:   "render [flags] <file.pptx> <output-dir|pattern>",
		Short: "Render slide previews as PNG images",
		Long: `Render every slide of a .pptx file to a PNG preview.

The second argument is either a directory, in which case files are named
slide-01.png, slide-02.png and so on, or a pattern containing a %d verb.`,
		Example: `  figslides render deck.pptx previews/
  figslides render --width 480 deck.pptx "thumbs/deck-%03d.png"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pres, err := pptx.Open(args[0])
			if err != nil {
				return err
			}
			paths, err := pres.SaveSlidesPNG(outputPattern(args[1]), opts)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Width, "width", opts.Width, "Image width in pixels")
	return cmd
}

func outputPattern(arg string) string {
	if strings.Contains(arg, "%") {
		return arg
	}
	return filepath.Join(arg, "slide-%02d.png")
}
