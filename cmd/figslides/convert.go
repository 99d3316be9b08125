package main

import (
	"fmt"
	"io"
	"os"

	"github.com/VantageDataChat/figslides/convert"
	"github.com/VantageDataChat/figslides/deck"
	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConvertCommand(o *options) *cobra.Command {
	var reportFile string
	cmd := &cobra.Command{
		Use:   "convert [flags] <input.json> <output.pptx>",
		Short: "Convert a JSON slide document to a .pptx file",
		Example: `  figslides convert deck.json deck.pptx
  figslides convert --config figslides.yaml --report report.yaml deck.json deck.pptx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, o, args[0], args[1], reportFile)
		},
	}
	cmd.Flags().StringVar(&reportFile, "report", "", "Write the conversion report as YAML to this file")
	return cmd
}

func runConvert(cmd *cobra.Command, o *options, input, output, reportFile string) error {
	cfg, err := o.converterConfig(cmd.Flags())
	if err != nil {
		return err
	}
	conv, err := convert.New(cfg)
	if err != nil {
		return err
	}

	doc, err := deck.Load(input)
	if err != nil {
		return err
	}
	if len(doc.Slides) == 0 {
		logger.Warnf("%s has no slides, writing an empty presentation", input)
	}

	pres, report := conv.Convert(doc)
	out := cmd.OutOrStdout()
	printReport(out, newStyles(out, o.noColor), report)

	if err := pres.Save(output); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}
	if reportFile != "" {
		if err := writeReport(reportFile, report); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%s (%d slides, %d elements, %d failed)\n",
		output, len(report.Slides), report.Total(), report.Count(convert.StatusFailed))
	return nil
}

func printReport(w io.Writer, st styles, report *convert.Report) {
	for _, slide := range report.Slides {
		title := fmt.Sprintf("Slide %d/%d", slide.Index+1, len(report.Slides))
		if slide.Name != "" {
			title += " " + slide.Name
		}
		fmt.Fprintf(w, "%s %s\n", st.heading.Render(title),
			st.muted.Render(fmt.Sprintf("%.2f x %.2f in", slide.Canvas.Width, slide.Canvas.Height)))
		for _, warning := range slide.Warnings {
			fmt.Fprintf(w, "  %s\n", st.skipped.Render("! "+warning))
		}
		printResults(w, st, slide.Elements, "  ")
	}
}

func printResults(w io.Writer, st styles, results []convert.Result, indent string) {
	for _, r := range results {
		line := fmt.Sprintf("%s #%d", r.Kind, r.Index+1)
		switch r.Status {
		case convert.StatusOK:
			fmt.Fprintf(w, "%s%s %s\n", indent, st.ok.Render("✓"), line)
		case convert.StatusSkipped:
			fmt.Fprintf(w, "%s%s %s %s\n", indent, st.skipped.Render("-"), line, st.muted.Render(r.Reason))
		default:
			fmt.Fprintf(w, "%s%s %s %s\n", indent, st.failed.Render("✗"), line, st.failed.Render(r.Reason))
		}
		printResults(w, st, r.Children, indent+"  ")
	}
}

func writeReport(path string, report *convert.Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
