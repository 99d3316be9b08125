package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/VantageDataChat/figslides/convert"
	"github.com/VantageDataChat/figslides/pptx"
	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Build information (set by the release build)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

// options are the flags shared by every command.
type options struct {
	log        logger.Flags
	configFile string
	noColor    bool

	layout       string
	images       string
	ppi          float64
	canvasWidth  float64
	canvasHeight float64
	fontFamily   string
}

func bindGlobalFlags(flags *pflag.FlagSet, o *options) {
	flags.CountVarP(&o.log.LevelCount, "loglevel", "v", "Increase logging level")
	flags.StringVar(&o.log.Level, "log-level", "info", "Set the default log level")
	flags.BoolVar(&o.log.JsonLogs, "json-logs", false, "Print logs in json format to stderr")
	flags.BoolVar(&o.noColor, "no-color", false, "Disable colored output")

	flags.StringVar(&o.configFile, "config", "", "YAML file with conversion settings")
	flags.StringVar(&o.layout, "layout", "", "Canvas layout: per-slide or fixed")
	flags.StringVar(&o.images, "images", "", "Image placement: fill or scaled")
	flags.Float64Var(&o.ppi, "ppi", 0, "Source pixels per inch for the per-slide layout")
	flags.Float64Var(&o.canvasWidth, "canvas-width", 0, "Fixed layout canvas width in inches")
	flags.Float64Var(&o.canvasHeight, "canvas-height", 0, "Fixed layout canvas height in inches")
	flags.StringVar(&o.fontFamily, "font-family", "", "Default font family for text")
}

// converterConfig loads --config and applies the flags that were set.
func (o *options) converterConfig(flags *pflag.FlagSet) (convert.Config, error) {
	cfg := convert.DefaultConfig()
	if o.configFile != "" {
		var err error
		if cfg, err = convert.LoadConfig(o.configFile); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("layout") {
		cfg.Layout = convert.Layout(o.layout)
	}
	if flags.Changed("images") {
		cfg.Images = convert.ImageMode(o.images)
	}
	if flags.Changed("ppi") {
		cfg.PixelsPerInch = o.ppi
	}
	if flags.Changed("canvas-width") {
		cfg.Canvas.Width = o.canvasWidth
	}
	if flags.Changed("canvas-height") {
		cfg.Canvas.Height = o.canvasHeight
	}
	if flags.Changed("font-family") {
		cfg.FontFamily = o.fontFamily
	}
	return cfg, cfg.Validate()
}

func newRootCommand() *cobra.Command {
	o := &options{log: logger.Flags{Level: "info", LogToStderr: true}}
	var reportFile string

	rootCmd := &cobra.Command{
		Use:   "figslides [flags] <input.json> <output.pptx>",
		Short: "Convert JSON slide descriptions into PowerPoint files",
		Long: `figslides converts a JSON document describing slides and their elements
(images, text, rectangles, circles and groups) into a .pptx file.

Given exactly two arguments the root command behaves like 'convert'.
Any other argument count is a usage error.`,
		Example: `  figslides deck.json deck.pptx
  figslides convert --layout fixed --images scaled deck.json deck.pptx
  figslides serve --addr :3000
  figslides inspect deck.pptx
  figslides render deck.pptx previews/`,
		// Positional arguments that are not subcommands are convert operands.
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Configure(o.log)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				if len(args) == 0 {
					_ = cmd.Help()
				}
				return fmt.Errorf("%w: expected <input.json> <output.pptx>, got %d arguments", errUsage, len(args))
			}
			return runConvert(cmd, o, args[0], args[1], reportFile)
		},
	}

	bindGlobalFlags(rootCmd.PersistentFlags(), o)
	rootCmd.Flags().StringVar(&reportFile, "report", "", "Write the conversion report as YAML to this file")

	rootCmd.AddCommand(newConvertCommand(o))
	rootCmd.AddCommand(newServeCommand(o))
	rootCmd.AddCommand(newInspectCommand(o))
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newVersionCommand())
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), getVersionInfo())
		},
	}
}

func getVersionInfo() string {
	return fmt.Sprintf("figslides %s (pptx %s, commit: %s, built: %s, go: %s)",
		version, pptx.Version, commit, date, runtime.Version())
}
