package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/VantageDataChat/figslides/convert"
	"github.com/VantageDataChat/figslides/server"
	"github.com/spf13/cobra"
)

func newServeCommand(o *options) *cobra.Command {
	cfg := server.DefaultConfig()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /generate-pptx over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			convCfg, err := o.converterConfig(cmd.Flags())
			if err != nil {
				return err
			}
			conv, err := convert.New(convCfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, conv).ListenAndServe(ctx)
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	cmd.Flags().IntVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Requests per minute per client IP (0 disables)")
	cmd.Flags().DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "How long generated files are cached (0 disables)")
	cmd.Flags().Int64Var(&cfg.MaxBodyBytes, "max-body", cfg.MaxBodyBytes, "Maximum request body in bytes")
	return cmd
}
