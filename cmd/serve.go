package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"photogallery/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the gallery over HTTP until interrupted.

Uploaded image bytes go to MinIO when minio.endpoint (or MINIO_HOST) is set,
otherwise to the uploads directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Serve(ctx, opts.cfg, opts.logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides addr)")
	return cmd
}
