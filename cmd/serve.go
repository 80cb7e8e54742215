package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/KaramelBytes/plmview-cli/internal/report"
	"github.com/KaramelBytes/plmview-cli/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload page in a browser",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.ListenAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(server.Options{
			Addr:        addr,
			MaxUploadMB: cfg.MaxUploadMB,
			Report:      report.Options{TableRows: cfg.TableRows},
		}, logger)
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address host:port (default from config)")
}
