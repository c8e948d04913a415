package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/retriva/retriva/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve exposes the retrieval agent over HTTP:

  POST /api/chat            chat (JSON)
  POST /api/chat/stream     chat (SSE streaming)
  GET  /api/sessions        list sessions
  POST /api/sessions        create a session
  GET  /health, /ready      probes

The server shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", api.DefaultAddr, "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := api.NewServer(a.DBPool, a.SessionStore, a.Flow, a.Logger)
	return srv.Run(ctx, serveAddr)
}
