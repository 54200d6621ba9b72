package cli

import (
	"context"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction API over gRPC",
	Long: `Starts the invoice.v1.ExtractionService gRPC API (Extract, GetJob, ListJobs,
ExportJobs) together with the standard gRPC health service.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: GRPC_ADDR or :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	parent := cmdContext(cmd)
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := a.cfg.Server.GRPCAddr
	if serveAddr != "" {
		addr = serveAddr
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := server.NewServer(a.logger, server.WithMaxRecvMsgSize(a.cfg.Server.MaxRequestBytes))
	server.RegisterExtractionServer(srv, server.NewExtractionService(
		a.processor, a.jobs, export.NewService(a.jobs, a.logger), a.cfg.Server.MaxRequestBytes, a.logger,
	))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(lis) }()
	a.logger.Info("server.listening", "addr", lis.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	srv.Stop(context.Background())
	return <-errCh
}
