package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ollama-chatbot/internal/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat API over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, port string) error {
	a, err := buildApp(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = a.log.Sync() }()

	if port == "" {
		port = a.cfg.Port
	}

	srv, err := server.New(a.chat, a.log.Named("http"))
	if err != nil {
		return err
	}
	err = srv.ListenAndServe(ctx, &http.Server{
		Addr:              ":" + port,
		ReadTimeout:       a.cfg.ServerReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      a.cfg.ServerWriteTimeout,
		IdleTimeout:       120 * time.Second,
	})
	if err != nil {
		a.log.Error("server error", zap.Error(err))
		return err
	}
	a.log.Info("server stopped")
	return nil
}
