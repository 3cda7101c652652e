package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/straja-ai/fdpadvisor/internal/audit"
	"github.com/straja-ai/fdpadvisor/internal/auth"
	"github.com/straja-ai/fdpadvisor/internal/logging"
	"github.com/straja-ai/fdpadvisor/internal/server"
	"github.com/straja-ai/fdpadvisor/internal/telemetry"
)

var serveFlags struct {
	addr string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP evaluation API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", "", "HTTP listen address (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eval, err := buildEvaluator(cfg)
	if err != nil {
		return err
	}
	defer eval.Adapter().Close()

	authz, err := auth.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Protocol: cfg.Telemetry.Protocol,
		Service:  "fdpadvisor",
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tel.Shutdown(shutdownCtx)
	}()

	var emitter *audit.Emitter
	if cfg.Audit.Level != string(audit.LevelOff) && len(cfg.Audit.Sinks) > 0 {
		sinks, err := audit.BuildSinks(cfg.Audit.Sinks)
		if err != nil {
			return err
		}
		auditLog := logging.Component(log.Logger, "audit")
		emitter = audit.NewEmitter(sinks,
			audit.WithQueue(cfg.Audit.QueueSize, cfg.Audit.Workers),
			audit.WithDrainTimeout(cfg.Audit.ShutdownTimeout),
			audit.WithEmitterLogger(auditLog),
			audit.WithObserver(tel),
		)
		defer func() {
			st := emitter.Close(context.Background())
			log.Info().
				Uint64("queued", st.Queued).
				Uint64("dropped", st.Dropped).
				Uint64("delivered", st.Delivered).
				Uint64("failed", st.Failed).
				Msg("audit emitter closed")
		}()
	}

	serverLog := logging.Component(log.Logger, "server")
	srv, err := server.New(cfg, authz, eval, server.Deps{
		Audit:     emitter,
		Telemetry: tel,
		Logger:    &serverLog,
	})
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveFlags.addr != "" {
		addr = serveFlags.addr
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(addr) }()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}
