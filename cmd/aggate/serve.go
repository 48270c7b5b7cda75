package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/luminal-ai/agui-gateway/agent"
	"github.com/luminal-ai/agui-gateway/auth"
	"github.com/luminal-ai/agui-gateway/config"
	"github.com/luminal-ai/agui-gateway/gateway"
	"github.com/luminal-ai/agui-gateway/server"
	"github.com/luminal-ai/agui-gateway/store"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg := config.Load()
	log := slog.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := store.OpenSessionStore(ctx, cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer sessions.Close()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}

	pg := store.New(pool)
	agentClient := agent.NewClient(cfg.Agent.URL, cfg.Agent.Timeout, log)

	manager := auth.NewManager(sessions, []byte(cfg.Auth.JWTSecret), cfg.Guest.TokenTTL, log)
	gate := auth.NewGate(cfg.Auth.PasswordEnabled, cfg.Auth.Password, cfg.Auth.PasswordTTL, sessions, log)
	quota := auth.NewQuotaEnforcer(sessions, cfg.Guest.MessageLimit)

	deps := gateway.Deps{
		Validator: manager,
		Gate:      gate,
		Quota:     quota,
		Adapter:   gateway.NewAdapter(agentClient, log),
		Commands:  agentClient,
		Forms:     agentClient,
		Search:    store.NewKBStore(pg, agentClient),
		UIEvents:  agentClient,
		Turns:     pg,
		Log:       log,
	}

	checks := map[string]func(ctx context.Context) error{
		"postgres": pool.Ping,
		"redis": func(ctx context.Context) error {
			_, err := sessions.IsVerified(ctx, "health")
			return err
		},
	}

	srv := server.NewServer(cfg, manager, deps, checks)

	errCh := make(chan error, 1)
	go func() {
		log.Info("gateway listening", "host", cfg.Server.Host, "port", cfg.Server.Port)
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
