package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/agentpoker/agentpoker/cmd/agentpoker/shared"
	"github.com/agentpoker/agentpoker/internal/server"
	"github.com/agentpoker/agentpoker/internal/store"
)

// ServeCmd runs the HTTP server.
type ServeCmd struct {
	Listen   string `kong:"help='Listen address (overrides config)'"`
	Config   string `kong:"help='Path to HCL config file',type='path'"`
	DB       string `kong:"help='Path to sqlite database (overrides config)',type='path'"`
	AdminKey string `kong:"help='Admin key for table reset (overrides config)'"`
	LogLevel string `kong:"default='info',help='Log level (trace|debug|info|warn|error)'"`
}

func (c *ServeCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Listen != "" {
		cfg.Server.Listen = c.Listen
	}
	if c.DB != "" {
		cfg.Server.DBPath = c.DB
	}
	if c.AdminKey != "" {
		cfg.Server.AdminKey = c.AdminKey
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}

	logger := shared.SetupLogger(cfg.Server.LogLevel)

	st, err := store.Open(cfg.Server.DBPath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	srv, err := server.NewServer(logger, quartz.NewReal(), st, cfg)
	if err != nil {
		return err
	}

	logger.Info().
		Str("listen", cfg.Server.Listen).
		Str("db", cfg.Server.DBPath).
		Int("tables", len(cfg.Tables)).
		Str("version", version).
		Msg("Starting Agent Poker server")

	ctx := shared.SetupSignalHandler(logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(cfg.Server.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
