package cmd

import (
	"context"

	"github.com/synapsocial/synapsocial/internal/app"
	"github.com/synapsocial/synapsocial/internal/config"
	"github.com/synapsocial/synapsocial/internal/logger"
)

// loadApp wires the same services the server uses, without starting the scanner.
func loadApp(ctx context.Context) (*app.App, error) {
	return newApp(ctx, config.Load())
}

func newApp(ctx context.Context, cfg *config.Config) (*app.App, error) {
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	return app.New(ctx, cfg)
}
