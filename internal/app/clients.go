package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rameshiCode/aindependent-backend/internal/modules/notifications"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
	"github.com/rameshiCode/aindependent-backend/internal/platform/openai"
	"github.com/rameshiCode/aindependent-backend/internal/platform/redisx"
)

// Clients holds the optional outbound integrations. Nil fields mean the
// integration is not configured and the app runs without it.
type Clients struct {
	LLM     openai.Client
	Redis   *redisx.Client
	Content *notifications.ContentBank
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	llm, err := openai.New(log, cfg.OpenAI)
	switch {
	case errors.Is(err, openai.ErrMissingAPIKey):
		log.Warn("OPENAI_API_KEY not set, assistant and notification rendering use fallbacks")
	case err != nil:
		return out, fmt.Errorf("init openai client: %w", err)
	default:
		out.LLM = llm
	}

	rdb, err := redisx.New(ctx, log, cfg.Redis)
	switch {
	case errors.Is(err, redisx.ErrNotConfigured):
		log.Info("REDIS_ADDR not set, running without distributed locks and pub/sub")
	case err != nil:
		log.Warn("Redis unavailable, running without distributed locks and pub/sub", "error", err)
	default:
		out.Redis = rdb
	}

	out.Content = notifications.DefaultContentBank()
	if cfg.ContentPath != "" {
		raw, err := os.ReadFile(cfg.ContentPath)
		if err != nil {
			return out, fmt.Errorf("read notification content %s: %w", cfg.ContentPath, err)
		}
		if out.Content, err = notifications.LoadContentBank(raw); err != nil {
			return out, fmt.Errorf("parse notification content %s: %w", cfg.ContentPath, err)
		}
		log.Info("Loaded notification content", "path", cfg.ContentPath)
	}
	return out, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
