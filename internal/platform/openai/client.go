package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rameshiCode/aindependent-backend/internal/observability"
	"github.com/rameshiCode/aindependent-backend/internal/platform/envutil"
	"github.com/rameshiCode/aindependent-backend/internal/platform/httpx"
	"github.com/rameshiCode/aindependent-backend/internal/platform/logger"
)

// Message is one turn of a chat transcript.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the completion service used by the chat assistant and the
// notification renderer. Every error it returns is recoverable.
type Client interface {
	// Complete runs a single system+user completion.
	Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error)
	// Chat runs a completion over a full transcript.
	Chat(ctx context.Context, system string, messages []Message, maxTokens int, temperature float64) (string, error)
}

var ErrMissingAPIKey = errors.New("missing OPENAI_API_KEY")

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	// RatePerSecond bounds outbound requests; <= 0 disables limiting.
	RatePerSecond float64
	Burst         int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		APIKey:        envutil.String("OPENAI_API_KEY", "", nil),
		BaseURL:       envutil.String("OPENAI_BASE_URL", "https://api.openai.com", log),
		Model:         envutil.String("OPENAI_MODEL", "gpt-4o-mini", log),
		Timeout:       envutil.Duration("OPENAI_TIMEOUT_SECONDS", 60*time.Second, log),
		MaxRetries:    envutil.Int("OPENAI_MAX_RETRIES", 3, log),
		RatePerSecond: envutil.Float("OPENAI_RATE_LIMIT", 2, log),
		Burst:         envutil.Int("OPENAI_RATE_BURST", 4, log),
	}
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	var limiter *rate.Limiter
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	return &client{
		log:        log.With("client", "OpenAIClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *client) Complete(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	return c.Chat(ctx, system, []Message{{Role: "user", Content: user}}, maxTokens, temperature)
}

func (c *client) Chat(ctx context.Context, system string, messages []Message, maxTokens int, temperature float64) (string, error) {
	req := chatRequest{Model: c.cfg.Model, MaxTokens: maxTokens}
	if temperature >= 0 {
		req.Temperature = &temperature
	}
	if strings.TrimSpace(system) != "" {
		req.Messages = append(req.Messages, Message{Role: "system", Content: system})
	}
	req.Messages = append(req.Messages, messages...)

	var resp chatResponse
	if err := c.do(ctx, "/v1/chat/completions", &req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai: empty completion")
	}
	return text, nil
}

func (c *client) do(ctx context.Context, path string, body any, out any) error {
	backoff := 500 * time.Millisecond
	start := time.Now()
	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("openai rate limiter: %w", err)
			}
		}
		resp, raw, err := c.doOnce(ctx, path, body)
		if err == nil {
			observability.ObserveLLMRequest(c.cfg.Model, "ok", time.Since(start))
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("openai decode error: %w", uErr)
			}
			return nil
		}
		if !httpx.IsRetryableError(err) || attempt >= c.cfg.MaxRetries {
			observability.ObserveLLMRequest(c.cfg.Model, "error", time.Since(start))
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("OpenAI request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if sErr := httpx.Sleep(ctx, sleepFor); sErr != nil {
			return sErr
		}
		backoff *= 2
	}
}

func (c *client) doOnce(ctx context.Context, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpx.StatusError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}
