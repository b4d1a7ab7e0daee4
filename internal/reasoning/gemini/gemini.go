// Package gemini implements reasoning.Collaborator on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/Faultbox/talkcad/internal/reasoning"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// generator is the part of *genai.Models the client needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Config configures the Gemini collaborator.
type Config struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration // per request, 0 for none
	Log         *zap.Logger
}

// Client asks a Gemini model for edit decisions.
type Client struct {
	models      generator
	model       string
	temperature float32
	timeout     time.Duration
	log         *zap.Logger
}

// New creates a Gemini API client.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return newClient(client.Models, cfg), nil
}

func newClient(models generator, cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Client{
		models:      models,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		log:         cfg.Log,
	}
}

// Decide sends one prompt and parses the reply.
func (c *Client) Decide(ctx context.Context, req reasoning.Request) (reasoning.Decision, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	temperature := c.temperature
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(reasoning.BuildPrompt(req)), &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		c.log.Warn("gemini request failed", zap.String("model", c.model), zap.Error(err))
		return reasoning.Decision{}, fmt.Errorf("%w: %v", reasoning.ErrRequestFailed, err)
	}

	text := resp.Text()
	c.log.Debug("gemini reply",
		zap.String("model", c.model),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)),
	)
	if text == "" {
		return reasoning.Decision{}, fmt.Errorf("%w: empty response", reasoning.ErrRequestFailed)
	}
	return reasoning.ParseDecision(text)
}
