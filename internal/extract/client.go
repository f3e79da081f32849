// Package extract turns raw trade messages into validated, standardized,
// multi-language offers through one oracle round-trip per message.
package extract

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const systemPrompt = "You are an agricultural market reporting assistant that extracts, standardizes, and translates commodity offers from mandi trade messages."

// Client calls the chat completion API with per-attempt timeouts scaled to
// prompt length and a jittered backoff between attempts.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient builds an oracle client. The limiter caps request rate across
// all concurrent cycles sharing this client.
func NewClient(apiKey, model string, logger *zap.Logger) *Client {
	return &Client{
		api:     openai.NewClient(apiKey),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(3), 5),
		logger:  logger,
	}
}

// Complete sends prompt to the model and returns the raw response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	startTime := time.Now()

	// Longer prompts get proportionally more time.
	baseTimeout := 60 * time.Second
	promptLenFactor := time.Duration(len(prompt)/500) * time.Second
	timeout := baseTimeout + promptLenFactor

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	maxRetries := 3
	var resp openai.ChatCompletionResponse
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if werr := c.limiter.Wait(ctx); werr != nil {
			return "", fmt.Errorf("rate limit wait: %w", werr)
		}

		attemptCtx, attemptCancel := context.WithTimeout(ctx, timeout)
		resp, err = c.api.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.1,
		})
		attemptCancel()

		if err == nil && len(resp.Choices) > 0 {
			break
		}

		c.logger.Warn("oracle attempt failed", zap.Int("attempt", attempt), zap.Error(err))

		if attempt < maxRetries {
			baseDelay := time.Duration(attempt*3) * time.Second
			jitter := time.Duration(rand.Intn(3)) * time.Second
			time.Sleep(baseDelay + jitter)
		}
	}

	if err != nil {
		return "", fmt.Errorf("oracle error after %d attempts: %w", maxRetries, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("oracle returned no choices")
	}

	c.logger.Debug("oracle response received",
		zap.Duration("elapsed", time.Since(startTime)),
		zap.Int("prompt_len", len(prompt)))
	return resp.Choices[0].Message.Content, nil
}
