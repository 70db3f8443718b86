package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nugget/chatty/internal/httpkit"
)

// OllamaClient is a client for the Ollama generate API.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	retry      RetryPolicy
	logger     *slog.Logger
}

// NewOllamaClient creates a new Ollama client bound to one model.
func NewOllamaClient(baseURL, model string, logger *slog.Logger) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		httpClient: httpkit.NewClient(
			httpkit.WithTimeout(5 * time.Minute), // small local models on CPU are slow
		),
		retry:  DefaultRetryPolicy(),
		logger: logger,
	}
}

// SetRetryPolicy replaces the default retry policy.
func (c *OllamaClient) SetRetryPolicy(p RetryPolicy) {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	c.retry = p
}

// Model returns the model identifier sent with every request.
func (c *OllamaClient) Model() string {
	return c.model
}

// Generate sends prompt to /api/generate and returns the reply text.
// Connection errors and non-2xx statuses are retried according to the
// retry policy; anything else aborts at once with [ErrUnexpected].
func (c *OllamaClient) Generate(ctx context.Context, prompt string, temperature float64, format Format) (string, error) {
	req := generateRequest{
		Model:       c.model,
		Prompt:      prompt,
		Stream:      false,
		Temperature: temperature,
		Options:     &Options{Temperature: temperature},
	}
	if format == FormatJSON {
		req.Format = string(FormatJSON)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", ErrUnexpected, err)
	}
	c.logger.Log(ctx, LevelTrace, "generate request", "body", string(body))

	var lastErr error
	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		text, err := c.generateOnce(ctx, body)
		if err == nil {
			return text, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		var te *transportError
		if !errors.As(err, &te) {
			c.logger.Error("model request failed", "error", err)
			return "", fmt.Errorf("%w: %v", ErrUnexpected, err)
		}

		lastErr = err
		c.logger.Warn("model backend request failed",
			"attempt", attempt+1,
			"max_attempts", c.retry.MaxAttempts,
			"error", err,
		)

		if attempt+1 < c.retry.MaxAttempts {
			if err := c.retry.wait(ctx, c.retry.Delay(attempt)); err != nil {
				return "", err
			}
		}
	}

	return "", fmt.Errorf("%w after %d attempts: %v", ErrUnreachable, c.retry.MaxAttempts, lastErr)
}

func (c *OllamaClient) generateOnce(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if httpkit.IsConnectionError(err) {
			return "", &transportError{Err: err}
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := httpkit.ReadErrorBody(resp.Body, 1024)
		return "", &transportError{StatusCode: resp.StatusCode, Err: errors.New(msg)}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	c.logger.Log(ctx, LevelTrace, "generate response",
		"model", out.Model,
		"eval_count", out.EvalCount,
		"response", out.Response,
	)
	return out.Response, nil
}

// Ping checks if Ollama is reachable.
func (c *OllamaClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 64*1024)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error %d", resp.StatusCode)
	}

	return nil
}
