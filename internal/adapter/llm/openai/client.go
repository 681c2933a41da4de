package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	llmhttp "github.com/bkyoung/pull-analyzer/internal/adapter/llm/http"
	"github.com/bkyoung/pull-analyzer/internal/config"
	"github.com/bkyoung/pull-analyzer/internal/domain"
)

const (
	providerName   = "openai"
	defaultTimeout = 60 * time.Second
)

// Client issues model-completion requests. The bearer token comes from
// a client-credentials token source, which caches the token and
// re-exchanges when it expires, so long batches survive token expiry.
type Client struct {
	completionsURL string
	template       RequestTemplate
	tokenSource    oauth2.TokenSource
	httpClient     *http.Client
	retryConf      llmhttp.RetryConfig
	overloadStatus int
	limiter        *rate.Limiter
	logger         llmhttp.Logger
}

// NewClient creates a completion client from the manifest section and
// the ambient HTTP settings.
func NewClient(cfg config.OpenAIConfig, httpCfg config.HTTPConfig, rlCfg config.RateLimitConfig) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.UAAURL + "/oauth/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	overload := httpCfg.OverloadStatus
	if overload == 0 {
		overload = http.StatusInternalServerError
	}

	var limiter *rate.Limiter
	if rlCfg.RequestsPerSecond > 0 {
		burst := rlCfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rlCfg.RequestsPerSecond), burst)
	}

	return &Client{
		completionsURL: cfg.CompletionsURL,
		template:       NewRequestTemplate(cfg.DataTemplate),
		tokenSource:    cc.TokenSource(context.Background()),
		httpClient:     &http.Client{Timeout: llmhttp.ParseTimeout(httpCfg.Timeout, defaultTimeout)},
		retryConf:      llmhttp.BuildRetryConfig(httpCfg),
		overloadStatus: overload,
		limiter:        limiter,
	}
}

// SetLogger attaches a structured request/response logger.
func (c *Client) SetLogger(logger llmhttp.Logger) {
	c.logger = logger
}

// SetTokenSource overrides the token source (for testing).
func (c *Client) SetTokenSource(ts oauth2.TokenSource) {
	c.tokenSource = ts
}

// Complete issues one completion request for the named message group.
// The overload status triggers retry with backoff; any other non-200
// status fails the call. The returned result carries the group name so
// callers can reassemble unordered fan-out results.
func (c *Client) Complete(ctx context.Context, group domain.MessageGroup) (domain.CompletionResult, error) {
	payload, err := c.template.Payload(group.Messages)
	if err != nil {
		return domain.CompletionResult{}, fmt.Errorf("build payload for %s: %w", group.Name, err)
	}

	start := time.Now()
	if c.logger != nil {
		c.logger.LogRequest(ctx, llmhttp.RequestLog{
			Provider:  providerName,
			Group:     group.Name,
			URL:       c.completionsURL,
			Timestamp: start,
			Messages:  len(group.Messages),
		})
	}

	var completion domain.Completion
	var statusCode int

	operation := func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		token, err := c.tokenSource.Token()
		if err != nil {
			return llmhttp.NewAuthenticationError(providerName, err.Error())
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.completionsURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token.AccessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return llmhttp.NewTimeoutError(providerName, err.Error())
		}
		defer resp.Body.Close()

		statusCode = resp.StatusCode
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			// Parsed below
		case resp.StatusCode == c.overloadStatus:
			return llmhttp.NewOverloadedError(providerName,
				fmt.Sprintf("group %s: endpoint overloaded", group.Name), resp.StatusCode)
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return llmhttp.NewAuthenticationError(providerName, errorMessage(body, resp.StatusCode))
		default:
			return llmhttp.NewUnexpectedStatusError(providerName,
				errorMessage(body, resp.StatusCode), resp.StatusCode)
		}

		if err := json.Unmarshal(body, &completion); err != nil {
			return llmhttp.NewMalformedResponseError(providerName,
				fmt.Sprintf("group %s: %v", group.Name, err))
		}
		if len(completion.Choices) == 0 {
			return llmhttp.NewMalformedResponseError(providerName,
				fmt.Sprintf("group %s: no choices in response", group.Name))
		}

		return nil
	}

	if err := llmhttp.RetryWithBackoff(ctx, operation, c.retryConf); err != nil {
		if c.logger != nil {
			c.logger.LogError(ctx, llmhttp.ErrorLog{
				Provider:   providerName,
				Group:      group.Name,
				Timestamp:  time.Now(),
				Duration:   time.Since(start),
				Error:      err,
				StatusCode: statusCode,
				Retryable:  llmhttp.ShouldRetry(err),
			})
		}
		return domain.CompletionResult{}, err
	}

	if c.logger != nil {
		c.logger.LogResponse(ctx, llmhttp.ResponseLog{
			Provider:   providerName,
			Group:      group.Name,
			Timestamp:  time.Now(),
			Duration:   time.Since(start),
			StatusCode: statusCode,
		})
	}

	return domain.CompletionResult{GroupName: group.Name, Completion: completion}, nil
}

// errorMessage extracts a useful message from an upstream error body.
func errorMessage(body []byte, statusCode int) string {
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	if len(body) > 0 && len(body) < 200 {
		return string(body)
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}
