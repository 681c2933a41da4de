package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	llmhttp "github.com/bkyoung/pull-analyzer/internal/adapter/llm/http"
	"github.com/bkyoung/pull-analyzer/internal/config"
)

const (
	providerName   = "github"
	defaultTimeout = 30 * time.Second
)

// Client is an HTTP client for the GitHub search and pull-request
// endpoints. Search failures are fatal to the run, so no retry policy
// is attached here.
type Client struct {
	apiURL      string
	token       string
	org         string
	repo        string
	searchLabel string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient creates a GitHub API client from the manifest section.
func NewClient(cfg config.GitHubConfig, httpCfg config.HTTPConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiURL:      cfg.APIURL,
		token:       cfg.APIToken,
		org:         cfg.OrgName,
		repo:        cfg.RepoName,
		searchLabel: cfg.SearchLabel,
		httpClient:  &http.Client{Timeout: llmhttp.ParseTimeout(httpCfg.Timeout, defaultTimeout)},
		logger:      logger,
	}
}

// SearchPullURLs pages through the issue-search endpoint and collects
// the pull-request API URL of every closed, labeled pull. Pagination
// is sequential: page order is meaningful and volume is low.
func (c *Client) SearchPullURLs(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("type:pr+state:closed+label:%s+repo:%s/%s",
		c.searchLabel, c.org, c.repo)

	var urls []string
	for page := 1; ; page++ {
		searchURL := fmt.Sprintf("%s/search/issues?q=%s&page=%d", c.apiURL, query, page)
		c.logger.Debug("searching issues", zap.String("url", searchURL))

		var resp SearchResponse
		if err := c.getJSON(ctx, searchURL, &resp); err != nil {
			return nil, err
		}

		if len(resp.Items) == 0 {
			break
		}

		for _, item := range resp.Items {
			c.logger.Info("matched pull request",
				zap.Int("index", len(urls)),
				zap.String("issue_url", item.URL),
				zap.String("pull_request_url", item.PullRequest.URL))
			urls = append(urls, item.PullRequest.URL)
		}
	}

	return urls, nil
}

// GetPull fetches the pull-request resource at the given API URL.
func (c *Client) GetPull(ctx context.Context, pullURL string) (Pull, error) {
	var pull Pull
	if err := c.getJSON(ctx, pullURL, &pull); err != nil {
		return Pull{}, err
	}
	if pull.User.Login == "" {
		return Pull{}, llmhttp.NewMalformedResponseError(providerName,
			fmt.Sprintf("pull resource %s has no user login", pullURL))
	}
	return pull, nil
}

// ListComments fetches one comment stream in server-returned order.
func (c *Client) ListComments(ctx context.Context, commentsURL string) ([]Comment, error) {
	var comments []Comment
	if err := c.getJSON(ctx, commentsURL, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// getJSON issues an authenticated GET and decodes the JSON body.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request for %s: %w", url, err)
	}

	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llmhttp.NewTimeoutError(providerName, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		message := fmt.Sprintf("GET %s: HTTP %d", url, resp.StatusCode)
		var apiErr ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			message = fmt.Sprintf("GET %s: %s", url, apiErr.Message)
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return llmhttp.NewAuthenticationError(providerName, message)
		}
		return llmhttp.NewUnexpectedStatusError(providerName, message, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return llmhttp.NewMalformedResponseError(providerName,
			fmt.Sprintf("GET %s: %v", url, err))
	}

	return nil
}
