// Package gateway provides a gateway to the GitHub REST API,
// abstracting away the underlying client and its paging.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v84/github"
	"go.uber.org/zap"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/pr-dashboard/internal/config"
	"github.com/naka-gawa/pr-dashboard/internal/domain"
)

// PageSize is the number of pull requests requested per page.
const PageSize = 100

// ProgressFunc receives a human-readable status line for every page attempted.
type ProgressFunc func(status string)

// Fetcher defines the behavior of a gateway for fetching pull requests from GitHub.
type Fetcher interface {
	FetchRecentPulls(ctx context.Context, repository string, cutoff time.Time, onProgress ProgressFunc) ([]domain.PullRecord, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
// It talks to the public API anonymously.
type GitHubGateway struct {
	restClient *github.Client
	logger     *zap.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(cfg config.GitHub, logger *zap.Logger) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(cfg.RateLimitSleep, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	httpClient := &http.Client{
		Transport: rateLimitWaiter,
		Timeout:   cfg.Timeout,
	}
	restClient := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		baseURL, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse GitHub base URL %q: %w", cfg.BaseURL, err)
		}
		if !strings.HasSuffix(baseURL.Path, "/") {
			baseURL.Path += "/"
		}
		restClient.BaseURL = baseURL
	}
	return &GitHubGateway{
		restClient: restClient,
		logger:     logger,
	}, nil
}

// FetchRecentPulls returns the open pull requests of repository updated on or after cutoff,
// newest first. Pages are requested until one contributes no pull at or after the cutoff;
// the API returns them sorted by update time, so everything beyond is older.
func (g *GitHubGateway) FetchRecentPulls(ctx context.Context, repository string, cutoff time.Time, onProgress ProgressFunc) ([]domain.PullRecord, error) {
	owner, name, err := config.SplitRepository(repository)
	if err != nil {
		return nil, err
	}
	opts := &github.PullRequestListOptions{
		State:       "open",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: PageSize, Page: 1},
	}

	var pulls []domain.PullRecord
	for {
		if onProgress != nil {
			onProgress(fmt.Sprintf("Fetching %s pull requests, page %d", repository, opts.Page))
		}
		g.logger.Debug("fetching pull request page", zap.String("repository", repository), zap.Int("page", opts.Page))

		page, _, err := g.restClient.PullRequests.List(ctx, owner, name, opts)
		if err != nil {
			return nil, classifyError(repository, opts.Page, err)
		}

		kept := 0
		for _, pr := range page {
			record, err := toPullRecord(pr)
			if err != nil {
				return nil, fmt.Errorf("%w: %s page %d: %w", domain.ErrDecode, repository, opts.Page, err)
			}
			if record.UpdatedAt.Before(cutoff) {
				continue
			}
			pulls = append(pulls, record)
			kept++
		}
		if kept == 0 {
			break
		}
		opts.Page++
	}
	g.logger.Info("completed fetching pull requests", zap.String("repository", repository), zap.Int("pulls", len(pulls)))
	return pulls, nil
}

func toPullRecord(pr *github.PullRequest) (domain.PullRecord, error) {
	switch {
	case pr == nil:
		return domain.PullRecord{}, errors.New("null pull request")
	case pr.Number == nil:
		return domain.PullRecord{}, errors.New("pull request without number")
	case pr.UpdatedAt == nil || pr.UpdatedAt.IsZero():
		return domain.PullRecord{}, fmt.Errorf("pull request #%d without updated_at", pr.GetNumber())
	case pr.GetUser().GetLogin() == "":
		return domain.PullRecord{}, fmt.Errorf("pull request #%d without author", pr.GetNumber())
	}
	return domain.PullRecord{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		URL:       pr.GetHTMLURL(),
		Author:    pr.GetUser().GetLogin(),
		UpdatedAt: pr.GetUpdatedAt().Time,
	}, nil
}

// classifyError sorts client errors into the network and decode categories.
func classifyError(repository string, page int, err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var timeErr *time.ParseError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.As(err, &timeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: failed to decode pull requests of %s page %d: %w", domain.ErrDecode, repository, page, err)
	}
	return fmt.Errorf("%w: failed to list pull requests of %s page %d: %w", domain.ErrNetwork, repository, page, err)
}
