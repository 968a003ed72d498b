// Package ingest implements the offline pipeline that produces the
// persisted vector index and document store consumed by the query path:
// fetch issues from GitHub, preprocess them into documents, embed and
// persist. The query path never writes these artifacts.
package ingest

import (
	"context"
	"fmt"
	"net/http"

	gh "github.com/google/go-github/v68/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/avoskr/issueqa-backend/internal/config"
)

const commentsPerIssue = 5

// RawIssue is one fetched GitHub issue before preprocessing.
type RawIssue struct {
	Number   int
	Title    string
	Body     string
	URL      string
	Comments []string
}

// Fetcher pulls open issues with their first comments from a repository.
type Fetcher struct {
	client *gh.Client
	cfg    config.GitHubConfig
	logger *zap.Logger
}

func NewFetcher(ctx context.Context, cfg config.GitHubConfig, logger *zap.Logger) *Fetcher {
	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(ctx, ts)
	}
	return &Fetcher{
		client: gh.NewClient(httpClient),
		cfg:    cfg,
		logger: logger,
	}
}

// FetchIssues returns up to MaxIssues open issues. Pull requests share the
// issues endpoint on GitHub and are skipped.
func (f *Fetcher) FetchIssues(ctx context.Context) ([]RawIssue, error) {
	opts := &gh.IssueListByRepoOptions{
		State:       "open",
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var issues []RawIssue
	for {
		page, resp, err := f.client.Issues.ListByRepo(ctx, f.cfg.Owner, f.cfg.Repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list issues %s/%s: %w", f.cfg.Owner, f.cfg.Repo, err)
		}

		for _, issue := range page {
			if issue.IsPullRequest() {
				continue
			}

			comments, err := f.fetchComments(ctx, issue.GetNumber())
			if err != nil {
				return nil, err
			}

			issues = append(issues, RawIssue{
				Number:   issue.GetNumber(),
				Title:    issue.GetTitle(),
				Body:     issue.GetBody(),
				URL:      issue.GetHTMLURL(),
				Comments: comments,
			})
			if len(issues) >= f.cfg.MaxIssues {
				f.logger.Info("fetched issues", zap.Int("count", len(issues)))
				return issues, nil
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	f.logger.Info("fetched issues", zap.Int("count", len(issues)))
	return issues, nil
}

func (f *Fetcher) fetchComments(ctx context.Context, number int) ([]string, error) {
	opts := &gh.IssueListCommentsOptions{
		ListOptions: gh.ListOptions{PerPage: commentsPerIssue},
	}
	comments, _, err := f.client.Issues.ListComments(ctx, f.cfg.Owner, f.cfg.Repo, number, opts)
	if err != nil {
		return nil, fmt.Errorf("list comments for issue %d: %w", number, err)
	}

	out := make([]string, 0, len(comments))
	for _, c := range comments {
		if body := c.GetBody(); body != "" {
			out = append(out, body)
		}
	}
	return out, nil
}
