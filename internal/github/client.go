package github

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"
)

// Fetcher is the boundary consumed by the collector. Fetch returns
// (nil, nil) when the repository does not exist or is inaccessible; any
// other error is a transport or auth failure and propagates.
type Fetcher interface {
	Fetch(ctx context.Context, owner, name string) (*RepoArtifactsResponse, error)
}

// Client fetches repository graphs over the GitHub GraphQL v4 API.
type Client struct {
	gql          *githubv4.Client
	releaseLimit int
	assetLimit   int
	logger       *slog.Logger
}

// ClientOptions configures fetch pagination limits.
type ClientOptions struct {
	// ReleaseLimit caps releases fetched per repository (most recent first).
	ReleaseLimit int
	// AssetLimit caps assets fetched per release.
	AssetLimit int
}

// NewClient builds a Client authenticated with the given token.
func NewClient(token string, opts ClientOptions, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.ReleaseLimit <= 0 {
		opts.ReleaseLimit = 10
	}
	if opts.AssetLimit <= 0 {
		opts.AssetLimit = 50
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := oauth2.NewClient(context.Background(), src)

	return &Client{
		gql:          githubv4.NewClient(httpClient),
		releaseLimit: opts.ReleaseLimit,
		assetLimit:   opts.AssetLimit,
		logger:       logger,
	}
}

// Fetch retrieves the artifact graph for one repository.
func (c *Client) Fetch(ctx context.Context, owner, name string) (*RepoArtifactsResponse, error) {
	var q repoArtifactsQuery
	vars := repoArtifactsVariables(owner, name, c.releaseLimit, c.assetLimit)

	if err := c.gql.Query(ctx, &q, vars); err != nil {
		if isNotFound(err) {
			c.logger.Debug("repository not resolvable", "owner", owner, "name", name)
			return nil, nil
		}
		return nil, fmt.Errorf("graphql query for %s/%s: %w", owner, name, err)
	}

	return toResponse(&q), nil
}

// isNotFound detects the NOT_FOUND GraphQL error class. The shurcooL client
// surfaces GraphQL errors as plain messages, so this matches the stable
// message prefix GitHub uses for unresolvable repositories.
func isNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Could not resolve to a Repository")
}

var _ Fetcher = (*Client)(nil)
