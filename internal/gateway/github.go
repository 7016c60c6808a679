// Package gateway provides access to the upstream APIs the site data is built from,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/beam-community/org-site-data/internal/metrics"
)

// ErrTokenRequired is returned by calls that GitHub only serves to authenticated clients.
var ErrTokenRequired = errors.New("github token required")

// ErrMalformedPayload is returned when a successful response does not hold the expected JSON shape.
var ErrMalformedPayload = errors.New("malformed payload")

// Fetcher defines the behavior of a gateway for fetching organization data from GitHub.
type Fetcher interface {
	ListOrgRepos(ctx context.Context, org string) ([]*github.Repository, error)
	ListOrgMembers(ctx context.Context, org string) (int, error)
	// CountOrgMembers asks the GraphQL API for the member total instead of listing members.
	CountOrgMembers(ctx context.Context, org string) (int, error)
}

// GitHubOptions configures the GitHub clients.
type GitHubOptions struct {
	// Token is optional; without it requests are anonymous and GraphQL is unavailable.
	Token string
	// BaseURL overrides the REST endpoint (https://api.github.com/).
	BaseURL string
	// GraphQLURL overrides the GraphQL endpoint (https://api.github.com/graphql).
	GraphQLURL string
	// WaitRateLimit makes the client sleep through secondary rate limits and re-send the request.
	WaitRateLimit bool
	Timeout       time.Duration
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	authenticated bool
	logger        logrus.FieldLogger
	metrics       *metrics.Metrics
}

// orgMembersQuery fetches only the member total of an organization.
type orgMembersQuery struct {
	Organization struct {
		MembersWithRole struct {
			TotalCount int
		}
	} `graphql:"organization(login: $login)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts GitHubOptions, logger logrus.FieldLogger, m *metrics.Metrics) (*GitHubGateway, error) {
	var transport http.RoundTripper = http.DefaultTransport
	if opts.WaitRateLimit {
		rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(transport, github_ratelimit.WithSingleSleepLimit(1*time.Minute, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
		}
		transport = rateLimitWaiter
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Base:   transport,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}),
		}
	}
	httpClient := &http.Client{Transport: transport, Timeout: opts.Timeout}

	restClient := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base url %q: %w", opts.BaseURL, err)
		}
		restClient.BaseURL = baseURL
	}

	graphqlClient := githubv4.NewClient(httpClient)
	if opts.GraphQLURL != "" {
		graphqlClient = githubv4.NewEnterpriseClient(opts.GraphQLURL, httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		authenticated: opts.Token != "",
		logger:        logger,
		metrics:       m,
	}, nil
}

// ListOrgRepos issues a single request for up to 100 repositories of the organization,
// asking for them ordered by stars.
func (g *GitHubGateway) ListOrgRepos(ctx context.Context, org string) ([]*github.Repository, error) {
	g.logger.WithField("org", org).Debug("Fetching organization repositories...")
	opts := &github.RepositoryListByOrgOptions{
		Sort:        "stars",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	start := time.Now()
	repos, _, err := g.restClient.Repositories.ListByOrg(ctx, org, opts)
	if err == nil {
		err = checkRepoList(repos)
	}
	g.metrics.ObserveRequest(metrics.EndpointRepos, start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories with REST API: %w", err)
	}
	g.logger.WithField("count", len(repos)).Debug("Completed fetching repositories.")
	return repos, nil
}

// checkRepoList rejects bodies that decode without error but are not a list of objects:
// an empty body, null, or null entries.
func checkRepoList(repos []*github.Repository) error {
	if repos == nil {
		return fmt.Errorf("%w: not a list", ErrMalformedPayload)
	}
	for i, repo := range repos {
		if repo == nil {
			return fmt.Errorf("%w: null entry at index %d", ErrMalformedPayload, i)
		}
	}
	return nil
}

// ListOrgMembers returns the size of the first page (up to 100) of public members.
func (g *GitHubGateway) ListOrgMembers(ctx context.Context, org string) (int, error) {
	g.logger.WithField("org", org).Debug("Fetching organization members...")
	opts := &github.ListMembersOptions{ListOptions: github.ListOptions{PerPage: 100}}
	start := time.Now()
	members, _, err := g.restClient.Organizations.ListMembers(ctx, org, opts)
	g.metrics.ObserveRequest(metrics.EndpointMembers, start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to list members with REST API: %w", err)
	}
	return len(members), nil
}

// CountOrgMembers reads membersWithRole.totalCount through GraphQL.
func (g *GitHubGateway) CountOrgMembers(ctx context.Context, org string) (int, error) {
	if !g.authenticated {
		return 0, ErrTokenRequired
	}
	g.logger.WithField("org", org).Debug("Counting organization members with GraphQL...")
	var q orgMembersQuery
	variables := map[string]interface{}{"login": githubv4.String(org)}
	start := time.Now()
	err := g.graphqlClient.Query(ctx, &q, variables)
	g.metrics.ObserveRequest(metrics.EndpointGraphQL, start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to execute GraphQL query for members: %w", err)
	}
	return q.Organization.MembersWithRole.TotalCount, nil
}
