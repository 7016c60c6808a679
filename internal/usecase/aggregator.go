// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/go-github/v84/github"
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/beam-community/org-site-data/internal/domain"
	"github.com/beam-community/org-site-data/internal/gateway"
	"github.com/beam-community/org-site-data/internal/metrics"
)

// Aggregator is the use case for building the site data of an organization.
// It never fails: every upstream failure is replaced by fallback data.
type Aggregator struct {
	org      string
	fetcher  gateway.Fetcher
	strategy StatsStrategy
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewAggregator creates a new Aggregator instance. A nil strategy disables stats augmentation.
func NewAggregator(org string, fetcher gateway.Fetcher, strategy StatsStrategy, logger logrus.FieldLogger, m *metrics.Metrics) *Aggregator {
	if strategy == nil {
		strategy = NoAugment{}
	}
	return &Aggregator{
		org:      org,
		fetcher:  fetcher,
		strategy: strategy,
		logger:   logger,
		metrics:  m,
		now:      time.Now,
	}
}

// FetchProjects lists the organization's repositories, drops archived and excluded ones,
// orders them by stars and flags the top domain.FeaturedCount as featured.
// When the listing fails the static fallback projects are returned instead.
func (a *Aggregator) FetchProjects(ctx context.Context) domain.Result[[]domain.Project] {
	repos, err := a.fetcher.ListOrgRepos(ctx, a.org)
	if err == nil {
		err = validateRepos(repos)
	}
	if err != nil {
		a.logger.WithError(err).WithField("org", a.org).Warn("Failed to fetch projects from GitHub API, using fallback")
		a.metrics.RecordFallback("projects")
		return domain.Fallback(domain.FallbackProjects(), err)
	}

	projects := make([]domain.Project, 0, len(repos))
	for _, repo := range repos {
		if repo.GetArchived() || domain.IsExcluded(repo.GetName()) {
			continue
		}
		projects = append(projects, toProject(repo))
	}

	// The API sort order is not trusted; ties keep the order GitHub returned.
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].Stars > projects[j].Stars
	})
	domain.MarkFeatured(projects)

	a.logger.WithField("count", len(projects)).Debug("Usecase: Projects fetched.")
	return domain.Live(projects)
}

// ComputeStats totals the projects and lets the configured strategy add its field.
func (a *Aggregator) ComputeStats(ctx context.Context, projects []domain.Project) domain.OrgStats {
	result := Summarize(projects)
	a.strategy.Augment(ctx, projects, &result)
	return result
}

// Snapshot fetches the projects and computes the stats for one site build.
func (a *Aggregator) Snapshot(ctx context.Context) domain.Snapshot {
	a.logger.Debug("Usecase: Starting snapshot...")
	projects := a.FetchProjects(ctx)
	orgStats := a.ComputeStats(ctx, projects.Value)
	a.metrics.SetProjects(len(projects.Value))
	a.logger.Debug("Usecase: Snapshot complete.")
	return domain.Snapshot{
		Projects:    projects.Value,
		Stats:       orgStats,
		Source:      projects.Source(),
		GeneratedAt: a.now().UTC(),
	}
}

// validateRepos rejects listings that decoded without error but carry no usable data.
func validateRepos(repos []*github.Repository) error {
	if repos == nil {
		return fmt.Errorf("repository listing: %w: not a list", gateway.ErrMalformedPayload)
	}
	for i, repo := range repos {
		if repo == nil {
			return fmt.Errorf("repository listing: %w: null entry at index %d", gateway.ErrMalformedPayload, i)
		}
	}
	return nil
}

// Summarize computes the locally derivable stats of a project list.
func Summarize(projects []domain.Project) domain.OrgStats {
	result := domain.OrgStats{ProjectCount: len(projects)}
	stars := make([]int, len(projects))
	for i, p := range projects {
		result.TotalStars += p.Stars
		result.TotalForks += p.Forks
		stars[i] = p.Stars
	}
	// Median only fails on empty input, where zero is the right answer.
	if median, err := stats.Median(stats.LoadRawData(stars)); err == nil {
		result.MedianStars = median
	}
	return result
}

func toProject(repo *github.Repository) domain.Project {
	p := domain.Project{
		Name:        repo.GetName(),
		Description: repo.GetDescription(),
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		Topics:      append([]string{}, repo.Topics...),
		URL:         repo.GetHTMLURL(),
	}
	if repo.Language != nil {
		language := *repo.Language
		p.Language = &language
	}
	if homepage := repo.GetHomepage(); homepage != "" {
		p.Homepage = &homepage
	}
	return p
}
