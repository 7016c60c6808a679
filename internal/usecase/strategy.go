package usecase

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/beam-community/org-site-data/internal/domain"
	"github.com/beam-community/org-site-data/internal/gateway"
	"github.com/beam-community/org-site-data/internal/metrics"
)

// StatsStrategy adds one upstream-derived field to the org stats.
// Implementations must not fail; they write a default value instead.
type StatsStrategy interface {
	Augment(ctx context.Context, projects []domain.Project, stats *domain.OrgStats)
}

// NoAugment leaves the locally computed stats untouched.
type NoAugment struct{}

// Augment does nothing.
func (NoAugment) Augment(context.Context, []domain.Project, *domain.OrgStats) {}

// DownloadsStrategy sums the package registry download counts of every project.
type DownloadsStrategy struct {
	registry    gateway.PackageRegistry
	concurrency int
	logger      logrus.FieldLogger
	metrics     *metrics.Metrics
}

// NewDownloadsStrategy creates a DownloadsStrategy. A concurrency of 0 starts one lookup
// per project at once.
func NewDownloadsStrategy(registry gateway.PackageRegistry, concurrency int, logger logrus.FieldLogger, m *metrics.Metrics) *DownloadsStrategy {
	return &DownloadsStrategy{
		registry:    registry,
		concurrency: concurrency,
		logger:      logger,
		metrics:     m,
	}
}

// Augment sets TotalDownloads.
func (s *DownloadsStrategy) Augment(ctx context.Context, projects []domain.Project, stats *domain.OrgStats) {
	total := s.TotalDownloads(ctx, projects)
	stats.TotalDownloads = &total
}

// TotalDownloads looks up every project in parallel and waits for all of them.
// A failed lookup contributes zero and does not stop the others.
func (s *DownloadsStrategy) TotalDownloads(ctx context.Context, projects []domain.Project) int64 {
	results := make([]domain.Result[int64], len(projects))

	// No errgroup.WithContext: one failure must not cancel its siblings.
	var eg errgroup.Group
	if s.concurrency > 0 {
		eg.SetLimit(s.concurrency)
	}
	for i, p := range projects {
		eg.Go(func() error {
			n, err := s.registry.PackageDownloads(ctx, p.Name)
			switch {
			case errors.Is(err, gateway.ErrPackageNotFound):
				results[i] = domain.Live[int64](0)
			case err != nil:
				results[i] = domain.Fallback[int64](0, err)
			default:
				results[i] = domain.Live(n)
			}
			return nil
		})
	}
	_ = eg.Wait()

	var total int64
	failed := 0
	for i, r := range results {
		total += r.Value
		if r.Fallback {
			failed++
			s.metrics.RecordFallback("downloads")
			s.logger.WithError(r.Err).WithField("project", projects[i].Name).Debug("Download lookup failed, counting as zero.")
		}
	}
	if failed > 0 {
		s.logger.WithFields(logrus.Fields{
			"failed": failed,
			"total":  len(projects),
		}).Warn("Some package download lookups failed, counting them as zero")
	}
	return total
}

// MembersStrategy reports the organization's member count, or domain.FallbackMemberCount
// when the lookup fails.
type MembersStrategy struct {
	org     string
	count   func(ctx context.Context, org string) (int, error)
	source  string
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewMembersStrategy counts members by listing them through the REST API.
func NewMembersStrategy(org string, fetcher gateway.Fetcher, logger logrus.FieldLogger, m *metrics.Metrics) *MembersStrategy {
	return &MembersStrategy{org: org, count: fetcher.ListOrgMembers, source: "members", logger: logger, metrics: m}
}

// NewGraphQLMembersStrategy counts members with a single GraphQL total count query.
func NewGraphQLMembersStrategy(org string, fetcher gateway.Fetcher, logger logrus.FieldLogger, m *metrics.Metrics) *MembersStrategy {
	return &MembersStrategy{org: org, count: fetcher.CountOrgMembers, source: "members-graphql", logger: logger, metrics: m}
}

// Augment sets MemberCount.
func (s *MembersStrategy) Augment(ctx context.Context, _ []domain.Project, stats *domain.OrgStats) {
	n := s.MemberCount(ctx).Value
	stats.MemberCount = &n
}

// MemberCount performs the lookup, substituting the fallback count on failure.
func (s *MembersStrategy) MemberCount(ctx context.Context) domain.Result[int] {
	n, err := s.count(ctx, s.org)
	if err != nil {
		s.logger.WithError(err).WithField("org", s.org).Warn("Failed to fetch member count, using fallback")
		s.metrics.RecordFallback(s.source)
		return domain.Fallback(domain.FallbackMemberCount, err)
	}
	return domain.Live(n)
}
