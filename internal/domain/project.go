// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// FeaturedCount is how many of the top-starred projects are flagged for prominent display.
const FeaturedCount = 6

// Project holds the display data for a single repository of the organization.
// It is the core domain entity of this application.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Language    *string  `json:"language"`
	Topics      []string `json:"topics"`
	URL         string   `json:"url"`
	Homepage    *string  `json:"homepage"`
	IsFeatured  bool     `json:"isFeatured"`
}

// OrgStats is the aggregate view over all projects of the organization.
// TotalDownloads and MemberCount are only set by the stats strategy that computes them.
type OrgStats struct {
	TotalStars     int     `json:"totalStars"`
	TotalForks     int     `json:"totalForks"`
	ProjectCount   int     `json:"projectCount"`
	MedianStars    float64 `json:"medianStars"`
	TotalDownloads *int64  `json:"totalDownloads,omitempty"`
	MemberCount    *int    `json:"memberCount,omitempty"`
}

// Source values for Snapshot.Source.
const (
	SourceLive     = "live"
	SourceFallback = "fallback"
)

// Snapshot is everything the site renderer needs for one build.
type Snapshot struct {
	Projects    []Project `json:"projects"`
	Stats       OrgStats  `json:"stats"`
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// MarkFeatured flags the first FeaturedCount projects as featured.
// The slice must already be ordered by rank.
func MarkFeatured(projects []Project) {
	for i := range projects {
		projects[i].IsFeatured = i < FeaturedCount
	}
}
