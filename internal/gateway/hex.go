package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/beam-community/org-site-data/internal/metrics"
)

// DefaultHexBaseURL is the public Hex package registry API.
const DefaultHexBaseURL = "https://hex.pm/api"

// ErrPackageNotFound is returned when the registry has no package under the requested name.
var ErrPackageNotFound = errors.New("package not found")

// PackageRegistry looks up download totals for published packages.
type PackageRegistry interface {
	PackageDownloads(ctx context.Context, project string) (int64, error)
}

// HexGateway is the PackageRegistry backed by the Hex API.
type HexGateway struct {
	client  *http.Client
	baseURL string
	logger  logrus.FieldLogger
	metrics *metrics.Metrics
}

type hexPackage struct {
	Downloads struct {
		All *int64 `json:"all"`
	} `json:"downloads"`
}

// NewHexGateway creates a HexGateway. An empty baseURL selects DefaultHexBaseURL.
func NewHexGateway(baseURL string, timeout time.Duration, logger logrus.FieldLogger, m *metrics.Metrics) *HexGateway {
	if baseURL == "" {
		baseURL = DefaultHexBaseURL
	}
	return &HexGateway{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
		metrics: m,
	}
}

// PackageName maps a repository name to its Hex package name.
func PackageName(project string) string {
	return strings.ReplaceAll(project, "-", "_")
}

// PackageDownloads returns the all-time download count of the package published from project.
// A package without a downloads total counts as zero.
func (h *HexGateway) PackageDownloads(ctx context.Context, project string) (int64, error) {
	start := time.Now()
	n, err := h.packageDownloads(ctx, PackageName(project))
	h.metrics.ObserveRequest(metrics.EndpointPackages, start, err)
	return n, err
}

func (h *HexGateway) packageDownloads(ctx context.Context, name string) (int64, error) {
	endpoint := h.baseURL + "/packages/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build hex request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch hex package %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("hex package %s: %w", name, ErrPackageNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return 0, fmt.Errorf("hex package %s: unexpected status %d", name, resp.StatusCode)
	}

	var pkg hexPackage
	if err := json.NewDecoder(resp.Body).Decode(&pkg); err != nil {
		return 0, fmt.Errorf("failed to decode hex package %s: %w", name, err)
	}
	if pkg.Downloads.All == nil {
		h.logger.WithField("package", name).Debug("Package has no download total.")
		return 0, nil
	}
	return *pkg.Downloads.All, nil
}
