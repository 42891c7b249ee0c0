package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kpauljoseph/sheetdeck/pkg/logger"
	"github.com/kpauljoseph/sheetdeck/pkg/version"
)

const (
	githubReleaseURL = "https://api.github.com/repos/kpauljoseph/sheetdeck/releases/latest"
	userAgent        = "SheetDeck-Updater"
)

type Checker struct {
	client     *http.Client
	logger     *logger.Logger
	releaseURL string
	current    string
}

type Option func(*Checker)

// WithReleaseURL points the checker at another releases endpoint.
func WithReleaseURL(url string) Option {
	return func(c *Checker) {
		c.releaseURL = url
	}
}

// WithCurrentVersion overrides the version compiled into the binary.
func WithCurrentVersion(v string) Option {
	return func(c *Checker) {
		c.current = v
	}
}

func NewChecker(log *logger.Logger, options ...Option) *Checker {
	if log == nil {
		log = logger.Discard()
	}
	c := &Checker{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:     log,
		releaseURL: githubReleaseURL,
		current:    version.Version,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// CheckForUpdates asks GitHub for the latest release.
func (c *Checker) CheckForUpdates(ctx context.Context) (*UpdateInfo, error) {
	c.logger.Debug("Checking for updates at %s", c.releaseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.releaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch GitHub release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode GitHub release: %w", err)
	}

	currentVersion := strings.TrimPrefix(c.current, "v")
	latestVersion := strings.TrimPrefix(release.TagName, "v")

	return &UpdateInfo{
		CurrentVersion: currentVersion,
		LatestVersion:  latestVersion,
		ReleaseNotes:   release.Body,
		DownloadURL:    release.HTMLURL,
		IsAvailable:    !release.Draft && !release.Prerelease && CompareVersions(currentVersion, latestVersion) < 0,
	}, nil
}

// CompareVersions compares dotted versions numerically and returns -1, 0
// or 1. Missing parts count as zero; a non-numeric part compares as text.
func CompareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := 0; i < len(parts1) || i < len(parts2); i++ {
		a, b := "0", "0"
		if i < len(parts1) {
			a = parts1[i]
		}
		if i < len(parts2) {
			b = parts2[i]
		}
		if c := comparePart(a, b); c != 0 {
			return c
		}
	}
	return 0
}

func comparePart(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
