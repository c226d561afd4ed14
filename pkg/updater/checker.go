package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kpauljoseph/repeater/pkg/logger"
	"github.com/kpauljoseph/repeater/pkg/version"
)

const (
	githubVersionURL = "https://api.github.com/repos/kpauljoseph/repeater/releases/latest"
	ReleasesURL      = "https://github.com/kpauljoseph/repeater/releases"
	userAgent        = "repeater-updater"
	checkInterval    = 24 * time.Hour
	// PromptInterval is how long a dismissed notice stays quiet.
	PromptInterval = 3 * 24 * time.Hour
)

// History remembers when the release feed was last asked and when the
// user last saw a notice.
type History interface {
	VersionCheck(ctx context.Context) (CheckHistory, error)
	RecordVersionCheck(ctx context.Context, at time.Time) error
	RecordPrompt(ctx context.Context, at time.Time) error
}

type Checker struct {
	client     *http.Client
	logger     *logger.Logger
	history    History
	releaseURL string
	current    string
	now        func() time.Time
}

type Option func(*Checker)

func WithReleaseURL(url string) Option {
	return func(c *Checker) {
		c.releaseURL = url
	}
}

func WithCurrentVersion(v string) Option {
	return func(c *Checker) {
		c.current = v
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

func NewChecker(history History, logger *logger.Logger, options ...Option) *Checker {
	c := &Checker{
		client: &http.Client{
			Timeout: 2 * time.Second,
		},
		logger:     logger,
		history:    history,
		releaseURL: githubVersionURL,
		current:    version.Version,
		now:        time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// CheckForUpdates returns the newer release, or nil when there is none or
// when the feed or the user were bothered too recently.
func (c *Checker) CheckForUpdates(ctx context.Context) (*UpdateInfo, error) {
	currentVersion := normalizeVersion(c.current)
	if !isRelease(currentVersion) {
		c.logger.Debug("Skipping update check for development build %q", c.current)
		return nil, nil
	}

	info, err := c.history.VersionCheck(ctx)
	if err != nil {
		return nil, err
	}
	now := c.now()
	if !info.LastPromptedAt.IsZero() && now.Sub(info.LastPromptedAt) < PromptInterval {
		return nil, nil
	}
	if !info.LastVersionCheckAt.IsZero() && now.Sub(info.LastVersionCheckAt) < checkInterval {
		return nil, nil
	}

	c.logger.Debug("Checking for updates...")
	release, err := c.latestRelease(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.history.RecordVersionCheck(ctx, now); err != nil {
		return nil, err
	}

	latestVersion := normalizeVersion(release.TagName)
	return &UpdateInfo{
		CurrentVersion: currentVersion,
		LatestVersion:  latestVersion,
		UpdateMessage:  release.Body,
		DownloadURL:    release.HTMLURL,
		IsAvailable:    compareVersions(currentVersion, latestVersion) < 0,
	}, nil
}

// Prompted records that the user has seen the notice.
func (c *Checker) Prompted(ctx context.Context) error {
	return c.history.RecordPrompt(ctx, c.now())
}

func (c *Checker) latestRelease(ctx context.Context) (*GitHubRelease, error) {
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
	return &release, nil
}

func normalizeVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

func isRelease(v string) bool {
	parts := strings.Split(v, ".")
	for _, p := range parts {
		if _, err := strconv.Atoi(p); err != nil {
			return false
		}
	}
	return len(parts) > 0
}

// compareVersions returns:
//
//	-1 if v1 < v2
//	 0 if v1 == v2
//	 1 if v1 > v2
//
// Components compare numerically; a non-numeric component compares as text.
func compareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	for i := 0; i < len(parts1) && i < len(parts2); i++ {
		if c := comparePart(parts1[i], parts2[i]); c != 0 {
			return c
		}
	}

	if len(parts1) < len(parts2) {
		return -1
	}
	if len(parts1) > len(parts2) {
		return 1
	}
	return 0
}

func comparePart(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	}
	return 0
}
