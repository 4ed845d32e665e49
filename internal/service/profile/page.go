package profile

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/pkg/errors"
	"go.uber.org/zap"
)

// PageFetcher reads the Open Graph tags of the public profile page. It
// yields the avatar, follower count and bio but no posts.
type PageFetcher struct {
	httpClient *http.Client
	baseURL    string
	logger     *zap.Logger
}

var followersPattern = regexp.MustCompile(`(?i)([\d.,]+\s*[KkMm]?)\s+(Followers|seguidores)`)

// StructureChangedError indicates the page no longer carries the expected tags.
type StructureChangedError struct {
	URL     string
	Missing string
}

func (e *StructureChangedError) Error() string {
	return fmt.Sprintf("profile page structure changed at %s: missing %s", e.URL, e.Missing)
}

func NewPageFetcher(baseURL string, logger *zap.Logger) *PageFetcher {
	return &PageFetcher{
		httpClient: &http.Client{Timeout: constants.APIConfig.ScraperTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

func (p *PageFetcher) Name() string {
	return "page"
}

func (p *PageFetcher) Fetch(ctx context.Context, handle string) (*domain.AnalyzedProfile, error) {
	username := domain.NormalizeHandle(handle)
	pageURL := fmt.Sprintf("%s/%s/", p.baseURL, username)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.NewSourceError("failed to create page request", p.Name(), username, err)
	}
	req.Header.Set("User-Agent", constants.APIConfig.UserAgent)
	req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewSourceError("page request failed", p.Name(), username, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewSourceError(fmt.Sprintf("unexpected status code: %d", resp.StatusCode), p.Name(), username, nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.NewSourceError("failed to parse page", p.Name(), username, err)
	}

	profile, err := parseProfilePage(doc, username)
	if err != nil {
		return nil, errors.NewSourceError("unusable profile page", p.Name(), username, &StructureChangedError{URL: pageURL, Missing: err.Error()})
	}

	p.logger.Debug("Profile page parsed",
		zap.String("handle", username),
		zap.Int("followers", profile.Followers),
	)
	return profile, nil
}

func parseProfilePage(doc *goquery.Document, username string) (*domain.AnalyzedProfile, error) {
	meta := func(selector string) string {
		content, _ := doc.Find(selector).First().Attr("content")
		return strings.TrimSpace(content)
	}

	description := meta(`meta[property="og:description"]`)
	if description == "" {
		description = meta(`meta[name="description"]`)
	}
	if description == "" {
		return nil, fmt.Errorf("og:description")
	}

	followers := 0
	if m := followersPattern.FindStringSubmatch(description); len(m) > 1 {
		followers = parseCount(m[1])
	}

	return &domain.AnalyzedProfile{
		Username:      username,
		Biography:     extractBio(description),
		Followers:     followers,
		ProfilePicURL: meta(`meta[property="og:image"]`),
		RecentPosts:   []domain.Post{},
	}, nil
}

// extractBio takes the quoted text after "on Instagram:" when present.
func extractBio(description string) string {
	idx := strings.Index(description, "on Instagram:")
	if idx < 0 {
		return ""
	}
	bio := strings.TrimSpace(description[idx+len("on Instagram:"):])
	return strings.Trim(bio, `"“” `)
}

// parseCount understands "1,234", "12.5K" and "3M".
func parseCount(raw string) int {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1_000
		s = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1_000_000
		s = strings.TrimSuffix(s, "M")
	}

	if multiplier == 1 {
		s = strings.NewReplacer(",", "", ".", "").Replace(s)
	} else {
		s = strings.ReplaceAll(s, ",", ".")
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil || value < 0 {
		return 0
	}
	return int(value * multiplier)
}
