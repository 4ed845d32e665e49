package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/pkg/errors"
	"go.uber.org/zap"
)

type ApifyConfig struct {
	Token        string
	BaseURL      string
	Actor        string
	ResultsLimit int
	Timeout      time.Duration
}

// ApifyClient runs the Instagram profile scraper actor synchronously and
// reads its dataset items in the same call.
type ApifyClient struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	actor        string
	resultsLimit int
	timeout      time.Duration
	logger       *zap.Logger
}

func NewApifyClient(cfg ApifyConfig, logger *zap.Logger) *ApifyClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 40 * time.Second
	}
	return &ApifyClient{
		// the HTTP timeout leaves room for the actor's own bound
		httpClient:   &http.Client{Timeout: timeout + 5*time.Second},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		token:        cfg.Token,
		actor:        cfg.Actor,
		resultsLimit: cfg.ResultsLimit,
		timeout:      timeout,
		logger:       logger,
	}
}

func (c *ApifyClient) Name() string {
	return "apify"
}

type apifyRunInput struct {
	Usernames    []string `json:"usernames"`
	ResultsLimit int      `json:"resultsLimit"`
}

type apifyPost struct {
	DisplayURL string   `json:"displayUrl"`
	ImageURL   string   `json:"imageUrl"`
	Caption    string   `json:"caption"`
	Hashtags   []string `json:"hashtags"`
	Timestamp  string   `json:"timestamp"`
}

type apifyProfile struct {
	Username        string      `json:"username"`
	Biography       string      `json:"biography"`
	FollowersCount  int         `json:"followersCount"`
	ProfilePicURL   string      `json:"profilePicUrl"`
	ProfilePicURLHD string      `json:"profilePicUrlHD"`
	LatestPosts     []apifyPost `json:"latestPosts"`
}

type apifyUser struct {
	Data struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"data"`
}

// Fetch returns the first dataset item mapped to a profile. Posts without an
// image are dropped.
func (c *ApifyClient) Fetch(ctx context.Context, handle string) (*domain.AnalyzedProfile, error) {
	username := domain.NormalizeHandle(handle)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	path := fmt.Sprintf("/v2/acts/%s/run-sync-get-dataset-items?timeout=%d",
		url.PathEscape(strings.ReplaceAll(c.actor, "/", "~")), int(c.timeout.Seconds()))

	var items []apifyProfile
	input := apifyRunInput{Usernames: []string{username}, ResultsLimit: c.resultsLimit}
	if err := c.doRequest(ctx, http.MethodPost, path, input, &items); err != nil {
		return nil, errors.NewSourceError("apify run failed", c.Name(), username, err)
	}

	if len(items) == 0 {
		return nil, errors.NewSourceError("profile not found or private", c.Name(), username, nil)
	}

	c.logger.Debug("Apify profile fetched",
		zap.String("handle", username),
		zap.Int("posts", len(items[0].LatestPosts)),
	)
	return mapApifyProfile(items[0], username), nil
}

// CheckToken resolves the account that owns the configured token.
func (c *ApifyClient) CheckToken(ctx context.Context) (string, error) {
	var user apifyUser
	if err := c.doRequest(ctx, http.MethodGet, "/v2/users/me", nil, &user); err != nil {
		return "", err
	}
	if user.Data.Username == "" {
		return "", fmt.Errorf("token accepted but no user returned")
	}
	return user.Data.Username, nil
}

func mapApifyProfile(raw apifyProfile, requested string) *domain.AnalyzedProfile {
	username := raw.Username
	if username == "" {
		username = requested
	}
	pic := raw.ProfilePicURL
	if pic == "" {
		pic = raw.ProfilePicURLHD
	}

	posts := make([]domain.Post, 0, len(raw.LatestPosts))
	for _, post := range raw.LatestPosts {
		image := post.DisplayURL
		if image == "" {
			image = post.ImageURL
		}
		if image == "" {
			continue
		}
		hashtags := post.Hashtags
		if hashtags == nil {
			hashtags = []string{}
		}
		timestamp := post.Timestamp
		if timestamp == "" {
			timestamp = time.Now().UTC().Format(time.RFC3339)
		}
		posts = append(posts, domain.Post{
			ImageURL:  image,
			Caption:   post.Caption,
			Hashtags:  hashtags,
			Timestamp: timestamp,
		})
	}

	followers := raw.FollowersCount
	if followers < 0 {
		followers = 0
	}

	return &domain.AnalyzedProfile{
		Username:      username,
		Biography:     raw.Biography,
		Followers:     followers,
		ProfilePicURL: pic,
		RecentPosts:   posts,
	}
}

func (c *ApifyClient) doRequest(ctx context.Context, method, path string, reqBody, respBody any) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if reqBody != nil {
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return errors.NewAPIError("failed to marshal request", 400, map[string]any{
				"url": endpoint,
			}).WithCause(err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return errors.NewAPIError("failed to create request", 500, map[string]any{
			"url": endpoint,
		}).WithCause(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAPIError("request failed", 500, map[string]any{
			"url": endpoint,
		}).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.NewAPIError(
			fmt.Sprintf("Apify API error: %s", resp.Status),
			resp.StatusCode,
			map[string]any{
				"path": path,
				"body": string(bodyBytes),
			},
		)
	}

	if respBody != nil {
		body := io.LimitReader(resp.Body, constants.APIConfig.MaxResponseSize)
		if err := json.NewDecoder(body).Decode(respBody); err != nil {
			return errors.NewAPIError("failed to decode response", 500, map[string]any{
				"path": path,
			}).WithCause(err)
		}
	}

	return nil
}
