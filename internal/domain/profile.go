package domain

import "strings"

// Post is one recent public post of the analyzed profile.
type Post struct {
	ImageURL  string   `json:"imageUrl"`
	Caption   string   `json:"caption"`
	Hashtags  []string `json:"hashtags"`
	Timestamp string   `json:"timestamp"`
}

// AnalyzedProfile is the public footprint of the gift recipient.
type AnalyzedProfile struct {
	Username      string `json:"username"`
	Biography     string `json:"biography"`
	Followers     int    `json:"followers"`
	ProfilePicURL string `json:"profilePicUrl,omitempty"`
	RecentPosts   []Post `json:"recentPosts"`
}

// MinimalProfile is used when no profile could be acquired at all.
func MinimalProfile(username string) *AnalyzedProfile {
	return &AnalyzedProfile{
		Username:    NormalizeHandle(username),
		RecentPosts: []Post{},
	}
}

// Hashtags returns every hashtag of the recent posts in post order.
func (p *AnalyzedProfile) Hashtags() []string {
	var tags []string
	for _, post := range p.RecentPosts {
		tags = append(tags, post.Hashtags...)
	}
	return tags
}

// ProfileSummary is the short card shown after a profile was analyzed.
type ProfileSummary struct {
	Username string   `json:"username"`
	Avatar   string   `json:"avatar"`
	Keywords []string `json:"keywords"`
}

// NormalizeHandle strips whitespace and the leading '@'.
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// DisplayHandle returns the handle with its leading '@'.
func DisplayHandle(handle string) string {
	return "@" + NormalizeHandle(handle)
}
