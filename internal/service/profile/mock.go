package profile

import (
	"context"
	"time"

	"github.com/kapu/gift-ai-go/internal/domain"
)

const (
	mockBiography     = "Coffee enthusiast | Travel addict | Tech geek ☕✈️💻"
	mockFallbackNote  = " (Mock Fallback)"
	mockFollowerCount = 1250
)

// MockSource returns a fixed profile after a simulated delay.
type MockSource struct {
	latency  time.Duration
	fallback bool
	now      func() time.Time
}

func NewMockSource(latency time.Duration) *MockSource {
	return &MockSource{latency: latency, now: time.Now}
}

// newFallbackMock is the mock LiveSource degrades to. Its biography is
// marked so degraded responses are recognizable.
func newFallbackMock(latency time.Duration) *MockSource {
	return &MockSource{latency: latency, fallback: true, now: time.Now}
}

func (m *MockSource) Mode() string {
	return "mock"
}

// FetchProfile never fails. A cancelled context only cuts the simulated delay.
func (m *MockSource) FetchProfile(ctx context.Context, handle string) (*domain.AnalyzedProfile, error) {
	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
		}
	}
	return m.build(domain.NormalizeHandle(handle)), nil
}

func (m *MockSource) build(username string) *domain.AnalyzedProfile {
	now := m.now().UTC()
	bio := mockBiography
	if m.fallback {
		bio += mockFallbackNote
	}

	return &domain.AnalyzedProfile{
		Username:  username,
		Biography: bio,
		Followers: mockFollowerCount,
		RecentPosts: []domain.Post{
			{
				ImageURL:  "https://images.unsplash.com/photo-1497935586351-b67a49e012bf?w=800&q=80",
				Caption:   "Morning brew with the new V60 setup! #coffee #specialtycoffee",
				Hashtags:  []string{"coffee", "specialtycoffee", "v60"},
				Timestamp: now.Format(time.RFC3339),
			},
			{
				ImageURL:  "https://images.unsplash.com/photo-1488646953014-85cb44e25828?w=800&q=80",
				Caption:   "Exploring the mountains this weekend. Nature is healing. #hiking #travel",
				Hashtags:  []string{"hiking", "travel", "nature"},
				Timestamp: now.Add(-48 * time.Hour).Format(time.RFC3339),
			},
			{
				ImageURL:  "https://images.unsplash.com/photo-1517694712202-14dd9538aa97?w=800&q=80",
				Caption:   "Coding late night. New project coming soon! #developer #tech",
				Hashtags:  []string{"developer", "tech", "coding"},
				Timestamp: now.Add(-120 * time.Hour).Format(time.RFC3339),
			},
		},
	}
}
