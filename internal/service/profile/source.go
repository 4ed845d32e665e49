package profile

import (
	"context"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/util"
)

// Source acquires the public profile of a handle.
//
// Both implementations degrade to a mock profile instead of failing; the
// error return exists for callers composing their own sources.
type Source interface {
	FetchProfile(ctx context.Context, handle string) (*domain.AnalyzedProfile, error)
	Mode() string
}

// Fetcher is one live provider tried by LiveSource.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, handle string) (*domain.AnalyzedProfile, error)
}

// Summarize builds the profile card: avatar plus the first unique hashtags.
func Summarize(p *domain.AnalyzedProfile) domain.ProfileSummary {
	keywords := util.UniqueStrings(p.Hashtags())
	if len(keywords) > constants.ProfileLimits.SummaryKeywords {
		keywords = keywords[:constants.ProfileLimits.SummaryKeywords]
	}
	return domain.ProfileSummary{
		Username: p.Username,
		Avatar:   p.ProfilePicURL,
		Keywords: keywords,
	}
}
