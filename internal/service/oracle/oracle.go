package oracle

import (
	"context"

	"github.com/kapu/gift-ai-go/internal/domain"
)

// SelectionOracle picks themed product sections for a profile from a
// candidate set. Every failure is reported as a *errors.SelectionError.
type SelectionOracle interface {
	SelectGifts(ctx context.Context, profile *domain.AnalyzedProfile, prefs domain.UserPreferences, candidates []domain.CatalogProduct) (*domain.GiftRecommendation, error)
	Mode() string
}

// Default summary values used when the model omits the summary.
const (
	defaultMainInterest = "General"
	defaultVisualStyle  = "Generic"
	defaultLifestyle    = "Standard"
)
