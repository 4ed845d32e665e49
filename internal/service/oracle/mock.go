package oracle

import (
	"context"
	"time"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/util"
	"github.com/kapu/gift-ai-go/pkg/errors"
)

const mockReason = "Matches mock profile"

type mockSection struct {
	id     string
	title  string
	score  float64
	reason string
}

var mockSections = []mockSection{
	{
		id:     "tech_office",
		title:  "Upgrade do Home Office",
		score:  0.98,
		reason: "O perfil mostra várias fotos de setup e gadgets, indicando interesse em tecnologia e produtividade.",
	},
	{
		id:     "coffee_lover",
		title:  "Para Amantes de Café",
		score:  0.95,
		reason: "Bios e posts mencionam café frequentemente ('Coffee enthusiast'). Itens para preparo manual seriam ideais.",
	},
	{
		id:     "travel_gear",
		title:  "Essenciais de Viagem",
		score:  0.85,
		reason: "Hashtags como #travel e fotos de paisagens sugerem um estilo de vida nômade e aventureiro.",
	},
	{
		id:     "literary_corner",
		title:  "Cantinho da Leitura",
		score:  0.80,
		reason: "Interesse implícito em cultura e aprendizado constante, comum em perfis de tech.",
	},
}

// MockOracle returns a fixed recommendation built from the first candidates.
type MockOracle struct {
	latency time.Duration
}

func NewMockOracle(latency time.Duration) *MockOracle {
	return &MockOracle{latency: latency}
}

func (m *MockOracle) Mode() string {
	return "mock"
}

func (m *MockOracle) SelectGifts(ctx context.Context, _ *domain.AnalyzedProfile, _ domain.UserPreferences, candidates []domain.CatalogProduct) (*domain.GiftRecommendation, error) {
	if len(candidates) == 0 {
		return nil, errors.NewSelectionError("no candidate products", m.Mode(), nil)
	}

	if m.latency > 0 {
		timer := time.NewTimer(m.latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.NewSelectionError("mock selection cancelled", m.Mode(), ctx.Err())
		}
	}

	seed := candidates[:util.Min(len(candidates), constants.OracleLimits.MockSeedProducts)]
	picks := make([]domain.GiftSuggestion, 0, len(seed))
	for _, p := range seed {
		picks = append(picks, p.ToSuggestion(mockReason))
	}

	sections := make([]domain.Section, 0, len(mockSections))
	for _, s := range mockSections {
		sections = append(sections, domain.Section{
			CategoryID: s.id,
			Title:      s.title,
			MatchScore: s.score,
			Reason:     s.reason,
			Products:   replicate(picks, constants.OracleLimits.ProductsPerSection),
		})
	}

	return &domain.GiftRecommendation{
		Summary: domain.Summary{
			MainInterest: "Tech & Coffee",
			VisualStyle:  "Minimalist",
			Lifestyle:    "Digital Nomad",
		},
		Sections: sections,
	}, nil
}

// replicate doubles the picks and cuts the result to n entries.
func replicate(picks []domain.GiftSuggestion, n int) []domain.GiftSuggestion {
	doubled := make([]domain.GiftSuggestion, 0, len(picks)*2)
	doubled = append(doubled, picks...)
	doubled = append(doubled, picks...)
	if len(doubled) > n {
		doubled = doubled[:n]
	}
	return doubled
}
