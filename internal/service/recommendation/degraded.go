package recommendation

import (
	"context"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/service/catalog"
	"github.com/kapu/gift-ai-go/internal/util"
)

var degradedSummary = domain.Summary{
	MainInterest: "Churrasco & Outdoor",
	VisualStyle:  "Casual",
	Lifestyle:    "Social & Fun",
	Reasoning: &domain.Reasoning{
		MainInterestExplanation: "Identificamos interesse em churrasco e atividades ao ar livre através dos produtos selecionados e padrões de preferência.",
		VisualStyleExplanation:  "O estilo casual foi identificado pela escolha de produtos descontraídos e voltados para lazer.",
		LifestyleExplanation:    "O estilo de vida social foi inferido pelo foco em produtos que promovem encontros e confraternizações.",
		KeyEvidence: []string{
			"Preferência por produtos de churrasco",
			"Interesse em atividades ao ar livre",
			"Produtos voltados para socialização",
		},
	},
}

const (
	PrimaryFallbackTitle = "Para quem curte Churrasco e Outdoor"
	PopularFallbackTitle = "Outras opções populares"

	primaryFallbackReason = "Sugerido porque identificamos interesse em confraternizações ao ar livre."
	popularFallbackReason = "Produtos em alta nessa faixa de preço que costumam agradar."
)

// degraded builds the fixed two-section recommendation from a keyword search
// over the fallback interests. It ignores the request deadline so a timed
// out pipeline still gets an answer.
func (s *Service) degraded(ctx context.Context, prefs domain.UserPreferences) (*domain.GiftRecommendation, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CatalogTimeout)
	defer cancel()

	slice := constants.CatalogLimits.FallbackSlices
	suggestions := s.catalog.SearchProducts(ctx, catalog.SearchQuery{
		Interests: s.cfg.FallbackInterests,
		Budget:    prefs.Budget,
		Limit:     slice * 2,
	})
	if len(suggestions) == 0 {
		return nil, ErrNoProducts
	}

	first := suggestions[:util.Min(len(suggestions), slice)]
	var second []domain.GiftSuggestion
	if len(suggestions) > slice {
		second = suggestions[slice:]
	} else {
		second = s.popularBeyond(ctx, first, slice)
	}
	if len(second) == 0 {
		second = first
	}

	return &domain.GiftRecommendation{
		Summary: degradedSummary,
		Sections: []domain.Section{
			{
				CategoryID: "fallback_1",
				Title:      PrimaryFallbackTitle,
				MatchScore: 0.95,
				Reason:     primaryFallbackReason,
				Products:   first,
			},
			{
				CategoryID: "fallback_2",
				Title:      PopularFallbackTitle,
				MatchScore: 0.85,
				Reason:     popularFallbackReason,
				Products:   second,
			},
		},
	}, nil
}

// popularBeyond lists up to n catalog products not already in taken.
func (s *Service) popularBeyond(ctx context.Context, taken []domain.GiftSuggestion, n int) []domain.GiftSuggestion {
	used := make(map[string]bool, len(taken))
	for _, t := range taken {
		used[t.ID] = true
	}

	var out []domain.GiftSuggestion
	for _, p := range s.catalog.GetAllProducts(ctx) {
		if used[p.ID] {
			continue
		}
		out = append(out, p.ToSuggestion(popularFallbackReason))
		if len(out) == n {
			break
		}
	}
	return out
}
