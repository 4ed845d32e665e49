package prompt

import (
	"strings"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
)

// CandidateProduct is the reduced product tuple the model sees.
type CandidateProduct struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	PriceRange string   `json:"priceRange"`
	Tags       []string `json:"tags"`
}

type postDigest struct {
	Caption  string   `json:"caption"`
	Hashtags []string `json:"hashtags"`
}

// GiftSelectionVars holds variables for the gift selection template.
type GiftSelectionVars struct {
	Locale             string
	MinSections        int
	MaxSections        int
	ProductsPerSection int
	Username           string
	Biography          string
	Posts              []postDigest
	Relation           string
	Occasion           string
	Budget             string
	ExtraInfo          string
	Candidates         []CandidateProduct
}

// GiftSelectionPrompt is the rendered system and user message pair.
type GiftSelectionPrompt struct {
	System string
	User   string
}

// BuildGiftSelectionPrompt renders the instruction embedding the profile,
// the gifter preferences and the reduced candidate catalog.
func BuildGiftSelectionPrompt(locale string, profile *domain.AnalyzedProfile, prefs domain.UserPreferences, candidates []domain.CatalogProduct) (GiftSelectionPrompt, error) {
	if locale == "" {
		locale = "pt-BR"
	}

	vars := GiftSelectionVars{
		Locale:             locale,
		MinSections:        constants.OracleLimits.MinSections,
		MaxSections:        constants.OracleLimits.MaxSections,
		ProductsPerSection: constants.OracleLimits.ProductsPerSection,
		Username:           profile.Username,
		Biography:          strings.TrimSpace(profile.Biography),
		Posts:              make([]postDigest, 0, len(profile.RecentPosts)),
		Relation:           prefs.RelationOrDefault(),
		Occasion:           prefs.OccasionOrDefault(),
		Budget:             prefs.BudgetOrDefault(),
		ExtraInfo:          strings.TrimSpace(prefs.ExtraInfo),
		Candidates:         ReduceCandidates(candidates),
	}
	for _, post := range profile.RecentPosts {
		hashtags := post.Hashtags
		if hashtags == nil {
			hashtags = []string{}
		}
		vars.Posts = append(vars.Posts, postDigest{Caption: post.Caption, Hashtags: hashtags})
	}

	builder := DefaultPromptBuilder()
	user, err := builder.Render(TemplateGiftSelection, vars)
	if err != nil {
		return GiftSelectionPrompt{}, err
	}
	system, err := builder.Render(TemplateSystem, vars)
	if err != nil {
		return GiftSelectionPrompt{}, err
	}

	return GiftSelectionPrompt{System: strings.TrimSpace(system), User: user}, nil
}

// ReduceCandidates projects products to the tuple embedded in the prompt.
func ReduceCandidates(products []domain.CatalogProduct) []CandidateProduct {
	out := make([]CandidateProduct, 0, len(products))
	for _, p := range products {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		out = append(out, CandidateProduct{
			ID:         p.ID,
			Title:      p.Title,
			Category:   p.Category,
			PriceRange: p.DisplayPrice(),
			Tags:       tags,
		})
	}
	return out
}
