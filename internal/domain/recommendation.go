package domain

// GiftSuggestion is a display projection of a CatalogProduct.
type GiftSuggestion struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Reason        string `json:"reason"`
	PriceRange    string `json:"priceRange"`
	PriceBucket   string `json:"priceBucket,omitempty"`
	PriceCents    *int64 `json:"price,omitempty"`
	ImageURL      string `json:"imageUrl,omitempty"`
	AffiliateLink string `json:"affiliateLink"`
	Category      string `json:"category"`
}

type Reasoning struct {
	MainInterestExplanation string   `json:"main_interest_explanation"`
	VisualStyleExplanation  string   `json:"visual_style_explanation"`
	LifestyleExplanation    string   `json:"lifestyle_explanation"`
	KeyEvidence             []string `json:"key_evidence"`
}

type Summary struct {
	MainInterest string     `json:"main_interest"`
	VisualStyle  string     `json:"visual_style"`
	Lifestyle    string     `json:"lifestyle"`
	Reasoning    *Reasoning `json:"reasoning,omitempty"`
}

type Section struct {
	CategoryID string           `json:"category_id"`
	Title      string           `json:"title"`
	MatchScore float64          `json:"match_score"`
	Reason     string           `json:"reason"`
	Products   []GiftSuggestion `json:"products"`
}

type GiftRecommendation struct {
	Summary  Summary   `json:"summary"`
	Sections []Section `json:"sections"`
}

// IsComplete reports whether there is at least one section and every section
// holds at least one product.
func (r *GiftRecommendation) IsComplete() bool {
	if r == nil || len(r.Sections) == 0 {
		return false
	}
	for _, section := range r.Sections {
		if len(section.Products) == 0 {
			return false
		}
	}
	return true
}

// ProductIDs lists every suggestion id across sections, in order.
func (r *GiftRecommendation) ProductIDs() []string {
	var ids []string
	for _, section := range r.Sections {
		for _, product := range section.Products {
			ids = append(ids, product.ID)
		}
	}
	return ids
}
