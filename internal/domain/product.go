package domain

import (
	"strings"
	"time"

	"github.com/kapu/gift-ai-go/internal/util"
)

const priceUnknown = "Ver preço"

// CatalogProduct is a sellable marketplace item. PriceCents is in minor
// currency units.
type CatalogProduct struct {
	ID            string    `json:"id"`
	ASIN          string    `json:"asin,omitempty"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	PriceRange    string    `json:"priceRange,omitempty"`
	PriceCents    *int64    `json:"price,omitempty"`
	PriceBucket   string    `json:"priceBucket,omitempty"`
	Category      string    `json:"category"`
	ImageURL      string    `json:"imageUrl,omitempty"`
	AffiliateLink string    `json:"affiliateLink"`
	Tags          []string  `json:"interestTags"`
	IsVerified    bool      `json:"isVerified"`
	Currency      string    `json:"currency,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DisplayPrice returns the label shown on product cards.
func (p CatalogProduct) DisplayPrice() string {
	switch {
	case p.PriceRange != "":
		return p.PriceRange
	case p.PriceBucket != "":
		return p.PriceBucket
	default:
		return priceUnknown
	}
}

// ToSuggestion projects the product for display with a section reason.
func (p CatalogProduct) ToSuggestion(reason string) GiftSuggestion {
	description := p.Description
	if description == "" {
		description = p.Title
	}
	return GiftSuggestion{
		ID:            p.ID,
		Title:         p.Title,
		Description:   description,
		Reason:        reason,
		PriceRange:    p.DisplayPrice(),
		PriceBucket:   p.PriceBucket,
		PriceCents:    p.PriceCents,
		ImageURL:      p.ImageURL,
		AffiliateLink: p.AffiliateLink,
		Category:      p.Category,
	}
}

// MatchesAnyInterest applies the keyword policy: tags first, then
// title, category and description. Matching is a case-insensitive substring test.
func (p CatalogProduct) MatchesAnyInterest(interests []string) bool {
	trimmed := make([]string, 0, len(interests))
	for _, interest := range interests {
		if interest = strings.TrimSpace(interest); interest != "" {
			trimmed = append(trimmed, interest)
		}
	}
	if len(trimmed) == 0 {
		return false
	}

	for _, tag := range p.Tags {
		for _, interest := range trimmed {
			if util.ContainsFold(tag, interest) {
				return true
			}
		}
	}

	for _, interest := range trimmed {
		if util.ContainsFold(p.Title, interest) || util.ContainsFold(p.Category, interest) ||
			(p.Description != "" && util.ContainsFold(p.Description, interest)) {
			return true
		}
	}
	return false
}

// ProductFilter narrows a catalog listing. Zero values mean "no filter".
type ProductFilter struct {
	Category    string `form:"category" validate:"max=100"`
	PriceBucket string `form:"price_bucket" validate:"omitempty,oneof=<=30 <=50 <=100 100-200 200+ 500+"`
	Search      string `form:"q" validate:"max=200"`
	Limit       int    `form:"limit" validate:"gte=0,lte=200"`
	Offset      int    `form:"offset" validate:"gte=0"`
}

// WithDefaults fills the page size when it was not given.
func (f ProductFilter) WithDefaults(defaultLimit int) ProductFilter {
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}
	return f
}

// Matches applies the filter to a single in-memory product.
func (f ProductFilter) Matches(p CatalogProduct) bool {
	if f.Category != "" && !util.ContainsFold(p.Category, f.Category) {
		return false
	}
	if f.PriceBucket != "" && p.PriceBucket != f.PriceBucket {
		return false
	}
	if f.Search != "" && !util.ContainsFold(p.Title, f.Search) {
		return false
	}
	return true
}
