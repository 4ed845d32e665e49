package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/kapu/gift-ai-go/internal/constants"
	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/metrics"
	"github.com/kapu/gift-ai-go/internal/prompt"
	"github.com/kapu/gift-ai-go/internal/service/ai"
	"github.com/kapu/gift-ai-go/internal/util"
	"github.com/kapu/gift-ai-go/pkg/errors"
	"go.uber.org/zap"
)

// jsonGenerator is satisfied by *ai.ModelManager.
type jsonGenerator interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, preset ai.ModelPreset, dest any, opts *ai.GenerateOptions) (*ai.GenerateMetadata, error)
}

type LiveConfig struct {
	Locale string
	// MinResolvedRatio rejects the answer when fewer than this share of the
	// returned ids resolve against the candidates. Zero accepts any answer
	// with at least one resolved product.
	MinResolvedRatio float64
}

// LiveOracle asks the model for product ids and resolves them against the
// candidate set.
type LiveOracle struct {
	generator jsonGenerator
	cfg       LiveConfig
	logger    *zap.Logger
}

func NewLiveOracle(generator jsonGenerator, cfg LiveConfig, logger *zap.Logger) *LiveOracle {
	return &LiveOracle{generator: generator, cfg: cfg, logger: logger}
}

func (o *LiveOracle) Mode() string {
	return "live(" + o.generator.Name() + ")"
}

// productID accepts ids as JSON strings or numbers.
type productID string

func (id *productID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = productID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		*id = productID(strconv.FormatInt(i, 10))
		return nil
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		*id = productID(strconv.FormatInt(int64(f), 10))
		return nil
	}
	*id = productID(n.String())
	return nil
}

type rawSection struct {
	CategoryID string      `json:"category_id"`
	Title      string      `json:"title"`
	MatchScore float64     `json:"match_score"`
	Reason     string      `json:"reason"`
	ProductIDs []productID `json:"product_ids"`
}

type rawRecommendation struct {
	Summary  *domain.Summary `json:"summary"`
	Sections []rawSection    `json:"sections"`
}

func (o *LiveOracle) SelectGifts(ctx context.Context, profile *domain.AnalyzedProfile, prefs domain.UserPreferences, candidates []domain.CatalogProduct) (*domain.GiftRecommendation, error) {
	provider := o.generator.Name()
	start := time.Now()

	rec, err := o.selectGifts(ctx, profile, prefs, candidates)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.OracleDuration.WithLabelValues(provider, status).Observe(time.Since(start).Seconds())

	if err != nil {
		o.logger.Warn("Gift selection failed",
			zap.String("provider", provider),
			zap.String("handle", profile.Username),
			zap.Error(err),
		)
	}
	return rec, err
}

func (o *LiveOracle) selectGifts(ctx context.Context, profile *domain.AnalyzedProfile, prefs domain.UserPreferences, candidates []domain.CatalogProduct) (*domain.GiftRecommendation, error) {
	provider := o.generator.Name()
	if len(candidates) == 0 {
		return nil, errors.NewSelectionError("no candidate products", provider, nil)
	}

	msg, err := prompt.BuildGiftSelectionPrompt(o.cfg.Locale, profile, prefs, candidates)
	if err != nil {
		return nil, errors.NewSelectionError("failed to build prompt", provider, err)
	}

	var raw rawRecommendation
	meta, err := o.generator.GenerateJSON(ctx, msg.User, ai.PresetBalanced, &raw, &ai.GenerateOptions{System: msg.System})
	if err != nil {
		return nil, errors.NewSelectionError("model call failed", provider, err)
	}

	rec, requested, resolved := resolve(raw, candidates)
	if unresolved := requested - resolved; unresolved > 0 {
		metrics.UnresolvedProductIDs.Add(float64(unresolved))
		o.logger.Info("Dropped unknown product ids",
			zap.String("provider", meta.Provider),
			zap.Int("requested", requested),
			zap.Int("unresolved", unresolved),
		)
	}

	if len(rec.Sections) == 0 {
		return nil, errors.NewSelectionError("no section with resolvable products", meta.Provider, nil)
	}
	if requested > 0 && float64(resolved)/float64(requested) < o.cfg.MinResolvedRatio {
		return nil, errors.NewSelectionError(
			fmt.Sprintf("only %d of %d product ids resolved", resolved, requested), meta.Provider, nil)
	}

	o.logger.Debug("Gift selection resolved",
		zap.String("provider", meta.Provider),
		zap.String("model", meta.Model),
		zap.Bool("used_fallback", meta.UsedFallback),
		zap.Int("sections", len(rec.Sections)),
		zap.Strings("product_ids", rec.ProductIDs()),
	)
	return rec, nil
}

// resolve maps product ids onto candidates. Unknown ids and sections left
// without products are dropped; at most MaxSections survive.
func resolve(raw rawRecommendation, candidates []domain.CatalogProduct) (*domain.GiftRecommendation, int, int) {
	byID := make(map[string]domain.CatalogProduct, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}

	rec := &domain.GiftRecommendation{Summary: summaryOrDefault(raw.Summary)}
	usedSlugs := make(map[string]bool)
	requested, resolved := 0, 0

	for _, section := range raw.Sections {
		seen := make(map[string]bool, len(section.ProductIDs))
		products := make([]domain.GiftSuggestion, 0, len(section.ProductIDs))
		for _, id := range section.ProductIDs {
			requested++
			key := string(id)
			product, ok := byID[key]
			if !ok {
				continue
			}
			resolved++
			if seen[key] {
				continue
			}
			seen[key] = true
			products = append(products, product.ToSuggestion(section.Reason))
		}

		if len(products) == 0 || len(rec.Sections) >= constants.OracleLimits.MaxSections {
			continue
		}

		rec.Sections = append(rec.Sections, domain.Section{
			CategoryID: uniqueSlug(section.CategoryID, section.Title, usedSlugs),
			Title:      strings.TrimSpace(section.Title),
			MatchScore: util.Clamp01(section.MatchScore),
			Reason:     section.Reason,
			Products:   products,
		})
	}

	return rec, requested, resolved
}

func summaryOrDefault(s *domain.Summary) domain.Summary {
	if s == nil {
		s = &domain.Summary{}
	}
	out := *s
	if strings.TrimSpace(out.MainInterest) == "" {
		out.MainInterest = defaultMainInterest
	}
	if strings.TrimSpace(out.VisualStyle) == "" {
		out.VisualStyle = defaultVisualStyle
	}
	if strings.TrimSpace(out.Lifestyle) == "" {
		out.Lifestyle = defaultLifestyle
	}
	return out
}

// uniqueSlug keeps category ids unique within one recommendation, including
// against literal ids that look like generated suffixes.
func uniqueSlug(categoryID, title string, used map[string]bool) string {
	slug := util.Slugify(categoryID)
	if slug == "" {
		slug = util.Slugify(title)
	}
	if slug == "" {
		slug = "section"
	}

	candidate := slug
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", slug, n)
	}
	used[candidate] = true
	return candidate
}
