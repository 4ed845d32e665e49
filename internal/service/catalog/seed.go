package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/kapu/gift-ai-go/internal/util"
	"github.com/sourcegraph/conc/pool"
)

const seedCurrency = "BRL"

type upserter interface {
	Upsert(ctx context.Context, products []domain.CatalogProduct) (int, error)
}

// PrepareSeed readies seed products for ingestion: every product gets a
// price bucket and an affiliate link carrying tag, and the list is padded
// with numbered variants up to minSize.
func PrepareSeed(products []domain.CatalogProduct, marketplace, tag string, minSize int) ([]domain.CatalogProduct, error) {
	out := make([]domain.CatalogProduct, 0, util.Max(len(products), minSize))
	for i, p := range products {
		p.ASIN = strings.TrimSpace(p.ASIN)
		p.Title = strings.TrimSpace(p.Title)
		if p.ASIN == "" || p.Title == "" {
			return nil, fmt.Errorf("seed product %d: asin and title are required", i)
		}

		if p.AffiliateLink == "" {
			p.AffiliateLink = domain.BuildAffiliateLink(marketplace, p.ASIN, tag)
		} else {
			link, err := domain.EnsureAffiliateTag(p.AffiliateLink, tag)
			if err != nil {
				return nil, fmt.Errorf("seed product %s: %w", p.ASIN, err)
			}
			p.AffiliateLink = link
		}

		if p.PriceBucket == "" && p.PriceCents != nil {
			p.PriceBucket = domain.PriceBucketFor(*p.PriceCents)
		}
		if p.Currency == "" {
			p.Currency = seedCurrency
		}
		out = append(out, p)
	}

	return expandSeed(out, minSize), nil
}

// expandSeed cycles through the originals appending "_vN" variants, where N
// is also the "(Var. N)" title suffix.
func expandSeed(products []domain.CatalogProduct, minSize int) []domain.CatalogProduct {
	original := len(products)
	if original == 0 {
		return products
	}
	for i := 0; len(products) < minSize; i++ {
		variant := products[i%original]
		round := len(products) / original
		variant.ASIN = fmt.Sprintf("%s_v%d", variant.ASIN, round)
		variant.Title = fmt.Sprintf("%s (Var. %d)", variant.Title, round)
		products = append(products, variant)
	}
	return products
}

// Seed upserts products in chunks on up to workers goroutines and returns
// the number of rows written. The first failing chunk cancels the rest.
func Seed(ctx context.Context, repo upserter, products []domain.CatalogProduct, chunkSize, workers int) (int, error) {
	if chunkSize <= 0 {
		chunkSize = len(products)
	}
	if workers <= 0 {
		workers = 1
	}

	var written atomic.Int64
	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx).WithCancelOnError()
	for start := 0; start < len(products); start += chunkSize {
		chunk := products[start:util.Min(start+chunkSize, len(products))]
		p.Go(func(ctx context.Context) error {
			n, err := repo.Upsert(ctx, chunk)
			written.Add(int64(n))
			return err
		})
	}

	err := p.Wait()
	return int(written.Load()), err
}
