package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/kapu/gift-ai-go/internal/domain"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

const productColumns = `id, asin, title, description, price_range, price, price_bucket,
		       category, image_url, affiliate_link, interest_tags, is_verified,
		       currency, created_at`

// Repository reads and writes the products table.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepository(db *sql.DB, logger *zap.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the products table and its indexes if missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply catalog schema: %w", err)
	}
	return nil
}

// ListAll returns every product, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]domain.CatalogProduct, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	return r.scanProducts(rows)
}

// List returns one page of products matching filter, newest first.
func (r *Repository) List(ctx context.Context, filter domain.ProductFilter) ([]domain.CatalogProduct, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.Category != "" {
		args = append(args, "%"+escapeLike(filter.Category)+"%")
		conditions = append(conditions, fmt.Sprintf(`category ILIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.PriceBucket != "" {
		args = append(args, filter.PriceBucket)
		conditions = append(conditions, fmt.Sprintf("price_bucket = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf(`title ILIKE $%d ESCAPE '\'`, len(args)))
	}

	var b strings.Builder
	b.WriteString("SELECT " + productColumns + " FROM products")
	if len(conditions) > 0 {
		b.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")

	args = append(args, filter.Limit)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	fmt.Fprintf(&b, " OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return r.scanProducts(rows)
}

// Upsert inserts products keyed by ASIN inside one transaction, updating
// existing rows. It returns the number of rows written.
func (r *Repository) Upsert(ctx context.Context, products []domain.CatalogProduct) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO products (asin, title, description, price_range, price, price_bucket,
		                      category, image_url, affiliate_link, interest_tags, is_verified, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (asin) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			price_range = EXCLUDED.price_range,
			price = EXCLUDED.price,
			price_bucket = EXCLUDED.price_bucket,
			category = EXCLUDED.category,
			image_url = EXCLUDED.image_url,
			affiliate_link = EXCLUDED.affiliate_link,
			interest_tags = EXCLUDED.interest_tags,
			is_verified = EXCLUDED.is_verified
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	written := 0
	for _, p := range products {
		_, err := stmt.ExecContext(ctx,
			p.ASIN, p.Title, nullString(p.Description), p.PriceRange, nullInt(p.PriceCents), nullString(p.PriceBucket),
			p.Category, p.ImageURL, p.AffiliateLink, pq.Array(p.Tags), p.IsVerified, p.Currency,
		)
		if err != nil {
			return written, fmt.Errorf("failed to upsert product %s: %w", p.ASIN, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit upsert: %w", err)
	}
	return written, nil
}

func (r *Repository) scanProducts(rows *sql.Rows) ([]domain.CatalogProduct, error) {
	products := make([]domain.CatalogProduct, 0)
	for rows.Next() {
		var (
			id          int64
			asin        sql.NullString
			title       string
			description sql.NullString
			priceRange  sql.NullString
			price       sql.NullInt64
			priceBucket sql.NullString
			category    string
			imageURL    sql.NullString
			affiliate   string
			tags        pq.StringArray
			isVerified  sql.NullBool
			currency    sql.NullString
			createdAt   sql.NullTime
		)

		if err := rows.Scan(
			&id, &asin, &title, &description, &priceRange, &price, &priceBucket,
			&category, &imageURL, &affiliate, &tags, &isVerified,
			&currency, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}

		p := domain.CatalogProduct{
			ID:            strconv.FormatInt(id, 10),
			ASIN:          asin.String,
			Title:         title,
			Description:   description.String,
			PriceRange:    priceRange.String,
			PriceBucket:   priceBucket.String,
			Category:      category,
			ImageURL:      imageURL.String,
			AffiliateLink: affiliate,
			Tags:          []string(tags),
			IsVerified:    isVerified.Bool,
			Currency:      currency.String,
			CreatedAt:     createdAt.Time,
		}
		if price.Valid {
			cents := price.Int64
			p.PriceCents = &cents
			if p.PriceBucket == "" {
				p.PriceBucket = domain.PriceBucketFor(cents)
			}
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
