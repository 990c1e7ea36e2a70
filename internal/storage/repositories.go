package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/shopscout-ai/shopscout/internal/catalog"
)

// psql builds queries with $n placeholders, which both lib/pq and
// go-sqlite3 accept.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// StoredProduct is a persisted recommended listing plus any enrichment
// details fetched after the original search.
type StoredProduct struct {
	catalog.RecommendedListing
	Details *catalog.ProductDetails `json:"details,omitempty"`
}

// SearchRepository persists completed search results.
type SearchRepository struct {
	db DB
}

// NewSearchRepository creates a new search repository.
func NewSearchRepository(db DB) *SearchRepository {
	return &SearchRepository{db: db}
}

// Save stores a search result and its products atomically.
func (r *SearchRepository) Save(ctx context.Context, result *catalog.SearchResult) error {
	txer, ok := r.db.(interface {
		BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	})
	if !ok {
		return r.save(ctx, r.db, result)
	}

	tx, err := txer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.save(ctx, tx, result); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SearchRepository) save(ctx context.Context, db DB, result *catalog.SearchResult) error {
	query, args, err := psql.Insert("searches").
		Columns("id", "user_id", "query", "final_recommendation", "total_results", "created_at").
		Values(result.ID, result.UserID, result.Query, result.FinalRecommendation, result.TotalResults, result.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build search insert: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert search: %w", err)
	}

	for _, p := range result.Products {
		pros, err := json.Marshal(p.Pros)
		if err != nil {
			return fmt.Errorf("marshal pros: %w", err)
		}
		cons, err := json.Marshal(p.Cons)
		if err != nil {
			return fmt.Errorf("marshal cons: %w", err)
		}

		query, args, err := psql.Insert("search_products").
			Columns("search_id", "product_id", "title", "price", "extracted_price",
				"rating", "reviews", "brand", "source", "link", "thumbnail",
				"detail_api_link", "pros", "cons", "is_recommended").
			Values(result.ID, p.ProductID, p.Title, p.Price, p.ExtractedPrice,
				p.Rating, p.Reviews, p.Brand, p.Source, p.Link, p.Thumbnail,
				p.DetailAPILink, string(pros), string(cons), p.IsRecommended).
			ToSql()
		if err != nil {
			return fmt.Errorf("build product insert: %w", err)
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert product %s: %w", p.ProductID, err)
		}
	}
	return nil
}

// GetByID fetches a search result with all its products.
func (r *SearchRepository) GetByID(ctx context.Context, id string) (*catalog.SearchResult, error) {
	query, args, err := psql.Select("id", "user_id", "query", "final_recommendation", "total_results", "created_at").
		From("searches").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build search select: %w", err)
	}

	var result catalog.SearchResult
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&result.ID, &result.UserID, &result.Query,
		&result.FinalRecommendation, &result.TotalResults, &result.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query search: %w", err)
	}

	products, err := r.products(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Products = products
	return &result, nil
}

// ListByUser returns a user's past searches, newest first, without products.
func (r *SearchRepository) ListByUser(ctx context.Context, userID string, limit int) ([]catalog.SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query, args, err := psql.Select("id", "user_id", "query", "final_recommendation", "total_results", "created_at").
		From("searches").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	results := []catalog.SearchResult{}
	for rows.Next() {
		var result catalog.SearchResult
		if err := rows.Scan(&result.ID, &result.UserID, &result.Query,
			&result.FinalRecommendation, &result.TotalResults, &result.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (r *SearchRepository) products(ctx context.Context, searchID string) ([]catalog.RecommendedListing, error) {
	query, args, err := psql.Select("product_id", "title", "price", "extracted_price",
		"rating", "reviews", "brand", "source", "link", "thumbnail",
		"detail_api_link", "pros", "cons", "is_recommended").
		From("search_products").
		Where(sq.Eq{"search_id": searchID}).
		OrderBy("is_recommended DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build products select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []catalog.RecommendedListing{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p.RecommendedListing)
	}
	return products, rows.Err()
}

// ProductRepository reads and enriches individual stored products.
type ProductRepository struct {
	db DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Get fetches one product from a past search, including enrichment details
// when they have been stored.
func (r *ProductRepository) Get(ctx context.Context, searchID, productID string) (*StoredProduct, error) {
	query, args, err := psql.Select("product_id", "title", "price", "extracted_price",
		"rating", "reviews", "brand", "source", "link", "thumbnail",
		"detail_api_link", "pros", "cons", "is_recommended", "details").
		From("search_products").
		Where(sq.Eq{"search_id": searchID, "product_id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build product select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}

	var details sql.NullString
	p, err := scanProduct(rows, &details)
	if err != nil {
		return nil, err
	}
	if details.Valid && details.String != "" {
		var d catalog.ProductDetails
		if err := json.Unmarshal([]byte(details.String), &d); err != nil {
			return nil, fmt.Errorf("parse stored details: %w", err)
		}
		p.Details = &d
	}
	return p, nil
}

// SaveDetails stores enrichment details for a product.
func (r *ProductRepository) SaveDetails(ctx context.Context, searchID, productID string, details *catalog.ProductDetails) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query, args, err := psql.Update("search_products").
		Set("details", string(payload)).
		Where(sq.Eq{"search_id": searchID, "product_id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build details update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update details: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanProduct scans the shared product column set, plus any extra trailing
// destinations the caller selected.
func scanProduct(rows *sql.Rows, extra ...interface{}) (*StoredProduct, error) {
	var p StoredProduct
	var pros, cons string

	dest := []interface{}{
		&p.ProductID, &p.Title, &p.Price, &p.ExtractedPrice,
		&p.Rating, &p.Reviews, &p.Brand, &p.Source, &p.Link, &p.Thumbnail,
		&p.DetailAPILink, &pros, &cons, &p.IsRecommended,
	}
	dest = append(dest, extra...)

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	if err := json.Unmarshal([]byte(pros), &p.Pros); err != nil {
		return nil, fmt.Errorf("parse pros: %w", err)
	}
	if err := json.Unmarshal([]byte(cons), &p.Cons); err != nil {
		return nil, fmt.Errorf("parse cons: %w", err)
	}
	return &p, nil
}
