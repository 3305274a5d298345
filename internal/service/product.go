package service

import (
	"context"
	"fmt"
	"strings"

	"repairdesk/internal/db"
	"repairdesk/internal/model"
)

const (
	minSearchTermLen   = 3
	defaultSearchLimit = 10
	maxSearchLimit     = 20
)

type ProductService struct {
	queries *db.Queries
}

func NewProductService(queries *db.Queries) *ProductService {
	return &ProductService{queries: queries}
}

// ProductHit is one search result, shaped for the selection UI.
type ProductHit struct {
	ID    string  `json:"id"`
	Text  string  `json:"text"`
	Price float64 `json:"price"`
}

// Search matches published products by name or SKU. Short terms return no
// hits rather than the whole catalog.
func (s *ProductService) Search(ctx context.Context, term string, limit int) ([]ProductHit, error) {
	term = strings.TrimSpace(term)
	if len(term) < minSearchTermLen {
		return []ProductHit{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	rows, err := s.queries.SearchProducts(ctx, term, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	hits := make([]ProductHit, 0, len(rows))
	for _, row := range rows {
		p := dbProductToModel(row)
		hits = append(hits, ProductHit{
			ID:    p.ID,
			Text:  p.FormattedName(),
			Price: p.Price,
		})
	}
	return hits, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	row, err := s.queries.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := dbProductToModel(row)
	return &p, nil
}
