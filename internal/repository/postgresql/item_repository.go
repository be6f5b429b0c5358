package repository

import (
	"context"

	entity "swap-market/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// ProductRepository is the product lookup used to price offer items.
type ProductRepository interface {
	GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Product, error)
}

type productRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, owner_id, name, price, status, created_at, updated_at`

// GetProducts returns the products found among ids; absent ids are simply
// missing from the map.
func (r *productRepository) GetProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]entity.Product, error) {
	out := make(map[uuid.UUID]entity.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, keys)
	if err != nil {
		return nil, errors.Wrap(err, "build product query")
	}

	var products []entity.Product
	if err := r.db.SelectContext(ctx, &products, r.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}
