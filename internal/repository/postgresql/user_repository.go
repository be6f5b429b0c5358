package repository

import (
	"context"
	"database/sql"

	entity "swap-market/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type UserRepository interface {
	GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var u entity.User
	query := r.db.Rebind(`SELECT id, username, full_name, created_at FROM users WHERE id = ?`)
	err := r.db.GetContext(ctx, &u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get user %s", id)
	}
	return &u, nil
}
