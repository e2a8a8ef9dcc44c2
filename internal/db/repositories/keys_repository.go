package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"infinite-experiment/roster/internal/constants"
	"infinite-experiment/roster/internal/models/entities"
)

type KeysRepo struct {
	db *sqlx.DB
}

func NewApiKeysRepo(db *sqlx.DB) *KeysRepo {
	return &KeysRepo{db}
}

func (r *KeysRepo) GetStatus(ctx context.Context, key string) (*entities.ApiKey, error) {
	var keyRes entities.ApiKey

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(constants.GetStatusByApiKey), key).StructScan(&keyRes)

	if err != nil {
		return nil, err
	}

	return &keyRes, nil
}

func (r *KeysRepo) Create(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(constants.InsertApiKey), key); err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}

// Revoke reports whether the key existed.
func (r *KeysRepo) Revoke(ctx context.Context, key string) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(constants.RevokeApiKey), key)
	if err != nil {
		return false, fmt.Errorf("failed to revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to revoke api key: %w", err)
	}
	return n > 0, nil
}

// Ping checks the connection for the health endpoint.
func (r *KeysRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
