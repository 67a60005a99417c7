package persist

import (
	"context"
	"database/sql"
	"errors"

	"posflow/internal/logger"

	"go.uber.org/zap"
)

// PostgresStore keeps values in the flow_state table created by cmd/migrate.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "FlowState"),
		zap.String("method", "Get"),
		zap.String("key", key),
	)

	const q = `
		SELECT value
		FROM flow_state
		WHERE key = $1
	`

	var value []byte
	err := s.db.QueryRowContext(ctx, q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		log.Error("query failed", zap.Error(err))
		return nil, err
	}
	return value, nil
}

func (s *PostgresStore) Put(ctx context.Context, key string, value []byte) error {
	log := logger.FromCtx(ctx).With(
		zap.String("repo", "FlowState"),
		zap.String("method", "Put"),
		zap.String("key", key),
	)

	const q = `
		INSERT INTO flow_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		log.Error("upsert failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM flow_state WHERE key = $1`

	if _, err := s.db.ExecContext(ctx, q, key); err != nil {
		logger.FromCtx(ctx).Error("delete failed",
			zap.String("repo", "FlowState"),
			zap.String("method", "Delete"),
			zap.String("key", key),
			zap.Error(err),
		)
		return err
	}
	return nil
}
