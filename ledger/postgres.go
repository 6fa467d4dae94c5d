package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on a pgx pool. Schema lives in
// migrations/postgres.
type PostgresStore struct {
	pg *pgxpool.Pool
}

func NewPostgresStore(pg *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pg: pg}
}

func (s *PostgresStore) Insert(ctx context.Context, e *Entitlement) error {
	_, err := s.pg.Exec(ctx, `
		INSERT INTO entitlements (id, steamid64, sku, txn_id, granted_at, expires_at, revoke_command)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SteamID, e.SKU, e.TxnID, e.GrantedAt, e.ExpiresAt, e.RevokeCommand)
	return err
}

func (s *PostgresStore) Due(ctx context.Context, now time.Time) ([]Entitlement, error) {
	rows, err := s.pg.Query(ctx, `
		SELECT id, steamid64, sku, txn_id, granted_at, expires_at, revoked_at, revoke_command
		FROM entitlements
		WHERE expires_at IS NOT NULL AND revoked_at IS NULL AND expires_at <= $1
		ORDER BY expires_at`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entitlement
	for rows.Next() {
		var e Entitlement
		if err := rows.Scan(&e.ID, &e.SteamID, &e.SKU, &e.TxnID, &e.GrantedAt, &e.ExpiresAt, &e.RevokedAt, &e.RevokeCommand); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkRevoked(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.pg.Exec(ctx, `UPDATE entitlements SET revoked_at=$2 WHERE id=$1 AND revoked_at IS NULL`, id, at)
	return err
}
