package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/amparo-care/platform/internal/shared/database"
	"github.com/amparo-care/platform/internal/shared/metrics"
)

// PostgresStore persists the audit log in caa.audit_entries. Sequence
// numbers come from the BIGSERIAL column, so concurrent appends never
// collide.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a Postgres-backed audit store.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const entryColumns = `sequence, id, timestamp, hash, prev_hash,
		actor_type, actor_id, action, resource_type, resource_id, changes`

func (s *PostgresStore) Append(ctx context.Context, e *Entry) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("audit_append", time.Since(start)) }()

	query := `
		INSERT INTO caa.audit_entries (id, timestamp, hash, prev_hash,
			actor_type, actor_id, action, resource_type, resource_id, changes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING sequence`

	err := s.db.Pool.QueryRow(ctx, query,
		e.ID, e.Timestamp, e.Hash, e.PrevHash,
		e.ActorType, e.ActorID, e.Action, e.ResourceType, e.ResourceID, e.Changes,
	).Scan(&e.Sequence)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) LastHash(ctx context.Context) (string, error) {
	var hash string
	err := s.db.Pool.QueryRow(ctx,
		`SELECT hash FROM caa.audit_entries ORDER BY sequence DESC LIMIT 1`,
	).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read last audit hash: %w", err)
	}
	return hash, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	argN := 1

	if filter.ActorID != nil {
		where = append(where, fmt.Sprintf("actor_id = $%d", argN))
		args = append(args, *filter.ActorID)
		argN++
	}
	if filter.Action != "" {
		where = append(where, fmt.Sprintf("action = $%d", argN))
		args = append(args, filter.Action)
		argN++
	}
	if filter.ResourceType != "" {
		where = append(where, fmt.Sprintf("resource_type = $%d", argN))
		args = append(args, filter.ResourceType)
		argN++
	}
	if filter.ResourceID != nil {
		where = append(where, fmt.Sprintf("resource_id = $%d", argN))
		args = append(args, *filter.ResourceID)
		argN++
	}
	if filter.StartTime != nil {
		where = append(where, fmt.Sprintf("timestamp >= $%d", argN))
		args = append(args, *filter.StartTime)
		argN++
	}
	if filter.EndTime != nil {
		where = append(where, fmt.Sprintf("timestamp <= $%d", argN))
		args = append(args, *filter.EndTime)
		argN++
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM caa.audit_entries WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query := `SELECT ` + entryColumns + ` FROM caa.audit_entries WHERE ` + cond +
		fmt.Sprintf(" ORDER BY sequence DESC LIMIT $%d OFFSET $%d", argN, argN+1)
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Sequence, &e.ID, &e.Timestamp, &e.Hash, &e.PrevHash,
			&e.ActorType, &e.ActorID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Changes); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (s *PostgresStore) VerifyChain(ctx context.Context) (int64, error) {
	rows, err := s.db.Pool.Query(ctx,
		`SELECT `+entryColumns+` FROM caa.audit_entries ORDER BY sequence`)
	if err != nil {
		return 0, fmt.Errorf("failed to read audit chain: %w", err)
	}
	defer rows.Close()

	prevHash := ""
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Sequence, &e.ID, &e.Timestamp, &e.Hash, &e.PrevHash,
			&e.ActorType, &e.ActorID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Changes); err != nil {
			return 0, err
		}
		if e.PrevHash != prevHash || !e.VerifyHash() {
			return e.Sequence, nil
		}
		prevHash = e.Hash
	}
	return 0, rows.Err()
}
