package link

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/amparo-care/platform/internal/shared/database"
	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/metrics"
	"github.com/amparo-care/platform/internal/shared/types"
)

// PostgresStore persists links in caa.patient_pictograms. The partial
// unique index on active pairs is the final arbiter under concurrent
// linking.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a Postgres-backed link store.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const linkColumns = `id, patient_id, pictogram_id, is_active, created_by,
		created_at, updated_at, inactivated_at, inactivated_by`

const insertLink = `
	INSERT INTO caa.patient_pictograms (id, patient_id, pictogram_id, is_active, created_by)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, l *Link) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("link_create", time.Since(start)) }()

	err := s.db.Pool.QueryRow(ctx, insertLink,
		l.ID, l.PatientID, l.PictogramID, l.IsActive, l.CreatedBy,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return conflictOnInsert(l.PictogramID)
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// CreateBatch inserts the links in a single transaction so a conflict
// on any row rolls back the whole batch.
func (s *PostgresStore) CreateBatch(ctx context.Context, links []*Link) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("link_create_batch", time.Since(start)) }()

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, l := range links {
		err := tx.QueryRow(ctx, insertLink,
			l.ID, l.PatientID, l.PictogramID, l.IsActive, l.CreatedBy,
		).Scan(&l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return conflictOnInsert(l.PictogramID)
			}
			return fmt.Errorf("failed to create link: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetByID(ctx context.Context, id types.ID) (*Link, error) {
	query := `SELECT ` + linkColumns + ` FROM caa.patient_pictograms WHERE id = $1`

	l, err := scanLink(s.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("link", id.String())
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) ListByPatient(ctx context.Context, patientID types.ID, activeOnly bool) ([]Link, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("link_list", time.Since(start)) }()

	query := `SELECT ` + linkColumns + ` FROM caa.patient_pictograms WHERE patient_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Pool.Query(ctx, query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var out []Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, l *Link) error {
	query := `
		UPDATE caa.patient_pictograms
		SET is_active = $2, inactivated_at = $3, inactivated_by = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.Pool.QueryRow(ctx, query,
		l.ID, l.IsActive, l.InactivatedAt, l.InactivatedBy,
	).Scan(&l.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("link", l.ID.String())
		}
		return fmt.Errorf("failed to update link: %w", err)
	}
	return nil
}

func scanLink(row pgx.Row) (*Link, error) {
	var l Link
	err := row.Scan(&l.ID, &l.PatientID, &l.PictogramID, &l.IsActive, &l.CreatedBy,
		&l.CreatedAt, &l.UpdatedAt, &l.InactivatedAt, &l.InactivatedBy)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func conflictOnInsert(pictogramID types.ID) error {
	return apperrors.ConflictCode("CONFLICT_ON_INSERT",
		"an active link for this pictogram already exists",
		map[string]string{"pictogram_id": pictogramID.String()})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
