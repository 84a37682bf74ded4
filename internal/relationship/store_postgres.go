package relationship

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/amparo-care/platform/internal/shared/database"
	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/metrics"
	"github.com/amparo-care/platform/internal/shared/types"
)

// PostgresStore persists relationships in caa.relationships. The
// partial unique index on active pairs is the final arbiter under
// concurrent creation.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a Postgres-backed relationship store.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const relationshipColumns = `id, patient_id, caregiver_id, relationship_type, start_date, notes,
		is_active, created_by, created_at, updated_at, inactivated_at, inactivated_by`

func (s *PostgresStore) Create(ctx context.Context, rel *Relationship) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("relationship_create", time.Since(start)) }()

	query := `
		INSERT INTO caa.relationships (id, patient_id, caregiver_id, relationship_type, start_date, notes, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := s.db.Pool.QueryRow(ctx, query,
		rel.ID, rel.PatientID, rel.CaregiverID, rel.Type, rel.StartDate, rel.Notes, rel.IsActive, rel.CreatedBy,
	).Scan(&rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"an active relationship for this pair already exists",
				map[string]string{
					"patient_id":   rel.PatientID.String(),
					"caregiver_id": rel.CaregiverID.String(),
				})
		}
		return fmt.Errorf("failed to create relationship: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id types.ID) (*Relationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM caa.relationships WHERE id = $1`

	rel, err := scanRelationship(s.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("relationship", id.String())
		}
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

func (s *PostgresStore) GetActiveByPair(ctx context.Context, patientID, caregiverID types.ID) (*Relationship, error) {
	query := `SELECT ` + relationshipColumns + `
		FROM caa.relationships
		WHERE patient_id = $1 AND caregiver_id = $2 AND is_active AND inactivated_at IS NULL`

	rel, err := scanRelationship(s.db.Pool.QueryRow(ctx, query, patientID, caregiverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("relationship", patientID.String()+"/"+caregiverID.String())
		}
		return nil, fmt.Errorf("failed to get relationship: %w", err)
	}
	return rel, nil
}

func (s *PostgresStore) Update(ctx context.Context, rel *Relationship) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("relationship_update", time.Since(start)) }()

	query := `
		UPDATE caa.relationships
		SET relationship_type = $2, notes = $3, is_active = $4,
			inactivated_at = $5, inactivated_by = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.Pool.QueryRow(ctx, query,
		rel.ID, rel.Type, rel.Notes, rel.IsActive, rel.InactivatedAt, rel.InactivatedBy,
	).Scan(&rel.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("relationship", rel.ID.String())
		}
		return fmt.Errorf("failed to update relationship: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Relationship, int, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("relationship_list", time.Since(start)) }()

	where := []string{"TRUE"}
	args := []any{}
	argN := 1

	if filter.PatientID != nil {
		where = append(where, fmt.Sprintf("patient_id = $%d", argN))
		args = append(args, *filter.PatientID)
		argN++
	}
	if filter.CaregiverID != nil {
		where = append(where, fmt.Sprintf("caregiver_id = $%d", argN))
		args = append(args, *filter.CaregiverID)
		argN++
	}
	if filter.Type != nil {
		where = append(where, fmt.Sprintf("relationship_type = $%d", argN))
		args = append(args, *filter.Type)
		argN++
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", argN))
		args = append(args, *filter.Active)
		argN++
	}

	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM caa.relationships WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count relationships: %w", err)
	}

	query := `SELECT ` + relationshipColumns + ` FROM caa.relationships WHERE ` + cond +
		fmt.Sprintf(" ORDER BY start_date DESC, created_at DESC LIMIT $%d OFFSET $%d", argN, argN+1)
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var out []Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *rel)
	}
	return out, total, rows.Err()
}

func scanRelationship(row pgx.Row) (*Relationship, error) {
	var rel Relationship
	err := row.Scan(
		&rel.ID, &rel.PatientID, &rel.CaregiverID, &rel.Type, &rel.StartDate, &rel.Notes,
		&rel.IsActive, &rel.CreatedBy, &rel.CreatedAt, &rel.UpdatedAt,
		&rel.InactivatedAt, &rel.InactivatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &rel, nil
}
