package anamnesis

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

// PostgresStore persists intake records in caa.anamneses. The unique
// index on the pair has no active-state condition, which makes the
// uniqueness permanent.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a Postgres-backed anamnesis store.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const anamnesisColumns = `id, patient_id, caregiver_id,
		main_diagnosis, associated_conditions, allergies, medications,
		communication_methods, spoken_words, preferred_pictograms,
		dietary_restrictions, food_preferences, feeding_difficulties,
		needs_expression, frustration_reactions, general_observations,
		is_active, created_by, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, a *Anamnesis) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("anamnesis_create", time.Since(start)) }()

	query := `
		INSERT INTO caa.anamneses (id, patient_id, caregiver_id,
			main_diagnosis, associated_conditions, allergies, medications,
			communication_methods, spoken_words, preferred_pictograms,
			dietary_restrictions, food_preferences, feeding_difficulties,
			needs_expression, frustration_reactions, general_observations,
			is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING created_at, updated_at`

	err := s.db.Pool.QueryRow(ctx, query,
		a.ID, a.PatientID, a.CaregiverID,
		a.MainDiagnosis, a.AssociatedConditions, a.Allergies, a.Medications,
		a.CommunicationMethods, a.SpokenWords, a.PreferredPictograms,
		a.DietaryRestrictions, a.FoodPreferences, a.FeedingDifficulties,
		a.NeedsExpression, a.FrustrationReactions, a.GeneralObservations,
		a.IsActive, a.CreatedBy,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"an intake record for this pair already exists",
				map[string]string{"patient_id": a.PatientID.String()})
		}
		return fmt.Errorf("failed to create anamnesis: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id types.ID) (*Anamnesis, error) {
	query := `SELECT ` + anamnesisColumns + ` FROM caa.anamneses WHERE id = $1`

	a, err := scanAnamnesis(s.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("anamnesis", id.String())
		}
		return nil, fmt.Errorf("failed to get anamnesis: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) GetByPair(ctx context.Context, patientID types.ID, caregiverID *types.ID) (*Anamnesis, error) {
	query := `SELECT ` + anamnesisColumns + ` FROM caa.anamneses WHERE patient_id = $1`
	args := []any{patientID}
	if caregiverID == nil {
		query += ` AND caregiver_id IS NULL`
	} else {
		query += ` AND caregiver_id = $2`
		args = append(args, *caregiverID)
	}

	a, err := scanAnamnesis(s.db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("anamnesis", patientID.String())
		}
		return nil, fmt.Errorf("failed to get anamnesis: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Update(ctx context.Context, a *Anamnesis) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("anamnesis_update", time.Since(start)) }()

	query := `
		UPDATE caa.anamneses SET
			main_diagnosis = $2, associated_conditions = $3, allergies = $4, medications = $5,
			communication_methods = $6, spoken_words = $7, preferred_pictograms = $8,
			dietary_restrictions = $9, food_preferences = $10, feeding_difficulties = $11,
			needs_expression = $12, frustration_reactions = $13, general_observations = $14,
			is_active = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.Pool.QueryRow(ctx, query,
		a.ID,
		a.MainDiagnosis, a.AssociatedConditions, a.Allergies, a.Medications,
		a.CommunicationMethods, a.SpokenWords, a.PreferredPictograms,
		a.DietaryRestrictions, a.FoodPreferences, a.FeedingDifficulties,
		a.NeedsExpression, a.FrustrationReactions, a.GeneralObservations,
		a.IsActive,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("anamnesis", a.ID.String())
		}
		return fmt.Errorf("failed to update anamnesis: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Anamnesis, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("anamnesis_list", time.Since(start)) }()

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
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", argN))
		args = append(args, *filter.Active)
		argN++
	}

	query := `SELECT ` + anamnesisColumns + ` FROM caa.anamneses WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC`

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list anamneses: %w", err)
	}
	defer rows.Close()

	var out []Anamnesis
	for rows.Next() {
		a, err := scanAnamnesis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanAnamnesis(row pgx.Row) (*Anamnesis, error) {
	var a Anamnesis
	err := row.Scan(
		&a.ID, &a.PatientID, &a.CaregiverID,
		&a.MainDiagnosis, &a.AssociatedConditions, &a.Allergies, &a.Medications,
		&a.CommunicationMethods, &a.SpokenWords, &a.PreferredPictograms,
		&a.DietaryRestrictions, &a.FoodPreferences, &a.FeedingDifficulties,
		&a.NeedsExpression, &a.FrustrationReactions, &a.GeneralObservations,
		&a.IsActive, &a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
