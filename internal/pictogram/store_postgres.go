package pictogram

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

// PostgresStore persists the vocabulary in caa.categories and
// caa.pictograms.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a Postgres-backed vocabulary store.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateCategory(ctx context.Context, c *Category) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("category_create", time.Since(start)) }()

	query := `
		INSERT INTO caa.categories (id, name, is_active, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := s.db.Pool.QueryRow(ctx, query, c.ID, c.Name, c.IsActive, c.CreatedBy).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"category name already exists", map[string]string{"name": c.Name})
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCategory(ctx context.Context, id types.ID) (*Category, error) {
	query := `
		SELECT id, name, is_active, created_by, created_at, updated_at
		FROM caa.categories WHERE id = $1`

	var c Category
	err := s.db.Pool.QueryRow(ctx, query, id).
		Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("category", id.String())
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context, activeOnly bool) ([]Category, error) {
	query := `
		SELECT id, name, is_active, created_by, created_at, updated_at
		FROM caa.categories`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.IsActive, &c.CreatedBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, c *Category) error {
	query := `
		UPDATE caa.categories
		SET name = $2, is_active = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.Pool.QueryRow(ctx, query, c.ID, c.Name, c.IsActive).Scan(&c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("category", c.ID.String())
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

const pictogramColumns = `id, name, category_id, image_path, audio_path, description,
		is_active, created_by, created_at, updated_at`

func (s *PostgresStore) CreatePictogram(ctx context.Context, p *Pictogram) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("pictogram_create", time.Since(start)) }()

	query := `
		INSERT INTO caa.pictograms (id, name, category_id, image_path, audio_path, description, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := s.db.Pool.QueryRow(ctx, query,
		p.ID, p.Name, p.CategoryID, p.ImagePath, p.AudioPath, p.Description, p.IsActive, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"pictogram name already exists in this category",
				map[string]string{"name": p.Name})
		}
		return fmt.Errorf("failed to create pictogram: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPictogram(ctx context.Context, id types.ID) (*Pictogram, error) {
	query := `SELECT ` + pictogramColumns + ` FROM caa.pictograms WHERE id = $1`

	p, err := scanPictogram(s.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("pictogram", id.String())
		}
		return nil, fmt.Errorf("failed to get pictogram: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) GetPictograms(ctx context.Context, ids []types.ID) ([]Pictogram, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + pictogramColumns + ` FROM caa.pictograms WHERE id = ANY($1)`

	rows, err := s.db.Pool.Query(ctx, query, idStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to get pictograms: %w", err)
	}
	defer rows.Close()

	return collectPictograms(rows)
}

func (s *PostgresStore) ListPictograms(ctx context.Context, filter ListFilter) ([]Pictogram, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("pictogram_list", time.Since(start)) }()

	where := []string{"TRUE"}
	args := []any{}
	argN := 1

	if filter.CategoryID != nil {
		where = append(where, fmt.Sprintf("category_id = $%d", argN))
		args = append(args, *filter.CategoryID)
		argN++
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", argN))
		args = append(args, *filter.Active)
		argN++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", argN))
		args = append(args, "%"+filter.Search+"%")
		argN++
	}

	query := `SELECT ` + pictogramColumns + ` FROM caa.pictograms WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY name`

	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pictograms: %w", err)
	}
	defer rows.Close()

	return collectPictograms(rows)
}

func (s *PostgresStore) UpdatePictogram(ctx context.Context, p *Pictogram) error {
	query := `
		UPDATE caa.pictograms
		SET name = $2, image_path = $3, audio_path = $4, description = $5, is_active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.Pool.QueryRow(ctx, query,
		p.ID, p.Name, p.ImagePath, p.AudioPath, p.Description, p.IsActive,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("pictogram", p.ID.String())
		}
		if isUniqueViolation(err) {
			return apperrors.ConflictCode("CONFLICT_ON_INSERT",
				"pictogram name already exists in this category",
				map[string]string{"name": p.Name})
		}
		return fmt.Errorf("failed to update pictogram: %w", err)
	}
	return nil
}

func scanPictogram(row pgx.Row) (*Pictogram, error) {
	var p Pictogram
	err := row.Scan(&p.ID, &p.Name, &p.CategoryID, &p.ImagePath, &p.AudioPath,
		&p.Description, &p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPictograms(rows pgx.Rows) ([]Pictogram, error) {
	var out []Pictogram
	for rows.Next() {
		p, err := scanPictogram(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func idStrings(ids []types.ID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
