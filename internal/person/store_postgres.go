package person

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

// PostgresStore persists persons in caa.persons. The unique constraints
// on cpf, email and phone are the final arbiter under concurrent
// registration; violations surface as CONFLICT_ON_INSERT.
type PostgresStore struct {
	db *database.DB
}

// NewPostgresStore creates a Postgres-backed person store.
func NewPostgresStore(db *database.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const personColumns = `id, cpf, name, email, phone, cid, profession,
		postal_code, state, city, district, street, number, complement,
		is_patient, is_caregiver, colors, sounds, smells, hobbies,
		is_active, created_by, created_at, updated_at, inactivated_at, inactivated_by`

func (s *PostgresStore) Create(ctx context.Context, p *Person) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("person_create", time.Since(start)) }()

	query := `
		INSERT INTO caa.persons (
			id, cpf, name, email, phone, cid, profession,
			postal_code, state, city, district, street, number, complement,
			is_patient, is_caregiver, colors, sounds, smells, hobbies,
			is_active, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING created_at, updated_at`

	err := s.db.Pool.QueryRow(ctx, query,
		p.ID, p.CPF.String(), p.Name, nullable(p.Email), nullable(p.Phone), p.CID, p.Profession,
		p.Address.PostalCode, p.Address.State, p.Address.City, p.Address.District,
		p.Address.Street, p.Address.Number, p.Address.Complement,
		p.IsPatient, p.IsCaregiver, p.Colors, p.Sounds, p.Smells, p.Hobbies,
		p.IsActive, p.CreatedBy,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if field, ok := uniqueViolation(err); ok {
			return conflictOnInsert(field)
		}
		return fmt.Errorf("failed to create person: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id types.ID) (*Person, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("person_get", time.Since(start)) }()

	query := `SELECT ` + personColumns + ` FROM caa.persons WHERE id = $1`
	return s.scanOne(s.db.Pool.QueryRow(ctx, query, id), id.String())
}

func (s *PostgresStore) GetByCPF(ctx context.Context, cpf types.CPF) (*Person, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("person_get_by_cpf", time.Since(start)) }()

	query := `SELECT ` + personColumns + ` FROM caa.persons WHERE cpf = $1`
	return s.scanOne(s.db.Pool.QueryRow(ctx, query, cpf.String()), cpf.Masked())
}

func (s *PostgresStore) Update(ctx context.Context, p *Person) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("person_update", time.Since(start)) }()

	query := `
		UPDATE caa.persons SET
			name = $2, email = $3, phone = $4, cid = $5, profession = $6,
			postal_code = $7, state = $8, city = $9, district = $10,
			street = $11, number = $12, complement = $13,
			is_patient = $14, is_caregiver = $15,
			colors = $16, sounds = $17, smells = $18, hobbies = $19,
			is_active = $20, inactivated_at = $21, inactivated_by = $22,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := s.db.Pool.QueryRow(ctx, query,
		p.ID, p.Name, nullable(p.Email), nullable(p.Phone), p.CID, p.Profession,
		p.Address.PostalCode, p.Address.State, p.Address.City, p.Address.District,
		p.Address.Street, p.Address.Number, p.Address.Complement,
		p.IsPatient, p.IsCaregiver, p.Colors, p.Sounds, p.Smells, p.Hobbies,
		p.IsActive, p.InactivatedAt, p.InactivatedBy,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("person", p.ID.String())
		}
		if field, ok := uniqueViolation(err); ok {
			return conflictOnInsert(field)
		}
		return fmt.Errorf("failed to update person: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]Person, int, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("person_list", time.Since(start)) }()

	where := []string{"TRUE"}
	args := []any{}
	argN := 1

	if filter.Role != nil {
		switch *filter.Role {
		case RolePatient:
			where = append(where, "is_patient")
		case RoleCaregiver:
			where = append(where, "is_caregiver")
		}
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("is_active = $%d", argN))
		args = append(args, *filter.Active)
		argN++
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR cpf LIKE $%d)", argN, argN+1))
		args = append(args, "%"+filter.Search+"%", filter.Search+"%")
		argN += 2
	}

	cond := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM caa.persons WHERE ` + cond
	if err := s.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count persons: %w", err)
	}

	query := `SELECT ` + personColumns + ` FROM caa.persons WHERE ` + cond +
		fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", argN, argN+1)
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
		return nil, 0, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	var persons []Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, 0, err
		}
		persons = append(persons, *p)
	}
	return persons, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row pgx.Row, ref string) (*Person, error) {
	p, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("person", ref)
		}
		return nil, err
	}
	return p, nil
}

func scanPerson(row rowScanner) (*Person, error) {
	var p Person
	var cpf string
	var email, phone *string

	err := row.Scan(
		&p.ID, &cpf, &p.Name, &email, &phone, &p.CID, &p.Profession,
		&p.Address.PostalCode, &p.Address.State, &p.Address.City, &p.Address.District,
		&p.Address.Street, &p.Address.Number, &p.Address.Complement,
		&p.IsPatient, &p.IsCaregiver, &p.Colors, &p.Sounds, &p.Smells, &p.Hobbies,
		&p.IsActive, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt, &p.InactivatedAt, &p.InactivatedBy,
	)
	if err != nil {
		return nil, err
	}

	p.CPF = types.CPF(cpf)
	if email != nil {
		p.Email = *email
	}
	if phone != nil {
		p.Phone = *phone
	}
	return &p, nil
}

// nullable maps empty strings to NULL so the unique constraints on
// email and phone ignore absent values.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// uniqueViolation reports whether err is a unique constraint violation
// and names the offending field.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return "", false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "cpf"):
		return "cpf", true
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	case strings.Contains(pgErr.ConstraintName, "phone"):
		return "phone", true
	}
	return pgErr.ConstraintName, true
}
