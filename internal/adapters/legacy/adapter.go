package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/amparo-care/platform/internal/person"
	"github.com/amparo-care/platform/internal/shared/config"
	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/metrics"
	"github.com/amparo-care/platform/internal/shared/types"
)

// Resolver is the part of the person service the importer feeds.
type Resolver interface {
	ResolveOrCreate(ctx context.Context, rawCPF string, attrs person.Attributes, role person.Role, actor types.ID) (*person.Person, person.Outcome, error)
}

// Importer polls a legacy clinic HIS (SQL Server) for patient records
// and resolves them into the person registry. Rows with an invalid CPF
// or conflicting identity data are counted and skipped, never written.
type Importer struct {
	cfg      config.LegacyConfig
	resolver Resolver

	db       *sql.DB
	running  bool
	mu       sync.Mutex
	cancel   context.CancelFunc
	lastPoll time.Time
	wg       sync.WaitGroup
}

// NewImporter creates a legacy HIS importer.
func NewImporter(cfg config.LegacyConfig, resolver Resolver) *Importer {
	return &Importer{cfg: cfg, resolver: resolver}
}

// Start connects to the legacy database and begins polling.
func (i *Importer) Start(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.running {
		return fmt.Errorf("importer already running")
	}

	connStr := fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s",
		i.cfg.Host, i.cfg.Port, i.cfg.Database, i.cfg.User, i.cfg.Password)

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return fmt.Errorf("failed to open legacy database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping legacy database: %w", err)
	}

	i.db = db
	i.running = true
	i.lastPoll = time.Now().Add(-i.pollInterval())

	pollCtx, cancel := context.WithCancel(ctx)
	i.cancel = cancel

	i.wg.Add(1)
	go i.pollLoop(pollCtx)

	return nil
}

// Stop stops polling and closes the connection.
func (i *Importer) Stop() {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.running {
		return
	}
	i.cancel()
	i.wg.Wait()
	i.db.Close()
	i.running = false
}

func (i *Importer) pollInterval() time.Duration {
	if i.cfg.PollIntervalSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(i.cfg.PollIntervalSeconds) * time.Second
}

func (i *Importer) pollLoop(ctx context.Context) {
	defer i.wg.Done()

	ticker := time.NewTicker(i.pollInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := i.poll(ctx); err != nil {
				log.Printf("legacy import poll failed: %v", err)
			}
		}
	}
}

// legacyPatient is a row from the HIS patient table.
type legacyPatient struct {
	CPF       string
	Name      string
	Email     sql.NullString
	Phone     sql.NullString
	Diagnosis sql.NullString
	UpdatedAt time.Time
}

// poll imports patients changed since the last poll.
func (i *Importer) poll(ctx context.Context) error {
	since := i.lastPoll
	i.lastPoll = time.Now()

	query := fmt.Sprintf(`
		SELECT cpf, full_name, email, phone, primary_diagnosis, updated_at
		FROM %s
		WHERE updated_at > @p1
		ORDER BY updated_at`, i.cfg.PersonTable)

	rows, err := i.db.QueryContext(ctx, query, since)
	if err != nil {
		return fmt.Errorf("failed to query legacy patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var lp legacyPatient
		if err := rows.Scan(&lp.CPF, &lp.Name, &lp.Email, &lp.Phone, &lp.Diagnosis, &lp.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan legacy patient: %w", err)
		}
		i.importPatient(ctx, lp)
	}
	return rows.Err()
}

// importPatient resolves one legacy row into the registry.
func (i *Importer) importPatient(ctx context.Context, lp legacyPatient) {
	attrs := person.Attributes{
		Name:  lp.Name,
		Email: lp.Email.String,
		Phone: lp.Phone.String,
		CID:   lp.Diagnosis.String,
	}

	_, outcome, err := i.resolver.ResolveOrCreate(ctx, lp.CPF, attrs, person.RolePatient, "")
	if err != nil {
		switch {
		case apperrors.CodeIs(err, "INVALID_IDENTIFIER"):
			metrics.RecordLegacyImport("invalid")
			log.Printf("legacy import: invalid CPF for %q, skipping", lp.Name)
		case apperrors.CodeIs(err, "INCONSISTENT_IDENTITY"), apperrors.CodeIs(err, "CONFLICT_ON_INSERT"):
			metrics.RecordLegacyImport("conflict")
			log.Printf("legacy import: identity conflict for %q, skipping: %v", lp.Name, err)
		default:
			metrics.RecordLegacyImport("error")
			log.Printf("legacy import failed for %q: %v", lp.Name, err)
		}
		return
	}

	switch outcome {
	case person.OutcomeCreated:
		metrics.RecordLegacyImport("created")
	case person.OutcomeMerged:
		metrics.RecordLegacyImport("merged")
	default:
		metrics.RecordLegacyImport("unchanged")
	}
}
