package legacy

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amparo-care/platform/internal/person"
	"github.com/amparo-care/platform/internal/shared/config"
)

func newImporter() (*Importer, *person.Service) {
	svc := person.NewService(person.NewMemoryStore())
	return NewImporter(config.LegacyConfig{}, svc), svc
}

func TestImportPatientCreates(t *testing.T) {
	imp, svc := newImporter()

	imp.importPatient(context.Background(), legacyPatient{
		CPF:       "529.982.247-25",
		Name:      "Ana Souza",
		Email:     sql.NullString{String: "ana@example.com", Valid: true},
		Diagnosis: sql.NullString{String: "F84.0", Valid: true},
	})

	p, _, err := svc.ResolveOrCreate(context.Background(), "52998224725", person.Attributes{
		Name:  "Ana Souza",
		Email: "ana@example.com",
	}, person.RolePatient, "")
	require.NoError(t, err)
	assert.True(t, p.IsPatient)
	assert.Equal(t, "F84.0", p.CID)
}

func TestImportPatientSkipsInvalidCPF(t *testing.T) {
	imp, svc := newImporter()

	imp.importPatient(context.Background(), legacyPatient{
		CPF:  "00000000000",
		Name: "Ghost",
	})

	role := person.RolePatient
	_, total, err := svc.List(context.Background(), person.ListFilter{Role: &role})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestImportPatientSkipsConflictingIdentity(t *testing.T) {
	imp, svc := newImporter()
	ctx := context.Background()

	_, _, err := svc.ResolveOrCreate(ctx, "52998224725", person.Attributes{
		Name:  "Ana Souza",
		Email: "ana@example.com",
	}, person.RolePatient, "")
	require.NoError(t, err)

	// A legacy row disagreeing on the name must not overwrite.
	imp.importPatient(ctx, legacyPatient{
		CPF:   "52998224725",
		Name:  "Someone Else",
		Email: sql.NullString{String: "else@example.com", Valid: true},
	})

	p, outcome, err := svc.ResolveOrCreate(ctx, "52998224725", person.Attributes{
		Name:  "Ana Souza",
		Email: "ana@example.com",
	}, person.RolePatient, "")
	require.NoError(t, err)
	assert.Equal(t, person.OutcomeUnchanged, outcome)
	assert.Equal(t, "Ana Souza", p.Name)
}
