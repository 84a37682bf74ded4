package relationship

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amparo-care/platform/internal/person"
	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/types"
)

type fixture struct {
	svc       *Service
	patient   *person.Person
	caregiver *person.Person
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	persons := person.NewService(person.NewMemoryStore())
	ctx := context.Background()

	patient, _, err := persons.ResolveOrCreate(ctx, "52998224725", person.Attributes{
		Name:  "Ana Souza",
		Email: "ana@example.com",
	}, person.RolePatient, "")
	require.NoError(t, err)

	caregiver, _, err := persons.ResolveOrCreate(ctx, "11144477735", person.Attributes{
		Name:       "Bruno Lima",
		Email:      "bruno@example.com",
		Profession: "nurse",
	}, person.RoleCaregiver, "")
	require.NoError(t, err)

	return &fixture{
		svc:       NewService(NewMemoryStore(), persons),
		patient:   patient,
		caregiver: caregiver,
	}
}

func (f *fixture) create(t *testing.T, relType Type) *Relationship {
	t.Helper()
	rel, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: f.caregiver.ID,
		Type:        relType,
	}, types.NewID())
	require.NoError(t, err)
	return rel
}

func TestCreateRelationship(t *testing.T) {
	f := newFixture(t)

	rel := f.create(t, TypeFamily)
	assert.True(t, rel.IsActive)
	assert.Nil(t, rel.InactivatedAt)
	assert.Equal(t, TypeFamily, rel.Type)
	assert.False(t, rel.StartDate.IsZero())
}

func TestCreateRejectsInvalidType(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: f.caregiver.ID,
		Type:        "NEIGHBOR",
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "VALIDATION_ERROR"))
}

func TestCreateRejectsSelfRelationship(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: f.patient.ID,
		Type:        TypeFamily,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "SELF_RELATIONSHIP"))
}

func TestCreateRejectsRoleMismatch(t *testing.T) {
	f := newFixture(t)

	// Swapped: the caregiver in the patient seat and vice versa.
	_, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.caregiver.ID,
		CaregiverID: f.patient.ID,
		Type:        TypeProfessional,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "ROLE_MISMATCH"))
}

func TestCreateRejectsDuplicateActivePair(t *testing.T) {
	f := newFixture(t)
	existing := f.create(t, TypeFamily)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: f.caregiver.ID,
		Type:        TypeProfessional,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "DUPLICATE_ACTIVE_RELATIONSHIP"))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, string(TypeFamily), appErr.Details["relationship_type"])
	assert.Equal(t, existing.StartDate.Format(time.DateOnly), appErr.Details["start_date"])
}

func TestInactivateThenRecreate(t *testing.T) {
	f := newFixture(t)
	actor := types.NewID()

	rel := f.create(t, TypeFamily)

	ended, err := f.svc.Inactivate(context.Background(), rel.ID, actor)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	require.NotNil(t, ended.InactivatedAt)
	assert.Equal(t, actor, ended.InactivatedBy)

	// Ending is one-way.
	_, err = f.svc.Inactivate(context.Background(), rel.ID, actor)
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "ALREADY_INACTIVE"))

	// The pair can form a new bond; history stays.
	fresh := f.create(t, TypeProfessional)
	assert.NotEqual(t, rel.ID, fresh.ID)

	all, total, err := f.svc.List(context.Background(), ListFilter{PatientID: &f.patient.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, all, 2)
}

func TestInactivateUnknownRelationship(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Inactivate(context.Background(), types.NewID(), "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "NOT_FOUND"))
}

func TestListOrdersByStartDateDesc(t *testing.T) {
	f := newFixture(t)

	old, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: f.caregiver.ID,
		Type:        TypeFamily,
		StartDate:   "2023-01-15",
	}, "")
	require.NoError(t, err)

	_, err = f.svc.Inactivate(context.Background(), old.ID, "")
	require.NoError(t, err)

	recent, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: f.caregiver.ID,
		Type:        TypeProfessional,
		StartDate:   "2025-06-01",
	}, "")
	require.NoError(t, err)

	rels, _, err := f.svc.List(context.Background(), ListFilter{PatientID: &f.patient.ID})
	require.NoError(t, err)
	require.Len(t, rels, 2)
	assert.Equal(t, recent.ID, rels[0].ID, "newest start date first")
	assert.Equal(t, old.ID, rels[1].ID)
}

func TestCaregiversOfReturnsOnlyActive(t *testing.T) {
	f := newFixture(t)
	rel := f.create(t, TypeFamily)

	active, err := f.svc.CaregiversOf(context.Background(), f.patient.ID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, rel.ID, active[0].ID)

	_, err = f.svc.Inactivate(context.Background(), rel.ID, "")
	require.NoError(t, err)

	active, err = f.svc.CaregiversOf(context.Background(), f.patient.ID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestListClampsNegativeOffset(t *testing.T) {
	f := newFixture(t)
	f.create(t, TypeFamily)

	rels, total, err := f.svc.List(context.Background(), ListFilter{Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, rels, 1)
}

func TestUpdateNotesRejectsInactive(t *testing.T) {
	f := newFixture(t)
	rel := f.create(t, TypeFamily)

	updated, err := f.svc.UpdateNotes(context.Background(), rel.ID, "weekly visits")
	require.NoError(t, err)
	assert.Equal(t, "weekly visits", updated.Notes)

	_, err = f.svc.Inactivate(context.Background(), rel.ID, types.NewID())
	require.NoError(t, err)

	_, err = f.svc.UpdateNotes(context.Background(), rel.ID, "stale")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "ALREADY_INACTIVE"))
}
