package anamnesis

import (
	"context"
	"testing"

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
	ctx := context.Background()
	persons := person.NewService(person.NewMemoryStore())

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

func TestCreateAnamnesis(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: &f.caregiver.ID,
		Fields: Fields{
			MainDiagnosis:        "Autism spectrum disorder",
			CommunicationMethods: "pictograms, gestures",
			SpokenWords:          "mãe, água",
		},
	}, types.NewID())

	require.NoError(t, err)
	assert.True(t, a.IsActive)
	assert.Equal(t, "Autism spectrum disorder", a.MainDiagnosis)
	require.NotNil(t, a.CaregiverID)
	assert.Equal(t, f.caregiver.ID, *a.CaregiverID)
}

func TestCreateWithoutCaregiver(t *testing.T) {
	f := newFixture(t)

	a, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID: f.patient.ID,
		Fields:    Fields{GeneralObservations: "self-reported"},
	}, "")
	require.NoError(t, err)
	assert.Nil(t, a.CaregiverID)
}

func TestPairUniquenessIsPermanent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: &f.caregiver.ID,
	}, "")
	require.NoError(t, err)

	// A second record for the same pair is rejected and points at the
	// existing one.
	_, err = f.svc.Create(ctx, CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: &f.caregiver.ID,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "DUPLICATE_INTAKE_RECORD"))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, a.ID.String(), appErr.Details["anamnesis_id"])

	// Soft-deleting does not free the slot.
	_, err = f.svc.Deactivate(ctx, a.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: &f.caregiver.ID,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "DUPLICATE_INTAKE_RECORD"))
}

func TestNilCaregiverOccupiesItsOwnSlot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID}, "")
	require.NoError(t, err)

	// Patient-only and patient+caregiver are different slots.
	_, err = f.svc.Create(ctx, CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: &f.caregiver.ID,
	}, "")
	require.NoError(t, err)

	// But a second patient-only record is rejected.
	_, err = f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "DUPLICATE_INTAKE_RECORD"))
}

func TestCreateRejectsRoleMismatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID: f.caregiver.ID,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "ROLE_MISMATCH"))

	_, err = f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: &f.patient.ID,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "ROLE_MISMATCH"))
}

func TestUpdateReplacesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, CreateRequest{
		PatientID: f.patient.ID,
		Fields:    Fields{Allergies: "peanuts", Medications: "risperidone"},
	}, "")
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, a.ID, Fields{Allergies: "peanuts, lactose"})
	require.NoError(t, err)
	assert.Equal(t, "peanuts, lactose", updated.Allergies)
	assert.Empty(t, updated.Medications, "update replaces the whole clinical payload")
	assert.Equal(t, a.PatientID, updated.PatientID)
}

func TestDeactivateTwice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID}, "")
	require.NoError(t, err)

	out, err := f.svc.Deactivate(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, out.IsActive)

	_, err = f.svc.Deactivate(ctx, a.ID)
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "ALREADY_INACTIVE"))
}

func TestListByPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID}, "")
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, CreateRequest{
		PatientID:   f.patient.ID,
		CaregiverID: &f.caregiver.ID,
	}, "")
	require.NoError(t, err)

	records, err := f.svc.List(ctx, ListFilter{PatientID: &f.patient.ID})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	byCaregiver, err := f.svc.List(ctx, ListFilter{CaregiverID: &f.caregiver.ID})
	require.NoError(t, err)
	assert.Len(t, byCaregiver, 1)
}
