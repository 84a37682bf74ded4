package person

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/types"
)

const (
	cpfAna   = "52998224725"
	cpfBruno = "11144477735"
	cpfCarla = "12345678909"
)

func newTestService() *Service {
	return NewService(NewMemoryStore())
}

func registerPatient(t *testing.T, svc *Service, cpf, name, email string) *Person {
	t.Helper()
	p, outcome, err := svc.ResolveOrCreate(context.Background(), cpf, Attributes{
		Name:  name,
		Email: email,
		CID:   "F84.0",
		Colors: "blue",
	}, RolePatient, types.NewID())
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)
	return p
}

func TestResolveOrCreateNewPatient(t *testing.T) {
	svc := newTestService()

	p, outcome, err := svc.ResolveOrCreate(context.Background(), "529.982.247-25", Attributes{
		Name:   "Ana Souza",
		Email:  "ana@example.com",
		Phone:  "+5511999990001",
		CID:    "F84.0",
		Colors: "blue, green",
	}, RolePatient, types.NewID())

	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	assert.Equal(t, types.CPF("52998224725"), p.CPF, "formatted input canonicalizes")
	assert.True(t, p.IsPatient)
	assert.False(t, p.IsCaregiver)
	assert.True(t, p.IsActive)
	assert.Equal(t, "F84.0", p.CID)
	assert.False(t, p.ID.IsZero())
}

func TestResolveOrCreateRejectsInvalidCPF(t *testing.T) {
	svc := newTestService()

	cases := []string{
		"52998224724", // wrong check digit
		"00000000000", // repeated digit
		"5299822472",  // too short
		"",
	}
	for _, cpf := range cases {
		_, _, err := svc.ResolveOrCreate(context.Background(), cpf, Attributes{Name: "Ana"}, RolePatient, "")
		require.Error(t, err, "cpf %q", cpf)
		assert.True(t, apperrors.CodeIs(err, "INVALID_IDENTIFIER"), "cpf %q", cpf)
	}
}

func TestResolveOrCreateMergesCaregiverRole(t *testing.T) {
	svc := newTestService()
	existing := registerPatient(t, svc, cpfAna, "Ana Souza", "ana@example.com")

	merged, outcome, err := svc.ResolveOrCreate(context.Background(), cpfAna, Attributes{
		Name:       "Ana Souza",
		Email:      "ana@example.com",
		Profession: "speech therapist",
	}, RoleCaregiver, types.NewID())

	require.NoError(t, err)
	assert.Equal(t, OutcomeMerged, outcome)
	assert.Equal(t, existing.ID, merged.ID, "no duplicate row for the same CPF")
	assert.True(t, merged.IsPatient, "existing role preserved")
	assert.True(t, merged.IsCaregiver)
	assert.Equal(t, "speech therapist", merged.Profession)
	assert.Equal(t, "F84.0", merged.CID, "patient attributes survive the merge")
	assert.Equal(t, "blue", merged.Colors)
}

func TestResolveOrCreateSameRoleIsUnchanged(t *testing.T) {
	svc := newTestService()
	registerPatient(t, svc, cpfAna, "Ana Souza", "ana@example.com")

	p, outcome, err := svc.ResolveOrCreate(context.Background(), cpfAna, Attributes{
		Name:  "Ana Souza",
		Email: "ana@example.com",
	}, RolePatient, "")

	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)
	assert.NotNil(t, p)
}

func TestResolveOrCreateInconsistentIdentity(t *testing.T) {
	svc := newTestService()
	registerPatient(t, svc, cpfAna, "Ana Souza", "ana@example.com")

	_, _, err := svc.ResolveOrCreate(context.Background(), cpfAna, Attributes{
		Name:  "Outra Pessoa",
		Email: "outra@example.com",
	}, RoleCaregiver, "")

	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "INCONSISTENT_IDENTITY"))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Ana Souza", appErr.Details["name_current"])
	assert.Equal(t, "Outra Pessoa", appErr.Details["name_submitted"])
	assert.Equal(t, "ana@example.com", appErr.Details["email_current"])
}

func TestResolveOrCreateNameComparisonIsLenient(t *testing.T) {
	svc := newTestService()
	registerPatient(t, svc, cpfAna, "Ana Souza", "ana@example.com")

	_, outcome, err := svc.ResolveOrCreate(context.Background(), cpfAna, Attributes{
		Name:  "  ana souza ",
		Email: "ANA@example.com",
	}, RoleCaregiver, "")

	require.NoError(t, err, "case and whitespace differences are not identity conflicts")
	assert.Equal(t, OutcomeMerged, outcome)
}

func TestUpdatePerson(t *testing.T) {
	svc := newTestService()
	p := registerPatient(t, svc, cpfBruno, "Bruno Lima", "bruno@example.com")

	newName := "Bruno de Lima"
	newColors := "red"
	updated, err := svc.Update(context.Background(), p.ID, UpdateRequest{
		Name:   &newName,
		Colors: &newColors,
	})

	require.NoError(t, err)
	assert.Equal(t, "Bruno de Lima", updated.Name)
	assert.Equal(t, "red", updated.Colors)
	assert.Equal(t, p.CPF, updated.CPF, "CPF is immutable")
}

func TestUpdateRejectsEmptyName(t *testing.T) {
	svc := newTestService()
	p := registerPatient(t, svc, cpfBruno, "Bruno Lima", "bruno@example.com")

	empty := ""
	_, err := svc.Update(context.Background(), p.ID, UpdateRequest{Name: &empty})
	require.Error(t, err)
}

func TestDeactivatePerson(t *testing.T) {
	svc := newTestService()
	p := registerPatient(t, svc, cpfCarla, "Carla Dias", "carla@example.com")
	actor := types.NewID()

	out, err := svc.Deactivate(context.Background(), p.ID, actor)
	require.NoError(t, err)
	assert.False(t, out.IsActive)
	require.NotNil(t, out.InactivatedAt)
	assert.Equal(t, actor, out.InactivatedBy)

	_, err = svc.Deactivate(context.Background(), p.ID, actor)
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "ALREADY_INACTIVE"))
}

func TestGetByRole(t *testing.T) {
	svc := newTestService()
	p := registerPatient(t, svc, cpfAna, "Ana Souza", "ana@example.com")

	got, err := svc.GetByRole(context.Background(), p.ID, RolePatient)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.GetByRole(context.Background(), p.ID, RoleCaregiver)
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "NOT_FOUND"), "patient is not listed as caregiver")
}

func TestListFiltersByRole(t *testing.T) {
	svc := newTestService()
	registerPatient(t, svc, cpfAna, "Ana Souza", "ana@example.com")

	_, _, err := svc.ResolveOrCreate(context.Background(), cpfBruno, Attributes{
		Name:       "Bruno Lima",
		Email:      "bruno@example.com",
		Profession: "nurse",
	}, RoleCaregiver, "")
	require.NoError(t, err)

	patientRole := RolePatient
	patients, total, err := svc.List(context.Background(), ListFilter{Role: &patientRole})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, patients, 1)
	assert.Equal(t, "Ana Souza", patients[0].Name)

	caregiverRole := RoleCaregiver
	caregivers, total, err := svc.List(context.Background(), ListFilter{Role: &caregiverRole})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, caregivers, 1)
	assert.Equal(t, "Bruno Lima", caregivers[0].Name)
}

func TestListClampsNegativePagination(t *testing.T) {
	svc := newTestService()
	registerPatient(t, svc, cpfAna, "Ana Souza", "ana@example.com")
	registerPatient(t, svc, cpfBruno, "Bruno Lima", "bruno@example.com")

	persons, total, err := svc.List(context.Background(), ListFilter{Offset: -1, Limit: -5})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, persons, 2)
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	svc := newTestService()
	registerPatient(t, svc, cpfAna, "Ana Souza", "shared@example.com")

	_, _, err := svc.ResolveOrCreate(context.Background(), cpfBruno, Attributes{
		Name:  "Bruno Lima",
		Email: "shared@example.com",
	}, RolePatient, "")

	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "CONFLICT_ON_INSERT"))
}
