package link

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amparo-care/platform/internal/person"
	"github.com/amparo-care/platform/internal/pictogram"
	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/types"
)

type fixture struct {
	svc        *Service
	vocabulary *pictogram.Service
	patient    *person.Person
	category   *pictogram.Category
	agua       *pictogram.Pictogram
	suco       *pictogram.Pictogram
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

	vocabStore := pictogram.NewMemoryStore()
	vocabulary := pictogram.NewService(vocabStore)

	category, err := vocabulary.CreateCategory(ctx, pictogram.CreateCategoryRequest{Name: "Alimentação"}, "")
	require.NoError(t, err)
	agua, err := vocabulary.CreatePictogram(ctx, pictogram.CreatePictogramRequest{
		Name: "Água", CategoryID: category.ID,
	}, "")
	require.NoError(t, err)
	suco, err := vocabulary.CreatePictogram(ctx, pictogram.CreatePictogramRequest{
		Name: "Suco", CategoryID: category.ID,
	}, "")
	require.NoError(t, err)

	return &fixture{
		svc:        NewService(NewMemoryStore(), vocabStore, persons),
		vocabulary: vocabulary,
		patient:    patient,
		category:   category,
		agua:       agua,
		suco:       suco,
	}
}

func TestCreateLink(t *testing.T) {
	f := newFixture(t)

	l, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   f.patient.ID,
		PictogramID: f.agua.ID,
	}, types.NewID())
	require.NoError(t, err)
	assert.True(t, l.IsActive)
	assert.Equal(t, f.agua.ID, l.PictogramID)
}

func TestCreateLinkRejectsDuplicateActive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID, PictogramID: f.agua.ID}, "")
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID, PictogramID: f.agua.ID}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "DUPLICATE_ACTIVE_LINK"))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details["pictograms"], "Água")
}

func TestCreateLinkRejectsInactiveCategory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.vocabulary.SetCategoryActive(ctx, f.category.ID, false)
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID, PictogramID: f.agua.ID}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "CATEGORY_INACTIVE"))
}

func TestCreateBatch(t *testing.T) {
	f := newFixture(t)

	links, err := f.svc.CreateBatch(context.Background(), BatchRequest{
		PatientID:    f.patient.ID,
		PictogramIDs: []types.ID{f.agua.ID, f.suco.ID},
	}, types.NewID())
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestCreateBatchRejectsEmpty(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBatch(context.Background(), BatchRequest{PatientID: f.patient.ID}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "EMPTY_BATCH"))
}

func TestCreateBatchRejectsDuplicateInBatch(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBatch(context.Background(), BatchRequest{
		PatientID:    f.patient.ID,
		PictogramIDs: []types.ID{f.agua.ID, f.agua.ID},
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "DUPLICATE_IN_BATCH"))
}

func TestCreateBatchRejectsUnknownPictograms(t *testing.T) {
	f := newFixture(t)
	ghost := types.NewID()

	_, err := f.svc.CreateBatch(context.Background(), BatchRequest{
		PatientID:    f.patient.ID,
		PictogramIDs: []types.ID{f.agua.ID, ghost},
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "INVALID_PICTOGRAM_IDS"))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Details["pictogram_ids"], ghost.String())
	assert.False(t, strings.Contains(appErr.Details["pictogram_ids"], f.agua.ID.String()))
}

func TestCreateBatchIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID, PictogramID: f.suco.ID}, "")
	require.NoError(t, err)

	_, err = f.svc.CreateBatch(ctx, BatchRequest{
		PatientID:    f.patient.ID,
		PictogramIDs: []types.ID{f.agua.ID, f.suco.ID},
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "DUPLICATE_ACTIVE_LINK"))

	// The valid half of the batch must not have been linked.
	links, err := f.svc.ListForPatient(ctx, f.patient.ID, true)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, f.suco.ID, links[0].PictogramID)
}

func TestInactivateThenRelink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	l, err := f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID, PictogramID: f.agua.ID}, "")
	require.NoError(t, err)

	ended, err := f.svc.Inactivate(ctx, l.ID, types.NewID())
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	require.NotNil(t, ended.InactivatedAt)

	_, err = f.svc.Inactivate(ctx, l.ID, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "ALREADY_INACTIVE"))

	// The pictogram is linkable again; history stays.
	_, err = f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID, PictogramID: f.agua.ID}, "")
	require.NoError(t, err)

	all, err := f.svc.ListForPatient(ctx, f.patient.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestAvailableForPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	available, err := f.svc.AvailableForPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, available, 2)

	created, err := f.svc.Create(ctx, CreateRequest{PatientID: f.patient.ID, PictogramID: f.agua.ID}, "")
	require.NoError(t, err)

	available, err = f.svc.AvailableForPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, f.suco.ID, available[0].ID)

	// Inactivating the link puts the pictogram back in the pool.
	_, err = f.svc.Inactivate(ctx, created.ID, "")
	require.NoError(t, err)

	available, err = f.svc.AvailableForPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, available, 2)
}

func TestLinkRejectsNonPatient(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), CreateRequest{
		PatientID:   types.NewID(),
		PictogramID: f.agua.ID,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "NOT_FOUND"))
}
