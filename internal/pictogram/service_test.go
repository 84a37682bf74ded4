package pictogram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/types"
)

func TestCreateCategoryAndPictogram(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Alimentação"}, types.NewID())
	require.NoError(t, err)
	assert.True(t, cat.IsActive)

	p, err := svc.CreatePictogram(ctx, CreatePictogramRequest{
		Name:       "Água",
		CategoryID: cat.ID,
		ImagePath:  "/img/agua.png",
	}, types.NewID())
	require.NoError(t, err)
	assert.Equal(t, cat.ID, p.CategoryID)
	assert.True(t, p.IsActive)
}

func TestCreatePictogramRejectsInactiveCategory(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Higiene"}, "")
	require.NoError(t, err)

	_, err = svc.SetCategoryActive(ctx, cat.ID, false)
	require.NoError(t, err)

	_, err = svc.CreatePictogram(ctx, CreatePictogramRequest{
		Name:       "Escovar os dentes",
		CategoryID: cat.ID,
	}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "CATEGORY_INACTIVE"))
}

func TestDuplicateNameInCategoryConflicts(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Emoções"}, "")
	require.NoError(t, err)

	_, err = svc.CreatePictogram(ctx, CreatePictogramRequest{Name: "Feliz", CategoryID: cat.ID}, "")
	require.NoError(t, err)

	_, err = svc.CreatePictogram(ctx, CreatePictogramRequest{Name: "feliz", CategoryID: cat.ID}, "")
	require.Error(t, err)
	assert.True(t, apperrors.CodeIs(err, "CONFLICT_ON_INSERT"))

	// Same name in a different category is fine.
	other, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Rotina"}, "")
	require.NoError(t, err)
	_, err = svc.CreatePictogram(ctx, CreatePictogramRequest{Name: "Feliz", CategoryID: other.ID}, "")
	require.NoError(t, err)
}

func TestUpdatePictogram(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Rotina"}, "")
	require.NoError(t, err)
	p, err := svc.CreatePictogram(ctx, CreatePictogramRequest{Name: "Dormir", CategoryID: cat.ID}, "")
	require.NoError(t, err)

	audio := "/audio/dormir.mp3"
	inactive := false
	updated, err := svc.UpdatePictogram(ctx, p.ID, UpdatePictogramRequest{
		AudioPath: &audio,
		IsActive:  &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, audio, updated.AudioPath)
	assert.False(t, updated.IsActive)
}

func TestListPictogramsFilters(t *testing.T) {
	svc := NewService(NewMemoryStore())
	ctx := context.Background()

	cat1, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Alimentação"}, "")
	require.NoError(t, err)
	cat2, err := svc.CreateCategory(ctx, CreateCategoryRequest{Name: "Higiene"}, "")
	require.NoError(t, err)

	_, err = svc.CreatePictogram(ctx, CreatePictogramRequest{Name: "Água", CategoryID: cat1.ID}, "")
	require.NoError(t, err)
	_, err = svc.CreatePictogram(ctx, CreatePictogramRequest{Name: "Suco", CategoryID: cat1.ID}, "")
	require.NoError(t, err)
	_, err = svc.CreatePictogram(ctx, CreatePictogramRequest{Name: "Banho", CategoryID: cat2.ID}, "")
	require.NoError(t, err)

	byCategory, err := svc.ListPictograms(ctx, ListFilter{CategoryID: &cat1.ID})
	require.NoError(t, err)
	assert.Len(t, byCategory, 2)

	bySearch, err := svc.ListPictograms(ctx, ListFilter{Search: "ban"})
	require.NoError(t, err)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Banho", bySearch[0].Name)
}
