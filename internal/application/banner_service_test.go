package application

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/internal/infrastructure/memory"
)

func newBannerService() (*BannerService, *fakeMedia) {
	media := newFakeMedia()
	return NewBannerService(memory.NewBannerRepository(), media, nil), media
}

func TestBanner_AddAndList(t *testing.T) {
	svc, _ := newBannerService()
	ctx := context.Background()

	first, err := svc.AddEntry(ctx, "Anime", "d1.png", "m1.png")
	require.NoError(t, err)
	second, err := svc.AddEntry(ctx, "anime", "d2.png", "m2.png")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	list, err := svc.ListByCategory(ctx, "ANIME")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, "m2.png", list[1].MobileRef)

	list, err = svc.ListByCategory(ctx, "Guys")
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = svc.ListByCategory(ctx, "pets")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestBanner_AddValidation(t *testing.T) {
	svc, _ := newBannerService()
	ctx := context.Background()

	_, err := svc.AddEntry(ctx, "Pets", "d.png", "m.png")
	assert.True(t, errs.IsKind(err, errs.KindValidation))
	_, err = svc.AddEntry(ctx, "Girls", "d.png", "")
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestBanner_DeleteEntry(t *testing.T) {
	svc, media := newBannerService()
	ctx := context.Background()

	e, err := svc.AddEntry(ctx, "Girls", "d.png", "m.png")
	require.NoError(t, err)
	keep, err := svc.AddEntry(ctx, "Girls", "d2.png", "m2.png")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(ctx, e.ID))
	assert.ElementsMatch(t, []string{"d.png", "m.png"}, media.deleted)

	list, err := svc.ListByCategory(ctx, "Girls")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)

	assert.True(t, errs.IsKind(svc.DeleteEntry(ctx, e.ID), errs.KindNotFound))
}

func TestBanner_DeleteSurvivesBlobFailure(t *testing.T) {
	svc, media := newBannerService()
	ctx := context.Background()
	e, err := svc.AddEntry(ctx, "Guys", "d.png", "m.png")
	require.NoError(t, err)

	media.failDelete = true
	require.NoError(t, svc.DeleteEntry(ctx, e.ID))

	list, err := svc.ListByCategory(ctx, "Guys")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBanner_AddEntryUpload(t *testing.T) {
	svc, media := newBannerService()
	ctx := context.Background()

	e, err := svc.AddEntryUpload(ctx, "Anime", pngUpload("desk.png"), pngUpload("mob.png"))
	require.NoError(t, err)
	assert.True(t, media.Has(e.DesktopRef))
	assert.True(t, media.Has(e.MobileRef))

	text := Upload{Filename: "notes.txt", ContentType: "text/plain", Body: bytes.NewReader(txtBytes)}
	_, err = svc.AddEntryUpload(ctx, "Anime", pngUpload("desk.png"), text)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
	assert.Equal(t, 2, media.Count(), "the desktop image of the rejected pair is removed")

	_, err = svc.AddEntryUpload(ctx, "Pets", pngUpload("desk.png"), pngUpload("mob.png"))
	assert.True(t, errs.IsKind(err, errs.KindValidation))
	assert.Equal(t, 2, media.Count())
}
