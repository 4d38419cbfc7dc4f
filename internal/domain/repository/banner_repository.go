package repository

import (
	"context"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
)

// BannerRepository persists the per-category banner aggregates.
type BannerRepository interface {
	// AppendEntry creates the category aggregate if needed and appends e, atomically per category.
	AppendEntry(ctx context.Context, category entity.BannerCategory, e *entity.BannerEntry) error
	// ListEntries returns entries in insertion order; an absent aggregate yields an empty slice.
	ListEntries(ctx context.Context, category entity.BannerCategory) ([]entity.BannerEntry, error)
	// DeleteEntry removes one entry and returns it; errs.NotFound when absent.
	DeleteEntry(ctx context.Context, entryID string) (*entity.BannerEntry, error)
}
