package repository

import (
	"context"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
)

// StoryUpsert receives the current aggregate for a key, or nil when none exists,
// and returns the aggregate to persist. An error aborts without writing.
type StoryUpsert func(current *entity.Story) (*entity.Story, error)

// StoryMutation edits an existing aggregate in place.
type StoryMutation func(s *entity.Story) error

// StoryRepository persists story aggregates. Upsert and UpdateByID run their
// callback inside a per-aggregate critical section.
type StoryRepository interface {
	Upsert(ctx context.Context, key entity.StoryKey, fn StoryUpsert) (*entity.Story, error)
	UpdateByID(ctx context.Context, id string, fn StoryMutation) (*entity.Story, error)
	GetByID(ctx context.Context, id string) (*entity.Story, error)
	// ListLive returns live aggregates of category, most recently updated first.
	ListLive(ctx context.Context, category string) ([]*entity.Story, error)
	// Delete removes the aggregate and its items and returns what was removed.
	Delete(ctx context.Context, id string) (*entity.Story, error)
}
