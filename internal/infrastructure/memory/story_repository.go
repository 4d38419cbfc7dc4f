package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/internal/domain/repository"
)

type StoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*entity.Story
	byKey map[entity.StoryKey]string
	locks *keyLock
}

func NewStoryRepository() *StoryRepository {
	return &StoryRepository{
		byID:  make(map[string]*entity.Story),
		byKey: make(map[entity.StoryKey]string),
		locks: newKeyLock(),
	}
}

func lockKey(k entity.StoryKey) string { return k.Category + "|" + k.CharacterName }

func (r *StoryRepository) Upsert(_ context.Context, key entity.StoryKey, fn repository.StoryUpsert) (*entity.Story, error) {
	unlock := r.locks.Lock(lockKey(key))
	defer unlock()

	var cur *entity.Story
	r.mu.RLock()
	if id, ok := r.byKey[key]; ok {
		cur = r.byID[id].Clone()
	}
	r.mu.RUnlock()

	next, err := fn(cur)
	if err != nil {
		return nil, err
	}
	if next.ID == "" {
		next.ID = uuid.NewString()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[next.ID] = next.Clone()
	r.byKey[next.Key()] = next.ID
	return next, nil
}

// UpdateByID locks on the aggregate key so it serializes with Upsert for the same story.
func (r *StoryRepository) UpdateByID(_ context.Context, id string, fn repository.StoryMutation) (*entity.Story, error) {
	r.mu.RLock()
	s, ok := r.byID[id]
	var key entity.StoryKey
	if ok {
		key = s.Key()
	}
	r.mu.RUnlock()
	if !ok {
		return nil, errs.NotFound("story not found")
	}

	unlock := r.locks.Lock(lockKey(key))
	defer unlock()

	r.mu.RLock()
	s, ok = r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.NotFound("story not found")
	}
	next := s.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.ID, next.Category, next.CharacterName = s.ID, s.Category, s.CharacterName

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = next.Clone()
	return next, nil
}

func (r *StoryRepository) GetByID(_ context.Context, id string) (*entity.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, errs.NotFound("story not found")
	}
	return s.Clone(), nil
}

func (r *StoryRepository) ListLive(_ context.Context, category string) ([]*entity.Story, error) {
	r.mu.RLock()
	out := make([]*entity.Story, 0)
	for _, s := range r.byID {
		if s.Category == category && s.IsLive {
			out = append(out, s.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *StoryRepository) Delete(_ context.Context, id string) (*entity.Story, error) {
	r.mu.RLock()
	s, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.NotFound("story not found")
	}
	unlock := r.locks.Lock(lockKey(s.Key()))
	defer unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok = r.byID[id]
	if !ok {
		return nil, errs.NotFound("story not found")
	}
	delete(r.byID, id)
	delete(r.byKey, s.Key())
	return s.Clone(), nil
}

var _ repository.StoryRepository = (*StoryRepository)(nil)
