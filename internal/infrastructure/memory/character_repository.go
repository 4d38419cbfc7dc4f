package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/repository"
)

type CharacterRepository struct {
	mu    sync.RWMutex
	items []entity.Character
	calls int
}

// NewCharacterRepository returns a catalog preloaded with chars.
func NewCharacterRepository(chars ...entity.Character) *CharacterRepository {
	return &CharacterRepository{items: append([]entity.Character(nil), chars...)}
}

func (r *CharacterRepository) ListByCategory(_ context.Context, category string) ([]entity.Character, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()

	r.mu.RLock()
	defer r.mu.RUnlock()
	category = strings.ToLower(category)
	out := make([]entity.Character, 0)
	for _, ch := range r.items {
		if ch.Category == category {
			out = append(out, ch)
		}
	}
	return out, nil
}

// Calls reports how many lookups reached the repository.
func (r *CharacterRepository) Calls() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.calls
}

var _ repository.CharacterRepository = (*CharacterRepository)(nil)
