package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/internal/domain/repository"
)

// BannerRepository keeps every banner behind one mutex; appends are short and
// categories are few.
type BannerRepository struct {
	mu      sync.Mutex
	banners map[entity.BannerCategory]*entity.Banner
}

func NewBannerRepository() *BannerRepository {
	return &BannerRepository{banners: make(map[entity.BannerCategory]*entity.Banner)}
}

func (r *BannerRepository) AppendEntry(_ context.Context, category entity.BannerCategory, e *entity.BannerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.banners[category]
	if !ok {
		b = &entity.Banner{ID: uuid.NewString(), Category: category, CreatedAt: time.Now().UTC()}
		r.banners[category] = b
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	b.Entries = append(b.Entries, *e)
	return nil
}

func (r *BannerRepository) ListEntries(_ context.Context, category entity.BannerCategory) ([]entity.BannerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.BannerEntry, 0)
	if b, ok := r.banners[category]; ok {
		out = append(out, b.Entries...)
	}
	return out, nil
}

func (r *BannerRepository) DeleteEntry(_ context.Context, entryID string) (*entity.BannerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.banners {
		for i, e := range b.Entries {
			if e.ID == entryID {
				b.Entries = append(b.Entries[:i:i], b.Entries[i+1:]...)
				return &e, nil
			}
		}
	}
	return nil, errs.NotFound("banner not found")
}

var _ repository.BannerRepository = (*BannerRepository)(nil)
