package application

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	repo "github.com/oksasatya/storyverse-api/internal/domain/repository"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
)

const (
	storyMediaFolder = "stories"
	storyCoverFolder = "covers"
)

// StoryIndexer mirrors story aggregates into a search index.
type StoryIndexer interface {
	Index(ctx context.Context, s *entity.Story) error
	Remove(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]entity.StorySummary, error)
}

type AddItemParams struct {
	Category      string
	CharacterName string
	Number        int
	Kind          entity.MediaKind
	MediaRef      string
	// CoverRef is required when the aggregate does not exist yet.
	CoverRef string
}

type AddItemUploadParams struct {
	Category      string
	CharacterName string
	Number        int
	Media         Upload
	Cover         *Upload
}

type StoryService struct {
	Repo   repo.StoryRepository
	Media  repo.MediaStore
	Index  StoryIndexer
	Logger *logrus.Logger

	now func() time.Time
}

func NewStoryService(repo repo.StoryRepository, mediaStore repo.MediaStore, index StoryIndexer, logger *logrus.Logger) *StoryService {
	return &StoryService{Repo: repo, Media: mediaStore, Index: index, Logger: logger, now: time.Now}
}

func (s *StoryService) WithClock(now func() time.Time) *StoryService {
	s.now = now
	return s
}

func (s *StoryService) log() logrus.FieldLogger { return loggerOrNop(s.Logger) }

func normalizeKey(category, name string) (entity.StoryKey, error) {
	k := entity.StoryKey{Category: strings.TrimSpace(category), CharacterName: strings.TrimSpace(name)}
	if k.Category == "" || k.CharacterName == "" {
		return k, errs.Validation("all fields required")
	}
	return k, nil
}

func validNumber(n int) error {
	if n < 1 || n > entity.MaxStoryItems {
		return errs.Validation("story number must be between 1 and 4")
	}
	return nil
}

// AddItem appends one item to the aggregate for (category, character), creating
// the aggregate on first use. The checks and the append run as one critical section.
func (s *StoryService) AddItem(ctx context.Context, p AddItemParams) (entity.StoryItem, error) {
	key, err := normalizeKey(p.Category, p.CharacterName)
	if err != nil {
		return entity.StoryItem{}, err
	}
	if err := validNumber(p.Number); err != nil {
		return entity.StoryItem{}, err
	}
	if !p.Kind.Valid() {
		return entity.StoryItem{}, errs.Validation("media type must be image or video")
	}
	if strings.TrimSpace(p.MediaRef) == "" {
		return entity.StoryItem{}, errs.Validation("story media required")
	}

	now := s.now().UTC()
	item := entity.StoryItem{Number: p.Number, Kind: p.Kind, MediaRef: p.MediaRef, CreatedAt: now}

	story, err := s.Repo.Upsert(ctx, key, func(cur *entity.Story) (*entity.Story, error) {
		if cur == nil {
			if p.CoverRef == "" {
				return nil, errs.Validation("profile image required for new character")
			}
			return &entity.Story{
				Category:      key.Category,
				CharacterName: key.CharacterName,
				CoverRef:      p.CoverRef,
				Items:         []entity.StoryItem{item},
				CreatedAt:     now,
				UpdatedAt:     now,
			}, nil
		}
		if p.CoverRef != "" {
			if cur.HasCover() {
				return nil, errs.Conflict("cover already set")
			}
			cur.CoverRef = p.CoverRef
		}
		if cur.IsFull() {
			return nil, errs.Capacity("only 4 stories allowed")
		}
		if cur.HasNumber(p.Number) {
			return nil, errs.Conflict("story number already exists")
		}
		cur.Items = append(cur.Items, item)
		cur.UpdatedAt = now
		return cur, nil
	})
	if err != nil {
		return entity.StoryItem{}, err
	}
	s.reindex(ctx, story)
	return item, nil
}

// AddItemUpload stores the media (and cover, if given) first, then runs AddItem.
// Fresh uploads are removed again when the mutation is rejected.
func (s *StoryService) AddItemUpload(ctx context.Context, p AddItemUploadParams) (entity.StoryItem, error) {
	if _, err := normalizeKey(p.Category, p.CharacterName); err != nil {
		return entity.StoryItem{}, err
	}
	if err := validNumber(p.Number); err != nil {
		return entity.StoryItem{}, err
	}
	if p.Media.Body == nil {
		return entity.StoryItem{}, errs.Validation("story media required")
	}

	kind, mediaRef, err := s.upload(ctx, storyMediaFolder, p.Media)
	if err != nil {
		return entity.StoryItem{}, err
	}
	uploaded := []string{mediaRef}

	coverRef := ""
	if p.Cover != nil && p.Cover.Body != nil {
		coverKind, ref, err := s.upload(ctx, storyCoverFolder, *p.Cover)
		if err != nil {
			deleteBlobs(ctx, s.Media, s.log(), uploaded...)
			return entity.StoryItem{}, err
		}
		uploaded = append(uploaded, ref)
		if coverKind != entity.MediaImage {
			deleteBlobs(ctx, s.Media, s.log(), uploaded...)
			return entity.StoryItem{}, errs.Validation("profile image must be an image")
		}
		coverRef = ref
	}

	item, err := s.AddItem(ctx, AddItemParams{
		Category:      p.Category,
		CharacterName: p.CharacterName,
		Number:        p.Number,
		Kind:          kind,
		MediaRef:      mediaRef,
		CoverRef:      coverRef,
	})
	if err != nil {
		deleteBlobs(ctx, s.Media, s.log(), uploaded...)
		return entity.StoryItem{}, err
	}
	return item, nil
}

func (s *StoryService) upload(ctx context.Context, folder string, u Upload) (entity.MediaKind, string, error) {
	detected, contentType, body, err := helpers.DetectKind(u.ContentType, u.Body)
	if err != nil {
		return "", "", errs.Dependency("read upload", err)
	}
	kind := entity.MediaKind(detected)
	if kind == "" {
		return "", "", errs.Validation("unsupported media type")
	}
	if s.Media == nil {
		return "", "", errs.Dependency("store media", errNoMediaStore)
	}
	ref, err := s.Media.Put(ctx, folder, u.Filename, contentType, body)
	if err != nil {
		s.log().WithError(err).WithField("folder", folder).Error("media upload failed")
		return "", "", errs.Dependency("store media", err)
	}
	return kind, ref, nil
}

// SetCover overwrites the cover unconditionally. The replaced blob is removed best-effort.
func (s *StoryService) SetCover(ctx context.Context, storyID, ref string) error {
	if strings.TrimSpace(ref) == "" {
		return errs.Validation("image required")
	}
	var previous string
	story, err := s.Repo.UpdateByID(ctx, storyID, func(st *entity.Story) error {
		previous = st.CoverRef
		st.CoverRef = ref
		st.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return err
	}
	if previous != ref {
		deleteBlobs(ctx, s.Media, s.log(), previous)
	}
	s.reindex(ctx, story)
	return nil
}

func (s *StoryService) SetCoverUpload(ctx context.Context, storyID string, u Upload) error {
	if u.Body == nil {
		return errs.Validation("image required")
	}
	if _, err := s.Repo.GetByID(ctx, storyID); err != nil {
		return err
	}
	kind, ref, err := s.upload(ctx, storyCoverFolder, u)
	if err != nil {
		return err
	}
	if kind != entity.MediaImage {
		deleteBlobs(ctx, s.Media, s.log(), ref)
		return errs.Validation("profile image must be an image")
	}
	if err := s.SetCover(ctx, storyID, ref); err != nil {
		deleteBlobs(ctx, s.Media, s.log(), ref)
		return err
	}
	return nil
}

// ToggleLive flips the liveness flag and returns the new value.
func (s *StoryService) ToggleLive(ctx context.Context, storyID string) (bool, error) {
	story, err := s.Repo.UpdateByID(ctx, storyID, func(st *entity.Story) error {
		st.IsLive = !st.IsLive
		st.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return false, err
	}
	s.reindex(ctx, story)
	return story.IsLive, nil
}

func (s *StoryService) ListLive(ctx context.Context, category string) ([]*entity.Story, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, errs.Validation("category required")
	}
	return s.Repo.ListLive(ctx, category)
}

func (s *StoryService) Get(ctx context.Context, storyID string) (*entity.Story, error) {
	return s.Repo.GetByID(ctx, storyID)
}

// Delete removes the aggregate, then its cover and item blobs best-effort.
func (s *StoryService) Delete(ctx context.Context, storyID string) error {
	removed, err := s.Repo.Delete(ctx, storyID)
	if err != nil {
		return err
	}
	deleteBlobs(ctx, s.Media, s.log(), removed.MediaRefs()...)
	if s.Index != nil {
		if err := s.Index.Remove(ctx, removed.ID); err != nil {
			s.log().WithError(err).WithField("story_id", removed.ID).Warn("es remove failed")
		}
	}
	s.log().WithField("story_id", removed.ID).Info("story deleted")
	return nil
}

// Search queries the story index. Without an index it returns no hits.
func (s *StoryService) Search(ctx context.Context, q string, size int) ([]entity.StorySummary, error) {
	if strings.TrimSpace(q) == "" {
		return nil, errs.Validation("query required")
	}
	if s.Index == nil {
		return []entity.StorySummary{}, nil
	}
	hits, err := s.Index.Search(ctx, q, size)
	if err != nil {
		return nil, errs.Dependency("search stories", err)
	}
	return hits, nil
}

func (s *StoryService) reindex(ctx context.Context, story *entity.Story) {
	if s.Index == nil || story == nil {
		return
	}
	if err := s.Index.Index(ctx, story); err != nil {
		s.log().WithError(err).WithField("story_id", story.ID).Warn("es index failed")
	}
}
