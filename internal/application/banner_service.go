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

const bannerFolder = "banners"

type BannerService struct {
	Repo   repo.BannerRepository
	Media  repo.MediaStore
	Logger *logrus.Logger

	now func() time.Time
}

func NewBannerService(repo repo.BannerRepository, mediaStore repo.MediaStore, logger *logrus.Logger) *BannerService {
	return &BannerService{Repo: repo, Media: mediaStore, Logger: logger, now: time.Now}
}

func (s *BannerService) log() logrus.FieldLogger { return loggerOrNop(s.Logger) }

func parseBannerCategory(category string) (entity.BannerCategory, error) {
	c, ok := entity.ParseBannerCategory(category)
	if !ok {
		return "", errs.Validation("category must be one of Guys, Girls, Anime")
	}
	return c, nil
}

// AddEntry appends a desktop/mobile pair to the category banner, creating it on first use.
func (s *BannerService) AddEntry(ctx context.Context, category, desktopRef, mobileRef string) (entity.BannerEntry, error) {
	c, err := parseBannerCategory(category)
	if err != nil {
		return entity.BannerEntry{}, err
	}
	if strings.TrimSpace(desktopRef) == "" || strings.TrimSpace(mobileRef) == "" {
		return entity.BannerEntry{}, errs.Validation("images required")
	}
	e := &entity.BannerEntry{DesktopRef: desktopRef, MobileRef: mobileRef, CreatedAt: s.now().UTC()}
	if err := s.Repo.AppendEntry(ctx, c, e); err != nil {
		return entity.BannerEntry{}, err
	}
	s.log().WithFields(logrus.Fields{"category": c, "entry_id": e.ID}).Info("banner added")
	return *e, nil
}

// AddEntryUpload stores both images, then appends them. Uploads are removed again on failure.
func (s *BannerService) AddEntryUpload(ctx context.Context, category string, desktop, mobile Upload) (entity.BannerEntry, error) {
	if _, err := parseBannerCategory(category); err != nil {
		return entity.BannerEntry{}, err
	}
	if desktop.Body == nil || mobile.Body == nil {
		return entity.BannerEntry{}, errs.Validation("images required")
	}

	var uploaded []string
	for _, u := range []Upload{desktop, mobile} {
		ref, err := s.uploadImage(ctx, u)
		if err != nil {
			deleteBlobs(ctx, s.Media, s.log(), uploaded...)
			return entity.BannerEntry{}, err
		}
		uploaded = append(uploaded, ref)
	}

	e, err := s.AddEntry(ctx, category, uploaded[0], uploaded[1])
	if err != nil {
		deleteBlobs(ctx, s.Media, s.log(), uploaded...)
		return entity.BannerEntry{}, err
	}
	return e, nil
}

func (s *BannerService) uploadImage(ctx context.Context, u Upload) (string, error) {
	kind, contentType, body, err := helpers.DetectKind(u.ContentType, u.Body)
	if err != nil {
		return "", errs.Dependency("read upload", err)
	}
	if entity.MediaKind(kind) != entity.MediaImage {
		return "", errs.Validation("banner images must be images")
	}
	if s.Media == nil {
		return "", errs.Dependency("store media", errNoMediaStore)
	}
	ref, err := s.Media.Put(ctx, bannerFolder, u.Filename, contentType, body)
	if err != nil {
		s.log().WithError(err).Error("banner upload failed")
		return "", errs.Dependency("store media", err)
	}
	return ref, nil
}

// ListByCategory returns entries in insertion order. Unknown or empty categories yield no entries.
func (s *BannerService) ListByCategory(ctx context.Context, category string) ([]entity.BannerEntry, error) {
	c, ok := entity.ParseBannerCategory(category)
	if !ok {
		return []entity.BannerEntry{}, nil
	}
	return s.Repo.ListEntries(ctx, c)
}

// DeleteEntry removes the entry, then both of its blobs best-effort.
func (s *BannerService) DeleteEntry(ctx context.Context, entryID string) error {
	e, err := s.Repo.DeleteEntry(ctx, entryID)
	if err != nil {
		return err
	}
	deleteBlobs(ctx, s.Media, s.log(), e.DesktopRef, e.MobileRef)
	s.log().WithField("entry_id", e.ID).Info("banner deleted")
	return nil
}
