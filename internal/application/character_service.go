package application

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	repo "github.com/oksasatya/storyverse-api/internal/domain/repository"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
)

const defaultCharacterCacheTTL = 5 * time.Minute

type CharacterService struct {
	Repo     repo.CharacterRepository
	Redis    *redis.Client
	Logger   *logrus.Logger
	CacheTTL time.Duration
}

func NewCharacterService(repo repo.CharacterRepository, rdb *redis.Client, logger *logrus.Logger) *CharacterService {
	return &CharacterService{Repo: repo, Redis: rdb, Logger: logger, CacheTTL: defaultCharacterCacheTTL}
}

func characterCacheKey(category string) string { return "character:list:" + category }

// ListByCategory reads through a short-lived Redis cache. Cache errors fall back to the repository.
func (s *CharacterService) ListByCategory(ctx context.Context, category string) ([]entity.Character, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return nil, errs.Validation("category required")
	}
	log := loggerOrNop(s.Logger)
	key := characterCacheKey(category)

	if s.Redis != nil {
		var cached []entity.Character
		ok, err := helpers.RedisGetJSON(ctx, s.Redis, key, &cached)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("character cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	chars, err := s.Repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, key, chars, s.CacheTTL); err != nil {
			log.WithError(err).WithField("key", key).Warn("character cache write failed")
		}
	}
	return chars, nil
}
