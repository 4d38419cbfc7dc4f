package repository

import (
	"context"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
)

type CharacterRepository interface {
	ListByCategory(ctx context.Context, category string) ([]entity.Character, error)
}
