package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/repository"
)

type CharacterRepository struct {
	pool *pgxpool.Pool
}

func NewCharacterRepository(pool *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{pool: pool}
}

func (r *CharacterRepository) ListByCategory(ctx context.Context, category string) ([]entity.Character, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, image_ref, category, created_at
		FROM characters
		WHERE category = $1
		ORDER BY created_at
	`, strings.ToLower(category))
	if err != nil {
		return nil, wrap("list characters", err)
	}
	defer rows.Close()

	out := make([]entity.Character, 0)
	for rows.Next() {
		var ch entity.Character
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.ImageRef, &ch.Category, &ch.CreatedAt); err != nil {
			return nil, wrap("scan character", err)
		}
		out = append(out, ch)
	}
	return out, wrap("list characters", rows.Err())
}

var _ repository.CharacterRepository = (*CharacterRepository)(nil)
