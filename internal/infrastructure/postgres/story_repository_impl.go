package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/internal/domain/repository"
)

type StoryRepository struct {
	pool *pgxpool.Pool
}

func NewStoryRepository(pool *pgxpool.Pool) *StoryRepository {
	return &StoryRepository{pool: pool}
}

const storyColumns = `id, category, character_name, cover_ref, is_live, created_at, updated_at`

func scanStory(row pgx.Row) (*entity.Story, error) {
	s := &entity.Story{}
	if err := row.Scan(&s.ID, &s.Category, &s.CharacterName, &s.CoverRef, &s.IsLive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func loadItems(ctx context.Context, tx pgx.Tx, s *entity.Story) error {
	rows, err := tx.Query(ctx, `
		SELECT number, kind, media_ref, created_at
		FROM story_items
		WHERE story_id = $1
		ORDER BY position
	`, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	s.Items = s.Items[:0]
	for rows.Next() {
		var it entity.StoryItem
		var kind string
		if err := rows.Scan(&it.Number, &kind, &it.MediaRef, &it.CreatedAt); err != nil {
			return err
		}
		it.Kind = entity.MediaKind(kind)
		s.Items = append(s.Items, it)
	}
	return rows.Err()
}

// lockedStory loads a story row with FOR UPDATE plus its items. It returns (nil, nil) on a miss.
func lockedStory(ctx context.Context, tx pgx.Tx, where string, args ...any) (*entity.Story, error) {
	s, err := scanStory(tx.QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE `+where+` FOR UPDATE`, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := loadItems(ctx, tx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// saveStory writes the aggregate row and replaces its items; the item set is bounded so a rewrite is cheap.
func saveStory(ctx context.Context, tx pgx.Tx, s *entity.Story) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stories (id, category, character_name, cover_ref, is_live, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET cover_ref = EXCLUDED.cover_ref, is_live = EXCLUDED.is_live, updated_at = EXCLUDED.updated_at
	`, s.ID, s.Category, s.CharacterName, s.CoverRef, s.IsLive, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errs.Conflict("story already exists for this character")
		}
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM story_items WHERE story_id = $1`, s.ID); err != nil {
		return err
	}
	for pos, it := range s.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO story_items (story_id, position, number, kind, media_ref, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, s.ID, pos, it.Number, string(it.Kind), it.MediaRef, it.CreatedAt); err != nil {
			if isUniqueViolation(err) {
				return errs.Conflict("story number already exists")
			}
			return err
		}
	}
	return nil
}

// Upsert serializes writers of one (category, character) pair with a transaction-scoped
// advisory lock, which also covers the case where no row exists yet to lock.
func (r *StoryRepository) Upsert(ctx context.Context, key entity.StoryKey, fn repository.StoryUpsert) (*entity.Story, error) {
	var out *entity.Story
	err := inTx(ctx, r.pool, "upsert story", func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`,
			"story|"+key.Category+"|"+key.CharacterName); err != nil {
			return err
		}
		cur, err := lockedStory(ctx, tx, `category = $1 AND character_name = $2`, key.Category, key.CharacterName)
		if err != nil {
			return err
		}
		next, err := fn(cur)
		if err != nil {
			return err
		}
		if next.ID == "" {
			next.ID = uuid.NewString()
		}
		if err := saveStory(ctx, tx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *StoryRepository) UpdateByID(ctx context.Context, id string, fn repository.StoryMutation) (*entity.Story, error) {
	if !validID(id) {
		return nil, errs.NotFound("story not found")
	}
	var out *entity.Story
	err := inTx(ctx, r.pool, "update story", func(tx pgx.Tx) error {
		s, err := lockedStory(ctx, tx, `id = $1`, id)
		if err != nil {
			return err
		}
		if s == nil {
			return errs.NotFound("story not found")
		}
		if err := fn(s); err != nil {
			return err
		}
		if err := saveStory(ctx, tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *StoryRepository) GetByID(ctx context.Context, id string) (*entity.Story, error) {
	if !validID(id) {
		return nil, errs.NotFound("story not found")
	}
	var out *entity.Story
	err := inTx(ctx, r.pool, "get story", func(tx pgx.Tx) error {
		s, err := scanStory(tx.QueryRow(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id))
		if err != nil {
			return lookupErr("get story", "story", err)
		}
		if err := loadItems(ctx, tx, s); err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

func (r *StoryRepository) ListLive(ctx context.Context, category string) ([]*entity.Story, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.category, s.character_name, s.cover_ref, s.is_live, s.created_at, s.updated_at,
		       i.number, i.kind, i.media_ref, i.created_at
		FROM stories s
		LEFT JOIN story_items i ON i.story_id = s.id
		WHERE s.category = $1 AND s.is_live
		ORDER BY s.updated_at DESC, s.id, i.position
	`, category)
	if err != nil {
		return nil, wrap("list live stories", err)
	}
	defer rows.Close()

	out := make([]*entity.Story, 0)
	var cur *entity.Story
	for rows.Next() {
		var (
			s        entity.Story
			number   *int
			kind     *string
			mediaRef *string
			itemAt   *time.Time
		)
		if err := rows.Scan(&s.ID, &s.Category, &s.CharacterName, &s.CoverRef, &s.IsLive, &s.CreatedAt, &s.UpdatedAt,
			&number, &kind, &mediaRef, &itemAt); err != nil {
			return nil, wrap("scan live story", err)
		}
		if cur == nil || cur.ID != s.ID {
			s.Items = []entity.StoryItem{}
			cur = &s
			out = append(out, cur)
		}
		if number != nil {
			cur.Items = append(cur.Items, entity.StoryItem{
				Number:    *number,
				Kind:      entity.MediaKind(*kind),
				MediaRef:  *mediaRef,
				CreatedAt: *itemAt,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list live stories", err)
	}
	return out, nil
}

func (r *StoryRepository) Delete(ctx context.Context, id string) (*entity.Story, error) {
	if !validID(id) {
		return nil, errs.NotFound("story not found")
	}
	var out *entity.Story
	err := inTx(ctx, r.pool, "delete story", func(tx pgx.Tx) error {
		s, err := lockedStory(ctx, tx, `id = $1`, id)
		if err != nil {
			return err
		}
		if s == nil {
			return errs.NotFound("story not found")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id); err != nil {
			return err
		}
		out = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.StoryRepository = (*StoryRepository)(nil)
