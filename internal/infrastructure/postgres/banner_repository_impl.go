package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/storyverse-api/internal/domain/entity"
	"github.com/oksasatya/storyverse-api/internal/domain/errs"
	"github.com/oksasatya/storyverse-api/internal/domain/repository"
)

type BannerRepository struct {
	pool *pgxpool.Pool
}

func NewBannerRepository(pool *pgxpool.Pool) *BannerRepository {
	return &BannerRepository{pool: pool}
}

func (r *BannerRepository) AppendEntry(ctx context.Context, category entity.BannerCategory, e *entity.BannerEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return inTx(ctx, r.pool, "append banner", func(tx pgx.Tx) error {
		// get-or-create the singleton; ON CONFLICT keeps concurrent first writers from racing
		if _, err := tx.Exec(ctx, `
			INSERT INTO banners (id, category) VALUES ($1, $2)
			ON CONFLICT (category) DO NOTHING
		`, uuid.NewString(), string(category)); err != nil {
			return err
		}
		var bannerID string
		if err := tx.QueryRow(ctx, `SELECT id FROM banners WHERE category = $1 FOR UPDATE`, string(category)).Scan(&bannerID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO banner_entries (id, banner_id, desktop_ref, mobile_ref, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, e.ID, bannerID, e.DesktopRef, e.MobileRef, e.CreatedAt)
		return err
	})
}

func (r *BannerRepository) ListEntries(ctx context.Context, category entity.BannerCategory) ([]entity.BannerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT e.id, e.desktop_ref, e.mobile_ref, e.created_at
		FROM banner_entries e
		JOIN banners b ON b.id = e.banner_id
		WHERE b.category = $1
		ORDER BY e.seq
	`, string(category))
	if err != nil {
		return nil, wrap("list banners", err)
	}
	defer rows.Close()

	out := make([]entity.BannerEntry, 0)
	for rows.Next() {
		var e entity.BannerEntry
		if err := rows.Scan(&e.ID, &e.DesktopRef, &e.MobileRef, &e.CreatedAt); err != nil {
			return nil, wrap("scan banner", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list banners", err)
	}
	return out, nil
}

func (r *BannerRepository) DeleteEntry(ctx context.Context, entryID string) (*entity.BannerEntry, error) {
	if !validID(entryID) {
		return nil, errs.NotFound("banner not found")
	}
	e := &entity.BannerEntry{}
	err := r.pool.QueryRow(ctx, `
		DELETE FROM banner_entries WHERE id = $1
		RETURNING id, desktop_ref, mobile_ref, created_at
	`, entryID).Scan(&e.ID, &e.DesktopRef, &e.MobileRef, &e.CreatedAt)
	if err != nil {
		return nil, lookupErr("delete banner", "banner", err)
	}
	return e, nil
}

var _ repository.BannerRepository = (*BannerRepository)(nil)
