package entity

import (
	"strings"
	"time"
)

// BannerCategory is the closed set of banner collections.
type BannerCategory string

const (
	BannerGuys  BannerCategory = "Guys"
	BannerGirls BannerCategory = "Girls"
	BannerAnime BannerCategory = "Anime"
)

var bannerCategories = []BannerCategory{BannerGuys, BannerGirls, BannerAnime}

// ParseBannerCategory maps s case-insensitively onto its canonical value.
func ParseBannerCategory(s string) (BannerCategory, bool) {
	s = strings.TrimSpace(s)
	for _, c := range bannerCategories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

type BannerEntry struct {
	ID         string    `json:"id"`
	DesktopRef string    `json:"desktopImage"`
	MobileRef  string    `json:"mobileImage"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Banner is the per-category singleton holding an append-only list of entries.
type Banner struct {
	ID        string
	Category  BannerCategory
	Entries   []BannerEntry
	CreatedAt time.Time
}
