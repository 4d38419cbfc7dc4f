package entity

import "time"

// MaxStoryItems bounds the number of items a story aggregate may hold.
const MaxStoryItems = 4

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

func (k MediaKind) Valid() bool {
	return k == MediaImage || k == MediaVideo
}

// StoryKey identifies a story aggregate.
type StoryKey struct {
	Category      string
	CharacterName string
}

// StoryItem is one slot of a story. Number is a caller-assigned label in
// [1, MaxStoryItems]; the slice order of Story.Items is the consumption order.
type StoryItem struct {
	Number    int       `json:"number"`
	Kind      MediaKind `json:"type"`
	MediaRef  string    `json:"mediaUrl"`
	CreatedAt time.Time `json:"createdAt"`
}

// Story is the aggregate root for a character's stories within a category.
type Story struct {
	ID            string      `json:"id"`
	Category      string      `json:"category"`
	CharacterName string      `json:"characterName"`
	CoverRef      string      `json:"profileImage,omitempty"`
	IsLive        bool        `json:"isLive"`
	Items         []StoryItem `json:"stories"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

func (s *Story) Key() StoryKey {
	return StoryKey{Category: s.Category, CharacterName: s.CharacterName}
}

func (s *Story) HasCover() bool { return s.CoverRef != "" }

func (s *Story) IsFull() bool { return len(s.Items) >= MaxStoryItems }

// HasNumber reports whether an item already occupies slot n.
func (s *Story) HasNumber(n int) bool {
	for _, it := range s.Items {
		if it.Number == n {
			return true
		}
	}
	return false
}

// MediaRefs returns every blob reference owned by the aggregate, cover first.
func (s *Story) MediaRefs() []string {
	refs := make([]string, 0, len(s.Items)+1)
	if s.CoverRef != "" {
		refs = append(refs, s.CoverRef)
	}
	for _, it := range s.Items {
		refs = append(refs, it.MediaRef)
	}
	return refs
}

// Clone returns a deep copy so repositories never share item slices with callers.
func (s *Story) Clone() *Story {
	cp := *s
	cp.Items = append([]StoryItem(nil), s.Items...)
	return &cp
}

// StorySummary is the searchable projection of a story.
type StorySummary struct {
	ID            string    `json:"id"`
	Category      string    `json:"category"`
	CharacterName string    `json:"characterName"`
	CoverRef      string    `json:"profileImage,omitempty"`
	IsLive        bool      `json:"isLive"`
	ItemCount     int       `json:"itemCount"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (s *Story) Summary() StorySummary {
	return StorySummary{
		ID:            s.ID,
		Category:      s.Category,
		CharacterName: s.CharacterName,
		CoverRef:      s.CoverRef,
		IsLive:        s.IsLive,
		ItemCount:     len(s.Items),
		UpdatedAt:     s.UpdatedAt,
	}
}
