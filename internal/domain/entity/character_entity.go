package entity

import "time"

// Character is a read-only catalog entry. Category is one of girls, guys, anime.
type Character struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImageRef  string    `json:"image"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"createdAt"`
}
