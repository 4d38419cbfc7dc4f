package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/storyverse-api/config"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
)

type seedCharacter struct {
	name, category, image string
}

var characters = []seedCharacter{
	{"Luna", "anime", "/uploads/characters/luna.png"},
	{"Kaito", "anime", "/uploads/characters/kaito.png"},
	{"Mira", "girls", "/uploads/characters/mira.png"},
	{"Sora", "girls", "/uploads/characters/sora.png"},
	{"Arden", "guys", "/uploads/characters/arden.png"},
	{"Rafi", "guys", "/uploads/characters/rafi.png"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	for _, c := range characters {
		res, err := db.Exec(`
			INSERT INTO characters (id, name, image_ref, category)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (category, name) DO NOTHING
		`, uuid.NewString(), c.name, c.image, c.category)
		if err != nil {
			log.Fatalf("failed to seed character %s: %v", c.name, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			fmt.Printf("seeded character: %s (%s)\n", c.name, c.category)
		}
	}

	email := getenv("SEED_ADMIN_EMAIL", "admin@storyverse.local")
	password := getenv("SEED_ADMIN_PASSWORD", "password123")
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	role := cfg.ContentAdminRole
	if role == "" {
		role = "admin"
	}

	var id string
	err = db.QueryRow(`
		INSERT INTO accounts (id, email, password_hash, nickname, role)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
		RETURNING id
	`, uuid.NewString(), email, hash, "admin", role).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s role=%s\n", id, email, role)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
