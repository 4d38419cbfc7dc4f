package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/storyverse-api/config"
	"github.com/oksasatya/storyverse-api/internal/container"
	repo "github.com/oksasatya/storyverse-api/internal/domain/repository"
	"github.com/oksasatya/storyverse-api/internal/infrastructure/identity"
	"github.com/oksasatya/storyverse-api/internal/infrastructure/media"
	"github.com/oksasatya/storyverse-api/internal/infrastructure/notifier"
	pginfra "github.com/oksasatya/storyverse-api/internal/infrastructure/postgres"
	"github.com/oksasatya/storyverse-api/internal/infrastructure/search"
	"github.com/oksasatya/storyverse-api/internal/interface/middleware"
	"github.com/oksasatya/storyverse-api/internal/router"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
	"github.com/oksasatya/storyverse-api/pkg/mailer"
	"github.com/oksasatya/storyverse-api/pkg/validation"
)

// Multipart bodies above this size spill to temp files.
const maxMultipartMemory = 32 << 20

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("migration failed: %v", err)
	}

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	store, closeStore, err := newMediaStore(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to init media store: %v", err)
	}
	defer closeStore()

	esClient, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		log.Fatalf("failed to init elasticsearch: %v", err)
	}
	if idx := search.NewStoryIndex(esClient, cfg.ESStoriesIndex); idx != nil {
		container.SetES(esClient)
		container.SetStoryIndex(idx)
	} else {
		logger.Info("elasticsearch not configured, story search disabled")
	}

	var pub mailer.JobPublisher
	if cfg.RabbitMQURL != "" {
		rp, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer rp.Close()
		container.SetRabbitPub(rp)
		pub = rp
	}
	var sender mailer.Sender
	if cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" && cfg.MailgunSender != "" {
		sender = mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	}
	container.SetNotifier(notifier.NewResetCodeNotifier(cfg, pub, sender, logger))

	if cfg.GoogleEnabled() {
		container.SetIdentity(identity.NewGoogleResolver(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL))
	}

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRedis(rdb)
	container.SetJWT(helpers.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL))
	container.SetMediaStore(store)

	r := gin.New()
	r.MaxMultipartMemory = maxMultipartMemory
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if cfg.HTTPLogEnabled {
		r.Use(gin.Logger())
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

// newMediaStore selects the blob backend named by MEDIA_BACKEND.
func newMediaStore(ctx context.Context, cfg *config.Config) (repo.MediaStore, func(), error) {
	switch cfg.MediaBackend {
	case "gcs":
		if cfg.GCSBucket == "" {
			return nil, nil, errors.New("GCS_BUCKET is required for the gcs backend")
		}
		client, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			return nil, nil, err
		}
		container.SetGCS(client)
		return media.NewGCSStore(client, cfg.GCSBucket), func() { _ = client.Close() }, nil
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, nil, errors.New("S3_BUCKET is required for the s3 backend")
		}
		s, err := media.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Profile, cfg.S3PublicBaseURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "local":
		s, err := media.NewLocalStore(cfg.MediaLocalDir, cfg.MediaLocalPrefix)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
