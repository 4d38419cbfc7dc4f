package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/config"
	"github.com/oksasatya/storyverse-api/internal/application"
	repo "github.com/oksasatya/storyverse-api/internal/domain/repository"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
)

// app-level container to share constructed components across packages.
// Router wires modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client
	esClient    *elasticsearch.Client

	jwtManager *helpers.JWTManager
	rabbitPub  *helpers.RabbitPublisher

	mediaStore repo.MediaStore
	notifier   application.ResetCodeNotifier
	identity   application.IdentityResolver
	storyIndex application.StoryIndexer
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager  { return jwtManager }

func SetES(c *elasticsearch.Client) { esClient = c }
func GetES() *elasticsearch.Client  { return esClient }

func SetRabbitPub(p *helpers.RabbitPublisher) { rabbitPub = p }
func GetRabbitPub() *helpers.RabbitPublisher  { return rabbitPub }

func SetMediaStore(m repo.MediaStore) { mediaStore = m }
func GetMediaStore() repo.MediaStore  { return mediaStore }

func SetNotifier(n application.ResetCodeNotifier) { notifier = n }
func GetNotifier() application.ResetCodeNotifier  { return notifier }

// SetIdentity registers the federated sign-in resolver; nil disables the Google routes.
func SetIdentity(r application.IdentityResolver) { identity = r }
func GetIdentity() application.IdentityResolver  { return identity }

func SetStoryIndex(i application.StoryIndexer) { storyIndex = i }
func GetStoryIndex() application.StoryIndexer  { return storyIndex }
