package router

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/storyverse-api/config"
	"github.com/oksasatya/storyverse-api/internal/application"
	"github.com/oksasatya/storyverse-api/internal/container"
	repo "github.com/oksasatya/storyverse-api/internal/domain/repository"
	pginfra "github.com/oksasatya/storyverse-api/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/storyverse-api/internal/interface/http"
	"github.com/oksasatya/storyverse-api/internal/interface/middleware"
	"github.com/oksasatya/storyverse-api/internal/router/modules"
	"github.com/oksasatya/storyverse-api/pkg/helpers"
)

type Repositories struct {
	Accounts   repo.AccountRepository
	Stories    repo.StoryRepository
	Banners    repo.BannerRepository
	Characters repo.CharacterRepository
}

func PostgresRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Accounts:   pginfra.NewAccountRepository(pool),
		Stories:    pginfra.NewStoryRepository(pool),
		Banners:    pginfra.NewBannerRepository(pool),
		Characters: pginfra.NewCharacterRepository(pool),
	}
}

// Deps are the collaborators the modules are built from. Media, Notifier,
// Identity and Index may be nil.
type Deps struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Redis    *redis.Client
	JWT      *helpers.JWTManager
	Repos    Repositories
	Media    repo.MediaStore
	Notifier application.ResetCodeNotifier
	Identity application.IdentityResolver
	Index    application.StoryIndexer
}

func depsFromContainer() Deps {
	return Deps{
		Config:   container.GetConfig(),
		Logger:   container.GetLogger(),
		Redis:    container.GetRedis(),
		JWT:      container.GetJWT(),
		Repos:    PostgresRepositories(container.GetPGPool()),
		Media:    container.GetMediaStore(),
		Notifier: container.GetNotifier(),
		Identity: container.GetIdentity(),
		Index:    container.GetStoryIndex(),
	}
}

// InitModules wires every module from the container singletons.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry) {
	Mount(r, depsFromContainer())
}

// Mount builds services, handlers and modules from d and adds them to r.
func Mount(r *Registry, d Deps) {
	cfg := d.Config
	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)

	accounts := application.NewAccountService(d.Repos.Accounts, d.JWT, d.Redis, d.Notifier, d.Logger, cfg.ResetCodeTTL)
	stories := application.NewStoryService(d.Repos.Stories, d.Media, d.Index, d.Logger)
	banners := application.NewBannerService(d.Repos.Banners, d.Media, d.Logger)
	characters := application.NewCharacterService(d.Repos.Characters, d.Redis, d.Logger)

	guard := middleware.Auth(accounts, d.JWT)
	identify := middleware.Identify(accounts, d.JWT)
	admin := middleware.RequireRole(cfg.ContentAdminRole)

	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(accounts, d.Identity, cookies, cfg.FrontendURL, d.Logger),
		handlers.NewUserHandler(accounts, cookies, d.Logger),
		guard,
		identify,
		d.Redis,
		d.Identity != nil,
	))
	r.Add(modules.NewStoryModule(handlers.NewStoryHandler(stories, d.Logger), guard, admin, d.Redis))
	r.Add(modules.NewBannerModule(handlers.NewBannerHandler(banners, d.Logger), guard, admin, d.Redis))
	r.Add(modules.NewCharacterModule(handlers.NewCharacterHandler(characters, d.Logger)))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(d.Redis))
	}

	if cfg.MediaBackend == "local" && cfg.MediaLocalDir != "" {
		r.Engine.Static(cfg.MediaLocalPrefix, cfg.MediaLocalDir)
	}
}
