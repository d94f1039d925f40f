package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campus-radio/songdesk/config"
	authdomain "github.com/campus-radio/songdesk/internal/auth/domain"
	authrepo "github.com/campus-radio/songdesk/internal/auth/repository"
	authservice "github.com/campus-radio/songdesk/internal/auth/service"
	"github.com/campus-radio/songdesk/internal/catalog"
	"github.com/campus-radio/songdesk/internal/downloads"
	"github.com/campus-radio/songdesk/internal/music"
	"github.com/campus-radio/songdesk/internal/requests/repository"
	"github.com/campus-radio/songdesk/internal/requests/service"
	"github.com/campus-radio/songdesk/internal/review"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the connected stores and services shared by the server and the
// admin CLI.
type App struct {
	Config   *config.Config
	Redis    *redis.Client
	DB       *sql.DB
	Catalog  *catalog.Catalog
	Music    *music.Client
	Files    *downloads.Store
	Requests *service.RequestService
	Auth     *authservice.AuthService
}

// NewApp connects Redis and Postgres and builds the services on top.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	rdb, err := OpenRedis(ctx, RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}

	db, err := OpenDB(ctx, DBOptions{DSN: cfg.Database.DSN, MaxConns: cfg.Database.MaxConns})
	if err != nil {
		rdb.Close()
		return nil, err
	}

	app := &App{Config: cfg, Redis: rdb, DB: db}
	if err := app.build(ctx, log); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context, log *zap.Logger) error {
	cfg := a.Config

	a.Catalog = catalog.Default()
	if cfg.Requests.CatalogFile != "" {
		cat, err := catalog.Load(cfg.Requests.CatalogFile)
		if err != nil {
			return err
		}
		a.Catalog = cat
		log.Info("loaded class catalog", zap.String("file", cfg.Requests.CatalogFile))
	}

	a.Music = music.NewClient(cfg.Music.BaseURL, cfg.Music.RateLimit, 0)

	files, err := downloads.NewStore(cfg.Music.DownloadDir, cfg.Music.BundleDir, a.Music, cfg.Music.DownloadTimeout)
	if err != nil {
		return err
	}
	a.Files = files

	reviewer := review.NewClient(review.Config{
		APIKey:  cfg.Review.APIKey,
		BaseURL: cfg.Review.BaseURL,
		Model:   cfg.Review.Model,
	})
	if cfg.Review.APIKey == "" {
		log.Warn("REVIEW_API_KEY not set, auto review disabled")
	}

	a.Requests = service.NewRequestService(
		repository.NewListRepository(a.Redis),
		repository.NewSettingsRepository(a.Redis),
		service.Options{
			MaxDaily:   cfg.Requests.MaxDaily,
			CutoffHour: cfg.Requests.CutoffHour,
			Catalog:    a.Catalog,
			Songs:      a.Music,
			Files:      a.Files,
			Reviewer:   reviewer,
		},
	)

	accounts := authrepo.NewAccountRepository(a.DB)
	if err := accounts.EnsureSchema(ctx); err != nil {
		return err
	}
	signer, err := authservice.NewTokenSigner(string(cfg.Auth.Secret()), cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("token signer: %w", err)
	}
	a.Auth = authservice.NewAuthService(accounts, authservice.NewBcryptHasher(0), signer)
	return nil
}

// DefaultAccounts are the admin and control accounts seeded on start.
func DefaultAccounts(cfg *config.Config) []authservice.DefaultAccount {
	return []authservice.DefaultAccount{
		{Username: "admin", Password: cfg.Auth.AdminPassword, Role: authdomain.RoleAdmin},
		{Username: "control", Password: cfg.Auth.ControlPassword, Role: authdomain.RoleControl},
	}
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
}
