package app

import (
	"context"
	"fmt"
	"log/slog"

	"timber_threads/internal/config"
	"timber_threads/internal/lib/logger/sl"
	"timber_threads/internal/repository"
	filestorage "timber_threads/internal/storage/filestorage"
	"timber_threads/internal/storage/postgresql"
	redisapp "timber_threads/internal/storage/redis"
	s3host "timber_threads/internal/storage/s3"

	httpapp "timber_threads/internal/app/http"
	auth "timber_threads/internal/services/auth_service"
	contact "timber_threads/internal/services/contact_service"
	gallery "timber_threads/internal/services/gallery_service"
	media "timber_threads/internal/services/media_service"
	httprouters "timber_threads/internal/transport/http"

	"github.com/jackc/pgx/v4/pgxpool"
)

type App struct {
	HTTPServer *httpapp.Server

	log   *slog.Logger
	redis *redisapp.Client
	db    *pgxpool.Pool
}

func New(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.New"

	redisClient := redisapp.NewClient(cfg.Redis.RedisAddr, cfg.Redis.RedisPassword, cfg.Redis.RedisDB)

	db, err := postgresql.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	host, err := buildImageHost(ctx, cfg.Media)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	galleryRepo := repository.NewRedisGalleryRepo(redisClient)
	tokenRepo := repository.NewRedisTokenRepo(redisClient)
	contactRepo := repository.NewContactRepo(db)

	galleryService := gallery.NewGalleryService(log, galleryRepo, host)
	mediaService := media.NewMediaService(log, host, cfg.Media.MaxSize)
	authService := auth.NewAuthService(log, tokenRepo, cfg.Admin.PasswordHash, cfg.Admin.TokenSecret, cfg.Admin.TokenTTL)
	contactService := contact.NewContactService(log, contactRepo)

	routers := httprouters.NewRouter(log, galleryService, mediaService, authService, contactService)

	var uploadsDir string
	if local, ok := host.(*filestorage.LocalImageHost); ok {
		uploadsDir = local.BaseDir()
	}

	server := httpapp.New(log, cfg.Admin.SessionSecret, cfg.HTTP.Host, cfg.HTTP.Port, uploadsDir, routers, redisClient, db)

	return &App{
		HTTPServer: server,
		log:        log,
		redis:      redisClient,
		db:         db,
	}, nil
}

func (a *App) Stop() {
	if err := a.HTTPServer.Stop(); err != nil {
		a.log.Error("failed to stop http server", sl.Err(err))
	}
	if err := a.redis.Stop(); err != nil {
		a.log.Error("failed to close redis client", sl.Err(err))
	}
	a.db.Close()
}

func buildImageHost(ctx context.Context, cfg config.MediaConfig) (filestorage.ImageHost, error) {
	switch cfg.Provider {
	case "s3":
		return s3host.New(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey, cfg.S3.BaseURL)
	default:
		return filestorage.NewLocalImageHost(cfg.BaseDir, cfg.BaseURL)
	}
}
