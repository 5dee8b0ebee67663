package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/synapsocial/synapsocial/internal/config"
	"github.com/synapsocial/synapsocial/internal/db"
	"github.com/synapsocial/synapsocial/internal/model"
	"github.com/synapsocial/synapsocial/internal/permission"
	"github.com/synapsocial/synapsocial/internal/platform"
	"github.com/synapsocial/synapsocial/internal/platform/instagram"
	"github.com/synapsocial/synapsocial/internal/platform/linkedin"
	"github.com/synapsocial/synapsocial/internal/platform/youtube"
	"github.com/synapsocial/synapsocial/internal/repository"
	"github.com/synapsocial/synapsocial/internal/service"
	"github.com/synapsocial/synapsocial/internal/service/completion"
	"github.com/synapsocial/synapsocial/internal/storage"
)

type App struct {
	Cfg               *config.Config
	DB                *sqlx.DB
	AccountRepository repository.AccountRepository
	Gate              *permission.Gate
	AuthService       *service.AuthService
	AccountService    *service.AccountService
	GenerateService   *service.GenerateService
	PublishService    *service.PublishService
	EngagementService *service.EngagementService
	Scanner           *service.Scanner
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	accountRepository := repository.NewAccountRepository(database)

	// Storage (optional, stages Instagram media behind a presigned URL)
	mediaStorage, err := storage.New(ctx, cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// AI provider (a missing key surfaces per call as a configuration error)
	provider, err := completion.NewProvider(cfg)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to initialize completion provider: %w", err)
	}
	completer := completion.NewClient(provider, cfg)

	// Platform clients
	linkedinClient := linkedin.NewClient(cfg.LinkedInBaseURL)
	instagramClient := instagram.NewClient(cfg.InstagramBaseURL, instagram.WithTiming(instagram.Timing{
		ImageDelay:   cfg.InstagramImageDelay,
		PollInterval: cfg.InstagramPollInterval,
		PollAttempts: cfg.InstagramPollAttempts,
	}))
	youtubeClient := youtube.NewClient(youtube.OAuthConfig{
		ClientID:     cfg.YouTubeClientID,
		ClientSecret: cfg.YouTubeClientSecret,
		RedirectURL:  cfg.YouTubeRedirectURL,
	})

	publishers := map[model.Platform]platform.Publisher{
		model.PlatformLinkedIn:  linkedinClient,
		model.PlatformInstagram: instagramClient,
		model.PlatformYouTube:   youtubeClient,
	}
	// LinkedIn has no comments API wired
	engagers := map[model.Platform]platform.Engager{
		model.PlatformInstagram: instagramClient,
		model.PlatformYouTube:   youtubeClient,
	}

	// Services
	gate := permission.NewGate(accountRepository)
	authService := service.NewAuthService(cfg.JWTSecret)
	accountService := service.NewAccountService(accountRepository)
	generateService := service.NewGenerateService(completer, cfg.UploadDir)
	publishService := service.NewPublishService(accountRepository, publishers, mediaStorage)
	engagementService := service.NewEngagementService(accountRepository, engagers, completer, gate, service.EngagementConfig{
		PostLimit:    cfg.ScanPostLimit,
		CommentLimit: cfg.ScanCommentLimit,
	})
	scanner := service.NewScanner(accountRepository, engagers, completer, service.ScannerConfig{
		Interval:     cfg.ScanInterval,
		PostLimit:    cfg.ScanPostLimit,
		CommentLimit: cfg.ScanCommentLimit,
		ReplyDelay:   cfg.ScanReplyDelay,
		LockPath:     cfg.ScanLockPath,
	})

	return &App{
		Cfg:               cfg,
		DB:                database,
		AccountRepository: accountRepository,
		Gate:              gate,
		AuthService:       authService,
		AccountService:    accountService,
		GenerateService:   generateService,
		PublishService:    publishService,
		EngagementService: engagementService,
		Scanner:           scanner,
	}, nil
}

// Start launches background work. The scanner only runs when enabled.
func (a *App) Start(ctx context.Context) error {
	if !a.Cfg.ScanEnabled {
		return nil
	}
	return a.Scanner.Start(ctx)
}

func (a *App) Close() error {
	if a.Scanner != nil {
		a.Scanner.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
