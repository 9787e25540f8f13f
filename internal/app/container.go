package app

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/auth"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/config"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/database"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/documents"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/events"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/folders"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/projects"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/reports"
	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/workorders"
	"github.com/RudyEaglevanBreda/drone-ops-manager/pkg/storage"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *gorm.DB

	Tokens     *auth.TokenManager
	Publisher  events.Publisher
	Folders    *folders.Service
	Projects   projects.Service
	WorkOrders workorders.Service
	Documents  documents.Service
	Reports    *reports.Service
}

// NewContainer connects to the database and storage and wires the services.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewS3Client(ctx, storage.Config{
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		UsePathStyle:    cfg.Storage.UsePathStyle,
	})
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	projectRepo := projects.NewRepository(db)
	workOrderRepo := workorders.NewRepository(db)

	folderCfg := folders.DefaultConfig()
	folderCfg.Bucket = cfg.Storage.Bucket
	folderCfg.RootPrefix = cfg.Storage.RootPrefix
	if cfg.Storage.LinkExpiry > 0 {
		folderCfg.LinkExpiry = cfg.Storage.LinkExpiry
	}
	if cfg.Storage.BreakerTimeout > 0 {
		folderCfg.Timeout = cfg.Storage.BreakerTimeout
	}
	if cfg.Storage.BreakerFailures > 0 {
		folderCfg.FailureThreshold = cfg.Storage.BreakerFailures
	}
	folderService := folders.NewService(store, projectRepo, workOrderRepo, folderCfg, logger.Named("folders"))

	projectService := projects.NewService(projectRepo, folderService, publisher, logger.Named("projects"))
	workOrderService := workorders.NewService(workOrderRepo, projectService, logger.Named("workorders"),
		workorders.WithFolders(folderService),
		workorders.WithPublisher(publisher))
	documentService := documents.NewService(documents.NewRepository(db), folderService, projectService, workOrderService,
		cfg.Server.MaxUploadMB<<20, logger.Named("documents"))

	return &Container{
		Config:     cfg,
		Logger:     logger,
		DB:         db,
		Tokens:     auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL),
		Publisher:  publisher,
		Folders:    folderService,
		Projects:   projectService,
		WorkOrders: workOrderService,
		Documents:  documentService,
		Reports:    reports.NewService(projectService, workOrderService, logger.Named("reports")),
	}, nil
}

func newPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	if cfg.Events.TopicARN == "" {
		logger.Info("No events topic configured, status changes will not be published")
		return events.NewNopPublisher(), nil
	}

	region := cfg.Events.Region
	if region == "" {
		region = cfg.Storage.Region
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config for events: %w", err)
	}
	return events.NewSNSPublisher(sns.NewFromConfig(awsCfg), cfg.Events.TopicARN, logger.Named("events")), nil
}

// Close releases the database pool.
func (c *Container) Close() error {
	return database.Close(c.DB)
}
