package bootstrap

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/registro-museografico/museum-registry/config"
	"github.com/registro-museografico/museum-registry/internal/catalog"
	"github.com/registro-museografico/museum-registry/internal/chat/faq"
	chathttp "github.com/registro-museografico/museum-registry/internal/chat/http"
	chatrepo "github.com/registro-museografico/museum-registry/internal/chat/repository"
	chatservice "github.com/registro-museografico/museum-registry/internal/chat/service"
	registryhttp "github.com/registro-museografico/museum-registry/internal/registry/http"
	"github.com/registro-museografico/museum-registry/internal/registry/imagehost"
	registryrepo "github.com/registro-museografico/museum-registry/internal/registry/repository"
	registryservice "github.com/registro-museografico/museum-registry/internal/registry/service"
	"github.com/registro-museografico/museum-registry/internal/registry/staging"
	"github.com/registro-museografico/museum-registry/internal/registry/webhook"
)

// App is the wired HTTP service.
type App struct {
	Router  *gin.Engine
	Sweeper *staging.Sweeper
	Images  *imagehost.Client
}

func NewApp(cfg *config.Config, rdb *redis.Client) (*App, error) {
	area, err := staging.NewArea(cfg.Staging.Dir)
	if err != nil {
		return nil, fmt.Errorf("staging area: %w", err)
	}

	images := imagehost.New(imagehost.Config{
		AccountID:         cfg.ImageHost.AccountID,
		APIToken:          cfg.ImageHost.APIToken,
		DeliveryBase:      cfg.ImageHost.DeliveryBase,
		APIBaseURL:        cfg.ImageHost.APIBaseURL,
		RequestsPerSecond: cfg.ImageHost.RequestsPerSecond,
	})
	orchestrator := registryservice.NewOrchestrator(images, area, webhook.New(cfg.Webhook.URL))
	draftRepo := registryrepo.NewDraftRepository(rdb, cfg.Redis.DraftTTL)
	drafts := registryservice.NewDraftService(draftRepo, area, orchestrator)

	responder, err := faq.Load()
	if err != nil {
		return nil, err
	}
	chat := chatservice.NewChatService(
		chatrepo.NewTranscriptRepository(rdb, cfg.Redis.ChatTTL),
		responder,
		cfg.Chat.MinDelay,
		cfg.Chat.MaxDelay,
	)

	pieces, err := catalog.Load()
	if err != nil {
		return nil, err
	}

	router := BuildRouter(RouterDeps{
		ServiceName:    cfg.App.ServiceName,
		Version:        cfg.App.Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		APIKey:         cfg.Server.APIKey,
		Redis:          rdb,
		Registry:       registryhttp.New(drafts, images),
		Chat:           chathttp.New(chat),
		Catalog:        catalog.NewHandler(pieces),
	})

	return &App{
		Router:  router,
		Sweeper: staging.NewSweeper(area, draftRepo.Exists, cfg.Staging.SweepSchedule, cfg.Staging.MaxAge),
		Images:  images,
	}, nil
}
