package app

import (
	"context"
	"fmt"
	"time"

	httpapi "github.com/yungbote/mdb-curator/internal/http"
	httpH "github.com/yungbote/mdb-curator/internal/http/handlers"
	"github.com/yungbote/mdb-curator/internal/observability"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
)

type App struct {
	Log    *logger.Logger
	Cfg    Config
	Core   *Core
	Server *httpapi.Server

	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
	})

	core, err := NewCore(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	server := httpapi.NewServer(":"+cfg.Port, httpapi.RouterConfig{
		Log:             log,
		ServiceName:     cfg.ServiceName,
		CORSOrigins:     cfg.CORSOrigins,
		CurationHandler: httpH.NewCurationHandler(core.Curation),
		HealthHandler:   httpH.NewHealthHandler(core.Curation),
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		Core:         core,
		Server:       server,
		otelShutdown: shutdown,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Curator listening", "port", a.Cfg.Port, "graph", a.Cfg.GraphBackend, "similarity", a.Cfg.Synonyms.SimilarityMode)
	return a.Server.Run()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("HTTP shutdown failed", "error", err)
		}
	}
	if a.Core != nil {
		if err := a.Core.Close(ctx); err != nil {
			a.Log.Warn("Closing curation core failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	a.Log.Sync()
}
