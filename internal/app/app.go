package app

import (
	"fmt"
	"log"

	"github.com/LJTian/SecNewsHub/internal/collector"
	"github.com/LJTian/SecNewsHub/internal/config"
	"github.com/LJTian/SecNewsHub/internal/pipeline"
	"github.com/LJTian/SecNewsHub/internal/storage"
)

// App cmd/collect 与 cmd/api 共用的组件
type App struct {
	Fetcher  *collector.ArticleFetcher
	Files    *storage.FileStore
	Store    *storage.Store // 未配置 POSTGRES_DSN 时为 nil
	Pipeline *pipeline.Pipeline
}

func Build(cfg *config.Config) (*App, error) {
	sources, err := cfg.Sources()
	if err != nil {
		return nil, fmt.Errorf("load sources: %w", err)
	}

	registry := collector.DefaultRegistry().WithRendered(cfg.RenderedSources)
	fetcher := collector.NewArticleFetcher(
		registry,
		&collector.StaticRetriever{UserAgent: cfg.UserAgent, Timeout: cfg.FetchTimeout},
		&collector.RenderedRetriever{UserAgent: cfg.UserAgent, ExecPath: cfg.ChromePath, Timeout: cfg.RenderTimeout},
	)
	ingester := collector.NewFeedIngester(fetcher, cfg.UserAgent, cfg.FetchTimeout)

	a := &App{
		Fetcher: fetcher,
		Files:   storage.NewFileStore(cfg.OutputFile),
	}

	var mirrors []pipeline.Sink
	if cfg.PostgresDSN != "" {
		store, err := storage.NewStore(cfg.PostgresDSN, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		a.Store = store
		mirrors = append(mirrors, store)
	} else {
		log.Printf("postgres not configured, output file only")
	}

	a.Pipeline = pipeline.New(sources, ingester, a.Files, mirrors...)
	return a, nil
}
