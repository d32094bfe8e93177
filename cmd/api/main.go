package main

import (
	"log"

	"github.com/LJTian/SecNewsHub/internal/api"
	"github.com/LJTian/SecNewsHub/internal/app"
	"github.com/LJTian/SecNewsHub/internal/config"
	"github.com/LJTian/SecNewsHub/internal/scheduler"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	a, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}

	s, err := scheduler.New(cfg.CronSpec, a.Pipeline)
	if err != nil {
		log.Fatalf("init scheduler failed: %v", err)
	}
	s.Start()
	defer s.Stop()

	// 配置了 postgres 时从快照表读（带 redis 缓存），否则直接读输出文件
	var reader api.NewsReader = a.Files
	if a.Store != nil {
		reader = a.Store
	}

	r := gin.Default()
	// 若配置了全局访问密码，则启用 Basic Auth 保护（/health 仍然免认证）
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPass != "" {
		r.Use(api.BasicAuth(cfg.BasicAuthUser, cfg.BasicAuthPass, "/health"))
	}

	api.NewServer(reader, a.Fetcher).RegisterRoutes(r)

	addr := ":" + cfg.AppPort
	log.Printf("starting api server at %s ...", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("server exit: %v", err)
	}
}
