package main

import (
	"context"
	"log"
	"os"

	"github.com/LJTian/SecNewsHub/internal/app"
	"github.com/LJTian/SecNewsHub/internal/config"
	"github.com/LJTian/SecNewsHub/internal/report"
)

// 执行一轮采集：抓取 -> 聚合 -> 写文件，再从文件读回打印
func main() {
	cfg := config.Load()

	a, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("init failed: %v", err)
	}

	if _, err := a.Pipeline.Run(context.Background()); err != nil {
		log.Fatalf("collect failed: %v", err)
	}

	// 打印的是文件里实际落盘的内容
	news, err := a.Files.Load()
	if err != nil {
		log.Fatalf("read back %s failed: %v", a.Files.Path(), err)
	}
	if err := report.NewPrinter(os.Stdout).Print(news); err != nil {
		log.Fatalf("print report failed: %v", err)
	}
}
