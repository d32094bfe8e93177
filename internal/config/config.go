package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/LJTian/SecNewsHub/internal/collector"
	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	OutputFile string
	FeedsFile  string

	UserAgent       string
	FetchTimeout    time.Duration
	RenderTimeout   time.Duration
	ChromePath      string
	RenderedSources []string

	// 为空时不启用 postgres 快照 / redis 缓存
	PostgresDSN string
	RedisAddr   string

	CronSpec string

	// 同时配置时 API 启用 Basic Auth
	BasicAuthUser string
	BasicAuthPass string
}

func Load() *Config {
	// .env 可选，不存在时只用进程环境变量
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("warn: load .env: %v", err)
	}

	cfg := &Config{
		AppPort:         getEnv("APP_PORT", "9000"),
		OutputFile:      getEnv("OUTPUT_FILE", "cybersecurity_news.json"),
		FeedsFile:       getEnv("FEEDS_FILE", ""),
		UserAgent:       getEnv("USER_AGENT", collector.DefaultUserAgent),
		FetchTimeout:    getDuration("FETCH_TIMEOUT", 30*time.Second),
		RenderTimeout:   getDuration("RENDER_TIMEOUT", 60*time.Second),
		ChromePath:      getEnv("CHROME_PATH", ""),
		RenderedSources: splitList(getEnv("RENDERED_SOURCES", "bleepingcomputer")),
		PostgresDSN:     getEnv("POSTGRES_DSN", ""),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		CronSpec:        getEnv("CRON_SPEC", "0 */6 * * *"),
		BasicAuthUser:   getEnv("APP_BASIC_USER", ""),
		BasicAuthPass:   getEnv("APP_BASIC_PASS", ""),
	}

	log.Printf("config loaded: output=%s rendered=%v cron=%s", cfg.OutputFile, cfg.RenderedSources, cfg.CronSpec)
	return cfg
}

// Sources FEEDS_FILE 未配置时使用内置源
func (c *Config) Sources() ([]collector.Source, error) {
	if c.FeedsFile == "" {
		return collector.DefaultSources(), nil
	}
	return LoadSources(c.FeedsFile)
}

// LoadSources 读取 feed 列表文件，每行 "名称|URL"，# 开头为注释
func LoadSources(path string) ([]collector.Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var sources []collector.Source
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, url, ok := strings.Cut(line, "|")
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("feeds file %s:%d: want \"name|url\", got %q", path, lineNo, line)
		}
		sources = append(sources, collector.Source{Name: name, FeedURL: url})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("feeds file %s: %w", path, err)
	}
	return sources, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("warn: invalid %s=%q, use %s", key, v, def)
	}
	return def
}

// splitList 逗号分隔；"none" 表示空列表
func splitList(s string) []string {
	if strings.EqualFold(strings.TrimSpace(s), "none") {
		return nil
	}
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
