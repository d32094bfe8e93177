package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LJTian/SecNewsHub/internal/collector"
	"github.com/LJTian/SecNewsHub/internal/processor"
)

// FileStore 把一次运行的聚合结果写成单个 JSON 文件，每次运行整体覆盖
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Name() string { return "file" }

func (s *FileStore) Path() string { return s.path }

// Save 先写临时文件再 rename，避免读到写了一半的文件
func (s *FileStore) Save(ctx context.Context, news processor.AggregatedNews) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(news); err != nil {
		return fmt.Errorf("file store: encode: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("file store: mkdir %s: %w", dir, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("file store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("file store: rename %s: %w", s.path, err)
	}
	return nil
}

// Load 读回输出文件，日期键和文章顺序与写入时一致
func (s *FileStore) Load() (processor.AggregatedNews, error) {
	var news processor.AggregatedNews
	data, err := os.ReadFile(s.path)
	if err != nil {
		return news, fmt.Errorf("file store: read %s: %w", s.path, err)
	}
	if err := json.Unmarshal(data, &news); err != nil {
		return news, fmt.Errorf("file store: parse %s: %w", s.path, err)
	}
	return news, nil
}

// ListDates 返回文件中的日期键（文件顺序）
func (s *FileStore) ListDates(ctx context.Context) ([]string, error) {
	news, err := s.Load()
	if err != nil {
		return nil, err
	}
	return news.Dates(), nil
}

// ListNews 按日期和来源筛选；date 为空时返回全部日期
func (s *FileStore) ListNews(ctx context.Context, date, source string) ([]collector.Article, error) {
	news, err := s.Load()
	if err != nil {
		return nil, err
	}

	dates := news.Dates()
	if date != "" {
		dates = []string{date}
	}

	out := make([]collector.Article, 0, news.Len())
	for _, d := range dates {
		for _, a := range news.Articles(d) {
			if source != "" && a.Source != source {
				continue
			}
			out = append(out, a)
		}
	}
	return out, nil
}
