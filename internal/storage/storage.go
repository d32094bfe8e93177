package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/LJTian/SecNewsHub/internal/collector"
	"github.com/LJTian/SecNewsHub/internal/processor"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	cachePrefix  = "secnews:"
	listCacheTTL = 5 * time.Minute
	dateLayout   = "2006-01-02"
)

// ArticleRecord 最近一次运行的文章快照，Seq 记录在输出文件中的全局顺序
type ArticleRecord struct {
	ID            uint           `gorm:"primaryKey" json:"-"`
	Seq           int            `gorm:"index" json:"-"`
	PublishedDate datatypes.Date `gorm:"index" json:"-"`
	Title         string         `gorm:"size:512" json:"title"`
	Link          string         `gorm:"size:1024;index" json:"link"`
	Summary       string         `gorm:"type:text" json:"summary"`
	Published     string         `gorm:"size:64" json:"published"`
	Source        string         `gorm:"size:64;index" json:"source"`
	Content       string         `gorm:"type:text" json:"content"`

	CreatedAt time.Time `json:"-"`
}

func (ArticleRecord) TableName() string { return "articles" }

// Store postgres 保存最近一次运行的完整快照，redis 缓存查询结果
type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStore redisAddr 为空时不启用缓存
func NewStore(dsn, redisAddr string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&ArticleRecord{}); err != nil {
		return nil, err
	}

	s := &Store{DB: db}
	if redisAddr == "" {
		return s, nil
	}

	s.Redis = redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.Redis.Ping(ctx).Err(); err != nil {
		log.Printf("warn: redis ping failed: %v", err)
	}

	return s, nil
}

func (s *Store) Name() string { return "postgres" }

// Save 用本次运行结果整体替换表内容，不与旧数据合并
func (s *Store) Save(ctx context.Context, news processor.AggregatedNews) error {
	rows, err := snapshotRows(news)
	if err != nil {
		return err
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&ArticleRecord{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		return fmt.Errorf("postgres store: replace snapshot: %w", err)
	}

	s.invalidateCache(ctx)
	return nil
}

func snapshotRows(news processor.AggregatedNews) ([]ArticleRecord, error) {
	rows := make([]ArticleRecord, 0, news.Len())
	seq := 0
	for _, d := range news.Dates() {
		day, err := time.Parse(dateLayout, d)
		if err != nil {
			return nil, fmt.Errorf("postgres store: bad date key %q: %w", d, err)
		}
		for _, a := range news.Articles(d) {
			rows = append(rows, ArticleRecord{
				Seq:           seq,
				PublishedDate: datatypes.Date(day),
				Title:         a.Title,
				Link:          a.Link,
				Summary:       a.Summary,
				Published:     a.Published,
				Source:        a.Source,
				Content:       a.Content,
			})
			seq++
		}
	}
	return rows, nil
}

func (r ArticleRecord) article() collector.Article {
	return collector.Article{
		Title:     r.Title,
		Link:      r.Link,
		Summary:   r.Summary,
		Published: r.Published,
		Source:    r.Source,
		Content:   r.Content,
	}
}

// invalidateCache 快照整体替换后旧缓存全部失效
func (s *Store) invalidateCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	var keys []string
	iter := s.Redis.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("warn: redis scan cache keys: %v", err)
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := s.Redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("warn: redis delete cache keys: %v", err)
	}
}

func newsCacheKey(date, source string) string {
	return fmt.Sprintf("%snews:%s:%s", cachePrefix, date, source)
}

func (s *Store) cacheGet(ctx context.Context, key string, v any) bool {
	if s.Redis == nil {
		return false
	}
	bs, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(bs, v) == nil
}

func (s *Store) cacheSet(ctx context.Context, key string, v any) {
	if s.Redis == nil {
		return
	}
	bs, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = s.Redis.Set(ctx, key, bs, listCacheTTL).Err()
}

// ListDates 返回快照中的日期，顺序与输出文件一致
func (s *Store) ListDates(ctx context.Context) ([]string, error) {
	key := cachePrefix + "dates"
	var cached []string
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	var rows []struct {
		PublishedDate time.Time
		FirstSeq      int
	}
	err := s.DB.WithContext(ctx).Model(&ArticleRecord{}).
		Select("published_date, MIN(seq) AS first_seq").
		Group("published_date").
		Order("first_seq ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(rows))
	for _, r := range rows {
		dates = append(dates, r.PublishedDate.Format(dateLayout))
	}
	if len(dates) > 0 {
		s.cacheSet(ctx, key, dates)
	}
	return dates, nil
}

// ListNews 按日期和来源筛选，空参数表示不过滤
func (s *Store) ListNews(ctx context.Context, date, source string) ([]collector.Article, error) {
	key := newsCacheKey(date, source)
	var cached []collector.Article
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	db := s.DB.WithContext(ctx).Model(&ArticleRecord{})
	if date != "" {
		db = db.Where("published_date = ?", date)
	}
	if source != "" {
		db = db.Where("source = ?", source)
	}

	var list []ArticleRecord
	if err := db.Order("seq ASC").Find(&list).Error; err != nil {
		return nil, err
	}

	out := make([]collector.Article, 0, len(list))
	for _, r := range list {
		out = append(out, r.article())
	}
	if len(out) > 0 {
		s.cacheSet(ctx, key, out)
	}
	return out, nil
}
