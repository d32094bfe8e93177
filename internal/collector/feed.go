package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const defaultFeedTimeout = 30 * time.Second

// FeedError 单个 feed 拉取或解析失败；该源被跳过，其它源照常处理
type FeedError struct {
	Source string
	Err    error
}

func (e *FeedError) Error() string {
	return fmt.Sprintf("feed %s: %v", e.Source, e.Err)
}

func (e *FeedError) Unwrap() error { return e.Err }

// FeedIngester 顺序遍历各个 feed 源，逐条抓取正文，拼出文章列表
type FeedIngester struct {
	parser  *gofeed.Parser
	fetcher ContentFetcher
	timeout time.Duration
}

func NewFeedIngester(fetcher ContentFetcher, userAgent string, timeout time.Duration) *FeedIngester {
	if timeout <= 0 {
		timeout = defaultFeedTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	p := gofeed.NewParser()
	p.UserAgent = userAgent
	p.Client = &http.Client{Timeout: timeout}

	return &FeedIngester{
		parser:  p,
		fetcher: fetcher,
		timeout: timeout,
	}
}

// IngestAll 返回所有可用源的文章，顺序为 源顺序 × feed 内条目顺序。
// 失败的源会被跳过，返回的 error 是所有 FeedError 的 errors.Join，文章列表始终可用。
func (f *FeedIngester) IngestAll(ctx context.Context, sources []Source) ([]Article, error) {
	var (
		articles []Article
		errs     []error
	)

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, &FeedError{Source: src.Name, Err: err})
			continue
		}

		log.Printf("fetch feed %s (%s)...", src.Name, src.FeedURL)
		feed, err := f.parse(ctx, src.FeedURL)
		if err != nil {
			ferr := &FeedError{Source: src.Name, Err: err}
			log.Printf("warn: skip source: %v", ferr)
			errs = append(errs, ferr)
			continue
		}

		before := len(articles)
		for _, item := range feed.Items {
			if item == nil {
				continue
			}
			articles = append(articles, f.toArticle(ctx, src, item))
		}
		log.Printf("feed %s done, entries=%d", src.Name, len(articles)-before)
	}

	return articles, errors.Join(errs...)
}

func (f *FeedIngester) parse(ctx context.Context, url string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	return f.parser.ParseURLWithContext(url, ctx)
}

func (f *FeedIngester) toArticle(ctx context.Context, src Source, item *gofeed.Item) Article {
	// gofeed 不区分缺失和空字符串，两者都视为没有摘要；纯空白的摘要原样保留
	summary := item.Description
	if summary == "" {
		summary = NoSummary
	}

	// Atom 条目可能只有 updated
	published := item.Published
	if published == "" {
		published = item.Updated
	}

	return Article{
		Title:     item.Title,
		Link:      item.Link,
		Summary:   summary,
		Published: published,
		Source:    src.Name,
		Content:   f.fetcher.Fetch(ctx, item.Link),
	}
}
