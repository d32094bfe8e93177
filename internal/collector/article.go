package collector

import (
	"context"
	"fmt"
	"log"
)

// Mode 文章抓取方式
type Mode string

const (
	ModeStatic   Mode = "static"
	ModeRendered Mode = "rendered"
)

// Retriever 按某条规则抓取并提取一篇文章。
// 返回的 error 只表示抓取失败（网络、状态码、浏览器）；提取失败放在 Extraction.Err 里。
type Retriever interface {
	Retrieve(ctx context.Context, url string, rule Rule) (Extraction, error)
}

// FetchError 文章抓取失败，只用于日志，不向上传播
type FetchError struct {
	URL  string
	Mode Mode
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Mode, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ArticleFetcher 根据规则表决定抓取方式和提取规则，输出正文或 Sentinel。
// 抓取方式在调用前由站点决定，静态失败不会再用浏览器重试。
type ArticleFetcher struct {
	registry *Registry
	static   Retriever
	rendered Retriever
}

func NewArticleFetcher(registry *Registry, static, rendered Retriever) *ArticleFetcher {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &ArticleFetcher{
		registry: registry,
		static:   static,
		rendered: rendered,
	}
}

// Route 返回 URL 命中的规则和抓取方式
func (f *ArticleFetcher) Route(url string) (Rule, Mode) {
	rule := f.registry.Lookup(url)
	if rule.Rendered {
		return rule, ModeRendered
	}
	return rule, ModeStatic
}

// Fetch 抓取正文；任何失败都记录日志并返回 Sentinel
func (f *ArticleFetcher) Fetch(ctx context.Context, url string) (content string) {
	rule, mode := f.Route(url)

	defer func() {
		if p := recover(); p != nil {
			log.Printf("fetch article: %v", &FetchError{URL: url, Mode: mode, Err: fmt.Errorf("panic: %v", p)})
			content = Sentinel
		}
	}()

	r := f.static
	if mode == ModeRendered {
		r = f.rendered
	}
	if r == nil {
		log.Printf("fetch article: %v", &FetchError{URL: url, Mode: mode, Err: fmt.Errorf("no %s retriever configured", mode)})
		return Sentinel
	}

	ext, err := r.Retrieve(ctx, url, rule)
	if err != nil {
		log.Printf("fetch article: %v", &FetchError{URL: url, Mode: mode, Err: err})
		return Sentinel
	}
	if ext.Err != nil {
		log.Printf("fetch article %s: extract with %s rule: %v", url, rule.Name, ext.Err)
	}
	return ext.Content()
}
