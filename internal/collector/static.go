package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const (
	DefaultUserAgent     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultStaticTimeout = 30 * time.Second
)

// StatusError 文章页返回了非 2xx 状态码
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.StatusCode)
}

// StaticRetriever 直接 GET 原始 HTML，不执行页面脚本
type StaticRetriever struct {
	UserAgent string
	Timeout   time.Duration
}

func (s *StaticRetriever) Retrieve(ctx context.Context, url string, rule Rule) (Extraction, error) {
	if err := ctx.Err(); err != nil {
		return Extraction{}, err
	}

	ua := s.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	c := colly.NewCollector(colly.UserAgent(ua))

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultStaticTimeout
	}
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout {
			timeout = left
		}
	}
	c.SetRequestTimeout(timeout)

	var (
		doc      *goquery.Document
		parseErr error
		status   int
	)
	// colly 默认把 >= 203 都当成错误；这里自己按 2xx 判断
	c.ParseHTTPErrorResponse = true
	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode > 299 {
			status = r.StatusCode
			return
		}
		doc, parseErr = goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil && r.StatusCode != 0 {
			status = r.StatusCode
		}
	})

	if err := c.Visit(url); err != nil {
		if status != 0 {
			return Extraction{}, fmt.Errorf("static: %w", &StatusError{StatusCode: status})
		}
		return Extraction{}, fmt.Errorf("static: visit: %w", err)
	}
	if status != 0 {
		return Extraction{}, fmt.Errorf("static: %w", &StatusError{StatusCode: status})
	}
	if parseErr != nil {
		return Extraction{}, fmt.Errorf("static: parse html: %w", parseErr)
	}
	if doc == nil {
		return Extraction{}, errors.New("static: no response body")
	}

	return rule.Extract(doc), nil
}
