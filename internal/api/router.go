package api

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/LJTian/SecNewsHub/internal/collector"
	"github.com/gin-gonic/gin"
)

// NewsReader 最近一次运行结果的只读视图（JSON 文件或 postgres 快照）
type NewsReader interface {
	ListDates(ctx context.Context) ([]string, error)
	ListNews(ctx context.Context, date, source string) ([]collector.Article, error)
}

// Extractor 单篇文章的按需抓取
type Extractor interface {
	Route(url string) (collector.Rule, collector.Mode)
	Fetch(ctx context.Context, url string) string
}

type Server struct {
	reader    NewsReader
	extractor Extractor
	resolver  ipResolver
}

func NewServer(reader NewsReader, extractor Extractor) *Server {
	return &Server{reader: reader, extractor: extractor, resolver: net.DefaultResolver}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/dates", s.listDates)
		v1.GET("/news", s.listNews)
		v1.POST("/extract", s.extract)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) readError(c *gin.Context, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "no collect run has finished yet",
		})
		return
	}
	log.Printf("api: read news: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"code":    "bad_request",
		"message": msg,
	})
}

// listDates order=desc / asc 时排序，默认保持输出文件中的顺序
func (s *Server) listDates(c *gin.Context) {
	dates, err := s.reader.ListDates(c.Request.Context())
	if err != nil {
		s.readError(c, err)
		return
	}

	switch c.Query("order") {
	case "asc":
		slices.Sort(dates)
	case "desc":
		slices.Sort(dates)
		slices.Reverse(dates)
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    dates,
	})
}

func (s *Server) listNews(c *gin.Context) {
	date := c.Query("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
	}
	source := c.Query("source")

	items, err := s.reader.ListNews(c.Request.Context(), date, source)
	if err != nil {
		s.readError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    items,
	})
}

type extractRequest struct {
	URL string `json:"url" binding:"required"`
}

type extractResponse struct {
	URL     string `json:"url"`
	Rule    string `json:"rule"`
	Mode    string `json:"mode"`
	OK      bool   `json:"ok"`
	Content string `json:"content"`
}

// extract 对单个 URL 走一遍和采集相同的抓取逻辑，便于排查站点规则
func (s *Server) extract(c *gin.Context) {
	var req extractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "url is required")
		return
	}
	u, err := url.Parse(req.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		badRequest(c, "url must be an absolute http(s) URL")
		return
	}
	if err := checkPublicHost(c.Request.Context(), s.resolver, u.Hostname()); err != nil {
		log.Printf("api: extract rejected: %v", err)
		badRequest(c, "url host must resolve to a public address")
		return
	}

	rule, mode := s.extractor.Route(req.URL)
	content := s.extractor.Fetch(c.Request.Context(), req.URL)

	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data": extractResponse{
			URL:     req.URL,
			Rule:    rule.Name,
			Mode:    string(mode),
			OK:      content != collector.Sentinel,
			Content: content,
		},
	})
}
