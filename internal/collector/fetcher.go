package collector

import "context"

// Sentinel 正文抓取或提取失败时写入 content 的固定文案
const Sentinel = "Full article content could not be retrieved."

// NoSummary feed 条目缺少摘要时的占位文案
const NoSummary = "No summary available"

// Source 一个 feed 源：名称 + feed 地址，进程启动时确定
type Source struct {
	Name    string
	FeedURL string
}

// Article 一条 feed 条目加上抓取到的正文。
// JSON 字段顺序即输出文件的字段顺序，不要调整。
type Article struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"` // feed 中的原始时间字符串，不做规范化
	Source    string `json:"source"`
	Content   string `json:"content"`
}

// ContentFetcher 按文章 URL 返回正文，失败时返回 Sentinel，不返回错误
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) string
}

// DefaultSources 内置的安全资讯源
func DefaultSources() []Source {
	return []Source{
		{Name: "Krebs on Security", FeedURL: "https://krebsonsecurity.com/feed/"},
		{Name: "Threatpost", FeedURL: "https://threatpost.com/feed/"},
		{Name: "Dark Reading", FeedURL: "https://www.darkreading.com/rss.xml"},
		{Name: "Bleeping Computer", FeedURL: "https://www.bleepingcomputer.com/feed/"},
		{Name: "SecurityWeek", FeedURL: "http://feeds.feedburner.com/securityweek"},
	}
}
