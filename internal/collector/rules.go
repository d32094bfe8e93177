package collector

import (
	"errors"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var (
	ErrContainerMissing = errors.New("content container not found")
	ErrEmptyContent     = errors.New("extracted content is empty")
)

// Extraction 提取结果：成功时 Err 为 nil，Text 为去掉首尾空白后的正文
type Extraction struct {
	Text string
	Err  error
}

// Content 返回正文；提取失败时返回 Sentinel
func (e Extraction) Content() string {
	if e.Err != nil {
		return Sentinel
	}
	return e.Text
}

func newExtraction(text string, found bool) Extraction {
	if !found {
		return Extraction{Err: ErrContainerMissing}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Extraction{Err: ErrEmptyContent}
	}
	return Extraction{Text: text}
}

// Rule 描述一个站点的正文提取方式。
// Container 为空表示整篇文档；Paragraphs 为 true 时只取容器内 <p> 的文本，按行拼接。
// 同一份规则既用于静态 HTML（goquery），也用于浏览器渲染后的 DOM（chromedp）。
type Rule struct {
	Name       string
	Marker     string // 文章 URL 中出现该子串即命中（区分大小写）
	Container  string
	Paragraphs bool
	Rendered   bool // 该站点对非浏览器客户端屏蔽或改写内容，需要走 headless 浏览器
}

// Extract 在静态解析的文档上应用规则
func (r Rule) Extract(doc *goquery.Document) Extraction {
	root := doc.Selection
	if r.Container != "" {
		root = doc.Find(r.Container).First()
		if root.Length() == 0 {
			return newExtraction("", false)
		}
	}

	if r.Paragraphs {
		parts := make([]string, 0, 16)
		root.Find("p").Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, s.Text())
		})
		return newExtraction(strings.Join(parts, "\n"), true)
	}
	return newExtraction(joinedText(root), true)
}

// joinedText 按文档顺序收集非空文本节点，用换行连接；跳过脚本和样式
func joinedText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

var knownRules = []Rule{
	{Name: "krebsonsecurity", Marker: "krebsonsecurity", Container: "article"},
	{Name: "threatpost", Marker: "threatpost", Container: "article"},
	{Name: "darkreading", Marker: "darkreading", Container: "div.ArticleBase-BodyContent_Article", Paragraphs: true},
	{Name: "bleepingcomputer", Marker: "bleepingcomputer", Container: "div.articleBody", Paragraphs: true, Rendered: true},
	{Name: "securityweek", Marker: "securityweek", Container: "div.article-content"},
}

var genericRule = Rule{Name: "generic", Paragraphs: true}

// Registry 站点规则表，按顺序匹配，未命中时回落到 generic
type Registry struct {
	rules    []Rule
	fallback Rule
}

// DefaultRegistry 内置规则表，只有 bleepingcomputer 走渲染抓取
func DefaultRegistry() *Registry {
	return &Registry{
		rules:    append([]Rule(nil), knownRules...),
		fallback: genericRule,
	}
}

// WithRendered 返回一份新的规则表，渲染抓取的站点由 names 决定（按规则名匹配）
func (r *Registry) WithRendered(names []string) *Registry {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			set[n] = true
		}
	}

	out := &Registry{
		rules:    make([]Rule, len(r.rules)),
		fallback: r.fallback,
	}
	for i, rule := range r.rules {
		rule.Rendered = set[rule.Name]
		delete(set, rule.Name)
		out.rules[i] = rule
	}
	out.fallback.Rendered = set[out.fallback.Name]
	delete(set, out.fallback.Name)

	for n := range set {
		log.Printf("registry: unknown rendered source %q ignored", n)
	}
	return out
}

// Lookup 根据文章 URL 选出提取规则
func (r *Registry) Lookup(url string) Rule {
	for _, rule := range r.rules {
		if strings.Contains(url, rule.Marker) {
			return rule
		}
	}
	return r.fallback
}

// Rules 返回全部规则，generic 排在最后
func (r *Registry) Rules() []Rule {
	out := make([]Rule, 0, len(r.rules)+1)
	out = append(out, r.rules...)
	return append(out, r.fallback)
}
