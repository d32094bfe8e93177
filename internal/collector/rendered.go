package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const defaultRenderTimeout = 60 * time.Second

// RenderedRetriever 用 headless Chrome 打开页面，等脚本执行完后在实时 DOM 上提取正文。
// 每次调用独占一个浏览器进程，返回前一定释放。
type RenderedRetriever struct {
	UserAgent string
	ExecPath  string // 为空时由 chromedp 自行查找 Chrome
	Timeout   time.Duration
}

type renderedResult struct {
	Found bool   `json:"found"`
	Text  string `json:"text"`
}

func (r *RenderedRetriever) Retrieve(ctx context.Context, url string, rule Rule) (Extraction, error) {
	ua := r.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(ua))
	if r.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultRenderTimeout
	}
	runCtx, cancel := context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var res renderedResult
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(ruleJS(rule), &res),
	)
	if err != nil {
		return Extraction{}, fmt.Errorf("rendered: %w", err)
	}

	return newExtraction(res.Text, res.Found), nil
}

// ruleJS 把规则翻译成一段在页面里执行的 JS，返回 {found, text}
func ruleJS(rule Rule) string {
	container, _ := json.Marshal(rule.Container)
	return fmt.Sprintf(`(function (container, paragraphs) {
  var root = container ? document.querySelector(container) : document.body;
  if (!root) return {found: false, text: ""};
  if (!paragraphs) return {found: true, text: root.innerText || ""};
  var nodes = root.querySelectorAll("p");
  var parts = [];
  for (var i = 0; i < nodes.length; i++) {
    parts.push(nodes[i].innerText || "");
  }
  return {found: true, text: parts.join("\n")};
})(%s, %t);`, container, rule.Paragraphs)
}
