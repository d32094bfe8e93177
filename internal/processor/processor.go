package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"

	"github.com/LJTian/SecNewsHub/internal/collector"
)

// AggregatedNews 按发布日期（YYYY-MM-DD）分组的文章。
// 日期键保持首次出现的顺序，同一天内保持抓取顺序；不做任何排序。
type AggregatedNews struct {
	dates   []string
	buckets map[string][]collector.Article
}

// Add 把文章追加到 date 对应的分组，分组不存在时创建
func (n *AggregatedNews) Add(date string, a collector.Article) {
	n.ensure(date)
	n.buckets[date] = append(n.buckets[date], a)
}

func (n *AggregatedNews) ensure(date string) {
	if n.buckets == nil {
		n.buckets = make(map[string][]collector.Article)
	}
	if _, ok := n.buckets[date]; !ok {
		n.dates = append(n.dates, date)
		n.buckets[date] = nil
	}
}

// Dates 返回所有日期键，顺序为首次出现的顺序
func (n AggregatedNews) Dates() []string {
	return append([]string(nil), n.dates...)
}

// Articles 返回某一天的文章副本
func (n AggregatedNews) Articles(date string) []collector.Article {
	return append([]collector.Article(nil), n.buckets[date]...)
}

// Len 文章总数
func (n AggregatedNews) Len() int {
	total := 0
	for _, d := range n.dates {
		total += len(n.buckets[d])
	}
	return total
}

// MarshalJSON 输出 JSON 对象，键顺序与 Dates() 一致
func (n AggregatedNews) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, d := range n.dates {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeInto(&buf, d); err != nil {
			return nil, err
		}
		buf.WriteByte(':')

		arts := n.buckets[d]
		if arts == nil {
			arts = []collector.Article{}
		}
		if err := encodeInto(&buf, arts); err != nil {
			return nil, fmt.Errorf("aggregated news: encode %s: %w", d, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeInto 不转义 HTML 字符，正文里的 <、& 原样保留
func encodeInto(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1) // 去掉 Encode 追加的换行
	return nil
}

// UnmarshalJSON 按文件中的键顺序还原
// null 视为空结果
func (n *AggregatedNews) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = AggregatedNews{}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("aggregated news: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("aggregated news: expected object, got %v", tok)
	}

	var out AggregatedNews
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("aggregated news: %w", err)
		}
		date, ok := tok.(string)
		if !ok {
			return fmt.Errorf("aggregated news: unexpected key %v", tok)
		}

		var arts []collector.Article
		if err := dec.Decode(&arts); err != nil {
			return fmt.Errorf("aggregated news: decode %s: %w", date, err)
		}
		out.ensure(date)
		out.buckets[date] = append(out.buckets[date], arts...)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("aggregated news: %w", err)
	}

	*n = out
	return nil
}

// Aggregate 按发布日期分组。发布时间无法解析的文章记录日志后丢弃，不影响其它文章。
// 没有隐藏状态：同一输入多次调用得到相同结果。
func Aggregate(articles []collector.Article) AggregatedNews {
	var out AggregatedNews
	for _, a := range articles {
		d, err := NormalizeDate(a.Published)
		if err != nil {
			log.Printf("skip article %q (%s): %v", a.Title, a.Link, err)
			continue
		}
		out.Add(d.String(), a)
	}
	return out
}
