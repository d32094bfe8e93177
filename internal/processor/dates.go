package processor

import (
	"fmt"
	"strings"
	"time"
)

// 按优先级依次尝试，取第一个能解析的格式
var dateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 MST",   // Fri, 19 Jul 2024 14:24:27 GMT
	"Mon, 2 Jan 2006 15:04:05 -0700", // Fri, 19 Jul 2024 14:24:27 +0000
	"2006-01-02T15:04:05Z",           // 2024-07-19T14:24:27Z
	"2006-01-02T15:04:05.999999Z",    // 2024-07-19T14:24:27.123456Z
}

// DateFormatError 时间字符串不符合任何已知格式
type DateFormatError struct {
	Raw string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("date format for %q not recognized", e.Raw)
}

// Date 日历日期，不带时刻和时区
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// String 返回 ISO-8601 日期，例如 2024-07-19
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// NormalizeDate 解析 feed 中的发布时间，只保留日期部分。
// 日期按字符串自带的时区计算，不转换到 UTC 或本地时区。
func NormalizeDate(raw string) (Date, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return Date{Year: y, Month: m, Day: d}, nil
	}
	return Date{}, &DateFormatError{Raw: raw}
}
