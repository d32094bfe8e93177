package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/LJTian/SecNewsHub/internal/processor"
	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor = lipgloss.Color("#2DA44E")
	dimColor    = lipgloss.Color("#6E7681")
	linkColor   = lipgloss.Color("#58A6FF")
	titleColor  = lipgloss.Color("#39D353")
	dateColor   = lipgloss.Color("#A371F7")
	sourceColor = lipgloss.Color("#FFA657")
)

type styles struct {
	date   lipgloss.Style
	title  lipgloss.Style
	source lipgloss.Style
	link   lipgloss.Style
	label  lipgloss.Style
	rule   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		date: r.NewStyle().
			Foreground(dateColor).
			Bold(true),
		title: r.NewStyle().
			Foreground(titleColor).
			Bold(true),
		source: r.NewStyle().
			Foreground(sourceColor),
		link: r.NewStyle().
			Foreground(linkColor).
			Underline(true),
		label: r.NewStyle().
			Foreground(accentColor).
			Bold(true),
		rule: r.NewStyle().
			Foreground(dimColor),
	}
}

// Printer 按日期打印聚合结果；颜色由 w 是否为终端决定，重定向到文件时输出纯文本
type Printer struct {
	w  io.Writer
	st styles
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w, st: newStyles(lipgloss.NewRenderer(w))}
}

// Print 日期和文章都按结构里的顺序输出
func (p *Printer) Print(news processor.AggregatedNews) error {
	st := p.st
	for _, date := range news.Dates() {
		if _, err := fmt.Fprintf(p.w, "%s\n\n", st.date.Render("News for "+date+":")); err != nil {
			return err
		}
		for _, a := range news.Articles(date) {
			lines := []string{
				st.label.Render("Title:") + " " + st.title.Render(a.Title),
				st.label.Render("Source:") + " " + st.source.Render(a.Source),
				st.label.Render("Link:") + " " + st.link.Render(a.Link),
				st.label.Render("Summary:") + " " + a.Summary,
				st.label.Render("Content:") + " " + a.Content,
			}
			if _, err := fmt.Fprintf(p.w, "%s\n\n", strings.Join(lines, "\n")); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(p.w, st.rule.Render(strings.Repeat("-", 80))); err != nil {
			return err
		}
	}
	return nil
}
