package storage

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/LJTian/SecNewsHub/internal/collector"
	"github.com/LJTian/SecNewsHub/internal/processor"
)

func sampleNews() processor.AggregatedNews {
	return processor.Aggregate([]collector.Article{
		{Title: "A", Link: "https://krebsonsecurity.com/a", Summary: "sa", Published: "Fri, 19 Jul 2024 14:24:27 +0000", Source: "Krebs on Security", Content: "body <a> & more"},
		{Title: "B", Link: "https://www.darkreading.com/b", Summary: collector.NoSummary, Published: "Thu, 18 Jul 2024 10:00:00 GMT", Source: "Dark Reading", Content: collector.Sentinel},
		{Title: "C", Link: "https://www.securityweek.com/c", Summary: "sc", Published: "2024-07-19T09:00:00Z", Source: "SecurityWeek", Content: "body c"},
	})
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "cybersecurity_news.json")
	fs := NewFileStore(path)
	news := sampleNews()

	if err := fs.Save(context.Background(), news); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.HasPrefix(string(raw), "{\n    \"2024-07-19\": [\n        {\n            \"title\": \"A\",") {
		t.Fatalf("unexpected file layout:\n%s", raw)
	}
	if !strings.Contains(string(raw), `"body <a> & more"`) {
		t.Fatalf("html characters should not be escaped:\n%s", raw)
	}

	back, err := fs.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if !reflect.DeepEqual(back.Dates(), news.Dates()) {
		t.Fatalf("dates = %v, want %v", back.Dates(), news.Dates())
	}
	for _, d := range news.Dates() {
		if !reflect.DeepEqual(back.Articles(d), news.Articles(d)) {
			t.Fatalf("articles for %s differ", d)
		}
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
}

func TestFileStoreOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.json")
	fs := NewFileStore(path)
	ctx := context.Background()

	if err := fs.Save(ctx, sampleNews()); err != nil {
		t.Fatalf("first Save error: %v", err)
	}
	second := processor.Aggregate([]collector.Article{
		{Title: "Only", Link: "https://example.com/only", Published: "2024-08-01T00:00:00Z", Source: "Example"},
	})
	if err := fs.Save(ctx, second); err != nil {
		t.Fatalf("second Save error: %v", err)
	}

	dates, err := fs.ListDates(ctx)
	if err != nil {
		t.Fatalf("ListDates error: %v", err)
	}
	if !reflect.DeepEqual(dates, []string{"2024-08-01"}) {
		t.Fatalf("dates after overwrite = %v", dates)
	}
}

func TestFileStoreListNewsFilters(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "news.json"))
	ctx := context.Background()
	if err := fs.Save(ctx, sampleNews()); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	all, err := fs.ListNews(ctx, "", "")
	if err != nil {
		t.Fatalf("ListNews error: %v", err)
	}
	if len(all) != 3 || all[0].Title != "A" || all[1].Title != "C" || all[2].Title != "B" {
		t.Fatalf("all = %+v", all)
	}

	day, _ := fs.ListNews(ctx, "2024-07-19", "")
	if len(day) != 2 {
		t.Fatalf("2024-07-19 = %d articles, want 2", len(day))
	}

	bySource, _ := fs.ListNews(ctx, "2024-07-19", "SecurityWeek")
	if len(bySource) != 1 || bySource[0].Title != "C" {
		t.Fatalf("source filter = %+v", bySource)
	}

	none, _ := fs.ListNews(ctx, "1999-01-01", "")
	if len(none) != 0 {
		t.Fatalf("unknown date should be empty, got %+v", none)
	}
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	fs := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	if _, err := fs.Load(); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSnapshotRowsKeepOrder(t *testing.T) {
	news := sampleNews()
	rows, err := snapshotRows(news)
	if err != nil {
		t.Fatalf("snapshotRows error: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	wantTitles := []string{"A", "C", "B"}
	wantDates := []string{"2024-07-19", "2024-07-19", "2024-07-18"}
	for i, r := range rows {
		if r.Seq != i {
			t.Fatalf("row %d Seq = %d", i, r.Seq)
		}
		if r.Title != wantTitles[i] {
			t.Fatalf("row %d Title = %q, want %q", i, r.Title, wantTitles[i])
		}
		if got := time.Time(r.PublishedDate).Format(dateLayout); got != wantDates[i] {
			t.Fatalf("row %d date = %s, want %s", i, got, wantDates[i])
		}
	}

	if rows[0].article() != news.Articles("2024-07-19")[0] {
		t.Fatalf("record does not convert back to the same article")
	}
}

func TestSnapshotRowsRejectsBadDateKey(t *testing.T) {
	var news processor.AggregatedNews
	news.Add("not-a-date", collector.Article{Title: "x"})
	if _, err := snapshotRows(news); err == nil {
		t.Fatalf("expected error for malformed date key")
	}
}

func TestNewsCacheKey(t *testing.T) {
	if got := newsCacheKey("2024-07-19", "Threatpost"); got != "secnews:news:2024-07-19:Threatpost" {
		t.Fatalf("newsCacheKey = %q", got)
	}
}
