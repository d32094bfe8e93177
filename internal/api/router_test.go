package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/LJTian/SecNewsHub/internal/collector"
	"github.com/LJTian/SecNewsHub/internal/processor"
	"github.com/LJTian/SecNewsHub/internal/storage"
	"github.com/gin-gonic/gin"
)

type fakeExtractor struct {
	content string
	fetched []string
}

func (f *fakeExtractor) Route(url string) (collector.Rule, collector.Mode) {
	return collector.NewArticleFetcher(nil, nil, nil).Route(url)
}

func (f *fakeExtractor) Fetch(_ context.Context, url string) string {
	f.fetched = append(f.fetched, url)
	return f.content
}

// staticResolver 测试中代替 DNS，未登记的主机解析失败
type staticResolver map[string]string

func (r staticResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	ip, ok := r[host]
	if !ok {
		return nil, &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}
	}
	return []net.IPAddr{{IP: net.ParseIP(ip)}}, nil
}

var testResolver = staticResolver{
	"www.bleepingcomputer.com": "104.20.0.1",
	"example.com":              "93.184.216.34",
	"intranet.corp":            "10.0.0.5",
	"localhost":                "127.0.0.1",
}

type envelope struct {
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T, reader NewsReader, ex Extractor) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	s := NewServer(reader, ex)
	s.resolver = testResolver
	s.RegisterRoutes(r)
	return r
}

func do(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func savedStore(t *testing.T) *storage.FileStore {
	t.Helper()
	fs := storage.NewFileStore(filepath.Join(t.TempDir(), "news.json"))
	news := processor.Aggregate([]collector.Article{
		{Title: "old", Link: "https://threatpost.com/old", Published: "Wed, 17 Jul 2024 10:00:00 GMT", Source: "Threatpost"},
		{Title: "new", Link: "https://krebsonsecurity.com/new", Published: "Fri, 19 Jul 2024 14:24:27 +0000", Source: "Krebs on Security"},
		{Title: "new2", Link: "https://www.securityweek.com/new2", Published: "2024-07-19T18:00:00Z", Source: "SecurityWeek"},
	})
	if err := fs.Save(context.Background(), news); err != nil {
		t.Fatalf("save fixture: %v", err)
	}
	return fs
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, savedStore(t), &fakeExtractor{})
	w, _ := do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestListDatesOrdering(t *testing.T) {
	r := newTestRouter(t, savedStore(t), &fakeExtractor{})

	cases := map[string][]string{
		"/api/v1/dates":            {"2024-07-17", "2024-07-19"},
		"/api/v1/dates?order=desc": {"2024-07-19", "2024-07-17"},
		"/api/v1/dates?order=asc":  {"2024-07-17", "2024-07-19"},
	}
	for target, want := range cases {
		w, env := do(t, r, http.MethodGet, target, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", target, w.Code)
		}
		var got []string
		if err := json.Unmarshal(env.Data, &got); err != nil {
			t.Fatalf("%s decode: %v", target, err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("%s = %v, want %v", target, got, want)
		}
	}
}

func TestListNewsFilters(t *testing.T) {
	r := newTestRouter(t, savedStore(t), &fakeExtractor{})

	w, env := do(t, r, http.MethodGet, "/api/v1/news?date=2024-07-19&source=SecurityWeek", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var items []collector.Article
	if err := json.Unmarshal(env.Data, &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].Title != "new2" {
		t.Fatalf("items = %+v", items)
	}

	w, _ = do(t, r, http.MethodGet, "/api/v1/news?date=19-07-2024", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad date status = %d, want 400", w.Code)
	}
}

func TestListNewsBeforeFirstRun(t *testing.T) {
	missing := storage.NewFileStore(filepath.Join(t.TempDir(), "none.json"))
	r := newTestRouter(t, missing, &fakeExtractor{})

	w, env := do(t, r, http.MethodGet, "/api/v1/news", "")
	if w.Code != http.StatusNotFound || env.Code != "not_found" {
		t.Fatalf("status = %d code = %q, want 404 not_found", w.Code, env.Code)
	}
}

func TestExtract(t *testing.T) {
	ex := &fakeExtractor{content: "full body"}
	r := newTestRouter(t, savedStore(t), ex)

	w, env := do(t, r, http.MethodPost, "/api/v1/extract", `{"url":"https://www.bleepingcomputer.com/news/x/"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp extractResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Rule != "bleepingcomputer" || resp.Mode != "rendered" || !resp.OK || resp.Content != "full body" {
		t.Fatalf("resp = %+v", resp)
	}

	ex.content = collector.Sentinel
	_, env = do(t, r, http.MethodPost, "/api/v1/extract", `{"url":"https://example.com/a"}`)
	_ = json.Unmarshal(env.Data, &resp)
	if resp.OK || resp.Rule != "generic" || resp.Mode != "static" {
		t.Fatalf("sentinel resp = %+v", resp)
	}

	for _, body := range []string{
		`{}`,
		`{"url":"ftp://example.com/x"}`,
		`{"url":"/relative"}`,
		`not json`,
		`{"url":"http://127.0.0.1:8080/admin"}`,
		`{"url":"http://localhost/admin"}`,
		`{"url":"http://[::1]/admin"}`,
		`{"url":"http://169.254.169.254/latest/meta-data/"}`,
		`{"url":"http://192.168.1.10/"}`,
		`{"url":"http://0.0.0.0/"}`,
		`{"url":"http://intranet.corp/wiki"}`,
		`{"url":"http://unknown.invalid/"}`,
	} {
		w, _ := do(t, r, http.MethodPost, "/api/v1/extract", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %s status = %d, want 400", body, w.Code)
		}
	}
	if len(ex.fetched) != 2 {
		t.Fatalf("fetched = %v, want 2 calls", ex.fetched)
	}
}
