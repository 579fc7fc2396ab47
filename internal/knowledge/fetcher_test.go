package knowledge

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/stepsmith/internal/cache"
	"github.com/ppiankov/stepsmith/internal/model"
)

func testHTTPConfig() model.HTTPConfig {
	return model.HTTPConfig{
		Timeout:      5 * time.Second,
		UserAgent:    "test-agent",
		MaxBodyBytes: 1 << 20,
		RatePerSec:   100,
		RespectRobot: false,
	}
}

func TestFetcher_Fetch_HTML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, `<html><head><title>Azure Portal Guide</title>
			<script>var x = 1;</script><style>body{}</style></head>
			<body><h1>Creating resources</h1><p>Open the portal and sign in.</p></body></html>`)
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(), nil, 0, 1)
	source := fetcher.Fetch(context.Background(), server.URL+"/docs/azure-portal.html")

	if source.Err != "" {
		t.Fatalf("Expected no error, got %q", source.Err)
	}
	if source.Title != "Azure Portal Guide" {
		t.Errorf("Title = %q, want page title", source.Title)
	}
	if source.Type != "html" {
		t.Errorf("Type = %q, want html", source.Type)
	}
	if !strings.Contains(source.Content, "Open the portal and sign in.") {
		t.Errorf("Content missing body text: %q", source.Content)
	}
	if strings.Contains(source.Content, "var x") {
		t.Errorf("Content should not include script text: %q", source.Content)
	}
}

func TestFetcher_Fetch_PlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "step one: open the console")
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(), nil, 0, 1)
	source := fetcher.Fetch(context.Background(), server.URL+"/notes/setup_guide.txt")

	if source.Err != "" {
		t.Fatalf("Expected no error, got %q", source.Err)
	}
	if source.Type != "text" {
		t.Errorf("Type = %q, want text", source.Type)
	}
	if source.Content != "step one: open the console" {
		t.Errorf("Unexpected content: %q", source.Content)
	}
	if source.Title != "setup guide" {
		t.Errorf("Title = %q, want de-slugged path segment", source.Title)
	}
}

func TestFetcher_Fetch_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := attempts.Add(1)
		if n <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "recovered")
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(testHTTPConfig(), nil, 0, 1)
	source := fetcher.Fetch(context.Background(), server.URL)

	if source.Err != "" {
		t.Fatalf("Expected success after retries, got %q", source.Err)
	}
	if source.Content != "recovered" {
		t.Errorf("Unexpected content: %q", source.Content)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetcher_Fetch_NotFoundNotRetried(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(testHTTPConfig(), nil, 0, 1)
	source := fetcher.Fetch(context.Background(), server.URL)

	if source.Err == "" {
		t.Fatal("Expected error for 404")
	}
	if !strings.Contains(source.Err, "unexpected status: 404") {
		t.Errorf("Unexpected error: %q", source.Err)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt for non-retryable status, got %d", attempts.Load())
	}
}

func TestFetcher_Fetch_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	fetcher := NewFetcher(testHTTPConfig(), nil, 0, 1)
	source := fetcher.Fetch(context.Background(), server.URL)

	if source.Err == "" {
		t.Fatal("Expected error after retries exhausted")
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetcher_Fetch_RobotsDisallowed(t *testing.T) {
	var pageHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private")
	})
	mux.HandleFunc("/private/", func(w http.ResponseWriter, r *http.Request) {
		pageHits.Add(1)
		_, _ = fmt.Fprint(w, "secret")
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.RespectRobot = true
	fetcher := NewFetcher(cfg, nil, 0, 1)
	source := fetcher.Fetch(context.Background(), server.URL+"/private/page")

	if source.Err != "disallowed by robots.txt" {
		t.Errorf("Err = %q, want robots disallow", source.Err)
	}
	if pageHits.Load() != 0 {
		t.Errorf("Disallowed page was fetched %d times", pageHits.Load())
	}
}

func TestFetcher_Fetch_CachesSuccesses(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "cached body")
	}))
	defer server.Close()

	store := cache.NewMemoryCache(time.Minute, time.Minute)
	fetcher := NewFetcher(testHTTPConfig(), store, time.Minute, 1)

	first := fetcher.Fetch(context.Background(), server.URL)
	second := fetcher.Fetch(context.Background(), server.URL)

	if first.Err != "" || second.Err != "" {
		t.Fatalf("Unexpected errors: %q, %q", first.Err, second.Err)
	}
	if second.Content != first.Content {
		t.Errorf("Cached content differs: %q vs %q", second.Content, first.Content)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected 1 server hit, got %d", hits.Load())
	}
}

func TestFetcher_FetchAll_PreservesOrderAndFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "page "+r.URL.Path)
	}))
	defer server.Close()

	origSleep := fetchSleepFunc
	fetchSleepFunc = func(d time.Duration) {}
	defer func() { fetchSleepFunc = origSleep }()

	urls := []string{
		server.URL + "/one",
		server.URL + "/missing",
		server.URL + "/three",
	}

	fetcher := NewFetcher(testHTTPConfig(), nil, 0, 3)
	sources := fetcher.FetchAll(context.Background(), urls)

	if len(sources) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(sources))
	}
	for i, u := range urls {
		if sources[i].URL != u {
			t.Errorf("Record %d has URL %q, want %q", i, sources[i].URL, u)
		}
	}
	if sources[0].Content != "page /one" {
		t.Errorf("Unexpected first content: %q", sources[0].Content)
	}
	if sources[1].Err == "" {
		t.Error("Failed URL should carry an error record")
	}
	if sources[2].Content != "page /three" {
		t.Errorf("Unexpected third content: %q", sources[2].Content)
	}
}

func TestFetcher_FetchAll_Empty(t *testing.T) {
	fetcher := NewFetcher(testHTTPConfig(), nil, 0, 2)
	if sources := fetcher.FetchAll(context.Background(), nil); sources != nil {
		t.Errorf("Expected nil for no URLs, got %v", sources)
	}
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/docs/create-resource-group.html", "create resource group"},
		{"https://example.com/wiki/Azure_Portal", "Azure Portal"},
		{"https://example.com/", "example.com"},
		{"https://example.com", "example.com"},
	}

	for _, tt := range tests {
		if got := titleFromURL(tt.url); got != tt.want {
			t.Errorf("titleFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestExtractHTML_SkipsNonContent(t *testing.T) {
	title, text := extractHTML(`<html><head><title>Doc</title></head><body>
		<script>ignore()</script><noscript>no js</noscript>
		<p>visible one</p><div>visible two</div></body></html>`)

	if title != "Doc" {
		t.Errorf("title = %q, want Doc", title)
	}
	if !strings.Contains(text, "visible one") || !strings.Contains(text, "visible two") {
		t.Errorf("missing visible text: %q", text)
	}
	if strings.Contains(text, "ignore()") || strings.Contains(text, "no js") {
		t.Errorf("non-content text leaked: %q", text)
	}
}

func TestIsRetryableStatus(t *testing.T) {
	tests := []struct {
		code      int
		retryable bool
	}{
		{http.StatusServiceUnavailable, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusTooManyRequests, true},
		{http.StatusNotFound, false},
		{http.StatusForbidden, false},
		{http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		if got := isRetryableStatus(tt.code); got != tt.retryable {
			t.Errorf("isRetryableStatus(%d) = %v, want %v", tt.code, got, tt.retryable)
		}
	}
}
