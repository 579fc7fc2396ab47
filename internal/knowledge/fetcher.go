package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/stepsmith/internal/cache"
	"github.com/ppiankov/stepsmith/internal/model"
	"github.com/ppiankov/stepsmith/internal/util"
	"github.com/ppiankov/stepsmith/internal/worker"
)

// maxContentChars caps extracted text per source so one huge page cannot
// dominate downstream matching.
const maxContentChars = 100_000

// fetchAttempts bounds retries on transient failures (connection errors,
// 429, 5xx).
const fetchAttempts = 3

// fetchSleepFunc is swapped out in tests to avoid real backoff waits.
var fetchSleepFunc = time.Sleep

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// Fetcher retrieves external knowledge sources referenced alongside a
// transcript. Failures are recorded on the returned record, never returned
// as errors: a dead link degrades grounding, it does not abort a document.
type Fetcher struct {
	httpClient    *http.Client
	userAgent     string
	maxBytes      int64
	respectRobots bool
	robots        *util.RobotsChecker
	limiter       *worker.Limiter
	store         cache.Cache
	cacheTTL      time.Duration
	workers       int
}

// NewFetcher creates a Fetcher from HTTP configuration. store may be nil to
// disable caching. workers bounds concurrent fetches in FetchAll.
func NewFetcher(cfg model.HTTPConfig, store cache.Cache, cacheTTL time.Duration, workers int) *Fetcher {
	if workers <= 0 {
		workers = 1
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:     cfg.UserAgent,
		maxBytes:      cfg.MaxBodyBytes,
		respectRobots: cfg.RespectRobot,
		robots:        util.NewRobotsChecker(util.NormalizeUserAgent(cfg.UserAgent), cfg.Timeout),
		limiter:       worker.NewLimiter(cfg.RatePerSec, 5),
		store:         store,
		cacheTTL:      cacheTTL,
		workers:       workers,
	}
}

// Fetch retrieves one URL and extracts its readable content.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) model.KnowledgeSource {
	if cached, ok := f.cached(rawURL); ok {
		return cached
	}

	source := f.fetch(ctx, rawURL)
	if source.Err == "" {
		f.setCached(rawURL, source)
	}
	return source
}

// fetchJob adapts one URL fetch to the worker pool.
type fetchJob struct {
	fetcher *Fetcher
	ctx     context.Context
	index   int
	url     string
}

type fetchResult struct {
	index  int
	source model.KnowledgeSource
}

func (r fetchResult) GetError() error { return nil }

func (j fetchJob) Execute(ctx context.Context) worker.Result {
	return fetchResult{index: j.index, source: j.fetcher.Fetch(j.ctx, j.url)}
}

// FetchAll retrieves every URL concurrently and returns records in input
// order. The result always has one entry per URL.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) []model.KnowledgeSource {
	if len(urls) == 0 {
		return nil
	}

	pool := worker.NewPool(f.workers)
	pool.Start()

	for i, u := range urls {
		pool.Submit(fetchJob{fetcher: f, ctx: ctx, index: i, url: u})
	}

	sources := make([]model.KnowledgeSource, len(urls))
	for i, u := range urls {
		sources[i] = model.KnowledgeSource{URL: u, Err: "not fetched"}
	}
	for _, res := range pool.Wait() {
		if fr, ok := res.(fetchResult); ok {
			sources[fr.index] = fr.source
		}
	}

	return sources
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) model.KnowledgeSource {
	source := model.KnowledgeSource{URL: rawURL, Title: titleFromURL(rawURL)}

	if f.respectRobots {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			source.Err = fmt.Sprintf("robots check: %v", err)
			return source
		}
		if !allowed {
			source.Err = "disallowed by robots.txt"
			return source
		}
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			source.Err = fmt.Sprintf("rate limit wait: %v", err)
			return source
		}
	} else if err := f.limiter.Wait(ctx, rawURL); err != nil {
		source.Err = fmt.Sprintf("rate limit wait: %v", err)
		return source
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		source.Err = fmt.Sprintf("create request: %v", err)
		return source
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	var body []byte
	var contentType string
	for attempt := 1; ; attempt++ {
		resp, err := f.httpClient.Do(req)
		if err != nil {
			source.Err = fmt.Sprintf("fetch: %v", err)
			if attempt >= fetchAttempts {
				return source
			}
			fetchSleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			source.Err = fmt.Sprintf("unexpected status: %d %s", resp.StatusCode, resp.Status)
			if attempt >= fetchAttempts || !isRetryableStatus(resp.StatusCode) {
				return source
			}
			fetchSleepFunc(time.Duration(attempt) * 500 * time.Millisecond)
			continue
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
		_ = resp.Body.Close()
		if err != nil {
			source.Err = fmt.Sprintf("read body: %v", err)
			return source
		}

		source.Err = ""
		contentType = resp.Header.Get("Content-Type")
		break
	}
	if strings.Contains(contentType, "text/html") {
		title, text := extractHTML(string(body))
		if title != "" {
			source.Title = title
		}
		source.Content = truncate(text, maxContentChars)
		source.Type = "html"
		return source
	}

	source.Content = truncate(string(body), maxContentChars)
	source.Type = "text"
	return source
}

func (f *Fetcher) cached(rawURL string) (model.KnowledgeSource, bool) {
	if f.store == nil {
		return model.KnowledgeSource{}, false
	}

	data, found := f.store.Get(cache.CacheKey(rawURL))
	if !found {
		return model.KnowledgeSource{}, false
	}

	var source model.KnowledgeSource
	if err := json.Unmarshal(data, &source); err != nil {
		return model.KnowledgeSource{}, false
	}
	return source, true
}

func (f *Fetcher) setCached(rawURL string, source model.KnowledgeSource) {
	if f.store == nil {
		return
	}

	data, err := json.Marshal(source)
	if err != nil {
		return
	}
	_ = f.store.Set(cache.CacheKey(rawURL), data, f.cacheTTL)
}

// extractHTML parses an HTML document and returns its title and visible text.
// Script, style, and other non-content subtrees are skipped.
func extractHTML(htmlContent string) (string, string) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", ""
	}

	var title string
	var parts []string
	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg":
				return
			case "title":
				if title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return title, strings.Join(parts, " ")
}

// titleFromURL derives a readable fallback title from the URL path.
func titleFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
