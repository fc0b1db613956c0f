package tools

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

const (
	defaultSearchCount   = 5
	maxSearchCount       = 10
	searchTimeoutSeconds = 30
	braveSearchEndpoint  = "https://api.search.brave.com/res/v1/web/search"
	webSearchUserAgent   = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// SearchProvider abstracts a web search backend.
type SearchProvider interface {
	Search(ctx context.Context, params searchParams) ([]searchResult, error)
	Name() string
}

type searchParams struct {
	Query      string
	Count      int
	Country    string
	SearchLang string
	UILang     string
	Freshness  string
}

type searchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

var (
	freshnessShortcuts = map[string]bool{"pd": true, "pw": true, "pm": true, "py": true}
	freshnessRangeRe   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})to(\d{4}-\d{2}-\d{2})$`)
)

func normalizeFreshness(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return ""
	}
	if freshnessShortcuts[v] {
		return v
	}
	if m := freshnessRangeRe.FindStringSubmatch(v); len(m) == 3 {
		start, errS := time.Parse("2006-01-02", m[1])
		end, errE := time.Parse("2006-01-02", m[2])
		if errS == nil && errE == nil && !start.After(end) {
			return v
		}
	}
	return ""
}

// WebSearchTool queries one or more search providers, in priority order,
// and returns the first successful result set. Brave is tried before
// DuckDuckGo when both are configured.
type WebSearchTool struct {
	providers []SearchProvider
	cache     *webCache
}

type WebSearchConfig struct {
	BraveAPIKey     string
	BraveEnabled    bool
	BraveMaxResults int
	DDGEnabled      bool
	DDGMaxResults   int
	CacheTTL        time.Duration
}

// NewWebSearchTool returns nil if no provider is configured; callers must
// check before registering.
func NewWebSearchTool(cfg WebSearchConfig) *WebSearchTool {
	var providers []SearchProvider
	if cfg.BraveEnabled && cfg.BraveAPIKey != "" {
		providers = append(providers, newBraveSearchProvider(cfg.BraveAPIKey))
	}
	if cfg.DDGEnabled {
		providers = append(providers, newDuckDuckGoSearchProvider())
	}
	if len(providers) == 0 {
		return nil
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &WebSearchTool{
		providers: providers,
		cache:     newWebCache(defaultCacheMaxEntries, ttl),
	}
}

func (t *WebSearchTool) Descriptor() Descriptor {
	return NewDescriptor("web_search", "Search the web for current information, returning titles, URLs, and snippets").
		WithCapabilities("web:search", "net:http").
		WithNetwork().
		WithParameter(ParameterSpec{Name: "query", Type: "string", Required: true, Description: "Search query string"}).
		WithParameter(ParameterSpec{Name: "count", Type: "number", Required: false, Description: "Number of results to return (1-10)"}).
		WithParameter(ParameterSpec{Name: "country", Type: "string", Required: false, Description: "2-letter country code for region-specific results"}).
		WithParameter(ParameterSpec{Name: "search_lang", Type: "string", Required: false, Description: "ISO language code for search results"}).
		WithParameter(ParameterSpec{Name: "ui_lang", Type: "string", Required: false, Description: "ISO language code for UI elements"}).
		WithParameter(ParameterSpec{Name: "freshness", Type: "string", Required: false, Description: `"pd"/"pw"/"pm"/"py" or a "YYYY-MM-DDtoYYYY-MM-DD" range`})
}

func (t *WebSearchTool) Execute(ctx context.Context, tc *Context) *Result {
	query, ok := tc.Param("query")
	if !ok || query == "" {
		return Fail("query is required")
	}

	count := defaultSearchCount
	if c, ok := tc.Parameters["count"]; ok {
		if f, ok := c.(float64); ok && int(f) >= 1 && int(f) <= maxSearchCount {
			count = int(f)
		}
	}
	country, _ := tc.Param("country")
	searchLang, _ := tc.Param("search_lang")
	uiLang, _ := tc.Param("ui_lang")
	freshness, _ := tc.Param("freshness")

	params := searchParams{
		Query:      query,
		Count:      count,
		Country:    country,
		SearchLang: searchLang,
		UILang:     uiLang,
		Freshness:  freshness,
	}

	cacheKey := buildSearchCacheKey(params)
	if cached, ok := t.cache.get(cacheKey); ok {
		slog.Debug("web_search cache hit", "query", query)
		return OK(cached)
	}

	var lastErr error
	for _, provider := range t.providers {
		results, err := provider.Search(ctx, params)
		if err != nil {
			slog.Warn("web_search provider failed", "provider", provider.Name(), "error", err)
			lastErr = err
			continue
		}
		formatted := formatSearchResults(query, results, provider.Name())
		wrapped := wrapExternalContent(formatted, "Web Search", false)
		t.cache.set(cacheKey, wrapped)
		return OK(wrapped)
	}

	if lastErr != nil {
		return Fail(fmt.Sprintf("all search providers failed: %v", lastErr))
	}
	return Fail("no search providers configured")
}

func (t *WebSearchTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	return nil, false
}

func buildSearchCacheKey(p searchParams) string {
	parts := []string{
		p.Query,
		fmt.Sprintf("%d", p.Count),
		orDefault(p.Country, "default"),
		orDefault(p.SearchLang, "default"),
		orDefault(p.UILang, "default"),
		orDefault(p.Freshness, "default"),
	}
	return strings.Join(parts, ":")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatSearchResults(query string, results []searchResult, provider string) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for: %s", query)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Search results for: %s (via %s)\n\n", query, provider)
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Description != "" {
			fmt.Fprintf(&sb, "   %s\n", r.Description)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

func truncateStr(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
