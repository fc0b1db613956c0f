package tools

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// BrowserFetchTool renders a URL in a headless browser before extracting
// its content. It exists as web_fetch's "browser_fetch" alternative method:
// a plain HTTP GET can't execute the JavaScript a page needs to populate
// its content. The dispatcher's fallback chain reaches for this only when
// web_fetch fails; a fetch that succeeds with an empty or client-rendered
// page is returned as it is.
type BrowserFetchTool struct {
	timeout time.Duration
}

func NewBrowserFetchTool() *BrowserFetchTool {
	return &BrowserFetchTool{timeout: 30 * time.Second}
}

func (t *BrowserFetchTool) Descriptor() Descriptor {
	return NewDescriptor("browser_fetch", "Render a URL in a headless browser and extract the rendered page text").
		WithCapabilities("web:fetch", "web:render", "net:http").
		WithNetwork().
		WithParameter(ParameterSpec{Name: "url", Type: "string", Required: true, Description: "HTTP or HTTPS URL to render"})
}

func (t *BrowserFetchTool) Execute(ctx context.Context, tc *Context) *Result {
	rawURL, ok := tc.Param("url")
	if !ok || rawURL == "" {
		return Fail("url is required")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Fail("url must be an http or https URL")
	}
	if err := checkSSRF(rawURL); err != nil {
		return Fail(fmt.Sprintf("SSRF protection: %v", err))
	}

	text, err := t.render(ctx, rawURL)
	if err != nil {
		return Fail(fmt.Sprintf("browser render failed: %v", err))
	}
	return OK(wrapExternalContent(text, "Browser Fetch", true))
}

func (t *BrowserFetchTool) render(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	u := launcher.New().Headless(true).MustLaunch()
	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: rawURL})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait for load: %w", err)
	}

	body, err := page.Element("body")
	if err != nil {
		return "", fmt.Errorf("locate body: %w", err)
	}
	text, err := body.Text()
	if err != nil {
		return "", fmt.Errorf("extract text: %w", err)
	}
	return text, nil
}

func (t *BrowserFetchTool) AlternativeMethod(ctx context.Context, name string, tc *Context) (*Result, bool) {
	return nil, false
}
