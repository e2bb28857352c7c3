package headless

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// maxProbeBody caps how much of a page the prober reads for metadata.
const maxProbeBody = 512 * 1024

// PageInfo is what the prober learned about a reachable page.
type PageInfo struct {
	URL         string
	Title       string
	Description string
}

// Prober validates candidate URLs before the load protocol commits
// them. http(s) URLs are fetched with a retrying client; file:// URLs
// must exist and hold HTML; about:blank and data: URLs are always
// reachable.
type Prober struct {
	client    *resty.Client
	timeout   time.Duration
	sanitizer *bluemonday.Policy
}

// NewProber creates a prober with the given per-probe timeout and
// default user agent.
func NewProber(timeout time.Duration, userAgent string) *Prober {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTransport(retryClient.HTTPClient.Transport)

	return &Prober{
		client:    client,
		timeout:   timeout,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Probe checks that rawURL is reachable and extracts page metadata.
// A non-nil error means the candidate must not be committed.
func (p *Prober) Probe(ctx context.Context, rawURL, userAgent string) (PageInfo, error) {
	info := PageInfo{URL: rawURL}

	if rawURL == "about:blank" || strings.HasPrefix(rawURL, "data:") {
		return info, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return info, fmt.Errorf("parse url: %w", err)
	}

	switch u.Scheme {
	case "file":
		return p.probeFile(info, u)
	case "http", "https":
		return p.probeHTTP(ctx, info, rawURL, userAgent)
	default:
		return info, fmt.Errorf("unsupported url scheme: %s", u.Scheme)
	}
}

// probeFile requires the target to exist and to be an HTML document.
func (p *Prober) probeFile(info PageInfo, u *url.URL) (PageInfo, error) {
	path := u.Path
	fi, err := os.Stat(path)
	if err != nil {
		return info, fmt.Errorf("local file: %w", err)
	}
	if fi.IsDir() {
		return info, fmt.Errorf("local file %s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return info, fmt.Errorf("detect file type: %w", err)
	}
	if !mt.Is("text/html") {
		return info, fmt.Errorf("local file %s is %s, not HTML", path, mt.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return info, fmt.Errorf("read local file: %w", err)
	}
	if len(data) > maxProbeBody {
		data = data[:maxProbeBody]
	}
	p.extractMetadata(&info, data)
	return info, nil
}

func (p *Prober) probeHTTP(ctx context.Context, info PageInfo, rawURL, userAgent string) (PageInfo, error) {
	req := p.client.R().SetContext(ctx)
	if userAgent != "" {
		req.SetHeader("User-Agent", userAgent)
	}

	resp, err := req.Get(rawURL)
	if err != nil {
		return info, fmt.Errorf("probe %s: %w", rawURL, err)
	}
	if resp.StatusCode() >= 400 {
		return info, fmt.Errorf("probe %s: status %d", rawURL, resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxProbeBody {
		body = body[:maxProbeBody]
	}
	p.extractMetadata(&info, body)
	return info, nil
}

// extractMetadata pulls the title and description out of page bytes.
// Extraction failures are tolerated: reachability is the contract,
// metadata is best-effort.
func (p *Prober) extractMetadata(info *PageInfo, data []byte) {
	doc, err := parseHTML(data)
	if err != nil {
		return
	}
	if title := doc.Find("title").First().Text(); title != "" {
		info.Title = p.sanitizer.Sanitize(strings.TrimSpace(title))
	}

	node, err := parseHTMLNode(data)
	if err != nil {
		return
	}
	if meta := htmlquery.FindOne(node, `//meta[@name="description"]/@content`); meta != nil {
		info.Description = p.sanitizer.Sanitize(strings.TrimSpace(htmlquery.InnerText(meta)))
	}
}

// detectCharset picks the best-guess encoding of page bytes.
func detectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// parseHTML parses page bytes into a goquery document with charset
// conversion.
func parseHTML(data []byte) (*goquery.Document, error) {
	utf8Reader, err := charset.NewReader(bytes.NewReader(data), detectCharset(data))
	if err != nil {
		return goquery.NewDocumentFromReader(bytes.NewReader(data))
	}
	return goquery.NewDocumentFromReader(utf8Reader)
}

// parseHTMLNode parses page bytes into an xpath-compatible node.
func parseHTMLNode(data []byte) (*html.Node, error) {
	utf8Reader, err := charset.NewReader(bytes.NewReader(data), detectCharset(data))
	if err != nil {
		return htmlquery.Parse(bytes.NewReader(data))
	}
	return htmlquery.Parse(utf8Reader)
}
