package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/voxagent/voxagent/internal/schema"
)

const (
	webUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"
	maxRedirects = 5
	maxBodyBytes = 5 << 20
)

// validateURL checks that url is http(s) with a valid domain.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http/https allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing domain in URL")
	}
	return nil
}

// WebpageReader fetches a URL and extracts its readable text so the assistant
// can summarise it aloud.
type WebpageReader struct {
	maxChars   int
	httpClient *http.Client
}

// NewWebpageReader creates a WebpageReader. maxChars defaults to 8000 and
// timeout to 30s.
func NewWebpageReader(maxChars int, timeout time.Duration) *WebpageReader {
	if maxChars <= 0 {
		maxChars = 8000
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
	return &WebpageReader{maxChars: maxChars, httpClient: client}
}

// Definition returns the read_webpage tool.
func (t *WebpageReader) Definition() ToolDefinition {
	return ToolDefinition{
		Name:        string(ToolReadWebpage),
		Description: "Fetch a web page and return its readable text.",
		Parameters: map[string]schema.ParamSpec{
			"url":       {Type: schema.TypeString, Description: "URL to fetch", Required: true},
			"max_chars": {Type: schema.TypeInteger, Description: "Maximum characters of text to return"},
		},
		Handler: t.read,
	}
}

func (t *WebpageReader) read(ctx context.Context, args map[string]any) (map[string]any, error) {
	var in struct {
		URL      string `mapstructure:"url"`
		MaxChars int    `mapstructure:"max_chars"`
	}
	if err := Decode(args, &in); err != nil {
		return nil, err
	}
	if err := validateURL(in.URL); err != nil {
		return nil, fmt.Errorf("URL validation failed: %w", err)
	}
	maxChars := t.maxChars
	if in.MaxChars >= 100 {
		maxChars = in.MaxChars
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", webUserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	ctype := resp.Header.Get("Content-Type")
	finalURL := resp.Request.URL.String()

	var text, title, extractor string

	switch {
	case strings.Contains(ctype, "application/json"):
		var data any
		if err := json.Unmarshal(body, &data); err == nil {
			formatted, _ := json.MarshalIndent(data, "", "  ")
			text = string(formatted)
		} else {
			text = string(body)
		}
		extractor = "json"

	case strings.Contains(ctype, "text/html") || isHTMLPrefix(body):
		parsedURL, _ := url.Parse(finalURL)
		article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
		if err == nil {
			text = htmlToMarkdown(article.Content)
			title = article.Title
		} else {
			text = stripHTMLTags(string(body))
		}
		extractor = "readability"

	default:
		text = string(body)
		extractor = "raw"
	}

	truncated := len(text) > maxChars
	if truncated {
		text = text[:maxChars]
	}

	return map[string]any{
		"status":      StatusSuccess,
		"url":         in.URL,
		"final_url":   finalURL,
		"http_status": resp.StatusCode,
		"title":       title,
		"extractor":   extractor,
		"truncated":   truncated,
		"length":      len(text),
		"text":        text,
	}, nil
}

// isHTMLPrefix returns true if the body starts with an HTML declaration.
func isHTMLPrefix(b []byte) bool {
	prefix := strings.ToLower(strings.TrimSpace(string(b[:min(256, len(b))])))
	return strings.HasPrefix(prefix, "<!doctype") || strings.HasPrefix(prefix, "<html")
}

// ---- HTML to text ----

var (
	reScript    = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle     = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reTags      = regexp.MustCompile(`<[^>]+>`)
	reSpaces    = regexp.MustCompile(`[ \t]+`)
	reNewlines  = regexp.MustCompile(`\n{3,}`)
	reLinks     = regexp.MustCompile(`(?is)<a\s+[^>]*href=["']([^"']+)["'][^>]*>([\s\S]*?)</a>`)
	reHeadings  = regexp.MustCompile(`(?is)<h([1-6])[^>]*>([\s\S]*?)</h[1-6]>`)
	reListItems = regexp.MustCompile(`(?is)<li[^>]*>([\s\S]*?)</li>`)
	reBlockEnd  = regexp.MustCompile(`(?is)</(p|div|section|article)>`)
	reLineBreak = regexp.MustCompile(`(?is)<(br|hr)\s*/?>`)
)

// stripHTMLTags removes all HTML tags and normalizes whitespace.
func stripHTMLTags(text string) string {
	text = reScript.ReplaceAllString(text, "")
	text = reStyle.ReplaceAllString(text, "")
	text = reTags.ReplaceAllString(text, "")
	return normalizeWhitespace(text)
}

// htmlToMarkdown converts HTML to a simple markdown representation.
func htmlToMarkdown(htmlText string) string {
	text := reLinks.ReplaceAllStringFunc(htmlText, func(m string) string {
		parts := reLinks.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		return fmt.Sprintf("[%s](%s)", stripHTMLTags(parts[2]), parts[1])
	})
	text = reHeadings.ReplaceAllStringFunc(text, func(m string) string {
		parts := reHeadings.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		level, _ := strconv.Atoi(parts[1])
		return fmt.Sprintf("\n%s %s\n", strings.Repeat("#", level), stripHTMLTags(parts[2]))
	})
	text = reListItems.ReplaceAllStringFunc(text, func(m string) string {
		parts := reListItems.FindStringSubmatch(m)
		if len(parts) < 2 {
			return m
		}
		return "\n- " + stripHTMLTags(parts[1])
	})
	text = reBlockEnd.ReplaceAllString(text, "\n\n")
	text = reLineBreak.ReplaceAllString(text, "\n")
	return stripHTMLTags(text)
}

func normalizeWhitespace(text string) string {
	text = reSpaces.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
