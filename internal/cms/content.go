package cms

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when a content page cannot be located.
var ErrNotFound = errors.New("cms: not found")

//go:embed content
var embeddedContent embed.FS

// ContentPage is a localized markdown page, such as a featured story.
type ContentPage struct {
	Kind      string
	Slug      string
	Lang      string
	Title     string
	Summary   string
	Role      string
	Image     string
	Body      string
	UpdatedAt time.Time
}

// HTML renders the page body.
func (p ContentPage) HTML() (template.HTML, error) {
	return Render(p.Body)
}

type contentFrontMatter struct {
	Title     string `yaml:"title"`
	Summary   string `yaml:"summary"`
	Lang      string `yaml:"lang"`
	Role      string `yaml:"role"`
	Image     string `yaml:"image"`
	UpdatedAt string `yaml:"updated_at"`
}

const (
	defaultLang     = "en"
	defaultCacheTTL = 5 * time.Minute
)

// Client reads content pages from a remote CMS when configured, falling back to the
// embedded markdown tree.
type Client struct {
	baseURL string
	http    *http.Client
	content fs.FS
	logger  *zap.Logger
	ttl     time.Duration

	mu    sync.RWMutex
	cache map[string]contentCacheEntry
}

type contentCacheEntry struct {
	page    ContentPage
	expires time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithContentFS replaces the embedded markdown tree.
func WithContentFS(fsys fs.FS) Option {
	return func(c *Client) {
		if fsys != nil {
			c.content = fsys
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithCacheTTL overrides the in-memory cache duration.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// NewClient constructs a Client. baseURL may be empty.
func NewClient(baseURL string, opts ...Option) *Client {
	sub, _ := fs.Sub(embeddedContent, "content")
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 5 * time.Second},
		content: sub,
		logger:  zap.NewNop(),
		ttl:     defaultCacheTTL,
		cache:   map[string]contentCacheEntry{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetContentPage fetches a localized page. A missing translation falls back to English.
func (c *Client) GetContentPage(ctx context.Context, kind, slug, lang string) (ContentPage, error) {
	kind = strings.TrimSpace(strings.ToLower(kind))
	if kind == "" {
		kind = "content"
	}
	slug = sanitizeSlug(slug)
	if slug == "" {
		return ContentPage{}, ErrNotFound
	}
	lang = normalizeLang(lang)

	cacheKey := strings.Join([]string{kind, lang, slug}, "|")
	if page, ok := c.cached(cacheKey); ok {
		return page, nil
	}

	page, err := c.fetchContentPage(ctx, kind, slug, lang)
	if err != nil {
		return ContentPage{}, err
	}
	c.store(cacheKey, page)
	return page, nil
}

func (c *Client) fetchContentPage(ctx context.Context, kind, slug, lang string) (ContentPage, error) {
	if c.baseURL != "" {
		page, err := c.fetchContentPageRemote(ctx, kind, slug, lang)
		if err == nil {
			return page, nil
		}
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("cms: remote fetch failed, using embedded content",
				zap.String("kind", kind), zap.String("slug", slug), zap.Error(err))
		}
	}
	return c.fallbackContentPage(kind, slug, lang)
}

func (c *Client) fetchContentPageRemote(ctx context.Context, kind, slug, lang string) (ContentPage, error) {
	endpoint, err := url.JoinPath(c.baseURL, "content", kind, slug)
	if err != nil {
		return ContentPage{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ContentPage{}, err
	}
	q := req.URL.Query()
	q.Set("lang", lang)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return ContentPage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ContentPage{}, ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return ContentPage{}, fmt.Errorf("cms: content remote status %d", resp.StatusCode)
	}

	var payload struct {
		Lang      string    `json:"lang"`
		Title     string    `json:"title"`
		Summary   string    `json:"summary"`
		Role      string    `json:"role"`
		Image     string    `json:"image"`
		Body      string    `json:"body"`
		UpdatedAt time.Time `json:"updated_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return ContentPage{}, err
	}
	if strings.TrimSpace(payload.Body) == "" {
		return ContentPage{}, fmt.Errorf("cms: empty body for %s/%s", kind, slug)
	}
	return ContentPage{
		Kind:      kind,
		Slug:      slug,
		Lang:      firstNonEmpty(payload.Lang, lang),
		Title:     payload.Title,
		Summary:   payload.Summary,
		Role:      payload.Role,
		Image:     payload.Image,
		Body:      payload.Body,
		UpdatedAt: payload.UpdatedAt,
	}, nil
}

func (c *Client) fallbackContentPage(kind, slug, lang string) (ContentPage, error) {
	priority := []string{lang}
	if lang != defaultLang {
		priority = append(priority, defaultLang)
	}
	for _, candidate := range priority {
		page, err := c.readContentMarkdown(kind, slug, candidate)
		if err == nil {
			return page, nil
		}
		if errors.Is(err, ErrNotFound) {
			continue
		}
		return ContentPage{}, err
	}
	return ContentPage{}, ErrNotFound
}

func (c *Client) readContentMarkdown(kind, slug, lang string) (ContentPage, error) {
	file := path.Join(kind, lang, slug+".md")
	data, err := fs.ReadFile(c.content, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ContentPage{}, ErrNotFound
		}
		return ContentPage{}, err
	}
	fm, body := splitFrontMatter(string(data))
	front := contentFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return ContentPage{}, fmt.Errorf("cms: parse front matter %s: %w", file, err)
		}
	}
	page := ContentPage{
		Kind:      kind,
		Slug:      slug,
		Lang:      firstNonEmpty(strings.TrimSpace(front.Lang), lang),
		Title:     strings.TrimSpace(front.Title),
		Summary:   strings.TrimSpace(front.Summary),
		Role:      strings.TrimSpace(front.Role),
		Image:     strings.TrimSpace(front.Image),
		Body:      body,
		UpdatedAt: parseContentDate(front.UpdatedAt),
	}
	if page.Title == "" {
		page.Title = prettifySlug(slug)
	}
	return page, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func parseContentDate(v string) time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "2006/01/02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

func prettifySlug(slug string) string {
	parts := strings.Split(strings.TrimSpace(slug), "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func sanitizeSlug(slug string) string {
	slug = strings.Trim(strings.TrimSpace(strings.ToLower(slug)), "/")
	if slug == "" || strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return ""
	}
	return slug
}

func normalizeLang(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if lang == "" {
		return defaultLang
	}
	return lang
}

func (c *Client) cached(key string) (ContentPage, bool) {
	c.mu.RLock()
	entry, ok := c.cache[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return ContentPage{}, false
	}
	return entry.page, true
}

func (c *Client) store(key string, page ContentPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[key] = contentCacheEntry{page: page, expires: time.Now().Add(c.ttl)}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
