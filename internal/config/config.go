package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultTemplatesDir = "templates"
	defaultPublicDir    = "public"
	defaultLocalesDir   = "locales"
	defaultLocale       = "en"
	defaultCarouselTick = 4 * time.Second
	defaultCountUp      = 2 * time.Second
	defaultSubmitLimit  = 30 * time.Second
)

// Config captures runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Paths     PathConfig
	Locale    LocaleConfig
	Session   SessionConfig
	Outreach  OutreachConfig
	Motion    MotionConfig
	Analytics AnalyticsConfig
	Site      SiteConfig
	Content   ContentConfig
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port        string
	Dev         bool
	Environment string
}

// Addr is the default listen address.
func (s ServerConfig) Addr() string { return ":" + s.Port }

// PathConfig locates templates, static files and locale bundles.
type PathConfig struct {
	Templates string
	Public    string
	Locales   string
}

// LocaleConfig lists the supported locales.
type LocaleConfig struct {
	Fallback  string
	Supported []string
}

// SessionConfig configures the signed session cookie.
type SessionConfig struct {
	SigningKey string
	Secure     bool
}

// OutreachConfig configures form delivery.
type OutreachConfig struct {
	// APIBaseURL, when set, receives submissions over HTTP.
	APIBaseURL      string
	SimulateFailure bool
	SubmitTimeout   time.Duration
}

// MotionConfig tunes the animated components.
type MotionConfig struct {
	CarouselInterval time.Duration
	CountUpDuration  time.Duration
}

// AnalyticsConfig holds client instrumentation IDs surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string
	GTMContainerID   string
	Debug            bool
}

// SiteConfig carries public site identity for SEO.
type SiteConfig struct {
	Name     string
	BaseURL  string
	VideoURL string
}

// ContentConfig points at an optional remote CMS for stories.
type ContentConfig struct {
	BaseURL string
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles configuration from defaults, an optional .env file, and the environment.
// Variables use the CC_WEB_ prefix; PORT and DEV are honoured as fallbacks.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	env := strings.ToLower(stringWithDefault(lookup, "CC_WEB_ENV", "local"))
	cfg := Config{
		Server: ServerConfig{
			Port:        stringWithDefault(lookup, "CC_WEB_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			Dev:         boolWithDefault(lookup, "CC_WEB_DEV", boolWithDefault(lookup, "DEV", false)),
			Environment: env,
		},
		Paths: PathConfig{
			Templates: stringWithDefault(lookup, "CC_WEB_TEMPLATES_DIR", defaultTemplatesDir),
			Public:    stringWithDefault(lookup, "CC_WEB_PUBLIC_DIR", defaultPublicDir),
			Locales:   stringWithDefault(lookup, "CC_WEB_LOCALES_DIR", defaultLocalesDir),
		},
		Locale: LocaleConfig{
			Fallback:  stringWithDefault(lookup, "CC_WEB_DEFAULT_LOCALE", defaultLocale),
			Supported: csvWithDefault(lookup, "CC_WEB_LOCALES", []string{"en", "es"}),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "CC_WEB_SESSION_SIGNING_KEY", ""),
			Secure:     env == "prod",
		},
		Outreach: OutreachConfig{
			APIBaseURL:      stringWithDefault(lookup, "CC_WEB_OUTREACH_API", ""),
			SimulateFailure: boolWithDefault(lookup, "CC_WEB_SIMULATE_FAILURE", false),
			SubmitTimeout:   durationWithDefault(lookup, "CC_WEB_SUBMIT_TIMEOUT", defaultSubmitLimit),
		},
		Motion: MotionConfig{
			CarouselInterval: durationWithDefault(lookup, "CC_WEB_CAROUSEL_INTERVAL", defaultCarouselTick),
			CountUpDuration:  durationWithDefault(lookup, "CC_WEB_COUNTUP_DURATION", defaultCountUp),
		},
		Analytics: AnalyticsConfig{
			GA4MeasurementID: stringWithDefault(lookup, "CC_WEB_GA_MEASUREMENT_ID", ""),
			GTMContainerID:   stringWithDefault(lookup, "CC_WEB_GTM_CONTAINER_ID", ""),
			Debug:            boolWithDefault(lookup, "CC_WEB_ANALYTICS_DEBUG", false),
		},
		Site: SiteConfig{
			Name:     stringWithDefault(lookup, "CC_WEB_SITE_NAME", "Curiosity Creators"),
			BaseURL:  strings.TrimRight(stringWithDefault(lookup, "CC_WEB_BASE_URL", ""), "/"),
			VideoURL: stringWithDefault(lookup, "CC_WEB_HERO_VIDEO_URL", ""),
		},
		Content: ContentConfig{
			BaseURL: stringWithDefault(lookup, "CC_WEB_CMS_BASE_URL", ""),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidationError lists configuration keys with invalid values.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "config: invalid configuration: " + strings.Join(e.Problems, "; ")
}

func (c Config) validate() error {
	var problems []string
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		problems = append(problems, fmt.Sprintf("port %q is not numeric", c.Server.Port))
	}
	if c.Motion.CarouselInterval <= 0 {
		problems = append(problems, "carousel interval must be positive")
	}
	if c.Motion.CountUpDuration <= 0 {
		problems = append(problems, "count-up duration must be positive")
	}
	found := false
	for _, l := range c.Locale.Supported {
		if l == c.Locale.Fallback {
			found = true
		}
	}
	if !found {
		problems = append(problems, fmt.Sprintf("default locale %q not in supported locales", c.Locale.Fallback))
	}
	if c.Server.Environment == "prod" && c.Session.SigningKey == "" {
		problems = append(problems, "CC_WEB_SESSION_SIGNING_KEY is required in prod")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
