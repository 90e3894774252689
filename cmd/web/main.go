package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/curiositycreators/website/internal/carousel"
	"github.com/curiositycreators/website/internal/catalog"
	"github.com/curiositycreators/website/internal/cms"
	"github.com/curiositycreators/website/internal/config"
	"github.com/curiositycreators/website/internal/forms"
	"github.com/curiositycreators/website/internal/i18n"
	"github.com/curiositycreators/website/internal/impact"
	mw "github.com/curiositycreators/website/internal/middleware"
	"github.com/curiositycreators/website/internal/observability"
)

const (
	featuredStory = "maria-rodriguez"
	// carouselIdle is how long a viewer's carousel survives without requests or streams.
	carouselIdle = 30 * time.Minute
)

var (
	templatesDir = "templates"
	publicDir    = "public"
	localesDir   = "locales"
	// devMode reparses templates on every request.
	devMode bool

	appCfg        config.Config
	logger        = zap.NewNop()
	i18nBundle    *i18n.Bundle
	catalogStore  *catalog.Store
	carouselHub   *carousel.Hub
	impactData    impact.Data
	contentClient *cms.Client
	formSubmitter *forms.Submitter
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	var addr string
	flag.StringVar(&addr, "addr", cfg.Server.Addr(), "HTTP listen address")
	flag.StringVar(&cfg.Paths.Templates, "templates", cfg.Paths.Templates, "templates directory")
	flag.StringVar(&cfg.Paths.Public, "public", cfg.Paths.Public, "public assets directory")
	flag.StringVar(&cfg.Paths.Locales, "locales", cfg.Paths.Locales, "locales directory")
	flag.Parse()

	log, err := observability.NewLogger(os.Getenv("LOG_LEVEL"), cfg.Server.Dev)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := initServices(cfg, log); err != nil {
		log.Fatal("init services", zap.Error(err))
	}
	defer carouselHub.Close()
	if mw.SessionKeyEphemeral {
		log.Warn("session signing key not configured; sessions reset on restart")
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Streams clear their own write deadline.
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sweepCarousels(ctx, log)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("web listening",
		zap.String("addr", addr),
		zap.Bool("dev", devMode),
		zap.String("env", cfg.Server.Environment),
		zap.Bool("outreach_api", cfg.Outreach.APIBaseURL != ""),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("listen", zap.Error(err))
	}
}

// sweepCarousels evicts idle per-viewer carousels until ctx is done.
func sweepCarousels(ctx context.Context, log *zap.Logger) {
	ticker := time.NewTicker(carouselIdle / 6)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := carouselHub.Evict(carouselIdle); n > 0 {
				log.Debug("evicted idle carousels", zap.Int("count", n), zap.Int("remaining", carouselHub.Len()))
			}
		}
	}
}

// initServices wires the process-wide components from configuration.
func initServices(cfg config.Config, log *zap.Logger) error {
	appCfg = cfg
	logger = log
	templatesDir = cfg.Paths.Templates
	publicDir = cfg.Paths.Public
	localesDir = cfg.Paths.Locales
	devMode = cfg.Server.Dev

	mw.ConfigureSession(cfg.Session.SigningKey, cfg.Session.Secure)

	var err error
	if i18nBundle, err = i18n.Load(localesDir, cfg.Locale.Fallback, cfg.Locale.Supported); err != nil {
		return err
	}
	if catalogStore, err = catalog.NewSeededStore(); err != nil {
		return err
	}
	if impactData, err = impact.Load(); err != nil {
		return err
	}
	carouselHub = carousel.NewHub(len(impactData.Testimonials), carousel.WithInterval(cfg.Motion.CarouselInterval))
	contentClient = cms.NewClient(cfg.Content.BaseURL, cms.WithLogger(log))

	simulated := forms.NewSimulated()
	if cfg.Outreach.SimulateFailure {
		simulated.Fail = func(forms.Submission) error { return forms.ErrSimulatedNetworkFailure }
	}
	var sender forms.Sender = simulated
	if cfg.Outreach.APIBaseURL != "" {
		sender = forms.NewHTTPSender(cfg.Outreach.APIBaseURL, simulated)
	}
	formSubmitter = forms.NewSubmitter(sender,
		forms.WithLogger(log.Named("forms")),
		forms.WithMeter(otel.GetMeterProvider().Meter("github.com/curiositycreators/website/cmd/web")),
		forms.WithTimeout(cfg.Outreach.SubmitTimeout),
	)

	if !devMode {
		if err := loadTemplates(); err != nil {
			return err
		}
	}
	return nil
}

// newRouter builds the full route table. Tests use it as-is.
func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	// If deployed behind a trusted reverse proxy/load balancer, RealIP will use
	// X-Forwarded-For to determine the client IP. Ensure only trusted proxies
	// can set these headers in production environments.
	r.Use(middleware.RealIP)
	r.Use(mw.Logger(logger))
	r.Use(observability.TraceMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(mw.HTMX)
	r.Use(mw.Motion)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/assets/*", http.StripPrefix("/assets", mw.AssetsWithCache(filepath.Join(publicDir, "assets"), devMode)))

	r.Group(func(r chi.Router) {
		r.Use(mw.Session)
		r.Use(mw.Locale(i18nBundle))
		r.Use(mw.CSRF)
		r.Use(mw.VaryLocale)

		// Long-lived streams stay outside the request timeout.
		r.Get("/events/stream", EventsStream)
		r.Get("/impact/testimonials/stream", TestimonialsStream)
		r.Get("/impact/metrics/stream", MetricsStream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Compress(5))
			r.Use(middleware.Timeout(30 * time.Second))

			r.Get("/", HomeHandler)
			r.Get("/frag/header", HeaderFrag)
			r.Post("/explore", ExploreHandler)

			r.Get("/frag/programs", ProgramsFrag)
			r.Get("/programs/{id}", ProgramDetailHandler)
			r.Post("/programs/{id}/register", ProgramRegisterHandler)

			r.Get("/frag/events", EventsFrag)
			r.Get("/events/{id}/rsvp", RSVPFormHandler)
			r.Post("/events/{id}/rsvp", RSVPHandler)
			r.Get("/events/{id}/ticket.png", TicketQRHandler)

			r.Get("/frag/impact", ImpactFrag)
			r.Post("/impact/testimonials/next", TestimonialNext)
			r.Post("/impact/testimonials/prev", TestimonialPrev)
			r.Post("/impact/testimonials/toggle", TestimonialToggle)
			r.Post("/impact/testimonials/goto/{i}", TestimonialGoTo)
			r.Post("/impact/story/bookmark", StoryBookmarkHandler)

			r.Post("/support/donate", DonateHandler)
			r.Post("/support/quick-donate", QuickDonateHandler)
			r.Post("/support/sponsor", SponsorHandler)
			r.Post("/support/newsletter", NewsletterHandler)
			r.Post("/support/volunteer", VolunteerHandler)
			r.Post("/newsletter", FooterNewsletterHandler)
			r.Get("/frag/support/{form}", SupportFormFrag)
		})
	})
	return r
}
