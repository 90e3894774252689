package main

import (
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/curiositycreators/website/internal/carousel"
	"github.com/curiositycreators/website/internal/countup"
	"github.com/curiositycreators/website/internal/handlers"
	mw "github.com/curiositycreators/website/internal/middleware"
)

// metricFrameInterval paces count-up frames on the wire.
const metricFrameInterval = 50 * time.Millisecond

func buildImpactView(r *http.Request) handlers.ImpactView {
	lang := mw.Lang(r)
	csrf := mw.CSRFToken(r)
	reduced := mw.ReducedMotion(r.Context())

	view := handlers.ImpactView{
		Lang:          lang,
		CSRFToken:     csrf,
		ReducedMotion: reduced,
		Metrics:       handlers.BuildMetrics(lang, impactData.Metrics),
		Partners:      impactData.Partners,
	}

	st, err := carouselHub.Peek(mw.ViewerID(r))
	if err != nil {
		mw.L(r).Error("carousel unavailable", zap.Error(err))
		view.Unavailable = true
		return view
	}
	st.ReducedMotion = reduced
	view.Carousel = handlers.BuildCarousel(lang, csrf, impactData.Testimonials, st, translator(lang))

	page, err := contentClient.GetContentPage(r.Context(), "stories", featuredStory, lang)
	if err != nil {
		mw.L(r).Warn("featured story unavailable", zap.String("slug", featuredStory), zap.Error(err))
		return view
	}
	story, err := handlers.BuildStory(page)
	if err != nil {
		mw.L(r).Warn("featured story render failed", zap.Error(err))
		return view
	}
	view.Story = story
	return view
}

// ImpactFrag renders the impact section.
func ImpactFrag(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, http.StatusOK, "frag_impact", buildImpactView(r))
}

func renderTestimonials(w http.ResponseWriter, r *http.Request, st carousel.State) {
	if !isHTMX(r) {
		http.Redirect(w, r, "/#impact", http.StatusSeeOther)
		return
	}
	lang := mw.Lang(r)
	st.ReducedMotion = mw.ReducedMotion(r.Context())
	view := handlers.BuildCarousel(lang, mw.CSRFToken(r), impactData.Testimonials, st, translator(lang))
	renderTemplate(w, r, http.StatusOK, "testimonial_body", view)
}

// testimonialControl adapts a controller transition into a handler.
func testimonialControl(step func(*carousel.Controller) carousel.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := carouselHub.Get(mw.ViewerID(r))
		if err != nil {
			mw.WriteError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		renderTestimonials(w, r, step(c))
	}
}

var (
	TestimonialNext   = testimonialControl((*carousel.Controller).Next)
	TestimonialPrev   = testimonialControl((*carousel.Controller).Previous)
	TestimonialToggle = testimonialControl((*carousel.Controller).Toggle)
)

// TestimonialGoTo jumps to the slide named in the path.
func TestimonialGoTo(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "i"))
	if err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, "slide index must be an integer")
		return
	}
	c, err := carouselHub.Get(mw.ViewerID(r))
	if err != nil {
		mw.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	st, err := c.GoTo(i)
	if errors.Is(err, carousel.ErrOutOfRange) {
		mw.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	renderTestimonials(w, r, st)
}

// TestimonialsStream keeps the viewer's carousel running and pushes each slide change.
func TestimonialsStream(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	csrf := mw.CSRFToken(r)
	reduced := mw.ReducedMotion(r.Context())
	log := mw.L(r)

	c, release, err := carouselHub.Attach(mw.ViewerID(r), reduced)
	if err != nil {
		mw.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	defer release()

	states := make(chan carousel.State, 8)
	cancel := c.Subscribe(func(st carousel.State) {
		select {
		case states <- st:
		default:
		}
	})
	defer cancel()

	stream, err := openStream(w)
	if err != nil {
		log.Warn("testimonials stream unsupported", zap.Error(err))
		return
	}
	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if err := stream.ping(); err != nil {
				return
			}
		case st := <-states:
			view := handlers.BuildCarousel(lang, csrf, impactData.Testimonials, st, translator(lang))
			html, err := renderString("testimonial_body", view)
			if err != nil {
				log.Error("render testimonial", zap.Error(err))
				continue
			}
			if err := stream.send("slide", html); err != nil {
				return
			}
		}
	}
}

type metricFrame struct {
	key  string
	text string
	done bool
}

// MetricsStream counts every KPI up from zero, then emits "done" so the client closes.
func MetricsStream(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	log := mw.L(r)

	stream, err := openStream(w)
	if err != nil {
		log.Warn("metrics stream unsupported", zap.Error(err))
		return
	}

	if mw.ReducedMotion(r.Context()) {
		for _, m := range impactData.Metrics {
			if err := stream.send("metric-"+m.Key, countup.Format(m.Value, m.Prefix, m.Suffix, lang)); err != nil {
				return
			}
		}
		_ = stream.send("done", "")
		return
	}

	frames := make(chan metricFrame, 64)
	var (
		mu      sync.Mutex
		stopped bool
	)
	push := func(f metricFrame) {
		mu.Lock()
		defer mu.Unlock()
		if stopped {
			return
		}
		select {
		case frames <- f:
		default:
			if f.done {
				// Final frames must arrive; intermediate ones may be skipped.
				go func() {
					select {
					case frames <- f:
					case <-r.Context().Done():
					}
				}()
			}
		}
	}

	animators := make([]*countup.Animator, 0, len(impactData.Metrics))
	defer func() {
		mu.Lock()
		stopped = true
		mu.Unlock()
		for _, a := range animators {
			a.Stop()
		}
	}()
	for _, m := range impactData.Metrics {
		m := m
		a, err := countup.New(m.Value,
			countup.WithDuration(appCfg.Motion.CountUpDuration),
			countup.WithFrames(countup.TickerFrames{Interval: metricFrameInterval}),
		)
		if err != nil {
			log.Warn("metric skipped", zap.String("key", m.Key), zap.Error(err))
			continue
		}
		animators = append(animators, a)
		a.Start(func(v int, done bool) {
			push(metricFrame{key: m.Key, text: countup.Format(v, m.Prefix, m.Suffix, lang), done: done})
		})
	}

	remaining := len(animators)
	for remaining > 0 {
		select {
		case <-r.Context().Done():
			return
		case f := <-frames:
			if err := stream.send("metric-"+f.key, f.text); err != nil {
				return
			}
			if f.done {
				remaining--
			}
		}
	}
	_ = stream.send("done", "")
}

// StoryBookmarkHandler acknowledges a bookmark of the featured story.
func StoryBookmarkHandler(w http.ResponseWriter, r *http.Request) {
	mw.L(r).Info("story bookmarked", zap.String("slug", featuredStory))
	respondToast(w, r, "bookmarked", true, "/#impact")
	if isHTMX(r) {
		w.WriteHeader(http.StatusNoContent)
	}
}
