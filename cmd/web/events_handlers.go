package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/curiositycreators/website/internal/catalog"
	"github.com/curiositycreators/website/internal/forms"
	"github.com/curiositycreators/website/internal/handlers"
	mw "github.com/curiositycreators/website/internal/middleware"
	"github.com/curiositycreators/website/internal/notify"
	"github.com/curiositycreators/website/internal/observability"
)

// EventsFrag renders the events list.
func EventsFrag(w http.ResponseWriter, r *http.Request) {
	view := handlers.BuildEvents(mw.Lang(r), mw.CSRFToken(r), catalogStore.Events(mw.ViewerID(r)), siteName())
	renderTemplate(w, r, http.StatusOK, "frag_events", view)
}

// RSVPFormHandler renders the guardian details dialog.
func RSVPFormHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	e, err := catalogStore.Event(mw.ViewerID(r), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrEventNotFound) {
		http.NotFound(w, r)
		return
	}
	csrf := mw.CSRFToken(r)
	view := handlers.RSVPFormView{
		Lang:      lang,
		CSRFToken: csrf,
		Event:     handlers.BuildEventCard(lang, csrf, e, siteName()),
		AgeRanges: catalog.AgeRangeOptions,
	}
	renderTemplate(w, r, http.StatusOK, "frag_rsvp_form", view)
}

// RSVPHandler validates the guardian details, forwards them, and reserves a seat.
func RSVPHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	csrf := mw.CSRFToken(r)
	viewer := mw.ViewerID(r)
	id := chi.URLParam(r, "id")

	e, err := catalogStore.Event(viewer, id)
	if errors.Is(err, catalog.ErrEventNotFound) {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	details := forms.ParseRSVP(e.ID, r.PostForm)

	rerender := func(status int, verr error) {
		view := handlers.RSVPFormView{
			Lang:       lang,
			CSRFToken:  csrf,
			Event:      handlers.BuildEventCard(lang, csrf, e, siteName()),
			ParentName: details.ParentName,
			Email:      details.Email,
			ChildAge:   details.ChildAge,
			Notes:      details.Notes,
			AgeRanges:  catalog.AgeRangeOptions,
		}
		var ve *forms.ValidationError
		if errors.As(verr, &ve) {
			view.Errors = ve.Fields
		}
		w.Header().Set("HX-Reswap", "outerHTML")
		renderTemplate(w, r, status, "frag_rsvp_form", view)
	}

	if err := details.Validate(catalog.AgeRangeOptions); err != nil {
		if !isHTMX(r) {
			respondToast(w, r, "submission_failed", false, "/#events")
			return
		}
		rerender(http.StatusUnprocessableEntity, err)
		return
	}

	ctx, span := observability.Tracer().Start(r.Context(), "catalog.rsvp", trace.WithAttributes(attribute.String("event.id", e.ID)))
	defer span.End()

	if !e.RSVPed {
		if e.Full() {
			finishRSVP(w, r, e.ID, "event_full", false)
			return
		}
		task, err := formSubmitter.Submit(ctx, forms.Key(viewer, forms.KindRSVP), details.Submission())
		if errors.Is(err, forms.ErrInFlight) {
			inFlight(w, r, "/#events")
			return
		}
		if err != nil {
			mw.WriteError(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		if _, err := task.Wait(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			respondToast(w, r, "submission_failed", false, "/#events")
			if isHTMX(r) {
				w.WriteHeader(http.StatusBadGateway)
			}
			return
		}
	}

	res, err := catalogStore.RSVP(viewer, e.ID)
	switch {
	case errors.Is(err, catalog.ErrCapacityExceeded):
		span.SetStatus(codes.Error, err.Error())
		finishRSVP(w, r, e.ID, "event_full", false)
		return
	case err != nil:
		span.RecordError(err)
		mw.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	span.SetAttributes(attribute.Bool("event.already", res.Already), attribute.Int("event.registered", res.Event.Registered))
	mw.L(r).Info("event rsvp",
		zap.String("event", e.ID),
		zap.Bool("already", res.Already),
		zap.Int("registered", res.Event.Registered),
		zap.Int("capacity", res.Event.Capacity),
	)

	code := "rsvp_confirmed"
	if res.Already {
		code = "already_rsvped"
	}
	finishRSVP(w, r, e.ID, code, true)
}

// finishRSVP closes the dialog and swaps the event card in place.
func finishRSVP(w http.ResponseWriter, r *http.Request, id, code string, ok bool) {
	if !isHTMX(r) {
		respondToast(w, r, code, ok, "/#events")
		return
	}
	lang := mw.Lang(r)
	e, err := catalogStore.Event(mw.ViewerID(r), id)
	if err != nil {
		mw.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	respondToast(w, r, code, ok, "")
	notify.TriggerEvent(w, "dialog-close", map[string]string{"id": "rsvp-dialog"})
	w.Header().Set("HX-Retarget", "#event-"+e.ID)
	w.Header().Set("HX-Reswap", "outerHTML")
	renderTemplate(w, r, http.StatusOK, "event_card", handlers.BuildEventCard(lang, mw.CSRFToken(r), e, siteName()))
}

// TicketQRHandler renders the viewer's ticket code as a QR PNG.
func TicketQRHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	code, ok := catalogStore.Ticket(mw.ViewerID(r), id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	base := siteBaseURL(r)
	// Encode a URL so scanning opens the event with the ticket attached
	png, err := qrcode.Encode(base+"/?ticket="+code+"#event-"+id, qrcode.Medium, 256)
	if err != nil {
		mw.L(r).Error("qr encode", zap.Error(err))
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// EventsStream pushes re-rendered cards whenever the catalog changes.
func EventsStream(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	csrf := mw.CSRFToken(r)
	viewer := mw.ViewerID(r)
	log := mw.L(r)

	changes := make(chan catalog.Change, 32)
	cancel := catalogStore.Subscribe(func(c catalog.Change) {
		select {
		case changes <- c:
		default:
			log.Warn("events stream lagging; change dropped", zap.String("id", c.ID))
		}
	})
	defer cancel()

	stream, err := openStream(w)
	if err != nil {
		log.Warn("events stream unsupported", zap.Error(err))
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
		case c := <-changes:
			var name, html string
			switch c.Kind {
			case catalog.ChangeEventRSVPed:
				e, err := catalogStore.Event(viewer, c.ID)
				if err != nil {
					continue
				}
				name = "event-" + e.ID
				html, err = renderString("event_card", handlers.BuildEventCard(lang, csrf, e, siteName()))
				if err != nil {
					log.Error("render event card", zap.Error(err))
					continue
				}
			case catalog.ChangeProgramRegistered:
				if c.Viewer != viewer {
					continue
				}
				p, err := catalogStore.Program(viewer, c.ID)
				if err != nil {
					continue
				}
				name = "program-" + p.ID
				html, err = renderString("program_card", handlers.BuildProgramCard(lang, csrf, p, translator(lang)))
				if err != nil {
					log.Error("render program card", zap.Error(err))
					continue
				}
			default:
				continue
			}
			if err := stream.send(name, html); err != nil {
				return
			}
		}
	}
}

// inFlight answers a duplicate submit.
func inFlight(w http.ResponseWriter, r *http.Request, target string) {
	if !isHTMX(r) {
		notify.Respond(w, r, false, "submission_inflight", false, target)
		return
	}
	notify.Trigger(w, notify.Toast{Level: notify.Info, Message: message(mw.Lang(r), "submission_inflight")})
	w.WriteHeader(http.StatusConflict)
}
