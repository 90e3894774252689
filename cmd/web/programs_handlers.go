package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/curiositycreators/website/internal/catalog"
	"github.com/curiositycreators/website/internal/handlers"
	mw "github.com/curiositycreators/website/internal/middleware"
	"github.com/curiositycreators/website/internal/observability"
)

// ProgramsFrag renders the filter sidebar and grid for the filter in the query.
func ProgramsFrag(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	filter, err := catalog.ParseFilter(r.URL.Query())
	if err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	view := handlers.BuildPrograms(lang, mw.CSRFToken(r), catalogStore.Programs(mw.ViewerID(r)), filter, translator(lang))
	w.Header().Set("HX-Push-Url", view.PushURL)
	renderTemplate(w, r, http.StatusOK, "frag_programs", view)
}

// ProgramDetailHandler renders the program dialog.
func ProgramDetailHandler(w http.ResponseWriter, r *http.Request) {
	lang := mw.Lang(r)
	p, err := catalogStore.Program(mw.ViewerID(r), chi.URLParam(r, "id"))
	if errors.Is(err, catalog.ErrProgramNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		mw.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	view, err := handlers.BuildProgramDetail(lang, mw.CSRFToken(r), p, siteName(), translator(lang))
	if err != nil {
		mw.L(r).Error("render program description", zap.String("program", p.ID), zap.Error(err))
		mw.WriteError(w, r, http.StatusInternalServerError, "could not render program")
		return
	}
	renderTemplate(w, r, http.StatusOK, "frag_program_detail", view)
}

// ProgramRegisterHandler registers the viewer and re-renders the card.
func ProgramRegisterHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	viewer := mw.ViewerID(r)

	_, span := observability.Tracer().Start(r.Context(), "catalog.register", trace.WithAttributes(attribute.String("program.id", id)))
	defer span.End()

	already, err := catalogStore.RegisterProgram(viewer, id)
	switch {
	case errors.Is(err, catalog.ErrProgramNotFound):
		span.SetStatus(codes.Error, err.Error())
		http.NotFound(w, r)
		return
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		mw.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	span.SetAttributes(attribute.Bool("program.already", already))
	mw.L(r).Info("program registration", zap.String("program", id), zap.Bool("already", already))

	code := "registered"
	if already {
		code = "already_registered"
	}
	if !isHTMX(r) {
		respondToast(w, r, code, true, "/#programs")
		return
	}
	respondToast(w, r, code, true, "")

	lang := mw.Lang(r)
	p, err := catalogStore.Program(viewer, id)
	if err != nil {
		mw.WriteError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	renderTemplate(w, r, http.StatusOK, "program_card", handlers.BuildProgramCard(lang, mw.CSRFToken(r), p, translator(lang)))
}
