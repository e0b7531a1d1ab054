package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
	"github.com/vadimbarashkov/viewcounter/internal/usecase"
)

func handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "pong")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

type viewsUseCase interface {
	Lookup(ctx context.Context, urls []string) ([]entity.Lookup, error)
	History(ctx context.Context, limit int) ([]entity.Lookup, error)
	GetLookup(ctx context.Context, id string) (*entity.Lookup, error)
}

type viewsHandler struct {
	useCase  viewsUseCase
	validate *validator.Validate
}

func newViewsHandler(useCase viewsUseCase, validate *validator.Validate) *viewsHandler {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &viewsHandler{
		useCase:  useCase,
		validate: validate,
	}
}

func (h *viewsHandler) lookupViews(w http.ResponseWriter, r *http.Request) {
	var req viewsRequest

	if err := render.DecodeJSON(r.Body, &req); err != nil {
		if errors.Is(err, io.EOF) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, emptyRequestBodyResponse)
			return
		}

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, invalidRequestBodyResponse)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, validationErrorResponse(err))
		return
	}

	lookups, err := h.useCase.Lookup(r.Context(), req.URLs)
	if err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLookupResponses(lookups))
}

func (h *viewsHandler) lookupView(w http.ResponseWriter, r *http.Request) {
	rawURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if rawURL == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, missingURLResponse)
		return
	}

	lookups, err := h.useCase.Lookup(r.Context(), []string{rawURL})
	if err != nil || len(lookups) == 0 {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLookupResponse(&lookups[0]))
}

func (h *viewsHandler) listLookups(w http.ResponseWriter, r *http.Request) {
	var limit int

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, invalidLimitResponse)
			return
		}
		limit = n
	}

	lookups, err := h.useCase.History(r.Context(), limit)
	if err != nil {
		if errors.Is(err, usecase.ErrHistoryDisabled) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, historyDisabledResponse)
			return
		}

		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, serverErrorResponse)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLookupResponses(lookups))
}

func (h *viewsHandler) getLookup(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	lookup, err := h.useCase.GetLookup(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrHistoryDisabled):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, historyDisabledResponse)
		case errors.Is(err, entity.ErrLookupNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, lookupNotFoundResponse)
		default:
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, serverErrorResponse)
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toLookupResponse(lookup))
}
