package http

import (
	"bytes"
	"embed"
	"encoding/csv"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/viewcounter/internal/detect"
	"github.com/vadimbarashkov/viewcounter/internal/entity"
)

const dateLayout = "2006-01-02"

// Messages shown on the form. Lookup failures never reach the user verbatim.
const (
	msgLookupFailed = "Не удалось получить данные о просмотрах. Попробуйте ещё раз позже."
	msgNoLinks      = "Вставьте хотя бы одну ссылку."
	msgTooManyLinks = "Слишком много ссылок за один раз."
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type pageData struct {
	Links string
	Rows  []entity.Lookup
	Today string
	Error string
}

type formHandler struct {
	useCase viewsUseCase
	tmpl    *template.Template
	now     func() time.Time
}

func newFormHandler(useCase viewsUseCase) *formHandler {
	return &formHandler{
		useCase: useCase,
		tmpl:    indexTemplate,
		now:     time.Now,
	}
}

func (h *formHandler) showForm(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, pageData{Today: h.today()})
}

func (h *formHandler) submitForm(w http.ResponseWriter, r *http.Request) {
	links := r.PostFormValue("links")
	data := pageData{Links: links, Today: h.today()}

	urls := detect.SplitLines(links)

	switch {
	case len(urls) == 0:
		data.Error = msgNoLinks
	case len(urls) > maxURLsPerRequest:
		data.Error = msgTooManyLinks
	default:
		lookups, err := h.useCase.Lookup(r.Context(), urls)
		if err != nil {
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
			data.Error = msgLookupFailed
			break
		}
		data.Rows = lookups
	}

	h.renderPage(w, r, http.StatusOK, data)
}

func (h *formHandler) download(w http.ResponseWriter, r *http.Request) {
	urls := detect.SplitLines(r.PostFormValue("links"))
	if len(urls) > maxURLsPerRequest {
		http.Error(w, "too many urls", http.StatusBadRequest)
		return
	}

	var lookups []entity.Lookup

	if len(urls) > 0 {
		var err error

		lookups, err = h.useCase.Lookup(r.Context(), urls)
		if err != nil {
			httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
	}

	var buf bytes.Buffer

	cw := csv.NewWriter(&buf)
	_ = cw.Write([]string{"url", "platform", "views"})
	for _, l := range lookups {
		_ = cw.Write([]string{l.URL, l.Platform.Label(), l.ViewsText()})
	}
	cw.Flush()

	if err := cw.Error(); err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="social_views_%s.csv"`, h.today()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *formHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	var buf bytes.Buffer

	if err := h.tmpl.Execute(&buf, data); err != nil {
		httplog.LogEntrySetField(r.Context(), "err", slog.AnyValue(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *formHandler) today() string {
	return h.now().Format(dateLayout)
}
