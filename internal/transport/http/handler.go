package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"feedfilter/internal/domain"
)

const defaultRefreshLimit = 20

type feedGetter interface {
	GetFeed(ctx context.Context, kind domain.Kind, forceRefresh bool) (*domain.Document, bool, error)
	Config() domain.FeedConfig
}

type refreshGetter interface {
	GetRefreshes(ctx context.Context, limit int) ([]domain.Refresh, error)
}

type Handler struct {
	log           *slog.Logger
	feedGetter    feedGetter
	refreshGetter refreshGetter
}

func NewHandler(log *slog.Logger, feeds feedGetter, refreshes refreshGetter) *Handler {
	return &Handler{
		log:           log,
		feedGetter:    feeds,
		refreshGetter: refreshes,
	}
}

var homeTemplate = template.Must(template.New("home").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Description}}</p>
<p>Entries from <a href="{{.URL}}">{{.URL}}</a> whose title or summary contains <strong>{{.FilterWord}}</strong>.</p>
<ul>
<li><a href="/atom">Atom feed</a> (also at <a href="/feed.xml">/feed.xml</a>)</li>
<li><a href="/rss">RSS feed</a> (also at <a href="/rss.xml">/rss.xml</a>)</li>
</ul>
<p>Append <code>?refresh</code> to a feed URL to rebuild it immediately.</p>
</body>
</html>
`))

// home - хендлер для GET /
func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/home"
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homeTemplate.Execute(w, h.feedGetter.Config()); err != nil {
		h.log.Error("Failed to render home page",
			slog.String("op", op),
			slog.String("request_id", getRequestID(r.Context())),
			slog.Any("error", err),
		)
	}
}

// feed возвращает хендлер выходной ленты формата kind.
// Наличие параметра refresh в запросе (с любым значением) перестраивает документ.
func (h *Handler) feed(kind domain.Kind) http.HandlerFunc {
	op := "transport.http/feed." + string(kind)
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.log.With(
			slog.String("op", op),
			slog.String("request_id", getRequestID(r.Context())),
		)
		if r.Method != http.MethodGet {
			log.Warn("method not allowed", slog.String("method", r.Method))
			methodNotAllowed(w)
			return
		}
		_, force := r.URL.Query()["refresh"]

		doc, cached, err := h.feedGetter.GetFeed(r.Context(), kind, force)
		if err != nil {
			log.Error("Failed to get feed", slog.Any("error", err), slog.Bool("forced", force))
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprintf(w, "Failed to fetch feed: %v\n", err)
			return
		}

		cacheStatus := "MISS"
		if cached {
			cacheStatus = "HIT"
		}
		w.Header().Set("Content-Type", doc.Kind.ContentType())
		w.Header().Set("X-Cache", cacheStatus)
		w.Header().Set("Last-Modified", doc.ProducedAt.UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(doc.Body); err != nil {
			log.Warn("Failed to write response", slog.Any("error", err))
		}
	}
}

// getRefreshes - хендлер для эндпоинта GET /api/refreshes
func (h *Handler) getRefreshes(w http.ResponseWriter, r *http.Request) {
	const op = "transport.http/getRefreshes"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", getRequestID(r.Context())),
	)
	if r.Method != http.MethodGet {
		log.Warn("method not allowed")
		respondWithError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}
	limitStr := r.URL.Query().Get("limit")
	limit := defaultRefreshLimit
	if limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			log.Warn("invalid limit parameter", slog.String("limit", limitStr))
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
	}

	refreshes, err := h.refreshGetter.GetRefreshes(r.Context(), limit)
	if err != nil {
		log.Error("Failed to get refreshes", slog.Any("error", err))
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	respondWithJSON(w, http.StatusOK, refreshes)
}

// healthCheck - хендлер для проверки состояния сервиса
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Вспомогательные функции для ответов
func methodNotAllowed(w http.ResponseWriter) {
	w.Header().Set("Allow", "GET, OPTIONS")
	http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
