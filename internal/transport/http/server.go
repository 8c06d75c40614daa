package http

import (
	"log/slog"
	"net/http"

	"feedfilter/internal/domain"
)

// NewServer создает HTTP-обработчик с роутингом и middleware.
// Регистрирует домашнюю страницу, выходные ленты и служебные эндпоинты API.
func NewServer(log *slog.Logger, h *Handler) http.Handler {
	mux := http.NewServeMux()
	atom := h.feed(domain.KindAtom)
	rss := h.feed(domain.KindRSS)
	mux.HandleFunc("/atom", atom)
	mux.HandleFunc("/feed.xml", atom)
	mux.HandleFunc("/rss", rss)
	mux.HandleFunc("/rss.xml", rss)
	mux.HandleFunc("/api/refreshes", h.getRefreshes)
	mux.HandleFunc("/api/health", h.healthCheck)
	mux.HandleFunc("/", h.home)

	var handler http.Handler = mux
	handler = loggingMiddleware(log)(handler)
	handler = corsMiddleware()(handler)
	handler = requestIDMiddleware()(handler)
	return handler
}
