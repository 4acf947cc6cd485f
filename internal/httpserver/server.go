package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Fi44er/shop_bot/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const WebhookPath = "/webhook"

// UpdateHandler consumes decoded Telegram updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// DecodeFunc reads one update from a webhook request, e.g. BotAPI.HandleUpdate.
type DecodeFunc func(r *http.Request) (*tgbotapi.Update, error)

// Webhook is mounted only when the bot runs in webhook mode.
type Webhook struct {
	Decode  DecodeFunc
	Handler UpdateHandler
}

// Server wraps an http.Server with health, metrics and webhook routes.
type Server struct {
	httpServer *http.Server
	logger     *utils.Logger
}

func New(addr string, logger *utils.Logger, webhook *Webhook) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(logger, webhook),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func NewRouter(logger *utils.Logger, webhook *Webhook) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/", healthHandler)
	r.Head("/", healthHandler)
	r.Get("/healthz", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	if webhook != nil {
		r.Post(WebhookPath, webhookHandler(logger, webhook))
	}
	return r
}

// Start blocks until the server stops; a graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server listen: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func webhookHandler(logger *utils.Logger, webhook *Webhook) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		update, err := webhook.Decode(r)
		if err != nil {
			logger.Warnf("Rejected webhook request: %v", err)
			http.Error(w, "invalid update", http.StatusBadRequest)
			return
		}
		// A dropped connection must not abort a half-handled update.
		webhook.Handler.HandleUpdate(context.WithoutCancel(r.Context()), *update)
		w.WriteHeader(http.StatusOK)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "failed to encode json", http.StatusInternalServerError)
	}
}
