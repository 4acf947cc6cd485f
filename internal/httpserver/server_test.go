package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Fi44er/shop_bot/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type recordingHandler struct {
	mu      sync.Mutex
	updates []tgbotapi.Update
}

func (h *recordingHandler) HandleUpdate(_ context.Context, update tgbotapi.Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, update)
}

func newTestRouter(h *recordingHandler) http.Handler {
	api := &tgbotapi.BotAPI{}
	return NewRouter(utils.NewNopLogger(), &Webhook{Decode: api.HandleUpdate, Handler: h})
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(&recordingHandler{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/"},
		{http.MethodHead, "/"},
		{http.MethodGet, "/healthz"},
		{http.MethodGet, "/metrics"},
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s %s = %d, want 200", tc.method, tc.path, rec.Code)
		}
	}
}

func TestWebhookDispatchesUpdate(t *testing.T) {
	h := &recordingHandler{}
	router := newTestRouter(h)

	body := `{"update_id": 10, "message": {"message_id": 1, "date": 0, "text": "/start", "chat": {"id": 42, "type": "private"}, "from": {"id": 42, "is_bot": false, "first_name": "A"}}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(h.updates) != 1 || h.updates[0].UpdateID != 10 || h.updates[0].Message.Text != "/start" {
		t.Fatalf("unexpected updates %+v", h.updates)
	}
}

func TestWebhookRejectsNonJSON(t *testing.T) {
	h := &recordingHandler{}
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader("not json")))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(h.updates) != 0 {
		t.Fatal("invalid body reached the handler")
	}
}

func TestWebhookOnlyInWebhookMode(t *testing.T) {
	router := NewRouter(utils.NewNopLogger(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader("{}")))
	if rec.Code == http.StatusOK {
		t.Fatal("webhook route should not exist in polling mode")
	}
}
