package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/socialbounty/groupbot/internal/biz/domain"
	"github.com/socialbounty/groupbot/internal/biz/repo"
)

type fakeHandler struct {
	mu      sync.Mutex
	updates []*domain.Update
	err     error
}

func (h *fakeHandler) Handle(ctx context.Context, u *domain.Update) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.updates = append(h.updates, u)
	return h.err
}

func (h *fakeHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.updates)
}

type fakeMessenger struct {
	repo.MessengerRepo
	webhookURL    string
	webhookSecret string
	webhookErr    error
}

func (m *fakeMessenger) Self() repo.BotIdentity {
	return repo.BotIdentity{ID: 42, Username: "groupbot"}
}

func (m *fakeMessenger) SetWebhook(_ context.Context, url, secret string) error {
	m.webhookURL = url
	m.webhookSecret = secret
	return m.webhookErr
}

const groupMessage = `{
	"update_id": 7,
	"message": {
		"message_id": 11,
		"date": 1700000000,
		"from": {"id": 5, "is_bot": false, "first_name": "Ann", "username": "ann"},
		"chat": {"id": -1001, "type": "supergroup", "title": "Group"},
		"text": "hello"
	}
}`

func newTestServer(t *testing.T, cfg Config, h UpdateHandler, m *fakeMessenger, api http.Handler) http.Handler {
	t.Helper()
	return New(cfg, h, m, api, zaptest.NewLogger(t).Sugar()).Handler()
}

func post(handler http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestWebhookDeliversUpdate(t *testing.T) {
	h := &fakeHandler{}
	srv := newTestServer(t, Config{}, h, &fakeMessenger{}, nil)

	w := post(srv, groupMessage, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, 1, h.count())
	u := h.updates[0]
	assert.Equal(t, 7, u.UpdateID)
	assert.Equal(t, int64(-1001), u.ChatID)
	assert.Equal(t, int64(5), u.From.ID)
	assert.Equal(t, "hello", u.Text)
}

func TestWebhookDropsDuplicates(t *testing.T) {
	h := &fakeHandler{}
	srv := newTestServer(t, Config{}, h, &fakeMessenger{}, nil)

	assert.Equal(t, http.StatusOK, post(srv, groupMessage, nil).Code)
	assert.Equal(t, http.StatusOK, post(srv, groupMessage, nil).Code)
	assert.Equal(t, 1, h.count())
}

func TestWebhookAlwaysOKOnceDecoded(t *testing.T) {
	h := &fakeHandler{err: errors.New("boom")}
	srv := newTestServer(t, Config{}, h, &fakeMessenger{}, nil)

	assert.Equal(t, http.StatusOK, post(srv, groupMessage, nil).Code)
	assert.Equal(t, 1, h.count())

	// edited messages are not handled but still acknowledged
	edited := `{"update_id": 8, "edited_message": {"message_id": 1, "date": 1, "chat": {"id": -1001, "type": "group"}, "text": "x"}}`
	assert.Equal(t, http.StatusOK, post(srv, edited, nil).Code)
	assert.Equal(t, 1, h.count())
}

func TestWebhookRejectsBadPayload(t *testing.T) {
	h := &fakeHandler{}
	srv := newTestServer(t, Config{}, h, &fakeMessenger{}, nil)

	assert.Equal(t, http.StatusBadRequest, post(srv, "{not json", nil).Code)
	assert.Zero(t, h.count())
}

func TestWebhookSecret(t *testing.T) {
	h := &fakeHandler{}
	srv := newTestServer(t, Config{WebhookSecret: "s3cret"}, h, &fakeMessenger{}, nil)

	assert.Equal(t, http.StatusForbidden, post(srv, groupMessage, nil).Code)
	assert.Equal(t, http.StatusForbidden, post(srv, groupMessage, map[string]string{secretHeader: "nope"}).Code)
	assert.Zero(t, h.count())

	assert.Equal(t, http.StatusOK, post(srv, groupMessage, map[string]string{secretHeader: "s3cret"}).Code)
	assert.Equal(t, 1, h.count())
}

func TestSetWebhook(t *testing.T) {
	m := &fakeMessenger{}
	srv := newTestServer(t, Config{WebhookURL: "https://bot.example.com/", WebhookSecret: "s"}, &fakeHandler{}, m, nil)

	req := httptest.NewRequest(http.MethodGet, "/setwebhook", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://bot.example.com/webhook", m.webhookURL)
	assert.Equal(t, "s", m.webhookSecret)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
}

func TestSetWebhookFailure(t *testing.T) {
	m := &fakeMessenger{webhookErr: errors.New("telegram said no")}
	srv := newTestServer(t, Config{WebhookURL: "https://bot.example.com"}, &fakeHandler{}, m, nil)

	req := httptest.NewRequest(http.MethodGet, "/setwebhook", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadGateway, w.Code)

	_, err := RegisterWebhook(context.Background(), m, "", "")
	assert.Error(t, err)
}

func TestStatusHealthMetrics(t *testing.T) {
	srv := newTestServer(t, Config{}, &fakeHandler{}, &fakeMessenger{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "running", status["status"])
	assert.Equal(t, "groupbot", status["bot"])

	for _, path := range []string{"/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		srv.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestMountsAPI(t *testing.T) {
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	srv := newTestServer(t, Config{}, &fakeHandler{}, &fakeMessenger{}, api)

	req := httptest.NewRequest(http.MethodGet, "/api/chats/1/filters", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTeapot, w.Code)

	// without an api the path is unknown
	srv = newTestServer(t, Config{}, &fakeHandler{}, &fakeMessenger{}, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chats/1/filters", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
