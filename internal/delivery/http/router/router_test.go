package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/deadpage-hunter/internal/delivery/http/handler"
	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/internal/usecase"
	"github.com/user/deadpage-hunter/pkg/metrics"
)

type stubMessenger struct {
	got   entity.Message
	reply entity.MessageResponse
	err   error
}

func (s *stubMessenger) SendMessage(ctx context.Context, msg entity.Message) (entity.MessageResponse, error) {
	s.got = msg
	return s.reply, s.err
}

type stubTabs struct {
	tab *entity.Tab
	err error
}

func (s stubTabs) ActiveTab(ctx context.Context) (*entity.Tab, error) {
	return s.tab, s.err
}

type stubSearcher struct {
	text, lang string
	results    []*entity.SearchResult
	err        error
}

func (s *stubSearcher) Search(ctx context.Context, text, language string) ([]*entity.SearchResult, error) {
	s.text, s.lang = text, language
	return s.results, s.err
}

func serve(t *testing.T, m repository.Messenger, tabs repository.TabQuerier, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	return serveWith(t, handler.NewHandler(m, tabs, nil), req)
}

func serveWith(t *testing.T, h *handler.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	metrics.Init()
	rec := httptest.NewRecorder()
	New(h).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(t, &stubMessenger{}, stubTabs{}, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMessage_Forwarded(t *testing.T) {
	m := &stubMessenger{reply: entity.MessageResponse{Success: true}}
	body := strings.NewReader(`{"action":"submitUrl","url":"https://example.com/x"}`)

	rec := serve(t, m, stubTabs{}, httptest.NewRequest(http.MethodPost, "/api/messages", body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, entity.Message{Action: entity.ActionSubmitURL, URL: "https://example.com/x"}, m.got)
}

func TestMessage_FailureReplyIsStillOK(t *testing.T) {
	m := &stubMessenger{reply: entity.MessageResponse{Error: "endpoint returned status 502"}}
	body := strings.NewReader(`{"action":"submitUrl","url":"https://example.com/x"}`)

	rec := serve(t, m, stubTabs{}, httptest.NewRequest(http.MethodPost, "/api/messages", body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"endpoint returned status 502"}`, rec.Body.String())
}

func TestMessage_BadBody(t *testing.T) {
	rec := serve(t, &stubMessenger{}, stubTabs{}, httptest.NewRequest(http.MethodPost, "/api/messages", strings.NewReader("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Invalid request body"}`, rec.Body.String())
}

func TestMessage_BrokerClosed(t *testing.T) {
	m := &stubMessenger{err: usecase.ErrBrokerClosed}
	body := strings.NewReader(`{"action":"submitUrl","url":"https://example.com"}`)

	rec := serve(t, m, stubTabs{}, httptest.NewRequest(http.MethodPost, "/api/messages", body))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMessage_WrongMethod(t *testing.T) {
	rec := serve(t, &stubMessenger{}, stubTabs{}, httptest.NewRequest(http.MethodGet, "/api/messages", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestActiveTab(t *testing.T) {
	tests := []struct {
		name string
		tabs stubTabs
		code int
		body string
	}{
		{"found", stubTabs{tab: &entity.Tab{ID: "T1", URL: "https://example.com", Title: "Example"}}, http.StatusOK,
			`{"id":"T1","url":"https://example.com","title":"Example","active":true}`},
		{"none", stubTabs{err: repository.ErrNoActiveTab}, http.StatusNotFound, `{"error":"No active tab"}`},
		{"browser error", stubTabs{err: errors.New("target closed")}, http.StatusInternalServerError, `{"error":"Internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &stubMessenger{}, tt.tabs, httptest.NewRequest(http.MethodGet, "/api/tabs/active", nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_ = serve(t, &stubMessenger{}, stubTabs{}, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	rec := serve(t, &stubMessenger{}, stubTabs{}, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",path="/api/health",status="200"}`)
}

func TestSearch(t *testing.T) {
	ts := time.Date(2019, 5, 4, 10, 20, 30, 0, time.UTC)
	s := &stubSearcher{results: []*entity.SearchResult{
		{OriginalURL: "https://example.com/a", Snippet: "harga <b>beras</b>", ArchiveTimestamp: &ts, Category: "General"},
		{OriginalURL: "https://example.com/b", Snippet: "<b>beras</b> impor"},
	}}
	h := handler.NewHandler(&stubMessenger{}, stubTabs{}, s)

	rec := serveWith(t, h, httptest.NewRequest(http.MethodGet, "/api/search?q=beras&lang=indonesian", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"query":"beras","results":[
		{"original_url":"https://example.com/a","snippet":"harga <b>beras</b>","archive_timestamp":"2019-05-04T10:20:30Z","category":"General"},
		{"original_url":"https://example.com/b","snippet":"<b>beras</b> impor","archive_timestamp":null}
	]}`, rec.Body.String())
	assert.Equal(t, "beras", s.text)
	assert.Equal(t, "indonesian", s.lang)
}

func TestSearch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		search usecase.Searcher
		code   int
		body   string
	}{
		{"not configured", nil, http.StatusServiceUnavailable, `{"error":"Search is not configured"}`},
		{"bad language", &stubSearcher{err: repository.ErrUnsupportedLanguage}, http.StatusBadRequest, `{"error":"Unsupported search language"}`},
		{"database down", &stubSearcher{err: errors.New("connection refused")}, http.StatusInternalServerError, `{"error":"Internal server error"}`},
		{"no matches", &stubSearcher{}, http.StatusOK, `{"query":"beras","results":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHandler(&stubMessenger{}, stubTabs{}, tt.search)
			rec := serveWith(t, h, httptest.NewRequest(http.MethodGet, "/api/search?q=beras", nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
