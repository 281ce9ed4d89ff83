package messenger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
)

func TestSendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, messagesPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var msg entity.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, entity.ActionSubmitURL, msg.Action)
		assert.Equal(t, "https://example.com/x", msg.URL)

		_, _ = w.Write([]byte(`{"success":true,"data":{"id":3}}`))
	}))
	defer srv.Close()

	resp, err := NewDaemonClient(srv.URL+"/", 0).SendMessage(context.Background(),
		entity.Message{Action: entity.ActionSubmitURL, URL: "https://example.com/x"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"id":3}`, string(resp.Data))
}

func TestSendMessage_FailureReplyIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"unknown action"}`))
	}))
	defer srv.Close()

	resp, err := NewDaemonClient(srv.URL, 0).SendMessage(context.Background(), entity.Message{Action: "bogus"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "unknown action", resp.Error)
}

func TestSendMessage_DaemonDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewDaemonClient(addr, 0).SendMessage(context.Background(), entity.Message{Action: entity.ActionSubmitURL})
	assert.ErrorContains(t, err, "reach daemon")
}

func TestActiveTab(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, activeTabPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"T1","url":"https://example.com","active":true}`))
	}))
	defer srv.Close()

	tab, err := NewDaemonClient(srv.URL, 0).ActiveTab(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "T1", tab.ID)
	assert.Equal(t, "https://example.com", tab.URL)
}

func TestActiveTab_None(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no active tab"}`))
	}))
	defer srv.Close()

	_, err := NewDaemonClient(srv.URL, 0).ActiveTab(context.Background())
	assert.ErrorIs(t, err, repository.ErrNoActiveTab)
}

func TestActiveTab_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"browser gone"}`))
	}))
	defer srv.Close()

	_, err := NewDaemonClient(srv.URL, 0).ActiveTab(context.Background())
	assert.ErrorContains(t, err, "browser gone")
}

func TestDaemonURLWithPathPrefix(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/daemon"+activeTabPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"No active tab"}`))
	})
	mux.HandleFunc("/daemon"+messagesPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"error":"Invalid request body"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()
	client := NewDaemonClient(srv.URL+"/daemon", 0)

	_, err := client.ActiveTab(context.Background())
	assert.ErrorIs(t, err, repository.ErrNoActiveTab)

	resp, err := client.SendMessage(context.Background(), entity.Message{Action: entity.ActionSubmitURL})
	require.NoError(t, err)
	assert.Equal(t, "Invalid request body", resp.Error)
}
