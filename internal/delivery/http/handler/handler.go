package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/user/deadpage-hunter/internal/delivery/http/request"
	"github.com/user/deadpage-hunter/internal/delivery/http/response"
	"github.com/user/deadpage-hunter/internal/entity"
	"github.com/user/deadpage-hunter/internal/repository"
	"github.com/user/deadpage-hunter/internal/usecase"
)

type Handler struct {
	messenger repository.Messenger
	tabs      repository.TabQuerier
	search    usecase.Searcher
}

// NewHandler wires the HTTP handlers. search may be nil when no archive
// database is configured; the search endpoint then answers 503.
func NewHandler(messenger repository.Messenger, tabs repository.TabQuerier, search usecase.Searcher) *Handler {
	return &Handler{
		messenger: messenger,
		tabs:      tabs,
		search:    search,
	}
}

// HandleMessage forwards a popup message to the background broker. Both
// success and failure replies are sent as a MessageResponse body.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req request.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, entity.MessageResponse{Error: "Invalid request body"})
		return
	}

	msg := entity.Message{Action: entity.Action(req.Action), URL: req.URL}
	resp, err := h.messenger.SendMessage(r.Context(), msg)
	if err != nil {
		if errors.Is(err, usecase.ErrBrokerClosed) {
			h.writeJSON(w, http.StatusServiceUnavailable, entity.MessageResponse{Error: "Background is shutting down"})
			return
		}
		slog.Error("Failed to deliver message", "action", req.Action, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, entity.MessageResponse{Error: "Internal server error"})
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleActiveTab(w http.ResponseWriter, r *http.Request) {
	tab, err := h.tabs.ActiveTab(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrNoActiveTab) {
			h.writeJSONError(w, "No active tab", http.StatusNotFound)
			return
		}
		slog.Error("Failed to query active tab", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if tab == nil {
		h.writeJSONError(w, "No active tab", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, response.TabResponse{
		ID:     tab.ID,
		URL:    tab.URL,
		Title:  tab.Title,
		Active: true,
	})
}

// HandleSearch runs a full-text query (q) over archived documents. lang
// picks the text search configuration. A blank q yields no results.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		h.writeJSONError(w, "Search is not configured", http.StatusServiceUnavailable)
		return
	}

	q := r.URL.Query().Get("q")
	results, err := h.search.Search(r.Context(), q, r.URL.Query().Get("lang"))
	if err != nil {
		if errors.Is(err, repository.ErrUnsupportedLanguage) {
			h.writeJSONError(w, "Unsupported search language", http.StatusBadRequest)
			return
		}
		slog.Error("Failed to search archive", "query", q, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.SearchResponse{Query: q, Results: make([]response.SearchResult, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, response.SearchResult{
			OriginalURL:      res.OriginalURL,
			Snippet:          res.Snippet,
			ArchiveTimestamp: res.ArchiveTimestamp,
			Category:         res.Category,
		})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
