package entity

import "encoding/json"

// Action names a request sent from the popup to the background daemon.
type Action string

const (
	ActionSubmitURL Action = "submitUrl"
)

// Message is the popup → background request.
type Message struct {
	Action Action `json:"action"`
	URL    string `json:"url,omitempty"`
}

// MessageResponse is the background → popup reply.
type MessageResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Notification is a user-visible message raised by the background daemon.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}
