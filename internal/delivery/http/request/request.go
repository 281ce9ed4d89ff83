package request

// MessageRequest is the body of POST /api/messages.
type MessageRequest struct {
	Action string `json:"action"`
	URL    string `json:"url"`
}
