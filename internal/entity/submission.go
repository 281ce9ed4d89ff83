package entity

import "encoding/json"

// SourceExtension tags submissions coming from this client.
const SourceExtension = "extension"

// SubmissionRequest mirrors the JSON body POSTed to the collection endpoint.
type SubmissionRequest struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// NewSubmissionRequest builds the request for url with the extension source tag.
func NewSubmissionRequest(url string) SubmissionRequest {
	return SubmissionRequest{URL: url, Source: SourceExtension}
}

// SubmissionResponse is the outcome of a single submission. Data holds the
// endpoint's JSON body verbatim.
type SubmissionResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// SubmissionFailure builds a failed response carrying msg.
func SubmissionFailure(msg string) SubmissionResponse {
	return SubmissionResponse{Success: false, Error: msg}
}
