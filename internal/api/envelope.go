package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// envelope is the backend's standard response wrapper. Successful responses
// carry the payload in Data; error responses carry a user-facing message in
// Errors[0].Message or, failing that, Message.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []fieldError    `json:"errors"`
}

type fieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// errorMessage picks the user-visible error text from an error envelope.
func (e *envelope) errorMessage() string {
	if len(e.Errors) > 0 && e.Errors[0].Message != "" {
		return e.Errors[0].Message
	}
	return e.Message
}

// maxBodySize bounds how much of a response we are willing to read.
const maxBodySize = 1 << 20

// decodeResponse unwraps the response envelope into out, mapping non-2xx
// responses to *Error. A 2xx response with out == nil is discarded.
func decodeResponse(resp *http.Response, out any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	enveloped := json.Unmarshal(body, &env) == nil && (env.Status != "" || env.Data != nil)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
		if enveloped {
			apiErr.Message = env.errorMessage()
		}
		return apiErr
	}

	if enveloped && env.Status == "error" {
		// Some endpoints report failures inside a 200 envelope.
		return &Error{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Message:    env.errorMessage(),
		}
	}

	if out == nil {
		return nil
	}

	payload := body
	if enveloped && env.Data != nil {
		payload = env.Data
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
