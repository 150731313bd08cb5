package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// TransportError reports an unreachable backend, a 5xx response or an
// unreadable response body
type TransportError struct {
	Method     string
	URL        string
	StatusCode int // zero when no response was received
	Detail     string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s %s: server error %d: %s", e.Method, e.URL, e.StatusCode, e.Detail)
	default:
		return fmt.Sprintf("%s %s: server error %d", e.Method, e.URL, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports a payload rejected by the backend (4xx other than 404)
type ValidationError struct {
	StatusCode int
	Detail     string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request rejected (%d)", e.StatusCode)
	}
	return fmt.Sprintf("request rejected (%d): %s", e.StatusCode, e.Detail)
}

// NotFoundError reports an operation on a record id that does not exist
type NotFoundError struct {
	Resource string
	ID       RecordID
	Detail   string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s record %q not found", e.Resource, e.ID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// errorBody covers the error shapes the backend is known to return
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// errorDetail extracts a human readable message from a failed response body
func errorDetail(body []byte) string {
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		for _, s := range []string{eb.Detail, eb.Message, eb.Error} {
			if s != "" {
				return s
			}
		}
	}

	detail := strings.TrimSpace(string(body))
	if len(detail) > 200 {
		detail = detail[:197] + "..."
	}
	return detail
}

// classify maps a non-2xx status to the error taxonomy
func classify(req *http.Request, status int, body []byte, resource string, id RecordID) error {
	detail := errorDetail(body)

	switch {
	case status == http.StatusNotFound:
		return &NotFoundError{Resource: resource, ID: id, Detail: detail}
	case status >= 400 && status < 500:
		return &ValidationError{StatusCode: status, Detail: detail}
	default:
		return &TransportError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: status,
			Detail:     detail,
		}
	}
}
