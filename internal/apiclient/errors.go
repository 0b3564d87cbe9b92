package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrBadRequest   = errors.New("bad request")
	ErrConflict     = errors.New("conflict")
	ErrServer       = errors.New("server error")

	// ErrNoToken is returned when the refresh endpoint answers 2xx without a token.
	ErrNoToken = errors.New("refresh response carried no access token")
)

// NetworkError means no response reached the client.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: network error: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is any response with status >= 400. Message is the server's
// own text, passed through unmodified.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Code       string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is maps status codes onto the package sentinels.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrForbidden:
		return e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	case ErrServer:
		return e.StatusCode >= 500
	}
	return false
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Msg     string `json:"msg"`
	Detail  string `json:"detail"`
	Code    string `json:"code"`
}

func newHTTPError(method, path string, status int, body []byte) *HTTPError {
	e := &HTTPError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       body,
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Code = eb.Code
		for _, m := range []string{eb.Message, eb.Error, eb.Msg, eb.Detail} {
			if m != "" {
				e.Message = m
				break
			}
		}
	} else if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 512 {
		e.Message = text
	}

	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// IsEmailUnverified recognises the 403 the backend sends for accounts that
// have not confirmed their email yet.
func IsEmailUnverified(err error) bool {
	var he *HTTPError
	if !errors.As(err, &he) || he.StatusCode != http.StatusForbidden {
		return false
	}
	switch strings.ToLower(he.Code) {
	case "email_unverified", "email_not_verified", "unverified":
		return true
	}
	msg := strings.ToLower(he.Message)
	return strings.Contains(msg, "verify") || strings.Contains(msg, "verified")
}

// UserMessage renders err as the inline text shown to a user.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if IsNetwork(err) {
		return "Network error. Check your connection and try again."
	}
	var he *HTTPError
	if !errors.As(err, &he) {
		return fallback
	}
	switch {
	case he.StatusCode == http.StatusUnauthorized && he.Message == http.StatusText(http.StatusUnauthorized):
		return "Your session has expired. Please sign in again."
	case IsEmailUnverified(err):
		return "Please verify your email address. You can request a new verification link."
	case he.StatusCode == http.StatusForbidden && he.Message == http.StatusText(http.StatusForbidden):
		return "You do not have permission to do that."
	case he.StatusCode == http.StatusNotFound && he.Message == http.StatusText(http.StatusNotFound):
		return "Not found."
	case he.StatusCode >= 500 && he.Message == http.StatusText(he.StatusCode):
		return fallback
	}
	return he.Message
}
