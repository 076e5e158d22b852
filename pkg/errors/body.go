package errors

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
)

// BodyKind tags how an error body was interpreted
type BodyKind string

const (
	BodyKindStructured BodyKind = "structured"
	BodyKindText       BodyKind = "text"
	BodyKindUnknown    BodyKind = "unknown"
)

// maxErrorBody caps how much of a failed response we read
const maxErrorBody = 64 << 10

// ErrorBody is the parsed form of a backend error response
type ErrorBody struct {
	Kind    BodyKind
	Message string
}

// ParseErrorBody reads resp.Body and extracts a human readable message.
// JSON bodies with a "message" or "detail" field are structured, any other
// non-empty body is text, and an empty or unreadable body is unknown.
func ParseErrorBody(resp *http.Response) ErrorBody {
	if resp == nil || resp.Body == nil {
		return ErrorBody{Kind: BodyKindUnknown}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return ErrorBody{Kind: BodyKindUnknown}
	}
	return ParseErrorBytes(raw)
}

// ParseErrorBytes is ParseErrorBody for an already-read body
func ParseErrorBytes(raw []byte) ErrorBody {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ErrorBody{Kind: BodyKindUnknown}
	}

	var payload struct {
		Message json.RawMessage `json:"message"`
		Detail  json.RawMessage `json:"detail"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		for _, field := range []json.RawMessage{payload.Message, payload.Detail, payload.Error} {
			if msg := messageFrom(field); msg != "" {
				return ErrorBody{Kind: BodyKindStructured, Message: msg}
			}
		}
		// valid JSON without a usable field
		if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
			return ErrorBody{Kind: BodyKindUnknown}
		}
	}

	return ErrorBody{Kind: BodyKindText, Message: text}
}

// messageFrom accepts a string, a {"message": ...} object, or a list of
// validation items carrying "msg".
func messageFrom(field json.RawMessage) string {
	if len(field) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(field, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(field, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}

	var items []struct {
		Msg     string `json:"msg"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(field, &items); err == nil {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				parts = append(parts, item.Msg)
			} else if item.Message != "" {
				parts = append(parts, item.Message)
			}
		}
		return strings.Join(parts, "; ")
	}

	return ""
}

// FromResponse turns a non-2xx response into an AppError. fallback is used
// when the body carries no message.
func FromResponse(resp *http.Response, fallback string) *AppError {
	body := ParseErrorBody(resp)
	message := body.Message
	if body.Kind == BodyKindUnknown || message == "" {
		message = fallback
	}
	appErr := FromStatus(resp.StatusCode, message)
	appErr.Details = map[string]interface{}{"body_kind": string(body.Kind)}
	return appErr
}

// As unwraps err into an AppError
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
