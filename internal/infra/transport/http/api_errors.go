package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/mkrupp/chroniclex/internal/domain"
)

// ErrorFromResponse maps a failed backend response to a domain error.
//
//   - 400: ValidationError (a "detail" becomes a non-field error)
//   - 401: AuthenticationError
//   - 403: AuthorizationError
//   - 404: NotFoundError
//   - anything else: NetworkError carrying the status.
func ErrorFromResponse(op string, status int, payload []byte) error {
	fields := ParseErrorBody(payload)

	switch status {
	case http.StatusBadRequest:
		if len(fields) == 0 {
			fields = map[string][]string{domain.NonFieldErrorsKey: {http.StatusText(status)}}
		}

		return &domain.ValidationError{Fields: fields}
	case http.StatusUnauthorized:
		return &domain.AuthenticationError{Messages: flatten(fields)}
	case http.StatusForbidden:
		return &domain.AuthorizationError{Detail: strings.Join(flatten(fields), " ")}
	case http.StatusNotFound:
		return &domain.NotFoundError{Detail: strings.Join(flatten(fields), " ")}
	default:
		msg := strings.Join(flatten(fields), " ")
		if msg == "" {
			msg = http.StatusText(status)
		}

		return &domain.NetworkError{Op: op, StatusCode: status, Err: errors.New(msg)}
	}
}

// ParseErrorBody reads a REST framework error document into field messages.
// Objects map fields to a message or a list of messages; a bare string or
// list counts as non-field errors. Anything that is not JSON yields nil.
func ParseErrorBody(payload []byte) map[string][]string {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil
	}

	fields := make(map[string][]string)

	switch v := doc.(type) {
	case map[string]any:
		for key, value := range v {
			if key == "detail" || key == "error" {
				key = domain.NonFieldErrorsKey
			}

			if msgs := messages(value); len(msgs) > 0 {
				fields[key] = append(fields[key], msgs...)
			}
		}
	case []any, string:
		if msgs := messages(v); len(msgs) > 0 {
			fields[domain.NonFieldErrorsKey] = msgs
		}
	}

	if len(fields) == 0 {
		return nil
	}

	return fields
}

func messages(value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}

		return []string{v}
	case []any:
		var out []string
		for _, item := range v {
			out = append(out, messages(item)...)
		}

		return out
	case map[string]any:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		var out []string
		for _, key := range keys {
			for _, msg := range messages(v[key]) {
				out = append(out, key+": "+msg)
			}
		}

		return out
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(v)}
	}
}

func flatten(fields map[string][]string) []string {
	if len(fields) == 0 {
		return nil
	}

	return (&domain.ValidationError{Fields: fields}).AllMessages()
}
