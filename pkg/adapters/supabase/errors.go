package supabase

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/aretw0/notekeep/pkg/core"
)

// gotrue-go reports non-2xx responses as "response status code <n>: <body>".
var authStatusPattern = regexp.MustCompile(`(?s)^response status code (\d{3})(?:: (.*))?$`)

// postgrest-go reports error bodies as "(<code>) <message>".
var restErrorPattern = regexp.MustCompile(`(?s)^\(([^)]*)\) (.*)$`)

// isTransport reports failures that never reached the backend.
func isTransport(err error) bool {
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

// authError maps a gotrue-go error onto a GatewayError when it carries a
// backend response. Transport and context errors are returned unchanged.
func authError(err error) error {
	if err == nil || isTransport(err) {
		return err
	}
	m := authStatusPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	status, _ := strconv.Atoi(m[1])
	return decodeError(status, []byte(m[2]))
}

// restError maps a postgrest-go error onto a GatewayError. The SDK drops the
// HTTP status, so it is inferred from the PostgREST or Postgres error code.
func restError(err error) error {
	if err == nil || isTransport(err) {
		return err
	}
	m := restErrorPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return &core.GatewayError{Status: http.StatusBadGateway, Message: err.Error()}
	}
	return &core.GatewayError{Status: restStatus(m[1]), Code: m[1], Message: m[2]}
}

func restStatus(code string) int {
	switch {
	case code == "42501":
		return http.StatusForbidden
	case code == "PGRST301" || code == "PGRST302" || code == "":
		// An empty code is an API gateway rejection such as a wrong apikey.
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// decodeError maps GoTrue ({msg|error_description, error_code}) and PostgREST
// ({message, code}) error bodies onto a GatewayError.
func decodeError(status int, payload []byte) error {
	var body struct {
		Msg              string          `json:"msg"`
		Message          string          `json:"message"`
		ErrorDescription string          `json:"error_description"`
		Error            string          `json:"error"`
		ErrorCode        string          `json:"error_code"`
		Code             json.RawMessage `json:"code"`
	}
	gwErr := &core.GatewayError{Status: status}
	if err := json.Unmarshal(payload, &body); err != nil {
		gwErr.Message = strings.TrimSpace(string(payload))
		if gwErr.Message == "" {
			gwErr.Message = http.StatusText(status)
		}
		return gwErr
	}

	for _, m := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
		if m != "" {
			gwErr.Message = m
			break
		}
	}
	if gwErr.Message == "" {
		gwErr.Message = http.StatusText(status)
	}

	gwErr.Code = body.ErrorCode
	if gwErr.Code == "" && len(body.Code) > 0 {
		var code string
		if json.Unmarshal(body.Code, &code) == nil {
			gwErr.Code = code
		}
	}
	if gwErr.Code == "" {
		gwErr.Code = body.Error
	}
	return gwErr
}
