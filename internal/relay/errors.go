package relay

import (
	"encoding/json"
	"net/http"
	"strings"
)

// errCode is a stable machine-readable error identifier returned to clients
// on HTTP rejections, per spec.md §7's configuration/auth error taxonomy.
type errCode string

const (
	errMissingConfig   errCode = "missing_config"
	errInvalidProvider errCode = "invalid_provider"
	errUnauthorized    errCode = "unauthorized"
	errInvalidAudio    errCode = "invalid_audio"
)

// apiError is the JSON body of a rejected HTTP request.
type apiError struct {
	Error   string  `json:"error"`
	Code    errCode `json:"code"`
	Message string  `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Error: message, Code: code, Message: message})
}

// writeJSON writes v as a JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// formatUserFriendlyError rewrites an internal error into the stable,
// non-leaky string shown to end users, per spec.md §7.
func formatUserFriendlyError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"), strings.Contains(msg, "unauthorized"), strings.Contains(msg, "forbidden"):
		return "Authentication failed"
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "too many requests"), strings.Contains(msg, "429"):
		return "Rate limit exceeded"
	case strings.Contains(msg, "connection"), strings.Contains(msg, "timeout"), strings.Contains(msg, "dial"):
		return "Could not connect to the transcription service"
	case strings.Contains(msg, "audio"), strings.Contains(msg, "format"), strings.Contains(msg, "content-type"):
		return "Audio format is not supported"
	default:
		return "An unexpected error occurred"
	}
}
