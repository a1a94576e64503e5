package relay

import (
	"errors"
	"testing"
)

func TestFormatUserFriendlyError(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("401 unauthorized from upstream"), "Authentication failed"},
		{errors.New("provider returned 403 forbidden"), "Authentication failed"},
		{errors.New("rate limit exceeded, retry later"), "Rate limit exceeded"},
		{errors.New("429 too many requests"), "Rate limit exceeded"},
		{errors.New("dial tcp: connection refused"), "Could not connect to the transcription service"},
		{errors.New("context deadline exceeded: timeout"), "Could not connect to the transcription service"},
		{errors.New("unsupported audio format"), "Audio format is not supported"},
		{errors.New("something exploded"), "An unexpected error occurred"},
	}
	for _, tt := range cases {
		if got := formatUserFriendlyError(tt.err); got != tt.want {
			t.Errorf("formatUserFriendlyError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
