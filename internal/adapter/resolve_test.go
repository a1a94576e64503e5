package adapter

import "testing"

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		apiBase string
		model   string
		want    Kind
		wantOK  bool
	}{
		{"hyprnote cloud host", "https://eu.hyprnote.com/listen", "", KindHyprnote, true},
		{"local with stt path", "http://localhost:9000/api/stt/listen", "", KindHyprnote, true},
		{"local without stt path", "ws://localhost:8080/listen", "", KindArgmax, true},
		{"local cactus model", "ws://127.0.0.1:8765/listen", "cactus-v2", KindCactus, true},
		{"deepgram host table", "wss://api.deepgram.com/v1/listen", "", KindDeepgram, true},
		{"soniox host table", "wss://stt-rt.soniox.com/transcribe-websocket", "", KindSoniox, true},
		{"unknown host", "wss://unknown.example.com/listen", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.apiBase, tt.model)
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q, %q) ok = %v, want %v", tt.apiBase, tt.model, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("Resolve(%q, %q) = %v, want %v", tt.apiBase, tt.model, got, tt.want)
			}
		})
	}
}

func TestIsLocalHost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"api.deepgram.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			if got := isLocalHost(tt.host); got != tt.want {
				t.Errorf("isLocalHost(%q) = %v, want %v", tt.host, got, tt.want)
			}
		})
	}
}
