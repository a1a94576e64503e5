package adapter

import (
	"net/url"
	"strings"
)

// localHosts is the fixed set of hostnames url.URL.Hostname() (which already
// strips any port and IPv6 brackets) can return for a loopback address.
var localHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// hostTable maps known upstream hostnames to their provider Kind, used by
// Resolve's fallback table lookup.
var hostTable = map[string]Kind{
	"api.deepgram.com":           KindDeepgram,
	"stt-rt.soniox.com":          KindSoniox,
	"api.assemblyai.com":         KindAssemblyAI,
	"api.gladia.io":              KindGladia,
	"api.elevenlabs.io":          KindElevenLabs,
	"audio-streaming.fireworks.ai": KindFireworks,
	"api.openai.com":             KindOpenAI,
	"api.mistral.ai":             KindMistral,
	"speech.googleapis.com":      KindGoogle,
	"stt.speech.microsoft.com":   KindAzure,
}

// isLocalHost reports whether host (a bare hostname, with no port — the
// caller extracts it via url.URL.Hostname()) names a loopback address.
func isLocalHost(host string) bool {
	return localHosts[host]
}

// Resolve inspects apiBase's host and path (and, for local hosts, model) to
// pick an adapter Kind the way the proxy would from a client-supplied base
// URL, with no provider name supplied explicitly: *.hyprnote.com or a local
// host whose path contains "/stt" resolves to Hyprnote; any other local host
// resolves to Argmax, or Cactus if model contains "cactus"; everything else
// is a hostname table lookup.
func Resolve(apiBase string, model string) (Kind, bool) {
	u, err := url.Parse(apiBase)
	if err != nil {
		return "", false
	}
	host := u.Hostname()

	if strings.HasSuffix(host, ".hyprnote.com") {
		return KindHyprnote, true
	}
	if isLocalHost(host) {
		if strings.Contains(u.Path, "/stt") {
			return KindHyprnote, true
		}
		if strings.Contains(strings.ToLower(model), "cactus") {
			return KindCactus, true
		}
		return KindArgmax, true
	}

	kind, ok := hostTable[host]
	return kind, ok
}
