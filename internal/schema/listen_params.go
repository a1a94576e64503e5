package schema

// MetaModel is a non-provider-specific model name the proxy resolves per
// provider (spec glossary: "Meta-model").
const MetaModel = "cloud"

// ListenParams are the client-supplied parameters for a /listen session,
// shared verbatim between the WebSocket and batch entry points.
type ListenParams struct {
	// Model is an optional free-form string. MetaModel or "" means "resolve
	// per provider".
	Model string

	// Languages is the ordered, deduplicated list of requested languages,
	// primary first.
	Languages []Language

	// SampleRate is the PCM sample rate in Hz, typically 16000.
	SampleRate uint32

	// Channels is 1 (mono) or 2 (mic+speaker).
	Channels uint8

	// Keywords is a vocabulary boost hint list.
	Keywords []string

	// CustomQuery is passed through verbatim to the upstream URL.
	CustomQuery map[string]string
}

// IsMetaModel reports whether Model names a meta-model rather than a
// concrete provider model.
func (p ListenParams) IsMetaModel() bool {
	return p.Model == "" || p.Model == MetaModel
}

// Normalize returns a copy of p with Languages deduplicated.
func (p ListenParams) Normalize() ListenParams {
	p.Languages = DedupLanguages(p.Languages)
	return p
}
