// Package vault resolves the per-session directory layout described in
// spec.md §6.4 and writes the optional audio.wav capture. Path resolution
// follows the sandboxing idiom of the teacher's fileio tool: every session id
// is joined against the vault root and the result is verified to still live
// inside it before any I/O is attempted.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Vault resolves session directories rooted at a single base path.
type Vault struct {
	root string
}

// New returns a Vault rooted at root. root must be an absolute path; it is
// created (along with "sessions") if it does not already exist.
func New(root string) (*Vault, error) {
	if !filepath.IsAbs(root) {
		return nil, fmt.Errorf("vault: root %q must be an absolute path", root)
	}
	sessionsDir := filepath.Join(root, "sessions")
	if err := os.MkdirAll(sessionsDir, 0o755); err != nil {
		return nil, fmt.Errorf("vault: failed to create sessions directory: %w", err)
	}
	return &Vault{root: filepath.Clean(root)}, nil
}

// SessionDir resolves (creating if necessary) vault/sessions/<sessionID> and
// returns its absolute path. sessionID must not contain path separators or
// ".." components — it is a session identifier, not a path.
func (v *Vault) SessionDir(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("vault: session id must not be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("vault: invalid session id %q", sessionID)
	}

	base := filepath.Join(v.root, "sessions")
	dir := filepath.Join(base, sessionID)
	cleanBase := filepath.Clean(base)
	if !strings.HasPrefix(dir, cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("vault: session id %q escapes the vault", sessionID)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("vault: failed to create session directory: %w", err)
	}
	return dir, nil
}

// AudioPath returns the path Record writes to for sessionID, without
// creating anything.
func (v *Vault) AudioPath(sessionID string) string {
	return filepath.Join(v.root, "sessions", sessionID, "audio.wav")
}
