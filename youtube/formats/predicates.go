// Package formats parses streamingData sections and selects a playable URL.
package formats

import (
	"strings"

	"github.com/museup/museup-api/types"
)

// hasDirectURL returns true when the format already contains a resolvable URL.
// Formats without direct URLs carry a signatureCipher blob instead.
func hasDirectURL(format types.Format) bool {
	return strings.TrimSpace(format.URL) != ""
}

// isAudio checks the MIME type prefix. Adaptive audio encodings are
// preferred over video-only ones because the downstream player is a music
// app.
func isAudio(format types.Format) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(format.MimeType)), "audio")
}
