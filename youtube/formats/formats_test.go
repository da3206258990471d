package formats

import (
	"errors"
	"net/url"
	"testing"

	"github.com/museup/museup-api/errs"
	"github.com/museup/museup-api/types"
)

func TestParseStreamingData(t *testing.T) {
	combinedRaw := []any{
		map[string]any{
			"itag":         float64(18),
			"mimeType":     "video/mp4; codecs=\"avc1.42001E, mp4a.40.2\"",
			"qualityLabel": "360p",
			"bitrate":      float64(500000),
			"height":       float64(360),
			"url":          "https://media.example/18",
		},
		"not a map",
	}
	adaptiveRaw := []any{
		map[string]any{
			"itag":            float64(140),
			"mimeType":        "audio/mp4; codecs=\"mp4a.40.2\"",
			"signatureCipher": "s=SIG&sp=sig&url=" + url.QueryEscape("https://media.example/140"),
		},
	}

	combined, adaptive := ParseStreamingData(combinedRaw, adaptiveRaw)

	if len(combined) != 1 {
		t.Fatalf("Expected 1 combined format, got %d", len(combined))
	}
	if combined[0].Itag != 18 {
		t.Errorf("Expected itag 18, got %d", combined[0].Itag)
	}
	if combined[0].URL != "https://media.example/18" {
		t.Errorf("Expected direct URL, got '%s'", combined[0].URL)
	}
	if combined[0].Height != 360 {
		t.Errorf("Expected height 360, got %d", combined[0].Height)
	}

	if len(adaptive) != 1 {
		t.Fatalf("Expected 1 adaptive format, got %d", len(adaptive))
	}
	if adaptive[0].URL != "" {
		t.Errorf("Expected no direct URL on ciphered format, got '%s'", adaptive[0].URL)
	}
	if adaptive[0].SignatureCipher == "" {
		t.Error("Expected signatureCipher to be captured")
	}
}

func TestSelectPlayableCombinedWins(t *testing.T) {
	// Combined formats win over adaptive formats, whatever their quality
	combined := []types.Format{
		{Itag: 18, MimeType: "video/mp4", URL: "https://media.example/combined"},
	}
	adaptive := []types.Format{
		{Itag: 140, MimeType: "audio/mp4", URL: "https://media.example/audio"},
	}

	got, err := SelectPlayable(combined, adaptive, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "https://media.example/combined" {
		t.Errorf("Expected combined URL, got '%s'", got)
	}
}

func TestSelectPlayableFirstCombinedInDocumentOrder(t *testing.T) {
	combined := []types.Format{
		{Itag: 22, MimeType: "video/mp4", URL: "https://media.example/first"},
		{Itag: 18, MimeType: "video/mp4", URL: "https://media.example/second"},
	}

	got, err := SelectPlayable(combined, nil, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "https://media.example/first" {
		t.Errorf("Expected first combined format URL, got '%s'", got)
	}
}

func TestSelectPlayableAudioPreferredOverVideo(t *testing.T) {
	// Video-only listed first; audio must still win
	adaptive := []types.Format{
		{Itag: 299, MimeType: "video/mp4", URL: "u2"},
		{Itag: 140, MimeType: "audio/mp4", URL: "u1"},
	}

	got, err := SelectPlayable(nil, adaptive, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "u1" {
		t.Errorf("Expected audio URL 'u1', got '%s'", got)
	}
}

func TestSelectPlayableFallsBackToAnyAdaptive(t *testing.T) {
	adaptive := []types.Format{
		{Itag: 299, MimeType: "video/mp4", URL: "video-only"},
	}

	got, err := SelectPlayable(nil, adaptive, true)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "video-only" {
		t.Errorf("Expected video-only URL, got '%s'", got)
	}
}

func TestSelectPlayableNoCandidates(t *testing.T) {
	_, err := SelectPlayable(nil, nil, true)
	if !errors.Is(err, errs.ErrNoPlayableURL) {
		t.Errorf("Expected ErrNoPlayableURL, got %v", err)
	}
}

func TestSelectPlayableStrictRejectsCiphered(t *testing.T) {
	blob := "s=RAWSIG&sp=sig&url=" + url.QueryEscape("https://media.example/ciphered")
	adaptive := []types.Format{
		{Itag: 140, MimeType: "audio/mp4", SignatureCipher: blob},
	}

	_, err := SelectPlayable(nil, adaptive, true)
	if !errors.Is(err, errs.ErrCipheredFormat) {
		t.Errorf("Expected ErrCipheredFormat in strict mode, got %v", err)
	}

	// Best-effort mode keeps the documented shim behavior
	got, err := SelectPlayable(nil, adaptive, false)
	if err != nil {
		t.Fatalf("Expected no error in best-effort mode, got %v", err)
	}
	u, perr := url.Parse(got)
	if perr != nil {
		t.Fatalf("Expected parseable URL, got error %v", perr)
	}
	if u.Query().Get("sig") != "RAWSIG" {
		t.Errorf("Expected raw signature appended under 'sig', got '%s'", got)
	}
}

func TestExtractURLDirectWinsOverCipher(t *testing.T) {
	f := types.Format{
		URL:             "https://media.example/direct",
		SignatureCipher: "s=SIG&url=" + url.QueryEscape("https://media.example/other"),
	}
	got, ciphered := ExtractURL(f, true)
	if ciphered {
		t.Error("Expected direct format not to be flagged ciphered")
	}
	if got != "https://media.example/direct" {
		t.Errorf("Expected direct URL, got '%s'", got)
	}
}

func TestIsAudio(t *testing.T) {
	tests := []struct {
		mime     string
		expected bool
	}{
		{"audio/mp4; codecs=\"mp4a.40.2\"", true},
		{"AUDIO/webm", true},
		{"video/mp4", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := isAudio(types.Format{MimeType: tt.mime}); got != tt.expected {
			t.Errorf("Expected isAudio(%q)=%v, got %v", tt.mime, tt.expected, got)
		}
	}
}
