package formats

import (
	"github.com/museup/museup-api/errs"
	"github.com/museup/museup-api/types"
	"github.com/museup/museup-api/youtube/cipher"
)

// ParseStreamingData converts the raw streamingData sections of a player
// response into typed formats. The combined list carries audio+video muxed
// encodings, the adaptive list carries audio-only or video-only encodings.
// Neither list is ordered by quality upstream.
func ParseStreamingData(combined, adaptive []any) ([]types.Format, []types.Format) {
	return parseList(combined), parseList(adaptive)
}

func parseList(raw []any) []types.Format {
	var out []types.Format
	for _, formatData := range raw {
		f, ok := formatData.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, parseFormat(f))
	}
	return out
}

func parseFormat(f map[string]any) types.Format {
	var format types.Format

	if v, ok := f["itag"].(float64); ok {
		format.Itag = int(v)
	}
	if v, ok := f["bitrate"].(float64); ok {
		format.Bitrate = int(v)
	}
	if v, ok := f["height"].(float64); ok {
		format.Height = int(v)
	}
	format.MimeType, _ = f["mimeType"].(string)
	format.Quality, _ = f["qualityLabel"].(string)

	if urlVal, ok := f["url"].(string); ok {
		format.URL = urlVal
	} else if sc, ok := f["signatureCipher"].(string); ok {
		format.SignatureCipher = sc
	}

	return format
}

// ExtractURL produces a playable URL for one format. A direct URL wins;
// otherwise the signatureCipher blob is parsed best-effort. In strict mode a
// recovery that still carries a raw (unscrambled) signature is rejected,
// since such URLs are known to be non-functional. ciphered reports whether
// the format was rejected for that reason alone.
func ExtractURL(f types.Format, strict bool) (url string, ciphered bool) {
	if hasDirectURL(f) {
		return f.URL, false
	}
	if f.SignatureCipher == "" {
		return "", false
	}
	rec, ok := cipher.Recover(f.SignatureCipher)
	if !ok {
		return "", false
	}
	if strict && rec.Param != "" {
		return "", true
	}
	return rec.URL, false
}

// SelectPlayable applies the format-preference policy in strict priority
// order:
//
//	a) combined formats in document order, first extractable URL wins;
//	b) adaptive formats restricted to audio MIME types, document order;
//	c) all adaptive formats regardless of MIME type.
//
// When nothing is extractable the error distinguishes documents whose only
// candidates were cipher-protected from documents with no candidates at all.
func SelectPlayable(combined, adaptive []types.Format, strict bool) (string, error) {
	sawCiphered := false

	scan := func(list []types.Format, pred func(types.Format) bool) string {
		for _, f := range list {
			if pred != nil && !pred(f) {
				continue
			}
			url, ciphered := ExtractURL(f, strict)
			if ciphered {
				sawCiphered = true
			}
			if url != "" {
				return url
			}
		}
		return ""
	}

	if url := scan(combined, nil); url != "" {
		return url, nil
	}
	if url := scan(adaptive, isAudio); url != "" {
		return url, nil
	}
	if url := scan(adaptive, nil); url != "" {
		return url, nil
	}

	if sawCiphered {
		return "", errs.ErrCipheredFormat
	}
	return "", errs.ErrNoPlayableURL
}
