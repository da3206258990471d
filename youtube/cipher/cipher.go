// Package cipher handles signatureCipher parameter blobs attached to
// protected formats.
//
// It does NOT descramble signatures. Doing that properly requires executing
// the platform's obfuscated player JavaScript, which is out of scope for
// this service. Recover parses the blob, percent-decodes the embedded target
// URL and appends the raw signature under its declared parameter name. The
// produced URL may be non-functional for ciphered streams; callers decide
// whether to use it (best-effort mode) or reject the format (strict mode).
package cipher

import (
	"net/url"
)

// Recognized signature parameter names. Anything else falls back to
// "signature".
var signatureParamNames = map[string]bool{
	"sig":       true,
	"signature": true,
	"lsig":      true,
}

// Recovered is the outcome of parsing one signatureCipher blob.
type Recovered struct {
	// URL is the best-effort playable URL with the raw signature appended.
	URL string
	// Param is the signature parameter name actually used.
	Param string
}

// Recover parses a signatureCipher query-string blob and rebuilds a
// best-effort URL. ok is false when the blob carries no embedded URL.
func Recover(blob string) (Recovered, bool) {
	values, err := url.ParseQuery(blob)
	if err != nil {
		return Recovered{}, false
	}

	target := values.Get("url")
	if target == "" {
		return Recovered{}, false
	}

	sig := values.Get("s")
	if sig == "" {
		// Some blobs carry an already-usable URL and no signature
		return Recovered{URL: target, Param: ""}, true
	}

	param := values.Get("sp")
	if !signatureParamNames[param] {
		param = "signature"
	}

	u, err := url.Parse(target)
	if err != nil {
		return Recovered{}, false
	}
	q := u.Query()
	q.Set(param, sig)
	u.RawQuery = q.Encode()

	return Recovered{URL: u.String(), Param: param}, true
}
