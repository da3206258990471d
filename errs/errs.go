package errs

import (
	"errors"
)

var (
	// ErrInvalidURL indicates the input string is not a recognized media URL.
	ErrInvalidURL = errors.New("invalid media url")
	// ErrNoStreamingData indicates every persona was exhausted without a
	// usable streamingData section. Wrapped with the video id for diagnostics.
	ErrNoStreamingData = errors.New("no streaming data")
	// ErrNoPlayableURL indicates streaming data was present but no format
	// yielded an extractable URL.
	ErrNoPlayableURL = errors.New("no playable url")
	// ErrCipheredFormat indicates the only extractable formats are protected
	// by a signature cipher, which this service does not descramble.
	ErrCipheredFormat = errors.New("ciphered format unsupported")
)
