package types

// Format describes one playable encoding from a streamingData section.
type Format struct {
	Itag            int
	URL             string
	MimeType        string
	Quality         string
	Bitrate         int
	Height          int
	SignatureCipher string
}

// StreamResolution is the stable answer for one resolve-stream request.
// Produced fresh per request; stream URLs are session-bound upstream and
// must never be cached.
type StreamResolution struct {
	VideoID   string
	Title     string
	Duration  int
	Thumbnail string
	StreamURL string
}

// ResultRecord is one normalized search/browse/category result. Uniqueness
// key is ID. Optional fields are empty when the endpoint shape omits them.
type ResultRecord struct {
	ID          string
	Title       string
	Author      string
	Thumbnail   string
	Duration    string
	Description string
}
