package innertube

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/museup/museup-api/client"
	"github.com/museup/museup-api/internal/logger"
)

var (
	playerURL = "https://www.youtube.com/youtubei/v1/player"
	searchURL = "https://www.youtube.com/youtubei/v1/search"
)

const (
	ytBase                = "https://www.youtube.com"
	headerContentTypeJSON = "application/json"
	visitorIDMaxAge       = 10 * time.Hour
)

// Client talks to the InnerTube API. One instance is shared by all inbound
// requests; the only mutable state is the visitor context, guarded by a
// mutex.
type Client struct {
	HTTPClient *http.Client

	// web issues browser-profile GETs against the site itself (visitor id
	// refresh); API calls bypass it since personas carry their own headers
	// and get exactly one attempt each.
	web *client.Client
	log *logger.ComponentLogger

	visitorMu sync.Mutex
	visitor   struct {
		value      string
		updated    time.Time
		refreshing bool
	}
}

// New creates a new InnerTube client around the provided HTTP client. A nil
// httpClient uses the shared tuned transport.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = client.New().HTTPClient
	}
	return &Client{
		HTTPClient: httpClient,
		web: &client.Client{
			HTTPClient: httpClient,
			Retries:    2,
			UserAgent:  desktopUserAgent,
		},
		log: logger.WithComponent(logger.ComponentInnerTube),
	}
}

// PlayerResponse represents a response from the InnerTube /player endpoint.
// Format entries stay untyped; their shape churns upstream and is parsed
// defensively by the formats package.
type PlayerResponse struct {
	StreamingData struct {
		Formats         []any `json:"formats"`
		AdaptiveFormats []any `json:"adaptiveFormats"`
	} `json:"streamingData"`
	VideoDetails struct {
		Title         string `json:"title"`
		LengthSeconds string `json:"lengthSeconds"`
		Thumbnail     struct {
			Thumbnails []Thumbnail `json:"thumbnails"`
		} `json:"thumbnail"`
	} `json:"videoDetails"`
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

// Thumbnail is one entry of a thumbnails list. Upstream orders these by
// ascending resolution.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// HasStreamingData reports whether the response carries any format entries.
func (r *PlayerResponse) HasStreamingData() bool {
	if r == nil {
		return false
	}
	return len(r.StreamingData.Formats) > 0 || len(r.StreamingData.AdaptiveFormats) > 0
}

// Player fetches video data for the provided video ID using the given
// persona.
func (c *Client) Player(ctx context.Context, videoID string, p Persona) (*PlayerResponse, error) {
	body := map[string]any{
		"context": map[string]any{
			"client": p.clientContext(c.currentVisitorID()),
		},
		"videoId": videoID,
	}

	raw, err := c.post(ctx, playerURL, body, p)
	if err != nil {
		return nil, err
	}

	var playerResponse PlayerResponse
	if err := json.Unmarshal(raw, &playerResponse); err != nil {
		return nil, fmt.Errorf("parse player response: %w", err)
	}
	return &playerResponse, nil
}

// Search issues a /search call and returns the raw document. params is the
// upstream refinement blob selecting the result family (videos, playlists,
// albums); empty means no refinement. The caller normalizes the nested tree.
func (c *Client) Search(ctx context.Context, query, params string, p Persona) (map[string]any, error) {
	body := map[string]any{
		"context": map[string]any{
			"client": p.clientContext(c.currentVisitorID()),
		},
		"query": query,
	}
	if params != "" {
		body["params"] = params
	}

	raw, err := c.post(ctx, searchURL, body, p)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return doc, nil
}

// post issues one InnerTube POST and returns the decompressed body.
func (c *Client) post(ctx context.Context, endpoint string, body map[string]any, p Persona) ([]byte, error) {
	requestBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+p.APIKey, bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", headerContentTypeJSON)
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Referer", ytBase+"/")
	req.Header.Set("Origin", ytBase)
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Cache-Control", "no-cache")
	if p.ClientCode != "" {
		req.Header.Set("X-YouTube-Client-Name", p.ClientCode)
	}
	req.Header.Set("X-YouTube-Client-Version", p.Version)
	if visitorID := c.currentVisitorID(); visitorID != "" {
		req.Header.Set("x-goog-visitor-id", visitorID)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	c.log.Debug("innertube call", map[string]interface{}{
		"endpoint": endpoint,
		"persona":  p.Name,
		"status":   resp.StatusCode,
	})

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("innertube: persona %s got status %d", p.Name, resp.StatusCode)
	}

	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gzReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "deflate":
		// raw DEFLATE data, no wrapper
		reader = resp.Body
	case "bzip2":
		reader = bzip2.NewReader(resp.Body)
	}

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return raw, nil
}

// currentVisitorID returns the cached visitor context. A stale value kicks
// off a background refresh; requests never wait on it and simply go out
// without a visitor id until one is available.
func (c *Client) currentVisitorID() string {
	c.visitorMu.Lock()
	value := c.visitor.value
	stale := value == "" || time.Since(c.visitor.updated) > visitorIDMaxAge
	if stale && !c.visitor.refreshing {
		c.visitor.refreshing = true
		go c.refreshVisitorID()
	}
	c.visitorMu.Unlock()
	return value
}

// refreshVisitorID fetches a new visitor ID from the platform's main page
// and stores it. Failures are tolerated and rate-limited by the updated
// timestamp.
func (c *Client) refreshVisitorID() {
	value, err := fetchVisitorID(c.web)

	c.visitorMu.Lock()
	c.visitor.refreshing = false
	c.visitor.updated = time.Now()
	if err == nil {
		c.visitor.value = value
	}
	c.visitorMu.Unlock()

	if err != nil {
		c.log.Debug("visitor id refresh failed", map[string]interface{}{"error": err.Error()})
	}
}

func fetchVisitorID(web *client.Client) (string, error) {
	const sep = "\nytcfg.set("

	resp, err := web.Get(ytBase)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	_, data1, found := strings.Cut(string(data), sep)
	if !found {
		return "", errors.New("visitor id not found in platform response")
	}

	var value struct {
		InnertubeContext struct {
			Client struct {
				VisitorData string `json:"visitorData"`
			} `json:"client"`
		} `json:"INNERTUBE_CONTEXT"`
	}

	if err := json.NewDecoder(strings.NewReader(data1)).Decode(&value); err != nil {
		return "", err
	}

	return strings.ReplaceAll(value.InnertubeContext.Client.VisitorData, "%3D", "="), nil
}
