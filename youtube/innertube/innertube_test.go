package innertube

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
)

// mockTransport intercepts upstream requests and returns predefined
// responses. Requests to the site root (visitor id refresh) get an empty
// page.
type mockTransport struct {
	responseStatus  int
	responseBody    []byte
	contentEncoding string
	pageBody        []byte // served on GET (visitor id refresh probe)

	lastBody      []byte
	lastHeader    http.Header
	lastGetHeader http.Header
}

func (t *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodGet {
		t.lastGetHeader = req.Header.Clone()
		return &http.Response{StatusCode: http.StatusOK, Header: make(http.Header), Body: io.NopCloser(bytes.NewReader(t.pageBody))}, nil
	}

	if req.Body != nil {
		t.lastBody, _ = io.ReadAll(req.Body)
	}
	t.lastHeader = req.Header.Clone()

	resp := &http.Response{
		StatusCode: t.responseStatus,
		Header:     make(http.Header),
		Body:       http.NoBody,
	}
	if t.contentEncoding != "" {
		resp.Header.Set("Content-Encoding", t.contentEncoding)
	}
	if t.responseBody != nil {
		resp.Body = io.NopCloser(bytes.NewReader(t.responseBody))
	}
	return resp, nil
}

func newMockClient(t *mockTransport) *Client {
	return New(&http.Client{Transport: t, Timeout: 5 * time.Second})
}

func TestNew(t *testing.T) {
	client := New(nil)
	if client == nil {
		t.Fatal("Expected non-nil client")
	}
	if client.HTTPClient == nil {
		t.Fatal("Expected non-nil HTTPClient")
	}
}

func TestPlayerParsesResponse(t *testing.T) {
	body := `{
		"streamingData": {
			"formats": [{"itag": 18, "url": "https://media.example/18"}],
			"adaptiveFormats": []
		},
		"videoDetails": {
			"title": "Test Song",
			"lengthSeconds": "213",
			"thumbnail": {"thumbnails": [
				{"url": "small", "width": 120, "height": 90},
				{"url": "large", "width": 1280, "height": 720}
			]}
		},
		"playabilityStatus": {"status": "OK"}
	}`
	tr := &mockTransport{responseStatus: http.StatusOK, responseBody: []byte(body)}
	client := newMockClient(tr)

	resp, err := client.Player(context.Background(), "abc123", Primary())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if !resp.HasStreamingData() {
		t.Error("Expected streaming data to be present")
	}
	if resp.VideoDetails.Title != "Test Song" {
		t.Errorf("Expected title 'Test Song', got '%s'", resp.VideoDetails.Title)
	}
	if resp.VideoDetails.LengthSeconds != "213" {
		t.Errorf("Expected length '213', got '%s'", resp.VideoDetails.LengthSeconds)
	}
	if n := len(resp.VideoDetails.Thumbnail.Thumbnails); n != 2 {
		t.Errorf("Expected 2 thumbnails, got %d", n)
	}
}

func TestPlayerSendsPersonaContext(t *testing.T) {
	tr := &mockTransport{responseStatus: http.StatusOK, responseBody: []byte(`{}`)}
	client := newMockClient(tr)
	persona := Primary()

	if _, err := client.Player(context.Background(), "abc123", persona); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var sent struct {
		Context struct {
			Client map[string]any `json:"client"`
		} `json:"context"`
		VideoID string `json:"videoId"`
	}
	if err := json.Unmarshal(tr.lastBody, &sent); err != nil {
		t.Fatalf("Expected valid request body, got error %v", err)
	}
	if sent.VideoID != "abc123" {
		t.Errorf("Expected videoId 'abc123', got '%s'", sent.VideoID)
	}
	if sent.Context.Client["clientName"] != persona.Name {
		t.Errorf("Expected clientName '%s', got '%v'", persona.Name, sent.Context.Client["clientName"])
	}
	if sent.Context.Client["osName"] != "Android" {
		t.Errorf("Expected Android enrichment, got '%v'", sent.Context.Client["osName"])
	}

	if got := tr.lastHeader.Get("X-YouTube-Client-Name"); got != persona.ClientCode {
		t.Errorf("Expected client code header '%s', got '%s'", persona.ClientCode, got)
	}
	if got := tr.lastHeader.Get("User-Agent"); got != persona.UserAgent {
		t.Errorf("Expected persona user agent, got '%s'", got)
	}
}

func TestPlayerStatusError(t *testing.T) {
	tr := &mockTransport{responseStatus: http.StatusForbidden, responseBody: []byte(`{}`)}
	client := newMockClient(tr)

	_, err := client.Player(context.Background(), "abc123", Primary())
	if err == nil {
		t.Fatal("Expected error on 403 response")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("Expected status code in error, got '%v'", err)
	}
}

func TestSearchSendsQueryAndParams(t *testing.T) {
	tr := &mockTransport{responseStatus: http.StatusOK, responseBody: []byte(`{"contents": {}}`)}
	client := newMockClient(tr)

	doc, err := client.Search(context.Background(), "test query", "EgIQAQ==", DefaultPersonas()[2])
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if doc == nil {
		t.Fatal("Expected non-nil document")
	}

	var sent map[string]any
	if err := json.Unmarshal(tr.lastBody, &sent); err != nil {
		t.Fatalf("Expected valid request body, got error %v", err)
	}
	if sent["query"] != "test query" {
		t.Errorf("Expected query 'test query', got '%v'", sent["query"])
	}
	if sent["params"] != "EgIQAQ==" {
		t.Errorf("Expected params 'EgIQAQ==', got '%v'", sent["params"])
	}
}

func TestGzipDecompression(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte(`{"videoDetails": {"title": "compressed"}}`))
	_ = gz.Close()

	tr := &mockTransport{responseStatus: http.StatusOK, responseBody: buf.Bytes(), contentEncoding: "gzip"}
	client := newMockClient(tr)

	resp, err := client.Player(context.Background(), "abc123", Primary())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.VideoDetails.Title != "compressed" {
		t.Errorf("Expected title 'compressed', got '%s'", resp.VideoDetails.Title)
	}
}

func TestBrotliDecompression(t *testing.T) {
	var buf bytes.Buffer
	br := brotli.NewWriter(&buf)
	_, _ = br.Write([]byte(`{"videoDetails": {"title": "brotli"}}`))
	_ = br.Close()

	tr := &mockTransport{responseStatus: http.StatusOK, responseBody: buf.Bytes(), contentEncoding: "br"}
	client := newMockClient(tr)

	resp, err := client.Player(context.Background(), "abc123", Primary())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if resp.VideoDetails.Title != "brotli" {
		t.Errorf("Expected title 'brotli', got '%s'", resp.VideoDetails.Title)
	}
}

func TestHasStreamingData(t *testing.T) {
	tests := []struct {
		name     string
		resp     *PlayerResponse
		expected bool
	}{
		{"nil response", nil, false},
		{"empty response", &PlayerResponse{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.resp.HasStreamingData(); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}

	withFormats := &PlayerResponse{}
	withFormats.StreamingData.AdaptiveFormats = []any{map[string]any{"itag": float64(140)}}
	if !withFormats.HasStreamingData() {
		t.Error("Expected adaptive-only response to report streaming data")
	}
}

func TestFetchVisitorID(t *testing.T) {
	page := "<html></html>\nytcfg.set({\"INNERTUBE_CONTEXT\":{\"client\":{\"visitorData\":\"CgtX%3D\"}}}); window.done();"
	tr := &mockTransport{pageBody: []byte(page)}
	c := New(&http.Client{Transport: tr, Timeout: 5 * time.Second})

	got, err := fetchVisitorID(c.web)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != "CgtX=" {
		t.Errorf("Expected decoded visitor data 'CgtX=', got '%s'", got)
	}

	// the page probe goes out with a browser profile
	if ua := tr.lastGetHeader.Get("User-Agent"); ua != desktopUserAgent {
		t.Errorf("Expected desktop user agent, got '%s'", ua)
	}
	if tr.lastGetHeader.Get("Accept-Language") == "" {
		t.Error("Expected Accept-Language header on page probe")
	}
}

func TestFetchVisitorIDMissingConfig(t *testing.T) {
	tr := &mockTransport{pageBody: []byte("<html>no config here</html>")}
	c := New(&http.Client{Transport: tr, Timeout: 5 * time.Second})

	if _, err := fetchVisitorID(c.web); err == nil {
		t.Error("Expected error when page carries no visitor data")
	}
}
