// Package museup aggregates the upstream music platform's private API into a
// small set of music-oriented operations: stream resolution, ranked search,
// cached trending charts and category browsing.
package museup

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/museup/museup-api/errs"
	"github.com/museup/museup-api/internal/cache"
	"github.com/museup/museup-api/internal/logger"
	"github.com/museup/museup-api/types"
	"github.com/museup/museup-api/youtube/innertube"
	"github.com/museup/museup-api/youtube/results"
	"github.com/museup/museup-api/youtube/streams"
)

// Result caps per operation.
const (
	searchCap   = 30
	trendingCap = 30
	songsCap    = 25
	playlistCap = 20
	albumCap    = 20

	// trendingMin triggers the backup query when the primary chart query
	// comes back too thin.
	trendingMin = 15
)

// Search refinement blobs. Opaque upstream values selecting the result
// family.
const (
	paramsVideos    = "EgIQAQ=="
	paramsPlaylists = "EgIQAw=="
	paramsAlbums    = "EgWKAQIYBA=="
)

// Trending chart queries.
const (
	trendingQuery       = "top music hits this week"
	trendingBackupQuery = "popular music videos"
)

// searchSuffixes widen a search query into several variants; results are
// merged in variant order.
var searchSuffixes = []string{"", " official music", " lyrics", " audio"}

const defaultTrendingWindow = 24 * time.Hour

// upstream is the slice of the InnerTube client the service consumes.
type upstream interface {
	Player(ctx context.Context, videoID string, p innertube.Persona) (*innertube.PlayerResponse, error)
	Search(ctx context.Context, query, params string, p innertube.Persona) (map[string]any, error)
}

// Options configures a Service. The zero value is usable.
type Options struct {
	// HTTPClient overrides the upstream HTTP client; nil uses a tuned
	// default.
	HTTPClient *http.Client
	// Personas overrides the stream-resolution fallback list; nil uses the
	// default registry.
	Personas []innertube.Persona
	// TrendingWindow is the trending cache validity; zero means 24h.
	TrendingWindow time.Duration
	// LenientCipher enables the best-effort signature shim for ciphered
	// formats instead of rejecting them.
	LenientCipher bool
}

// Service exposes the aggregation operations. Safe for concurrent use.
type Service struct {
	api      upstream
	resolver *streams.Resolver
	trending *cache.Trending
	search   innertube.Persona // persona for plain search layouts
	music    innertube.Persona // persona for tabbed music layouts
	log      *logger.ComponentLogger
}

// New builds a Service over a live InnerTube client.
func New(opts Options) *Service {
	return newService(innertube.New(opts.HTTPClient), opts)
}

// newService wires the service over any upstream; tests inject stubs here.
func newService(api upstream, opts Options) *Service {
	window := opts.TrendingWindow
	if window <= 0 {
		window = defaultTrendingWindow
	}

	searchPersona, _ := innertube.ByName("WEB")
	musicPersona, _ := innertube.ByName("WEB_REMIX")

	s := &Service{
		api:      api,
		resolver: streams.NewResolver(api, opts.Personas, opts.LenientCipher),
		search:   searchPersona,
		music:    musicPersona,
		log:      logger.WithComponent(logger.ComponentApp),
	}
	s.trending = cache.NewTrending(window, s.fillTrending)
	return s
}

// ExtractVideoID pulls the video id out of a watch URL. Two recognized
// shapes, first match wins: a "watch?v=" query and a short "youtu.be/" path.
// Extraction is substring-based and does not validate the id itself; an
// empty or malformed id propagates to the upstream call and surfaces as an
// upstream failure, not an invalid URL.
func ExtractVideoID(rawURL string) (string, error) {
	if _, after, found := strings.Cut(rawURL, "watch?v="); found {
		id, _, _ := strings.Cut(after, "&")
		return id, nil
	}
	if _, after, found := strings.Cut(rawURL, "youtu.be/"); found {
		id, _, _ := strings.Cut(after, "?")
		return id, nil
	}
	return "", fmt.Errorf("%w: %s", errs.ErrInvalidURL, rawURL)
}

// VideoInfo resolves a watch URL into stream metadata and a playable URL.
func (s *Service) VideoInfo(ctx context.Context, rawURL string) (*types.StreamResolution, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(ctx, videoID)
}

// Search runs the query plus widening variants, merges the results in
// variant order and ranks official uploads first. Variant-level failures are
// tolerated as long as at least one variant produced results.
func (s *Service) Search(ctx context.Context, query string) ([]types.ResultRecord, error) {
	var merged []types.ResultRecord
	seen := make(map[string]bool)
	var firstErr error

	for _, suffix := range searchSuffixes {
		if len(merged) >= searchCap {
			break
		}
		doc, err := s.api.Search(ctx, query+suffix, paramsVideos, s.search)
		if err != nil {
			s.log.Warn("search variant failed", map[string]interface{}{
				"query": query + suffix,
				"error": err.Error(),
			})
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, r := range results.Videos(doc) {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			merged = append(merged, r)
		}
	}

	if len(merged) == 0 && firstErr != nil {
		return nil, firstErr
	}

	results.RankOfficialFirst(merged)
	return results.Cap(merged, searchCap), nil
}

// Trending returns the cached trending chart, filling it on miss or expiry.
func (s *Service) Trending(ctx context.Context) ([]types.ResultRecord, error) {
	return s.trending.Get(ctx)
}

// fillTrending builds a fresh chart: the primary query, topped up by the
// backup query when the primary comes back thin. Aggregation-style titles
// are excluded so the chart lists individual tracks.
func (s *Service) fillTrending(ctx context.Context) ([]types.ResultRecord, error) {
	doc, err := s.api.Search(ctx, trendingQuery, paramsVideos, s.search)
	if err != nil {
		return nil, err
	}
	records := results.Videos(doc, "songs")

	if len(records) < trendingMin {
		s.log.Info("trending primary query thin, issuing backup", map[string]interface{}{
			"count": len(records),
		})
		backup, err := s.api.Search(ctx, trendingBackupQuery, paramsVideos, s.search)
		if err == nil {
			records = append(records, results.Videos(backup, "songs")...)
		} else {
			s.log.Warn("trending backup query failed", map[string]interface{}{"error": err.Error()})
		}
	}

	records = results.DedupeByID(records)
	results.RankOfficialFirst(records)
	return results.Cap(records, trendingCap), nil
}

// CategorySongs lists individual tracks for a category.
func (s *Service) CategorySongs(ctx context.Context, category string) ([]types.ResultRecord, error) {
	doc, err := s.api.Search(ctx, category+" songs", paramsVideos, s.search)
	if err != nil {
		return nil, err
	}
	records := results.DedupeByID(results.Videos(doc))
	return results.Cap(records, songsCap), nil
}

// CategoryPlaylists lists curated playlists for a category. Uses the music
// persona: the tabbed layout only appears on its response variant.
func (s *Service) CategoryPlaylists(ctx context.Context, category string) ([]types.ResultRecord, error) {
	doc, err := s.api.Search(ctx, category+" playlists", paramsPlaylists, s.music)
	if err != nil {
		return nil, err
	}
	records := results.DedupeByID(results.TabbedItems(doc))
	return results.Cap(records, playlistCap), nil
}

// CategoryAlbums lists album releases for a category.
func (s *Service) CategoryAlbums(ctx context.Context, category string) ([]types.ResultRecord, error) {
	doc, err := s.api.Search(ctx, category+" albums", paramsAlbums, s.music)
	if err != nil {
		return nil, err
	}
	records := results.DedupeByID(results.TabbedItems(doc))
	return results.Cap(records, albumCap), nil
}
