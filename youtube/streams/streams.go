// Package streams resolves a video id into a playable stream URL by driving
// the persona fallback sequence.
package streams

import (
	"context"
	"fmt"
	"strconv"

	"github.com/museup/museup-api/errs"
	"github.com/museup/museup-api/internal/logger"
	"github.com/museup/museup-api/types"
	"github.com/museup/museup-api/youtube/formats"
	"github.com/museup/museup-api/youtube/innertube"
)

// placeholderTitle fills in when the upstream document omits a title.
const placeholderTitle = "Untitled"

// PlayerAPI is the upstream capability the resolver needs: given an
// identifier and a persona, return a player document or fail.
type PlayerAPI interface {
	Player(ctx context.Context, videoID string, p innertube.Persona) (*innertube.PlayerResponse, error)
}

// Resolver turns a video id into a StreamResolution. Stateless apart from
// its configuration; safe for concurrent use.
type Resolver struct {
	api      PlayerAPI
	personas []innertube.Persona
	lenient  bool
	log      *logger.ComponentLogger
}

// NewResolver builds a resolver over the given upstream capability. A nil
// persona list uses the default registry. lenient enables the best-effort
// cipher shim instead of rejecting ciphered formats.
func NewResolver(api PlayerAPI, personas []innertube.Persona, lenient bool) *Resolver {
	if len(personas) == 0 {
		personas = innertube.DefaultPersonas()
	}
	return &Resolver{
		api:      api,
		personas: personas,
		lenient:  lenient,
		log:      logger.WithComponent(logger.ComponentStreams),
	}
}

// Resolve drives the persona list in precedence order until one yields
// streaming data, then selects a playable URL. Persona-level failures are
// swallowed and logged; only full exhaustion is fatal. One attempt per
// persona, no retries.
func (r *Resolver) Resolve(ctx context.Context, videoID string) (*types.StreamResolution, error) {
	var resp *innertube.PlayerResponse

	for _, p := range r.personas {
		got, err := r.api.Player(ctx, videoID, p)
		if err != nil {
			r.log.Warn("persona call failed", map[string]interface{}{
				"persona": p.Name,
				"video":   videoID,
				"error":   err.Error(),
			})
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if !got.HasStreamingData() {
			r.log.Debug("persona returned no streaming data", map[string]interface{}{
				"persona": p.Name,
				"video":   videoID,
			})
			continue
		}
		resp = got
		r.log.Debug("persona succeeded", map[string]interface{}{"persona": p.Name, "video": videoID})
		break
	}

	if resp == nil {
		// a canceled request is the caller's doing, not upstream exhaustion
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: video %s", errs.ErrNoStreamingData, videoID)
	}

	combined, adaptive := formats.ParseStreamingData(resp.StreamingData.Formats, resp.StreamingData.AdaptiveFormats)
	streamURL, err := formats.SelectPlayable(combined, adaptive, !r.lenient)
	if err != nil {
		return nil, err
	}

	return &types.StreamResolution{
		VideoID:   videoID,
		Title:     titleOrPlaceholder(resp),
		Duration:  durationSeconds(resp),
		Thumbnail: bestThumbnail(resp),
		StreamURL: streamURL,
	}, nil
}

// Metadata extraction is defensive: a missing nested field falls back to a
// default instead of failing the whole resolution.

func titleOrPlaceholder(resp *innertube.PlayerResponse) string {
	if resp.VideoDetails.Title == "" {
		return placeholderTitle
	}
	return resp.VideoDetails.Title
}

func durationSeconds(resp *innertube.PlayerResponse) int {
	v, err := strconv.Atoi(resp.VideoDetails.LengthSeconds)
	if err != nil {
		return 0
	}
	return v
}

// bestThumbnail returns the last thumbnails entry; the upstream orders them
// by ascending resolution.
func bestThumbnail(resp *innertube.PlayerResponse) string {
	thumbs := resp.VideoDetails.Thumbnail.Thumbnails
	if len(thumbs) == 0 {
		return ""
	}
	return thumbs[len(thumbs)-1].URL
}
