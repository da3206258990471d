// Package results flattens the upstream's nested rendered-content trees
// into uniform result records. Traversal is entirely defensive: any
// structural absence yields an empty set for that section, never an error.
package results

import (
	"sort"
	"strings"

	"github.com/museup/museup-api/types"
)

// blockMarkers excludes compilation/aggregation entries from video results.
// Heuristic: prefer single-track results over mixes and full albums.
var blockMarkers = []string{
	"playlist",
	"mix",
	"top",
	"best of",
	"full album",
	"hits",
}

// officialMarkers rank official uploads first. Two language variants; the
// player's user base is largely Spanish-speaking.
var officialMarkers = []string{
	"(official video)",
	"(official music video)",
	"(video oficial)",
	"(vídeo oficial)",
}

// browsePrefixes are the recognized browse-target prefixes for tabbed-layout
// items: VL wraps playlist ids, MPREb identifies album releases. Anything
// else (artists, channels, podcasts) is skipped.
var browsePrefixes = []string{"VL", "MPREb"}

// Videos walks the plain search layout and extracts videoRenderer items.
// Titles containing a block marker (or any extraBlocked marker) are
// excluded.
func Videos(doc map[string]any, extraBlocked ...string) []types.ResultRecord {
	var records []types.ResultRecord

	sections := Wrap(doc).Key("contents", "twoColumnSearchResultsRenderer", "primaryContents", "sectionListRenderer", "contents")
	sections.Each(func(section Node) {
		section.Key("itemSectionRenderer", "contents").Each(func(item Node) {
			r := item.Key("videoRenderer")
			if !r.Exists() {
				return
			}
			record := types.ResultRecord{
				ID:        r.Key("videoId").Str(),
				Title:     r.Key("title", "runs").Index(0).Key("text").Str(),
				Author:    r.Key("ownerText", "runs").Index(0).Key("text").Str(),
				Thumbnail: r.Key("thumbnail", "thumbnails").Last().Key("url").Str(),
				Duration:  r.Key("lengthText", "simpleText").Str(),
			}
			if record.ID == "" || blocked(record.Title, extraBlocked) {
				return
			}
			records = append(records, record)
		})
	})

	return records
}

// TabbedItems walks the alternate tabbed layout used by category playlist
// and album lookups. An item counts only when its browse-target id carries
// a recognized prefix.
func TabbedItems(doc map[string]any) []types.ResultRecord {
	var records []types.ResultRecord

	tabs := Wrap(doc).Key("contents", "tabbedSearchResultsRenderer", "tabs")
	tabs.Each(func(tab Node) {
		sections := tab.Key("tabRenderer", "content", "sectionListRenderer", "contents")
		sections.Each(func(section Node) {
			section.Key("musicShelfRenderer", "contents").Each(func(item Node) {
				r := item.Key("musicResponsiveListItemRenderer")
				if !r.Exists() {
					return
				}
				browseID := r.Key("navigationEndpoint", "browseEndpoint", "browseId").Str()
				if !hasBrowsePrefix(browseID) {
					return
				}
				records = append(records, types.ResultRecord{
					ID:          browseID,
					Title:       flexColumnText(r, 0),
					Author:      flexColumnText(r, 1),
					Thumbnail:   r.Key("thumbnail", "musicThumbnailRenderer", "thumbnail", "thumbnails").Last().Key("url").Str(),
					Description: flexColumnJoined(r, 1),
				})
			})
		})
	})

	return records
}

// RankOfficialFirst stable-sorts records so titles carrying an official
// marker come before all others. No other ordering criteria.
func RankOfficialFirst(records []types.ResultRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return isOfficial(records[i].Title) && !isOfficial(records[j].Title)
	})
}

// DedupeByID collapses records by id, keeping the first occurrence in input
// order.
func DedupeByID(records []types.ResultRecord) []types.ResultRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0]
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r)
	}
	return out
}

// Cap truncates to at most n records. Applied after ranking and
// de-duplication, never before.
func Cap(records []types.ResultRecord, n int) []types.ResultRecord {
	if n >= 0 && len(records) > n {
		return records[:n]
	}
	return records
}

func blocked(title string, extra []string) bool {
	lower := strings.ToLower(title)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, marker := range extra {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func isOfficial(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range officialMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func hasBrowsePrefix(browseID string) bool {
	for _, prefix := range browsePrefixes {
		if strings.HasPrefix(browseID, prefix) {
			return true
		}
	}
	return false
}

// flexColumnText returns the first text run of the i-th flex column.
func flexColumnText(r Node, i int) string {
	return r.Key("flexColumns").Index(i).
		Key("musicResponsiveListItemFlexColumnRenderer", "text", "runs").
		Index(0).Key("text").Str()
}

// flexColumnJoined joins every text run of the i-th flex column. The second
// column carries the "Playlist • author • N songs" summary used as a
// description.
func flexColumnJoined(r Node, i int) string {
	var parts []string
	r.Key("flexColumns").Index(i).
		Key("musicResponsiveListItemFlexColumnRenderer", "text", "runs").
		Each(func(run Node) {
			if text := run.Key("text").Str(); text != "" {
				parts = append(parts, text)
			}
		})
	return strings.Join(parts, "")
}
