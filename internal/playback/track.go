package playback

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sixtrece/beats-server/internal/domain"
)

// Track is the playable view of a catalog item.
type Track struct {
	ItemID   int64
	Title    string
	Artist   string
	AudioRef string
	CoverRef string
	Duration time.Duration // catalog hint; the transport reports the real value
}

// TrackFromItem copies the fields playback needs out of an item.
func TrackFromItem(item domain.Item) Track {
	return Track{
		ItemID:   item.ID,
		Title:    item.Title,
		Artist:   item.ArtistName,
		AudioRef: item.AudioRef,
		CoverRef: item.CoverRef,
		Duration: ParseClock(item.Duration),
	}
}

// TracksFromItems converts a catalog page into a playlist.
func TracksFromItems(items []domain.Item) []Track {
	tracks := make([]Track, len(items))
	for i, item := range items {
		tracks[i] = TrackFromItem(item)
	}
	return tracks
}

// ParseClock parses "m:ss" or "h:mm:ss". Malformed input yields 0.
func ParseClock(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	var total time.Duration
	for _, part := range strings.Split(s, ":") {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second
}

// FormatClock renders d as "m:ss", or "h:mm:ss" past an hour.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
	}
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
