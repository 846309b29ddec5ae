package domain

import "math"

// Item is a sellable beat in the catalog.
// Optional columns are carried as zero values; Tags is never nil.
type Item struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	ArtistID   int64    `json:"artist_id"`
	ArtistName string   `json:"artist_name"`
	Price      float64  `json:"price"`
	CoverRef   string   `json:"cover_ref,omitempty"`
	AudioRef   string   `json:"audio_ref"`
	Genre      string   `json:"genre,omitempty"`
	BPM        int      `json:"bpm,omitempty"`
	Duration   string   `json:"duration,omitempty"` // "m:ss"
	Author     string   `json:"author,omitempty"`
	Likes      int64    `json:"likes"`
	Tags       []string `json:"tags"`
}

// ItemPage is one window of a filtered listing plus the unwindowed match count.
type ItemPage struct {
	Items      []Item `json:"items"`
	TotalCount int64  `json:"totalCount"`
}

// ItemFilter narrows a listing. Empty fields match everything.
type ItemFilter struct {
	Search string // case-insensitive substring of title or artist name
	Genre  string // exact match
}

// Window is a page of a listing, 1-based.
type Window struct {
	Page  int
	Limit int
}

// Offset returns the number of rows skipped before this window. It saturates
// at math.MaxInt, so a page past any real catalog selects no rows.
func (w Window) Offset() int {
	if w.Page <= 1 || w.Limit <= 0 {
		return 0
	}
	if w.Page-1 > math.MaxInt/w.Limit {
		return math.MaxInt
	}
	return (w.Page - 1) * w.Limit
}
