package sqlstore

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"testing"

	"github.com/sixtrece/beats-server/internal/domain"
	"github.com/sixtrece/beats-server/internal/store"
)

func TestListItems_Filters(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	tests := []struct {
		name      string
		filter    domain.ItemFilter
		want      []string
		wantCount int64
	}{
		{name: "no filter", want: []string{"Alpha", "Beta", "Gamma"}, wantCount: 3},
		{name: "genre", filter: domain.ItemFilter{Genre: "Trap"}, want: []string{"Alpha", "Gamma"}, wantCount: 2},
		{name: "genre is exact", filter: domain.ItemFilter{Genre: "trap"}, want: []string{}, wantCount: 0},
		{name: "title search is case-insensitive", filter: domain.ItemFilter{Search: "alp"}, want: []string{"Alpha"}, wantCount: 1},
		{name: "artist search", filter: domain.ItemFilter{Search: "KILO"}, want: []string{"Gamma"}, wantCount: 1},
		{name: "search and genre", filter: domain.ItemFilter{Search: "nova", Genre: "Trap"}, want: []string{"Alpha"}, wantCount: 1},
		{name: "search trimmed", filter: domain.ItemFilter{Search: "  beta "}, want: []string{"Beta"}, wantCount: 1},
		{name: "wildcards are literal", filter: domain.ItemFilter{Search: "%"}, want: []string{}, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := s.ListItems(ctx, tt.filter, domain.Window{Page: 1, Limit: 10})
			if err != nil {
				t.Fatalf("ListItems: %v", err)
			}
			got := titles(items)
			if len(got) != len(tt.want) {
				t.Fatalf("titles: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("titles[%d]: got %q, want %q", i, got[i], tt.want[i])
				}
			}

			count, err := s.CountItems(ctx, tt.filter)
			if err != nil {
				t.Fatalf("CountItems: %v", err)
			}
			if count != tt.wantCount {
				t.Errorf("count: got %d, want %d", count, tt.wantCount)
			}
		})
	}
}

func TestListItems_SearchFoldsNonASCII(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	ely := &domain.Artist{Name: "Ély"}
	if _, err := s.FindOrCreateArtist(ctx, ely); err != nil {
		t.Fatalf("FindOrCreateArtist: %v", err)
	}
	item := &domain.Item{Title: "Émotion", ArtistID: ely.ID, Price: 25, AudioRef: "/audio/emotion.mp3", Genre: "R&B"}
	if err := s.CreateItem(ctx, item); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	for _, q := range []string{"Émo", "émo", "ÉMOTION", "ÉLY", "ély"} {
		t.Run(q, func(t *testing.T) {
			filter := domain.ItemFilter{Search: q}
			items, err := s.ListItems(ctx, filter, domain.Window{Page: 1, Limit: 10})
			if err != nil {
				t.Fatalf("ListItems: %v", err)
			}
			if got := titles(items); len(got) != 1 || got[0] != "Émotion" {
				t.Errorf("titles: got %v, want [Émotion]", got)
			}
			count, err := s.CountItems(ctx, filter)
			if err != nil {
				t.Fatalf("CountItems: %v", err)
			}
			if count != 1 {
				t.Errorf("count: got %d, want 1", count)
			}
		})
	}
}

func TestListItems_Window(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	page1, err := s.ListItems(ctx, domain.ItemFilter{}, domain.Window{Page: 1, Limit: 2})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	page2, err := s.ListItems(ctx, domain.ItemFilter{}, domain.Window{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("page 2: %v", err)
	}
	page3, err := s.ListItems(ctx, domain.ItemFilter{}, domain.Window{Page: 3, Limit: 2})
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}

	if got := titles(page1); len(got) != 2 || got[0] != "Alpha" || got[1] != "Beta" {
		t.Errorf("page 1: %v", got)
	}
	if got := titles(page2); len(got) != 1 || got[0] != "Gamma" {
		t.Errorf("page 2: %v", got)
	}
	if page3 == nil || len(page3) != 0 {
		t.Errorf("page 3 should be empty and non-nil, got %v", page3)
	}
}

func TestListItems_HugePageIsEmpty(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	// (page-1)*limit exceeds the int range.
	window := domain.Window{Page: math.MaxInt/2 + 2, Limit: 2}
	items, err := s.ListItems(ctx, domain.ItemFilter{}, window)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("got %v, want no items past the last page", titles(items))
	}
}

func TestListItems_CountIgnoresTagJoin(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	// Gamma has two tags; the count must still see it once.
	count, err := s.CountItems(ctx, domain.ItemFilter{Search: "gamma"})
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if count != 1 {
		t.Errorf("count: got %d, want 1", count)
	}
}

func TestListItems_TagAggregation(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	items, err := s.ListItems(ctx, domain.ItemFilter{}, domain.Window{Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}

	byTitle := map[string]domain.Item{}
	for _, it := range items {
		byTitle[it.Title] = it
	}

	if tags := byTitle["Beta"].Tags; tags == nil || len(tags) != 0 {
		t.Errorf("Beta tags: got %#v, want empty non-nil", tags)
	}

	gamma := byTitle["Gamma"].Tags
	sort.Strings(gamma)
	if len(gamma) != 2 || gamma[0] != "x" || gamma[1] != "y" {
		t.Errorf("Gamma tags: got %v", gamma)
	}

	alpha := byTitle["Alpha"]
	if alpha.ArtistName != "Nova" || alpha.Genre != "Trap" || alpha.BPM != 140 || alpha.Duration != "2:45" {
		t.Errorf("Alpha fields: %+v", alpha)
	}
	if alpha.Price != 29.99 {
		t.Errorf("Alpha price: got %v", alpha.Price)
	}
	if byTitle["Beta"].CoverRef != "" || byTitle["Beta"].BPM != 0 {
		t.Errorf("Beta optional fields should be zero: %+v", byTitle["Beta"])
	}
}

func TestGetItem(t *testing.T) {
	s := newTestStore(t)
	ids := seedCatalog(t, s)
	ctx := context.Background()

	it, err := s.GetItem(ctx, ids.gamma)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if it.Title != "Gamma" || it.ArtistName != "Kilo" || len(it.Tags) != 2 {
		t.Errorf("GetItem: %+v", it)
	}

	_, err = s.GetItem(ctx, 9999)
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementLikes(t *testing.T) {
	s := newTestStore(t)
	ids := seedCatalog(t, s)
	ctx := context.Background()

	likes, err := s.IncrementLikes(ctx, ids.beta)
	if err != nil {
		t.Fatalf("IncrementLikes: %v", err)
	}
	if likes != 1 {
		t.Errorf("likes: got %d, want 1", likes)
	}

	if _, err := s.IncrementLikes(ctx, 9999); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIncrementLikes_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ids := seedCatalog(t, s)
	ctx := context.Background()

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.IncrementLikes(ctx, ids.beta); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("IncrementLikes: %v", err)
	}

	it, err := s.GetItem(ctx, ids.beta)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if it.Likes != callers {
		t.Errorf("likes: got %d, want %d", it.Likes, callers)
	}
}

func TestListGenres(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)
	ctx := context.Background()

	// Blank genres are excluded.
	blank := &domain.Item{Title: "Blank", ArtistID: 1, AudioRef: "/audio/blank.mp3", Genre: "   "}
	if err := s.CreateItem(ctx, blank); err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	genres, err := s.ListGenres(ctx)
	if err != nil {
		t.Fatalf("ListGenres: %v", err)
	}
	if len(genres) != 2 || genres[0] != "Drill" || genres[1] != "Trap" {
		t.Errorf("genres: got %v", genres)
	}
}

func TestListArtists(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)

	artists, err := s.ListArtists(context.Background())
	if err != nil {
		t.Fatalf("ListArtists: %v", err)
	}
	if len(artists) != 2 {
		t.Fatalf("artists: got %d, want 2", len(artists))
	}
	if artists[0].Name != "Nova" || artists[0].ProfileImageRef != "/images/nova.jpg" {
		t.Errorf("artists[0]: %+v", artists[0])
	}
	if artists[1].ProfileImageRef != "" {
		t.Errorf("artists[1] profile: %q", artists[1].ProfileImageRef)
	}
}

func TestFindOrCreateArtist_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := &domain.Artist{Name: "Nova"}
	created, err := s.FindOrCreateArtist(ctx, first)
	if err != nil || !created {
		t.Fatalf("first call: created=%v err=%v", created, err)
	}

	second := &domain.Artist{Name: "Nova", ProfileImageRef: "/images/nova.jpg"}
	created, err = s.FindOrCreateArtist(ctx, second)
	if err != nil || created {
		t.Fatalf("second call: created=%v err=%v", created, err)
	}
	if second.ID != first.ID {
		t.Errorf("ids differ: %d vs %d", second.ID, first.ID)
	}

	artists, _ := s.ListArtists(ctx)
	if len(artists) != 1 || artists[0].ProfileImageRef != "/images/nova.jpg" {
		t.Errorf("artists: %+v", artists)
	}
}

func TestSetItemTags_Replaces(t *testing.T) {
	s := newTestStore(t)
	ids := seedCatalog(t, s)
	ctx := context.Background()

	if err := s.SetItemTags(ctx, ids.gamma, []string{"z", "z", " "}); err != nil {
		t.Fatalf("SetItemTags: %v", err)
	}

	it, err := s.GetItem(ctx, ids.gamma)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if len(it.Tags) != 1 || it.Tags[0] != "z" {
		t.Errorf("tags: got %v", it.Tags)
	}

	// Alpha still references "x".
	alpha, _ := s.GetItem(ctx, ids.alpha)
	if len(alpha.Tags) != 1 || alpha.Tags[0] != "x" {
		t.Errorf("alpha tags: got %v", alpha.Tags)
	}
}

func TestSetItemTags_SeparatorInNameStaysOneTag(t *testing.T) {
	s := newTestStore(t)
	ids := seedCatalog(t, s)
	ctx := context.Background()

	if err := s.SetItemTags(ctx, ids.beta, []string{"dark" + tagSeparator + "drill"}); err != nil {
		t.Fatalf("SetItemTags: %v", err)
	}

	it, err := s.GetItem(ctx, ids.beta)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if len(it.Tags) != 1 || it.Tags[0] != "darkdrill" {
		t.Errorf("tags: got %q", it.Tags)
	}
}

func TestFindOrCreateTag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag, created, err := s.FindOrCreateTag(ctx, "dark")
	if err != nil || !created {
		t.Fatalf("create: created=%v err=%v", created, err)
	}

	again, created, err := s.FindOrCreateTag(ctx, "dark")
	if err != nil || created {
		t.Fatalf("find: created=%v err=%v", created, err)
	}
	if again.ID != tag.ID {
		t.Errorf("ids differ: %d vs %d", again.ID, tag.ID)
	}
}

func TestDeleteItemCascadesTags(t *testing.T) {
	s := newTestStore(t)
	ids := seedCatalog(t, s)
	ctx := context.Background()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, ids.gamma); err != nil {
		t.Fatalf("delete item: %v", err)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_tags WHERE item_id = ?`, ids.gamma).Scan(&n); err != nil {
		t.Fatalf("count item_tags: %v", err)
	}
	if n != 0 {
		t.Errorf("item_tags rows left: %d", n)
	}
}
