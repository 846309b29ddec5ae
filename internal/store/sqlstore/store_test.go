package sqlstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/sixtrece/beats-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(context.Background(), SQLite{}, dbPath, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// catalog holds the ids created by seedCatalog.
type catalog struct {
	alpha, beta, gamma int64
}

// seedCatalog creates three items:
//
//	Alpha  (Trap,  tags x)    by Nova
//	Beta   (Drill, no tags)   by Nova
//	Gamma  (Trap,  tags x, y) by Kilo
func seedCatalog(t *testing.T, s *Store) catalog {
	t.Helper()
	ctx := context.Background()

	nova := &domain.Artist{Name: "Nova", ProfileImageRef: "/images/nova.jpg"}
	kilo := &domain.Artist{Name: "Kilo"}
	for _, a := range []*domain.Artist{nova, kilo} {
		if _, err := s.FindOrCreateArtist(ctx, a); err != nil {
			t.Fatalf("FindOrCreateArtist(%s): %v", a.Name, err)
		}
	}

	items := []*domain.Item{
		{Title: "Alpha", ArtistID: nova.ID, Price: 29.99, AudioRef: "/audio/alpha.mp3", Genre: "Trap", BPM: 140, Duration: "2:45", Tags: []string{"x"}},
		{Title: "Beta", ArtistID: nova.ID, Price: 19.5, AudioRef: "/audio/beta.mp3", Genre: "Drill"},
		{Title: "Gamma", ArtistID: kilo.ID, Price: 35, AudioRef: "/audio/gamma.mp3", Genre: "Trap", Tags: []string{"x", "y"}},
	}
	for _, it := range items {
		if err := s.CreateItem(ctx, it); err != nil {
			t.Fatalf("CreateItem(%s): %v", it.Title, err)
		}
	}

	return catalog{alpha: items[0].ID, beta: items[1].ID, gamma: items[2].ID}
}

func titles(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	var tables []string
	rows, err := s.db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		t.Fatalf("list tables: %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan table: %v", err)
		}
		tables = append(tables, name)
	}
	sort.Strings(tables)

	want := []string{"artists", "item_tags", "items", "progress", "tags"}
	if len(tables) != len(want) {
		t.Fatalf("tables: got %v, want %v", tables, want)
	}
	for i := range want {
		if tables[i] != want[i] {
			t.Errorf("tables[%d]: got %q, want %q", i, tables[i], want[i])
		}
	}
}

func TestOpen_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(ctx, SQLite{}, dbPath, nil)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	seedCatalog(t, s)
	s.Close()

	s, err = Open(ctx, SQLite{}, dbPath, nil)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s.Close()

	count, err := s.CountItems(ctx, domain.ItemFilter{})
	if err != nil {
		t.Fatalf("CountItems: %v", err)
	}
	if count != 3 {
		t.Errorf("count after reopen: got %d, want 3", count)
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		null bool
		want []string
	}{
		{name: "null", null: true, want: []string{}},
		{name: "empty", in: "", want: []string{}},
		{name: "single", in: "dark", want: []string{"dark"}},
		{name: "duplicates", in: "dark\x1f808\x1fdark", want: []string{"dark", "808"}},
		{name: "comma inside name", in: "lo-fi, chill\x1fjazz", want: []string{"lo-fi, chill", "jazz"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := nullString(tt.in)
			if tt.null {
				agg.Valid = false
			}
			got := splitTags(agg)
			if got == nil {
				t.Fatal("splitTags returned nil")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("[%d]: got %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLikePattern(t *testing.T) {
	tests := map[string]string{
		"Alp":    "%alp%",
		"100%":   `%100\%%`,
		"lo_fi":  `%lo\_fi%`,
		`back\s`: `%back\\s%`,
		"ÉLY":    "%ély%",
	}
	for in, want := range tests {
		if got := likePattern(SQLite{}.Fold(in)); got != want {
			t.Errorf("likePattern(%q): got %q, want %q", in, got, want)
		}
	}
}
