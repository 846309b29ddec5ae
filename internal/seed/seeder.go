package seed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/simonhull/audiometa"

	"github.com/sixtrece/beats-server/internal/domain"
	"github.com/sixtrece/beats-server/internal/playback"
	"github.com/sixtrece/beats-server/internal/store"
)

const probeTimeout = 30 * time.Second

// ProbeFunc returns the playing time of the audio file at path.
type ProbeFunc func(ctx context.Context, path string) (time.Duration, error)

// ProbeAudio reads the duration from the file's container metadata.
func ProbeAudio(ctx context.Context, path string) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	file, err := audiometa.OpenContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	return file.Audio.Duration, nil
}

// Report summarizes a seeding run.
type Report struct {
	ArtistsCreated  int
	ArtistsExisting int
	ItemsCreated    int
	TagsCreated     int
	TagLinks        int
	DurationsProbed int
	ProbeFailures   int
	Elapsed         time.Duration
}

// String renders the report for terminal output.
func (r Report) String() string {
	return fmt.Sprintf(
		"%s items, %s new artists (%s existing), %s new tags, %s tag links, %s durations probed (%s failed) in %s",
		humanize.Comma(int64(r.ItemsCreated)),
		humanize.Comma(int64(r.ArtistsCreated)),
		humanize.Comma(int64(r.ArtistsExisting)),
		humanize.Comma(int64(r.TagsCreated)),
		humanize.Comma(int64(r.TagLinks)),
		humanize.Comma(int64(r.DurationsProbed)),
		humanize.Comma(int64(r.ProbeFailures)),
		r.Elapsed.Round(time.Millisecond),
	)
}

// Seeder writes a Catalog through a store.SeedStore.
type Seeder struct {
	store    store.SeedStore
	probe    ProbeFunc
	audioDir string
	logger   *slog.Logger
}

// NewSeeder creates a seeder. audioDir is where "/audio/..." refs resolve
// when probing durations; an empty audioDir or nil probe disables probing.
func NewSeeder(s store.SeedStore, probe ProbeFunc, audioDir string, logger *slog.Logger) *Seeder {
	return &Seeder{store: s, probe: probe, audioDir: audioDir, logger: logger}
}

// Run imports cat. It stops at the first store error; rows written before
// that remain.
func (s *Seeder) Run(ctx context.Context, cat *Catalog) (Report, error) {
	start := time.Now()
	var report Report

	artistIDs := make(map[string]int64, len(cat.Artists))
	ensureArtist := func(a domain.Artist) (int64, error) {
		if id, ok := artistIDs[a.Name]; ok {
			return id, nil
		}
		created, err := s.store.FindOrCreateArtist(ctx, &a)
		if err != nil {
			return 0, err
		}
		if created {
			report.ArtistsCreated++
		} else {
			report.ArtistsExisting++
		}
		artistIDs[a.Name] = a.ID
		return a.ID, nil
	}

	for _, a := range cat.Artists {
		if _, err := ensureArtist(domain.Artist{
			Name:            strings.TrimSpace(a.Name),
			ProfileImageRef: a.ProfileImageRef,
		}); err != nil {
			return report, err
		}
	}

	for _, entry := range cat.Items {
		artistID, err := ensureArtist(domain.Artist{Name: strings.TrimSpace(entry.Artist)})
		if err != nil {
			return report, err
		}

		tags := domain.NormalizeTagNames(entry.Tags)
		for _, name := range tags {
			_, created, err := s.store.FindOrCreateTag(ctx, name)
			if err != nil {
				return report, err
			}
			if created {
				report.TagsCreated++
			}
		}

		item := &domain.Item{
			Title:      strings.TrimSpace(entry.Title),
			ArtistID:   artistID,
			ArtistName: strings.TrimSpace(entry.Artist),
			Price:      entry.Price,
			CoverRef:   entry.CoverRef,
			AudioRef:   entry.AudioRef,
			Genre:      strings.TrimSpace(entry.Genre),
			BPM:        entry.BPM,
			Duration:   strings.TrimSpace(entry.Duration),
			Author:     entry.Author,
			Likes:      entry.Likes,
			Tags:       tags,
		}

		if item.Duration == "" {
			s.fillDuration(ctx, item, &report)
		}

		if err := s.store.CreateItem(ctx, item); err != nil {
			return report, err
		}
		report.ItemsCreated++
		report.TagLinks += len(tags)

		s.logger.Debug("seeded item",
			slog.Int64("id", item.ID),
			slog.String("title", item.Title),
			slog.String("artist", item.ArtistName))
	}

	report.Elapsed = time.Since(start)
	return report, nil
}

func (s *Seeder) fillDuration(ctx context.Context, item *domain.Item, report *Report) {
	path := s.resolveAudio(item.AudioRef)
	if path == "" || s.probe == nil {
		return
	}

	d, err := s.probe(ctx, path)
	if err != nil || d <= 0 {
		report.ProbeFailures++
		s.logger.Warn("could not probe duration",
			slog.String("title", item.Title),
			slog.String("path", path),
			slog.Any("error", err))
		return
	}

	item.Duration = playback.FormatClock(d)
	report.DurationsProbed++
}

// resolveAudio maps an "/audio/..." ref (or a bare relative path) into the
// audio directory. Remote URLs are not probed.
func (s *Seeder) resolveAudio(ref string) string {
	if s.audioDir == "" || ref == "" || strings.Contains(ref, "://") {
		return ""
	}
	rel := strings.TrimPrefix(ref, "/audio/")
	rel = strings.TrimPrefix(rel, "/")
	return filepath.Join(s.audioDir, filepath.FromSlash(rel))
}
