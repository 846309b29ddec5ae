// Package playback owns the state of a single player: the playlist, the
// current track, transport state, volume, loop mode and look-ahead preloading.
//
// All mutation goes through *Session. Transports report back through
// HandleEvent and HandlePreload; consumers read immutable Snapshots or
// subscribe to updates.
package playback

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Transport is the media primitive that plays the current track.
// Implementations must not block and must not call back into the Session
// from inside these methods.
type Transport interface {
	Load(ticket Ticket, src string)
	Play()
	Pause()
	Seek(position time.Duration)
	SetVolume(volume float64)
}

// Preloader is the hidden secondary transport that warms up the next track.
// It reports completion through Session.HandlePreload.
type Preloader interface {
	Preload(ticket Ticket, src string)
}

// NoIndex marks an unset current or preloaded index.
const NoIndex = -1

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	SessionID       string
	Playlist        []Track
	CurrentIndex    int
	IsPlaying       bool
	IsLoading       bool
	IsLooping       bool
	Volume          float64
	CurrentTime     time.Duration
	Duration        time.Duration
	IsPlayerVisible bool
	IsFullScreen    bool
	// PreloadedIndex is the playlist index whose preload has completed for
	// the current position, or NoIndex.
	PreloadedIndex int
	// Version increases with every published state; subscribers see
	// strictly increasing versions.
	Version uint64
}

// Current returns the current track, if any.
func (s Snapshot) Current() (Track, bool) {
	if s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Playlist) {
		return Track{}, false
	}
	return s.Playlist[s.CurrentIndex], true
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session is the single owner of playback state. It is safe for concurrent use;
// operations and transport events are applied one at a time in arrival order.
type Session struct {
	mu sync.Mutex

	id      string
	main    Transport
	preload Preloader
	logger  *slog.Logger

	playlist    []Track
	index       int
	playing     bool
	loading     bool
	looping     bool
	volume      float64
	mutedVolume float64
	position    time.Duration
	duration    time.Duration
	visible     bool
	fullScreen  bool

	seq           uint64
	current       Ticket
	preloadTicket Ticket
	preloaded     int
	version       uint64

	// subsMu nests inside mu: publishes happen with mu held.
	subsMu sync.RWMutex
	subs   []*Subscription
	closed bool
}

// NewSession creates an empty session driving main. preload may be nil to
// disable look-ahead loading.
func NewSession(main Transport, preload Preloader, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		main:        main,
		preload:     preload,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		index:       NoIndex,
		volume:      1,
		mutedVolume: 1,
		preloaded:   NoIndex,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(slog.String("session_id", s.id))
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	playlist := make([]Track, len(s.playlist))
	copy(playlist, s.playlist)
	return Snapshot{
		SessionID:       s.id,
		Playlist:        playlist,
		CurrentIndex:    s.index,
		IsPlaying:       s.playing,
		IsLoading:       s.loading,
		IsLooping:       s.looping,
		Volume:          s.volume,
		CurrentTime:     s.position,
		Duration:        s.duration,
		IsPlayerVisible: s.visible,
		IsFullScreen:    s.fullScreen,
		PreloadedIndex:  s.preloaded,
		Version:         s.version,
	}
}

// publishStateLocked bumps the version and publishes the resulting snapshot.
// Publishing under mu keeps subscribers in state order.
func (s *Session) publishStateLocked() {
	s.version++
	s.publishState(s.snapshotLocked())
}

func (s *Session) hasCurrentLocked() bool {
	return len(s.playlist) > 0 && s.index >= 0
}

// LoadPlaylist replaces the playlist and starts playing at startIndex.
// An out-of-range start index falls back to 0; an empty playlist clears
// the session.
func (s *Session) LoadPlaylist(tracks []Track, startIndex int) {
	s.mu.Lock()

	if len(tracks) == 0 {
		if s.hasCurrentLocked() {
			s.main.Pause()
		}
		s.playlist = nil
		s.index = NoIndex
		s.playing = false
		s.loading = false
		s.position = 0
		s.duration = 0
		s.visible = false
		s.fullScreen = false
		s.preloaded = NoIndex
		// Invalidate anything still in flight.
		s.seq++
		s.current = Ticket{Index: NoIndex, Seq: s.seq}
		s.preloadTicket = s.current
		s.publishStateLocked()
		s.mu.Unlock()

		s.logger.Debug("playlist cleared")
		return
	}

	if startIndex < 0 || startIndex >= len(tracks) {
		startIndex = 0
	}

	s.playlist = make([]Track, len(tracks))
	copy(s.playlist, tracks)
	prev := s.index
	s.index = NoIndex
	s.playing = true
	s.visible = true
	s.publishTrack(s.moveToLocked(startIndex, prev))
	s.publishStateLocked()
	s.mu.Unlock()

	s.logger.Info("playlist loaded",
		slog.Int("tracks", len(tracks)),
		slog.Int("start_index", startIndex))
}

// moveToLocked makes index current, issues a tagged load for it and
// preloads the following track.
func (s *Session) moveToLocked(index, prev int) TrackChange {
	s.index = index
	s.position = 0
	s.duration = 0
	s.loading = true

	s.seq++
	s.current = Ticket{Index: index, Seq: s.seq}
	track := s.playlist[index]
	s.main.Load(s.current, track.AudioRef)
	s.main.SetVolume(s.volume)
	if s.playing {
		s.main.Play()
	}

	s.preloadNextLocked()

	return TrackChange{PreviousIndex: prev, Index: index, Track: track}
}

func (s *Session) preloadNextLocked() {
	s.preloaded = NoIndex
	if s.preload == nil {
		return
	}

	next := (s.index + 1) % len(s.playlist)
	s.seq++
	s.preloadTicket = Ticket{Index: next, Seq: s.seq}
	s.preload.Preload(s.preloadTicket, s.playlist[next].AudioRef)
}

// TogglePlayPause requests play or pause. The flag flips optimistically;
// playing/paused events from the transport have the final word.
func (s *Session) TogglePlayPause() {
	s.mutate(func() bool {
		if !s.hasCurrentLocked() {
			return false
		}
		if s.playing {
			s.main.Pause()
		} else {
			s.main.Play()
		}
		s.playing = !s.playing
		return true
	})
}

// Seek jumps within the current track. The position is clamped to
// [0, duration] once the duration is known.
func (s *Session) Seek(position time.Duration) {
	s.mutate(func() bool {
		if !s.hasCurrentLocked() {
			return false
		}
		position = max(position, 0)
		if s.duration > 0 {
			position = min(position, s.duration)
		}
		s.main.Seek(position)
		s.position = position
		return true
	})
}

// SetVolume sets the output volume, clamped to [0, 1].
func (s *Session) SetVolume(volume float64) {
	s.mutate(func() bool {
		s.volume = min(max(volume, 0), 1)
		if s.volume > 0 {
			s.mutedVolume = s.volume
		}
		s.main.SetVolume(s.volume)
		return true
	})
}

// ToggleMute silences output, or restores the last audible volume
// (1 if there is none).
func (s *Session) ToggleMute() {
	s.mutate(func() bool {
		if s.volume > 0 {
			s.mutedVolume = s.volume
			s.volume = 0
		} else {
			s.volume = 1
			if s.mutedVolume > 0 {
				s.volume = s.mutedVolume
			}
		}
		s.main.SetVolume(s.volume)
		return true
	})
}

// ToggleLoop flips single-track looping.
func (s *Session) ToggleLoop() {
	s.mutate(func() bool {
		s.looping = !s.looping
		return true
	})
}

// PlayNext advances to the next track, wrapping to the first.
func (s *Session) PlayNext() {
	s.step(1)
}

// PlayPrevious moves to the previous track, wrapping to the last.
func (s *Session) PlayPrevious() {
	s.step(-1)
}

func (s *Session) step(delta int) {
	s.mu.Lock()
	if !s.hasCurrentLocked() {
		s.mu.Unlock()
		return
	}
	s.publishTrack(s.stepLocked(delta))
	s.publishStateLocked()
	s.mu.Unlock()
}

func (s *Session) stepLocked(delta int) TrackChange {
	n := len(s.playlist)
	next := ((s.index+delta)%n + n) % n
	s.playing = true
	return s.moveToLocked(next, s.index)
}

// HidePlayer hides the player and leaves full screen.
func (s *Session) HidePlayer() {
	s.mutate(func() bool {
		s.visible = false
		s.fullScreen = false
		return true
	})
}

// ToggleFullScreen flips full screen. Transport state is untouched.
func (s *Session) ToggleFullScreen() {
	s.mutate(func() bool {
		if !s.hasCurrentLocked() {
			return false
		}
		s.fullScreen = !s.fullScreen
		if s.fullScreen {
			s.visible = true
		}
		return true
	})
}

// HandleEvent applies a main transport event. Events carrying a ticket other
// than the current load are stale and dropped.
func (s *Session) HandleEvent(ev TransportEvent) {
	s.mu.Lock()

	if ev.Ticket != s.current || !s.hasCurrentLocked() {
		s.mu.Unlock()
		s.logger.Debug("dropped stale transport event",
			slog.String("event", ev.Kind.String()),
			slog.String("ticket", ev.Ticket.String()))
		return
	}

	var (
		change   *TrackChange
		errEvent *ErrorEvent
	)

	switch ev.Kind {
	case EventTimeUpdate:
		s.position = ev.Position
	case EventLoadedMetadata:
		s.duration = ev.Duration
	case EventWaiting:
		s.loading = true
	case EventCanPlay:
		s.loading = false
	case EventPlaying:
		s.playing = true
		s.loading = false
	case EventPaused:
		s.playing = false
	case EventEnded:
		if s.looping {
			s.main.Seek(0)
			s.main.Play()
			s.position = 0
			s.playing = true
		} else {
			c := s.stepLocked(1)
			change = &c
		}
	case EventError:
		s.loading = false
		s.playing = false
		errEvent = &ErrorEvent{Ticket: ev.Ticket, Track: s.playlist[s.index], Err: ev.Err}
	}

	if errEvent != nil {
		s.publishError(*errEvent)
	}
	if change != nil {
		s.publishTrack(*change)
	}
	s.publishStateLocked()
	s.mu.Unlock()

	if errEvent != nil {
		s.logger.Warn("transport error",
			slog.String("ticket", ev.Ticket.String()),
			slog.String("audio_ref", errEvent.Track.AudioRef),
			slog.Any("error", ev.Err))
	}
}

// HandlePreload records the outcome of a preload. Results for a superseded
// ticket are discarded silently, as are failures.
func (s *Session) HandlePreload(ticket Ticket, err error) {
	s.mu.Lock()
	if ticket != s.preloadTicket {
		s.mu.Unlock()
		return
	}
	if err != nil {
		s.mu.Unlock()
		s.logger.Debug("preload failed", slog.String("ticket", ticket.String()), slog.Any("error", err))
		return
	}
	s.preloaded = ticket.Index
	s.publishStateLocked()
	s.mu.Unlock()
}

// mutate runs fn under the lock and publishes a snapshot when fn reports a change.
func (s *Session) mutate(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn() {
		s.publishStateLocked()
	}
}

// Subscribe creates a new update subscription.
func (s *Session) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	sub := newSubscription()
	if s.closed {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// Close ends all subscriptions. The session state stays readable.
func (s *Session) Close() error {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	return nil
}

func (s *Session) publishState(snap Snapshot) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendState(snap)
	}
}

func (s *Session) publishTrack(e TrackChange) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendTrack(e)
	}
}

func (s *Session) publishError(e ErrorEvent) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.sendError(e)
	}
}
