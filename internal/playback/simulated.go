package playback

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	defaultSimulatedDuration = 3 * time.Minute
	defaultSimulatedLoad     = 300 * time.Millisecond
	defaultSimulatedTick     = 250 * time.Millisecond
)

// ErrUnplayable is reported for sources the simulated transport refuses to load.
var ErrUnplayable = errors.New("source is not playable")

// DurationFunc resolves the duration of a source. A zero duration falls back
// to a default; an error makes the load fail.
type DurationFunc func(src string) (time.Duration, error)

// DurationsFromTracks resolves durations from the catalog hints of tracks.
func DurationsFromTracks(tracks []Track) DurationFunc {
	byRef := make(map[string]time.Duration, len(tracks))
	for _, t := range tracks {
		byRef[t.AudioRef] = t.Duration
	}
	return func(src string) (time.Duration, error) {
		if src == "" {
			return 0, ErrUnplayable
		}
		return byRef[src], nil
	}
}

type pendingPreload struct {
	ticket    Ticket
	remaining time.Duration
	err       error
}

// SimulatedTransport is a clock-driven Transport and Preloader with no real
// audio output. Commands are recorded under its own lock and the resulting
// events are delivered on the next Advance, outside the lock.
type SimulatedTransport struct {
	mu sync.Mutex

	durationOf DurationFunc
	loadDelay  time.Duration

	onEvent   func(TransportEvent)
	onPreload func(Ticket, error)

	ticket    Ticket
	hasTicket bool
	loadLeft  time.Duration
	loadErr   error
	loaded    bool
	playing   bool
	position  time.Duration
	duration  time.Duration
	volume    float64
	queued    []TransportEvent
	preloads  []pendingPreload
}

// NewSimulatedTransport creates a transport that resolves durations with
// durationOf. A nil durationOf uses the default duration for every source.
func NewSimulatedTransport(durationOf DurationFunc) *SimulatedTransport {
	if durationOf == nil {
		durationOf = func(string) (time.Duration, error) { return 0, nil }
	}
	return &SimulatedTransport{
		durationOf: durationOf,
		loadDelay:  defaultSimulatedLoad,
		volume:     1,
	}
}

// SetLoadDelay changes how long loads and preloads take to complete.
func (t *SimulatedTransport) SetLoadDelay(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadDelay = max(d, 0)
}

// Attach routes transport events and preload results to a session.
func (t *SimulatedTransport) Attach(s *Session) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onEvent = s.HandleEvent
	t.onPreload = s.HandlePreload
}

// Load implements Transport.
func (t *SimulatedTransport) Load(ticket Ticket, src string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ticket = ticket
	t.hasTicket = true
	t.loaded = false
	t.position = 0
	t.duration = 0
	t.loadLeft = t.loadDelay
	t.loadErr = nil
	// Events of the previous load are obsolete.
	t.queued = t.queued[:0]

	d, err := t.durationOf(src)
	if err != nil {
		t.loadErr = err
	} else {
		if d <= 0 {
			d = defaultSimulatedDuration
		}
		t.duration = d
	}
	t.queueLocked(TransportEvent{Kind: EventWaiting})
}

// Play implements Transport.
func (t *SimulatedTransport) Play() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = true
	if t.loaded {
		t.queueLocked(TransportEvent{Kind: EventPlaying})
	}
}

// Pause implements Transport.
func (t *SimulatedTransport) Pause() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.playing = false
	if t.loaded {
		t.queueLocked(TransportEvent{Kind: EventPaused})
	}
}

// Seek implements Transport.
func (t *SimulatedTransport) Seek(position time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.position = min(max(position, 0), t.duration)
	if t.loaded {
		t.queueLocked(TransportEvent{Kind: EventTimeUpdate, Position: t.position})
	}
}

// SetVolume implements Transport.
func (t *SimulatedTransport) SetVolume(volume float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.volume = volume
}

// Volume returns the last volume set.
func (t *SimulatedTransport) Volume() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume
}

// Preload implements Preloader.
func (t *SimulatedTransport) Preload(ticket Ticket, src string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.durationOf(src)
	t.preloads = append(t.preloads, pendingPreload{ticket: ticket, remaining: t.loadDelay, err: err})
}

func (t *SimulatedTransport) queueLocked(ev TransportEvent) {
	ev.Ticket = t.ticket
	t.queued = append(t.queued, ev)
}

// Advance moves the simulated clock forward by dt and delivers the events
// that became due.
func (t *SimulatedTransport) Advance(dt time.Duration) {
	t.mu.Lock()
	if !t.hasTicket && len(t.preloads) == 0 {
		t.mu.Unlock()
		return
	}

	elapsed := dt
	if t.hasTicket && !t.loaded {
		t.loadLeft -= dt
		if t.loadLeft <= 0 {
			if t.loadErr != nil {
				t.queueLocked(TransportEvent{Kind: EventError, Err: t.loadErr})
				t.hasTicket = false
			} else {
				t.loaded = true
				t.queueLocked(TransportEvent{Kind: EventLoadedMetadata, Duration: t.duration})
				t.queueLocked(TransportEvent{Kind: EventCanPlay})
				if t.playing {
					t.queueLocked(TransportEvent{Kind: EventPlaying})
				}
			}
			elapsed = 0
		}
	}

	if t.loaded && t.playing && elapsed > 0 {
		t.position += elapsed
		if t.position >= t.duration {
			t.position = t.duration
			t.playing = false
			t.queueLocked(TransportEvent{Kind: EventTimeUpdate, Position: t.position})
			t.queueLocked(TransportEvent{Kind: EventEnded})
		} else {
			t.queueLocked(TransportEvent{Kind: EventTimeUpdate, Position: t.position})
		}
	}

	events := t.queued
	t.queued = nil

	var done []pendingPreload
	remaining := t.preloads[:0]
	for _, p := range t.preloads {
		p.remaining -= dt
		if p.remaining <= 0 {
			done = append(done, p)
		} else {
			remaining = append(remaining, p)
		}
	}
	t.preloads = remaining

	onEvent, onPreload := t.onEvent, t.onPreload
	t.mu.Unlock()

	if onEvent != nil {
		for _, ev := range events {
			onEvent(ev)
		}
	}
	if onPreload != nil {
		for _, p := range done {
			onPreload(p.ticket, p.err)
		}
	}
}

// Run advances the clock in real time until ctx is done.
func (t *SimulatedTransport) Run(ctx context.Context) {
	ticker := time.NewTicker(defaultSimulatedTick)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			t.Advance(now.Sub(last))
			last = now
		}
	}
}
