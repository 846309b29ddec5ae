package playback

import (
	"fmt"
	"time"
)

// Ticket tags a transport load. Every event a transport reports carries the
// ticket of the load it belongs to; the session drops events whose ticket is
// no longer current.
type Ticket struct {
	Index int
	Seq   uint64
}

// String returns a compact form for logs.
func (t Ticket) String() string {
	return fmt.Sprintf("%d#%d", t.Index, t.Seq)
}

// EventKind identifies a transport event.
type EventKind int

const (
	EventTimeUpdate EventKind = iota
	EventLoadedMetadata
	EventWaiting
	EventCanPlay
	EventPlaying
	EventPaused
	EventEnded
	EventError
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventTimeUpdate:
		return "time-update"
	case EventLoadedMetadata:
		return "loaded-metadata"
	case EventWaiting:
		return "waiting"
	case EventCanPlay:
		return "can-play"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// TransportEvent is reported by the main transport.
type TransportEvent struct {
	Ticket   Ticket
	Kind     EventKind
	Position time.Duration // EventTimeUpdate
	Duration time.Duration // EventLoadedMetadata
	Err      error         // EventError
}

// TrackChange is published when the current index moves.
type TrackChange struct {
	PreviousIndex int
	Index         int
	Track         Track
}

// ErrorEvent is published when the main transport fails a load.
type ErrorEvent struct {
	Ticket Ticket
	Track  Track
	Err    error
}
