package playback

const eventBufferSize = 16

// Subscription delivers session updates. Sends never block the session;
// a subscriber that falls behind misses intermediate updates.
type Subscription struct {
	StateChanged <-chan Snapshot
	TrackChanged <-chan TrackChange
	Error        <-chan ErrorEvent
	Done         <-chan struct{}

	stateCh chan Snapshot
	trackCh chan TrackChange
	errorCh chan ErrorEvent
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		stateCh: make(chan Snapshot, eventBufferSize),
		trackCh: make(chan TrackChange, eventBufferSize),
		errorCh: make(chan ErrorEvent, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.StateChanged = s.stateCh
	s.TrackChanged = s.trackCh
	s.Error = s.errorCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

func (s *Subscription) sendState(snap Snapshot) {
	select {
	case s.stateCh <- snap:
	default:
	}
}

func (s *Subscription) sendTrack(e TrackChange) {
	select {
	case s.trackCh <- e:
	default:
	}
}

func (s *Subscription) sendError(e ErrorEvent) {
	select {
	case s.errorCh <- e:
	default:
	}
}
