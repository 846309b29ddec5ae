// Package sse implements Server-Sent Events for live catalog updates.
package sse

import (
	"time"

	"github.com/sixtrece/beats-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventItemLiked is sent after an item's like counter changes.
	EventItemLiked EventType = "item.liked"
	// EventProgressUpdated is sent after every click on the progress counter.
	EventProgressUpdated EventType = "progress.updated"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
	// EventConnected is the first event written on a new stream.
	EventConnected EventType = "connected"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// ItemLikedData is the payload of EventItemLiked.
type ItemLikedData struct {
	ItemID int64 `json:"item_id"`
	Likes  int64 `json:"likes"`
}

// ConnectedData is the payload of EventConnected.
type ConnectedData struct {
	ClientID string `json:"client_id"`
}

// NewItemLikedEvent creates an item.liked event.
func NewItemLikedEvent(itemID, likes int64) Event {
	return Event{
		Type:      EventItemLiked,
		Data:      ItemLikedData{ItemID: itemID, Likes: likes},
		Timestamp: time.Now(),
	}
}

// NewProgressUpdatedEvent creates a progress.updated event.
func NewProgressUpdatedEvent(p domain.Progress) Event {
	return Event{
		Type:      EventProgressUpdated,
		Data:      p,
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type:      EventHeartbeat,
		Data:      struct{}{},
		Timestamp: time.Now(),
	}
}

// NewConnectedEvent creates the stream greeting for clientID.
func NewConnectedEvent(clientID string) Event {
	return Event{
		Type:      EventConnected,
		Data:      ConnectedData{ClientID: clientID},
		Timestamp: time.Now(),
	}
}
