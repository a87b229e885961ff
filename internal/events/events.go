// Package events provides the event bus connecting the upload session
// store and the domain operations to their observers. Components publish
// typed events instead of reaching into each other's state: a star toggle
// publishes FileStarredEvent and any view that caches file listings
// subscribes, rather than one store importing and patching another.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/skydrive/skydrive-cli/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	// Upload session events
	EventUploadAdded     EventType = "upload_added"      // Record registered, panel surfaced
	EventUploadProgress  EventType = "upload_progress"   // Progress percentage changed
	EventUploadStatus    EventType = "upload_status"     // Status transition (completed/error/cancelled)
	EventUploadsCleared  EventType = "uploads_cleared"   // Completed records removed
	EventPanelVisibility EventType = "panel_visibility"  // Open/minimized state changed

	// File domain events
	EventFileStarred  EventType = "file_starred"  // Star flag toggled
	EventFileTrashed  EventType = "file_trashed"  // Moved to trash
	EventFileRestored EventType = "file_restored" // Restored from trash
	EventFileRenamed  EventType = "file_renamed"  // Display name changed
	EventFileDeleted  EventType = "file_deleted"  // Permanently deleted
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// UploadEvent carries upload session store changes.
type UploadEvent struct {
	BaseEvent
	RecordID string // Upload record ID
	Name     string // Display name (filename)
	Progress int    // 0 to 100
	Status   string // uploading, completed, error, cancelled
	Err      error  // Diagnostic error for failed uploads, may be nil
}

// PanelEvent carries visibility state changes for the upload panel.
type PanelEvent struct {
	BaseEvent
	IsOpen      bool
	IsMinimized bool
}

// FileEvent carries file domain changes (star, trash, rename, delete).
type FileEvent struct {
	BaseEvent
	FileID  string
	Name    string // New name for renames, display name otherwise
	Starred bool   // Star flag after a star toggle
}

// NewUploadEvent creates an upload session event.
func NewUploadEvent(eventType EventType, recordID, name string, progress int, status string, err error) *UploadEvent {
	return &UploadEvent{
		BaseEvent: BaseEvent{EventType: eventType, Time: time.Now()},
		RecordID:  recordID,
		Name:      name,
		Progress:  progress,
		Status:    status,
		Err:       err,
	}
}

// NewPanelEvent creates a panel visibility event.
func NewPanelEvent(isOpen, isMinimized bool) *PanelEvent {
	return &PanelEvent{
		BaseEvent:   BaseEvent{EventType: EventPanelVisibility, Time: time.Now()},
		IsOpen:      isOpen,
		IsMinimized: isMinimized,
	}
}

// NewFileEvent creates a file domain event.
func NewFileEvent(eventType EventType, fileID, name string, starred bool) *FileEvent {
	return &FileEvent{
		BaseEvent: BaseEvent{EventType: eventType, Time: time.Now()},
		FileID:    fileID,
		Name:      name,
		Starred:   starred,
	}
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of events dropped due to full buffers
}

// NewEventBus creates a new event bus with the specified buffer size.
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Publish never blocks: when a
// subscriber's buffer is full the event is dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Unsubscribe removes a subscription channel from a specific event type.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from every event type and
// from the all-events list.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for eventType, subscribers := range eb.subscribers {
		for i, subCh := range subscribers {
			if subCh == ch {
				subscribers[i] = subscribers[len(subscribers)-1]
				eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
				break
			}
		}
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// DroppedEventCount returns the total number of events dropped due to
// full subscriber buffers.
func (eb *EventBus) DroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
