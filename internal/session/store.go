// Package session holds the upload session store: the records for every
// in-flight, finished and failed upload plus the visibility state of the
// progress panel rendered from them.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/skydrive/skydrive-cli/internal/events"
)

// Status is an upload record's lifecycle state.
type Status string

const (
	StatusUploading Status = "uploading"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusCancelled Status = "cancelled"
)

// UploadRecord is one file's entry in the session.
//
// Records are never deduplicated: uploading the same file twice yields
// two records with distinct IDs.
type UploadRecord struct {
	ID       string
	Name     string
	Type     string
	Progress int // 0 to 100
	Status   Status
	Err      error // diagnostic only, set when Status is error
}

// Store is the upload session store.
//
// All mutations are atomic under one mutex and publish events on the
// bus; readers get copies, never live references. The panel open and
// minimized flags live here too because every rule that touches them
// (surface on add, auto-close on empty) is a session rule.
type Store struct {
	mu          sync.RWMutex
	records     []UploadRecord
	cancels     map[string]context.CancelFunc
	isOpen      bool
	isMinimized bool

	bus *events.EventBus
}

// NewStore creates an empty session store publishing on bus.
// A nil bus is allowed; events are simply not published.
func NewStore(bus *events.EventBus) *Store {
	return &Store{
		cancels: make(map[string]context.CancelFunc),
		bus:     bus,
	}
}

func (s *Store) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// AddUpload registers a new record in uploading state at 0% and returns
// its generated ID. Adding always surfaces the panel: open, expanded.
func (s *Store) AddUpload(name, fileType string) string {
	s.mu.Lock()

	record := UploadRecord{
		ID:     uuid.NewString(),
		Name:   name,
		Type:   fileType,
		Status: StatusUploading,
	}
	s.records = append(s.records, record)
	s.isOpen = true
	s.isMinimized = false

	isOpen, isMinimized := s.isOpen, s.isMinimized
	s.mu.Unlock()

	s.publish(events.NewUploadEvent(events.EventUploadAdded, record.ID, name, 0, string(StatusUploading), nil))
	s.publish(events.NewPanelEvent(isOpen, isMinimized))
	return record.ID
}

// RegisterCancel associates a cancel function with a record so
// CancelUpload can abort the transfer.
func (s *Store) RegisterCancel(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancels[id] = cancel
}

// UpdateProgress sets a record's progress percentage, clamped to 0-100.
// Unknown IDs are ignored; a record may have been removed concurrently.
func (s *Store) UpdateProgress(id string, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	s.mu.Lock()
	var name string
	found := false
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Progress = progress
			name = s.records[i].Name
			found = true
			break
		}
	}
	s.mu.Unlock()

	if found {
		s.publish(events.NewUploadEvent(events.EventUploadProgress, id, name, progress, string(StatusUploading), nil))
	}
}

// UpdateStatus transitions a record to a new status. Completion forces
// progress to 100 so the bar cannot finish below full; a completion
// response never arrives before the last byte was accepted.
func (s *Store) UpdateStatus(id string, status Status, cause error) {
	s.mu.Lock()
	var name string
	var progress int
	found := false
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Status = status
			s.records[i].Err = cause
			if status == StatusCompleted {
				s.records[i].Progress = 100
			}
			name = s.records[i].Name
			progress = s.records[i].Progress
			found = true
			break
		}
	}
	if found && status != StatusUploading {
		delete(s.cancels, id)
	}
	s.mu.Unlock()

	if found {
		s.publish(events.NewUploadEvent(events.EventUploadStatus, id, name, progress, string(status), cause))
	}
}

// CancelUpload aborts an in-flight upload. The stored cancel function
// stops the transfer; the coordinator then reports the context error,
// which UpdateStatus records as cancelled. Records that are no longer
// uploading are left untouched.
func (s *Store) CancelUpload(id string) error {
	s.mu.Lock()
	cancel, ok := s.cancels[id]
	if ok {
		delete(s.cancels, id)
	}
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("no cancellable upload with id %s", id)
	}
	cancel()
	return nil
}

// RemoveUpload removes a record by ID. When the last record goes, the
// panel closes; an empty panel has nothing to show.
func (s *Store) RemoveUpload(id string) {
	s.mu.Lock()
	for i := range s.records {
		if s.records[i].ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			break
		}
	}
	delete(s.cancels, id)
	autoClosed := false
	if len(s.records) == 0 && s.isOpen {
		s.isOpen = false
		autoClosed = true
	}
	isOpen, isMinimized := s.isOpen, s.isMinimized
	s.mu.Unlock()

	s.publish(events.NewUploadEvent(events.EventUploadsCleared, id, "", 0, "", nil))
	if autoClosed {
		s.publish(events.NewPanelEvent(isOpen, isMinimized))
	}
}

// ClearCompleted removes every completed record, keeping uploading,
// error and cancelled entries. Idempotent; clearing an already-clean
// session changes nothing. Closes the panel when nothing remains.
func (s *Store) ClearCompleted() {
	s.mu.Lock()
	kept := s.records[:0]
	removed := 0
	for _, r := range s.records {
		if r.Status == StatusCompleted {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	autoClosed := false
	if len(s.records) == 0 && s.isOpen {
		s.isOpen = false
		autoClosed = true
	}
	isOpen, isMinimized := s.isOpen, s.isMinimized
	s.mu.Unlock()

	if removed > 0 {
		s.publish(events.NewUploadEvent(events.EventUploadsCleared, "", "", 0, "", nil))
	}
	if autoClosed {
		s.publish(events.NewPanelEvent(isOpen, isMinimized))
	}
}

// SetOpen sets the panel's open flag directly.
func (s *Store) SetOpen(open bool) {
	s.mu.Lock()
	s.isOpen = open
	isOpen, isMinimized := s.isOpen, s.isMinimized
	s.mu.Unlock()

	s.publish(events.NewPanelEvent(isOpen, isMinimized))
}

// SetMinimized sets the panel's minimized flag directly.
func (s *Store) SetMinimized(minimized bool) {
	s.mu.Lock()
	s.isMinimized = minimized
	isOpen, isMinimized := s.isOpen, s.isMinimized
	s.mu.Unlock()

	s.publish(events.NewPanelEvent(isOpen, isMinimized))
}

// ToggleMinimized flips the minimized flag.
func (s *Store) ToggleMinimized() {
	s.mu.Lock()
	s.isMinimized = !s.isMinimized
	isOpen, isMinimized := s.isOpen, s.isMinimized
	s.mu.Unlock()

	s.publish(events.NewPanelEvent(isOpen, isMinimized))
}

// ClosePanel is the dismiss gesture: completed records are cleared so
// reopening does not resurface finished work, while uploading, failed
// and cancelled records survive. The panel itself only closes when
// nothing remains; surviving records keep it on screen.
func (s *Store) ClosePanel() {
	s.ClearCompleted()
}

// Records returns a copy of all records in insertion order.
func (s *Store) Records() []UploadRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UploadRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Get returns a copy of one record by ID.
func (s *Store) Get(id string) (UploadRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, true
		}
	}
	return UploadRecord{}, false
}

// IsOpen reports whether the panel is open.
func (s *Store) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isOpen
}

// IsMinimized reports whether the panel is minimized.
func (s *Store) IsMinimized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isMinimized
}

// Counts returns the number of records per status bucket.
func (s *Store) Counts() (uploading, completed, failed, cancelled int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		switch r.Status {
		case StatusUploading:
			uploading++
		case StatusCompleted:
			completed++
		case StatusError:
			failed++
		case StatusCancelled:
			cancelled++
		}
	}
	return
}

// HeaderText returns the panel's header line. Active work always wins
// over finished work; a mixed session reads as still uploading.
func (s *Store) HeaderText() string {
	uploading, completed, _, _ := s.Counts()

	switch {
	case uploading > 0:
		return fmt.Sprintf("Uploading %d %s", uploading, pluralize("item", uploading))
	case completed > 0:
		return fmt.Sprintf("%d %s complete", completed, pluralize("upload", completed))
	default:
		return "Uploads"
	}
}

func pluralize(noun string, n int) string {
	if n == 1 {
		return noun
	}
	return noun + "s"
}
