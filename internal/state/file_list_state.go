// Package state provides observable state containers for the SkyDrive
// client. Containers never reach into each other: cross-cutting changes
// arrive as events on the bus. A star toggle publishes a FileEvent and
// every FileListState that caches the file patches its own copy.
package state

import (
	"sort"
	"strings"
	"sync"

	"github.com/skydrive/skydrive-cli/internal/events"
	"github.com/skydrive/skydrive-cli/internal/models"
)

// FileListState is an observable cached file listing.
// Thread-safe for concurrent access.
type FileListState struct {
	// source names this listing ("drive", "trash", "starred", "search")
	source string

	bus *events.EventBus

	items     []models.File
	sortBy    string // "name", "size", "date"
	ascending bool
	folderID  string
	loading   bool
	stale     bool
	lastError error

	stop chan struct{}
	mu   sync.RWMutex
}

// NewFileListState creates a FileListState and starts applying file
// domain events from the bus. Call Close to detach.
func NewFileListState(source string, bus *events.EventBus) *FileListState {
	s := &FileListState{
		source:    source,
		bus:       bus,
		items:     make([]models.File, 0),
		sortBy:    "name",
		ascending: true,
		stop:      make(chan struct{}),
	}
	if bus != nil {
		go s.watch()
	}
	return s
}

// watch applies file domain events to the cached listing.
func (s *FileListState) watch() {
	ch := s.bus.SubscribeAll()
	defer s.bus.UnsubscribeAll(ch)

	for {
		select {
		case <-s.stop:
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			switch e := event.(type) {
			case *events.FileEvent:
				s.apply(e)
			case *events.UploadEvent:
				// A completed upload means the server holds a file this
				// listing has not fetched yet
				if e.Type() == events.EventUploadStatus && e.Status == "completed" && s.source != "trash" {
					s.mu.Lock()
					s.stale = true
					s.mu.Unlock()
				}
			}
		}
	}
}

// apply patches the cached list for one file domain event.
func (s *FileListState) apply(fe *events.FileEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch fe.Type() {
	case events.EventFileStarred:
		for i := range s.items {
			if s.items[i].ID == fe.FileID {
				s.items[i].IsStarred = fe.Starred
				break
			}
		}
		// The starred listing also drops unstarred files outright
		if s.source == "starred" && !fe.Starred {
			s.removeLocked(fe.FileID)
		}

	case events.EventFileRenamed:
		for i := range s.items {
			if s.items[i].ID == fe.FileID {
				s.items[i].Name = fe.Name
				break
			}
		}
		s.sortLocked()

	case events.EventFileTrashed, events.EventFileDeleted:
		// Trashed files leave normal listings; deleted files leave all
		if s.source != "trash" || fe.Type() == events.EventFileDeleted {
			s.removeLocked(fe.FileID)
		}

	case events.EventFileRestored:
		if s.source == "trash" {
			s.removeLocked(fe.FileID)
		}
	}
}

func (s *FileListState) removeLocked(id string) {
	for i := range s.items {
		if s.items[i].ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return
		}
	}
}

// Close detaches the state from the bus.
func (s *FileListState) Close() {
	close(s.stop)
}

// Items returns a copy of the current items.
func (s *FileListState) Items() []models.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.File, len(s.items))
	copy(out, s.items)
	return out
}

// SetItems replaces the listing, typically after a fetch.
func (s *FileListState) SetItems(items []models.File) {
	s.mu.Lock()
	s.items = items
	s.sortLocked()
	s.loading = false
	s.stale = false
	s.lastError = nil
	s.mu.Unlock()
}

// NeedsRefresh reports whether the server holds changes this listing has
// not fetched (set when an upload completes, cleared by SetItems).
func (s *FileListState) NeedsRefresh() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale
}

// SetLoading marks the listing as loading.
func (s *FileListState) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()
}

// IsLoading reports whether the listing is loading.
func (s *FileListState) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetError records a fetch failure.
func (s *FileListState) SetError(err error) {
	s.mu.Lock()
	s.lastError = err
	s.loading = false
	s.mu.Unlock()
}

// Error returns the last fetch failure.
func (s *FileListState) Error() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}

// SetCurrentFolder records which folder the listing shows.
func (s *FileListState) SetCurrentFolder(folderID string) {
	s.mu.Lock()
	s.folderID = folderID
	s.mu.Unlock()
}

// CurrentFolder returns the folder the listing shows.
func (s *FileListState) CurrentFolder() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folderID
}

// SetSort updates the sort order and re-sorts the listing.
func (s *FileListState) SetSort(sortBy string, ascending bool) {
	s.mu.Lock()
	s.sortBy = sortBy
	s.ascending = ascending
	s.sortLocked()
	s.mu.Unlock()
}

// Sort returns the current sort settings.
func (s *FileListState) Sort() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortBy, s.ascending
}

func (s *FileListState) sortLocked() {
	if len(s.items) == 0 {
		return
	}
	sort.SliceStable(s.items, func(i, j int) bool {
		if !s.ascending {
			i, j = j, i
		}
		a, b := s.items[i], s.items[j]
		switch s.sortBy {
		case "size":
			return a.Size < b.Size
		case "date":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	})
}

// FindByID finds an item by ID.
func (s *FileListState) FindByID(id string) (models.File, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.File{}, false
}

// Count returns the number of items.
func (s *FileListState) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
