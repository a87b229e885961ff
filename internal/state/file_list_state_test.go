package state

import (
	"testing"
	"time"

	"github.com/skydrive/skydrive-cli/internal/events"
	"github.com/skydrive/skydrive-cli/internal/models"
)

func sampleFiles() []models.File {
	return []models.File{
		{ID: "f1", Name: "beta.txt", Size: 200},
		{ID: "f2", Name: "Alpha.txt", Size: 100},
		{ID: "f3", Name: "gamma.txt", Size: 300, IsStarred: true},
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestSetItemsSortsByNameCaseInsensitive(t *testing.T) {
	s := NewFileListState("drive", nil)
	s.SetItems(sampleFiles())

	items := s.Items()
	want := []string{"Alpha.txt", "beta.txt", "gamma.txt"}
	for i, name := range want {
		if items[i].Name != name {
			t.Errorf("item %d = %q, want %q", i, items[i].Name, name)
		}
	}
}

func TestSetSortBySizeDescending(t *testing.T) {
	s := NewFileListState("drive", nil)
	s.SetItems(sampleFiles())
	s.SetSort("size", false)

	items := s.Items()
	if items[0].ID != "f3" || items[2].ID != "f2" {
		t.Errorf("unexpected size-desc order: %v, %v, %v", items[0].ID, items[1].ID, items[2].ID)
	}
}

func TestStarEventPatchesListing(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()

	s := NewFileListState("drive", bus)
	defer s.Close()
	s.SetItems(sampleFiles())

	bus.Publish(events.NewFileEvent(events.EventFileStarred, "f1", "beta.txt", true))

	waitFor(t, func() bool {
		f, ok := s.FindByID("f1")
		return ok && f.IsStarred
	})
}

func TestUnstarEventDropsFromStarredListing(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()

	s := NewFileListState("starred", bus)
	defer s.Close()
	s.SetItems([]models.File{{ID: "f3", Name: "gamma.txt", IsStarred: true}})

	bus.Publish(events.NewFileEvent(events.EventFileStarred, "f3", "gamma.txt", false))

	waitFor(t, func() bool { return s.Count() == 0 })
}

func TestTrashEventRemovesFromDriveListing(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()

	s := NewFileListState("drive", bus)
	defer s.Close()
	s.SetItems(sampleFiles())

	bus.Publish(events.NewFileEvent(events.EventFileTrashed, "f2", "Alpha.txt", false))

	waitFor(t, func() bool { return s.Count() == 2 })
	if _, ok := s.FindByID("f2"); ok {
		t.Error("trashed file still present in drive listing")
	}
}

func TestTrashEventKeepsTrashListing(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()

	trash := NewFileListState("trash", bus)
	defer trash.Close()
	trash.SetItems([]models.File{{ID: "f9", Name: "old.txt"}})

	bus.Publish(events.NewFileEvent(events.EventFileTrashed, "f9", "old.txt", false))

	// Trash listings keep trashed files; restores remove them
	time.Sleep(50 * time.Millisecond)
	if trash.Count() != 1 {
		t.Error("trash listing must not drop trashed files")
	}

	bus.Publish(events.NewFileEvent(events.EventFileRestored, "f9", "old.txt", false))
	waitFor(t, func() bool { return trash.Count() == 0 })
}

func TestRenameEventUpdatesNameAndResorts(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()

	s := NewFileListState("drive", bus)
	defer s.Close()
	s.SetItems(sampleFiles())

	bus.Publish(events.NewFileEvent(events.EventFileRenamed, "f3", "aaa.txt", false))

	waitFor(t, func() bool {
		items := s.Items()
		return len(items) > 0 && items[0].ID == "f3" && items[0].Name == "aaa.txt"
	})
}

func TestDeleteEventRemovesEverywhere(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()

	trash := NewFileListState("trash", bus)
	defer trash.Close()
	trash.SetItems([]models.File{{ID: "f9", Name: "old.txt"}})

	bus.Publish(events.NewFileEvent(events.EventFileDeleted, "f9", "old.txt", false))

	waitFor(t, func() bool { return trash.Count() == 0 })
}

func TestCompletedUploadMarksListingStale(t *testing.T) {
	bus := events.NewEventBus(64)
	defer bus.Close()

	drive := NewFileListState("drive", bus)
	defer drive.Close()
	drive.SetItems(sampleFiles())

	trash := NewFileListState("trash", bus)
	defer trash.Close()

	bus.Publish(events.NewUploadEvent(events.EventUploadStatus, "u1", "new.txt", 100, "completed", nil))

	waitFor(t, func() bool { return drive.NeedsRefresh() })
	if trash.NeedsRefresh() {
		t.Error("trash listing must not go stale on upload completion")
	}

	// A fresh fetch clears the flag
	drive.SetItems(sampleFiles())
	if drive.NeedsRefresh() {
		t.Error("SetItems must clear the stale flag")
	}
}

func TestLoadingAndError(t *testing.T) {
	s := NewFileListState("drive", nil)

	s.SetLoading(true)
	if !s.IsLoading() {
		t.Error("expected loading")
	}

	s.SetItems(sampleFiles())
	if s.IsLoading() {
		t.Error("SetItems must clear loading")
	}
}
