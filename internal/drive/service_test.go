package drive

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/config"
	"github.com/skydrive/skydrive-cli/internal/events"
	"github.com/skydrive/skydrive-cli/internal/models"
	"github.com/skydrive/skydrive-cli/internal/state"
)

func newTestService(t *testing.T, handler nethttp.Handler) (*Service, *events.EventBus) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.New()
	// srv.URL is already routed; skip /api normalization in tests
	cfg.APIBaseURL = srv.URL
	cfg.Proxy.Mode = "no-proxy"
	cfg.Token = "test-token"

	client, err := api.NewClient(cfg, api.WithRetryOptions(0, time.Millisecond, time.Millisecond))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	bus := events.NewEventBus(16)
	t.Cleanup(bus.Close)
	return NewService(client, bus), bus
}

func nextFileEvent(t *testing.T, ch <-chan events.Event) *events.FileEvent {
	t.Helper()
	select {
	case event := <-ch:
		fe, ok := event.(*events.FileEvent)
		if !ok {
			t.Fatalf("expected FileEvent, got %T", event)
		}
		return fe
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
		return nil
	}
}

func TestSetStarredPublishesEvent(t *testing.T) {
	var gotPath, gotMethod string
	svc, bus := newTestService(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.WriteHeader(nethttp.StatusOK)
	}))
	ch := bus.SubscribeAll()

	if err := svc.SetStarred(context.Background(), "f1", true); err != nil {
		t.Fatalf("SetStarred returned error: %v", err)
	}
	if gotMethod != "PATCH" || gotPath != "/files/f1/star" {
		t.Errorf("request = %s %s, want PATCH /files/f1/star", gotMethod, gotPath)
	}

	fe := nextFileEvent(t, ch)
	if fe.Type() != events.EventFileStarred || fe.FileID != "f1" || !fe.Starred {
		t.Errorf("event = %s/%s/starred=%v, want file_starred/f1/true", fe.Type(), fe.FileID, fe.Starred)
	}
}

func TestRenamePublishesNewName(t *testing.T) {
	svc, bus := newTestService(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
	}))
	ch := bus.SubscribeAll()

	if err := svc.Rename(context.Background(), "f2", "renamed.txt"); err != nil {
		t.Fatalf("Rename returned error: %v", err)
	}

	fe := nextFileEvent(t, ch)
	if fe.Type() != events.EventFileRenamed || fe.FileID != "f2" || fe.Name != "renamed.txt" {
		t.Errorf("event = %s/%s/%q, want file_renamed/f2/renamed.txt", fe.Type(), fe.FileID, fe.Name)
	}
}

func TestTrashLifecycleEvents(t *testing.T) {
	svc, bus := newTestService(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
	}))
	ch := bus.SubscribeAll()
	ctx := context.Background()

	if err := svc.Trash(ctx, "f3"); err != nil {
		t.Fatalf("Trash returned error: %v", err)
	}
	if fe := nextFileEvent(t, ch); fe.Type() != events.EventFileTrashed {
		t.Errorf("event = %s, want file_trashed", fe.Type())
	}

	if err := svc.Restore(ctx, "f3"); err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if fe := nextFileEvent(t, ch); fe.Type() != events.EventFileRestored {
		t.Errorf("event = %s, want file_restored", fe.Type())
	}

	if err := svc.DeleteForever(ctx, "f3"); err != nil {
		t.Fatalf("DeleteForever returned error: %v", err)
	}
	if fe := nextFileEvent(t, ch); fe.Type() != events.EventFileDeleted {
		t.Errorf("event = %s, want file_deleted", fe.Type())
	}
}

func TestFailedMutationPublishesNothing(t *testing.T) {
	svc, bus := newTestService(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusInternalServerError)
	}))
	ch := bus.SubscribeAll()

	if err := svc.Trash(context.Background(), "f4"); err == nil {
		t.Fatal("expected error from failed trash call")
	}

	select {
	case event := <-ch:
		t.Errorf("unexpected event after failed mutation: %v", event.Type())
	case <-time.After(50 * time.Millisecond):
	}
}

// TestStarPatchesSubscribedListing drives the full path a star toggle
// takes: the service publishes on the bus and a subscribed listing
// patches its cached copy without anyone touching it directly.
func TestStarPatchesSubscribedListing(t *testing.T) {
	svc, bus := newTestService(t, nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusOK)
	}))

	listing := state.NewFileListState("drive", bus)
	defer listing.Close()
	listing.SetItems([]models.File{{ID: "f5", Name: "doc.txt"}})

	if err := svc.SetStarred(context.Background(), "f5", true); err != nil {
		t.Fatalf("SetStarred returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f, ok := listing.FindByID("f5"); ok && f.IsStarred {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("listing never picked up the star event")
}
