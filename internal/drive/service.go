// Package drive applies file mutations against the API and announces
// them on the event bus. Code that caches file listings subscribes to
// the events and patches itself; the code that made the change never
// reaches into another component's state.
package drive

import (
	"context"

	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/events"
)

// Service wraps the mutating file operations. Every successful call
// publishes the matching FileEvent; a failed call publishes nothing, so
// subscribers only ever see changes the server accepted.
type Service struct {
	client *api.Client
	bus    *events.EventBus
}

// NewService creates a Service publishing on bus. A nil bus is allowed;
// events are simply not published.
func NewService(client *api.Client, bus *events.EventBus) *Service {
	return &Service{client: client, bus: bus}
}

func (s *Service) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// SetStarred toggles a file's star flag.
func (s *Service) SetStarred(ctx context.Context, fileID string, starred bool) error {
	if err := s.client.SetStarred(ctx, fileID, starred); err != nil {
		return err
	}
	s.publish(events.NewFileEvent(events.EventFileStarred, fileID, "", starred))
	return nil
}

// Rename changes a file's display name.
func (s *Service) Rename(ctx context.Context, fileID, newName string) error {
	if err := s.client.RenameFile(ctx, fileID, newName); err != nil {
		return err
	}
	s.publish(events.NewFileEvent(events.EventFileRenamed, fileID, newName, false))
	return nil
}

// Trash moves a file to the trash.
func (s *Service) Trash(ctx context.Context, fileID string) error {
	if err := s.client.TrashFile(ctx, fileID); err != nil {
		return err
	}
	s.publish(events.NewFileEvent(events.EventFileTrashed, fileID, "", false))
	return nil
}

// Restore brings a trashed file back.
func (s *Service) Restore(ctx context.Context, fileID string) error {
	if err := s.client.RestoreFile(ctx, fileID); err != nil {
		return err
	}
	s.publish(events.NewFileEvent(events.EventFileRestored, fileID, "", false))
	return nil
}

// DeleteForever permanently deletes a trashed file.
func (s *Service) DeleteForever(ctx context.Context, fileID string) error {
	if err := s.client.DeleteFilePermanently(ctx, fileID); err != nil {
		return err
	}
	s.publish(events.NewFileEvent(events.EventFileDeleted, fileID, "", false))
	return nil
}
