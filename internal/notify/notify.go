// Package notify provides cross-platform desktop notifications for
// upload outcomes. It uses github.com/gen2brain/beeep.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/skydrive/skydrive-cli/internal/config"
	"github.com/skydrive/skydrive-cli/internal/logging"
)

// Notifier sends desktop notifications for terminal upload states.
// It implements the uploader's Notifier interface.
type Notifier struct {
	logger       *logging.Logger
	enabled      bool
	showComplete bool
	showFailed   bool
	mu           sync.RWMutex
}

// NewNotifier creates a notifier from the notification settings.
func NewNotifier(cfg config.NotificationConfig, logger *logging.Logger) *Notifier {
	return &Notifier{
		logger:       logger,
		enabled:      cfg.Enabled,
		showComplete: cfg.ShowUploadComplete,
		showFailed:   cfg.ShowUploadFailed,
	}
}

// SetEnabled enables or disables all notifications.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// IsEnabled reports whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// UploadCompleted sends a notification for a successful upload.
func (n *Notifier) UploadCompleted(name string) {
	n.mu.RLock()
	show := n.enabled && n.showComplete
	n.mu.RUnlock()
	if !show {
		return
	}

	message := fmt.Sprintf("\"%s\" uploaded to SkyDrive.", truncate(name, 60))
	if err := beeep.Notify("Upload Complete", message, ""); err != nil {
		n.logger.Warn().Err(err).Str("file", name).Msg("Failed to send upload complete notification")
	}
}

// UploadFailed sends a notification for a failed upload.
func (n *Notifier) UploadFailed(name string, cause error) {
	n.mu.RLock()
	show := n.enabled && n.showFailed
	n.mu.RUnlock()
	if !show {
		return
	}

	message := fmt.Sprintf("\"%s\" failed:\n%s", truncate(name, 40), truncate(cause.Error(), 100))
	if err := beeep.Alert("Upload Failed", message, ""); err != nil {
		n.logger.Warn().Err(err).Str("file", name).Msg("Failed to send upload failed notification")
	}
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
