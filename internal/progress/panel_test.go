package progress

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/skydrive/skydrive-cli/internal/events"
	"github.com/skydrive/skydrive-cli/internal/session"
)

// TestNonTerminalOutputUsesOneStream checks that with no terminal every
// panel line (status lines and redirected logs) goes to the same
// writer, so piped output is not interleaved across streams.
func TestNonTerminalOutputUsesOneStream(t *testing.T) {
	store := session.NewStore(nil)
	ui := NewPanelUI(store, nil)
	if ui.IsTerminal() {
		t.Skip("test requires a non-terminal stderr")
	}

	var buf bytes.Buffer
	ui.fallback = &buf

	if got := ui.LogWriter(); got != io.Writer(&buf) {
		t.Errorf("LogWriter() = %v, want the fallback writer", got)
	}

	ui.handle(events.NewUploadEvent(events.EventUploadAdded, "r1", "a.txt", 0, "uploading", nil))
	ui.handle(events.NewUploadEvent(events.EventUploadStatus, "r1", "a.txt", 100, string(session.StatusCompleted), nil))

	out := buf.String()
	if !strings.Contains(out, "Uploading: a.txt") {
		t.Errorf("start line missing from fallback output: %q", out)
	}
	if !strings.Contains(out, "✓ a.txt") {
		t.Errorf("completion line missing from fallback output: %q", out)
	}
}
