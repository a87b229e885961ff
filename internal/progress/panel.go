// Package progress renders the upload panel and download bars in the
// terminal.
package progress

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"golang.org/x/term"

	"github.com/skydrive/skydrive-cli/internal/events"
	"github.com/skydrive/skydrive-cli/internal/session"
)

// PanelUI is the terminal rendering of the upload session panel. It
// subscribes to the event bus and mirrors the session store: one bar
// per record, a header line driven by the store's header policy.
type PanelUI struct {
	progress   *mpb.Progress
	store      *session.Store
	bus        *events.EventBus
	isTerminal bool

	// fallback takes every non-TTY line (status lines and redirected
	// logs) so piped output lands on a single stream
	fallback io.Writer

	mu   sync.Mutex
	bars map[string]*mpb.Bar // record ID -> bar

	stop chan struct{}
	done chan struct{}
}

// NewPanelUI creates the panel renderer. Bars draw on stderr; stdout
// stays clean for command output and log lines.
func NewPanelUI(store *session.Store, bus *events.EventBus) *PanelUI {
	isTerminal := term.IsTerminal(int(os.Stderr.Fd()))

	var p *mpb.Progress
	if isTerminal {
		enableANSIOnWindows(os.Stderr)
		p = mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(150*time.Millisecond),
			mpb.WithWidth(64),
		)
	} else {
		p = mpb.New(mpb.WithOutput(io.Discard))
	}

	return &PanelUI{
		progress:   p,
		store:      store,
		bus:        bus,
		isTerminal: isTerminal,
		fallback:   os.Stderr,
		bars:       make(map[string]*mpb.Bar),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run consumes session events until Stop is called or the bus closes.
// Call from its own goroutine.
func (ui *PanelUI) Run() {
	defer close(ui.done)

	ch := ui.bus.SubscribeAll()
	defer ui.bus.UnsubscribeAll(ch)

	for {
		select {
		case <-ui.stop:
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			ui.handle(event)
		}
	}
}

// Stop detaches from the bus and waits for the render loop to exit.
func (ui *PanelUI) Stop() {
	close(ui.stop)
	<-ui.done
}

// Wait blocks until all bars have completed rendering.
func (ui *PanelUI) Wait() {
	ui.progress.Wait()
}

// LogWriter returns a writer that prints safely above active bars.
// Wire it into the logger while transfers are on screen. Without a
// terminal it is the same stream status lines go to.
func (ui *PanelUI) LogWriter() io.Writer {
	if ui.isTerminal {
		return ui.progress
	}
	return ui.fallback
}

func (ui *PanelUI) handle(event events.Event) {
	switch e := event.(type) {
	case *events.UploadEvent:
		switch e.Type() {
		case events.EventUploadAdded:
			ui.addBar(e)
		case events.EventUploadProgress:
			ui.setProgress(e)
		case events.EventUploadStatus:
			ui.finishBar(e)
		}
	}
}

func (ui *PanelUI) addBar(e *events.UploadEvent) {
	if !ui.isTerminal {
		fmt.Fprintf(ui.fallback, "Uploading: %s\n", e.Name)
		return
	}

	name := e.Name
	bar := ui.progress.New(100,
		mpb.BarStyle().Lbound("[").Filler("█").Tip("█").Padding("░").Rbound("]"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WCSyncSpaceR),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WCSyncSpace),
		),
	)

	ui.mu.Lock()
	ui.bars[e.RecordID] = bar
	ui.mu.Unlock()
}

func (ui *PanelUI) setProgress(e *events.UploadEvent) {
	ui.mu.Lock()
	bar := ui.bars[e.RecordID]
	ui.mu.Unlock()
	if bar != nil {
		bar.SetCurrent(int64(e.Progress))
	}
}

func (ui *PanelUI) finishBar(e *events.UploadEvent) {
	ui.mu.Lock()
	bar := ui.bars[e.RecordID]
	delete(ui.bars, e.RecordID)
	ui.mu.Unlock()

	header := ui.store.HeaderText()

	switch session.Status(e.Status) {
	case session.StatusCompleted:
		if bar != nil {
			bar.SetCurrent(100)
			bar.SetTotal(100, true)
		}
		ui.write(fmt.Sprintf("✓ %s\n  %s\n", e.Name, header))
	case session.StatusCancelled:
		if bar != nil {
			bar.Abort(true)
		}
		ui.write(fmt.Sprintf("– %s cancelled\n", e.Name))
	case session.StatusError:
		if bar != nil {
			bar.Abort(false)
		}
		ui.write(fmt.Sprintf("✗ %s: %v\n", e.Name, e.Err))
	}
}

func (ui *PanelUI) write(msg string) {
	if ui.isTerminal {
		ui.progress.Write([]byte(msg))
		return
	}
	fmt.Fprint(ui.fallback, msg)
}

// IsTerminal reports whether bars are actually drawing.
func (ui *PanelUI) IsTerminal() bool {
	return ui.isTerminal
}

// enableANSIOnWindows enables Virtual Terminal processing on Windows so
// ANSI escape sequences render. No-op elsewhere.
func enableANSIOnWindows(f *os.File) {
	if runtime.GOOS == "windows" {
		enableWindowsANSI(f)
	}
}
