package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/constants"
	"github.com/skydrive/skydrive-cli/internal/events"
	"github.com/skydrive/skydrive-cli/internal/logging"
	"github.com/skydrive/skydrive-cli/internal/notify"
	"github.com/skydrive/skydrive-cli/internal/progress"
	"github.com/skydrive/skydrive-cli/internal/session"
	"github.com/skydrive/skydrive-cli/internal/uploader"
)

// executeFileUpload uploads the given paths (glob patterns allowed)
// with the upload panel on screen.
func executeFileUpload(ctx context.Context, args []string, folderID string, maxConcurrent int, client *api.Client, log *logging.Logger) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no files matched")
	}

	cfg := client.GetConfig()

	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	defer bus.Close()

	store := session.NewStore(bus)
	notifier := notify.NewNotifier(cfg.Notifications, log)

	up, err := uploader.New(client, store,
		uploader.WithLogger(log),
		uploader.WithNotifier(notifier),
	)
	if err != nil {
		return err
	}

	panel := progress.NewPanelUI(store, bus)
	go panel.Run()

	// Route log lines above the bars while the panel is drawing
	prevOut := log.Output()
	log.SetOutput(panel.LogWriter())

	results := up.UploadAll(ctx, paths, folderID, maxConcurrent)

	panel.Stop()
	panel.Wait()
	log.SetOutput(prevOut)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		}
	}

	log.Info().
		Int("total", len(results)).
		Int("failed", failed).
		Str("summary", store.HeaderText()).
		Msg("Upload run finished")

	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}

// expandPaths expands glob patterns and validates that every argument
// matches at least one regular file.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			// Not a pattern; require the literal path to exist
			if _, statErr := os.Stat(arg); statErr != nil {
				return nil, fmt.Errorf("no such file: %s", arg)
			}
			matches = []string{arg}
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, err
			}
			if info.IsDir() {
				continue
			}
			paths = append(paths, m)
		}
	}
	return paths, nil
}
