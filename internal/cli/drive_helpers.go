package cli

import (
	"github.com/skydrive/skydrive-cli/internal/api"
	"github.com/skydrive/skydrive-cli/internal/constants"
	"github.com/skydrive/skydrive-cli/internal/drive"
	"github.com/skydrive/skydrive-cli/internal/events"
	"github.com/skydrive/skydrive-cli/internal/models"
	"github.com/skydrive/skydrive-cli/internal/state"
)

// newDriveService wires a drive service to its own event bus. Mutating
// commands go through it so listings subscribed to the bus stay in
// sync. The returned func tears the bus down.
func newDriveService(client *api.Client) (*drive.Service, func()) {
	bus := events.NewEventBus(constants.EventBusDefaultBuffer)
	return drive.NewService(client, bus), bus.Close
}

// listItems runs fetched files through a FileListState so listing
// commands display exactly what an event-subscribed listing holds.
func listItems(source string, files []models.File, sortBy string, ascending bool) []models.File {
	listing := state.NewFileListState(source, nil)
	listing.SetItems(files)
	listing.SetSort(sortBy, ascending)
	return listing.Items()
}
