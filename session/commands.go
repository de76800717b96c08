// ABOUTME: Commands accepted by the session actor, both user-facing and internal result messages.
// ABOUTME: Internal messages carry socket frames and HTTP results back onto the actor goroutine.
package session

import (
	"encoding/json"

	"github.com/LogicalOverflow/go-astiencoder/api"
)

// Command is a user action processed by the session actor.
type Command interface {
	isCommand()
}

// Key names a keyboard shortcut understood by the session.
type Key string

// Supported keys.
const (
	KeyRight Key = "right"
)

// SearchCommand filters nodes by label or name.
type SearchCommand struct{ Query string }

// ToggleTagShowCommand toggles a tag's show flag.
type ToggleTagShowCommand struct{ Name string }

// ToggleTagHideCommand toggles a tag's hide flag.
type ToggleTagHideCommand struct{ Name string }

// ResetTagsCommand clears every tag flag.
type ResetTagsCommand struct{}

// KeyCommand forwards a key press. Unknown keys are ignored.
type KeyCommand struct{ Key Key }

// AdvanceCommand fetches and applies the next playback batch.
type AdvanceCommand struct{}

// LoadPlaybackCommand uploads a recording file and switches to playback.
type LoadPlaybackCommand struct{ Path string }

// UnloadPlaybackCommand leaves playback and returns to live data.
type UnloadPlaybackCommand struct{}

func (SearchCommand) isCommand()         {}
func (ToggleTagShowCommand) isCommand()  {}
func (ToggleTagHideCommand) isCommand()  {}
func (ResetTagsCommand) isCommand()      {}
func (KeyCommand) isCommand()            {}
func (AdvanceCommand) isCommand()        {}
func (LoadPlaybackCommand) isCommand()   {}
func (UnloadPlaybackCommand) isCommand() {}

// Internal messages. They implement Command so they share the actor queue
// with user actions and are processed strictly in submission order.

// socketOpened carries the welcome fetched for a new connection. ok is false
// when the body was empty; err is set when the request itself failed.
type socketOpened struct {
	welcome api.Welcome
	ok      bool
	err     error
}

type socketClosed struct{ err error }

type socketMessage struct {
	name    string
	payload json.RawMessage
}

type playbackLoaded struct {
	path string
	snap api.Snapshot
}

// batchLoaded and requestFailed carry the playback generation the request
// was started in. Results from an earlier generation are not applied.
type batchLoaded struct {
	gen   uint64
	batch api.Batch
}

type playbackUnloaded struct{ snap *api.Snapshot }

type requestFailed struct {
	op  string
	gen uint64
	err error
}

func (socketOpened) isCommand()     {}
func (socketClosed) isCommand()     {}
func (socketMessage) isCommand()    {}
func (playbackLoaded) isCommand()   {}
func (batchLoaded) isCommand()      {}
func (playbackUnloaded) isCommand() {}
func (requestFailed) isCommand()    {}
