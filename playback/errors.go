// ABOUTME: Sentinel errors returned by the playback controller.
package playback

import "errors"

// ErrNotLoaded indicates Next or Unload was called without a loaded recording.
var ErrNotLoaded = errors.New("no playback loaded")
