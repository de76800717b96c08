// ABOUTME: Sentinel errors returned by session commands.
package session

import "errors"

var (
	// ErrSessionClosed is returned when a command is submitted after Run returned.
	ErrSessionClosed = errors.New("session closed")

	// ErrAdvanceInFlight is returned when Advance is called while a previous
	// advance has not completed.
	ErrAdvanceInFlight = errors.New("playback advance already in flight")

	// ErrPlaybackDone is returned when Advance is called after the recording
	// has been exhausted.
	ErrPlaybackDone = errors.New("playback already done")
)
