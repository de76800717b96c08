// ABOUTME: Immutable view of the session published after every command.
// ABOUTME: A coalescing broadcaster hands each subscriber only the latest view and never blocks the actor.
package session

import (
	"sync"

	"github.com/LogicalOverflow/go-astiencoder/graph"
	"github.com/LogicalOverflow/go-astiencoder/playback"
)

// Recording mirrors the engine's recording controls.
type Recording struct {
	// Disabled is true when the engine has no live workflow to record.
	Disabled bool
	Started  bool
}

// View is a point-in-time copy of everything a presentation layer renders.
type View struct {
	Seq             uint64
	Nodes           []graph.NodeSnapshot
	Tags            []graph.Tag
	Query           string
	Connected       bool
	Recording       Recording
	Playback        playback.State
	AdvanceInFlight bool
	// TagsFiltered is true while any tag is shown or hidden.
	TagsFiltered bool
	// LastError describes the most recent failed request, if any.
	LastError string
}

// viewBroadcaster fans views out to subscribers. Each subscriber channel holds
// at most one view; a newer view replaces an unread one.
type viewBroadcaster struct {
	mu          sync.Mutex
	subscribers []chan View
	closed      bool
}

// subscribe registers a channel already holding the initial view. Every send
// happens under mu, so the single slot is free after a drain.
func (b *viewBroadcaster) subscribe(initial View) chan View {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan View, 1)
	ch <- initial
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

func (b *viewBroadcaster) unsubscribe(ch <-chan View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(sub)
			return
		}
	}
}

func (b *viewBroadcaster) publish(v View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- v
	}
}

func (b *viewBroadcaster) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
	b.closed = true
}
