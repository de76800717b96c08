// ABOUTME: Recording is the file format the fake engine exports and accepts for playback.
// ABOUTME: It holds the node snapshot at recording start and one batch of events per broadcast.
package fakeengine

import (
	"github.com/LogicalOverflow/go-astiencoder/events"
	"github.com/LogicalOverflow/go-astiencoder/graph"
)

// Recording is a replayable session.
type Recording struct {
	Nodes   []graph.NodePayload `json:"nodes"`
	Batches [][]events.Item     `json:"batches"`
}

// playbackState tracks the cursor into a loaded recording.
type playbackState struct {
	rec    Recording
	cursor int
}

// next returns the next batch and whether the log is now exhausted.
func (p *playbackState) next() ([]events.Item, bool) {
	if p.cursor >= len(p.rec.Batches) {
		return []events.Item{}, true
	}
	items := p.rec.Batches[p.cursor]
	p.cursor++
	if items == nil {
		items = []events.Item{}
	}
	return items, p.cursor >= len(p.rec.Batches)
}
