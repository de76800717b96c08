// ABOUTME: Demo workflow generator that drives the fake engine like a live encoding pipeline.
// ABOUTME: Starts every node, then emits stats on each tick and occasionally pauses or resumes one.
package fakeengine

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/LogicalOverflow/go-astiencoder/api"
	"github.com/LogicalOverflow/go-astiencoder/events"
	"github.com/LogicalOverflow/go-astiencoder/graph"
)

type demoNode struct {
	name     string
	label    string
	parents  []string
	children []string
	tags     []string
}

var demoNodes = []demoNode{
	{name: "demuxer_1", label: "Demuxer", children: []string{"decoder_1", "decoder_2"}, tags: []string{"input"}},
	{name: "decoder_1", label: "Video decoder", parents: []string{"demuxer_1"}, children: []string{"encoder_1"}, tags: []string{"video"}},
	{name: "decoder_2", label: "Audio decoder", parents: []string{"demuxer_1"}, children: []string{"encoder_2"}, tags: []string{"audio"}},
	{name: "encoder_1", label: "Video encoder", parents: []string{"decoder_1"}, children: []string{"muxer_1"}, tags: []string{"video"}},
	{name: "encoder_2", label: "Audio encoder", parents: []string{"decoder_2"}, children: []string{"muxer_1"}, tags: []string{"audio"}},
	{name: "muxer_1", label: "Muxer", parents: []string{"encoder_1", "encoder_2"}, tags: []string{"output"}},
}

// DemoWorkflow returns the demo pipeline with every node in the stopped state.
func DemoWorkflow() *api.Workflow {
	wf := &api.Workflow{Name: "demo"}
	for _, d := range demoNodes {
		name, label := d.name, d.label
		desc := "demo " + d.label
		status := graph.StatusStopped
		wf.Nodes = append(wf.Nodes, graph.NodePayload{
			Name:        &name,
			Label:       &label,
			Description: &desc,
			Status:      &status,
			Children:    d.children,
			Parents:     d.parents,
			Tags:        d.tags,
		})
	}
	return wf
}

// Simulate installs the demo workflow as running and broadcasts events every
// tick until ctx is done. Pauses are not reflected in /welcome.
func (s *Server) Simulate(ctx context.Context, tick time.Duration) error {
	wf := DemoWorkflow()
	running := graph.StatusRunning
	for i := range wf.Nodes {
		wf.Nodes[i].Status = &running
	}
	s.SetWorkflow(wf)

	for _, n := range wf.Nodes {
		if err := s.Broadcast(events.Prefix+events.NodeStarted, n); err != nil {
			return err
		}
	}

	paused := map[string]bool{}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for _, d := range demoNodes {
			if paused[d.name] {
				continue
			}
			if err := s.Broadcast(events.Prefix+events.NodeStats, demoStats(d.name)); err != nil {
				return err
			}
		}

		if rand.IntN(10) == 0 {
			d := demoNodes[rand.IntN(len(demoNodes))]
			event := events.NodePaused
			if paused[d.name] {
				event = events.NodeContinued
			}
			paused[d.name] = !paused[d.name]
			if err := s.Broadcast(events.Prefix+event, d.name); err != nil {
				return err
			}
		}
	}
}

func demoStats(name string) events.StatsPayload {
	fps := 20 + rand.Float64()*10
	load := rand.Float64() * 100
	fpsUnit, loadUnit := "fps", "%"
	return events.StatsPayload{
		Name: name,
		Stats: []graph.StatPayload{
			{Label: "Framerate", Value: &fps, Unit: &fpsUnit},
			{Label: "Work ratio", Value: &load, Unit: &loadUnit},
		},
	}
}
