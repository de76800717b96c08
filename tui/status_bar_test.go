// ABOUTME: Tests for the status bar rendering of connection, recording and playback state.
package tui

import (
	"strings"
	"testing"

	"github.com/LogicalOverflow/go-astiencoder/graph"
	"github.com/LogicalOverflow/go-astiencoder/playback"
	"github.com/LogicalOverflow/go-astiencoder/session"
)

func TestStatusBarView(t *testing.T) {
	tests := []struct {
		name string
		view session.View
		want []string
	}{
		{
			name: "offline",
			view: session.View{Recording: session.Recording{Disabled: true}},
			want: []string{"(offline)", "Recording: unavailable", "0/0 nodes"},
		},
		{
			name: "live recording",
			view: session.View{
				Connected: true,
				Recording: session.Recording{Started: true},
				Nodes:     []graph.NodeSnapshot{{Key: "a"}, {Key: "b"}},
				Query:     "enc",
			},
			want: []string{"(live)", "Recording: on", "1/2 nodes", `Search: "enc"`},
		},
		{
			name: "tags filtered",
			view: session.View{TagsFiltered: true},
			want: []string{"Tags: filtered"},
		},
		{
			name: "playback done",
			view: session.View{Playback: playback.State{Loaded: true, Done: true}},
			want: []string{"Playback: done"},
		},
		{
			name: "playback in flight",
			view: session.View{Playback: playback.State{Loaded: true}, AdvanceInFlight: true},
			want: []string{"Playback: loading"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewStatusBarModel("http://engine:4000")
			m.SetWidth(200)
			m.SetView(tt.view, 1)
			if tt.name == "offline" {
				m.SetView(tt.view, 0)
			}
			got := m.View()
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("View() missing %q: %q", want, got)
				}
			}
		})
	}
}
