// ABOUTME: Tests for the tea.Cmd factories bridging the session into Bubble Tea.
package tui

import (
	"errors"
	"testing"

	"github.com/LogicalOverflow/go-astiencoder/session"
)

func TestWaitForViewCmd(t *testing.T) {
	ch := make(chan session.View, 1)
	ch <- session.View{Seq: 7}

	msg := WaitForViewCmd(ch)()
	if vm, ok := msg.(ViewMsg); !ok || vm.View.Seq != 7 {
		t.Fatalf("msg = %#v, want ViewMsg seq 7", msg)
	}

	close(ch)
	if _, ok := WaitForViewCmd(ch)().(ViewsClosedMsg); !ok {
		t.Fatal("closed channel must yield ViewsClosedMsg")
	}
}

func TestActionCmd(t *testing.T) {
	boom := errors.New("boom")
	msg := ActionCmd("load", func() error { return boom })()
	res, ok := msg.(ActionResultMsg)
	if !ok || res.Action != "load" || !errors.Is(res.Err, boom) {
		t.Fatalf("msg = %#v", msg)
	}
}
