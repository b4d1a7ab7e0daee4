package ui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/talkcad/internal/face"
	"github.com/Faultbox/talkcad/internal/mesh"
	"github.com/Faultbox/talkcad/internal/reasoning"
	"github.com/Faultbox/talkcad/internal/session"
)

func newTestSession(t *testing.T, collab reasoning.Collaborator) *session.Session {
	t.Helper()
	s, err := session.New(t.Context(), session.Options{
		Kernel:       mesh.Static(mesh.Box{Size: 10}),
		Mode:         face.IndexRatio{TrianglesPerFace: 2},
		Collaborator: collab,
		Clock:        func() time.Time { return time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func holes() reasoning.Collaborator {
	return reasoning.Func(func(_ context.Context, req reasoning.Request) (reasoning.Decision, error) {
		if req.Instruction == "paint it" {
			return reasoning.Decision{}, errors.New("Invalid modification")
		}
		return reasoning.Decision{
			Action:     "add_hole",
			Parameters: map[string]any{"radius": 5.0},
			Reasoning:  "A through hole on the top face.",
		}, nil
	})
}

// enter types line and presses enter, then runs every resulting command
// except spinner ticks and feeds the messages back.
func enter(t *testing.T, m tea.Model, line string) tea.Model {
	t.Helper()
	um := m.(Model)
	um.input.SetValue(line)
	next, cmd := um.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return run(next, cmd)
}

func run(m tea.Model, cmd tea.Cmd) tea.Model {
	if cmd == nil {
		return m
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = run(m, c)
		}
	case spinner.TickMsg, nil:
	case tea.QuitMsg:
	default:
		var next tea.Cmd
		m, next = m.Update(msg)
		m = run(m, next)
	}
	return m
}

func TestPickAndClear(t *testing.T) {
	sess := newTestSession(t, holes())
	var m tea.Model = New(t.Context(), sess, Options{})

	m = enter(t, m, "/pick 4")
	view := m.View()
	assert.Contains(t, view, "Selected Top face (face 2)")
	assert.Contains(t, view, "face: Top face (2)")

	m = enter(t, m, "/pick 99")
	assert.Contains(t, m.View(), "out of range")
	id, _, ok := sess.Selected()
	require.True(t, ok)
	assert.Equal(t, face.ID(2), id)

	m = enter(t, m, "/clear")
	assert.Contains(t, m.View(), "face: none")
	assert.Contains(t, m.View(), "Selection cleared")
}

func TestSubmitShowsReasoningAndRevisions(t *testing.T) {
	sess := newTestSession(t, holes())
	var m tea.Model = New(t.Context(), sess, Options{})

	m = enter(t, m, "/revisions")
	assert.Contains(t, m.View(), "No revisions yet")

	m = enter(t, m, "/pick 5")
	m = enter(t, m, "Add a hole with 5mm radius")

	view := m.View()
	assert.Contains(t, view, "you: Add a hole with 5mm radius")
	assert.Contains(t, view, "cad: Applied add_hole on face 2")
	assert.Contains(t, view, "A through hole on the top face.")
	assert.Contains(t, view, "0. add_hole on face 2")
	assert.Contains(t, view, "1 revisions")
	assert.Equal(t, uint64(2), sess.Generation())

	m = enter(t, m, "/hide")
	assert.NotContains(t, m.View(), "A through hole")

	m = enter(t, m, "/revision 0")
	assert.Contains(t, m.View(), "Revision 0: add_hole on face 2 at 2026-05-06 07:08:09")

	m = enter(t, m, "/revision 3")
	assert.Contains(t, m.View(), "no such revision")
}

func TestFailureShowsMessageVerbatim(t *testing.T) {
	sess := newTestSession(t, holes())
	var m tea.Model = New(t.Context(), sess, Options{})

	m = enter(t, m, "paint it")
	assert.Contains(t, m.View(), "error: Invalid modification")
	assert.Zero(t, sess.RevisionCount())
	assert.NotContains(t, m.View(), "AI Reasoning")
}

func TestBusyRejectionIsStatusOnly(t *testing.T) {
	release := make(chan struct{})
	slow := reasoning.Func(func(context.Context, reasoning.Request) (reasoning.Decision, error) {
		<-release
		return reasoning.Decision{Action: "fillet"}, nil
	})
	sess := newTestSession(t, slow)
	var m tea.Model = New(t.Context(), sess, Options{})

	um := m.(Model)
	um.input.SetValue("round the edges")
	m, first := um.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.View(), "Thinking...")

	firstDone := make(chan tea.Msg, 1)
	go func() {
		for _, c := range first().(tea.BatchMsg) {
			if msg, ok := c().(submitDoneMsg); ok {
				firstDone <- msg
			}
		}
	}()
	require.Eventually(t, sess.Busy, time.Second, time.Millisecond)

	um = m.(Model)
	um.input.SetValue("and chamfer them")
	m, second := um.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = run(m, second)

	view := m.View()
	assert.Contains(t, view, "Still working on the previous instruction")
	assert.NotContains(t, view, "and chamfer them")

	close(release)
	m, _ = m.Update(<-firstDone)
	view = m.View()
	assert.Contains(t, view, "cad: Applied fillet on face none")
	assert.NotContains(t, view, "Thinking...")
	assert.Equal(t, 1, sess.RevisionCount())
}

func TestMeshFeedInstallsGeneration(t *testing.T) {
	sess := newTestSession(t, holes())
	feed := make(chan *mesh.Model, 1)
	var m tea.Model = New(t.Context(), sess, Options{Models: feed})

	topo, err := mesh.TopoBox{Size: 4, Divisions: 1}.Produce(t.Context())
	require.NoError(t, err)
	feed <- topo

	next, cmd := m.Update(waitForMesh(feed)())
	assert.NotNil(t, cmd)
	assert.Equal(t, uint64(2), sess.Generation())
	assert.Contains(t, next.View(), "Mesh reloaded (generation 2)")

	close(feed)
	assert.Nil(t, cmd())
}

func TestUnknownCommandAndQuit(t *testing.T) {
	sess := newTestSession(t, holes())
	var m tea.Model = New(t.Context(), sess, Options{})

	m = enter(t, m, "/extrude 5")
	assert.Contains(t, m.View(), "unknown command /extrude")

	um := m.(Model)
	um.input.SetValue("/quit")
	_, cmd := um.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	_, cmd = um.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{line: "  make it taller ", want: command{kind: cmdInstruction, text: "make it taller"}},
		{line: "/pick 7", want: command{kind: cmdPick, arg: 7}},
		{line: "/revision 0", want: command{kind: cmdRevision, arg: 0}},
		{line: "/clear", want: command{kind: cmdClear}},
		{line: "/revisions", want: command{kind: cmdRevisions}},
		{line: "/hide", want: command{kind: cmdHide}},
		{line: "/exit", want: command{kind: cmdQuit}},
		{line: "/pick", wantErr: true},
		{line: "/pick -1", wantErr: true},
		{line: "/pick two", wantErr: true},
		{line: "/revision 1 2", wantErr: true},
		{line: "/nope", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
