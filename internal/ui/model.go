// Package ui is the terminal front end: a transcript, an instruction input,
// the revision list and the collaborator's reasoning.
package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/Faultbox/talkcad/internal/edit"
	"github.com/Faultbox/talkcad/internal/mesh"
	"github.com/Faultbox/talkcad/internal/session"
)

const (
	maxTranscript = 200
	timeLayout    = "2006-01-02 15:04:05"
)

type role int

const (
	roleUser role = iota
	roleAssistant
	roleError
	roleSystem
)

type entry struct {
	role role
	text string
}

// Options configures the UI.
type Options struct {
	Markdown bool               // Render reasoning with glamour
	Width    int                // Initial width until the terminal reports one
	Models   <-chan *mesh.Model // Optional feed of reloaded meshes
	Log      *zap.Logger
}

// submitDoneMsg carries the result of one submission back to Update.
type submitDoneMsg struct {
	instruction string
	echoed      bool
	outcome     edit.Outcome
	err         error
}

type meshMsg struct {
	model *mesh.Model
}

// Model is the bubbletea model.
type Model struct {
	ctx  context.Context
	sess *session.Session
	log  *zap.Logger

	input   textinput.Model
	spinner spinner.Model

	transcript    []entry
	reasoning     string
	showReasoning bool
	showRevisions bool
	status        string
	inFlight      int
	width         int

	markdown bool
	renderer *glamour.TermRenderer
	models   <-chan *mesh.Model
}

// New builds the UI around a running session. ctx is handed to every
// submission.
func New(ctx context.Context, sess *session.Session, opts Options) Model {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Width <= 0 {
		opts.Width = 80
	}

	ti := textinput.New()
	ti.Placeholder = "Describe a change, or /help"
	ti.Prompt = "> "
	ti.CharLimit = 1000
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	m := Model{
		ctx:      ctx,
		sess:     sess,
		log:      opts.Log,
		input:    ti,
		spinner:  sp,
		markdown: opts.Markdown,
		models:   opts.Models,
	}
	m.resize(opts.Width)
	return m
}

// Init starts the cursor blink and, when a mesh feed is set, waits on it.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForMesh(m.models))
}

func waitForMesh(ch <-chan *mesh.Model) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		model, ok := <-ch
		if !ok {
			return nil
		}
		return meshMsg{model: model}
	}
}

func (m *Model) resize(width int) {
	m.width = width
	m.input.Width = max(width-4, 10)
	if !m.markdown {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-6, 20)),
	)
	if err != nil {
		m.log.Warn("markdown renderer unavailable", zap.Error(err))
		m.renderer = nil
		return
	}
	m.renderer = r
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			m.showReasoning = false
			return m, nil
		case tea.KeyEnter:
			line := m.input.Value()
			m.input.Reset()
			return m.handleLine(line)
		}

	case submitDoneMsg:
		m.inFlight--
		m.handleResult(msg)
		return m, nil

	case meshMsg:
		if err := m.sess.Install(msg.model); err != nil {
			m.append(roleError, fmt.Sprintf("Reloaded mesh rejected: %v", err))
		} else {
			m.status = fmt.Sprintf("Mesh reloaded (generation %d)", m.sess.Generation())
		}
		return m, waitForMesh(m.models)

	case spinner.TickMsg:
		if m.inFlight == 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleLine(line string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(line) == "" {
		return m, nil
	}

	c, err := parseCommand(line)
	if err != nil {
		m.append(roleError, err.Error())
		return m, nil
	}

	switch c.kind {
	case cmdInstruction:
		return m.submit(c.text)
	case cmdPick:
		id, md, err := m.sess.Pick(c.arg)
		if err != nil {
			m.append(roleError, err.Error())
			break
		}
		m.append(roleSystem, fmt.Sprintf("Selected %s (face %s)", md.Name, id))
	case cmdClear:
		m.sess.ClearSelection()
		m.status = "Selection cleared"
	case cmdRevisions:
		m.showRevisions = !m.showRevisions
	case cmdRevision:
		rev, err := m.sess.SelectRevision(c.arg)
		if err != nil {
			m.append(roleError, err.Error())
			break
		}
		m.append(roleSystem, fmt.Sprintf("Revision %d: %s at %s %v",
			c.arg, rev.Description, rev.Timestamp.Format(timeLayout), rev.Parameters))
	case cmdHide:
		m.showReasoning = false
	case cmdHelp:
		m.append(roleSystem, helpText)
	case cmdQuit:
		return m, tea.Quit
	}
	return m, nil
}

// submit runs the instruction off the UI loop. A second instruction sent
// while one is outstanding is still dispatched so the session can reject it.
func (m Model) submit(text string) (tea.Model, tea.Cmd) {
	echoed := m.inFlight == 0
	if echoed {
		m.append(roleUser, text)
	}
	m.inFlight++
	m.status = ""

	ctx, sess := m.ctx, m.sess
	run := func() tea.Msg {
		out, err := sess.Submit(ctx, text)
		return submitDoneMsg{instruction: text, echoed: echoed, outcome: out, err: err}
	}
	if m.inFlight == 1 {
		return m, tea.Batch(m.spinner.Tick, run)
	}
	return m, run
}

func (m *Model) handleResult(msg submitDoneMsg) {
	if errors.Is(msg.err, edit.ErrBusy) {
		m.status = "Still working on the previous instruction"
		return
	}
	m.status = ""
	if !msg.echoed {
		m.append(roleUser, msg.instruction)
	}

	if msg.err != nil && !errors.Is(msg.err, session.ErrRederive) {
		m.append(roleError, msg.err.Error())
		return
	}

	m.append(roleAssistant, "Applied "+msg.outcome.Revision.Description)
	if msg.err != nil {
		m.append(roleError, msg.err.Error())
	}
	m.reasoning = msg.outcome.Reasoning
	m.showReasoning = m.reasoning != ""
}

func (m *Model) append(r role, text string) {
	m.transcript = append(m.transcript, entry{role: r, text: text})
	if over := len(m.transcript) - maxTranscript; over > 0 {
		m.transcript = m.transcript[over:]
	}
}

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.header())
	b.WriteString("\n\n")

	for _, e := range m.transcript {
		b.WriteString(renderEntry(e))
		b.WriteString("\n")
	}

	if m.showReasoning && m.reasoning != "" {
		b.WriteString(m.panel("AI Reasoning  (esc or /hide)", m.renderReasoning()))
		b.WriteString("\n")
	}
	if m.showRevisions {
		b.WriteString(m.panel("Revisions", m.revisionList()))
		b.WriteString("\n")
	}

	if m.inFlight > 0 {
		b.WriteString(m.spinner.View() + statusStyle.Render(" Thinking...  "))
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	return b.String()
}

func (m Model) header() string {
	sel := "none"
	if id, md, ok := m.sess.Selected(); ok {
		sel = fmt.Sprintf("%s (%s)", md.Name, id)
		if md.Name == "" {
			sel = "face " + id.String()
		}
	}
	return titleStyle.Render("talkcad") + statusStyle.Render(fmt.Sprintf(
		"  face: %s | generation %d | %d revisions", sel, m.sess.Generation(), m.sess.RevisionCount()))
}

func renderEntry(e entry) string {
	switch e.role {
	case roleUser:
		return userStyle.Render("you: ") + e.text
	case roleAssistant:
		return assistantStyle.Render("cad: " + e.text)
	case roleError:
		return errorStyle.Render("error: " + e.text)
	default:
		return systemStyle.Render(e.text)
	}
}

func (m Model) panel(title, body string) string {
	return panelStyle.Width(max(m.width-2, 20)).Render(panelTitleStyle.Render(title) + "\n" + body)
}

func (m Model) renderReasoning() string {
	if m.renderer == nil {
		return m.reasoning
	}
	out, err := m.renderer.Render(m.reasoning)
	if err != nil {
		return m.reasoning
	}
	return strings.TrimSpace(out)
}

func (m Model) revisionList() string {
	if m.sess.RevisionCount() == 0 {
		return systemStyle.Render("No revisions yet")
	}
	var lines []string
	i := 0
	for rev := range m.sess.Revisions() {
		lines = append(lines, fmt.Sprintf("%d. %s  %s", i, rev.Description, statusStyle.Render(rev.Timestamp.Format(timeLayout))))
		i++
	}
	return strings.Join(lines, "\n")
}
