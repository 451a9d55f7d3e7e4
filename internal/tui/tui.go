// Package tui provides a Bubble Tea viewer for the story feed.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/storyapp/internal/api"
	"github.com/fakeyudi/storyapp/internal/feed"
	"github.com/fakeyudi/storyapp/internal/output"
	"github.com/fakeyudi/storyapp/internal/session"
)

// ErrLoggedOut is returned by Run when the session ended while viewing.
var ErrLoggedOut = errors.New("logged out")

// ── Styles ────────────

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// Fetcher starts one feed load and returns its result channel.
type Fetcher func(ctx context.Context) <-chan output.Output[*api.StoryResponse]

// ── Messages ────────────

type refreshMsg struct{}

type feedMsg struct {
	gen    int
	out    output.Output[*api.StoryResponse]
	ch     <-chan output.Output[*api.StoryResponse]
	closed bool
}

type sessionMsg struct {
	s  session.Session
	ok bool
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the feed viewer.
type Model struct {
	ctx      context.Context
	fetch    Fetcher
	sessions <-chan session.Session

	stories []api.Story
	cursor  int
	detail  bool

	gen     int // bumped on every refetch; older results are ignored
	loading bool
	errMsg  string // transport failure
	notice  string // server-reported failure

	loggedOut bool

	spinner  spinner.Model
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

// New creates a viewer that loads the feed through fetch and quits when
// sessions reports a logged-out session. sessions may be nil.
func New(ctx context.Context, fetch Fetcher, sessions <-chan session.Session) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = timeStyle
	return Model{
		ctx:      ctx,
		fetch:    fetch,
		sessions: sessions,
		spinner:  sp,
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, func() tea.Msg { return refreshMsg{} }}
	if m.sessions != nil {
		cmds = append(cmds, waitSession(m.sessions))
	}
	return tea.Batch(cmds...)
}

func waitFor(gen int, ch <-chan output.Output[*api.StoryResponse]) tea.Cmd {
	return func() tea.Msg {
		o, ok := <-ch
		return feedMsg{gen: gen, out: o, ch: ch, closed: !ok}
	}
}

func waitSession(ch <-chan session.Session) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		return sessionMsg{s: s, ok: ok}
	}
}

// refetch starts a new load on a fresh channel.
func (m *Model) refetch() tea.Cmd {
	m.gen++
	m.loading = true
	m.errMsg = ""
	m.notice = ""
	return waitFor(m.gen, m.fetch(m.ctx))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			cmd := m.refetch()
			m.rebuild()
			return m, cmd
		case "up", "k":
			if !m.detail && m.cursor > 0 {
				m.cursor--
				m.rebuild()
				return m, nil
			}
		case "down", "j":
			if !m.detail && m.cursor < len(m.stories)-1 {
				m.cursor++
				m.rebuild()
				return m, nil
			}
		case "enter":
			if !m.detail && len(m.stories) > 0 {
				m.detail = true
				m.rebuild()
				m.viewport.GotoTop()
				return m, nil
			}
		case "esc", "backspace":
			if m.detail {
				m.detail = false
				m.rebuild()
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case refreshMsg:
		cmd := m.refetch()
		m.rebuild()
		return m, cmd

	case feedMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		if msg.closed {
			m.loading = false
			m.rebuild()
			return m, nil
		}
		cmd := output.Match(msg.out,
			func() tea.Cmd {
				m.loading = true
				return waitFor(msg.gen, msg.ch)
			},
			func(resp *api.StoryResponse) tea.Cmd {
				m.loading = false
				if resp.Error {
					m.notice = resp.Message
					return nil
				}
				m.stories = resp.ListStory
				if m.cursor >= len(m.stories) {
					m.cursor = max(len(m.stories)-1, 0)
				}
				if len(m.stories) == 0 {
					m.detail = false
				}
				return nil
			},
			func(message string) tea.Cmd {
				m.loading = false
				m.errMsg = message
				return nil
			},
		)
		m.rebuild()
		return m, cmd

	case sessionMsg:
		if !msg.ok {
			return m, nil
		}
		if !msg.s.IsLogin {
			m.loggedOut = true
			return m, tea.Quit
		}
		return m, waitSession(m.sessions)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// title(1) + statusBar(1) = 2 fixed rows
		vpHeight := max(m.height-2, 1)
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.rebuild()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render(fmt.Sprintf("  storyapp  stories (%d)", len(m.stories)))

	var hint string
	switch {
	case m.loading:
		hint = m.spinner.View() + " loading stories…"
	case m.errMsg != "":
		hint = errorStyle.Render("error: " + m.errMsg)
	case m.notice != "":
		hint = noticeStyle.Render(m.notice)
	case m.detail:
		hint = "esc back  ↑/↓ scroll  r refresh  q quit"
	default:
		hint = "↑/↓ select  enter open  r refresh  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint)

	return lipgloss.JoinVertical(lipgloss.Left, title, m.viewport.View(), statusBar)
}

// LoggedOut reports whether the viewer quit because the session ended.
func (m Model) LoggedOut() bool { return m.loggedOut }

// Stories returns the stories currently shown.
func (m Model) Stories() []api.Story { return m.stories }

// ── Rendering ─────────────────

func (m *Model) rebuild() {
	if !m.ready {
		return
	}
	if m.detail && m.cursor < len(m.stories) {
		m.viewport.SetContent(m.renderDetail(m.stories[m.cursor]))
		return
	}
	m.viewport.SetContent(m.renderList())
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m *Model) renderList() string {
	var sb strings.Builder
	sb.WriteString(heading("Feed"))
	if len(m.stories) == 0 {
		if m.loading {
			return sb.String()
		}
		sb.WriteString(dimStyle.Render("  (no stories yet)") + "\n")
		return sb.String()
	}
	for i, st := range m.stories {
		row := fmt.Sprintf("  %s  %s", timeStyle.Render(feed.Stamp(st.CreatedAt)), st.Name)
		if i == m.cursor {
			row = selectedRowStyle.Width(max(m.width-2, 1)).Render(row)
		}
		sb.WriteString(row + "\n")
		if st.Description != "" {
			sb.WriteString(dimStyle.Render("      "+feed.FirstLine(st.Description)) + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderDetail(st api.Story) string {
	var sb strings.Builder
	sb.WriteString(heading(st.Name))
	if st.Description != "" {
		sb.WriteString(lipgloss.NewStyle().Width(max(m.width-4, 10)).PaddingLeft(2).Render(st.Description))
		sb.WriteString("\n\n")
	}
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-10s", label)) + "  " + value + "\n")
	}
	row("ID:", st.ID)
	row("Posted:", feed.Stamp(st.CreatedAt))
	row("Photo:", st.PhotoURL)
	if loc := feed.Location(st); loc != "" {
		row("Location:", loc)
	}
	return sb.String()
}

// Run starts the viewer and blocks until it quits. It returns ErrLoggedOut
// when the session ended elsewhere.
func Run(ctx context.Context, fetch Fetcher, sessions <-chan session.Session) error {
	p := tea.NewProgram(New(ctx, fetch, sessions), tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	if m, ok := final.(Model); ok && m.LoggedOut() {
		return ErrLoggedOut
	}
	return nil
}
