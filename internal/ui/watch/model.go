package watch

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/domain/pomodoro"
)

const (
	volumeStep    = 0.1
	actionTimeout = 5 * time.Second
)

type notificationMsg struct {
	n *pomotunev1.Notification
}

type streamClosedMsg struct {
	err error
}

type actionDoneMsg struct {
	name string
	err  error
}

// Model is the dashboard state.
type Model struct {
	ctx      context.Context
	ctrl     Controller
	notifs   <-chan *pomotunev1.Notification
	errc     <-chan error
	timer    *pomotunev1.TimerState
	player   *pomotunev1.PlayerState
	session  *pomotunev1.SessionInfo
	status   string
	err      error
	closed   bool
	quitting bool
	width    int
}

// NewModel creates a dashboard fed by notifs. errc delivers the stream error
// after notifs is closed.
func NewModel(ctx context.Context, ctrl Controller, notifs <-chan *pomotunev1.Notification, errc <-chan error) *Model {
	return &Model{
		ctx:    ctx,
		ctrl:   ctrl,
		notifs: notifs,
		errc:   errc,
		status: "connecting...",
	}
}

// Init starts listening for notifications.
func (m *Model) Init() tea.Cmd {
	return m.waitForNotification()
}

func (m *Model) waitForNotification() tea.Cmd {
	return func() tea.Msg {
		n, ok := <-m.notifs
		if !ok {
			var err error
			if m.errc != nil {
				err = <-m.errc
			}
			return streamClosedMsg{err: err}
		}
		return notificationMsg{n: n}
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case notificationMsg:
		m.apply(msg.n)
		return m, m.waitForNotification()

	case streamClosedMsg:
		m.closed = true
		m.err = msg.err
		m.status = "disconnected"
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = msg.name + " failed"
		} else {
			m.err = nil
			m.status = msg.name
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ":
		if m.timer != nil && m.timer.IsActive {
			return m, m.do("pause", m.ctrl.PauseTimer)
		}
		return m, m.do("start", m.ctrl.StartTimer)
	case "r":
		return m, m.do("reset", m.ctrl.ResetTimer)
	case "s":
		return m, m.do("skip", m.ctrl.SkipTimer)
	case "1", "2", "3":
		mode := pomodoro.Modes[msg.String()[0]-'1']
		return m, m.do("mode "+mode.String(), func(ctx context.Context) error {
			return m.ctrl.SwitchMode(ctx, mode.String())
		})
	case "t":
		return m, m.do("toggle play", m.ctrl.TogglePlay)
	case "n":
		return m, m.do("next", m.ctrl.Next)
	case "p":
		return m, m.do("previous", m.ctrl.Previous)
	case "+", "=":
		return m, m.setVolume(volumeStep)
	case "-":
		return m, m.setVolume(-volumeStep)
	case "d":
		return m, m.do("dismiss", m.ctrl.DismissError)
	case "v":
		visible := m.session == nil || !m.session.HostVisible
		return m, m.do(fmt.Sprintf("visible=%t", visible), func(ctx context.Context) error {
			return m.ctrl.ReportVisibility(ctx, visible)
		})
	}
	return m, nil
}

func (m *Model) setVolume(delta float64) tea.Cmd {
	if m.player == nil {
		return nil
	}
	v := math.Round((m.player.Volume+delta)*10) / 10
	return m.do(fmt.Sprintf("volume %.0f%%", v*100), func(ctx context.Context) error {
		return m.ctrl.SetVolume(ctx, v)
	})
}

func (m *Model) do(name string, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, actionTimeout)
		defer cancel()
		return actionDoneMsg{name: name, err: fn(ctx)}
	}
}

// apply merges the parts a notification carries.
func (m *Model) apply(n *pomotunev1.Notification) {
	if n.Timer != nil {
		m.timer = n.Timer
	}
	if n.Player != nil {
		m.player = n.Player
	}
	if n.Session != nil {
		m.session = n.Session
	}
	switch n.Type {
	case pomotunev1.NotificationTypeInitialState:
		m.status = "connected"
	case pomotunev1.NotificationTypeSessionCompleted:
		m.status = fmt.Sprintf("%s complete", pomodoro.Mode(n.PreviousMode).Label())
	}
}

// View renders the dashboard.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	if m.timer == nil {
		b.WriteString(styles.dim.Render(m.status))
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(styles.err.Render(m.err.Error()))
			b.WriteString("\n")
		}
		return b.String()
	}

	accent := styles.mode(m.timer.Mode)
	mode := pomodoro.Mode(m.timer.Mode)
	state := "paused"
	if m.timer.IsActive {
		state = "running"
	}
	b.WriteString(accent.Render(mode.Label()))
	b.WriteString("  ")
	b.WriteString(styles.dim.Render(state))
	b.WriteString("\n\n")
	b.WriteString(accent.Render(m.timer.Clock))
	b.WriteString("\n")
	b.WriteString(sessionDots(int(m.timer.CompletedSessions), int(m.timer.SessionsBeforeLongBreak)))
	b.WriteString("\n\n")

	b.WriteString(m.renderPlayer())

	if m.session != nil && !m.session.HostVisible {
		b.WriteString(styles.dim.Render("host hidden"))
		b.WriteString("\n")
	}

	frame := styles.frame.BorderForeground(accent.GetForeground())
	out := frame.Render(strings.TrimRight(b.String(), "\n")) + "\n"

	if m.err != nil {
		out += styles.err.Render(m.err.Error()) + "\n"
	} else if m.status != "" {
		out += styles.dim.Render(m.status) + "\n"
	}
	out += styles.help.Render("space start/pause · r reset · s skip · 1/2/3 mode · t play · n/p track · +/- volume · v visible · q quit")
	return out + "\n"
}

func (m *Model) renderPlayer() string {
	if m.player == nil {
		return ""
	}
	var b strings.Builder

	icon := "⏸"
	if m.player.IsPlaying {
		icon = "▶"
	}
	switch {
	case m.player.Loading:
		b.WriteString(styles.dim.Render("loading songs..."))
	case m.player.CurrentTrack == nil:
		b.WriteString(styles.dim.Render("no songs"))
	default:
		t := m.player.CurrentTrack
		title := t.Title
		if t.Artist != "" {
			title += " - " + t.Artist
		}
		fmt.Fprintf(&b, "%s %s", icon, title)
		fmt.Fprintf(&b, "  %s", styles.dim.Render(fmt.Sprintf("%d/%d", m.player.CurrentIndex+1, m.player.TrackCount)))
	}
	fmt.Fprintf(&b, "  vol %.0f%%\n", m.player.Volume*100)

	if m.player.Error != "" {
		b.WriteString(styles.err.Render(m.player.Error))
		b.WriteString(styles.dim.Render("  (d to dismiss)"))
		b.WriteString("\n")
	}
	return b.String()
}

// sessionDots renders progress towards the next long break.
func sessionDots(completed, perCycle int) string {
	if perCycle <= 0 {
		perCycle = pomodoro.DefaultSessionsBeforeLongBreak
	}
	done := completed % perCycle
	return strings.Repeat("●", done) + strings.Repeat("○", perCycle-done) +
		styles.dim.Render(fmt.Sprintf("  %d done", completed))
}
