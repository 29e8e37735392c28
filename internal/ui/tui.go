// Package ui provides the terminal dashboard.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/taskdeck/taskdeck/internal/api"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/session"
	"github.com/taskdeck/taskdeck/internal/store"
)

// toastDuration matches the original dashboard's auto-dismiss delay.
const toastDuration = 3 * time.Second

// Notices is a channel-backed api.Notifier feeding the toast line. Store and
// transport notifications arrive from command goroutines, so they flow into
// the model as messages rather than direct mutations.
type Notices chan notice

type notice struct {
	message string
	isError bool
}

// NewNotices creates a notice channel.
func NewNotices() Notices {
	return make(Notices, 16)
}

// Notify implements api.Notifier. A full channel drops the notice; losing a
// toast beats blocking a request goroutine.
func (n Notices) Notify(message string, isError bool) {
	select {
	case n <- notice{message: message, isError: isError}:
	default:
	}
}

// Run starts the dashboard. The session manager should already have been
// given its restore chance; the model starts on the dashboard when a session
// is active and on the login form otherwise.
func Run(ctx context.Context, cfg *config.Config, sessions *session.Manager, tasks *store.Store, notices Notices, log zerolog.Logger) error {
	if !isTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newModel(cfg, sessions, tasks, notices, log)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type viewState int

const (
	viewLogin viewState = iota
	viewDashboard
)

type model struct {
	cfg      *config.Config
	sessions *session.Manager
	tasks    *store.Store
	notices  Notices
	log      zerolog.Logger

	state viewState

	// Login form
	email      textinput.Model
	password   textinput.Model
	focus      int
	loggingIn  bool
	loginError string

	// Dashboard
	taskInput  textinput.Model
	adding     bool
	cursor     int
	confirming bool
	loading    bool
	busy       bool
	spin       spinner.Model

	// Snapshot of the store, refreshed on completion messages. The store is
	// only touched inside command goroutines and in the Update handlers of
	// their completion messages, never from View.
	list    []api.Task
	stats   store.Stats
	loadErr error

	toast    string
	toastErr bool
	toastSeq int
}

// Messages produced by command goroutines.
type (
	noticeMsg      notice
	loginResultMsg struct{ err error }
	loadDoneMsg    struct{}
	createDoneMsg  struct{ err error }
	toggleDoneMsg  struct{ err error }
	deleteDoneMsg  struct{ err error }
	toastExpireMsg struct{ seq int }
)

func newModel(cfg *config.Config, sessions *session.Manager, tasks *store.Store, notices Notices, log zerolog.Logger) *model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	taskInput := textinput.New()
	taskInput.Placeholder = "What needs doing?"
	taskInput.CharLimit = 200

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	m := &model{
		cfg:       cfg,
		sessions:  sessions,
		tasks:     tasks,
		notices:   notices,
		log:       log,
		email:     email,
		password:  password,
		taskInput: taskInput,
		spin:      spin,
	}
	if sessions.Current() != nil {
		m.state = viewDashboard
	}
	return m
}

func (m *model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, waitForNotice(m.notices)}
	if m.state == viewDashboard {
		cmds = append(cmds, m.startLoad())
	}
	return tea.Batch(cmds...)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.state == viewLogin {
			return m.updateLogin(msg)
		}
		return m.updateDashboard(msg)

	case noticeMsg:
		m.showToast(msg.message, msg.isError)
		return m, tea.Batch(waitForNotice(m.notices), m.expireToast())

	case toastExpireMsg:
		if msg.seq == m.toastSeq {
			m.toast = ""
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.loading || m.loggingIn || m.busy {
			return m, cmd
		}
		return m, nil

	case loginResultMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginError = msg.err.Error()
			return m, nil
		}
		sess := m.sessions.Current()
		m.state = viewDashboard
		m.loginError = ""
		m.password.SetValue("")
		m.showToast("Welcome, "+sess.Email+"!", false)
		return m, tea.Batch(m.startLoad(), m.expireToast())

	case loadDoneMsg:
		m.loading = false
		m.refreshData()
		return m, nil

	case createDoneMsg:
		m.busy = false
		m.refreshData()
		if msg.err == nil {
			// Input is cleared only on success.
			m.taskInput.SetValue("")
			m.adding = false
			m.taskInput.Blur()
		}
		return m, nil

	case toggleDoneMsg, deleteDoneMsg:
		m.busy = false
		m.refreshData()
		return m, nil
	}

	return m, m.updateInputs(msg)
}

func (m *model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "up", "down":
		m.focus = (m.focus + 1) % 2
		if m.focus == 0 {
			m.password.Blur()
			return m, m.email.Focus()
		}
		m.email.Blur()
		return m, m.password.Focus()

	case "enter":
		if m.loggingIn {
			// Submit is ignored while a login request is in flight.
			return m, nil
		}
		if m.focus == 0 {
			m.focus = 1
			m.email.Blur()
			return m, m.password.Focus()
		}
		email := strings.TrimSpace(m.email.Value())
		password := m.password.Value()
		if email == "" || password == "" {
			m.loginError = "email and password are required"
			return m, nil
		}
		m.loggingIn = true
		m.loginError = ""
		return m, tea.Batch(m.spin.Tick, m.startLogin(email, password))

	case "esc", "q":
		if m.email.Value() == "" && m.password.Value() == "" {
			return m, tea.Quit
		}
	}

	return m, m.updateInputs(msg)
}

func (m *model) updateDashboard(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirming {
		switch msg.String() {
		case "y", "Y":
			m.confirming = false
			if task := m.selected(); task != nil {
				m.busy = true
				return m, tea.Batch(m.spin.Tick, m.startDelete(task))
			}
			return m, nil
		default:
			m.confirming = false
			return m, nil
		}
	}

	if m.adding {
		switch msg.String() {
		case "enter":
			title := strings.TrimSpace(m.taskInput.Value())
			if title == "" || m.busy {
				return m, nil
			}
			m.busy = true
			return m, tea.Batch(m.spin.Tick, m.startCreate(title))
		case "esc":
			m.adding = false
			m.taskInput.Blur()
			return m, nil
		}
		return m, m.updateInputs(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.list)-1 {
			m.cursor++
		}
	case "n", "a":
		m.adding = true
		return m, m.taskInput.Focus()
	case " ", "enter", "t":
		if task := m.selected(); task != nil && !m.busy {
			m.busy = true
			return m, tea.Batch(m.spin.Tick, m.startToggle(task))
		}
	case "d", "x":
		if m.selected() != nil && !m.busy {
			m.confirming = true
		}
	case "r":
		if !m.loading {
			return m, m.startLoad()
		}
	case "L":
		m.sessions.Logout()
		m.tasks.Clear()
		m.refreshData()
		m.state = viewLogin
		m.focus = 0
		m.password.SetValue("")
		m.showToast("Signed out", false)
		return m, tea.Batch(m.email.Focus(), m.expireToast())
	}

	return m, nil
}

func (m *model) updateInputs(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.email, cmd = m.email.Update(msg)
	cmds = append(cmds, cmd)
	m.password, cmd = m.password.Update(msg)
	cmds = append(cmds, cmd)
	m.taskInput, cmd = m.taskInput.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

// Commands. Each runs one request chain in a goroutine and reports back with
// a completion message; the model keeps at most one mutation in flight.

func (m *model) startLogin(email, password string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.sessions.Login(context.Background(), email, password)
		return loginResultMsg{err: err}
	}
}

func (m *model) startLoad() tea.Cmd {
	m.loading = true
	load := func() tea.Msg {
		m.tasks.Load(context.Background())
		return loadDoneMsg{}
	}
	return tea.Batch(m.spin.Tick, load)
}

func (m *model) startCreate(title string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.tasks.Create(context.Background(), title, m.cfg.DefaultDescription)
		return createDoneMsg{err: err}
	}
}

func (m *model) startToggle(task *api.Task) tea.Cmd {
	id := task.ID
	return func() tea.Msg {
		return toggleDoneMsg{err: m.tasks.Toggle(context.Background(), id)}
	}
}

func (m *model) startDelete(task *api.Task) tea.Cmd {
	id := task.ID
	return func() tea.Msg {
		// Confirmation already happened in the view.
		return deleteDoneMsg{err: m.tasks.Delete(context.Background(), id, nil)}
	}
}

func waitForNotice(ch Notices) tea.Cmd {
	return func() tea.Msg {
		return noticeMsg(<-ch)
	}
}

// refreshData snapshots the store into the model for rendering.
func (m *model) refreshData() {
	m.list = m.tasks.Tasks()
	m.stats = m.tasks.Stats()
	m.loadErr = m.tasks.Err()
	if m.cursor >= len(m.list) {
		m.cursor = len(m.list) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) selected() *api.Task {
	if m.cursor < 0 || m.cursor >= len(m.list) {
		return nil
	}
	return &m.list[m.cursor]
}

func (m *model) showToast(message string, isError bool) {
	m.toast = message
	m.toastErr = isError
	m.toastSeq++
}

func (m *model) expireToast() tea.Cmd {
	seq := m.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpireMsg{seq: seq}
	})
}

func (m *model) View() string {
	if m.state == viewLogin {
		return m.loginView()
	}
	return m.dashboardView()
}

func (m *model) loginView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TaskDeck") + "\n")
	b.WriteString(headerStyle.Render("Sign in to your todo service") + "\n\n")
	b.WriteString("  " + m.email.View() + "\n")
	b.WriteString("  " + m.password.View() + "\n\n")

	if m.loggingIn {
		b.WriteString("  " + m.spin.View() + " Signing in...\n")
	} else if m.loginError != "" {
		b.WriteString("  " + errStyle.Render(m.loginError) + "\n")
	}

	m.writeToast(&b)
	b.WriteString("\n" + helpStyle.Render("tab switch field | enter submit | ctrl+c quit"))
	return b.String()
}

func (m *model) dashboardView() string {
	var b strings.Builder
	sess := m.sessions.Current()

	b.WriteString(titleStyle.Render("TaskDeck"))
	if sess != nil {
		b.WriteString(headerStyle.Render("  "+sess.Email) + "\n\n")
	} else {
		b.WriteString("\n\n")
	}

	b.WriteString(statsStyle.Render(fmt.Sprintf("Total: %d  Completed: %d  Pending: %d",
		m.stats.Total, m.stats.Completed, m.stats.Pending)) + "\n\n")

	if m.adding {
		b.WriteString("  " + m.taskInput.View() + "\n\n")
	}

	switch {
	case m.loading:
		b.WriteString("  " + m.spin.View() + " Loading tasks...\n")
	case m.loadErr != nil:
		b.WriteString("  " + errStyle.Render("Failed to load tasks") + "\n")
	case len(m.list) == 0:
		b.WriteString("  " + placeholderStyle.Render("No tasks yet. Add one!") + "\n")
	default:
		for i, task := range m.list {
			b.WriteString(m.renderTask(i, task))
		}
	}
	b.WriteString("\n")

	if m.confirming {
		if task := m.selected(); task != nil {
			b.WriteString(confirmStyle.Render(fmt.Sprintf("Delete %q? (y/N)", displayTitle(task))) + "\n")
		}
	}

	m.writeToast(&b)
	b.WriteString("\n" + helpStyle.Render("n new | space toggle | d delete | r reload | L logout | q quit"))
	return b.String()
}

func (m *model) renderTask(i int, task api.Task) string {
	check := "[ ]"
	if task.Completed {
		check = "[x]"
	}
	line := fmt.Sprintf("%s %s", check, displayTitle(&task))
	if task.Completed {
		line = doneStyle.Render(line)
	}
	if i == m.cursor {
		return cursorStyle.Render("> ") + line + "\n"
	}
	return "  " + line + "\n"
}

func (m *model) writeToast(b *strings.Builder) {
	if m.toast == "" {
		return
	}
	style := toastStyle
	if m.toastErr {
		style = toastErrStyle
	}
	b.WriteString("\n" + style.Render(m.toast) + "\n")
}

func displayTitle(task *api.Task) string {
	if strings.TrimSpace(task.Title) == "" {
		return "Untitled"
	}
	return task.Title
}

// isTTY returns true if the writer is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
