package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/routine/internal/core"
	"github.com/valter-silva-au/routine/pkg/models"
)

// Add form fields, in tab order.
const (
	fieldTitle = iota
	fieldTime
	fieldPriority
	fieldCount
)

const clockInterval = time.Second

type widgetModel struct {
	store   core.TaskStore
	monitor *core.ReminderMonitor
	clock   core.Clock
	changes <-chan core.Change

	scanInterval time.Duration
	now          time.Time
	width        int

	tasks  []models.Task // display order: pending then completed
	cursor int

	adding   bool
	focus    int
	title    textinput.Model
	due      textinput.Model
	priority models.Priority
}

// clockTickMsg re-renders the clock and expires stale notifications.
type clockTickMsg time.Time

// scanTickMsg triggers the recurring reminder scan.
type scanTickMsg time.Time

// scanDoneMsg reports the tasks a scan fired.
type scanDoneMsg struct{ fired []models.Task }

// storeChangedMsg carries one Task Store change notification.
type storeChangedMsg core.Change

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	dateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activePanelStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)

	notificationStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("230")).
				Background(lipgloss.Color("166")).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	priorityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	priorityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	priorityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Strikethrough(true)
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newWidgetModel(store core.TaskStore, monitor *core.ReminderMonitor, clock core.Clock, changes <-chan core.Change, scanInterval time.Duration) widgetModel {
	if clock == nil {
		clock = core.SystemClock{}
	}
	if scanInterval <= 0 {
		scanInterval = core.DefaultScanInterval
	}

	title := textinput.New()
	title.Placeholder = "What needs doing?"
	title.CharLimit = 256
	title.Prompt = ""

	due := textinput.New()
	due.Placeholder = "HH:MM"
	due.CharLimit = 5
	due.Prompt = ""

	m := widgetModel{
		store:        store,
		monitor:      monitor,
		clock:        clock,
		changes:      changes,
		scanInterval: scanInterval,
		now:          clock.Now(),
		title:        title,
		due:          due,
		priority:     models.PriorityMedium,
	}
	m.refresh()
	return m
}

func (m widgetModel) Init() tea.Cmd {
	return tea.Batch(
		clockTick(),
		m.runScan(),
		m.scanTick(),
		m.waitForChange(),
	)
}

func clockTick() tea.Cmd {
	return tea.Tick(clockInterval, func(t time.Time) tea.Msg { return clockTickMsg(t) })
}

func (m widgetModel) scanTick() tea.Cmd {
	return tea.Tick(m.scanInterval, func(t time.Time) tea.Msg { return scanTickMsg(t) })
}

func (m widgetModel) runScan() tea.Cmd {
	monitor := m.monitor
	if monitor == nil {
		return nil
	}
	return func() tea.Msg {
		return scanDoneMsg{fired: monitor.ScanNow()}
	}
}

func (m widgetModel) waitForChange() tea.Cmd {
	changes := m.changes
	if changes == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-changes
		if !ok {
			return nil
		}
		return storeChangedMsg(c)
	}
}

func (m widgetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case clockTickMsg:
		m.now = m.clock.Now()
		if m.monitor != nil {
			m.monitor.Queue().Expire(time.Time(msg))
		}
		return m, clockTick()

	case scanTickMsg:
		return m, tea.Batch(m.runScan(), m.scanTick())

	case scanDoneMsg:
		m.refresh()
		return m, nil

	case storeChangedMsg:
		m.refresh()
		cmds := []tea.Cmd{m.waitForChange()}
		// A new or re-opened task may already be due.
		if msg.Kind == core.ChangeAdded || msg.Kind == core.ChangeToggled {
			cmds = append(cmds, m.runScan())
		}
		return m, tea.Batch(cmds...)

	case tea.KeyMsg:
		if m.adding {
			return m.updateAddMode(msg)
		}
		return m.updateListMode(msg)
	}

	return m, nil
}

func (m widgetModel) updateListMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "a":
		m.adding = true
		m.setFocus(fieldTitle)
		return m, textinput.Blink
	case " ", "x":
		if task, ok := m.selected(); ok {
			m.store.ToggleCompletion(task.ID)
			m.refresh()
			m.follow(task.ID)
		}
	case "d":
		if task, ok := m.selected(); ok {
			m.store.Delete(task.ID)
			m.refresh()
		}
	case "s":
		if m.monitor != nil {
			m.monitor.SetSoundEnabled(!m.monitor.SoundEnabled())
		}
	}
	return m, nil
}

func (m widgetModel) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.closeForm()
		return m, nil
	case "tab", "down":
		m.setFocus((m.focus + 1) % fieldCount)
		return m, nil
	case "shift+tab", "up":
		m.setFocus((m.focus + fieldCount - 1) % fieldCount)
		return m, nil
	case "ctrl+p":
		m.priority = m.priority.Next()
		return m, nil
	case "enter":
		// An invalid entry leaves the form open without comment.
		task, ok := m.store.Add(m.title.Value(), m.due.Value(), m.priority)
		if !ok {
			return m, nil
		}
		m.closeForm()
		m.refresh()
		m.follow(task.ID)
		return m, nil
	}

	if m.focus == fieldPriority {
		switch msg.String() {
		case "left", "h":
			m.priority = m.priority.Prev()
		case "right", "l", " ":
			m.priority = m.priority.Next()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == fieldTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.due, cmd = m.due.Update(msg)
	}
	return m, cmd
}

func (m *widgetModel) setFocus(field int) {
	m.focus = field
	m.title.Blur()
	m.due.Blur()
	switch field {
	case fieldTitle:
		m.title.Focus()
	case fieldTime:
		m.due.Focus()
	}
}

// closeForm hides the add form and resets it, priority back to medium.
func (m *widgetModel) closeForm() {
	m.adding = false
	m.title.SetValue("")
	m.due.SetValue("")
	m.title.Blur()
	m.due.Blur()
	m.focus = fieldTitle
	m.priority = models.PriorityMedium
}

// refresh re-reads the store into display order and clamps the cursor.
func (m *widgetModel) refresh() {
	if m.store == nil {
		return
	}
	pending, completed := core.PartitionTasks(m.store.Tasks())
	m.tasks = append(pending, completed...)
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// follow moves the cursor onto the task with the given ID, if shown.
func (m *widgetModel) follow(id string) {
	for i, t := range m.tasks {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m widgetModel) selected() (models.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return models.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m widgetModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(" Routine "))
	b.WriteString("\n\n")
	b.WriteString(clockStyle.Render(m.now.Format("15:04:05")))
	b.WriteString("  ")
	b.WriteString(dateStyle.Render(m.now.Format("Monday, January 02, 2006")))
	b.WriteString("\n")

	if m.monitor != nil {
		for _, n := range m.monitor.Queue().Active() {
			b.WriteString("\n")
			b.WriteString(notificationStyle.Render(n.Message))
		}
		b.WriteString("\n")
	}

	if m.adding {
		b.WriteString("\n")
		b.WriteString(m.panel(true).Render(m.renderForm()))
		b.WriteString("\n")
	}

	pending, completed := core.PartitionTasks(m.tasks)
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("Pending (%d)", len(pending))))
	b.WriteString("\n")
	if len(pending) == 0 {
		b.WriteString(mutedStyle.Render("  Nothing pending."))
		b.WriteString("\n")
	}
	for i, t := range pending {
		b.WriteString(m.renderTask(t, i == m.cursor))
		b.WriteString("\n")
	}

	if len(completed) > 0 {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("Completed (%d)", len(completed))))
		b.WriteString("\n")
		for i, t := range completed {
			b.WriteString(m.renderTask(t, len(pending)+i == m.cursor))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderSound())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help()))
	return b.String()
}

func (m widgetModel) panel(active bool) lipgloss.Style {
	style := panelStyle
	if active {
		style = activePanelStyle
	}
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style
}

func (m widgetModel) renderForm() string {
	label := func(field int, text string) string {
		if m.focus == field {
			return cursorStyle.Render(text)
		}
		return text
	}

	prio := styleForPriority(m.priority).Render(strings.ToUpper(string(m.priority)))
	if m.focus == fieldPriority {
		prio = "< " + prio + " >"
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("New task"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s\n", label(fieldTitle, "Title:   "), m.title.View()))
	b.WriteString(fmt.Sprintf("%s %s\n", label(fieldTime, "Time:    "), m.due.View()))
	b.WriteString(fmt.Sprintf("%s %s", label(fieldPriority, "Priority:"), prio))
	return b.String()
}

func (m widgetModel) renderTask(t models.Task, selected bool) string {
	pointer := "  "
	if selected {
		pointer = cursorStyle.Render("> ")
	}

	check := "[ ]"
	title := t.Title
	if t.Completed {
		check = "[x]"
		title = completedStyle.Render(title)
	}

	badge := styleForPriority(t.Priority).Render(fmt.Sprintf("%-6s", strings.ToUpper(string(t.Priority))))
	line := fmt.Sprintf("%s%s %s %s  %s", pointer, check, t.Time, badge, title)
	if t.ReminderSent && !t.Completed {
		line += mutedStyle.Render("  (reminded)")
	}
	return line
}

func (m widgetModel) renderSound() string {
	if m.monitor == nil {
		return ""
	}
	state := "off"
	if m.monitor.SoundEnabled() {
		state = "on"
	}
	return mutedStyle.Render("Sound notifications: " + state)
}

func (m widgetModel) help() string {
	if m.adding {
		return "tab: next field | ←/→: priority (on priority) | ctrl+p: cycle priority | enter: add | esc: cancel"
	}
	return "a: add | space/x: toggle | d: delete | s: sound | ↑/↓: move | q: quit"
}

func styleForPriority(p models.Priority) lipgloss.Style {
	switch p {
	case models.PriorityHigh:
		return priorityHigh
	case models.PriorityMedium:
		return priorityMedium
	case models.PriorityLow:
		return priorityLow
	default:
		return lipgloss.NewStyle()
	}
}

// runWidget opens the interactive widget until the user quits.
func runWidget() error {
	if Store == nil || Monitor == nil {
		return fmt.Errorf("task store not initialized")
	}

	changes, unsubscribe := Store.Subscribe()
	defer unsubscribe()

	interval := core.DefaultScanInterval
	if Config != nil {
		interval = Config.Reminders.ScanInterval
	}

	p := tea.NewProgram(newWidgetModel(Store, Monitor, nil, changes, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive reminder widget",
	Long: `Open the interactive reminder widget: a live clock, the pending and
completed task lists, an add form, and on-screen reminders.

The widget scans for due tasks when it opens and every scan interval
(30s by default) after that. Running routine with no subcommand does the same.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWidget()
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
