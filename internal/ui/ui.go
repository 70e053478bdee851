package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/opskit/internal/formatter"
	"github.com/desertthunder/opskit/internal/models"
	"github.com/desertthunder/opskit/internal/session"
	"github.com/desertthunder/opskit/internal/shared"
	"github.com/desertthunder/opskit/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ClientView ViewState = iota
	SiteView
	BuildingView
	LevelView
	ConfirmView
	AuditView
	ResultView
)

// maxWarnings caps the skipped-entry lines shown on the result screen.
const maxWarnings = 5

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	session      *session.Session
	engine       tasks.Auditor
	recordings   []*models.Recording
	width        int
	height       int
	list         list.Model
	hasList      bool
	crumbs       [3]string // client, site and building names
	option       string
	scope        tasks.Scope
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.AuditResult
	run          *models.AuditRun
	notice       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model comparing recs against the levels chosen through sess.
func NewModel(ctx context.Context, sess *session.Session, engine tasks.Auditor, recs []*models.Recording) *Model {
	return &Model{
		ctx:        ctx,
		view:       ClientView,
		session:    sess,
		engine:     engine,
		recordings: recs,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init initializes the TUI by fetching the client list.
func (m *Model) Init() tea.Cmd {
	return m.fetchClients()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.hasList {
			m.list.SetSize(m.listSize())
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ClientView, SiteView, BuildingView, LevelView:
			return m.handleListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case AuditView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateList(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case ClientView, SiteView, BuildingView, LevelView:
		return m.renderList()
	case ConfirmView:
		return m.renderConfirm()
	case AuditView:
		return m.renderAudit()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgOptionsFetched:
		data := msg.data.(optionsFetched)
		if data.err != nil {
			if data.view == ClientView {
				m.err = data.err
				return m, nil
			}
			m.notice = data.err.Error()
			return m, nil
		}
		if len(data.items) == 0 {
			if data.view == ClientView {
				m.err = fmt.Errorf("%w: %s", shared.ErrNotFound, shared.MsgNoClients)
				return m, nil
			}
			m.notice = emptyMessage(data.view)
			return m, nil
		}
		m.notice = ""
		m.setList(data.view, data.title, data.items)
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, waitForProgress(m.progressChan, m.done)

	case MsgAuditComplete:
		data := msg.data.(auditComplete)
		m.result = data.result
		m.err = data.err
		m.run = nil
		m.notice = ""
		m.view = ResultView
		m.progressChan, m.done = nil, nil
		return m, nil

	case MsgRunRecorded:
		data := msg.data.(runRecorded)
		if data.err != nil {
			m.notice = data.err.Error()
			return m, nil
		}
		m.run = data.run
		m.notice = fmt.Sprintf("Saved run #%d (%s)", data.run.Sequence(), data.run.ID())
		return m, nil
	}
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		return m.updateList(msg)
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		if m.list.FilterState() == list.FilterApplied {
			return m.updateList(msg)
		}
		return m.back()
	case key.Matches(msg, m.keys.enter):
		return m.choose()
	}
	return m.updateList(msg)
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		return m.back()
	case key.Matches(msg, m.keys.yes):
		m.view = AuditView
		m.progress = tasks.ProgressUpdate{}
		return m, m.startAudit()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		return m.back()
	case key.Matches(msg, m.keys.save):
		if m.err != nil || m.result == nil || m.run != nil {
			return m, nil
		}
		return m, m.recordRun(m.result)
	case key.Matches(msg, m.keys.restart):
		m.reset()
		m.crumbs = [3]string{}
		m.session.Refresh()
		return m, m.fetchClients()
	}
	return m, nil
}

// choose acts on the highlighted item of the current list.
func (m *Model) choose() (tea.Model, tea.Cmd) {
	selected := m.list.SelectedItem()
	if selected == nil {
		return m, nil
	}

	switch m.view {
	case ClientView:
		if item, ok := selected.(nodeItem); ok {
			m.crumbs = [3]string{item.node.NodeName()}
			return m, m.selectClient(item.node)
		}
	case SiteView:
		if item, ok := selected.(nodeItem); ok {
			m.crumbs[1], m.crumbs[2] = item.node.NodeName(), ""
			return m, m.selectSite(item.node)
		}
	case BuildingView:
		if item, ok := selected.(nodeItem); ok {
			m.crumbs[2] = item.node.NodeName()
			return m, m.selectBuilding(item.node)
		}
	case LevelView:
		if item, ok := selected.(levelItem); ok {
			scope, err := m.session.ListScope(item.option)
			if err != nil {
				m.notice = err.Error()
				return m, nil
			}
			m.option, m.scope = item.option, scope
			m.notice = ""
			m.view = ConfirmView
		}
	}
	return m, nil
}

// back moves one step up the drill-down using the session's cached options.
func (m *Model) back() (tea.Model, tea.Cmd) {
	m.notice = ""
	switch m.view {
	case SiteView:
		m.crumbs = [3]string{}
		return m, m.fetchClients()
	case BuildingView:
		m.crumbs[1], m.crumbs[2] = "", ""
		m.setList(SiteView, m.sitesTitle(), nodeItems(m.session.Sites()))
	case LevelView:
		m.crumbs[2] = ""
		m.setList(BuildingView, m.buildingsTitle(), nodeItems(m.session.Buildings()))
	case ConfirmView, ResultView:
		m.reset()
		m.setList(LevelView, m.levelsTitle(), levelItems(m.session.Levels()))
	}
	return m, nil
}

func (m *Model) reset() {
	m.result, m.run, m.err = nil, nil, nil
	m.option, m.scope = "", tasks.Scope{}
	m.notice = ""
}

func (m *Model) setList(view ViewState, title string, items []list.Item) {
	m.list = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.list.Title = title
	m.list.SetShowHelp(false)
	m.list.SetSize(m.listSize())
	m.hasList = true
	m.view = view
}

func (m *Model) listSize() (int, int) {
	return max(m.width-4, 0), max(m.height-8, 0)
}

func (m *Model) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if !m.hasList {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.view {
	case ClientView, SiteView, BuildingView, LevelView:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) sitesTitle() string     { return fmt.Sprintf("Sites of '%s'", m.crumbs[0]) }
func (m *Model) buildingsTitle() string { return fmt.Sprintf("Buildings at '%s'", m.crumbs[1]) }
func (m *Model) levelsTitle() string    { return fmt.Sprintf("Levels in '%s'", m.crumbs[2]) }

func emptyMessage(view ViewState) string {
	switch view {
	case SiteView:
		return shared.MsgNoSites
	case BuildingView:
		return shared.MsgNoBuildings
	case LevelView:
		return shared.MsgNoLevels
	default:
		return shared.MsgNoClients
	}
}

func (m *Model) fetchClients() tea.Cmd {
	return func() tea.Msg {
		clients, err := m.session.Clients(m.ctx)
		return optionsFetchedMsg(ClientView, "Clients", nodeItems(clients), err)
	}
}

func (m *Model) selectClient(client models.Node) tea.Cmd {
	title := m.sitesTitle()
	return func() tea.Msg {
		sites, err := m.session.SelectClient(m.ctx, client.NodeID())
		return optionsFetchedMsg(SiteView, title, nodeItems(sites), err)
	}
}

func (m *Model) selectSite(site models.Node) tea.Cmd {
	title := m.buildingsTitle()
	return func() tea.Msg {
		buildings, err := m.session.SelectSite(m.ctx, site.NodeID())
		return optionsFetchedMsg(BuildingView, title, nodeItems(buildings), err)
	}
}

func (m *Model) selectBuilding(building models.Node) tea.Cmd {
	title := m.levelsTitle()
	return func() tea.Msg {
		levels, err := m.session.SelectBuilding(m.ctx, building.NodeID())
		return optionsFetchedMsg(LevelView, title, levelItems(levels), err)
	}
}

func (m *Model) startAudit() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	engine, scope, recs := m.engine, m.scope, m.recordings

	go func() {
		result, err := engine.Unheard(m.ctx, progress, scope, recs)
		close(progress)
		done <- auditCompleteMsg(result, err)
	}()

	m.progressChan, m.done = progress, done
	return waitForProgress(progress, done)
}

func waitForProgress(progress <-chan tasks.ProgressUpdate, done <-chan Msg) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) recordRun(result *tasks.AuditResult) tea.Cmd {
	engine := m.engine
	return func() tea.Msg {
		run, err := engine.Record(result)
		return runRecordedMsg(run, err)
	}
}

func (m *Model) renderList() string {
	if !m.hasList {
		return styles.help.Render("Loading clients...")
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	if m.view == ClientView {
		helpKeys = []key.Binding{m.keys.enter, m.keys.quit}
	}

	var b strings.Builder
	if crumb := styles.Breadcrumb(m.crumbs[:]...); crumb != "" {
		b.WriteString(crumb + "\n\n")
	}
	b.WriteString(m.list.View())
	if m.notice != "" {
		b.WriteString("\n" + styles.warn.Render(m.notice))
	}
	b.WriteString("\n\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render(fmt.Sprintf("Compare %d recording(s) against '%s'?", len(m.recordings), m.option))
	info := fmt.Sprintf("\n%s\nLevels: %d\n", styles.Breadcrumb(m.crumbs[:]...), len(m.scope.Levels))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderAudit() string {
	title := styles.title.Render("Comparing Beacons")

	var phase string
	switch m.progress.Phase {
	case tasks.CollectObserved:
		phase = "Collecting observed beacons..."
	case tasks.CompareLevel:
		phase = fmt.Sprintf("Comparing levels (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CompareDone:
		phase = "Finishing..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Comparison failed: %v\n\nPress esc to go back, q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress esc to go back, q to quit")
	}

	var b strings.Builder
	if m.result.Empty() {
		b.WriteString(styles.ok.Render("✓ " + shared.MsgNoneMissing))
	} else {
		b.WriteString(styles.title.Render("Unheard Beacons"))
		b.WriteString("\n" + m.result.Message() + "\n\n")
		b.WriteString(formatter.MissingTable(m.result.Rows))
	}
	b.WriteString(fmt.Sprintf("\n\nRecordings: %d • Declared: %d • Observed: %d",
		m.result.Recordings, m.result.Declared, m.result.Observed))

	if n := len(m.result.Warnings); n > 0 {
		b.WriteString("\n\n" + styles.warn.Render(fmt.Sprintf("Skipped %d entries:", n)))
		for i, w := range m.result.Warnings {
			if i == maxWarnings {
				b.WriteString(fmt.Sprintf("\n  … and %d more", n-maxWarnings))
				break
			}
			b.WriteString("\n  • " + w.String())
		}
	}
	if m.notice != "" {
		b.WriteString("\n\n" + styles.help.Render(m.notice))
	}

	helpKeys := []key.Binding{m.keys.save, m.keys.back, m.keys.restart, m.keys.quit}
	b.WriteString("\n\n" + m.help.ShortHelpView(helpKeys))
	return b.String()
}
