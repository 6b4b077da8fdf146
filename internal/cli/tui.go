package cli

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/orgchart/pkg/errors"
	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Background(lipgloss.Color("236"))
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// chartSource - what the browser reloads
// =============================================================================

// chartSource fetches the hierarchy for the current query and lays it out
// with actions attached to every node.
type chartSource struct {
	fetch   fetcher
	runner  *pipeline.Runner
	actions graph.Actions
	opts    pipeline.Options

	mu    sync.Mutex
	query string
}

func (s *chartSource) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *chartSource) SetQuery(q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()
}

func (s *chartSource) load(ctx context.Context) (*pipeline.Result, error) {
	forest, err := fetchForest(ctx, s.fetch, s.Query())
	if err != nil {
		return nil, err
	}
	return s.runner.Build(ctx, forest, s.actions, s.opts)
}

// =============================================================================
// Key bindings
// =============================================================================

type browseKeys struct {
	Up, Down, Top, Bottom key.Binding
	Search, Clear         key.Binding
	Reload                key.Binding
	AddChild, AddRoot     key.Binding
	Rename                key.Binding
	ToggleActive          key.Binding
	ToggleApproved        key.Binding
	ToggleDeleted         key.Binding
	Delete                key.Binding
	Help, Quit            key.Binding
}

func newBrowseKeys() browseKeys {
	return browseKeys{
		Up:             key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:           key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Top:            key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:         key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		Search:         key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Clear:          key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear search")),
		Reload:         key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		AddChild:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add child")),
		AddRoot:        key.NewBinding(key.WithKeys("A"), key.WithHelp("A", "add root")),
		Rename:         key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "rename")),
		ToggleActive:   key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "toggle active")),
		ToggleApproved: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "toggle approved")),
		ToggleDeleted:  key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "toggle deleted")),
		Delete:         key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Help:           key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		Quit:           key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k browseKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Search, k.AddChild, k.Rename, k.Delete, k.Help, k.Quit}
}

func (k browseKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Search, k.Clear, k.Reload},
		{k.AddChild, k.AddRoot, k.Rename, k.Delete},
		{k.ToggleActive, k.ToggleApproved, k.ToggleDeleted},
		{k.Help, k.Quit},
	}
}

// =============================================================================
// Messages
// =============================================================================

// reloadMsg asks the browser to refresh the chart.
type reloadMsg struct{}

// loadedMsg carries the outcome of one reload.
type loadedMsg struct {
	res *pipeline.Result
	err error
}

// actionMsg carries the outcome of an edit dispatched through a node.
type actionMsg struct {
	desc string
	err  error
}

// =============================================================================
// BrowseModel - interactive chart
// =============================================================================

type inputKind int

const (
	inputNone inputKind = iota
	inputSearch
	inputAddChild
	inputAddRoot
	inputRename
)

// BrowseModel is the bubbletea model for the interactive chart. It lists
// departments in layout order, indented by rank, and dispatches edits
// through each node's actions.
type BrowseModel struct {
	ctx      context.Context
	source   *chartSource
	reloader *pipeline.Reloader
	rootActs graph.Actions

	keys  browseKeys
	help  help.Model
	input textinput.Model

	res     *pipeline.Result
	loading bool
	err     error
	status  string

	Cursor int
	Offset int
	Height int

	editing    inputKind
	confirming bool
}

func newBrowseModel(ctx context.Context, source *chartSource) BrowseModel {
	ti := textinput.New()
	ti.CharLimit = 256
	return BrowseModel{
		ctx:      ctx,
		source:   source,
		reloader: pipeline.NewReloader(source.load),
		rootActs: source.actions,
		keys:     newBrowseKeys(),
		help:     help.New(),
		input:    ti,
		Height:   15,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return m.reload()
}

// reload runs the reloader in the background. A superseded run produces
// no message; the newer run reports instead.
func (m *BrowseModel) reload() tea.Cmd {
	m.loading = true
	reloader, ctx := m.reloader, m.ctx
	return func() tea.Msg {
		res, err := reloader.Reload(ctx)
		if stderrors.Is(err, pipeline.ErrSuperseded) {
			return nil
		}
		return loadedMsg{res: res, err: err}
	}
}

func (m BrowseModel) nodes() []graph.Node {
	if m.res == nil {
		return nil
	}
	return m.res.Layout.Nodes
}

// Selected returns the node under the cursor.
func (m BrowseModel) Selected() (graph.Node, bool) {
	nodes := m.nodes()
	if m.Cursor < 0 || m.Cursor >= len(nodes) {
		return graph.Node{}, false
	}
	return nodes[m.Cursor], true
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
		m.help.Width = msg.Width
		return m, nil

	case reloadMsg:
		cmd := m.reload()
		return m, cmd

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.res = msg.res
		m.clampCursor()
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = ""
		} else {
			m.err = nil
			m.status = msg.desc
		}
		return m, nil

	case tea.KeyMsg:
		if m.editing != inputNone {
			return m.updateInput(msg)
		}
		if m.confirming {
			return m.updateConfirm(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m BrowseModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.reloader.Stop()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Top):
		m.move(-len(m.nodes()))
	case key.Matches(msg, m.keys.Bottom):
		m.move(len(m.nodes()))
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Reload):
		m.status = ""
		cmd := m.reload()
		return m, cmd
	case key.Matches(msg, m.keys.Clear):
		if m.source.Query() == "" {
			return m, nil
		}
		m.source.SetQuery("")
		m.Cursor, m.Offset = 0, 0
		cmd := m.reload()
		return m, cmd
	case key.Matches(msg, m.keys.Search):
		cmd := m.startInput(inputSearch, "search by name", m.source.Query())
		return m, cmd
	case key.Matches(msg, m.keys.AddRoot):
		cmd := m.startInput(inputAddRoot, "new root department", "")
		return m, cmd
	case key.Matches(msg, m.keys.AddChild):
		if _, ok := m.Selected(); ok {
			cmd := m.startInput(inputAddChild, "new child department", "")
			return m, cmd
		}
	case key.Matches(msg, m.keys.Rename):
		if n, ok := m.Selected(); ok {
			cmd := m.startInput(inputRename, "new name", n.Label)
			return m, cmd
		}
	case key.Matches(msg, m.keys.ToggleActive):
		cmd := m.toggle(func(s *graph.Status) { s.Active = !s.Active })
		return m, cmd
	case key.Matches(msg, m.keys.ToggleApproved):
		cmd := m.toggle(func(s *graph.Status) { s.Approved = !s.Approved })
		return m, cmd
	case key.Matches(msg, m.keys.ToggleDeleted):
		cmd := m.toggle(func(s *graph.Status) { s.Deleted = !s.Deleted })
		return m, cmd
	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.Selected(); ok {
			m.confirming = true
		}
	}
	return m, nil
}

func (m *BrowseModel) move(delta int) {
	m.Cursor += delta
	m.clampCursor()
}

func (m *BrowseModel) clampCursor() {
	n := len(m.nodes())
	m.Cursor = max(min(m.Cursor, n-1), 0)
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *BrowseModel) startInput(kind inputKind, placeholder, value string) tea.Cmd {
	m.editing = kind
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m BrowseModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = inputNone
		m.input.Blur()
		return m, nil
	case "enter":
		kind := m.editing
		value := strings.TrimSpace(m.input.Value())
		m.editing = inputNone
		m.input.Blur()
		cmd := m.submit(kind, value)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit turns a finished input into a search or an edit.
func (m *BrowseModel) submit(kind inputKind, value string) tea.Cmd {
	if kind == inputSearch {
		if err := errors.ValidateSearchQuery(value); err != nil {
			m.err = err
			return nil
		}
		m.source.SetQuery(value)
		m.Cursor, m.Offset = 0, 0
		return m.reload()
	}
	if value == "" {
		return nil
	}

	switch kind {
	case inputAddRoot:
		req := graph.AddChildRequest{Name: value, Status: graph.Status{Active: true}}
		return m.dispatch(fmt.Sprintf("Created %s", value), func(ctx context.Context) error {
			return m.rootActs.OnAddChild(ctx, req)
		})
	case inputAddChild:
		n, ok := m.Selected()
		if !ok {
			return nil
		}
		req := graph.AddChildRequest{ParentID: n.ID, Name: value, Status: graph.Status{Active: true}}
		return m.dispatch(fmt.Sprintf("Created %s under %s", value, n.Label), func(ctx context.Context) error {
			return n.Actions.OnAddChild(ctx, req)
		})
	case inputRename:
		n, ok := m.Selected()
		if !ok {
			return nil
		}
		req := editRequest(n)
		req.Name = value
		return m.dispatch(fmt.Sprintf("Renamed %s to %s", n.Label, value), func(ctx context.Context) error {
			return n.Actions.OnEdit(ctx, req)
		})
	}
	return nil
}

func (m *BrowseModel) toggle(change func(*graph.Status)) tea.Cmd {
	n, ok := m.Selected()
	if !ok {
		return nil
	}
	req := editRequest(n)
	change(&req.Status)
	return m.dispatch(fmt.Sprintf("%s is now %s", n.Label, statusText(req.Status)), func(ctx context.Context) error {
		return n.Actions.OnEdit(ctx, req)
	})
}

func (m BrowseModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.confirming = false
	if msg.String() != "y" && msg.String() != "Y" {
		m.status = "Delete cancelled"
		return m, nil
	}
	n, ok := m.Selected()
	if !ok {
		return m, nil
	}
	cmd := m.dispatch(fmt.Sprintf("Deleted %s", n.Label), func(ctx context.Context) error {
		return n.Actions.OnDelete(ctx, n.ID)
	})
	return m, cmd
}

// dispatch runs an edit in the background. Nodes without actions are
// read-only.
func (m *BrowseModel) dispatch(desc string, run func(ctx context.Context) error) tea.Cmd {
	if n, ok := m.Selected(); ok && n.Actions == nil {
		m.err = errors.New(errors.ErrCodeUnauthorized, "chart is read-only, log in to edit")
		return nil
	}
	if m.rootActs == nil {
		m.err = errors.New(errors.ErrCodeUnauthorized, "chart is read-only, log in to edit")
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg {
		return actionMsg{desc: desc, err: run(ctx)}
	}
}

func editRequest(n graph.Node) graph.EditRequest {
	return graph.EditRequest{ID: n.ID, ParentID: n.ParentID, Name: n.Label, Status: n.Status}
}

func (m BrowseModel) View() string {
	var b strings.Builder

	title := "Org Chart"
	if q := m.source.Query(); q != "" {
		title += fmt.Sprintf(" · %q", q)
	}
	b.WriteString(StyleTitle.Render(title))
	if m.loading {
		b.WriteString(listDimStyle.Render("  loading…"))
	}
	b.WriteString("\n")
	if m.res != nil {
		b.WriteString(statsLine(len(m.res.Layout.Nodes), len(m.res.Layout.Rows), m.res.Crossings, m.res.CacheHit))
	}
	b.WriteString("\n\n")

	nodes := m.nodes()
	switch {
	case m.res == nil && m.err == nil:
		b.WriteString(listDimStyle.Render("  fetching hierarchy…"))
		b.WriteString("\n")
	case m.res != nil && len(nodes) == 0:
		b.WriteString(listDimStyle.Render("  no departments"))
		b.WriteString("\n")
	}

	end := min(m.Offset+m.Height, len(nodes))
	for i := m.Offset; i < end; i++ {
		b.WriteString(m.row(nodes[i], i == m.Cursor))
		b.WriteString("\n")
	}
	if len(nodes) > m.Height {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(nodes))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.editing != inputNone:
		b.WriteString(m.input.View())
	case m.confirming:
		n, _ := m.Selected()
		b.WriteString(StyleWarning.Render(fmt.Sprintf("Delete %s? (y/N)", n.Label)))
	case m.err != nil:
		b.WriteString(listErrorStyle.Render(iconError + " " + errors.UserMessage(m.err)))
	case m.status != "":
		b.WriteString(StyleSuccess.Render(iconSuccess + " " + m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m BrowseModel) row(n graph.Node, selected bool) string {
	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	branch := ""
	if n.Rank > 0 {
		branch = strings.Repeat("  ", n.Rank-1) + "└ "
	}
	line := cursor + branch + statusStyle(n.Status).Render(n.Label) + " " + listDimStyle.Render("#"+n.ID)
	if selected {
		return listSelectedStyle.Render(line)
	}
	return line
}
