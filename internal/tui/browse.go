// Package tui implements the interactive document browser.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"confgit.dev/confgit/internal/store"
)

type browseStyles struct {
	titleStyle  lipgloss.Style
	paneStyle   lipgloss.Style
	statusStyle lipgloss.Style
	errorStyle  lipgloss.Style
}

func defaultBrowseStyles() browseStyles {
	return browseStyles{
		titleStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		paneStyle:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
		statusStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		errorStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// docItem is one document type in the list pane.
type docItem string

func (d docItem) FilterValue() string { return string(d) }
func (d docItem) Title() string       { return string(d) }
func (d docItem) Description() string { return "" }

// docLoadedMsg carries a loaded document into the model.
type docLoadedMsg struct {
	docType     string
	content     string
	fingerprint string
	err         error
}

// BrowseModel is the bubbletea model showing document types on the left
// and the selected document on the right.
type BrowseModel struct {
	store    *store.Store
	list     list.Model
	viewport viewport.Model
	styles   browseStyles

	current     string
	fingerprint string
	err         error
	ready       bool
	width       int
	height      int
}

// NewBrowseModel creates the browser over the given document types.
func NewBrowseModel(st *store.Store, types []string) BrowseModel {
	items := make([]list.Item, 0, len(types))
	for _, docType := range types {
		items = append(items, docItem(docType))
	}

	styles := defaultBrowseStyles()
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	docList := list.New(items, delegate, 0, 0)
	docList.Title = "Config documents"
	docList.Styles.Title = styles.titleStyle
	docList.SetShowStatusBar(false)

	return BrowseModel{
		store:  st,
		list:   docList,
		styles: styles,
	}
}

func (m BrowseModel) Init() tea.Cmd {
	return nil
}

func (m BrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listWidth := msg.Width / 3
		m.list.SetSize(listWidth, msg.Height-2)
		m.viewport = viewport.New(msg.Width-listWidth-4, msg.Height-4)
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		// While the list filter is typing, every key belongs to it
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(docItem); ok {
				return m, m.loadDoc(string(item))
			}
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case docLoadedMsg:
		m.current = msg.docType
		m.fingerprint = msg.fingerprint
		m.err = msg.err
		if msg.err == nil && m.ready {
			m.viewport.SetContent(msg.content)
			m.viewport.GotoTop()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m BrowseModel) View() string {
	if !m.ready {
		return "loading..."
	}

	var status string
	switch {
	case m.err != nil:
		status = m.styles.errorStyle.Render(m.err.Error())
	case m.current != "":
		status = m.styles.statusStyle.Render(fmt.Sprintf("%s @ %s", m.current, shortFingerprint(m.fingerprint)))
	default:
		status = m.styles.statusStyle.Render("enter: show document, q: quit")
	}

	right := m.styles.paneStyle.Render(m.viewport.View())
	panes := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), right)
	return lipgloss.JoinVertical(lipgloss.Left, panes, status)
}

func (m BrowseModel) loadDoc(docType string) tea.Cmd {
	return func() tea.Msg {
		doc, err := m.store.Load(context.Background(), docType)
		if err != nil {
			return docLoadedMsg{docType: docType, err: err}
		}
		return docLoadedMsg{
			docType:     docType,
			content:     string(doc.Bytes),
			fingerprint: doc.Fingerprint,
		}
	}
}

func shortFingerprint(fingerprint string) string {
	if len(fingerprint) > 8 {
		return fingerprint[:8]
	}
	return fingerprint
}

// RunBrowse lists the stored documents and opens the browser on them.
func RunBrowse(st *store.Store) error {
	types, err := st.List()
	if err != nil {
		return err
	}

	p := tea.NewProgram(NewBrowseModel(st, types), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
