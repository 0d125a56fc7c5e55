// Package ui is the interactive menu shown when secretctl runs without
// arguments. The menu only collects a choice and its prompt values; the
// caller runs the matching command once the terminal is released.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eliasmeireles/secretctl/cmd/secretctl/internal/env"
)

const (
	DefaultTitleStyleColor    = "86"
	DefaultItemStyleColor     = "86"
	DefaultSelectedItemColor  = "82"
	CLIName                   = "Secret Control CLI"
	SelectedItemStyleEnvColor = "SECRETCTL_SELECTED_ITEM_COLOR"
	ItemStyleEnvColor         = "SECRETCTL_ITEM_COLOR"
	TitleStyleEnvColor        = "SECRETCTL_TITLE_COLOR"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2).Bold(true).Foreground(lipgloss.Color(DefaultTitleStyleColor))
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color(DefaultItemStyleColor))
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color(DefaultSelectedItemColor))
	paginationStyle   = list.DefaultStyles().PaginationStyle.PaddingLeft(4)
	helpStyle         = list.DefaultStyles().HelpStyle.PaddingLeft(4).PaddingBottom(1)
	quitTextStyle     = lipgloss.NewStyle().Margin(1, 0, 2, 4)
)

func init() {
	if color, exists := env.Get(TitleStyleEnvColor); exists {
		titleStyle = titleStyle.Foreground(lipgloss.Color(color))
	}
	if color, exists := env.Get(SelectedItemStyleEnvColor); exists {
		selectedItemStyle = selectedItemStyle.Foreground(lipgloss.Color(color))
	}
	if color, exists := env.Get(ItemStyleEnvColor); exists {
		itemStyle = itemStyle.Foreground(lipgloss.Color(color))
	}
}

type item struct {
	title, desc string
	action      func() tea.Cmd
	subMenu     []list.Item
	prompts     []string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(item)
	if !ok {
		return
	}

	line := fmt.Sprintf("%d. %s", index+1, i.title)
	if index == m.Index() {
		_, _ = fmt.Fprint(w, selectedItemStyle.Render("> "+line))
		return
	}
	_, _ = fmt.Fprint(w, itemStyle.Render(line))
}

type State int

const (
	StateList State = iota
	StateInput
)

// Model is the bubbletea model of the menu.
type Model struct {
	lists     []list.Model
	textInput textinput.Model
	state     State

	choice   string
	category string
	prompts  []string
	args     []string
	quitting bool
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == StateInput {
			return m.updateInput(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		case "esc", "backspace":
			if len(m.lists) > 1 {
				m.lists = m.lists[:len(m.lists)-1]
				return m, nil
			}
		case "enter":
			if i, ok := m.currentList().SelectedItem().(item); ok {
				return m.selectItem(i)
			}
		}
	case tea.WindowSizeMsg:
		for i := range m.lists {
			m.lists[i].SetSize(msg.Width, msg.Height)
		}
	}

	var cmd tea.Cmd
	curr := len(m.lists) - 1
	m.lists[curr], cmd = m.lists[curr].Update(msg)
	return m, cmd
}

func (m Model) selectItem(i item) (tea.Model, tea.Cmd) {
	switch {
	case len(i.subMenu) > 0:
		m.lists = append(m.lists, newList(m.breadcrumbTitle(i.title), i.subMenu))
		return m, nil
	case len(i.prompts) > 0:
		m.state = StateInput
		m.choice = i.title
		m.category = m.currentList().Title
		m.prompts = i.prompts
		m.args = []string{}
		m.preparePrompt()
		m.textInput.Focus()
		return m, nil
	case i.action != nil:
		m.choice = i.title
		m.category = m.currentList().Title
		return m, tea.Quit
	}
	// Informational item.
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.state = StateList
		m.choice, m.category, m.args = "", "", nil
		m.textInput.Blur()
		return m, nil
	case "enter":
		m.args = append(m.args, strings.TrimSpace(m.textInput.Value()))
		m.textInput.SetValue("")
		if len(m.args) < len(m.prompts) {
			m.preparePrompt()
			return m, nil
		}
		m.textInput.Blur()
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// preparePrompt shows the next prompt, hiding input for secret values.
func (m *Model) preparePrompt() {
	prompt := m.prompts[len(m.args)]
	m.textInput.Placeholder = prompt
	if isSecretPrompt(prompt) {
		m.textInput.EchoMode = textinput.EchoPassword
		m.textInput.EchoCharacter = '•'
	} else {
		m.textInput.EchoMode = textinput.EchoNormal
	}
}

func isSecretPrompt(prompt string) bool {
	first, _, _ := strings.Cut(strings.ToLower(prompt), " ")
	switch first {
	case "password", "token", "value":
		return true
	}
	return false
}

func (m Model) View() string {
	if m.quitting {
		return quitTextStyle.Render("Bye!")
	}

	if m.state == StateInput {
		return fmt.Sprintf(
			"\n  %s\n\n  %s: %s\n\n  %s",
			titleStyle.Render(m.choice),
			m.prompts[len(m.args)],
			m.textInput.View(),
			helpStyle.Render("(enter to confirm, esc to back)"),
		) + "\n"
	}

	return "\n" + m.currentList().View()
}

func (m Model) currentList() *list.Model {
	return &m.lists[len(m.lists)-1]
}

// breadcrumbTitle builds titles like "Secrets/Copy", which double as the
// category commands are registered under.
func (m Model) breadcrumbTitle(itemTitle string) string {
	current := m.currentList().Title
	if current == CLIName {
		return itemTitle
	}
	return current + "/" + itemTitle
}

func newList(title string, items []list.Item) list.Model {
	l := list.New(items, itemDelegate{}, 356, 16)
	l.Title = title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.PaginationStyle = paginationStyle
	l.Styles.HelpStyle = helpStyle
	return l
}

func NewMenu(items []list.Item) Model {
	ti := textinput.New()
	ti.CharLimit = 512
	ti.Width = 255

	return Model{
		lists:     []list.Model{newList(CLIName, items)},
		textInput: ti,
		state:     StateList,
	}
}

func (m Model) GetChoice() string {
	return m.choice
}

func (m Model) GetCategory() string {
	return m.category
}

func (m Model) GetArgs() []string {
	return m.args
}

func (m Model) WasQuitted() bool {
	return m.quitting
}

func CreateItem(title, desc string, action func() tea.Cmd) list.Item {
	return item{title: title, desc: desc, action: action}
}

func CreateSubMenu(title, desc string, items []list.Item) list.Item {
	return item{title: title, desc: desc, subMenu: items}
}

func CreatePromptItem(title, desc, prompt string, action func() tea.Cmd) list.Item {
	return item{title: title, desc: desc, prompts: []string{prompt}, action: action}
}

func CreateMultiPromptItem(title, desc string, prompts []string, action func() tea.Cmd) list.Item {
	return item{title: title, desc: desc, prompts: prompts, action: action}
}

// HoopAction is a non-nil action that makes the menu quit so the caller
// can dispatch the selected item.
func HoopAction() tea.Cmd { return nil }
