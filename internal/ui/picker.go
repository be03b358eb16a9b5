package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kmcph/cratedig/internal/models"
	"github.com/kmcph/cratedig/internal/shared"
)

var _ list.Item = artistItem{}

// artistItem wraps [models.Artist] to implement [list.Item].
type artistItem struct {
	artist models.Artist
}

func (i artistItem) FilterValue() string { return i.artist.Name }
func (i artistItem) Title() string       { return i.artist.Name }
func (i artistItem) Description() string {
	return fmt.Sprintf("%s followers • popularity %d", groupDigits(i.artist.Followers), i.artist.Popularity)
}

// groupDigits renders n with thousands separators (1234567 → "1,234,567").
func groupDigits(n int) string {
	raw := fmt.Sprintf("%d", n)
	if len(raw) <= 3 {
		return raw
	}

	grouped := ""
	for i, digit := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			grouped += ","
		}
		grouped += string(digit)
	}
	return grouped
}

// keyMap defines the [key.Binding] mapping for the picker.
type keyMap struct {
	enter key.Binding
	quit  key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "skip")),
	}
}

// pickerModel is the bubbletea model for a single disambiguation prompt.
type pickerModel struct {
	query  string
	list   list.Model
	keys   keyMap
	choice *models.Artist
	quit   bool
}

func newPickerModel(query string, candidates []models.Artist) pickerModel {
	items := make([]list.Item, 0, len(candidates))
	for _, artist := range candidates {
		items = append(items, artistItem{artist: artist})
	}

	l := list.New(items, list.NewDefaultDelegate(), 60, 2+4*len(items))
	l.Title = fmt.Sprintf("Multiple artists found for %q", query)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = styles.title

	return pickerModel{
		query: query,
		list:  l,
		keys:  newKeyMap(),
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.list.SelectedItem().(artistItem); ok {
				artist := item.artist
				m.choice = &artist
			}
			return m, tea.Quit

		case key.Matches(msg, m.keys.quit):
			m.quit = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return m.list.View() + "\n" + styles.help.Render("enter select • q skip")
}

// Picker presents candidate artists in an interactive list.
type Picker struct{}

// NewPicker creates a terminal-backed artist picker.
func NewPicker() *Picker {
	return &Picker{}
}

// SelectArtist runs the picker and returns the chosen artist.
// Cancelling the prompt returns [shared.ErrSelectionQuit].
func (p *Picker) SelectArtist(query string, candidates []models.Artist) (*models.Artist, error) {
	program := tea.NewProgram(newPickerModel(query, candidates))

	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("artist picker failed: %w", err)
	}

	model, ok := final.(pickerModel)
	if !ok || model.quit || model.choice == nil {
		return nil, fmt.Errorf("%w: %q", shared.ErrSelectionQuit, query)
	}

	return model.choice, nil
}
