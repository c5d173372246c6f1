package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/marquee/internal/kometa"
)

const (
	playlistFocusName = iota
	playlistFocusLibraries
	playlistFocusBuilders
	playlistFocusCount
)

// playlistModal collects a playlist name, its libraries and the builders
// it draws from.
type playlistModal struct {
	dialog
	name      textinput.Model
	libraries textinput.Model
	builders  []string
	checked   map[string]bool
	cursor    int
	focus     int
	err       string
	onSubmit  func(kometa.PlaylistSave) tea.Cmd
}

func newPlaylistModal(builders []string, picked []string, libraries string, onSubmit func(kometa.PlaylistSave) tea.Cmd) *playlistModal {
	name := textinput.New()
	name.Placeholder = "Weekend Movies"
	name.CharLimit = 100
	name.Width = 40
	name.Focus()

	libs := textinput.New()
	libs.Placeholder = "Movies, TV Shows"
	libs.CharLimit = 200
	libs.Width = 40
	libs.SetValue(libraries)

	checked := map[string]bool{}
	for _, id := range picked {
		checked[id] = true
	}
	return &playlistModal{
		dialog:    newDialog("new-playlist", "New playlist", 64),
		name:      name,
		libraries: libs,
		builders:  builders,
		checked:   checked,
		onSubmit:  onSubmit,
	}
}

// request builds the save body from the form.
func (p *playlistModal) request() (kometa.PlaylistSave, error) {
	req := kometa.PlaylistSave{
		Name:      strings.TrimSpace(p.name.Value()),
		Libraries: strings.TrimSpace(p.libraries.Value()),
	}
	if req.Name == "" {
		return req, errors.New("name is required")
	}
	for _, id := range p.builders {
		if p.checked[id] {
			req.Builders = append(req.Builders, kometa.PlaylistBuilder{Source: id})
		}
	}
	if len(req.Builders) == 0 {
		return req, errors.New("pick at least one builder")
	}
	return req, nil
}

func (p *playlistModal) setFocus(f int) tea.Cmd {
	p.focus = (f + playlistFocusCount) % playlistFocusCount
	p.name.Blur()
	p.libraries.Blur()
	switch p.focus {
	case playlistFocusName:
		return p.name.Focus()
	case playlistFocusLibraries:
		return p.libraries.Focus()
	}
	return nil
}

func (p *playlistModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, keys.Escape):
			return p, nil, true
		case key.Matches(km, keys.Confirm):
			req, err := p.request()
			if err != nil {
				p.err = err.Error()
				return p, nil, false
			}
			return p, p.onSubmit(req), true
		case key.Matches(km, keys.NextTab):
			return p, p.setFocus(p.focus + 1), false
		case key.Matches(km, keys.PrevTab):
			return p, p.setFocus(p.focus - 1), false
		}
		if p.focus == playlistFocusBuilders {
			switch {
			case key.Matches(km, keys.Down):
				p.cursor = clampIndex(p.cursor+1, len(p.builders))
			case key.Matches(km, keys.Up):
				p.cursor = clampIndex(p.cursor-1, len(p.builders))
			case key.Matches(km, keys.Toggle):
				if len(p.builders) > 0 {
					id := p.builders[p.cursor]
					p.checked[id] = !p.checked[id]
					p.err = ""
				}
			}
			return p, nil, false
		}
	}
	var cmd tea.Cmd
	switch p.focus {
	case playlistFocusName:
		p.name, cmd = p.name.Update(msg)
	case playlistFocusLibraries:
		p.libraries, cmd = p.libraries.Update(msg)
	}
	p.err = ""
	return p, cmd, false
}

func (p *playlistModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	label := func(text string, focus int) string {
		if p.focus == focus {
			return styles.AccentText.Render(text)
		}
		return styles.MutedText.Render(text)
	}
	lines := []string{
		label("Name", playlistFocusName),
		p.name.View(),
		label("Libraries", playlistFocusLibraries),
		p.libraries.View(),
		"",
		label("Builders", playlistFocusBuilders),
	}
	if len(p.builders) == 0 {
		lines = append(lines, styles.FaintText.Render("The backend offered no builder sources"))
	}
	for i, id := range p.builders {
		box := "[ ] "
		if p.checked[id] {
			box = "[x] "
		}
		line := box + id
		if p.focus == playlistFocusBuilders && i == p.cursor {
			line = styles.Selected.Render(padRight(line, 40))
		}
		lines = append(lines, line)
	}
	if p.err != "" {
		lines = append(lines, "", styles.DangerText.Render(p.err))
	}
	lines = append(lines, "", modalHints(theme, "tab", "Field", "space", "Pick", "enter", "Save", "esc", "Cancel"))
	return p.Render(theme, strings.Join(lines, "\n"), width, height)
}

// playlistSubmitMsg carries a completed playlist form.
type playlistSubmitMsg struct{ req kometa.PlaylistSave }

// startNewPlaylist opens the playlist form seeded with the picked builders
// and the libraries the Library tab knows about.
func (m Model) startNewPlaylist() (tea.Model, tea.Cmd) {
	o := m.overlays
	if o.data.buildersErr != nil {
		m.toasts.Error("Builder sources unavailable: " + errorText(o.data.buildersErr))
		return m, nil
	}
	var libs []string
	for _, l := range m.library.libraries {
		libs = append(libs, l.Name)
	}
	m.modal = newPlaylistModal(o.builderIDs(), o.pickedBuilders(), strings.Join(libs, ", "),
		func(req kometa.PlaylistSave) tea.Cmd {
			return func() tea.Msg { return playlistSubmitMsg{req: req} }
		})
	return m, nil
}

// savePlaylist clears the picked builders and writes the playlist file.
func (m Model) savePlaylist(req kometa.PlaylistSave) (tea.Model, tea.Cmd) {
	m.overlays.picked = nil
	if m.svc == nil {
		return m, nil
	}
	svc := m.svc
	return m, mutate(m.ctx, "save playlist", fmt.Sprintf("Saved playlist %s", req.Name), func(ctx context.Context) error {
		_, err := svc.SavePlaylist(ctx, req)
		return err
	})
}
