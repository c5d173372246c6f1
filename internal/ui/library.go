package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
	"gopkg.in/yaml.v3"

	"github.com/five82/marquee/internal/kometa"
)

type librariesMsg struct {
	libraries []kometa.Library
	err       error
}

type browseMsg struct {
	query kometa.BrowseQuery
	page  *kometa.BrowsePage
	err   error
}

type itemMetadataMsg struct {
	item kometa.MediaItem
	meta *kometa.ItemMetadata
	err  error
}

type metadataYAMLMsg struct {
	count int
	yaml  string
	err   error
}

// libraryState is the Library tab: a library list and a paged item list.
type libraryState struct {
	libraries []kometa.Library
	libErr    error
	libCursor int

	itemsFocused bool
	query        kometa.BrowseQuery
	page         *kometa.BrowsePage
	browseErr    error
	loading      bool
	itemCursor   int

	searching   bool
	searchInput textinput.Model

	marked map[string]kometa.MediaItem
	order  []string // rating keys in mark order
}

func newLibraryState() libraryState {
	ti := textinput.New()
	ti.Placeholder = "Search titles..."
	ti.CharLimit = 100
	return libraryState{searchInput: ti, marked: map[string]kometa.MediaItem{}}
}

// items returns the page's items, narrowed by the search being typed.
func (l libraryState) items() []kometa.MediaItem {
	if l.page == nil {
		return nil
	}
	typed := strings.TrimSpace(l.searchInput.Value())
	if !l.searching || typed == "" || typed == l.query.Search {
		return l.page.Items
	}
	titles := make([]string, len(l.page.Items))
	for i, it := range l.page.Items {
		titles[i] = it.Label()
	}
	matches := fuzzy.Find(typed, titles)
	out := make([]kometa.MediaItem, 0, len(matches))
	for _, match := range matches {
		out = append(out, l.page.Items[match.Index])
	}
	return out
}

func (l libraryState) currentItem() (kometa.MediaItem, bool) {
	items := l.items()
	if l.itemCursor < 0 || l.itemCursor >= len(items) {
		return kometa.MediaItem{}, false
	}
	return items[l.itemCursor], true
}

func (l *libraryState) toggleMark(item kometa.MediaItem) {
	if _, ok := l.marked[item.RatingKey]; ok {
		delete(l.marked, item.RatingKey)
		for i, k := range l.order {
			if k == item.RatingKey {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
		return
	}
	l.marked[item.RatingKey] = item
	l.order = append(l.order, item.RatingKey)
}

func (l libraryState) markedItems() []kometa.MediaItem {
	out := make([]kometa.MediaItem, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, l.marked[k])
	}
	return out
}

func (m Model) loadLibraries() tea.Cmd {
	cmds := []tea.Cmd{load(m.ctx, m.svc.Libraries, func(libs []kometa.Library, err error) tea.Msg {
		return librariesMsg{libraries: libs, err: err}
	})}
	if m.library.query.Library != "" {
		cmds = append(cmds, m.browseCmd(m.library.query))
	}
	return tea.Batch(cmds...)
}

func (m Model) browseCmd(q kometa.BrowseQuery) tea.Cmd {
	svc := m.svc
	return load(m.ctx, func(ctx context.Context) (*kometa.BrowsePage, error) {
		return svc.Browse(ctx, q)
	}, func(p *kometa.BrowsePage, err error) tea.Msg {
		return browseMsg{query: q, page: p, err: err}
	})
}

func (m Model) updateLibrary(msg tea.Msg) (tea.Model, tea.Cmd) {
	l := &m.library
	switch msg := msg.(type) {
	case librariesMsg:
		l.libraries, l.libErr = msg.libraries, msg.err
		l.libCursor = clampIndex(l.libCursor, len(l.libraries))

	case browseMsg:
		if msg.query != l.query {
			return m, nil
		}
		l.loading = false
		l.page, l.browseErr = msg.page, msg.err
		if msg.err == nil && msg.page.Error != "" {
			m.toasts.Warn(msg.page.Error)
		}
		l.itemCursor = clampIndex(l.itemCursor, len(l.items()))

	case itemMetadataMsg:
		if msg.err != nil {
			m.toasts.Error("Metadata failed: " + errorText(msg.err))
			return m, nil
		}
		body, err := yaml.Marshal(msg.meta.Metadata)
		if err != nil {
			m.toasts.Error(err.Error())
			return m, nil
		}
		m.modal = newTextModal("item-metadata", msg.item.Label(),
			strings.Join(highlightYAML(m.theme, string(body), 0), "\n"))

	case metadataYAMLMsg:
		if msg.err != nil {
			m.toasts.Error("Generate YAML failed: " + errorText(msg.err))
			return m, nil
		}
		m.modal = newTextModal("metadata-yaml", fmt.Sprintf("Metadata YAML (%d items)", msg.count),
			strings.Join(highlightYAML(m.theme, msg.yaml, 0), "\n"))
	}
	return m, nil
}

func (m Model) handleLibraryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := &m.library
	if m.svc == nil {
		return m, nil
	}

	if l.searching {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			l.searching = false
			l.searchInput.Blur()
			return m, m.browse(l.query.Library, 1, strings.TrimSpace(l.searchInput.Value()))
		case key.Matches(msg, m.keys.Escape):
			l.searching = false
			l.searchInput.Blur()
			l.searchInput.SetValue(l.query.Search)
			return m, nil
		}
		var cmd tea.Cmd
		l.searchInput, cmd = l.searchInput.Update(msg)
		l.itemCursor = 0
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Left):
		l.itemsFocused = false
	case key.Matches(msg, m.keys.Right):
		l.itemsFocused = l.page != nil

	case key.Matches(msg, m.keys.Up):
		if l.itemsFocused {
			l.itemCursor = clampIndex(l.itemCursor-1, len(l.items()))
		} else {
			l.libCursor = clampIndex(l.libCursor-1, len(l.libraries))
		}
	case key.Matches(msg, m.keys.Down):
		if l.itemsFocused {
			l.itemCursor = clampIndex(l.itemCursor+1, len(l.items()))
		} else {
			l.libCursor = clampIndex(l.libCursor+1, len(l.libraries))
		}

	case key.Matches(msg, m.keys.Confirm):
		if !l.itemsFocused {
			if l.libCursor < len(l.libraries) {
				l.itemsFocused = true
				return m, m.browse(l.libraries[l.libCursor].Name, 1, "")
			}
			return m, nil
		}
		item, ok := l.currentItem()
		if !ok {
			return m, nil
		}
		svc := m.svc
		return m, load(m.ctx, func(ctx context.Context) (*kometa.ItemMetadata, error) {
			return svc.MetadataItem(ctx, item.RatingKey)
		}, func(meta *kometa.ItemMetadata, err error) tea.Msg {
			return itemMetadataMsg{item: item, meta: meta, err: err}
		})

	case key.Matches(msg, m.keys.NextPage):
		if l.page != nil && l.query.Page < l.page.TotalPages {
			return m, m.browse(l.query.Library, l.query.Page+1, l.query.Search)
		}
	case key.Matches(msg, m.keys.PrevPage):
		if l.page != nil && l.query.Page > 1 {
			return m, m.browse(l.query.Library, l.query.Page-1, l.query.Search)
		}

	case key.Matches(msg, m.keys.Search):
		if l.query.Library == "" {
			m.toasts.Info("Pick a library first")
			return m, nil
		}
		l.searching = true
		l.itemsFocused = true
		l.searchInput.SetValue(l.query.Search)
		return m, l.searchInput.Focus()

	case key.Matches(msg, m.keys.Escape):
		if l.query.Search != "" {
			l.searchInput.SetValue("")
			return m, m.browse(l.query.Library, 1, "")
		}
		if len(l.marked) > 0 {
			l.marked = map[string]kometa.MediaItem{}
			l.order = nil
		}

	case key.Matches(msg, m.keys.Mark):
		if item, ok := l.currentItem(); ok && l.itemsFocused {
			l.toggleMark(item)
			l.itemCursor = clampIndex(l.itemCursor+1, len(l.items()))
		}

	case key.Matches(msg, m.keys.GenerateYAML):
		items := l.markedItems()
		if len(items) == 0 {
			if item, ok := l.currentItem(); ok {
				items = []kometa.MediaItem{item}
			}
		}
		if len(items) == 0 {
			return m, nil
		}
		svc := m.svc
		return m, load(m.ctx, func(ctx context.Context) (string, error) {
			return svc.GenerateMetadataYAML(ctx, items)
		}, func(out string, err error) tea.Msg {
			return metadataYAMLMsg{count: len(items), yaml: out, err: err}
		})
	}
	return m, nil
}

// browse requests a page and makes it the current query.
func (m *Model) browse(library string, page int, search string) tea.Cmd {
	q := kometa.BrowseQuery{Library: library, Page: page, PerPage: LibraryPageSize, Search: search}
	if q != m.library.query {
		m.library.itemCursor = 0
	}
	m.library.query = q
	m.library.loading = true
	return m.browseCmd(q)
}

func (m Model) renderLibrary(width, height int) string {
	left, right := splitWidths(width)
	l := m.library
	return joinColumns(
		m.renderTitledBox("Libraries", m.libraryList(height-2), left, height, !l.itemsFocused),
		m.renderTitledBox(m.libraryTitle(), m.libraryItems(right-2, height-2), right, height, l.itemsFocused),
	)
}

func (m Model) libraryTitle() string {
	l := m.library
	if l.query.Library == "" {
		return "Items"
	}
	title := l.query.Library
	if l.page != nil {
		title += fmt.Sprintf("  %d/%d  (%s items)", l.query.Page, max(l.page.TotalPages, 1), count(l.page.Total))
	}
	if len(l.marked) > 0 {
		title += fmt.Sprintf("  %d marked", len(l.marked))
	}
	return title
}

func (m Model) libraryList(rows int) string {
	styles := m.theme.Styles().WithBackground(m.theme.SurfaceAlt)
	l := m.library
	if l.libErr != nil {
		return styles.DangerText.Render(errorText(l.libErr))
	}
	if len(l.libraries) == 0 {
		return styles.MutedText.Render("No libraries")
	}
	var lines []string
	for i, lib := range l.libraries {
		if i >= rows {
			break
		}
		label := lib.Name
		if lib.Type != "" {
			label += styles.FaintText.Render("  " + lib.Type)
		}
		if lib.HasOverlays {
			label += styles.InfoText.Render("  ◈")
		}
		if i == l.libCursor {
			label = styles.Selected.Render("› " + lib.Name)
		} else {
			label = "  " + label
		}
		lines = append(lines, label)
	}
	return strings.Join(lines, "\n")
}

func (m Model) libraryItems(width, rows int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	l := m.library
	var lines []string
	if l.searching || l.query.Search != "" {
		lines = append(lines, styles.AccentText.Render("/")+l.searchInput.View())
		rows--
	}
	switch {
	case l.query.Library == "":
		return styles.MutedText.Render("Select a library and press enter.")
	case l.browseErr != nil:
		return strings.Join(append(lines, styles.DangerText.Render(errorText(l.browseErr))), "\n")
	case l.page == nil:
		return strings.Join(append(lines, styles.MutedText.Render("Loading...")), "\n")
	}

	items := l.items()
	if len(items) == 0 {
		return strings.Join(append(lines, styles.MutedText.Render("No items")), "\n")
	}
	start := 0
	if l.itemCursor >= rows {
		start = l.itemCursor - rows + 1
	}
	for i := start; i < len(items) && i-start < rows; i++ {
		it := items[i]
		mark := "  "
		if _, ok := l.marked[it.RatingKey]; ok {
			mark = "✓ "
		}
		line := mark + padRight(truncate(it.Label(), width-14), width-14) + truncate(it.Type, 10)
		if i == l.itemCursor && l.itemsFocused {
			line = styles.Selected.Render(line)
		}
		lines = append(lines, line)
	}
	if l.loading {
		lines = append(lines, styles.FaintText.Render("Loading..."))
	}
	return strings.Join(lines, "\n")
}
