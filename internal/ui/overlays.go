package ui

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/five82/marquee/internal/kometa"
	"github.com/five82/marquee/internal/logger"
	"github.com/five82/marquee/internal/query"
)

type overlaySection int

const (
	overlayFiles overlaySection = iota
	overlayDefaults
	overlayImages
	overlayPlaylists
	overlayBuilders
	overlaySectionCount
)

func (s overlaySection) String() string {
	switch s {
	case overlayDefaults:
		return "Defaults"
	case overlayImages:
		return "Images"
	case overlayPlaylists:
		return "Playlists"
	case overlayBuilders:
		return "Builders"
	default:
		return "Files"
	}
}

// overlaysMsg carries everything the tab shows. Each part fails on its own.
type overlaysMsg struct {
	sources     *kometa.OverlaySources
	sourcesErr  error
	defaults    []kometa.DefaultOverlay
	defaultsErr error
	images      []kometa.OverlayImage
	imagesErr   error
	playlists   []kometa.Playlist
	playErr     error
	builders    map[string]kometa.BuilderSource
	buildersErr error
}

// overlayPreviewRequestMsg is sent once an item has been picked.
type overlayPreviewRequestMsg struct {
	req  kometa.OverlayPreviewRequest
	item string
}

// overlayPreviewMsg carries a rendered preview written to a temp PNG.
type overlayPreviewMsg struct {
	overlay string
	item    string
	poster  string
	path    string
	preview *kometa.OverlayPreview
	err     error
}

type overlaysState struct {
	data    overlaysMsg
	loaded  bool
	section overlaySection
	cursor  int

	posterSource string          // "" means tmdb
	picked       map[string]bool // builder ids marked for a new playlist
	previewing   string          // overlay being rendered
	lastPreview  string          // path of the last preview image
}

func (o overlaysState) poster() string {
	if o.posterSource == "" {
		return kometa.PosterTMDb
	}
	return o.posterSource
}

// builderIDs returns the builder ids in display order.
func (o overlaysState) builderIDs() []string {
	ids := make([]string, 0, len(o.data.builders))
	for id := range o.data.builders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// pickedBuilders returns the marked builder ids that still exist.
func (o overlaysState) pickedBuilders() []string {
	var out []string
	for _, id := range o.builderIDs() {
		if o.picked[id] {
			out = append(out, id)
		}
	}
	return out
}

// currentFile is the overlay file under the cursor in the Files section.
func (o overlaysState) currentFile() (kometa.OverlayFile, bool) {
	if o.section != overlayFiles || o.data.sources == nil {
		return kometa.OverlayFile{}, false
	}
	files := o.data.sources.Files
	if o.cursor < 0 || o.cursor >= len(files) {
		return kometa.OverlayFile{}, false
	}
	return files[o.cursor], true
}

// rows renders the active section as list lines.
func (o overlaysState) rows() ([]string, error) {
	d := o.data
	var out []string
	switch o.section {
	case overlayFiles:
		if d.sourcesErr != nil {
			return nil, d.sourcesErr
		}
		if d.sources == nil {
			return nil, nil
		}
		for _, f := range d.sources.Files {
			out = append(out, fmt.Sprintf("%-8s %s", f.Source, f.Name))
		}
	case overlayDefaults:
		if d.defaultsErr != nil {
			return nil, d.defaultsErr
		}
		for _, def := range d.defaults {
			line := fmt.Sprintf("%-28s %4d overlays %4d queues", def.Name, def.OverlayCount, def.QueueCount)
			if def.Error != "" {
				line += "  ! " + def.Error
			}
			out = append(out, line)
		}
	case overlayImages:
		if d.imagesErr != nil {
			return nil, d.imagesErr
		}
		for _, img := range d.images {
			out = append(out, img.Name)
		}
	case overlayPlaylists:
		if d.playErr != nil {
			return nil, d.playErr
		}
		for _, p := range d.playlists {
			out = append(out, fmt.Sprintf("%-28s %-20s %s", p.Name, p.SourceFile, strings.Join(p.BuilderNames(), ", ")))
		}
	case overlayBuilders:
		if d.buildersErr != nil {
			return nil, d.buildersErr
		}
		for _, id := range o.builderIDs() {
			b := d.builders[id]
			mark := "  "
			if o.picked[id] {
				mark = "● "
			}
			out = append(out, fmt.Sprintf("%s%-26s %-12s %s", mark, id, b.Category, strings.Join(b.Fields, ", ")))
		}
	}
	return out, nil
}

func (m Model) loadOverlays() tea.Cmd {
	svc := m.svc
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, RequestTimeout)
		defer cancel()
		var msg overlaysMsg
		msg.sources, msg.sourcesErr = svc.Overlays(ctx)
		msg.defaults, msg.defaultsErr = svc.DefaultOverlays(ctx)
		msg.images, msg.imagesErr = svc.OverlayImages(ctx)
		msg.playlists, msg.playErr = svc.Playlists(ctx)
		msg.builders, msg.buildersErr = svc.BuilderSources(ctx)
		return msg
	}
}

func (m Model) updateOverlays(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case overlaysMsg:
		m.overlays.data = msg
		m.overlays.loaded = true
		rows, _ := m.overlays.rows()
		m.overlays.cursor = clampIndex(m.overlays.cursor, len(rows))

	case playlistSubmitMsg:
		return m.savePlaylist(msg.req)

	case overlayPreviewRequestMsg:
		if m.svc == nil {
			return m, nil
		}
		m.overlays.previewing = msg.req.OverlayName
		return m, previewOverlayCmd(m.ctx, m.svc, msg.req, msg.item)

	case overlayPreviewMsg:
		if m.overlays.previewing == msg.overlay {
			m.overlays.previewing = ""
		}
		if msg.err != nil {
			m.toasts.Error(fmt.Sprintf("Preview %s failed: %s", msg.overlay, errorText(msg.err)))
			return m, nil
		}
		m.overlays.lastPreview = msg.path
		m.modal = newTextModal("overlay-preview", "Preview · "+msg.overlay, previewReport(msg))
	}
	return m, nil
}

// previewReport lists where the image went and what the backend reported.
func previewReport(msg overlayPreviewMsg) string {
	lines := []string{
		"Overlay  " + msg.overlay,
		"Item     " + msg.item,
		"Poster   " + msg.poster,
		"Image    " + msg.path,
		"Size     " + humanize.Bytes(uint64(len(msg.preview.Image))),
	}
	if keys := msg.preview.MetaKeys(); len(keys) > 0 {
		lines = append(lines, "")
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%-24s %s", k, msg.preview.Meta[k]))
		}
	}
	return strings.Join(lines, "\n")
}

// previewOverlayCmd renders req and writes the PNG to a temp file.
func previewOverlayCmd(parent context.Context, svc *query.Service, req kometa.OverlayPreviewRequest, item string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, RequestTimeout)
		defer cancel()
		msg := overlayPreviewMsg{overlay: req.OverlayName, item: item, poster: req.PosterSource}
		res, err := svc.PreviewOverlay(ctx, req)
		if err != nil {
			logger.LogError("preview overlay", err)
			msg.err = err
			return msg
		}
		msg.preview = res
		msg.path, msg.err = writePreviewImage(req.OverlayName, res.Image)
		if msg.err == nil {
			logger.Log("overlay preview %s on %s written to %s", req.OverlayName, item, msg.path)
		}
		return msg
	}
}

func writePreviewImage(overlay string, img []byte) (string, error) {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, overlay)
	f, err := os.CreateTemp("", "marquee-preview-"+name+"-*.png")
	if err != nil {
		return "", fmt.Errorf("create preview file: %w", err)
	}
	if _, err := f.Write(img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write preview file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close preview file: %w", err)
	}
	return f.Name(), nil
}

// startPreview asks for a library item, then renders the selected overlay
// file onto its poster.
func (m Model) startPreview() (tea.Model, tea.Cmd) {
	file, ok := m.overlays.currentFile()
	if !ok {
		return m, nil
	}
	if m.overlays.previewing != "" {
		m.toasts.Info("Still rendering " + m.overlays.previewing)
		return m, nil
	}
	items := m.library.items()
	if len(items) == 0 {
		m.toasts.Warn("Browse a library in the Library tab to pick an item")
		return m, nil
	}
	library := m.library.query.Library
	poster := m.overlays.poster()
	m.modal = newItemPickerModal("preview-item", "Preview "+file.Name+" on…", items, m.library.itemCursor,
		func(item kometa.MediaItem) tea.Cmd {
			req := kometa.OverlayPreviewRequest{
				OverlayName:  file.Name,
				MediaID:      item.RatingKey,
				PosterSource: poster,
				Library:      library,
			}
			return func() tea.Msg { return overlayPreviewRequestMsg{req: req, item: item.Label()} }
		})
	return m, nil
}

func (m Model) handleOverlaysKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	o := &m.overlays
	rows, _ := o.rows()
	switch {
	case key.Matches(msg, m.keys.Left):
		o.section = (o.section + overlaySectionCount - 1) % overlaySectionCount
		o.cursor = 0
	case key.Matches(msg, m.keys.Right):
		o.section = (o.section + 1) % overlaySectionCount
		o.cursor = 0
	case key.Matches(msg, m.keys.Up):
		o.cursor = clampIndex(o.cursor-1, len(rows))
	case key.Matches(msg, m.keys.Down):
		o.cursor = clampIndex(o.cursor+1, len(rows))
	case key.Matches(msg, m.keys.Top):
		o.cursor = 0
	case key.Matches(msg, m.keys.Bottom):
		o.cursor = clampIndex(len(rows)-1, len(rows))

	case key.Matches(msg, m.keys.Preview) && o.section == overlayFiles:
		return m.startPreview()

	case key.Matches(msg, m.keys.PosterSource) && o.section == overlayFiles:
		if o.poster() == kometa.PosterTMDb {
			o.posterSource = kometa.PosterPlex
		} else {
			o.posterSource = kometa.PosterTMDb
		}

	case key.Matches(msg, m.keys.Mark) && o.section == overlayBuilders:
		ids := o.builderIDs()
		if o.cursor < len(ids) {
			if o.picked == nil {
				o.picked = map[string]bool{}
			}
			id := ids[o.cursor]
			o.picked[id] = !o.picked[id]
			o.cursor = clampIndex(o.cursor+1, len(ids))
		}

	case key.Matches(msg, m.keys.NewPlaylist) && (o.section == overlayBuilders || o.section == overlayPlaylists):
		return m.startNewPlaylist()
	}
	return m, nil
}

func (m Model) renderOverlays(width, height int) string {
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	o := m.overlays

	var tabs []string
	for s := overlayFiles; s < overlaySectionCount; s++ {
		label := " " + s.String() + " "
		if s == o.section {
			tabs = append(tabs, styles.Selected.Render(label))
		} else {
			tabs = append(tabs, styles.MutedText.Render(label))
		}
	}
	lines := []string{strings.Join(tabs, " ")}

	if src := o.data.sources; src != nil && o.section == overlayFiles {
		lines = append(lines,
			styles.FaintText.Render(fmt.Sprintf("defaults %s (%s)  config %s (%s)",
				truncateMiddle(src.DefaultsDir, 30), yesNo(src.DefaultsExists),
				truncateMiddle(src.ConfigOverlaysDir, 30), yesNo(src.ConfigOverlaysExists))))
		status := "poster " + o.poster()
		switch {
		case o.previewing != "":
			status += "  rendering " + o.previewing + "..."
		case o.lastPreview != "":
			status += "  last preview " + truncateMiddle(o.lastPreview, 50)
		}
		lines = append(lines, styles.FaintText.Render(status))
	}
	if o.section == overlayBuilders {
		if picked := o.pickedBuilders(); len(picked) > 0 {
			lines = append(lines, styles.FaintText.Render("picked "+strings.Join(picked, ", ")))
		}
	}
	lines = append(lines, "")

	rows, err := o.rows()
	switch {
	case !o.loaded:
		lines = append(lines, styles.MutedText.Render("Loading..."))
	case err != nil:
		lines = append(lines, styles.DangerText.Render(errorText(err)))
	case len(rows) == 0:
		lines = append(lines, styles.MutedText.Render("Nothing here"))
	default:
		visible := height - 2 - len(lines)
		start := 0
		if o.cursor >= visible {
			start = o.cursor - visible + 1
		}
		for i := start; i < len(rows) && i-start < visible; i++ {
			line := truncate(rows[i], width-4)
			if i == o.cursor {
				line = styles.Selected.Render(padRight(line, width-4))
			}
			lines = append(lines, line)
		}
	}
	title := fmt.Sprintf("Overlays · %s (%d)", o.section, len(rows))
	return m.renderTitledBox(title, strings.Join(lines, "\n"), width, height, true)
}
