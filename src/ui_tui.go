package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
)

type uiState int

const (
	stateIdle uiState = iota
	statePreviewLoading
	stateReady
	stateOrganizing
	stateCanceling
)

type modalKind int

const (
	modalNone modalKind = iota
	modalError
	modalWarning
	modalConfirmMove
)

// form fields; the text inputs come first
const (
	fieldSource = iota
	fieldDest
	fieldSuffix
	fieldFrom
	fieldTo
	fieldAction
	fieldCount
)

type checklistRow struct {
	isYear bool
	year   int
	bucket Bucket
}

type model struct {
	fs       afero.Fs
	resolver Resolver
	logger   *log.Logger
	settings Settings

	state    uiState
	inputs   []textinput.Model
	action   Action
	focus    int
	spinner  spinner.Model
	progress progress.Model

	// Preview and selection
	preview      *Preview
	cfg          *OrganizerConfig
	rows         []checklistRow
	checked      map[Bucket]bool
	cursor       int
	scrollOffset int
	scanFound    int

	// Background work; seq discards messages from superseded runs
	seq          int
	cancel       context.CancelFunc
	lastProgress Progress
	quitAfter    bool

	status    string
	statusErr bool
	lastRun   string
	modal     modalKind
	modalText string

	width  int
	height int
}

type autoPreviewMsg struct{}

type scanProgressMsg struct {
	seq int
	ScanProgress
	next tea.Cmd
}

type previewReadyMsg struct {
	seq     int
	preview *Preview
	cfg     *OrganizerConfig
	err     error
}

type progressMsg struct {
	seq int
	Progress
}

type organizeDoneMsg struct {
	seq    int
	result *Result
	err    error
}

func initialModel(fs afero.Fs, resolver Resolver, logger *log.Logger, settings Settings, source, dest string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithoutPercentage(),
	)
	p.Width = 60

	inputs := make([]textinput.Model, fieldAction)
	placeholders := []string{"/path/to/photos", "/path/to/library", defaultSuffix, "YYYY-MM-DD (optional)", "YYYY-MM-DD (optional)"}
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = placeholders[i]
		ti.Width = 50
		inputs[i] = ti
	}
	inputs[fieldSource].SetValue(source)
	inputs[fieldDest].SetValue(dest)
	inputs[fieldSuffix].SetValue(settings.Suffix)
	inputs[fieldSource].Focus()

	action, _ := ParseAction(settings.Action)

	return model{
		fs:       fs,
		resolver: resolver,
		logger:   logger,
		settings: settings,
		state:    stateIdle,
		inputs:   inputs,
		action:   action,
		spinner:  s,
		progress: p,
		status:   "Set both folders to generate a preview",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, func() tea.Msg { return autoPreviewMsg{} })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		progressWidth := msg.Width - 35
		if progressWidth < 20 {
			progressWidth = 20
		}
		m.progress.Width = progressWidth
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.state != statePreviewLoading && m.state != stateOrganizing && m.state != stateCanceling {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case autoPreviewMsg:
		if m.state == stateIdle && m.inputs[fieldSource].Value() != "" && m.inputs[fieldDest].Value() != "" {
			return m.startPreview(true)
		}
		return m, nil

	case scanProgressMsg:
		if msg.seq != m.seq || m.state != statePreviewLoading {
			return m, nil
		}
		m.scanFound = msg.Found
		return m, msg.next

	case eventMsg:
		next, cmd := m.Update(msg.msg)
		if _, done := msg.msg.(organizeDoneMsg); done {
			return next, cmd
		}
		return next, tea.Batch(cmd, msg.next)

	case previewReadyMsg:
		if msg.seq != m.seq || m.state != statePreviewLoading {
			return m, nil
		}
		m.cancel = nil
		if msg.err != nil {
			m.state = stateIdle
			if errors.Is(msg.err, context.Canceled) {
				m.setStatus("Preview canceled", false)
				return m, nil
			}
			return m.showModal(modalError, msg.err.Error()), nil
		}
		m.preview = msg.preview
		m.cfg = msg.cfg
		m.buildChecklist()
		m.state = stateReady
		totals := m.preview.Totals()
		m.setStatus(fmt.Sprintf("Preview ready: %d files in %d folders (%d new, %d updated). Select folders and start organizing.",
			m.preview.Files, len(m.preview.Buckets), totals.New, totals.Updated), false)
		return m, nil

	case progressMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.lastProgress = msg.Progress
		return m, nil

	case organizeDoneMsg:
		if msg.seq != m.seq {
			return m, nil
		}
		m.cancel = nil
		m.state = stateIdle
		m.lastProgress = Progress{}
		if msg.err != nil {
			m = m.showModal(modalError, msg.err.Error())
		} else {
			m.lastRun = summarizeResult(msg.result, m.cfg.Action)
		}
		if m.quitAfter {
			return m, tea.Quit
		}
		if msg.err != nil {
			return m, nil
		}
		// Reload so the counts reflect the new destination state
		return m.startPreview(true)
	}

	// Cursor blink and friends
	if m.state == stateIdle && m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.modal != modalNone {
		return m.handleModalKey(key)
	}

	switch m.state {
	case stateIdle:
		return m.handleIdleKey(msg)

	case statePreviewLoading:
		switch key {
		case "ctrl+c":
			m.cancelWork()
			return m, tea.Quit
		case "esc":
			m.cancelWork()
			m.state = stateIdle
			m.seq++
			m.setStatus("Preview canceled", false)
		}
		return m, nil

	case stateReady:
		return m.handleReadyKey(key)

	case stateOrganizing, stateCanceling:
		switch key {
		case "c", "esc":
			if m.state == stateOrganizing {
				m.cancelWork()
				m.state = stateCanceling
				m.setStatus("Canceling after the current file...", false)
			}
		case "ctrl+c", "q":
			m.cancelWork()
			m.state = stateCanceling
			m.quitAfter = true
		}
		return m, nil
	}

	return m, nil
}

func (m model) handleModalKey(key string) (tea.Model, tea.Cmd) {
	if m.modal == modalConfirmMove {
		switch key {
		case "y", "Y":
			m.modal = modalNone
			return m.startOrganize()
		case "n", "N", "esc", "q":
			m.modal = modalNone
			m.setStatus("Move canceled", false)
		}
		return m, nil
	}

	switch key {
	case "enter", "esc", " ", "space", "q":
		m.modal = modalNone
		m.modalText = ""
	case "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m model) handleIdleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.preview != nil {
			return m.resumeReady()
		}
		return m, tea.Quit
	case "tab", "down":
		return m.setFocus((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	case "ctrl+p":
		return m.startPreview(false)
	case "enter":
		if m.focus == fieldAction {
			m.toggleAction()
			return m, nil
		}
		return m.startPreview(false)
	}

	if m.focus == fieldAction {
		switch msg.String() {
		case " ", "space", "left", "right", "h", "l":
			m.toggleAction()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m model) handleReadyKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.scrollOffset {
				m.scrollOffset = m.cursor
			}
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			maxVisible := m.visibleRows()
			if m.cursor >= m.scrollOffset+maxVisible {
				m.scrollOffset = m.cursor - maxVisible + 1
			}
		}

	case " ", "space", "x":
		m.toggleRow(m.cursor)

	case "a":
		on := !m.allChecked()
		for b := range m.checked {
			m.checked[b] = on
		}

	case "e":
		m.state = stateIdle
		return m.setFocus(m.focus)

	case "r":
		return m.startPreview(false)

	case "s", "enter":
		if !anySelected(m.checked) {
			return m.showModal(modalWarning, "No folders selected to organize."), nil
		}
		if m.cfg.Action == ActionMove {
			return m.showModal(modalConfirmMove, "Are you sure you want to move files? Moved files are removed from the source folder."), nil
		}
		return m.startOrganize()
	}

	return m, nil
}

func (m model) setFocus(i int) (tea.Model, tea.Cmd) {
	m.focus = i
	m.blurInputs()
	if i < len(m.inputs) {
		return m, m.inputs[i].Focus()
	}
	return m, nil
}

func (m *model) blurInputs() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

func (m *model) toggleAction() {
	if m.action == ActionMove {
		m.action = ActionCopy
	} else {
		m.action = ActionMove
	}
}

func (m *model) setStatus(s string, isErr bool) {
	m.status = s
	m.statusErr = isErr
}

func (m model) showModal(kind modalKind, text string) model {
	m.modal = kind
	m.modalText = text
	return m
}

func (m *model) cancelWork() {
	if m.cancel != nil {
		m.cancel()
	}
}

// buildConfig turns the form into a validated run configuration
func (m model) buildConfig() (*OrganizerConfig, error) {
	cfg := &OrganizerConfig{}
	m.settings.Apply(cfg)
	cfg.SourceDir = expandHome(strings.TrimSpace(m.inputs[fieldSource].Value()))
	cfg.DestDir = expandHome(strings.TrimSpace(m.inputs[fieldDest].Value()))
	cfg.Suffix = m.inputs[fieldSuffix].Value()
	cfg.Action = m.action

	var err error
	if cfg.From, err = ParseDate(m.inputs[fieldFrom].Value()); err != nil {
		return nil, err
	}
	if cfg.To, err = ParseDate(m.inputs[fieldTo].Value()); err != nil {
		return nil, err
	}
	if err := cfg.Validate(m.fs); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resumeReady returns from editing to the checklist. An action change is
// carried into the previewed config; any change to the folders, suffix or
// date range invalidates the preview and reloads it.
func (m model) resumeReady() (tea.Model, tea.Cmd) {
	cfg, err := m.buildConfig()
	if err != nil {
		return m.showModal(modalError, err.Error()), nil
	}
	if !sameScope(cfg, m.cfg) {
		return m.startPreview(false)
	}

	kept := *m.cfg
	kept.Action = cfg.Action
	m.cfg = &kept
	m.state = stateReady
	m.blurInputs()
	return m, nil
}

// sameScope reports whether two configs select and place the same files
func sameScope(a, b *OrganizerConfig) bool {
	if a == nil || b == nil {
		return false
	}
	return a.SourceDir == b.SourceDir &&
		a.DestDir == b.DestDir &&
		a.Suffix == b.Suffix &&
		a.Layout == b.Layout &&
		sameDay(a.From, b.From) &&
		sameDay(a.To, b.To)
}

func sameDay(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// startPreview validates the form and loads a preview in the background.
// quiet suppresses the error modal for automatic reloads.
func (m model) startPreview(quiet bool) (tea.Model, tea.Cmd) {
	cfg, err := m.buildConfig()
	if err != nil {
		m.state = stateIdle
		if quiet {
			m.setStatus(err.Error(), true)
			return m, nil
		}
		return m.showModal(modalError, err.Error()), nil
	}

	m.seq++
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.state = statePreviewLoading
	m.scanFound = 0
	m.blurInputs()
	m.setStatus("Scanning "+cfg.SourceDir+"...", false)

	scanChan := make(chan ScanProgress, 100)
	org := NewOrganizer(m.fs, m.resolver, m.logger)
	org.ScanProgress = scanChan

	return m, tea.Batch(
		loadPreview(ctx, org, cfg, m.seq, scanChan),
		waitForScan(scanChan, m.seq),
		m.spinner.Tick,
	)
}

func (m model) startOrganize() (tea.Model, tea.Cmd) {
	cfg := *m.cfg
	cfg.Included = make(map[Bucket]bool)
	for b, on := range m.checked {
		if on {
			cfg.Included[b] = true
		}
	}

	m.seq++
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.state = stateOrganizing
	m.lastProgress = Progress{}
	m.lastRun = ""
	m.setStatus(fmt.Sprintf("%s files...", actionVerb(cfg.Action, true)), false)

	org := NewOrganizer(m.fs, m.resolver, m.logger)
	org.LockDestination = true
	events := make(chan tea.Msg, 64)

	return m, tea.Batch(
		runOrganize(ctx, org, &cfg, m.seq, events),
		m.spinner.Tick,
	)
}

func (m *model) buildChecklist() {
	m.rows = nil
	m.checked = make(map[Bucket]bool)
	year := 0
	for _, bp := range m.preview.Buckets {
		if bp.Bucket.Year != year {
			year = bp.Bucket.Year
			m.rows = append(m.rows, checklistRow{isYear: true, year: year})
		}
		m.rows = append(m.rows, checklistRow{year: year, bucket: bp.Bucket})
		m.checked[bp.Bucket] = true
	}
	m.cursor = 0
	m.scrollOffset = 0
}

func (m *model) toggleRow(i int) {
	if i < 0 || i >= len(m.rows) {
		return
	}
	row := m.rows[i]
	if !row.isYear {
		m.checked[row.bucket] = !m.checked[row.bucket]
		return
	}
	on := !m.yearChecked(row.year)
	for b := range m.checked {
		if b.Year == row.year {
			m.checked[b] = on
		}
	}
}

func (m model) yearChecked(year int) bool {
	for b, on := range m.checked {
		if b.Year == year && !on {
			return false
		}
	}
	return true
}

func (m model) allChecked() bool {
	for _, on := range m.checked {
		if !on {
			return false
		}
	}
	return true
}

func (m model) visibleRows() int {
	if m.height <= 0 {
		return 15
	}
	n := m.height - 22
	if n < 5 {
		n = 5
	}
	return n
}

// Commands

func loadPreview(ctx context.Context, org *Organizer, cfg *OrganizerConfig, seq int, scanChan chan ScanProgress) tea.Cmd {
	return func() tea.Msg {
		preview, err := org.Preview(ctx, cfg)
		close(scanChan)
		return previewReadyMsg{seq: seq, preview: preview, cfg: cfg, err: err}
	}
}

// waitForScan relays walk progress until the preview closes the channel
func waitForScan(scanChan <-chan ScanProgress, seq int) tea.Cmd {
	return func() tea.Msg {
		prog, ok := <-scanChan
		if !ok {
			return nil
		}
		return scanProgressMsg{seq: seq, ScanProgress: prog, next: waitForScan(scanChan, seq)}
	}
}

// runOrganize starts the worker; it emits progress then one done message.
// The UI goroutine is the only consumer.
func runOrganize(ctx context.Context, org *Organizer, cfg *OrganizerConfig, seq int, events chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			defer close(events)
			result, err := org.Organize(ctx, cfg, func(p Progress) {
				events <- progressMsg{seq: seq, Progress: p}
			})
			events <- organizeDoneMsg{seq: seq, result: result, err: err}
		}()
		return waitForEvent(events)()
	}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{msg: msg, next: waitForEvent(events)}
	}
}

// eventMsg carries one worker event plus the command that reads the next
type eventMsg struct {
	msg  tea.Msg
	next tea.Cmd
}

func actionVerb(a Action, progressive bool) string {
	switch {
	case a == ActionMove && progressive:
		return "Moving"
	case a == ActionMove:
		return "moved"
	case progressive:
		return "Copying"
	default:
		return "copied"
	}
}

func summarizeResult(r *Result, a Action) string {
	done := r.Copied + r.Moved
	s := fmt.Sprintf("%s: %d of %d files %s", strings.ToUpper(r.Status()[:1])+r.Status()[1:], done, r.Total, actionVerb(a, false))
	if r.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	if r.Failed > 0 {
		s += fmt.Sprintf(", %d failed", r.Failed)
	}
	return s
}
