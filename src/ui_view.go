package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			MarginLeft(2)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle    = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("250"))
	focusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	newStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	updatedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	existingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230"))
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginLeft(2)
	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			MarginLeft(2)
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Photo Organizer"))
	b.WriteString("\n\n")

	b.WriteString(m.renderForm())
	b.WriteString("\n")

	if m.lastRun != "" {
		b.WriteString("  " + doneStyle.Render("✓ "+m.lastRun) + "\n")
	}

	switch m.state {
	case statePreviewLoading:
		b.WriteString(fmt.Sprintf("  %s %s\n", m.spinner.View(), m.status))
		if m.scanFound > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  Found %d photos", m.scanFound)))
			b.WriteString("\n")
		}

	case stateOrganizing, stateCanceling:
		b.WriteString(fmt.Sprintf("  %s %s\n\n", m.spinner.View(), m.status))
		b.WriteString(m.renderProgress())

	default:
		if m.statusErr {
			b.WriteString("  " + errorStyle.Render(m.status) + "\n")
		} else {
			b.WriteString("  " + m.status + "\n")
		}
	}

	if m.preview != nil && m.state != stateOrganizing && m.state != stateCanceling {
		b.WriteString("\n")
		b.WriteString(m.renderChecklist())
	}

	if m.modal != modalNone {
		b.WriteString("\n")
		b.WriteString(m.renderModal())
		b.WriteString("\n")
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(m.helpText()))
	b.WriteString("\n")

	return b.String()
}

func (m model) renderForm() string {
	var b strings.Builder
	labels := []string{"Source", "Destination", "Suffix", "From", "To"}
	editing := m.state == stateIdle

	for i, ti := range m.inputs {
		label := labelStyle.Render(labels[i])
		if editing && m.focus == i {
			label = focusStyle.Width(12).Render(labels[i])
		}
		value := ti.View()
		if !editing {
			value = dimStyle.Render(ti.Value())
		}
		b.WriteString(fmt.Sprintf("  %s %s\n", label, value))
	}

	label := labelStyle.Render("Action")
	if editing && m.focus == fieldAction {
		label = focusStyle.Width(12).Render("Action")
	}
	copyOpt, moveOpt := "( ) copy", "( ) move"
	if m.action == ActionMove {
		moveOpt = "(•) move"
	} else {
		copyOpt = "(•) copy"
	}
	b.WriteString(fmt.Sprintf("  %s %s  %s\n", label, copyOpt, moveOpt))
	return b.String()
}

func (m model) renderProgress() string {
	p := m.lastProgress
	if p.Total == 0 {
		return "  Planning...\n"
	}

	var b strings.Builder
	percent := float64(p.Processed) / float64(p.Total)
	b.WriteString("  ")
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString(fmt.Sprintf(" %d%% (%d/%d files)\n", int(percent*100), p.Processed, p.Total))

	if p.Source != "" {
		maxLen := m.width - 20
		if maxLen < 40 {
			maxLen = 40
		}
		fileStyle := lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			MarginLeft(2)
		b.WriteString("\n")
		b.WriteString(fileStyle.Render(fmt.Sprintf("%s %s", p.Outcome, truncatePath(p.Source, maxLen))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderChecklist() string {
	if len(m.rows) == 0 {
		return dimStyle.Render("  No photos found in range") + "\n"
	}

	var b strings.Builder
	totals := m.preview.Totals()
	b.WriteString(fmt.Sprintf("  %s %s %s  %s\n\n",
		newStyle.Render(fmt.Sprintf("%d new", totals.New)),
		updatedStyle.Render(fmt.Sprintf("%d updated", totals.Updated)),
		existingStyle.Render(fmt.Sprintf("%d existing", totals.Existing)),
		dimStyle.Render(humanize.Bytes(uint64(totals.Bytes)))))

	stats := make(map[Bucket]BucketPreview, len(m.preview.Buckets))
	for _, bp := range m.preview.Buckets {
		stats[bp.Bucket] = bp
	}

	maxVisible := m.visibleRows()
	start := m.scrollOffset
	end := start + maxVisible
	if end > len(m.rows) {
		end = len(m.rows)
	}

	interactive := m.state == stateReady && m.modal == modalNone
	for i := start; i < end; i++ {
		row := m.rows[i]
		var line string
		if row.isYear {
			line = fmt.Sprintf("%s %d", checkbox(m.yearChecked(row.year)), row.year)
		} else {
			bp := stats[row.bucket]
			line = fmt.Sprintf("    %s %s  %s  %s  %s",
				checkbox(m.checked[row.bucket]),
				bp.Folder,
				countCell(bp.Stats.New, "new", newStyle),
				countCell(bp.Stats.Updated, "updated", updatedStyle),
				countCell(bp.Stats.Existing, "existing", existingStyle))
		}

		if interactive && i == m.cursor {
			b.WriteString("  " + selectedStyle.Render("► "+line))
		} else {
			b.WriteString("    " + line)
		}
		b.WriteString("\n")
	}

	if end < len(m.rows) {
		b.WriteString(dimStyle.Render(fmt.Sprintf("\n  ... %d more ...", len(m.rows)-end)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderModal() string {
	style := modalStyle
	title := "Error"
	hint := "enter: dismiss"
	switch m.modal {
	case modalError:
		style = style.BorderForeground(lipgloss.Color("196"))
	case modalWarning:
		style = style.BorderForeground(lipgloss.Color("214"))
		title = "Warning"
	case modalConfirmMove:
		style = style.BorderForeground(lipgloss.Color("214"))
		title = "Confirm move"
		hint = "y: move files • n: cancel"
	}
	return style.Render(fmt.Sprintf("%s\n\n%s\n\n%s", lipgloss.NewStyle().Bold(true).Render(title), m.modalText, dimStyle.Render(hint)))
}

func (m model) helpText() string {
	if m.modal != modalNone {
		return ""
	}
	switch m.state {
	case stateIdle:
		return "tab/↑/↓: field • space: toggle action • enter: preview • esc: back/quit • ctrl+c: quit"
	case statePreviewLoading:
		return "esc: cancel • ctrl+c: quit"
	case stateReady:
		return "↑/↓: navigate • space: toggle • a: toggle all • s: start • e: edit • r: reload • q: quit"
	case stateOrganizing:
		return "c/esc: cancel • q: cancel & quit"
	default:
		return "waiting for the current file..."
	}
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func countCell(n int, label string, style lipgloss.Style) string {
	s := fmt.Sprintf("%d %s", n, label)
	if n == 0 {
		return dimStyle.Render(s)
	}
	return style.Render(s)
}

// truncatePath shortens a file path for display
func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}

	if maxLen > 10 {
		return "..." + path[len(path)-maxLen+3:]
	}

	return path[:maxLen]
}
