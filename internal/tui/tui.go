// Package tui provides a Bubble Tea TUI for browsing one day of activity.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/worklens/worklens/internal/activity"
	"github.com/worklens/worklens/internal/summary"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Active tab: bright, underlined
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	// Inactive tab: muted
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	// Separator between tabs
	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	// Section heading inside a tab
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	// Key=value label
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	categoryStyles = map[string]lipgloss.Style{
		activity.CategoryCoding:        lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true),
		activity.CategoryWriting:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		activity.CategoryBrowsing:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		activity.CategoryCommunication: lipgloss.NewStyle().Foreground(lipgloss.Color("171")).Bold(true),
		activity.CategoryMeeting:       lipgloss.NewStyle().Foreground(lipgloss.Color("129")).Bold(true),
	}
	categoryDefaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true)
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabTimeline tabID = iota
	tabCategories
	tabSummary
	tabCount
)

var tabNames = [tabCount]string{"Timeline", "Categories", "Summary"}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the day view.
type Model struct {
	date      string
	records   []activity.Record
	summary   string
	stats     summary.Stats
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool
	sortAsc   bool
}

// New creates a day-view model. summaryText may be empty when no summary has
// been generated yet.
func New(date string, records []activity.Record, summaryText string) Model {
	return Model{
		date:    date,
		records: records,
		summary: summaryText,
		stats:   summary.DayStats(records),
		sortAsc: true,
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % tabCount
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		case "1", "2", "3":
			m.activeTab = tabID(msg.String()[0] - '1')
		case "s":
			if m.activeTab == tabTimeline {
				m.sortAsc = !m.sortAsc
				m.viewports[tabTimeline].SetContent(m.renderTab(tabTimeline))
				m.viewports[tabTimeline].GotoTop()
			}
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  worklens  " + m.date)

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-3 jump  q quit"
	if m.activeTab == tabTimeline {
		dir := "oldest first"
		if !m.sortAsc {
			dir = "newest first"
		}
		hint += "  s sort (" + dir + ")"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + pct,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	switch t {
	case tabTimeline:
		return m.renderTimeline()
	case tabCategories:
		return m.renderCategories()
	case tabSummary:
		return m.renderSummary()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func categoryBadge(cat string) string {
	style, ok := categoryStyles[cat]
	if !ok {
		style = categoryDefaultStyle
	}
	return style.Render(fmt.Sprintf("%-13s", cat))
}

func (m *Model) renderTimeline() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Activity (%d records)", len(m.records))))
	if len(m.records) == 0 {
		sb.WriteString(dimStyle.Render("  (no activity recorded)") + "\n")
		return sb.String()
	}

	records := make([]activity.Record, len(m.records))
	copy(records, m.records)
	sort.Slice(records, func(i, j int) bool {
		if m.sortAsc {
			return records[i].Timestamp.Before(records[j].Timestamp)
		}
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	for _, rec := range records {
		ts := timeStyle.Render(rec.Timestamp.Format("15:04"))
		cat := "pending"
		desc := rec.AppName
		if rec.WindowTitle != "" {
			desc += "  " + dimStyle.Render(rec.WindowTitle)
		}
		if rec.Analyzed {
			if rec.Category != nil {
				cat = *rec.Category
			}
			if rec.Description != nil && *rec.Description != "" {
				desc = *rec.Description + "  " + dimStyle.Render(rec.AppName)
			}
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n\n", ts, categoryBadge(cat), desc))
	}
	return sb.String()
}

func (m *Model) renderCategories() string {
	var sb strings.Builder
	sb.WriteString(heading("Category Breakdown"))
	if m.stats.RecordCount == 0 {
		sb.WriteString(dimStyle.Render("  (no analyzed records)") + "\n")
		return sb.String()
	}

	type catCount struct {
		name  string
		count int
	}
	cats := make([]catCount, 0, len(m.stats.Categories))
	for name, count := range m.stats.Categories {
		cats = append(cats, catCount{name, count})
	}
	sort.Slice(cats, func(i, j int) bool {
		if cats[i].count != cats[j].count {
			return cats[i].count > cats[j].count
		}
		return cats[i].name < cats[j].name
	})

	barWidth := m.width - 40
	if barWidth < 10 {
		barWidth = 10
	}
	for _, c := range cats {
		pct := float64(c.count) / float64(m.stats.RecordCount)
		filled := int(pct * float64(barWidth))
		bar := barStyle.Render(strings.Repeat("█", filled)) +
			dimStyle.Render(strings.Repeat("░", barWidth-filled))
		sb.WriteString(fmt.Sprintf("  %s  %s %3d (%4.1f%%)\n\n",
			categoryBadge(c.name), bar, c.count, pct*100))
	}

	sb.WriteString(heading("Main Tools"))
	if len(m.stats.TopApps) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
	}
	for i, app := range m.stats.TopApps {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("  %d.", i+1)) + "  " + app + "\n")
	}
	return sb.String()
}

func (m *Model) renderSummary() string {
	var sb strings.Builder
	sb.WriteString(heading("Day at a Glance"))

	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s", label)) + "  " + value + "\n")
	}
	row("Date:", m.date)
	row("Records:", fmt.Sprintf("%d analyzed", m.stats.RecordCount))
	row("Engaged Time:", fmt.Sprintf("%.1f hours", m.stats.Hours))
	if len(m.stats.TopApps) > 0 {
		row("Main Tools:", strings.Join(m.stats.TopApps, ", "))
	}

	sb.WriteString(heading("Daily Summary"))
	if m.summary == "" {
		sb.WriteString(dimStyle.Render("  (no summary generated for this day)") + "\n")
		return sb.String()
	}
	sb.WriteString(indent(wrap(m.summary, m.width-6), "   ") + "\n")
	return sb.String()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// wrap breaks s into lines no longer than width runes, on word boundaries.
func wrap(s string, width int) string {
	if width < 20 {
		width = 20
	}
	var sb strings.Builder
	for _, paragraph := range strings.Split(s, "\n") {
		lineLen := 0
		for _, word := range strings.Fields(paragraph) {
			wlen := len([]rune(word))
			if lineLen > 0 && lineLen+1+wlen > width {
				sb.WriteString("\n")
				lineLen = 0
			} else if lineLen > 0 {
				sb.WriteString(" ")
				lineLen++
			}
			sb.WriteString(word)
			lineLen += wlen
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Run starts the day view.
func Run(date string, records []activity.Record, summaryText string) error {
	p := tea.NewProgram(New(date, records, summaryText), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
