package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/policy"
	"nathanbeddoewebdev/devsweep/internal/tui/components"
	"nathanbeddoewebdev/devsweep/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// --- Messages ---

type devicesLoadedMsg struct {
	devices []domain.Device
}

type devicesErrorMsg struct {
	err error
}

// --- Browse phases ---

type browsePhase int

const (
	browsePhaseList browsePhase = iota
	browsePhaseDetail
)

// --- Device browse model ---

type deviceBrowseModel struct {
	provider     domain.Provider
	providerName string

	// threshold marks the staleness cutoff used to badge rows.
	threshold time.Time

	devices []domain.Device
	cursor  int
	phase   browsePhase

	width  int
	height int

	loading bool
	spinner spinner.Model
	err     error
	status  string
}

// RunDeviceBrowse starts the full-window interactive device browser.
// Rows are badged against the staleness cutoff derived from daysBack.
func RunDeviceBrowse(provider domain.Provider, providerName string, daysBack int) error {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.Blue)

	m := deviceBrowseModel{
		provider:     provider,
		providerName: providerName,
		threshold:    policy.Threshold(time.Now(), daysBack),
		loading:      true,
		spinner:      s,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run device browser: %w", err)
	}
	return nil
}

func (m deviceBrowseModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.fetchDevices(),
	)
}

// fetchDevices lists every device in the directory; staleness is badged
// client-side so the browser shows the whole estate, not just matches.
func (m deviceBrowseModel) fetchDevices() tea.Cmd {
	return func() tea.Msg {
		devices, err := m.provider.ListDevices(context.Background(), domain.DeviceQuery{})
		if err != nil {
			return devicesErrorMsg{err: err}
		}
		return devicesLoadedMsg{devices: devices}
	}
}

// --- Update ---

func (m deviceBrowseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case devicesLoadedMsg:
		m.loading = false
		m.devices = msg.devices
		m.err = nil
		if m.cursor >= len(m.devices) {
			m.cursor = 0
		}
		if len(m.devices) == 0 {
			m.status = "No devices found."
		} else {
			m.status = fmt.Sprintf("%d device(s) - %d stale", len(m.devices), m.countStale())
		}
		return m, nil

	case devicesErrorMsg:
		m.loading = false
		m.err = msg.err
		m.status = ""
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

func (m deviceBrowseModel) countStale() int {
	count := 0
	for _, d := range m.devices {
		if deviceState(d, m.threshold) == "stale" {
			count++
		}
	}
	return count
}

// deviceState classifies a device for display. Disabled wins over stale;
// a device with no recorded sign-in is not badged stale because the
// directory filter would never have matched it either.
func deviceState(d domain.Device, threshold time.Time) string {
	if !d.AccountEnabled {
		return "disabled"
	}
	if d.HasSignInActivity() && !d.ApproxLastSignIn.After(threshold) {
		return "stale"
	}
	return "enabled"
}

// --- Key handling ---

func (m deviceBrowseModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil
	}

	if m.phase == browsePhaseDetail {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc", "enter", "q":
			m.phase = browsePhaseList
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.devices)-1 {
			m.cursor++
		}

	case "g":
		m.cursor = 0

	case "G":
		if len(m.devices) > 0 {
			m.cursor = len(m.devices) - 1
		}

	case "enter":
		if len(m.devices) > 0 {
			m.phase = browsePhaseDetail
		}

	case "r":
		m.loading = true
		m.err = nil
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, m.fetchDevices())
	}

	return m, nil
}

// --- View ---

func (m deviceBrowseModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	breadcrumb := "device browse"
	if m.phase == browsePhaseDetail {
		breadcrumb = "device browse > detail"
	}
	header := components.Header(m.width, breadcrumb, m.providerName)

	var footerBindings []components.KeyBinding
	switch {
	case m.loading:
		footerBindings = []components.KeyBinding{
			{Key: "ctrl+c", Desc: "quit"},
		}
	case m.phase == browsePhaseDetail:
		footerBindings = []components.KeyBinding{
			{Key: "esc", Desc: "back"},
			{Key: "ctrl+c", Desc: "quit"},
		}
	default:
		footerBindings = []components.KeyBinding{
			{Key: "j/k", Desc: "navigate"},
			{Key: "enter", Desc: "detail"},
			{Key: "r", Desc: "refresh"},
			{Key: "q", Desc: "quit"},
		}
	}
	footer := components.Footer(m.width, footerBindings)

	statusBar := ""
	if m.err != nil {
		statusBar = components.StatusBar(m.width, "Error: "+m.err.Error(), true)
	} else if m.status != "" && m.phase == browsePhaseList {
		statusBar = components.StatusBar(m.width, m.status, false)
	}

	headerH := lipgloss.Height(header)
	footerH := lipgloss.Height(footer)
	statusH := lipgloss.Height(statusBar)
	contentH := m.height - headerH - footerH - statusH
	if contentH < 1 {
		contentH = 1
	}

	content := m.renderContent(contentH)

	sections := []string{header, content}
	if statusBar != "" {
		sections = append(sections, statusBar)
	}
	sections = append(sections, footer)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m deviceBrowseModel) renderContent(height int) string {
	if m.loading {
		loadingText := m.spinner.View() + "  Fetching devices…"
		return lipgloss.Place(
			m.width, height,
			lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render(loadingText),
		)
	}

	if m.err != nil {
		return lipgloss.Place(
			m.width, height,
			lipgloss.Center, lipgloss.Center,
			styles.ErrorText.Render("Failed to load devices"),
		)
	}

	if len(m.devices) == 0 {
		return lipgloss.Place(
			m.width, height,
			lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("No devices found."),
		)
	}

	if m.phase == browsePhaseDetail {
		return m.renderDetail(height)
	}

	return m.renderTable(height)
}

func (m deviceBrowseModel) renderTable(height int) string {
	type column struct {
		title string
		width int
	}

	available := m.width - 4 // 2 padding on each side

	cols := []column{
		{title: "NAME", width: 22},
		{title: "STATE", width: 10},
		{title: "OS", width: 10},
		{title: "VERSION", width: 12},
		{title: "TRUST", width: 11},
		{title: "LAST SIGN-IN", width: 21},
	}

	totalMin := 0
	for _, c := range cols {
		totalMin += c.width
	}

	// Object IDs are long; only show them when the terminal has room.
	showID := available >= totalMin+14
	if showID {
		cols = append(cols, column{title: "ID", width: 14})
	}

	// Distribute remaining width to the NAME column.
	total := 0
	for _, c := range cols {
		total += c.width
	}
	if available > total {
		extra := available - total
		for i := range cols {
			if cols[i].title == "NAME" {
				cols[i].width += extra
				break
			}
		}
	}

	headerCells := make([]string, len(cols))
	for i, col := range cols {
		headerCells[i] = styles.TableHeader.
			Width(col.width).
			Render(col.title)
	}
	headerRow := lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)

	sep := styles.MutedText.Render(strings.Repeat("─", available))

	visibleRows := height - 3 // header + sep + bottom padding
	if visibleRows < 1 {
		visibleRows = 1
	}

	// Scrolling: keep cursor visible.
	startIdx := 0
	if m.cursor >= visibleRows {
		startIdx = m.cursor - visibleRows + 1
	}
	endIdx := startIdx + visibleRows
	if endIdx > len(m.devices) {
		endIdx = len(m.devices)
		startIdx = endIdx - visibleRows
		if startIdx < 0 {
			startIdx = 0
		}
	}

	rows := make([]string, 0, visibleRows)
	for i := startIdx; i < endIdx; i++ {
		d := m.devices[i]
		isSelected := i == m.cursor
		state := deviceState(d, m.threshold)

		cells := make([]string, 0, len(cols))
		for _, col := range cols {
			var value string
			switch col.title {
			case "NAME":
				value = truncate(d.DisplayName, col.width-2)
			case "STATE":
				if isSelected {
					value = truncate(state, col.width-2)
				} else {
					cells = append(cells, styles.StatusStyle(state).
						Width(col.width).
						Padding(0, 1).
						Render(state))
					continue
				}
			case "OS":
				value = truncate(d.OperatingSystem, col.width-2)
			case "VERSION":
				value = truncate(d.OperatingSystemVersion, col.width-2)
			case "TRUST":
				value = truncate(d.TrustType, col.width-2)
			case "LAST SIGN-IN":
				value = truncate(formatSignIn(d), col.width-2)
			case "ID":
				value = truncate(d.ID, col.width-2)
			}

			cellStyle := styles.TableCell.Width(col.width)
			if isSelected {
				cellStyle = styles.TableSelectedRow.Width(col.width)
			}
			cells = append(cells, cellStyle.Render(value))
		}

		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	// Pad remaining space with empty rows.
	for len(rows) < visibleRows {
		rows = append(rows, "")
	}

	table := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{headerRow, sep}, rows...)...,
	)

	return lipgloss.NewStyle().
		Padding(0, 2).
		Render(table)
}

func (m deviceBrowseModel) renderDetail(height int) string {
	d := m.devices[m.cursor]
	state := deviceState(d, m.threshold)

	labelWidth := 16
	row := func(label, value string) string {
		if value == "" {
			value = styles.MutedText.Render("(none)")
		} else {
			value = styles.Value.Render(value)
		}
		return styles.Label.Width(labelWidth).Render(label) + value
	}

	os := d.OperatingSystem
	if d.OperatingSystemVersion != "" {
		os += " " + d.OperatingSystemVersion
	}

	registered := ""
	if !d.RegisteredAt.IsZero() {
		registered = policy.FormatInstant(d.RegisteredAt)
	}

	lines := []string{
		row("Name", d.DisplayName),
		styles.Label.Width(labelWidth).Render("State") + styles.StatusIndicator(state),
		row("Object ID", d.ID),
		row("Device ID", d.DeviceID),
		row("OS", os),
		row("Trust type", d.TrustType),
		row("Profile type", d.ProfileType),
		row("Registered", registered),
		row("Last sign-in", formatSignIn(d)),
		row("Directory", m.provider.GetDisplayName()),
	}

	card := styles.Card.Width(64).Render(strings.Join(lines, "\n"))
	title := styles.Title.Render(d.DisplayName)

	combined := lipgloss.JoinVertical(lipgloss.Center, title, "", card)

	return lipgloss.Place(
		m.width, height,
		lipgloss.Center, lipgloss.Center,
		combined,
	)
}

// formatSignIn renders a device's last sign-in instant, or "never" when
// the directory has no recorded activity.
func formatSignIn(d domain.Device) string {
	if !d.HasSignInActivity() {
		return "never"
	}
	return policy.FormatInstant(d.ApproxLastSignIn)
}

// truncate shortens a string to fit the given display width with an
// ellipsis. ANSI-aware so styled values do not count escape sequences.
func truncate(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	return ansi.Truncate(s, maxWidth, "…")
}
