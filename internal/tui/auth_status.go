package tui

import (
	"errors"
	"fmt"

	platformproviders "nathanbeddoewebdev/devsweep/internal/platform/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
	"nathanbeddoewebdev/devsweep/internal/tui/components"
	"nathanbeddoewebdev/devsweep/internal/tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Provider status ---

type providerStatus struct {
	name   string
	status string
	ok     bool
}

// specStatus checks every credential key a provider needs and summarizes
// the result. A static token saved via "auth login --token" stands in
// for the full credential set.
func specStatus(store auth.Store, spec platformproviders.CredentialSpec) providerStatus {
	present := 0
	for _, key := range spec.Keys {
		_, err := store.GetToken(spec.KeychainKey(key))
		switch {
		case err == nil:
			present++
		case errors.Is(err, auth.ErrTokenNotFound):
		default:
			return providerStatus{name: spec.Provider, status: fmt.Sprintf("error: %v", err)}
		}
	}

	if present == len(spec.Keys) && present > 0 {
		return providerStatus{name: spec.Provider, status: "authenticated", ok: true}
	}

	tokenKey := platformproviders.CredentialKey{Key: "token"}
	if _, err := store.GetToken(spec.KeychainKey(tokenKey)); err == nil {
		return providerStatus{name: spec.Provider, status: "authenticated (token)", ok: true}
	}

	if present > 0 {
		status := fmt.Sprintf("partial (%d of %d keys)", present, len(spec.Keys))
		return providerStatus{name: spec.Provider, status: status}
	}
	return providerStatus{name: spec.Provider, status: "not authenticated"}
}

// --- Auth status model ---

type authStatusModel struct {
	store auth.Store

	statuses []providerStatus

	width  int
	height int
}

// RunAuthStatus starts the full-window auth status TUI.
func RunAuthStatus(store auth.Store) error {
	specs := platformproviders.All()

	statuses := make([]providerStatus, 0, len(specs))
	for _, spec := range specs {
		statuses = append(statuses, specStatus(store, spec))
	}

	m := authStatusModel{
		store:    store,
		statuses: statuses,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m authStatusModel) Init() tea.Cmd {
	return nil
}

func (m authStatusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m authStatusModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "auth status", "")
	footerBindings := []components.KeyBinding{
		{Key: "q", Desc: "quit"},
	}
	footer := components.Footer(m.width, footerBindings)

	headerH := lipgloss.Height(header)
	footerH := lipgloss.Height(footer)
	contentH := m.height - headerH - footerH
	if contentH < 1 {
		contentH = 1
	}

	content := m.renderContent(contentH)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m authStatusModel) renderContent(height int) string {
	if len(m.statuses) == 0 {
		return lipgloss.Place(
			m.width, height,
			lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("No providers registered."),
		)
	}

	title := styles.Title.Render("Provider Authentication")

	cardWidth := 48
	labelWidth := 16

	rows := make([]string, 0, len(m.statuses))
	for _, ps := range m.statuses {
		nameStyle := styles.Label.Width(labelWidth)
		name := nameStyle.Render(ps.name)

		var statusText string
		if ps.ok {
			statusText = styles.SuccessText.Render(ps.status)
		} else {
			statusText = styles.MutedText.Render(ps.status)
		}

		rows = append(rows, name+statusText)
	}

	content := ""
	for i, row := range rows {
		content += row
		if i < len(rows)-1 {
			content += "\n"
		}
	}

	card := styles.Card.Width(cardWidth).Render(content)

	combined := lipgloss.JoinVertical(lipgloss.Center, title, "", card)

	return lipgloss.Place(
		m.width, height,
		lipgloss.Center, lipgloss.Center,
		combined,
	)
}
