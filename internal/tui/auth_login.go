package tui

import (
	"fmt"
	"strings"

	platformproviders "nathanbeddoewebdev/devsweep/internal/platform/providers"
	"nathanbeddoewebdev/devsweep/internal/services/auth"
	"nathanbeddoewebdev/devsweep/internal/tui/components"
	"nathanbeddoewebdev/devsweep/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Messages ---

type credentialsSavedMsg struct{}

type credentialsSaveErrorMsg struct {
	err error
}

// --- Auth login model ---

type authLoginModel struct {
	spec  platformproviders.CredentialSpec
	store auth.Store

	// inputs holds one field per credential key, in spec order.
	inputs []textinput.Model
	step   int

	width  int
	height int

	err      error
	saved    bool
	quitting bool
}

// AuthLoginResult holds the outcome of the login TUI.
type AuthLoginResult struct {
	Saved bool
}

// RunAuthLogin starts the interactive credential prompt TUI. It walks the
// provider's credential keys in order and saves all of them once the last
// field is confirmed. A nil result with a nil error means the user quit.
func RunAuthLogin(spec platformproviders.CredentialSpec, store auth.Store) (*AuthLoginResult, error) {
	inputs := make([]textinput.Model, 0, len(spec.Keys))
	for i, key := range spec.Keys {
		ti := textinput.New()
		ti.Placeholder = key.Prompt
		ti.Width = 50
		if key.Secret {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		if i == 0 {
			ti.Focus()
		}
		inputs = append(inputs, ti)
	}

	m := authLoginModel{
		spec:   spec,
		store:  store,
		inputs: inputs,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to run auth login: %w", err)
	}

	final := result.(authLoginModel)
	if final.quitting && !final.saved {
		return nil, nil
	}
	return &AuthLoginResult{Saved: final.saved}, nil
}

func (m authLoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m authLoginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case credentialsSavedMsg:
		m.saved = true
		return m, tea.Quit

	case credentialsSaveErrorMsg:
		m.err = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.step], cmd = m.inputs[m.step].Update(msg)
	return m, cmd
}

func (m authLoginModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit

	case "tab", "down":
		return m.focusStep(m.step + 1)

	case "shift+tab", "up":
		return m.focusStep(m.step - 1)

	case "enter":
		value := strings.TrimSpace(m.inputs[m.step].Value())
		if value == "" {
			m.err = fmt.Errorf("%s cannot be empty", m.spec.Keys[m.step].Prompt)
			return m, nil
		}
		m.err = nil
		if m.step < len(m.inputs)-1 {
			return m.focusStep(m.step + 1)
		}
		// Last field confirmed: make sure nothing earlier was skipped.
		for i := range m.inputs {
			if strings.TrimSpace(m.inputs[i].Value()) == "" {
				m.err = fmt.Errorf("%s cannot be empty", m.spec.Keys[i].Prompt)
				return m.focusStep(i)
			}
		}
		return m, m.saveCredentials()
	}

	var cmd tea.Cmd
	m.inputs[m.step], cmd = m.inputs[m.step].Update(msg)
	m.err = nil
	return m, cmd
}

func (m authLoginModel) focusStep(step int) (tea.Model, tea.Cmd) {
	if step < 0 || step >= len(m.inputs) {
		return m, nil
	}
	m.inputs[m.step].Blur()
	m.step = step
	m.inputs[m.step].Focus()
	return m, textinput.Blink
}

func (m authLoginModel) saveCredentials() tea.Cmd {
	return func() tea.Msg {
		for i, key := range m.spec.Keys {
			value := strings.TrimSpace(m.inputs[i].Value())
			if err := m.store.SetToken(m.spec.KeychainKey(key), value); err != nil {
				return credentialsSaveErrorMsg{err: err}
			}
		}
		return credentialsSavedMsg{}
	}
}

func (m authLoginModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "auth login", m.spec.Provider)
	footerBindings := []components.KeyBinding{
		{Key: "enter", Desc: "next"},
		{Key: "tab", Desc: "switch field"},
		{Key: "esc", Desc: "cancel"},
	}
	if m.step == len(m.inputs)-1 {
		footerBindings[0].Desc = "save"
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

func (m authLoginModel) renderContent(height int) string {
	title := styles.Title.Render("Credentials")
	hint := styles.MutedText.Render("Enter your " + m.spec.DisplayName + " credentials")

	labelWidth := 0
	for _, key := range m.spec.Keys {
		if len(key.Prompt) > labelWidth {
			labelWidth = len(key.Prompt)
		}
	}
	labelWidth += 2

	rows := make([]string, 0, len(m.inputs))
	for i, key := range m.spec.Keys {
		label := styles.Label.Width(labelWidth).Render(key.Prompt)
		if i == m.step {
			label = styles.AccentText.Render("> ") + label
		} else {
			label = "  " + label
		}
		rows = append(rows, label+m.inputs[i].View())
	}

	var errLine string
	if m.err != nil {
		errLine = "\n" + styles.ErrorText.Render(m.err.Error())
	}

	card := lipgloss.JoinVertical(lipgloss.Left,
		title,
		hint,
		"",
		strings.Join(rows, "\n"),
		errLine,
	)

	return lipgloss.Place(
		m.width, height,
		lipgloss.Center, lipgloss.Center,
		card,
	)
}
