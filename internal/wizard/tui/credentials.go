package tui

import (
	"errors"
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	fieldHost = iota
	fieldUsername
	fieldPassword
	credentialFields
)

// CredentialsModel is the account form
type CredentialsModel struct {
	inputs  []textinput.Model
	focused int

	// Submitted is set when the form passed validation
	Submitted bool
	Err       string
}

// NewCredentialsModel creates the form, prefilled with host and username
func NewCredentialsModel(host, username string) CredentialsModel {
	inputs := make([]textinput.Model, credentialFields)

	inputs[fieldHost] = textinput.New()
	inputs[fieldHost].Placeholder = "http://smartweb.local"
	inputs[fieldHost].CharLimit = 256
	if host == "" {
		host = "http://"
	}
	inputs[fieldHost].SetValue(host)

	inputs[fieldUsername] = textinput.New()
	inputs[fieldUsername].Placeholder = "username"
	inputs[fieldUsername].CharLimit = 64
	inputs[fieldUsername].SetValue(username)

	inputs[fieldPassword] = textinput.New()
	inputs[fieldPassword].Placeholder = "password"
	inputs[fieldPassword].CharLimit = 128
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '•'

	m := CredentialsModel{inputs: inputs}
	if username != "" {
		m.focused = fieldPassword
	}
	m.inputs[m.focused].Focus()
	return m
}

// Host returns the entered base URL without a trailing slash
func (m CredentialsModel) Host() string {
	return strings.TrimRight(strings.TrimSpace(m.inputs[fieldHost].Value()), "/")
}

// Username returns the entered username
func (m CredentialsModel) Username() string {
	return strings.TrimSpace(m.inputs[fieldUsername].Value())
}

// Password returns the entered password
func (m CredentialsModel) Password() string {
	return m.inputs[fieldPassword].Value()
}

// Init implements tea.Model
func (m CredentialsModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m CredentialsModel) Update(msg tea.Msg) (CredentialsModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyTab, tea.KeyDown:
			return m.focus((m.focused + 1) % credentialFields), nil
		case tea.KeyShiftTab, tea.KeyUp:
			return m.focus((m.focused + credentialFields - 1) % credentialFields), nil
		case tea.KeyEnter:
			if m.focused < fieldPassword {
				return m.focus(m.focused + 1), nil
			}
			return m.submit(), nil
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focused], cmd = m.inputs[m.focused].Update(msg)
	return m, cmd
}

func (m CredentialsModel) focus(i int) CredentialsModel {
	m.inputs[m.focused].Blur()
	m.focused = i
	m.inputs[i].Focus()
	return m
}

func (m CredentialsModel) submit() CredentialsModel {
	if err := validateCredentials(m.Host(), m.Username(), m.Password()); err != nil {
		m.Err = err.Error()
		m.Submitted = false
		return m
	}
	m.Err = ""
	m.Submitted = true
	return m
}

func validateCredentials(host, username, password string) error {
	u, err := url.Parse(host)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("host must be an http:// or https:// URL")
	}
	if username == "" {
		return errors.New("username is required")
	}
	if password == "" {
		return errors.New("password is required")
	}
	return nil
}

// View renders the form
func (m CredentialsModel) View() string {
	labels := []string{"Host", "Username", "Password"}

	var b strings.Builder
	b.WriteString(RenderTitle("SmartWeb account"))
	b.WriteString("\n")
	for i, input := range m.inputs {
		b.WriteString(renderLabel(labels[i], i == m.focused))
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	if m.Err != "" {
		b.WriteString("\n")
		b.WriteString(RenderError(m.Err))
		b.WriteString("\n")
	}
	return b.String()
}
