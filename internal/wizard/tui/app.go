package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/smartweb/internal/config"
	"github.com/muurk/smartweb/internal/logging"
	"github.com/muurk/smartweb/internal/smartweb"
)

// Screen is the active wizard step
type Screen string

const (
	ScreenCredentials Screen = "credentials"
	ScreenVerifying   Screen = "verifying"
	ScreenDevices     Screen = "devices"
	ScreenSummary     Screen = "summary"
)

// verifyTimeout bounds one credential check
const verifyTimeout = 60 * time.Second

// Verifier performs one login with the given account
type Verifier func(ctx context.Context, host, username, password string) error

// HubVerifier logs in with a fresh hub
func HubVerifier(timeout time.Duration) Verifier {
	return func(ctx context.Context, host, username, password string) error {
		hub, err := smartweb.New(host, username, password)
		if err != nil {
			return err
		}
		if timeout > 0 {
			hub.SetTimeout(timeout)
		}
		return hub.Login(ctx)
	}
}

// Options configures the wizard
type Options struct {
	Registry *config.Registry             // edited in place; a new one is created when nil
	Verify   Verifier                     // default: HubVerifier
	Save     func(*config.Registry) error // default: Registry.Save
}

type verifyResultMsg struct{ err error }
type saveResultMsg struct{ err error }

type keyMap struct {
	Next   key.Binding
	Submit key.Binding
	Toggle key.Binding
	Finish key.Binding
	Back   key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Submit, k.Toggle, k.Finish, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

func newKeyMap() keyMap {
	return keyMap{
		Next:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "submit")),
		Toggle: key.NewBinding(key.WithKeys("left", "right"), key.WithHelp("←/→", "type")),
		Finish: key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "finish")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// AppModel coordinates the wizard screens
type AppModel struct {
	Screen      Screen
	Credentials CredentialsModel
	Devices     DeviceFormModel
	Registry    *config.Registry

	// LastError is the last failed verification; ErrorCode classifies it
	LastError error
	ErrorCode string

	Saved   bool
	SaveErr error

	Width  int
	Height int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	verify  Verifier
	save    func(*config.Registry) error
}

// NewAppModel creates the wizard at the credentials screen
func NewAppModel(opts Options) AppModel {
	reg := opts.Registry
	if reg == nil {
		reg = config.NewRegistry()
	}
	if opts.Verify == nil {
		opts.Verify = HubVerifier(reg.Timeout())
	}
	if opts.Save == nil {
		opts.Save = (*config.Registry).Save
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return AppModel{
		Screen:      ScreenCredentials,
		Credentials: NewCredentialsModel(reg.Host, reg.Username),
		Registry:    reg,
		Width:       80,
		Height:      24,
		spinner:     s,
		help:        help.New(),
		keys:        newKeyMap(),
		verify:      opts.Verify,
		save:        opts.Save,
	}
}

// Init implements tea.Model
func (m AppModel) Init() tea.Cmd {
	return m.Credentials.Init()
}

// Update implements tea.Model
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width, m.Height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}

	case verifyResultMsg:
		return m.verified(msg.err)

	case saveResultMsg:
		m.SaveErr = msg.err
		m.Saved = msg.err == nil
		return m, nil

	case spinner.TickMsg:
		if m.Screen != ScreenVerifying {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	switch m.Screen {
	case ScreenCredentials:
		return m.updateCredentials(msg)
	case ScreenDevices:
		return m.updateDevices(msg)
	case ScreenSummary:
		if key, ok := msg.(tea.KeyMsg); ok {
			switch key.String() {
			case "q", "enter", "esc":
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m AppModel) updateCredentials(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.Credentials, cmd = m.Credentials.Update(msg)
	if !m.Credentials.Submitted {
		return m, cmd
	}

	m.Credentials.Submitted = false
	m.Screen = ScreenVerifying
	m.LastError = nil
	m.ErrorCode = ""
	return m, tea.Batch(m.spinner.Tick, m.verifyCmd())
}

func (m AppModel) verifyCmd() tea.Cmd {
	verify := m.verify
	host, username, password := m.Credentials.Host(), m.Credentials.Username(), m.Credentials.Password()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), verifyTimeout)
		defer cancel()
		return verifyResultMsg{err: verify(ctx, host, username, password)}
	}
}

func (m AppModel) verified(err error) (tea.Model, tea.Cmd) {
	if err != nil {
		m.Screen = ScreenCredentials
		m.LastError = err
		m.ErrorCode = errorCode(err)
		m.Credentials.Err = errorMessages[m.ErrorCode]
		logging.Warn("Credential check failed", zap.String("code", m.ErrorCode), zap.Error(err))
		return m, nil
	}

	m.Registry.SetCredentials(m.Credentials.Host(), m.Credentials.Username())
	m.Screen = ScreenDevices
	m.Devices = NewDeviceFormModel(m.Registry)
	return m, nil
}

func (m AppModel) updateDevices(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
		m.Screen = ScreenCredentials
		return m, nil
	}

	var cmd tea.Cmd
	m.Devices, cmd = m.Devices.Update(msg)
	if !m.Devices.Done {
		return m, cmd
	}

	m.Screen = ScreenSummary
	return m, m.saveCmd()
}

func (m AppModel) saveCmd() tea.Cmd {
	save, reg := m.save, m.Registry
	return func() tea.Msg {
		return saveResultMsg{err: save(reg)}
	}
}

// Password returns the password entered in the wizard. It is never saved.
func (m AppModel) Password() string {
	return m.Credentials.Password()
}

// View implements tea.Model
func (m AppModel) View() string {
	var content string

	switch m.Screen {
	case ScreenCredentials:
		content = m.Credentials.View()
	case ScreenVerifying:
		content = RenderTitle("SmartWeb account") + "\n" +
			m.spinner.View() + " Logging in to " + m.Credentials.Host() + " ..."
	case ScreenDevices:
		content = m.Devices.View()
	case ScreenSummary:
		content = m.summaryView()
	}

	return RenderApplicationContainer(content, m.help.View(m.keys), m.Width, m.Height)
}

func (m AppModel) summaryView() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Summary"))
	b.WriteString("\n")

	lines := []string{
		fmt.Sprintf("Host:      %s", m.Registry.Host),
		fmt.Sprintf("Username:  %s", m.Registry.Username),
		fmt.Sprintf("Devices:   %d", len(m.Registry.Devices)),
	}
	for _, d := range m.Registry.Devices {
		lines = append(lines, fmt.Sprintf("  • %s (%s #%s)", d.Name, d.Type, d.ID))
	}
	b.WriteString(InfoBoxStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n\n")

	switch {
	case m.SaveErr != nil:
		b.WriteString(RenderError("Could not save configuration: " + m.SaveErr.Error()))
	case m.Saved:
		b.WriteString(SuccessStyle.Render("✓ Configuration saved. The password was not stored."))
	default:
		b.WriteString(SubtitleStyle.Render("Saving..."))
	}
	b.WriteString("\n\nPress enter to exit.")
	return b.String()
}
