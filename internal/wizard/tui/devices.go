package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/smartweb/internal/config"
	"github.com/muurk/smartweb/internal/device"
)

const (
	deviceFieldName = iota
	deviceFieldType
	deviceFieldID
	deviceFields
)

var deviceTypes = []device.Type{device.TypeLight, device.TypeHeater}

// DeviceFormModel adds devices to the registry one at a time. Enter on the
// last field adds the device and clears the form for the next one; enter
// on an empty form finishes.
type DeviceFormModel struct {
	registry *config.Registry
	name     textinput.Model
	id       textinput.Model
	typeIdx  int
	focused  int

	Done   bool
	Err    string
	Notice string
}

// NewDeviceFormModel edits the devices of registry in place
func NewDeviceFormModel(registry *config.Registry) DeviceFormModel {
	name := textinput.New()
	name.Placeholder = "Living room"
	name.CharLimit = 64
	name.Focus()

	id := textinput.New()
	id.Placeholder = "device_no from the page URL"
	id.CharLimit = 16

	return DeviceFormModel{registry: registry, name: name, id: id}
}

// Type returns the selected device type
func (m DeviceFormModel) Type() device.Type {
	return deviceTypes[m.typeIdx]
}

func (m DeviceFormModel) empty() bool {
	return strings.TrimSpace(m.name.Value()) == "" && strings.TrimSpace(m.id.Value()) == ""
}

// Update implements tea.Model
func (m DeviceFormModel) Update(msg tea.Msg) (DeviceFormModel, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyCtrlS:
			m.Done = true
			return m, nil
		case tea.KeyTab, tea.KeyDown:
			return m.focus((m.focused + 1) % deviceFields), nil
		case tea.KeyShiftTab, tea.KeyUp:
			return m.focus((m.focused + deviceFields - 1) % deviceFields), nil
		case tea.KeyEnter:
			if m.empty() {
				m.Done = true
				return m, nil
			}
			if m.focused < deviceFieldID {
				return m.focus(m.focused + 1), nil
			}
			return m.add(), nil
		}

		if m.focused == deviceFieldType {
			switch key.String() {
			case "left", "right", " ", "h", "l":
				m.typeIdx = (m.typeIdx + 1) % len(deviceTypes)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.focused {
	case deviceFieldName:
		m.name, cmd = m.name.Update(msg)
	case deviceFieldID:
		m.id, cmd = m.id.Update(msg)
	}
	return m, cmd
}

func (m DeviceFormModel) focus(i int) DeviceFormModel {
	m.name.Blur()
	m.id.Blur()
	m.focused = i
	switch i {
	case deviceFieldName:
		m.name.Focus()
	case deviceFieldID:
		m.id.Focus()
	}
	return m
}

func (m DeviceFormModel) add() DeviceFormModel {
	d := config.Device{Name: m.name.Value(), Type: string(m.Type()), ID: m.id.Value()}
	if err := m.registry.AddDevice(d); err != nil {
		m.Err = err.Error()
		m.Notice = ""
		return m
	}

	m.Err = ""
	m.Notice = fmt.Sprintf("Added %s (%s #%s). Add another, or press enter on an empty form to finish.",
		strings.TrimSpace(d.Name), d.Type, strings.TrimSpace(d.ID))
	m.name.SetValue("")
	m.id.SetValue("")
	return m.focus(deviceFieldName)
}

// View renders the configured devices and the form
func (m DeviceFormModel) View() string {
	var b strings.Builder
	b.WriteString(RenderTitle("Devices"))
	b.WriteString("\n")

	if len(m.registry.Devices) == 0 {
		b.WriteString(SubtitleStyle.Render("No devices yet."))
		b.WriteString("\n")
	}
	for _, d := range m.registry.Devices {
		b.WriteString(ListItemStyle.Render(fmt.Sprintf("• %s (%s #%s)", d.Name, d.Type, d.ID)))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(renderLabel("Name", m.focused == deviceFieldName))
	b.WriteString(m.name.View())
	b.WriteString("\n")

	b.WriteString(renderLabel("Type", m.focused == deviceFieldType))
	for i, t := range deviceTypes {
		if i > 0 {
			b.WriteString("  ")
		}
		if i == m.typeIdx {
			b.WriteString(ToggleOnStyle.Render("(•) " + string(t)))
		} else {
			b.WriteString(ToggleOffStyle.Render("( ) " + string(t)))
		}
	}
	b.WriteString("\n")

	b.WriteString(renderLabel("ID", m.focused == deviceFieldID))
	b.WriteString(m.id.View())
	b.WriteString("\n")

	if m.Notice != "" {
		b.WriteString("\n")
		b.WriteString(SuccessStyle.Render(m.Notice))
		b.WriteString("\n")
	}
	if m.Err != "" {
		b.WriteString("\n")
		b.WriteString(RenderError(m.Err))
		b.WriteString("\n")
	}
	return b.String()
}
