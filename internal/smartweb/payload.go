package smartweb

import (
	"net/url"

	"github.com/muurk/smartweb/internal/webforms"
)

// Device page buttons. They are image buttons, so a click posts the
// pointer coordinates as "<id>.x" and "<id>.y".
const (
	ButtonOn      = "btnOn"
	ButtonOff     = "btnOff"
	ButtonAway    = "btnAway"
	ButtonTempSet = "btnTmpSet"
)

const (
	// UpdatePanel is the panel every device page posts back into
	UpdatePanel = "UpdatePanel1"

	// ScriptManagerField names the target panel and control of a partial postback
	ScriptManagerField = "ScriptManager1"

	clickX = "30"
	clickY = "10"
)

// ButtonClick builds the partial-postback payload of one image button click.
// extra carries page inputs that must travel with the click (for example the
// setpoint field); it may be nil.
func ButtonClick(tokens webforms.FormTokens, button string, extra url.Values) url.Values {
	form := url.Values{}
	tokens.Apply(form)
	form.Set("__ASYNCPOST", "true")
	form.Set(ScriptManagerField, UpdatePanel+"|"+button)

	for k, v := range extra {
		form[k] = append([]string(nil), v...)
	}

	form.Set(button+".x", clickX)
	form.Set(button+".y", clickY)
	return form
}
