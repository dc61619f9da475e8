package urls

import (
	"fmt"
	"net/url"
	"strings"
)

// LoginPagePath is the WebForms login page. Expired sessions are redirected here.
const LoginPagePath = "/SmartWeb/Default.aspx"

// LoginServicePath is the JSON pre-login web service endpoint.
const LoginServicePath = "/SmartWeb/_WebService/WizWeb_Svc.asmx/Login"

// HeaterControlPath is the detail page for a heating zone.
const HeaterControlPath = "/SmartWeb/My_Home/Detail_Control_Heater.aspx"

// LightControlPath is the detail page for a light circuit.
const LightControlPath = "/SmartWeb/My_Home/Detail_Control_Light.aspx"

// loginPageName is matched against final URLs to detect a session expiry.
const loginPageName = "Default.aspx"

// NormalizeHost trims whitespace and trailing slashes from a configured host.
func NormalizeHost(host string) string {
	return strings.TrimRight(strings.TrimSpace(host), "/")
}

// LoginPage returns the login page URL for host.
func LoginPage(host string) string {
	return NormalizeHost(host) + LoginPagePath
}

// LoginService returns the pre-login web service URL for host.
func LoginService(host string) string {
	return NormalizeHost(host) + LoginServicePath
}

// HeaterControl returns the heater detail page URL for a device number.
func HeaterControl(host, deviceID string) string {
	return fmt.Sprintf("%s%s?device_no=%s", NormalizeHost(host), HeaterControlPath, url.QueryEscape(deviceID))
}

// LightControl returns the light detail page URL for a device number.
func LightControl(host, deviceID string) string {
	return fmt.Sprintf("%s%s?device_no=%s", NormalizeHost(host), LightControlPath, url.QueryEscape(deviceID))
}

// IsLoginPage reports whether rawURL points at the login page.
func IsLoginPage(rawURL string) bool {
	return strings.Contains(rawURL, loginPageName)
}
