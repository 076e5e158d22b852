// Package device decides when a request may assert the device fingerprint
// through the X-Device-ID header.
//
// Browsers calling the backend cross-origin would trigger a CORS preflight
// for the custom header, so in a browser context the header is only sent
// when explicitly enabled. Everywhere else the id travels as a header; in the
// browser it travels as the piaxe_device_id cookie set at login.
package device

import (
	"fmt"
	"strings"

	"piaxe-console/internal/token"
)

// HeaderDeviceID is the header asserting the device fingerprint
const HeaderDeviceID = "X-Device-ID"

// ExecutionContext tells the policy where a request originates
type ExecutionContext int

const (
	Server ExecutionContext = iota
	Browser
)

func (ec ExecutionContext) String() string {
	switch ec {
	case Browser:
		return "browser"
	default:
		return "server"
	}
}

// ParseExecutionContext accepts "browser" or "server"
func ParseExecutionContext(s string) (ExecutionContext, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "browser", "client":
		return Browser, nil
	case "server", "":
		return Server, nil
	default:
		return Server, fmt.Errorf("unknown execution context %q", s)
	}
}

// Headers returns the device header set for an authenticated request.
// The result is empty when the token has no dfp claim, or when running in a
// browser without the override.
func Headers(ec ExecutionContext, sendInBrowser bool, accessToken string) map[string]string {
	deviceID := token.DeviceID(accessToken)
	if deviceID == "" {
		return map[string]string{}
	}
	if ec == Browser && !sendInBrowser {
		return map[string]string{}
	}
	return map[string]string{HeaderDeviceID: deviceID}
}

// Policy binds the execution context and the browser override so callers
// receive it as a dependency instead of reading globals.
type Policy struct {
	Context       ExecutionContext
	SendInBrowser bool
}

// Headers applies the policy to accessToken
func (p Policy) Headers(accessToken string) map[string]string {
	return Headers(p.Context, p.SendInBrowser, accessToken)
}

// UseProxy reports whether requests must go through the same-origin proxy
// path instead of the absolute backend URL.
func (p Policy) UseProxy() bool {
	return p.Context == Browser && !p.SendInBrowser
}
