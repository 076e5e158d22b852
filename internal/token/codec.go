// Package token reads claims out of bearer tokens without verifying them.
// The backend owns signature and expiry checks; the console only needs the
// device fingerprint hint carried in the payload.
package token

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimDeviceFingerprint is the payload claim holding the device id
const ClaimDeviceFingerprint = "dfp"

// segmentParser tolerates both padded and unpadded base64url segments
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// toURLAlphabet maps standard base64 onto the url-safe alphabet
var toURLAlphabet = strings.NewReplacer("+", "-", "/", "_")

// DecodePayload returns the JSON payload of a JWT-shaped token. It reports
// false for anything that is not at least "header.payload" or whose payload
// is not a base64 JSON object. Both the url-safe and the standard alphabet
// are accepted, padded or not.
func DecodePayload(raw string) (map[string]any, bool) {
	parts := strings.Split(raw, ".")
	if len(parts) < 2 || parts[1] == "" {
		return nil, false
	}

	decoded, err := segmentParser.DecodeSegment(toURLAlphabet.Replace(parts[1]))
	if err != nil {
		return nil, false
	}

	var payload map[string]any
	if err := json.Unmarshal(decoded, &payload); err != nil || payload == nil {
		return nil, false
	}
	return payload, true
}

// DeviceID returns the dfp claim, or "" when the token has none
func DeviceID(raw string) string {
	payload, ok := DecodePayload(raw)
	if !ok {
		return ""
	}
	dfp, ok := payload[ClaimDeviceFingerprint].(string)
	if !ok {
		return ""
	}
	return dfp
}
