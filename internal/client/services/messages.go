package services

import (
	"fmt"
	"net/http"
	"strings"
)

// User-facing messages for local validation failures.
const (
	msgUsernameRequired = "Please choose a username."
	msgEmailRequired    = "Please enter your email address."
	msgEmailInvalid     = "That does not look like a valid email address."
	msgPasswordRequired = "Please enter your password."
	msgPasswordTooShort = "Password must be a minimum of 8 characters."
	msgPasswordMismatch = "Passwords do not match."
)

// User-facing messages for submission outcomes.
const (
	msgNetworkFailure = "Could not reach the server. Check your connection and try again."
	msgNoCredential   = "The server accepted the request but returned no credential. Please try again."
	msgTokenIntegrity = "Received a credential that could not be read. Please try signing in again."
	msgStorageFailure = "You are signed in, but the session could not be saved on this device."
)

// conflictRewrites maps known patterns in server error text to friendlier
// messages. Rules are evaluated in order, first match wins; a message that
// matches none is passed through unchanged.
//
// The server's error format is free text, not machine-discriminated, so this
// table is heuristic by design. Keep it short and do not strengthen it
// without confirming the server contract.
var conflictRewrites = []struct {
	needles []string
	message string
}{
	{needles: []string{"unique constraint", "username"}, message: "This username is already in use."},
	{needles: []string{"unique constraint", "email"}, message: "This email address is already in use."},
	{needles: []string{"unique constraint"}, message: "An account with these details already exists."},
}

// rewriteServerMessage applies the conflict rule table to a structured server
// error message.
func rewriteServerMessage(msg string) string {
	lower := strings.ToLower(msg)
	for _, rule := range conflictRewrites {
		matched := true
		for _, needle := range rule.needles {
			if !strings.Contains(lower, needle) {
				matched = false
				break
			}
		}
		if matched {
			return rule.message
		}
	}
	return msg
}

// statusCodeMessage maps a failure status without a parseable body to a
// canned message.
func statusCodeMessage(code int) string {
	switch {
	case code == http.StatusBadRequest:
		return "The server could not process the request. Check your input and try again."
	case code == http.StatusConflict:
		return "An account with these details already exists."
	case code >= http.StatusInternalServerError:
		return "The server ran into a problem. Please try again later."
	default:
		return fmt.Sprintf("The request failed with status %d.", code)
	}
}
