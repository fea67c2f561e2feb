// Package services contains the application services for the BarterDesk
// client. Its centerpiece is the SessionController, the state machine behind
// the login and registration forms: it validates input, submits credentials,
// interprets the server's answer, persists the session record, and exposes an
// observable status for the presentation layer.
package services
