// Package cli implements the interactive shell of the BarterDesk client. It
// is a thin presentation layer: it reads input, drives the session controller
// and the API client, and renders their observable state.
package cli
