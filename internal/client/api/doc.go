// Package api is the REST client for the BarterDesk backend. Every outbound
// request passes through the authenticated transport gate, which attaches the
// stored bearer credential to all calls except the identity-bootstrap
// endpoints.
package api
