// Package common contains shared constants and sentinel errors used across
// the here client and server.
package common

// AppName is reported by the server info endpoint.
const AppName = "Here"

// API paths. The client builds full URLs by appending them to the configured
// API base URL, which already carries the "/here" prefix.
const (
	APIPrefix              = "/here"
	PathServerInfo         = "/server"
	PathGetClientInfo      = "/client/get"
	PathPostClientInfo     = "/client/post"
	PathMetrics            = "/metrics"
	QueryParamAccount      = "account"
	QueryParamPassword     = "passwd"
	DefaultLifetimeSeconds = 60
)
