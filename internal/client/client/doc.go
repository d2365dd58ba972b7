// Package client contains the client side of the registry API.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) for the three
//     registry operations: GetServerInfo, PostClientInfo and GetClientInfo.
//  2. A JSON/HTTP implementation (see HTTPClient) that builds URLs from the
//     configured API base URL, bounds response reads and maps HTTP failures
//     to sentinel errors.
//
// # Error Handling
//
// Failures to complete an exchange wrap common.ErrTransport; connection
// failures and timeouts are additionally ErrUnavailable. Lookups the server
// answers with NotFound or InvalidPassword return common.ErrNotFound or
// common.ErrInvalidPassword.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
