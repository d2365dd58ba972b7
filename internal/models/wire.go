package models

import "fmt"

// AppInfo identifies the server application.
type AppInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (a AppInfo) String() string {
	return fmt.Sprintf("%s, version %s.", a.Name, a.Version)
}

// ResponseMessage is the machine-readable reason carried by failed responses.
type ResponseMessage string

const (
	MessageNotFound          ResponseMessage = "NotFound"
	MessageAlreadyOccupiedID ResponseMessage = "AlreadyOccupiedId"
	MessageInvalidPassword   ResponseMessage = "InvalidPassword"
	MessageDatabaseError     ResponseMessage = "DatabaseError"
	MessageBadRequest        ResponseMessage = "BadRequest"
)

// GetClientInfoResponse is returned by the lookup endpoint.
type GetClientInfoResponse struct {
	IsOK    bool            `json:"is_ok"`
	Message ResponseMessage `json:"message,omitempty"`
	Data    *PresenceRecord `json:"data,omitempty"`
}

// PostClientInfoResponse is returned by the registration endpoint. Lifetime is
// in seconds and tells the client when to refresh.
type PostClientInfoResponse struct {
	ID       string          `json:"id"`
	Account  string          `json:"account"`
	Passwd   *string         `json:"passwd,omitempty"`
	IsOK     bool            `json:"is_ok"`
	Message  ResponseMessage `json:"message,omitempty"`
	Lifetime int64           `json:"lifetime"`
}
