package ipc

import (
	"encoding/json"
	"fmt"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandPing             CommandType = "ping"
	CommandCreateSession    CommandType = "session.create"
	CommandGetSession       CommandType = "session.get"
	CommandListSessions     CommandType = "session.list"
	CommandCloseSession     CommandType = "session.close"
	CommandCloseAllSessions CommandType = "session.close-all"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by ping
type StatusData struct {
	DaemonRunning bool   `json:"daemon_running"`
	Pid           int    `json:"pid"`
	Backend       string `json:"backend"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	SessionCount  int    `json:"session_count"`
}

// CreateSessionPayload represents the payload for session.create
type CreateSessionPayload struct {
	Identifier int `json:"identifier"`
	Width      int `json:"width,omitempty"`
	Height     int `json:"height,omitempty"`
}

// SessionRefPayload identifies the target session for session.get and
// session.close
type SessionRefPayload struct {
	Identifier int `json:"identifier"`
}

// AppInfo describes an application launched into a session
type AppInfo struct {
	Command string `json:"command"`
	Pid     int    `json:"pid"`
	Running bool   `json:"running"`
}

// SessionInfo describes a single live session
type SessionInfo struct {
	Identifier int       `json:"identifier"`
	Display    string    `json:"display"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Alive      bool      `json:"alive"`
	Apps       []AppInfo `json:"apps,omitempty"`
}

// SessionsData represents the data returned by session.list
type SessionsData struct {
	Sessions []SessionInfo `json:"sessions"`
}

// CloseAllData represents the data returned by session.close-all
type CloseAllData struct {
	Closed int `json:"closed"`
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
