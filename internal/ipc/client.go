package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/Alex-deVis/xControl/internal/runtimepath"
)

// Client handles IPC communication with the daemon
type Client struct {
	socketPath string
	timeout    time.Duration
}

// NewClient creates a new IPC client
func NewClient() *Client {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		// Keep constructor non-failing; sendRequest surfaces connection errors.
		socketPath = ""
	}

	return &Client{
		socketPath: socketPath,
		timeout:    5 * time.Second,
	}
}

// sendRequest sends a request and waits for a response
func (c *Client) sendRequest(req *Request) (*Response, error) {
	// Connect to socket
	conn, err := net.DialTimeout("unix", c.socketPath, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to daemon: %w (is the daemon running?)", err)
	}
	defer conn.Close()

	// Set deadline
	conn.SetDeadline(time.Now().Add(c.timeout))

	// Marshal request
	reqData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Send request
	reqData = append(reqData, '\n')
	if _, err := conn.Write(reqData); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	// Read response
	reader := bufio.NewReader(conn)
	respData, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Parse response
	var resp Response
	if err := json.Unmarshal(respData, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	// Check for error response
	if resp.Status == "ERROR" {
		return nil, fmt.Errorf("daemon error: %s", resp.Error)
	}

	return &resp, nil
}

// Ping checks if the daemon is responding
func (c *Client) Ping() error {
	_, err := c.Status()
	return err
}

// Status retrieves daemon status
func (c *Client) Status() (*StatusData, error) {
	req := &Request{
		Command: CommandPing,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	var status StatusData
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status data: %w", err)
	}

	return &status, nil
}

// CreateSession returns the session with the given identifier, creating it
// when missing. Zero dimensions let the daemon apply its configured
// defaults.
func (c *Client) CreateSession(identifier, width, height int) (*SessionInfo, error) {
	payload, err := json.Marshal(CreateSessionPayload{
		Identifier: identifier,
		Width:      width,
		Height:     height,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create payload: %w", err)
	}

	req := &Request{
		Command: CommandCreateSession,
		Payload: payload,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	var info SessionInfo
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	return &info, nil
}

// GetSession retrieves the state of one session
func (c *Client) GetSession(identifier int) (*SessionInfo, error) {
	payload, err := json.Marshal(SessionRefPayload{Identifier: identifier})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session payload: %w", err)
	}

	req := &Request{
		Command: CommandGetSession,
		Payload: payload,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	var info SessionInfo
	if err := json.Unmarshal(resp.Data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse session data: %w", err)
	}

	return &info, nil
}

// ListSessions retrieves all live sessions
func (c *Client) ListSessions() (*SessionsData, error) {
	req := &Request{
		Command: CommandListSessions,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return nil, err
	}

	var data SessionsData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return nil, fmt.Errorf("failed to parse sessions data: %w", err)
	}

	return &data, nil
}

// CloseSession asks the daemon to close one session
func (c *Client) CloseSession(identifier int) error {
	payload, err := json.Marshal(SessionRefPayload{Identifier: identifier})
	if err != nil {
		return fmt.Errorf("failed to marshal session payload: %w", err)
	}

	req := &Request{
		Command: CommandCloseSession,
		Payload: payload,
	}

	_, err = c.sendRequest(req)
	return err
}

// CloseAllSessions asks the daemon to close every session and returns how
// many were closed
func (c *Client) CloseAllSessions() (int, error) {
	req := &Request{
		Command: CommandCloseAllSessions,
	}

	resp, err := c.sendRequest(req)
	if err != nil {
		return 0, err
	}

	var data CloseAllData
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		return 0, fmt.Errorf("failed to parse close-all data: %w", err)
	}

	return data.Closed, nil
}
