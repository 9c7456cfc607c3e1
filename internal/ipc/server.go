package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/Alex-deVis/xControl/internal/config"
	"github.com/Alex-deVis/xControl/internal/runtimepath"
	"github.com/Alex-deVis/xControl/internal/session"
)

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	registry     *session.Registry
	cfg          *config.Config
	startTime    time.Time
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server
func NewServer(cfg *config.Config, registry *session.Registry) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		registry:   registry,
		cfg:        cfg,
		startTime:  time.Now(),
	}, nil
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("IPC server listening on %s", s.socketPath)

	// Accept connections
	go s.acceptLoop()

	return nil
}

// acceptLoop accepts incoming connections
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			log.Printf("IPC accept error: %v", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single IPC connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// Read the request (expect JSON on a single line)
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		log.Printf("IPC read error: %v", err)
		return
	}

	// Parse request
	req, err := ParseRequest(data)
	if err != nil {
		s.sendError(conn, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Handle command
	resp := s.handleCommand(req)

	// Send response
	respData, err := resp.Marshal()
	if err != nil {
		log.Printf("Failed to marshal response: %v", err)
		return
	}

	respData = append(respData, '\n')
	if _, err := conn.Write(respData); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// handleCommand processes an IPC command and returns a response
func (s *Server) handleCommand(req *Request) *Response {
	switch req.Command {
	case CommandPing:
		return s.handlePing()
	case CommandCreateSession:
		return s.handleCreateSession(req.Payload)
	case CommandGetSession:
		return s.handleGetSession(req.Payload)
	case CommandListSessions:
		return s.handleListSessions()
	case CommandCloseSession:
		return s.handleCloseSession(req.Payload)
	case CommandCloseAllSessions:
		return s.handleCloseAllSessions()
	default:
		return NewErrorResponse(fmt.Sprintf("Unknown command: %s", req.Command))
	}
}

// handlePing returns current daemon status
func (s *Server) handlePing() *Response {
	status := StatusData{
		DaemonRunning: true,
		Pid:           os.Getpid(),
		Backend:       string(s.cfg.Backend),
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		SessionCount:  len(s.registry.List()),
	}

	resp, _ := NewOKResponse(status)
	return resp
}

// handleCreateSession returns the session for the identifier, creating it
// when missing. Zero payload dimensions fall back to the configured
// defaults.
func (s *Server) handleCreateSession(payload json.RawMessage) *Response {
	var req CreateSessionPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid create payload: %v", err))
	}

	width, height := req.Width, req.Height
	if width <= 0 {
		width = s.cfg.DefaultScreen.Width
	}
	if height <= 0 {
		height = s.cfg.DefaultScreen.Height
	}

	log.Printf("IPC: Create session %d (%dx%d)", req.Identifier, width, height)

	sess, err := s.registry.GetOrCreate(req.Identifier, width, height)
	if err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to create session: %v", err))
	}

	resp, _ := NewOKResponse(sessionInfo(sess))
	return resp
}

func (s *Server) handleGetSession(payload json.RawMessage) *Response {
	var req SessionRefPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid session payload: %v", err))
	}

	sess, ok := s.registry.Get(req.Identifier)
	if !ok {
		return NewErrorResponse(fmt.Sprintf("No session %d", req.Identifier))
	}

	resp, _ := NewOKResponse(sessionInfo(sess))
	return resp
}

func (s *Server) handleListSessions() *Response {
	sessions := s.registry.List()
	infos := make([]SessionInfo, len(sessions))
	for i, sess := range sessions {
		infos[i] = sessionInfo(sess)
	}

	resp, _ := NewOKResponse(SessionsData{Sessions: infos})
	return resp
}

func (s *Server) handleCloseSession(payload json.RawMessage) *Response {
	var req SessionRefPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return NewErrorResponse(fmt.Sprintf("Invalid session payload: %v", err))
	}

	log.Printf("IPC: Close session %d", req.Identifier)

	if err := s.registry.Close(req.Identifier); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to close session: %v", err))
	}

	resp, _ := NewOKResponse(nil)
	return resp
}

func (s *Server) handleCloseAllSessions() *Response {
	count := len(s.registry.List())
	log.Printf("IPC: Close all sessions (%d)", count)

	if err := s.registry.CloseAll(); err != nil {
		return NewErrorResponse(fmt.Sprintf("Failed to close sessions: %v", err))
	}

	resp, _ := NewOKResponse(CloseAllData{Closed: count})
	return resp
}

// sessionInfo snapshots a session into its wire form
func sessionInfo(s *session.Session) SessionInfo {
	apps := s.Apps()
	infos := make([]AppInfo, len(apps))
	for i, a := range apps {
		infos[i] = AppInfo{Command: a.Command, Pid: a.Pid, Running: a.Running}
	}

	return SessionInfo{
		Identifier: s.Identifier(),
		Display:    s.Display(),
		Width:      s.Width(),
		Height:     s.Height(),
		Alive:      s.Alive(),
		Apps:       infos,
	}
}

// sendError sends an error response
func (s *Server) sendError(conn net.Conn, errMsg string) {
	resp := NewErrorResponse(errMsg)
	data, _ := resp.Marshal()
	data = append(data, '\n')
	conn.Write(data)
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
