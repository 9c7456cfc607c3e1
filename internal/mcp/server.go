// Package mcp exposes session automation as typed tools over the Model
// Context Protocol, so LLM clients can drive GUI applications inside
// isolated displays over stdio.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Alex-deVis/xControl/internal/config"
	"github.com/Alex-deVis/xControl/internal/session"
)

const (
	ServerName    = "xcontrol"
	ServerVersion = "0.1.0"
)

// Server is the MCP server. It owns an in-process session registry, so
// sessions created through it live exactly as long as the serving process.
type Server struct {
	mcpServer *mcpsdk.Server
	config    *config.Config
	registry  *session.Registry
	deps      session.Deps
}

// NewServer creates a new MCP server around the given config. The display
// server and window manager binaries must be present; tesseract and
// xdotool are only needed once a tool that uses them is called.
func NewServer(cfg *config.Config) (*Server, error) {
	deps := session.DefaultDeps(cfg)
	if !deps.Display.Available() {
		return nil, fmt.Errorf("%s is required for the MCP server but not found in PATH", deps.Display.Name())
	}
	if !deps.WM.Available() {
		return nil, fmt.Errorf("%s is required for the MCP server but not found in PATH", deps.WM.Name())
	}

	s := &Server{
		config:   cfg,
		registry: session.NewRegistry(deps),
		deps:     deps,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close shuts down every session the server created and releases the
// action log. MCP sessions are not meant to outlive their client.
func (s *Server) Close() error {
	if s == nil {
		return nil
	}
	err := s.registry.CloseAll()
	if cerr := s.deps.Log.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "create_session",
		Description: "Create an isolated display session with its own window manager, or return the existing session with this identifier. Dimensions of an existing session are kept. Applications launched into the session cannot see or disturb the host desktop.",
	}, s.handleCreateSession)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_sessions",
		Description: "List all live sessions with their displays, dimensions, and launched applications.",
	}, s.handleListSessions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "close_session",
		Description: "Close a session: stop its window manager and display server. Applications inside exit with their display.",
	}, s.handleCloseSession)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "launch_app",
		Description: "Start an application inside a session, bound to its display. Returns immediately without waiting for the application to become interactive; use wait_for_image to detect readiness.",
	}, s.handleLaunchApp)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "run_command",
		Description: "Run a shell command with the session's display in its environment and return its combined output. Blocks until the command exits or the timeout passes. Long output is truncated.",
	}, s.handleRunCommand)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "type_text",
		Description: "Type text into the focused application character by character, preserving order and case. With replace=true the focused field is cleared first.",
	}, s.handleTypeText)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "press_key",
		Description: "Press a single key or chorded combination, e.g. Return, Escape, or ctrl+alt+t.",
	}, s.handlePressKey)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "click",
		Description: "Move the pointer to a coordinate and click. The coordinate must lie inside the session screen.",
	}, s.handleClick)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "move_mouse",
		Description: "Move the pointer to a coordinate without clicking and confirm it settled there.",
	}, s.handleMoveMouse)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "drag_mouse",
		Description: "Press a mouse button at one coordinate, move the pointer to another, and release.",
	}, s.handleDragMouse)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "mouse_location",
		Description: "Report the current pointer position on the session display.",
	}, s.handleMouseLocation)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "capture_screen",
		Description: "Capture a region of the session screen (default: all of it) and save it as a PNG in the artifact directory. Returns the file path and dimensions.",
	}, s.handleCaptureScreen)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "find_image",
		Description: "Search the session screen for a template image. Returns whether it was found, the top-left corner of the best match in screen coordinates, and the similarity score.",
	}, s.handleFindImage)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "wait_for_image",
		Description: "Re-capture and search for a template image every 100ms until it appears or the timeout passes. Timing out is not an error; found stays false. With gone=true, waits for the image to disappear instead and sets gone in the output.",
	}, s.handleWaitForImage)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "extract_text",
		Description: "Read text from a region of the session screen. Pixels whose color falls between color_low and color_high count as text; choose bounds matching the font color. Returns the raw engine output.",
	}, s.handleExtractText)
}
