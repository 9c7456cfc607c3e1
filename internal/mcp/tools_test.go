package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Alex-deVis/xControl/internal/config"
	"github.com/Alex-deVis/xControl/internal/geometry"
	"github.com/Alex-deVis/xControl/internal/input"
	"github.com/Alex-deVis/xControl/internal/ocr"
	"github.com/Alex-deVis/xControl/internal/session"
)

type toolProcess struct {
	pid int

	mu      sync.Mutex
	running bool
}

func (p *toolProcess) Pid() int { return p.pid }

func (p *toolProcess) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *toolProcess) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	return nil
}

func (p *toolProcess) Wait() error { return nil }

type toolDisplay struct{}

func (toolDisplay) Name() string    { return "fakeserver" }
func (toolDisplay) Available() bool { return true }

func (toolDisplay) Start(identifier, width, height int) (session.Process, string, error) {
	return &toolProcess{pid: 1000 + identifier, running: true}, fmt.Sprintf(":%d", 100+identifier), nil
}

func (toolDisplay) HostWindowTitle(identifier int) string { return "" }

type toolWM struct{}

func (toolWM) Name() string    { return "fakewm" }
func (toolWM) Available() bool { return true }

func (toolWM) Start(display string) (session.Process, error) {
	return &toolProcess{pid: 2000, running: true}, nil
}

type toolLauncher struct {
	runOut string

	mu  sync.Mutex
	ran []string
}

func (l *toolLauncher) Start(command, display string, extraEnv map[string]string) (session.Process, error) {
	return &toolProcess{pid: 3000, running: true}, nil
}

func (l *toolLauncher) Run(command, display string, timeout time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ran = append(l.ran, command)
	return l.runOut, nil
}

// testServer wires a Server around fakes. The mcpServer field stays nil;
// handlers never touch it.
func testServer(launcher *toolLauncher) *Server {
	if launcher == nil {
		launcher = &toolLauncher{}
	}
	deps := session.Deps{
		Display:  toolDisplay{},
		WM:       toolWM{},
		Launcher: launcher,
	}
	return &Server{
		config:   config.DefaultConfig(),
		registry: session.NewRegistry(deps),
		deps:     deps,
	}
}

func TestHandleCreateSessionDefaultsDimensions(t *testing.T) {
	s := testServer(nil)

	_, out, err := s.handleCreateSession(context.Background(), nil, CreateSessionInput{Session: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Width != s.config.DefaultScreen.Width || out.Height != s.config.DefaultScreen.Height {
		t.Errorf("dimensions = %dx%d, want config default %dx%d",
			out.Width, out.Height, s.config.DefaultScreen.Width, s.config.DefaultScreen.Height)
	}
	if out.Session != 1 || out.Display != ":101" {
		t.Errorf("session/display = %d/%q, want 1/:101", out.Session, out.Display)
	}
	if !out.Alive {
		t.Error("fresh session should be alive")
	}
}

func TestHandleCreateSessionExplicitDimensions(t *testing.T) {
	s := testServer(nil)

	_, out, err := s.handleCreateSession(context.Background(), nil, CreateSessionInput{Session: 2, Width: 640, Height: 480})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.Width != 640 || out.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", out.Width, out.Height)
	}
}

func TestHandleListAndCloseSessions(t *testing.T) {
	s := testServer(nil)
	ctx := context.Background()

	for _, id := range []int{1, 3} {
		if _, _, err := s.handleCreateSession(ctx, nil, CreateSessionInput{Session: id}); err != nil {
			t.Fatalf("create %d: %v", id, err)
		}
	}

	_, list, err := s.handleListSessions(ctx, nil, ListSessionsInput{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Sessions) != 2 {
		t.Fatalf("listed %d sessions, want 2", len(list.Sessions))
	}

	_, closed, err := s.handleCloseSession(ctx, nil, CloseSessionInput{Session: 1})
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if !closed.Closed {
		t.Error("close output should report closed")
	}

	_, list, err = s.handleListSessions(ctx, nil, ListSessionsInput{})
	if err != nil {
		t.Fatalf("list after close: %v", err)
	}
	if len(list.Sessions) != 1 || list.Sessions[0].Session != 3 {
		t.Errorf("sessions after close = %+v, want only 3", list.Sessions)
	}
}

func TestHandleCloseSessionMissing(t *testing.T) {
	s := testServer(nil)

	_, _, err := s.handleCloseSession(context.Background(), nil, CloseSessionInput{Session: 9})
	if err == nil {
		t.Fatal("closing a session that does not exist should fail")
	}
}

func TestSessionForMissing(t *testing.T) {
	s := testServer(nil)

	_, _, err := s.handleTypeText(context.Background(), nil, TypeTextInput{Session: 5, Text: "hi"})
	if err == nil || !strings.Contains(err.Error(), "no session 5") {
		t.Errorf("error = %v, want mention of missing session 5", err)
	}
	if !strings.Contains(err.Error(), "create_session") {
		t.Errorf("error = %v, want a hint toward create_session", err)
	}
}

func TestHandleRunCommandTruncates(t *testing.T) {
	launcher := &toolLauncher{runOut: strings.Repeat("spam\n", maxOutputBytes)}
	s := testServer(launcher)
	ctx := context.Background()

	if _, _, err := s.handleCreateSession(ctx, nil, CreateSessionInput{Session: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, out, err := s.handleRunCommand(ctx, nil, RunCommandInput{Session: 1, Command: "yes spam"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !out.Truncated {
		t.Error("oversized output should be marked truncated")
	}
	if !strings.HasSuffix(out.Output, truncationMarker) {
		t.Error("truncated output missing marker")
	}
	if launcher.ran[0] != "yes spam" {
		t.Errorf("ran %q, want %q", launcher.ran[0], "yes spam")
	}
}

func TestParseButtonArg(t *testing.T) {
	tests := []struct {
		input   string
		want    input.Button
		wantErr bool
	}{
		{"", input.ButtonLeft, false},
		{"left", input.ButtonLeft, false},
		{"right", input.ButtonRight, false},
		{"scroll-up", input.ButtonScrollUp, false},
		{"4", input.ButtonScrollUp, false},
		{"sideways", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseButtonArg(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseButtonArg(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("parseButtonArg(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRegionArg(t *testing.T) {
	got, err := parseRegionArg("")
	if err != nil {
		t.Fatalf("empty region: %v", err)
	}
	if !got.Empty() {
		t.Errorf("empty argument should mean the zero region, got %v", got)
	}

	got, err = parseRegionArg("300x200+10+20")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := geometry.Region{Origin: geometry.Point{X: 10, Y: 20}, Width: 300, Height: 200}
	if got != want {
		t.Errorf("parseRegionArg() = %v, want %v", got, want)
	}

	if _, err := parseRegionArg("banana"); err == nil {
		t.Error("malformed region should fail")
	}
}

func TestParseOcrSpecArgs(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		low, high string
		wantMode  ocr.Mode
		wantErr   string
	}{
		{"defaults to single line", "", "200,200,200", "255,255,255", ocr.ModeSingleLine, ""},
		{"explicit mode", "number", "0,0,0", "80,80,80", ocr.ModeNumber, ""},
		{"missing low", "", "", "255,255,255", "", "color_low and color_high are required"},
		{"missing high", "", "0,0,0", "", "", "color_low and color_high are required"},
		{"bad mode", "paragraph", "0,0,0", "10,10,10", "", "unknown segmentation mode"},
		{"bad rgb", "", "0,0", "10,10,10", "", "must be r,g,b"},
		{"inverted range", "", "200,0,0", "100,255,255", "", "above high"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := parseOcrSpecArgs(tt.mode, tt.low, tt.high)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("parseOcrSpecArgs() error = %v", err)
				}
				if spec.Mode != tt.wantMode {
					t.Errorf("mode = %v, want %v", spec.Mode, tt.wantMode)
				}
				return
			}
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
