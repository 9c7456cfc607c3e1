package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Alex-deVis/xControl/internal/geometry"
	"github.com/Alex-deVis/xControl/internal/input"
	"github.com/Alex-deVis/xControl/internal/match"
	"github.com/Alex-deVis/xControl/internal/ocr"
	"github.com/Alex-deVis/xControl/internal/session"
)

// sessionFor resolves a tool's target session.
func (s *Server) sessionFor(identifier int) (*session.Session, error) {
	sess, ok := s.registry.Get(identifier)
	if !ok {
		return nil, fmt.Errorf("no session %d; call create_session first", identifier)
	}
	return sess, nil
}

func sessionStatus(sess *session.Session) SessionStatus {
	apps := sess.Apps()
	infos := make([]AppStatus, len(apps))
	for i, a := range apps {
		infos[i] = AppStatus{Command: a.Command, Pid: a.Pid, Running: a.Running}
	}

	return SessionStatus{
		Session: sess.Identifier(),
		Display: sess.Display(),
		Width:   sess.Width(),
		Height:  sess.Height(),
		Alive:   sess.Alive(),
		Apps:    infos,
	}
}

func (s *Server) handleCreateSession(_ context.Context, _ *mcpsdk.CallToolRequest, args CreateSessionInput) (*mcpsdk.CallToolResult, SessionStatus, error) {
	width, height := args.Width, args.Height
	if width <= 0 {
		width = s.config.DefaultScreen.Width
	}
	if height <= 0 {
		height = s.config.DefaultScreen.Height
	}

	sess, err := s.registry.GetOrCreate(args.Session, width, height)
	if err != nil {
		return nil, SessionStatus{}, err
	}
	return nil, sessionStatus(sess), nil
}

func (s *Server) handleListSessions(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListSessionsInput) (*mcpsdk.CallToolResult, ListSessionsOutput, error) {
	sessions := s.registry.List()
	out := ListSessionsOutput{Sessions: make([]SessionStatus, len(sessions))}
	for i, sess := range sessions {
		out.Sessions[i] = sessionStatus(sess)
	}
	return nil, out, nil
}

func (s *Server) handleCloseSession(_ context.Context, _ *mcpsdk.CallToolRequest, args CloseSessionInput) (*mcpsdk.CallToolResult, CloseSessionOutput, error) {
	if err := s.registry.Close(args.Session); err != nil {
		return nil, CloseSessionOutput{}, err
	}
	return nil, CloseSessionOutput{Closed: true}, nil
}

func (s *Server) handleLaunchApp(_ context.Context, _ *mcpsdk.CallToolRequest, args LaunchAppInput) (*mcpsdk.CallToolResult, LaunchAppOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, LaunchAppOutput{}, err
	}

	app, err := sess.Launch(args.Command, session.LaunchOptions{Env: args.Env, Wait: args.Wait})
	if err != nil {
		return nil, LaunchAppOutput{}, err
	}
	return nil, LaunchAppOutput{Command: app.Command, Pid: app.Pid, Running: app.Running()}, nil
}

func (s *Server) handleRunCommand(_ context.Context, _ *mcpsdk.CallToolRequest, args RunCommandInput) (*mcpsdk.CallToolResult, RunCommandOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, RunCommandOutput{}, err
	}

	out, err := sess.Run(args.Command, time.Duration(args.TimeoutSeconds)*time.Second)
	if err != nil {
		return nil, RunCommandOutput{}, err
	}
	text, truncated := truncateOutput(out)
	return nil, RunCommandOutput{Output: text, Truncated: truncated}, nil
}

func (s *Server) handleTypeText(_ context.Context, _ *mcpsdk.CallToolRequest, args TypeTextInput) (*mcpsdk.CallToolResult, TypeTextOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, TypeTextOutput{}, err
	}

	if args.Replace {
		err = sess.TypeReplacing(args.Text)
	} else {
		err = sess.Type(args.Text)
	}
	if err != nil {
		return nil, TypeTextOutput{}, err
	}
	return nil, TypeTextOutput{Typed: len(args.Text)}, nil
}

func (s *Server) handlePressKey(_ context.Context, _ *mcpsdk.CallToolRequest, args PressKeyInput) (*mcpsdk.CallToolResult, PressKeyOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, PressKeyOutput{}, err
	}

	if err := sess.Key(args.Combo); err != nil {
		return nil, PressKeyOutput{}, err
	}
	return nil, PressKeyOutput{Pressed: args.Combo}, nil
}

func (s *Server) handleClick(_ context.Context, _ *mcpsdk.CallToolRequest, args ClickInput) (*mcpsdk.CallToolResult, ClickOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, ClickOutput{}, err
	}
	button, err := parseButtonArg(args.Button)
	if err != nil {
		return nil, ClickOutput{}, err
	}

	if err := sess.Click(geometry.Point{X: args.X, Y: args.Y}, button); err != nil {
		return nil, ClickOutput{}, err
	}
	return nil, ClickOutput{X: args.X, Y: args.Y, Button: button.String()}, nil
}

func (s *Server) handleMoveMouse(_ context.Context, _ *mcpsdk.CallToolRequest, args MoveMouseInput) (*mcpsdk.CallToolResult, MoveMouseOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, MoveMouseOutput{}, err
	}

	if err := sess.MoveMouse(geometry.Point{X: args.X, Y: args.Y}); err != nil {
		return nil, MoveMouseOutput{}, err
	}
	return nil, MoveMouseOutput{X: args.X, Y: args.Y}, nil
}

func (s *Server) handleDragMouse(_ context.Context, _ *mcpsdk.CallToolRequest, args DragMouseInput) (*mcpsdk.CallToolResult, DragMouseOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, DragMouseOutput{}, err
	}
	button, err := parseButtonArg(args.Button)
	if err != nil {
		return nil, DragMouseOutput{}, err
	}

	from := geometry.Point{X: args.FromX, Y: args.FromY}
	to := geometry.Point{X: args.ToX, Y: args.ToY}
	if err := sess.Drag(from, to, button); err != nil {
		return nil, DragMouseOutput{}, err
	}
	return nil, DragMouseOutput{
		FromX:  args.FromX,
		FromY:  args.FromY,
		ToX:    args.ToX,
		ToY:    args.ToY,
		Button: button.String(),
	}, nil
}

func (s *Server) handleMouseLocation(_ context.Context, _ *mcpsdk.CallToolRequest, args MouseLocationInput) (*mcpsdk.CallToolResult, MouseLocationOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, MouseLocationOutput{}, err
	}

	p, err := sess.MouseLocation()
	if err != nil {
		return nil, MouseLocationOutput{}, err
	}
	return nil, MouseLocationOutput{X: p.X, Y: p.Y}, nil
}

func (s *Server) handleCaptureScreen(_ context.Context, _ *mcpsdk.CallToolRequest, args CaptureScreenInput) (*mcpsdk.CallToolResult, CaptureScreenOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, CaptureScreenOutput{}, err
	}
	region, err := parseRegionArg(args.Region)
	if err != nil {
		return nil, CaptureScreenOutput{}, err
	}

	img, err := sess.Capture(region)
	if err != nil {
		return nil, CaptureScreenOutput{}, err
	}
	path, err := s.deps.Artifacts.SaveImage(img, "capture")
	if err != nil {
		return nil, CaptureScreenOutput{}, fmt.Errorf("failed to save capture: %w", err)
	}

	bounds := img.Bounds()
	return nil, CaptureScreenOutput{Path: path, Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func (s *Server) handleFindImage(_ context.Context, _ *mcpsdk.CallToolRequest, args FindImageInput) (*mcpsdk.CallToolResult, FindImageOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, FindImageOutput{}, err
	}
	region, err := parseRegionArg(args.Region)
	if err != nil {
		return nil, FindImageOutput{}, err
	}
	needle, err := match.LoadImage(args.Image)
	if err != nil {
		return nil, FindImageOutput{}, err
	}

	res, err := sess.FindImage(needle, region, args.Confidence)
	if err != nil {
		return nil, FindImageOutput{}, err
	}
	return nil, FindImageOutput{
		Found:      res.Found,
		X:          res.Location.X,
		Y:          res.Location.Y,
		Confidence: res.Confidence,
	}, nil
}

func (s *Server) handleWaitForImage(_ context.Context, _ *mcpsdk.CallToolRequest, args WaitForImageInput) (*mcpsdk.CallToolResult, FindImageOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, FindImageOutput{}, err
	}
	region, err := parseRegionArg(args.Region)
	if err != nil {
		return nil, FindImageOutput{}, err
	}
	needle, err := match.LoadImage(args.Image)
	if err != nil {
		return nil, FindImageOutput{}, err
	}
	timeout := time.Duration(args.TimeoutSeconds) * time.Second

	if args.Gone {
		gone, err := sess.WaitForImageGone(needle, region, args.Confidence, timeout)
		if err != nil {
			return nil, FindImageOutput{}, err
		}
		return nil, FindImageOutput{Gone: &gone}, nil
	}

	res, err := sess.WaitForImage(needle, region, args.Confidence, timeout)
	if err != nil {
		return nil, FindImageOutput{}, err
	}
	return nil, FindImageOutput{
		Found:      res.Found,
		X:          res.Location.X,
		Y:          res.Location.Y,
		Confidence: res.Confidence,
	}, nil
}

func (s *Server) handleExtractText(_ context.Context, _ *mcpsdk.CallToolRequest, args ExtractTextInput) (*mcpsdk.CallToolResult, ExtractTextOutput, error) {
	sess, err := s.sessionFor(args.Session)
	if err != nil {
		return nil, ExtractTextOutput{}, err
	}
	region, err := parseRegionArg(args.Region)
	if err != nil {
		return nil, ExtractTextOutput{}, err
	}
	spec, err := parseOcrSpecArgs(args.Mode, args.ColorLow, args.ColorHigh)
	if err != nil {
		return nil, ExtractTextOutput{}, err
	}

	text, err := sess.ExtractText(region, spec, args.Preview)
	if err != nil {
		return nil, ExtractTextOutput{}, err
	}
	return nil, ExtractTextOutput{Text: text}, nil
}

// parseButtonArg maps a tool's button argument to an X11 button, defaulting
// to a left click.
func parseButtonArg(s string) (input.Button, error) {
	if s == "" {
		return input.ButtonLeft, nil
	}
	return input.ParseButton(s)
}

// parseRegionArg parses a tool's region argument. Empty means the full
// screen, expressed as the zero region.
func parseRegionArg(s string) (geometry.Region, error) {
	if s == "" {
		return geometry.Region{}, nil
	}
	return geometry.ParseRegion(s)
}

// parseOcrSpecArgs builds an extraction spec from tool arguments. The mode
// defaults to single_line; the color bounds are mandatory because no single
// range suits both light-on-dark and dark-on-light text.
func parseOcrSpecArgs(mode, colorLow, colorHigh string) (ocr.Spec, error) {
	if mode == "" {
		mode = string(ocr.ModeSingleLine)
	}
	m, err := ocr.ParseMode(mode)
	if err != nil {
		return ocr.Spec{}, err
	}
	if colorLow == "" || colorHigh == "" {
		return ocr.Spec{}, fmt.Errorf("color_low and color_high are required, as r,g,b")
	}
	low, err := ocr.ParseRGB(colorLow)
	if err != nil {
		return ocr.Spec{}, err
	}
	high, err := ocr.ParseRGB(colorHigh)
	if err != nil {
		return ocr.Spec{}, err
	}

	spec := ocr.Spec{Mode: m, Range: ocr.ColorRange{Low: low, High: high}}
	if err := spec.Validate(); err != nil {
		return ocr.Spec{}, err
	}
	return spec, nil
}
