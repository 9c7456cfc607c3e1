package mcp

// CreateSessionInput is the input for the create_session tool.
type CreateSessionInput struct {
	Session int `json:"session" jsonschema:"required,Numeric session identifier; the nested display becomes :<session>"`
	Width   int `json:"width,omitempty" jsonschema:"Screen width in pixels (default from config)"`
	Height  int `json:"height,omitempty" jsonschema:"Screen height in pixels (default from config)"`
}

// AppStatus describes an application launched into a session.
type AppStatus struct {
	Command string `json:"command"`
	Pid     int    `json:"pid"`
	Running bool   `json:"running"`
}

// SessionStatus describes a live session and what is running inside it.
// It is the output of create_session and one entry of list_sessions.
type SessionStatus struct {
	Session int         `json:"session"`
	Display string      `json:"display"`
	Width   int         `json:"width"`
	Height  int         `json:"height"`
	Alive   bool        `json:"alive"`
	Apps    []AppStatus `json:"apps,omitempty"`
}

// ListSessionsInput is the input for the list_sessions tool.
type ListSessionsInput struct{}

// ListSessionsOutput is the output for the list_sessions tool.
type ListSessionsOutput struct {
	Sessions []SessionStatus `json:"sessions"`
}

// CloseSessionInput is the input for the close_session tool.
type CloseSessionInput struct {
	Session int `json:"session" jsonschema:"required,Identifier of the session to close"`
}

// CloseSessionOutput is the output for the close_session tool.
type CloseSessionOutput struct {
	Closed bool `json:"closed"`
}

// LaunchAppInput is the input for the launch_app tool.
type LaunchAppInput struct {
	Session int               `json:"session" jsonschema:"required,Target session identifier"`
	Command string            `json:"command" jsonschema:"required,Command line to start inside the session"`
	Env     map[string]string `json:"env,omitempty" jsonschema:"Extra environment variables for the application"`
	Wait    bool              `json:"wait,omitempty" jsonschema:"When true, wait for the command to exit before returning"`
}

// LaunchAppOutput is the output for the launch_app tool.
type LaunchAppOutput struct {
	Command string `json:"command"`
	Pid     int    `json:"pid"`
	Running bool   `json:"running"`
}

// RunCommandInput is the input for the run_command tool.
type RunCommandInput struct {
	Session        int    `json:"session" jsonschema:"required,Target session identifier"`
	Command        string `json:"command" jsonschema:"required,Shell command to run with the session display in its environment"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" jsonschema:"Seconds to wait for the command (default: 5)"`
}

// RunCommandOutput is the output for the run_command tool.
type RunCommandOutput struct {
	Output    string `json:"output"`
	Truncated bool   `json:"truncated"`
}

// TypeTextInput is the input for the type_text tool.
type TypeTextInput struct {
	Session int    `json:"session" jsonschema:"required,Target session identifier"`
	Text    string `json:"text" jsonschema:"required,Text to type into the focused application"`
	Replace bool   `json:"replace,omitempty" jsonschema:"When true, clear the focused field before typing"`
}

// TypeTextOutput is the output for the type_text tool.
type TypeTextOutput struct {
	Typed int `json:"typed"`
}

// PressKeyInput is the input for the press_key tool.
type PressKeyInput struct {
	Session int    `json:"session" jsonschema:"required,Target session identifier"`
	Combo   string `json:"combo" jsonschema:"required,Key or chorded combination such as Return or ctrl+alt+t"`
}

// PressKeyOutput is the output for the press_key tool.
type PressKeyOutput struct {
	Pressed string `json:"pressed"`
}

// ClickInput is the input for the click tool.
type ClickInput struct {
	Session int    `json:"session" jsonschema:"required,Target session identifier"`
	X       int    `json:"x" jsonschema:"required,X coordinate in session pixels"`
	Y       int    `json:"y" jsonschema:"required,Y coordinate in session pixels"`
	Button  string `json:"button,omitempty" jsonschema:"Mouse button: left, middle, right, scroll-up, scroll-down, or 1-5 (default: left)"`
}

// ClickOutput is the output for the click tool.
type ClickOutput struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Button string `json:"button"`
}

// MoveMouseInput is the input for the move_mouse tool.
type MoveMouseInput struct {
	Session int `json:"session" jsonschema:"required,Target session identifier"`
	X       int `json:"x" jsonschema:"required,X coordinate in session pixels"`
	Y       int `json:"y" jsonschema:"required,Y coordinate in session pixels"`
}

// MoveMouseOutput is the output for the move_mouse tool.
type MoveMouseOutput struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DragMouseInput is the input for the drag_mouse tool.
type DragMouseInput struct {
	Session int    `json:"session" jsonschema:"required,Target session identifier"`
	FromX   int    `json:"from_x" jsonschema:"required,Drag start X coordinate"`
	FromY   int    `json:"from_y" jsonschema:"required,Drag start Y coordinate"`
	ToX     int    `json:"to_x" jsonschema:"required,Drag end X coordinate"`
	ToY     int    `json:"to_y" jsonschema:"required,Drag end Y coordinate"`
	Button  string `json:"button,omitempty" jsonschema:"Mouse button to hold (default: left)"`
}

// DragMouseOutput is the output for the drag_mouse tool.
type DragMouseOutput struct {
	FromX  int    `json:"from_x"`
	FromY  int    `json:"from_y"`
	ToX    int    `json:"to_x"`
	ToY    int    `json:"to_y"`
	Button string `json:"button"`
}

// MouseLocationInput is the input for the mouse_location tool.
type MouseLocationInput struct {
	Session int `json:"session" jsonschema:"required,Target session identifier"`
}

// MouseLocationOutput is the output for the mouse_location tool.
type MouseLocationOutput struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CaptureScreenInput is the input for the capture_screen tool.
type CaptureScreenInput struct {
	Session int    `json:"session" jsonschema:"required,Target session identifier"`
	Region  string `json:"region,omitempty" jsonschema:"Capture rectangle as WIDTHxHEIGHT+X+Y (default: full screen)"`
}

// CaptureScreenOutput is the output for the capture_screen tool.
type CaptureScreenOutput struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// FindImageInput is the input for the find_image tool.
type FindImageInput struct {
	Session    int     `json:"session" jsonschema:"required,Target session identifier"`
	Image      string  `json:"image" jsonschema:"required,Path to the template PNG to search for"`
	Region     string  `json:"region,omitempty" jsonschema:"Search rectangle as WIDTHxHEIGHT+X+Y (default: full screen)"`
	Confidence float64 `json:"confidence,omitempty" jsonschema:"Minimum similarity in 0..1 (default: 0.7)"`
}

// FindImageOutput is the output for the find_image and wait_for_image
// tools. X and Y are the match's top-left corner in screen coordinates,
// meaningful only when found. Gone is set only by wait_for_image in gone
// mode.
type FindImageOutput struct {
	Found      bool    `json:"found"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Confidence float64 `json:"confidence"`
	Gone       *bool   `json:"gone,omitempty"`
}

// WaitForImageInput is the input for the wait_for_image tool.
type WaitForImageInput struct {
	Session        int     `json:"session" jsonschema:"required,Target session identifier"`
	Image          string  `json:"image" jsonschema:"required,Path to the template PNG to wait for"`
	Region         string  `json:"region,omitempty" jsonschema:"Search rectangle as WIDTHxHEIGHT+X+Y (default: full screen)"`
	Confidence     float64 `json:"confidence,omitempty" jsonschema:"Minimum similarity in 0..1 (default: 0.7)"`
	TimeoutSeconds int     `json:"timeout_seconds,omitempty" jsonschema:"Seconds to keep polling (default: 1)"`
	Gone           bool    `json:"gone,omitempty" jsonschema:"When true, wait for the image to disappear instead"`
}

// ExtractTextInput is the input for the extract_text tool.
type ExtractTextInput struct {
	Session   int    `json:"session" jsonschema:"required,Target session identifier"`
	Region    string `json:"region,omitempty" jsonschema:"Read rectangle as WIDTHxHEIGHT+X+Y (default: full screen)"`
	Mode      string `json:"mode,omitempty" jsonschema:"Text layout: block_of_text, single_line, single_word, or number (default: single_line)"`
	ColorLow  string `json:"color_low" jsonschema:"required,Lower text color bound as r,g,b"`
	ColorHigh string `json:"color_high" jsonschema:"required,Upper text color bound as r,g,b"`
	Preview   bool   `json:"preview,omitempty" jsonschema:"When true, save the captured and binarized region as artifacts"`
}

// ExtractTextOutput is the output for the extract_text tool.
type ExtractTextOutput struct {
	Text string `json:"text"`
}
