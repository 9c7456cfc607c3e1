package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Alex-deVis/xControl/internal/config"
	"github.com/Alex-deVis/xControl/internal/ipc"
	"github.com/Alex-deVis/xControl/internal/session"
	"github.com/Alex-deVis/xControl/internal/xserver"
)

func printSessionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  xcontrol session create -display N [-width W] [-height H]")
	fmt.Fprintln(w, "  xcontrol session list [--json]")
	fmt.Fprintln(w, "  xcontrol session info -display N")
	fmt.Fprintln(w, "  xcontrol session close -display N")
	fmt.Fprintln(w, "  xcontrol session close-all")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "create and close work with or without the daemon. Without it, create")
	fmt.Fprintln(w, "starts a detached display and window manager pair, and close kills the")
	fmt.Fprintln(w, "display server for the identifier. list, info and close-all need the")
	fmt.Fprintln(w, "daemon, which alone knows its sessions.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'xcontrol session <command> --help' for command-specific options.")
}

func runSession(args []string) int {
	if len(args) == 0 {
		printSessionUsage(os.Stderr)
		return 2
	}
	if args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printSessionUsage(os.Stdout)
		return 0
	}

	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: xcontrol session create -display N [-width W] [-height H]")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Start an isolated display session :N. Uses the daemon when it is")
			fmt.Fprintln(os.Stderr, "running, otherwise starts a detached pair that outlives this command.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		display := fs.Int("display", -1, "Session identifier; the nested display becomes :N")
		width := fs.Int("width", 0, "Screen width in pixels (default from config)")
		height := fs.Int("height", 0, "Screen height in pixels (default from config)")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "session create takes no arguments")
			fs.Usage()
			return 2
		}
		if *display < 0 {
			fmt.Fprintln(os.Stderr, "session create requires -display")
			fs.Usage()
			return 2
		}
		return sessionCreate(*display, *width, *height)

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: xcontrol session list [--json]")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "List the sessions the daemon owns.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		jsonOut := fs.Bool("json", false, "Output session details as JSON")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "session list takes no arguments")
			fs.Usage()
			return 2
		}

		client := ipc.NewClient()
		data, err := client.ListSessions()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if *jsonOut {
			out, err := json.MarshalIndent(data, "", "  ")
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			fmt.Println(string(out))
			return 0
		}
		if len(data.Sessions) == 0 {
			fmt.Println("no sessions")
			return 0
		}
		for _, info := range data.Sessions {
			fmt.Printf("%-4d %-8s %dx%d  alive=%v  apps=%d\n",
				info.Identifier, info.Display, info.Width, info.Height, info.Alive, len(info.Apps))
		}
		return 0

	case "info":
		fs := flag.NewFlagSet("info", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: xcontrol session info -display N")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Show one daemon-owned session and its applications.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		display := fs.Int("display", -1, "Session identifier")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if *display < 0 {
			fmt.Fprintln(os.Stderr, "session info requires -display")
			fs.Usage()
			return 2
		}

		client := ipc.NewClient()
		info, err := client.GetSession(*display)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		printSessionInfo(info)
		return 0

	case "close":
		fs := flag.NewFlagSet("close", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: xcontrol session close -display N")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Close session :N. Uses the daemon when it is running, otherwise")
			fmt.Fprintln(os.Stderr, "kills the display server for the identifier directly.")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
		display := fs.Int("display", -1, "Session identifier")
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if *display < 0 {
			fmt.Fprintln(os.Stderr, "session close requires -display")
			fs.Usage()
			return 2
		}
		return sessionClose(*display)

	case "close-all":
		fs := flag.NewFlagSet("close-all", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		fs.Usage = func() {
			fmt.Fprintln(os.Stderr, "Usage: xcontrol session close-all")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Close every session the daemon owns.")
		}
		if err := fs.Parse(args[1:]); err != nil {
			if err == flag.ErrHelp {
				return 0
			}
			return 2
		}
		if fs.NArg() != 0 {
			fmt.Fprintln(os.Stderr, "session close-all takes no arguments")
			fs.Usage()
			return 2
		}

		client := ipc.NewClient()
		closed, err := client.CloseAllSessions()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("closed %d session(s)\n", closed)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown session command: %s\n\n", args[0])
		printSessionUsage(os.Stderr)
		return 2
	}
}

// sessionCreate starts a session through the daemon when one is running.
// Without a daemon it starts the pair itself; the processes are detached,
// so they keep running after this command exits.
func sessionCreate(identifier, width, height int) int {
	client := ipc.NewClient()
	if client.Ping() == nil {
		info, err := client.CreateSession(identifier, width, height)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		printSessionInfo(info)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if width <= 0 {
		width = cfg.DefaultScreen.Width
	}
	if height <= 0 {
		height = cfg.DefaultScreen.Height
	}

	deps := session.DefaultDeps(cfg)
	if !deps.Display.Available() {
		fmt.Fprintf(os.Stderr, "%s is required but not found in PATH\n", deps.Display.Name())
		return 1
	}
	if !deps.WM.Available() {
		fmt.Fprintf(os.Stderr, "%s is required but not found in PATH\n", deps.WM.Name())
		return 1
	}

	sess, err := session.NewRegistry(deps).GetOrCreate(identifier, width, height)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("session: %d\n", sess.Identifier())
	fmt.Printf("display: %s\n", sess.Display())
	fmt.Printf("size:    %dx%d\n", sess.Width(), sess.Height())
	return 0
}

// sessionClose closes through the daemon when one is running. Without a
// daemon it cannot know what else belongs to the session, so it kills the
// display server by identifier; the window manager and applications exit
// with their display.
func sessionClose(identifier int) int {
	client := ipc.NewClient()
	if client.Ping() == nil {
		if err := client.CloseSession(identifier); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	switch cfg.Backend {
	case config.BackendXvfb:
		err = xserver.NewXvfb(cfg.Tools.Xvfb).StopByIdentifier(identifier)
	default:
		err = xserver.NewXephyr(cfg.Tools.Xephyr).StopByIdentifier(identifier)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printSessionInfo(info *ipc.SessionInfo) {
	fmt.Printf("session: %d\n", info.Identifier)
	fmt.Printf("display: %s\n", info.Display)
	fmt.Printf("size:    %dx%d\n", info.Width, info.Height)
	fmt.Printf("alive:   %v\n", info.Alive)
	for _, app := range info.Apps {
		fmt.Printf("app:     %s (pid %d, running=%v)\n", app.Command, app.Pid, app.Running)
	}
}
