package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Alex-deVis/xControl/internal/ipc"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		runDaemon(os.Args[2:])
	case "session":
		os.Exit(runSession(os.Args[2:]))
	case "launch":
		os.Exit(runLaunch(os.Args[2:]))
	case "run":
		os.Exit(runRun(os.Args[2:]))
	case "type":
		os.Exit(runType(os.Args[2:]))
	case "key":
		os.Exit(runKey(os.Args[2:]))
	case "click":
		os.Exit(runClick(os.Args[2:]))
	case "move":
		os.Exit(runMove(os.Args[2:]))
	case "drag":
		os.Exit(runDrag(os.Args[2:]))
	case "mouse-pos":
		os.Exit(runMousePos(os.Args[2:]))
	case "capture":
		os.Exit(runCapture(os.Args[2:]))
	case "find":
		os.Exit(runFind(os.Args[2:]))
	case "ocr":
		os.Exit(runOCR(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "version", "-v", "--version":
		fmt.Printf("xcontrol %s\n", version)
		os.Exit(0)
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: xcontrol <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the session daemon (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  session create      Start an isolated display session")
	fmt.Fprintln(w, "  session list        List daemon-owned sessions")
	fmt.Fprintln(w, "  session info        Show one session")
	fmt.Fprintln(w, "  session close       Close a session")
	fmt.Fprintln(w, "  session close-all   Close every daemon-owned session")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  launch              Start an application inside a session")
	fmt.Fprintln(w, "  run                 Run a command against a session and print its output")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  type                Type text into the focused application")
	fmt.Fprintln(w, "  key                 Press a key or key combination")
	fmt.Fprintln(w, "  click               Click at a position")
	fmt.Fprintln(w, "  move                Move the mouse pointer")
	fmt.Fprintln(w, "  drag                Drag from one position to another")
	fmt.Fprintln(w, "  mouse-pos           Print the pointer position")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  capture             Save a screenshot of a session")
	fmt.Fprintln(w, "  find                Locate a template image on the screen")
	fmt.Fprintln(w, "  ocr                 Read text from a screen region")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp                 Serve session tools over MCP (stdio transport)")
	fmt.Fprintln(w, "  version             Print the version")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'xcontrol <command> --help' for command-specific options.")
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.Status()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("pid:            %d\n", status.Pid)
	fmt.Printf("backend:        %s\n", status.Backend)
	fmt.Printf("sessions:       %d\n", status.SessionCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}
