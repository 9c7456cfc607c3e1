package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Alex-deVis/xControl/internal/config"
	"github.com/Alex-deVis/xControl/internal/geometry"
	"github.com/Alex-deVis/xControl/internal/input"
	"github.com/Alex-deVis/xControl/internal/session"
)

// attachSession connects an operation to an already-running display. No
// daemon involved; the display itself is the source of truth.
func attachSession(identifier int) (*session.Session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return session.Attach(identifier, session.DefaultDeps(cfg))
}

func runLaunch(args []string) int {
	fs := flag.NewFlagSet("launch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol launch -display N [options] <command...>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Start an application inside session :N. The application keeps running")
		fmt.Fprintln(os.Stderr, "after this command exits.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	wrap := fs.String("wrap", "", "Launch wrapper template overriding the configured one, e.g. \"vglrun -d {{hostDisplay}} {{cmd}}\"")
	wait := fs.Bool("wait", false, "Wait for the application to exit")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "launch requires -display")
		fs.Usage()
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "launch requires <command...>")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if *wrap != "" {
		cfg.LaunchWrapper = *wrap
	}
	sess, err := session.Attach(*display, session.DefaultDeps(cfg))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	app, err := sess.Launch(strings.Join(fs.Args(), " "), session.LaunchOptions{Wait: *wait})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !*wait {
		fmt.Printf("pid: %d\n", app.Pid)
	}
	return 0
}

func runRun(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol run -display N [-timeout 5s] <command...>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Run a command with the session display in its environment, wait for")
		fmt.Fprintln(os.Stderr, "it, and print its standard output.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	timeout := fs.Duration("timeout", 0, "Give up after this long (default 5s)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "run requires -display")
		fs.Usage()
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "run requires <command...>")
		fs.Usage()
		return 2
	}

	sess, err := attachSession(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	out, err := sess.Run(strings.Join(fs.Args(), " "), *timeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(out)
	return 0
}

func runType(args []string) int {
	fs := flag.NewFlagSet("type", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol type -display N [-replace] <text...>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Type text into whatever has focus inside the session.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	replace := fs.Bool("replace", false, "Clear the focused field first (Home, shift+End, Delete)")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "type requires -display")
		fs.Usage()
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "type requires <text...>")
		fs.Usage()
		return 2
	}

	sess, err := attachSession(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	text := strings.Join(fs.Args(), " ")
	if *replace {
		err = sess.TypeReplacing(text)
	} else {
		err = sess.Type(text)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runKey(args []string) int {
	fs := flag.NewFlagSet("key", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol key -display N <combo>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Press a key or chorded combination, e.g. Return or ctrl+alt+t.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "key requires -display")
		fs.Usage()
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "key requires exactly one <combo>")
		fs.Usage()
		return 2
	}

	sess, err := attachSession(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := sess.Key(fs.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runClick(args []string) int {
	fs := flag.NewFlagSet("click", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol click -display N [-button left] <x> <y>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Click at a position inside the session.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	button := fs.String("button", "left", "Mouse button: left, middle, right, scroll-up, scroll-down, or 1-5")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "click requires -display")
		fs.Usage()
		return 2
	}
	p, ok := parsePointArgs(fs.Args(), "click")
	if !ok {
		fs.Usage()
		return 2
	}
	btn, err := input.ParseButton(*button)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	sess, err := attachSession(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := sess.Click(p, btn); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMove(args []string) int {
	fs := flag.NewFlagSet("move", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol move -display N <x> <y>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Move the mouse pointer without clicking.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "move requires -display")
		fs.Usage()
		return 2
	}
	p, ok := parsePointArgs(fs.Args(), "move")
	if !ok {
		fs.Usage()
		return 2
	}

	sess, err := attachSession(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := sess.MoveMouse(p); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runDrag(args []string) int {
	fs := flag.NewFlagSet("drag", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol drag -display N [-button left] <x1> <y1> <x2> <y2>")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Press at the start position, glide to the end position, release.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	button := fs.String("button", "left", "Mouse button to hold")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "drag requires -display")
		fs.Usage()
		return 2
	}
	if fs.NArg() != 4 {
		fmt.Fprintln(os.Stderr, "drag requires <x1> <y1> <x2> <y2>")
		fs.Usage()
		return 2
	}
	coords := make([]int, 4)
	for i, arg := range fs.Args() {
		n, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "drag coordinate %q is not a number\n", arg)
			fs.Usage()
			return 2
		}
		coords[i] = n
	}
	btn, err := input.ParseButton(*button)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	sess, err := attachSession(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	start := geometry.Point{X: coords[0], Y: coords[1]}
	end := geometry.Point{X: coords[2], Y: coords[3]}
	if err := sess.Drag(start, end, btn); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runMousePos(args []string) int {
	fs := flag.NewFlagSet("mouse-pos", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol mouse-pos -display N")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the pointer position as x,y.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "mouse-pos requires -display")
		fs.Usage()
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "mouse-pos takes no arguments")
		fs.Usage()
		return 2
	}

	sess, err := attachSession(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	p, err := sess.MouseLocation()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("%d,%d\n", p.X, p.Y)
	return 0
}

// parsePointArgs reads two positional coordinates.
func parsePointArgs(args []string, command string) (geometry.Point, bool) {
	if len(args) != 2 {
		fmt.Fprintf(os.Stderr, "%s requires <x> <y>\n", command)
		return geometry.Point{}, false
	}
	x, errX := strconv.Atoi(args[0])
	y, errY := strconv.Atoi(args[1])
	if errX != nil || errY != nil {
		fmt.Fprintf(os.Stderr, "%s coordinates must be numbers, got %q %q\n", command, args[0], args[1])
		return geometry.Point{}, false
	}
	return geometry.Point{X: x, Y: y}, true
}
