package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"golang.org/x/term"

	"github.com/Alex-deVis/xControl/internal/artifacts"
	"github.com/Alex-deVis/xControl/internal/config"
	"github.com/Alex-deVis/xControl/internal/geometry"
	"github.com/Alex-deVis/xControl/internal/match"
	"github.com/Alex-deVis/xControl/internal/ocr"
	"github.com/Alex-deVis/xControl/internal/session"
)

func runCapture(args []string) int {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol capture -display N [-region WxH+X+Y] [-o file]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Capture the session screen as PNG. Without -o the image goes to the")
		fmt.Fprintln(os.Stderr, "artifact directory and its path is printed; '-o -' writes to stdout.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	region := fs.String("region", "", "Capture rectangle as WIDTHxHEIGHT+X+Y (default full screen)")
	outPath := fs.String("o", "", "Output file, or - for stdout")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "capture requires -display")
		fs.Usage()
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "capture takes no arguments")
		fs.Usage()
		return 2
	}
	reg, err := parseRegionFlag(*region)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *outPath == "-" && term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "refusing to write PNG to a terminal; redirect stdout or use -o file")
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	sess, err := session.Attach(*display, session.DefaultDeps(cfg))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	img, err := sess.Capture(reg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	switch *outPath {
	case "":
		path, err := artifacts.NewStore(cfg.GetArtifactDir()).SaveImage(img, "capture")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(path)
	case "-":
		if err := png.Encode(os.Stdout, img); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	default:
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := f.Close(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(*outPath)
	}
	return 0
}

func runFind(args []string) int {
	fs := flag.NewFlagSet("find", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol find -display N -image needle.png [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Search the session screen for a template image. Prints the match")
		fmt.Fprintln(os.Stderr, "position; exits 1 when the image is not there.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	imagePath := fs.String("image", "", "Path to the template PNG")
	region := fs.String("region", "", "Search rectangle as WIDTHxHEIGHT+X+Y (default full screen)")
	confidence := fs.Float64("confidence", 0, "Minimum similarity in 0..1 (default from config)")
	wait := fs.Duration("wait", 0, "Keep polling for up to this long, e.g. 2s")
	gone := fs.Bool("gone", false, "With -wait, wait for the image to disappear instead")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "find requires -display")
		fs.Usage()
		return 2
	}
	if *imagePath == "" {
		fmt.Fprintln(os.Stderr, "find requires -image")
		fs.Usage()
		return 2
	}
	reg, err := parseRegionFlag(*region)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	needle, err := match.LoadImage(*imagePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sess, err := attachSession(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *gone {
		isGone, err := sess.WaitForImageGone(needle, reg, *confidence, *wait)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if !isGone {
			fmt.Println("still visible")
			return 1
		}
		fmt.Println("gone")
		return 0
	}

	var res match.Result
	if *wait > 0 {
		res, err = sess.WaitForImage(needle, reg, *confidence, *wait)
	} else {
		res, err = sess.FindImage(needle, reg, *confidence)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if !res.Found {
		fmt.Printf("not found (best confidence %.2f)\n", res.Confidence)
		return 1
	}
	fmt.Printf("found at %d,%d (confidence %.2f)\n", res.Location.X, res.Location.Y, res.Confidence)
	return 0
}

func runOCR(args []string) int {
	fs := flag.NewFlagSet("ocr", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: xcontrol ocr -display N -low r,g,b -high r,g,b [options]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Read text from the session screen. Pixels inside the color range are")
		fmt.Fprintln(os.Stderr, "treated as text; pick bounds that bracket the text color.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	display := fs.Int("display", -1, "Session identifier")
	region := fs.String("region", "", "Read rectangle as WIDTHxHEIGHT+X+Y (default full screen)")
	low := fs.String("low", "", "Lower text color bound as r,g,b")
	high := fs.String("high", "", "Upper text color bound as r,g,b")
	mode := fs.String("psm", string(ocr.ModeSingleLine), "Text layout: block_of_text, single_line, single_word, or number")
	preview := fs.Bool("preview", false, "Save the captured and binarized region as artifacts")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if *display < 0 {
		fmt.Fprintln(os.Stderr, "ocr requires -display")
		fs.Usage()
		return 2
	}
	if *low == "" || *high == "" {
		fmt.Fprintln(os.Stderr, "ocr requires -low and -high color bounds")
		fs.Usage()
		return 2
	}
	reg, err := parseRegionFlag(*region)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	spec, err := buildOcrSpec(*mode, *low, *high)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	sess, err := attachSession(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	text, err := sess.ExtractText(reg, spec, *preview)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Print(text)
	return 0
}

// parseRegionFlag turns a -region value into a Region; empty selects the
// full screen.
func parseRegionFlag(s string) (geometry.Region, error) {
	if s == "" {
		return geometry.Region{}, nil
	}
	return geometry.ParseRegion(s)
}

func buildOcrSpec(mode, low, high string) (ocr.Spec, error) {
	m, err := ocr.ParseMode(mode)
	if err != nil {
		return ocr.Spec{}, err
	}
	lo, err := ocr.ParseRGB(low)
	if err != nil {
		return ocr.Spec{}, err
	}
	hi, err := ocr.ParseRGB(high)
	if err != nil {
		return ocr.Spec{}, err
	}
	spec := ocr.Spec{Mode: m, Range: ocr.ColorRange{Low: lo, High: hi}}
	if err := spec.Validate(); err != nil {
		return ocr.Spec{}, err
	}
	return spec, nil
}
