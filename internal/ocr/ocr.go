// Package ocr extracts text from screenshots. Pixels are first isolated by
// a color-range test so anti-aliased UI text becomes clean black-on-white
// glyphs, then handed to the tesseract engine.
package ocr

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode tells the engine how text is laid out in the region.
type Mode string

const (
	ModeBlockOfText Mode = "block_of_text"
	ModeSingleLine  Mode = "single_line"
	ModeSingleWord  Mode = "single_word"
	ModeNumber      Mode = "number"
)

// tesseractArgs returns the page segmentation flags for the mode. Number
// mode is a single line restricted to digits.
func (m Mode) tesseractArgs() []string {
	switch m {
	case ModeBlockOfText:
		return []string{"--psm", "6"}
	case ModeSingleLine:
		return []string{"--psm", "7"}
	case ModeSingleWord:
		return []string{"--psm", "8"}
	case ModeNumber:
		return []string{"--psm", "7", "-c", "tessedit_char_whitelist=0123456789"}
	}
	return nil
}

// Valid reports whether m is a known segmentation mode.
func (m Mode) Valid() bool {
	return m.tesseractArgs() != nil
}

// ParseMode maps a mode name from the command line to a Mode. Short forms
// are accepted alongside the canonical names.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "block_of_text", "block":
		return ModeBlockOfText, nil
	case "single_line", "line":
		return ModeSingleLine, nil
	case "single_word", "word":
		return ModeSingleWord, nil
	case "number", "digits":
		return ModeNumber, nil
	}
	return "", fmt.Errorf("unknown segmentation mode %q", s)
}

// ColorRange selects which pixels count as text. A pixel is foreground when
// every channel falls inside [Low, High], both bounds inclusive.
type ColorRange struct {
	Low  [3]uint8
	High [3]uint8
}

// Validate checks that the range is component-wise non-empty.
func (r ColorRange) Validate() error {
	for i := range r.Low {
		if r.Low[i] > r.High[i] {
			return fmt.Errorf("color range channel %d: low %d above high %d", i, r.Low[i], r.High[i])
		}
	}
	return nil
}

func (r ColorRange) contains(red, green, blue uint8) bool {
	return red >= r.Low[0] && red <= r.High[0] &&
		green >= r.Low[1] && green <= r.High[1] &&
		blue >= r.Low[2] && blue <= r.High[2]
}

// Spec configures one extraction: which pixels are text and how the engine
// should segment them.
type Spec struct {
	Mode  Mode
	Range ColorRange
}

// Validate checks the mode and color range.
func (s Spec) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("unknown segmentation mode %q", string(s.Mode))
	}
	return s.Range.Validate()
}

// ParseRGB parses a "r,g,b" triple with each channel in 0..255.
func ParseRGB(s string) ([3]uint8, error) {
	var out [3]uint8
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("color %q must be r,g,b", s)
	}
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 || n > 255 {
			return out, fmt.Errorf("color %q: channel %q out of range 0..255", s, part)
		}
		out[i] = uint8(n)
	}
	return out, nil
}
