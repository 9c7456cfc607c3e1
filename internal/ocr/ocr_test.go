package ocr

import (
	"reflect"
	"testing"
)

func TestModeArgs(t *testing.T) {
	tests := []struct {
		mode Mode
		want []string
	}{
		{mode: ModeBlockOfText, want: []string{"--psm", "6"}},
		{mode: ModeSingleLine, want: []string{"--psm", "7"}},
		{mode: ModeSingleWord, want: []string{"--psm", "8"}},
		{mode: ModeNumber, want: []string{"--psm", "7", "-c", "tessedit_char_whitelist=0123456789"}},
	}
	for _, tt := range tests {
		if got := tt.mode.tesseractArgs(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s args = %v, want %v", tt.mode, got, tt.want)
		}
	}
	if Mode("sideways").Valid() {
		t.Error("unknown mode reported valid")
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "block_of_text", want: ModeBlockOfText},
		{in: "block", want: ModeBlockOfText},
		{in: "single_line", want: ModeSingleLine},
		{in: "LINE", want: ModeSingleLine},
		{in: "word", want: ModeSingleWord},
		{in: "number", want: ModeNumber},
		{in: "digits", want: ModeNumber},
		{in: "", wantErr: true},
		{in: "paragraph", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseMode(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMode(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestColorRangeValidate(t *testing.T) {
	ok := ColorRange{Low: [3]uint8{0, 10, 20}, High: [3]uint8{0, 10, 20}}
	if err := ok.Validate(); err != nil {
		t.Errorf("equal bounds should validate: %v", err)
	}
	bad := ColorRange{Low: [3]uint8{0, 50, 0}, High: [3]uint8{255, 49, 255}}
	if err := bad.Validate(); err == nil {
		t.Error("inverted channel bound should not validate")
	}
}

func TestSpecValidate(t *testing.T) {
	good := Spec{Mode: ModeSingleLine, Range: ColorRange{High: [3]uint8{255, 255, 255}}}
	if err := good.Validate(); err != nil {
		t.Errorf("valid spec rejected: %v", err)
	}
	bad := Spec{Mode: Mode("nope"), Range: ColorRange{High: [3]uint8{255, 255, 255}}}
	if err := bad.Validate(); err == nil {
		t.Error("unknown mode accepted")
	}
}

func TestParseRGB(t *testing.T) {
	tests := []struct {
		in      string
		want    [3]uint8
		wantErr bool
	}{
		{in: "0,0,0", want: [3]uint8{0, 0, 0}},
		{in: "255,255,255", want: [3]uint8{255, 255, 255}},
		{in: " 10, 20 ,30 ", want: [3]uint8{10, 20, 30}},
		{in: "1,2", wantErr: true},
		{in: "1,2,3,4", wantErr: true},
		{in: "256,0,0", wantErr: true},
		{in: "-1,0,0", wantErr: true},
		{in: "a,b,c", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseRGB(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseRGB(%q) = %v, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRGB(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRGB(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
