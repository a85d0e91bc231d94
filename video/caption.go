package video

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"tilbot/config"
)

// CaptionStyle controls how the post title is drawn over the background
type CaptionStyle struct {
	Font        string
	FontSize    int
	BoxWidth    int
	BoxHeight   int
	MarginX     int
	Outline     int
	FrameWidth  int
	FrameHeight int
}

// DefaultCaptionStyle is white Futura with a black outline, centred in a 700x1454 box
func DefaultCaptionStyle() CaptionStyle {
	return CaptionStyle{
		Font:        config.CaptionFont,
		FontSize:    config.CaptionFontSize,
		BoxWidth:    config.CaptionBoxWidth,
		BoxHeight:   config.CaptionBoxHeight,
		MarginX:     config.CaptionMarginX,
		Outline:     config.CaptionOutline,
		FrameWidth:  config.VideoWidth,
		FrameHeight: config.VideoHeight,
	}
}

// sideMargin is the distance from the frame edge to the text area on each side
func (s CaptionStyle) sideMargin() int {
	return (s.FrameWidth-s.BoxWidth)/2 + s.MarginX
}

// verticalMargin is the distance from the frame edge to the caption box
func (s CaptionStyle) verticalMargin() int {
	return (s.FrameHeight - s.BoxHeight) / 2
}

// WriteCaption writes an ASS script showing text for the whole duration
func WriteCaption(path, text string, duration time.Duration, style CaptionStyle) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(file)

	// ASS Header
	fmt.Fprintln(w, "[Script Info]")
	fmt.Fprintln(w, "Title: Today I Learnt")
	fmt.Fprintln(w, "ScriptType: v4.00+")
	fmt.Fprintln(w, "WrapStyle: 0")
	fmt.Fprintf(w, "PlayResX: %d\n", style.FrameWidth)
	fmt.Fprintf(w, "PlayResY: %d\n", style.FrameHeight)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "[V4+ Styles]")
	fmt.Fprintln(w, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding")

	// Alignment 5 is middle-centre; libass wraps inside MarginL/MarginR
	fmt.Fprintf(w, "Style: Caption,%s,%d,&H00FFFFFF,&H00FFFFFF,&H00000000,&H00000000,0,0,0,0,100,100,0,0,1,%d,0,5,%d,%d,%d,1\n",
		style.Font, style.FontSize, style.Outline, style.sideMargin(), style.sideMargin(), style.verticalMargin())

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "[Events]")
	fmt.Fprintln(w, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")
	fmt.Fprintf(w, "Dialogue: 0,%s,%s,Caption,,0,0,0,,%s\n",
		formatASSTimestamp(0),
		formatASSTimestamp(duration),
		escapeASS(text))

	if err := w.Flush(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// formatASSTimestamp renders h:mm:ss.cc, rounding up so the caption never ends early
func formatASSTimestamp(d time.Duration) string {
	cs := int64((d + 10*time.Millisecond - 1) / (10 * time.Millisecond))
	hours := cs / 360000
	minutes := (cs / 6000) % 60
	secs := (cs / 100) % 60
	centisecs := cs % 100

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centisecs)
}

var assReplacer = strings.NewReplacer(
	"\\", "/",
	"{", "(",
	"}", ")",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
)

// escapeASS neutralises override blocks and escape sequences in user text
func escapeASS(text string) string {
	return strings.TrimSpace(assReplacer.Replace(text))
}
