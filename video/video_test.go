package video

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"tilbot/types"
)

type recordingRunner struct {
	calls [][]string
	err   error
}

func (r *recordingRunner) Run(ctx context.Context, name string, args []string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

type stubProber struct {
	info MediaInfo
	err  error
}

func (p stubProber) Probe(ctx context.Context, path string) (MediaInfo, error) {
	return p.info, p.err
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCaptionDuration(t *testing.T) {
	cases := []struct {
		in, want time.Duration
	}{
		{12300 * time.Millisecond, 16300 * time.Millisecond},
		{time.Second, 5 * time.Second},
		{0, 4 * time.Second},
	}
	for _, c := range cases {
		if got := CaptionDuration(c.in); got != c.want {
			t.Fatalf("CaptionDuration(%s) = %s; want %s", c.in, got, c.want)
		}
	}
}

func TestMuxArgsContract(t *testing.T) {
	got := MuxArgs("abc123_temp.mp4", "abc123.mp3", "abc123.mp4")
	want := []string{
		"-i", "abc123_temp.mp4",
		"-i", "abc123.mp3",
		"-filter_complex", "[1:a]adelay=2000|2000[a1];[0:a][a1]amix=inputs=2:duration=first[a]",
		"-map", "0:v",
		"-map", "[a]",
		"-c:v", "copy",
		"-c:a", "aac",
		"-strict", "experimental",
		"abc123.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("MuxArgs =\n%q\nwant\n%q", got, want)
	}
}

func TestMuxRunsContractAndKeepsDuration(t *testing.T) {
	dir := t.TempDir()
	composite := types.CompositeVideo{PostID: "p1", Path: filepath.Join(dir, "p1_temp.mp4"), Duration: 16300 * time.Millisecond}
	narration := types.NarrationAsset{PostID: "p1", Path: filepath.Join(dir, "p1.mp3"), Duration: 12300 * time.Millisecond}
	writeFile(t, composite.Path)
	writeFile(t, narration.Path)
	out := filepath.Join(dir, "p1.mp4")
	writeFile(t, out) // stale output from an earlier attempt

	runner := &recordingRunner{}
	final, err := NewMuxer("ffmpeg", runner).Mux(context.Background(), composite, narration, out)
	if err != nil {
		t.Fatalf("Mux error: %v", err)
	}
	if final.Duration != composite.Duration || final.Path != out {
		t.Fatalf("final = %+v", final)
	}
	if len(runner.calls) != 1 {
		t.Fatalf("runner called %d times; want 1", len(runner.calls))
	}
	want := append([]string{"ffmpeg"}, MuxArgs(composite.Path, narration.Path, out)...)
	if !reflect.DeepEqual(runner.calls[0], want) {
		t.Fatalf("command = %q; want %q", runner.calls[0], want)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("stale output was not cleared before running")
	}
}

func TestMuxFailureIsErrMux(t *testing.T) {
	dir := t.TempDir()
	composite := types.CompositeVideo{PostID: "p2", Path: filepath.Join(dir, "p2_temp.mp4")}
	narration := types.NarrationAsset{PostID: "p2", Path: filepath.Join(dir, "p2.mp3")}
	writeFile(t, composite.Path)
	writeFile(t, narration.Path)

	runner := &recordingRunner{err: errors.New("exit status 1")}
	_, err := NewMuxer("", runner).Mux(context.Background(), composite, narration, filepath.Join(dir, "p2.mp4"))
	if !errors.Is(err, ErrMux) {
		t.Fatalf("err = %v; want ErrMux", err)
	}
}

func TestComposeMissingBackground(t *testing.T) {
	dir := t.TempDir()
	runner := &recordingRunner{}
	c := NewCompositor("ffmpeg", 24, stubProber{info: MediaInfo{HasVideo: true, Duration: time.Minute}}, runner)

	_, err := c.Compose(context.Background(), ComposeRequest{
		Caption:     "TIL something",
		Background:  filepath.Join(dir, "nope.mp4"),
		Narration:   types.NarrationAsset{PostID: "p3", Duration: 3 * time.Second},
		CaptionPath: filepath.Join(dir, "p3.ass"),
		OutputPath:  filepath.Join(dir, "p3_temp.mp4"),
	})
	if !errors.Is(err, ErrMissingResource) {
		t.Fatalf("err = %v; want ErrMissingResource", err)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("encoder ran despite missing background")
	}
}

func TestComposeBuildsCaptionedEncode(t *testing.T) {
	cases := []struct {
		name     string
		hasAudio bool
		subdir   string
		wantAss  string
	}{
		{"background with audio", true, "", "/abc123.ass"},
		{"silent background", false, "", "/abc123.ass"},
		{"caption path with separators", true, "my work,dir:x", `/my work\,dir\\:x/abc123.ass`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			captionDir := filepath.Join(dir, tc.subdir)
			if err := os.MkdirAll(captionDir, 0o755); err != nil {
				t.Fatal(err)
			}
			bg := filepath.Join(dir, "background_1.mp4")
			writeFile(t, bg)
			runner := &recordingRunner{}
			prober := stubProber{info: MediaInfo{HasVideo: true, HasAudio: tc.hasAudio, Duration: 5 * time.Second}}
			c := NewCompositor("ffmpeg", 24, prober, runner)

			req := ComposeRequest{
				Caption:     "The Eiffel Tower can be 15 cm taller during summer",
				Background:  bg,
				Narration:   types.NarrationAsset{PostID: "abc123", Duration: 12300 * time.Millisecond},
				CaptionPath: filepath.Join(captionDir, "abc123.ass"),
				OutputPath:  filepath.Join(dir, "abc123_temp.mp4"),
			}
			got, err := c.Compose(context.Background(), req)
			if err != nil {
				t.Fatalf("Compose error: %v", err)
			}
			if got.Duration != 16300*time.Millisecond {
				t.Fatalf("Duration = %s; want 16.3s", got.Duration)
			}

			script, err := os.ReadFile(req.CaptionPath)
			if err != nil {
				t.Fatalf("caption not written: %v", err)
			}
			for _, want := range []string{"Futura,30", "0:00:16.30", req.Caption} {
				if !strings.Contains(string(script), want) {
					t.Fatalf("caption script missing %q:\n%s", want, script)
				}
			}

			if len(runner.calls) != 1 {
				t.Fatalf("runner called %d times; want 1", len(runner.calls))
			}
			cmd := strings.Join(runner.calls[0], " ")
			for _, want := range []string{"-stream_loop -1", "-t 16.300", "-r 24", "ass=", "scale=1080:1920", "crop=1080:1920"} {
				if !strings.Contains(cmd, want) {
					t.Fatalf("command missing %q: %s", want, cmd)
				}
			}
			if want := "ass=" + strings.TrimSuffix(filepath.ToSlash(captionDir), "/"+tc.subdir) + tc.wantAss; !strings.Contains(cmd, want) {
				t.Fatalf("command missing %q: %s", want, cmd)
			}
			if strings.Contains(cmd, "anullsrc") == tc.hasAudio {
				t.Fatalf("silent track presence wrong (hasAudio=%v): %s", tc.hasAudio, cmd)
			}
		})
	}
}

func TestComposeSilentNarration(t *testing.T) {
	dir := t.TempDir()
	bg := filepath.Join(dir, "background_1.mp4")
	writeFile(t, bg)
	runner := &recordingRunner{}
	c := NewCompositor("ffmpeg", 24, stubProber{info: MediaInfo{HasVideo: true, Duration: time.Minute}}, runner)

	got, err := c.Compose(context.Background(), ComposeRequest{
		Caption:     "TIL",
		Background:  bg,
		Narration:   types.NarrationAsset{PostID: "p0"},
		CaptionPath: filepath.Join(dir, "p0.ass"),
		OutputPath:  filepath.Join(dir, "p0_temp.mp4"),
	})
	if err != nil {
		t.Fatalf("Compose error: %v", err)
	}
	if got.Duration != 4*time.Second {
		t.Fatalf("Duration = %s; want 4s", got.Duration)
	}
	if cmd := strings.Join(runner.calls[0], " "); !strings.Contains(cmd, "-t 4.000") {
		t.Fatalf("command missing -t 4.000: %s", cmd)
	}
}

func TestEscapeFilterPath(t *testing.T) {
	cases := map[string]string{
		"/tmp/work/abc123.ass": "/tmp/work/abc123.ass",
		"/tmp/a:b/abc123.ass":  `/tmp/a\:b/abc123.ass`,
		"/tmp/it's/abc123.ass": `/tmp/it\'s/abc123.ass`,
		`/tmp/back\slash.ass`:  `/tmp/back\\slash.ass`,
	}
	for in, want := range cases {
		if got := escapeFilterPath(in); got != want {
			t.Fatalf("escapeFilterPath(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestParseSeconds(t *testing.T) {
	if d, err := parseSeconds("0.000000"); err != nil || d != 0 {
		t.Fatalf("parseSeconds(0.000000) = %s, %v", d, err)
	}
	for _, bad := range []string{"", "N/A", "-1.5", "abc"} {
		if _, err := parseSeconds(bad); err == nil {
			t.Fatalf("parseSeconds(%q) = nil error", bad)
		}
	}
}

func TestParseProbe(t *testing.T) {
	out := `{
		"streams": [
			{"codec_type": "video", "width": 1920, "height": 1080, "duration": "30.000000"},
			{"codec_type": "audio", "duration": "29.980000"}
		],
		"format": {"duration": "12.345000"}
	}`
	info, err := parseProbe([]byte(out))
	if err != nil {
		t.Fatalf("parseProbe error: %v", err)
	}
	if info.Duration != 12345*time.Millisecond {
		t.Fatalf("Duration = %s; want 12.345s", info.Duration)
	}
	if !info.HasVideo || !info.HasAudio || info.Width != 1920 || info.Height != 1080 {
		t.Fatalf("info = %+v", info)
	}

	if _, err := parseProbe([]byte(`{"streams": [], "format": {}}`)); err == nil {
		t.Fatalf("parseProbe without duration = nil error")
	}
}

func TestFormatASSTimestamp(t *testing.T) {
	cases := map[time.Duration]string{
		0:                        "0:00:00.00",
		16300 * time.Millisecond: "0:00:16.30",
		16301 * time.Millisecond: "0:00:16.31",
		3723 * time.Second:       "1:02:03.00",
	}
	for in, want := range cases {
		if got := formatASSTimestamp(in); got != want {
			t.Fatalf("formatASSTimestamp(%s) = %q; want %q", in, got, want)
		}
	}
}

func TestStderrTail(t *testing.T) {
	got := stderrTail("a\n\nb\nc\n", 2)
	if got != "b | c" {
		t.Fatalf("stderrTail = %q", got)
	}
}
