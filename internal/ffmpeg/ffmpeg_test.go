package ffmpeg

import (
	"reflect"
	"testing"
)

func TestClipPlan_Args(t *testing.T) {
	p := NewClipPlan("00:10", "00:45", "[URL]", "temp_clips/clip_1.mp4")

	want := []string{
		"-ss", "00:10",
		"-to", "00:45",
		"-i", "[URL]",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-strict", "experimental",
		"-preset", "veryfast",
		"-y", "temp_clips/clip_1.mp4",
	}
	if got := p.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Args() = %v, want %v", got, want)
	}
}

func TestClipPlan_ZeroValueUsesDefaults(t *testing.T) {
	p := ClipPlan{Start: "0", End: "5", Input: "in.mp4", Output: "out.mp4"}
	args := p.Args()

	if args[7] != DefaultVideoCodec || args[9] != DefaultAudioCodec || args[13] != DefaultPreset {
		t.Fatalf("defaults not applied: %v", args)
	}
}

func TestClipPlan_Command(t *testing.T) {
	p := NewClipPlan("00:00", "00:10", "in.mp4", "out.mp4")
	cmd := p.Command()
	if cmd[0] != "ffmpeg" {
		t.Fatalf("Command()[0] = %q, want ffmpeg", cmd[0])
	}
	if len(cmd) != len(p.Args())+1 {
		t.Fatalf("len(Command()) = %d, want %d", len(cmd), len(p.Args())+1)
	}
}

func TestClipPlan_String(t *testing.T) {
	p := NewClipPlan("00:00", "00:10", "[URL]", "out dir/clip.mp4")
	want := "ffmpeg -ss 00:00 -to 00:10 -i '[URL]' -c:v libx264 -c:a aac -strict experimental -preset veryfast -y 'out dir/clip.mp4'"
	if got := p.String(); got != want {
		t.Fatalf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestClipPlan_Script(t *testing.T) {
	p := NewClipPlan("00:05", "00:15", "[URL]", "clip.mp4")
	want := "#!/bin/sh\n# clip 00:05 - 00:15\nexec " + p.String() + "\n"
	if got := p.Script(); got != want {
		t.Fatalf("Script() =\n%s\nwant\n%s", got, want)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "''"},
		{"plain", "plain"},
		{"https://example.com/a.mp4", "https://example.com/a.mp4"},
		{"a b", "'a b'"},
		{"it's", `'it'\''s'`},
		{"x&y", "'x&y'"},
	}

	for _, tt := range tests {
		if got := Quote(tt.in); got != tt.want {
			t.Errorf("Quote(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
