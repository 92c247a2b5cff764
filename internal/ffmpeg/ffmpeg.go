// Package ffmpeg builds the ffmpeg invocations a transcoder would run for a
// clip. Nothing here executes a process.
package ffmpeg

import (
	"strings"
)

const (
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
	DefaultPreset     = "veryfast"
	Binary            = "ffmpeg"
)

// ClipPlan describes one clip extraction. Start and End are passed through
// verbatim, ffmpeg accepts both MM:SS and seconds.
type ClipPlan struct {
	Start      string
	End        string
	Input      string
	Output     string
	VideoCodec string
	AudioCodec string
	Preset     string
}

// NewClipPlan returns a plan with the default codecs and preset.
func NewClipPlan(start, end, input, output string) ClipPlan {
	return ClipPlan{
		Start:      start,
		End:        end,
		Input:      input,
		Output:     output,
		VideoCodec: DefaultVideoCodec,
		AudioCodec: DefaultAudioCodec,
		Preset:     DefaultPreset,
	}
}

// Args returns the argument vector without the binary name. -ss precedes -i
// so ffmpeg seeks the input before decoding.
func (p ClipPlan) Args() []string {
	vcodec := orDefault(p.VideoCodec, DefaultVideoCodec)
	acodec := orDefault(p.AudioCodec, DefaultAudioCodec)
	preset := orDefault(p.Preset, DefaultPreset)

	return []string{
		"-ss", p.Start,
		"-to", p.End,
		"-i", p.Input,
		"-c:v", vcodec,
		"-c:a", acodec,
		"-strict", "experimental",
		"-preset", preset,
		"-y", p.Output,
	}
}

// Command returns the full argv including the binary.
func (p ClipPlan) Command() []string {
	return append([]string{Binary}, p.Args()...)
}

// String renders the command as a POSIX shell line.
func (p ClipPlan) String() string {
	argv := p.Command()
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = Quote(a)
	}
	return strings.Join(quoted, " ")
}

// Script renders the plan as a standalone sh script that runs the command.
func (p ClipPlan) Script() string {
	var b strings.Builder
	b.WriteString("#!/bin/sh\n")
	b.WriteString("# clip " + p.Start + " - " + p.End + "\n")
	b.WriteString("exec " + p.String() + "\n")
	return b.String()
}

// Quote single-quotes s when it contains anything outside a safe set.
func Quote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.IndexFunc(s, unsafeRune) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func unsafeRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case strings.ContainsRune("-_./:=,+@%", r):
		return false
	}
	return true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
