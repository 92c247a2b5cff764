package export

import (
	"errors"
	"fmt"
	"math"
)

// maxFrameRate bounds accepted rates; anything higher is a typo.
const maxFrameRate = 240

var ErrInvalidFrameRate = errors.New("frame rate must be a positive number up to 240")

// Rate is a video frame rate. Frames are counted at Actual, timecodes are
// labelled at Nominal. NTSC rates (29.97, 59.94) use drop-frame labels.
type Rate struct {
	Actual  float64
	Nominal int
	Drop    bool
}

// ParseRate classifies fps. Fractional rates such as 23.976 label frames
// at the nearest integer rate.
func ParseRate(fps float64) (Rate, error) {
	if math.IsNaN(fps) || fps <= 0 || fps > maxFrameRate {
		return Rate{}, ErrInvalidFrameRate
	}
	nominal := int(math.Round(fps))
	if nominal < 1 {
		nominal = 1
	}
	drop := (nominal == 30 || nominal == 60) && math.Abs(fps-float64(nominal)*1000/1001) < 0.01
	return Rate{Actual: fps, Nominal: nominal, Drop: drop}, nil
}

// Frames converts a source offset in seconds to a frame count.
func (r Rate) Frames(seconds float64) int {
	return int(math.Round(seconds * r.Actual))
}

// Timecode labels a frame count as HH:MM:SS:FF, or HH:MM:SS;FF for
// drop-frame rates.
func (r Rate) Timecode(frames int) string {
	if frames < 0 {
		frames = 0
	}
	sep := ":"
	if r.Drop {
		frames = r.dropFrameLabel(frames)
		sep = ";"
	}

	fps := r.Nominal
	ff := frames % fps
	totalSeconds := frames / fps
	return fmt.Sprintf("%02d:%02d:%02d%s%02d",
		totalSeconds/3600, totalSeconds/60%60, totalSeconds%60, sep, ff)
}

// dropFrameLabel maps a real frame count to the frame number shown on a
// drop-frame clock, which skips the first labels of every minute except
// each tenth.
func (r Rate) dropFrameLabel(frames int) int {
	dropped := r.Nominal / 15
	perMinute := r.Nominal*60 - dropped
	perTenMinutes := perMinute*10 + dropped

	tens, rem := frames/perTenMinutes, frames%perTenMinutes
	frames += 9 * dropped * tens
	if rem > dropped {
		frames += dropped * ((rem - dropped) / perMinute)
	}
	return frames
}

// FCM is the frame code mode header value.
func (r Rate) FCM() string {
	if r.Drop {
		return "DROP FRAME"
	}
	return "NON-DROP FRAME"
}
