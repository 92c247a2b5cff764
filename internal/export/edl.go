package export

import (
	"fmt"
	"strings"
)

// GenerateEDL renders segments as a CMX3600 list. Record times are laid
// back to back in frames so rounding never opens gaps between events.
func GenerateEDL(segments []Segment, title string, rate Rate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TITLE: %s\n", title)
	fmt.Fprintf(&b, "FCM: %s\n\n", rate.FCM())

	record := 0
	for i, seg := range segments {
		in, out := rate.Frames(seg.In), rate.Frames(seg.Out)
		length := out - in

		fmt.Fprintf(&b, "%03d  %-*s V     C        %s %s %s %s\n",
			i+1, reelWidth, seg.Reel,
			rate.Timecode(in), rate.Timecode(out),
			rate.Timecode(record), rate.Timecode(record+length))
		fmt.Fprintf(&b, "* FROM CLIP NAME:  %s\n", seg.Name)
		if seg.Comment != "" {
			fmt.Fprintf(&b, "* COMMENT:  %s\n", seg.Comment)
		}
		fmt.Fprintf(&b, "* SOURCE FILE:  %s\n", seg.Source)

		record += length
	}
	return b.String()
}
