// Package videoref resolves YouTube video references from user-supplied URLs.
package videoref

import (
	"regexp"
	"unicode/utf8"
)

// IDLength is the length of a YouTube video id.
const IDLength = 11

const watchURLTemplate = "https://www.youtube.com/watch?v="

// The greedy prefix makes the last recognised marker win, so the pattern
// matches anywhere in the input.
var urlPattern = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ExtractVideoID returns the 11-character id carried by url. The boolean is
// false when url matches no known shape or the captured token has the wrong
// length.
func ExtractVideoID(url string) (string, bool) {
	m := urlPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	if utf8.RuneCountInString(m[2]) != IDLength {
		return "", false
	}
	return m[2], true
}

// WatchURL returns the canonical watch URL for id.
func WatchURL(id string) string {
	return watchURLTemplate + id
}
