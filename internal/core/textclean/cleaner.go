// Package textclean normalizes raw resume text before feature extraction.
package textclean

import (
	"regexp"
	"strings"
)

// whitespace mirrors the Unicode notion of \s used when the model was trained,
// which is wider than the ASCII-only \s of RE2.
const whitespace = `\t\n\v\f\r\x1c-\x1f\x85\p{Z}`

var (
	reURL      = regexp.MustCompile(`http[^` + whitespace + `]+[` + whitespace + `]`)
	reRetweet  = regexp.MustCompile(`RT|cc`)
	reHashtag  = regexp.MustCompile(`#[^` + whitespace + `]+[` + whitespace + `]`)
	reMention  = regexp.MustCompile(`@[^` + whitespace + `]+`)
	reNonASCII = regexp.MustCompile(`[^\x00-\x7F]+`)
	reSpaces   = regexp.MustCompile(`[` + whitespace + `]+`)
)

// Clean returns a single-line, ASCII-only, whitespace-normalized version of text.
//
// The rules run in a fixed order and are repeated until the output stops
// changing, so Clean(Clean(s)) == Clean(s) for every input.
func Clean(text string) string {
	out := pass(text)
	for {
		next := pass(out)
		if next == out {
			return out
		}
		out = next
	}
}

func pass(text string) string {
	s := reURL.ReplaceAllString(text, " ")
	s = reRetweet.ReplaceAllString(s, " ")
	s = reHashtag.ReplaceAllString(s, " ")
	s = reMention.ReplaceAllString(s, " ")
	s = reNonASCII.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
