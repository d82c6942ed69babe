package storage

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Title limits. maxTitleBytes leaves room for "-" + a 36 byte task id + ".txt"
// under the 255 byte NAME_MAX of common filesystems.
const (
	maxTitleRunes = 80
	maxTitleBytes = 200
)

// latin diacritics only; NFC recomposes kana voicing marks afterwards
var foldAccents = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.Predicate(func(r rune) bool { return r >= 0x0300 && r <= 0x036F })),
	norm.NFC,
)

// SanitizeTitle turns a video title into a filename fragment made of letters,
// digits, hyphens and underscores. Whitespace becomes an underscore, everything else is dropped.
// The result is cut on a rune boundary at maxTitleRunes runes or maxTitleBytes bytes.
func SanitizeTitle(title string) string {
	folded, _, err := transform.String(foldAccents, title)
	if err != nil {
		folded = title
	}

	var sb strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(folded) {
		if n == maxTitleRunes {
			break
		}
		switch {
		case unicode.IsSpace(r):
			r = '_'
		case r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		default:
			continue
		}
		if sb.Len()+utf8.RuneLen(r) > maxTitleBytes {
			break
		}
		sb.WriteRune(r)
		n++
	}
	return sb.String()
}

// ArtifactName returns the artifact filename for a task: {title}-{taskID}.txt,
// or {taskID}.txt when the title sanitizes to nothing.
func ArtifactName(title, taskID string) string {
	if t := SanitizeTitle(title); t != "" {
		return t + "-" + taskID + ".txt"
	}
	return taskID + ".txt"
}
