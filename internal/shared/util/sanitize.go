package util

import (
	"errors"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxFileNameBytes caps sanitized upload names so storage keys stay well
// under the 1024-byte S3 key limit.
const MaxFileNameBytes = 120

var ErrInvalidFileName = errors.New("invalid file name")

// SanitizeFileName makes an uploaded conversation's name safe to use as the
// last segment of a storage key. Separators and control characters become
// underscores, and long names are trimmed from the stem so the extension
// survives for content-type detection.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", ErrInvalidFileName
	}
	s := strings.Map(func(r rune) rune {
		switch {
		case r == '/', r == '\\':
			return '_'
		case unicode.IsControl(r), r == utf8.RuneError:
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	s = strings.Trim(s, ". ")
	if s == "" || strings.Trim(s, "_") == "" {
		return "", ErrInvalidFileName
	}
	if len(s) > MaxFileNameBytes {
		ext := path.Ext(s)
		if len(ext) > 16 {
			ext = ""
		}
		stem := truncateUTF8(strings.TrimSuffix(s, ext), MaxFileNameBytes-len(ext))
		s = stem + ext
	}
	return s, nil
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
