package knowledge

import "strings"

const (
	// MaxChunkChars bounds the text sent to the model in one extraction call.
	MaxChunkChars = 15000
	minChunkChars = 100
)

// ChunkText splits a long conversation into pieces of at most MaxChunkChars
// characters, preferring paragraph breaks and then line breaks in the second
// half of the window. When splitting happens, pieces of 100 characters or
// fewer are dropped.
func ChunkText(text string) []string {
	runes := []rune(text)
	if len(runes) <= MaxChunkChars {
		return []string{text}
	}

	var chunks []string
	remaining := runes
	for len(remaining) > MaxChunkChars {
		splitAt := lastIndexAtOrBefore(remaining, []rune("\n\n"), MaxChunkChars)
		if splitAt < MaxChunkChars/2 {
			splitAt = lastIndexAtOrBefore(remaining, []rune("\n"), MaxChunkChars)
		}
		if splitAt < MaxChunkChars/2 {
			splitAt = MaxChunkChars
		}
		chunks = append(chunks, strings.TrimSpace(string(remaining[:splitAt])))
		remaining = []rune(strings.TrimSpace(string(remaining[splitAt:])))
	}
	if len(remaining) > 0 {
		chunks = append(chunks, string(remaining))
	}

	out := chunks[:0]
	for _, c := range chunks {
		if len([]rune(c)) > minChunkChars {
			out = append(out, c)
		}
	}
	return out
}

// lastIndexAtOrBefore returns the last position <= from where sep starts, or -1.
func lastIndexAtOrBefore(s, sep []rune, from int) int {
	start := from
	if last := len(s) - len(sep); start > last {
		start = last
	}
	for i := start; i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
